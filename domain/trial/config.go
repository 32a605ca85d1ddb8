package trial

import "math"

// AnalysisConfig carries every tunable the analysis core accepts. The values
// below mirror the experiment's published defaults; none of them are
// statistically derived, so callers may override any of them.
type AnalysisConfig struct {
	// OutlierThresholdMS excludes implausible reaction times before any test
	// runs. Trials with RT at or above this are dropped during cleaning.
	OutlierThresholdMS float64

	// PeakProminence is the minimum px/s a local velocity maximum must rise
	// above its surrounding valleys to count as a peak.
	PeakProminence float64

	// AngleThreshold is the bearing change (radians, wrapped into [0, π])
	// above which a trajectory segment counts as a correction.
	AngleThreshold float64

	// Alpha is the significance level for every test in the battery.
	Alpha float64

	// Conditions is the ordered condition label set; order expresses the
	// hypothesized fastest-to-slowest ordering.
	Conditions []TrialType

	// IdealDistance maps targetIndex to the straight-line distance used as
	// the pathEfficiency numerator. Targets not present fall back to
	// DefaultIdealDistance.
	IdealDistance map[int]float64

	// DefaultIdealDistance is the global numerator when no per-target
	// distance is known.
	DefaultIdealDistance float64
}

// DefaultConfig returns the configuration the original experiment ran with.
func DefaultConfig() AnalysisConfig {
	return AnalysisConfig{
		OutlierThresholdMS:   50000,
		PeakProminence:       50,
		AngleThreshold:       math.Pi / 6,
		Alpha:                0.05,
		Conditions:           DefaultConditions(),
		IdealDistance:        map[int]float64{},
		DefaultIdealDistance: 800,
	}
}

// IdealDistanceFor resolves the pathEfficiency numerator for a target.
func (c AnalysisConfig) IdealDistanceFor(targetIndex *int) float64 {
	if targetIndex != nil {
		if d, ok := c.IdealDistance[*targetIndex]; ok {
			return d
		}
	}
	return c.DefaultIdealDistance
}
