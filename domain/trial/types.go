package trial

import (
	"math"
	"sort"

	"reachlab/domain/core"
)

// TrialType identifies the priming condition a trial ran under.
type TrialType string

// The three priming conditions of the reaching-movement experiment.
const (
	PreSupra        TrialType = "PRE_SUPRA"
	PreJND          TrialType = "PRE_JND"
	ConcurrentSupra TrialType = "CONCURRENT_SUPRA"
)

// DefaultConditions is the condition label set in its hypothesized order
// (fastest expected first). Configurable via AnalysisConfig.
func DefaultConditions() []TrialType {
	return []TrialType{PreSupra, PreJND, ConcurrentSupra}
}

// TrajectoryPoint is one recorded cursor position during a reach.
// T is milliseconds relative to the trial's own clock.
type TrajectoryPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	T float64 `json:"t"`
}

// Participant holds the demographic record for one subject.
// Pointer fields are nil when the demographic was never collected.
type Participant struct {
	ID                  core.ParticipantID `json:"id"`
	Age                 *int               `json:"age,omitempty"`
	Gender              *string            `json:"gender,omitempty"`
	HasGlasses          *bool              `json:"hasGlasses,omitempty"`
	HasAttentionDeficit *bool              `json:"hasAttentionDeficit,omitempty"`
	JNDThreshold        *float64           `json:"jndThreshold,omitempty"`
}

// Trial is one attempted reach. Source fields are read-only to the
// analysis core; derived columns are only ever appended, never written back.
type Trial struct {
	ID            core.TrialID       `json:"trialId"`
	ParticipantID core.ParticipantID `json:"participantId"`
	Type          TrialType          `json:"trialType"`
	TargetIndex   *int               `json:"targetIndex,omitempty"`
	ReactionTime  *float64           `json:"reactionTime,omitempty"` // ms, go-cue to first movement
	MovementTime  *float64           `json:"movementTime,omitempty"` // ms, first movement to target
	PathLength    *float64           `json:"pathLength,omitempty"`   // px, computed upstream
	MovementPath  []TrajectoryPoint  `json:"movementPath,omitempty"`

	// Demographics denormalized onto the row by the data source.
	Age                 *int    `json:"age,omitempty"`
	AgeGroup            *string `json:"ageGroup,omitempty"`
	Gender              *string `json:"gender,omitempty"`
	HasGlasses          *bool   `json:"hasGlasses,omitempty"`
	HasAttentionDeficit *bool   `json:"hasAttentionDeficit,omitempty"`

	Derived Derived `json:"derived"`
}

// Derived carries the per-trial kinematic columns attached by the metrics
// pass. nil means missing: the trajectory was too short or malformed for
// that metric, and downstream statistics drop the row instead of biasing
// toward zero.
type Derived struct {
	AverageSpeed    *float64 `json:"averageSpeed,omitempty"`    // px/s
	SpeedVariance   *float64 `json:"speedVariance,omitempty"`   // population variance of the velocity series
	VelocityPeaks   *int     `json:"velocityPeaks,omitempty"`   // prominent local maxima
	Jerk            *float64 `json:"jerk,omitempty"`            // mean |Δacceleration|
	PathEfficiency  *float64 `json:"pathEfficiency,omitempty"`  // ideal distance / path length
	Corrections     *int     `json:"corrections,omitempty"`     // direction changes over threshold
	ConditionMeanRT *float64 `json:"conditionMeanRT,omitempty"` // mean RT of this trial's condition
}

// ValidPath reports whether the movement path is a well-formed trajectory of
// at least min samples with non-decreasing timestamps. Derived-metric
// computation is skipped (not failed) when this is false.
func (t *Trial) ValidPath(min int) bool {
	if len(t.MovementPath) < min {
		return false
	}
	for i, p := range t.MovementPath {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.T) {
			return false
		}
		if i > 0 && p.T < t.MovementPath[i-1].T {
			return false
		}
	}
	return true
}

// Batch is an ordered set of trial rows. The analysis core treats it as an
// immutable table: transforms return new batches in the same row order.
type Batch []Trial

// ByType returns the rows of the given condition, preserving order.
func (b Batch) ByType(tt TrialType) Batch {
	out := make(Batch, 0, len(b))
	for _, t := range b {
		if t.Type == tt {
			out = append(out, t)
		}
	}
	return out
}

// Participants returns the distinct participant IDs, sorted for determinism.
func (b Batch) Participants() []core.ParticipantID {
	seen := make(map[core.ParticipantID]bool)
	for _, t := range b {
		seen[t.ParticipantID] = true
	}
	ids := make([]core.ParticipantID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
