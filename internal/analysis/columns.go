package analysis

import (
	"fmt"

	"reachlab/domain/core"
	"reachlab/domain/trial"
)

// Dependent-variable column names accepted by the tester. Names match the
// trial table's exported JSON keys so API callers and the CLI share one
// vocabulary.
const (
	ColReactionTime   = "reactionTime"
	ColMovementTime   = "movementTime"
	ColPathLength     = "pathLength"
	ColPathEfficiency = "pathEfficiency"
	ColAverageSpeed   = "averageSpeed"
	ColSpeedVariance  = "speedVariance"
	ColJerk           = "jerk"
	ColCorrections    = "corrections"
)

// Grouping column names for between-group comparisons.
const (
	GroupADHD     = "hasAttentionDeficit"
	GroupGlasses  = "hasGlasses"
	GroupGender   = "gender"
	GroupAgeGroup = "ageGroup"
	GroupTarget   = "targetIndex"
)

// dvValue extracts the dependent variable from a row; nil means missing.
// An unknown column name is a contract violation by the caller, not a
// data-quality state, and surfaces as a fatal schema error.
func dvValue(t *trial.Trial, column string) (*float64, error) {
	switch column {
	case ColReactionTime:
		return t.ReactionTime, nil
	case ColMovementTime:
		return t.MovementTime, nil
	case ColPathLength:
		return t.PathLength, nil
	case ColPathEfficiency:
		return t.Derived.PathEfficiency, nil
	case ColAverageSpeed:
		return t.Derived.AverageSpeed, nil
	case ColSpeedVariance:
		return t.Derived.SpeedVariance, nil
	case ColJerk:
		return t.Derived.Jerk, nil
	case ColCorrections:
		if t.Derived.Corrections == nil {
			return nil, nil
		}
		v := float64(*t.Derived.Corrections)
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownColumn, column)
	}
}

// groupLabel extracts the grouping label from a row; ("", false) means the
// demographic is missing on that row. Labels are the human-readable group
// names used in reports and result objects.
func groupLabel(t *trial.Trial, column string) (string, bool, error) {
	switch column {
	case GroupADHD:
		if t.HasAttentionDeficit == nil {
			return "", false, nil
		}
		if *t.HasAttentionDeficit {
			return "ADHD", true, nil
		}
		return "No ADHD", true, nil
	case GroupGlasses:
		if t.HasGlasses == nil {
			return "", false, nil
		}
		if *t.HasGlasses {
			return "Glasses", true, nil
		}
		return "No Glasses", true, nil
	case GroupGender:
		if t.Gender == nil || *t.Gender == "" {
			return "", false, nil
		}
		return *t.Gender, true, nil
	case GroupAgeGroup:
		if t.AgeGroup == nil || *t.AgeGroup == "" {
			return "", false, nil
		}
		return *t.AgeGroup, true, nil
	case GroupTarget:
		if t.TargetIndex == nil {
			return "", false, nil
		}
		return fmt.Sprintf("Target %d", *t.TargetIndex), true, nil
	default:
		return "", false, fmt.Errorf("%w: %q", core.ErrUnknownGrouping, column)
	}
}
