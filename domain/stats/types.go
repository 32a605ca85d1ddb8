package stats

import "fmt"

// TestType identifies which statistical procedure produced a result.
type TestType string

const (
	TestRepeatedMeasures TestType = "repeated_measures_anova"
	TestOneWayANOVA      TestType = "one_way_anova"
	TestIndependentT     TestType = "independent_t_test"
	TestPairedT          TestType = "paired_t_test"
)

// PairwiseResult is one post-hoc comparison between two condition or group
// labels, matched by participant for repeated-measures designs.
type PairwiseResult struct {
	LabelA         string  `json:"label_a"`
	LabelB         string  `json:"label_b"`
	TStatistic     float64 `json:"t_statistic"`
	PValue         float64 `json:"p_value"`
	MeanDifference float64 `json:"mean_difference"` // mean(A) - mean(B)
	Significant    bool    `json:"significant"`
	Stars          string  `json:"stars"`
	N              int     `json:"n"`
}

// Result is an immutable statistical outcome. A Result either carries a
// computed statistic or an explicit insufficiency reason; it never carries
// both, and NaN never reaches the Significant flag.
type Result struct {
	TestName    string             `json:"test_name"`
	TestType    TestType           `json:"test_type"`
	Condition   string             `json:"condition,omitempty"` // trialType slice, empty = all conditions
	Statistic   float64            `json:"statistic"`
	PValue      float64            `json:"p_value"`
	Significant bool               `json:"significant"`
	Stars       string             `json:"stars"`
	Alpha       float64            `json:"alpha"`
	GroupMeans  map[string]float64 `json:"group_means,omitempty"`
	NPerGroup   map[string]int     `json:"n_per_group,omitempty"`
	NComplete   int                `json:"n_complete,omitempty"` // complete cases (RM designs)
	Pairwise    []PairwiseResult   `json:"pairwise,omitempty"`

	// Interpretation annotations: reporting only, never alter the numbers.
	FastestLabel string `json:"fastest_label,omitempty"`
	SlowestLabel string `json:"slowest_label,omitempty"`
	Ordering     string `json:"ordering,omitempty"` // "supported" | "partially supported"
	Direction    string `json:"direction,omitempty"`

	Insufficient bool   `json:"insufficient"`
	Reason       string `json:"reason,omitempty"`
}

// Insufficient builds the explicit no-statistic outcome for a test that
// could not run. Distinct from a non-significant result.
func Insufficient(testName string, testType TestType, condition, reason string) Result {
	return Result{
		TestName:     testName,
		TestType:     testType,
		Condition:    condition,
		Insufficient: true,
		Reason:       reason,
	}
}

// StarsFor returns the qualitative significance marker for a p-value.
func StarsFor(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	default:
		return "ns"
	}
}

// Describe renders the result as a one-line human-readable summary.
func (r Result) Describe() string {
	if r.Insufficient {
		return fmt.Sprintf("%s: insufficient data (%s)", r.TestName, r.Reason)
	}
	stat := "F"
	if r.TestType == TestIndependentT || r.TestType == TestPairedT {
		stat = "t"
	}
	return fmt.Sprintf("%s: %s=%.3f, p=%.4f (%s)", r.TestName, stat, r.Statistic, r.PValue, r.Stars)
}
