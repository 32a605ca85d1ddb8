package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// OmnibusTest is the main-effect test run across the condition vectors.
// The experiment's published results use a one-way F across conditions as an
// approximation of a true repeated-measures ANOVA; the interface isolates
// that choice so a more rigorous test can be substituted without touching
// callers.
type OmnibusTest interface {
	Name() string
	Run(groups [][]float64) (statistic, pValue float64)
}

// OneWayF is the classic one-way ANOVA F test, treating each condition's
// vector as independent.
type OneWayF struct{}

// Name returns the test identifier used in result objects.
func (OneWayF) Name() string { return "one_way_f" }

// Run computes the F statistic and p-value for k groups. Callers guarantee
// k >= 2 and every group has at least two observations.
func (OneWayF) Run(groups [][]float64) (float64, float64) {
	k := len(groups)
	total := 0
	grandSum := 0.0
	for _, g := range groups {
		total += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	grandMean := grandSum / float64(total)

	ssBetween := 0.0
	ssWithin := 0.0
	for _, g := range groups {
		m := meanOf(g)
		ssBetween += float64(len(g)) * (m - grandMean) * (m - grandMean)
		for _, v := range g {
			ssWithin += (v - m) * (v - m)
		}
	}

	dfBetween := float64(k - 1)
	dfWithin := float64(total - k)
	if dfWithin <= 0 {
		return 0, 1
	}

	msWithin := ssWithin / dfWithin
	if msWithin == 0 {
		// Zero within-group variance: every group is constant. The ratio is
		// degenerate; report certainty in the direction the sums suggest.
		if ssBetween == 0 {
			return 0, 1
		}
		return maxStatistic, 0
	}

	f := (ssBetween / dfBetween) / msWithin
	dist := distuv.F{D1: dfBetween, D2: dfWithin}
	p := 1 - dist.CDF(f)
	return f, clampP(p)
}

// maxStatistic stands in for an unbounded test statistic in degenerate
// zero-variance cases, keeping results JSON-serializable (no Inf).
const maxStatistic = 1e9

func meanOf(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func clampP(p float64) float64 {
	if math.IsNaN(p) {
		return 1
	}
	return math.Min(math.Max(p, 0), 1)
}
