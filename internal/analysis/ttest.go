package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// pairedTTest compares two matched samples of equal length. The statistic is
// the mean pairwise difference over its standard error, with n-1 degrees of
// freedom. Callers guarantee len(a) == len(b) >= 2.
func pairedTTest(a, b []float64) (tStat, pValue float64) {
	n := len(a)
	diffs := make([]float64, n)
	for i := range a {
		diffs[i] = a[i] - b[i]
	}

	dMean := meanOf(diffs)
	sumSq := 0.0
	for _, d := range diffs {
		sumSq += (d - dMean) * (d - dMean)
	}
	sd := math.Sqrt(sumSq / float64(n-1))
	se := sd / math.Sqrt(float64(n))

	if se == 0 {
		if dMean == 0 {
			return 0, 1
		}
		return math.Copysign(maxStatistic, dMean), 0
	}

	t := dMean / se
	return t, twoTailedT(t, float64(n-1))
}

// independentTTest is the classic two-sample t-test with pooled variance
// (equal variances assumed), matching the original analysis's test choice.
// Callers guarantee both samples have at least two observations.
func independentTTest(a, b []float64) (tStat, pValue float64) {
	n1 := float64(len(a))
	n2 := float64(len(b))
	m1 := meanOf(a)
	m2 := meanOf(b)

	var ss1, ss2 float64
	for _, v := range a {
		ss1 += (v - m1) * (v - m1)
	}
	for _, v := range b {
		ss2 += (v - m2) * (v - m2)
	}

	df := n1 + n2 - 2
	pooled := (ss1 + ss2) / df
	se := math.Sqrt(pooled * (1/n1 + 1/n2))

	if se == 0 {
		if m1 == m2 {
			return 0, 1
		}
		return math.Copysign(maxStatistic, m1-m2), 0
	}

	t := (m1 - m2) / se
	return t, twoTailedT(t, df)
}

// twoTailedT computes the two-tailed p-value of a t statistic.
func twoTailedT(t, df float64) float64 {
	if df <= 0 {
		return 1
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return clampP(2 * (1 - dist.CDF(math.Abs(t))))
}
