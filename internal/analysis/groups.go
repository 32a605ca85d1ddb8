package analysis

import (
	"fmt"
	"math"

	"reachlab/domain/stats"
	"reachlab/domain/trial"
)

// minGroupObservations is the smallest group that can take part in a
// between-group test; smaller groups are excluded rather than allowed to
// produce degenerate statistics.
const minGroupObservations = 2

// CompareGroups partitions the batch by one categorical column and compares
// the dependent variable across the observed groups. The test is selected by
// group count: two groups get an independent two-sample t-test, three or
// more a one-way ANOVA. That selection rule is preserved from the original
// analysis as-is; it deliberately applies no variance-homogeneity check or
// non-parametric fallback.
//
// order, when non-nil, fixes the group ordering for ordinal columns (age
// buckets); otherwise groups appear in first-observation order.
// conditionLabel names the trialType slice the batch was cut to ("" = all).
func (t *Tester) CompareGroups(batch trial.Batch, dvColumn, grouping string, order []string, conditionLabel string) (stats.Result, error) {
	testName := fmt.Sprintf("%s_by_%s", dvColumn, grouping)

	labels, values, err := partition(batch, dvColumn, grouping, order)
	if err != nil {
		return stats.Result{}, err
	}

	nPerGroup := make(map[string]int, len(labels))
	usable := make([]string, 0, len(labels))
	for _, label := range labels {
		nPerGroup[label] = len(values[label])
		if len(values[label]) >= minGroupObservations {
			usable = append(usable, label)
		}
	}

	if len(usable) < 2 {
		reason := fmt.Sprintf("%d usable group(s) on %s (need 2)", len(usable), grouping)
		res := stats.Insufficient(testName, stats.TestOneWayANOVA, conditionLabel, reason)
		res.NPerGroup = nPerGroup
		return res, nil
	}

	groupData := make([][]float64, len(usable))
	groupMeans := make(map[string]float64, len(usable))
	for i, label := range usable {
		groupData[i] = values[label]
		groupMeans[label] = meanOf(values[label])
	}

	var result stats.Result
	if len(usable) == 2 {
		tStat, p := independentTTest(groupData[0], groupData[1])
		result = stats.Result{
			TestName:  testName,
			TestType:  stats.TestIndependentT,
			Statistic: tStat,
			PValue:    p,
		}
	} else {
		f, p := OneWayF{}.Run(groupData)
		result = stats.Result{
			TestName:  testName,
			TestType:  stats.TestOneWayANOVA,
			Statistic: f,
			PValue:    p,
		}
	}

	result.Condition = conditionLabel
	result.Significant = result.PValue < t.cfg.Alpha
	result.Stars = stats.StarsFor(result.PValue)
	result.Alpha = t.cfg.Alpha
	result.GroupMeans = groupMeans
	result.NPerGroup = nPerGroup

	if result.Significant {
		annotateGroupExtremes(&result, usable, groupMeans)
		if len(usable) == 2 {
			diff := math.Abs(groupMeans[usable[0]] - groupMeans[usable[1]])
			result.Direction = fmt.Sprintf("%s lower by %.1f", result.FastestLabel, diff)
		}
	}

	return result, nil
}

// CompareGroupsAcrossConditions runs the same comparison once per configured
// trialType slice and once unsliced, in that order, returning one result per
// run. Slices with no usable groups yield insufficient results, not errors.
func (t *Tester) CompareGroupsAcrossConditions(batch trial.Batch, dvColumn, grouping string, order []string) ([]stats.Result, error) {
	results := make([]stats.Result, 0, len(t.cfg.Conditions)+1)

	for _, cond := range t.cfg.Conditions {
		res, err := t.CompareGroups(batch.ByType(cond), dvColumn, grouping, order, string(cond))
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	overall, err := t.CompareGroups(batch, dvColumn, grouping, order, "")
	if err != nil {
		return nil, err
	}
	return append(results, overall), nil
}

// partition gathers non-missing DV observations per observed group label.
// Returned labels follow the caller-supplied order when given (restricted to
// observed labels), otherwise first-observation order.
func partition(batch trial.Batch, dvColumn, grouping string, order []string) ([]string, map[string][]float64, error) {
	values := make(map[string][]float64)
	var observed []string

	for i := range batch {
		row := &batch[i]
		label, ok, err := groupLabel(row, grouping)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		v, err := dvValue(row, dvColumn)
		if err != nil {
			return nil, nil, err
		}
		if v == nil {
			continue
		}
		if _, seen := values[label]; !seen {
			observed = append(observed, label)
		}
		values[label] = append(values[label], *v)
	}

	if order == nil {
		return observed, values, nil
	}

	ordered := make([]string, 0, len(observed))
	for _, label := range order {
		if _, seen := values[label]; seen {
			ordered = append(ordered, label)
		}
	}
	// Labels outside the supplied order still take part, after the ordered ones.
	for _, label := range observed {
		if !containsLabel(ordered, label) {
			ordered = append(ordered, label)
		}
	}
	return ordered, values, nil
}

// annotateGroupExtremes records the lowest- and highest-mean group labels.
func annotateGroupExtremes(result *stats.Result, labels []string, means map[string]float64) {
	fastest, slowest := labels[0], labels[0]
	for _, label := range labels[1:] {
		if means[label] < means[fastest] {
			fastest = label
		}
		if means[label] > means[slowest] {
			slowest = label
		}
	}
	result.FastestLabel = fastest
	result.SlowestLabel = slowest
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
