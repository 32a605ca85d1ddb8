package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachlab/domain/stats"
	"reachlab/domain/trial"
)

func adhdTrial(id int, pid string, rt float64, adhd bool) trial.Trial {
	t := rtTrial(id, pid, trial.PreSupra, rt)
	t.HasAttentionDeficit = bptr(adhd)
	return t
}

func TestCompareGroups_TwoGroupsUsesTTest(t *testing.T) {
	batch := trial.Batch{
		adhdTrial(1, "p1", 300, false),
		adhdTrial(2, "p2", 305, false),
		adhdTrial(3, "p3", 310, false),
		adhdTrial(4, "p4", 400, true),
		adhdTrial(5, "p5", 405, true),
	}

	tester := NewTester(trial.DefaultConfig())
	result, err := tester.CompareGroups(batch, ColReactionTime, GroupADHD, nil, "")
	require.NoError(t, err)

	assert.Equal(t, stats.TestIndependentT, result.TestType)
	assert.True(t, result.Significant)
	assert.Equal(t, "No ADHD", result.FastestLabel)
	assert.Equal(t, "ADHD", result.SlowestLabel)
	assert.Contains(t, result.Direction, "No ADHD lower by")
	assert.InDelta(t, 305, result.GroupMeans["No ADHD"], 1e-9)
	assert.InDelta(t, 402.5, result.GroupMeans["ADHD"], 1e-9)
	assert.Equal(t, 3, result.NPerGroup["No ADHD"])
	assert.Equal(t, 2, result.NPerGroup["ADHD"])
}

func TestCompareGroups_ThreeGroupsUsesANOVA(t *testing.T) {
	ageGroups := map[string][]float64{
		"18-25": {290, 300, 310},
		"26-35": {340, 350, 360},
		"46-60": {390, 400, 410},
	}

	var batch trial.Batch
	id := 0
	for bucket, rts := range ageGroups {
		for _, rt := range rts {
			id++
			tr := rtTrial(id, fmt.Sprintf("p%d", id), trial.PreSupra, rt)
			tr.AgeGroup = sptr(bucket)
			batch = append(batch, tr)
		}
	}

	tester := NewTester(trial.DefaultConfig())
	result, err := tester.CompareGroups(batch, ColReactionTime, GroupAgeGroup, trial.AgeBucketOrder, "")
	require.NoError(t, err)

	assert.Equal(t, stats.TestOneWayANOVA, result.TestType)
	assert.True(t, result.Significant)
	assert.Equal(t, "18-25", result.FastestLabel)
	assert.Equal(t, "46-60", result.SlowestLabel)
	assert.Empty(t, result.Direction, "direction phrasing is a two-group annotation")
}

func TestCompareGroups_MissingDemographicSkipped(t *testing.T) {
	batch := trial.Batch{
		adhdTrial(1, "p1", 300, false),
		adhdTrial(2, "p2", 310, false),
		rtTrial(3, "p3", trial.PreSupra, 500), // no ADHD column at all
		adhdTrial(4, "p4", 400, true),
		adhdTrial(5, "p5", 410, true),
	}

	tester := NewTester(trial.DefaultConfig())
	result, err := tester.CompareGroups(batch, ColReactionTime, GroupADHD, nil, "")
	require.NoError(t, err)

	assert.Equal(t, 2, result.NPerGroup["No ADHD"], "rows without the demographic must not join any group")
	assert.Equal(t, 2, result.NPerGroup["ADHD"])
}

func TestCompareGroups_UndersizedGroupExcludedButCounted(t *testing.T) {
	gender := func(id int, pid string, rt float64, g string) trial.Trial {
		tr := rtTrial(id, pid, trial.PreSupra, rt)
		tr.Gender = sptr(g)
		return tr
	}
	batch := trial.Batch{
		gender(1, "p1", 300, "Female"),
		gender(2, "p2", 310, "Female"),
		gender(3, "p3", 390, "Male"),
		gender(4, "p4", 410, "Male"),
		gender(5, "p5", 350, "Nonbinary"), // single observation
	}

	tester := NewTester(trial.DefaultConfig())
	result, err := tester.CompareGroups(batch, ColReactionTime, GroupGender, nil, "")
	require.NoError(t, err)

	assert.Equal(t, stats.TestIndependentT, result.TestType, "one-observation group must not force an ANOVA")
	assert.Equal(t, 1, result.NPerGroup["Nonbinary"], "excluded groups still appear in the counts")
	_, inMeans := result.GroupMeans["Nonbinary"]
	assert.False(t, inMeans, "excluded groups carry no mean")
}

func TestCompareGroups_InsufficientGroups(t *testing.T) {
	batch := trial.Batch{
		adhdTrial(1, "p1", 300, false),
		adhdTrial(2, "p2", 310, false),
		adhdTrial(3, "p3", 320, false),
	}

	tester := NewTester(trial.DefaultConfig())
	result, err := tester.CompareGroups(batch, ColReactionTime, GroupADHD, nil, "PRE_SUPRA")
	require.NoError(t, err)

	assert.True(t, result.Insufficient)
	assert.Equal(t, "PRE_SUPRA", result.Condition)
	assert.Contains(t, result.Reason, "need 2")
}

func TestCompareGroupsAcrossConditions(t *testing.T) {
	var batch trial.Batch
	id := 0
	for _, cond := range trial.DefaultConditions() {
		for p := 0; p < 4; p++ {
			id++
			tr := rtTrial(id, fmt.Sprintf("p%d", p), cond, 300+float64(id)*3)
			tr.HasGlasses = bptr(p%2 == 0)
			batch = append(batch, tr)
		}
	}

	tester := NewTester(trial.DefaultConfig())
	results, err := tester.CompareGroupsAcrossConditions(batch, ColReactionTime, GroupGlasses, nil)
	require.NoError(t, err)

	require.Len(t, results, len(trial.DefaultConditions())+1)
	for i, cond := range trial.DefaultConditions() {
		assert.Equal(t, string(cond), results[i].Condition)
	}
	assert.Equal(t, "", results[len(results)-1].Condition, "last result is the overall comparison")
	assert.Equal(t, 12, results[len(results)-1].NPerGroup["Glasses"]+results[len(results)-1].NPerGroup["No Glasses"])
}

func TestOneWayF_ZeroVarianceDegenerate(t *testing.T) {
	// Constant within groups, different between: certainty without Inf.
	f, p := OneWayF{}.Run([][]float64{{1, 1, 1}, {2, 2, 2}})
	assert.Equal(t, float64(maxStatistic), f)
	assert.Equal(t, 0.0, p)

	// Everything identical: no effect at all.
	f, p = OneWayF{}.Run([][]float64{{3, 3}, {3, 3}})
	assert.Equal(t, 0.0, f)
	assert.Equal(t, 1.0, p)
}

func TestIndependentTTest_KnownValue(t *testing.T) {
	// Hand-checked: pooled variance 1.0, se = sqrt(1*(1/3+1/3)).
	a := []float64{1, 2, 3}
	b := []float64{3, 4, 5}
	tStat, p := independentTTest(a, b)
	assert.InDelta(t, -2.449, tStat, 0.01)
	assert.InDelta(t, 0.0705, p, 0.005)
}

func TestPairedTTest_NoDifference(t *testing.T) {
	tStat, p := pairedTTest([]float64{1, 2, 3}, []float64{1, 2, 3})
	assert.Equal(t, 0.0, tStat)
	assert.Equal(t, 1.0, p)
}
