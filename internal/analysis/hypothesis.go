package analysis

import (
	"fmt"
	"sort"

	"reachlab/domain/core"
	"reachlab/domain/stats"
	"reachlab/domain/trial"
)

// Tester runs the experiment's statistical comparisons: the within-subject
// main-effect test across conditions and between-group comparisons on
// categorical columns. Stateless and reentrant; all tunables come from the
// AnalysisConfig.
type Tester struct {
	cfg     trial.AnalysisConfig
	omnibus OmnibusTest
}

// NewTester creates a tester using the one-way F omnibus approximation.
func NewTester(cfg trial.AnalysisConfig) *Tester {
	return &Tester{cfg: cfg, omnibus: OneWayF{}}
}

// NewTesterWithOmnibus creates a tester with a substitute omnibus test.
func NewTesterWithOmnibus(cfg trial.AnalysisConfig, omnibus OmnibusTest) *Tester {
	return &Tester{cfg: cfg, omnibus: omnibus}
}

// RunRepeatedMeasures tests the main within-subject hypothesis on the given
// dependent variable: reshape to one observation per (participant,
// condition) using per-participant means, keep complete cases only, then run
// the omnibus test across condition vectors with paired post-hoc
// comparisons per condition pair.
//
// An unknown column is a fatal contract violation; too few complete
// participants is a structured insufficient-data result.
func (t *Tester) RunRepeatedMeasures(batch trial.Batch, dvColumn string) (stats.Result, error) {
	testName := "repeated_measures_" + dvColumn

	pivot, rawCounts, err := t.pivotByParticipant(batch, dvColumn)
	if err != nil {
		return stats.Result{}, err
	}

	complete := completeCases(pivot, t.cfg.Conditions)
	if len(complete) < 3 {
		reason := fmt.Sprintf("only %d participants have all %d conditions (need 3)",
			len(complete), len(t.cfg.Conditions))
		return stats.Insufficient(testName, stats.TestRepeatedMeasures, "", reason), nil
	}

	// One vector per condition, matched by participant across vectors.
	vectors := make([][]float64, len(t.cfg.Conditions))
	for ci, cond := range t.cfg.Conditions {
		vectors[ci] = make([]float64, len(complete))
		for pi, pid := range complete {
			vectors[ci][pi] = pivot[pid][cond]
		}
	}

	f, p := t.omnibus.Run(vectors)

	result := stats.Result{
		TestName:    testName,
		TestType:    stats.TestRepeatedMeasures,
		Statistic:   f,
		PValue:      p,
		Significant: p < t.cfg.Alpha,
		Stars:       stats.StarsFor(p),
		Alpha:       t.cfg.Alpha,
		GroupMeans:  make(map[string]float64, len(t.cfg.Conditions)),
		NPerGroup:   rawCounts,
		NComplete:   len(complete),
	}
	for ci, cond := range t.cfg.Conditions {
		result.GroupMeans[string(cond)] = meanOf(vectors[ci])
	}

	result.Pairwise = t.pairedPostHoc(vectors)

	if result.Significant {
		t.annotateOrdering(&result, vectors)
	}

	return result, nil
}

// pivotByParticipant builds per-participant condition means of the DV and
// the raw non-missing trial counts per condition.
func (t *Tester) pivotByParticipant(batch trial.Batch, dvColumn string) (map[core.ParticipantID]map[trial.TrialType]float64, map[string]int, error) {
	sums := make(map[core.ParticipantID]map[trial.TrialType]float64)
	counts := make(map[core.ParticipantID]map[trial.TrialType]int)
	rawCounts := make(map[string]int, len(t.cfg.Conditions))
	for _, cond := range t.cfg.Conditions {
		rawCounts[string(cond)] = 0
	}

	for i := range batch {
		row := &batch[i]
		v, err := dvValue(row, dvColumn)
		if err != nil {
			return nil, nil, err
		}
		if v == nil {
			continue
		}
		if _, ok := rawCounts[string(row.Type)]; !ok {
			// Conditions outside the configured label set do not take part
			// in the main-effect test.
			continue
		}
		rawCounts[string(row.Type)]++
		if sums[row.ParticipantID] == nil {
			sums[row.ParticipantID] = make(map[trial.TrialType]float64)
			counts[row.ParticipantID] = make(map[trial.TrialType]int)
		}
		sums[row.ParticipantID][row.Type] += *v
		counts[row.ParticipantID][row.Type]++
	}

	pivot := make(map[core.ParticipantID]map[trial.TrialType]float64, len(sums))
	for pid, condSums := range sums {
		pivot[pid] = make(map[trial.TrialType]float64, len(condSums))
		for cond, sum := range condSums {
			pivot[pid][cond] = sum / float64(counts[pid][cond])
		}
	}
	return pivot, rawCounts, nil
}

// completeCases returns, in deterministic order, the participants that have
// an observation for every configured condition.
func completeCases(pivot map[core.ParticipantID]map[trial.TrialType]float64, conditions []trial.TrialType) []core.ParticipantID {
	ids := make([]core.ParticipantID, 0, len(pivot))
	for pid := range pivot {
		ids = append(ids, pid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	complete := ids[:0]
	for _, pid := range ids {
		hasAll := true
		for _, cond := range conditions {
			if _, ok := pivot[pid][cond]; !ok {
				hasAll = false
				break
			}
		}
		if hasAll {
			complete = append(complete, pid)
		}
	}
	return complete
}

// pairedPostHoc runs the matched-by-participant comparison for every
// condition pair.
func (t *Tester) pairedPostHoc(vectors [][]float64) []stats.PairwiseResult {
	var pairwise []stats.PairwiseResult
	for i := 0; i < len(t.cfg.Conditions); i++ {
		for j := i + 1; j < len(t.cfg.Conditions); j++ {
			tStat, p := pairedTTest(vectors[i], vectors[j])
			pairwise = append(pairwise, stats.PairwiseResult{
				LabelA:         string(t.cfg.Conditions[i]),
				LabelB:         string(t.cfg.Conditions[j]),
				TStatistic:     tStat,
				PValue:         p,
				MeanDifference: meanOf(vectors[i]) - meanOf(vectors[j]),
				Significant:    p < t.cfg.Alpha,
				Stars:          stats.StarsFor(p),
				N:              len(vectors[i]),
			})
		}
	}
	return pairwise
}

// annotateOrdering fills the interpretation fields: fastest/slowest
// condition by mean, and whether the means follow the hypothesized strict
// ordering of the configured condition set. Reporting only; the numeric
// result is untouched.
func (t *Tester) annotateOrdering(result *stats.Result, vectors [][]float64) {
	means := make([]float64, len(vectors))
	for i, v := range vectors {
		means[i] = meanOf(v)
	}

	fastest, slowest := 0, 0
	for i := range means {
		if means[i] < means[fastest] {
			fastest = i
		}
		if means[i] > means[slowest] {
			slowest = i
		}
	}
	result.FastestLabel = string(t.cfg.Conditions[fastest])
	result.SlowestLabel = string(t.cfg.Conditions[slowest])

	ordered := true
	for i := 1; i < len(means); i++ {
		if !(means[i-1] < means[i]) {
			ordered = false
			break
		}
	}
	if ordered {
		result.Ordering = "supported"
	} else {
		result.Ordering = "partially supported"
	}
}
