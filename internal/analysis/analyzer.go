package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"reachlab/domain/core"
	domainstats "reachlab/domain/stats"
	"reachlab/domain/trial"
	"reachlab/internal"
	"reachlab/internal/report"
)

// Output bundles everything one analysis run produces: the augmented trial
// table, the statistical results in the order they ran, and the accumulated
// text report.
type Output struct {
	RunID       core.RunID
	GeneratedAt core.Timestamp
	Trials      trial.Batch
	Results     []domainstats.Result
	Report      string
	Cleaning    CleaningStats
}

// CleaningStats summarizes the outlier pass.
type CleaningStats struct {
	OriginalTrials int `json:"original_trials"`
	RemovedTrials  int `json:"removed_trials"`
	CleanTrials    int `json:"clean_trials"`
}

// Analyzer runs the experiment's fixed battery: cleaning, the kinematics
// pass, the within-subject main-effect test, and the between-group
// demographic comparisons, narrating everything into a report. It performs
// no I/O; presentation layers consume the Output.
type Analyzer struct {
	cfg     trial.AnalysisConfig
	builder *MetricsBuilder
	tester  *Tester
	logger  *internal.Logger
}

// NewAnalyzer creates an analyzer with the given configuration.
func NewAnalyzer(cfg trial.AnalysisConfig) *Analyzer {
	return &Analyzer{
		cfg:     cfg,
		builder: NewMetricsBuilder(cfg),
		tester:  NewTester(cfg),
		logger:  internal.NewDefaultLogger(),
	}
}

// groupings is the fixed battery of between-group comparisons, in report
// order. Age buckets carry their ordinal ordering.
func (a *Analyzer) groupings() []struct {
	column string
	title  string
	order  []string
} {
	return []struct {
		column string
		title  string
		order  []string
	}{
		{GroupADHD, "ATTENTION DEFICIT", nil},
		{GroupGlasses, "GLASSES", nil},
		{GroupGender, "GENDER", nil},
		{GroupAgeGroup, "AGE GROUP", trial.AgeBucketOrder},
		{GroupTarget, "TARGET LOCATION", nil},
	}
}

// Run executes the full battery over the raw trial batch. Returns a fatal
// error only for contract violations (unknown columns); every data-quality
// condition ends up as a structured result or a report note.
func (a *Analyzer) Run(raw trial.Batch) (*Output, error) {
	rep := report.New()
	out := &Output{RunID: core.NewRunID(), GeneratedAt: core.Now()}

	batch := a.clean(raw, rep, &out.Cleaning)
	a.checkDemographics(batch, rep)
	batch = addAgeGroups(batch, rep)

	a.logger.Info("computing kinematic metrics for %d trials", len(batch))
	batch, err := a.builder.Build(batch)
	if err != nil {
		return nil, err
	}
	out.Trials = batch

	a.conditionSummary(batch, rep)

	// Main hypothesis: reaction time primary, path efficiency secondary.
	rep.AddSection("MAIN HYPOTHESIS TESTING", 1)
	for _, dv := range []string{ColReactionTime, ColPathEfficiency} {
		res, err := a.tester.RunRepeatedMeasures(batch, dv)
		if err != nil {
			return nil, err
		}
		out.Results = append(out.Results, res)
		a.reportRepeatedMeasures(res, rep)
	}

	rep.AddSection("DEMOGRAPHIC EFFECTS ON MOTOR PLANNING", 1)
	for _, g := range a.groupings() {
		rep.AddSection(fmt.Sprintf("EFFECT OF %s", g.title), 2)
		results, err := a.tester.CompareGroupsAcrossConditions(batch, ColReactionTime, g.column, g.order)
		if err != nil {
			return nil, err
		}
		out.Results = append(out.Results, results...)
		for _, res := range results {
			a.reportGroupComparison(res, rep)
		}
	}

	a.correctionsSummary(batch, rep)

	out.Report = rep.Serialize()
	return out, nil
}

// clean drops trials with missing or implausibly large reaction times before
// anything else runs.
func (a *Analyzer) clean(raw trial.Batch, rep *report.Accumulator, cs *CleaningStats) trial.Batch {
	rep.AddSection("DATA CLEANING", 1)
	rep.AddLinef("Original trials: %d", len(raw))

	clean := make(trial.Batch, 0, len(raw))
	for _, t := range raw {
		if t.ReactionTime == nil || *t.ReactionTime >= a.cfg.OutlierThresholdMS {
			continue
		}
		clean = append(clean, t)
	}

	cs.OriginalTrials = len(raw)
	cs.CleanTrials = len(clean)
	cs.RemovedTrials = len(raw) - len(clean)

	rep.AddLinef("Removed %d outlier trials (reaction time missing or >= %.0fms)",
		cs.RemovedTrials, a.cfg.OutlierThresholdMS)
	rep.AddLinef("Clean trials: %d", cs.CleanTrials)
	a.logger.Info("cleaning: %d/%d trials kept", cs.CleanTrials, cs.OriginalTrials)
	return clean
}

// checkDemographics reports the value counts of each demographic column,
// noting missing data. Entirely missing columns are a data note, not an
// error.
func (a *Analyzer) checkDemographics(batch trial.Batch, rep *report.Accumulator) {
	rep.AddLine("")
	rep.AddLine("Demographic breakdown:")

	for _, g := range []struct {
		column string
		label  string
	}{
		{GroupADHD, "Attention Deficit"},
		{GroupGlasses, "Glasses"},
		{GroupGender, "Gender"},
	} {
		counts := make(map[string]int)
		missing := 0
		for i := range batch {
			label, ok, err := groupLabel(&batch[i], g.column)
			if err != nil {
				continue
			}
			if !ok {
				missing++
				continue
			}
			counts[label]++
		}
		if len(counts) == 0 {
			rep.AddLinef("  %s: no data available", g.label)
			continue
		}
		rep.AddLinef("  %s: %s", g.label, formatCounts(counts))
		if missing > 0 {
			rep.AddLinef("    (Note: %d trials with missing %s data)", missing, g.label)
		}
	}
}

// addAgeGroups attaches the ordinal age-bucket column.
func addAgeGroups(batch trial.Batch, rep *report.Accumulator) trial.Batch {
	out := make(trial.Batch, len(batch))
	counts := make(map[string]int)
	any := false
	for i, t := range batch {
		out[i] = t
		if t.Age != nil {
			bucket := trial.AgeBucket(*t.Age)
			out[i].AgeGroup = &bucket
			counts[bucket]++
			any = true
		}
	}
	if any {
		rep.AddLinef("  Age groups: %s", formatCounts(counts))
	} else {
		rep.AddLine("  Age data not available")
	}
	return out
}

// conditionSummary reports mean/SD/SEM/n of reaction time and path
// efficiency per condition.
func (a *Analyzer) conditionSummary(batch trial.Batch, rep *report.Accumulator) {
	rep.AddSection("CONDITION SUMMARY", 1)
	rep.AddLine("Expected ordering: " + conditionOrderString(a.cfg.Conditions))

	for _, cond := range a.cfg.Conditions {
		slice := batch.ByType(cond)
		rts := collectDV(slice, ColReactionTime)
		effs := collectDV(slice, ColPathEfficiency)

		rep.AddLinef("\n%s (%d trials):", cond, len(slice))
		if len(rts) > 0 {
			mean, _ := stats.Mean(rts)
			sd := sampleSD(rts)
			rep.AddLinef("  Reaction Time: %.1f ms (SD=%.1f, SEM=%.1f, n=%d)",
				mean, sd, sem(sd, len(rts)), len(rts))
		} else {
			rep.AddLine("  Reaction Time: no data")
		}
		if len(effs) > 0 {
			mean, _ := stats.Mean(effs)
			rep.AddLinef("  Path Efficiency: %.3f (SD=%.3f, n=%d)", mean, sampleSD(effs), len(effs))
		}
	}
}

// correctionsSummary reports the direction-change counts per condition.
func (a *Analyzer) correctionsSummary(batch trial.Batch, rep *report.Accumulator) {
	rep.AddSection("MOVEMENT CORRECTIONS ANALYSIS", 1)
	rep.AddLine("Fewer corrections = better planning")

	for _, cond := range a.cfg.Conditions {
		values := collectDV(batch.ByType(cond), ColCorrections)
		rep.AddLinef("\n%s:", cond)
		if len(values) == 0 {
			rep.AddLine("  No trajectory data")
			continue
		}
		mean, _ := stats.Mean(values)
		median, _ := stats.Median(values)
		rep.AddLinef("  Mean corrections: %.2f (SD=%.2f)", mean, sampleSD(values))
		rep.AddLinef("  Median: %.0f", median)
	}
}

// reportRepeatedMeasures narrates a within-subject result.
func (a *Analyzer) reportRepeatedMeasures(res domainstats.Result, rep *report.Accumulator) {
	rep.AddLinef("\n%s", res.TestName)
	if res.Insufficient {
		rep.AddLinef("  Insufficient data: %s", res.Reason)
		return
	}
	rep.AddLinef("  Complete participants: N=%d", res.NComplete)
	for _, cond := range a.cfg.Conditions {
		rep.AddLinef("  %s: mean=%.1f (raw trials=%d)",
			cond, res.GroupMeans[string(cond)], res.NPerGroup[string(cond)])
	}
	rep.AddLinef("  Omnibus: F=%.3f, p=%.4f (%s)", res.Statistic, res.PValue, res.Stars)
	for _, pw := range res.Pairwise {
		rep.AddLinef("  %s vs %s: t=%.3f, p=%.4f, diff=%.1f (%s)",
			pw.LabelA, pw.LabelB, pw.TStatistic, pw.PValue, pw.MeanDifference, pw.Stars)
	}
	if res.Significant {
		rep.AddLinef("  Fastest: %s, Slowest: %s", res.FastestLabel, res.SlowestLabel)
		rep.AddLinef("  Hypothesized ordering: %s", res.Ordering)
	} else {
		rep.AddLine("  No significant difference between conditions")
	}
}

// reportGroupComparison narrates a between-group result.
func (a *Analyzer) reportGroupComparison(res domainstats.Result, rep *report.Accumulator) {
	slice := res.Condition
	if slice == "" {
		slice = "all conditions"
	}
	rep.AddLinef("\n[%s] %s", slice, res.TestName)
	if res.Insufficient {
		rep.AddLinef("  %s", res.Reason)
		return
	}
	labels := make([]string, 0, len(res.GroupMeans))
	for label := range res.GroupMeans {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		rep.AddLinef("  %s: mean=%.1f (n=%d)", label, res.GroupMeans[label], res.NPerGroup[label])
	}
	rep.AddLinef("  %s", res.Describe())
	if res.Significant && res.Direction != "" {
		rep.AddLinef("  Direction: %s", res.Direction)
	}
	if res.Significant && res.FastestLabel != "" && res.TestType == domainstats.TestOneWayANOVA {
		spread := res.GroupMeans[res.SlowestLabel] - res.GroupMeans[res.FastestLabel]
		rep.AddLinef("  Fastest: %s, Slowest: %s (spread %.1f)",
			res.FastestLabel, res.SlowestLabel, spread)
	}
}

// collectDV gathers the non-missing values of a column. Unknown columns
// cannot occur here: every caller passes a compile-time constant.
func collectDV(batch trial.Batch, column string) []float64 {
	values := make([]float64, 0, len(batch))
	for i := range batch {
		v, err := dvValue(&batch[i], column)
		if err != nil || v == nil {
			continue
		}
		values = append(values, *v)
	}
	return values
}

func sampleSD(data []float64) float64 {
	sd, err := stats.StandardDeviationSample(data)
	if err != nil {
		return 0
	}
	return sd
}

// formatCounts renders a label count map deterministically, so two runs over
// the same input serialize the same report.
func formatCounts(counts map[string]int) string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	s := "{"
	for i, label := range labels {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %d", label, counts[label])
	}
	return s + "}"
}

func sem(sd float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sd / math.Sqrt(float64(n))
}

func conditionOrderString(conditions []trial.TrialType) string {
	s := ""
	for i, c := range conditions {
		if i > 0 {
			s += " < "
		}
		s += string(c)
	}
	return s
}
