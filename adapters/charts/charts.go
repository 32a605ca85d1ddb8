// Package charts renders self-contained HTML visualisations of the
// experiment data with go-echarts.
package charts

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"reachlab/domain/trial"
	apperrors "reachlab/internal/errors"
	"reachlab/internal/kinematics"
)

// Renderer builds charts against an analyzed trial batch.
type Renderer struct {
	cfg trial.AnalysisConfig
}

// NewRenderer creates a chart renderer.
func NewRenderer(cfg trial.AnalysisConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// RenderConditionSummary writes a bar chart of mean reaction time per
// condition, with trial counts in the tooltip.
func (r *Renderer) RenderConditionSummary(w io.Writer, batch trial.Batch) error {
	labels := make([]string, 0, len(r.cfg.Conditions))
	data := make([]opts.BarData, 0, len(r.cfg.Conditions))
	for _, cond := range r.cfg.Conditions {
		rows := batch.ByType(cond)
		sum, n := 0.0, 0
		for _, t := range rows {
			if t.ReactionTime != nil {
				sum += *t.ReactionTime
				n++
			}
		}
		if n == 0 {
			continue
		}
		labels = append(labels, string(cond))
		data = append(data, opts.BarData{
			Name:  fmt.Sprintf("%s (n=%d)", cond, n),
			Value: sum / float64(n),
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Reaction Time by Condition", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mean Reaction Time by Condition", Subtitle: "milliseconds, outlier-cleaned trials"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "RT (ms)"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("mean RT", data)

	if err := bar.Render(w); err != nil {
		return apperrors.NewExportError("failed to render condition summary chart", err)
	}
	return nil
}

// RenderVelocityProfile writes a line chart of the speed trace for one
// trial's movement path.
func (r *Renderer) RenderVelocityProfile(w io.Writer, t *trial.Trial) error {
	velocities := kinematics.VelocitySeries(t.MovementPath)
	if len(velocities) == 0 {
		return fmt.Errorf("trial %s has no usable movement path", t.ID)
	}

	labels := make([]string, len(velocities))
	data := make([]opts.LineData, len(velocities))
	for i, v := range velocities {
		labels[i] = fmt.Sprintf("%d", i)
		data[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Velocity Profile", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Velocity Profile: %s", t.ID),
			Subtitle: fmt.Sprintf("participant=%s condition=%s samples=%d", t.ParticipantID, t.Type, len(t.MovementPath)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "speed (px/s)"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "segment"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("speed", data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	if err := line.Render(w); err != nil {
		return apperrors.NewExportError("failed to render velocity profile chart", err)
	}
	return nil
}

// RenderEfficiencyByTarget writes a bar chart of mean path efficiency per
// target location, split by condition.
func (r *Renderer) RenderEfficiencyByTarget(w io.Writer, batch trial.Batch) error {
	type key struct {
		target int
		cond   trial.TrialType
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	targetSet := make(map[int]bool)

	for i := range batch {
		t := &batch[i]
		if t.TargetIndex == nil || t.Derived.PathEfficiency == nil {
			continue
		}
		k := key{*t.TargetIndex, t.Type}
		sums[k] += *t.Derived.PathEfficiency
		counts[k]++
		targetSet[*t.TargetIndex] = true
	}
	if len(targetSet) == 0 {
		return fmt.Errorf("no trials carry both target index and path efficiency")
	}

	targets := make([]int, 0, len(targetSet))
	for tg := range targetSet {
		targets = append(targets, tg)
	}
	sort.Ints(targets)

	labels := make([]string, len(targets))
	for i, tg := range targets {
		labels[i] = fmt.Sprintf("Target %d", tg)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Path Efficiency by Target", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mean Path Efficiency by Target Location"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)

	for _, cond := range r.cfg.Conditions {
		data := make([]opts.BarData, len(targets))
		for i, tg := range targets {
			k := key{tg, cond}
			if counts[k] == 0 {
				data[i] = opts.BarData{Value: nil}
				continue
			}
			data[i] = opts.BarData{Value: sums[k] / float64(counts[k])}
		}
		bar.AddSeries(string(cond), data)
	}

	if err := bar.Render(w); err != nil {
		return apperrors.NewExportError("failed to render efficiency chart", err)
	}
	return nil
}
