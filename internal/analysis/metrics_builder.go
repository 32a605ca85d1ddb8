package analysis

import (
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"reachlab/domain/trial"
	"reachlab/internal/kinematics"
)

// minPathSamples is the shortest trajectory any derived metric is computed
// from; shorter paths keep every metric missing.
const minPathSamples = 3

// MetricsBuilder applies the kinematics pass uniformly across a trial batch,
// attaching derived columns without mutating source fields. Malformed or
// short trajectories are an expected data-quality state, not an error: their
// rows pass through with metrics left missing.
type MetricsBuilder struct {
	cfg     trial.AnalysisConfig
	workers int
}

// NewMetricsBuilder creates a builder with the given configuration.
func NewMetricsBuilder(cfg trial.AnalysisConfig) *MetricsBuilder {
	return &MetricsBuilder{cfg: cfg, workers: 4}
}

// Build returns a new batch in the same row order with derived columns
// attached. The transform is pure and idempotent: running it twice on the
// same input produces identical output. Rows are processed independently on
// a bounded worker pool; each task writes only its own index.
func (b *MetricsBuilder) Build(batch trial.Batch) (trial.Batch, error) {
	out := make(trial.Batch, len(batch))

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i := range batch {
		i := i
		g.Go(func() error {
			out[i] = b.buildRow(batch[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.broadcastConditionMeans(out)
	return out, nil
}

// buildRow copies one trial and attaches its instance-level derived metrics.
func (b *MetricsBuilder) buildRow(t trial.Trial) trial.Trial {
	row := t
	row.Derived = trial.Derived{}

	// pathEfficiency depends only on the upstream path length, so a missing
	// or malformed trajectory does not block it.
	if t.PathLength != nil {
		if eff, ok := kinematics.PathEfficiency(b.cfg.IdealDistanceFor(t.TargetIndex), *t.PathLength); ok {
			row.Derived.PathEfficiency = &eff
		}
	}

	if !t.ValidPath(minPathSamples) {
		return row
	}

	velocities := kinematics.VelocitySeries(t.MovementPath)
	if len(velocities) > 0 {
		if mean, err := stats.Mean(velocities); err == nil {
			row.Derived.AverageSpeed = &mean
		}
		if variance, err := stats.PopulationVariance(velocities); err == nil {
			row.Derived.SpeedVariance = &variance
		}
		peaks := kinematics.PeakCount(velocities, b.cfg.PeakProminence)
		row.Derived.VelocityPeaks = &peaks
	}

	if jerk, ok := kinematics.Jerk(t.MovementPath); ok {
		row.Derived.Jerk = &jerk
	}
	if corrections, ok := kinematics.DirectionChanges(t.MovementPath, b.cfg.AngleThreshold); ok {
		row.Derived.Corrections = &corrections
	}

	return row
}

// broadcastConditionMeans attaches the per-condition mean reaction time onto
// every row of that condition. A baseline for plots and exports, not a
// statistic in its own right.
func (b *MetricsBuilder) broadcastConditionMeans(batch trial.Batch) {
	sums := make(map[trial.TrialType]float64)
	counts := make(map[trial.TrialType]int)
	for _, t := range batch {
		if t.ReactionTime != nil {
			sums[t.Type] += *t.ReactionTime
			counts[t.Type]++
		}
	}

	for i := range batch {
		n := counts[batch[i].Type]
		if n == 0 {
			continue
		}
		mean := sums[batch[i].Type] / float64(n)
		batch[i].Derived.ConditionMeanRT = &mean
	}
}
