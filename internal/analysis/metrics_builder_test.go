package analysis

import (
	"math"
	"reflect"
	"testing"

	"reachlab/domain/core"
	"reachlab/domain/trial"
)

func straightPath(samples int) []trial.TrajectoryPoint {
	path := make([]trial.TrajectoryPoint, samples)
	for i := range path {
		path[i] = trial.TrajectoryPoint{X: float64(i) * 10, Y: 0, T: float64(i) * 16}
	}
	return path
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func bptr(v bool) *bool       { return &v }
func sptr(v string) *string   { return &v }

func TestMetricsBuilder_DerivesMetrics(t *testing.T) {
	builder := NewMetricsBuilder(trial.DefaultConfig())
	batch := trial.Batch{{
		ID:            core.TrialID("t1"),
		ParticipantID: core.ParticipantID("p1"),
		Type:          trial.PreSupra,
		ReactionTime:  fptr(300),
		PathLength:    fptr(1000),
		MovementPath:  straightPath(8),
	}}

	out, err := builder.Build(batch)
	if err != nil {
		t.Fatal(err)
	}

	d := out[0].Derived
	if d.AverageSpeed == nil || d.SpeedVariance == nil || d.VelocityPeaks == nil {
		t.Fatal("velocity metrics should be present for a valid path")
	}
	// Uniform 10px/16ms motion: 625 px/s, zero variance, no peaks, no turns.
	if math.Abs(*d.AverageSpeed-625) > 1e-6 {
		t.Errorf("expected average speed 625, got %f", *d.AverageSpeed)
	}
	if *d.SpeedVariance > 1e-6 {
		t.Errorf("expected zero speed variance, got %f", *d.SpeedVariance)
	}
	if *d.VelocityPeaks != 0 {
		t.Errorf("expected 0 peaks, got %d", *d.VelocityPeaks)
	}
	if d.Jerk == nil || math.Abs(*d.Jerk) > 1e-6 {
		t.Errorf("expected zero jerk, got %v", d.Jerk)
	}
	if d.Corrections == nil || *d.Corrections != 0 {
		t.Errorf("expected 0 corrections, got %v", d.Corrections)
	}
	if d.PathEfficiency == nil || math.Abs(*d.PathEfficiency-0.8) > 1e-9 {
		t.Errorf("expected efficiency 0.8, got %v", d.PathEfficiency)
	}
}

func TestMetricsBuilder_MalformedPathKeepsRow(t *testing.T) {
	builder := NewMetricsBuilder(trial.DefaultConfig())
	batch := trial.Batch{{
		ID:            core.TrialID("t1"),
		ParticipantID: core.ParticipantID("p1"),
		Type:          trial.PreSupra,
		ReactionTime:  fptr(300),
		PathLength:    fptr(1600),
		MovementPath:  []trial.TrajectoryPoint{{X: 0, Y: 0, T: 0}},
	}}

	out, err := builder.Build(batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("malformed path must not drop the row, got %d rows", len(out))
	}

	d := out[0].Derived
	if d.AverageSpeed != nil || d.Jerk != nil || d.Corrections != nil {
		t.Error("path-derived metrics must stay missing for a one-sample path")
	}
	// Efficiency needs only the upstream path length.
	if d.PathEfficiency == nil || math.Abs(*d.PathEfficiency-0.5) > 1e-9 {
		t.Errorf("expected efficiency 0.5 from upstream path length, got %v", d.PathEfficiency)
	}
}

func TestMetricsBuilder_OrderPreservedAndIdempotent(t *testing.T) {
	builder := NewMetricsBuilder(trial.DefaultConfig())

	batch := make(trial.Batch, 20)
	for i := range batch {
		batch[i] = trial.Trial{
			ID:            core.TrialID(string(rune('a' + i))),
			ParticipantID: core.ParticipantID("p1"),
			Type:          trial.PreSupra,
			ReactionTime:  fptr(300 + float64(i)),
			PathLength:    fptr(900),
			MovementPath:  straightPath(6),
		}
	}

	first, err := builder.Build(batch)
	if err != nil {
		t.Fatal(err)
	}
	second, err := builder.Build(batch)
	if err != nil {
		t.Fatal(err)
	}

	for i := range batch {
		if first[i].ID != batch[i].ID {
			t.Fatalf("row order changed at index %d", i)
		}
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("building the same batch twice must produce identical output")
	}
}

func TestMetricsBuilder_BroadcastsConditionMeans(t *testing.T) {
	builder := NewMetricsBuilder(trial.DefaultConfig())
	batch := trial.Batch{
		{ID: "t1", ParticipantID: "p1", Type: trial.PreSupra, ReactionTime: fptr(100)},
		{ID: "t2", ParticipantID: "p2", Type: trial.PreSupra, ReactionTime: fptr(200)},
		{ID: "t3", ParticipantID: "p1", Type: trial.PreJND, ReactionTime: fptr(400)},
		{ID: "t4", ParticipantID: "p2", Type: trial.PreJND}, // missing RT
	}

	out, err := builder.Build(batch)
	if err != nil {
		t.Fatal(err)
	}

	for _, i := range []int{0, 1} {
		if out[i].Derived.ConditionMeanRT == nil || *out[i].Derived.ConditionMeanRT != 150 {
			t.Errorf("row %d: expected condition mean 150, got %v", i, out[i].Derived.ConditionMeanRT)
		}
	}
	// The missing-RT row still receives its condition's mean over observed rows.
	for _, i := range []int{2, 3} {
		if out[i].Derived.ConditionMeanRT == nil || *out[i].Derived.ConditionMeanRT != 400 {
			t.Errorf("row %d: expected condition mean 400, got %v", i, out[i].Derived.ConditionMeanRT)
		}
	}
}
