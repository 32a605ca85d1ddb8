package trial

import (
	"math"
	"testing"
)

func TestAgeBucket(t *testing.T) {
	cases := map[int]string{
		22: "18-25",
		30: "26-35",
		40: "36-45",
		53: "46-60",
		65: "60+",
		27: "27", // unmapped values pass through
	}
	for age, want := range cases {
		if got := AgeBucket(age); got != want {
			t.Errorf("AgeBucket(%d) = %q, want %q", age, got, want)
		}
	}
}

func TestValidPath(t *testing.T) {
	good := Trial{MovementPath: []TrajectoryPoint{
		{X: 0, Y: 0, T: 0}, {X: 10, Y: 0, T: 16}, {X: 20, Y: 0, T: 32},
	}}
	if !good.ValidPath(3) {
		t.Error("well-formed 3-sample path should be valid")
	}
	if good.ValidPath(4) {
		t.Error("3 samples must not satisfy a 4-sample minimum")
	}

	backwards := Trial{MovementPath: []TrajectoryPoint{
		{X: 0, Y: 0, T: 32}, {X: 10, Y: 0, T: 16}, {X: 20, Y: 0, T: 0},
	}}
	if backwards.ValidPath(3) {
		t.Error("decreasing timestamps must invalidate the path")
	}

	nan := Trial{MovementPath: []TrajectoryPoint{
		{X: 0, Y: 0, T: 0}, {X: math.NaN(), Y: 0, T: 16}, {X: 20, Y: 0, T: 32},
	}}
	if nan.ValidPath(3) {
		t.Error("NaN coordinates must invalidate the path")
	}

	var empty Trial
	if empty.ValidPath(3) {
		t.Error("missing path must be invalid")
	}
}

func TestBatchByType(t *testing.T) {
	batch := Batch{
		{ID: "a", Type: PreSupra},
		{ID: "b", Type: PreJND},
		{ID: "c", Type: PreSupra},
	}

	pre := batch.ByType(PreSupra)
	if len(pre) != 2 || pre[0].ID != "a" || pre[1].ID != "c" {
		t.Errorf("ByType must filter and preserve order, got %v", pre)
	}
	if len(batch.ByType(ConcurrentSupra)) != 0 {
		t.Error("absent condition should yield an empty batch")
	}
}

func TestBatchParticipants(t *testing.T) {
	batch := Batch{
		{ID: "a", ParticipantID: "p2"},
		{ID: "b", ParticipantID: "p1"},
		{ID: "c", ParticipantID: "p2"},
	}
	ids := batch.Participants()
	if len(ids) != 2 || ids[0] != "p1" || ids[1] != "p2" {
		t.Errorf("Participants must dedupe and sort, got %v", ids)
	}
}

func TestIdealDistanceFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IdealDistance = map[int]float64{2: 650}

	target := 2
	if got := cfg.IdealDistanceFor(&target); got != 650 {
		t.Errorf("per-target override should win, got %f", got)
	}
	other := 1
	if got := cfg.IdealDistanceFor(&other); got != cfg.DefaultIdealDistance {
		t.Errorf("unmapped target falls back to the default, got %f", got)
	}
	if got := cfg.IdealDistanceFor(nil); got != cfg.DefaultIdealDistance {
		t.Errorf("missing target falls back to the default, got %f", got)
	}
}
