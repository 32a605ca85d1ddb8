package kinematics

import (
	"math"
	"testing"

	"reachlab/domain/trial"
)

func pt(x, y, t float64) trial.TrajectoryPoint {
	return trial.TrajectoryPoint{X: x, Y: y, T: t}
}

func TestVelocitySeries_KnownSpeeds(t *testing.T) {
	// 100px in 100ms = 1000 px/s per segment.
	path := []trial.TrajectoryPoint{
		pt(0, 0, 0),
		pt(100, 0, 100),
		pt(100, 100, 200),
	}

	velocities := VelocitySeries(path)
	if len(velocities) != 2 {
		t.Fatalf("expected 2 velocity samples, got %d", len(velocities))
	}
	for i, v := range velocities {
		if math.Abs(v-1000) > 1e-9 {
			t.Errorf("segment %d: expected 1000 px/s, got %f", i, v)
		}
	}
}

func TestVelocitySeries_NonNegative(t *testing.T) {
	// Backwards movement still yields positive speed.
	path := []trial.TrajectoryPoint{
		pt(100, 100, 0),
		pt(0, 0, 50),
		pt(-50, -50, 120),
	}

	for i, v := range VelocitySeries(path) {
		if v < 0 {
			t.Errorf("segment %d: speed must be non-negative, got %f", i, v)
		}
	}
}

func TestVelocitySeries_SkipsZeroTimeDelta(t *testing.T) {
	path := []trial.TrajectoryPoint{
		pt(0, 0, 0),
		pt(50, 0, 0),   // duplicate timestamp
		pt(100, 0, 100),
	}

	velocities := VelocitySeries(path)
	if len(velocities) != 1 {
		t.Fatalf("expected zero-dt pair to be skipped, got %d samples", len(velocities))
	}
	if math.IsInf(velocities[0], 0) || math.IsNaN(velocities[0]) {
		t.Errorf("velocity must stay finite, got %f", velocities[0])
	}
}

func TestVelocitySeries_TooShort(t *testing.T) {
	if got := VelocitySeries([]trial.TrajectoryPoint{pt(0, 0, 0)}); got != nil {
		t.Errorf("single sample should yield nil series, got %v", got)
	}
	if got := VelocitySeries(nil); got != nil {
		t.Errorf("nil path should yield nil series, got %v", got)
	}
}

func TestJerk_ConstantVelocityIsZero(t *testing.T) {
	// Uniform motion: accelerations all zero, so jerk is zero.
	path := make([]trial.TrajectoryPoint, 6)
	for i := range path {
		path[i] = pt(float64(i)*10, 0, float64(i)*16)
	}

	jerk, ok := Jerk(path)
	if !ok {
		t.Fatal("expected jerk to be defined for a 6-sample path")
	}
	if math.Abs(jerk) > 1e-9 {
		t.Errorf("constant velocity should have zero jerk, got %f", jerk)
	}
}

func TestJerk_TooFewSamples(t *testing.T) {
	path := []trial.TrajectoryPoint{pt(0, 0, 0), pt(10, 0, 16), pt(30, 0, 32)}
	if _, ok := Jerk(path); ok {
		t.Error("three samples must not produce a jerk value")
	}
}

func TestJerk_DegenerateTimestamps(t *testing.T) {
	// Enough samples, but every dt is zero, so no velocities survive.
	path := []trial.TrajectoryPoint{pt(0, 0, 0), pt(10, 0, 0), pt(20, 0, 0), pt(30, 0, 0), pt(40, 0, 0)}
	if _, ok := Jerk(path); ok {
		t.Error("all-zero time deltas must not produce a jerk value")
	}
}

func TestPeakCount_Prominence(t *testing.T) {
	// Two local maxima: one prominent (rises 400 above its valleys), one
	// shallow bump of 20.
	velocities := []float64{100, 500, 100, 120, 100}

	if got := PeakCount(velocities, 50); got != 1 {
		t.Errorf("expected 1 prominent peak at threshold 50, got %d", got)
	}
	if got := PeakCount(velocities, 10); got != 2 {
		t.Errorf("expected 2 peaks at threshold 10, got %d", got)
	}
	if got := PeakCount(velocities, 1000); got != 0 {
		t.Errorf("expected 0 peaks at threshold 1000, got %d", got)
	}
}

func TestPeakCount_PlateauIsNotAPeak(t *testing.T) {
	// Equal neighbors fail the strict inequality.
	velocities := []float64{100, 300, 300, 100}
	if got := PeakCount(velocities, 50); got != 0 {
		t.Errorf("plateau should not count as a peak, got %d", got)
	}
}

func TestPeakCount_TooShort(t *testing.T) {
	if got := PeakCount([]float64{100, 200}, 50); got != 0 {
		t.Errorf("two samples cannot contain a peak, got %d", got)
	}
}

func TestDirectionChanges_ZigZag(t *testing.T) {
	// Right, up, right, up: each interior turn is 90 degrees.
	path := []trial.TrajectoryPoint{
		pt(0, 0, 0),
		pt(10, 0, 16),
		pt(10, 10, 32),
		pt(20, 10, 48),
		pt(20, 20, 64),
	}

	changes, ok := DirectionChanges(path, math.Pi/6)
	if !ok {
		t.Fatal("expected direction changes to be defined")
	}
	if changes != 2 {
		t.Errorf("expected 2 corrections, got %d", changes)
	}
}

func TestDirectionChanges_AngleWrap(t *testing.T) {
	// Bearings near +π and -π are almost the same direction; the wrapped
	// difference must stay below the threshold.
	path := []trial.TrajectoryPoint{
		pt(0, 0, 0),
		pt(-10, 0.1, 16),  // bearing just under +π
		pt(-20, 0.0, 32),  // bearing just above -π
		pt(-30, 0.1, 48),
	}

	changes, ok := DirectionChanges(path, math.Pi/6)
	if !ok {
		t.Fatal("expected direction changes to be defined")
	}
	if changes != 0 {
		t.Errorf("wrapped bearings should not count as corrections, got %d", changes)
	}
}

func TestDirectionChanges_ExactReversal(t *testing.T) {
	// An outbound leg followed by a full 180 degree return. The bearing
	// difference at the turn is exactly π, so the reversal counts once.
	path := []trial.TrajectoryPoint{
		pt(0, 0, 0),
		pt(10, 0, 16),
		pt(20, 0, 32),
		pt(10, 0, 48),
		pt(0, 0, 64),
	}

	changes, ok := DirectionChanges(path, math.Pi/6)
	if !ok {
		t.Fatal("expected direction changes to be defined")
	}
	if changes != 1 {
		t.Errorf("expected the reversal to count once, got %d", changes)
	}
}

func TestDirectionChanges_StraightLine(t *testing.T) {
	path := []trial.TrajectoryPoint{
		pt(0, 0, 0), pt(10, 0, 16), pt(20, 0, 32), pt(30, 0, 48),
	}
	changes, ok := DirectionChanges(path, math.Pi/6)
	if !ok || changes != 0 {
		t.Errorf("straight line should have 0 corrections, got %d ok=%v", changes, ok)
	}
}

func TestDirectionChanges_ZeroDisplacementSkipped(t *testing.T) {
	// A stationary sample between two straight segments carries no bearing
	// and must not fabricate a turn.
	path := []trial.TrajectoryPoint{
		pt(0, 0, 0),
		pt(10, 0, 16),
		pt(10, 0, 32), // no displacement
		pt(20, 0, 48),
		pt(30, 0, 64),
	}
	changes, ok := DirectionChanges(path, math.Pi/6)
	if !ok || changes != 0 {
		t.Errorf("pause on a straight line should have 0 corrections, got %d ok=%v", changes, ok)
	}
}

func TestDirectionChanges_TooShort(t *testing.T) {
	if _, ok := DirectionChanges([]trial.TrajectoryPoint{pt(0, 0, 0), pt(10, 0, 16)}, math.Pi/6); ok {
		t.Error("two samples must not produce a correction count")
	}
}

func TestPathEfficiency(t *testing.T) {
	eff, ok := PathEfficiency(800, 1000)
	if !ok {
		t.Fatal("expected efficiency to be defined")
	}
	if math.Abs(eff-0.8) > 1e-9 {
		t.Errorf("expected 0.8, got %f", eff)
	}

	if _, ok := PathEfficiency(800, 0); ok {
		t.Error("zero path length must not produce an efficiency")
	}
	if _, ok := PathEfficiency(800, -5); ok {
		t.Error("negative path length must not produce an efficiency")
	}
}
