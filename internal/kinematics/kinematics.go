// Package kinematics converts raw movement trajectories into derived
// kinematic features. All functions are pure: no I/O, no state, and
// numerically guarded so that degenerate trajectories (dt=0 pairs, zero
// displacement, too few samples) produce missing values instead of Inf/NaN.
package kinematics

import (
	"math"

	"reachlab/domain/trial"
)

// VelocitySeries computes the instantaneous speed (px/s) for each consecutive
// sample pair of the path. Pairs whose time delta is zero or negative carry
// no velocity information and are skipped rather than zero-filled, so the
// output length is at most len(path)-1. Fewer than two samples yields an
// empty series.
func VelocitySeries(path []trial.TrajectoryPoint) []float64 {
	if len(path) < 2 {
		return nil
	}
	velocities := make([]float64, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		dt := (path[i].T - path[i-1].T) / 1000.0 // ms to s
		if dt <= 0 {
			continue
		}
		dx := path[i].X - path[i-1].X
		dy := path[i].Y - path[i-1].Y
		velocities = append(velocities, math.Hypot(dx, dy)/dt)
	}
	return velocities
}

// timedVelocity pairs a speed sample with the timestamp of its segment end,
// which the acceleration series needs for its own time deltas.
type timedVelocity struct {
	v float64
	t float64 // ms
}

func timedVelocities(path []trial.TrajectoryPoint) []timedVelocity {
	if len(path) < 2 {
		return nil
	}
	out := make([]timedVelocity, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		dt := (path[i].T - path[i-1].T) / 1000.0
		if dt <= 0 {
			continue
		}
		dx := path[i].X - path[i-1].X
		dy := path[i].Y - path[i-1].Y
		out = append(out, timedVelocity{v: math.Hypot(dx, dy) / dt, t: path[i].T})
	}
	return out
}

// Jerk computes the mean absolute first difference of the acceleration
// series, a smoothness proxy (lower = smoother, more planned movement).
// Accelerations are consecutive velocity differences divided by their time
// delta. A meaningful jerk needs at least four samples (two accelerations);
// shorter or degenerate paths return ok=false.
func Jerk(path []trial.TrajectoryPoint) (float64, bool) {
	if len(path) < 4 {
		return 0, false
	}
	vels := timedVelocities(path)
	if len(vels) < 3 {
		return 0, false
	}
	accelerations := make([]float64, 0, len(vels)-1)
	for i := 1; i < len(vels); i++ {
		dt := (vels[i].t - vels[i-1].t) / 1000.0
		if dt <= 0 {
			continue
		}
		accelerations = append(accelerations, (vels[i].v-vels[i-1].v)/dt)
	}
	if len(accelerations) < 2 {
		return 0, false
	}
	sum := 0.0
	for i := 1; i < len(accelerations); i++ {
		sum += math.Abs(accelerations[i] - accelerations[i-1])
	}
	return sum / float64(len(accelerations)-1), true
}

// PeakCount counts local maxima in a velocity series whose prominence
// (height above the higher of the two surrounding valleys) is at least the
// given threshold. Fewer than three velocity points cannot contain an
// interior maximum and yield zero.
func PeakCount(velocities []float64, prominence float64) int {
	if len(velocities) < 3 {
		return 0
	}
	count := 0
	for i := 1; i < len(velocities)-1; i++ {
		if !(velocities[i] > velocities[i-1] && velocities[i] > velocities[i+1]) {
			continue
		}
		if peakProminence(velocities, i) >= prominence {
			count++
		}
	}
	return count
}

// peakProminence measures how far the peak at index i rises above its
// surrounding valleys: walk outward on each side until a higher point or the
// series boundary, tracking the lowest value passed; the prominence is the
// peak height above the higher of the two minima.
func peakProminence(velocities []float64, i int) float64 {
	peak := velocities[i]

	leftMin := peak
	for j := i - 1; j >= 0; j-- {
		if velocities[j] > peak {
			break
		}
		if velocities[j] < leftMin {
			leftMin = velocities[j]
		}
	}

	rightMin := peak
	for j := i + 1; j < len(velocities); j++ {
		if velocities[j] > peak {
			break
		}
		if velocities[j] < rightMin {
			rightMin = velocities[j]
		}
	}

	return peak - math.Max(leftMin, rightMin)
}

// DirectionChanges counts corrections: interior samples whose outgoing
// segment bearing differs from the previous bearing by more than
// angleThreshold, with the difference wrapped onto the shorter arc [0, π].
// Zero-displacement segments carry no bearing and are skipped without
// resetting the running previous bearing. Needs at least three samples;
// shorter paths return ok=false.
func DirectionChanges(path []trial.TrajectoryPoint, angleThreshold float64) (int, bool) {
	if len(path) < 3 {
		return 0, false
	}

	changes := 0
	prevAngle := math.NaN()

	for i := 1; i < len(path)-1; i++ {
		dx := path[i+1].X - path[i].X
		dy := path[i+1].Y - path[i].Y
		if dx == 0 && dy == 0 {
			continue
		}
		angle := math.Atan2(dy, dx)
		if !math.IsNaN(prevAngle) {
			diff := math.Abs(angle - prevAngle)
			if diff > math.Pi {
				diff = 2*math.Pi - diff
			}
			if diff > angleThreshold {
				changes++
			}
		}
		prevAngle = angle
	}

	return changes, true
}

// PathEfficiency is the ratio of an ideal straight-line distance to the
// actual path length. A zero or negative path length has no defined
// efficiency and returns ok=false, never Inf.
func PathEfficiency(idealDistance, pathLength float64) (float64, bool) {
	if pathLength <= 0 {
		return 0, false
	}
	return idealDistance / pathLength, true
}
