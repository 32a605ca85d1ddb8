// Package testkit provides seeded synthetic experiment data for tests,
// demos, and the CLI when no real data source is configured.
package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"reachlab/domain/core"
	"reachlab/domain/trial"
)

// TrialGeneratorConfig configures the synthetic experiment generator.
type TrialGeneratorConfig struct {
	ParticipantCount     int     `json:"participant_count"`
	TrialsPerCondition   int     `json:"trials_per_condition"`
	TargetCount          int     `json:"target_count"`
	BaseReactionTimeMS   float64 `json:"base_reaction_time_ms"`
	ConditionStepMS      float64 `json:"condition_step_ms"` // RT penalty per condition rank
	ReactionTimeSpreadMS float64 `json:"reaction_time_spread_ms"`
	PathSampleCount      int     `json:"path_sample_count"`
	MalformedPathRate    float64 `json:"malformed_path_rate"`
	Seed                 int64   `json:"seed"`
}

// DefaultTrialConfig returns a small experiment with the hypothesized
// condition ordering baked into the generated means.
func DefaultTrialConfig() TrialGeneratorConfig {
	return TrialGeneratorConfig{
		ParticipantCount:     12,
		TrialsPerCondition:   10,
		TargetCount:          4,
		BaseReactionTimeMS:   320,
		ConditionStepMS:      45,
		ReactionTimeSpreadMS: 60,
		PathSampleCount:      30,
		MalformedPathRate:    0.08,
		Seed:                 42,
	}
}

// TrialGenerator produces reproducible synthetic participant and trial
// batches. All randomness goes through the seeded source; the same config
// always yields the same batch.
type TrialGenerator struct {
	config TrialGeneratorConfig
	rng    *rand.Rand
}

// NewTrialGenerator creates a generator from the config's seed.
func NewTrialGenerator(config TrialGeneratorConfig) *TrialGenerator {
	return &TrialGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateParticipants builds the demographic table.
func (g *TrialGenerator) GenerateParticipants() []trial.Participant {
	ages := []int{22, 30, 40, 53, 65}
	genders := []string{"Male", "Female"}

	participants := make([]trial.Participant, g.config.ParticipantCount)
	for i := range participants {
		age := ages[g.rng.Intn(len(ages))]
		gender := genders[g.rng.Intn(len(genders))]
		glasses := g.rng.Float64() < 0.4
		adhd := g.rng.Float64() < 0.25
		jnd := 0.02 + g.rng.Float64()*0.06

		participants[i] = trial.Participant{
			ID:                  core.ParticipantID(fmt.Sprintf("participant_%03d", i+1)),
			Age:                 &age,
			Gender:              &gender,
			HasGlasses:          &glasses,
			HasAttentionDeficit: &adhd,
			JNDThreshold:        &jnd,
		}
	}
	return participants
}

// GenerateTrials builds the trial batch with demographics denormalized onto
// every row, the way the data source delivers them.
func (g *TrialGenerator) GenerateTrials(participants []trial.Participant) trial.Batch {
	conditions := trial.DefaultConditions()
	batch := make(trial.Batch, 0, len(participants)*len(conditions)*g.config.TrialsPerCondition)

	seq := 0
	for _, p := range participants {
		// Per-participant speed offset keeps within-subject structure in the data.
		participantOffset := g.rng.NormFloat64() * 25

		for rank, cond := range conditions {
			for k := 0; k < g.config.TrialsPerCondition; k++ {
				seq++
				rt := g.config.BaseReactionTimeMS +
					float64(rank)*g.config.ConditionStepMS +
					participantOffset +
					g.rng.NormFloat64()*g.config.ReactionTimeSpreadMS
				if rt < 80 {
					rt = 80
				}
				mt := 400 + g.rng.NormFloat64()*90
				if mt < 120 {
					mt = 120
				}
				target := g.rng.Intn(g.config.TargetCount)

				path, length := g.generatePath(rt)

				row := trial.Trial{
					ID:                  core.TrialID(fmt.Sprintf("trial_%05d", seq)),
					ParticipantID:       p.ID,
					Type:                cond,
					TargetIndex:         &target,
					ReactionTime:        &rt,
					MovementTime:        &mt,
					PathLength:          &length,
					MovementPath:        path,
					Age:                 p.Age,
					Gender:              p.Gender,
					HasGlasses:          p.HasGlasses,
					HasAttentionDeficit: p.HasAttentionDeficit,
				}
				batch = append(batch, row)
			}
		}
	}
	return batch
}

// generatePath synthesizes a noisy but roughly straight reach toward a
// target 800px away, sampled every ~16ms. A configurable fraction of paths
// come back malformed (too short) to exercise the data-quality handling.
func (g *TrialGenerator) generatePath(reactionTime float64) ([]trial.TrajectoryPoint, float64) {
	if g.rng.Float64() < g.config.MalformedPathRate {
		// Interrupted recording: one sample, no usable kinematics.
		return []trial.TrajectoryPoint{{X: 0, Y: 0, T: 0}}, 0
	}

	n := g.config.PathSampleCount + g.rng.Intn(10)
	angle := g.rng.Float64() * 2 * math.Pi
	targetX := 800 * math.Cos(angle)
	targetY := 800 * math.Sin(angle)

	points := make([]trial.TrajectoryPoint, n)
	length := 0.0
	for i := 0; i < n; i++ {
		progress := float64(i) / float64(n-1)
		// Minimum-jerk-like easing with positional noise.
		ease := progress * progress * (3 - 2*progress)
		x := targetX*ease + g.rng.NormFloat64()*6
		y := targetY*ease + g.rng.NormFloat64()*6
		points[i] = trial.TrajectoryPoint{X: x, Y: y, T: float64(i) * 16}
		if i > 0 {
			length += math.Hypot(x-points[i-1].X, y-points[i-1].Y)
		}
	}
	return points, length
}
