package ports

import (
	"context"

	"reachlab/domain/core"
	"reachlab/domain/trial"
)

// TrialRepository defines the interface for trial storage operations
type TrialRepository interface {
	// Core CRUD operations
	SaveBatch(ctx context.Context, batch trial.Batch) error
	GetByID(ctx context.Context, id core.TrialID) (*trial.Trial, error)
	GetByParticipant(ctx context.Context, participantID core.ParticipantID) (trial.Batch, error)

	// Analysis queries
	GetAll(ctx context.Context) (trial.Batch, error)
	GetByType(ctx context.Context, trialType trial.TrialType) (trial.Batch, error)
	Count(ctx context.Context) (int, error)
}

// ParticipantRepository defines the interface for demographic storage
type ParticipantRepository interface {
	SaveAll(ctx context.Context, participants []trial.Participant) error
	GetByID(ctx context.Context, id core.ParticipantID) (*trial.Participant, error)
	GetAll(ctx context.Context) ([]trial.Participant, error)
}
