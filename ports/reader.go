package ports

import (
	"context"

	"reachlab/domain/trial"
)

// TrialSource provides trials for analysis regardless of backing store.
// Both the Excel reader and the postgres repository satisfy it, so the
// analysis pipeline never knows where its rows came from.
type TrialSource interface {
	ReadTrials(ctx context.Context) (trial.Batch, error)
	ReadParticipants(ctx context.Context) ([]trial.Participant, error)
}

// TrialExporter writes an enriched trial table plus test results somewhere
// a researcher can open it.
type TrialExporter interface {
	Export(ctx context.Context, batch trial.Batch, reportText string) ([]byte, error)
}
