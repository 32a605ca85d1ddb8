package app

import (
	"context"
	"fmt"

	"reachlab/adapters/excel"
	"reachlab/adapters/postgres"
	"reachlab/internal"
	"reachlab/internal/config"
	"reachlab/ports"
)

// BuildSource picks the trial source the config points at: a trials file
// wins over the database when both are set.
func BuildSource(ctx context.Context, cfg *config.Config, logger *internal.Logger) (ports.TrialSource, func(), error) {
	if cfg.Data.TrialsFile != "" {
		logger.Info("Using trial file source: %s", cfg.Data.TrialsFile)
		return excel.NewDataReader(cfg.Data.TrialsFile), func() {}, nil
	}

	db, err := postgres.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("Using postgres trial source")

	source := &postgres.Source{
		Trials:       postgres.NewTrialRepository(db),
		Participants: postgres.NewParticipantRepository(db),
	}
	return source, func() { db.Close() }, nil
}

// BuildService assembles the analysis service from config.
func BuildService(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*AnalysisService, func(), error) {
	source, cleanup, err := BuildSource(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	service := NewAnalysisService(cfg.Analysis, source, excel.NewWriter(), logger)
	return service, cleanup, nil
}
