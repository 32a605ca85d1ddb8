// Package app wires the analysis pipeline to the data adapters. Services
// here hold no transport concerns; the API and CLI both drive them.
package app

import (
	"context"
	"fmt"
	"sync"

	"reachlab/domain/core"
	"reachlab/domain/stats"
	"reachlab/domain/trial"
	"reachlab/internal"
	"reachlab/internal/analysis"
	"reachlab/ports"
)

// AnalysisService runs the full statistical battery against whatever
// trial source it was constructed with and caches the latest output.
type AnalysisService struct {
	cfg      trial.AnalysisConfig
	source   ports.TrialSource
	exporter ports.TrialExporter
	analyzer *analysis.Analyzer
	tester   *analysis.Tester
	logger   *internal.Logger

	mu     sync.RWMutex
	latest *analysis.Output
}

// NewAnalysisService creates the service.
func NewAnalysisService(cfg trial.AnalysisConfig, source ports.TrialSource, exporter ports.TrialExporter, logger *internal.Logger) *AnalysisService {
	return &AnalysisService{
		cfg:      cfg,
		source:   source,
		exporter: exporter,
		analyzer: analysis.NewAnalyzer(cfg),
		tester:   analysis.NewTester(cfg),
		logger:   logger,
	}
}

// Run loads trials from the source and executes the analysis battery.
// The output is cached for later reads.
func (s *AnalysisService) Run(ctx context.Context) (*analysis.Output, error) {
	batch, err := s.source.ReadTrials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trials: %w", err)
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("no trials to analyze: %w", core.ErrInsufficientData)
	}
	s.logger.Info("Loaded %d trials for analysis", len(batch))

	output, err := s.analyzer.Run(batch)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	s.mu.Lock()
	s.latest = output
	s.mu.Unlock()

	s.logger.Info("Analysis complete: %d tests, %d trials retained", len(output.Results), len(output.Trials))
	return output, nil
}

// Latest returns the most recent analysis output, or nil when Run has not
// completed yet.
func (s *AnalysisService) Latest() *analysis.Output {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// TestSingle runs one repeated-measures test on demand without disturbing
// the cached battery output.
func (s *AnalysisService) TestSingle(ctx context.Context, dvColumn string) (stats.Result, error) {
	batch, err := s.source.ReadTrials(ctx)
	if err != nil {
		return stats.Result{}, fmt.Errorf("failed to load trials: %w", err)
	}

	prepared, err := analysis.NewMetricsBuilder(s.cfg).Build(batch)
	if err != nil {
		return stats.Result{}, fmt.Errorf("failed to derive metrics: %w", err)
	}
	return s.tester.RunRepeatedMeasures(prepared, dvColumn)
}

// Export runs the battery if needed and hands the enriched table to the
// exporter.
func (s *AnalysisService) Export(ctx context.Context) ([]byte, error) {
	output := s.Latest()
	if output == nil {
		var err error
		output, err = s.Run(ctx)
		if err != nil {
			return nil, err
		}
	}
	if s.exporter == nil {
		return nil, fmt.Errorf("no exporter configured")
	}
	return s.exporter.Export(ctx, output.Trials, output.Report)
}
