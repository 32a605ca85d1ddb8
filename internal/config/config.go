package config

import (
	"os"
	"strconv"

	"reachlab/domain/trial"
	"reachlab/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
	Analysis trial.AnalysisConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DataConfig holds data import/export settings
type DataConfig struct {
	TrialsFile string // optional xlsx/csv batch import instead of the store
	OutputDir  string
}

// Load reads configuration from environment variables and validates it.
// The database URL is only required when no file-based data source is set.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Data: DataConfig{
			TrialsFile: os.Getenv("TRIALS_FILE"),
			OutputDir:  getEnvOrDefault("OUTPUT_DIR", "analysis_outputs"),
		},
		Analysis: loadAnalysisConfig(),
	}

	if cfg.Database.URL == "" && cfg.Data.TrialsFile == "" {
		return nil, errors.ConfigInvalid("either DATABASE_URL or TRIALS_FILE is required")
	}
	if cfg.Analysis.Alpha <= 0 || cfg.Analysis.Alpha >= 1 {
		return nil, errors.ConfigInvalid("ALPHA must be in (0, 1)")
	}
	if cfg.Analysis.OutlierThresholdMS <= 0 {
		return nil, errors.ConfigInvalid("OUTLIER_THRESHOLD_MS must be positive")
	}

	return cfg, nil
}

// DefaultAnalysis returns the analysis settings with environment
// overrides applied, without requiring a data source to be configured.
func DefaultAnalysis() trial.AnalysisConfig {
	return loadAnalysisConfig()
}

// loadAnalysisConfig starts from the experiment defaults and applies any
// environment overrides.
func loadAnalysisConfig() trial.AnalysisConfig {
	cfg := trial.DefaultConfig()
	cfg.OutlierThresholdMS = getEnvFloatOrDefault("OUTLIER_THRESHOLD_MS", cfg.OutlierThresholdMS)
	cfg.PeakProminence = getEnvFloatOrDefault("PEAK_PROMINENCE", cfg.PeakProminence)
	cfg.AngleThreshold = getEnvFloatOrDefault("ANGLE_THRESHOLD_RAD", cfg.AngleThreshold)
	cfg.Alpha = getEnvFloatOrDefault("ALPHA", cfg.Alpha)
	cfg.DefaultIdealDistance = getEnvFloatOrDefault("IDEAL_DISTANCE_PX", cfg.DefaultIdealDistance)
	return cfg
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
