package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"reachlab/adapters/api"
	"reachlab/adapters/charts"
	"reachlab/adapters/excel"
	"reachlab/app"
	"reachlab/domain/trial"
	"reachlab/internal"
	"reachlab/internal/analysis"
	"reachlab/internal/config"
	"reachlab/internal/testkit"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "reachlab",
		Short: "Trajectory metrics and statistical comparison for reaching experiments",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newTestCmd(),
		newExportCmd(),
		newDemoCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var outDir string
	var withCharts bool

	cmd := &cobra.Command{
		Use:   "analyze [trials-file]",
		Short: "Run the full analysis battery and print the report",
		Long: `Run outlier cleaning, kinematic metric derivation, and the full
statistical battery. With no argument the configured data source is used.

Example: reachlab analyze trials.xlsx --out results/ --charts`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewDefaultLogger()
			cfg, service, cleanup, err := buildService(cmd.Context(), args, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			output, err := service.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(output.Report)

			if outDir == "" {
				return nil
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}

			if err := os.WriteFile(filepath.Join(outDir, "report.txt"), []byte(output.Report), 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			data, err := service.Export(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(outDir, "trials_analyzed.xlsx"), data, 0o644); err != nil {
				return fmt.Errorf("failed to write workbook: %w", err)
			}

			if withCharts {
				if err := writeCharts(outDir, cfg.Analysis, output); err != nil {
					return err
				}
			}

			logger.Info("Wrote analysis artifacts to %s", outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "Directory for report, workbook, and charts")
	cmd.Flags().BoolVar(&withCharts, "charts", false, "Also render HTML charts into the output directory")

	return cmd
}

func newTestCmd() *cobra.Command {
	var dv string

	cmd := &cobra.Command{
		Use:   "test [trials-file]",
		Short: "Run a single repeated-measures test and print the result as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewDefaultLogger()
			_, service, cleanup, err := buildService(cmd.Context(), args, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := service.TestSingle(cmd.Context(), dv)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&dv, "dv", analysis.ColReactionTime, "Dependent variable column to test")

	return cmd
}

func newExportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export [trials-file]",
		Short: "Export the enriched trial table as an xlsx workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewDefaultLogger()
			_, service, cleanup, err := buildService(cmd.Context(), args, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := service.Export(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(outFile, data, 0o644); err != nil {
				return fmt.Errorf("failed to write workbook: %w", err)
			}
			logger.Info("Wrote %s (%d bytes)", outFile, len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "trials_analyzed.xlsx", "Output workbook path")

	return cmd
}

func newDemoCmd() *cobra.Command {
	var seed int64
	var participants int
	var outDir string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the battery against deterministic synthetic data",
		Long: `Generate a synthetic experiment with a seeded generator and run the
full analysis battery against it. Useful for smoke-testing the pipeline
without real data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewDefaultLogger()

			genCfg := testkit.DefaultTrialConfig()
			genCfg.Seed = seed
			if participants > 0 {
				genCfg.ParticipantCount = participants
			}

			gen := testkit.NewTrialGenerator(genCfg)
			batch := gen.GenerateTrials(gen.GenerateParticipants())
			logger.Info("Generated %d synthetic trials", len(batch))

			analysisCfg := config.DefaultAnalysis()
			analyzer := analysis.NewAnalyzer(analysisCfg)
			output, err := analyzer.Run(batch)
			if err != nil {
				return err
			}

			fmt.Println(output.Report)

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("failed to create output dir: %w", err)
				}
				data, err := excel.NewWriter().Export(cmd.Context(), output.Trials, output.Report)
				if err != nil {
					return err
				}
				if err := os.WriteFile(filepath.Join(outDir, "demo_trials.xlsx"), data, 0o644); err != nil {
					return fmt.Errorf("failed to write workbook: %w", err)
				}
				if err := writeCharts(outDir, analysisCfg, output); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for the synthetic experiment")
	cmd.Flags().IntVar(&participants, "participants", 0, "Participant count override")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory for workbook and charts")

	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewDefaultLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			service, cleanup, err := app.BuildService(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			server := api.NewServer(service, cfg.Analysis, logger)
			httpServer := &http.Server{
				Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
				Handler:      server.Handler(),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()

			logger.Info("API server listening on :%s", cfg.Server.Port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "override the configured listen port")
	return cmd
}

// buildService resolves the trial source: an explicit file argument beats
// the configured source.
func buildService(ctx context.Context, args []string, logger *internal.Logger) (*config.Config, *app.AnalysisService, func(), error) {
	if len(args) == 1 {
		cfg := &config.Config{Analysis: config.DefaultAnalysis()}
		source := excel.NewDataReader(args[0])
		service := app.NewAnalysisService(cfg.Analysis, source, excel.NewWriter(), logger)
		return cfg, service, func() {}, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	service, cleanup, err := app.BuildService(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, service, cleanup, nil
}

// writeCharts renders the standard chart set plus a velocity profile for
// the first trial that has a usable path.
func writeCharts(outDir string, cfg trial.AnalysisConfig, output *analysis.Output) error {
	renderer := charts.NewRenderer(cfg)

	conditions, err := os.Create(filepath.Join(outDir, "conditions.html"))
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer conditions.Close()
	if err := renderer.RenderConditionSummary(conditions, output.Trials); err != nil {
		return err
	}

	efficiency, err := os.Create(filepath.Join(outDir, "efficiency.html"))
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer efficiency.Close()
	if err := renderer.RenderEfficiencyByTarget(efficiency, output.Trials); err != nil {
		return err
	}

	for i := range output.Trials {
		if !output.Trials[i].ValidPath(3) {
			continue
		}
		velocity, err := os.Create(filepath.Join(outDir, "velocity.html"))
		if err != nil {
			return fmt.Errorf("failed to create chart file: %w", err)
		}
		defer velocity.Close()
		return renderer.RenderVelocityProfile(velocity, &output.Trials[i])
	}
	return nil
}
