// Command forecast fits ARIMA, additive and gradient-boosting models to a
// household power consumption export and reports their hold-out accuracy.
//
// Usage:
//
//	forecast run --input household_power_consumption.txt
//	forecast serve
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	kafkaadapter "github.com/couchcryptid/power-forecast/internal/adapter/kafka"
	"github.com/couchcryptid/power-forecast/internal/adapter/parquet"
	"github.com/couchcryptid/power-forecast/internal/config"
	"github.com/couchcryptid/power-forecast/internal/forecast"
	"github.com/couchcryptid/power-forecast/internal/ingest"
	"github.com/couchcryptid/power-forecast/internal/observability"
	"github.com/couchcryptid/power-forecast/internal/pipeline"
)

var (
	envFile    string
	inputPath  string
	trainRatio float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "forecast",
		Short:        "Compare power consumption forecasting models",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file loaded before configuration (default .env if present)")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "Semicolon-delimited readings file (overrides INPUT_PATH)")
	rootCmd.PersistentFlags().Float64Var(&trainRatio, "ratio", 0, "Training fraction in (0,1) (overrides TRAIN_RATIO)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	pipeline  *pipeline.Pipeline
	publisher *kafkaadapter.Publisher
}

// loadConfig reads an optional env file, then the environment, then applies
// flag overrides. Variables already set in the environment win over the file.
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if inputPath != "" {
		cfg.InputPath = inputPath
	}
	if trainRatio != 0 {
		cfg.TrainRatio = trainRatio
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	opts := pipeline.Options{
		Read: ingest.ReadOptions{
			TargetColumn: cfg.TargetColumn,
			MissingToken: cfg.MissingToken,
			Location:     cfg.InputLocation,
		},
		TrainRatio: cfg.TrainRatio,
		Parallel:   cfg.ForecastParallel,
	}

	a := &app{cfg: cfg, logger: logger}

	// Sinks are feature-flagged via KAFKA_ENABLED and PARQUET_OUTPUT_PATH.
	if cfg.KafkaEnabled {
		a.publisher = kafkaadapter.NewPublisher(cfg, logger)
		opts.Publisher = a.publisher
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaReportTopic, "brokers", cfg.KafkaBrokers)
	}
	if cfg.ParquetOutputPath != "" {
		exporter, err := parquet.NewExporter(cfg.ParquetOutputPath, cfg.ParquetCompression, logger)
		if err != nil {
			return nil, err
		}
		opts.Exporter = exporter
		logger.Info("parquet export enabled", "path", cfg.ParquetOutputPath, "compression", cfg.ParquetCompression)
	}

	a.pipeline = pipeline.New(forecasters(cfg, logger), opts, logger, metrics)
	return a, nil
}

func forecasters(cfg *config.Config, logger *slog.Logger) []forecast.Forecaster {
	return []forecast.Forecaster{
		forecast.NewARIMA(forecast.ARIMAConfig{P: cfg.ARIMAOrder, D: cfg.ARIMADifferences}),
		forecast.NewAdditive(forecast.AdditiveConfig{StrictGrid: cfg.AdditiveStrictGrid}, logger),
		forecast.NewGradientBoosting(forecast.BoostingConfig{
			Estimators:   cfg.BoostingEstimators,
			LearningRate: cfg.BoostingLearningRate,
			MaxDepth:     cfg.BoostingMaxDepth,
		}),
	}
}

func (a *app) close() {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("kafka publisher close error", "error", err)
	}
}
