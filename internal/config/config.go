package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
	_ "time/tzdata" // INPUT_TIMEZONE must resolve in minimal images

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	InputPath     string
	TargetColumn  string
	MissingToken  string
	InputLocation *time.Location
	TrainRatio    float64

	ARIMAOrder       int
	ARIMADifferences int

	BoostingEstimators   int
	BoostingLearningRate float64
	BoostingMaxDepth     int

	AdditiveStrictGrid bool
	ForecastParallel   bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional sinks.
	KafkaEnabled         bool
	KafkaBrokers         []string
	KafkaReportTopic     string
	PublishBatchSize     int
	PublishFlushInterval time.Duration
	ParquetOutputPath    string
	ParquetCompression   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(sharedcfg.EnvOrDefault("INPUT_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid INPUT_TIMEZONE: %w", err)
	}

	cfg := &Config{
		InputPath:          sharedcfg.EnvOrDefault("INPUT_PATH", "household_power_consumption.txt"),
		TargetColumn:       sharedcfg.EnvOrDefault("TARGET_COLUMN", "Global_active_power"),
		MissingToken:       sharedcfg.EnvOrDefault("MISSING_TOKEN", "?"),
		InputLocation:      loc,
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic:   sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "forecast-evaluations"),
		ParquetOutputPath:  sharedcfg.EnvOrDefault("PARQUET_OUTPUT_PATH", ""),
		ParquetCompression: sharedcfg.EnvOrDefault("PARQUET_COMPRESSION", "SNAPPY"),

		PublishBatchSize:     batchSize,
		PublishFlushInterval: flushInterval,
	}

	if cfg.TrainRatio, err = parseFloat("TRAIN_RATIO", "0.8"); err != nil {
		return nil, err
	}
	if cfg.ARIMAOrder, err = parsePositiveInt("ARIMA_P", "5"); err != nil {
		return nil, err
	}
	if cfg.ARIMADifferences, err = parseInt("ARIMA_D", "1"); err != nil {
		return nil, err
	}
	if cfg.BoostingEstimators, err = parsePositiveInt("GBR_ESTIMATORS", "100"); err != nil {
		return nil, err
	}
	if cfg.BoostingLearningRate, err = parseFloat("GBR_LEARNING_RATE", "0.1"); err != nil {
		return nil, err
	}
	if cfg.BoostingMaxDepth, err = parsePositiveInt("GBR_MAX_DEPTH", "3"); err != nil {
		return nil, err
	}
	if cfg.AdditiveStrictGrid, err = parseBool("ADDITIVE_STRICT_GRID", "false"); err != nil {
		return nil, err
	}
	if cfg.ForecastParallel, err = parseBool("FORECAST_PARALLEL", "false"); err != nil {
		return nil, err
	}
	if cfg.KafkaEnabled, err = parseBool("KAFKA_ENABLED", "false"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. It is called by Load and again by
// the CLI after flag overrides.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("INPUT_PATH is required")
	}
	if c.TargetColumn == "" {
		return errors.New("TARGET_COLUMN is required")
	}
	if c.TrainRatio <= 0 || c.TrainRatio >= 1 {
		return errors.New("TRAIN_RATIO must be between 0 and 1 exclusive")
	}
	if c.ARIMADifferences < 0 {
		return errors.New("ARIMA_D must not be negative")
	}
	if c.BoostingLearningRate <= 0 {
		return errors.New("GBR_LEARNING_RATE must be positive")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.KafkaReportTopic == "" {
			return errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	return nil
}

func parseFloat(key, fallback string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, fallback), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseInt(key, fallback string) (int, error) {
	v, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parsePositiveInt(key, fallback string) (int, error) {
	v, err := parseInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return v, nil
}

func parseBool(key, fallback string) (bool, error) {
	v, err := strconv.ParseBool(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
