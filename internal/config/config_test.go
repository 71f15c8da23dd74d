package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "household_power_consumption.txt", cfg.InputPath)
	assert.Equal(t, "Global_active_power", cfg.TargetColumn)
	assert.Equal(t, "?", cfg.MissingToken)
	assert.Equal(t, time.UTC, cfg.InputLocation)
	assert.Equal(t, 0.8, cfg.TrainRatio)
	assert.Equal(t, 5, cfg.ARIMAOrder)
	assert.Equal(t, 1, cfg.ARIMADifferences)
	assert.Equal(t, 100, cfg.BoostingEstimators)
	assert.Equal(t, 0.1, cfg.BoostingLearningRate)
	assert.Equal(t, 3, cfg.BoostingMaxDepth)
	assert.False(t, cfg.AdditiveStrictGrid)
	assert.False(t, cfg.ForecastParallel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "forecast-evaluations", cfg.KafkaReportTopic)
	assert.Equal(t, 50, cfg.PublishBatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.PublishFlushInterval)
	assert.Empty(t, cfg.ParquetOutputPath)
	assert.Equal(t, "SNAPPY", cfg.ParquetCompression)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_PATH", "/data/power.txt")
	t.Setenv("TARGET_COLUMN", "Voltage")
	t.Setenv("MISSING_TOKEN", "NA")
	t.Setenv("INPUT_TIMEZONE", "Europe/Paris")
	t.Setenv("TRAIN_RATIO", "0.75")
	t.Setenv("ARIMA_P", "3")
	t.Setenv("ARIMA_D", "2")
	t.Setenv("GBR_ESTIMATORS", "50")
	t.Setenv("GBR_LEARNING_RATE", "0.05")
	t.Setenv("GBR_MAX_DEPTH", "4")
	t.Setenv("ADDITIVE_STRICT_GRID", "true")
	t.Setenv("FORECAST_PARALLEL", "true")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-evaluations")
	t.Setenv("PARQUET_OUTPUT_PATH", "/tmp/forecasts.parquet")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/power.txt", cfg.InputPath)
	assert.Equal(t, "Voltage", cfg.TargetColumn)
	assert.Equal(t, "NA", cfg.MissingToken)
	assert.Equal(t, "Europe/Paris", cfg.InputLocation.String())
	assert.Equal(t, 0.75, cfg.TrainRatio)
	assert.Equal(t, 3, cfg.ARIMAOrder)
	assert.Equal(t, 2, cfg.ARIMADifferences)
	assert.Equal(t, 50, cfg.BoostingEstimators)
	assert.Equal(t, 0.05, cfg.BoostingLearningRate)
	assert.Equal(t, 4, cfg.BoostingMaxDepth)
	assert.True(t, cfg.AdditiveStrictGrid)
	assert.True(t, cfg.ForecastParallel)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-evaluations", cfg.KafkaReportTopic)
	assert.Equal(t, "/tmp/forecasts.parquet", cfg.ParquetOutputPath)
	assert.Equal(t, 100, cfg.PublishBatchSize)
	assert.Equal(t, time.Second, cfg.PublishFlushInterval)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"BATCH_SIZE", "0"},
		{"BATCH_SIZE", "9999"},
		{"BATCH_FLUSH_INTERVAL", "not-a-duration"},
		{"INPUT_TIMEZONE", "Mars/Olympus"},
		{"TRAIN_RATIO", "abc"},
		{"TRAIN_RATIO", "1"},
		{"TRAIN_RATIO", "0"},
		{"ARIMA_P", "0"},
		{"ARIMA_D", "-1"},
		{"ARIMA_D", "one"},
		{"GBR_ESTIMATORS", "-5"},
		{"GBR_LEARNING_RATE", "0"},
		{"GBR_MAX_DEPTH", "x"},
		{"ADDITIVE_STRICT_GRID", "maybe"},
		{"FORECAST_PARALLEL", "sometimes"},
		{"KAFKA_ENABLED", "yes please"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.TrainRatio = 0.5
	assert.NoError(t, cfg.Validate())

	cfg.KafkaEnabled = true
	cfg.KafkaBrokers = nil
	assert.ErrorContains(t, cfg.Validate(), "KAFKA_BROKERS")

	cfg.KafkaEnabled = false
	cfg.InputPath = ""
	assert.ErrorContains(t, cfg.Validate(), "INPUT_PATH")
}
