package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/power-forecast/internal/config"
	"github.com/couchcryptid/power-forecast/internal/domain"
)

const (
	defaultAttempts   = 3
	initialBackoff    = 200 * time.Millisecond
	defaultMaxBackoff = 2 * time.Second
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per evaluation row to the report topic.
// It implements pipeline.ReportPublisher.
type Publisher struct {
	writer     messageWriter
	logger     *slog.Logger
	attempts   int
	maxBackoff time.Duration
}

// NewPublisher creates a Kafka producer for the configured report topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.PublishBatchSize,
		BatchTimeout: cfg.PublishFlushInterval,
	}
	return newPublisher(w, logger)
}

func newPublisher(w messageWriter, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger, attempts: defaultAttempts, maxBackoff: defaultMaxBackoff}
}

// PublishReport serializes every evaluation row of the report and writes them
// in a single WriteMessages call, retrying with exponential backoff.
func (p *Publisher) PublishReport(ctx context.Context, report *domain.Report) error {
	if report == nil || len(report.Rows) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, len(report.Rows))
	for i, row := range report.Rows {
		msg, err := serializeToMessage(report, row)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err = p.writer.WriteMessages(ctx, msgs...); err == nil {
			return nil
		}
		if attempt == p.attempts {
			break
		}
		p.logger.Warn("publish evaluation rows failed, retrying",
			"error", err,
			"attempt", attempt,
			"backoff", backoff,
			"run_id", report.RunID,
		)
		if !retry.SleepWithContext(ctx, backoff) {
			return fmt.Errorf("publish evaluation rows: %w", ctx.Err())
		}
		backoff = retry.NextBackoff(backoff, p.maxBackoff)
	}
	return fmt.Errorf("publish evaluation rows after %d attempts: %w", p.attempts, err)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// evaluationMessage is the JSON value of a published evaluation row.
type evaluationMessage struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source,omitempty"`
	Model       string    `json:"model"`
	MAE         float64   `json:"mae"`
	RMSE        float64   `json:"rmse"`
	Points      int       `json:"points"`
	TrainSize   int       `json:"train_size"`
	TestSize    int       `json:"test_size"`
}

// serializeToMessage marshals one evaluation row into a Kafka message keyed by
// model name.
func serializeToMessage(report *domain.Report, row domain.EvaluationRow) (kafkago.Message, error) {
	data, err := json.Marshal(evaluationMessage{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt,
		Source:      report.Source,
		Model:       row.Model,
		MAE:         row.MAE,
		RMSE:        row.RMSE,
		Points:      row.Points,
		TrainSize:   report.TrainSize,
		TestSize:    report.TestSize,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize evaluation row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.Model),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(report.RunID)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
