package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"

	"github.com/couchcryptid/power-forecast/internal/domain"
	"github.com/couchcryptid/power-forecast/internal/evaluate"
	"github.com/couchcryptid/power-forecast/internal/forecast"
	"github.com/couchcryptid/power-forecast/internal/ingest"
	"github.com/couchcryptid/power-forecast/internal/observability"
)

// ReportPublisher delivers a finished report to an external consumer.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *domain.Report) error
}

// ForecastExporter persists forecast series alongside the actual test values.
type ForecastExporter interface {
	ExportForecasts(ctx context.Context, test domain.Partition, results []domain.ForecastResult) error
}

// Options configures a Pipeline. Publisher and Exporter are optional.
type Options struct {
	Read       ingest.ReadOptions
	TrainRatio float64
	// Parallel runs the forecasters concurrently.
	Parallel  bool
	Publisher ReportPublisher
	Exporter  ForecastExporter
}

// Pipeline orchestrates ingest, preparation, forecasting and evaluation.
type Pipeline struct {
	forecasters []forecast.Forecaster
	opts        Options
	logger      *slog.Logger
	metrics     *observability.Metrics

	ready atomic.Bool
	mu    sync.RWMutex
	last  *domain.Report
}

// New creates a Pipeline running the given forecasters.
func New(forecasters []forecast.Forecaster, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.TrainRatio == 0 {
		opts.TrainRatio = domain.DefaultTrainRatio
	}
	return &Pipeline{
		forecasters: forecasters,
		opts:        opts,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once the pipeline has produced a report.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced a report yet")
	}
	return nil
}

// LastReport returns the most recent report.
func (p *Pipeline) LastReport() (*domain.Report, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.last != nil
}

// Run executes one pipeline pass over the file at path.
//
// A nil report means a fatal error: the input could not be read, cleaned or
// split, or ctx was cancelled. Otherwise the report is returned together with
// a multierror of non-fatal failures (forecasters that failed, forecasts that
// could not be scored, sinks that could not be written), which is nil when
// everything succeeded.
func (p *Pipeline) Run(ctx context.Context, path string) (*domain.Report, error) {
	ctx, span := observability.StartSpan(ctx, "pipeline.run", attribute.String("source", path))
	report, err := p.run(ctx, path)
	observability.EndSpan(span, err)
	return report, err
}

func (p *Pipeline) run(ctx context.Context, path string) (*domain.Report, error) {
	p.logger.Info("pipeline started", "path", path, "models", len(p.forecasters), "parallel", p.opts.Parallel)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ds, err := p.prepare(ctx, path)
	if err != nil {
		return nil, p.fail(err)
	}

	results, failures, errs := p.runForecasters(ctx, ds.train, ds.test)
	if err := ctx.Err(); err != nil {
		return nil, p.fail(err)
	}

	rows, err := evaluate.Evaluate(ds.test, results)
	if err != nil {
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				failures = append(failures, p.modelFailure(e))
			}
		}
		errs = multierror.Append(errs, err)
	}

	report := &domain.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: domain.Now(),
		Source:      path,
		TrainSize:   len(ds.train),
		TestSize:    len(ds.test),
		TrainStart:  ds.train[0].Time,
		TestStart:   ds.test[0].Time,
		TestEnd:     ds.test[len(ds.test)-1].Time,
		Rows:        rows,
		Failures:    failures,
	}
	for _, row := range rows {
		p.metrics.ModelMAE.WithLabelValues(row.Model).Set(row.MAE)
		p.metrics.ModelRMSE.WithLabelValues(row.Model).Set(row.RMSE)
		p.logger.Info("model evaluated", "model", row.Model, "mae", row.MAE, "rmse", row.RMSE, "points", row.Points)
	}

	p.mu.Lock()
	p.last = report
	p.mu.Unlock()
	p.ready.Store(true)

	if err := p.deliver(ctx, report, ds.test, scored(results, rows)); err != nil {
		errs = multierror.Append(errs, err)
	}

	outcome := "success"
	if len(failures) > 0 {
		outcome = "partial"
	}
	p.metrics.Runs.WithLabelValues(outcome).Inc()
	p.logger.Info("pipeline finished",
		"run_id", report.RunID,
		"rows", len(rows),
		"failures", len(failures),
	)

	return report, errs.ErrorOrNil()
}

// runForecasters fits every forecaster on the same partitions. A failing
// forecaster is logged and recorded; the others still run.
func (p *Pipeline) runForecasters(ctx context.Context, train, test domain.Partition) ([]domain.ForecastResult, []domain.ModelFailure, *multierror.Error) {
	results := make([]domain.ForecastResult, len(p.forecasters))
	errs := make([]error, len(p.forecasters))

	run := func(i int, train, test domain.Partition) {
		f := p.forecasters[i]
		p.logger.Info("forecaster started", "model", f.Name(), "train", len(train), "test", len(test))
		ctx, span := observability.StartSpan(ctx, "forecast."+f.Name(),
			attribute.String("model", f.Name()),
			attribute.Int("train_size", len(train)),
			attribute.Int("test_size", len(test)),
		)
		results[i], errs[i] = f.Forecast(ctx, train, test)
		observability.EndSpan(span, errs[i])
	}

	if p.opts.Parallel {
		var wg sync.WaitGroup
		for i := range p.forecasters {
			wg.Add(1)
			go func() {
				defer wg.Done()
				run(i, slices.Clone(train), slices.Clone(test))
			}()
		}
		wg.Wait()
	} else {
		for i := range p.forecasters {
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				continue
			}
			run(i, train, test)
		}
	}

	var merr *multierror.Error
	var failures []domain.ModelFailure
	ok := make([]domain.ForecastResult, 0, len(results))
	for i, f := range p.forecasters {
		if errs[i] != nil {
			err := fmt.Errorf("%s: %w", f.Name(), errs[i])
			merr = multierror.Append(merr, err)
			failures = append(failures, domain.ModelFailure{Model: f.Name(), Error: errs[i].Error()})
			p.metrics.ModelFailures.WithLabelValues(f.Name()).Inc()
			p.logger.Warn("forecaster failed", "model", f.Name(), "error", errs[i])
			continue
		}
		p.metrics.ModelFitDuration.WithLabelValues(f.Name()).Observe(results[i].FitDuration.Seconds())
		p.logger.Info("forecaster finished", "model", f.Name(), "duration", results[i].FitDuration)
		ok = append(ok, results[i])
	}
	return ok, failures, merr
}

// deliver hands the report and forecasts to the configured sinks. Sink
// failures are logged and returned but never discard the report.
func (p *Pipeline) deliver(ctx context.Context, report *domain.Report, test domain.Partition, results []domain.ForecastResult) error {
	var errs *multierror.Error
	if p.opts.Publisher != nil {
		if err := p.opts.Publisher.PublishReport(ctx, report); err != nil {
			p.metrics.SinkErrors.WithLabelValues("kafka").Inc()
			p.logger.Error("publish report failed", "error", err, "run_id", report.RunID)
			errs = multierror.Append(errs, fmt.Errorf("publish report: %w", err))
		}
	}
	if p.opts.Exporter != nil {
		if err := p.opts.Exporter.ExportForecasts(ctx, test, results); err != nil {
			p.metrics.SinkErrors.WithLabelValues("parquet").Inc()
			p.logger.Error("export forecasts failed", "error", err, "run_id", report.RunID)
			errs = multierror.Append(errs, fmt.Errorf("export forecasts: %w", err))
		}
	}
	return errs.ErrorOrNil()
}

func (p *Pipeline) fail(err error) error {
	p.metrics.Runs.WithLabelValues("failed").Inc()
	p.logger.Error("pipeline failed", "error", err)
	return err
}

func (p *Pipeline) modelFailure(err error) domain.ModelFailure {
	var ae *domain.AlignmentError
	if errors.As(err, &ae) {
		p.metrics.ModelFailures.WithLabelValues(ae.Model).Inc()
		p.logger.Warn("forecast could not be scored", "model", ae.Model, "error", err)
		return domain.ModelFailure{Model: ae.Model, Error: err.Error()}
	}
	p.logger.Warn("forecast could not be scored", "error", err)
	return domain.ModelFailure{Error: err.Error()}
}

// scored keeps the results that produced an evaluation row.
func scored(results []domain.ForecastResult, rows []domain.EvaluationRow) []domain.ForecastResult {
	out := make([]domain.ForecastResult, 0, len(rows))
	for _, res := range results {
		if slices.ContainsFunc(rows, func(r domain.EvaluationRow) bool { return r.Model == res.Model }) {
			out = append(out, res)
		}
	}
	return out
}
