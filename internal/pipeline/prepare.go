package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/power-forecast/internal/domain"
	"github.com/couchcryptid/power-forecast/internal/ingest"
)

// dataset is the cleaned, featured and split hourly series for one run.
type dataset struct {
	train, test  domain.Partition
	observations int
	missing      int
	dropped      int
}

// prepare runs the fatal stages: ingest, resample, clean, derive features
// and split. Any error aborts the run.
func (p *Pipeline) prepare(ctx context.Context, path string) (*dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	obs, err := ingest.ReadFile(path, p.opts.Read)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", path, err)
	}

	ds := &dataset{observations: len(obs)}
	for _, o := range obs {
		if o.Missing {
			ds.missing++
		}
	}
	p.metrics.ObservationsRead.Add(float64(ds.observations))
	p.metrics.MissingReadings.Add(float64(ds.missing))
	p.logger.Info("observations read", "path", path, "observations", ds.observations, "missing", ds.missing)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hourly := ingest.Resample(obs)
	kept, dropped := ingest.Clean(hourly)
	ds.dropped = dropped
	p.metrics.HourlyRecordsKept.Add(float64(len(kept)))
	p.metrics.HourlyDropped.Add(float64(dropped))
	p.logger.Info("hourly series cleaned", "hours", len(hourly), "kept", len(kept), "dropped", dropped)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	featured := domain.WithFeatures(kept)

	ds.train, ds.test, err = domain.Split(featured, p.opts.TrainRatio)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	p.logger.Info("series split",
		"train", len(ds.train),
		"test", len(ds.test),
		"test_start", ds.test[0].Time,
	)
	return ds, nil
}
