// Package parquet exports aligned actual and forecast series to a Parquet
// file so they can be plotted or analysed outside the pipeline.
package parquet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

// marshalParallelism is the number of goroutines parquet-go uses to marshal
// a row group.
const marshalParallelism = 4

// forecastRow is one (timestamp, model) point of an exported forecast.
type forecastRow struct {
	Time      int64   `parquet:"name=time,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	Model     string  `parquet:"name=model,type=BYTE_ARRAY,convertedtype=UTF8,encoding=PLAIN_DICTIONARY"`
	Actual    float64 `parquet:"name=actual,type=DOUBLE"`
	Predicted float64 `parquet:"name=predicted,type=DOUBLE"`
}

// Exporter writes forecasts to a local Parquet file.
// It implements pipeline.ForecastExporter.
type Exporter struct {
	path        string
	compression parquet.CompressionCodec
	logger      *slog.Logger
}

// NewExporter returns an exporter writing to path with the named compression
// (SNAPPY, GZIP or NONE).
func NewExporter(path, compression string, logger *slog.Logger) (*Exporter, error) {
	codec, err := compressionCodec(compression)
	if err != nil {
		return nil, err
	}
	return &Exporter{path: path, compression: codec, logger: logger}, nil
}

// ExportForecasts writes one row per model and test timestamp. The file is
// written to a temporary sibling and renamed into place.
func (e *Exporter) ExportForecasts(ctx context.Context, test domain.Partition, results []domain.ForecastResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	rows, err := e.writeTo(&buf, test, results)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".forecast-*.parquet")
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := io.Copy(tmp, &buf); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write parquet file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.path); err != nil {
		return fmt.Errorf("move parquet file into place: %w", err)
	}

	e.logger.Info("forecasts exported", "path", e.path, "rows", rows, "models", len(results))
	return nil
}

func (e *Exporter) writeTo(w io.Writer, test domain.Partition, results []domain.ForecastResult) (rows int, err error) {
	pw, err := writer.NewParquetWriterFromWriter(w, new(forecastRow), marshalParallelism)
	if err != nil {
		return 0, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = e.compression

	for _, res := range results {
		if len(res.Predicted) != len(test) {
			return 0, &domain.AlignmentError{
				Model:  res.Model,
				Reason: fmt.Sprintf("%d predictions for %d test records", len(res.Predicted), len(test)),
			}
		}
		for i, rec := range test {
			row := forecastRow{
				Time:      rec.Time.UnixMilli(),
				Model:     res.Model,
				Actual:    rec.Power,
				Predicted: res.Predicted[i],
			}
			if err := pw.Write(row); err != nil {
				return 0, fmt.Errorf("write parquet row: %w", err)
			}
			rows++
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet writer panicked during WriteStop: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return 0, fmt.Errorf("finalize parquet file: %w", err)
	}
	return rows, nil
}

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "SNAPPY", "":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported parquet compression: %s", name)
	}
}
