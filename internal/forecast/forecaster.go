// Package forecast implements the three forecasting strategies compared by the
// pipeline. Each one fits on the training partition only and returns exactly
// one prediction per test record.
package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

// Forecaster fits on train and predicts one value per record of test.
type Forecaster interface {
	Name() string
	Forecast(ctx context.Context, train, test domain.Partition) (domain.ForecastResult, error)
}

// finish validates predictions against test and assembles the result. A
// forecast is never truncated or padded to fit.
func finish(name string, test domain.Partition, predicted []float64, started time.Time) (domain.ForecastResult, error) {
	if len(predicted) != len(test) {
		return domain.ForecastResult{}, &domain.AlignmentError{
			Model:  name,
			Reason: fmt.Sprintf("produced %d predictions for %d test records", len(predicted), len(test)),
		}
	}
	for i, v := range predicted {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.ForecastResult{}, &domain.FitError{
				Model: name,
				Err:   fmt.Errorf("non-finite prediction at %s", test[i].Time),
			}
		}
	}

	return domain.ForecastResult{
		Model:       name,
		Times:       test.Times(),
		Predicted:   predicted,
		FitDuration: domain.Since(started),
	}, nil
}

func requireTest(name string, test domain.Partition) error {
	if len(test) == 0 {
		return &domain.AlignmentError{Model: name, Reason: "empty test partition"}
	}
	return nil
}
