// Package evaluate scores forecasts against the test partition and renders
// the model comparison.
package evaluate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

// MAE returns the mean absolute error between aligned series.
func MAE(actual, predicted []float64) (float64, error) {
	if err := checkAligned(actual, predicted); err != nil {
		return 0, err
	}
	return floats.Distance(actual, predicted, 1) / float64(len(actual)), nil
}

// RMSE returns the root mean squared error between aligned series.
func RMSE(actual, predicted []float64) (float64, error) {
	if err := checkAligned(actual, predicted); err != nil {
		return 0, err
	}
	return floats.Distance(actual, predicted, 2) / math.Sqrt(float64(len(actual))), nil
}

func checkAligned(actual, predicted []float64) error {
	if len(actual) == 0 {
		return &domain.AlignmentError{Reason: "no test values to score"}
	}
	if len(actual) != len(predicted) {
		return &domain.AlignmentError{
			Reason: fmt.Sprintf("%d predictions for %d actual values", len(predicted), len(actual)),
		}
	}
	return nil
}
