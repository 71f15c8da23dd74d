package evaluate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

// Evaluate scores every result against test and returns one row per model in
// canonical order (ARIMA, Additive, GradientBoosting), followed by any other
// models in input order. Results that cannot be scored are left out of the
// rows and reported in the returned error; the remaining rows are still
// returned.
func Evaluate(test domain.Partition, results []domain.ForecastResult) ([]domain.EvaluationRow, error) {
	actual := test.Values()

	var errs *multierror.Error
	rows := make([]domain.EvaluationRow, 0, len(results))
	for _, res := range results {
		row, err := score(test, actual, res)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		rows = append(rows, row)
	}

	slices.SortStableFunc(rows, func(a, b domain.EvaluationRow) int {
		return rank(a.Model) - rank(b.Model)
	})
	return rows, errs.ErrorOrNil()
}

func score(test domain.Partition, actual []float64, res domain.ForecastResult) (domain.EvaluationRow, error) {
	if res.Times != nil {
		if len(res.Times) != len(test) {
			return domain.EvaluationRow{}, &domain.AlignmentError{
				Model:  res.Model,
				Reason: fmt.Sprintf("%d forecast timestamps for %d test records", len(res.Times), len(test)),
			}
		}
		for i, ts := range res.Times {
			if !ts.Equal(test[i].Time) {
				return domain.EvaluationRow{}, &domain.AlignmentError{
					Model:  res.Model,
					Reason: fmt.Sprintf("forecast timestamp %s does not match test timestamp %s", ts, test[i].Time),
				}
			}
		}
	}

	mae, err := MAE(actual, res.Predicted)
	if err != nil {
		return domain.EvaluationRow{}, withModel(err, res.Model)
	}
	rmse, err := RMSE(actual, res.Predicted)
	if err != nil {
		return domain.EvaluationRow{}, withModel(err, res.Model)
	}
	return domain.EvaluationRow{Model: res.Model, MAE: mae, RMSE: rmse, Points: len(actual)}, nil
}

func withModel(err error, model string) error {
	var ae *domain.AlignmentError
	if errors.As(err, &ae) {
		ae.Model = model
		return ae
	}
	return fmt.Errorf("%s: %w", model, err)
}

func rank(model string) int {
	if i := slices.Index(domain.ModelOrder, model); i >= 0 {
		return i
	}
	return len(domain.ModelOrder)
}
