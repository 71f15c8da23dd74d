package evaluate

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

func TestMAEAndRMSE(t *testing.T) {
	tests := []struct {
		name      string
		actual    []float64
		predicted []float64
		wantMAE   float64
		wantRMSE  float64
	}{
		{"exact", []float64{1, 2, 3}, []float64{1, 2, 3}, 0, 0},
		{"constant offset", []float64{1, 2, 3}, []float64{2, 3, 4}, 1, 1},
		{"mixed errors", []float64{0, 0, 0, 0}, []float64{1, -1, 3, -3}, 2, math.Sqrt(5)},
		{"single point", []float64{4.216}, []float64{4.0}, 0.216, 0.216},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mae, err := MAE(tt.actual, tt.predicted)
			require.NoError(t, err)
			rmse, err := RMSE(tt.actual, tt.predicted)
			require.NoError(t, err)

			assert.InDelta(t, tt.wantMAE, mae, 1e-12)
			assert.InDelta(t, tt.wantRMSE, rmse, 1e-12)
		})
	}
}

func TestMetrics_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.IntN(50)
		actual := make([]float64, n)
		predicted := make([]float64, n)
		for i := range actual {
			actual[i] = rng.Float64() * 5
			predicted[i] = actual[i]
			if rng.IntN(2) == 0 {
				predicted[i] += rng.NormFloat64()
			}
		}

		mae, err := MAE(actual, predicted)
		require.NoError(t, err)
		rmse, err := RMSE(actual, predicted)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, mae, 0.0)
		assert.GreaterOrEqual(t, rmse, 0.0)
		assert.GreaterOrEqual(t, rmse, mae-1e-12)

		equal := true
		for i := range actual {
			if actual[i] != predicted[i] {
				equal = false
			}
		}
		assert.Equal(t, equal, mae == 0)
		assert.Equal(t, equal, rmse == 0)
	}
}

func TestMetrics_Errors(t *testing.T) {
	tests := []struct {
		name      string
		actual    []float64
		predicted []float64
	}{
		{"empty", nil, nil},
		{"length mismatch", []float64{1, 2}, []float64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MAE(tt.actual, tt.predicted)
			assert.ErrorIs(t, err, domain.ErrAlignment)
			_, err = RMSE(tt.actual, tt.predicted)
			assert.ErrorIs(t, err, domain.ErrAlignment)
		})
	}
}
