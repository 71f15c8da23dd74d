package forecast

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

// varianceTolerance is the relative variance below which a differenced
// series is treated as constant.
const varianceTolerance = 1e-12

// ARIMAConfig sets the autoregressive order and the number of differencing
// steps. The moving-average order is always zero.
type ARIMAConfig struct {
	P int
	D int
}

// DefaultARIMAConfig is ARIMA(5,1,0).
func DefaultARIMAConfig() ARIMAConfig { return ARIMAConfig{P: 5, D: 1} }

// ARIMA fits an AR(p) model without intercept to the d-times differenced
// training series by conditional least squares and forecasts by iterating
// one-step-ahead projections.
type ARIMA struct {
	cfg ARIMAConfig
}

// NewARIMA returns an ARIMA forecaster. Non-positive P falls back to the
// default order and negative D to the default differencing. D = 0 is kept and
// fits an AR(P) model on the levels, so callers wanting ARIMA(5,1,0) pass
// DefaultARIMAConfig.
func NewARIMA(cfg ARIMAConfig) *ARIMA {
	def := DefaultARIMAConfig()
	if cfg.P <= 0 {
		cfg.P = def.P
	}
	if cfg.D < 0 {
		cfg.D = def.D
	}
	return &ARIMA{cfg: cfg}
}

func (a *ARIMA) Name() string { return domain.ModelARIMA }

func (a *ARIMA) Forecast(ctx context.Context, train, test domain.Partition) (domain.ForecastResult, error) {
	started := domain.Now()
	if err := requireTest(a.Name(), test); err != nil {
		return domain.ForecastResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.ForecastResult{}, err
	}

	phi, levels, err := a.fit(train.Values())
	if err != nil {
		return domain.ForecastResult{}, err
	}

	return finish(a.Name(), test, a.project(phi, levels, len(test)), started)
}

// fit returns the AR coefficients and the series at every differencing
// level, levels[0] being the original values.
func (a *ARIMA) fit(y []float64) ([]float64, [][]float64, error) {
	p, d := a.cfg.P, a.cfg.D
	if len(y) <= p+d {
		return nil, nil, &domain.FitError{
			Model: a.Name(),
			Err:   &domain.InsufficientDataError{Have: len(y), Need: p + d + 1},
		}
	}

	levels := make([][]float64, d+1)
	levels[0] = y
	for k := 1; k <= d; k++ {
		levels[k] = difference(levels[k-1])
	}
	z := levels[d]

	// A differenced series with no variation carries no autoregressive
	// signal. A nil coefficient slice makes project repeat its last value,
	// which for constant training data is a random walk.
	if len(z) < 2 {
		return nil, levels, nil
	}
	if mean, variance := stat.MeanVariance(z, nil); variance <= varianceTolerance*(1+mean*mean) {
		return nil, levels, nil
	}

	rows := len(z) - p
	if rows < p {
		return nil, nil, &domain.FitError{
			Model: a.Name(),
			Err:   &domain.InsufficientDataError{Have: len(y), Need: 2*p + d},
		}
	}

	design := mat.NewDense(rows, p, nil)
	target := mat.NewDense(rows, 1, nil)
	for r := 0; r < rows; r++ {
		t := r + p
		for lag := 1; lag <= p; lag++ {
			design.Set(r, lag-1, z[t-lag])
		}
		target.Set(r, 0, z[t])
	}

	var coef mat.Dense
	if err := coef.Solve(design, target); err != nil {
		return nil, nil, &domain.ConvergenceError{Model: a.Name(), Reason: fmt.Sprintf("least squares: %v", err)}
	}

	phi := make([]float64, p)
	for i := range phi {
		phi[i] = coef.At(i, 0)
		if math.IsNaN(phi[i]) || math.IsInf(phi[i], 0) {
			return nil, nil, &domain.ConvergenceError{Model: a.Name(), Reason: "non-finite coefficient"}
		}
	}

	if err := a.checkStationary(phi); err != nil {
		return nil, nil, err
	}
	return phi, levels, nil
}

// checkStationary requires every root of the AR polynomial to lie outside
// the unit circle, i.e. every companion eigenvalue strictly inside it.
func (a *ARIMA) checkStationary(phi []float64) error {
	p := len(phi)
	companion := mat.NewDense(p, p, nil)
	for j, v := range phi {
		companion.Set(0, j, v)
	}
	for i := 1; i < p; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return &domain.ConvergenceError{Model: a.Name(), Reason: "eigen decomposition of companion matrix failed"}
	}
	for _, v := range eig.Values(nil) {
		if m := cmplx.Abs(v); m >= 1 {
			return &domain.ConvergenceError{
				Model:  a.Name(),
				Reason: fmt.Sprintf("non-stationary AR process (root modulus %.4f)", m),
			}
		}
	}
	return nil
}

// project produces h forecasts on the original scale.
func (a *ARIMA) project(phi []float64, levels [][]float64, h int) []float64 {
	z := levels[len(levels)-1]
	p := len(phi)

	hist := make([]float64, 0, len(z)+h)
	hist = append(hist, z...)
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		t := len(hist)
		var next float64
		if phi == nil {
			next = hist[t-1]
		}
		for lag := 1; lag <= p && t-lag >= 0; lag++ {
			next += phi[lag-1] * hist[t-lag]
		}
		hist = append(hist, next)
		out[i] = next
	}

	for k := len(levels) - 2; k >= 0; k-- {
		last := levels[k][len(levels[k])-1]
		for i := range out {
			last += out[i]
			out[i] = last
		}
	}
	return out
}

func difference(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	out := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		out[i-1] = x[i] - x[i-1]
	}
	return out
}
