package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

const day = 24 * time.Hour

// seasonality is one Fourier-series component with a period in days.
type seasonality struct {
	name   string
	period float64
	order  int
}

var (
	dailySeasonality  = seasonality{name: "daily", period: 1, order: 4}
	weeklySeasonality = seasonality{name: "weekly", period: 7, order: 3}
	yearlySeasonality = seasonality{name: "yearly", period: 365.25, order: 10}
)

// AdditiveConfig tunes the trend/seasonality model. Zero values take the
// defaults from DefaultAdditiveConfig.
type AdditiveConfig struct {
	Changepoints          int
	ChangepointRange      float64
	ChangepointPriorScale float64
	SeasonalityPriorScale float64
	TrendPriorScale       float64
	// Frequency is the spacing of the generated future grid.
	Frequency time.Duration
	// StrictGrid turns a future-grid/test mismatch into an AlignmentError
	// instead of reindexing onto the test timestamps.
	StrictGrid bool
}

// DefaultAdditiveConfig returns 25 changepoints over the first 80% of the
// history and an hourly future grid.
func DefaultAdditiveConfig() AdditiveConfig {
	return AdditiveConfig{
		Changepoints:          25,
		ChangepointRange:      0.8,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		TrendPriorScale:       5,
		Frequency:             time.Hour,
	}
}

// Additive models y(t) = trend(t) + seasonal(t) with a piecewise-linear trend
// and Fourier seasonalities, fitted as a ridge regression whose penalties
// play the role of Gaussian priors on each coefficient group.
type Additive struct {
	cfg    AdditiveConfig
	logger *slog.Logger
}

// NewAdditive returns an additive forecaster. A nil logger uses slog.Default.
func NewAdditive(cfg AdditiveConfig, logger *slog.Logger) *Additive {
	def := DefaultAdditiveConfig()
	if cfg.Changepoints <= 0 {
		cfg.Changepoints = def.Changepoints
	}
	if cfg.ChangepointRange <= 0 || cfg.ChangepointRange > 1 {
		cfg.ChangepointRange = def.ChangepointRange
	}
	if cfg.ChangepointPriorScale <= 0 {
		cfg.ChangepointPriorScale = def.ChangepointPriorScale
	}
	if cfg.SeasonalityPriorScale <= 0 {
		cfg.SeasonalityPriorScale = def.SeasonalityPriorScale
	}
	if cfg.TrendPriorScale <= 0 {
		cfg.TrendPriorScale = def.TrendPriorScale
	}
	if cfg.Frequency <= 0 {
		cfg.Frequency = def.Frequency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Additive{cfg: cfg, logger: logger}
}

func (a *Additive) Name() string { return domain.ModelAdditive }

func (a *Additive) Forecast(ctx context.Context, train, test domain.Partition) (domain.ForecastResult, error) {
	started := domain.Now()
	if err := requireTest(a.Name(), test); err != nil {
		return domain.ForecastResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.ForecastResult{}, err
	}

	m, err := a.fit(train)
	if err != nil {
		return domain.ForecastResult{}, err
	}

	targets, err := a.alignGrid(train, test)
	if err != nil {
		return domain.ForecastResult{}, err
	}

	predicted := make([]float64, len(targets))
	for i, ts := range targets {
		predicted[i] = m.predict(ts)
	}
	return finish(a.Name(), test, predicted, started)
}

// alignGrid generates len(test) timestamps continuing from the end of
// training and compares them with the test timestamps. On mismatch it either
// fails (StrictGrid) or returns the test timestamps.
func (a *Additive) alignGrid(train, test domain.Partition) ([]time.Time, error) {
	last := train[len(train)-1].Time
	grid := make([]time.Time, len(test))
	mismatch := -1
	for i := range grid {
		grid[i] = last.Add(time.Duration(i+1) * a.cfg.Frequency)
		if mismatch < 0 && !grid[i].Equal(test[i].Time) {
			mismatch = i
		}
	}
	if mismatch < 0 {
		return grid, nil
	}

	reason := fmt.Sprintf("future grid %s differs from test timestamp %s at position %d",
		grid[mismatch].Format(time.RFC3339), test[mismatch].Time.Format(time.RFC3339), mismatch)
	if a.cfg.StrictGrid {
		return nil, &domain.AlignmentError{Model: a.Name(), Reason: reason}
	}

	a.logger.Warn("additive forecast reindexed onto test timestamps",
		"model", a.Name(),
		"reason", reason,
		"test_size", len(test),
	)
	return test.Times(), nil
}

// additiveModel is a fitted Additive forecaster.
type additiveModel struct {
	start        time.Time
	spanSeconds  float64
	changepoints []float64 // in scaled time
	seasons      []seasonality
	beta         []float64
	scale        float64
}

func (a *Additive) fit(train domain.Partition) (*additiveModel, error) {
	if len(train) < 2 {
		return nil, &domain.FitError{
			Model: a.Name(),
			Err:   &domain.InsufficientDataError{Have: len(train), Need: 2},
		}
	}

	y := train.Values()
	scale := math.Max(math.Abs(floats.Max(y)), math.Abs(floats.Min(y)))
	if scale == 0 {
		scale = 1
	}
	floats.Scale(1/scale, y)

	first, last := train[0].Time, train[len(train)-1].Time
	m := &additiveModel{
		start:       first,
		spanSeconds: last.Sub(first).Seconds(),
		scale:       scale,
	}
	if m.spanSeconds <= 0 {
		return nil, &domain.FitError{Model: a.Name(), Err: fmt.Errorf("training span is empty")}
	}

	m.changepoints = a.placeChangepoints(train, m)
	m.seasons = detectSeasonalities(last.Sub(first), medianSpacing(train))

	cols := m.width()
	design := mat.NewDense(len(train), cols, nil)
	for i, r := range train {
		design.SetRow(i, m.row(r.Time))
	}

	var normal mat.SymDense
	normal.SymOuterK(1, design.T())
	for j, lambda := range a.penalties(m) {
		normal.SetSym(j, j, normal.At(j, j)+lambda)
	}

	rhs := mat.NewVecDense(cols, nil)
	rhs.MulVec(design.T(), mat.NewVecDense(len(y), y))

	var chol mat.Cholesky
	if ok := chol.Factorize(&normal); !ok {
		return nil, &domain.FitError{Model: a.Name(), Err: fmt.Errorf("normal equations are not positive definite")}
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, rhs); err != nil {
		return nil, &domain.ConvergenceError{Model: a.Name(), Reason: err.Error()}
	}

	m.beta = make([]float64, cols)
	for j := range m.beta {
		m.beta[j] = beta.AtVec(j)
		if math.IsNaN(m.beta[j]) || math.IsInf(m.beta[j], 0) {
			return nil, &domain.ConvergenceError{Model: a.Name(), Reason: "non-finite coefficient"}
		}
	}

	a.logger.Debug("additive model fitted",
		"model", a.Name(),
		"changepoints", len(m.changepoints),
		"seasonalities", len(m.seasons),
	)
	return m, nil
}

// placeChangepoints spreads potential trend changes evenly over the first
// ChangepointRange of the training records.
func (a *Additive) placeChangepoints(train domain.Partition, m *additiveModel) []float64 {
	hist := int(math.Floor(float64(len(train)) * a.cfg.ChangepointRange))
	n := min(a.cfg.Changepoints, hist-1)
	if n <= 0 {
		return nil
	}

	out := make([]float64, 0, n)
	for k := 1; k <= n; k++ {
		idx := int(math.Round(float64(k) * float64(hist-1) / float64(n)))
		out = append(out, m.scaledTime(train[idx].Time))
	}
	return out
}

// medianSpacing is the median gap between consecutive training timestamps.
// train must hold at least two records.
func medianSpacing(train domain.Partition) time.Duration {
	gaps := make([]float64, len(train)-1)
	for i := 1; i < len(train); i++ {
		gaps[i-1] = float64(train[i].Time.Sub(train[i-1].Time))
	}
	slices.Sort(gaps)
	return time.Duration(stat.Quantile(0.5, stat.Empirical, gaps, nil))
}

// detectSeasonalities enables a component once the history covers at least
// two of its periods and is sampled finer than the period.
func detectSeasonalities(span, spacing time.Duration) []seasonality {
	var out []seasonality
	if span >= 2*day && spacing < day {
		out = append(out, dailySeasonality)
	}
	if span >= 14*day && spacing < 7*day {
		out = append(out, weeklySeasonality)
	}
	if span >= 730*day {
		out = append(out, yearlySeasonality)
	}
	return out
}

// penalties returns one ridge weight per design column. The intercept is
// unpenalised.
func (a *Additive) penalties(m *additiveModel) []float64 {
	out := make([]float64, 0, m.width())
	out = append(out, 0, 1/(a.cfg.TrendPriorScale*a.cfg.TrendPriorScale))
	for range m.changepoints {
		out = append(out, 1/(a.cfg.ChangepointPriorScale*a.cfg.ChangepointPriorScale))
	}
	for _, s := range m.seasons {
		for k := 0; k < 2*s.order; k++ {
			out = append(out, 1/(a.cfg.SeasonalityPriorScale*a.cfg.SeasonalityPriorScale))
		}
	}
	return out
}

func (m *additiveModel) width() int {
	w := 2 + len(m.changepoints)
	for _, s := range m.seasons {
		w += 2 * s.order
	}
	return w
}

func (m *additiveModel) scaledTime(ts time.Time) float64 {
	return ts.Sub(m.start).Seconds() / m.spanSeconds
}

// row builds the design row for ts: intercept, slope, changepoint ramps and
// the sine/cosine pairs of every seasonality.
func (m *additiveModel) row(ts time.Time) []float64 {
	t := m.scaledTime(ts)
	out := make([]float64, 0, m.width())
	out = append(out, 1, t)
	for _, c := range m.changepoints {
		out = append(out, math.Max(0, t-c))
	}

	days := float64(ts.UnixNano()) / float64(day)
	for _, s := range m.seasons {
		for k := 1; k <= s.order; k++ {
			x := 2 * math.Pi * float64(k) * days / s.period
			out = append(out, math.Sin(x), math.Cos(x))
		}
	}
	return out
}

func (m *additiveModel) predict(ts time.Time) float64 {
	return floats.Dot(m.row(ts), m.beta) * m.scale
}
