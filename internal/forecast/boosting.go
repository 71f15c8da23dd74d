package forecast

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

// BoostingConfig sets the ensemble size and tree shape.
type BoostingConfig struct {
	Estimators     int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
}

// DefaultBoostingConfig returns 100 depth-3 trees with learning rate 0.1.
func DefaultBoostingConfig() BoostingConfig {
	return BoostingConfig{Estimators: 100, LearningRate: 0.1, MaxDepth: 3, MinSamplesLeaf: 1}
}

// GradientBoosting regresses power on the calendar features (hour, day of
// week, weekend flag) with a least-squares boosted tree ensemble. It ignores
// recent history entirely.
type GradientBoosting struct {
	cfg BoostingConfig
}

// NewGradientBoosting returns a boosting forecaster, filling zero fields from
// DefaultBoostingConfig.
func NewGradientBoosting(cfg BoostingConfig) *GradientBoosting {
	def := DefaultBoostingConfig()
	if cfg.Estimators <= 0 {
		cfg.Estimators = def.Estimators
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = def.MinSamplesLeaf
	}
	return &GradientBoosting{cfg: cfg}
}

func (g *GradientBoosting) Name() string { return domain.ModelGradientBoosting }

func (g *GradientBoosting) Forecast(ctx context.Context, train, test domain.Partition) (domain.ForecastResult, error) {
	started := domain.Now()
	if err := requireTest(g.Name(), test); err != nil {
		return domain.ForecastResult{}, err
	}
	if len(train) == 0 {
		return domain.ForecastResult{}, &domain.FitError{
			Model: g.Name(),
			Err:   &domain.InsufficientDataError{Have: 0, Need: 1},
		}
	}

	ens, err := g.fit(ctx, train.Features(), train.Values())
	if err != nil {
		return domain.ForecastResult{}, err
	}

	rows := test.Features()
	predicted := make([]float64, len(rows))
	for i, row := range rows {
		predicted[i] = ens.predict(row)
	}
	return finish(g.Name(), test, predicted, started)
}

type ensemble struct {
	init         float64
	learningRate float64
	trees        []*regressionTree
}

func (g *GradientBoosting) fit(ctx context.Context, x [][]float64, y []float64) (*ensemble, error) {
	ens := &ensemble{
		init:         stat.Mean(y, nil),
		learningRate: g.cfg.LearningRate,
		trees:        make([]*regressionTree, 0, g.cfg.Estimators),
	}

	current := make([]float64, len(y))
	for i := range current {
		current[i] = ens.init
	}
	residual := make([]float64, len(y))
	params := treeParams{maxDepth: g.cfg.MaxDepth, minLeafSize: g.cfg.MinSamplesLeaf}

	for m := 0; m < g.cfg.Estimators; m++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("boosting round %d: %w", m, err)
		}
		for i := range y {
			residual[i] = y[i] - current[i]
		}
		tree := fitTree(x, residual, params)
		for i := range current {
			current[i] += ens.learningRate * tree.predict(x[i])
		}
		ens.trees = append(ens.trees, tree)
	}
	return ens, nil
}

func (e *ensemble) predict(row []float64) float64 {
	out := e.init
	for _, t := range e.trees {
		out += e.learningRate * t.predict(row)
	}
	return out
}
