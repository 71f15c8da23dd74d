package forecast

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

func TestAdditive_DailySeasonality(t *testing.T) {
	records := hourly(24*28, func(_ int, ts time.Time) float64 {
		return 2 + math.Sin(2*math.Pi*float64(ts.Hour())/24)
	})
	train, test := splitAt(records, 0.8)

	res, err := NewAdditive(DefaultAdditiveConfig(), nil).Forecast(context.Background(), train, test)
	require.NoError(t, err)
	require.Len(t, res.Predicted, len(test))
	assert.Less(t, mae(test.Values(), res.Predicted), 0.05)
}

func TestAdditive_LinearTrend(t *testing.T) {
	train, test := splitAt(hourly(24*10, func(i int, _ time.Time) float64 { return 1 + 0.01*float64(i) }), 0.8)

	res, err := NewAdditive(DefaultAdditiveConfig(), nil).Forecast(context.Background(), train, test)
	require.NoError(t, err)
	assert.Less(t, mae(test.Values(), res.Predicted), 0.1)
}

func TestAdditive_GridAlignment(t *testing.T) {
	records := hourly(24*7, constant(1))
	train := domain.Partition(records[:120])
	// Drop one hour at the start of the test partition so the generated grid
	// no longer lines up.
	test := domain.Partition(records[121:])

	t.Run("strict grid fails", func(t *testing.T) {
		cfg := DefaultAdditiveConfig()
		cfg.StrictGrid = true

		_, err := NewAdditive(cfg, nil).Forecast(context.Background(), train, test)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrAlignment)
		assert.Contains(t, err.Error(), "position 0")
	})

	t.Run("default reindexes and warns", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		res, err := NewAdditive(DefaultAdditiveConfig(), logger).Forecast(context.Background(), train, test)
		require.NoError(t, err)
		assert.Len(t, res.Predicted, len(test))
		assert.Equal(t, test.Times(), res.Times)
		assert.Contains(t, buf.String(), "reindexed")
	})

	t.Run("aligned grid logs nothing", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		aligned := domain.Partition(records[120:])

		_, err := NewAdditive(DefaultAdditiveConfig(), logger).Forecast(context.Background(), train, aligned)
		require.NoError(t, err)
		assert.NotContains(t, buf.String(), "reindexed")
	})
}

func TestAdditive_TooFewPoints(t *testing.T) {
	records := hourly(3, constant(1))

	_, err := NewAdditive(DefaultAdditiveConfig(), nil).Forecast(context.Background(), domain.Partition(records[:1]), domain.Partition(records[1:]))
	assert.ErrorIs(t, err, domain.ErrFit)
}

func TestAdditive_ZeroSeries(t *testing.T) {
	train, test := splitAt(hourly(24*3, constant(0)), 0.8)

	res, err := NewAdditive(DefaultAdditiveConfig(), nil).Forecast(context.Background(), train, test)
	require.NoError(t, err)
	assert.InDeltaSlice(t, test.Values(), res.Predicted, 1e-9)
}

func TestDetectSeasonalities(t *testing.T) {
	tests := []struct {
		name    string
		span    time.Duration
		spacing time.Duration
		want    []string
	}{
		{"one day", day, time.Hour, nil},
		{"two days", 2 * day, time.Hour, []string{"daily"}},
		{"two weeks", 14 * day, time.Hour, []string{"daily", "weekly"}},
		{"daily spacing", 30 * day, day, []string{"weekly"}},
		{"two years", 730 * day, time.Hour, []string{"daily", "weekly", "yearly"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range detectSeasonalities(tt.span, tt.spacing) {
				got = append(got, s.name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdditive_ChangepointPlacement(t *testing.T) {
	a := NewAdditive(DefaultAdditiveConfig(), nil)
	train := domain.Partition(hourly(1000, constant(1)))
	m := &additiveModel{start: train[0].Time, spanSeconds: train[len(train)-1].Time.Sub(train[0].Time).Seconds()}

	cps := a.placeChangepoints(train, m)

	require.Len(t, cps, 25)
	for i := 1; i < len(cps); i++ {
		assert.Greater(t, cps[i], cps[i-1])
	}
	assert.LessOrEqual(t, cps[len(cps)-1], 0.8)

	short := domain.Partition(hourly(5, constant(1)))
	m.spanSeconds = short[len(short)-1].Time.Sub(short[0].Time).Seconds()
	assert.Len(t, a.placeChangepoints(short, m), 3)
}

func TestMedianSpacing(t *testing.T) {
	tests := []struct {
		name  string
		steps []time.Duration
		want  time.Duration
	}{
		{"regular hourly", []time.Duration{time.Hour, time.Hour, time.Hour}, time.Hour},
		{"leading gap", []time.Duration{2 * day, time.Hour, time.Hour, time.Hour}, time.Hour},
		{"single step", []time.Duration{3 * time.Hour}, 3 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train := domain.Partition{{Time: seriesStart}}
			ts := seriesStart
			for _, s := range tt.steps {
				ts = ts.Add(s)
				train = append(train, domain.HourlyRecord{Time: ts})
			}
			assert.Equal(t, tt.want, medianSpacing(train))
		})
	}
}

func TestAdditive_LeadingGapKeepsDailySeasonality(t *testing.T) {
	records := hourly(24*28, func(_ int, ts time.Time) float64 {
		return 2 + math.Sin(2*math.Pi*float64(ts.Hour())/24)
	})
	// Move everything after the first record two days later, as if the
	// meter had been offline.
	for i := 1; i < len(records); i++ {
		records[i].Time = records[i].Time.Add(2 * day)
		records[i].Hour, records[i].DayOfWeek, records[i].IsWeekend = domain.DeriveFeatures(records[i].Time)
	}
	train, test := splitAt(records, 0.8)

	a := NewAdditive(DefaultAdditiveConfig(), nil)
	m, err := a.fit(train)
	require.NoError(t, err)

	var names []string
	for _, s := range m.seasons {
		names = append(names, s.name)
	}
	assert.Contains(t, names, "daily")

	res, err := a.Forecast(context.Background(), train, test)
	require.NoError(t, err)
	assert.Less(t, mae(test.Values(), res.Predicted), 0.05)
}
