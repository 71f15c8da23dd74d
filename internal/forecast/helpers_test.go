package forecast

import (
	"time"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

// 2006-12-18 is a Monday.
var seriesStart = time.Date(2006, 12, 18, 0, 0, 0, 0, time.UTC)

func hourly(n int, value func(i int, ts time.Time) float64) []domain.HourlyRecord {
	out := make([]domain.HourlyRecord, n)
	for i := range out {
		ts := seriesStart.Add(time.Duration(i) * time.Hour)
		out[i] = domain.HourlyRecord{Time: ts, Power: value(i, ts), Valid: true}
	}
	return domain.WithFeatures(out)
}

func splitAt(records []domain.HourlyRecord, ratio float64) (domain.Partition, domain.Partition) {
	train, test, err := domain.Split(records, ratio)
	if err != nil {
		panic(err)
	}
	return train, test
}

func constant(v float64) func(int, time.Time) float64 {
	return func(int, time.Time) float64 { return v }
}

func mae(actual, predicted []float64) float64 {
	var s float64
	for i := range actual {
		d := actual[i] - predicted[i]
		if d < 0 {
			d = -d
		}
		s += d
	}
	return s / float64(len(actual))
}
