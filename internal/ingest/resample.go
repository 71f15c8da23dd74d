package ingest

import (
	"time"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

type hourAcc struct {
	sum   float64
	count int
}

// Resample aggregates observations into one record per calendar hour between
// the first and last observed hour. Each record holds the mean of the
// non-missing readings in its hour; hours with none are returned with Valid
// false. Input order does not matter.
func Resample(obs []domain.Observation) []domain.HourlyRecord {
	if len(obs) == 0 {
		return nil
	}

	buckets := make(map[int64]*hourAcc)
	first, last := domain.HourBucket(obs[0].Time), domain.HourBucket(obs[0].Time)
	for _, o := range obs {
		b := domain.HourBucket(o.Time)
		if b.Before(first) {
			first = b
		}
		if b.After(last) {
			last = b
		}

		acc, ok := buckets[b.Unix()]
		if !ok {
			acc = &hourAcc{}
			buckets[b.Unix()] = acc
		}
		if o.Missing {
			continue
		}
		acc.sum += o.Power
		acc.count++
	}

	out := make([]domain.HourlyRecord, 0, int(last.Sub(first)/time.Hour)+1)
	for ts := first; !ts.After(last); ts = ts.Add(time.Hour) {
		rec := domain.HourlyRecord{Time: ts}
		if acc, ok := buckets[ts.Unix()]; ok && acc.count > 0 {
			rec.Power = acc.sum / float64(acc.count)
			rec.Valid = true
		}
		out = append(out, rec)
	}

	return out
}

// Clean drops every record without a value. Gaps are left in place rather
// than interpolated.
func Clean(records []domain.HourlyRecord) (kept []domain.HourlyRecord, dropped int) {
	kept = make([]domain.HourlyRecord, 0, len(records))
	for _, r := range records {
		if !r.Valid {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}
