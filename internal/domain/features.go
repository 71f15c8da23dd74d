package domain

import "time"

// HourBucket truncates t to the start of its hour in t's location. The
// bucket is computed on the instant using the offset in effect at t, so the
// repeated wall-clock hour of a daylight-saving fall-back yields two distinct
// buckets. Returns zero time if the input is zero.
func HourBucket(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	_, offset := t.Zone()
	shift := time.Duration(offset) * time.Second
	return t.Add(shift).Truncate(time.Hour).Add(-shift)
}

// DeriveFeatures maps a timestamp to its calendar features. Days are numbered
// Monday = 0 through Sunday = 6 and the weekend is {5, 6}.
func DeriveFeatures(t time.Time) (hour, dayOfWeek int, isWeekend bool) {
	hour = t.Hour()
	// time.Weekday has Sunday = 0.
	dayOfWeek = (int(t.Weekday()) + 6) % 7
	return hour, dayOfWeek, IsWeekendDay(dayOfWeek)
}

// IsWeekendDay reports whether a Monday-based day index is Saturday or Sunday.
func IsWeekendDay(dayOfWeek int) bool {
	return dayOfWeek == 5 || dayOfWeek == 6
}

// WithFeatures returns a copy of records with the calendar fields filled in.
// Invalid records are skipped; callers are expected to have cleaned first.
func WithFeatures(records []HourlyRecord) []HourlyRecord {
	out := make([]HourlyRecord, 0, len(records))
	for _, r := range records {
		if !r.Valid {
			continue
		}
		r.Hour, r.DayOfWeek, r.IsWeekend = DeriveFeatures(r.Time)
		out = append(out, r)
	}
	return out
}
