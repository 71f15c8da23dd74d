package domain

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveFeatures(t *testing.T) {
	tests := []struct {
		name        string
		input       time.Time
		wantHour    int
		wantDay     int
		wantWeekend bool
	}{
		// 2006-12-18 is a Monday.
		{"monday midnight", time.Date(2006, 12, 18, 0, 0, 0, 0, time.UTC), 0, 0, false},
		{"friday evening", time.Date(2006, 12, 22, 23, 0, 0, 0, time.UTC), 23, 4, false},
		{"saturday", time.Date(2006, 12, 23, 9, 0, 0, 0, time.UTC), 9, 5, true},
		{"sunday", time.Date(2006, 12, 24, 17, 0, 0, 0, time.UTC), 17, 6, true},
		{"non-UTC location", time.Date(2006, 12, 16, 17, 0, 0, 0, time.FixedZone("CET", 3600)), 17, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, day, weekend := DeriveFeatures(tt.input)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantDay, day)
			assert.Equal(t, tt.wantWeekend, weekend)
		})
	}
}

func TestDeriveFeatures_WeekendIffSaturdayOrSunday(t *testing.T) {
	start := time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24*14; h++ {
		ts := start.Add(time.Duration(h) * time.Hour)
		hour, day, weekend := DeriveFeatures(ts)

		require.GreaterOrEqual(t, day, 0)
		require.LessOrEqual(t, day, 6)
		assert.Equal(t, ts.Hour(), hour)
		assert.Equal(t, day == 5 || day == 6, weekend, "ts=%s", ts)
		assert.Equal(t, ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday, weekend, "ts=%s", ts)
	}
}

func TestHourBucket(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{"truncates minutes", time.Date(2006, 12, 16, 17, 24, 0, 0, time.UTC), time.Date(2006, 12, 16, 17, 0, 0, 0, time.UTC)},
		{"already aligned", time.Date(2006, 12, 16, 17, 0, 0, 0, time.UTC), time.Date(2006, 12, 16, 17, 0, 0, 0, time.UTC)},
		{"zero time", time.Time{}, time.Time{}},
		{
			"half-hour offset aligns to local hour",
			time.Date(2007, 3, 1, 10, 47, 0, 0, time.FixedZone("IST", 5*3600+1800)),
			time.Date(2007, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HourBucket(tt.input)
			assert.True(t, tt.expected.Equal(got), "want %s, got %s", tt.expected, got)
		})
	}
}

func TestHourBucket_DaylightSavingFallBack(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	// On 2007-10-28 the wall clock in Paris shows 02:00-03:00 twice.
	first := time.Date(2007, 10, 28, 0, 30, 0, 0, time.UTC).In(paris)
	second := time.Date(2007, 10, 28, 1, 30, 0, 0, time.UTC).In(paris)
	require.Equal(t, first.Hour(), second.Hour())

	a, b := HourBucket(first), HourBucket(second)

	assert.True(t, a.Equal(time.Date(2007, 10, 28, 0, 0, 0, 0, time.UTC)), "got %s", a.UTC())
	assert.True(t, b.Equal(time.Date(2007, 10, 28, 1, 0, 0, 0, time.UTC)), "got %s", b.UTC())
	assert.Equal(t, time.Hour, b.Sub(a))
}

func TestWithFeatures(t *testing.T) {
	records := []HourlyRecord{
		{Time: time.Date(2006, 12, 16, 17, 0, 0, 0, time.UTC), Power: 4.2, Valid: true},
		{Time: time.Date(2006, 12, 16, 18, 0, 0, 0, time.UTC), Valid: false},
		{Time: time.Date(2006, 12, 18, 8, 0, 0, 0, time.UTC), Power: 1.1, Valid: true},
	}

	got := WithFeatures(records)

	require.Len(t, got, 2)
	assert.Equal(t, 17, got[0].Hour)
	assert.Equal(t, 5, got[0].DayOfWeek)
	assert.True(t, got[0].IsWeekend)
	assert.Equal(t, 8, got[1].Hour)
	assert.Equal(t, 0, got[1].DayOfWeek)
	assert.False(t, got[1].IsWeekend)
	assert.Equal(t, []float64{8, 0, 0}, got[1].Features())

	// Input is not mutated.
	assert.Zero(t, records[0].Hour)
}
