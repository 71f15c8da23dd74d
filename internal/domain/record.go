package domain

import "time"

// Canonical model names, in reporting order.
const (
	ModelARIMA            = "ARIMA"
	ModelAdditive         = "Additive"
	ModelGradientBoosting = "GradientBoosting"
)

// ModelOrder is the fixed order in which evaluation rows are reported.
var ModelOrder = []string{ModelARIMA, ModelAdditive, ModelGradientBoosting}

// Observation is a single native-resolution (minute) reading.
type Observation struct {
	Time    time.Time
	Power   float64
	Missing bool
}

// HourlyRecord is the hourly mean of all readings that fall inside one
// calendar hour, plus the calendar features derived from its timestamp.
type HourlyRecord struct {
	Time  time.Time `json:"time"`
	Power float64   `json:"power"`

	// Valid is false when the hour had no non-missing readings.
	Valid bool `json:"-"`

	Hour      int  `json:"hour"`
	DayOfWeek int  `json:"day_of_week"` // Monday = 0
	IsWeekend bool `json:"is_weekend"`
}

// Features returns the regression inputs (hour, day of week, weekend flag).
func (r HourlyRecord) Features() []float64 {
	weekend := 0.0
	if r.IsWeekend {
		weekend = 1
	}
	return []float64{float64(r.Hour), float64(r.DayOfWeek), weekend}
}

// Partition is an ordered, contiguous run of hourly records.
type Partition []HourlyRecord

// Times returns the partition's timestamps in order.
func (p Partition) Times() []time.Time {
	out := make([]time.Time, len(p))
	for i := range p {
		out[i] = p[i].Time
	}
	return out
}

// Values returns the partition's power values in order.
func (p Partition) Values() []float64 {
	out := make([]float64, len(p))
	for i := range p {
		out[i] = p[i].Power
	}
	return out
}

// Features returns one feature row per record.
func (p Partition) Features() [][]float64 {
	out := make([][]float64, len(p))
	for i := range p {
		out[i] = p[i].Features()
	}
	return out
}

// ForecastResult holds one model's predictions aligned 1:1 with the test
// partition.
type ForecastResult struct {
	Model       string        `json:"model"`
	Times       []time.Time   `json:"times"`
	Predicted   []float64     `json:"predicted"`
	FitDuration time.Duration `json:"fit_duration"`
}

// EvaluationRow scores one model against the test partition.
type EvaluationRow struct {
	Model  string  `json:"model"`
	MAE    float64 `json:"mae"`
	RMSE   float64 `json:"rmse"`
	Points int     `json:"points"`
}

// ModelFailure records a forecaster that could not produce a forecast.
type ModelFailure struct {
	Model string `json:"model"`
	Error string `json:"error"`
}

// Report is the outcome of one pipeline run.
type Report struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Source      string          `json:"source"`
	TrainSize   int             `json:"train_size"`
	TestSize    int             `json:"test_size"`
	TrainStart  time.Time       `json:"train_start"`
	TestStart   time.Time       `json:"test_start"`
	TestEnd     time.Time       `json:"test_end"`
	Rows        []EvaluationRow `json:"rows"`
	Failures    []ModelFailure  `json:"failures,omitempty"`
}
