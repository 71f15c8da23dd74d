// Command genmock writes a synthetic minute-level household power export in
// the semicolon-delimited layout the pipeline ingests. The load follows a
// daily and weekly cycle with seeded noise, and a configurable fraction of
// minutes is written with the missing token so the cleaning path is exercised.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/household_power_consumption.txt \
//	  -days 60 -missing 0.01 -seed 42
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

// Same first timestamp as the UCI export.
var baseDate = time.Date(2006, time.December, 16, 17, 24, 0, 0, time.UTC)

const header = "Date;Time;Global_active_power;Global_reactive_power;Voltage;" +
	"Global_intensity;Sub_metering_1;Sub_metering_2;Sub_metering_3"

type options struct {
	days    int
	missing float64
	gapHour int
	seed    uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated readings")
	days := flag.Int("days", 60, "number of days to generate")
	missing := flag.Float64("missing", 0.01, "fraction of minutes written as missing")
	gapHour := flag.Int("gap-hour", -1, "hour of day (0-23) whose readings are all missing on Sundays")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" || *days <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -days")
	}
	if *missing < 0 || *missing >= 1 {
		return fmt.Errorf("-missing must be in [0,1)")
	}

	stats, err := generate(*out, options{days: *days, missing: *missing, gapHour: *gapHour, seed: *seed})
	if err != nil {
		return fmt.Errorf("generating %s: %w", *out, err)
	}

	log.Printf("wrote %s", *out)
	stats.print()
	return nil
}

type genStats struct {
	minutes      int
	missing      int
	emptyHours   int
	first, last  time.Time
	weekdaySum   float64
	weekendSum   float64
	weekdayCount int
	weekendCount int
}

func generate(path string, opts options) (genStats, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return genStats{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return genStats{}, err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, header); err != nil {
		return genStats{}, err
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	var stats genStats
	stats.first = baseDate

	end := baseDate.Add(time.Duration(opts.days) * 24 * time.Hour)
	var hourValid bool
	for ts := baseDate; ts.Before(end); ts = ts.Add(time.Minute) {
		if ts.Minute() == 0 || ts.Equal(baseDate) {
			if !ts.Equal(baseDate) && !hourValid {
				stats.emptyHours++
			}
			hourValid = false
		}

		date := fmt.Sprintf("%d/%d/%d", ts.Day(), int(ts.Month()), ts.Year())
		clock := ts.Format("15:04:05")

		if isGap(ts, opts.gapHour) || rng.Float64() < opts.missing {
			stats.missing++
			if _, err := fmt.Fprintf(w, "%s;%s;?;?;?;?;?;?;\n", date, clock); err != nil {
				return genStats{}, err
			}
		} else {
			hourValid = true
			power := load(ts, rng)
			stats.record(ts, power)
			if _, err := fmt.Fprintf(w, "%s;%s;%.3f;%.3f;%.2f;%.1f;0.000;%.3f;%.3f\n",
				date, clock, power, power*0.12, 240+rng.NormFloat64(), power*4.2,
				power*0.3, power*0.5); err != nil {
				return genStats{}, err
			}
		}
		stats.minutes++
		stats.last = ts
	}
	if !hourValid {
		stats.emptyHours++
	}

	if err := w.Flush(); err != nil {
		return genStats{}, err
	}
	return stats, f.Close()
}

func isGap(ts time.Time, gapHour int) bool {
	return gapHour >= 0 && ts.Weekday() == time.Sunday && ts.Hour() == gapHour
}

// load is the synthetic active power in kilowatts at ts.
func load(ts time.Time, rng *rand.Rand) float64 {
	hour := float64(ts.Hour()) + float64(ts.Minute())/60
	daily := 0.6*math.Sin(2*math.Pi*(hour-7)/24) + 0.4*math.Sin(4*math.Pi*(hour-18)/24)
	_, dow, weekend := domain.DeriveFeatures(ts)
	weekly := 0.05 * float64(dow)
	if weekend {
		weekly += 0.35
	}
	v := 1.1 + daily + weekly + 0.15*rng.NormFloat64()
	return math.Max(0.076, v)
}

func (s *genStats) record(ts time.Time, power float64) {
	_, _, weekend := domain.DeriveFeatures(ts)
	if weekend {
		s.weekendSum += power
		s.weekendCount++
		return
	}
	s.weekdaySum += power
	s.weekdayCount++
}

func (s *genStats) print() {
	fmt.Println("\n=== Generated dataset ===")
	fmt.Printf("Range: %s .. %s\n", s.first.Format(time.RFC3339), s.last.Format(time.RFC3339))
	fmt.Printf("Minutes: %d (missing %d)\n", s.minutes, s.missing)
	fmt.Printf("Hours with no readings: %d\n", s.emptyHours)
	if s.weekdayCount > 0 {
		fmt.Printf("Weekday mean: %.3f kW\n", s.weekdaySum/float64(s.weekdayCount))
	}
	if s.weekendCount > 0 {
		fmt.Printf("Weekend mean: %.3f kW\n", s.weekendSum/float64(s.weekendCount))
	}
}
