// Command validate checks a household power export before it is handed to
// the forecasting pipeline: it parses the file with the pipeline's own reader,
// then reports missing readings, hourly coverage, ordering, and whether the
// chronological split leaves a contiguous hourly test grid.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -input data/mock/household_power_consumption.txt \
//	  -max-missing 0.05 -max-dropped 0.02
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/power-forecast/internal/domain"
	"github.com/couchcryptid/power-forecast/internal/ingest"
)

// maxReported caps the detail lines printed per phase.
const maxReported = 10

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type limits struct {
	maxMissing float64
	maxDropped float64
	ratio      float64
}

func main() {
	input := flag.String("input", "", "semicolon-delimited readings file")
	column := flag.String("column", ingest.DefaultTargetColumn, "target power column")
	maxMissing := flag.Float64("max-missing", 0.05, "maximum tolerated fraction of missing readings")
	maxDropped := flag.Float64("max-dropped", 0.02, "maximum tolerated fraction of empty hours")
	ratio := flag.Float64("ratio", domain.DefaultTrainRatio, "training fraction used for the split check")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	opts := ingest.DefaultReadOptions()
	opts.TargetColumn = *column
	os.Exit(run(*input, opts, limits{maxMissing: *maxMissing, maxDropped: *maxDropped, ratio: *ratio}))
}

func run(path string, opts ingest.ReadOptions, lim limits) int {
	fmt.Println("=== Power Data Validation ===")
	fmt.Println()

	obs, err := ingest.ReadFile(path, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", path, err)
		return 1
	}

	hourly := ingest.Resample(obs)
	kept, dropped := ingest.Clean(hourly)
	records := domain.WithFeatures(kept)

	phases := []*phase{
		validateMissing(obs, lim.maxMissing),
		validateOrdering(obs),
		validateCoverage(hourly, dropped, lim.maxDropped),
		validateSplit(records, lim.ratio),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Readings: %d, hours: %d, kept: %d, dropped: %d\n",
		len(obs), len(hourly), len(kept), dropped)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateMissing(obs []domain.Observation, maxFraction float64) *phase {
	p := &phase{name: "Missing readings"}
	var missing int
	for _, o := range obs {
		if o.Missing {
			missing++
		}
	}
	if len(obs) == 0 {
		p.errorf("no readings")
		return p
	}
	if frac := float64(missing) / float64(len(obs)); frac > maxFraction {
		p.errorf("%d of %d readings missing (%.2f%% > %.2f%%)", missing, len(obs), 100*frac, 100*maxFraction)
	}
	return p
}

func validateOrdering(obs []domain.Observation) *phase {
	p := &phase{name: "Chronological order"}
	for i := 1; i < len(obs); i++ {
		if obs[i].Time.After(obs[i-1].Time) {
			continue
		}
		if len(p.errors) == maxReported {
			p.errorf("further ordering errors omitted")
			break
		}
		p.errorf("reading %d at %s does not follow %s", i+1,
			obs[i].Time.Format(time.RFC3339), obs[i-1].Time.Format(time.RFC3339))
	}
	return p
}

func validateCoverage(hourly []domain.HourlyRecord, dropped int, maxFraction float64) *phase {
	p := &phase{name: "Hourly coverage"}
	if len(hourly) == 0 {
		p.errorf("no hours")
		return p
	}
	if frac := float64(dropped) / float64(len(hourly)); frac > maxFraction {
		p.errorf("%d of %d hours have no readings (%.2f%% > %.2f%%)", dropped, len(hourly), 100*frac, 100*maxFraction)
	}
	return p
}

func validateSplit(records []domain.HourlyRecord, ratio float64) *phase {
	p := &phase{name: "Train/test split"}
	train, test, err := domain.Split(records, ratio)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	fmt.Printf("Split: train %d (%s .. %s), test %d (%s .. %s)\n",
		len(train), train[0].Time.Format(time.RFC3339), train[len(train)-1].Time.Format(time.RFC3339),
		len(test), test[0].Time.Format(time.RFC3339), test[len(test)-1].Time.Format(time.RFC3339))

	// Gaps in the test partition make the additive model reindex its grid.
	prev := train[len(train)-1].Time
	for _, r := range test {
		if gap := r.Time.Sub(prev); gap != time.Hour {
			if len(p.errors) == maxReported {
				p.errorf("further gaps omitted")
				break
			}
			p.errorf("test grid gap of %s before %s", gap, r.Time.Format(time.RFC3339))
		}
		prev = r.Time
	}
	return p
}
