package evaluate

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/couchcryptid/power-forecast/internal/domain"
)

// WriteTable renders the report's comparison table followed by any models
// that failed to produce a forecast.
func WriteTable(w io.Writer, report *domain.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Model\tMAE\tRMSE\t")
	for _, row := range report.Rows {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t\n", row.Model, row.MAE, row.RMSE)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	if len(report.Failures) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nFailed models:"); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	for _, f := range report.Failures {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", f.Model, f.Error); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
	}
	return nil
}
