// Package domain models household electricity-consumption readings and the
// records the forecasting pipeline derives from them.
//
// # Data Source
//
// Readings come from the UCI "Individual household electric power
// consumption" dataset: one semicolon-delimited text file with a header row
// and one row per minute. The pipeline only consumes three columns:
//
//	Date;Time;Global_active_power
//	16/12/2006;17:24:00;4.216
//
// # Conventions
//
// Date format:
//
//	d/m/yyyy with optional zero padding, e.g. "16/12/2006" or "1/1/2007".
//
// Time format:
//
//	HH:MM:SS in 24-hour notation. The file carries no zone; readings are
//	interpreted in a configured location (UTC by default) so that hour
//	buckets never collapse or repeat across daylight-saving transitions.
//
// Missing values:
//
//	"?" is the dataset sentinel for a missing reading. Empty cells are
//	treated the same way.
//
// Power values:
//
//	Global active power in kilowatts, minute-averaged. Hourly records carry
//	the arithmetic mean of every non-missing reading inside the hour.
//
// # Calendar Features
//
// Day of week follows a Monday = 0 … Sunday = 6 convention; Saturday and
// Sunday (5 and 6) are weekend days. See [DeriveFeatures].
//
// # Partitions
//
// The cleaned hourly series is split into a contiguous training prefix and
// test suffix. Order is never shuffled, so no future value can leak into
// training. See [Split].
package domain
