// Package numbering allocates the per-type, per-period sequence behind
// human-readable distribution numbers.
package numbering

import (
	"context"
	"fmt"
	"time"
)

// Allocator hands out the next sequence for a type code within a period.
// Sequences start at 1 and never repeat within (code, period).
type Allocator interface {
	Next(ctx context.Context, code, period string) (int64, error)
}

// DefaultPeriodFormat renders periods as MM.YYYY, matching the printed
// transmittal advice.
const DefaultPeriodFormat = "01.2006"

// Period renders the numbering period for a point in time.
func Period(at time.Time, format string) string {
	if format == "" {
		format = DefaultPeriodFormat
	}
	return at.Format(format)
}

// Format builds a distribution number from its parts: one-character type
// code, zero-padded sequence, period. Example: "U0042/08.2026".
func Format(code string, sequence int64, period string) string {
	return fmt.Sprintf("%s%04d/%s", code, sequence, period)
}
