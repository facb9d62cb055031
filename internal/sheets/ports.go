// Package sheets defines where month overviews for the report builder come
// from. Adapters live in the memory and google subpackages.
package sheets

import (
	"context"

	"finalyze/internal/core"
)

// ReportSource provides aggregated monthly figures.
type ReportSource interface {
	// ReadMonthOverview returns income, total spend and per-category spend
	// for a specific year and month (1-12).
	ReadMonthOverview(ctx context.Context, year int, month int) (core.MonthOverview, error)
}
