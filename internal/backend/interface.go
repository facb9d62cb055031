// Package backend builds the report source selected by configuration.
package backend

import (
	"context"

	"finalyze/internal/sheets"
)

// CleanupFunc releases resources held by a source.
type CleanupFunc func() error

// SourceResult contains the source and an optional cleanup function.
type SourceResult struct {
	Source  sheets.ReportSource
	Cleanup CleanupFunc
}

// Factory creates report sources based on configuration.
type Factory interface {
	CreateSource(ctx context.Context, config Config) (*SourceResult, error)
}

// Config holds configuration for source creation.
type Config struct {
	Type SourceType

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleDashboardSheet     string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory source specific: directory holding report_seed.json.
	DataDirectory string
}

// SourceType names a report source implementation.
type SourceType string

const (
	MemorySource SourceType = "memory"
	SheetsSource SourceType = "sheets"
)

// String implements fmt.Stringer
func (st SourceType) String() string {
	return string(st)
}

// IsValid returns true if the source type is known.
func (st SourceType) IsValid() bool {
	switch st {
	case MemorySource, SheetsSource:
		return true
	default:
		return false
	}
}
