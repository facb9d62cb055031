// Package google reads month overviews from a Google Sheets dashboard.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finalyze/internal/core"
	"finalyze/internal/log"
	"finalyze/internal/sheets"
)

var _ sheets.ReportSource = (*Client)(nil)

// dashboardRange covers the header row, category rows and the total row.
const dashboardRange = "A1:Q80"

// Options configures New. Credentials come from CredentialsJSON, then
// CredentialsFile. ClientOptions, when set, replace both.
type Options struct {
	SpreadsheetID   string
	DashboardSheet  string
	CredentialsJSON string
	CredentialsFile string
	ClientOptions   []goption.ClientOption
	// Logger defaults to the slog default logger under the sheets component.
	Logger *log.Logger
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Dashboard"); the year is prefixed per read.
	dashboardBase string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(opts.DashboardSheet)
	if base == "" {
		base = "Dashboard"
	}

	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		creds, err := credentials(opts)
		if err != nil {
			return nil, err
		}
		clientOpts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsReadonlyScope),
		}
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentSheets)
	}
	logger.InfoContext(ctx, "Google Sheets report source ready",
		"spreadsheet_id", spreadsheetID,
		"dashboard", base)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, dashboardBase: base}, nil
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// ReadMonthOverview reads the "<year> <dashboard>" sheet and extracts the
// income, per-category totals and grand total for month.
func (c *Client) ReadMonthOverview(ctx context.Context, year int, month int) (core.MonthOverview, error) {
	if c.svc == nil {
		return core.MonthOverview{}, errors.New("sheets service not initialized")
	}
	if err := core.ValidateMonth(month); err != nil {
		return core.MonthOverview{}, fmt.Errorf("read month overview: %w", err)
	}
	rng := fmt.Sprintf("%s!%s", yearPrefixedName(c.dashboardBase, year), dashboardRange)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseDashboard(resp.Values, year, month)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
