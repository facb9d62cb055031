package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"finalyze/internal/core"
	"finalyze/internal/email"
	"finalyze/internal/log"
	"finalyze/internal/sheets/memory"
)

func rupees(v float64) core.Money { return core.NewMoney(v) }

func june() core.MonthOverview {
	return core.MonthOverview{
		Year:   2025,
		Month:  6,
		Income: rupees(35000),
		Total:  rupees(19700),
		ByCategory: []core.CategoryAmount{
			{Name: "housing", Amount: rupees(9000)},
			{Name: "groceries", Amount: rupees(3000)},
			{Name: "transportation", Amount: rupees(500)},
			{Name: "entertainment", Amount: rupees(1000)},
			{Name: "bills", Amount: rupees(1500)},
			{Name: "insurance", Amount: rupees(2000)},
			{Name: "food", Amount: rupees(1500)},
			{Name: "utilities", Amount: rupees(1200)},
		},
	}
}

type failingSource struct{ err error }

func (f failingSource) ReadMonthOverview(context.Context, int, int) (core.MonthOverview, error) {
	return core.MonthOverview{}, f.err
}

func TestReportService_MonthlyReport(t *testing.T) {
	svc := NewReportService(memory.New(june()), 0, nil)

	req, err := svc.MonthlyReport(context.Background(), " Kushal ", 2025, 6, core.Money{})
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}
	if req.UserName != "Kushal" || req.Type != email.MonthlyReport {
		t.Fatalf("unexpected header: %+v", req)
	}

	data := req.Data.(*email.MonthlyReportData)
	if data.Month != "June" {
		t.Errorf("month = %q", data.Month)
	}
	if data.Stats.TotalIncome != 35000 || data.Stats.TotalExpenses != 19700 {
		t.Errorf("stats = %+v", data.Stats)
	}
	wantOrder := []string{"housing", "groceries", "transportation", "entertainment", "bills", "insurance", "food", "utilities"}
	var gotOrder []string
	for _, c := range data.Stats.ByCategory {
		gotOrder = append(gotOrder, c.Category)
	}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Errorf("category order (-want +got):\n%s", diff)
	}
	wantInsights := []string{
		"Your housing expenses account for over 45% of your spending.",
		"You saved 43.7% of your income this month.",
	}
	if diff := cmp.Diff(wantInsights, data.Insights); diff != "" {
		t.Errorf("insights (-want +got):\n%s", diff)
	}

	// The request renders without falling back.
	if msg := email.Compose(req); msg.Fallback {
		t.Error("built request fell back to preview data")
	}
}

func TestReportService_MonthlyReportIncomeOverride(t *testing.T) {
	svc := NewReportService(memory.New(june()), 0, nil)
	req, err := svc.MonthlyReport(context.Background(), "Kushal", 2025, 6, rupees(15000))
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}
	data := req.Data.(*email.MonthlyReportData)
	if data.Stats.TotalIncome != 15000 {
		t.Errorf("income = %v", data.Stats.TotalIncome)
	}
	want := "Your expenses exceeded your income by ₹4,700.00. Time to slow down on spending."
	if got := data.Insights[len(data.Insights)-1]; got != want {
		t.Errorf("last insight = %q, want %q", got, want)
	}
}

func TestReportService_MonthlyReportErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		svc    *ReportService
		user   string
		month  int
		target error
	}{
		{"missing user", NewReportService(memory.New(), 0, nil), "  ", 6, ErrMissingUser},
		{"bad month", NewReportService(memory.New(), 0, nil), "Asha", 13, core.ErrInvalidMonth},
		{"no source", NewReportService(nil, 0, nil), "Asha", 6, ErrNoReportSource},
		{"source error", NewReportService(failingSource{boom}, 0, nil), "Asha", 6, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.MonthlyReport(context.Background(), tt.user, 2025, tt.month, core.Money{})
			if !errors.Is(err, tt.target) {
				t.Fatalf("err = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestBudgetAlert(t *testing.T) {
	req, err := BudgetAlert("Kushal", rupees(20000), rupees(19700))
	if err != nil {
		t.Fatalf("BudgetAlert: %v", err)
	}
	want := &email.BudgetAlertData{PercentageUsed: 98.5, BudgetAmount: 20000, TotalExpenses: 19700}
	if diff := cmp.Diff(want, req.Data); diff != "" {
		t.Errorf("data (-want +got):\n%s", diff)
	}

	if _, err := BudgetAlert("Kushal", core.Money{}, rupees(1)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero budget err = %v", err)
	}
	if _, err := BudgetAlert("Kushal", rupees(10), rupees(-1)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative spent err = %v", err)
	}
	if _, err := BudgetAlert("", rupees(10), rupees(1)); !errors.Is(err, ErrMissingUser) {
		t.Errorf("missing user err = %v", err)
	}
}

func TestShouldAlert(t *testing.T) {
	tests := []struct {
		pct, threshold float64
		want           bool
	}{
		{79.9, 80, false},
		{80, 80, true},
		{98.5, 0, true},
		{50, 0, false},
		{50, 50, true},
	}
	for _, tt := range tests {
		if got := ShouldAlert(tt.pct, tt.threshold); got != tt.want {
			t.Errorf("ShouldAlert(%v, %v) = %v, want %v", tt.pct, tt.threshold, got, tt.want)
		}
	}
}

func TestReportService_MonthlyBudgetAlert(t *testing.T) {
	svc := NewReportService(memory.New(june()), 99, nil)
	req, fire, err := svc.MonthlyBudgetAlert(context.Background(), "Kushal", 2025, 6, rupees(20000))
	if err != nil {
		t.Fatalf("MonthlyBudgetAlert: %v", err)
	}
	if fire {
		t.Error("98.5% must not fire at a 99% threshold")
	}
	if req.Type != email.BudgetAlert {
		t.Errorf("type = %q", req.Type)
	}

	svc = NewReportService(memory.New(june()), 150, nil)
	if svc.Threshold() != DefaultAlertThreshold {
		t.Fatalf("threshold = %v", svc.Threshold())
	}
	if _, fire, _ := svc.MonthlyBudgetAlert(context.Background(), "Kushal", 2025, 6, rupees(20000)); !fire {
		t.Error("98.5% must fire at the default threshold")
	}
}

func TestReportServiceLogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentReport, Output: &buf})
	svc := NewReportService(memory.New(june()), 0, logger)

	if _, err := svc.MonthlyReport(context.Background(), "Kushal", 2025, 6, core.Money{}); err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=report") {
		t.Errorf("want exactly one report component field: %s", out)
	}
	if !strings.Contains(out, "year=2025") || !strings.Contains(out, "month=6") {
		t.Errorf("missing period fields: %s", out)
	}
}
