package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finalyze/internal/core"
	"finalyze/internal/email"
	"finalyze/internal/log"
	"finalyze/internal/sheets"
)

// DefaultAlertThreshold is the budget percentage at which alerts fire.
const DefaultAlertThreshold = 80.0

var (
	ErrMissingUser    = errors.New("user name is required")
	ErrNoReportSource = errors.New("report source not configured")
)

// ReportService builds email requests from report source data.
type ReportService struct {
	source    sheets.ReportSource
	threshold float64
	logger    *log.Logger
}

// NewReportService creates a report service. A threshold outside (0, 100]
// is replaced by DefaultAlertThreshold. A nil logger logs through the default
// logger under the report component.
func NewReportService(source sheets.ReportSource, threshold float64, logger *log.Logger) *ReportService {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultAlertThreshold
	}
	if logger == nil {
		logger = log.Default(log.ComponentReport)
	}
	return &ReportService{source: source, threshold: threshold, logger: logger}
}

// Threshold returns the budget percentage at which alerts fire.
func (s *ReportService) Threshold() float64 {
	return s.threshold
}

// MonthlyReport reads the overview for year/month and returns a
// monthly-report request. A zero income uses the income on the overview.
func (s *ReportService) MonthlyReport(ctx context.Context, user string, year, month int, income core.Money) (*email.Request, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, ErrMissingUser
	}
	ov, err := s.readOverview(ctx, year, month)
	if err != nil {
		return nil, err
	}
	if income.Paise == 0 {
		income = ov.Income
	}

	cats := make(email.Categories, 0, len(ov.ByCategory))
	for _, c := range ov.ByCategory {
		cats = append(cats, email.CategoryAmount{Category: c.Name, Amount: c.Amount.Rupees()})
	}

	s.logger.DebugContext(ctx, "Building monthly report",
		log.FieldYear, year,
		log.FieldMonth, month,
		"categories", len(cats))

	return &email.Request{
		UserName: user,
		Type:     email.MonthlyReport,
		Data: &email.MonthlyReportData{
			Month: core.MonthName(month),
			Stats: &email.Stats{
				TotalIncome:   income.Rupees(),
				TotalExpenses: ov.Total.Rupees(),
				ByCategory:    cats,
			},
			Insights: GenerateInsights(ov, income),
		},
	}, nil
}

// MonthlyBudgetAlert compares the month's expenses with budget. The bool
// reports whether usage reached the alert threshold.
func (s *ReportService) MonthlyBudgetAlert(ctx context.Context, user string, year, month int, budget core.Money) (*email.Request, bool, error) {
	ov, err := s.readOverview(ctx, year, month)
	if err != nil {
		return nil, false, err
	}
	req, err := BudgetAlert(user, budget, ov.Total)
	if err != nil {
		return nil, false, err
	}
	pct := req.Data.(*email.BudgetAlertData).PercentageUsed
	return req, ShouldAlert(pct, s.threshold), nil
}

func (s *ReportService) readOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	if s.source == nil {
		return core.MonthOverview{}, ErrNoReportSource
	}
	if err := core.ValidateMonth(month); err != nil {
		return core.MonthOverview{}, err
	}
	ov, err := s.source.ReadMonthOverview(ctx, year, month)
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("read month overview: %w", err)
	}
	return ov, nil
}

// BudgetAlert returns a budget-alert request for spent out of budget.
func BudgetAlert(user string, budget, spent core.Money) (*email.Request, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, ErrMissingUser
	}
	if err := budget.Validate(); err != nil {
		return nil, fmt.Errorf("budget: %w", err)
	}
	if spent.Paise < 0 {
		return nil, fmt.Errorf("spent: %w", core.ErrInvalidAmount)
	}
	pct := float64(spent.Paise) * 100 / float64(budget.Paise)
	return &email.Request{
		UserName: user,
		Type:     email.BudgetAlert,
		Data: &email.BudgetAlertData{
			PercentageUsed: pct,
			BudgetAmount:   budget.Rupees(),
			TotalExpenses:  spent.Rupees(),
		},
	}, nil
}

// ShouldAlert reports whether pct reached threshold. A non-positive
// threshold means DefaultAlertThreshold.
func ShouldAlert(pct, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}
	return pct >= threshold
}
