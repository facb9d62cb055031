package email

import (
	"fmt"

	"finalyze/internal/core"
)

const (
	monthlyTitle   = "Monthly Financial Report"
	monthlyPreview = "Your Monthly Financial Report"
	alertTitle     = "Budget Alert"
	invalidTitle   = "Invalid Email Type"
	footerLine     = "Thank you for using Finalyze. Keep tracking your finances for better financial health!"
	defaultMonth   = "this month"
)

// Render builds the document for req. It never fails: an incomplete request
// is replaced by the preview fallback for its type, missing numbers render
// as zero and missing lists drop their section. Render is pure and safe for
// concurrent use.
func Render(req *Request) Document {
	r := Resolve(req)
	switch r.Type {
	case MonthlyReport:
		d, _ := r.Data.(*MonthlyReportData)
		return renderMonthlyReport(r.UserName, d)
	case BudgetAlert:
		d, _ := r.Data.(*BudgetAlertData)
		return renderBudgetAlert(r.UserName, d)
	default:
		return renderInvalidType(r.Type)
	}
}

// Resolve returns the request Render will lay out: req itself when userName,
// type and data are all present, otherwise the whole fallback triple for
// req's type.
func Resolve(req *Request) Request {
	if req.complete() {
		return *req
	}
	var t EmailType
	if req != nil {
		t = req.Type
	}
	return Fallback(t)
}

func renderMonthlyReport(userName string, d *MonthlyReportData) Document {
	if d == nil {
		d = &MonthlyReportData{}
	}
	month := d.Month
	if month == "" {
		month = defaultMonth
	}
	stats := d.Stats
	if stats == nil {
		stats = &Stats{}
	}

	content := []Node{
		heading(styleTitle, monthlyTitle),
		text(styleText, fmt.Sprintf("Hello %s,", userName)),
		text(styleText, fmt.Sprintf("Here’s your financial summary for %s:", month)),
		statsSection(
			stat("Total Income", stats.TotalIncome),
			stat("Total Expenses", stats.TotalExpenses),
			stat("Net", stats.TotalIncome-stats.TotalExpenses),
		),
	}

	if stats.ByCategory != nil {
		rows := make([]Node, 0, len(stats.ByCategory)+1)
		rows = append(rows, heading(styleHeading, "Expenses by Category"))
		for _, c := range stats.ByCategory {
			rows = append(rows, el(KindDiv, styleRow,
				text(styleText, c.Category),
				text(styleText, core.FormatRupees(c.Amount)),
			))
		}
		content = append(content, el(KindSection, styleSection, rows...))
	}

	if d.Insights != nil {
		bullets := make([]Node, 0, len(d.Insights)+1)
		bullets = append(bullets, heading(styleHeading, "Finalyze Insights"))
		for _, insight := range d.Insights {
			bullets = append(bullets, text(styleText, "• "+insight))
		}
		content = append(content, el(KindSection, styleSection, bullets...))
	}

	content = append(content, text(styleFooter, footerLine))
	return page(monthlyPreview, content...)
}

func renderBudgetAlert(userName string, d *BudgetAlertData) Document {
	if d == nil {
		d = &BudgetAlertData{}
	}
	return page(alertTitle,
		heading(styleTitle, alertTitle),
		text(styleText, fmt.Sprintf("Hello %s,", userName)),
		text(styleText, fmt.Sprintf("You’ve used %s%% of your monthly budget.", core.FormatPercent(d.PercentageUsed))),
		statsSection(
			stat("Budget Amount", d.BudgetAmount),
			stat("Spent So Far", d.TotalExpenses),
			stat("Remaining", d.BudgetAmount-d.TotalExpenses),
		),
	)
}

func renderInvalidType(t EmailType) Document {
	return page("",
		heading(styleTitle, invalidTitle),
		text(styleText, fmt.Sprintf("No template found for: %s", t)),
	)
}

func statsSection(stats ...Node) Node {
	return el(KindSection, styleStatsContainer, stats...)
}

// stat is a labelled figure; the amount uses the heading style.
func stat(label string, amount float64) Node {
	return el(KindDiv, styleStat,
		text(styleText, label),
		text(styleHeading, core.FormatRupees(amount)),
	)
}
