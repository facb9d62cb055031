package email

// Fallback returns the preview request for t. Unknown and empty types get
// the monthly report preview. Every call returns a fresh copy.
func Fallback(t EmailType) Request {
	if build, ok := fallbackTable[t]; ok {
		return build()
	}
	return previewMonthlyReport()
}

var fallbackTable = map[EmailType]func() Request{
	MonthlyReport: previewMonthlyReport,
	BudgetAlert:   previewBudgetAlert,
}

func previewMonthlyReport() Request {
	return Request{
		UserName: "Kushal",
		Type:     MonthlyReport,
		Data: &MonthlyReportData{
			Month: "June",
			Stats: &Stats{
				TotalIncome:   35000,
				TotalExpenses: 19700,
				ByCategory: Categories{
					{Category: "housing", Amount: 9000},
					{Category: "groceries", Amount: 3000},
					{Category: "transportation", Amount: 500},
					{Category: "entertainment", Amount: 1000},
					{Category: "bills", Amount: 1500},
					{Category: "insurance", Amount: 2000},
					{Category: "food", Amount: 1500},
					{Category: "utilities", Amount: 1200},
				},
			},
			Insights: []string{
				"Your housing expenses account for over 45% of your spending — consider budgeting for rent next month.",
				"Great job keeping your entertainment and food expenses under ₹2,500!",
				"You're 98.5% through your budget — time to slow down on spending.",
			},
		},
	}
}

func previewBudgetAlert() Request {
	return Request{
		UserName: "Kushal",
		Type:     BudgetAlert,
		Data: &BudgetAlertData{
			PercentageUsed: 98.5,
			BudgetAmount:   20000,
			TotalExpenses:  19700,
		},
	}
}
