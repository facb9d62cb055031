package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Income     Money
	Total      Money
	ByCategory []CategoryAmount
}

// Net returns income minus total expenses.
func (o MonthOverview) Net() Money {
	return o.Income.Sub(o.Total)
}

// Share returns the percentage of total expenses that c accounts for.
// Zero when the month has no expenses.
func (o MonthOverview) Share(c CategoryAmount) float64 {
	if o.Total.Paise <= 0 {
		return 0
	}
	return float64(c.Amount.Paise) / float64(o.Total.Paise) * 100
}

// Largest returns the category with the highest amount; the first one wins ties.
func (o MonthOverview) Largest() (CategoryAmount, bool) {
	if len(o.ByCategory) == 0 {
		return CategoryAmount{}, false
	}
	top := o.ByCategory[0]
	for _, c := range o.ByCategory[1:] {
		if c.Amount.Paise > top.Amount.Paise {
			top = c
		}
	}
	return top, true
}
