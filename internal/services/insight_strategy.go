// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for monthly report insights.
// Each rule inspects a month overview and contributes at most one sentence
// to the "Finalyze Insights" list.

package services

import (
	"fmt"
	"math"
	"sync"

	"finalyze/internal/core"
)

// InsightRule is the strategy interface for one insight line.
type InsightRule interface {
	// Insight returns the sentence for ov, or false when the rule has
	// nothing to say about this month.
	Insight(ov core.MonthOverview, income core.Money) (string, bool)
}

// TopCategoryRule reports the share of the largest category.
type TopCategoryRule struct{}

// Insight names the largest category and its whole-percent share.
func (TopCategoryRule) Insight(ov core.MonthOverview, _ core.Money) (string, bool) {
	top, ok := ov.Largest()
	if !ok || top.Amount.Paise <= 0 {
		return "", false
	}
	share := math.Floor(ov.Share(top))
	if share <= 0 {
		return "", false
	}
	return fmt.Sprintf("Your %s expenses account for over %.0f%% of your spending.", top.Name, share), true
}

// SavingsRule reports how much of the income was kept.
type SavingsRule struct{}

// Insight applies when income is known and exceeds expenses.
func (SavingsRule) Insight(ov core.MonthOverview, income core.Money) (string, bool) {
	if income.Paise <= 0 || ov.Total.Paise >= income.Paise {
		return "", false
	}
	rate := float64(income.Paise-ov.Total.Paise) / float64(income.Paise) * 100
	return fmt.Sprintf("You saved %s%% of your income this month.", core.FormatPercent(rate)), true
}

// OverspendRule warns when expenses exceed income.
type OverspendRule struct{}

// Insight applies when income is known and lower than expenses.
func (OverspendRule) Insight(ov core.MonthOverview, income core.Money) (string, bool) {
	if income.Paise <= 0 || ov.Total.Paise <= income.Paise {
		return "", false
	}
	over := ov.Total.Sub(income)
	return fmt.Sprintf("Your expenses exceeded your income by %s. Time to slow down on spending.", over), true
}

var (
	insightMu    sync.RWMutex
	insightRules = []InsightRule{
		TopCategoryRule{},
		SavingsRule{},
		OverspendRule{},
	}
)

// RegisterInsightRule appends a rule; rules run in registration order.
func RegisterInsightRule(rule InsightRule) {
	insightMu.Lock()
	defer insightMu.Unlock()
	insightRules = append(insightRules, rule)
}

// GenerateInsights runs every registered rule against ov. A zero income
// falls back to the income recorded on the overview.
func GenerateInsights(ov core.MonthOverview, income core.Money) []string {
	if income.Paise == 0 {
		income = ov.Income
	}

	insightMu.RLock()
	rules := make([]InsightRule, len(insightRules))
	copy(rules, insightRules)
	insightMu.RUnlock()

	var out []string
	for _, rule := range rules {
		if s, ok := rule.Insight(ov, income); ok {
			out = append(out, s)
		}
	}
	return out
}
