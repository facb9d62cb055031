// Package memory is an in-process report source used for development and
// previews.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"finalyze/internal/core"
	"finalyze/internal/sheets"
)

var _ sheets.ReportSource = (*Store)(nil)

type key struct{ year, month int }

// Store keeps month overviews in memory. Months that were never seeded
// report the preview month's figures.
type Store struct {
	mu        sync.RWMutex
	overviews map[key]core.MonthOverview
}

func New(overviews ...core.MonthOverview) *Store {
	s := &Store{overviews: make(map[key]core.MonthOverview)}
	for _, o := range overviews {
		s.Put(o)
	}
	return s
}

// Put stores or replaces the overview for o's year and month.
func (s *Store) Put(o core.MonthOverview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overviews[key{o.Year, o.Month}] = cloneOverview(o)
}

// ReadMonthOverview implements sheets.ReportSource.
func (s *Store) ReadMonthOverview(_ context.Context, year int, month int) (core.MonthOverview, error) {
	if err := core.ValidateMonth(month); err != nil {
		return core.MonthOverview{}, fmt.Errorf("read month overview %d-%02d: %w", year, month, err)
	}
	s.mu.RLock()
	o, ok := s.overviews[key{year, month}]
	s.mu.RUnlock()
	if ok {
		return cloneOverview(o), nil
	}
	p := PreviewOverview()
	p.Year, p.Month = year, month
	return p, nil
}

// PreviewOverview is the sample month shown when nothing was seeded.
func PreviewOverview() core.MonthOverview {
	byCat := []core.CategoryAmount{
		{Name: "housing", Amount: core.NewMoney(9000)},
		{Name: "groceries", Amount: core.NewMoney(3000)},
		{Name: "transportation", Amount: core.NewMoney(500)},
		{Name: "entertainment", Amount: core.NewMoney(1000)},
		{Name: "bills", Amount: core.NewMoney(1500)},
		{Name: "insurance", Amount: core.NewMoney(2000)},
		{Name: "food", Amount: core.NewMoney(1500)},
		{Name: "utilities", Amount: core.NewMoney(1200)},
	}
	return core.MonthOverview{
		Year:       2025,
		Month:      6,
		Income:     core.NewMoney(35000),
		Total:      core.NewMoney(19700),
		ByCategory: byCat,
	}
}

type seedCategory struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type seedMonth struct {
	Year       int            `json:"year"`
	Month      int            `json:"month"`
	Income     float64        `json:"income"`
	Total      *float64       `json:"total"`
	ByCategory []seedCategory `json:"byCategory"`
}

// NewFromFile seeds a store from a JSON array of months. A missing file
// yields an empty store. When total is omitted it is the category sum.
func NewFromFile(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var months []seedMonth
	if err := json.Unmarshal(b, &months); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}

	s := New()
	for _, m := range months {
		if err := core.ValidateMonth(m.Month); err != nil {
			return nil, fmt.Errorf("seed %d-%02d: %w", m.Year, m.Month, err)
		}
		o := core.MonthOverview{Year: m.Year, Month: m.Month, Income: core.NewMoney(m.Income)}
		var sum int64
		for _, c := range m.ByCategory {
			amt := core.NewMoney(c.Amount)
			sum += amt.Paise
			o.ByCategory = append(o.ByCategory, core.CategoryAmount{Name: c.Name, Amount: amt})
		}
		o.Total = core.Money{Paise: sum}
		if m.Total != nil {
			o.Total = core.NewMoney(*m.Total)
		}
		s.Put(o)
	}
	return s, nil
}

func cloneOverview(o core.MonthOverview) core.MonthOverview {
	o.ByCategory = append([]core.CategoryAmount(nil), o.ByCategory...)
	return o
}
