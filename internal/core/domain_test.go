package core

import "testing"

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Paise: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Paise: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestNewMoneyRounding(t *testing.T) {
	if got := NewMoney(12.346).Paise; got != 1235 {
		t.Fatalf("NewMoney(12.346) = %d paise", got)
	}
	if got := NewMoney(-12.346).Paise; got != -1235 {
		t.Fatalf("NewMoney(-12.346) = %d paise", got)
	}
}

func TestMonthName(t *testing.T) {
	if got := MonthName(6); got != "June" {
		t.Fatalf("MonthName(6) = %q", got)
	}
	for _, m := range []int{0, 13, -1} {
		if got := MonthName(m); got != "" {
			t.Fatalf("MonthName(%d) = %q, want empty", m, got)
		}
	}
}

func TestMonthOverviewHelpers(t *testing.T) {
	ov := MonthOverview{
		Year:   2025,
		Month:  6,
		Income: NewMoney(35000),
		Total:  NewMoney(20000),
		ByCategory: []CategoryAmount{
			{Name: "housing", Amount: NewMoney(9000)},
			{Name: "rent", Amount: NewMoney(9000)},
			{Name: "food", Amount: NewMoney(2000)},
		},
	}
	if got := ov.Net().Paise; got != 1500000 {
		t.Fatalf("net = %d", got)
	}
	top, ok := ov.Largest()
	if !ok || top.Name != "housing" {
		t.Fatalf("largest = %+v ok=%v", top, ok)
	}
	if got := ov.Share(top); got != 45 {
		t.Fatalf("share = %v", got)
	}
	if _, ok := (MonthOverview{}).Largest(); ok {
		t.Fatalf("expected no largest category for empty overview")
	}
	if got := (MonthOverview{}).Share(top); got != 0 {
		t.Fatalf("share on empty overview = %v", got)
	}
}
