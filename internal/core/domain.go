package core

import (
	"errors"
	"time"
)

type (
	// Money is an amount in paise (1/100 of a rupee).
	Money struct {
		Paise int64
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidMonth  = errors.New("invalid month")
)

// NewMoney converts a rupee value into Money, rounding half away from zero.
func NewMoney(rupees float64) Money {
	return Money{Paise: toPaise(rupees)}
}

func (m Money) Validate() error {
	if m.Paise <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Paise: m.Paise - o.Paise}
}

// ValidateMonth checks a 1-12 month index.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// MonthName returns the English month name ("June") for a 1-12 index.
// Out of range values yield an empty string.
func MonthName(month int) string {
	if ValidateMonth(month) != nil {
		return ""
	}
	return time.Month(month).String()
}
