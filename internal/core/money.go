// Package core provides money parsing and formatting utilities.
//
// Amounts are kept in paise and rendered in Indian rupee notation, where
// the last three integer digits form one group and the remaining digits are
// grouped in pairs (12,34,567.00).
package core

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

const rupeeSign = "₹"

// ParseDecimalToPaise converts a decimal string to paise with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToPaise("12.34") -> 1234, nil
//	ParseDecimalToPaise("12,34") -> 1234, nil
//	ParseDecimalToPaise("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToPaise("12.344") -> 1234, nil (rounds down)
func ParseDecimalToPaise(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracPaise int64
	if len(fracPart) > 0 {
		fracPaise = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracPaise += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracPaise++
			}
		}
	}
	paise := iv*100 + fracPaise
	if paise <= 0 {
		return 0, ErrInvalidAmount
	}
	return paise, nil
}

// Rupees returns the rupee value as a float64 for display purposes.
// Use paise for calculations.
func (m Money) Rupees() float64 {
	return float64(m.Paise) / 100.0
}

// String renders m as "₹35,000.00"; negatives carry the minus after the
// sign ("₹-300.00").
func (m Money) String() string {
	p := m.Paise
	neg := p < 0
	// math.MinInt64 has no positive counterpart; render through uint64.
	u := uint64(p)
	if neg {
		u = -u
	}
	return rupees(neg, strconv.FormatUint(u/100, 10), fmt.Sprintf("%02d", u%100))
}

// FormatRupees formats a rupee value with Indian digit grouping and exactly
// two fraction digits: 0 -> "₹0.00", 35000 -> "₹35,000.00",
// -300 -> "₹-300.00". Any finite float formats without overflow; NaN and
// ±Inf format as zero.
func FormatRupees(v float64) string {
	digits, neg := toFixed(v, 2)
	intPart, frac, _ := strings.Cut(digits, ".")
	return rupees(neg, intPart, frac)
}

func rupees(neg bool, intPart, frac string) string {
	s := groupIndian(intPart) + "." + frac
	if neg {
		return rupeeSign + "-" + s
	}
	return rupeeSign + s
}

// FormatPercent formats v with one fraction digit (98.5 -> "98.5").
func FormatPercent(v float64) string {
	digits, neg := toFixed(v, 1)
	if neg {
		return "-" + digits
	}
	return digits
}

// toFixed rounds the exact binary value of v to n fraction digits, halves
// away from zero, and returns the unsigned digits and whether the rounded
// value is negative. 1.45 is stored just below 1.45 and gives "1.4"; 120.25
// is exact and gives "120.3".
func toFixed(v float64, n int) (string, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return new(big.Rat).FloatString(n), false
	}
	r := new(big.Rat).SetFloat64(v)
	neg := r.Sign() < 0
	digits := r.Abs(r).FloatString(n)
	if strings.Trim(digits, "0.") == "" {
		neg = false
	}
	return digits, neg
}

// toPaise rounds rupees to paise, clamping values beyond the int64 range.
func toPaise(rupees float64) int64 {
	if math.IsNaN(rupees) || math.IsInf(rupees, 0) {
		return 0
	}
	p := math.Round(rupees * 100)
	switch {
	case p >= math.MaxInt64:
		return math.MaxInt64
	case p <= math.MinInt64:
		return math.MinInt64 + 1
	}
	return int64(p)
}

// groupIndian groups a base-10 digit string as 12,34,567.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var b strings.Builder
	first := len(head) % 2
	if first > 0 {
		b.WriteString(head[:first])
	}
	for i := first; i < len(head); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
