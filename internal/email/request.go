// Package email renders the transactional financial-summary emails: the
// monthly report and the budget alert.
//
// A Request is resolved against the preview fallback table, dispatched on its
// type to one of the static layouts and returned as a Document tree that can
// be serialized to HTML or plain text.
package email

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// EmailType discriminates the Data variant of a Request.
type EmailType string

const (
	MonthlyReport EmailType = "monthly-report"
	BudgetAlert   EmailType = "budget-alert"
)

// Known reports whether t selects one of the built-in layouts.
func (t EmailType) Known() bool {
	return t == MonthlyReport || t == BudgetAlert
}

type (
	// Request is the props object handed to Render.
	Request struct {
		UserName string    `json:"userName,omitempty"`
		Type     EmailType `json:"type,omitempty"`
		Data     Data      `json:"data,omitempty"`
	}

	// Data is the variant-by-type payload of a Request. It is implemented by
	// *MonthlyReportData, *BudgetAlertData and RawData.
	Data interface {
		emailData()
	}

	MonthlyReportData struct {
		Month    string   `json:"month,omitempty"`
		Stats    *Stats   `json:"stats,omitempty"`
		Insights []string `json:"insights"`
	}

	Stats struct {
		TotalIncome   float64    `json:"totalIncome"`
		TotalExpenses float64    `json:"totalExpenses"`
		ByCategory    Categories `json:"byCategory"`
	}

	// CategoryAmount is one entry of the byCategory breakdown.
	CategoryAmount struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	// Categories keeps the caller's row order. A nil value means the
	// breakdown is absent; an empty non-nil value renders an empty section.
	Categories []CategoryAmount

	BudgetAlertData struct {
		PercentageUsed float64 `json:"percentageUsed"`
		BudgetAmount   float64 `json:"budgetAmount"`
		TotalExpenses  float64 `json:"totalExpenses"`
	}

	// RawData carries the undecoded payload of a request whose type has no
	// layout.
	RawData json.RawMessage
)

func (*MonthlyReportData) emailData() {}
func (*BudgetAlertData) emailData()   {}
func (RawData) emailData()            {}

var errCategoriesShape = errors.New("byCategory must be an object or an array")

// MarshalJSON emits RawData verbatim.
func (d RawData) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// complete reports whether every field of the triple is present.
func (r *Request) complete() bool {
	return r != nil && r.UserName != "" && r.Type != "" && hasData(r.Data)
}

func hasData(d Data) bool {
	switch v := d.(type) {
	case nil:
		return false
	case *MonthlyReportData:
		return v != nil
	case *BudgetAlertData:
		return v != nil
	case RawData:
		return !isFalsy(v)
	default:
		return true
	}
}

type requestJSON struct {
	UserName string          `json:"userName"`
	Type     EmailType       `json:"type"`
	Data     json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes the data payload according to the type field.
func (r *Request) UnmarshalJSON(b []byte) error {
	var raw requestJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.UserName = raw.UserName
	r.Type = raw.Type
	r.Data = nil
	if isFalsy(raw.Data) {
		return nil
	}

	switch raw.Type {
	case MonthlyReport:
		var d MonthlyReportData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return fmt.Errorf("decode monthly report data: %w", err)
		}
		r.Data = &d
	case BudgetAlert:
		var d BudgetAlertData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return fmt.Errorf("decode budget alert data: %w", err)
		}
		r.Data = &d
	default:
		r.Data = RawData(append([]byte(nil), raw.Data...))
	}
	return nil
}

// UnmarshalJSON accepts either an object ({"housing": 9000}), whose key
// order is preserved, or an array of {"category","amount"} pairs.
func (c *Categories) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var pairs []CategoryAmount
		if err := json.Unmarshal(b, &pairs); err != nil {
			return err
		}
		*c = Categories(pairs)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errCategoriesShape
	}

	out := Categories{}
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errCategoriesShape
		}
		var amount *float64
		if err := dec.Decode(&amount); err != nil {
			return fmt.Errorf("byCategory %q: %w", name, err)
		}
		v := 0.0
		if amount != nil {
			v = *amount
		}
		// A repeated key keeps its first position and takes the last value.
		if i, seen := index[name]; seen {
			out[i].Amount = v
			continue
		}
		index[name] = len(out)
		out = append(out, CategoryAmount{Category: name, Amount: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// MarshalJSON writes the object form, preserving row order.
func (c Categories) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Category)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(entry.Amount)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// isFalsy treats null, false, 0 and "" payloads as a missing data field.
func isFalsy(b []byte) bool {
	switch string(bytes.TrimSpace(b)) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}
