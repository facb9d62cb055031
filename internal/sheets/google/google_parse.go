package google

import (
	"fmt"
	"strconv"
	"strings"

	"finalyze/internal/core"
)

var monthHeaders = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// parseDashboard converts a values matrix (as returned by Sheets API) into a
// MonthOverview. The first row must hold Primary, Secondary and the month
// abbreviations. Rows with a Primary and no Secondary are category totals;
// a "total" row sets the grand total and an "income" row sets income.
// Category order follows the sheet.
func parseDashboard(values [][]interface{}, year, month int) (core.MonthOverview, error) {
	if len(values) == 0 {
		return core.MonthOverview{Year: year, Month: month}, nil
	}
	headers := toStrings(values[0])
	colPrimary := indexOf(headers, "Primary")
	colSecondary := indexOf(headers, "Secondary")
	colMonth := indexOf(headers, monthHeaders[month-1])
	if colPrimary == -1 || colSecondary == -1 || colMonth == -1 {
		missing := make([]string, 0, 3)
		if colPrimary == -1 {
			missing = append(missing, "Primary")
		}
		if colSecondary == -1 {
			missing = append(missing, "Secondary")
		}
		if colMonth == -1 {
			missing = append(missing, monthHeaders[month-1])
		}
		return core.MonthOverview{}, fmt.Errorf("unexpected dashboard header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	ov := core.MonthOverview{Year: year, Month: month}
	var total, sum int64
	haveTotal := false
	index := map[string]int{}
	for _, raw := range values[1:] {
		row := toStrings(raw)
		primary := safeGet(row, colPrimary)
		secondary := safeGet(row, colSecondary)
		paise, ok := parseRupeesToPaise(safeGet(row, colMonth))

		switch {
		case strings.EqualFold(primary, "total"):
			if ok {
				total, haveTotal = paise, true
			}
		case strings.EqualFold(primary, "income"):
			if ok {
				ov.Income = core.Money{Paise: paise}
			}
		case primary != "" && secondary == "" && ok:
			sum += paise
			if i, seen := index[primary]; seen {
				ov.ByCategory[i].Amount.Paise += paise
				continue
			}
			index[primary] = len(ov.ByCategory)
			ov.ByCategory = append(ov.ByCategory, core.CategoryAmount{Name: primary, Amount: core.Money{Paise: paise}})
		}
	}
	if !haveTotal || total == 0 {
		total = sum
	}
	ov.Total = core.Money{Paise: total}
	return ov, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		// Unformatted numbers arrive as float64; %v would print 1e+06.
		if f, ok := v.(float64); ok {
			out[i] = strconv.FormatFloat(f, 'f', -1, 64)
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseRupeesToPaise reads a cell value such as 988.9, "₹1,23,456.50" or
// "-300". Grouping commas and the rupee sign are ignored.
func parseRupeesToPaise(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	if s == "0" || strings.Trim(s, "0.") == "" {
		return 0, true
	}
	paise, err := core.ParseDecimalToPaise(s)
	if err != nil {
		return 0, false
	}
	if neg {
		paise = -paise
	}
	return paise, true
}
