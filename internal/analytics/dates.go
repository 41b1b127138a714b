package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// genericLayouts are tried before the day-first fallback. Only layouts that
// cannot be read both day-first and month-first appear here.
var genericLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Mon Jan 2 2006",
}

// Excel serial day numbers accepted for numeric date cells.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465 // 9999-12-31
)

// ParseDate reads an order date. time.Time values pass through, numbers are
// treated as spreadsheet serial days, and strings try the generic layouts
// before falling back to a day-month-year split on '-', '/' or '.'.
// The result is always in UTC.
func ParseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return ParseDate(*t)
	case float64:
		return fromSerial(t)
	case float32:
		return fromSerial(float64(t))
	case int:
		return fromSerial(float64(t))
	case int64:
		return fromSerial(float64(t))
	case string:
		return parseDateString(t)
	default:
		return parseDateString(fmt.Sprint(t))
	}
}

func fromSerial(f float64) (time.Time, bool) {
	if math.IsNaN(f) || f < minExcelSerial || f > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return parseDayFirst(s)
}

// parseDayFirst reads D/M/Y (any of '-', '/', '.' as separator) and
// rebuilds it as an ISO date. Each part contributes its leading digits.
func parseDayFirst(s string) (time.Time, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})
	if len(parts) != 3 || strings.Count(s, "-")+strings.Count(s, "/")+strings.Count(s, ".") != 2 {
		return time.Time{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, ok := leadingInt(strings.TrimSpace(p))
		if !ok || n < 0 {
			return time.Time{}, false
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]
	if year > 9999 {
		return time.Time{}, false
	}
	iso := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
