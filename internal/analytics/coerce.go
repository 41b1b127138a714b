package analytics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseNumber coerces a cell to float64 with parse-or-zero semantics.
// Thousands separators and a leading currency symbol are ignored; a string
// with trailing garbage contributes its numeric prefix.
func ParseNumber(v any) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint64:
		f = float64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		f = parseNumberString(t)
	default:
		f = parseNumberString(fmt.Sprint(t))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseInt coerces a cell to int with parse-or-zero semantics. Fractions are
// truncated toward zero.
func ParseInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case string:
		s := cleanNumeric(t)
		if n, ok := leadingInt(s); ok {
			return n
		}
		return 0
	}
	return int(ParseNumber(v))
}

func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimLeft(s, "$€£¥ ")
	return s
}

func parseNumberString(s string) float64 {
	s = cleanNumeric(s)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if prefix := numericPrefix(s); prefix != "" {
		if f, err := strconv.ParseFloat(prefix, 64); err == nil {
			return f
		}
	}
	return 0
}

// numericPrefix returns the longest leading substring shaped like a decimal
// number with optional sign, fraction and exponent.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits+frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			i = j
		}
	}
	return s[:i]
}

// leadingInt parses an optionally signed run of leading digits.
func leadingInt(s string) (int, bool) {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// cellString renders a cell as trimmed text.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
