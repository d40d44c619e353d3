package engine

import (
	"math"
	"strconv"
	"strings"
)

// Script values are any-typed: string, float64, int64, int, or bool.
// The coercions below define how blocks read them. Junk coerces to zero
// values rather than failing, so a damaged operand degrades instead of
// stopping the show.

// toFloat64 converts a value to float64.
func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toInt64 converts a value to int64, rounding floats.
func toInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		return int64(math.Round(val)), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, ok := toFloat64(val)
		if !ok {
			return 0, false
		}
		return int64(math.Round(f)), true
	default:
		return 0, false
	}
}

// toNumber is the lenient operand reader: anything that does not parse
// as a number reads as zero.
func toNumber(v any) float64 {
	f, ok := toFloat64(v)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return f
}

// toString converts a value to its script-visible text.
func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return ""
	}
}

// toBool converts a value to a condition. The strings "", "false" and
// "0" are false; other strings are true.
func toBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0 && !math.IsNaN(val)
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s != "" && s != "false" && s != "0"
	default:
		return v != nil
	}
}

// compareValues orders two script values: numerically when both read as
// numbers, else as case-insensitive strings. Returns -1, 0 or 1.
func compareValues(a, b any) int {
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as := strings.ToLower(toString(a))
	bs := strings.ToLower(toString(b))
	return strings.Compare(as, bs)
}
