package form

import (
	"math"
	"strconv"
	"strings"

	"github.com/dop251/goja/ftoa"
)

// Off is the value of a checkbox or radio group with no checked widget.
const Off = "Off"

// ToString renders a field or event value the way the display layer
// expects: nil becomes the empty string, numbers use the shortest
// round-trip form and arrays join their items with commas.
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatNumber(t)
	case float32:
		return formatNumber(float64(t))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = ToString(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	case interface{ String() string }:
		return t.String()
	}
	return ""
}

func formatNumber(f float64) string {
	return string(ftoa.FToStr(f, ftoa.ModeStandard, 0, nil))
}

// Truthy applies script truthiness: nil, false, zero, NaN and the empty
// string are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}

// SameValue reports strict equality between two values. Numbers compare
// numerically regardless of their Go type.
func SameValue(a, b any) bool {
	if fa, ok := asNumber(a); ok {
		fb, ok := asNumber(b)
		return ok && fa == fb
	}
	switch ta := a.(type) {
	case nil:
		return b == nil
	case string:
		tb, ok := b.(string)
		return ok && ta == tb
	case bool:
		tb, ok := b.(bool)
		return ok && ta == tb
	}
	return false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
