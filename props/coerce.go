package props

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Coercer converts one host value into a T. name is the property name used
// in error messages. Coercers have no side effects.
type Coercer[T any] func(v any, name string) (T, error)

// String accepts string values only.
func String(v any, name string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", PropertyError(name, "string", v)
	}
	return s, nil
}

// Int accepts any number and converts it to int64 the way a scripting host
// does: fractions truncate toward zero, NaN and infinities become zero and
// values beyond the int64 range saturate.
func Int(v any, name string) (int64, error) {
	f, i, isInt, ok := number(v)
	if !ok {
		return 0, PropertyError(name, "number", v)
	}
	if isInt {
		return i, nil
	}
	switch {
	case math.IsNaN(f), math.IsInf(f, 0):
		return 0, nil
	case f >= math.MaxInt64:
		return math.MaxInt64, nil
	case f <= math.MinInt64:
		return math.MinInt64, nil
	}
	return int64(f), nil
}

// Float accepts any number.
func Float(v any, name string) (float64, error) {
	f, _, _, ok := number(v)
	if !ok {
		return 0, PropertyError(name, "number", v)
	}
	return f, nil
}

// Date accepts time.Time values and returns milliseconds since the Unix
// epoch.
func Date(v any, name string) (float64, error) {
	t, ok := v.(time.Time)
	if !ok {
		return 0, PropertyError(name, "date", v)
	}
	return float64(t.UnixMilli()), nil
}

// Length returns a coercer for lengths expressed in points. Numbers are
// taken as points. Strings must be a number immediately followed by one of
// the unit names in units (matched case-insensitively), whose value is the
// unit's size in points.
func Length(units map[string]float64) Coercer[float64] {
	table := make(map[string]float64, len(units))
	for name, factor := range units {
		table[strings.ToLower(name)] = factor
	}
	return func(v any, name string) (float64, error) {
		if f, _, _, ok := number(v); ok {
			return f, nil
		}
		s, ok := v.(string)
		if !ok {
			return 0, PropertyError(name, "string or number", v)
		}
		value, unit, ok := splitLength(s)
		if !ok {
			return 0, InvalidLengthError(name, s)
		}
		factor, ok := table[strings.ToLower(unit)]
		if !ok {
			return 0, InvalidLengthError(name, s)
		}
		return value * factor, nil
	}
}

// Enum returns a coercer that maps a name to a value of table, ignoring
// case.
func Enum[T any](table map[string]T) Coercer[T] {
	lookup := make(map[string]T, len(table))
	for name, value := range table {
		lookup[strings.ToLower(name)] = value
	}
	return func(v any, name string) (T, error) {
		var zero T
		s, err := String(v, name)
		if err != nil {
			return zero, err
		}
		value, ok := lookup[strings.ToLower(s)]
		if !ok {
			return zero, InvalidValueError(name, s)
		}
		return value, nil
	}
}

// splitLength splits a string such as "12.5mm" into its leading decimal
// number and the remainder.
func splitLength(s string) (float64, string, bool) {
	s = strings.TrimLeft(s, " \t\r\n\f\v")
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
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, "", false
	}
	// An exponent only counts when digits follow it.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", false
	}
	return f, s[i:], true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// number reports whether v is a Go number. Integers are returned exactly in
// i with isInt set; every number is also returned as a float64.
func number(v any) (f float64, i int64, isInt, ok bool) {
	switch n := v.(type) {
	case int:
		return float64(n), int64(n), true, true
	case int64:
		return float64(n), n, true, true
	case int32:
		return float64(n), int64(n), true, true
	case float64:
		return n, 0, false, true
	case float32:
		return float64(n), 0, false, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), rv.Int(), true, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return float64(u), math.MaxInt64, true, true
		}
		return float64(u), int64(u), true, true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), 0, false, true
	}
	return 0, 0, false, false
}
