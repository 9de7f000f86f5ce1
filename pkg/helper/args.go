package helper

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// Args carries the named arguments of one helper call.
type Args map[string]any

// Has reports whether name is present with a non-nil value.
func (a Args) Has(name string) bool {
	return a[name] != nil
}

// Int returns the named argument as an int64, or fallback when it is absent.
func (a Args) Int(name string, fallback int64) (int64, error) {
	raw, ok := a[name]
	if !ok || raw == nil {
		return fallback, nil
	}
	v, ok := toInt64(raw)
	if !ok {
		return 0, &ArgumentError{Param: name, Reason: fmt.Sprintf("must be an integer, got %T(%v)", raw, raw)}
	}
	return v, nil
}

// Float returns the named argument as a finite float64, or fallback when it
// is absent. Integer values are widened.
func (a Args) Float(name string, fallback float64) (float64, error) {
	raw, ok := a[name]
	if !ok || raw == nil {
		return fallback, nil
	}
	v, ok := toFloat64(raw)
	if !ok {
		return 0, &ArgumentError{Param: name, Reason: fmt.Sprintf("must be a number, got %T(%v)", raw, raw)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ArgumentError{Param: name, Reason: "must be finite"}
	}
	return v, nil
}

// String returns the named argument as a string, or fallback when absent.
func (a Args) String(name, fallback string) (string, error) {
	raw, ok := a[name]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return "", &ArgumentError{Param: name, Reason: fmt.Sprintf("must be a string, got %T", raw)}
}

// Values returns the named argument as a sequence. Slices and arrays are
// flattened into their elements; any other non-nil value becomes a
// one-element sequence.
func (a Args) Values(name string) []any {
	raw, ok := a[name]
	if !ok || raw == nil {
		return nil
	}
	if values, ok := raw.([]any); ok {
		return values
	}
	if seq, ok := sequence(raw); ok {
		return seq
	}
	return []any{raw}
}

func sequence(raw any) ([]any, bool) {
	if _, isString := raw.(string); isString {
		return nil, false
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func toInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		return floatToInt64(rv.Float())
	}
	return 0, false
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toFloat64(raw any) (float64, bool) {
	if n, ok := raw.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
