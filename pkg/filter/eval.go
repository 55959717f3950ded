package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kubev2v/relcore/pkg/sqlf"
)

// compareValues orders a and b for in-memory evaluation. Numbers compare as floats,
// strings against numbers or times are converted first.
func compareValues(a, b any) (int, error) {
	switch x := a.(type) {
	case time.Time:
		y, err := sqlf.TypeTimestamp.Convert(b)
		if err != nil || y == nil {
			return 0, fmt.Errorf("cannot compare %v with %v", a, b)
		}
		return x.Compare(y.(time.Time)), nil
	case bool:
		y, err := sqlf.TypeBoolean.Convert(b)
		if err != nil || y == nil {
			return 0, fmt.Errorf("cannot compare %v with %v", a, b)
		}
		switch {
		case x == y.(bool):
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	case string:
		switch b.(type) {
		case string:
			fa, aerr := strconv.ParseFloat(strings.TrimSpace(x), 64)
			fb, berr := strconv.ParseFloat(strings.TrimSpace(b.(string)), 64)
			if aerr == nil && berr == nil {
				return compareValues(fa, fb)
			}
			return strings.Compare(x, b.(string)), nil
		case nil:
			return 0, fmt.Errorf("cannot compare %v with NULL", a)
		default:
			c, err := compareValues(b, a)
			return -c, err
		}
	}

	if fa, ok := asFloat(a); ok {
		y, err := sqlf.TypeFloat.Convert(b)
		if err != nil || y == nil {
			return 0, fmt.Errorf("cannot compare %v with %v", a, b)
		}
		fb := y.(float64)
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func textOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return displayValue(v)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
