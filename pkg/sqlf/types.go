package sqlf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValueType is the logical storage type of a column, property or parameter.
type ValueType int

const (
	TypeString ValueType = iota
	TypeInteger
	TypeBigInt
	TypeFloat
	TypeDecimal
	TypeBoolean
	TypeTimestamp
	TypeGUID
	TypeBinary
)

var typeNames = map[ValueType]string{
	TypeString:    "string",
	TypeInteger:   "integer",
	TypeBigInt:    "bigint",
	TypeFloat:     "float",
	TypeDecimal:   "decimal",
	TypeBoolean:   "boolean",
	TypeTimestamp: "timestamp",
	TypeGUID:      "guid",
	TypeBinary:    "binary",
}

func (t ValueType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseValueType is the inverse of String. Common aliases are accepted.
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string", "varchar", "text":
		return TypeString, nil
	case "integer", "int":
		return TypeInteger, nil
	case "bigint", "long":
		return TypeBigInt, nil
	case "float", "double", "real":
		return TypeFloat, nil
	case "decimal", "numeric":
		return TypeDecimal, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "timestamp", "datetime", "date":
		return TypeTimestamp, nil
	case "guid", "uuid", "entityid":
		return TypeGUID, nil
	case "binary", "blob":
		return TypeBinary, nil
	}
	return TypeString, fmt.Errorf("unknown value type %q", s)
}

func (t ValueType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ValueType) UnmarshalText(b []byte) error {
	v, err := ParseValueType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t ValueType) IsNumeric() bool {
	switch t {
	case TypeInteger, TypeBigInt, TypeFloat, TypeDecimal:
		return true
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// Convert coerces v to the Go representation of t: string, int64, float64, bool,
// time.Time or []byte. nil converts to nil. An empty string converts to nil for every
// type but TypeString.
func (t ValueType) Convert(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && s == "" && t != TypeString {
		return nil, nil
	}

	switch t {
	case TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		case time.Time:
			return x.Format(time.RFC3339Nano), nil
		default:
			return fmt.Sprintf("%v", x), nil
		}
	case TypeInteger, TypeBigInt:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int8:
			return int64(x), nil
		case int16:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		case uint8:
			return int64(x), nil
		case uint16:
			return int64(x), nil
		case uint32:
			return int64(x), nil
		case float32:
			return floatToInt(float64(x))
		case float64:
			return floatToInt(x)
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				f, ferr := strconv.ParseFloat(strings.TrimSpace(x), 64)
				if ferr != nil {
					return nil, fmt.Errorf("could not convert %q to %s", x, t)
				}
				return floatToInt(f)
			}
			return n, nil
		}
	case TypeFloat, TypeDecimal:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, fmt.Errorf("could not convert %q to %s", x, t)
			}
			return f, nil
		}
	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int:
			return x != 0, nil
		case int64:
			return x != 0, nil
		case float64:
			return x != 0, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(x)) {
			case "true", "t", "yes", "y", "on", "1":
				return true, nil
			case "false", "f", "no", "n", "off", "0":
				return false, nil
			}
			return nil, fmt.Errorf("could not convert %q to %s", x, t)
		}
	case TypeTimestamp:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case string:
			s := strings.TrimSpace(x)
			for _, layout := range timeLayouts {
				if ts, err := time.Parse(layout, s); err == nil {
					return ts, nil
				}
			}
			return nil, fmt.Errorf("could not convert %q to %s", x, t)
		case float64:
			// spreadsheet serial dates
			return excelEpoch.Add(time.Duration(x * float64(24*time.Hour))), nil
		}
	case TypeGUID:
		switch x := v.(type) {
		case uuid.UUID:
			return x.String(), nil
		case string:
			id, err := uuid.Parse(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("could not convert %q to %s", x, t)
			}
			return id.String(), nil
		}
	case TypeBinary:
		switch x := v.(type) {
		case []byte:
			return x, nil
		case string:
			return []byte(x), nil
		}
	}
	return nil, fmt.Errorf("could not convert %T to %s", v, t)
}

var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func floatToInt(f float64) (any, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("could not convert %v to integer", f)
	}
	return int64(f), nil
}
