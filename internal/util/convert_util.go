package util

import (
	"fmt"
	"strconv"
	"time"
)

// AnyToFloat64 converts loosely typed values, e.g. jsonpath extraction
// results, to float64.
func AnyToFloat64(value any) (float64, error) {
	switch typedValue := value.(type) {
	case float64:
		return typedValue, nil
	case float32:
		return float64(typedValue), nil
	case int64:
		return float64(typedValue), nil
	case int:
		return float64(typedValue), nil
	case string:
		return strconv.ParseFloat(typedValue, 64)
	default:
		return 0, fmt.Errorf("value %v of type %T cannot be converted to float64", value, typedValue)
	}
}

// AnyToTime converts loosely typed values to time.Time, strings are parsed as
// RFC3339.
func AnyToTime(value any) (time.Time, error) {
	switch typedValue := value.(type) {
	case time.Time:
		return typedValue, nil
	case string:
		return time.Parse(time.RFC3339, typedValue)
	default:
		return time.Time{}, fmt.Errorf("value %v of type %T cannot be converted to time", value, typedValue)
	}
}
