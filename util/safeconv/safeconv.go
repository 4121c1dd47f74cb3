package safeconv

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/exp/constraints"
)

// number is satisfied by encoding/json.Number and the json-iterator equivalent.
type number interface {
	String() string
	Float64() (float64, error)
}

// ToUint64 converts a decoded numeric value to uint64. Negative values,
// fractions and values above MaxUint64 are rejected rather than clamped.
func ToUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint:
		return integerToUint64(n)
	case uint32:
		return integerToUint64(n)
	case uint16:
		return integerToUint64(n)
	case uint8:
		return integerToUint64(n)
	case int:
		return integerToUint64(n)
	case int64:
		return integerToUint64(n)
	case int32:
		return integerToUint64(n)
	case int16:
		return integerToUint64(n)
	case int8:
		return integerToUint64(n)
	case float64:
		return floatToUint64(n)
	case float32:
		return floatToUint64(n)
	case number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s is not an unsigned 64-bit integer", n.String())
		}
		return u, nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

// ToFloat64 converts a decoded numeric value to float64. It accepts the same
// types as ToUint64.
func ToFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case number:
		return n.Float64()
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func integerToUint64[T constraints.Integer](v T) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("%d is negative", v)
	}
	return uint64(v), nil // #nosec G115 negatives are rejected above.
}

func floatToUint64[T constraints.Float](v T) (uint64, error) {
	f := float64(v)
	if f < 0 || f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not an unsigned integer", v)
	}
	// 2^64 is the first float64 above MaxUint64.
	if f >= 1<<64 {
		return 0, fmt.Errorf("%v overflows uint64", v)
	}
	return uint64(f), nil
}
