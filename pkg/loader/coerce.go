// pkg/loader/coerce.go
package loader

import (
	"math"
	"strconv"
)

// Coercion of raw field values into the declared column types. A value that
// is absent or does not fit the declared type coerces to null (ok=false),
// never to an error; this keeps row-level malformation out of the error
// taxonomy.

// coerceString accepts only JSON strings.
func coerceString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// coerceInt32 accepts JSON numbers that are integral and within int32 range.
func coerceInt32(v interface{}) (int32, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int32(f), true
}

// coerceFloat32 accepts any JSON number.
func coerceFloat32(v interface{}) (float32, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return float32(f), true
}

// coerceBool accepts only JSON booleans.
func coerceBool(v interface{}) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// parseInt32 coerces a delimited-text field; empty or non-numeric text is
// null.
func parseInt32(s string) (int32, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}
