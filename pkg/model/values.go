package model

import (
	"fmt"
	"math"
)

// Zero returns the default value a local or field of t starts with. Reference
// types, parameters and by-refs start as nil.
func Zero(t *Type) any {
	if !t.IsPrimitive() {
		return nil
	}
	switch t.Primitive {
	case PrimitiveBool:
		return false
	case PrimitiveChar:
		return rune(0)
	case PrimitiveInt8:
		return int8(0)
	case PrimitiveInt16:
		return int16(0)
	case PrimitiveInt32:
		return int32(0)
	case PrimitiveInt64:
		return int64(0)
	case PrimitiveUint8:
		return uint8(0)
	case PrimitiveUint16:
		return uint16(0)
	case PrimitiveUint32:
		return uint32(0)
	case PrimitiveUint64:
		return uint64(0)
	case PrimitiveFloat32:
		return float32(0)
	case PrimitiveFloat64:
		return float64(0)
	}
	return nil
}

// ConvertPrimitive converts a Go scalar to the canonical Go representation
// of category p. Integer conversions are range-checked.
func ConvertPrimitive(p Primitive, v any) (any, error) {
	if p == PrimitiveBool {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("convert %T to bool", v)
		}
		return b, nil
	}
	if p == PrimitiveFloat32 || p == PrimitiveFloat64 {
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("convert %T to %s", v, p)
		}
		if p == PrimitiveFloat32 {
			return float32(f), nil
		}
		return f, nil
	}
	if u, isU := v.(uint64); isU && u > math.MaxInt64 {
		if p == PrimitiveUint64 {
			return u, nil
		}
		return nil, fmt.Errorf("constant %d overflows %s", u, p)
	}
	n, ok := toInt(v)
	if !ok {
		return nil, fmt.Errorf("convert %T to %s", v, p)
	}
	lo, hi := bounds(p)
	if n < lo || (n > 0 && uint64(n) > hi) {
		return nil, fmt.Errorf("constant %d overflows %s", n, p)
	}
	switch p {
	case PrimitiveChar:
		return rune(n), nil
	case PrimitiveInt8:
		return int8(n), nil
	case PrimitiveInt16:
		return int16(n), nil
	case PrimitiveInt32:
		return int32(n), nil
	case PrimitiveInt64:
		return n, nil
	case PrimitiveUint8:
		return uint8(n), nil
	case PrimitiveUint16:
		return uint16(n), nil
	case PrimitiveUint32:
		return uint32(n), nil
	case PrimitiveUint64:
		return uint64(n), nil
	}
	return nil, fmt.Errorf("convert %T: unknown primitive %d", v, p)
}

func bounds(p Primitive) (int64, uint64) {
	switch p {
	case PrimitiveChar:
		return 0, math.MaxInt32
	case PrimitiveInt8:
		return math.MinInt8, math.MaxInt8
	case PrimitiveInt16:
		return math.MinInt16, math.MaxInt16
	case PrimitiveInt32:
		return math.MinInt32, math.MaxInt32
	case PrimitiveUint8:
		return 0, math.MaxUint8
	case PrimitiveUint16:
		return 0, math.MaxUint16
	case PrimitiveUint32:
		return 0, math.MaxUint32
	case PrimitiveUint64:
		return 0, math.MaxUint64
	}
	return math.MinInt64, math.MaxInt64
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	if n, ok := toInt(v); ok {
		return float64(n), true
	}
	return 0, false
}
