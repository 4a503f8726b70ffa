package types

import (
	"fmt"
	"reflect"
	"time"
)

// Coerce maps an arbitrary Go value, as produced by an upstream parser, onto
// the Value variant. Supported shapes: nil, string, all integer and float
// widths, bool, time.Time, and pointers to any of these (a nil pointer
// coerces to Null). Everything else fails with ErrUnresolvableType.
//
// Coerce never guesses: a []byte, map, or struct has no single canonical
// textual form, so mapping it silently would undermine identifier stability.
func Coerce(v any) (Value, error) {
	if v == nil {
		return Null(), nil
	}

	// time.Time before reflection: it is a struct, but a supported one.
	if t, ok := v.(time.Time); ok {
		return Date(t), nil
	}

	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return Null(), nil
		}
		val = val.Elem()
	}

	if t, ok := val.Interface().(time.Time); ok {
		return Date(t), nil
	}

	switch val.Kind() {
	case reflect.String:
		return String(val.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(val.Int())), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(val.Uint())), nil

	case reflect.Float32, reflect.Float64:
		return Number(val.Float()), nil

	case reflect.Bool:
		return Bool(val.Bool()), nil

	default:
		return Value{}, fmt.Errorf("%w: cannot coerce %T", ErrUnresolvableType, v)
	}
}
