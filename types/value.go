package types

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrUnresolvableType indicates a field value whose declared kind does not
// match its runtime shape, or a raw value that cannot be mapped onto the
// Value variant.
var ErrUnresolvableType = errors.New("unresolvable field type")

// Kind identifies the logical type of a Value.
type Kind int

const (
	// KindInvalid is the zero Kind. Values of this kind fail canonicalization.
	KindInvalid Kind = iota

	// KindString is plain text.
	KindString

	// KindNumber is a numeric value, held as float64.
	KindNumber

	// KindDate is a point in time.
	KindDate

	// KindBool is a boolean.
	KindBool

	// KindNull is the explicit absence of a value. It is distinct from the
	// empty string.
	KindNull

	// KindCategorical is a coded value that must be resolved to its label
	// text through a dictionary before it can be canonicalized.
	KindCategorical
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindCategorical:
		return "categorical"
	default:
		return "invalid"
	}
}

// Value is a tagged variant holding one typed field value.
//
// The zero Value is invalid; construct values with the typed constructors
// (String, Number, Date, Bool, Null, Categorical) or with Coerce. Values are
// immutable once constructed.
type Value struct {
	kind Kind
	str  string // KindString text, KindCategorical code
	num  float64
	t    time.Time
	b    bool
}

// String constructs a plain-text value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number constructs a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Date constructs a date value from a point in time.
func Date(t time.Time) Value {
	return Value{kind: KindDate, t: t}
}

// Bool constructs a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Null constructs the explicit null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Categorical constructs a coded value. The code is resolved to its label
// text at canonicalization time through the configured dictionary.
func Categorical(code string) Value {
	return Value{kind: KindCategorical, str: code}
}

// Kind returns the value's kind tag.
func (v Value) Kind() Kind {
	return v.kind
}

// AsString returns the text of a KindString value.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the numeric payload of a KindNumber value.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsDate returns the time payload of a KindDate value.
func (v Value) AsDate() (time.Time, bool) {
	return v.t, v.kind == KindDate
}

// AsBool returns the payload of a KindBool value.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Code returns the unresolved code of a KindCategorical value.
func (v Value) Code() (string, bool) {
	return v.str, v.kind == KindCategorical
}

// IsNull reports whether the value is the explicit null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// GoString formats the value for debugging output. Identifier computation
// never uses this form; canonical encoding is owned by the canonical package.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("types.String(%q)", v.str)
	case KindNumber:
		return fmt.Sprintf("types.Number(%s)", strconv.FormatFloat(v.num, 'g', -1, 64))
	case KindDate:
		return fmt.Sprintf("types.Date(%s)", v.t.Format(time.RFC3339Nano))
	case KindBool:
		return fmt.Sprintf("types.Bool(%t)", v.b)
	case KindNull:
		return "types.Null()"
	case KindCategorical:
		return fmt.Sprintf("types.Categorical(%q)", v.str)
	default:
		return "types.Value{}"
	}
}
