// Package classify decides how a value is recorded in metrics: as a
// plottable number, a boolean, or opaque text. Classification is total —
// every type resolves to exactly one kind and there are no error cases.
package classify

import (
	"fmt"
	"reflect"
)

// Kind is the metric recording category for a value.
type Kind string

const (
	// Numeric values are recorded as plottable numbers.
	Numeric Kind = "numeric"
	// Boolean values are recorded as 0/1 event counts.
	Boolean Kind = "boolean"
	// Opaque values are recorded as formatted text only.
	Opaque Kind = "opaque"
)

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// ClassifyType resolves the recording kind for a declared type.
//
// Integer and floating-point kinds are Numeric, Bool is Boolean, everything
// else (strings, structs, pointers, interfaces, nil) is Opaque. A named type
// over a numeric kind that implements fmt.Stringer is treated as Opaque:
// when the author bothered to give values a textual form, that form is the
// useful record, not the raw number.
func ClassifyType(t reflect.Type) Kind {
	if t == nil {
		return Opaque
	}
	if t.Implements(stringerType) {
		return Opaque
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Numeric
	case reflect.Bool:
		return Boolean
	default:
		return Opaque
	}
}

// Classify resolves the recording kind for a live value. A nil value is Opaque.
func Classify(v any) Kind {
	if v == nil {
		return Opaque
	}
	return ClassifyType(reflect.TypeOf(v))
}
