// Package format converts runtime values and parameter lists into display
// strings for log captions and descriptions. It has two modes: detailed
// (invoke the value's own text conversion) and summary (avoid a potentially
// expensive conversion at high-frequency call sites and fall back to a
// type-name-plus-identity form).
package format

import (
	"fmt"
	"hash/fnv"
	"reflect"
	"strings"
)

// Null is the literal emitted for nil values.
const Null = "null"

// Value renders a single value for display.
//
// nil renders as "null". Strings pass through unchanged. Value kinds
// (numbers, booleans, structs, arrays) always use their natural conversion.
// Reference kinds use the natural conversion only in detailed mode and only
// when it is genuinely overridden — a fmt.Stringer that merely echoes the
// fully-qualified type name counts as not overridden. Summary mode skips the
// conversion entirely and renders "{TypeFullName}@{IdentityHexHash}".
func Value(v any, detailed bool) string {
	if v == nil {
		return Null
	}
	if s, ok := v.(string); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if !isReferenceKind(rv.Kind()) {
		return fmt.Sprintf("%v", v)
	}
	if isNilReference(rv) {
		return Null
	}
	fallback := fmt.Sprintf("%s@%x", TypeFullName(v), IdentityHash(v))
	if !detailed {
		return fallback
	}
	s, ok := v.(fmt.Stringer)
	if !ok {
		return fallback
	}
	text := s.String()
	if text == TypeFullName(v) {
		return fallback
	}
	return text
}

// Params renders a parameter list as "name=value, name=value". Missing names
// are filled in positionally. The name slice is precomputed once per call
// site and shared across invocations.
func Params(names []string, values []any, detailed bool) string {
	if len(values) == 0 {
		return ""
	}
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		if i < len(names) && names[i] != "" {
			b.WriteString(names[i])
		} else {
			fmt.Fprintf(&b, "arg%d", i)
		}
		b.WriteByte('=')
		b.WriteString(Value(v, detailed))
	}
	return b.String()
}

// QuoteCaption escapes embedded quote characters and wraps the text in
// quotes, for use as a field value inside a log caption.
func QuoteCaption(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// TypeFullName returns the import-path-qualified type name, with pointer
// markers preserved. Unnamed types fall back to reflect's short form.
func TypeFullName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return Null
	}
	prefix := ""
	for t.Kind() == reflect.Pointer {
		prefix += "*"
		t = t.Elem()
	}
	if t.PkgPath() != "" && t.Name() != "" {
		return prefix + t.PkgPath() + "." + t.Name()
	}
	return prefix + t.String()
}

// IdentityHash returns a stable per-identity hash for a value. Reference
// kinds hash their address so distinct instances stay distinguishable; other
// values hash their textual form.
func IdentityHash(v any) uint64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan,
		reflect.Func, reflect.UnsafePointer:
		if !rv.IsNil() {
			return uint64(rv.Pointer())
		}
		return 0
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%T:%v", v, v)
	return h.Sum64()
}

// HexHash renders an identity hash the way instance names display it.
func HexHash(v any) string {
	return fmt.Sprintf("0x%x", IdentityHash(v))
}

func isReferenceKind(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

func isNilReference(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
