// Package core provides the fundamental data structures of kektorgraph.
//
// This file defines the attribute value model: a tagged union carrying a
// declared Kind together with its textual and, for numeric kinds, parsed
// representation. Kind names follow the GraphML attr.type vocabulary so
// imported key declarations map onto them directly.
package core

import (
	"strconv"
	"strings"

	"github.com/sanonone/kektorgraph/pkg/errors"
)

// Kind is the declared type of an attribute value.
type Kind string

const (
	KindInt    Kind = "int"
	KindLong   Kind = "long"
	KindFloat  Kind = "float"
	KindDouble Kind = "double"
	KindString Kind = "string"
	KindBool   Kind = "boolean"
)

// IsNumeric reports whether values of this kind can take part in a metric.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt, KindLong, KindFloat, KindDouble:
		return true
	}
	return false
}

// ParseKind maps a declared type name to a Kind. Unknown names are an error.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindInt, KindLong, KindFloat, KindDouble, KindString, KindBool:
		return k, nil
	case "integer":
		return KindInt, nil
	case "text":
		return KindString, nil
	case "bool":
		return KindBool, nil
	}
	return "", errors.NewConfigurationError("unknown attribute kind %q", s)
}

// Value is one attribute value. The zero Value is an empty string.
type Value struct {
	kind Kind
	text string
	num  float64
	// err caches the result of parsing text as kind; it is only reported when
	// the value is coerced to a number.
	err error
}

// Int returns an integer value.
func Int(i int32) Value {
	return Value{kind: KindInt, text: strconv.FormatInt(int64(i), 10), num: float64(i)}
}

// Long returns a long-integer value.
func Long(i int64) Value {
	return Value{kind: KindLong, text: strconv.FormatInt(i, 10), num: float64(i)}
}

// Float returns a single precision value.
func Float(f float32) Value {
	return Value{kind: KindFloat, text: strconv.FormatFloat(float64(f), 'g', -1, 32), num: float64(f)}
}

// Double returns a double precision value.
func Double(f float64) Value {
	return Value{kind: KindDouble, text: strconv.FormatFloat(f, 'g', -1, 64), num: f}
}

// Text returns a string value.
func Text(s string) Value {
	return Value{kind: KindString, text: s}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool, text: strconv.FormatBool(b)}
	if b {
		v.num = 1
	}
	return v
}

// ParseValue builds a value of the given kind from its stored text, as read
// from an interchange file. The text is always retained; a text that is not
// valid for a numeric kind does not reject the value but makes every numeric
// coercion of it fail with a ParseError.
func ParseValue(kind Kind, text string) Value {
	v := Value{kind: kind, text: text}
	v.num, v.err = parseNumber(kind, text)
	if kind == KindBool {
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err == nil && b {
			v.num = 1
		}
		v.err = err
	}
	return v
}

// Kind returns the declared kind of the value.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindString
	}
	return v.kind
}

// String returns the stored textual representation.
func (v Value) String() string {
	return v.text
}

// Convert coerces the value to float64 as kind. kind is normally the kind
// registered for the attribute name, which may differ from the value's own
// declared kind when sources are heterogeneous.
func (v Value) Convert(kind Kind) (float64, error) {
	if !kind.IsNumeric() {
		return 0, &errors.ParseError{VertexID: -1, Kind: string(kind), Text: v.text}
	}
	if v.Kind() == kind {
		if v.err != nil {
			return 0, &errors.ParseError{VertexID: -1, Kind: string(kind), Text: v.text}
		}
		return v.num, nil
	}
	f, err := parseNumber(kind, v.text)
	if err != nil {
		return 0, &errors.ParseError{VertexID: -1, Kind: string(kind), Text: v.text}
	}
	return f, nil
}

// Float64 coerces the value using its own declared kind.
func (v Value) Float64() (float64, error) {
	return v.Convert(v.Kind())
}

func parseNumber(kind Kind, text string) (float64, error) {
	s := strings.TrimSpace(text)
	switch kind {
	case KindInt:
		i, err := strconv.ParseInt(s, 10, 32)
		return float64(i), err
	case KindLong:
		i, err := strconv.ParseInt(s, 10, 64)
		return float64(i), err
	case KindFloat:
		return strconv.ParseFloat(s, 32)
	case KindDouble:
		return strconv.ParseFloat(s, 64)
	}
	return 0, nil
}
