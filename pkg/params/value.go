package params

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the type of a parameter field
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindString
)

// String returns the kind name used in reports
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Value is a single typed parameter value. The zero Value is "absent".
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Int creates an integer value
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float creates a floating-point value
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Str creates a string value
func Str(v string) Value { return Value{kind: KindString, s: v} }

// Kind returns the value kind, zero for an absent value
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is absent
func (v Value) IsZero() bool { return v.kind == 0 }

// Int returns the value as an integer. Floats are truncated.
func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	}
	return 0
}

// Float returns the value as a float
func (v Value) Float() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	}
	return 0
}

// Text returns the raw string of a string value
func (v Value) Text() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// String formats the value for logs and reports
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	}
	return "<absent>"
}

// Interface returns the underlying Go value
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	}
	return nil
}

// Equal compares kind and payload
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	}
	return true
}

// MarshalJSON encodes the underlying value
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindFloat && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Interface())
}

// convert returns v as the requested kind. Integral floats convert to ints, ints convert to floats.
func convert(kind Kind, v Value) (Value, error) {
	if v.kind == kind {
		return v, nil
	}
	switch {
	case kind == KindFloat && v.kind == KindInt:
		return Float(float64(v.i)), nil
	case kind == KindInt && v.kind == KindFloat:
		if v.f != math.Trunc(v.f) || math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return Value{}, fmt.Errorf("is not an integer")
		}
		return Int(int64(v.f)), nil
	}
	return Value{}, fmt.Errorf("has kind %s, want %s", v.kind, kind)
}

// ParseValue parses text into a value of the given kind
func ParseValue(kind Kind, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case KindInt:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Int(n), nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%q is not a number", raw)
		}
		return convert(KindInt, Float(f))
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%q is not a number", raw)
		}
		return Float(f), nil
	case KindString:
		return Str(strings.Trim(raw, `"'`)), nil
	}
	return Value{}, fmt.Errorf("unsupported kind %s", kind)
}

// ValueOf converts a decoded YAML/JSON scalar into a value of the given kind
func ValueOf(kind Kind, raw interface{}) (Value, error) {
	var v Value
	switch x := raw.(type) {
	case int:
		v = Int(int64(x))
	case int64:
		v = Int(x)
	case float64:
		v = Float(x)
	case float32:
		v = Float(float64(x))
	case string:
		if kind == KindString {
			return Str(x), nil
		}
		return ParseValue(kind, x)
	case bool:
		if x {
			v = Int(1)
		} else {
			v = Int(0)
		}
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
	return convert(kind, v)
}
