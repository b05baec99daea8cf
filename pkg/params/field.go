package params

import (
	"fmt"
	"math"

	perrors "github.com/ducminhle1904/ad-params/internal/errors"
)

// Field is the name of a parameter slot, e.g. "signal_open_level"
type Field string

// FieldSpec describes a registered field: its kind, default and constraints
type FieldSpec struct {
	Name    Field
	Kind    Kind
	Default Value
	Doc     string

	min      *float64
	max      *float64
	bitFlags bool
}

// FieldOption customizes a FieldSpec
type FieldOption func(*FieldSpec)

// Min sets an inclusive lower bound
func Min(v float64) FieldOption {
	return func(s *FieldSpec) { s.min = &v }
}

// Max sets an inclusive upper bound
func Max(v float64) FieldOption {
	return func(s *FieldSpec) { s.max = &v }
}

// NonNegative requires values >= 0
func NonNegative() FieldOption {
	return Min(0)
}

// BitFlags marks an integer field holding a bit mask. Masks are never negative.
func BitFlags() FieldOption {
	return func(s *FieldSpec) {
		s.bitFlags = true
		zero := 0.0
		s.min = &zero
	}
}

// Doc attaches a description shown by the fields report
func Doc(text string) FieldOption {
	return func(s *FieldSpec) { s.Doc = text }
}

// IntField declares an integer field
func IntField(name Field, def int64, opts ...FieldOption) FieldSpec {
	return newSpec(name, KindInt, Int(def), opts)
}

// FloatField declares a floating-point field
func FloatField(name Field, def float64, opts ...FieldOption) FieldSpec {
	return newSpec(name, KindFloat, Float(def), opts)
}

// StringField declares a string field
func StringField(name Field, def string, opts ...FieldOption) FieldSpec {
	return newSpec(name, KindString, Str(def), opts)
}

func newSpec(name Field, kind Kind, def Value, opts []FieldOption) FieldSpec {
	s := FieldSpec{Name: name, Kind: kind, Default: def}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// IsBitFlags reports whether the field holds a bit mask
func (s FieldSpec) IsBitFlags() bool { return s.bitFlags }

// Bounds returns the configured bounds, nil when unbounded
func (s FieldSpec) Bounds() (min, max *float64) { return s.min, s.max }

// Constraint describes the field constraint in words
func (s FieldSpec) Constraint() string {
	var c string
	switch {
	case s.bitFlags:
		c = "bit flags >= 0"
	case s.min != nil && s.max != nil:
		c = fmt.Sprintf("%g..%g", *s.min, *s.max)
	case s.min != nil:
		c = fmt.Sprintf(">= %g", *s.min)
	case s.max != nil:
		c = fmt.Sprintf("<= %g", *s.max)
	}
	if s.Kind == KindFloat {
		if c == "" {
			return "finite"
		}
		return "finite, " + c
	}
	return c
}

// Coerce converts v to the field kind
func (s FieldSpec) Coerce(component string, v Value) (Value, error) {
	out, err := convert(s.Kind, v)
	if err != nil {
		return Value{}, perrors.NewInvalidValueError(component, string(s.Name), v, err.Error())
	}
	return out, nil
}

// Validate checks v against the field kind and constraints
func (s FieldSpec) Validate(component string, v Value) error {
	if v.Kind() != s.Kind {
		return perrors.NewInvalidValueError(component, string(s.Name), v,
			fmt.Sprintf("has kind %s, want %s", v.Kind(), s.Kind))
	}
	if s.Kind == KindString {
		return nil
	}
	x := v.Float()
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return perrors.NewInvalidValueError(component, string(s.Name), v, "must be finite")
	}
	if s.min != nil && x < *s.min {
		return perrors.NewInvalidValueError(component, string(s.Name), v, fmt.Sprintf("must be >= %g", *s.min))
	}
	if s.max != nil && x > *s.max {
		return perrors.NewInvalidValueError(component, string(s.Name), v, fmt.Sprintf("must be <= %g", *s.max))
	}
	return nil
}
