package params

import (
	"fmt"
	"sort"

	perrors "github.com/ducminhle1904/ad-params/internal/errors"
)

// DefaultsTable is the field registry with one baseline value per field.
// It is read-only after construction.
type DefaultsTable struct {
	name  string
	specs []FieldSpec
	index map[Field]int
}

// NewDefaultsTable registers the fields in order. Duplicate names and defaults
// violating their own constraints are rejected.
func NewDefaultsTable(name string, specs ...FieldSpec) (*DefaultsTable, error) {
	report := perrors.NewReport(name)
	t := &DefaultsTable{
		name:  name,
		specs: make([]FieldSpec, 0, len(specs)),
		index: make(map[Field]int, len(specs)),
	}
	for _, spec := range specs {
		if spec.Name == "" {
			report.Add(perrors.NewParamError(perrors.ErrorCategoryUnknownField, name, "register", "field without a name"))
			continue
		}
		if _, exists := t.index[spec.Name]; exists {
			report.Add(perrors.NewDuplicateOverrideError(name, "field "+string(spec.Name), "registry", "registry"))
			continue
		}
		if err := spec.Validate(name, spec.Default); err != nil {
			report.Add(err)
			continue
		}
		t.index[spec.Name] = len(t.specs)
		t.specs = append(t.specs, spec)
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Name returns the table name used in logs and errors
func (t *DefaultsTable) Name() string { return t.name }

// Len returns the number of registered fields
func (t *DefaultsTable) Len() int { return len(t.specs) }

// GetDefault returns the baseline value for a field
func (t *DefaultsTable) GetDefault(f Field) (Value, error) {
	i, ok := t.index[f]
	if !ok {
		return Value{}, perrors.NewUnknownFieldError(t.name, "get_default", string(f))
	}
	return t.specs[i].Default, nil
}

// Spec returns the registration of a field
func (t *DefaultsTable) Spec(f Field) (FieldSpec, bool) {
	i, ok := t.index[f]
	if !ok {
		return FieldSpec{}, false
	}
	return t.specs[i], true
}

// Specs returns every registration in order
func (t *DefaultsTable) Specs() []FieldSpec {
	out := make([]FieldSpec, len(t.specs))
	copy(out, t.specs)
	return out
}

// Fields returns the registered field names in order
func (t *DefaultsTable) Fields() []Field {
	out := make([]Field, len(t.specs))
	for i, s := range t.specs {
		out[i] = s.Name
	}
	return out
}

// Values returns the full default mapping as a layer
func (t *DefaultsTable) Values() Layer {
	out := make(Layer, len(t.specs))
	for _, s := range t.specs {
		out[s.Name] = s.Default
	}
	return out
}

// Base returns the defaults as a resolved set for the given key
func (t *DefaultsTable) Base(key Key) *ParameterSet {
	return newParameterSet(key, t)
}

// CheckLayer verifies every field of the layer is registered and converts values
// to their field kinds. The returned layer is a fresh copy.
func (t *DefaultsTable) CheckLayer(source string, l Layer) (Layer, error) {
	report := perrors.NewReport(t.name)
	out := make(Layer, len(l))
	for _, f := range l.Fields() {
		spec, ok := t.Spec(f)
		if !ok {
			report.Add(perrors.NewUnknownFieldError(t.name, "load", string(f)).WithContext("source", source))
			continue
		}
		v, err := spec.Coerce(t.name, l[f])
		if err != nil {
			report.Add(err)
			continue
		}
		out[f] = v
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseLayer builds a layer from textual values, e.g. rows of an external store
func (t *DefaultsTable) ParseLayer(source string, raw map[string]string) (Layer, error) {
	report := perrors.NewReport(t.name)
	out := make(Layer, len(raw))
	for _, name := range sortedKeys(raw) {
		text := raw[name]
		spec, ok := t.Spec(Field(name))
		if !ok {
			report.Add(perrors.NewUnknownFieldError(t.name, "load", name).WithContext("source", source))
			continue
		}
		v, err := ParseValue(spec.Kind, text)
		if err != nil {
			report.Add(perrors.NewInvalidValueError(t.name, name, text, err.Error()).WithContext("source", source))
			continue
		}
		out[spec.Name] = v
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeLayer builds a layer from decoded YAML/JSON scalars
func (t *DefaultsTable) DecodeLayer(source string, raw map[string]interface{}) (Layer, error) {
	report := perrors.NewReport(t.name)
	out := make(Layer, len(raw))
	for _, name := range sortedKeys(raw) {
		x := raw[name]
		spec, ok := t.Spec(Field(name))
		if !ok {
			report.Add(perrors.NewUnknownFieldError(t.name, "load", name).WithContext("source", source))
			continue
		}
		v, err := ValueOf(spec.Kind, x)
		if err != nil {
			report.Add(perrors.NewInvalidValueError(t.name, name, fmt.Sprint(x), err.Error()).WithContext("source", source))
			continue
		}
		out[spec.Name] = v
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
