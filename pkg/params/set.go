package params

// ParameterSet is the resolved, read-only parameter mapping for one key.
// Fields keep the registry order.
type ParameterSet struct {
	key    Key
	fields []Field
	values map[Field]Value
	origin map[Field]Origin
}

func newParameterSet(key Key, defaults *DefaultsTable) *ParameterSet {
	ps := &ParameterSet{
		key:    key,
		fields: defaults.Fields(),
		values: make(map[Field]Value, defaults.Len()),
		origin: make(map[Field]Origin, defaults.Len()),
	}
	for _, spec := range defaults.specs {
		ps.values[spec.Name] = spec.Default
		ps.origin[spec.Name] = OriginDefault
	}
	return ps
}

// apply overwrites every field present in the layer. Only used before the set is published.
func (ps *ParameterSet) apply(origin Origin, layer Layer) {
	for f, v := range layer {
		ps.values[f] = v
		ps.origin[f] = origin
	}
}

// clone copies the set so a sweep point can be derived without touching the base
func (ps *ParameterSet) clone() *ParameterSet {
	out := &ParameterSet{
		key:    ps.key,
		fields: ps.fields,
		values: make(map[Field]Value, len(ps.values)),
		origin: make(map[Field]Origin, len(ps.origin)),
	}
	for f, v := range ps.values {
		out.values[f] = v
	}
	for f, o := range ps.origin {
		out.origin[f] = o
	}
	return out
}

// Key returns the resolution key
func (ps *ParameterSet) Key() Key { return ps.key }

// Len returns the number of fields
func (ps *ParameterSet) Len() int { return len(ps.fields) }

// Fields returns the field names in registry order
func (ps *ParameterSet) Fields() []Field {
	out := make([]Field, len(ps.fields))
	copy(out, ps.fields)
	return out
}

// Get returns the value of a field
func (ps *ParameterSet) Get(f Field) (Value, bool) {
	v, ok := ps.values[f]
	return v, ok
}

// Int returns an integer field, zero when absent
func (ps *ParameterSet) Int(f Field) int64 { return ps.values[f].Int() }

// Float returns a float field, zero when absent
func (ps *ParameterSet) Float(f Field) float64 { return ps.values[f].Float() }

// Text returns a string field, empty when absent
func (ps *ParameterSet) Text(f Field) string { return ps.values[f].Text() }

// Origin returns the layer that supplied the field's value
func (ps *ParameterSet) Origin(f Field) Origin { return ps.origin[f] }

// Map returns a copy of the values
func (ps *ParameterSet) Map() map[Field]Value {
	out := make(map[Field]Value, len(ps.values))
	for f, v := range ps.values {
		out[f] = v
	}
	return out
}

// Equal reports value equality, ignoring origins
func (ps *ParameterSet) Equal(o *ParameterSet) bool {
	if ps == o {
		return true
	}
	if ps == nil || o == nil || ps.key != o.key || len(ps.values) != len(o.values) {
		return false
	}
	for f, v := range ps.values {
		ov, ok := o.values[f]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Diff returns the fields whose values differ between the two sets
func (ps *ParameterSet) Diff(o *ParameterSet) []Field {
	var out []Field
	for _, f := range ps.fields {
		if !ps.values[f].Equal(o.values[f]) {
			out = append(out, f)
		}
	}
	return out
}
