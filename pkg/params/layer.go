package params

import (
	"sort"
	"strings"
)

// StrategyKind identifies the strategy owning a set of tables, e.g. "AD"
type StrategyKind string

// Key identifies one resolution: strategy, symbol and timeframe
type Key struct {
	Kind      StrategyKind
	Symbol    string
	Timeframe Timeframe
}

// String returns "AD/EURUSD/H1"
func (k Key) String() string {
	return string(k.Kind) + "/" + k.Symbol + "/" + k.Timeframe.String()
}

// NormalizeSymbol trims and upper-cases an instrument identifier
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Layer is a partial parameter mapping. Absent fields inherit from the layer below.
type Layer map[Field]Value

// Clone returns an independent copy
func (l Layer) Clone() Layer {
	out := make(Layer, len(l))
	for f, v := range l {
		out[f] = v
	}
	return out
}

// Fields returns the fields present in the layer, sorted by name
func (l Layer) Fields() []Field {
	out := make([]Field, 0, len(l))
	for f := range l {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Origin names the layer a value came from
type Origin string

const (
	OriginDefault   Origin = "default"
	OriginTimeframe Origin = "timeframe"
	OriginSymbol    Origin = "symbol"
	OriginExternal  Origin = "external"
	OriginInput     Origin = "input"
	OriginSweep     Origin = "sweep"
)

// NamedLayer is a layer tagged with its origin, lowest precedence first when returned in a slice
type NamedLayer struct {
	Origin Origin `json:"origin"`
	Values Layer  `json:"values"`
}
