package params

import (
	"fmt"
	"sort"

	perrors "github.com/ducminhle1904/ad-params/internal/errors"
)

// TimeframeOverride is one timeframe-generic table entry
type TimeframeOverride struct {
	Kind      StrategyKind
	Timeframe Timeframe
	Values    Layer
	// Source names where the entry was defined, used in duplicate reports
	Source string
}

// SymbolTimeframeOverride is one symbol-specific table entry
type SymbolTimeframeOverride struct {
	Kind      StrategyKind
	Symbol    string
	Timeframe Timeframe
	Values    Layer
	Source    string
}

type tfKey struct {
	kind StrategyKind
	tf   Timeframe
}

// TimeframeOverrideSet holds at most one override per (strategy, timeframe)
type TimeframeOverrideSet struct {
	entries map[tfKey]TimeframeOverride
}

// NewTimeframeOverrideSet validates every entry against the registry and rejects
// duplicate keys. All problems are reported together; nothing is returned on error.
func NewTimeframeOverrideSet(defaults *DefaultsTable, entries ...TimeframeOverride) (*TimeframeOverrideSet, error) {
	component := defaults.Name() + ".timeframes"
	report := perrors.NewReport(component)
	set := &TimeframeOverrideSet{entries: make(map[tfKey]TimeframeOverride, len(entries))}
	for _, e := range entries {
		if !e.Timeframe.Valid() {
			report.Add(perrors.NewInvalidValueError(component, "timeframe", int(e.Timeframe), "is not a known timeframe").
				WithContext("source", e.Source))
			continue
		}
		k := tfKey{kind: e.Kind, tf: e.Timeframe}
		keyName := fmt.Sprintf("%s/%s", e.Kind, e.Timeframe)
		if prev, exists := set.entries[k]; exists {
			report.Add(perrors.NewDuplicateOverrideError(component, keyName, prev.Source, e.Source))
			continue
		}
		values, err := defaults.CheckLayer(sourceName(e.Source, keyName), e.Values)
		if err != nil {
			report.Add(err)
			// keep the key so a later duplicate is still reported
			set.entries[k] = TimeframeOverride{Kind: e.Kind, Timeframe: e.Timeframe, Source: e.Source}
			continue
		}
		e.Values = values
		set.entries[k] = e
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Lookup returns the override layer for the key, empty when none is registered
func (s *TimeframeOverrideSet) Lookup(kind StrategyKind, tf Timeframe) Layer {
	if s == nil {
		return Layer{}
	}
	e, ok := s.entries[tfKey{kind: kind, tf: tf}]
	if !ok {
		return Layer{}
	}
	return e.Values.Clone()
}

// Len returns the number of registered entries
func (s *TimeframeOverrideSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns the registered entries ordered by strategy and timeframe
func (s *TimeframeOverrideSet) Entries() []TimeframeOverride {
	if s == nil {
		return nil
	}
	out := make([]TimeframeOverride, 0, len(s.entries))
	for _, e := range s.entries {
		e.Values = e.Values.Clone()
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Timeframe < out[j].Timeframe
	})
	return out
}

type symKey struct {
	kind   StrategyKind
	symbol string
	tf     Timeframe
}

// SymbolTimeframeOverrideSet holds at most one override per (strategy, symbol, timeframe)
type SymbolTimeframeOverrideSet struct {
	entries map[symKey]SymbolTimeframeOverride
}

// NewSymbolTimeframeOverrideSet validates and registers symbol-specific entries
func NewSymbolTimeframeOverrideSet(defaults *DefaultsTable, entries ...SymbolTimeframeOverride) (*SymbolTimeframeOverrideSet, error) {
	component := defaults.Name() + ".symbols"
	report := perrors.NewReport(component)
	set := &SymbolTimeframeOverrideSet{entries: make(map[symKey]SymbolTimeframeOverride, len(entries))}
	for _, e := range entries {
		e.Symbol = NormalizeSymbol(e.Symbol)
		if e.Symbol == "" {
			report.Add(perrors.NewInvalidValueError(component, "symbol", `""`, "must not be empty").
				WithContext("source", e.Source))
			continue
		}
		if !e.Timeframe.Valid() {
			report.Add(perrors.NewInvalidValueError(component, "timeframe", int(e.Timeframe), "is not a known timeframe").
				WithContext("source", e.Source))
			continue
		}
		k := symKey{kind: e.Kind, symbol: e.Symbol, tf: e.Timeframe}
		keyName := Key{Kind: e.Kind, Symbol: e.Symbol, Timeframe: e.Timeframe}.String()
		if prev, exists := set.entries[k]; exists {
			report.Add(perrors.NewDuplicateOverrideError(component, keyName, prev.Source, e.Source))
			continue
		}
		values, err := defaults.CheckLayer(sourceName(e.Source, keyName), e.Values)
		if err != nil {
			report.Add(err)
			set.entries[k] = SymbolTimeframeOverride{Kind: e.Kind, Symbol: e.Symbol, Timeframe: e.Timeframe, Source: e.Source}
			continue
		}
		e.Values = values
		set.entries[k] = e
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Lookup returns the override layer for the key, empty when none is registered
func (s *SymbolTimeframeOverrideSet) Lookup(kind StrategyKind, symbol string, tf Timeframe) Layer {
	if s == nil {
		return Layer{}
	}
	e, ok := s.entries[symKey{kind: kind, symbol: NormalizeSymbol(symbol), tf: tf}]
	if !ok {
		return Layer{}
	}
	return e.Values.Clone()
}

// Len returns the number of registered entries
func (s *SymbolTimeframeOverrideSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns the registered entries ordered by strategy, symbol and timeframe
func (s *SymbolTimeframeOverrideSet) Entries() []SymbolTimeframeOverride {
	if s == nil {
		return nil
	}
	out := make([]SymbolTimeframeOverride, 0, len(s.entries))
	for _, e := range s.entries {
		e.Values = e.Values.Clone()
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Timeframe < out[j].Timeframe
	})
	return out
}

func sourceName(source, key string) string {
	if source != "" {
		return source
	}
	return key
}
