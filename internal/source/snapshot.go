// Package source loads external parameter overrides from YAML/JSON files and
// SQLite stores.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/ad-params/internal/ad"
	perrors "github.com/ducminhle1904/ad-params/internal/errors"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

// Entry is one override entry. An empty symbol applies to every symbol on the timeframe.
type Entry struct {
	Kind      string                 `yaml:"kind,omitempty" json:"kind,omitempty"`
	Symbol    string                 `yaml:"symbol,omitempty" json:"symbol,omitempty"`
	Timeframe string                 `yaml:"timeframe" json:"timeframe"`
	Params    map[string]interface{} `yaml:"params" json:"params"`
}

// Document is the top-level structure of an override file
type Document struct {
	Indicator []Entry `yaml:"indicator,omitempty" json:"indicator,omitempty"`
	Strategy  []Entry `yaml:"strategy,omitempty" json:"strategy,omitempty"`
}

// Entries returns the entries of a scope
func (d Document) Entries(s ad.Scope) []Entry {
	if s == ad.ScopeIndicator {
		return d.Indicator
	}
	return d.Strategy
}

// Snapshot is a validated external source. It is read-only once built.
type Snapshot struct {
	source     string
	timeframes map[ad.Scope]*params.TimeframeOverrideSet
	symbols    map[ad.Scope]*params.SymbolTimeframeOverrideSet
}

// Build validates a document against the registry. Unknown fields, unknown
// timeframes and duplicate keys are all reported together.
func Build(reg *ad.Registry, source string, doc Document) (*Snapshot, error) {
	component := "source"
	report := perrors.NewReport(component)
	snap := &Snapshot{
		source:     source,
		timeframes: make(map[ad.Scope]*params.TimeframeOverrideSet, 2),
		symbols:    make(map[ad.Scope]*params.SymbolTimeframeOverrideSet, 2),
	}

	for _, scope := range ad.Scopes() {
		table := reg.Table(scope)
		var tfs []params.TimeframeOverride
		var syms []params.SymbolTimeframeOverride
		for i, e := range doc.Entries(scope) {
			where := fmt.Sprintf("%s %s[%d]", source, scope, i)
			kind := params.StrategyKind(strings.ToUpper(strings.TrimSpace(e.Kind)))
			if kind == "" {
				kind = ad.Kind
			}
			if kind != ad.Kind {
				report.Add(perrors.NewInvalidValueError(component, "kind", e.Kind, "is not a supported strategy kind").
					WithContext("source", where))
				continue
			}
			tf, err := params.ParseTimeframe(e.Timeframe)
			if err != nil {
				report.Add(perrors.NewInvalidValueError(component, "timeframe", e.Timeframe, "is not a known timeframe").
					WithContext("source", where))
				continue
			}
			values, err := table.DecodeLayer(where, e.Params)
			if err != nil {
				report.Add(err)
				continue
			}
			if strings.TrimSpace(e.Symbol) == "" {
				tfs = append(tfs, params.TimeframeOverride{Kind: kind, Timeframe: tf, Values: values, Source: where})
				continue
			}
			syms = append(syms, params.SymbolTimeframeOverride{
				Kind: kind, Symbol: e.Symbol, Timeframe: tf, Values: values, Source: where,
			})
		}

		tfSet, err := params.NewTimeframeOverrideSet(table, tfs...)
		report.Add(err)
		symSet, err := params.NewSymbolTimeframeOverrideSet(table, syms...)
		report.Add(err)
		snap.timeframes[scope] = tfSet
		snap.symbols[scope] = symSet
	}

	if err := report.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Source returns the file the snapshot was read from
func (s *Snapshot) Source() string { return s.source }

// Len returns the number of entries
func (s *Snapshot) Len() int {
	n := 0
	for _, scope := range ad.Scopes() {
		n += s.timeframes[scope].Len() + s.symbols[scope].Len()
	}
	return n
}

// Provider returns the override provider of a scope. The symbol entry wins over
// the timeframe-wide entry field by field.
func (s *Snapshot) Provider(scope ad.Scope) params.OverrideProvider {
	return params.ProviderFunc(func(_ context.Context, kind params.StrategyKind, symbol string, tf params.Timeframe) (params.Layer, error) {
		l := s.timeframes[scope].Lookup(kind, tf)
		for f, v := range s.symbols[scope].Lookup(kind, symbol, tf) {
			l[f] = v
		}
		return l, nil
	})
}

// Providers returns the providers of both scopes
func (s *Snapshot) Providers() map[ad.Scope]params.OverrideProvider {
	out := make(map[ad.Scope]params.OverrideProvider, 2)
	for _, scope := range ad.Scopes() {
		out[scope] = s.Provider(scope)
	}
	return out
}

// Document converts the snapshot back to its file form with normalized values
func (s *Snapshot) Document() Document {
	var doc Document
	for _, scope := range ad.Scopes() {
		var entries []Entry
		for _, e := range s.timeframes[scope].Entries() {
			entries = append(entries, Entry{Kind: string(e.Kind), Timeframe: e.Timeframe.String(), Params: plain(e.Values)})
		}
		for _, e := range s.symbols[scope].Entries() {
			entries = append(entries, Entry{
				Kind: string(e.Kind), Symbol: e.Symbol, Timeframe: e.Timeframe.String(), Params: plain(e.Values),
			})
		}
		if scope == ad.ScopeIndicator {
			doc.Indicator = entries
		} else {
			doc.Strategy = entries
		}
	}
	return doc
}

func plain(l params.Layer) map[string]interface{} {
	out := make(map[string]interface{}, len(l))
	for f, v := range l {
		out[string(f)] = v.Interface()
	}
	return out
}

// Open loads a snapshot from a YAML/JSON file or a SQLite store, chosen by extension
func Open(ctx context.Context, path string, reg *ad.Registry, logger zerolog.Logger) (*Snapshot, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return LoadFile(path, reg)
	case ".db", ".sqlite", ".sqlite3":
		return LoadStore(ctx, path, reg, logger)
	}
	return nil, perrors.NewMissingSourceError("source", path, fmt.Errorf("unsupported source type %q", filepath.Ext(path)))
}
