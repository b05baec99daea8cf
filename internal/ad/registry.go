// Package ad holds the Accumulation/Distribution strategy parameter registry, the
// shipped override tables and a resolver covering both the indicator and the
// strategy scope.
package ad

import (
	"fmt"
	"strings"

	perrors "github.com/ducminhle1904/ad-params/internal/errors"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

// Kind is the strategy kind every AD table is registered under
const Kind params.StrategyKind = "AD"

// IndiFile is the indicator resource loaded by the platform
const IndiFile = "\\Indicators\\Examples\\AD.ex5"

// Scope separates indicator parameters from strategy parameters
type Scope string

const (
	ScopeIndicator Scope = "indicator"
	ScopeStrategy  Scope = "strategy"
)

// Scopes returns both scopes in resolution order
func Scopes() []Scope { return []Scope{ScopeIndicator, ScopeStrategy} }

// Indicator fields
const (
	Shift          params.Field = "shift"
	DataSourceType params.Field = "data_source_type"
	IndiFileField  params.Field = "indi_file"
)

// Strategy fields
const (
	LotSize           params.Field = "lot_size"
	SignalOpenMethod  params.Field = "signal_open_method"
	SignalOpenFilter  params.Field = "signal_open_filter"
	SignalOpenLevel   params.Field = "signal_open_level"
	SignalOpenBoost   params.Field = "signal_open_boost"
	SignalCloseMethod params.Field = "signal_close_method"
	SignalCloseLevel  params.Field = "signal_close_level"
	PriceProfitMethod params.Field = "price_profit_method"
	PriceProfitLevel  params.Field = "price_profit_level"
	PriceStopMethod   params.Field = "price_stop_method"
	PriceStopLevel    params.Field = "price_stop_level"
	TickFilterMethod  params.Field = "tick_filter_method"
	MaxSpread         params.Field = "max_spread"
)

func indicatorFields() []params.FieldSpec {
	return []params.FieldSpec{
		params.IntField(Shift, 0, params.NonNegative(), params.Doc("bar shift the indicator value is read at")),
		params.IntField(DataSourceType, 0, params.NonNegative(), params.Doc("indicator data source (0 built-in)")),
		params.StringField(IndiFileField, IndiFile, params.Doc("indicator resource path")),
	}
}

func strategyFields() []params.FieldSpec {
	return []params.FieldSpec{
		params.FloatField(LotSize, 0, params.NonNegative(), params.Doc("lot size, 0 for auto")),
		params.IntField(SignalOpenMethod, 0, params.Doc("signal open method, negative values invert the comparison")),
		params.IntField(SignalOpenFilter, 1, params.BitFlags(), params.Doc("signal open filter flags")),
		params.FloatField(SignalOpenLevel, 0, params.Doc("signal open level")),
		params.IntField(SignalOpenBoost, 0, params.Doc("signal open boost method")),
		params.IntField(SignalCloseMethod, 0, params.Doc("signal close method")),
		params.FloatField(SignalCloseLevel, 0, params.Doc("signal close level")),
		params.IntField(PriceProfitMethod, 0, params.Doc("price profit method")),
		params.FloatField(PriceProfitLevel, 0, params.Doc("price profit level")),
		params.IntField(PriceStopMethod, 0, params.Doc("price stop method")),
		params.FloatField(PriceStopLevel, 2, params.Doc("price stop level")),
		params.IntField(TickFilterMethod, 1, params.BitFlags(), params.Doc("tick filter flags")),
		params.IntField(MaxSpread, 4, params.NonNegative(), params.Doc("max spread to trade, in pips")),
	}
}

// Registry holds the defaults table of each scope
type Registry struct {
	Indicator *params.DefaultsTable
	Strategy  *params.DefaultsTable
}

// NewRegistry builds both defaults tables
func NewRegistry() (*Registry, error) {
	report := perrors.NewReport("ad.registry")
	indi, err := params.NewDefaultsTable("ad.indicator", indicatorFields()...)
	report.Add(err)
	stg, err := params.NewDefaultsTable("ad.strategy", strategyFields()...)
	report.Add(err)
	if err := report.Err(); err != nil {
		return nil, err
	}
	return &Registry{Indicator: indi, Strategy: stg}, nil
}

// Table returns the defaults table of a scope
func (r *Registry) Table(s Scope) *params.DefaultsTable {
	switch s {
	case ScopeIndicator:
		return r.Indicator
	case ScopeStrategy:
		return r.Strategy
	}
	return nil
}

// ScopeOf returns the scope a field is registered in
func (r *Registry) ScopeOf(f params.Field) (Scope, bool) {
	for _, s := range Scopes() {
		if _, ok := r.Table(s).Spec(f); ok {
			return s, true
		}
	}
	return "", false
}

// ParseScope parses "indicator" or "strategy"
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeIndicator, "indi":
		return ScopeIndicator, nil
	case ScopeStrategy, "stg":
		return ScopeStrategy, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// split routes "field=..." strings to the scope owning the field
func (r *Registry) split(component string, items []string) (map[Scope][]string, error) {
	report := perrors.NewReport(component)
	out := make(map[Scope][]string, 2)
	for _, item := range items {
		name, _, _ := strings.Cut(item, "=")
		s, ok := r.ScopeOf(params.Field(strings.TrimSpace(name)))
		if !ok {
			report.Add(perrors.NewUnknownFieldError(component, "parse", strings.TrimSpace(name)))
			continue
		}
		out[s] = append(out[s], item)
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseInput builds the per-scope user input layers from "field=value" strings
func (r *Registry) ParseInput(assignments []string) (map[Scope]params.Layer, error) {
	routed, err := r.split("ad.input", assignments)
	if err != nil {
		return nil, err
	}
	report := perrors.NewReport("ad.input")
	out := make(map[Scope]params.Layer, len(routed))
	for s, items := range routed {
		l, err := params.ParseAssignments(r.Table(s), items)
		if err != nil {
			report.Add(err)
			continue
		}
		out[s] = l
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseSweep builds the per-scope sweep ranges from "field=min:max:step" strings
func (r *Registry) ParseSweep(ranges []string) (map[Scope]params.SweepSpec, error) {
	routed, err := r.split("ad.sweep", ranges)
	if err != nil {
		return nil, err
	}
	report := perrors.NewReport("ad.sweep")
	out := make(map[Scope]params.SweepSpec, len(routed))
	for s, items := range routed {
		spec, err := params.ParseSweepSpec(r.Table(s), items)
		if err != nil {
			report.Add(err)
			continue
		}
		out[s] = spec
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
