package params

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	perrors "github.com/ducminhle1904/ad-params/internal/errors"
	"github.com/ducminhle1904/ad-params/internal/monitoring"
)

// ResolverConfig wires the layers of one parameter scope
type ResolverConfig struct {
	// Name labels logs and metrics, defaults to the table name
	Name       string
	Defaults   *DefaultsTable
	Timeframes *TimeframeOverrideSet
	Symbols    *SymbolTimeframeOverrideSet
	Mode       FeatureMode

	// Provider supplies the top layer in ModeExternalConfig
	Provider OverrideProvider
	// Input is the user layer in ModeUserInput
	Input Layer
	// Sweep holds the ranges in ModeOptimize
	Sweep SweepSpec

	Logger zerolog.Logger
}

// Resolver merges defaults, timeframe overrides, symbol/timeframe overrides and the
// mode layer into validated parameter sets. Resolved sets are cached per key.
type Resolver struct {
	name       string
	defaults   *DefaultsTable
	timeframes *TimeframeOverrideSet
	symbols    *SymbolTimeframeOverrideSet
	mode       FeatureMode
	provider   OverrideProvider
	input      Layer
	sweep      []sweepDim
	sweepSize  int
	logger     zerolog.Logger

	mu    sync.RWMutex
	cache map[Key]*ParameterSet
}

// NewResolver validates the configuration against the active mode. All problems
// are reported together; nothing is returned on error.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Defaults == nil {
		return nil, perrors.NewMissingSourceError(cfg.Name, "defaults table", nil)
	}
	name := cfg.Name
	if name == "" {
		name = cfg.Defaults.Name()
	}

	r := &Resolver{
		name:       name,
		defaults:   cfg.Defaults,
		timeframes: cfg.Timeframes,
		symbols:    cfg.Symbols,
		mode:       cfg.Mode,
		logger:     cfg.Logger.With().Str("component", "resolver").Str("table", name).Logger(),
		cache:      make(map[Key]*ParameterSet),
	}

	report := perrors.NewReport(name)
	if !cfg.Mode.Valid() {
		report.Add(perrors.NewModeMismatchError(name, "init", fmt.Sprintf("unsupported feature mode %s", cfg.Mode)))
	}
	if cfg.Provider != nil && cfg.Mode != ModeExternalConfig {
		report.Add(perrors.NewModeMismatchError(name, "init", "override provider given in mode "+cfg.Mode.String()))
	}
	if len(cfg.Input) > 0 && cfg.Mode != ModeUserInput {
		report.Add(perrors.NewModeMismatchError(name, "init", "user input given in mode "+cfg.Mode.String()))
	}
	if len(cfg.Sweep) > 0 && cfg.Mode != ModeOptimize {
		report.Add(perrors.NewModeMismatchError(name, "init", "sweep ranges given in mode "+cfg.Mode.String()))
	}

	switch cfg.Mode {
	case ModeExternalConfig:
		if cfg.Provider == nil {
			report.Add(perrors.NewMissingSourceError(name, "override provider", nil))
		}
		r.provider = cfg.Provider
	case ModeUserInput:
		input, err := cfg.Defaults.CheckLayer("user input", cfg.Input)
		if err != nil {
			report.Add(err)
		}
		r.input = input
	case ModeOptimize:
		dims, total, err := sweepDims(cfg.Defaults, cfg.Sweep)
		if err != nil {
			report.Add(err)
		}
		r.sweep, r.sweepSize = dims, total
	}

	if err := report.Err(); err != nil {
		for _, e := range report.Unwrap() {
			category, _ := perrors.CategoryOf(e)
			monitoring.RecordLoadError(string(category))
		}
		return nil, err
	}

	r.logger.Debug().
		Str("mode", r.mode.String()).
		Int("fields", r.defaults.Len()).
		Int("timeframe_overrides", r.timeframes.Len()).
		Int("symbol_overrides", r.symbols.Len()).
		Msg("Resolver initialized")
	if r.mode == ModeOptimize {
		monitoring.SetSweepSize(r.name, r.sweepSize)
	}
	return r, nil
}

// Name returns the resolver label
func (r *Resolver) Name() string { return r.name }

// Mode returns the active feature mode
func (r *Resolver) Mode() FeatureMode { return r.mode }

// Defaults returns the field registry
func (r *Resolver) Defaults() *DefaultsTable { return r.defaults }

// Resolve returns the validated parameter set for the key. It fails with
// ErrModeMismatch in ModeOptimize and with ErrInvalidValue when the merged set
// violates a field constraint. Failures are not cached.
func (r *Resolver) Resolve(ctx context.Context, kind StrategyKind, symbol string, tf Timeframe) (*ParameterSet, error) {
	if r.mode == ModeOptimize {
		return nil, perrors.NewModeMismatchError(r.name, "resolve", "resolver is in optimize mode, use Sweep")
	}
	key, err := r.key(kind, symbol, tf)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	monitoring.RecordCacheLookup(r.name, ok)
	if ok {
		return cached, nil
	}

	ps, err := r.merge(ctx, key)
	if err == nil {
		err = validateSet(r.name, r.defaults, ps)
	}
	if err != nil {
		monitoring.RecordResolution(r.name, "error")
		r.logger.Warn().Err(err).Str("key", key.String()).Msg("Resolution failed")
		return nil, err
	}
	monitoring.RecordResolution(r.name, "ok")

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cache[key]; ok {
		return existing, nil
	}
	r.cache[key] = ps
	return ps, nil
}

// Sweep returns the optimization sequence for the key. It fails with
// ErrModeMismatch outside ModeOptimize.
func (r *Resolver) Sweep(ctx context.Context, kind StrategyKind, symbol string, tf Timeframe) (*Sweep, error) {
	if r.mode != ModeOptimize {
		return nil, perrors.NewModeMismatchError(r.name, "sweep", "resolver is in "+r.mode.String()+" mode, use Resolve")
	}
	key, err := r.key(kind, symbol, tf)
	if err != nil {
		return nil, err
	}
	base, err := r.merge(ctx, key)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("key", key.String()).Int("points", r.sweepSize).Msg("Sweep prepared")
	return &Sweep{
		name:   r.name,
		base:   base,
		specs:  r.defaults,
		dims:   r.sweep,
		total:  r.sweepSize,
		logger: r.logger,
	}, nil
}

// Layers returns the layers contributing to the key, lowest first. Empty override
// layers are omitted; the defaults layer is always present.
func (r *Resolver) Layers(ctx context.Context, kind StrategyKind, symbol string, tf Timeframe) ([]NamedLayer, error) {
	key, err := r.key(kind, symbol, tf)
	if err != nil {
		return nil, err
	}
	return r.layers(ctx, key)
}

// Purge drops every cached set, e.g. after the external source changed
func (r *Resolver) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[Key]*ParameterSet)
}

func (r *Resolver) key(kind StrategyKind, symbol string, tf Timeframe) (Key, error) {
	if !tf.Valid() {
		return Key{}, perrors.NewInvalidValueError(r.name, "timeframe", fmt.Sprint(int(tf)), "unknown timeframe")
	}
	return Key{Kind: kind, Symbol: NormalizeSymbol(symbol), Timeframe: tf}, nil
}

func (r *Resolver) layers(ctx context.Context, key Key) ([]NamedLayer, error) {
	out := []NamedLayer{{Origin: OriginDefault, Values: r.defaults.Values()}}
	if l := r.timeframes.Lookup(key.Kind, key.Timeframe); len(l) > 0 {
		out = append(out, NamedLayer{Origin: OriginTimeframe, Values: l})
	}
	if l := r.symbols.Lookup(key.Kind, key.Symbol, key.Timeframe); len(l) > 0 {
		out = append(out, NamedLayer{Origin: OriginSymbol, Values: l})
	}

	switch r.mode {
	case ModeExternalConfig:
		raw, err := r.provider.Load(ctx, key.Kind, key.Symbol, key.Timeframe)
		if err != nil {
			monitoring.RecordLoadError(string(perrors.ErrorCategoryMissingSource))
			if _, ok := perrors.CategoryOf(err); ok {
				return nil, err
			}
			return nil, perrors.NewMissingSourceError(r.name, key.String(), err)
		}
		l, err := r.defaults.CheckLayer("external "+key.String(), raw)
		if err != nil {
			return nil, err
		}
		if len(l) > 0 {
			out = append(out, NamedLayer{Origin: OriginExternal, Values: l})
		}
	case ModeUserInput:
		if len(r.input) > 0 {
			out = append(out, NamedLayer{Origin: OriginInput, Values: r.input.Clone()})
		}
	}
	return out, nil
}

// merge applies the layers in order; the last writer wins per field
func (r *Resolver) merge(ctx context.Context, key Key) (*ParameterSet, error) {
	layers, err := r.layers(ctx, key)
	if err != nil {
		return nil, err
	}
	ps := newParameterSet(key, r.defaults)
	for _, l := range layers[1:] {
		ps.apply(l.Origin, l.Values)
	}
	return ps, nil
}

// validateSet checks every field against its constraint and reports all violations
func validateSet(component string, defaults *DefaultsTable, ps *ParameterSet) error {
	report := perrors.NewReport(component)
	for _, spec := range defaults.specs {
		if err := spec.Validate(component, ps.values[spec.Name]); err != nil {
			if pe, ok := err.(*perrors.ParamError); ok {
				pe.WithContext("key", ps.key.String()).WithContext("origin", string(ps.origin[spec.Name]))
			}
			report.Add(err)
		}
	}
	return report.Err()
}
