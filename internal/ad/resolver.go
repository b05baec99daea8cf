package ad

import (
	"context"
	"fmt"
	"iter"

	"github.com/rs/zerolog"

	perrors "github.com/ducminhle1904/ad-params/internal/errors"
	"github.com/ducminhle1904/ad-params/internal/monitoring"
	"github.com/ducminhle1904/ad-params/internal/workerpool"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

// Config selects the parameter source for both scopes
type Config struct {
	Mode params.FeatureMode

	// Providers feed ModeExternalConfig, one per scope
	Providers map[Scope]params.OverrideProvider
	// Input feeds ModeUserInput
	Input map[Scope]params.Layer
	// Sweep feeds ModeOptimize; a scope without ranges sweeps a single point
	Sweep map[Scope]params.SweepSpec

	Logger zerolog.Logger
}

// Params is a resolved indicator and strategy pair for one symbol and timeframe
type Params struct {
	Indicator *params.ParameterSet
	Strategy  *params.ParameterSet
}

// Bind returns the typed views of both sets
func (p Params) Bind() (IndicatorParams, StrategyParams, error) {
	indi, err := BindIndicator(p.Indicator)
	if err != nil {
		return IndicatorParams{}, StrategyParams{}, err
	}
	stg, err := BindStrategy(p.Strategy)
	if err != nil {
		return IndicatorParams{}, StrategyParams{}, err
	}
	return indi, stg, nil
}

// Resolver resolves both scopes of the AD strategy from the shipped tables and the
// configured mode layer
type Resolver struct {
	registry  *Registry
	mode      params.FeatureMode
	resolvers map[Scope]*params.Resolver
	logger    zerolog.Logger
}

// NewResolver loads the shipped tables and builds a resolver per scope. Every load
// problem of both scopes is reported at once.
func NewResolver(cfg Config) (*Resolver, error) {
	logger := cfg.Logger.With().Str("component", "ad").Logger()
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		registry:  registry,
		mode:      cfg.Mode,
		resolvers: make(map[Scope]*params.Resolver, 2),
		logger:    logger,
	}

	report := perrors.NewReport("ad")
	for _, s := range Scopes() {
		table := registry.Table(s)
		tfs, err := params.NewTimeframeOverrideSet(table, TimeframeTables(s)...)
		if err != nil {
			report.Add(err)
			continue
		}
		syms, err := params.NewSymbolTimeframeOverrideSet(table, SymbolTables(s)...)
		if err != nil {
			report.Add(err)
			continue
		}

		rc := params.ResolverConfig{
			Name:       table.Name(),
			Defaults:   table,
			Timeframes: tfs,
			Symbols:    syms,
			Mode:       cfg.Mode,
			Provider:   cfg.Providers[s],
			Input:      cfg.Input[s],
			Sweep:      cfg.Sweep[s],
			Logger:     cfg.Logger,
		}
		res, err := params.NewResolver(rc)
		if err != nil {
			report.Add(err)
			continue
		}
		r.resolvers[s] = res
	}
	if err := report.Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to load AD parameter tables")
		return nil, err
	}

	logger.Info().Str("mode", cfg.Mode.String()).Msg("AD parameter tables loaded")
	return r, nil
}

// Registry returns the field registry of both scopes
func (r *Resolver) Registry() *Registry { return r.registry }

// Mode returns the active feature mode
func (r *Resolver) Mode() params.FeatureMode { return r.mode }

// Scope returns the resolver of one scope
func (r *Resolver) Scope(s Scope) *params.Resolver { return r.resolvers[s] }

// Resolve returns both resolved sets for the symbol and timeframe
func (r *Resolver) Resolve(ctx context.Context, symbol string, tf params.Timeframe) (Params, error) {
	indi, err := r.resolvers[ScopeIndicator].Resolve(ctx, Kind, symbol, tf)
	if err != nil {
		return Params{}, err
	}
	stg, err := r.resolvers[ScopeStrategy].Resolve(ctx, Kind, symbol, tf)
	if err != nil {
		return Params{}, err
	}
	return Params{Indicator: indi, Strategy: stg}, nil
}

// Layers returns the contributing layers of one scope
func (r *Resolver) Layers(ctx context.Context, s Scope, symbol string, tf params.Timeframe) ([]params.NamedLayer, error) {
	res, ok := r.resolvers[s]
	if !ok {
		return nil, fmt.Errorf("unknown scope %q", s)
	}
	return res.Layers(ctx, Kind, symbol, tf)
}

// Purge drops the cached sets of both scopes
func (r *Resolver) Purge() {
	for _, res := range r.resolvers {
		res.Purge()
	}
}

// Sweep returns the joint optimization sequence of both scopes
func (r *Resolver) Sweep(ctx context.Context, symbol string, tf params.Timeframe) (*Sweep, error) {
	indi, err := r.resolvers[ScopeIndicator].Sweep(ctx, Kind, symbol, tf)
	if err != nil {
		return nil, err
	}
	stg, err := r.resolvers[ScopeStrategy].Sweep(ctx, Kind, symbol, tf)
	if err != nil {
		return nil, err
	}
	if indi.Len() > params.MaxSweepPoints/stg.Len() {
		return nil, perrors.NewInvalidValueError("ad.sweep", "sweep", indi.Len()*stg.Len(),
			fmt.Sprintf("exceeds %d points", params.MaxSweepPoints))
	}
	monitoring.SetSweepSize("ad", indi.Len()*stg.Len())
	return &Sweep{Indicator: indi, Strategy: stg, logger: r.logger}, nil
}

// Sweep is the Cartesian product of the indicator and strategy sweeps. The strategy
// sweep varies fastest.
type Sweep struct {
	Indicator *params.Sweep
	Strategy  *params.Sweep
	logger    zerolog.Logger
}

// Len returns the number of points
func (s *Sweep) Len() int { return s.Indicator.Len() * s.Strategy.Len() }

// Fields returns the swept fields per scope
func (s *Sweep) Fields() map[Scope][]params.Field {
	return map[Scope][]params.Field{
		ScopeIndicator: s.Indicator.Fields(),
		ScopeStrategy:  s.Strategy.Fields(),
	}
}

// At builds the i-th point
func (s *Sweep) At(i int) (Params, error) {
	if i < 0 || i >= s.Len() {
		return Params{}, fmt.Errorf("sweep index %d out of range [0,%d)", i, s.Len())
	}
	n := s.Strategy.Len()
	indi, err := s.Indicator.At(i / n)
	if err != nil {
		return Params{}, err
	}
	stg, err := s.Strategy.At(i % n)
	if err != nil {
		return Params{}, err
	}
	return Params{Indicator: indi, Strategy: stg}, nil
}

// All iterates every point in index order. Each call starts over.
func (s *Sweep) All() iter.Seq2[Params, error] {
	return func(yield func(Params, error) bool) {
		for i := 0; i < s.Len(); i++ {
			p, err := s.At(i)
			if !yield(p, err) {
				return
			}
		}
	}
}

// Run evaluates every valid point with fn on a pool of workers
func (s *Sweep) Run(ctx context.Context, workers int, fn func(ctx context.Context, index int, p Params) error) error {
	pool := workerpool.NewWorkerPool(ctx, workers, func(ctx context.Context, index int) error {
		p, err := s.At(index)
		if err != nil {
			s.logger.Warn().Err(err).Int("index", index).Msg("Skipping invalid sweep point")
			return nil
		}
		monitoring.RecordSweepPoint("ad")
		return fn(ctx, index, p)
	})
	return pool.Run(s.Len())
}
