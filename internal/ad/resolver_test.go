package ad

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/ad-params/pkg/params"
)

func newInlineResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(Config{Mode: params.ModeInlineDefaults, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return r
}

func TestRegistry_DefaultsSatisfyConstraints(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	for _, s := range Scopes() {
		table := reg.Table(s)
		for _, spec := range table.Specs() {
			assert.NoError(t, spec.Validate(table.Name(), spec.Default), "%s.%s", s, spec.Name)
		}
	}

	scope, ok := reg.ScopeOf(Shift)
	assert.True(t, ok)
	assert.Equal(t, ScopeIndicator, scope)
	scope, ok = reg.ScopeOf(MaxSpread)
	assert.True(t, ok)
	assert.Equal(t, ScopeStrategy, scope)
	_, ok = reg.ScopeOf("lot_sizee")
	assert.False(t, ok)
}

func TestResolver_ShippedTables(t *testing.T) {
	r := newInlineResolver(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		symbol string
		tf     params.Timeframe
		want   StrategyParams
	}{
		{
			name: "EURUSD M15 symbol table", symbol: "EURUSD", tf: params.M15,
			want: StrategyParams{
				SignalOpenMethod: -4, SignalOpenFilter: 24, SignalOpenLevel: 7, SignalOpenBoost: 1,
				SignalCloseLevel: 0.1, PriceProfitMethod: 60, PriceProfitLevel: 16,
				PriceStopLevel: 2, TickFilterMethod: 1,
			},
		},
		{
			name: "GBPUSD M15 falls back to the timeframe table", symbol: "GBPUSD", tf: params.M15,
			want: StrategyParams{
				SignalOpenMethod: 2, SignalOpenFilter: 1, SignalOpenBoost: 1, SignalCloseMethod: 2,
				PriceProfitMethod: 60, PriceProfitLevel: 16, PriceStopMethod: 60, PriceStopLevel: 16,
				TickFilterMethod: 32,
			},
		},
		{
			name: "EURUSD H4 keeps profit settings of the timeframe table", symbol: "EURUSD", tf: params.H4,
			want: StrategyParams{
				SignalOpenFilter: 1, SignalOpenLevel: 1, SignalCloseLevel: 1,
				PriceProfitMethod: 60, PriceProfitLevel: 6, PriceStopLevel: 2, TickFilterMethod: 1,
			},
		},
		{
			name: "EURUSD M30 negative close method", symbol: "eurusd", tf: params.M30,
			want: StrategyParams{
				SignalOpenMethod: -1, SignalOpenFilter: 1, SignalOpenLevel: 40, SignalCloseMethod: -3,
				SignalCloseLevel: 40, PriceStopLevel: 2, TickFilterMethod: 1,
			},
		},
		{
			name: "no tables for D1", symbol: "EURUSD", tf: params.D1,
			want: StrategyParams{SignalOpenFilter: 1, PriceStopLevel: 2, TickFilterMethod: 1, MaxSpread: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Resolve(ctx, tt.symbol, tt.tf)
			require.NoError(t, err)

			indi, stg, err := p.Bind()
			require.NoError(t, err)
			assert.Equal(t, tt.want, stg)
			assert.Equal(t, IndicatorParams{IndiFile: IndiFile}, indi)
		})
	}
}

func TestResolver_IndicatorOrigins(t *testing.T) {
	r := newInlineResolver(t)
	ctx := context.Background()

	// EURUSD M5 ships no indicator table, the M5 timeframe table applies
	p, err := r.Resolve(ctx, "EURUSD", params.M5)
	require.NoError(t, err)
	assert.Equal(t, params.OriginTimeframe, p.Indicator.Origin(Shift))
	assert.Equal(t, params.OriginSymbol, p.Strategy.Origin(SignalOpenMethod))

	p, err = r.Resolve(ctx, "EURUSD", params.H1)
	require.NoError(t, err)
	assert.Equal(t, params.OriginSymbol, p.Indicator.Origin(Shift))

	p, err = r.Resolve(ctx, "USDJPY", params.H1)
	require.NoError(t, err)
	assert.Equal(t, params.OriginDefault, p.Indicator.Origin(Shift))
}

func TestResolver_UserInput(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	input, err := reg.ParseInput([]string{"shift=1", "lot_size=0.05", "signal_open_level=12"})
	require.NoError(t, err)
	assert.Len(t, input[ScopeIndicator], 1)
	assert.Len(t, input[ScopeStrategy], 2)

	r, err := NewResolver(Config{Mode: params.ModeUserInput, Input: input, Logger: zerolog.Nop()})
	require.NoError(t, err)

	p, err := r.Resolve(context.Background(), "EURUSD", params.M15)
	require.NoError(t, err)
	indi, stg, err := p.Bind()
	require.NoError(t, err)
	assert.Equal(t, 1, indi.Shift)
	assert.Equal(t, 0.05, stg.LotSize)
	assert.Equal(t, 12.0, stg.SignalOpenLevel)
	assert.Equal(t, -4, stg.SignalOpenMethod)
}

func TestRegistry_ParseInputUnknownField(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	_, err = reg.ParseInput([]string{"lot_sizee=0.1"})
	assert.True(t, errors.Is(err, params.ErrUnknownField))
}

func TestResolver_ExternalConfigNeedsBothProviders(t *testing.T) {
	empty := params.ProviderFunc(func(context.Context, params.StrategyKind, string, params.Timeframe) (params.Layer, error) {
		return nil, nil
	})

	_, err := NewResolver(Config{
		Mode:      params.ModeExternalConfig,
		Providers: map[Scope]params.OverrideProvider{ScopeStrategy: empty},
		Logger:    zerolog.Nop(),
	})
	assert.True(t, errors.Is(err, params.ErrMissingSource))
}

func TestResolver_InputOutsideUserInputMode(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	input, err := reg.ParseInput([]string{"lot_size=0.1"})
	require.NoError(t, err)

	_, err = NewResolver(Config{Mode: params.ModeInlineDefaults, Input: input, Logger: zerolog.Nop()})
	assert.True(t, errors.Is(err, params.ErrModeMismatch))
}

func TestResolver_Sweep(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	ranges, err := reg.ParseSweep([]string{"shift=0:1:1", "signal_open_level=1:3:1"})
	require.NoError(t, err)

	r, err := NewResolver(Config{Mode: params.ModeOptimize, Sweep: ranges, Logger: zerolog.Nop()})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = r.Resolve(ctx, "EURUSD", params.H1)
	assert.True(t, errors.Is(err, params.ErrModeMismatch))

	s, err := r.Sweep(ctx, "EURUSD", params.H1)
	require.NoError(t, err)
	require.Equal(t, 6, s.Len())

	var got [][2]float64
	for p, err := range s.All() {
		require.NoError(t, err)
		got = append(got, [2]float64{float64(p.Indicator.Int(Shift)), p.Strategy.Float(SignalOpenLevel)})
		// the EURUSD H1 table still applies to fields that are not swept
		assert.Equal(t, 0.1, p.Strategy.Float(SignalCloseLevel))
	}
	assert.Equal(t, [][2]float64{{0, 1}, {0, 2}, {0, 3}, {1, 1}, {1, 2}, {1, 3}}, got)

	var count atomic.Int64
	err = s.Run(ctx, 2, func(context.Context, int, Params) error {
		count.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), count.Load())
}
