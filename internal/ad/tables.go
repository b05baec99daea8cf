package ad

import "github.com/ducminhle1904/ad-params/pkg/params"

// Timeframe-generic strategy tables
var strategyTimeframeTables = []params.TimeframeOverride{
	{
		Kind: Kind, Timeframe: params.M5, Source: "config/M5",
		Values: params.Layer{
			LotSize:           params.Float(0),
			SignalOpenMethod:  params.Int(2),
			SignalOpenLevel:   params.Float(0),
			SignalOpenBoost:   params.Int(1),
			SignalCloseMethod: params.Int(2),
			SignalCloseLevel:  params.Float(0),
			PriceProfitMethod: params.Int(60),
			PriceProfitLevel:  params.Float(6),
			PriceStopMethod:   params.Int(60),
			PriceStopLevel:    params.Float(6),
			TickFilterMethod:  params.Int(32),
			MaxSpread:         params.Int(0),
		},
	},
	{
		Kind: Kind, Timeframe: params.M15, Source: "config/M15",
		Values: params.Layer{
			LotSize:           params.Float(0),
			SignalOpenMethod:  params.Int(2),
			SignalOpenLevel:   params.Float(0),
			SignalOpenBoost:   params.Int(1),
			SignalCloseMethod: params.Int(2),
			SignalCloseLevel:  params.Float(0),
			PriceProfitMethod: params.Int(60),
			PriceProfitLevel:  params.Float(16),
			PriceStopMethod:   params.Int(60),
			PriceStopLevel:    params.Float(16),
			TickFilterMethod:  params.Int(32),
			MaxSpread:         params.Int(0),
		},
	},
	{
		Kind: Kind, Timeframe: params.H4, Source: "config/H4",
		Values: params.Layer{
			LotSize:           params.Float(0),
			SignalOpenMethod:  params.Int(2),
			SignalOpenLevel:   params.Float(0),
			SignalOpenBoost:   params.Int(0),
			SignalCloseMethod: params.Int(2),
			SignalCloseLevel:  params.Float(0),
			PriceProfitMethod: params.Int(60),
			PriceProfitLevel:  params.Float(6),
			PriceStopMethod:   params.Int(60),
			PriceStopLevel:    params.Float(6),
			TickFilterMethod:  params.Int(32),
			MaxSpread:         params.Int(0),
		},
	},
}

// eurusd builds an EURUSD strategy layer; the shipped EURUSD tables share lot size,
// filters, stop and spread settings
func eurusd(openMethod int64, openFilter int64, openLevel float64, openBoost int64, closeMethod int64, closeLevel float64) params.Layer {
	return params.Layer{
		LotSize:           params.Float(0),
		SignalOpenMethod:  params.Int(openMethod),
		SignalOpenFilter:  params.Int(openFilter),
		SignalOpenLevel:   params.Float(openLevel),
		SignalOpenBoost:   params.Int(openBoost),
		SignalCloseMethod: params.Int(closeMethod),
		SignalCloseLevel:  params.Float(closeLevel),
		PriceStopMethod:   params.Int(0),
		PriceStopLevel:    params.Float(2),
		TickFilterMethod:  params.Int(1),
		MaxSpread:         params.Int(0),
	}
}

// EURUSD strategy tables
var strategySymbolTables = []params.SymbolTimeframeOverride{
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.M1, Source: "config/EURUSD_M1", Values: eurusd(-1, 1, 40, 0, 0, 20)},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.M5, Source: "config/EURUSD_M5", Values: eurusd(-1, 1, 40, 0, -1, 20)},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.M15, Source: "config/EURUSD_M15", Values: eurusd(-4, 24, 7, 1, 0, 0.1)},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.M30, Source: "config/EURUSD_M30", Values: eurusd(-1, 1, 40, 0, -3, 40)},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.H1, Source: "config/EURUSD_H1", Values: eurusd(0, 1, 0.1, 0, 0, 0.1)},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.H4, Source: "config/EURUSD_H4", Values: eurusd(0, 1, 1, 0, 0, 1)},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.H8, Source: "config/EURUSD_H8", Values: eurusd(0, 1, 0.1, 0, 0, 0.1)},
}

func shiftOnly() params.Layer { return params.Layer{Shift: params.Int(0)} }

// Indicator tables only pin the shift. EURUSD M5 ships no indicator table.
var indicatorTimeframeTables = []params.TimeframeOverride{
	{Kind: Kind, Timeframe: params.M5, Source: "config/M5", Values: shiftOnly()},
	{Kind: Kind, Timeframe: params.M15, Source: "config/M15", Values: shiftOnly()},
	{Kind: Kind, Timeframe: params.H4, Source: "config/H4", Values: shiftOnly()},
}

var indicatorSymbolTables = []params.SymbolTimeframeOverride{
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.M1, Source: "config/EURUSD_M1", Values: shiftOnly()},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.M15, Source: "config/EURUSD_M15", Values: shiftOnly()},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.M30, Source: "config/EURUSD_M30", Values: shiftOnly()},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.H1, Source: "config/EURUSD_H1", Values: shiftOnly()},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.H4, Source: "config/EURUSD_H4", Values: shiftOnly()},
	{Kind: Kind, Symbol: "EURUSD", Timeframe: params.H8, Source: "config/EURUSD_H8", Values: shiftOnly()},
}

// TimeframeTables returns a copy of the shipped timeframe tables of a scope
func TimeframeTables(s Scope) []params.TimeframeOverride {
	src := strategyTimeframeTables
	if s == ScopeIndicator {
		src = indicatorTimeframeTables
	}
	out := make([]params.TimeframeOverride, len(src))
	for i, e := range src {
		e.Values = e.Values.Clone()
		out[i] = e
	}
	return out
}

// SymbolTables returns a copy of the shipped symbol tables of a scope
func SymbolTables(s Scope) []params.SymbolTimeframeOverride {
	src := strategySymbolTables
	if s == ScopeIndicator {
		src = indicatorSymbolTables
	}
	out := make([]params.SymbolTimeframeOverride, len(src))
	for i, e := range src {
		e.Values = e.Values.Clone()
		out[i] = e
	}
	return out
}
