package ad

import (
	"fmt"

	"github.com/ducminhle1904/ad-params/pkg/params"
)

// IndicatorParams is the typed view of a resolved indicator set
type IndicatorParams struct {
	Shift          int    `json:"shift"`
	DataSourceType int    `json:"data_source_type"`
	IndiFile       string `json:"indi_file"`
}

// StrategyParams is the typed view of a resolved strategy set
type StrategyParams struct {
	LotSize           float64 `json:"lot_size"`
	SignalOpenMethod  int     `json:"signal_open_method"`
	SignalOpenFilter  int     `json:"signal_open_filter"`
	SignalOpenLevel   float64 `json:"signal_open_level"`
	SignalOpenBoost   int     `json:"signal_open_boost"`
	SignalCloseMethod int     `json:"signal_close_method"`
	SignalCloseLevel  float64 `json:"signal_close_level"`
	PriceProfitMethod int     `json:"price_profit_method"`
	PriceProfitLevel  float64 `json:"price_profit_level"`
	PriceStopMethod   int     `json:"price_stop_method"`
	PriceStopLevel    float64 `json:"price_stop_level"`
	TickFilterMethod  int     `json:"tick_filter_method"`
	MaxSpread         int     `json:"max_spread"`
}

// BindIndicator copies a resolved indicator set into its typed view
func BindIndicator(ps *params.ParameterSet) (IndicatorParams, error) {
	if err := checkScope(ps, Shift); err != nil {
		return IndicatorParams{}, err
	}
	return IndicatorParams{
		Shift:          int(ps.Int(Shift)),
		DataSourceType: int(ps.Int(DataSourceType)),
		IndiFile:       ps.Text(IndiFileField),
	}, nil
}

// BindStrategy copies a resolved strategy set into its typed view
func BindStrategy(ps *params.ParameterSet) (StrategyParams, error) {
	if err := checkScope(ps, SignalOpenMethod); err != nil {
		return StrategyParams{}, err
	}
	return StrategyParams{
		LotSize:           ps.Float(LotSize),
		SignalOpenMethod:  int(ps.Int(SignalOpenMethod)),
		SignalOpenFilter:  int(ps.Int(SignalOpenFilter)),
		SignalOpenLevel:   ps.Float(SignalOpenLevel),
		SignalOpenBoost:   int(ps.Int(SignalOpenBoost)),
		SignalCloseMethod: int(ps.Int(SignalCloseMethod)),
		SignalCloseLevel:  ps.Float(SignalCloseLevel),
		PriceProfitMethod: int(ps.Int(PriceProfitMethod)),
		PriceProfitLevel:  ps.Float(PriceProfitLevel),
		PriceStopMethod:   int(ps.Int(PriceStopMethod)),
		PriceStopLevel:    ps.Float(PriceStopLevel),
		TickFilterMethod:  int(ps.Int(TickFilterMethod)),
		MaxSpread:         int(ps.Int(MaxSpread)),
	}, nil
}

func checkScope(ps *params.ParameterSet, marker params.Field) error {
	if ps == nil {
		return fmt.Errorf("bind: nil parameter set")
	}
	if _, ok := ps.Get(marker); !ok {
		return fmt.Errorf("bind %s: set has no %s field", ps.Key(), marker)
	}
	return nil
}
