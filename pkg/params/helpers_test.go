package params

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	fLotSize      Field = "lot_size"
	fOpenMethod   Field = "signal_open_method"
	fOpenFilter   Field = "signal_open_filter"
	fOpenLevel    Field = "signal_open_level"
	fMaxSpread    Field = "max_spread"
	fIndiFile     Field = "indi_file"
	testKind            = StrategyKind("AD")
	testIndicator       = "\\Indicators\\Examples\\AD.ex5"
)

func newTestDefaults(t *testing.T) *DefaultsTable {
	t.Helper()
	d, err := NewDefaultsTable("test",
		FloatField(fLotSize, 0, NonNegative()),
		IntField(fOpenMethod, 0),
		IntField(fOpenFilter, 1, BitFlags()),
		FloatField(fOpenLevel, 0),
		IntField(fMaxSpread, 4, NonNegative()),
		StringField(fIndiFile, testIndicator),
	)
	require.NoError(t, err)
	return d
}

// newTestResolver builds a resolver with signal_open_level overridden to 5 on H1
// and to 9 on EURUSD/H1
func newTestResolver(t *testing.T, cfg ResolverConfig) *Resolver {
	t.Helper()
	d := newTestDefaults(t)
	tfs, err := NewTimeframeOverrideSet(d, TimeframeOverride{
		Kind: testKind, Timeframe: H1, Values: Layer{fOpenLevel: Float(5)}, Source: "H1 table",
	})
	require.NoError(t, err)
	syms, err := NewSymbolTimeframeOverrideSet(d, SymbolTimeframeOverride{
		Kind: testKind, Symbol: "EURUSD", Timeframe: H1, Values: Layer{fOpenLevel: Float(9)}, Source: "EURUSD_H1 table",
	})
	require.NoError(t, err)

	cfg.Defaults = d
	cfg.Timeframes = tfs
	cfg.Symbols = syms
	if cfg.Mode == 0 {
		cfg.Mode = ModeInlineDefaults
	}
	cfg.Logger = zerolog.Nop()
	r, err := NewResolver(cfg)
	require.NoError(t, err)
	return r
}
