package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/ad-params/internal/ad"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

func TestFields(t *testing.T) {
	reg, err := ad.NewRegistry()
	require.NoError(t, err)

	var buf bytes.Buffer
	Fields(&buf, reg)
	out := buf.String()
	assert.Contains(t, out, "signal_open_method")
	assert.Contains(t, out, "indi_file")
	assert.Contains(t, out, "bit flags")
}

func TestParamsAndLayers(t *testing.T) {
	r, err := ad.NewResolver(ad.Config{Mode: params.ModeInlineDefaults, Logger: zerolog.Nop()})
	require.NoError(t, err)
	ctx := context.Background()

	p, err := r.Resolve(ctx, "EURUSD", params.M15)
	require.NoError(t, err)

	var buf bytes.Buffer
	Params(&buf, p)
	assert.Contains(t, buf.String(), "EURUSD M15")
	assert.Contains(t, buf.String(), "-4")
	assert.Contains(t, buf.String(), "symbol")

	layers, err := r.Layers(ctx, ad.ScopeStrategy, "EURUSD", params.M15)
	require.NoError(t, err)
	buf.Reset()
	Layers(&buf, ad.ScopeStrategy, layers)
	assert.Contains(t, buf.String(), "timeframe")
	assert.Contains(t, buf.String(), "price_profit_level=16")
}

func newSweep(t *testing.T, ranges ...string) *ad.Sweep {
	t.Helper()
	reg, err := ad.NewRegistry()
	require.NoError(t, err)
	spec, err := reg.ParseSweep(ranges)
	require.NoError(t, err)
	r, err := ad.NewResolver(ad.Config{Mode: params.ModeOptimize, Sweep: spec, Logger: zerolog.Nop()})
	require.NoError(t, err)
	s, err := r.Sweep(context.Background(), "EURUSD", params.H1)
	require.NoError(t, err)
	return s
}

func TestSweepSummary(t *testing.T) {
	s := newSweep(t, "signal_open_level=1:3:1", "max_spread=0:2:1")

	var buf bytes.Buffer
	SweepSummary(&buf, s)
	assert.Contains(t, buf.String(), "1:3:1")
	assert.Contains(t, buf.String(), "9")
}

func TestWriteSweepXLSX(t *testing.T) {
	s := newSweep(t, "lot_size=-1:1:1", "signal_open_level=1:2:1")
	path := filepath.Join(t.TempDir(), "sweep.xlsx")

	valid, err := WriteSweepXLSX(path, SweepRun{ID: "run-1", Symbol: "EURUSD", Timeframe: params.H1, Started: time.Now()}, s)
	require.NoError(t, err)
	assert.Equal(t, 4, valid)

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	rows, err := fx.GetRows(pointsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"Index", "strategy.lot_size", "strategy.signal_open_level", "Error"}, rows[0])
	// lot_size=-1 points carry their validation error
	assert.Contains(t, rows[1][3], "lot_size")
	assert.Equal(t, "0", rows[3][1])

	id, err := fx.GetCellValue(runSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)
}
