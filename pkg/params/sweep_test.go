package params

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRange(t *testing.T) {
	tests := []struct {
		name  string
		rng   SweepRange
		count int
		last  float64
	}{
		{"unit steps", SweepRange{Min: 1, Max: 3, Step: 1}, 3, 3},
		{"decimal steps", SweepRange{Min: 0, Max: 1, Step: 0.1}, 11, 1},
		{"single point", SweepRange{Min: 2, Max: 2}, 1, 2},
		{"max not on grid", SweepRange{Min: 0, Max: 1, Step: 0.3}, 4, 0.9},
		{"negative range", SweepRange{Min: -4, Max: -1, Step: 1}, 4, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.count, tt.rng.Count())
			assert.Equal(t, tt.last, tt.rng.Value(tt.count-1))
		})
	}

	assert.Equal(t, 0.3, SweepRange{Min: 0, Max: 1, Step: 0.1}.Value(3))
}

func TestParseSweepRange(t *testing.T) {
	r, err := ParseSweepRange("1:3:0.5")
	require.NoError(t, err)
	assert.Equal(t, SweepRange{Min: 1, Max: 3, Step: 0.5}, r)
	assert.Equal(t, "1:3:0.5", r.String())

	r, err = ParseSweepRange("7")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count())

	_, err = ParseSweepRange("1:3")
	assert.Error(t, err)
	_, err = ParseSweepRange("a:b:c")
	assert.Error(t, err)
}

func TestParseSweepSpec(t *testing.T) {
	d := newTestDefaults(t)

	spec, err := ParseSweepSpec(d, []string{"signal_open_level=1:3:1", "max_spread=0:8:2"})
	require.NoError(t, err)
	assert.Len(t, spec, 2)

	tests := []struct {
		name    string
		ranges  []string
		wantErr error
	}{
		{"unknown field", []string{"lot_sizee=0:1:0.1"}, ErrUnknownField},
		{"string field", []string{"indi_file=0:1:1"}, ErrInvalidValue},
		{"fractional step on int", []string{"max_spread=0:2:0.5"}, ErrInvalidValue},
		{"min above max", []string{"signal_open_level=3:1:1"}, ErrInvalidValue},
		{"zero step", []string{"signal_open_level=1:3:0"}, ErrInvalidValue},
		{"repeated field", []string{"max_spread=0:1:1", "max_spread=0:2:1"}, ErrDuplicateOverride},
		{"bad syntax", []string{"max_spread"}, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSweepSpec(d, tt.ranges)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestSweep_SingleField(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{Mode: ModeOptimize, Sweep: SweepSpec{fOpenLevel: {Min: 1, Max: 3, Step: 1}}})

	s, err := r.Sweep(context.Background(), testKind, "GBPUSD", H1)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, []Field{fOpenLevel}, s.Fields())

	var levels []float64
	for ps, err := range s.All() {
		require.NoError(t, err)
		levels = append(levels, ps.Float(fOpenLevel))
		assert.Equal(t, OriginSweep, ps.Origin(fOpenLevel))
		// non-swept fields keep their resolved values
		assert.Equal(t, int64(4), ps.Int(fMaxSpread))
		assert.Equal(t, testIndicator, ps.Text(fIndiFile))
	}
	assert.Equal(t, []float64{1, 2, 3}, levels)

	// the base keeps the layered value
	assert.Equal(t, 5.0, s.Base().Float(fOpenLevel))
}

func TestSweep_Order(t *testing.T) {
	// declared in reverse; iteration follows registry order with the last field fastest
	r := newTestResolver(t, ResolverConfig{Mode: ModeOptimize, Sweep: SweepSpec{
		fOpenLevel:  {Min: 1, Max: 2, Step: 1},
		fOpenMethod: {Min: 0, Max: 1, Step: 1},
	}})

	s, err := r.Sweep(context.Background(), testKind, "EURUSD", H1)
	require.NoError(t, err)
	assert.Equal(t, []Field{fOpenMethod, fOpenLevel}, s.Fields())

	var got []string
	for ps, err := range s.All() {
		require.NoError(t, err)
		got = append(got, fmt.Sprintf("%d/%g", ps.Int(fOpenMethod), ps.Float(fOpenLevel)))
	}
	assert.Equal(t, []string{"0/1", "0/2", "1/1", "1/2"}, got)

	ps, err := s.At(2)
	require.NoError(t, err)
	assert.Equal(t, KindInt, ps.values[fOpenMethod].Kind())
	assert.Equal(t, int64(1), ps.Int(fOpenMethod))
}

func TestSweep_Restartable(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{Mode: ModeOptimize, Sweep: SweepSpec{fOpenLevel: {Min: 0, Max: 1, Step: 0.25}}})
	s, err := r.Sweep(context.Background(), testKind, "EURUSD", H1)
	require.NoError(t, err)

	collect := func() []float64 {
		var out []float64
		for ps, err := range s.All() {
			require.NoError(t, err)
			out = append(out, ps.Float(fOpenLevel))
		}
		return out
	}
	first := collect()
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, first)
	assert.Equal(t, first, collect())

	// early break stops the iteration
	n := 0
	for range s.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)

	_, err = s.At(s.Len())
	assert.Error(t, err)
	_, err = s.At(-1)
	assert.Error(t, err)
}

func TestSweep_InvalidPointIsIsolated(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{Mode: ModeOptimize, Sweep: SweepSpec{fLotSize: {Min: -1, Max: 1, Step: 1}}})
	s, err := r.Sweep(context.Background(), testKind, "EURUSD", H1)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	_, err = s.At(0)
	assert.True(t, errors.Is(err, ErrInvalidValue))

	ps, err := s.At(1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ps.Float(fLotSize))
}

func TestSweep_FineAndLargeRangesKeepEveryPoint(t *testing.T) {
	tests := []struct {
		name  string
		rng   SweepRange
		count int
	}{
		{"tiny step", SweepRange{Min: 0, Max: 1e-9, Step: 1e-10}, 11},
		{"large magnitude", SweepRange{Min: 1e300, Max: 3e300, Step: 1e300}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, ResolverConfig{Mode: ModeOptimize, Sweep: SweepSpec{fOpenLevel: tt.rng}})
			s, err := r.Sweep(context.Background(), testKind, "EURUSD", H1)
			require.NoError(t, err)
			require.Equal(t, tt.count, s.Len())

			seen := make(map[float64]int)
			for ps, err := range s.All() {
				require.NoError(t, err)
				seen[ps.Float(fOpenLevel)]++
			}
			assert.Len(t, seen, tt.count, "points collapsed: %v", seen)
			for i := 0; i < tt.count; i++ {
				assert.InDelta(t, tt.rng.Min+float64(i)*tt.rng.Step, tt.rng.Value(i), tt.rng.Step*1e-6)
			}
		})
	}

	assert.Equal(t, 3e-10, SweepRange{Min: 0, Max: 1e-9, Step: 1e-10}.Value(3))
}

func TestParseSweepSpec_RejectsUnrepresentableRanges(t *testing.T) {
	d := newTestDefaults(t)

	tests := []struct {
		name  string
		input string
	}{
		{"step below float resolution", "signal_open_level=1e16:10000000000000004:0.5"},
		{"too many points", "signal_open_level=0:1:1e-7"},
		{"span overflows", "signal_open_level=-1e308:1e308:1e300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseSweepSpec(d, []string{tt.input})
			assert.Error(t, err)
			assert.Nil(t, spec)
		})
	}

	spec, err := ParseSweepSpec(d, []string{"signal_open_level=1e16:10000000000000004:0.5"})
	assert.True(t, errors.Is(err, ErrInvalidValue), "got %v", err)
	assert.Nil(t, spec)

	// a single point needs no step resolution
	spec, err = ParseSweepSpec(d, []string{"signal_open_level=1e20"})
	require.NoError(t, err)
	assert.Equal(t, 1, spec[fOpenLevel].Count())
}

func TestSweep_TooLarge(t *testing.T) {
	d := newTestDefaults(t)
	_, err := ParseSweepSpec(d, []string{
		"signal_open_level=0:1000:1",
		"signal_open_method=0:1000:1",
		"max_spread=0:1000:1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidValue))
	assert.True(t, strings.Contains(err.Error(), "beyond"))
}

func TestSweep_Run(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{Mode: ModeOptimize, Sweep: SweepSpec{
		fOpenLevel: {Min: 0, Max: 9, Step: 1},
		fMaxSpread: {Min: 0, Max: 9, Step: 1},
	}})
	s, err := r.Sweep(context.Background(), testKind, "EURUSD", H1)
	require.NoError(t, err)
	require.Equal(t, 100, s.Len())

	var mu sync.Mutex
	seen := make(map[int]int)
	err = s.Run(context.Background(), 4, func(_ context.Context, index int, ps *ParameterSet) error {
		mu.Lock()
		defer mu.Unlock()
		seen[index]++
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 100)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1, seen[i], "index %d", i)
	}
}

func TestSweep_RunStopsOnError(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{Mode: ModeOptimize, Sweep: SweepSpec{fOpenLevel: {Min: 0, Max: 999, Step: 1}}})
	s, err := r.Sweep(context.Background(), testKind, "EURUSD", H1)
	require.NoError(t, err)

	boom := errors.New("boom")
	var calls atomic.Int64
	err = s.Run(context.Background(), 2, func(_ context.Context, index int, _ *ParameterSet) error {
		calls.Add(1)
		if index == 10 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Less(t, calls.Load(), int64(1000))
}

func TestSweep_RunCancelled(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{Mode: ModeOptimize, Sweep: SweepSpec{fOpenLevel: {Min: 0, Max: 99, Step: 1}}})
	s, err := r.Sweep(context.Background(), testKind, "EURUSD", H1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Run(ctx, 2, func(context.Context, int, *ParameterSet) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweep_RunSkipsInvalidPoints(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{Mode: ModeOptimize, Sweep: SweepSpec{fLotSize: {Min: -2, Max: 2, Step: 1}}})
	s, err := r.Sweep(context.Background(), testKind, "EURUSD", H1)
	require.NoError(t, err)

	var calls atomic.Int64
	err = s.Run(context.Background(), 2, func(_ context.Context, _ int, ps *ParameterSet) error {
		calls.Add(1)
		assert.GreaterOrEqual(t, ps.Float(fLotSize), 0.0)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}
