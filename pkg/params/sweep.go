package params

import (
	"context"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	perrors "github.com/ducminhle1904/ad-params/internal/errors"
	"github.com/ducminhle1904/ad-params/internal/monitoring"
	"github.com/ducminhle1904/ad-params/internal/workerpool"
)

// MaxSweepPoints bounds the Cartesian product of a sweep
const MaxSweepPoints = 1_000_000

// SweepRange is a (min, max, step) triple. It yields min, min+step, ... up to max inclusive.
type SweepRange struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Step float64 `json:"step" yaml:"step"`
}

// Count returns the number of points in the range
func (r SweepRange) Count() int {
	if r.Step == 0 || r.Max == r.Min {
		return 1
	}
	return int(math.Floor((r.Max-r.Min)/r.Step+1e-9)) + 1
}

// Value returns the i-th point, rounded to the decimal precision of min and step
// to absorb accumulation noise
func (r SweepRange) Value(i int) float64 {
	v := r.Min + float64(i)*r.Step
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	prec := max(decimals(r.Min), decimals(r.Step))
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', prec, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

// decimals returns the number of fractional digits of the shortest decimal form of x
func decimals(x float64) int {
	s := strconv.FormatFloat(math.Abs(x), 'f', -1, 64)
	if _, frac, ok := strings.Cut(s, "."); ok {
		return len(frac)
	}
	return 0
}

// Values returns every point of the range
func (r SweepRange) Values() []float64 {
	n := r.Count()
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Value(i)
	}
	return out
}

// String formats the range as min:max:step
func (r SweepRange) String() string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	return f(r.Min) + ":" + f(r.Max) + ":" + f(r.Step)
}

// ParseSweepRange parses "min:max:step" or a single value
func ParseSweepRange(s string) (SweepRange, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	nums := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return SweepRange{}, fmt.Errorf("sweep range %q: %q is not a number", s, p)
		}
		nums[i] = f
	}
	switch len(nums) {
	case 1:
		return SweepRange{Min: nums[0], Max: nums[0]}, nil
	case 3:
		return SweepRange{Min: nums[0], Max: nums[1], Step: nums[2]}, nil
	}
	return SweepRange{}, fmt.Errorf("sweep range %q must be min:max:step", s)
}

// SweepSpec maps swept fields to their ranges
type SweepSpec map[Field]SweepRange

// ParseSweepSpec parses "field=min:max:step" strings
func ParseSweepSpec(defaults *DefaultsTable, ranges []string) (SweepSpec, error) {
	component := defaults.Name() + ".sweep"
	report := perrors.NewReport(component)
	out := make(SweepSpec, len(ranges))
	for _, r := range ranges {
		name, raw, ok := strings.Cut(r, "=")
		if !ok {
			report.Add(perrors.NewInvalidValueError(component, strings.TrimSpace(r), r, "must be written as field=min:max:step"))
			continue
		}
		f := Field(strings.TrimSpace(name))
		if _, dup := out[f]; dup {
			report.Add(perrors.NewDuplicateOverrideError(component, "sweep "+string(f), "earlier range", r))
			continue
		}
		rng, err := ParseSweepRange(raw)
		if err != nil {
			report.Add(perrors.NewInvalidValueError(component, string(f), raw, err.Error()))
			continue
		}
		out[f] = rng
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	if err := checkSweepSpec(defaults, out); err != nil {
		return nil, err
	}
	return out, nil
}

type sweepDim struct {
	spec FieldSpec
	rng  SweepRange
	n    int
}

// sweepDims validates fields and ranges and returns the dimensions in registry order
func sweepDims(defaults *DefaultsTable, spec SweepSpec) ([]sweepDim, int, error) {
	component := defaults.Name() + ".sweep"
	report := perrors.NewReport(component)
	for f := range spec {
		if _, ok := defaults.Spec(f); !ok {
			report.Add(perrors.NewUnknownFieldError(component, "sweep", string(f)))
		}
	}

	var dims []sweepDim
	total := 1
	for _, fs := range defaults.specs {
		rng, ok := spec[fs.Name]
		if !ok {
			continue
		}
		if err := checkRange(component, fs, rng); err != nil {
			report.Add(err)
			continue
		}
		d := sweepDim{spec: fs, rng: rng, n: rng.Count()}
		if total > MaxSweepPoints/d.n {
			report.Add(perrors.NewInvalidValueError(component, string(fs.Name), rng.String(),
				fmt.Sprintf("grows the sweep beyond %d points", MaxSweepPoints)))
			continue
		}
		total *= d.n
		dims = append(dims, d)
	}
	if err := report.Err(); err != nil {
		return nil, 0, err
	}
	return dims, total, nil
}

func checkSweepSpec(defaults *DefaultsTable, spec SweepSpec) error {
	_, _, err := sweepDims(defaults, spec)
	return err
}

func checkRange(component string, fs FieldSpec, r SweepRange) error {
	bad := func(reason string) error {
		return perrors.NewInvalidValueError(component, string(fs.Name), r.String(), reason)
	}
	switch {
	case fs.Kind == KindString:
		return bad("cannot sweep a string field")
	case math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsNaN(r.Step) ||
		math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) || math.IsInf(r.Step, 0):
		return bad("must be finite")
	case r.Min > r.Max:
		return bad("has min greater than max")
	case r.Step < 0:
		return bad("has a negative step")
	case r.Step == 0 && r.Min != r.Max:
		return bad("needs a positive step")
	case math.IsInf(r.Max-r.Min, 0) || (r.Step > 0 && (r.Max-r.Min)/r.Step >= MaxSweepPoints):
		return bad(fmt.Sprintf("has more than %d points", MaxSweepPoints))
	case r.Step > 0 && r.Min != r.Max && (r.Min+r.Step == r.Min || r.Max-r.Step == r.Max):
		return bad("has a step below the float resolution of its bounds")
	case fs.Kind == KindInt && (r.Min != math.Trunc(r.Min) || r.Step != math.Trunc(r.Step)):
		return bad("must use integral min and step for an integer field")
	}
	return nil
}

// Sweep is a lazy, finite, restartable sequence of parameter sets, one per point of
// the Cartesian product of the swept ranges. Fields are iterated in registry order,
// the last swept field varying fastest. Non-swept fields keep their resolved values.
type Sweep struct {
	name   string
	base   *ParameterSet
	specs  *DefaultsTable
	dims   []sweepDim
	total  int
	logger zerolog.Logger
}

// Len returns the number of points
func (s *Sweep) Len() int { return s.total }

// Base returns the resolved set the sweep is built on
func (s *Sweep) Base() *ParameterSet { return s.base }

// Fields returns the swept fields in iteration order
func (s *Sweep) Fields() []Field {
	out := make([]Field, len(s.dims))
	for i, d := range s.dims {
		out[i] = d.spec.Name
	}
	return out
}

// Ranges returns the swept ranges keyed by field
func (s *Sweep) Ranges() SweepSpec {
	out := make(SweepSpec, len(s.dims))
	for _, d := range s.dims {
		out[d.spec.Name] = d.rng
	}
	return out
}

// At builds the i-th point. Each point is validated on its own; an invalid point
// does not affect the others.
func (s *Sweep) At(i int) (*ParameterSet, error) {
	if i < 0 || i >= s.total {
		return nil, fmt.Errorf("sweep index %d out of range [0,%d)", i, s.total)
	}
	ps := s.base.clone()
	rem := i
	for d := len(s.dims) - 1; d >= 0; d-- {
		dim := s.dims[d]
		idx := rem % dim.n
		rem /= dim.n
		x := dim.rng.Value(idx)
		v := Float(x)
		if dim.spec.Kind == KindInt {
			v = Int(int64(math.Round(x)))
		}
		ps.values[dim.spec.Name] = v
		ps.origin[dim.spec.Name] = OriginSweep
	}
	if err := validateSet(s.name, s.specs, ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// All iterates every point in index order. Each call starts over.
func (s *Sweep) All() iter.Seq2[*ParameterSet, error] {
	return func(yield func(*ParameterSet, error) bool) {
		for i := 0; i < s.total; i++ {
			ps, err := s.At(i)
			if !yield(ps, err) {
				return
			}
		}
	}
}

// Run evaluates every point with fn on a pool of workers. Points are independent, so
// fn may be called concurrently and in any order. Points failing validation are
// skipped with a warning; the first error returned by fn cancels the rest.
func (s *Sweep) Run(ctx context.Context, workers int, fn func(ctx context.Context, index int, ps *ParameterSet) error) error {
	pool := workerpool.NewWorkerPool(ctx, workers, func(ctx context.Context, index int) error {
		ps, err := s.At(index)
		if err != nil {
			s.logger.Warn().Err(err).Int("index", index).Msg("Skipping invalid sweep point")
			return nil
		}
		monitoring.RecordSweepPoint(s.name)
		return fn(ctx, index, ps)
	})
	return pool.Run(s.total)
}
