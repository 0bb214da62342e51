// Package sinogram sweeps the acquisition angle over a half rotation and
// stacks the resulting detector profiles into a 2D angle-by-position grid.
package sinogram

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"mammosim/pkg/errors"
	"mammosim/pkg/phantom"
	"mammosim/pkg/projector"
)

// Options configures a sweep.
type Options struct {
	// Acquisition is the per-angle parameter template. Its AngleDeg is
	// replaced by each row's angle; everything else applies to every row.
	Acquisition projector.Params

	// StepDeg is the angular step in degrees. Rows cover [0, 180) in
	// ascending order, so a step of 1 yields 180 rows.
	StepDeg float64

	// Workers bounds the number of rows computed concurrently. Zero or
	// negative means one worker per CPU.
	Workers int

	// Progress, when set, is called after each completed row with the
	// number of rows done so far and the total. It may be called from
	// multiple goroutines.
	Progress func(done, total int)
}

// DefaultOptions returns a one-degree sweep of the baseline acquisition.
func DefaultOptions() Options {
	return Options{
		Acquisition: projector.DefaultParams(),
		StepDeg:     1,
	}
}

// Sinogram is the assembled sweep. Row i holds the profile acquired at
// angle i*StepDeg.
type Sinogram struct {
	// Data holds Rows x Cols samples in row-major order.
	Data []float64

	Rows    int
	Cols    int
	StepDeg float64
}

// Row returns the profile for row i as a slice view into the sinogram.
func (s *Sinogram) Row(i int) ([]float64, error) {
	if i < 0 || i >= s.Rows {
		return nil, errors.New(errors.ErrCodeIndexOutOfRange,
			"row %d outside [0, %d)", i, s.Rows)
	}
	return s.Data[i*s.Cols : (i+1)*s.Cols], nil
}

// AngleAt returns the acquisition angle of row i in degrees.
func (s *Sinogram) AngleAt(i int) float64 {
	return float64(i) * s.StepDeg
}

// Assembler builds sinograms for one fixed sweep configuration.
type Assembler struct {
	opts    Options
	angles  []float64
	workers int
}

// New validates the sweep configuration and precomputes the angle list.
// The acquisition template is validated once here so a bad parameter set
// fails before any row is computed.
func New(opts Options) (*Assembler, error) {
	if opts.StepDeg <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidParam,
			"angular step %g deg must be positive", opts.StepDeg)
	}
	probe := opts.Acquisition
	probe.AngleDeg = 0
	if _, err := projector.New(probe); err != nil {
		return nil, err
	}

	rows := int(math.Ceil(180/opts.StepDeg - 1e-9))
	if rows < 1 {
		rows = 1
	}
	angles := make([]float64, rows)
	for i := range angles {
		angles[i] = float64(i) * opts.StepDeg
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Assembler{opts: opts, angles: angles, workers: workers}, nil
}

// Angles returns the sweep angles in ascending order.
func (a *Assembler) Angles() []float64 {
	out := make([]float64, len(a.angles))
	copy(out, a.angles)
	return out
}

// Build computes every row of the sinogram. Rows are computed concurrently
// but each writes a disjoint slice of the result, so the output is
// bit-identical across runs regardless of worker count. The first row
// error cancels the remaining work.
func (a *Assembler) Build(ctx context.Context, m *phantom.Map) (*Sinogram, error) {
	rows := len(a.angles)
	cols := m.Width
	data := make([]float64, rows*cols)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	var done atomic.Int64
	for i, angle := range a.angles {
		i, angle := i, angle
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			params := a.opts.Acquisition
			params.AngleDeg = angle
			p, err := projector.New(params)
			if err != nil {
				return err
			}
			prof, err := p.Profile(m)
			if err != nil {
				return errors.Wrap(errors.GetCode(err), err, "row %d (%g deg)", i, angle)
			}
			copy(data[i*cols:(i+1)*cols], prof)
			if a.opts.Progress != nil {
				a.opts.Progress(int(done.Add(1)), rows)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Sinogram{
		Data:    data,
		Rows:    rows,
		Cols:    cols,
		StepDeg: a.opts.StepDeg,
	}, nil
}
