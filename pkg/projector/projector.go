// Package projector implements the ray-integration engine: it turns a 2D
// attenuation map plus acquisition parameters into detector intensities
// through a simplified Beer-Lambert model.
//
// The model is a teaching approximation, not validated physics. Its
// binding properties are arithmetic: accumulated attenuation is additive
// along rays, intensity is I0*exp(-A) and therefore bounded by [0, I0],
// incident intensity grows with kVp and exposure, filtration adds
// attenuation, and the anti-scatter grid darkens the image by a fixed
// transmission factor.
package projector

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"mammosim/pkg/errors"
	"mammosim/pkg/geometry"
	"mammosim/pkg/phantom"
)

const (
	// RefKVP is the beam energy the map's attenuation values are defined
	// at. Effective attenuation scales as RefKVP/kVp: harder beams are
	// attenuated less.
	RefKVP = 30.0

	// alMuPerMM is the equivalent aluminium attenuation per mm of
	// filtration at the reference energy.
	alMuPerMM = 0.15

	// DefaultGridRatio is the fraction of the beam an anti-scatter grid
	// transmits.
	DefaultGridRatio = 0.9
)

// Params bundles the acquisition parameters for one exposure.
type Params struct {
	// SIDMM is the source-to-isocenter distance in mm.
	SIDMM float64

	// SDDMM is the source-to-detector distance in mm. Must exceed SIDMM.
	SDDMM float64

	// AngleDeg is the beam angle in degrees; 0 aims the rays down the
	// grid rows, positive angles rotate the ray set counter-clockwise.
	AngleDeg float64

	// KVP is the peak tube voltage, the proxy for beam energy.
	KVP float64

	// ExposureS is the exposure time in seconds (times unit tube current).
	ExposureS float64

	// FiltrationMM is the aluminium filtration thickness in mm.
	FiltrationMM float64

	// DetectorOffsetMM shifts the detector along its row axis. Large
	// offsets can push the whole object out of frame, which surfaces as
	// a projection error.
	DetectorOffsetMM float64

	// GridRatio is the grid transmission applied when GridOn is set.
	GridRatio float64

	// GridOn enables the anti-scatter grid.
	GridOn bool
}

// DefaultParams returns the baseline acquisition: SID 500 mm, SDD 1000 mm
// (magnification 2.0), 35 kVp, 1 s exposure, 2 mm Al filtration, grid off.
func DefaultParams() Params {
	return Params{
		SIDMM:        500,
		SDDMM:        1000,
		AngleDeg:     0,
		KVP:          35,
		ExposureS:    1.0,
		FiltrationMM: 2.0,
		GridRatio:    DefaultGridRatio,
		GridOn:       false,
	}
}

// Validate checks the beam parameters. Distance ordering is validated by
// the geometry constructor; everything else here.
func (p Params) Validate() error {
	if p.KVP <= 0 {
		return errors.New(errors.ErrCodeInvalidParam, "kVp %g must be positive", p.KVP)
	}
	if p.ExposureS <= 0 {
		return errors.New(errors.ErrCodeInvalidParam, "exposure %g s must be positive", p.ExposureS)
	}
	if p.FiltrationMM < 0 {
		return errors.New(errors.ErrCodeInvalidParam, "filtration %g mm must not be negative", p.FiltrationMM)
	}
	if p.GridOn && (p.GridRatio <= 0 || p.GridRatio > 1) {
		return errors.New(errors.ErrCodeInvalidParam, "grid ratio %g must be in (0, 1]", p.GridRatio)
	}
	return nil
}

// I0 returns the incident intensity before any grid attenuation. It is
// determined solely by exposure and kVp and is monotone increasing in both.
func (p Params) I0() float64 {
	k := p.KVP / RefKVP
	return p.ExposureS * k * k
}

// incident returns the effective incident intensity after the grid.
func (p Params) incident() float64 {
	i0 := p.I0()
	if p.GridOn {
		i0 *= p.GridRatio
	}
	return i0
}

// energyScale returns the factor applied to all attenuation at this kVp.
func (p Params) energyScale() float64 {
	return RefKVP / p.KVP
}

// filtrationTerm returns the extra path attenuation contributed by the
// aluminium filtration. Beam hardening makes the filter slightly less
// effective at higher kVp.
func (p Params) filtrationTerm() float64 {
	return p.FiltrationMM * alMuPerMM * p.energyScale()
}

// Radiograph is a 2D detector intensity image. It is produced fresh per
// projection and never mutated in place.
type Radiograph struct {
	// Pix holds intensities in row-major order (index y*Width+x).
	Pix []float64

	// Width and Height are the detector grid dimensions in pixels.
	Width  int
	Height int

	// I0 is the incident intensity bound for this exposure (before grid
	// attenuation); every pixel lies in [0, I0].
	I0 float64
}

// At returns the intensity at detector pixel (x, y).
func (r *Radiograph) At(x, y int) float64 {
	return r.Pix[y*r.Width+x]
}

// Mean returns the mean detector intensity.
func (r *Radiograph) Mean() float64 {
	return stat.Mean(r.Pix, nil)
}

// Projector projects attenuation maps under one fixed set of acquisition
// parameters. A Projector is immutable and safe for concurrent use.
type Projector struct {
	params Params
	geom   *geometry.Geometry
}

// New validates the parameters, derives the acquisition geometry, and
// returns a projector. Geometry and beam validation failures are surfaced
// here, before any projection runs.
func New(params Params) (*Projector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	geom, err := geometry.New(params.SIDMM, params.SDDMM, params.AngleDeg)
	if err != nil {
		return nil, err
	}
	return &Projector{params: params, geom: geom}, nil
}

// Geometry returns the derived acquisition geometry.
func (p *Projector) Geometry() *geometry.Geometry {
	return p.geom
}

// Project computes the 2D radiograph of the map: the map is resampled
// into the detector frame (rotation, magnification, detector offset) and
// each detector pixel sees the attenuation of the unit-thickness slab it
// faces, plus the filtration term, through the exponential decay law.
func (p *Projector) Project(m *phantom.Map) (*Radiograph, error) {
	warped, err := p.warp(m)
	if err != nil {
		return nil, err
	}

	scale := p.params.energyScale()
	extra := p.params.filtrationTerm()
	i0 := p.params.incident()

	pix := make([]float64, len(warped))
	for i, mu := range warped {
		pix[i] = i0 * math.Exp(-(mu*scale + extra))
	}

	return &Radiograph{
		Pix:    pix,
		Width:  m.Width,
		Height: m.Height,
		I0:     p.params.I0(),
	}, nil
}

// Profile computes the 1D detector profile: the line integral of the
// resampled map down each detector column (the classic parallel ray set,
// rotated by the acquisition angle), converted to intensity. Sinogram rows
// are built from exactly this profile.
func (p *Projector) Profile(m *phantom.Map) ([]float64, error) {
	warped, err := p.warp(m)
	if err != nil {
		return nil, err
	}

	scale := p.params.energyScale()
	extra := p.params.filtrationTerm()
	i0 := p.params.incident()

	out := make([]float64, m.Width)
	for x := 0; x < m.Width; x++ {
		sum := 0.0
		for y := 0; y < m.Height; y++ {
			sum += warped[y*m.Width+x]
		}
		path := sum*m.SpacingMM*scale + extra
		out[x] = i0 * math.Exp(-path)
	}
	return out, nil
}
