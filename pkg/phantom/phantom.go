// Package phantom constructs synthetic 2D attenuation-coefficient maps for
// planar X-ray projection teaching scenarios.
//
// The main product is a breast phantom composed of layered anatomical
// regions drawn in a fixed priority order over a normalized coordinate
// frame: an adipose base with a thickness profile, a skin rim, a pectoral
// muscle wedge, a glandular core, an optional lesion, an optional
// calcification scatter, and a benign low-contrast mass. Later regions
// overwrite earlier ones inside their own footprint. A Shepp-Logan head
// phantom is available as an alternative test object.
//
// All builds are deterministic: the calcification scatter draws from a
// seeded random source, so identical Options always produce identical maps.
package phantom

import (
	"image"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"mammosim/pkg/errors"
)

// Linear attenuation coefficients for the phantom tissue classes,
// in units of 1/mm at the reference beam energy.
const (
	AdiposeMu = 0.22
	GlandMu   = 0.40
	LesionMu  = 0.75
	MicroMu   = 0.55
	MuscleMu  = 0.50
	SkinMu    = 0.80
)

// Map is a 2D grid of linear attenuation coefficients (mu) over a fixed
// physical extent. Values are non-negative; air is zero or a small
// baseline. A Map is created once per simulation request and treated as
// immutable by the projection engine.
type Map struct {
	// Mu holds the attenuation values in row-major order (index y*Width+x),
	// units 1/mm at the reference energy.
	Mu []float64

	// Width and Height are the grid dimensions in pixels.
	Width  int
	Height int

	// SpacingMM is the physical pixel pitch in mm.
	SpacingMM float64
}

// NewMap allocates a zero-filled map with the given dimensions and pixel pitch.
func NewMap(width, height int, spacingMM float64) *Map {
	return &Map{
		Mu:        make([]float64, width*height),
		Width:     width,
		Height:    height,
		SpacingMM: spacingMM,
	}
}

// At returns the attenuation value at pixel (x, y).
func (m *Map) At(x, y int) float64 {
	return m.Mu[y*m.Width+x]
}

// Set writes the attenuation value at pixel (x, y).
func (m *Map) Set(x, y int, v float64) {
	m.Mu[y*m.Width+x] = v
}

// PhysicalWidthMM returns the physical width of the mapped extent in mm.
func (m *Map) PhysicalWidthMM() float64 {
	return float64(m.Width) * m.SpacingMM
}

// PhysicalHeightMM returns the physical height of the mapped extent in mm.
func (m *Map) PhysicalHeightMM() float64 {
	return float64(m.Height) * m.SpacingMM
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	out := NewMap(m.Width, m.Height, m.SpacingMM)
	copy(out.Mu, m.Mu)
	return out
}

// Scaled returns a copy of the map with every attenuation value multiplied
// by factor. It is used to derive "denser tissue" variants for comparison
// scenarios. Factor must be positive.
func (m *Map) Scaled(factor float64) (*Map, error) {
	if factor <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidPhantom, "scale factor %g must be positive", factor)
	}
	out := m.Clone()
	for i := range out.Mu {
		out.Mu[i] *= factor
	}
	return out, nil
}

// MaxValue returns the largest attenuation value in the map.
// Used by renderers to normalize display windows.
func (m *Map) MaxValue() float64 {
	max := 0.0
	for _, v := range m.Mu {
		if v > max {
			max = v
		}
	}
	return max
}

// Options controls which anatomical structures are drawn and how the
// optional compression transform is applied.
type Options struct {
	// Width and Height are the grid dimensions in pixels.
	Width  int
	Height int

	// LesionRadiusPx is the lesion disk radius in pixels.
	LesionRadiusPx int

	// IncludeLesion draws the elevated-mu lesion disk.
	IncludeLesion bool

	// IncludeCalcifications draws the seeded micro-calcification scatter.
	IncludeCalcifications bool

	// IncludeBenign draws the low-contrast benign mass.
	IncludeBenign bool

	// Compression squeezes the phantom along the ray axis, reducing the
	// integrated path length while leaving mu values unchanged.
	Compression bool

	// CompressionFactor is the row-axis scale applied when Compression is
	// enabled. Must be in (0, 1].
	CompressionFactor float64

	// Seed drives the calcification scatter placement.
	Seed uint64
}

// DefaultOptions returns the standard 256x256 breast phantom configuration
// with all structures enabled and the usual compression factor.
func DefaultOptions() Options {
	return Options{
		Width:                 256,
		Height:                256,
		LesionRadiusPx:        25,
		IncludeLesion:         true,
		IncludeCalcifications: true,
		IncludeBenign:         true,
		Compression:           false,
		CompressionFactor:     0.65,
		Seed:                  42,
	}
}

// Info describes the regions of a built phantom for downstream analysis.
//
// LesionMask and LesionROI always describe the nominal lesion site, even
// when the lesion itself was not drawn, so that contrast measured "where
// the lesion would be" is well defined in both cases.
type Info struct {
	// Tissue attenuation values used by the build.
	AdiposeMu float64
	GlandMu   float64
	LesionMu  float64

	// LesionMask marks the nominal lesion footprint (row-major, Width*Height).
	LesionMask []bool

	// BackgroundMask marks breast tissue outside the lesion footprint.
	BackgroundMask []bool

	// LesionROI is the bounding rectangle of the lesion footprint.
	LesionROI image.Rectangle

	// BackgroundROI is a same-size reference rectangle inside the glandular
	// core, mirrored to the other side of the map center.
	BackgroundROI image.Rectangle

	// Compressed reports whether the compression transform was applied,
	// and CompressionFactor records the row-axis scale used.
	Compressed        bool
	CompressionFactor float64
}

// Build constructs the breast phantom and its region info.
//
// Regions are drawn in a fixed priority order, later regions overwriting
// earlier ones inside their own footprint:
//  1. adipose base over the breast silhouette, modulated by a thickness profile
//  2. skin rim along the silhouette boundary
//  3. pectoral muscle wedge
//  4. glandular core (two overlapping ellipses, clipped to the silhouette)
//  5. lesion disk
//  6. calcification scatter (clipped to the silhouette)
//  7. benign mass (clipped to the silhouette)
//
// The output is deterministic for identical Options.
func Build(opts Options) (*Map, *Info, error) {
	if err := validateOptions(opts); err != nil {
		return nil, nil, err
	}

	m := NewMap(opts.Width, opts.Height, 1.0)
	w, h := opts.Width, opts.Height

	breast := make([]bool, w*h)
	gland := make([]bool, w*h)

	// Normalized coordinates span [-1, 1] across each axis, matching the
	// convention the region shapes are defined in. Rows follow the ray
	// axis, columns the detector axis.
	for y := 0; y < h; y++ {
		yn := normCoord(y, h)
		for x := 0; x < w; x++ {
			xn := normCoord(x, w)
			idx := y*w + x

			if yn*yn/(0.9*0.9)+xn*xn <= 1.0 {
				breast[idx] = true
				// Thickness profile: the breast is thickest at the center,
				// tapering toward the periphery.
				thickness := math.Exp(-3.0 * (xn*xn + yn*yn))
				m.Mu[idx] = AdiposeMu * (0.8 + 0.2*thickness)
			}

			if math.Abs(yn*yn/(0.92*0.92)+xn*xn/(1.02*1.02)-1.0) < 0.03 {
				m.Mu[idx] = SkinMu
			}

			if yn < -0.55 && xn > -0.2 && xn < 0.9 && xn > yn+0.7 {
				m.Mu[idx] = MuscleMu
			}

			inGland := sq(yn+0.15)/(0.55*0.55)+xn*xn/(0.6*0.6) <= 1.0 ||
				sq(yn+0.05)/(0.45*0.45)+sq(xn+0.15)/(0.5*0.5) <= 1.0
			if inGland && breast[idx] {
				gland[idx] = true
				m.Mu[idx] = GlandMu
			}
		}
	}

	lesion, lesionROI, err := lesionFootprint(opts, gland)
	if err != nil {
		return nil, nil, err
	}
	if opts.IncludeLesion {
		for i, in := range lesion {
			if in {
				m.Mu[i] = LesionMu
			}
		}
	}

	if opts.IncludeCalcifications {
		drawCalcifications(m, breast, opts.Seed)
	}

	if opts.IncludeBenign {
		for y := 0; y < h; y++ {
			yn := normCoord(y, h)
			for x := 0; x < w; x++ {
				xn := normCoord(x, w)
				idx := y*w + x
				if breast[idx] && sq(yn+0.35)/(0.12*0.12)+sq(xn-0.25)/(0.08*0.08) <= 1.0 {
					m.Mu[idx] = (GlandMu + MicroMu) * 0.5
				}
			}
		}
	}

	background := make([]bool, w*h)
	for i := range background {
		background[i] = breast[i] && !lesion[i]
	}

	info := &Info{
		AdiposeMu:         AdiposeMu,
		GlandMu:           GlandMu,
		LesionMu:          LesionMu,
		LesionMask:        lesion,
		BackgroundMask:    background,
		LesionROI:         lesionROI,
		BackgroundROI:     mirrorROI(lesionROI, w),
		CompressionFactor: opts.CompressionFactor,
	}

	if opts.Compression {
		compress(m, info, opts.CompressionFactor)
	}

	return m, info, nil
}

func validateOptions(opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidPhantom, "grid %dx%d must have positive dimensions", opts.Width, opts.Height)
	}
	if opts.LesionRadiusPx <= 0 {
		return errors.New(errors.ErrCodeInvalidPhantom, "lesion radius %d must be positive", opts.LesionRadiusPx)
	}
	if opts.Compression && (opts.CompressionFactor <= 0 || opts.CompressionFactor > 1) {
		return errors.New(errors.ErrCodeInvalidPhantom, "compression factor %g must be in (0, 1]", opts.CompressionFactor)
	}
	return nil
}

// normCoord maps pixel index i on an axis of n pixels to [-1, 1].
func normCoord(i, n int) float64 {
	return -1.0 + 2.0*float64(i)/float64(n-1)
}

func sq(v float64) float64 { return v * v }

// lesionFootprint rasterizes the nominal lesion disk, centered slightly
// off the map center along the detector axis, and verifies it stays
// within the glandular core.
func lesionFootprint(opts Options, gland []bool) ([]bool, image.Rectangle, error) {
	w, h := opts.Width, opts.Height
	cx := w/2 + 25
	cy := h / 2
	r := opts.LesionRadiusPx

	if cx-r < 0 || cx+r >= w || cy-r < 0 || cy+r >= h {
		return nil, image.Rectangle{}, errors.New(errors.ErrCodeInvalidPhantom,
			"lesion of radius %d at (%d, %d) extends outside the %dx%d grid", r, cx, cy, w, h)
	}

	mask := make([]bool, w*h)
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > r*r {
				continue
			}
			if !gland[y*w+x] {
				return nil, image.Rectangle{}, errors.New(errors.ErrCodeInvalidPhantom,
					"lesion of radius %d extends outside the glandular core", r)
			}
			mask[y*w+x] = true
		}
	}

	roi := image.Rect(cx-r, cy-r, cx+r+1, cy+r+1)
	return mask, roi, nil
}

// mirrorROI reflects a rectangle across the vertical center line of the
// grid, giving a background reference region on the opposite side.
func mirrorROI(roi image.Rectangle, width int) image.Rectangle {
	return image.Rect(width-roi.Max.X, roi.Min.Y, width-roi.Min.X, roi.Max.Y)
}

// drawCalcifications scatters a handful of small high-attenuation spots
// around the upper glandular area. Spot centers follow a seeded normal
// distribution and radii a seeded uniform distribution, so placement is
// reproducible. Spots are drawn only inside the breast silhouette.
func drawCalcifications(m *Map, breast []bool, seed uint64) {
	const numSpots = 7

	src := rand.NewSource(seed)
	centerY := distuv.Normal{Mu: -0.1, Sigma: 0.18, Src: src}
	centerX := distuv.Normal{Mu: 0.1, Sigma: 0.18, Src: src}
	radius := distuv.Uniform{Min: 0.015, Max: 0.04, Src: src}

	w, h := m.Width, m.Height
	for s := 0; s < numSpots; s++ {
		sy := centerY.Rand()
		sx := centerX.Rand()
		rad := radius.Rand()

		for y := 0; y < h; y++ {
			yn := normCoord(y, h)
			for x := 0; x < w; x++ {
				xn := normCoord(x, w)
				idx := y*w + x
				if breast[idx] && sq(xn-sx)+sq(yn-sy) <= rad*rad {
					m.Mu[idx] = MicroMu
				}
			}
		}
	}
}

// compress squeezes the map rows by factor using an area-average resample,
// then pads back to the original height by replicating the edge rows.
// Region masks are resampled the same way with a 0.5 threshold. The mu
// values themselves are unchanged; only the integrated path shortens.
func compress(m *Map, info *Info, factor float64) {
	w, h := m.Width, m.Height
	ch := int(float64(h) * factor)
	if ch < 1 {
		ch = 1
	}

	padTop := (h - ch) / 2

	m.Mu = padRows(resampleRows(m.Mu, w, h, ch), w, h, ch, padTop)
	info.LesionMask = padMaskRows(resampleMaskRows(info.LesionMask, w, h, ch), w, h, ch, padTop)
	info.BackgroundMask = padMaskRows(resampleMaskRows(info.BackgroundMask, w, h, ch), w, h, ch, padTop)
	info.Compressed = true
	info.CompressionFactor = factor
	info.LesionROI = compressRect(info.LesionROI, h, ch, padTop)
	info.BackgroundROI = compressRect(info.BackgroundROI, h, ch, padTop)
}

// resampleRows box-filters the rows of a w*h grid down to ch rows.
// Each output row averages the input span it covers, with fractional
// weights at the span edges.
func resampleRows(data []float64, w, h, ch int) []float64 {
	out := make([]float64, w*ch)
	scale := float64(h) / float64(ch)

	for j := 0; j < ch; j++ {
		lo := float64(j) * scale
		hi := float64(j+1) * scale
		i0 := int(math.Floor(lo))
		i1 := int(math.Ceil(hi))
		if i1 > h {
			i1 = h
		}

		for x := 0; x < w; x++ {
			sum, wsum := 0.0, 0.0
			for i := i0; i < i1; i++ {
				cover := math.Min(hi, float64(i+1)) - math.Max(lo, float64(i))
				if cover <= 0 {
					continue
				}
				sum += cover * data[i*w+x]
				wsum += cover
			}
			if wsum > 0 {
				out[j*w+x] = sum / wsum
			}
		}
	}
	return out
}

func resampleMaskRows(mask []bool, w, h, ch int) []bool {
	vals := make([]float64, len(mask))
	for i, b := range mask {
		if b {
			vals[i] = 1
		}
	}
	res := resampleRows(vals, w, h, ch)
	out := make([]bool, len(res))
	for i, v := range res {
		out[i] = v > 0.5
	}
	return out
}

// padRows re-expands ch compressed rows to h rows, centering them and
// replicating the first and last compressed row into the padding.
func padRows(data []float64, w, h, ch, padTop int) []float64 {
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		src := y - padTop
		if src < 0 {
			src = 0
		}
		if src >= ch {
			src = ch - 1
		}
		copy(out[y*w:(y+1)*w], data[src*w:(src+1)*w])
	}
	return out
}

func padMaskRows(mask []bool, w, h, ch, padTop int) []bool {
	out := make([]bool, w*h)
	for y := 0; y < h; y++ {
		src := y - padTop
		if src < 0 {
			src = 0
		}
		if src >= ch {
			src = ch - 1
		}
		copy(out[y*w:(y+1)*w], mask[src*w:(src+1)*w])
	}
	return out
}

// compressRect maps a rectangle through the row compression and padding.
func compressRect(r image.Rectangle, h, ch, padTop int) image.Rectangle {
	scale := float64(ch) / float64(h)
	y0 := padTop + int(math.Floor(float64(r.Min.Y)*scale))
	y1 := padTop + int(math.Ceil(float64(r.Max.Y)*scale))
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(r.Min.X, y0, r.Max.X, y1)
}
