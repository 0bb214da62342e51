package projector

import (
	"math"

	"mammosim/pkg/errors"
	"mammosim/pkg/phantom"
)

// warp resamples the map into the detector frame in a single inverse pass:
// for each detector pixel the source position is found by undoing the
// detector offset, the magnification, and the beam rotation about the grid
// center, then nearest-neighbour sampled with round-half-to-even. Pixels
// whose source lands outside the map stay zero (air).
//
// The sampling frame is spanned by the geometry's detector axis (along
// rows) and ray direction (down columns), so a column of the warped grid
// traverses the map exactly along the ray set the geometry describes.
func (p *Projector) warp(m *phantom.Map) ([]float64, error) {
	w, h := m.Width, m.Height
	cx := float64(w-1) / 2
	cy := float64(h-1) / 2
	invM := 1 / p.geom.Magnification
	offPx := p.params.DetectorOffsetMM / m.SpacingMM

	det := p.geom.DetAxis
	ray := p.geom.RayDir

	out := make([]float64, w*h)
	inside := 0
	for y := 0; y < h; y++ {
		dy := (float64(y) - cy) * invM
		for x := 0; x < w; x++ {
			dx := (float64(x) - cx - offPx) * invM
			sx := cx + dx*det[0] + dy*ray[0]
			sy := cy + dx*det[1] + dy*ray[1]
			xi := int(math.RoundToEven(sx))
			yi := int(math.RoundToEven(sy))
			if xi < 0 || xi >= w || yi < 0 || yi >= h {
				continue
			}
			out[y*w+x] = m.Mu[yi*w+xi]
			inside++
		}
	}
	if inside == 0 {
		return nil, errors.New(errors.ErrCodeProjectionOutOfFrame,
			"no ray samples the %dx%d map (angle %g deg, detector offset %g mm)",
			w, h, p.params.AngleDeg, p.params.DetectorOffsetMM)
	}
	return out, nil
}

// WarpMask carries a region mask through the same detector-frame transform
// as the map it belongs to, so ROI statistics computed on the radiograph
// line up with the magnified and rotated image of the region.
func (p *Projector) WarpMask(m *phantom.Map, mask []bool) ([]bool, error) {
	if len(mask) != len(m.Mu) {
		return nil, errors.New(errors.ErrCodeInvalidParam,
			"mask length %d does not match %dx%d map", len(mask), m.Width, m.Height)
	}
	tmp := phantom.NewMap(m.Width, m.Height, m.SpacingMM)
	for i, in := range mask {
		if in {
			tmp.Mu[i] = 1
		}
	}
	warped, err := p.warp(tmp)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(warped))
	for i, v := range warped {
		out[i] = v > 0.5
	}
	return out, nil
}
