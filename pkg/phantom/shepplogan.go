package phantom

import (
	"math"

	"mammosim/pkg/errors"
)

// sheppLoganEllipse describes one ellipse of the Shepp-Logan head phantom:
// additive intensity, semi-axes, center, and rotation (degrees, counter-clockwise).
type sheppLoganEllipse struct {
	value  float64
	a, b   float64
	x0, y0 float64
	phiDeg float64
}

// The modified (high-contrast) Shepp-Logan parameter set.
var sheppLoganEllipses = []sheppLoganEllipse{
	{1.0, 0.69, 0.92, 0, 0, 0},
	{-0.8, 0.6624, 0.8740, 0, -0.0184, 0},
	{-0.2, 0.1100, 0.3100, 0.22, 0, -18},
	{-0.2, 0.1600, 0.4100, -0.22, 0, 18},
	{0.1, 0.2100, 0.2500, 0, 0.35, 0},
	{0.1, 0.0460, 0.0460, 0, 0.1, 0},
	{0.1, 0.0460, 0.0460, 0, -0.1, 0},
	{0.1, 0.0460, 0.0230, -0.08, -0.605, 0},
	{0.1, 0.0230, 0.0230, 0, -0.606, 0},
	{0.1, 0.0230, 0.0460, 0.06, -0.605, 0},
}

// SheppLogan rasterizes the classic Shepp-Logan head phantom at the given
// resolution and rescales it into an attenuation map. A small uniform
// baseline is added so even the faintest structures attenuate visibly in
// the simplified beam model.
func SheppLogan(width, height int) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidPhantom, "grid %dx%d must have positive dimensions", width, height)
	}

	m := NewMap(width, height, 1.0)
	for y := 0; y < height; y++ {
		// Row 0 is the top of the head, so the vertical axis is flipped
		// relative to the row index.
		yn := -normCoord(y, height)
		for x := 0; x < width; x++ {
			xn := normCoord(x, width)

			v := 0.0
			for _, e := range sheppLoganEllipses {
				phi := e.phiDeg * math.Pi / 180.0
				cos, sin := math.Cos(phi), math.Sin(phi)
				dx, dy := xn-e.x0, yn-e.y0
				u := dx*cos + dy*sin
				w := -dx*sin + dy*cos
				if u*u/(e.a*e.a)+w*w/(e.b*e.b) <= 1.0 {
					v += e.value
				}
			}

			m.Mu[y*width+x] = 0.1 + 1.5*v
		}
	}
	return m, nil
}
