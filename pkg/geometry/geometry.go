// Package geometry models the source-object-detector arrangement of a
// planar acquisition. It is a pure function of the distances and the beam
// angle, independent of phantom content.
package geometry

import (
	"math"

	"github.com/ungerik/go3d/float64/vec2"

	"mammosim/pkg/errors"
)

// Geometry holds the derived quantities the projector samples with: the
// pinhole magnification and the rotated ray/detector axes. The nominal
// ray set points down the grid rows; a positive angle rotates it
// counter-clockwise about the grid center.
type Geometry struct {
	// SIDMM is the source-to-isocenter distance in mm.
	SIDMM float64

	// SDDMM is the source-to-detector distance in mm.
	SDDMM float64

	// AngleDeg is the beam angle in degrees.
	AngleDeg float64

	// Magnification is SDD/SID, the pinhole scaling of the projected image.
	Magnification float64

	// RayDir is the unit vector along the rays.
	RayDir vec2.T

	// DetAxis is the unit vector along the detector row.
	DetAxis vec2.T
}

// New validates the acquisition distances and derives the projection
// geometry. The source must sit strictly closer to the object than to the
// detector: SID > 0 and SDD > SID. Invalid orderings fail with an
// INVALID_GEOMETRY error rather than being clamped.
func New(sidMM, sddMM, angleDeg float64) (*Geometry, error) {
	if sidMM <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "SID %g mm must be positive", sidMM)
	}
	if sddMM <= sidMM {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "SDD %g mm must exceed SID %g mm", sddMM, sidMM)
	}

	rad := angleDeg * math.Pi / 180.0
	ray := vec2.T{0, 1}
	det := vec2.T{1, 0}

	return &Geometry{
		SIDMM:         sidMM,
		SDDMM:         sddMM,
		AngleDeg:      angleDeg,
		Magnification: sddMM / sidMM,
		RayDir:        ray.Rotated(rad),
		DetAxis:       det.Rotated(rad),
	}, nil
}

// AngleRad returns the beam angle in radians.
func (g *Geometry) AngleRad() float64 {
	return g.AngleDeg * math.Pi / 180.0
}
