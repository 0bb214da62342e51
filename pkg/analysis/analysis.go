// Package analysis extracts 1D profiles and region statistics from
// radiographs. It operates on detector intensities only; it never reaches
// back into the phantom, so the same routines apply to any projection.
package analysis

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"mammosim/pkg/errors"
	"mammosim/pkg/projector"
)

// Axis selects the direction a profile is read along.
type Axis int

const (
	// AxisRow reads one detector row (all columns at a fixed y).
	AxisRow Axis = iota
	// AxisColumn reads one detector column (all rows at a fixed x).
	AxisColumn
)

func (a Axis) String() string {
	switch a {
	case AxisRow:
		return "row"
	case AxisColumn:
		return "column"
	default:
		return "unknown"
	}
}

// zeroMeanEps is the magnitude below which a background mean is treated
// as zero for contrast purposes.
const zeroMeanEps = 1e-12

// RegionStats holds first-order statistics of one image region. Std is
// the sample standard deviation, zero when the region has a single pixel.
type RegionStats struct {
	Mean float64
	Std  float64
	N    int
}

// ContrastReport pairs lesion and background region statistics with their
// relative contrast, the absolute mean difference over the background
// mean. A lesion-free region scores near zero.
type ContrastReport struct {
	Lesion     RegionStats
	Background RegionStats
	Contrast   float64
}

// ExtractProfile copies one row or column of the radiograph. The returned
// slice is independent of the image.
func ExtractProfile(r *projector.Radiograph, axis Axis, index int) ([]float64, error) {
	switch axis {
	case AxisRow:
		if index < 0 || index >= r.Height {
			return nil, errors.New(errors.ErrCodeIndexOutOfRange,
				"row %d outside [0, %d)", index, r.Height)
		}
		out := make([]float64, r.Width)
		copy(out, r.Pix[index*r.Width:(index+1)*r.Width])
		return out, nil
	case AxisColumn:
		if index < 0 || index >= r.Width {
			return nil, errors.New(errors.ErrCodeIndexOutOfRange,
				"column %d outside [0, %d)", index, r.Width)
		}
		out := make([]float64, r.Height)
		for y := 0; y < r.Height; y++ {
			out[y] = r.Pix[y*r.Width+index]
		}
		return out, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidParam, "unknown profile axis %d", int(axis))
	}
}

// RectStats computes statistics over a rectangular region. The rectangle
// must be non-empty and lie entirely inside the image.
func RectStats(r *projector.Radiograph, roi image.Rectangle) (RegionStats, error) {
	roi = roi.Canon()
	if roi.Empty() {
		return RegionStats{}, errors.New(errors.ErrCodeInvalidParam, "empty region %v", roi)
	}
	bounds := image.Rect(0, 0, r.Width, r.Height)
	if !roi.In(bounds) {
		return RegionStats{}, errors.New(errors.ErrCodeIndexOutOfRange,
			"region %v outside image bounds %v", roi, bounds)
	}

	vals := make([]float64, 0, roi.Dx()*roi.Dy())
	for y := roi.Min.Y; y < roi.Max.Y; y++ {
		for x := roi.Min.X; x < roi.Max.X; x++ {
			vals = append(vals, r.Pix[y*r.Width+x])
		}
	}
	return regionStats(vals), nil
}

// MaskStats computes statistics over the pixels a mask selects. The mask
// must match the image size and select at least one pixel.
func MaskStats(r *projector.Radiograph, mask []bool) (RegionStats, error) {
	if len(mask) != len(r.Pix) {
		return RegionStats{}, errors.New(errors.ErrCodeInvalidParam,
			"mask length %d does not match %dx%d image", len(mask), r.Width, r.Height)
	}
	return MaskStatsGrid(r.Pix, mask)
}

// MaskStatsGrid is MaskStats over a raw value grid, for callers that
// measure regions of an attenuation map rather than a radiograph.
func MaskStatsGrid(data []float64, mask []bool) (RegionStats, error) {
	if len(mask) != len(data) {
		return RegionStats{}, errors.New(errors.ErrCodeInvalidParam,
			"mask length %d does not match %d values", len(mask), len(data))
	}
	var vals []float64
	for i, in := range mask {
		if in {
			vals = append(vals, data[i])
		}
	}
	if len(vals) == 0 {
		return RegionStats{}, errors.New(errors.ErrCodeInvalidParam, "mask selects no pixels")
	}
	return regionStats(vals), nil
}

// RectContrast computes lesion-versus-background contrast between two
// rectangular regions.
func RectContrast(r *projector.Radiograph, lesion, background image.Rectangle) (ContrastReport, error) {
	ls, err := RectStats(r, lesion)
	if err != nil {
		return ContrastReport{}, err
	}
	bs, err := RectStats(r, background)
	if err != nil {
		return ContrastReport{}, err
	}
	return contrast(ls, bs)
}

// MaskContrast computes lesion-versus-background contrast between two
// mask-selected regions.
func MaskContrast(r *projector.Radiograph, lesion, background []bool) (ContrastReport, error) {
	ls, err := MaskStats(r, lesion)
	if err != nil {
		return ContrastReport{}, err
	}
	bs, err := MaskStats(r, background)
	if err != nil {
		return ContrastReport{}, err
	}
	return contrast(ls, bs)
}

func regionStats(vals []float64) RegionStats {
	s := RegionStats{Mean: stat.Mean(vals, nil), N: len(vals)}
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	return s
}

func contrast(lesion, background RegionStats) (ContrastReport, error) {
	if background.Mean < zeroMeanEps && background.Mean > -zeroMeanEps {
		return ContrastReport{}, errors.New(errors.ErrCodeDivideByZero,
			"background mean %g too close to zero for contrast", background.Mean)
	}
	return ContrastReport{
		Lesion:     lesion,
		Background: background,
		Contrast:   math.Abs(background.Mean-lesion.Mean) / background.Mean,
	}, nil
}
