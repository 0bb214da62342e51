// Package render converts detector grids to grayscale images and draws
// profile charts. It owns all figure output; the engine packages never
// touch the filesystem.
package render

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"mammosim/pkg/errors"
)

// GrayImage converts a row-major float grid to 16-bit grayscale, mapping
// the [vmin, vmax] display window onto the full output range. Values
// outside the window are clamped.
func GrayImage(data []float64, width, height int, vmin, vmax float64) (*image.Gray16, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidParam, "image size %dx%d must be positive", width, height)
	}
	if len(data) != width*height {
		return nil, errors.New(errors.ErrCodeInvalidParam,
			"grid length %d does not match %dx%d image", len(data), width, height)
	}
	if vmax <= vmin {
		return nil, errors.New(errors.ErrCodeInvalidParam, "display window [%g, %g] is empty", vmin, vmax)
	}

	img := image.NewGray16(image.Rect(0, 0, width, height))
	scale := 65535 / (vmax - vmin)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := (data[y*width+x] - vmin) * scale
			if v < 0 {
				v = 0
			} else if v > 65535 {
				v = 65535
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}
	return img, nil
}

// DataRange returns the minimum and maximum of a grid, for auto-windowed
// display of data without a natural intensity bound.
func DataRange(data []float64) (min, max float64) {
	if len(data) == 0 {
		return 0, 0
	}
	min, max = data[0], data[0]
	for _, v := range data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Montage lays panels out side by side, separated by a white gap, the way
// multi-scenario comparison figures are presented. All panels must share
// one height.
func Montage(gapPx int, panels ...*image.Gray16) (*image.Gray16, error) {
	if len(panels) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParam, "montage needs at least one panel")
	}
	if gapPx < 0 {
		return nil, errors.New(errors.ErrCodeInvalidParam, "gap %d px must not be negative", gapPx)
	}

	height := panels[0].Bounds().Dy()
	width := 0
	for i, p := range panels {
		if p.Bounds().Dy() != height {
			return nil, errors.New(errors.ErrCodeInvalidParam,
				"panel %d height %d does not match %d", i, p.Bounds().Dy(), height)
		}
		width += p.Bounds().Dx()
	}
	width += gapPx * (len(panels) - 1)

	out := image.NewGray16(image.Rect(0, 0, width, height))
	white := color.Gray16{Y: 65535}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.SetGray16(x, y, white)
		}
	}

	xoff := 0
	for _, p := range panels {
		b := p.Bounds()
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				out.SetGray16(xoff+x, y, p.Gray16At(b.Min.X+x, b.Min.Y+y))
			}
		}
		xoff += b.Dx() + gapPx
	}
	return out, nil
}

// SaveImage writes an image to path, creating parent directories. The
// format follows the extension: .png, or .jpg/.jpeg at quality 90.
func SaveImage(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode(file, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	default:
		return errors.New(errors.ErrCodeInvalidParam, "unsupported image extension %q", filepath.Ext(path))
	}
}
