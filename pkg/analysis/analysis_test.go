package analysis

import (
	"image"
	"math"
	"testing"

	"mammosim/pkg/errors"
	"mammosim/pkg/phantom"
	"mammosim/pkg/projector"
)

func gridRadiograph() *projector.Radiograph {
	pix := []float64{
		1, 2, 3, 4,
		10, 20, 30, 40,
		100, 200, 300, 400,
	}
	return &projector.Radiograph{Pix: pix, Width: 4, Height: 3, I0: 400}
}

func TestExtractProfile(t *testing.T) {
	r := gridRadiograph()

	row, err := ExtractProfile(r, AxisRow, 1)
	if err != nil {
		t.Fatalf("row extraction failed: %v", err)
	}
	for i, want := range []float64{10, 20, 30, 40} {
		if row[i] != want {
			t.Errorf("row[%d] = %v, want %v", i, row[i], want)
		}
	}

	col, err := ExtractProfile(r, AxisColumn, 2)
	if err != nil {
		t.Fatalf("column extraction failed: %v", err)
	}
	for i, want := range []float64{3, 30, 300} {
		if col[i] != want {
			t.Errorf("col[%d] = %v, want %v", i, col[i], want)
		}
	}

	// The profile is a copy, not a view.
	row[0] = -1
	if r.Pix[4] != 10 {
		t.Error("mutating an extracted profile changed the image")
	}
}

func TestExtractProfileErrors(t *testing.T) {
	r := gridRadiograph()

	tests := []struct {
		name     string
		axis     Axis
		index    int
		wantCode errors.Code
	}{
		{"RowNegative", AxisRow, -1, errors.ErrCodeIndexOutOfRange},
		{"RowTooLarge", AxisRow, 3, errors.ErrCodeIndexOutOfRange},
		{"ColumnTooLarge", AxisColumn, 4, errors.ErrCodeIndexOutOfRange},
		{"UnknownAxis", Axis(99), 0, errors.ErrCodeInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExtractProfile(r, tt.axis, tt.index); !errors.Is(err, tt.wantCode) {
				t.Errorf("error = %v, want code %q", err, tt.wantCode)
			}
		})
	}
}

func TestRectStats(t *testing.T) {
	r := gridRadiograph()

	s, err := RectStats(r, image.Rect(0, 0, 2, 2))
	if err != nil {
		t.Fatalf("RectStats failed: %v", err)
	}
	if s.N != 4 {
		t.Errorf("N = %d, want 4", s.N)
	}
	if math.Abs(s.Mean-8.25) > 1e-12 {
		t.Errorf("mean = %v, want 8.25", s.Mean)
	}
	if want := math.Sqrt(232.75 / 3); math.Abs(s.Std-want) > 1e-12 {
		t.Errorf("std = %v, want %v", s.Std, want)
	}

	// A single-pixel region has zero spread.
	s, err = RectStats(r, image.Rect(1, 1, 2, 2))
	if err != nil {
		t.Fatalf("RectStats failed: %v", err)
	}
	if s.Mean != 20 || s.Std != 0 || s.N != 1 {
		t.Errorf("single pixel stats = %+v, want mean 20, std 0, n 1", s)
	}

	// Inverted corners are canonicalized, not rejected.
	inverted := image.Rectangle{Min: image.Pt(2, 2), Max: image.Pt(0, 0)}
	s, err = RectStats(r, inverted)
	if err != nil {
		t.Fatalf("RectStats on inverted corners failed: %v", err)
	}
	if math.Abs(s.Mean-8.25) > 1e-12 {
		t.Errorf("inverted corner mean = %v, want 8.25", s.Mean)
	}
}

func TestRectStatsErrors(t *testing.T) {
	r := gridRadiograph()

	if _, err := RectStats(r, image.Rectangle{}); !errors.Is(err, errors.ErrCodeInvalidParam) {
		t.Errorf("empty region error = %v, want code %q", err, errors.ErrCodeInvalidParam)
	}
	if _, err := RectStats(r, image.Rect(-1, 0, 2, 2)); !errors.Is(err, errors.ErrCodeIndexOutOfRange) {
		t.Errorf("out of bounds error = %v, want code %q", err, errors.ErrCodeIndexOutOfRange)
	}
	if _, err := RectStats(r, image.Rect(0, 0, 5, 1)); !errors.Is(err, errors.ErrCodeIndexOutOfRange) {
		t.Errorf("overflowing region error = %v, want code %q", err, errors.ErrCodeIndexOutOfRange)
	}
}

func TestMaskStats(t *testing.T) {
	r := gridRadiograph()

	mask := make([]bool, len(r.Pix))
	mask[1] = true  // value 2
	mask[7] = true  // value 40
	s, err := MaskStats(r, mask)
	if err != nil {
		t.Fatalf("MaskStats failed: %v", err)
	}
	if math.Abs(s.Mean-21) > 1e-12 {
		t.Errorf("mean = %v, want 21", s.Mean)
	}
	if want := math.Sqrt(722); math.Abs(s.Std-want) > 1e-12 {
		t.Errorf("std = %v, want %v", s.Std, want)
	}

	if _, err := MaskStats(r, make([]bool, 3)); !errors.Is(err, errors.ErrCodeInvalidParam) {
		t.Errorf("length mismatch error = %v, want code %q", err, errors.ErrCodeInvalidParam)
	}
	if _, err := MaskStats(r, make([]bool, len(r.Pix))); !errors.Is(err, errors.ErrCodeInvalidParam) {
		t.Errorf("empty mask error = %v, want code %q", err, errors.ErrCodeInvalidParam)
	}
}

func TestMaskStatsGrid(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	mask := []bool{false, true, false, true}

	s, err := MaskStatsGrid(data, mask)
	if err != nil {
		t.Fatalf("MaskStatsGrid failed: %v", err)
	}
	if s.Mean != 3 || s.N != 2 {
		t.Errorf("stats = %+v, want mean 3 over 2 values", s)
	}
	if want := math.Sqrt(2); math.Abs(s.Std-want) > 1e-12 {
		t.Errorf("std = %v, want %v", s.Std, want)
	}

	// Applied to an attenuation map, the lesion site must read denser
	// than the rest of the breast.
	m, info, err := phantom.Build(phantom.DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	lesion, err := MaskStatsGrid(m.Mu, info.LesionMask)
	if err != nil {
		t.Fatalf("lesion mask stats failed: %v", err)
	}
	background, err := MaskStatsGrid(m.Mu, info.BackgroundMask)
	if err != nil {
		t.Fatalf("background mask stats failed: %v", err)
	}
	if lesion.Mean <= background.Mean {
		t.Errorf("lesion mu mean %v not above background mu mean %v", lesion.Mean, background.Mean)
	}
}

func TestContrastRejectsZeroBackground(t *testing.T) {
	r := &projector.Radiograph{
		Pix:    []float64{0, 0, 5, 5},
		Width:  2,
		Height: 2,
		I0:     5,
	}
	_, err := RectContrast(r, image.Rect(0, 1, 2, 2), image.Rect(0, 0, 2, 1))
	if !errors.Is(err, errors.ErrCodeDivideByZero) {
		t.Errorf("error = %v, want code %q", err, errors.ErrCodeDivideByZero)
	}
}

// nearUnitRadiograph projects at a source distance chosen so the detector
// frame lines up pixel for pixel with the map, letting the region
// rectangles from the phantom be applied to the image directly.
func nearUnitRadiograph(t *testing.T, opts phantom.Options) (*projector.Radiograph, *phantom.Info) {
	t.Helper()
	m, info, err := phantom.Build(opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	params := projector.DefaultParams()
	params.SIDMM = 999
	p, err := projector.New(params)
	if err != nil {
		t.Fatalf("projector.New failed: %v", err)
	}
	r, err := p.Project(m)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	return r, info
}

func TestLesionContrastPositive(t *testing.T) {
	r, info := nearUnitRadiograph(t, phantom.DefaultOptions())

	rep, err := RectContrast(r, info.LesionROI, info.BackgroundROI)
	if err != nil {
		t.Fatalf("RectContrast failed: %v", err)
	}
	if rep.Contrast <= 0.05 {
		t.Errorf("lesion contrast = %v, want clearly positive", rep.Contrast)
	}
	if rep.Lesion.Mean >= rep.Background.Mean {
		t.Errorf("lesion mean %v not below background mean %v", rep.Lesion.Mean, rep.Background.Mean)
	}
}

func TestContrastNearZeroWithoutLesion(t *testing.T) {
	opts := phantom.DefaultOptions()
	opts.IncludeLesion = false
	r, info := nearUnitRadiograph(t, opts)

	rep, err := RectContrast(r, info.LesionROI, info.BackgroundROI)
	if err != nil {
		t.Fatalf("RectContrast failed: %v", err)
	}
	if math.Abs(rep.Contrast) >= 0.05 {
		t.Errorf("contrast without lesion = %v, want near zero", rep.Contrast)
	}
}

func TestMaskContrastAgainstWholeBreast(t *testing.T) {
	r, info := nearUnitRadiograph(t, phantom.DefaultOptions())

	rep, err := MaskContrast(r, info.LesionMask, info.BackgroundMask)
	if err != nil {
		t.Fatalf("MaskContrast failed: %v", err)
	}
	if rep.Contrast <= 0 {
		t.Errorf("mask contrast = %v, want positive", rep.Contrast)
	}
	if rep.Lesion.N == 0 || rep.Background.N == 0 {
		t.Errorf("mask regions empty: lesion %d, background %d", rep.Lesion.N, rep.Background.N)
	}
}
