package render

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"mammosim/pkg/errors"
)

func TestGrayImageWindow(t *testing.T) {
	data := []float64{-0.5, 0.5, 1, 2}
	img, err := GrayImage(data, 2, 2, 0, 1)
	if err != nil {
		t.Fatalf("GrayImage failed: %v", err)
	}

	// Values below the window clamp to black, above to white.
	if got := img.Gray16At(0, 0).Y; got != 0 {
		t.Errorf("pixel (0,0) = %d, want 0", got)
	}
	if got := img.Gray16At(1, 0).Y; got != 32767 {
		t.Errorf("pixel (1,0) = %d, want 32767", got)
	}
	if got := img.Gray16At(0, 1).Y; got != 65535 {
		t.Errorf("pixel (0,1) = %d, want 65535", got)
	}
	if got := img.Gray16At(1, 1).Y; got != 65535 {
		t.Errorf("pixel (1,1) = %d, want 65535", got)
	}
}

func TestGrayImageErrors(t *testing.T) {
	tests := []struct {
		name string
		call func() error
	}{
		{"ZeroWidth", func() error { _, err := GrayImage(nil, 0, 2, 0, 1); return err }},
		{"LengthMismatch", func() error { _, err := GrayImage(make([]float64, 3), 2, 2, 0, 1); return err }},
		{"EmptyWindow", func() error { _, err := GrayImage(make([]float64, 4), 2, 2, 1, 1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, errors.ErrCodeInvalidParam) {
				t.Errorf("error = %v, want code %q", err, errors.ErrCodeInvalidParam)
			}
		})
	}
}

func TestDataRange(t *testing.T) {
	min, max := DataRange([]float64{0.3, -1, 7, 2})
	if min != -1 || max != 7 {
		t.Errorf("range = [%v, %v], want [-1, 7]", min, max)
	}
	min, max = DataRange(nil)
	if min != 0 || max != 0 {
		t.Errorf("empty range = [%v, %v], want [0, 0]", min, max)
	}
}

func TestMontage(t *testing.T) {
	left, err := GrayImage([]float64{0, 0, 0, 0}, 2, 2, 0, 1)
	if err != nil {
		t.Fatalf("GrayImage failed: %v", err)
	}
	right, err := GrayImage([]float64{1, 1, 1, 1, 1, 1}, 3, 2, 0, 1)
	if err != nil {
		t.Fatalf("GrayImage failed: %v", err)
	}

	out, err := Montage(4, left, right)
	if err != nil {
		t.Fatalf("Montage failed: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 9 || b.Dy() != 2 {
		t.Fatalf("montage size = %dx%d, want 9x2", b.Dx(), b.Dy())
	}
	if got := out.Gray16At(0, 0).Y; got != 0 {
		t.Errorf("left panel pixel = %d, want 0", got)
	}
	if got := out.Gray16At(3, 0).Y; got != 65535 {
		t.Errorf("gap pixel = %d, want white", got)
	}
	if got := out.Gray16At(6, 1).Y; got != 65535 {
		t.Errorf("right panel pixel = %d, want 65535", got)
	}
}

func TestMontageErrors(t *testing.T) {
	a, _ := GrayImage(make([]float64, 4), 2, 2, 0, 1)
	b, _ := GrayImage(make([]float64, 6), 2, 3, 0, 1)

	if _, err := Montage(4); !errors.Is(err, errors.ErrCodeInvalidParam) {
		t.Errorf("no panels error = %v, want code %q", err, errors.ErrCodeInvalidParam)
	}
	if _, err := Montage(4, a, b); !errors.Is(err, errors.ErrCodeInvalidParam) {
		t.Errorf("height mismatch error = %v, want code %q", err, errors.ErrCodeInvalidParam)
	}
	if _, err := Montage(-1, a); !errors.Is(err, errors.ErrCodeInvalidParam) {
		t.Errorf("negative gap error = %v, want code %q", err, errors.ErrCodeInvalidParam)
	}
}

func TestSaveImageFormats(t *testing.T) {
	img, err := GrayImage([]float64{0, 0.25, 0.5, 0.75}, 2, 2, 0, 1)
	if err != nil {
		t.Fatalf("GrayImage failed: %v", err)
	}
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "sub", "out.png")
	if err := SaveImage(img, pngPath); err != nil {
		t.Fatalf("SaveImage png failed: %v", err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatalf("opening png: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding png: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("decoded size = %dx%d, want 2x2", b.Dx(), b.Dy())
	}

	jpgPath := filepath.Join(dir, "out.jpg")
	if err := SaveImage(img, jpgPath); err != nil {
		t.Fatalf("SaveImage jpg failed: %v", err)
	}
	if info, err := os.Stat(jpgPath); err != nil || info.Size() == 0 {
		t.Errorf("jpg not written: %v", err)
	}

	if err := SaveImage(img, filepath.Join(dir, "out.bmp")); !errors.Is(err, errors.ErrCodeInvalidParam) {
		t.Errorf("unsupported extension error = %v, want code %q", err, errors.ErrCodeInvalidParam)
	}
}

func TestProfilePlot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "charts", "profiles.png")

	err := ProfilePlot(path, "Detector profiles",
		Series{Name: "baseline", Values: []float64{0.7, 0.5, 0.3, 0.5, 0.7}},
		Series{Name: "dense", Values: []float64{0.6, 0.4, 0.2, 0.4, 0.6}},
	)
	if err != nil {
		t.Fatalf("ProfilePlot failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("chart not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("chart file is empty")
	}

	if err := ProfilePlot(filepath.Join(dir, "x.png"), "empty"); !errors.Is(err, errors.ErrCodeInvalidParam) {
		t.Errorf("no series error = %v, want code %q", err, errors.ErrCodeInvalidParam)
	}
	bad := Series{Name: "empty", Values: nil}
	if err := ProfilePlot(filepath.Join(dir, "y.png"), "empty", bad); !errors.Is(err, errors.ErrCodeInvalidParam) {
		t.Errorf("empty series error = %v, want code %q", err, errors.ErrCodeInvalidParam)
	}
}
