package figures

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/charmbracelet/log"

	"mammosim/internal/models"
	"mammosim/pkg/config"
	"mammosim/pkg/phantom"
)

func testSuite(t *testing.T) *Suite {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()
	cfg.Sinogram.StepDeg = 30
	cfg.Sinogram.Workers = 2
	return New(cfg, log.New(io.Discard))
}

func TestGenerateWritesAllFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("full figure suite in short mode")
	}

	s := testSuite(t)
	if err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	files := []string{
		PhantomFile,
		BaselineFile,
		DistanceFile,
		MuFile,
		AngleFile,
		ProfileOverlaysFile,
		ProfileCompressedFile,
		SinogramFile,
		StatsFile,
	}
	for _, name := range files {
		info, err := os.Stat(filepath.Join(s.outDir, name))
		if err != nil {
			t.Errorf("%s not written: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestGenerateHonorsCancellation(t *testing.T) {
	s := testSuite(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Generate(ctx); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Generate error = %v, want context.Canceled", err)
	}
}

func TestStatsReport(t *testing.T) {
	s := testSuite(t)

	m, info, err := cachedPhantom(models.PhantomFromConfig(s.cfg))
	if err != nil {
		t.Fatalf("cachedPhantom failed: %v", err)
	}
	dense, err := m.Scaled(DenseScale)
	if err != nil {
		t.Fatalf("Scaled failed: %v", err)
	}
	if err := s.statsReport(m, dense, info); err != nil {
		t.Fatalf("statsReport failed: %v", err)
	}

	f, err := os.Open(filepath.Join(s.outDir, StatsFile))
	if err != nil {
		t.Fatalf("opening report: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if len(records) != 8 {
		t.Fatalf("report has %d records, want header plus 7 scenarios", len(records))
	}

	header := models.StatsHeader()
	for i, col := range header {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}

	baseline := records[1]
	if baseline[0] != "baseline" {
		t.Fatalf("first scenario = %q, want baseline", baseline[0])
	}
	contrast, err := strconv.ParseFloat(baseline[5], 64)
	if err != nil {
		t.Fatalf("parsing contrast %q: %v", baseline[5], err)
	}
	if contrast <= 0 {
		t.Errorf("baseline contrast = %v, want positive", contrast)
	}
}

func TestCachedPhantomReuse(t *testing.T) {
	opts := phantom.DefaultOptions()

	first, _, err := cachedPhantom(opts)
	if err != nil {
		t.Fatalf("cachedPhantom failed: %v", err)
	}
	second, _, err := cachedPhantom(opts)
	if err != nil {
		t.Fatalf("cachedPhantom failed: %v", err)
	}
	if first != second {
		t.Error("identical options rebuilt the phantom instead of hitting the cache")
	}

	opts.Seed = 7
	third, _, err := cachedPhantom(opts)
	if err != nil {
		t.Fatalf("cachedPhantom failed: %v", err)
	}
	if third == first {
		t.Error("different options returned the cached phantom")
	}
}
