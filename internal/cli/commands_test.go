package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"mammosim/internal/models"
	"mammosim/pkg/config"
)

// testContext returns a context whose logger discards all output.
func testContext() context.Context {
	return withLogger(context.Background(), log.New(io.Discard))
}

// requireFile fails the test when path is missing or empty.
func requireFile(t *testing.T, path string) {
	t.Helper()
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected output at %s: %v", path, err)
	}
	if fi.Size() == 0 {
		t.Fatalf("output %s is empty", path)
	}
}

func TestRunPhantom(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		opts phantomOpts
	}{
		{"breast", phantomOpts{output: filepath.Join(dir, "breast.png")}},
		{"compressed", phantomOpts{output: filepath.Join(dir, "compressed.png"), compression: true}},
		{"shepp logan", phantomOpts{output: filepath.Join(dir, "shepp.png"), sheppLogan: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runPhantom(testContext(), cfg, &tt.opts); err != nil {
				t.Fatalf("runPhantom() error: %v", err)
			}
			requireFile(t, tt.opts.output)
		})
	}
}

func TestRunSimulate(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	opts := simulateOpts{
		output:  filepath.Join(dir, "radiograph.png"),
		profile: filepath.Join(dir, "profile.png"),
	}

	p := models.AcquisitionFromConfig(cfg)
	if err := runSimulate(testContext(), cfg, p, &opts); err != nil {
		t.Fatalf("runSimulate() error: %v", err)
	}

	requireFile(t, opts.output)
	requireFile(t, opts.profile)
}

func TestRunSimulateRejectsBadGeometry(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := simulateOpts{output: filepath.Join(t.TempDir(), "radiograph.png")}

	p := models.AcquisitionFromConfig(cfg)
	p.SIDMM = 700
	p.SDDMM = 500

	if err := runSimulate(testContext(), cfg, p, &opts); err == nil {
		t.Fatal("expected an error for SID beyond SDD")
	}
}

func TestRunSinogram(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Sinogram.StepDeg = 30
	cfg.Sinogram.Workers = 2
	opts := sinogramOpts{
		output:     filepath.Join(dir, "sinogram.png"),
		noProgress: true,
	}

	if err := runSinogram(testContext(), cfg, &opts); err != nil {
		t.Fatalf("runSinogram() error: %v", err)
	}
	requireFile(t, opts.output)
}

func TestRunInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mammosim.yaml")

	if err := runInitConfig(testContext(), path, &initConfigOpts{}); err != nil {
		t.Fatalf("runInitConfig() error: %v", err)
	}
	requireFile(t, path)

	if err := runInitConfig(testContext(), path, &initConfigOpts{}); err == nil {
		t.Fatal("expected an error when the file already exists")
	}
	if err := runInitConfig(testContext(), path, &initConfigOpts{force: true}); err != nil {
		t.Fatalf("runInitConfig() with force error: %v", err)
	}
}
