// Package figures renders the standard comparison set: the ground-truth
// phantom, single radiographs, distance and density and angle sweeps,
// profile charts, the sinogram, and the region statistics report.
package figures

import (
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/patrickmn/go-cache"

	"mammosim/internal/models"
	"mammosim/pkg/analysis"
	"mammosim/pkg/config"
	"mammosim/pkg/phantom"
	"mammosim/pkg/projector"
	"mammosim/pkg/render"
	"mammosim/pkg/sinogram"
)

// Output filenames of the figure suite.
const (
	PhantomFile           = "phantom_ground_truth.png"
	BaselineFile          = "baseline_radiograph.png"
	DistanceFile          = "distance_variation.png"
	MuFile                = "mu_variation.png"
	AngleFile             = "angle_variation.png"
	ProfileOverlaysFile   = "profile_overlays.png"
	ProfileCompressedFile = "profile_compressed.png"
	SinogramFile          = "sinogram.png"
	StatsFile             = "roi_stats.csv"
)

// DisplayMax is the radiograph display window ceiling. The air intensity
// of the baseline beam sits just below it, so tissue fills the gray range.
const DisplayMax = 0.7

// DenseScale is the attenuation multiplier of the dense-breast variant.
const DenseScale = 1.2

// montageGapPx separates panels in comparison figures.
const montageGapPx = 8

// Phantom builds are memoized so repeated suite runs and interactive
// parameter sweeps reuse the drawn grids.
var phantomCache = cache.New(30*time.Minute, time.Hour)

type phantomEntry struct {
	m    *phantom.Map
	info *phantom.Info
}

// cachedPhantom returns a memoized phantom build. Callers must treat the
// result as read-only.
func cachedPhantom(opts phantom.Options) (*phantom.Map, *phantom.Info, error) {
	key := fmt.Sprintf("%+v", opts)
	if v, ok := phantomCache.Get(key); ok {
		e := v.(phantomEntry)
		return e.m, e.info, nil
	}
	m, info, err := phantom.Build(opts)
	if err != nil {
		return nil, nil, err
	}
	phantomCache.Set(key, phantomEntry{m: m, info: info}, cache.DefaultExpiration)
	return m, info, nil
}

// Suite renders the figure set into one output directory.
type Suite struct {
	cfg       *config.Config
	logger    *log.Logger
	outDir    string
	statsFile string
}

// New assembles a suite writing to the configured output directory.
func New(cfg *config.Config, logger *log.Logger) *Suite {
	statsFile := cfg.Output.StatsFile
	if statsFile == "" {
		statsFile = StatsFile
	}
	return &Suite{cfg: cfg, logger: logger, outDir: cfg.Output.Dir, statsFile: statsFile}
}

// Generate renders every figure and the statistics report. The context
// bounds the sinogram sweep and is checked between figures.
func (s *Suite) Generate(ctx context.Context) error {
	start := time.Now()

	if err := os.MkdirAll(s.outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	opts := models.PhantomFromConfig(s.cfg)
	m, info, err := cachedPhantom(opts)
	if err != nil {
		return fmt.Errorf("building phantom: %w", err)
	}
	dense, err := m.Scaled(DenseScale)
	if err != nil {
		return fmt.Errorf("scaling phantom: %w", err)
	}
	copts := opts
	copts.Compression = true
	compressed, _, err := cachedPhantom(copts)
	if err != nil {
		return fmt.Errorf("building compressed phantom: %w", err)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{PhantomFile, func() error { return s.phantomFigure(m) }},
		{BaselineFile, func() error { return s.baselineFigure(m) }},
		{DistanceFile, func() error { return s.distanceFigure(m) }},
		{MuFile, func() error { return s.muFigure(m, dense) }},
		{AngleFile, func() error { return s.angleFigure(m) }},
		{ProfileOverlaysFile, func() error { return s.profileOverlays(m, dense) }},
		{ProfileCompressedFile, func() error { return s.profileCompressed(m, compressed) }},
		{SinogramFile, func() error { return s.sinogramFigure(ctx, m) }},
		{s.statsFile, func() error { return s.statsReport(m, dense, info) }},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.run(); err != nil {
			return fmt.Errorf("rendering %s: %w", step.name, err)
		}
		s.logger.Info("wrote figure", "file", step.name)
	}

	s.logger.Info("figure suite complete", "dir", s.outDir, "elapsed", time.Since(start))
	return nil
}

func (s *Suite) path(name string) string {
	return filepath.Join(s.outDir, name)
}

func (s *Suite) baseParams() projector.Params {
	return models.AcquisitionFromConfig(s.cfg)
}

// panel projects one radiograph and renders it with the standard window.
func (s *Suite) panel(params projector.Params, m *phantom.Map) (*image.Gray16, error) {
	p, err := projector.New(params)
	if err != nil {
		return nil, err
	}
	r, err := p.Project(m)
	if err != nil {
		return nil, err
	}
	return render.GrayImage(r.Pix, r.Width, r.Height, 0, DisplayMax)
}

func (s *Suite) profile(params projector.Params, m *phantom.Map) ([]float64, error) {
	p, err := projector.New(params)
	if err != nil {
		return nil, err
	}
	return p.Profile(m)
}

func (s *Suite) phantomFigure(m *phantom.Map) error {
	img, err := render.GrayImage(m.Mu, m.Width, m.Height, 0, m.MaxValue())
	if err != nil {
		return err
	}
	return render.SaveImage(img, s.path(PhantomFile))
}

func (s *Suite) baselineFigure(m *phantom.Map) error {
	img, err := s.panel(s.baseParams(), m)
	if err != nil {
		return err
	}
	return render.SaveImage(img, s.path(BaselineFile))
}

func (s *Suite) distanceFigure(m *phantom.Map) error {
	panels := make([]*image.Gray16, 0, 3)
	for _, sid := range []float64{500, 350, 700} {
		params := s.baseParams()
		params.SIDMM = sid
		img, err := s.panel(params, m)
		if err != nil {
			return err
		}
		panels = append(panels, img)
	}
	img, err := render.Montage(montageGapPx, panels...)
	if err != nil {
		return err
	}
	return render.SaveImage(img, s.path(DistanceFile))
}

func (s *Suite) muFigure(m, dense *phantom.Map) error {
	left, err := s.panel(s.baseParams(), m)
	if err != nil {
		return err
	}
	right, err := s.panel(s.baseParams(), dense)
	if err != nil {
		return err
	}
	img, err := render.Montage(montageGapPx, left, right)
	if err != nil {
		return err
	}
	return render.SaveImage(img, s.path(MuFile))
}

func (s *Suite) angleFigure(m *phantom.Map) error {
	panels := make([]*image.Gray16, 0, 3)
	for _, angle := range []float64{0, 15, 30} {
		params := s.baseParams()
		params.AngleDeg = angle
		img, err := s.panel(params, m)
		if err != nil {
			return err
		}
		panels = append(panels, img)
	}
	img, err := render.Montage(montageGapPx, panels...)
	if err != nil {
		return err
	}
	return render.SaveImage(img, s.path(AngleFile))
}

func (s *Suite) profileOverlays(m, dense *phantom.Map) error {
	base := s.baseParams()

	short := base
	short.SIDMM = 350
	angled := base
	angled.AngleDeg = 20

	series := make([]render.Series, 0, 4)
	for _, v := range []struct {
		name   string
		params projector.Params
		m      *phantom.Map
	}{
		{"baseline", base, m},
		{"SID 350 mm", short, m},
		{fmt.Sprintf("dense x%.1f", DenseScale), base, dense},
		{"angle 20 deg", angled, m},
	} {
		prof, err := s.profile(v.params, v.m)
		if err != nil {
			return err
		}
		series = append(series, render.Series{Name: v.name, Values: prof})
	}
	return render.ProfilePlot(s.path(ProfileOverlaysFile), "Detector profiles", series...)
}

func (s *Suite) profileCompressed(m, compressed *phantom.Map) error {
	base, err := s.profile(s.baseParams(), m)
	if err != nil {
		return err
	}
	comp, err := s.profile(s.baseParams(), compressed)
	if err != nil {
		return err
	}
	return render.ProfilePlot(s.path(ProfileCompressedFile), "Compression",
		render.Series{Name: "uncompressed", Values: base},
		render.Series{Name: "compressed", Values: comp},
	)
}

func (s *Suite) sinogramFigure(ctx context.Context, m *phantom.Map) error {
	a, err := sinogram.New(models.SweepFromConfig(s.cfg))
	if err != nil {
		return err
	}
	sg, err := a.Build(ctx, m)
	if err != nil {
		return err
	}
	min, max := render.DataRange(sg.Data)
	img, err := render.GrayImage(sg.Data, sg.Cols, sg.Rows, min, max)
	if err != nil {
		return err
	}
	return render.SaveImage(img, s.path(SinogramFile))
}

// statsReport projects each comparison scenario, carries the lesion and
// background masks through the same transform, and writes one CSV row of
// region statistics per scenario.
func (s *Suite) statsReport(m, dense *phantom.Map, info *phantom.Info) error {
	base := s.baseParams()

	with := func(mutate func(*projector.Params)) projector.Params {
		p := base
		mutate(&p)
		return p
	}
	scenarios := []struct {
		sc models.Scenario
		m  *phantom.Map
	}{
		{models.Scenario{Name: "baseline", Params: base}, m},
		{models.Scenario{Name: "sid_350", Params: with(func(p *projector.Params) { p.SIDMM = 350 })}, m},
		{models.Scenario{Name: "sid_700", Params: with(func(p *projector.Params) { p.SIDMM = 700 })}, m},
		{models.Scenario{Name: "dense", Params: base}, dense},
		{models.Scenario{Name: "angle_15", Params: with(func(p *projector.Params) { p.AngleDeg = 15 })}, m},
		{models.Scenario{Name: "angle_30", Params: with(func(p *projector.Params) { p.AngleDeg = 30 })}, m},
		{models.Scenario{Name: "grid_on", Params: with(func(p *projector.Params) { p.GridOn = true })}, m},
	}

	rows := make([]models.StatsRow, 0, len(scenarios))
	for _, v := range scenarios {
		p, err := projector.New(v.sc.Params)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", v.sc.Name, err)
		}
		r, err := p.Project(v.m)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", v.sc.Name, err)
		}
		lesion, err := p.WarpMask(v.m, info.LesionMask)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", v.sc.Name, err)
		}
		background, err := p.WarpMask(v.m, info.BackgroundMask)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", v.sc.Name, err)
		}
		rep, err := analysis.MaskContrast(r, lesion, background)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", v.sc.Name, err)
		}
		rows = append(rows, models.StatsRow{
			Scenario:       v.sc.Name,
			LesionMean:     rep.Lesion.Mean,
			LesionStd:      rep.Lesion.Std,
			BackgroundMean: rep.Background.Mean,
			BackgroundStd:  rep.Background.Std,
			Contrast:       rep.Contrast,
		})
	}

	f, err := os.Create(s.path(s.statsFile))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.StatsHeader()); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row.Record()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
