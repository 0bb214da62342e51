package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"mammosim/internal/models"
	"mammosim/pkg/analysis"
	"mammosim/pkg/config"
	"mammosim/pkg/phantom"
	"mammosim/pkg/render"
)

// phantomOpts holds the command-line flags for the phantom command.
type phantomOpts struct {
	output      string // output image path
	sheppLogan  bool   // draw the Shepp-Logan test pattern instead of the breast
	compression bool   // apply the compression transform
	noLesion    bool   // leave the lesion disk out
}

// newPhantomCmd creates the phantom command for drawing the attenuation map.
// The map is windowed over its full value range, so the densest structure
// maps to white regardless of which regions are enabled.
func newPhantomCmd() *cobra.Command {
	opts := phantomOpts{}

	cmd := &cobra.Command{
		Use:   "phantom",
		Short: "Draw the attenuation map and save it as an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			return runPhantom(cmd.Context(), cfg, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "phantom.png", "output image path")
	cmd.Flags().BoolVar(&opts.sheppLogan, "shepp-logan", false, "draw the Shepp-Logan test pattern instead")
	cmd.Flags().BoolVar(&opts.compression, "compression", false, "apply the compression transform")
	cmd.Flags().BoolVar(&opts.noLesion, "no-lesion", false, "leave the lesion disk out")

	return cmd
}

// runPhantom builds the requested attenuation map and writes it to disk.
func runPhantom(ctx context.Context, cfg *config.Config, opts *phantomOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	var m *phantom.Map
	if opts.sheppLogan {
		logger.Infof("Drawing %dx%d Shepp-Logan test pattern", cfg.Phantom.Width, cfg.Phantom.Height)
		sl, err := phantom.SheppLogan(cfg.Phantom.Width, cfg.Phantom.Height)
		if err != nil {
			return err
		}
		m = sl
	} else {
		popts := models.PhantomFromConfig(cfg)
		if opts.compression {
			popts.Compression = true
		}
		if opts.noLesion {
			popts.IncludeLesion = false
		}
		logger.Infof("Building %dx%d breast phantom (seed %d)", popts.Width, popts.Height, popts.Seed)

		built, info, err := phantom.Build(popts)
		if err != nil {
			return err
		}
		m = built
		logger.Debugf("Tissue attenuation: adipose %.3f, gland %.3f, lesion %.3f",
			info.AdiposeMu, info.GlandMu, info.LesionMu)
		logger.Debugf("Lesion site %v, reference site %v", info.LesionROI, info.BackgroundROI)
		if info.Compressed {
			logger.Infof("Compression applied (row scale %.2f)", info.CompressionFactor)
		}
		if err := logMuStats(logger, m, info); err != nil {
			return err
		}
	}

	img, err := render.GrayImage(m.Mu, m.Width, m.Height, 0, m.MaxValue())
	if err != nil {
		return err
	}
	if err := render.SaveImage(img, opts.output); err != nil {
		return err
	}

	prog.done("Wrote " + opts.output)
	return nil
}

// logMuStats reports attenuation statistics over the lesion site and the
// rest of the breast, measured on the map itself rather than a projection.
func logMuStats(logger *log.Logger, m *phantom.Map, info *phantom.Info) error {
	lesion, err := analysis.MaskStatsGrid(m.Mu, info.LesionMask)
	if err != nil {
		return err
	}
	background, err := analysis.MaskStatsGrid(m.Mu, info.BackgroundMask)
	if err != nil {
		return err
	}
	logger.Infof("Lesion site mu: mean %.4f, std %.4f (%d px)", lesion.Mean, lesion.Std, lesion.N)
	logger.Infof("Background mu: mean %.4f, std %.4f (%d px)", background.Mean, background.Std, background.N)
	return nil
}
