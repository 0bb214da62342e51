package cli

import (
	"context"

	"github.com/spf13/cobra"

	"mammosim/internal/figures"
	"mammosim/pkg/config"
)

// figuresOpts holds the command-line flags for the figures command.
type figuresOpts struct {
	outDir string // output directory for figures and the stats report
}

// newFiguresCmd creates the figures command for rendering the full
// comparison figure set: phantom, baseline radiograph, distance, density
// and angle comparisons, profile overlays, the sinogram, and the region
// statistics report.
func newFiguresCmd() *cobra.Command {
	opts := figuresOpts{}

	cmd := &cobra.Command{
		Use:   "figures",
		Short: "Render the full comparison figure set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.Output.Dir = opts.outDir
			}
			return runFigures(cmd.Context(), cfg, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "figs", "output directory")

	return cmd
}

// runFigures renders every figure into the configured output directory.
func runFigures(ctx context.Context, cfg *config.Config, opts *figuresOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	logger.Infof("Rendering figure set into %s", cfg.Output.Dir)
	suite := figures.New(cfg, logger)
	if err := suite.Generate(ctx); err != nil {
		return err
	}

	prog.done("Figure set finished")
	return nil
}
