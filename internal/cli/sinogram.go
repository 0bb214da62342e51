package cli

import (
	"context"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"mammosim/internal/models"
	"mammosim/pkg/config"
	"mammosim/pkg/phantom"
	"mammosim/pkg/render"
	"mammosim/pkg/sinogram"
)

// sinogramOpts holds the command-line flags for the sinogram command.
type sinogramOpts struct {
	output     string  // output image path
	step       float64 // angular step in degrees
	workers    int     // concurrent row workers, 0 means one per CPU
	noProgress bool    // suppress the terminal progress bar
}

// newSinogramCmd creates the sinogram command for sweeping the beam angle
// over [0, 180) degrees. Rows are computed concurrently and assembled into
// a single image, one detector profile per angle.
func newSinogramCmd() *cobra.Command {
	opts := sinogramOpts{}

	cmd := &cobra.Command{
		Use:   "sinogram",
		Short: "Sweep the beam angle over a half rotation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("step") {
				cfg.Sinogram.StepDeg = opts.step
			}
			if cmd.Flags().Changed("workers") {
				cfg.Sinogram.Workers = opts.workers
			}
			return runSinogram(cmd.Context(), cfg, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "sinogram.png", "output image path")
	cmd.Flags().Float64Var(&opts.step, "step", 1.0, "angular step in degrees")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent row workers (0 = one per CPU)")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "suppress the progress bar")

	return cmd
}

// runSinogram builds the angle sweep and writes the assembled sinogram,
// windowed over its own value range, as an image.
func runSinogram(ctx context.Context, cfg *config.Config, opts *sinogramOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	m, _, err := phantom.Build(models.PhantomFromConfig(cfg))
	if err != nil {
		return err
	}

	sweep := models.SweepFromConfig(cfg)
	sweep.Acquisition = clampAcquisition(logger, cfg, sweep.Acquisition)

	// The row count is only known once the assembler has validated the
	// sweep, so the bar is wired through an indirection set just below.
	var increment func()
	if !opts.noProgress {
		sweep.Progress = func(done, total int) {
			increment()
		}
	}

	asm, err := sinogram.New(sweep)
	if err != nil {
		return err
	}
	rows := len(asm.Angles())
	logger.Infof("Sweeping %d angles (step %g deg, %d workers)", rows, cfg.Sinogram.StepDeg, cfg.Sinogram.Workers)

	var bar *pb.ProgressBar
	if !opts.noProgress {
		bar = pb.StartNew(rows)
		increment = func() { bar.Increment() }
	}

	sg, err := asm.Build(ctx, m)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	min, max := render.DataRange(sg.Data)
	img, err := render.GrayImage(sg.Data, sg.Cols, sg.Rows, min, max)
	if err != nil {
		return err
	}
	if err := render.SaveImage(img, opts.output); err != nil {
		return err
	}

	prog.done("Wrote " + opts.output)
	return nil
}
