package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"mammosim/pkg/config"
	"mammosim/pkg/projector"
)

// Version information set by the build process.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cfgPath is the configuration file read by every command. It is bound to
// the persistent --config flag and falls back to built-in defaults when the
// file does not exist.
var cfgPath string

// SetVersion sets the version information for the CLI.
// This is typically called from main with values injected at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command for the mammosim CLI.
// It sets up all subcommands, configures logging based on the --verbose flag,
// and returns any error from command execution. Cancelling ctx stops
// long-running work such as sinogram sweeps.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:   "mammosim",
		Short: "Planar X-ray projection simulator for a synthetic breast phantom",
		Long: `mammosim draws a procedural breast attenuation phantom and simulates
planar X-ray acquisition over it: single radiographs, intensity profiles,
angle sweeps into sinograms, and region contrast statistics.

The acquisition follows an idealized exponential attenuation law, so image
values stay within the incident intensity and respond monotonically to
tube voltage, exposure time, and added filtration.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(os.Stderr, level)
			cmd.SetContext(withLogger(cmd.Context(), logger))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("mammosim %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&cfgPath, "config", "mammosim.yaml", "configuration file path")

	root.AddCommand(newPhantomCmd())
	root.AddCommand(newSimulateCmd())
	root.AddCommand(newSinogramCmd())
	root.AddCommand(newFiguresCmd())
	root.AddCommand(newInitConfigCmd())

	return root.ExecuteContext(ctx)
}

// loadConfig reads the file named by --config, falling back to defaults
// when it does not exist. A verbose output setting in the file raises the
// session logger to debug level, same as the --verbose flag.
func loadConfig(ctx context.Context) (*config.Config, error) {
	logger := loggerFromContext(ctx)
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	if cfg.Output.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	logger.Debugf("Configuration source: %s", cfgPath)
	return cfg, nil
}

// clampAcquisition pulls the tunable acquisition values back into their
// configured ranges, warning for each input that had to be adjusted.
// Structural validation still happens inside the projector, so impossible
// geometries are reported as errors rather than silently corrected.
func clampAcquisition(logger *log.Logger, cfg *config.Config, p projector.Params) projector.Params {
	clamp := func(name string, r config.Range, v float64) float64 {
		if r.Contains(v) {
			return v
		}
		c := r.Clamp(v)
		logger.Warnf("%s %g is outside [%g, %g], using %g", name, v, r.Min, r.Max, c)
		return c
	}

	p.AngleDeg = clamp("angle", cfg.Ranges.AngleDeg, p.AngleDeg)
	p.SIDMM = clamp("sid", cfg.Ranges.SIDMM, p.SIDMM)
	p.SDDMM = clamp("sdd", cfg.Ranges.SDDMM, p.SDDMM)
	p.KVP = clamp("kvp", cfg.Ranges.KVP, p.KVP)
	p.ExposureS = clamp("exposure", cfg.Ranges.ExposureS, p.ExposureS)
	p.FiltrationMM = clamp("filtration", cfg.Ranges.FiltrationMM, p.FiltrationMM)
	return p
}
