package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mammosim/pkg/config"
)

// initConfigOpts holds the command-line flags for the init-config command.
type initConfigOpts struct {
	force bool // overwrite an existing file
}

// newInitConfigCmd creates the init-config command for writing a default
// configuration file. The target path comes from the --config flag, so
// `mammosim --config sim.yaml init-config` seeds a file the other commands
// will pick up.
func newInitConfigCmd() *cobra.Command {
	opts := initConfigOpts{}

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitConfig(cmd.Context(), cfgPath, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing file")

	return cmd
}

// runInitConfig writes the defaults to path, refusing to clobber an
// existing file unless forced.
func runInitConfig(ctx context.Context, path string, opts *initConfigOpts) error {
	logger := loggerFromContext(ctx)

	if _, err := os.Stat(path); err == nil && !opts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.CreateDefaultConfigFile(path); err != nil {
		return err
	}

	logger.Infof("Wrote default configuration to %s", path)
	return nil
}
