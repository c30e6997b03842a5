package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/eisen/internal/config"
	"github.com/example/eisen/internal/telemetry"
	"github.com/example/eisen/internal/version"
	"github.com/example/eisen/internal/wire"
)

var logCloser io.Closer

// RootCmd returns the eisen command tree.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "eisen",
		Short:   "Eisenhower-matrix tasks with a focus timer",
		Version: version.String(),
		Long: `eisen keeps tasks on an Eisenhower board (Q1-Q4 plus a backlog),
imports task lists from JSON, and runs a focus timer that credits time to tasks.

Data lives in ~/.eisen (override with EISEN_HOME).`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mirror logs to stderr")

	rootCmd.AddCommand(InitCmd())
	rootCmd.AddCommand(ImportCmd())
	rootCmd.AddCommand(ExportCmd())
	rootCmd.AddCommand(TaskCmd())
	rootCmd.AddCommand(BoardCmd())
	rootCmd.AddCommand(FocusCmd())

	return rootCmd
}

// setup loads the configuration and logger before any command runs.
// Services themselves are built lazily on first use.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var mirror io.Writer
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		mirror = os.Stderr
	}
	logger, closer, err := telemetry.NewLogger(cfg.HomeDir, cfg.LogLevel, mirror)
	if err != nil {
		return err
	}
	logCloser = closer
	logger.Debug("command started", "command", cmd.CommandPath())

	wire.Configure(cfg, logger)
	return nil
}

// Shutdown flushes pending writes and releases the log file.
func Shutdown(ctx context.Context) error {
	err := wire.Shutdown(ctx)
	if logCloser != nil {
		err = errors.Join(err, logCloser.Close())
	}
	return err
}
