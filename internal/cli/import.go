package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/eisen/internal/ports/primary"
	"github.com/example/eisen/internal/ports/secondary"
	"github.com/example/eisen/internal/wire"
)

// ImportCmd returns the import command
func ImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Merge tasks from a JSON file",
		Long: `Merge tasks from JSON into the board. Three shapes are accepted:

  {"tasks": {"<id>": {"title": ...}}}       an eisen export
  {"Q1": {"Task title": "due date"}, ...}  titles grouped by quadrant
  {"Task title": "due date", ...}          titles mapped to due dates

Existing tasks are updated in place; new ones are added. Reading from stdin
when no file (or "-") is given.

Examples:
  eisen import tasks.json
  eisen import tasks.json --reset     # move existing tasks to the backlog first
  eisen import tasks.json --watch     # re-import whenever the file changes`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImport,
	}
	cmd.Flags().Bool("reset", false, "Move every existing task to the backlog before merging")
	cmd.Flags().BoolP("watch", "w", false, "Keep running and re-import the file on every change")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	reset, _ := cmd.Flags().GetBool("reset")
	watch, _ := cmd.Flags().GetBool("watch")

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	if watch && path == "-" {
		return errors.New("--watch needs a file to watch")
	}

	raw, err := readSource(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	adapter := wire.TaskAdapterWithOutput(cmd.OutOrStdout())
	if err := adapter.Import(ctx, raw, reset); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", path)
	return watchImport(ctx, wire.FileWatcher(), wire.TaskService(), path, func(raw string) error {
		// Only the first import may reset; later edits merge.
		return adapter.Import(ctx, raw, false)
	}, cmd.ErrOrStderr())
}

// watchImport re-imports path on every change until ctx is done. Import
// errors are reported and the watch continues.
func watchImport(ctx context.Context, watcher secondary.FileWatcher, tasks primary.TaskService, path string, importFn func(string) error, errOut io.Writer) error {
	return watcher.Watch(ctx, path, func() {
		raw, err := readSource(nil, path)
		if err == nil {
			err = importFn(raw)
		}
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return
		}
		if err := tasks.Flush(ctx); err != nil {
			slog.Warn("failed to save imported tasks", "error", err)
		}
	})
}

func readSource(stdin io.Reader, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
