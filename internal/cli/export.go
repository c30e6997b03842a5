package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/eisen/internal/ports/primary"
	"github.com/example/eisen/internal/wire"
)

// ExportCmd returns the export command
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every task",
		Long: `Export the board as versioned JSON (re-importable with 'eisen import')
or as a Markdown checklist grouped by quadrant.

Examples:
  eisen export                          # JSON to stdout
  eisen export --out backup.json
  eisen export --format md --out board.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			format, _ := cmd.Flags().GetString("format")

			f := primary.ExportFormat(format)
			if f != primary.ExportJSON && f != primary.ExportMarkdown {
				return fmt.Errorf("unknown export format %q (use json or md)", format)
			}

			return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Export(cmd.Context(), f, out, wire.ExportWriter())
		},
	}
	cmd.Flags().StringP("out", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringP("format", "f", string(primary.ExportJSON), "Export format: json or md")
	return cmd
}
