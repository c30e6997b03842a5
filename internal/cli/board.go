package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/eisen/internal/wire"
)

// BoardCmd returns the board command
func BoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the Eisenhower board",
		Long:  "Show open tasks grouped into Q1-Q4 and the backlog. Completed tasks are hidden unless --all is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Board(cmd.Context(), all)
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Include completed tasks")
	return cmd
}
