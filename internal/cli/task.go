package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/example/eisen/internal/models"
	"github.com/example/eisen/internal/ports/primary"
	"github.com/example/eisen/internal/wire"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long: `Create, list, edit, move and complete tasks.

Wherever a task is named, a full id, a unique id prefix, or an exact title works.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a new task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		due, _ := cmd.Flags().GetString("due")
		quadrant, _ := cmd.Flags().GetString("quadrant")
		tag, _ := cmd.Flags().GetString("tag")

		req := primary.AddTaskRequest{Title: args[0], Due: due, Quadrant: models.QuadrantBacklog}
		if quadrant != "" {
			q, err := parseQuadrant(quadrant)
			if err != nil {
				return err
			}
			req.Quadrant = q
		}
		if tag != "" {
			t, err := parseTag(tag)
			if err != nil {
				return err
			}
			req.Tag = t
		}
		return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Add(cmd.Context(), req)
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		quadrant, _ := cmd.Flags().GetString("quadrant")
		done, _ := cmd.Flags().GetBool("done")
		open, _ := cmd.Flags().GetBool("open")

		var filters primary.TaskFilters
		if quadrant != "" {
			q, err := parseQuadrant(quadrant)
			if err != nil {
				return err
			}
			filters.Quadrant = q
		}
		switch {
		case done && open:
			return errors.New("--done and --open cannot be combined")
		case done:
			filters.Done = &done
		case open:
			notDone := false
			filters.Done = &notDone
		}
		return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).List(cmd.Context(), filters)
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Show(cmd.Context(), args[0])
		return err
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task]",
	Short: "Change a task's title, due date or tag",
	Long: `Change a task's title, due date or tag. Only the flags given are changed.
An empty --due clears the due date; --tag none clears the tag.

Examples:
  eisen task edit "Write report" --due "3. 11. 2026 at 17:00"
  eisen task edit 3f2b8c1e --title "Write the Q3 report" --tag work`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var title, due *string
		var tag *models.Tag

		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			title = &v
		}
		if cmd.Flags().Changed("due") {
			v, _ := cmd.Flags().GetString("due")
			due = &v
		}
		if cmd.Flags().Changed("tag") {
			v, _ := cmd.Flags().GetString("tag")
			t, err := parseTag(v)
			if err != nil {
				return err
			}
			tag = &t
		}
		return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Edit(cmd.Context(), args[0], title, due, tag)
	},
}

var taskMoveCmd = &cobra.Command{
	Use:   "move [task] [quadrant]",
	Short: "Move a task to Q1, Q2, Q3, Q4 or the backlog",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := parseQuadrant(args[1])
		if err != nil {
			return err
		}
		return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Move(cmd.Context(), args[0], q)
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [task]",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).SetDone(cmd.Context(), args[0], true)
	},
}

var taskUndoneCmd = &cobra.Command{
	Use:   "undone [task]",
	Short: "Reopen a completed task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).SetDone(cmd.Context(), args[0], false)
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [task]",
	Short: "Delete a task",
	Long:  "Delete a task. A focus timer running on it keeps its break but forgets the task.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Delete(cmd.Context(), args[0])
	},
}

var taskLogCmd = &cobra.Command{
	Use:   "log [task] [duration]",
	Short: "Add time spent on a task",
	Long: `Add time spent on a task outside the focus timer.

Examples:
  eisen task log "Write report" 1500
  eisen task log "Write report" 1h15m`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := parseSpent(args[1])
		if err != nil {
			return err
		}
		return wire.TaskAdapterWithOutput(cmd.OutOrStdout()).Log(cmd.Context(), args[0], seconds)
	},
}

func init() {
	// task add flags
	taskAddCmd.Flags().String("due", "", `Due date ("D. M. YYYY at H:MM" or ISO 8601)`)
	taskAddCmd.Flags().StringP("quadrant", "q", "", "Quadrant: Q1, Q2, Q3, Q4 or backlog (default backlog)")
	taskAddCmd.Flags().StringP("tag", "t", "", "Tag: work, personal, health or learning")

	// task list flags
	taskListCmd.Flags().StringP("quadrant", "q", "", "Filter by quadrant")
	taskListCmd.Flags().Bool("done", false, "Only completed tasks")
	taskListCmd.Flags().Bool("open", false, "Only open tasks")

	// task edit flags
	taskEditCmd.Flags().String("title", "", "New title")
	taskEditCmd.Flags().String("due", "", "New due date (empty clears it)")
	taskEditCmd.Flags().StringP("tag", "t", "", "New tag (none clears it)")

	// Register subcommands
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskUndoneCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskLogCmd)
}

// TaskCmd returns the task command
func TaskCmd() *cobra.Command {
	return taskCmd
}
