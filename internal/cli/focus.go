package cli

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	cliadapter "github.com/example/eisen/internal/adapters/cli"
	"github.com/example/eisen/internal/core/focus"
	"github.com/example/eisen/internal/wire"
)

// FocusCmd returns the focus command
func FocusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Run a focus timer against a task",
		Long: `A focus timer alternating focus intervals and breaks. Completed focus
intervals are credited to the task as time spent.

The timer keeps counting between commands: every focus command first catches
up on the time that passed since the last one.

Examples:
  eisen focus start "Write report"
  eisen focus run                  # live countdown until the timer stops
  eisen focus pause
  eisen focus config --focus 50 --short 10`,
	}

	cmd.AddCommand(focusStartCmd())
	cmd.AddCommand(focusActionCmd("pause", "Pause the countdown", (*cliadapter.FocusAdapter).Pause))
	cmd.AddCommand(focusActionCmd("resume", "Resume a paused or stopped countdown", (*cliadapter.FocusAdapter).Resume))
	cmd.AddCommand(focusActionCmd("reset", "Stop the timer and return to idle", (*cliadapter.FocusAdapter).Reset))
	cmd.AddCommand(focusActionCmd("skip", "End the current interval early", (*cliadapter.FocusAdapter).Skip))
	cmd.AddCommand(focusActionCmd("status", "Show the timer", (*cliadapter.FocusAdapter).Status))
	cmd.AddCommand(focusRunCmd())
	cmd.AddCommand(focusConfigCmd())
	cmd.AddCommand(focusStatsCmd())
	return cmd
}

func focusStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [task]",
		Short: "Start focusing on a task",
		Long:  "Start a focus interval on a task. A timer already running switches to the new task.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.FocusAdapterWithOutput(cmd.OutOrStdout()).Start(cmd.Context(), args[0])
		},
	}
}

func focusActionCmd(use, short string, action func(*cliadapter.FocusAdapter, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return action(wire.FocusAdapterWithOutput(cmd.OutOrStdout()), cmd.Context())
		},
	}
}

func focusRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Follow the running timer until it stops",
		Long: `Keep the timer ticking in the foreground until it pauses, stops or Ctrl-C.
On a terminal the countdown is redrawn in place; otherwise one line is printed
per minute and per mode change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			live := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
			if plain, _ := cmd.Flags().GetBool("plain"); plain {
				live = false
			}
			return wire.FocusAdapterWithOutput(cmd.OutOrStdout()).Run(cmd.Context(), wire.FocusRunner(), live)
		},
	}
	cmd.Flags().Bool("plain", false, "Print lines instead of a live countdown")
	return cmd
}

func focusConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Change the timer configuration",
		Long: `Change interval lengths and cadence. Only the flags given are changed;
invalid values keep the current setting. A running interval keeps its length.

Examples:
  eisen focus config --focus 50 --short 10
  eisen focus config --every 3 --long-breaks=true
  eisen focus config --auto=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.FocusAdapterWithOutput(cmd.OutOrStdout()).Config(cmd.Context(), configPatch(cmd))
		},
	}
	cmd.Flags().Float64("focus", 0, "Focus interval in minutes")
	cmd.Flags().Float64("short", 0, "Short break in minutes")
	cmd.Flags().Float64("long", 0, "Long break in minutes")
	cmd.Flags().Int("every", 0, "Focus intervals before a long break")
	cmd.Flags().Bool("auto", true, "Start the next interval automatically")
	cmd.Flags().Bool("long-breaks", true, "Take long breaks at all")
	return cmd
}

// configPatch collects only the flags that were given.
func configPatch(cmd *cobra.Command) focus.ConfigPatch {
	var p focus.ConfigPatch
	flags := cmd.Flags()
	if flags.Changed("focus") {
		v, _ := flags.GetFloat64("focus")
		p.FocusMinutes = &v
	}
	if flags.Changed("short") {
		v, _ := flags.GetFloat64("short")
		p.ShortBreakMinutes = &v
	}
	if flags.Changed("long") {
		v, _ := flags.GetFloat64("long")
		p.LongBreakMinutes = &v
	}
	if flags.Changed("every") {
		v, _ := flags.GetInt("every")
		p.LongBreakEvery = &v
	}
	if flags.Changed("auto") {
		v, _ := flags.GetBool("auto")
		p.AutoTransition = &v
	}
	if flags.Changed("long-breaks") {
		v, _ := flags.GetBool("long-breaks")
		p.LongBreaks = &v
	}
	return p
}

func focusStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completed focus intervals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter := wire.FocusAdapterWithOutput(cmd.OutOrStdout())
			if clearStats, _ := cmd.Flags().GetBool("clear"); clearStats {
				return adapter.ClearStats(cmd.Context())
			}
			recent, _ := cmd.Flags().GetInt("recent")
			return adapter.Stats(cmd.Context(), recent)
		},
	}
	cmd.Flags().Bool("clear", false, "Forget all statistics")
	cmd.Flags().IntP("recent", "n", 10, "Recent sessions to list (0 for all)")
	return cmd
}
