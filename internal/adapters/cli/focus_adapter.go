package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/example/eisen/internal/core/dates"
	"github.com/example/eisen/internal/core/focus"
	"github.com/example/eisen/internal/ports/primary"
)

// Runner drives a running timer, reporting every tick.
type Runner interface {
	Run(ctx context.Context, onTick func(*primary.FocusStatus)) error
}

// FocusAdapter is a thin adapter that translates CLI operations to FocusService calls.
type FocusAdapter struct {
	service primary.FocusService
	tasks   primary.TaskService
	dates   *dates.Normalizer
	out     io.Writer
}

// NewFocusAdapter creates a new FocusAdapter. tasks resolves task references.
func NewFocusAdapter(service primary.FocusService, tasks primary.TaskService, n *dates.Normalizer, out io.Writer) *FocusAdapter {
	return &FocusAdapter{
		service: service,
		tasks:   tasks,
		dates:   n,
		out:     out,
	}
}

// Start focuses on the referenced task.
func (a *FocusAdapter) Start(ctx context.Context, ref string) error {
	t, err := a.tasks.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	st, err := a.service.Start(ctx, t.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Focusing on %s\n", t.Title)
	a.printLine(st)
	return nil
}

// Pause freezes the countdown.
func (a *FocusAdapter) Pause(ctx context.Context) error {
	return a.transition(ctx, "Paused", a.service.Pause)
}

// Resume continues a paused countdown.
func (a *FocusAdapter) Resume(ctx context.Context) error {
	return a.transition(ctx, "Resumed", a.service.Resume)
}

// Reset returns the timer to idle.
func (a *FocusAdapter) Reset(ctx context.Context) error {
	return a.transition(ctx, "Timer reset", a.service.Reset)
}

// Skip ends the current interval early.
func (a *FocusAdapter) Skip(ctx context.Context) error {
	return a.transition(ctx, "Skipped", a.service.Skip)
}

func (a *FocusAdapter) transition(ctx context.Context, verb string, fn func(context.Context) (*primary.FocusStatus, error)) error {
	st, err := fn(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s\n", verb)
	a.printLine(st)
	return nil
}

// Status prints the current timer state.
func (a *FocusAdapter) Status(ctx context.Context) error {
	st, err := a.service.Status(ctx)
	if err != nil {
		return err
	}

	s := st.State
	fmt.Fprintf(a.out, "\nMode:      %s\n", modeColor(s.Mode).Sprint(modeLabel(s.Mode)))
	fmt.Fprintf(a.out, "State:     %s\n", s.RunState)
	if s.Mode != focus.ModeIdle {
		fmt.Fprintf(a.out, "Remaining: %s of %s\n", FormatClock(s.RemainingSeconds), FormatClock(s.SessionSeconds))
	}
	if st.Task != nil {
		fmt.Fprintf(a.out, "Task:      %s\n", st.Task.Title)
	} else if s.ActiveTaskID != "" {
		fmt.Fprintf(a.out, "Task:      %s (missing)\n", s.ActiveTaskID)
	}
	fmt.Fprintf(a.out, "Streak:    %d\n", s.Streak)
	c := s.Config
	fmt.Fprintf(a.out, "Config:    focus %gm, short %gm, long %gm every %d (auto %t, long breaks %t)\n",
		c.FocusMinutes, c.ShortBreakMinutes, c.LongBreakMinutes, c.LongBreakEvery, c.AutoTransition, c.LongBreaks)
	fmt.Fprintln(a.out)
	return nil
}

// Config merges a partial timer configuration.
func (a *FocusAdapter) Config(ctx context.Context, patch focus.ConfigPatch) error {
	st, err := a.service.UpdateConfig(ctx, patch)
	if err != nil {
		return err
	}

	c := st.State.Config
	fmt.Fprintf(a.out, "✓ Focus %gm, short break %gm, long break %gm every %d intervals\n",
		c.FocusMinutes, c.ShortBreakMinutes, c.LongBreakMinutes, c.LongBreakEvery)
	fmt.Fprintf(a.out, "  Auto-transition: %t, long breaks: %t\n", c.AutoTransition, c.LongBreaks)
	return nil
}

// Stats prints completed intervals per task and the recent session log.
func (a *FocusAdapter) Stats(ctx context.Context, recent int) error {
	fs, err := a.service.Stats(ctx)
	if err != nil {
		return err
	}

	stats := fs.Stats
	if len(stats.TaskIntervals) == 0 && len(stats.CompletedSessions) == 0 {
		fmt.Fprintln(a.out, "No focus sessions yet")
		return nil
	}

	ids := make([]string, 0, len(stats.TaskIntervals))
	for id := range stats.TaskIntervals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if stats.TaskIntervals[ids[i]] != stats.TaskIntervals[ids[j]] {
			return stats.TaskIntervals[ids[i]] > stats.TaskIntervals[ids[j]]
		}
		return ids[i] < ids[j]
	})

	fmt.Fprintf(a.out, "\n%-9s %s\n", "SESSIONS", "TASK")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, id := range ids {
		fmt.Fprintf(a.out, "%-9d %s\n", stats.TaskIntervals[id], title(fs.Titles, id))
	}

	sessions := stats.CompletedSessions
	if recent > 0 && len(sessions) > recent {
		sessions = sessions[len(sessions)-recent:]
	}
	if len(sessions) > 0 {
		fmt.Fprintf(a.out, "\nRecent sessions:\n")
		for i := len(sessions) - 1; i >= 0; i-- {
			r := sessions[i]
			fmt.Fprintf(a.out, "  %s  %-8s %s\n", a.dates.Format(r.CompletedAt), FormatClock(r.DurationSeconds), title(fs.Titles, r.TaskID))
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

// ClearStats empties accumulated statistics.
func (a *FocusAdapter) ClearStats(ctx context.Context) error {
	if err := a.service.ClearStats(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "✓ Focus stats cleared")
	return nil
}

// Run drives the timer until it stops or ctx is cancelled. With live set the
// countdown is redrawn in place; otherwise a line is printed on every minute
// boundary and every mode change.
func (a *FocusAdapter) Run(ctx context.Context, runner Runner, live bool) error {
	var last *primary.FocusStatus
	err := runner.Run(ctx, func(st *primary.FocusStatus) {
		if live {
			fmt.Fprintf(a.out, "\r\033[K%s", a.statusLine(st))
		} else if last == nil || last.State.Mode != st.State.Mode || st.State.RemainingSeconds%60 == 0 {
			fmt.Fprintln(a.out, a.statusLine(st))
		}
		last = st
	})
	if live {
		fmt.Fprintln(a.out)
	}
	if err != nil {
		return err
	}
	switch {
	case last == nil:
	case last.State.Mode == focus.ModeIdle:
		fmt.Fprintln(a.out, "Nothing to run. Start with: eisen focus start TASK")
	case last.State.RunState != focus.Running:
		fmt.Fprintf(a.out, "Timer %s. Continue with: eisen focus resume\n", last.State.RunState)
	}
	return nil
}

func (a *FocusAdapter) printLine(st *primary.FocusStatus) {
	fmt.Fprintln(a.out, "  "+a.statusLine(st))
}

func (a *FocusAdapter) statusLine(st *primary.FocusStatus) string {
	s := st.State
	if s.Mode == focus.ModeIdle {
		return modeColor(s.Mode).Sprint(modeLabel(s.Mode))
	}
	line := fmt.Sprintf("%s %s", modeColor(s.Mode).Sprint(modeLabel(s.Mode)), FormatClock(s.RemainingSeconds))
	if s.RunState != focus.Running {
		line += fmt.Sprintf(" (%s)", s.RunState)
	}
	if st.Task != nil {
		line += " · " + st.Task.Title
	}
	if s.Streak > 0 {
		line += fmt.Sprintf(" · streak %d", s.Streak)
	}
	return line
}

// FormatClock renders seconds as M:SS, or H:MM:SS from an hour up.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds/60)%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func modeLabel(m focus.Mode) string {
	switch m {
	case focus.ModeFocus:
		return "Focus"
	case focus.ModeShortBreak:
		return "Short break"
	case focus.ModeLongBreak:
		return "Long break"
	default:
		return "Idle"
	}
}

func modeColor(m focus.Mode) *color.Color {
	switch m {
	case focus.ModeFocus:
		return color.New(color.FgHiMagenta, color.Bold)
	case focus.ModeShortBreak, focus.ModeLongBreak:
		return color.New(color.FgCyan, color.Bold)
	default:
		return color.New(color.FgHiBlack)
	}
}

func title(titles map[string]string, id string) string {
	if t, ok := titles[id]; ok {
		return t
	}
	return id + " (deleted)"
}
