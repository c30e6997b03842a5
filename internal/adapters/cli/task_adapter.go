// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/example/eisen/internal/core/dates"
	"github.com/example/eisen/internal/models"
	"github.com/example/eisen/internal/ports/primary"
	"github.com/example/eisen/internal/ports/secondary"
)

// TaskAdapter is a thin adapter that translates CLI operations to TaskService calls.
type TaskAdapter struct {
	service primary.TaskService
	dates   *dates.Normalizer
	out     io.Writer
}

// NewTaskAdapter creates a new TaskAdapter with the given service.
func NewTaskAdapter(service primary.TaskService, n *dates.Normalizer, out io.Writer) *TaskAdapter {
	return &TaskAdapter{
		service: service,
		dates:   n,
		out:     out,
	}
}

// Import reconciles raw import text and prints a summary.
func (a *TaskAdapter) Import(ctx context.Context, raw string, reset bool) error {
	resp, err := a.service.Import(ctx, primary.ImportRequest{Raw: raw, ResetQuadrants: reset})
	if err != nil {
		return err
	}

	s := resp.Summary
	fmt.Fprintf(a.out, "✓ Imported %d %s (%s format): %d added, %d updated\n",
		s.Total, plural(s.Total, "task", "tasks"), s.Shape, s.Added, s.Updated)
	if reset {
		fmt.Fprintln(a.out, "  Existing tasks were moved to the backlog first")
	}
	return nil
}

// Export renders the collection. With an empty path it is written to the
// adapter's output; otherwise through writer.
func (a *TaskAdapter) Export(ctx context.Context, format primary.ExportFormat, path string, writer secondary.FileWriter) error {
	data, err := a.service.Export(ctx, format)
	if err != nil {
		return err
	}

	if path == "" || path == "-" {
		_, err := a.out.Write(data)
		return err
	}
	if err := writer.WriteFile(ctx, path, data); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Exported to %s\n", path)
	return nil
}

// Add creates a new task.
func (a *TaskAdapter) Add(ctx context.Context, req primary.AddTaskRequest) error {
	t, err := a.service.AddTask(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created task %s: %s\n", displayID(t.ID), t.Title)
	return nil
}

// List lists tasks with optional filters.
func (a *TaskAdapter) List(ctx context.Context, filters primary.TaskFilters) error {
	tasks, err := a.service.ListTasks(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-10s %-8s %-4s %-20s %s\n", "ID", "QUADRANT", "DONE", "DUE", "TITLE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, t := range tasks {
		done := ""
		if t.Done {
			done = "✓"
		}
		fmt.Fprintf(a.out, "%-10s %-8s %-4s %-20s %s\n", displayID(t.ID), t.Quadrant, done, a.dates.FormatNullable(t.Due), t.Title)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays details for a single task.
func (a *TaskAdapter) Show(ctx context.Context, ref string) (*models.Task, error) {
	t, err := a.service.ResolveTask(ctx, ref)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "\nTask:     %s\n", t.ID)
	fmt.Fprintf(a.out, "Title:    %s\n", t.Title)
	fmt.Fprintf(a.out, "Quadrant: %s (%s)\n", t.Quadrant, t.Quadrant.Label())
	if t.Due != nil {
		fmt.Fprintf(a.out, "Due:      %s\n", a.dates.Format(*t.Due))
	}
	if t.Tag != models.TagNone {
		fmt.Fprintf(a.out, "Tag:      %s\n", t.Tag)
	}
	fmt.Fprintf(a.out, "Created:  %s\n", a.dates.Format(t.CreatedAt))
	if t.Done {
		fmt.Fprintf(a.out, "Done:     %s\n", a.dates.FormatNullable(t.CompletedAt))
	}
	if t.TimeSpentSeconds > 0 {
		fmt.Fprintf(a.out, "Focused:  %s\n", formatSpent(t.TimeSpentSeconds))
	}
	if t.Imported {
		fmt.Fprintln(a.out, "Source:   import")
	}
	fmt.Fprintln(a.out)

	return t, nil
}

// Edit updates a task's title, due date and/or tag.
func (a *TaskAdapter) Edit(ctx context.Context, ref string, title, due *string, tag *models.Tag) error {
	if title == nil && due == nil && tag == nil {
		return fmt.Errorf("must specify at least --title, --due or --tag")
	}
	t, err := a.service.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}

	updated, err := a.service.UpdateTask(ctx, primary.UpdateTaskRequest{
		TaskID: t.ID,
		Title:  title,
		Due:    due,
		Tag:    tag,
	})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Task %s updated\n", displayID(updated.ID))
	return nil
}

// Move places a task in a quadrant.
func (a *TaskAdapter) Move(ctx context.Context, ref string, q models.Quadrant) error {
	t, err := a.service.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	moved, err := a.service.MoveTask(ctx, t.ID, q)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Task %s moved to %s (%s)\n", displayID(moved.ID), moved.Quadrant, moved.Quadrant.Label())
	return nil
}

// SetDone marks a task done or reopens it.
func (a *TaskAdapter) SetDone(ctx context.Context, ref string, done bool) error {
	t, err := a.service.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	if _, err := a.service.SetDone(ctx, t.ID, done); err != nil {
		return err
	}

	if done {
		fmt.Fprintf(a.out, "✓ Task %s marked as done\n", displayID(t.ID))
	} else {
		fmt.Fprintf(a.out, "✓ Task %s reopened\n", displayID(t.ID))
	}
	return nil
}

// Delete removes a task.
func (a *TaskAdapter) Delete(ctx context.Context, ref string) error {
	t, err := a.service.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	if err := a.service.DeleteTask(ctx, t.ID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Task %s deleted\n", displayID(t.ID))
	return nil
}

// Log adds focused time to a task by hand.
func (a *TaskAdapter) Log(ctx context.Context, ref string, seconds int64) error {
	t, err := a.service.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	updated, err := a.service.AccrueTime(ctx, t.ID, seconds)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Logged %s on %s (total %s)\n", formatSpent(seconds), displayID(updated.ID), formatSpent(updated.TimeSpentSeconds))
	return nil
}

// Board prints the four quadrants and the backlog.
func (a *TaskAdapter) Board(ctx context.Context, showDone bool) error {
	var filters primary.TaskFilters
	if !showDone {
		open := false
		filters.Done = &open
	}
	tasks, err := a.service.ListTasks(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	byQuadrant := make(map[models.Quadrant][]*models.Task)
	for _, t := range tasks {
		byQuadrant[t.Quadrant] = append(byQuadrant[t.Quadrant], t)
	}

	for _, q := range models.Quadrants {
		heading := fmt.Sprintf("%s · %s", q, q.Label())
		if q == models.QuadrantBacklog {
			heading = q.Label()
		}
		fmt.Fprintf(a.out, "\n%s (%d)\n", quadrantColor(q).Sprint(heading), len(byQuadrant[q]))
		if len(byQuadrant[q]) == 0 {
			fmt.Fprintln(a.out, "  (empty)")
			continue
		}
		for _, t := range byQuadrant[q] {
			fmt.Fprintf(a.out, "  %s\n", a.boardLine(t))
		}
	}

	// The timestamp is informational; a failed lookup is not worth an error.
	if saved, err := a.service.LastSaved(ctx); err == nil && !saved.IsZero() {
		fmt.Fprintf(a.out, "\nLast saved %s\n", a.dates.Format(saved))
	}
	fmt.Fprintln(a.out)

	return nil
}

func (a *TaskAdapter) boardLine(t *models.Task) string {
	var b strings.Builder
	if t.Done {
		b.WriteString(color.New(color.FgGreen).Sprint("✓ "))
	} else {
		b.WriteString("• ")
	}
	b.WriteString(t.Title)
	if t.Due != nil {
		due := a.dates.Format(*t.Due)
		if !t.Done && t.Due.Before(time.Now()) {
			due = color.New(color.FgRed).Sprint(due)
		}
		b.WriteString(" (due " + due + ")")
	}
	if t.Tag != models.TagNone {
		b.WriteString(color.New(color.FgCyan).Sprintf(" #%s", t.Tag))
	}
	if t.TimeSpentSeconds > 0 {
		b.WriteString(color.New(color.FgHiBlack).Sprintf(" [%s]", formatSpent(t.TimeSpentSeconds)))
	}
	return b.String()
}

func quadrantColor(q models.Quadrant) *color.Color {
	switch q {
	case models.QuadrantQ1:
		return color.New(color.FgRed, color.Bold)
	case models.QuadrantQ2:
		return color.New(color.FgGreen, color.Bold)
	case models.QuadrantQ3:
		return color.New(color.FgYellow, color.Bold)
	case models.QuadrantQ4:
		return color.New(color.FgHiBlack, color.Bold)
	default:
		return color.New(color.Bold)
	}
}

// displayID shortens generated ids to their first block. Imported ids are titles and shown whole.
func displayID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id[:8]
	}
	return id
}

func formatSpent(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
