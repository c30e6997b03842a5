package primary

import (
	"context"

	"github.com/example/eisen/internal/core/focus"
	"github.com/example/eisen/internal/models"
)

// FocusService defines the primary port for the focus timer.
// Every call first catches the timer up to the current time.
type FocusService interface {
	// Start focuses on a task.
	Start(ctx context.Context, taskID string) (*FocusStatus, error)

	// Pause freezes the countdown.
	Pause(ctx context.Context) (*FocusStatus, error)

	// Resume continues a paused countdown.
	Resume(ctx context.Context) (*FocusStatus, error)

	// Reset returns the timer to idle, keeping stats.
	Reset(ctx context.Context) (*FocusStatus, error)

	// Skip ends the current interval without credit.
	Skip(ctx context.Context) (*FocusStatus, error)

	// Status returns the current timer state.
	Status(ctx context.Context) (*FocusStatus, error)

	// UpdateConfig merges a partial timer configuration.
	UpdateConfig(ctx context.Context, patch focus.ConfigPatch) (*FocusStatus, error)

	// Stats returns accumulated focus statistics.
	Stats(ctx context.Context) (*FocusStats, error)

	// ClearStats empties accumulated statistics.
	ClearStats(ctx context.Context) error

	// ClearTask drops the active task if it is taskID.
	ClearTask(ctx context.Context, taskID string) error

	// LoadError reports a problem encountered restoring the saved timer, if any.
	LoadError() error

	// Flush writes any pending changes immediately.
	Flush(ctx context.Context) error
}

// FocusStatus is the timer state plus the active task, if it still exists.
type FocusStatus struct {
	State focus.State
	Task  *models.Task
}

// FocusStats is a stats view with session task ids resolved where possible.
type FocusStats struct {
	Stats  focus.Stats
	Titles map[string]string
}
