// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the CLI drives the application.
package primary

import (
	"context"
	"time"

	"github.com/example/eisen/internal/core/reconcile"
	"github.com/example/eisen/internal/models"
)

// TaskService defines the primary port for task operations.
type TaskService interface {
	// Import reconciles raw import text into the collection.
	Import(ctx context.Context, req ImportRequest) (*ImportResponse, error)

	// Export renders the collection in the requested format.
	Export(ctx context.Context, format ExportFormat) ([]byte, error)

	// AddTask creates a new task with a generated id.
	AddTask(ctx context.Context, req AddTaskRequest) (*models.Task, error)

	// UpdateTask edits a task's title, due date and/or tag.
	UpdateTask(ctx context.Context, req UpdateTaskRequest) (*models.Task, error)

	// MoveTask places a task in a quadrant.
	MoveTask(ctx context.Context, taskID string, q models.Quadrant) (*models.Task, error)

	// SetDone marks a task done or open.
	SetDone(ctx context.Context, taskID string, done bool) (*models.Task, error)

	// AccrueTime adds focused seconds to a task.
	AccrueTime(ctx context.Context, taskID string, seconds int64) (*models.Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, taskID string) error

	// GetTask retrieves a task by exact ID.
	GetTask(ctx context.Context, taskID string) (*models.Task, error)

	// ResolveTask finds a task by full id, unique id prefix, or exact title.
	ResolveTask(ctx context.Context, ref string) (*models.Task, error)

	// ListTasks lists tasks with optional filters, oldest first.
	ListTasks(ctx context.Context, filters TaskFilters) ([]*models.Task, error)

	// OnDelete registers fn to be called after a task is deleted.
	OnDelete(fn func(ctx context.Context, taskID string))

	// LoadError reports a problem encountered restoring saved tasks, if any.
	LoadError() error

	// LastSaved returns when the collection was last persisted.
	LastSaved(ctx context.Context) (time.Time, error)

	// Flush writes any pending changes immediately.
	Flush(ctx context.Context) error
}

// ImportRequest contains parameters for importing tasks.
type ImportRequest struct {
	Raw            string
	ResetQuadrants bool
}

// ImportResponse contains the result of an import.
type ImportResponse struct {
	Summary reconcile.Summary
}

// ExportFormat selects the export encoding.
type ExportFormat string

// ExportFormat constants
const (
	ExportJSON     ExportFormat = "json"
	ExportMarkdown ExportFormat = "md"
)

// AddTaskRequest contains parameters for creating a task.
type AddTaskRequest struct {
	Title    string
	Due      string // Optional, any accepted date form
	Quadrant models.Quadrant
	Tag      models.Tag
}

// UpdateTaskRequest contains parameters for editing a task.
// Nil fields are left unchanged; an empty Due clears the due date.
type UpdateTaskRequest struct {
	TaskID string
	Title  *string
	Due    *string
	Tag    *models.Tag
}

// TaskFilters contains filter options for listing tasks.
type TaskFilters struct {
	Quadrant models.Quadrant
	Done     *bool
}
