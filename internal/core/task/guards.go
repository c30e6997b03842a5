// Package task contains the pure business logic for task operations.
// Guards are pure functions that evaluate preconditions without side effects.
package task

import (
	"fmt"
	"strings"

	"github.com/example/eisen/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CreateTaskContext provides context for task creation guards.
type CreateTaskContext struct {
	TaskID   string
	Title    string
	Quadrant models.Quadrant
	Tag      models.Tag
	IDInUse  bool
}

// MoveTaskContext provides context for quadrant moves.
type MoveTaskContext struct {
	TaskID   string
	Quadrant models.Quadrant
}

// AccrueTimeContext provides context for adding focused time to a task.
type AccrueTimeContext struct {
	TaskID  string
	Seconds int64
}

// StartFocusContext provides context for starting a focus session on a task.
type StartFocusContext struct {
	TaskID     string
	TaskExists bool
	TaskDone   bool
}

// CanCreateTask evaluates whether a task can be created.
// Rules:
// - Title must not be blank
// - ID must not already be used
// - Quadrant and tag must be known values
func CanCreateTask(ctx CreateTaskContext) GuardResult {
	if strings.TrimSpace(ctx.Title) == "" {
		return GuardResult{Allowed: false, Reason: "task title cannot be empty"}
	}
	if ctx.IDInUse {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %s already exists", ctx.TaskID),
		}
	}
	if !ctx.Quadrant.Valid() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown quadrant %q (want backlog, Q1, Q2, Q3 or Q4)", ctx.Quadrant),
		}
	}
	if !ctx.Tag.Valid() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown tag %q", ctx.Tag),
		}
	}
	return GuardResult{Allowed: true}
}

// CanMoveTask evaluates whether a task can be placed in a quadrant.
func CanMoveTask(ctx MoveTaskContext) GuardResult {
	if !ctx.Quadrant.Valid() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot move task %s: unknown quadrant %q (want backlog, Q1, Q2, Q3 or Q4)", ctx.TaskID, ctx.Quadrant),
		}
	}
	return GuardResult{Allowed: true}
}

// CanAccrueTime evaluates whether focused time can be added to a task.
// Rules:
// - Seconds must be non-negative (time spent never decreases this way)
func CanAccrueTime(ctx AccrueTimeContext) GuardResult {
	if ctx.Seconds < 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot add %d seconds to task %s: duration must be non-negative", ctx.Seconds, ctx.TaskID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanStartFocus evaluates whether a focus session can be started on a task.
// Rules:
// - Task must exist
// - Task must not be done
func CanStartFocus(ctx StartFocusContext) GuardResult {
	if !ctx.TaskExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %s not found", ctx.TaskID),
		}
	}
	if ctx.TaskDone {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot focus on completed task %s. Reopen it first with: eisen task undone %s", ctx.TaskID, ctx.TaskID),
		}
	}
	return GuardResult{Allowed: true}
}
