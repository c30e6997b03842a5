package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/eisen/internal/core/task"
	"github.com/example/eisen/internal/models"
)

// ErrTaskNotFound is returned (wrapped) by operations on an unknown id.
var ErrTaskNotFound = errors.New("task not found")

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// NewTask describes a task created directly rather than by import.
type NewTask struct {
	ID       string
	Title    string
	Due      *time.Time
	Quadrant models.Quadrant // empty means backlog
	Tag      models.Tag
}

// TaskPatch describes an edit. Nil fields are left unchanged.
type TaskPatch struct {
	Title    *string
	Due      *time.Time
	ClearDue bool
	Tag      *models.Tag
}

// AddTask inserts a new record stamped with now.
func AddTask(c models.Collection, req NewTask, now time.Time) (models.Collection, models.Task, error) {
	if req.ID == "" {
		return nil, models.Task{}, errors.New("task id cannot be empty")
	}
	if req.Quadrant == "" {
		req.Quadrant = models.QuadrantBacklog
	}
	_, inUse := c[req.ID]
	guard := task.CanCreateTask(task.CreateTaskContext{
		TaskID:   req.ID,
		Title:    req.Title,
		Quadrant: req.Quadrant,
		Tag:      req.Tag,
		IDInUse:  inUse,
	})
	if err := guard.Error(); err != nil {
		return nil, models.Task{}, err
	}

	t := models.Task{
		ID:        req.ID,
		Title:     strings.TrimSpace(req.Title),
		Due:       req.Due,
		Quadrant:  req.Quadrant,
		CreatedAt: now,
		Tag:       req.Tag,
	}
	next := c.Clone()
	next[t.ID] = t
	return next, t, nil
}

// UpdateTask applies a title/due/tag edit. A blank title is ignored.
func UpdateTask(c models.Collection, id string, patch TaskPatch) (models.Collection, models.Task, error) {
	t, ok := c[id]
	if !ok {
		return nil, models.Task{}, notFound(id)
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	switch {
	case patch.ClearDue:
		t.Due = nil
	case patch.Due != nil:
		due := *patch.Due
		t.Due = &due
	}
	if patch.Tag != nil {
		if !patch.Tag.Valid() {
			return nil, models.Task{}, fmt.Errorf("unknown tag %q", *patch.Tag)
		}
		t.Tag = *patch.Tag
	}

	next := c.Clone()
	next[id] = t
	return next, t, nil
}

// MoveTask places a task in a quadrant.
func MoveTask(c models.Collection, id string, q models.Quadrant) (models.Collection, models.Task, error) {
	t, ok := c[id]
	if !ok {
		return nil, models.Task{}, notFound(id)
	}
	if err := task.CanMoveTask(task.MoveTaskContext{TaskID: id, Quadrant: q}).Error(); err != nil {
		return nil, models.Task{}, err
	}

	t.Quadrant = q
	next := c.Clone()
	next[id] = t
	return next, t, nil
}

// SetDone sets the completion flag. completedAt is stamped on a false->true
// transition and cleared on true->false; repeating the current value is a no-op.
func SetDone(c models.Collection, id string, done bool, now time.Time) (models.Collection, models.Task, error) {
	t, ok := c[id]
	if !ok {
		return nil, models.Task{}, notFound(id)
	}
	if t.Done == done {
		return c, t, nil
	}

	t.Done = done
	if done {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	next := c.Clone()
	next[id] = t
	return next, t, nil
}

// AccrueTime adds focused seconds to a task's running total.
func AccrueTime(c models.Collection, id string, seconds int64) (models.Collection, models.Task, error) {
	t, ok := c[id]
	if !ok {
		return nil, models.Task{}, notFound(id)
	}
	if err := task.CanAccrueTime(task.AccrueTimeContext{TaskID: id, Seconds: seconds}).Error(); err != nil {
		return nil, models.Task{}, err
	}

	t.TimeSpentSeconds += seconds
	next := c.Clone()
	next[id] = t
	return next, t, nil
}

// DeleteTask removes a task.
func DeleteTask(c models.Collection, id string) (models.Collection, error) {
	if _, ok := c[id]; !ok {
		return nil, notFound(id)
	}
	next := c.Clone()
	delete(next, id)
	return next, nil
}
