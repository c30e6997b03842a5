package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/eisen/internal/core/dates"
	"github.com/example/eisen/internal/core/reconcile"
	"github.com/example/eisen/internal/models"
	"github.com/example/eisen/internal/ports/primary"
	"github.com/example/eisen/internal/ports/secondary"
)

// TaskServiceOptions configures a TaskServiceImpl. Zero values pick defaults.
type TaskServiceOptions struct {
	Dates    *dates.Normalizer
	Now      func() time.Time
	NewID    func() string
	Logger   *slog.Logger
	Debounce time.Duration
}

// TaskServiceImpl implements the TaskService interface over an in-memory
// collection that is persisted as a whole.
type TaskServiceImpl struct {
	store  secondary.SnapshotStore
	dates  *dates.Normalizer
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
	saver  *Debouncer

	mu       sync.Mutex
	tasks    models.Collection
	loadErr  error
	onDelete []func(ctx context.Context, taskID string)

	// saveBlocked is set when the saved collection could not be read.
	saveBlocked error
}

var _ primary.TaskService = (*TaskServiceImpl)(nil)

// NewTaskService restores the saved collection and returns a ready service.
// A saved collection that cannot be restored is not fatal: the service starts
// empty and reports the problem through LoadError.
func NewTaskService(ctx context.Context, store secondary.SnapshotStore, opts TaskServiceOptions) (*TaskServiceImpl, error) {
	s := &TaskServiceImpl{
		store:  store,
		dates:  opts.Dates,
		now:    opts.Now,
		newID:  opts.NewID,
		logger: opts.Logger,
	}
	if s.dates == nil {
		s.dates = dates.NewNormalizer(time.Local)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.saver = NewDebouncer(opts.Debounce, s.save, s.logger)

	tasks, err := loadTasks(ctx, store, s.dates, s.now())
	var serr *SnapshotError
	switch {
	case errors.As(err, &serr):
		s.loadErr = err
		s.saveBlocked = unloaded(err)
		s.logger.Warn("saved tasks discarded", "error", err)
	case err != nil:
		return nil, err
	}
	s.tasks = tasks
	s.logger.Debug("tasks loaded", "count", len(tasks))

	return s, nil
}

func (s *TaskServiceImpl) save() error {
	if s.saveBlocked != nil {
		return fmt.Errorf("not saving tasks: %w", s.saveBlocked)
	}
	s.mu.Lock()
	snapshot := s.tasks
	s.mu.Unlock()
	// Collections are replaced, never mutated, so the snapshot is safe to read unlocked.
	return saveTasks(context.Background(), s.store, snapshot)
}

// commit swaps in next and schedules a save. Callers must hold s.mu.
func (s *TaskServiceImpl) commit(next models.Collection) {
	s.tasks = next
	s.saver.Schedule()
}

// Import reconciles raw import text into the collection.
func (s *TaskServiceImpl) Import(ctx context.Context, req primary.ImportRequest) (*primary.ImportResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := reconcile.Reconcile(s.tasks, req.Raw, reconcile.Options{
		ResetQuadrants: req.ResetQuadrants,
		Now:            s.now(),
		Dates:          s.dates,
	})
	if err != nil {
		s.logger.Warn("import rejected", "error", err)
		return nil, fmt.Errorf("failed to import tasks: %w", err)
	}
	s.commit(res.Next)

	s.logger.Info("import applied",
		"shape", res.Summary.Shape.String(),
		"added", res.Summary.Added,
		"updated", res.Summary.Updated,
		"reset_quadrants", req.ResetQuadrants,
	)
	return &primary.ImportResponse{Summary: res.Summary}, nil
}

// Export renders the collection in the requested format.
func (s *TaskServiceImpl) Export(ctx context.Context, format primary.ExportFormat) ([]byte, error) {
	s.mu.Lock()
	snapshot := s.tasks
	s.mu.Unlock()

	switch format {
	case primary.ExportJSON, "":
		data, err := reconcile.MarshalExport(snapshot, s.now())
		if err != nil {
			return nil, fmt.Errorf("failed to export tasks: %w", err)
		}
		return data, nil
	case primary.ExportMarkdown:
		return []byte(reconcile.RenderMarkdown(snapshot, s.dates)), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want json or md)", format)
	}
}

// AddTask creates a new task with a generated id.
func (s *TaskServiceImpl) AddTask(ctx context.Context, req primary.AddTaskRequest) (*models.Task, error) {
	var due *time.Time
	if strings.TrimSpace(req.Due) != "" {
		t, ok := s.dates.Parse(req.Due)
		if !ok {
			return nil, fmt.Errorf("invalid due date %q", req.Due)
		}
		due = &t
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, t, err := reconcile.AddTask(s.tasks, reconcile.NewTask{
		ID:       s.newID(),
		Title:    req.Title,
		Due:      due,
		Quadrant: req.Quadrant,
		Tag:      req.Tag,
	}, s.now())
	if err != nil {
		return nil, err
	}
	s.commit(next)

	s.logger.Info("task added", "task_id", t.ID, "quadrant", string(t.Quadrant))
	return &t, nil
}

// UpdateTask edits a task's title, due date and/or tag.
func (s *TaskServiceImpl) UpdateTask(ctx context.Context, req primary.UpdateTaskRequest) (*models.Task, error) {
	patch := reconcile.TaskPatch{Title: req.Title, Tag: req.Tag}
	if req.Due != nil {
		if strings.TrimSpace(*req.Due) == "" {
			patch.ClearDue = true
		} else {
			t, ok := s.dates.Parse(*req.Due)
			if !ok {
				return nil, fmt.Errorf("invalid due date %q", *req.Due)
			}
			patch.Due = &t
		}
	}

	return s.mutate("update", func(c models.Collection) (models.Collection, models.Task, error) {
		return reconcile.UpdateTask(c, req.TaskID, patch)
	})
}

// MoveTask places a task in a quadrant.
func (s *TaskServiceImpl) MoveTask(ctx context.Context, taskID string, q models.Quadrant) (*models.Task, error) {
	return s.mutate("move", func(c models.Collection) (models.Collection, models.Task, error) {
		return reconcile.MoveTask(c, taskID, q)
	})
}

// SetDone marks a task done or open.
func (s *TaskServiceImpl) SetDone(ctx context.Context, taskID string, done bool) (*models.Task, error) {
	now := s.now()
	return s.mutate("set_done", func(c models.Collection) (models.Collection, models.Task, error) {
		return reconcile.SetDone(c, taskID, done, now)
	})
}

// AccrueTime adds focused seconds to a task.
func (s *TaskServiceImpl) AccrueTime(ctx context.Context, taskID string, seconds int64) (*models.Task, error) {
	return s.mutate("accrue_time", func(c models.Collection) (models.Collection, models.Task, error) {
		return reconcile.AccrueTime(c, taskID, seconds)
	})
}

func (s *TaskServiceImpl) mutate(op string, fn func(models.Collection) (models.Collection, models.Task, error)) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, t, err := fn(s.tasks)
	if err != nil {
		return nil, err
	}
	s.commit(next)

	s.logger.Debug("task changed", "op", op, "task_id", t.ID)
	return &t, nil
}

// DeleteTask removes a task and notifies OnDelete listeners.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	next, err := reconcile.DeleteTask(s.tasks, taskID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.commit(next)
	listeners := append([]func(context.Context, string){}, s.onDelete...)
	s.mu.Unlock()

	s.logger.Info("task deleted", "task_id", taskID)
	for _, fn := range listeners {
		fn(ctx, taskID)
	}
	return nil
}

// OnDelete registers fn to be called after a task is deleted.
func (s *TaskServiceImpl) OnDelete(fn func(ctx context.Context, taskID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDelete = append(s.onDelete, fn)
}

// GetTask retrieves a task by exact ID.
func (s *TaskServiceImpl) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reconcile.ErrTaskNotFound, taskID)
	}
	return &t, nil
}

// ResolveTask finds a task by full id, exact title, or unique id prefix.
func (s *TaskServiceImpl) ResolveTask(ctx context.Context, ref string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tasks[ref]; ok {
		return &t, nil
	}
	if ref == "" {
		return nil, errors.New("task reference cannot be empty")
	}

	var byTitle, byPrefix []models.Task
	for _, t := range s.tasks.Sorted() {
		if t.Title == ref {
			byTitle = append(byTitle, t)
		}
		if strings.HasPrefix(t.ID, ref) {
			byPrefix = append(byPrefix, t)
		}
	}

	for _, matches := range [][]models.Task{byTitle, byPrefix} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return &matches[0], nil
		default:
			return nil, fmt.Errorf("task reference %q is ambiguous: matches %d tasks", ref, len(matches))
		}
	}
	return nil, fmt.Errorf("%w: %s", reconcile.ErrTaskNotFound, ref)
}

// ListTasks lists tasks with optional filters, oldest first.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, filters primary.TaskFilters) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Task
	for _, t := range s.tasks.Sorted() {
		if filters.Quadrant != "" && t.Quadrant != filters.Quadrant {
			continue
		}
		if filters.Done != nil && t.Done != *filters.Done {
			continue
		}
		result = append(result, &t)
	}
	return result, nil
}

// LoadError reports a problem encountered restoring saved tasks, if any.
func (s *TaskServiceImpl) LoadError() error {
	return s.loadErr
}

// LastSaved returns when the collection was last persisted.
func (s *TaskServiceImpl) LastSaved(ctx context.Context) (time.Time, error) {
	return s.store.UpdatedAt(ctx, secondary.SlotTasks)
}

// Flush writes any pending changes immediately.
func (s *TaskServiceImpl) Flush(ctx context.Context) error {
	return s.saver.Flush()
}
