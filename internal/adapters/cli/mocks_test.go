package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/example/eisen/internal/core/focus"
	"github.com/example/eisen/internal/core/reconcile"
	"github.com/example/eisen/internal/models"
	"github.com/example/eisen/internal/ports/primary"
)

func init() {
	color.NoColor = true
}

// mockTaskService implements primary.TaskService for testing
type mockTaskService struct {
	tasks     map[string]*models.Task
	importFn  func(ctx context.Context, req primary.ImportRequest) (*primary.ImportResponse, error)
	exportFn  func(ctx context.Context, format primary.ExportFormat) ([]byte, error)
	listErr   error
	lastAdd   primary.AddTaskRequest
	lastEdit  primary.UpdateTaskRequest
	lastMove  models.Quadrant
	lastDone  *bool
	deleted   []string
	logged    int64
	onDeletes []func(context.Context, string)
	savedAt   time.Time
}

func newMockTaskService(tasks ...*models.Task) *mockTaskService {
	m := &mockTaskService{tasks: make(map[string]*models.Task)}
	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
	return m
}

func (m *mockTaskService) Import(ctx context.Context, req primary.ImportRequest) (*primary.ImportResponse, error) {
	if m.importFn != nil {
		return m.importFn(ctx, req)
	}
	return &primary.ImportResponse{}, nil
}

func (m *mockTaskService) Export(ctx context.Context, format primary.ExportFormat) ([]byte, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, format)
	}
	return []byte("{}"), nil
}

func (m *mockTaskService) AddTask(ctx context.Context, req primary.AddTaskRequest) (*models.Task, error) {
	m.lastAdd = req
	t := &models.Task{ID: "3f2b8c1e-0000-4000-8000-000000000001", Title: req.Title, Quadrant: models.QuadrantBacklog}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *mockTaskService) UpdateTask(ctx context.Context, req primary.UpdateTaskRequest) (*models.Task, error) {
	m.lastEdit = req
	return m.GetTask(ctx, req.TaskID)
}

func (m *mockTaskService) MoveTask(ctx context.Context, taskID string, q models.Quadrant) (*models.Task, error) {
	m.lastMove = q
	t, err := m.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	moved := *t
	moved.Quadrant = q
	return &moved, nil
}

func (m *mockTaskService) SetDone(ctx context.Context, taskID string, done bool) (*models.Task, error) {
	m.lastDone = &done
	return m.GetTask(ctx, taskID)
}

func (m *mockTaskService) AccrueTime(ctx context.Context, taskID string, seconds int64) (*models.Task, error) {
	m.logged += seconds
	t, err := m.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	t.TimeSpentSeconds += seconds
	return t, nil
}

func (m *mockTaskService) DeleteTask(ctx context.Context, taskID string) error {
	m.deleted = append(m.deleted, taskID)
	delete(m.tasks, taskID)
	return nil
}

func (m *mockTaskService) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	if t, ok := m.tasks[taskID]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", reconcile.ErrTaskNotFound, taskID)
}

func (m *mockTaskService) ResolveTask(ctx context.Context, ref string) (*models.Task, error) {
	if t, ok := m.tasks[ref]; ok {
		return t, nil
	}
	for _, t := range m.tasks {
		if t.Title == ref {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", reconcile.ErrTaskNotFound, ref)
}

func (m *mockTaskService) ListTasks(ctx context.Context, filters primary.TaskFilters) ([]*models.Task, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Task
	for _, t := range models.Collection(m.collection()).Sorted() {
		if filters.Done != nil && t.Done != *filters.Done {
			continue
		}
		out = append(out, &t)
	}
	return out, nil
}

func (m *mockTaskService) collection() map[string]models.Task {
	c := make(map[string]models.Task, len(m.tasks))
	for id, t := range m.tasks {
		c[id] = *t
	}
	return c
}

func (m *mockTaskService) OnDelete(fn func(ctx context.Context, taskID string)) {
	m.onDeletes = append(m.onDeletes, fn)
}

func (m *mockTaskService) LoadError() error { return nil }

func (m *mockTaskService) LastSaved(ctx context.Context) (time.Time, error) {
	return m.savedAt, nil
}

func (m *mockTaskService) Flush(ctx context.Context) error { return nil }

// mockFocusService implements primary.FocusService for testing
type mockFocusService struct {
	status     *primary.FocusStatus
	stats      *primary.FocusStats
	startErr   error
	lastStart  string
	lastPatch  focus.ConfigPatch
	cleared    bool
	transition []string
}

func newMockFocusService() *mockFocusService {
	return &mockFocusService{
		status: &primary.FocusStatus{State: focus.NewState(focus.DefaultConfig())},
		stats:  &primary.FocusStats{Stats: focus.Stats{TaskIntervals: map[string]int{}}, Titles: map[string]string{}},
	}
}

func (m *mockFocusService) Start(ctx context.Context, taskID string) (*primary.FocusStatus, error) {
	m.lastStart = taskID
	if m.startErr != nil {
		return nil, m.startErr
	}
	m.status.State = focus.Apply(m.status.State, focus.Start{TaskID: taskID, At: time.Now()})
	return m.status, nil
}

func (m *mockFocusService) record(name string, ev focus.Event) (*primary.FocusStatus, error) {
	m.transition = append(m.transition, name)
	m.status.State = focus.Apply(m.status.State, ev)
	return m.status, nil
}

func (m *mockFocusService) Pause(ctx context.Context) (*primary.FocusStatus, error) {
	return m.record("pause", focus.Pause{})
}

func (m *mockFocusService) Resume(ctx context.Context) (*primary.FocusStatus, error) {
	return m.record("resume", focus.Resume{At: time.Now()})
}

func (m *mockFocusService) Reset(ctx context.Context) (*primary.FocusStatus, error) {
	return m.record("reset", focus.Reset{})
}

func (m *mockFocusService) Skip(ctx context.Context) (*primary.FocusStatus, error) {
	return m.record("skip", focus.Skip{At: time.Now()})
}

func (m *mockFocusService) Status(ctx context.Context) (*primary.FocusStatus, error) {
	return m.status, nil
}

func (m *mockFocusService) UpdateConfig(ctx context.Context, patch focus.ConfigPatch) (*primary.FocusStatus, error) {
	m.lastPatch = patch
	return m.record("config", focus.UpdateConfig{Patch: patch})
}

func (m *mockFocusService) Stats(ctx context.Context) (*primary.FocusStats, error) {
	return m.stats, nil
}

func (m *mockFocusService) ClearStats(ctx context.Context) error {
	m.cleared = true
	return nil
}

func (m *mockFocusService) ClearTask(ctx context.Context, taskID string) error { return nil }

func (m *mockFocusService) LoadError() error { return nil }

func (m *mockFocusService) Flush(ctx context.Context) error { return nil }

// scriptedRunner replays a fixed sequence of states.
type scriptedRunner struct {
	states []*primary.FocusStatus
	err    error
}

func (r *scriptedRunner) Run(ctx context.Context, onTick func(*primary.FocusStatus)) error {
	for _, st := range r.states {
		onTick(st)
	}
	return r.err
}

// mockFileWriter implements secondary.FileWriter for testing
type mockFileWriter struct {
	path string
	data []byte
	err  error
}

func (w *mockFileWriter) WriteFile(ctx context.Context, path string, data []byte) error {
	if w.err != nil {
		return w.err
	}
	w.path = path
	w.data = data
	return nil
}

var errBoom = errors.New("boom")
