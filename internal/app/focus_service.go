package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/eisen/internal/core/focus"
	"github.com/example/eisen/internal/core/reconcile"
	coretask "github.com/example/eisen/internal/core/task"
	"github.com/example/eisen/internal/ports/primary"
	"github.com/example/eisen/internal/ports/secondary"
)

// FocusServiceOptions configures a FocusServiceImpl. Zero values pick defaults.
type FocusServiceOptions struct {
	// Defaults seeds the timer when nothing has been saved yet.
	Defaults focus.Config
	Now      func() time.Time
	Logger   *slog.Logger
	Debounce time.Duration
}

// FocusServiceImpl implements the FocusService interface. It owns the single
// timer state, persists it, and credits completed sessions to their tasks.
type FocusServiceImpl struct {
	store  secondary.SnapshotStore
	tasks  primary.TaskService
	now    func() time.Time
	logger *slog.Logger
	saver  *Debouncer

	mu         sync.Mutex
	state      focus.State
	appliedSeq int64
	loadErr    error

	// saveBlocked is set when the saved timer could not be read.
	saveBlocked error
}

var _ primary.FocusService = (*FocusServiceImpl)(nil)

// NewFocusService restores the saved timer and subscribes to task deletions.
func NewFocusService(ctx context.Context, store secondary.SnapshotStore, tasks primary.TaskService, opts FocusServiceOptions) (*FocusServiceImpl, error) {
	f := &FocusServiceImpl{
		store:  store,
		tasks:  tasks,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	defaults := opts.Defaults
	if defaults == (focus.Config{}) {
		defaults = focus.DefaultConfig()
	}
	f.saver = NewDebouncer(opts.Debounce, f.save, f.logger)

	state, appliedSeq, err := loadFocus(ctx, store, defaults)
	var serr *SnapshotError
	switch {
	case errors.As(err, &serr):
		f.loadErr = err
		f.saveBlocked = unloaded(err)
		f.logger.Warn("saved focus timer discarded", "error", err)
	case err != nil:
		return nil, err
	}
	f.state = state
	f.appliedSeq = appliedSeq

	tasks.OnDelete(func(ctx context.Context, taskID string) {
		if err := f.ClearTask(ctx, taskID); err != nil {
			f.logger.Warn("failed to clear deleted task from focus timer", "task_id", taskID, "error", err)
		}
	})

	return f, nil
}

func (f *FocusServiceImpl) save() error {
	if f.saveBlocked != nil {
		return fmt.Errorf("not saving focus timer: %w", f.saveBlocked)
	}
	f.mu.Lock()
	state, appliedSeq := f.state, f.appliedSeq
	f.mu.Unlock()
	return saveFocus(context.Background(), f.store, state, appliedSeq)
}

// apply catches the timer up to now, then applies ev (if any). Sessions
// completed along the way are credited to their tasks.
func (f *FocusServiceImpl) apply(ctx context.Context, ev focus.Event) *primary.FocusStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	before := f.state.Mode
	f.state = focus.Advance(f.state, f.now())
	f.settle(ctx)
	if ev != nil {
		f.state = focus.Apply(f.state, ev)
		f.settle(ctx)
	}
	if f.state.Mode != before {
		f.logger.Debug("focus mode changed", "from", string(before), "to", string(f.state.Mode), "streak", f.state.Streak)
	}
	f.saver.Schedule()

	return f.status(ctx)
}

// settle folds every session newer than appliedSeq into its task's time.
// Callers must hold f.mu.
func (f *FocusServiceImpl) settle(ctx context.Context) {
	for _, rec := range f.state.Stats.SessionsAfter(f.appliedSeq) {
		if _, err := f.tasks.AccrueTime(ctx, rec.TaskID, int64(rec.DurationSeconds)); err != nil {
			f.logger.Warn("focus session not credited", "task_id", rec.TaskID, "seq", rec.Seq, "error", err)
		} else {
			f.logger.Info("focus session completed", "task_id", rec.TaskID, "seq", rec.Seq, "duration_seconds", rec.DurationSeconds)
		}
		f.appliedSeq = rec.Seq
	}
	// Records dropped from the capped log before being seen are not replayed.
	if last := f.state.Stats.LastSeq; last > f.appliedSeq {
		f.appliedSeq = last
	}
}

// status builds the view of the current state. Callers must hold f.mu.
func (f *FocusServiceImpl) status(ctx context.Context) *primary.FocusStatus {
	st := &primary.FocusStatus{State: f.state}
	if id := f.state.ActiveTaskID; id != "" {
		if t, err := f.tasks.GetTask(ctx, id); err == nil {
			st.Task = t
		}
	}
	return st
}

// Start focuses on a task. The task must exist and be open.
func (f *FocusServiceImpl) Start(ctx context.Context, taskID string) (*primary.FocusStatus, error) {
	t, err := f.tasks.GetTask(ctx, taskID)
	if err != nil && !errors.Is(err, reconcile.ErrTaskNotFound) {
		return nil, fmt.Errorf("failed to look up task: %w", err)
	}
	guard := coretask.CanStartFocus(coretask.StartFocusContext{
		TaskID:     taskID,
		TaskExists: t != nil,
		TaskDone:   t != nil && t.Done,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	st := f.apply(ctx, focus.Start{TaskID: taskID, At: f.now()})
	f.logger.Info("focus started", "task_id", taskID, "mode", string(st.State.Mode))
	return st, nil
}

// Pause freezes the countdown.
func (f *FocusServiceImpl) Pause(ctx context.Context) (*primary.FocusStatus, error) {
	return f.apply(ctx, focus.Pause{}), nil
}

// Resume continues a paused countdown.
func (f *FocusServiceImpl) Resume(ctx context.Context) (*primary.FocusStatus, error) {
	return f.apply(ctx, focus.Resume{At: f.now()}), nil
}

// Reset returns the timer to idle, keeping stats.
func (f *FocusServiceImpl) Reset(ctx context.Context) (*primary.FocusStatus, error) {
	return f.apply(ctx, focus.Reset{}), nil
}

// Skip ends the current interval without credit.
func (f *FocusServiceImpl) Skip(ctx context.Context) (*primary.FocusStatus, error) {
	return f.apply(ctx, focus.Skip{At: f.now()}), nil
}

// Status returns the current timer state.
func (f *FocusServiceImpl) Status(ctx context.Context) (*primary.FocusStatus, error) {
	return f.apply(ctx, nil), nil
}

// UpdateConfig merges a partial timer configuration.
func (f *FocusServiceImpl) UpdateConfig(ctx context.Context, patch focus.ConfigPatch) (*primary.FocusStatus, error) {
	st := f.apply(ctx, focus.UpdateConfig{Patch: patch})
	f.logger.Info("focus config updated", "config", st.State.Config)
	return st, nil
}

// Stats returns accumulated focus statistics with task titles resolved.
func (f *FocusServiceImpl) Stats(ctx context.Context) (*primary.FocusStats, error) {
	st := f.apply(ctx, nil)

	titles := make(map[string]string)
	resolve := func(id string) {
		if _, seen := titles[id]; seen {
			return
		}
		if t, err := f.tasks.GetTask(ctx, id); err == nil {
			titles[id] = t.Title
		}
	}
	for id := range st.State.Stats.TaskIntervals {
		resolve(id)
	}
	for _, rec := range st.State.Stats.CompletedSessions {
		resolve(rec.TaskID)
	}

	return &primary.FocusStats{Stats: st.State.Stats, Titles: titles}, nil
}

// ClearStats empties accumulated statistics.
func (f *FocusServiceImpl) ClearStats(ctx context.Context) error {
	f.apply(ctx, focus.ClearStats{})
	f.logger.Info("focus stats cleared")
	return nil
}

// ClearTask drops the active task if it is taskID.
func (f *FocusServiceImpl) ClearTask(ctx context.Context, taskID string) error {
	f.apply(ctx, focus.ClearTask{TaskID: taskID})
	return nil
}

// LoadError reports a problem encountered restoring the saved timer, if any.
func (f *FocusServiceImpl) LoadError() error {
	return f.loadErr
}

// Flush writes any pending changes immediately.
func (f *FocusServiceImpl) Flush(ctx context.Context) error {
	return f.saver.Flush()
}
