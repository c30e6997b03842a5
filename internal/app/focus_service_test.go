package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/eisen/internal/core/focus"
	"github.com/example/eisen/internal/ports/primary"
	"github.com/example/eisen/internal/ports/secondary"
)

func minuteConfig() focus.Config {
	return focus.Config{
		FocusMinutes:      1,
		ShortBreakMinutes: 1,
		LongBreakMinutes:  1,
		LongBreakEvery:    4,
		AutoTransition:    true,
		LongBreaks:        true,
	}
}

type focusFixture struct {
	store *mockSnapshotStore
	clock *fakeClock
	tasks *TaskServiceImpl
	focus *FocusServiceImpl
}

func newFocusFixture(t *testing.T, store *mockSnapshotStore, clock *fakeClock, cfg focus.Config) *focusFixture {
	t.Helper()
	tasks := newTestTaskService(t, store, clock)
	svc, err := NewFocusService(context.Background(), store, tasks, FocusServiceOptions{
		Defaults: cfg,
		Now:      clock.Now,
		Logger:   discardLogger(),
		Debounce: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewFocusService failed: %v", err)
	}
	return &focusFixture{store: store, clock: clock, tasks: tasks, focus: svc}
}

func (f *focusFixture) importTasks(t *testing.T, raw string) {
	t.Helper()
	if _, err := f.tasks.Import(context.Background(), primary.ImportRequest{Raw: raw}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
}

func (f *focusFixture) flush(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := f.tasks.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.focus.Flush(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestFocusService_StartGuards(t *testing.T) {
	ctx := context.Background()
	fx := newFocusFixture(t, newMockSnapshotStore(), newFakeClock(), minuteConfig())
	fx.importTasks(t, `{"Open": "", "Finished": ""}`)
	if _, err := fx.tasks.SetDone(ctx, "Finished", true); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		taskID  string
		wantErr string
	}{
		{name: "missing task", taskID: "Ghost", wantErr: "task Ghost not found"},
		{name: "done task", taskID: "Finished", wantErr: "cannot focus on completed task Finished"},
		{name: "open task", taskID: "Open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := fx.focus.Start(ctx, tt.taskID)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			if st.State.Mode != focus.ModeFocus || st.Task == nil || st.Task.ID != "Open" {
				t.Errorf("unexpected status %+v", st)
			}
		})
	}
}

func TestFocusService_CreditsCompletedSessionOnce(t *testing.T) {
	ctx := context.Background()
	fx := newFocusFixture(t, newMockSnapshotStore(), newFakeClock(), minuteConfig())
	fx.importTasks(t, `{"Essay": ""}`)

	if _, err := fx.focus.Start(ctx, "Essay"); err != nil {
		t.Fatal(err)
	}
	fx.clock.Advance(61 * time.Second)

	st, err := fx.focus.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.State.Mode != focus.ModeShortBreak || st.State.Streak != 1 {
		t.Errorf("state = %s streak %d, want short_break streak 1", st.State.Mode, st.State.Streak)
	}

	for i := 0; i < 3; i++ {
		if _, err := fx.focus.Status(ctx); err != nil {
			t.Fatal(err)
		}
	}
	task, _ := fx.tasks.GetTask(ctx, "Essay")
	if task.TimeSpentSeconds != 60 {
		t.Errorf("TimeSpentSeconds = %d, want 60", task.TimeSpentSeconds)
	}
}

func TestFocusService_ReloadDoesNotDoubleCredit(t *testing.T) {
	ctx := context.Background()
	store := newMockSnapshotStore()
	clock := newFakeClock()
	fx := newFocusFixture(t, store, clock, minuteConfig())
	fx.importTasks(t, `{"Essay": ""}`)

	if _, err := fx.focus.Start(ctx, "Essay"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(61 * time.Second)
	if _, err := fx.focus.Status(ctx); err != nil {
		t.Fatal(err)
	}
	fx.flush(t)

	reloaded := newFocusFixture(t, store, clock, minuteConfig())
	st, err := reloaded.focus.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.State.Mode != focus.ModeShortBreak {
		t.Errorf("mode = %s, want short_break", st.State.Mode)
	}
	task, _ := reloaded.tasks.GetTask(ctx, "Essay")
	if task.TimeSpentSeconds != 60 {
		t.Errorf("TimeSpentSeconds = %d, want 60", task.TimeSpentSeconds)
	}
}

func TestFocusService_CatchUpAcrossRestart(t *testing.T) {
	ctx := context.Background()
	store := newMockSnapshotStore()
	clock := newFakeClock()
	fx := newFocusFixture(t, store, clock, minuteConfig())
	fx.importTasks(t, `{"Essay": ""}`)

	if _, err := fx.focus.Start(ctx, "Essay"); err != nil {
		t.Fatal(err)
	}
	fx.flush(t)

	// Focus, break, focus: two sessions complete while nothing is running.
	clock.Advance(3 * time.Minute)
	reloaded := newFocusFixture(t, store, clock, minuteConfig())
	st, err := reloaded.focus.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.State.Streak != 2 || st.State.Mode != focus.ModeShortBreak {
		t.Errorf("state = %s streak %d, want short_break streak 2", st.State.Mode, st.State.Streak)
	}
	task, _ := reloaded.tasks.GetTask(ctx, "Essay")
	if task.TimeSpentSeconds != 120 {
		t.Errorf("TimeSpentSeconds = %d, want 120", task.TimeSpentSeconds)
	}
}

func TestFocusService_DeletingActiveTaskClearsTimer(t *testing.T) {
	ctx := context.Background()
	fx := newFocusFixture(t, newMockSnapshotStore(), newFakeClock(), minuteConfig())
	fx.importTasks(t, `{"Essay": ""}`)

	if _, err := fx.focus.Start(ctx, "Essay"); err != nil {
		t.Fatal(err)
	}
	fx.clock.Advance(10 * time.Second)

	if err := fx.tasks.DeleteTask(ctx, "Essay"); err != nil {
		t.Fatal(err)
	}

	st, _ := fx.focus.Status(ctx)
	if st.State.Mode != focus.ModeIdle || st.State.ActiveTaskID != "" || st.Task != nil {
		t.Errorf("unexpected status after delete %+v", st.State)
	}
}

func TestFocusService_SkipsSessionsForMissingTasks(t *testing.T) {
	ctx := context.Background()
	store := newMockSnapshotStore()
	state := focus.NewState(minuteConfig())
	state.Stats.LastSeq = 2
	state.Stats.CompletedSessions = []focus.SessionRecord{
		{Seq: 1, TaskID: "Ghost", DurationSeconds: 60},
		{Seq: 2, TaskID: "Essay", DurationSeconds: 60},
	}
	if err := saveFocus(ctx, store, state, 0); err != nil {
		t.Fatal(err)
	}

	fx := newFocusFixture(t, store, newFakeClock(), minuteConfig())
	fx.importTasks(t, `{"Essay": ""}`)
	if _, err := fx.focus.Status(ctx); err != nil {
		t.Fatal(err)
	}
	fx.flush(t)

	task, _ := fx.tasks.GetTask(ctx, "Essay")
	if task.TimeSpentSeconds != 60 {
		t.Errorf("TimeSpentSeconds = %d, want 60", task.TimeSpentSeconds)
	}

	var env focusEnvelope
	if err := json.Unmarshal([]byte(store.slot(secondary.SlotFocus)), &env); err != nil {
		t.Fatal(err)
	}
	if env.AppliedSeq != 2 {
		t.Errorf("AppliedSeq = %d, want 2", env.AppliedSeq)
	}
}

func TestFocusService_StatsAndClear(t *testing.T) {
	ctx := context.Background()
	fx := newFocusFixture(t, newMockSnapshotStore(), newFakeClock(), minuteConfig())
	fx.importTasks(t, `{"Essay": ""}`)

	if _, err := fx.focus.Start(ctx, "Essay"); err != nil {
		t.Fatal(err)
	}
	fx.clock.Advance(60 * time.Second)

	stats, err := fx.focus.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Stats.TaskIntervals["Essay"] != 1 || stats.Titles["Essay"] != "Essay" {
		t.Errorf("unexpected stats %+v", stats)
	}

	if err := fx.focus.ClearStats(ctx); err != nil {
		t.Fatal(err)
	}
	stats, _ = fx.focus.Stats(ctx)
	if len(stats.Stats.CompletedSessions) != 0 || len(stats.Titles) != 0 {
		t.Errorf("stats not cleared %+v", stats)
	}

	task, _ := fx.tasks.GetTask(ctx, "Essay")
	if task.TimeSpentSeconds != 60 {
		t.Errorf("clearing stats must not touch task time, got %d", task.TimeSpentSeconds)
	}
}

func TestFocusService_UpdateConfig(t *testing.T) {
	ctx := context.Background()
	fx := newFocusFixture(t, newMockSnapshotStore(), newFakeClock(), minuteConfig())

	minutes := 50.0
	st, err := fx.focus.UpdateConfig(ctx, focus.ConfigPatch{FocusMinutes: &minutes})
	if err != nil {
		t.Fatal(err)
	}
	if st.State.Config.FocusMinutes != 50 || st.State.RemainingSeconds != 3000 {
		t.Errorf("unexpected state %+v", st.State)
	}
}

func TestFocusService_UnknownEnvelopeIsBackedUp(t *testing.T) {
	store := newMockSnapshotStore()
	store.slots[secondary.SlotFocus] = []byte(`{"version": 3}`)

	fx := newFocusFixture(t, store, newFakeClock(), minuteConfig())

	var serr *SnapshotError
	if !errors.As(fx.focus.LoadError(), &serr) {
		t.Fatalf("expected SnapshotError, got %v", fx.focus.LoadError())
	}
	if serr.Version != 3 || serr.Backup != secondary.SlotFocusBackup {
		t.Errorf("unexpected error %+v", serr)
	}
	if store.slot(secondary.SlotFocusBackup) != `{"version": 3}` {
		t.Error("expected payload to be backed up")
	}

	st, _ := fx.focus.Status(context.Background())
	if st.State.Mode != focus.ModeIdle || st.State.RemainingSeconds != 60 {
		t.Errorf("expected fresh idle timer, got %+v", st.State)
	}
}

func TestFocusService_UnreadableStoreStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := newMockSnapshotStore()
	store.slots[secondary.SlotFocus] = []byte(`{"version":1}`)
	store.getErr = errors.New("database is locked")

	fx := newFocusFixture(t, store, newFakeClock(), minuteConfig())

	var serr *SnapshotError
	if !errors.As(fx.focus.LoadError(), &serr) || serr.Slot != secondary.SlotFocus {
		t.Fatalf("expected focus SnapshotError, got %v", fx.focus.LoadError())
	}
	if _, ok := store.slots[secondary.SlotFocusBackup]; ok {
		t.Error("nothing was read, so nothing should be backed up")
	}

	st, err := fx.focus.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.State.Mode != focus.ModeIdle || st.State.Config != minuteConfig() {
		t.Errorf("expected a fresh idle timer, got %+v", st.State)
	}
	if err := fx.focus.Flush(ctx); err == nil {
		t.Error("expected Flush to refuse to save")
	}
	if store.slot(secondary.SlotFocus) != `{"version":1}` {
		t.Errorf("saved timer was overwritten: %q", store.slot(secondary.SlotFocus))
	}
}
