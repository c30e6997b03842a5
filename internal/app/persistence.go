package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/eisen/internal/core/dates"
	"github.com/example/eisen/internal/core/focus"
	"github.com/example/eisen/internal/models"
	"github.com/example/eisen/internal/ports/secondary"
)

// Envelope versions written by this build.
const (
	TasksEnvelopeVersion = 2
	FocusEnvelopeVersion = 1
)

// SnapshotError reports a saved document that could not be restored and the
// caller starts fresh. When the payload was read it has been copied to
// Backup; an empty Backup means the store itself could not be read.
type SnapshotError struct {
	Slot    string
	Backup  string
	Version int
	Err     error
}

func (e *SnapshotError) Error() string {
	if e.Backup == "" {
		return fmt.Sprintf("saved %s could not be loaded (%v); started fresh and will not save over it", e.Slot, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("saved %s could not be read (%v); kept a copy in %q and started fresh", e.Slot, e.Err, e.Backup)
	}
	return fmt.Sprintf("saved %s has unsupported version %d; kept a copy in %q and started fresh", e.Slot, e.Version, e.Backup)
}

func (e *SnapshotError) Unwrap() error { return e.Err }

type versionProbe struct {
	Version int `json:"version"`
}

type tasksEnvelope struct {
	Version int               `json:"version"`
	Tasks   models.Collection `json:"tasks"`
}

// legacyTask is the version 1 record: no completion, timing, tag or
// provenance, and due dates kept as the text the user typed.
type legacyTask struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Due       string          `json:"due"`
	Quadrant  models.Quadrant `json:"quadrant"`
	CreatedAt time.Time       `json:"createdAt"`
}

type legacyTasksEnvelope struct {
	Version int                   `json:"version"`
	Tasks   map[string]legacyTask `json:"tasks"`
}

type focusEnvelope struct {
	Version    int         `json:"version"`
	State      focus.State `json:"state"`
	AppliedSeq int64       `json:"appliedSeq"`
}

// loadTasks restores the task collection. A missing slot is an empty
// collection. A failed read, or an undecodable or unknown-version payload,
// is reported as a *SnapshotError alongside an empty collection; payloads
// that were read are backed up first.
func loadTasks(ctx context.Context, store secondary.SnapshotStore, n *dates.Normalizer, now time.Time) (models.Collection, error) {
	raw, ok, err := store.Get(ctx, secondary.SlotTasks)
	if err != nil {
		return models.Collection{}, &SnapshotError{Slot: secondary.SlotTasks, Err: err}
	}
	if !ok {
		return models.Collection{}, nil
	}

	var probe versionProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return quarantineTasks(ctx, store, raw, &SnapshotError{Err: err})
	}

	switch probe.Version {
	case TasksEnvelopeVersion:
		var env tasksEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return quarantineTasks(ctx, store, raw, &SnapshotError{Err: err})
		}
		out := make(models.Collection, len(env.Tasks))
		for id, t := range env.Tasks {
			t.ID = id
			out[id] = t
		}
		return out, nil
	case 1:
		var env legacyTasksEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return quarantineTasks(ctx, store, raw, &SnapshotError{Err: err})
		}
		return upgradeLegacyTasks(env.Tasks, n, now), nil
	default:
		return quarantineTasks(ctx, store, raw, &SnapshotError{Version: probe.Version})
	}
}

func upgradeLegacyTasks(legacy map[string]legacyTask, n *dates.Normalizer, now time.Time) models.Collection {
	out := make(models.Collection, len(legacy))
	for id, l := range legacy {
		t := models.Task{
			ID:        id,
			Title:     l.Title,
			Due:       n.ParseNullable(l.Due),
			Quadrant:  l.Quadrant,
			CreatedAt: l.CreatedAt,
		}
		if t.Title == "" {
			t.Title = id
		}
		if !t.Quadrant.Valid() {
			t.Quadrant = models.QuadrantBacklog
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		out[id] = t
	}
	return out
}

func quarantineTasks(ctx context.Context, store secondary.SnapshotStore, raw []byte, serr *SnapshotError) (models.Collection, error) {
	serr.Slot = secondary.SlotTasks
	serr.Backup = secondary.SlotTasksBackup
	if err := store.Put(ctx, secondary.SlotTasksBackup, raw); err != nil {
		return models.Collection{}, errors.Join(serr, fmt.Errorf("failed to back up tasks: %w", err))
	}
	return models.Collection{}, serr
}

func saveTasks(ctx context.Context, store secondary.SnapshotStore, c models.Collection) error {
	data, err := json.Marshal(tasksEnvelope{Version: TasksEnvelopeVersion, Tasks: c})
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	if err := store.Put(ctx, secondary.SlotTasks, data); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}
	return nil
}

// loadFocus restores the timer and the last session folded into tasks.
// It follows the same fallback policy as loadTasks, starting from cfg.
func loadFocus(ctx context.Context, store secondary.SnapshotStore, cfg focus.Config) (focus.State, int64, error) {
	raw, ok, err := store.Get(ctx, secondary.SlotFocus)
	if err != nil {
		return focus.NewState(cfg), 0, &SnapshotError{Slot: secondary.SlotFocus, Err: err}
	}
	if !ok {
		return focus.NewState(cfg), 0, nil
	}

	var probe versionProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return quarantineFocus(ctx, store, raw, cfg, &SnapshotError{Err: err})
	}
	if probe.Version != FocusEnvelopeVersion {
		return quarantineFocus(ctx, store, raw, cfg, &SnapshotError{Version: probe.Version})
	}

	var env focusEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return quarantineFocus(ctx, store, raw, cfg, &SnapshotError{Err: err})
	}
	if env.State.Mode == "" || env.State.RunState == "" {
		return quarantineFocus(ctx, store, raw, cfg, &SnapshotError{Err: errors.New("timer state is incomplete")})
	}
	if env.State.Stats.TaskIntervals == nil {
		env.State.Stats.TaskIntervals = map[string]int{}
	}
	return env.State, env.AppliedSeq, nil
}

func quarantineFocus(ctx context.Context, store secondary.SnapshotStore, raw []byte, cfg focus.Config, serr *SnapshotError) (focus.State, int64, error) {
	serr.Slot = secondary.SlotFocus
	serr.Backup = secondary.SlotFocusBackup
	fresh := focus.NewState(cfg)
	if err := store.Put(ctx, secondary.SlotFocusBackup, raw); err != nil {
		return fresh, 0, errors.Join(serr, fmt.Errorf("failed to back up focus timer: %w", err))
	}
	return fresh, 0, serr
}

func saveFocus(ctx context.Context, store secondary.SnapshotStore, s focus.State, appliedSeq int64) error {
	data, err := json.Marshal(focusEnvelope{Version: FocusEnvelopeVersion, State: s, AppliedSeq: appliedSeq})
	if err != nil {
		return fmt.Errorf("failed to encode focus timer: %w", err)
	}
	if err := store.Put(ctx, secondary.SlotFocus, data); err != nil {
		return fmt.Errorf("failed to save focus timer: %w", err)
	}
	return nil
}

// unloaded returns err if it reports a slot that could not be read at all.
// Saving over such a slot would replace data that may still be intact.
func unloaded(err error) error {
	var serr *SnapshotError
	if errors.As(err, &serr) && serr.Backup == "" {
		return serr
	}
	return nil
}
