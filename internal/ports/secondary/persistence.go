// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// Snapshot slot keys.
const (
	SlotTasks       = "tasks"
	SlotTasksBackup = "tasks.backup"
	SlotFocus       = "focus"
	SlotFocusBackup = "focus.backup"
)

// SnapshotStore defines the secondary port for whole-document persistence.
// Each slot holds one opaque payload that is replaced on every write.
type SnapshotStore interface {
	// Get returns the payload stored under key. ok is false when the slot is empty.
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)

	// Put replaces the payload stored under key.
	Put(ctx context.Context, key string, payload []byte) error

	// UpdatedAt returns when key was last written, or the zero time if never.
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}
