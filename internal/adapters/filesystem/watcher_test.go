package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileWatcher_ReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "import.json")
	other := filepath.Join(dir, "other.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 8)
	w := NewFileWatcher(20*time.Millisecond, nil)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, path, func() { changes <- struct{}{} })
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(other, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`{"A": ""}`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	// The burst is coalesced and the unrelated file ignored.
	select {
	case <-changes:
		t.Error("expected a single coalesced change")
	case <-time.After(150 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	w := NewFileWatcher(0, nil)
	err := w.Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "import.json"), func() {})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
