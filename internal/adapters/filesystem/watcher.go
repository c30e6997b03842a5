package filesystem

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/example/eisen/internal/ports/secondary"
)

// DefaultSettle is how long a file must be quiet before a change is reported.
const DefaultSettle = 200 * time.Millisecond

// FileWatcher implements secondary.FileWatcher with fsnotify. It watches the
// parent directory so editors that save by rename are still seen.
type FileWatcher struct {
	settle time.Duration
	logger *slog.Logger
}

// NewFileWatcher creates a watcher that reports a change once writes have
// been quiet for settle.
func NewFileWatcher(settle time.Duration, logger *slog.Logger) *FileWatcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{settle: settle, logger: logger}
}

var _ secondary.FileWatcher = (*FileWatcher)(nil)

// Watch calls onChange after path is created, written or replaced.
func (w *FileWatcher) Watch(ctx context.Context, path string, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	// Debounce bursts of events.
	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.settle)
			} else {
				timer.Reset(w.settle)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			w.logger.Debug("watched file changed", "path", abs)
			onChange()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "path", abs, "error", err)
		}
	}
}
