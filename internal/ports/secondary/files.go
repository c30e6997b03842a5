package secondary

import "context"

// FileWriter defines the secondary port for writing exported documents.
type FileWriter interface {
	// WriteFile atomically replaces the file at path with data.
	WriteFile(ctx context.Context, path string, data []byte) error
}

// FileWatcher defines the secondary port for observing a file for changes.
type FileWatcher interface {
	// Watch calls onChange after path is written, coalescing bursts of writes.
	// It blocks until ctx is cancelled or the watch fails.
	Watch(ctx context.Context, path string, onChange func()) error
}
