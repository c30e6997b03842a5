package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/example/eisen/internal/ports/secondary"
)

// Ensure mockSnapshotStore implements the interface
var _ secondary.SnapshotStore = (*mockSnapshotStore)(nil)

// mockSnapshotStore implements secondary.SnapshotStore in memory.
type mockSnapshotStore struct {
	mu       sync.Mutex
	slots    map[string][]byte
	saved    map[string]time.Time
	puts     int
	getErr   error
	putErr   error
	putCalls []string
}

func newMockSnapshotStore() *mockSnapshotStore {
	return &mockSnapshotStore{
		slots: make(map[string][]byte),
		saved: make(map[string]time.Time),
	}
}

func (m *mockSnapshotStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	payload, ok := m.slots[key]
	return payload, ok, nil
}

func (m *mockSnapshotStore) Put(ctx context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls = append(m.putCalls, key)
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.slots[key] = append([]byte(nil), payload...)
	m.saved[key] = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	return nil
}

func (m *mockSnapshotStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[key], nil
}

func (m *mockSnapshotStore) slot(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.slots[key])
}

// fakeClock returns t and then moves it forward by step.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
