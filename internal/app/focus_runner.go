package app

import (
	"context"
	"time"

	"github.com/example/eisen/internal/core/focus"
	"github.com/example/eisen/internal/ports/primary"
)

// FocusRunner drives a running timer from a wall-clock ticker.
type FocusRunner struct {
	focus    primary.FocusService
	interval time.Duration
}

// NewFocusRunner creates a runner that polls svc once per second.
func NewFocusRunner(svc primary.FocusService) *FocusRunner {
	return &FocusRunner{focus: svc, interval: time.Second}
}

// Run reports the timer to onTick after every tick until ctx is cancelled or
// the timer stops running. No ticker exists unless the timer is running.
func (r *FocusRunner) Run(ctx context.Context, onTick func(*primary.FocusStatus)) error {
	st, err := r.focus.Status(ctx)
	if err != nil {
		return err
	}
	onTick(st)
	if st.State.RunState != focus.Running {
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st, err := r.focus.Status(ctx)
			if err != nil {
				return err
			}
			onTick(st)
			if st.State.RunState != focus.Running {
				return nil
			}
		}
	}
}
