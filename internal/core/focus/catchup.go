package focus

import "time"

// MaxCatchUp bounds how much wall-clock time Advance will replay.
const MaxCatchUp = 6 * time.Hour

// Advance replays one Tick per whole second elapsed between the last tick
// and now. Ticks carry their simulated timestamps, so sessions completed
// during the replay are stamped when they would have ended. Replay stops as
// soon as the timer is no longer running.
func Advance(s State, now time.Time) State {
	if s.RunState != Running || s.LastTickAt == nil {
		return s
	}
	last := *s.LastTickAt
	elapsed := now.Sub(last)
	if elapsed < time.Second {
		return s
	}
	if elapsed > MaxCatchUp {
		elapsed = MaxCatchUp
		last = now.Add(-MaxCatchUp)
	}

	n := int(elapsed / time.Second)
	for i := 1; i <= n && s.RunState == Running; i++ {
		s = Apply(s, Tick{At: last.Add(time.Duration(i) * time.Second)})
	}
	return s
}
