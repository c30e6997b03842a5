package focus

import "time"

// Event is an input to the timer. The set is closed.
type Event interface {
	isEvent()
}

// Start begins focusing on a task.
type Start struct {
	TaskID string
	At     time.Time
}

// Pause freezes a running countdown.
type Pause struct{}

// Resume continues a paused countdown.
type Resume struct {
	At time.Time
}

// Reset returns to idle, keeping stats.
type Reset struct{}

// Skip ends the current interval early without credit.
type Skip struct {
	At time.Time
}

// Tick is one elapsed second.
type Tick struct {
	At time.Time
}

// UpdateConfig merges a partial config.
type UpdateConfig struct {
	Patch ConfigPatch
}

// ClearStats empties the accumulated stats.
type ClearStats struct{}

// ClearTask drops the active task reference if it matches TaskID.
type ClearTask struct {
	TaskID string
}

func (Start) isEvent()        {}
func (Pause) isEvent()        {}
func (Resume) isEvent()       {}
func (Reset) isEvent()        {}
func (Skip) isEvent()         {}
func (Tick) isEvent()         {}
func (UpdateConfig) isEvent() {}
func (ClearStats) isEvent()   {}
func (ClearTask) isEvent()    {}

// Apply computes the next state. It never mutates s; events that are
// meaningless in the current state return s unchanged.
func Apply(s State, ev Event) State {
	switch e := ev.(type) {
	case Start:
		return start(s, e)
	case Pause:
		if s.RunState != Running {
			return s
		}
		s.RunState = Paused
		return s
	case Resume:
		if s.ActiveTaskID == "" || s.Mode == ModeIdle || s.RunState != Paused {
			return s
		}
		s.RunState = Running
		s.LastTickAt = stamp(e.At)
		return s
	case Reset:
		return reset(s)
	case Skip:
		if s.Mode == ModeIdle {
			return s
		}
		return finish(s, false, e.At)
	case Tick:
		return tick(s, e.At)
	case UpdateConfig:
		s.Config = s.Config.Merge(e.Patch)
		if s.Mode == ModeIdle && s.RunState == Stopped {
			s.SessionSeconds = s.Config.Seconds(ModeFocus)
			s.RemainingSeconds = s.SessionSeconds
		}
		return s
	case ClearStats:
		s.Stats = Stats{TaskIntervals: map[string]int{}, LastSeq: s.Stats.LastSeq}
		return s
	case ClearTask:
		return clearTask(s, e.TaskID)
	}
	return s
}

// start opens a fresh focus interval from idle or when switching to another
// task, so time already spent is never credited to the new one. Starting the
// active task again just keeps the current interval running.
func start(s State, e Start) State {
	if e.TaskID == "" {
		return s
	}
	if s.Mode == ModeIdle || s.ActiveTaskID != e.TaskID {
		s.ActiveTaskID = e.TaskID
		return enter(s, ModeFocus, true, e.At)
	}
	s.RunState = Running
	s.LastTickAt = stamp(e.At)
	return s
}

func reset(s State) State {
	secs := s.Config.Seconds(ModeFocus)
	s.ActiveTaskID = ""
	s.Mode = ModeIdle
	s.RunState = Stopped
	s.Streak = 0
	s.RemainingSeconds = secs
	s.SessionSeconds = secs
	s.LastTickAt = nil
	return s
}

func tick(s State, at time.Time) State {
	if s.RunState != Running || s.Mode == ModeIdle {
		return s
	}
	s.LastTickAt = stamp(at)
	if s.RemainingSeconds > 0 {
		s.RemainingSeconds--
	}
	if s.RemainingSeconds > 0 {
		return s
	}
	return finish(s, true, at)
}

// finish ends the current interval. credit is false for skips: no streak,
// no session record.
func finish(s State, credit bool, at time.Time) State {
	if s.Mode == ModeFocus {
		if credit {
			s.Streak++
			s.Stats = s.Stats.clone()
			s.Stats.History = appendCapped(s.Stats.History, at, HistoryCap)
			if s.ActiveTaskID != "" {
				s.Stats.LastSeq++
				s.Stats.TaskIntervals[s.ActiveTaskID]++
				s.Stats.CompletedSessions = appendCapped(s.Stats.CompletedSessions, SessionRecord{
					Seq:             s.Stats.LastSeq,
					TaskID:          s.ActiveTaskID,
					DurationSeconds: s.SessionSeconds,
					CompletedAt:     at,
				}, SessionLogCap)
			}
		}
		return enter(s, nextBreak(s, credit), s.Config.AutoTransition, at)
	}

	if s.ActiveTaskID != "" {
		return enter(s, ModeFocus, s.Config.AutoTransition, at)
	}
	return reset(s)
}

func nextBreak(s State, credit bool) Mode {
	every := s.Config.LongBreakEvery
	if credit && s.Config.LongBreaks && every > 0 && s.Streak > 0 && s.Streak%every == 0 {
		return ModeLongBreak
	}
	return ModeShortBreak
}

// enter opens an interval in mode m. Its length is frozen from the config
// at this moment; later config edits do not change it.
func enter(s State, m Mode, run bool, at time.Time) State {
	s.Mode = m
	s.SessionSeconds = s.Config.Seconds(m)
	s.RemainingSeconds = s.SessionSeconds
	if run {
		s.RunState = Running
		s.LastTickAt = stamp(at)
	} else {
		s.RunState = Paused
	}
	return s
}

// clearTask drops the active task. An unfinished focus interval for it is
// abandoned without credit; a break runs out and then returns to idle.
func clearTask(s State, taskID string) State {
	if s.ActiveTaskID == "" || s.ActiveTaskID != taskID {
		return s
	}
	s.ActiveTaskID = ""
	if s.Mode == ModeFocus {
		return reset(s)
	}
	return s
}

func appendCapped[T any](xs []T, x T, limit int) []T {
	xs = append(xs, x)
	if len(xs) > limit {
		xs = append([]T(nil), xs[len(xs)-limit:]...)
	}
	return xs
}

func stamp(at time.Time) *time.Time {
	if at.IsZero() {
		return nil
	}
	return &at
}
