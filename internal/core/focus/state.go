// Package focus contains the focus-session timer as an explicit state value
// and a pure transition function over it.
// This is part of the Functional Core - no I/O, only pure functions.
package focus

import (
	"math"
	"time"
)

// Mode is the kind of interval the timer is in.
type Mode string

// Mode constants
const (
	ModeIdle       Mode = "idle"
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

// IsBreak reports whether m is one of the break modes.
func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// RunState is whether the countdown is advancing.
type RunState string

// RunState constants
const (
	Running RunState = "running"
	Paused  RunState = "paused"
	Stopped RunState = "stopped"
)

// Caps on the stats logs; the oldest entries are dropped first.
const (
	HistoryCap    = 100
	SessionLogCap = 500
)

// Config holds interval durations and transition toggles.
type Config struct {
	FocusMinutes      float64 `json:"focusMinutes"`
	ShortBreakMinutes float64 `json:"shortBreakMinutes"`
	LongBreakMinutes  float64 `json:"longBreakMinutes"`
	LongBreakEvery    int     `json:"longBreakEvery"`
	AutoTransition    bool    `json:"autoTransition"`
	LongBreaks        bool    `json:"longBreaks"`
}

// DefaultConfig returns the classic 25/5/15 cadence with a long break every
// fourth interval.
func DefaultConfig() Config {
	return Config{
		FocusMinutes:      25,
		ShortBreakMinutes: 5,
		LongBreakMinutes:  15,
		LongBreakEvery:    4,
		AutoTransition:    true,
		LongBreaks:        true,
	}
}

// Seconds returns the configured length of an interval in mode m.
// Idle uses the focus duration. Lengths are at least one second.
func (c Config) Seconds(m Mode) int {
	minutes := c.FocusMinutes
	switch m {
	case ModeShortBreak:
		minutes = c.ShortBreakMinutes
	case ModeLongBreak:
		minutes = c.LongBreakMinutes
	}
	secs := int(math.Round(minutes * 60))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// ConfigPatch is a partial config update. Nil fields are unchanged.
type ConfigPatch struct {
	FocusMinutes      *float64 `json:"focusMinutes,omitempty"`
	ShortBreakMinutes *float64 `json:"shortBreakMinutes,omitempty"`
	LongBreakMinutes  *float64 `json:"longBreakMinutes,omitempty"`
	LongBreakEvery    *int     `json:"longBreakEvery,omitempty"`
	AutoTransition    *bool    `json:"autoTransition,omitempty"`
	LongBreaks        *bool    `json:"longBreaks,omitempty"`
}

// Merge applies p to c. Durations that are non-finite or not positive, and a
// cadence below one, fall back to the previous value.
func (c Config) Merge(p ConfigPatch) Config {
	c.FocusMinutes = mergeMinutes(c.FocusMinutes, p.FocusMinutes)
	c.ShortBreakMinutes = mergeMinutes(c.ShortBreakMinutes, p.ShortBreakMinutes)
	c.LongBreakMinutes = mergeMinutes(c.LongBreakMinutes, p.LongBreakMinutes)
	if p.LongBreakEvery != nil && *p.LongBreakEvery >= 1 {
		c.LongBreakEvery = *p.LongBreakEvery
	}
	if p.AutoTransition != nil {
		c.AutoTransition = *p.AutoTransition
	}
	if p.LongBreaks != nil {
		c.LongBreaks = *p.LongBreaks
	}
	return c
}

func mergeMinutes(prev float64, next *float64) float64 {
	if next == nil {
		return prev
	}
	v := *next
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return prev
	}
	return v
}

// SessionRecord is a logged, completed focus interval.
type SessionRecord struct {
	Seq             int64     `json:"seq"`
	TaskID          string    `json:"taskId"`
	DurationSeconds int       `json:"durationSeconds"`
	CompletedAt     time.Time `json:"completedAt"`
}

// Stats accumulates completed work across sessions.
type Stats struct {
	TaskIntervals     map[string]int  `json:"taskIntervals"`
	History           []time.Time     `json:"history"`
	CompletedSessions []SessionRecord `json:"completedSessions"`
	// LastSeq is the sequence number of the most recent session record.
	// It keeps increasing across ClearStats so consumers can track progress.
	LastSeq int64 `json:"lastSeq"`
}

func (s Stats) clone() Stats {
	out := Stats{
		TaskIntervals:     make(map[string]int, len(s.TaskIntervals)),
		History:           append([]time.Time(nil), s.History...),
		CompletedSessions: append([]SessionRecord(nil), s.CompletedSessions...),
		LastSeq:           s.LastSeq,
	}
	for k, v := range s.TaskIntervals {
		out.TaskIntervals[k] = v
	}
	return out
}

// SessionsAfter returns the session records with a sequence number above seq.
func (s Stats) SessionsAfter(seq int64) []SessionRecord {
	var out []SessionRecord
	for _, r := range s.CompletedSessions {
		if r.Seq > seq {
			out = append(out, r)
		}
	}
	return out
}

// State is the complete timer snapshot; it is what gets persisted.
type State struct {
	ActiveTaskID     string     `json:"activeTaskId,omitempty"`
	Mode             Mode       `json:"mode"`
	RunState         RunState   `json:"runState"`
	RemainingSeconds int        `json:"remainingSeconds"`
	SessionSeconds   int        `json:"sessionSeconds"`
	Streak           int        `json:"streak"`
	Config           Config     `json:"config"`
	Stats            Stats      `json:"stats"`
	LastTickAt       *time.Time `json:"lastTickAt,omitempty"`
}

// NewState returns an idle, stopped timer using cfg.
func NewState(cfg Config) State {
	secs := cfg.Seconds(ModeFocus)
	return State{
		Mode:             ModeIdle,
		RunState:         Stopped,
		RemainingSeconds: secs,
		SessionSeconds:   secs,
		Config:           cfg,
		Stats:            Stats{TaskIntervals: map[string]int{}},
	}
}

// Elapsed returns how much of the current interval has been used.
func (s State) Elapsed() int {
	return s.SessionSeconds - s.RemainingSeconds
}
