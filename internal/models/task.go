// Package models contains the domain types shared by the reconciler, the
// focus timer, and the persistence adapters.
package models

import (
	"sort"
	"time"
)

// Quadrant is a placement bucket on the Eisenhower board.
type Quadrant string

// Quadrant constants
const (
	QuadrantBacklog Quadrant = "backlog"
	QuadrantQ1      Quadrant = "Q1" // urgent, important
	QuadrantQ2      Quadrant = "Q2" // not urgent, important
	QuadrantQ3      Quadrant = "Q3" // urgent, not important
	QuadrantQ4      Quadrant = "Q4" // neither
)

// Quadrants lists every quadrant in board order.
var Quadrants = []Quadrant{QuadrantQ1, QuadrantQ2, QuadrantQ3, QuadrantQ4, QuadrantBacklog}

// Valid reports whether q is one of the five known quadrants.
func (q Quadrant) Valid() bool {
	switch q {
	case QuadrantBacklog, QuadrantQ1, QuadrantQ2, QuadrantQ3, QuadrantQ4:
		return true
	}
	return false
}

// Label returns the human-facing name of the quadrant.
func (q Quadrant) Label() string {
	switch q {
	case QuadrantQ1:
		return "Do first"
	case QuadrantQ2:
		return "Schedule"
	case QuadrantQ3:
		return "Delegate"
	case QuadrantQ4:
		return "Eliminate"
	}
	return "Backlog"
}

// Tag is optional task metadata from a small closed set.
type Tag string

// Tag constants. The empty tag means "untagged".
const (
	TagNone     Tag = ""
	TagWork     Tag = "work"
	TagPersonal Tag = "personal"
	TagHealth   Tag = "health"
	TagLearning Tag = "learning"
)

// Tags lists the assignable tags.
var Tags = []Tag{TagWork, TagPersonal, TagHealth, TagLearning}

// Valid reports whether t is a known tag or untagged.
func (t Tag) Valid() bool {
	switch t {
	case TagNone, TagWork, TagPersonal, TagHealth, TagLearning:
		return true
	}
	return false
}

// Task is the canonical task record.
// Nil Due means no deadline; nil CompletedAt means not completed.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Due              *time.Time `json:"due"`
	Quadrant         Quadrant   `json:"quadrant"`
	Done             bool       `json:"done"`
	CreatedAt        time.Time  `json:"createdAt"`
	CompletedAt      *time.Time `json:"completedAt"`
	TimeSpentSeconds int64      `json:"timeSpentSeconds"`
	Tag              Tag        `json:"tag,omitempty"`
	Imported         bool       `json:"imported"`
}

// Collection is the in-memory task set keyed by task ID.
type Collection map[string]Task

// Clone returns a copy of the collection. Task values are copied; the
// time pointers they hold are treated as immutable and shared.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for id, t := range c {
		out[id] = t
	}
	return out
}

// Sorted returns the tasks ordered by creation time, then ID.
func (c Collection) Sorted() []Task {
	out := make([]Task, 0, len(c))
	for _, t := range c {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// InQuadrant returns the tasks placed in q, ordered as Sorted.
func (c Collection) InQuadrant(q Quadrant) []Task {
	var out []Task
	for _, t := range c.Sorted() {
		if t.Quadrant == q {
			out = append(out, t)
		}
	}
	return out
}
