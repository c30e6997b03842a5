// Package reconcile merges loosely structured JSON imports into the canonical
// task collection, and provides the collection's update operations.
// This is part of the Functional Core - no I/O, only pure functions.
package reconcile

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/example/eisen/internal/core/dates"
	"github.com/example/eisen/internal/models"
)

// Options controls a reconciliation pass.
type Options struct {
	// ResetQuadrants moves every existing task to the backlog before the
	// payload is layered on. Titles, completion and timing are untouched.
	ResetQuadrants bool

	// Now stamps createdAt/completedAt on records synthesized by this pass.
	Now time.Time

	// Dates parses due strings. Nil means a UTC normalizer.
	Dates *dates.Normalizer
}

// Summary counts per-identity outcomes of a reconciliation.
type Summary struct {
	Shape   Shape
	Added   int
	Updated int
	Total   int
}

// Result is the outcome of a successful reconciliation.
type Result struct {
	Next    models.Collection
	Summary Summary
}

// Reconcile parses raw import text and merges it into current.
// current is never modified; on error no partial result is returned.
func Reconcile(current models.Collection, raw string, opts Options) (Result, error) {
	tree, err := Decode(raw)
	if err != nil {
		return Result{}, err
	}
	payload, err := Classify(tree)
	if err != nil {
		return Result{}, err
	}
	return Apply(current, payload, opts)
}

// Apply merges an already classified payload into current.
func Apply(current models.Collection, payload Payload, opts Options) (Result, error) {
	if opts.Dates == nil {
		opts.Dates = dates.NewNormalizer(time.UTC)
	}
	m := &merger{
		next: current.Clone(),
		opts: opts,
		seen: make(map[string]bool),
	}
	m.summary.Shape = payload.Shape

	if opts.ResetQuadrants {
		for id, t := range m.next {
			t.Quadrant = models.QuadrantBacklog
			m.next[id] = t
		}
	}

	switch payload.Shape {
	case ShapeExport:
		for _, id := range sortedKeys(payload.Descriptors) {
			if err := m.applyDescriptor(id, payload.Descriptors[id]); err != nil {
				return Result{}, err
			}
		}
	case ShapeGrouped:
		for _, q := range models.Quadrants {
			group := payload.Groups[q]
			for _, title := range sortedKeys(group) {
				if err := m.upsertTitle(title, group[title], q); err != nil {
					return Result{}, err
				}
			}
		}
	default:
		for _, title := range sortedKeys(payload.Entries) {
			if err := m.upsertTitle(title, payload.Entries[title], models.QuadrantBacklog); err != nil {
				return Result{}, err
			}
		}
	}

	m.summary.Total = m.summary.Added + m.summary.Updated
	return Result{Next: m.next, Summary: m.summary}, nil
}

type merger struct {
	next    models.Collection
	opts    Options
	summary Summary
	seen    map[string]bool
}

func (m *merger) count(id string, added bool) {
	if m.seen[id] {
		return
	}
	m.seen[id] = true
	if added {
		m.summary.Added++
	} else {
		m.summary.Updated++
	}
}

// upsertTitle handles the flat and grouped shapes, where the key is both the
// identity and the title. Quadrant only applies to newly created records.
func (m *merger) upsertTitle(title, due string, q models.Quadrant) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Key: title, Reason: "title cannot be empty"}
	}
	dueAt := m.opts.Dates.ParseNullable(due)

	if t, ok := m.next[title]; ok {
		t.Title = title
		t.Due = dueAt
		m.next[title] = t
		m.count(title, false)
		return nil
	}

	m.next[title] = models.Task{
		ID:        title,
		Title:     title,
		Due:       dueAt,
		Quadrant:  q,
		CreatedAt: m.opts.Now,
		Imported:  true,
	}
	m.count(title, true)
	return nil
}

// applyDescriptor handles the export shape. Only fields present in d are
// applied; absent fields keep the existing value or the default.
func (m *merger) applyDescriptor(id string, d map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Key: id, Reason: "task id cannot be empty"}
	}

	t, exists := m.next[id]
	if !exists {
		t = models.Task{
			ID:        id,
			Quadrant:  models.QuadrantBacklog,
			CreatedAt: m.opts.Now,
			Imported:  true,
		}
	}

	if v, ok := d["title"]; ok {
		if s, _ := v.(string); strings.TrimSpace(s) != "" {
			t.Title = s
		}
	}
	if t.Title == "" {
		t.Title = id
	}

	if v, ok := d["due"]; ok {
		s, _ := v.(string)
		t.Due = m.opts.Dates.ParseNullable(s)
	}

	if v, ok := d["quadrant"]; ok {
		t.Quadrant = models.Quadrant(v.(string))
	}

	if v, ok := d["tag"]; ok {
		s, _ := v.(string)
		t.Tag = models.Tag(s)
	}

	if v, ok := d["imported"]; ok {
		t.Imported = v.(bool)
	}

	if v, ok := d["createdAt"]; ok && !exists {
		if s, _ := v.(string); s != "" {
			if at, ok := m.opts.Dates.Parse(s); ok {
				t.CreatedAt = at
			}
		}
	}

	wasDone := t.Done
	if v, ok := d["done"]; ok {
		t.Done = v.(bool)
	}
	if v, ok := d["completedAt"]; ok {
		s, _ := v.(string)
		t.CompletedAt = m.opts.Dates.ParseNullable(s)
	} else if t.Done && !wasDone {
		now := m.opts.Now
		t.CompletedAt = &now
	}
	if !t.Done {
		t.CompletedAt = nil
	}

	if v, ok := d["timeSpentSeconds"]; ok {
		secs, err := wholeSeconds(v)
		if err != nil {
			return &ValidationError{Key: id, Reason: err.Error()}
		}
		t.TimeSpentSeconds = secs
	}

	m.next[id] = t
	m.count(id, !exists)
	return nil
}

func wholeSeconds(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, errors.New("timeSpentSeconds must be a number")
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return 0, errors.New("timeSpentSeconds must be a finite non-negative number")
	}
	return int64(math.Floor(f)), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
