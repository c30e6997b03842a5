package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/eisen/internal/core/dates"
	"github.com/example/eisen/internal/models"
)

// ExportVersion is the version stamped on export payloads.
const ExportVersion = 2

// ExportPayload is the round-trippable export document. It is re-importable
// through the export shape without loss.
type ExportPayload struct {
	Version    int                     `json:"version"`
	ExportedAt time.Time               `json:"exportedAt"`
	Tasks      map[string]TaskSnapshot `json:"tasks"`
}

// TaskSnapshot is a task record without its id (the id is the map key).
type TaskSnapshot struct {
	Title            string          `json:"title"`
	Due              *time.Time      `json:"due"`
	Quadrant         models.Quadrant `json:"quadrant"`
	Done             bool            `json:"done"`
	CreatedAt        time.Time       `json:"createdAt"`
	CompletedAt      *time.Time      `json:"completedAt"`
	TimeSpentSeconds int64           `json:"timeSpentSeconds"`
	Tag              models.Tag      `json:"tag"`
	Imported         bool            `json:"imported"`
}

// BuildExport snapshots the collection.
func BuildExport(c models.Collection, now time.Time) ExportPayload {
	tasks := make(map[string]TaskSnapshot, len(c))
	for id, t := range c {
		tasks[id] = TaskSnapshot{
			Title:            t.Title,
			Due:              t.Due,
			Quadrant:         t.Quadrant,
			Done:             t.Done,
			CreatedAt:        t.CreatedAt,
			CompletedAt:      t.CompletedAt,
			TimeSpentSeconds: t.TimeSpentSeconds,
			Tag:              t.Tag,
			Imported:         t.Imported,
		}
	}
	return ExportPayload{
		Version:    ExportVersion,
		ExportedAt: now.UTC(),
		Tasks:      tasks,
	}
}

// MarshalExport renders the export payload as indented JSON.
func MarshalExport(c models.Collection, now time.Time) ([]byte, error) {
	data, err := json.MarshalIndent(BuildExport(c, now), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

// RenderMarkdown renders the collection as a checklist grouped by quadrant.
// Empty quadrants are omitted.
func RenderMarkdown(c models.Collection, n *dates.Normalizer) string {
	var b strings.Builder
	b.WriteString("# Tasks\n")
	for _, q := range models.Quadrants {
		tasks := c.InQuadrant(q)
		if len(tasks) == 0 {
			continue
		}
		if q == models.QuadrantBacklog {
			fmt.Fprintf(&b, "\n## Backlog\n\n")
		} else {
			fmt.Fprintf(&b, "\n## %s: %s\n\n", q, q.Label())
		}
		for _, t := range tasks {
			box := " "
			if t.Done {
				box = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s", box, t.Title)
			if t.Due != nil {
				fmt.Fprintf(&b, " (due %s)", n.Format(*t.Due))
			}
			if t.Tag != models.TagNone {
				fmt.Fprintf(&b, " #%s", t.Tag)
			}
			if t.TimeSpentSeconds > 0 {
				fmt.Fprintf(&b, " [%s]", (time.Duration(t.TimeSpentSeconds) * time.Second).String())
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
