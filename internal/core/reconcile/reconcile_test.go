package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/example/eisen/internal/core/dates"
	"github.com/example/eisen/internal/models"
)

var (
	t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	t1 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
)

func opts(now time.Time) Options {
	return Options{Now: now, Dates: dates.NewNormalizer(time.UTC)}
}

func mustReconcile(t *testing.T, current models.Collection, raw string, o Options) Result {
	t.Helper()
	res, err := Reconcile(current, raw, o)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	return res
}

func dueOf(t *testing.T, c models.Collection, id string) *time.Time {
	t.Helper()
	task, ok := c[id]
	if !ok {
		t.Fatalf("task %q missing", id)
	}
	return task.Due
}

func TestReconcile_FlatShape(t *testing.T) {
	raw := `{"Write report": "5. 3. 2026 at 14:30", "Call mum": ""}`

	res := mustReconcile(t, models.Collection{}, raw, opts(t0))

	if res.Summary.Shape != ShapeFlat {
		t.Errorf("Shape = %v, want flat", res.Summary.Shape)
	}
	if res.Summary.Added != 2 || res.Summary.Updated != 0 || res.Summary.Total != 2 {
		t.Errorf("Summary = %+v", res.Summary)
	}

	report := res.Next["Write report"]
	if report.Title != "Write report" || report.ID != "Write report" {
		t.Errorf("unexpected identity %+v", report)
	}
	if report.Quadrant != models.QuadrantBacklog {
		t.Errorf("Quadrant = %s, want backlog", report.Quadrant)
	}
	if report.Done || report.CompletedAt != nil || report.TimeSpentSeconds != 0 {
		t.Errorf("new task should be open with no time: %+v", report)
	}
	if !report.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", report.CreatedAt, t0)
	}
	if !report.Imported {
		t.Error("imported task should carry provenance flag")
	}
	want := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	if d := report.Due; d == nil || !d.Equal(want) {
		t.Errorf("Due = %v, want %v", d, want)
	}
	if d := dueOf(t, res.Next, "Call mum"); d != nil {
		t.Errorf("empty due should be nil, got %v", d)
	}
}

func TestReconcile_IdempotentReimport(t *testing.T) {
	raw := `{"A": "1. 1. 2027 at 8:00", "B": "", "C": "2. 2. 2027"}`

	first := mustReconcile(t, models.Collection{}, raw, opts(t0))
	if first.Summary.Added != 3 || first.Summary.Updated != 0 {
		t.Fatalf("first import summary = %+v", first.Summary)
	}

	second := mustReconcile(t, first.Next, raw, opts(t1))
	if second.Summary.Added != 0 || second.Summary.Updated != 3 || second.Summary.Total != 3 {
		t.Fatalf("second import summary = %+v", second.Summary)
	}

	for id, before := range first.Next {
		after := second.Next[id]
		if after.Title != before.Title {
			t.Errorf("%s: title changed %q -> %q", id, before.Title, after.Title)
		}
		if (after.Due == nil) != (before.Due == nil) || (after.Due != nil && !after.Due.Equal(*before.Due)) {
			t.Errorf("%s: due changed %v -> %v", id, before.Due, after.Due)
		}
		if !after.CreatedAt.Equal(before.CreatedAt) {
			t.Errorf("%s: createdAt must be immutable", id)
		}
	}
}

func TestReconcile_PreservesLocalState(t *testing.T) {
	completed := t0.Add(-time.Hour)
	current := models.Collection{
		"Plan trip": {
			ID:               "Plan trip",
			Title:            "Plan trip",
			Quadrant:         models.QuadrantQ3,
			Done:             true,
			CompletedAt:      &completed,
			CreatedAt:        t0.Add(-48 * time.Hour),
			TimeSpentSeconds: 1500,
			Tag:              models.TagPersonal,
		},
	}

	res := mustReconcile(t, current, `{"Plan trip": "9. 11. 2026 at 10:00"}`, opts(t0))

	got := res.Next["Plan trip"]
	if got.Quadrant != models.QuadrantQ3 {
		t.Errorf("Quadrant = %s, want Q3", got.Quadrant)
	}
	if !got.Done || got.CompletedAt == nil || got.TimeSpentSeconds != 1500 || got.Tag != models.TagPersonal {
		t.Errorf("local state lost: %+v", got)
	}
	want := time.Date(2026, 11, 9, 10, 0, 0, 0, time.UTC)
	if got.Due == nil || !got.Due.Equal(want) {
		t.Errorf("Due = %v, want %v", got.Due, want)
	}
	if current["Plan trip"].Due != nil {
		t.Error("input collection was mutated")
	}
}

func TestReconcile_EmptyDueClearsExisting(t *testing.T) {
	due := t0.Add(24 * time.Hour)
	current := models.Collection{"A": {ID: "A", Title: "A", Due: &due, Quadrant: models.QuadrantQ1, CreatedAt: t0}}

	res := mustReconcile(t, current, `{"A": ""}`, opts(t0))

	if res.Next["A"].Due != nil {
		t.Errorf("Due = %v, want nil", res.Next["A"].Due)
	}
}

func TestReconcile_ResetQuadrants(t *testing.T) {
	current := models.Collection{
		"A":     {ID: "A", Title: "A", Quadrant: models.QuadrantQ1, CreatedAt: t0},
		"Other": {ID: "Other", Title: "Other", Quadrant: models.QuadrantQ4, Done: true, CreatedAt: t0, TimeSpentSeconds: 60},
	}
	o := opts(t1)
	o.ResetQuadrants = true

	res := mustReconcile(t, current, `{"A": "", "B": ""}`, o)

	for _, id := range []string{"A", "B", "Other"} {
		if q := res.Next[id].Quadrant; q != models.QuadrantBacklog {
			t.Errorf("%s quadrant = %s, want backlog", id, q)
		}
	}
	other := res.Next["Other"]
	if !other.Done || other.TimeSpentSeconds != 60 || other.Title != "Other" {
		t.Errorf("reset must not touch done/title/timing: %+v", other)
	}
	if res.Summary.Added != 1 || res.Summary.Updated != 1 {
		t.Errorf("Summary = %+v", res.Summary)
	}
}

func TestReconcile_GroupedShape(t *testing.T) {
	current := models.Collection{
		"Existing": {ID: "Existing", Title: "Existing", Quadrant: models.QuadrantQ4, CreatedAt: t0},
	}
	raw := `{"Q1": {"Fix prod": "17. 10. 2026 at 18:00"}, "Q2": {"Exercise": "", "Existing": ""}}`

	res := mustReconcile(t, current, raw, opts(t0))

	if res.Summary.Shape != ShapeGrouped {
		t.Fatalf("Shape = %v, want grouped", res.Summary.Shape)
	}
	if q := res.Next["Fix prod"].Quadrant; q != models.QuadrantQ1 {
		t.Errorf("Fix prod quadrant = %s, want Q1", q)
	}
	if q := res.Next["Exercise"].Quadrant; q != models.QuadrantQ2 {
		t.Errorf("Exercise quadrant = %s, want Q2", q)
	}
	if q := res.Next["Existing"].Quadrant; q != models.QuadrantQ4 {
		t.Errorf("existing task quadrant = %s, want Q4 (grouped shape only places new tasks)", q)
	}
	if res.Summary.Added != 2 || res.Summary.Updated != 1 {
		t.Errorf("Summary = %+v", res.Summary)
	}
}

func TestReconcile_GroupedShapeWithReset(t *testing.T) {
	current := models.Collection{
		"A": {ID: "A", Title: "A", Quadrant: models.QuadrantQ3, CreatedAt: t0},
	}
	o := opts(t1)
	o.ResetQuadrants = true

	res := mustReconcile(t, current, `{"Q1": {"A": "", "B": ""}}`, o)

	if q := res.Next["A"].Quadrant; q != models.QuadrantBacklog {
		t.Errorf("existing A quadrant = %s, want backlog (groups only place new tasks)", q)
	}
	if q := res.Next["B"].Quadrant; q != models.QuadrantQ1 {
		t.Errorf("new B quadrant = %s, want Q1", q)
	}
}

func TestReconcile_ExportShapePartialDescriptor(t *testing.T) {
	created := t0.Add(-72 * time.Hour)
	current := models.Collection{
		"t1": {ID: "t1", Title: "Original", Quadrant: models.QuadrantQ2, CreatedAt: created, TimeSpentSeconds: 30},
	}
	raw := `{"version": 2, "tasks": {
		"t1": {"done": true, "title": ""},
		"t2": {"title": "Fresh", "quadrant": "Q1", "timeSpentSeconds": 90.7, "tag": "work", "createdAt": "2026-01-01T00:00:00Z"}
	}}`

	res := mustReconcile(t, current, raw, opts(t0))

	if res.Summary.Shape != ShapeExport {
		t.Fatalf("Shape = %v, want export", res.Summary.Shape)
	}
	t1 := res.Next["t1"]
	if t1.Title != "Original" {
		t.Errorf("blank title must not overwrite: %q", t1.Title)
	}
	if t1.Quadrant != models.QuadrantQ2 || t1.TimeSpentSeconds != 30 || !t1.CreatedAt.Equal(created) {
		t.Errorf("absent fields must keep existing values: %+v", t1)
	}
	if !t1.Done || t1.CompletedAt == nil || !t1.CompletedAt.Equal(t0) {
		t.Errorf("done transition should stamp completedAt: %+v", t1)
	}

	t2 := res.Next["t2"]
	if t2.Title != "Fresh" || t2.Quadrant != models.QuadrantQ1 || t2.Tag != models.TagWork {
		t.Errorf("unexpected new task %+v", t2)
	}
	if t2.TimeSpentSeconds != 90 {
		t.Errorf("TimeSpentSeconds = %d, want 90", t2.TimeSpentSeconds)
	}
	if !t2.CreatedAt.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", t2.CreatedAt)
	}
}

func TestReconcile_ExportShapeUndoneClearsCompletedAt(t *testing.T) {
	completed := t0
	current := models.Collection{
		"t1": {ID: "t1", Title: "X", Quadrant: models.QuadrantQ1, Done: true, CompletedAt: &completed, CreatedAt: t0},
	}

	res := mustReconcile(t, current, `{"tasks": {"t1": {"done": false, "completedAt": "2026-10-01T00:00:00Z"}}}`, opts(t1))

	if res.Next["t1"].Done || res.Next["t1"].CompletedAt != nil {
		t.Errorf("completedAt must be nil when not done: %+v", res.Next["t1"])
	}
}

func TestReconcile_RoundTrip(t *testing.T) {
	flat := `{"Alpha": "3. 4. 2027 at 7:15", "Beta": "", "Gamma": "2027-05-06T10:00:00Z"}`
	imported := mustReconcile(t, models.Collection{}, flat, opts(t0)).Next

	// Local edits that an export must carry.
	var err error
	imported, _, err = MoveTask(imported, "Beta", models.QuadrantQ2)
	if err != nil {
		t.Fatal(err)
	}
	imported, _, err = SetDone(imported, "Gamma", true, t0.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	data, err := MarshalExport(imported, t1)
	if err != nil {
		t.Fatalf("MarshalExport failed: %v", err)
	}
	back := mustReconcile(t, models.Collection{}, string(data), opts(t1.Add(time.Hour))).Next

	if len(back) != len(imported) {
		t.Fatalf("len = %d, want %d", len(back), len(imported))
	}
	for id, want := range imported {
		got := back[id]
		if got.Title != want.Title || got.Quadrant != want.Quadrant || got.Done != want.Done || got.Imported != want.Imported {
			t.Errorf("%s: got %+v, want %+v", id, got, want)
		}
		if !sameTime(got.Due, want.Due) || !sameTime(got.CompletedAt, want.CompletedAt) {
			t.Errorf("%s: dates differ: got due=%v done=%v, want due=%v done=%v", id, got.Due, got.CompletedAt, want.Due, want.CompletedAt)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("%s: createdAt %v, want %v", id, got.CreatedAt, want.CreatedAt)
		}
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func TestReconcile_TrailingCommaTolerance(t *testing.T) {
	raw := `{"tasks":{"x":{"title":"Hello, ] world","quadrant":"Q1","due":"...",},},}`

	res := mustReconcile(t, models.Collection{}, raw, opts(t0))

	x := res.Next["x"]
	if x.Title != "Hello, ] world" {
		t.Errorf("Title = %q, want literal string preserved", x.Title)
	}
	if x.Quadrant != models.QuadrantQ1 {
		t.Errorf("Quadrant = %s", x.Quadrant)
	}
	if x.Due != nil {
		t.Errorf("unparsable due should be nil, got %v", x.Due)
	}
}

func TestReconcile_EmptyPayloads(t *testing.T) {
	for _, raw := range []string{`{}`, `{"tasks": {}}`, ` { } `} {
		res := mustReconcile(t, models.Collection{"keep": {ID: "keep", Title: "keep"}}, raw, opts(t0))
		if res.Summary.Total != 0 {
			t.Errorf("%s: Total = %d, want 0", raw, res.Summary.Total)
		}
		if len(res.Next) != 1 {
			t.Errorf("%s: collection changed", raw)
		}
	}
}

func TestReconcile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(error) bool
	}{
		{
			name:  "malformed json",
			raw:   `{"A": `,
			check: func(err error) bool { var e *ParseError; return errors.As(err, &e) },
		},
		{
			name:  "not json at all",
			raw:   `Buy milk`,
			check: func(err error) bool { var e *ParseError; return errors.As(err, &e) },
		},
		{
			name:  "array",
			raw:   `["A", "B"]`,
			check: func(err error) bool { var e *ShapeError; return errors.As(err, &e) && e.Got == "array" },
		},
		{
			name:  "primitive",
			raw:   `42`,
			check: func(err error) bool { var e *ShapeError; return errors.As(err, &e) && e.Got == "number" },
		},
		{
			name:  "null",
			raw:   `null`,
			check: func(err error) bool { var e *ShapeError; return errors.As(err, &e) },
		},
		{
			name:  "flat with non-string value",
			raw:   `{"A": 5}`,
			check: func(err error) bool { var e *ValidationError; return errors.As(err, &e) && e.Key == "A" },
		},
		{
			name:  "mixed quadrant keys fall through to flat and fail",
			raw:   `{"Q1": {"A": ""}, "notes": "x"}`,
			check: func(err error) bool { var e *ValidationError; return errors.As(err, &e) && e.Key == "Q1" },
		},
		{
			name:  "blank flat title",
			raw:   `{"  ": ""}`,
			check: func(err error) bool { var e *ValidationError; return errors.As(err, &e) },
		},
		{
			name:  "export descriptor with wrong type",
			raw:   `{"tasks": {"t1": {"done": "yes"}}}`,
			check: func(err error) bool { var e *ValidationError; return errors.As(err, &e) && e.Key == "t1" },
		},
		{
			name:  "export descriptor with negative time",
			raw:   `{"tasks": {"t1": {"timeSpentSeconds": -5}}}`,
			check: func(err error) bool { var e *ValidationError; return errors.As(err, &e) },
		},
		{
			name:  "export descriptor with time past int64",
			raw:   `{"tasks": {"t1": {"timeSpentSeconds": 9223372036854775808}}}`,
			check: func(err error) bool { var e *ValidationError; return errors.As(err, &e) },
		},
		{
			name:  "export descriptor with unknown quadrant",
			raw:   `{"tasks": {"t1": {"quadrant": "Q9"}}}`,
			check: func(err error) bool { var e *ValidationError; return errors.As(err, &e) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := models.Collection{"keep": {ID: "keep", Title: "keep"}}
			res, err := Reconcile(current, tt.raw, opts(t0))
			if err == nil {
				t.Fatalf("expected error, got summary %+v", res.Summary)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
			if res.Next != nil {
				t.Error("failed import must not return a partial collection")
			}
			if len(current) != 1 {
				t.Error("failed import mutated input")
			}
		})
	}
}

func TestReconcile_DuplicateTitlesMergeIntoOneRecord(t *testing.T) {
	first := mustReconcile(t, models.Collection{}, `{"Standup": ""}`, opts(t0))
	second := mustReconcile(t, first.Next, `{"Standup": "1. 1. 2027"}`, opts(t1))

	if len(second.Next) != 1 {
		t.Errorf("same title must resolve to the same record, got %d records", len(second.Next))
	}
}
