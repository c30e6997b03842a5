package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/eisen/internal/models"
)

// parseQuadrant accepts q1..q4 and backlog in any case.
func parseQuadrant(s string) (models.Quadrant, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(models.QuadrantBacklog)) {
		return models.QuadrantBacklog, nil
	}
	q := models.Quadrant(strings.ToUpper(s))
	if !q.Valid() {
		return "", fmt.Errorf("unknown quadrant %q (use Q1, Q2, Q3, Q4 or backlog)", s)
	}
	return q, nil
}

// parseTag accepts a known tag, or "none" to clear.
func parseTag(s string) (models.Tag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" {
		return models.TagNone, nil
	}
	t := models.Tag(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tag %q (use work, personal, health, learning or none)", s)
	}
	return t, nil
}

// parseSpent reads a whole number of seconds or a Go duration like 25m.
func parseSpent(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("time spent cannot be negative: %s", s)
		}
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (use seconds or e.g. 25m, 1h30m)", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("time spent cannot be negative: %s", s)
	}
	return int64(d / time.Second), nil
}
