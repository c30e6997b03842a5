// Package dates normalizes the loose human date format used in hand-written
// imports ("D. M. YYYY at H:MM") and the ISO forms used in exports.
// This is part of the Functional Core - no I/O, only pure functions.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var looseRe = regexp.MustCompile(`(?i)^(\d{1,2})\.\s*(\d{1,2})\.\s*(\d{4})(?:\s+at\s+(\d{1,2}):(\d{2}))?$`)

// ISO layouts accepted by Parse, tried in order.
// The first two carry an offset; the rest are read in the normalizer's location.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Normalizer parses and formats task due dates.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a normalizer that interprets zone-less input in loc.
// A nil loc means time.Local.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

// Location returns the zone used for zone-less input and formatting.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Parse reads s in either the loose or an ISO form and returns the instant in UTC.
// It reports false for empty or unrecognized input.
func (n *Normalizer) Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := looseRe.FindStringSubmatch(s); m != nil {
		return n.parseLoose(m)
	}

	for i, layout := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if i < 2 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, n.loc)
		}
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseNullable is Parse for optional fields: unparsable input yields nil.
func (n *Normalizer) ParseNullable(s string) *time.Time {
	t, ok := n.Parse(s)
	if !ok {
		return nil
	}
	return &t
}

func (n *Normalizer) parseLoose(m []string) (time.Time, bool) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, minute := 0, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
	}
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, n.loc)
	// time.Date normalizes overflow (31. 2. becomes 3. 3.); reject it instead.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// Format renders t in the loose form, in the normalizer's location.
func (n *Normalizer) Format(t time.Time) string {
	lt := t.In(n.loc)
	return fmt.Sprintf("%d. %d. %d at %d:%02d", lt.Day(), int(lt.Month()), lt.Year(), lt.Hour(), lt.Minute())
}

// FormatNullable renders an optional date, or "" when absent.
func (n *Normalizer) FormatNullable(t *time.Time) string {
	if t == nil {
		return ""
	}
	return n.Format(*t)
}

// ISO renders t as the storable RFC 3339 form.
func ISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
