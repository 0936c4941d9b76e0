// Package schedule parses the five-field cron subset used for feed polling.
// Each field accepts "*", "*/N", a number, or a comma list of numbers. Day of
// month and weekday must both match.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var bounds = [5]struct {
	name     string
	min, max int
}{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day", 1, 31},
	{"month", 1, 12},
	{"weekday", 0, 6},
}

// horizon caps how far ahead Next searches.
const horizon = 366 * 24 * time.Hour

type Schedule struct {
	expr   string
	fields [5]string
}

func Parse(expr string) (Schedule, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return Schedule{}, fmt.Errorf("cron %q: expected 5 fields (minute hour day month weekday), got %d", expr, len(parts))
	}
	s := Schedule{expr: strings.Join(parts, " ")}
	for i, p := range parts {
		if err := checkField(p, bounds[i].min, bounds[i].max); err != nil {
			return Schedule{}, fmt.Errorf("cron %q: %s: %w", expr, bounds[i].name, err)
		}
		s.fields[i] = p
	}
	return s, nil
}

func (s Schedule) String() string {
	return s.expr
}

// Next returns the first minute strictly after from that matches, or false
// when nothing matches within a year.
func (s Schedule) Next(from time.Time) (time.Time, bool) {
	t := from.Truncate(time.Minute).Add(time.Minute)
	limit := from.Add(horizon)

	for t.Before(limit) {
		if !matches(s.fields[3], int(t.Month())) ||
			!matches(s.fields[2], t.Day()) ||
			!matches(s.fields[4], int(t.Weekday())) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
			continue
		}
		if !matches(s.fields[1], t.Hour()) {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
			continue
		}
		if matches(s.fields[0], t.Minute()) {
			return t, true
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}, false
}

func checkField(pattern string, min, max int) error {
	if pattern == "*" {
		return nil
	}
	if step, ok := strings.CutPrefix(pattern, "*/"); ok {
		n, err := strconv.Atoi(step)
		if err != nil || n <= 0 {
			return fmt.Errorf("bad step %q", pattern)
		}
		return nil
	}
	for _, part := range strings.Split(pattern, ",") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("bad value %q", part)
		}
		if n < min || n > max {
			return fmt.Errorf("%d outside %d-%d", n, min, max)
		}
	}
	return nil
}

func matches(pattern string, value int) bool {
	if pattern == "*" {
		return true
	}
	if step, ok := strings.CutPrefix(pattern, "*/"); ok {
		n, _ := strconv.Atoi(step)
		return n > 0 && value%n == 0
	}
	for _, part := range strings.Split(pattern, ",") {
		if n, err := strconv.Atoi(part); err == nil && n == value {
			return true
		}
	}
	return false
}
