package attr

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Timespan is a half-open window of a service day in seconds since midnight.
// Hours may exceed 24: "25:30" means 01:30 the next morning and is NOT wrapped,
// matching GTFS service-day semantics.
type Timespan struct {
	Start int
	End   int
}

// ParseClock parses "H:MM" or "H:MM:SS" into seconds since midnight.
// Values without seconds get ":00" appended.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 2 {
		parts = append(parts, "00")
	}
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock time %q: expected H:MM or H:MM:SS", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid hour in clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in clock time %q", s)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid second in clock time %q", s)
	}
	return h*3600 + m*60 + sec, nil
}

// ParseTimespan parses a ["H:MM","H:MM"] pair into a Timespan.
func ParseTimespan(start, end string) (Timespan, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Timespan{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Timespan{}, err
	}
	if e <= s {
		return Timespan{}, fmt.Errorf("timespan end %q is not after start %q", end, start)
	}
	return Timespan{Start: s, End: e}, nil
}

// Contains reports whether o lies fully within t.
func (t Timespan) Contains(o Timespan) bool {
	return t.Start <= o.Start && o.End <= t.End
}

// Overlap returns the number of seconds t and o share, zero if disjoint.
func (t Timespan) Overlap(o Timespan) int {
	start := t.Start
	if o.Start > start {
		start = o.Start
	}
	end := t.End
	if o.End < end {
		end = o.End
	}
	if end <= start {
		return 0
	}
	return end - start
}

// Duration returns the span length in seconds.
func (t Timespan) Duration() int { return t.End - t.Start }

func clockString(sec int) string {
	return fmt.Sprintf("%02d:%02d", sec/3600, (sec%3600)/60)
}

func (t Timespan) String() string {
	return clockString(t.Start) + "-" + clockString(t.End)
}

// UnmarshalYAML accepts the project-card form ["6:00", "9:00"].
func (t *Timespan) UnmarshalYAML(node *yaml.Node) error {
	var pair []string
	if err := node.Decode(&pair); err != nil {
		return fmt.Errorf("timespan must be a [start, end] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("timespan must have exactly two entries, got %d", len(pair))
	}
	ts, err := ParseTimespan(pair[0], pair[1])
	if err != nil {
		return err
	}
	*t = ts
	return nil
}

// MarshalYAML writes the ["HH:MM", "HH:MM"] form back out.
func (t Timespan) MarshalYAML() (interface{}, error) {
	return []string{clockString(t.Start), clockString(t.End)}, nil
}
