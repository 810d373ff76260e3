package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"FractalSentinel/internal/collector"
)

// HHMM is a minute-resolution time of day.
type HHMM struct {
	Hour   int
	Minute int
}

// ParseHHMM parses a "15:04" style clock string.
func ParseHHMM(s string) (HHMM, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return HHMM{}, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return HHMM{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return HHMM{}, fmt.Errorf("invalid minute in %q", s)
	}
	return HHMM{Hour: h, Minute: m}, nil
}

func (h HHMM) minutes() int { return h.Hour*60 + h.Minute }

// SessionWindow is a daily trading window in the Chinese market timezone,
// active Monday through Friday.
type SessionWindow struct {
	Open  HHMM
	Close HHMM
}

// DefaultSession covers the A-share continuous trading day including the
// lunch break.
func DefaultSession() SessionWindow {
	return SessionWindow{Open: HHMM{9, 30}, Close: HHMM{15, 0}}
}

// Contains reports whether t falls inside the window on a weekday,
// boundaries inclusive.
func (w SessionWindow) Contains(t time.Time) bool {
	local := t.In(collector.CST)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	mins := local.Hour()*60 + local.Minute()
	return mins >= w.Open.minutes() && mins <= w.Close.minutes()
}
