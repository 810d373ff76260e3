// Package watch tracks per-instrument signal de-duplication state for the
// live monitor.
package watch

import (
	"log"
	"sync"
	"time"

	"FractalSentinel/internal/model"
)

// Manager guards the de-duplication state with concurrency safety. An empty
// file path keeps the state in memory only.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewManager creates a Manager, loading persisted state when filePath is
// non-empty.
func NewManager(filePath string) (*Manager, error) {
	if filePath == "" {
		return &Manager{state: newState()}, nil
	}
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	return &Manager{state: state, filePath: filePath}, nil
}

// ShouldNotify decides whether a detected pattern event warrants an outward
// alert. The stored date is always advanced to the event date, but an alert
// is emitted only when the date is new AND the event is at most recencyDays
// old relative to now, suppressing stale repeats after restarts or slow
// cycles.
func (m *Manager) ShouldNotify(code string, kind model.PatternKind, eventDate, now time.Time, recencyDays int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	last := m.state.LastBottom
	if kind == model.PatternTop {
		last = m.state.LastTop
	}
	if prev, ok := last[code]; ok && prev.Equal(eventDate) {
		return false
	}
	last[code] = eventDate
	m.save()

	age := dayOf(now).Sub(dayOf(eventDate))
	return age <= time.Duration(recencyDays)*24*time.Hour
}

// LastSignal returns the stored signal date for an instrument and kind.
func (m *Manager) LastSignal(code string, kind model.PatternKind) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind == model.PatternTop {
		t, ok := m.state.LastTop[code]
		return t, ok
	}
	t, ok := m.state.LastBottom[code]
	return t, ok
}

func (m *Manager) save() {
	if m.filePath == "" {
		return
	}
	if err := SaveState(m.filePath, m.state); err != nil {
		log.Printf("[ERROR] failed to save watch state: %v", err)
	}
}

// dayOf truncates to midnight in the timestamp's own location, so the
// recency window counts calendar days.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
