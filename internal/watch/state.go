package watch

import (
	"encoding/json"
	"os"
	"time"
)

// State records the last alerted signal date per instrument and kind, so
// repeated detections of the same fractal stay suppressed across polling
// cycles and process restarts.
type State struct {
	LastBottom map[string]time.Time `json:"last_bottom"`
	LastTop    map[string]time.Time `json:"last_top"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

func newState() *State {
	return &State{
		LastBottom: make(map[string]time.Time),
		LastTop:    make(map[string]time.Time),
	}
}

// LoadState reads the watch state from a JSON file. Returns a fresh state
// if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return newState(), nil
		}
		return nil, err
	}
	state := newState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.LastBottom == nil {
		state.LastBottom = make(map[string]time.Time)
	}
	if state.LastTop == nil {
		state.LastTop = make(map[string]time.Time)
	}
	return state, nil
}

// SaveState writes the watch state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
