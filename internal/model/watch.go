package model

// WatchItem is one monitored instrument from the watch-list config.
type WatchItem struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"` // "stock" or "index"
}

// DisplayName returns "name(code)", falling back to the bare code.
func (w WatchItem) DisplayName() string {
	if w.Name == "" {
		return w.Code
	}
	return w.Name + "(" + w.Code + ")"
}
