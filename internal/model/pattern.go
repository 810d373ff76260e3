package model

import "time"

// PatternKind distinguishes bottom and top fractals.
type PatternKind string

const (
	PatternBottom PatternKind = "BOTTOM"
	PatternTop    PatternKind = "TOP"
)

// PatternEvent is a confirmed 3-bar fractal with its confirmation score.
// Price is the close of the middle (pattern) bar; Extreme is its low for
// bottoms and its high for tops.
type PatternEvent struct {
	Date    time.Time
	Kind    PatternKind
	Price   float64
	Extreme float64
	Volume  float64
	Score   float64
	Reasons []string
}
