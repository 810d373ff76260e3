package monitor

import (
	"testing"
	"time"

	"FractalSentinel/internal/collector"
)

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, collector.CST)
}

func TestParseHHMM(t *testing.T) {
	tests := []struct {
		in      string
		want    HHMM
		wantErr bool
	}{
		{"09:30", HHMM{9, 30}, false},
		{"15:00", HHMM{15, 0}, false},
		{"00:00", HHMM{0, 0}, false},
		{"23:59", HHMM{23, 59}, false},
		{"24:00", HHMM{}, true},
		{"12:60", HHMM{}, true},
		{"0930", HHMM{}, true},
		{"", HHMM{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHHMM(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHHMM(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHHMM(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHHMM(%q): expected %+v, got %+v", tt.in, tt.want, got)
		}
	}
}

func TestSessionWindow_Contains(t *testing.T) {
	w := DefaultSession()
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"weekday mid-session", at(2024, 6, 12, 11, 0), true},
		{"open boundary", at(2024, 6, 12, 9, 30), true},
		{"close boundary", at(2024, 6, 12, 15, 0), true},
		{"before open", at(2024, 6, 12, 9, 29), false},
		{"after close", at(2024, 6, 12, 15, 1), false},
		{"saturday", at(2024, 6, 15, 11, 0), false},
		{"sunday", at(2024, 6, 16, 11, 0), false},
	}
	for _, tt := range tests {
		if got := w.Contains(tt.t); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestSessionWindow_ConvertsToMarketTimezone(t *testing.T) {
	w := DefaultSession()
	// 02:00 UTC on a Wednesday is 10:00 in the market timezone.
	utc := time.Date(2024, 6, 12, 2, 0, 0, 0, time.UTC)
	if !w.Contains(utc) {
		t.Error("UTC timestamps should be evaluated in the market timezone")
	}
}
