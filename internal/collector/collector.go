// Package collector retrieves daily OHLCV bars from a market data provider
// and normalizes them for analysis.
package collector

import (
	"fmt"
	"sort"
	"time"

	"FractalSentinel/internal/model"
)

// Collector wraps a Fetcher and enforces the strictly-ascending date
// contract the detector and simulator depend on.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Collect fetches the daily bars for a code over [start, end], sorted
// ascending by date with duplicate dates dropped.
func (c *Collector) Collect(code string, start, end time.Time) ([]model.Bar, error) {
	bars, err := c.Fetcher.FetchDailyBars(code, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for i, b := range bars {
		if i > 0 && !b.Date.After(out[len(out)-1].Date) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars map[string][]model.Bar // per code; nil entries fall back to generated data
	Err  error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(code string, start, end time.Time) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[code]; ok {
		return bars, nil
	}
	return GenerateBars(100, start, int(end.Sub(start).Hours()/24)), nil
}

// GenerateBars produces a synthetic ascending bar sequence for development.
func GenerateBars(basePrice float64, start time.Time, count int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
