package collector

import (
	"time"

	"FractalSentinel/internal/model"
)

// Fetcher defines the interface for fetching daily market data. The core
// only requires that the returned bars are complete OHLCV rows; the
// Collector guarantees ascending date order.
type Fetcher interface {
	FetchDailyBars(code string, start, end time.Time) ([]model.Bar, error)
	Name() string
}
