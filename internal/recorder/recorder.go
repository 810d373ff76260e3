package recorder

import (
	"time"

	"FractalSentinel/internal/model"
)

// SignalEvent records a confirmed fractal signal for an instrument.
type SignalEvent struct {
	Code     string
	Name     string
	Event    model.PatternEvent
	Notified bool
}

// BacktestSummary records the aggregate result of one backtest run.
type BacktestSummary struct {
	Code           string
	Start          time.Time
	End            time.Time
	TotalTrades    int
	WinRate        float64
	AvgProfitPct   float64
	TotalProfitPct float64
	MaxProfitPct   float64
	MaxLossPct     float64
	AvgHoldDays    float64
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSignal(evt *SignalEvent) error
	RecordTrade(code string, trade model.TradeRecord) error
	RecordBacktest(summary *BacktestSummary) error
	Close() error
}
