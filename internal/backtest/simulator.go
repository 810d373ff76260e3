// Package backtest simulates pattern-driven trade execution over a daily
// bar series without lookahead. Pattern signals fill at the next bar's open;
// risk exits (fixed stop, trailing stop, max hold) fill at the current bar's
// close, the same bar that triggers them.
package backtest

import (
	"errors"
	"time"

	"FractalSentinel/internal/indicator"
	"FractalSentinel/internal/model"
	"FractalSentinel/internal/pattern"
)

// ErrInsufficientData is returned when the bar series is too short to
// evaluate a single fractal.
var ErrInsufficientData = errors.New("insufficient data")

// Exit reasons recorded on closed trades.
const (
	ExitTopPattern   = "顶分型"
	ExitStopLoss     = "止损"
	ExitTrailingStop = "跟踪止损"
	ExitMaxHold      = "最大持仓"
	ExitEndOfData    = "回测结束"
)

// Config holds the simulation parameters. Zero or negative values disable
// the corresponding risk exit.
type Config struct {
	StopLossPct     float64 // fixed stop, percent below entry (5 = 5%)
	TrailingStopPct float64 // trailing stop, drawdown ratio from peak (0.05 = 5%)
	MaxHoldDays     int     // calendar-day cap on a position
	ScoreThreshold  float64
	Indicators      indicator.Params
}

// DefaultConfig mirrors the standard strategy parameters: 5% fixed stop,
// 5% trailing stop, no hold cap.
func DefaultConfig() Config {
	return Config{
		StopLossPct:     5,
		TrailingStopPct: 0.05,
		MaxHoldDays:     0,
		ScoreThreshold:  pattern.DefaultThreshold,
		Indicators:      indicator.DefaultParams(),
	}
}

// Simulator runs the position state machine over a bar series.
type Simulator struct {
	cfg      Config
	detector *pattern.Detector
}

// New creates a Simulator for the given config.
func New(cfg Config) *Simulator {
	return &Simulator{cfg: cfg, detector: pattern.New(cfg.ScoreThreshold)}
}

// position is the mutable per-run simulation state.
type position struct {
	status       model.PositionStatus
	entryPrice   float64
	entryDate    model.Bar
	entryReasons []string
	highest      float64

	pendingEntryReasons []string
}

// Run executes the simulation over the bars, which must be strictly
// ascending by date (caller contract). Returns ErrInsufficientData when
// fewer than three bars are supplied.
func (s *Simulator) Run(bars []model.Bar) (*Report, error) {
	if len(bars) < 3 {
		return nil, ErrInsufficientData
	}

	var trades []model.TradeRecord
	pos := position{status: model.StatusFlat}

	closeTrade := func(bar model.Bar, price float64, reason string) {
		trades = append(trades, newTrade(pos.entryDate.Date, pos.entryPrice, pos.entryReasons, bar.Date, price, reason))
		pos = position{status: model.StatusFlat}
	}

	for i := 2; i < len(bars); i++ {
		bar := bars[i]

		// 1. Fill a pending entry at this bar's open.
		if pos.status == model.StatusPendingEntry {
			pos.status = model.StatusHolding
			pos.entryPrice = bar.Open
			pos.entryDate = bar
			pos.entryReasons = pos.pendingEntryReasons
			pos.pendingEntryReasons = nil
			pos.highest = bar.Open
		}

		// 2. Fill a pending pattern exit at this bar's open.
		if pos.status == model.StatusPendingExit {
			closeTrade(bar, bar.Open, ExitTopPattern)
		}

		holding := pos.status == model.StatusHolding || pos.status == model.StatusPendingExit

		// 3. Ratchet the peak while holding.
		if holding {
			if bar.High > pos.highest {
				pos.highest = bar.High
			}
			if bar.Close > pos.highest {
				pos.highest = bar.Close
			}
		}

		// 4. When flat, look for a bottom fractal confirmed at i-1; the
		// fill is deferred to the next bar's open.
		if pos.status == model.StatusFlat {
			if ev, ok := s.detectCausal(bars[:i+1], model.PatternBottom); ok {
				pos.status = model.StatusPendingEntry
				pos.pendingEntryReasons = ev.Reasons
			}
			continue
		}

		// 5. When holding, look for a top fractal; exit deferred likewise.
		if pos.status == model.StatusHolding {
			if _, ok := s.detectCausal(bars[:i+1], model.PatternTop); ok {
				pos.status = model.StatusPendingExit
			}
		}

		// 6. Risk exits evaluate against this bar's close, fill the same
		// bar, and override any deferred pattern exit.
		if !holding {
			continue
		}
		if s.cfg.StopLossPct > 0 {
			lossPct := (pos.entryPrice - bar.Close) / pos.entryPrice * 100
			if lossPct >= s.cfg.StopLossPct {
				closeTrade(bar, bar.Close, ExitStopLoss)
				continue
			}
		}
		if s.cfg.TrailingStopPct > 0 && pos.highest > pos.entryPrice {
			// Drawdown-ratio comparison keeps the boundary inclusive:
			// peak 120 and close 114.0 is exactly a 5% retreat and exits.
			drawdown := (pos.highest - bar.Close) / pos.highest
			if drawdown >= s.cfg.TrailingStopPct {
				closeTrade(bar, bar.Close, ExitTrailingStop)
				continue
			}
		}
		if s.cfg.MaxHoldDays > 0 && holdDays(pos.entryDate.Date, bar.Date) >= s.cfg.MaxHoldDays {
			closeTrade(bar, bar.Close, ExitMaxHold)
			continue
		}
	}

	// Force-close an open position at the final close.
	if pos.status == model.StatusHolding || pos.status == model.StatusPendingExit {
		last := bars[len(bars)-1]
		closeTrade(last, last.Close, ExitEndOfData)
	}

	return Recompute(trades), nil
}

// detectCausal recomputes indicators over the window so the decision at the
// window's end can only see bars inside it.
func (s *Simulator) detectCausal(window []model.Bar, kind model.PatternKind) (model.PatternEvent, bool) {
	ind := indicator.Compute(window, s.cfg.Indicators)
	return s.detector.DetectCausal(window, ind, kind)
}

func newTrade(entryDate time.Time, entryPrice float64, reasons []string, exitDate time.Time, exitPrice float64, exitReason string) model.TradeRecord {
	return model.TradeRecord{
		EntryDate:    entryDate,
		EntryPrice:   entryPrice,
		EntryReasons: reasons,
		ExitDate:     exitDate,
		ExitPrice:    exitPrice,
		ExitReason:   exitReason,
		ProfitPct:    (exitPrice - entryPrice) / entryPrice * 100,
		HoldDays:     holdDays(entryDate, exitDate),
	}
}

// holdDays is the whole calendar-day span between entry and exit.
func holdDays(entry, exit time.Time) int {
	return int(exit.Sub(entry).Hours() / 24)
}
