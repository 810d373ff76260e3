package backtest

import "FractalSentinel/internal/model"

// Report aggregates the closed trades of one simulated run.
type Report struct {
	TotalTrades    int
	WinRate        float64 // percent of profitable trades
	AvgProfitPct   float64
	TotalProfitPct float64
	MaxProfitPct   float64
	MaxLossPct     float64
	AvgHoldDays    float64
	Trades         []model.TradeRecord
}

// Recompute rebuilds the aggregate statistics from a trade list. Run uses
// this same path, so stats recomputed later from stored trades reproduce
// the originals exactly.
func Recompute(trades []model.TradeRecord) *Report {
	r := &Report{TotalTrades: len(trades), Trades: trades}
	if len(trades) == 0 {
		return r
	}

	wins := 0
	sumProfit := 0.0
	sumHold := 0
	r.MaxProfitPct = trades[0].ProfitPct
	r.MaxLossPct = trades[0].ProfitPct
	for _, t := range trades {
		if t.ProfitPct > 0 {
			wins++
		}
		sumProfit += t.ProfitPct
		sumHold += t.HoldDays
		if t.ProfitPct > r.MaxProfitPct {
			r.MaxProfitPct = t.ProfitPct
		}
		if t.ProfitPct < r.MaxLossPct {
			r.MaxLossPct = t.ProfitPct
		}
	}
	n := float64(len(trades))
	r.WinRate = float64(wins) / n * 100
	r.TotalProfitPct = sumProfit
	r.AvgProfitPct = sumProfit / n
	r.AvgHoldDays = float64(sumHold) / n
	return r
}
