package backtest

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"FractalSentinel/internal/indicator"
	"FractalSentinel/internal/model"
)

var day0 = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func bar(i int, open, high, low, close, volume float64) model.Bar {
	return model.Bar{
		Date:   day0.AddDate(0, 0, i),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}

// entryPrefix yields a bottom fractal confirmed at bar 1 once bar 2 lands,
// so the entry fills at bar 3's open. Score 2 (bullish candle + volume).
func entryPrefix() []model.Bar {
	return []model.Bar{
		bar(0, 100, 101, 99.8, 100, 100),
		bar(1, 99.2, 99.5, 99.0, 99.4, 500),
		bar(2, 99.6, 99.8, 99.4, 99.7, 100),
	}
}

func testConfig() Config {
	return Config{
		ScoreThreshold: 0.5,
		Indicators:     indicator.DefaultParams(),
	}
}

func TestRun_InsufficientData(t *testing.T) {
	sim := New(DefaultConfig())
	if _, err := sim.Run(entryPrefix()[:2]); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestRun_EntryFillsAtNextOpen(t *testing.T) {
	bars := append(entryPrefix(),
		bar(3, 100, 100.5, 99.9, 100.2, 100),
		bar(4, 100.3, 110.5, 100.1, 110.25, 100),
	)
	report, err := New(testConfig()).Run(bars)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", report.TotalTrades)
	}
	tr := report.Trades[0]
	if tr.EntryPrice != 100 {
		t.Errorf("entry should fill at bar 3 open 100, got %.2f", tr.EntryPrice)
	}
	if !tr.EntryDate.Equal(bars[3].Date) {
		t.Errorf("entry date should be bar 3, got %v", tr.EntryDate)
	}
	if len(tr.EntryReasons) == 0 {
		t.Error("entry reasons should carry the confirmation factors")
	}
	if tr.ExitReason != ExitEndOfData {
		t.Errorf("expected forced close %s, got %s", ExitEndOfData, tr.ExitReason)
	}
	if tr.ExitPrice != 110.25 {
		t.Errorf("forced close should use the final close, got %.2f", tr.ExitPrice)
	}
	if math.Abs(tr.ProfitPct-10.25) > 1e-9 {
		t.Errorf("expected profit 10.25%%, got %.4f", tr.ProfitPct)
	}
}

func TestRun_FixedStopFillsSameBarClose(t *testing.T) {
	cfg := testConfig()
	cfg.StopLossPct = 5
	bars := append(entryPrefix(),
		bar(3, 100, 100.5, 99.5, 100.0, 100),
		bar(4, 96, 96.5, 94.5, 95.0, 100), // exactly -5% vs entry
	)
	report, err := New(cfg).Run(bars)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", report.TotalTrades)
	}
	tr := report.Trades[0]
	if tr.ExitReason != ExitStopLoss {
		t.Errorf("expected %s, got %s", ExitStopLoss, tr.ExitReason)
	}
	if tr.ExitPrice != 95.0 {
		t.Errorf("stop fills the triggering bar's close, got %.2f", tr.ExitPrice)
	}
	if !tr.ExitDate.Equal(bars[4].Date) {
		t.Errorf("stop fills the triggering bar, got %v", tr.ExitDate)
	}
}

func TestRun_NegativeStopLossDisablesFixedStop(t *testing.T) {
	cfg := testConfig()
	cfg.StopLossPct = -1
	bars := append(entryPrefix(),
		bar(3, 100, 100.5, 99.9, 100.2, 100),
		bar(4, 91, 91.5, 89.5, 90.0, 100), // -10% vs entry
	)
	report, err := New(cfg).Run(bars)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", report.TotalTrades)
	}
	if report.Trades[0].ExitReason != ExitEndOfData {
		t.Errorf("disabled stop must hold through the drawdown, got %s", report.Trades[0].ExitReason)
	}
}

func TestRun_TrailingStopBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.TrailingStopPct = 0.05

	run := func(finalClose float64) *Report {
		bars := append(entryPrefix(),
			bar(3, 100, 100.5, 99.9, 100.2, 100),
			bar(4, 110, 120, 109, 119, 100), // peak 120
			bar(5, 118, 118.5, 113.5, finalClose, 100),
		)
		report, err := New(cfg).Run(bars)
		if err != nil {
			t.Fatal(err)
		}
		return report
	}

	// Exactly a 5% retreat from the 120 peak fires the trailing stop.
	report := run(114.0)
	if report.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", report.TotalTrades)
	}
	if report.Trades[0].ExitReason != ExitTrailingStop {
		t.Errorf("expected %s at the 5%% boundary, got %s", ExitTrailingStop, report.Trades[0].ExitReason)
	}
	if report.Trades[0].ExitPrice != 114.0 {
		t.Errorf("trailing stop fills the triggering close, got %.2f", report.Trades[0].ExitPrice)
	}

	// A hair above the boundary holds to the end of data.
	report = run(114.01)
	if report.Trades[0].ExitReason != ExitEndOfData {
		t.Errorf("expected hold past 4.99%% drawdown, got %s", report.Trades[0].ExitReason)
	}
}

func TestRun_TrailingRequiresPeakAboveEntry(t *testing.T) {
	cfg := testConfig()
	cfg.TrailingStopPct = 0.05
	// Price drifts below entry without ever peaking above it; the trailing
	// stop must stay silent.
	bars := append(entryPrefix(),
		bar(3, 100, 100.0, 97.0, 98.0, 100),
		bar(4, 97.5, 97.8, 95.5, 96.0, 100),
	)
	report, err := New(cfg).Run(bars)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", report.TotalTrades)
	}
	if report.Trades[0].ExitReason != ExitEndOfData {
		t.Errorf("expected no trailing exit below entry, got %s", report.Trades[0].ExitReason)
	}
}

func TestRun_TopPatternExitFillsNextOpen(t *testing.T) {
	bars := append(entryPrefix(),
		bar(3, 100, 100.5, 99.9, 100.2, 100),
		bar(4, 103, 105, 100.8, 101.5, 600),  // top fractal candidate
		bar(5, 100.9, 101.2, 100.5, 100.8, 100), // confirms the fractal at 4
		bar(6, 101, 101.5, 100.7, 101.2, 100),   // exit fills here
	)
	report, err := New(testConfig()).Run(bars)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", report.TotalTrades)
	}
	tr := report.Trades[0]
	if tr.ExitReason != ExitTopPattern {
		t.Errorf("expected %s, got %s", ExitTopPattern, tr.ExitReason)
	}
	if tr.ExitPrice != 101 {
		t.Errorf("pattern exit fills the next bar's open, got %.2f", tr.ExitPrice)
	}
	if !tr.ExitDate.Equal(bars[6].Date) {
		t.Errorf("pattern exit date should be bar 6, got %v", tr.ExitDate)
	}
}

func TestRun_RiskExitOverridesPendingPatternExit(t *testing.T) {
	cfg := testConfig()
	cfg.StopLossPct = 5
	bars := append(entryPrefix(),
		bar(3, 100, 100.5, 99.9, 100.2, 100),
		bar(4, 103, 105, 100.8, 101.5, 600),
		bar(5, 100, 100.2, 94.0, 94.5, 100), // top confirmed AND -5.5% close
	)
	report, err := New(cfg).Run(bars)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", report.TotalTrades)
	}
	tr := report.Trades[0]
	if tr.ExitReason != ExitStopLoss {
		t.Errorf("risk exit should override the deferred pattern exit, got %s", tr.ExitReason)
	}
	if tr.ExitPrice != 94.5 || !tr.ExitDate.Equal(bars[5].Date) {
		t.Errorf("override fills same-bar close: got %.2f on %v", tr.ExitPrice, tr.ExitDate)
	}
}

func TestRun_MaxHoldDays(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHoldDays = 2
	bars := append(entryPrefix(),
		bar(3, 100, 100.5, 99.9, 100.2, 100),
		bar(4, 100.3, 100.6, 100.1, 100.4, 100),
		bar(5, 100.5, 100.8, 100.3, 100.6, 100),
		bar(6, 100.7, 101.0, 100.5, 100.8, 100),
	)
	report, err := New(cfg).Run(bars)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalTrades == 0 {
		t.Fatal("expected at least one trade")
	}
	tr := report.Trades[0]
	if tr.ExitReason != ExitMaxHold {
		t.Errorf("expected %s, got %s", ExitMaxHold, tr.ExitReason)
	}
	if tr.HoldDays != 2 {
		t.Errorf("expected 2 hold days, got %d", tr.HoldDays)
	}
	if !tr.ExitDate.Equal(bars[5].Date) {
		t.Errorf("max hold should close on bar 5, got %v", tr.ExitDate)
	}
}

func TestRun_LaterBarsDoNotAlterEarlierDecisions(t *testing.T) {
	base := append(entryPrefix(),
		bar(3, 100, 100.5, 99.9, 100.2, 100),
		bar(4, 100.3, 100.6, 100.1, 100.4, 100),
	)
	first, err := New(testConfig()).Run(base)
	if err != nil {
		t.Fatal(err)
	}
	if first.TotalTrades != 1 {
		t.Fatalf("expected 1 trade, got %d", first.TotalTrades)
	}

	// Same series with the bar after the fill rewritten into a crash; the
	// entry decided before that bar existed must not move.
	altered := make([]model.Bar, len(base))
	copy(altered, base)
	altered[4] = bar(4, 80, 81, 70, 72, 900)
	second, err := New(testConfig()).Run(altered)
	if err != nil {
		t.Fatal(err)
	}
	if second.TotalTrades != 1 {
		t.Fatalf("expected 1 trade on the altered series, got %d", second.TotalTrades)
	}

	a, b := first.Trades[0], second.Trades[0]
	if !a.EntryDate.Equal(b.EntryDate) || a.EntryPrice != b.EntryPrice {
		t.Errorf("entry moved after a future bar changed: %v@%.2f vs %v@%.2f",
			a.EntryDate, a.EntryPrice, b.EntryDate, b.EntryPrice)
	}
	if !reflect.DeepEqual(a.EntryReasons, b.EntryReasons) {
		t.Errorf("entry reasons changed with a future bar: %v vs %v", a.EntryReasons, b.EntryReasons)
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.StopLossPct = 5
	cfg.TrailingStopPct = 0.05
	bars := append(entryPrefix(),
		bar(3, 100, 100.5, 99.9, 100.2, 100),
		bar(4, 110, 120, 109, 119, 100),
		bar(5, 118, 118.5, 113.5, 114.0, 100),
	)
	first, err := New(cfg).Run(bars)
	if err != nil {
		t.Fatal(err)
	}
	second, err := New(cfg).Run(bars)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated runs over identical bars diverged:\nfirst: %+v\nsecond: %+v", first, second)
	}
}

func TestRecompute_ReproducesRunStats(t *testing.T) {
	cfg := testConfig()
	cfg.StopLossPct = 5
	cfg.TrailingStopPct = 0.05
	bars := append(entryPrefix(),
		bar(3, 100, 100.5, 99.9, 100.2, 100),
		bar(4, 110, 120, 109, 119, 100),
		bar(5, 118, 118.5, 113.5, 114.0, 100),
	)
	report, err := New(cfg).Run(bars)
	if err != nil {
		t.Fatal(err)
	}
	again := Recompute(report.Trades)
	if again.TotalTrades != report.TotalTrades ||
		again.WinRate != report.WinRate ||
		again.AvgProfitPct != report.AvgProfitPct ||
		again.TotalProfitPct != report.TotalProfitPct ||
		again.MaxProfitPct != report.MaxProfitPct ||
		again.MaxLossPct != report.MaxLossPct ||
		again.AvgHoldDays != report.AvgHoldDays {
		t.Errorf("recomputed stats diverge:\n run: %+v\nagain: %+v", report, again)
	}
}

func TestRecompute_Aggregates(t *testing.T) {
	trades := []model.TradeRecord{
		{ProfitPct: 10, HoldDays: 2},
		{ProfitPct: -4, HoldDays: 6},
	}
	r := Recompute(trades)
	if r.TotalTrades != 2 {
		t.Fatalf("expected 2 trades, got %d", r.TotalTrades)
	}
	if r.WinRate != 50 {
		t.Errorf("expected win rate 50, got %.1f", r.WinRate)
	}
	if r.AvgProfitPct != 3 || r.TotalProfitPct != 6 {
		t.Errorf("expected avg 3 / total 6, got %.1f / %.1f", r.AvgProfitPct, r.TotalProfitPct)
	}
	if r.MaxProfitPct != 10 || r.MaxLossPct != -4 {
		t.Errorf("expected extremes 10/-4, got %.1f/%.1f", r.MaxProfitPct, r.MaxLossPct)
	}
	if r.AvgHoldDays != 4 {
		t.Errorf("expected avg hold 4, got %.1f", r.AvgHoldDays)
	}
}

func TestRecompute_Empty(t *testing.T) {
	r := Recompute(nil)
	if r.TotalTrades != 0 || r.WinRate != 0 || r.MaxLossPct != 0 {
		t.Errorf("empty recompute should be all zeros, got %+v", r)
	}
}
