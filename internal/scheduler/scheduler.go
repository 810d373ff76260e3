// Package scheduler runs the periodic batch jobs: the post-close pattern
// scan and the backtest digest.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"FractalSentinel/internal/backtest"
	"FractalSentinel/internal/collector"
	"FractalSentinel/internal/indicator"
	"FractalSentinel/internal/model"
	"FractalSentinel/internal/notifier"
	"FractalSentinel/internal/pattern"
	"FractalSentinel/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Detector  *pattern.Detector
	Params    indicator.Params
	Backtest  backtest.Config
	Watchlist []model.WatchItem
	Ctx       context.Context

	// Lookbacks in calendar days for the two batch jobs.
	ReportLookback   int
	BacktestLookback int
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, n notifier.Notifier, rec recorder.Recorder, det *pattern.Detector, params indicator.Params, btCfg backtest.Config, watchlist []model.WatchItem) *Scheduler {
	return &Scheduler{
		Cron:             cron.New(cron.WithSeconds()),
		Collector:        col,
		Notifier:         n,
		Recorder:         rec,
		Detector:         det,
		Params:           params,
		Backtest:         btCfg,
		Watchlist:        watchlist,
		Ctx:              ctx,
		ReportLookback:   60,
		BacktestLookback: 365,
	}
}

// RegisterAll registers the daily report and weekly backtest tasks.
func (s *Scheduler) RegisterAll(dailyCron, backtestCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyReportTask); err != nil {
		return fmt.Errorf("register daily report: %w", err)
	}
	if _, err := s.Cron.AddFunc(backtestCron, s.backtestTask); err != nil {
		return fmt.Errorf("register backtest digest: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunDailyReportNow executes the post-close scan immediately (manual trigger).
func (s *Scheduler) RunDailyReportNow() {
	s.dailyReportTask()
}

// dailyReportTask scans the recent window of every watched instrument for
// confirmed fractals and sends one consolidated report. Whole-series
// scanning is fine here since nothing trades on it.
func (s *Scheduler) dailyReportTask() {
	log.Println("[INFO] running post-close pattern scan")
	now := time.Now()
	start := now.AddDate(0, 0, -s.ReportLookback)

	results := make(map[string][]model.PatternEvent, len(s.Watchlist))
	for _, item := range s.Watchlist {
		bars, err := s.Collector.Collect(item.Code, start, now)
		if err != nil {
			log.Printf("[ERROR] scan %s: %v", item.DisplayName(), err)
			continue
		}
		if len(bars) < 3 {
			continue
		}
		ind := indicator.Compute(bars, s.Params)
		var events []model.PatternEvent
		for _, kind := range []model.PatternKind{model.PatternBottom, model.PatternTop} {
			events = append(events, s.Detector.DetectAll(bars, ind, kind)...)
		}
		if len(events) > 0 {
			results[item.Code] = events
		}
	}

	title, body := notifier.FormatDailyReport(results, s.Watchlist, now)
	s.trySend(title, body, notifier.SeverityInfo)
}

// backtestTask simulates the strategy over the long lookback for every
// watched instrument and sends a digest per instrument.
func (s *Scheduler) backtestTask() {
	log.Println("[INFO] running backtest digest")
	now := time.Now()
	start := now.AddDate(0, 0, -s.BacktestLookback)
	sim := backtest.New(s.Backtest)

	for _, item := range s.Watchlist {
		bars, err := s.Collector.Collect(item.Code, start, now)
		if err != nil {
			log.Printf("[ERROR] backtest fetch %s: %v", item.DisplayName(), err)
			continue
		}
		report, err := sim.Run(bars)
		if err != nil {
			log.Printf("[ERROR] backtest %s: %v", item.DisplayName(), err)
			continue
		}

		title, body := notifier.FormatBacktestReport(item, report, start, now)
		s.trySend(title, body, notifier.SeverityInfo)

		if err := s.Recorder.RecordBacktest(&recorder.BacktestSummary{
			Code:           item.Code,
			Start:          start,
			End:            now,
			TotalTrades:    report.TotalTrades,
			WinRate:        report.WinRate,
			AvgProfitPct:   report.AvgProfitPct,
			TotalProfitPct: report.TotalProfitPct,
			MaxProfitPct:   report.MaxProfitPct,
			MaxLossPct:     report.MaxLossPct,
			AvgHoldDays:    report.AvgHoldDays,
		}); err != nil {
			log.Printf("[ERROR] record backtest: %v", err)
		}
		for _, trade := range report.Trades {
			if err := s.Recorder.RecordTrade(item.Code, trade); err != nil {
				log.Printf("[ERROR] record trade: %v", err)
			}
		}
	}
}

func (s *Scheduler) trySend(title, body string, severity notifier.Severity) {
	if err := notifier.SendWithRetry(s.Ctx, s.Notifier, title, body, severity, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
