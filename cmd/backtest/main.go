package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"FractalSentinel/internal/backtest"
	"FractalSentinel/internal/collector"
	"FractalSentinel/internal/indicator"
	"FractalSentinel/internal/model"
	"FractalSentinel/internal/pattern"
	"FractalSentinel/internal/recorder"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		code      = flag.String("code", "000001", "instrument code (A-share or index)")
		startStr  = flag.String("start", "", "start date YYYY-MM-DD (default: 1 year ago)")
		endStr    = flag.String("end", "", "end date YYYY-MM-DD (default: today)")
		stopLoss  = flag.Float64("stop", 5.0, "fixed stop loss percent")
		trailStop = flag.Float64("trail", 0.05, "trailing stop drawdown ratio")
		maxHold   = flag.Int("maxhold", 0, "max hold days (0 disables)")
		threshold = flag.Float64("threshold", pattern.DefaultThreshold, "confirmation score threshold")
		token     = flag.String("token", os.Getenv("TUSHARE_TOKEN"), "Tushare API token")
		useMock   = flag.Bool("mock", false, "use synthetic data instead of Tushare")
		dbPath    = flag.String("db", "", "record results to this SQLite database")
		showAll   = flag.Bool("patterns", false, "also list every confirmed fractal in the range")
	)
	flag.Parse()

	end := time.Now()
	if *endStr != "" {
		t, err := time.ParseInLocation("2006-01-02", *endStr, collector.CST)
		if err != nil {
			log.Fatalf("[FATAL] parse -end: %v", err)
		}
		end = t
	}
	start := end.AddDate(-1, 0, 0)
	if *startStr != "" {
		t, err := time.ParseInLocation("2006-01-02", *startStr, collector.CST)
		if err != nil {
			log.Fatalf("[FATAL] parse -start: %v", err)
		}
		start = t
	}

	var fetcher collector.Fetcher
	if *useMock {
		fetcher = &collector.MockFetcher{}
	} else {
		if *token == "" {
			log.Fatalf("[FATAL] Tushare token required (set -token or TUSHARE_TOKEN), or pass -mock")
		}
		fetcher = collector.NewTushareFetcher("", *token, os.Getenv("HTTPS_PROXY"))
	}

	col := collector.NewCollector(fetcher)
	bars, err := col.Collect(*code, start, end)
	if err != nil {
		log.Fatalf("[FATAL] fetch %s: %v", *code, err)
	}
	fmt.Printf("%s: %d bars, %s ~ %s\n", *code, len(bars),
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	params := indicator.DefaultParams()
	if *showAll {
		ind := indicator.Compute(bars, params)
		det := pattern.New(*threshold)
		for _, kind := range []model.PatternKind{model.PatternBottom, model.PatternTop} {
			for _, ev := range det.DetectAll(bars, ind, kind) {
				fmt.Printf("  %s %-6s score=%.1f price=%.2f [%s]\n",
					ev.Date.Format("2006-01-02"), ev.Kind, ev.Score, ev.Price,
					strings.Join(ev.Reasons, " "))
			}
		}
	}

	sim := backtest.New(backtest.Config{
		StopLossPct:     *stopLoss,
		TrailingStopPct: *trailStop,
		MaxHoldDays:     *maxHold,
		ScoreThreshold:  *threshold,
		Indicators:      params,
	})
	report, err := sim.Run(bars)
	if err != nil {
		log.Fatalf("[FATAL] backtest: %v", err)
	}

	printReport(report)

	if *dbPath != "" {
		rec, err := recorder.NewSQLiteRecorder(*dbPath)
		if err != nil {
			log.Fatalf("[FATAL] open recorder: %v", err)
		}
		defer rec.Close()
		if err := rec.RecordBacktest(&recorder.BacktestSummary{
			Code:           *code,
			Start:          start,
			End:            end,
			TotalTrades:    report.TotalTrades,
			WinRate:        report.WinRate,
			AvgProfitPct:   report.AvgProfitPct,
			TotalProfitPct: report.TotalProfitPct,
			MaxProfitPct:   report.MaxProfitPct,
			MaxLossPct:     report.MaxLossPct,
			AvgHoldDays:    report.AvgHoldDays,
		}); err != nil {
			log.Fatalf("[FATAL] record backtest: %v", err)
		}
		for _, trade := range report.Trades {
			if err := rec.RecordTrade(*code, trade); err != nil {
				log.Fatalf("[FATAL] record trade: %v", err)
			}
		}
		fmt.Printf("results recorded to %s\n", *dbPath)
	}
}

func printReport(r *backtest.Report) {
	fmt.Println()
	fmt.Println("===== 回测结果 =====")
	fmt.Printf("交易次数: %d\n", r.TotalTrades)
	if r.TotalTrades == 0 {
		fmt.Println("区间内无符合条件的信号")
		return
	}
	fmt.Printf("胜率:     %.1f%%\n", r.WinRate)
	fmt.Printf("平均收益: %+.2f%%\n", r.AvgProfitPct)
	fmt.Printf("累计收益: %+.2f%%\n", r.TotalProfitPct)
	fmt.Printf("最大盈利: %+.2f%%\n", r.MaxProfitPct)
	fmt.Printf("最大亏损: %+.2f%%\n", r.MaxLossPct)
	fmt.Printf("平均持仓: %.1f天\n", r.AvgHoldDays)
	fmt.Println()
	for _, t := range r.Trades {
		fmt.Printf("  %s 买入 %.2f -> %s 卖出 %.2f  %+.2f%%  %d天  (%s)\n",
			t.EntryDate.Format("2006-01-02"), t.EntryPrice,
			t.ExitDate.Format("2006-01-02"), t.ExitPrice,
			t.ProfitPct, t.HoldDays, t.ExitReason)
	}
}
