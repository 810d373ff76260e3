package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"FractalSentinel/internal/backtest"
	"FractalSentinel/internal/collector"
	"FractalSentinel/internal/config"
	"FractalSentinel/internal/indicator"
	"FractalSentinel/internal/metrics"
	"FractalSentinel/internal/monitor"
	"FractalSentinel/internal/notifier"
	"FractalSentinel/internal/pattern"
	"FractalSentinel/internal/recorder"
	"FractalSentinel/internal/scheduler"
	"FractalSentinel/internal/watch"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] FractalSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.UseMock {
		fetcher = &collector.MockFetcher{}
	} else {
		fetcher = collector.NewTushareFetcher(cfg.DataSource.BaseURL, cfg.DataSource.TushareToken, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher)

	// Init notifier chain
	var channels []notifier.Notifier
	if cfg.WeChat.CorpID != "" && cfg.WeChat.Secret != "" {
		channels = append(channels, notifier.NewWeChatNotifier(cfg.WeChat.CorpID, cfg.WeChat.Secret, cfg.WeChat.AgentID, cfg.Proxy))
	}
	if cfg.ServerChan.SendKey != "" {
		channels = append(channels, notifier.NewServerChanNotifier(cfg.ServerChan.SendKey, cfg.Proxy))
	}
	var notify notifier.Notifier
	switch len(channels) {
	case 0:
		log.Println("[WARN] no alert channel configured, logging alerts only")
		notify = notifier.LogNotifier{}
	case 1:
		notify = channels[0]
	default:
		notify = notifier.NewMulti(channels...)
	}
	log.Printf("[INFO] alert channel: %s", notify.Name())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init watch state
	wm, err := watch.NewManager(cfg.Monitoring.StateFile)
	if err != nil {
		log.Fatalf("[FATAL] init watch manager: %v", err)
	}

	// Metrics server
	m := metrics.New()
	msrv := metrics.NewServer(cfg.Metrics.Listen)
	msrv.Start()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shared strategy pieces
	det := pattern.New(cfg.Strategy.ScoreThreshold)
	params := indicator.DefaultParams()
	btCfg := backtest.Config{
		StopLossPct:     cfg.Strategy.StopLossPct,
		TrailingStopPct: cfg.Strategy.TrailingStopPct,
		MaxHoldDays:     cfg.Strategy.MaxHoldDays,
		ScoreThreshold:  cfg.Strategy.ScoreThreshold,
		Indicators:      params,
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, notify, rec, det, params, btCfg, cfg.Monitoring.Watchlist)
	sched.ReportLookback = cfg.Schedule.ReportLookbackDays
	sched.BacktestLookback = cfg.Schedule.BacktestLookbackDays
	if err := sched.RegisterAll(cfg.Schedule.DailyReportCron, cfg.Schedule.BacktestCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Session windows
	sessionOpen, err := monitor.ParseHHMM(cfg.Session.Open)
	if err != nil {
		log.Fatalf("[FATAL] session.open: %v", err)
	}
	sessionClose, err := monitor.ParseHHMM(cfg.Session.Close)
	if err != nil {
		log.Fatalf("[FATAL] session.close: %v", err)
	}
	preOpen, err := monitor.ParseHHMM(cfg.Session.PremarketOpen)
	if err != nil {
		log.Fatalf("[FATAL] session.premarket_open: %v", err)
	}
	preClose, err := monitor.ParseHHMM(cfg.Session.PremarketClose)
	if err != nil {
		log.Fatalf("[FATAL] session.premarket_close: %v", err)
	}

	// Init monitor
	mon := &monitor.Monitor{
		Collector:       col,
		Notifier:        notify,
		Recorder:        rec,
		Watch:           wm,
		Metrics:         m,
		Clock:           monitor.RealClock(),
		Detector:        det,
		Params:          params,
		Watchlist:       cfg.Monitoring.Watchlist,
		CheckInterval:   time.Duration(cfg.Monitoring.CheckIntervalMinutes) * time.Minute,
		LookbackDays:    cfg.Monitoring.LookbackDays,
		InstrumentPause: time.Duration(cfg.Monitoring.InstrumentPauseSeconds) * time.Second,
		RecencyDays:     cfg.Monitoring.RecencyDays,
		Session:         monitor.SessionWindow{Open: sessionOpen, Close: sessionClose},
		Premarket:       monitor.SessionWindow{Open: preOpen, Close: preClose},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mon.Run(ctx); err != nil {
			log.Printf("[ERROR] monitor: %v", err)
		}
	}()

	// Optional: run the post-close scan immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing post-close scan now")
		go sched.RunDailyReportNow()
	}

	log.Println("[INFO] FractalSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	msrv.Stop(shutdownCtx)
	log.Println("[INFO] FractalSentinel stopped")
}
