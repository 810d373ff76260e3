package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"FractalSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	WeChat struct {
		CorpID  string `yaml:"corp_id"`
		Secret  string `yaml:"secret"`
		AgentID int    `yaml:"agent_id"`
	} `yaml:"wechat"`
	ServerChan struct {
		SendKey string `yaml:"send_key"`
	} `yaml:"serverchan"`
	DataSource struct {
		BaseURL      string `yaml:"base_url"`
		TushareToken string `yaml:"tushare_token"`
		UseMock      bool   `yaml:"use_mock"`
	} `yaml:"data_source"`
	Monitoring struct {
		CheckIntervalMinutes   int               `yaml:"check_interval_minutes"`
		LookbackDays           int               `yaml:"lookback_days"`
		InstrumentPauseSeconds int               `yaml:"instrument_pause_seconds"`
		RecencyDays            int               `yaml:"recency_days"`
		StateFile              string            `yaml:"state_file"`
		Watchlist              []model.WatchItem `yaml:"watchlist"`
	} `yaml:"monitoring"`
	Session struct {
		Open           string `yaml:"open"`
		Close          string `yaml:"close"`
		PremarketOpen  string `yaml:"premarket_open"`
		PremarketClose string `yaml:"premarket_close"`
	} `yaml:"session"`
	Strategy struct {
		ScoreThreshold  float64 `yaml:"score_threshold"`
		StopLossPct     float64 `yaml:"stop_loss_pct"` // negative disables the fixed stop; 0 takes the default
		TrailingStopPct float64 `yaml:"trailing_stop_pct"`
		MaxHoldDays     int     `yaml:"max_hold_days"`
	} `yaml:"strategy"`
	Schedule struct {
		DailyReportCron      string `yaml:"daily_report_cron"`
		BacktestCron         string `yaml:"backtest_cron"`
		ReportLookbackDays   int    `yaml:"report_lookback_days"`
		BacktestLookbackDays int    `yaml:"backtest_lookback_days"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("WECHAT_CORP_ID"); v != "" {
		cfg.WeChat.CorpID = v
	}
	if v := os.Getenv("WECHAT_SECRET"); v != "" {
		cfg.WeChat.Secret = v
	}
	if v := os.Getenv("WECHAT_AGENT_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.WeChat.AgentID = id
		}
	}
	if v := os.Getenv("SERVERCHAN_SCKEY"); v != "" {
		cfg.ServerChan.SendKey = v
	}
	if v := os.Getenv("TUSHARE_TOKEN"); v != "" {
		cfg.DataSource.TushareToken = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Monitoring.CheckIntervalMinutes == 0 {
		cfg.Monitoring.CheckIntervalMinutes = 60
	}
	if cfg.Monitoring.LookbackDays == 0 {
		cfg.Monitoring.LookbackDays = 30
	}
	if cfg.Monitoring.InstrumentPauseSeconds == 0 {
		cfg.Monitoring.InstrumentPauseSeconds = 2
	}
	if cfg.Monitoring.RecencyDays == 0 {
		cfg.Monitoring.RecencyDays = 3
	}
	if cfg.Monitoring.StateFile == "" {
		cfg.Monitoring.StateFile = "data/watch_state.json"
	}
	if len(cfg.Monitoring.Watchlist) == 0 {
		cfg.Monitoring.Watchlist = []model.WatchItem{
			{Code: "000001", Name: "上证指数", Kind: "index"},
		}
	}
	if cfg.Session.Open == "" {
		cfg.Session.Open = "09:30"
	}
	if cfg.Session.Close == "" {
		cfg.Session.Close = "15:00"
	}
	if cfg.Session.PremarketOpen == "" {
		cfg.Session.PremarketOpen = "08:00"
	}
	if cfg.Session.PremarketClose == "" {
		cfg.Session.PremarketClose = "08:10"
	}
	if cfg.Strategy.ScoreThreshold == 0 {
		cfg.Strategy.ScoreThreshold = 3.0
	}
	if cfg.Strategy.StopLossPct == 0 {
		// 0 means unset; a negative value disables the fixed stop.
		cfg.Strategy.StopLossPct = 5.0
	}
	if cfg.Strategy.TrailingStopPct == 0 {
		cfg.Strategy.TrailingStopPct = 0.05
	}
	if cfg.Schedule.DailyReportCron == "" {
		// Post-close scan, 15:30 CST on weekdays.
		cfg.Schedule.DailyReportCron = "0 30 15 * * 1-5"
	}
	if cfg.Schedule.BacktestCron == "" {
		// Weekend digest, Saturday 10:00 CST.
		cfg.Schedule.BacktestCron = "0 0 10 * * 6"
	}
	if cfg.Schedule.ReportLookbackDays == 0 {
		cfg.Schedule.ReportLookbackDays = 60
	}
	if cfg.Schedule.BacktestLookbackDays == 0 {
		cfg.Schedule.BacktestLookbackDays = 365
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/fractal_sentinel.db"
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9108"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if !c.DataSource.UseMock && c.DataSource.TushareToken == "" {
		return fmt.Errorf("data_source.tushare_token is required (or set data_source.use_mock)")
	}
	if len(c.Monitoring.Watchlist) == 0 {
		return fmt.Errorf("monitoring.watchlist must not be empty")
	}
	for _, item := range c.Monitoring.Watchlist {
		if item.Code == "" {
			return fmt.Errorf("monitoring.watchlist entries need a code")
		}
	}
	if c.Monitoring.CheckIntervalMinutes <= 0 {
		return fmt.Errorf("monitoring.check_interval_minutes must be positive")
	}
	if c.Strategy.ScoreThreshold <= 0 {
		return fmt.Errorf("strategy.score_threshold must be positive")
	}
	if c.Strategy.TrailingStopPct < 0 || c.Strategy.TrailingStopPct >= 1 {
		return fmt.Errorf("strategy.trailing_stop_pct must be a ratio in [0, 1)")
	}
	return nil
}
