// Package monitor runs the live polling loop: fetch recent bars for each
// watched instrument, evaluate the newest confirmed fractal causally, and
// alert once per signal.
package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"FractalSentinel/internal/collector"
	"FractalSentinel/internal/indicator"
	"FractalSentinel/internal/metrics"
	"FractalSentinel/internal/model"
	"FractalSentinel/internal/notifier"
	"FractalSentinel/internal/pattern"
	"FractalSentinel/internal/recorder"
	"FractalSentinel/internal/watch"
)

// maxCycleSleep caps the pause between cycles so session-boundary checks
// stay responsive even with long check intervals.
const maxCycleSleep = 5 * time.Minute

// maxFaultSleep caps the backoff applied while every instrument in a cycle
// is failing (data source outage).
const maxFaultSleep = 15 * time.Minute

// Monitor polls the watchlist during trading hours and dispatches alerts.
// All collaborators are injected; there is no package-level state.
type Monitor struct {
	Collector *collector.Collector
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Watch     *watch.Manager
	Metrics   *metrics.Metrics
	Clock     Clock
	Detector  *pattern.Detector
	Params    indicator.Params

	Watchlist       []model.WatchItem
	CheckInterval   time.Duration
	LookbackDays    int
	InstrumentPause time.Duration
	RecencyDays     int
	Session         SessionWindow
	Premarket       SessionWindow

	lastPremarketDay time.Time
	faultStreak      int
}

// Run executes the polling loop until the context is cancelled. Startup and
// shutdown are announced on the alert channel.
func (m *Monitor) Run(ctx context.Context) error {
	if m.Metrics != nil {
		m.Metrics.WatchlistSize.Set(float64(len(m.Watchlist)))
	}

	title, body := notifier.FormatStartup(m.Watchlist, m.CheckInterval, m.Clock.Now())
	if err := notifier.SendWithRetry(ctx, m.Notifier, title, body, notifier.SeverityInfo, 3); err != nil {
		log.Printf("[WARN] startup notification failed: %v", err)
	}
	defer m.announceShutdown()

	log.Printf("[INFO] monitor started: %d instruments, interval %v", len(m.Watchlist), m.CheckInterval)

	for {
		now := m.Clock.Now()
		inSession := m.Session.Contains(now)
		if m.Metrics != nil {
			if inSession {
				m.Metrics.InSession.Set(1)
			} else {
				m.Metrics.InSession.Set(0)
			}
		}

		if inSession || m.premarketDue(now) {
			failed, total := m.runCycle(ctx)
			if total > 0 && failed == total {
				m.faultStreak++
				if m.faultStreak == 1 {
					title, body := notifier.FormatSystemicFault(total, m.Clock.Now())
					if err := m.Notifier.Send(ctx, title, body, notifier.SeverityError); err != nil {
						log.Printf("[ERROR] fault notification failed: %v", err)
					}
				}
			} else if total > 0 {
				m.faultStreak = 0
			}
		} else {
			log.Printf("[INFO] outside trading session, skipping cycle")
		}

		sleep := m.CheckInterval
		if sleep > maxCycleSleep {
			sleep = maxCycleSleep
		}
		if m.faultStreak > 0 {
			// Back off while the data source stays down.
			backoff := sleep * time.Duration(m.faultStreak+1)
			if backoff > maxFaultSleep {
				backoff = maxFaultSleep
			}
			sleep = backoff
		}
		if err := m.Clock.Sleep(ctx, sleep); err != nil {
			return nil
		}
	}
}

// premarketDue reports whether the forced pre-open pass should run now.
// It fires at most once per calendar day, inside the premarket window.
func (m *Monitor) premarketDue(now time.Time) bool {
	if !m.Premarket.Contains(now) {
		return false
	}
	local := now.In(collector.CST)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, collector.CST)
	if day.Equal(m.lastPremarketDay) {
		return false
	}
	m.lastPremarketDay = day
	log.Printf("[INFO] premarket pass")
	return true
}

// runCycle makes one full pass over the watchlist. Failures on one
// instrument never abort the others. Returns the failure count and the
// number of instruments attempted.
func (m *Monitor) runCycle(ctx context.Context) (failed, total int) {
	start := m.Clock.Now()

	for i, item := range m.Watchlist {
		if i > 0 && m.InstrumentPause > 0 {
			if err := m.Clock.Sleep(ctx, m.InstrumentPause); err != nil {
				return failed, total
			}
		}
		total++
		if err := m.processInstrument(ctx, item); err != nil {
			failed++
			log.Printf("[ERROR] check %s: %v", item.DisplayName(), err)
			if m.Metrics != nil {
				m.Metrics.FetchErrors.Inc()
			}
			title, body := notifier.FormatCycleError(item, err, m.Clock.Now())
			if sendErr := m.Notifier.Send(ctx, title, body, notifier.SeverityWarning); sendErr != nil {
				log.Printf("[ERROR] cycle error notification failed: %v", sendErr)
			}
		}
		if ctx.Err() != nil {
			return failed, total
		}
	}

	if m.Metrics != nil {
		m.Metrics.CyclesTotal.Inc()
		m.Metrics.CycleDuration.Observe(m.Clock.Now().Sub(start).Seconds())
	}
	return failed, total
}

// processInstrument fetches the instrument's recent bars and evaluates the
// newest confirmable fractal for both kinds.
func (m *Monitor) processInstrument(ctx context.Context, item model.WatchItem) error {
	now := m.Clock.Now()
	startDate := now.AddDate(0, 0, -m.LookbackDays)
	bars, err := m.Collector.Collect(item.Code, startDate, now)
	if err != nil {
		return err
	}
	if len(bars) < 3 {
		log.Printf("[WARN] %s: only %d bars in lookback window, skipping", item.DisplayName(), len(bars))
		return nil
	}

	ind := indicator.Compute(bars, m.Params)
	for _, kind := range []model.PatternKind{model.PatternBottom, model.PatternTop} {
		event, ok := m.Detector.DetectCausal(bars, ind, kind)
		if !ok {
			continue
		}
		if err := m.handleSignal(ctx, item, event, bars, ind, now); err != nil {
			return err
		}
	}
	return nil
}

// handleSignal de-duplicates, alerts and records one confirmed event.
func (m *Monitor) handleSignal(ctx context.Context, item model.WatchItem, event model.PatternEvent, bars []model.Bar, ind *indicator.Set, now time.Time) error {
	if !m.Watch.ShouldNotify(item.Code, event.Kind, event.Date, now, m.RecencyDays) {
		log.Printf("[INFO] %s %s signal on %s suppressed (duplicate or stale)",
			item.DisplayName(), event.Kind, event.Date.Format("2006-01-02"))
		return nil
	}

	log.Printf("[INFO] %s %s signal on %s, score %.1f",
		item.DisplayName(), event.Kind, event.Date.Format("2006-01-02"), event.Score)
	if m.Metrics != nil {
		m.Metrics.SignalsTotal.WithLabelValues(string(event.Kind)).Inc()
	}

	latestClose := bars[len(bars)-1].Close
	title, body := notifier.FormatSignal(item, event, ind, latestClose)
	notified := true
	if err := notifier.SendWithRetry(ctx, m.Notifier, title, body, notifier.SeverityInfo, 3); err != nil {
		notified = false
		if m.Metrics != nil {
			m.Metrics.NotifyFailures.Inc()
		}
		log.Printf("[ERROR] signal notification failed: %v", err)
	}

	if err := m.Recorder.RecordSignal(&recorder.SignalEvent{
		Code:     item.Code,
		Name:     item.Name,
		Event:    event,
		Notified: notified,
	}); err != nil {
		return fmt.Errorf("record signal: %w", err)
	}
	return nil
}

func (m *Monitor) announceShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	title, body := notifier.FormatShutdown(m.Clock.Now())
	if err := m.Notifier.Send(ctx, title, body, notifier.SeverityWarning); err != nil {
		log.Printf("[WARN] shutdown notification failed: %v", err)
	}
	log.Printf("[INFO] monitor stopped")
}
