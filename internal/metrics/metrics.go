// Package metrics exposes Prometheus metrics for the live monitor.
package metrics

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the monitor.
type Metrics struct {
	CyclesTotal    prometheus.Counter
	SignalsTotal   *prometheus.CounterVec // labels: kind
	FetchErrors    prometheus.Counter
	NotifyFailures prometheus.Counter
	CycleDuration  prometheus.Histogram
	WatchlistSize  prometheus.Gauge
	InSession      prometheus.Gauge // 0=outside, 1=inside trading hours
}

// New registers and returns all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_cycles_total",
			Help: "Total monitoring cycles completed",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_signals_total",
			Help: "Total confirmed fractal signals (by kind)",
		}, []string{"kind"}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_fetch_errors_total",
			Help: "Total market data fetch failures",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_notify_failures_total",
			Help: "Total alert delivery failures after retries",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_cycle_duration_seconds",
			Help:    "Wall-clock duration of one full watchlist pass",
			Buckets: prometheus.DefBuckets,
		}),
		WatchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_watchlist_size",
			Help: "Number of monitored instruments",
		}),
		InSession: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_in_session",
			Help: "Whether the market session is open (0=closed, 1=open)",
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.SignalsTotal,
		m.FetchErrors,
		m.NotifyFailures,
		m.CycleDuration,
		m.WatchlistSize,
		m.InSession,
	)

	return m
}

// Server runs an HTTP server exposing /metrics.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics server.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] metrics server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("[WARN] metrics server shutdown: %v", err)
	}
}
