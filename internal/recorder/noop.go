package recorder

import "FractalSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *SignalEvent) error               { return nil }
func (n *NoopRecorder) RecordTrade(_ string, _ model.TradeRecord) error { return nil }
func (n *NoopRecorder) RecordBacktest(_ *BacktestSummary) error         { return nil }
func (n *NoopRecorder) Close() error                                    { return nil }
