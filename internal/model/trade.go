package model

import "time"

// PositionStatus is the state of the simulated position.
type PositionStatus int

const (
	StatusFlat PositionStatus = iota
	StatusPendingEntry
	StatusHolding
	StatusPendingExit
)

func (s PositionStatus) String() string {
	switch s {
	case StatusFlat:
		return "FLAT"
	case StatusPendingEntry:
		return "PENDING_ENTRY"
	case StatusHolding:
		return "HOLDING"
	case StatusPendingExit:
		return "PENDING_EXIT"
	}
	return "UNKNOWN"
}

// TradeRecord is one closed round-trip trade.
type TradeRecord struct {
	EntryDate    time.Time
	EntryPrice   float64
	EntryReasons []string
	ExitDate     time.Time
	ExitPrice    float64
	ExitReason   string
	ProfitPct    float64
	HoldDays     int
}
