// Package indicator computes technical indicator series from daily bars.
// All functions are pure and deterministic over their input window. Each
// result is a Series carrying the index of its first valid value, so callers
// can degrade gracefully during indicator warm-up instead of reading zeros.
package indicator

import "FractalSentinel/internal/model"

// Series is an indicator value series aligned index-for-index with its
// input bars. Values before First are undefined (warm-up).
type Series struct {
	Values []float64
	First  int
}

// At returns the value at index i and whether it is valid.
func (s Series) At(i int) (float64, bool) {
	if i < s.First || i >= len(s.Values) {
		return 0, false
	}
	return s.Values[i], true
}

// absent returns an n-long series with no valid values.
func absent(n int) Series {
	return Series{Values: make([]float64, n), First: n}
}

// Params holds the indicator periods used by the detector and simulator.
type Params struct {
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	BBPeriod   int
	BBStdDev   float64
	ATRPeriod  int
}

// DefaultParams returns the standard daily-bar parameter set.
func DefaultParams() Params {
	return Params{
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBPeriod:   20,
		BBStdDev:   2,
		ATRPeriod:  14,
	}
}

// Set holds every indicator series for one bar sequence, index-aligned
// with the bars it was computed from.
type Set struct {
	MA5, MA10, MA20, MA60      Series
	RSI                        Series
	MACD, MACDSignal, MACDHist Series
	BBUpper, BBMiddle, BBLower Series
	ATR                        Series
}

// Compute builds the full indicator set for the given bars. A series too
// short for a given indicator simply leaves that indicator absent; this is
// never an error.
func Compute(bars []model.Bar, p Params) *Set {
	closes := model.Closes(bars)
	highs := model.Highs(bars)
	lows := model.Lows(bars)

	s := &Set{
		MA5:  SMA(closes, 5),
		MA10: SMA(closes, 10),
		MA20: SMA(closes, 20),
		MA60: SMA(closes, 60),
		RSI:  RSI(closes, p.RSIPeriod),
		ATR:  ATR(highs, lows, closes, p.ATRPeriod),
	}
	s.MACD, s.MACDSignal, s.MACDHist = MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	s.BBUpper, s.BBMiddle, s.BBLower = Bollinger(closes, p.BBPeriod, p.BBStdDev)
	return s
}
