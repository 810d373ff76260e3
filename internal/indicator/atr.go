package indicator

import "math"

// ATR computes the Wilder average true range. True range is the max of
// high-low, |high-prevClose|, |low-prevClose|, defined from index 1. The
// average is seeded at index `period` with the simple mean of the first
// `period` true ranges and Wilder-smoothed thereafter.
func ATR(highs, lows, closes []float64, period int) Series {
	n := len(closes)
	if period <= 0 || n < period+1 {
		return absent(n)
	}

	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	out := Series{Values: make([]float64, n), First: period}
	out.Values[period] = mean(tr[1 : period+1])
	for i := period + 1; i < n; i++ {
		out.Values[i] = (out.Values[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}
