package indicator

// RSI computes the Wilder-smoothed relative strength index.
//
// The gain/loss averages are seeded with the simple mean of the first
// `period` price deltas, then updated recurrently as
// (prev*(period-1)+x)/period. The first valid value is at index `period`.
// When the loss average is zero the relative strength is treated as zero,
// yielding RSI 0.
func RSI(closes []float64, period int) Series {
	n := len(closes)
	if period <= 0 || n < period+1 {
		return absent(n)
	}
	out := Series{Values: make([]float64, n), First: period}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out.Values[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out.Values[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	rs := 0.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100.0 - 100.0/(1.0+rs)
}
