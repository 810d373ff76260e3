package indicator

// MACD computes the MACD line, signal line, and histogram.
//
// Both exponential averages are seeded at index slow-1 with the simple mean
// of the first `slow` closes and updated with multiplier 2/(n+1). The MACD
// line (fast-slow) is valid from slow-1; the signal line is a
// `signalPeriod` EMA of the MACD line seeded the same way, so the signal
// and histogram are valid from slow+signalPeriod-1.
func MACD(closes []float64, fast, slow, signalPeriod int) (line, signal, hist Series) {
	n := len(closes)
	line, signal, hist = absent(n), absent(n), absent(n)
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 || n < slow {
		return
	}

	emaFast := make([]float64, n)
	emaSlow := make([]float64, n)
	seed := mean(closes[:slow])
	emaFast[slow-1] = seed
	emaSlow[slow-1] = seed

	fastMult := 2.0 / (float64(fast) + 1)
	slowMult := 2.0 / (float64(slow) + 1)
	for i := slow; i < n; i++ {
		emaFast[i] = (closes[i]-emaFast[i-1])*fastMult + emaFast[i-1]
		emaSlow[i] = (closes[i]-emaSlow[i-1])*slowMult + emaSlow[i-1]
	}

	line.First = slow - 1
	for i := slow - 1; i < n; i++ {
		line.Values[i] = emaFast[i] - emaSlow[i]
	}

	sigStart := slow + signalPeriod - 1
	if n <= sigStart {
		return
	}
	signal.Values[sigStart] = mean(line.Values[slow-1 : sigStart])
	sigMult := 2.0 / (float64(signalPeriod) + 1)
	for i := sigStart + 1; i < n; i++ {
		signal.Values[i] = (line.Values[i]-signal.Values[i-1])*sigMult + signal.Values[i-1]
	}
	signal.First = sigStart

	hist.First = sigStart
	for i := sigStart; i < n; i++ {
		hist.Values[i] = line.Values[i] - signal.Values[i]
	}
	return
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
