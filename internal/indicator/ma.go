package indicator

// SMA computes the simple moving average over a trailing window.
// Valid from index period-1.
func SMA(values []float64, period int) Series {
	n := len(values)
	if period <= 0 || n < period {
		return absent(n)
	}
	out := Series{Values: make([]float64, n), First: period - 1}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out.Values[period-1] = sum / float64(period)
	for i := period; i < n; i++ {
		sum += values[i] - values[i-period]
		out.Values[i] = sum / float64(period)
	}
	return out
}
