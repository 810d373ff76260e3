package indicator

import "math"

// Bollinger computes Bollinger Bands: a trailing simple moving average plus
// upper/lower bands at k population standard deviations. Valid from index
// period-1.
func Bollinger(closes []float64, period int, k float64) (upper, middle, lower Series) {
	n := len(closes)
	upper, middle, lower = absent(n), absent(n), absent(n)
	if period <= 0 || n < period {
		return
	}
	upper.First, middle.First, lower.First = period-1, period-1, period-1

	for i := period - 1; i < n; i++ {
		window := closes[i-period+1 : i+1]
		m := mean(window)
		varSum := 0.0
		for _, v := range window {
			d := v - m
			varSum += d * d
		}
		std := math.Sqrt(varSum / float64(period))
		middle.Values[i] = m
		upper.Values[i] = m + k*std
		lower.Values[i] = m - k*std
	}
	return
}
