// Package pattern detects 3-bar fractal turning points (bottom and top)
// and scores them against an additive multi-indicator confirmation model.
//
// The same scoring routine backs two evaluation modes: DetectAll scans the
// whole series and is for retrospective reporting only; DetectCausal
// evaluates just the most recently confirmed bar of a window and is the
// only mode the simulator and monitor may use for decisions.
package pattern

import (
	"FractalSentinel/internal/indicator"
	"FractalSentinel/internal/model"
)

// Factor weights.
const (
	weightCandle   = 1.0
	weightVolume   = 1.0
	weightTrend    = 1.0
	weightRSI      = 2.0
	weightBand     = 1.5
	weightMomentum = 1.5
)

// DefaultThreshold is the minimum confirmation score for a valid fractal.
const DefaultThreshold = 3.0

// Detector scores fractal candidates. Zero value is not usable; use New.
type Detector struct {
	Threshold     float64
	RSIOversold   float64
	RSIOverbought float64
}

// New returns a Detector with the given score threshold and standard RSI
// extremes (30/70).
func New(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{
		Threshold:     threshold,
		RSIOversold:   30,
		RSIOverbought: 70,
	}
}

// DetectAll scans every valid fractal index 1..n-2 of the full series.
// It sees bars beyond each candidate, so its output must never drive
// trading decisions; it exists for reports and visual inspection.
func (d *Detector) DetectAll(bars []model.Bar, ind *indicator.Set, kind model.PatternKind) []model.PatternEvent {
	var events []model.PatternEvent
	for i := 1; i+1 < len(bars); i++ {
		if ev, ok := d.evaluate(bars, ind, i, kind); ok {
			events = append(events, ev)
		}
	}
	return events
}

// DetectCausal evaluates only the fractal candidate at index len(bars)-2,
// the most recent bar whose right neighbor is known. The indicator set must
// be computed over exactly the given window; every indicator is a trailing
// or recurrent construction, so no value depends on bars past its own index.
func (d *Detector) DetectCausal(bars []model.Bar, ind *indicator.Set, kind model.PatternKind) (model.PatternEvent, bool) {
	if len(bars) < 3 {
		return model.PatternEvent{}, false
	}
	return d.evaluate(bars, ind, len(bars)-2, kind)
}

// evaluate checks the fractal shape at index i and, if it holds, sums the
// confirmation factors. Returns the event and whether the score reached the
// threshold. Requires 1 <= i <= len(bars)-2.
func (d *Detector) evaluate(bars []model.Bar, ind *indicator.Set, i int, kind model.PatternKind) (model.PatternEvent, bool) {
	if kind == model.PatternTop {
		if !(bars[i].High > bars[i-1].High && bars[i].High > bars[i+1].High) {
			return model.PatternEvent{}, false
		}
		score, reasons := d.scoreTop(bars, ind, i)
		if score < d.Threshold {
			return model.PatternEvent{}, false
		}
		return model.PatternEvent{
			Date:    bars[i].Date,
			Kind:    model.PatternTop,
			Price:   bars[i].Close,
			Extreme: bars[i].High,
			Volume:  bars[i].Volume,
			Score:   score,
			Reasons: reasons,
		}, true
	}

	if !(bars[i].Low < bars[i-1].Low && bars[i].Low < bars[i+1].Low) {
		return model.PatternEvent{}, false
	}
	score, reasons := d.scoreBottom(bars, ind, i)
	if score < d.Threshold {
		return model.PatternEvent{}, false
	}
	return model.PatternEvent{
		Date:    bars[i].Date,
		Kind:    model.PatternBottom,
		Price:   bars[i].Close,
		Extreme: bars[i].Low,
		Volume:  bars[i].Volume,
		Score:   score,
		Reasons: reasons,
	}, true
}

// scoreBottom sums the bottom confirmation factors at index i. A factor
// whose indicator has not warmed up contributes nothing.
func (d *Detector) scoreBottom(bars []model.Bar, ind *indicator.Set, i int) (float64, []string) {
	score := 0.0
	var reasons []string

	if bars[i].Close > bars[i].Open {
		score += weightCandle
		reasons = append(reasons, "阳线")
	}
	if bars[i].Volume > bars[i-1].Volume {
		score += weightVolume
		reasons = append(reasons, "放量")
	}
	if ma10, ok := ind.MA10.At(i); ok && bars[i].Close < ma10 {
		score += weightTrend
		reasons = append(reasons, "下降趋势")
	}
	if rsi, ok := ind.RSI.At(i); ok && rsi < d.RSIOversold {
		score += weightRSI
		reasons = append(reasons, "RSI低位")
	}
	if lower, ok := ind.BBLower.At(i); ok && bars[i].Low <= lower {
		score += weightBand
		reasons = append(reasons, "布林下轨支撑")
	}
	if macd, ok := ind.MACD.At(i); ok {
		if hist, ok := ind.MACDHist.At(i); ok {
			if prev, ok := ind.MACDHist.At(i - 1); ok && macd < 0 && hist > prev {
				score += weightMomentum
				reasons = append(reasons, "MACD底部反转")
			}
		}
	}
	return score, reasons
}

// scoreTop mirrors scoreBottom with inverted comparisons.
func (d *Detector) scoreTop(bars []model.Bar, ind *indicator.Set, i int) (float64, []string) {
	score := 0.0
	var reasons []string

	if bars[i].Close < bars[i].Open {
		score += weightCandle
		reasons = append(reasons, "阴线")
	}
	if bars[i].Volume > bars[i-1].Volume {
		score += weightVolume
		reasons = append(reasons, "放量")
	}
	if ma10, ok := ind.MA10.At(i); ok && bars[i].Close > ma10 {
		score += weightTrend
		reasons = append(reasons, "上升趋势")
	}
	if rsi, ok := ind.RSI.At(i); ok && rsi > d.RSIOverbought {
		score += weightRSI
		reasons = append(reasons, "RSI高位")
	}
	if upper, ok := ind.BBUpper.At(i); ok && bars[i].High >= upper {
		score += weightBand
		reasons = append(reasons, "布林上轨阻力")
	}
	if macd, ok := ind.MACD.At(i); ok {
		if hist, ok := ind.MACDHist.At(i); ok {
			if prev, ok := ind.MACDHist.At(i - 1); ok && macd > 0 && hist < prev {
				score += weightMomentum
				reasons = append(reasons, "MACD顶部转向")
			}
		}
	}
	return score, reasons
}
