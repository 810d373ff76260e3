package pattern

import (
	"reflect"
	"testing"
	"time"

	"FractalSentinel/internal/indicator"
	"FractalSentinel/internal/model"
)

func mkBars(rows [][4]float64) []model.Bar {
	// rows: open, low, close, volume; high derived.
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(rows))
	for i, r := range rows {
		high := r[0]
		if r[2] > high {
			high = r[2]
		}
		bars[i] = model.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   r[0],
			High:   high + 0.2,
			Low:    r[1],
			Close:  r[2],
			Volume: r[3],
		}
	}
	return bars
}

func compute(bars []model.Bar) *indicator.Set {
	return indicator.Compute(bars, indicator.DefaultParams())
}

func TestDetectCausal_VolumeOnlyScoresOne(t *testing.T) {
	// Middle bar is a bottom fractal with rising volume but a bearish
	// candle and no warmed-up indicators: score 1.0.
	bars := mkBars([][4]float64{
		{10.0, 9.8, 10.0, 100},
		{10.0, 9.0, 9.5, 150},
		{9.8, 9.6, 9.8, 120},
	})

	d := New(1.0)
	ev, ok := d.DetectCausal(bars, compute(bars), model.PatternBottom)
	if !ok {
		t.Fatal("expected confirmation at threshold 1.0")
	}
	if ev.Score != 1.0 {
		t.Errorf("expected score 1.0, got %.1f", ev.Score)
	}
	if len(ev.Reasons) != 1 || ev.Reasons[0] != "放量" {
		t.Errorf("expected single reason 放量, got %v", ev.Reasons)
	}
	if ev.Extreme != 9.0 {
		t.Errorf("expected extreme 9.0, got %.2f", ev.Extreme)
	}

	if _, ok := New(DefaultThreshold).DetectCausal(bars, compute(bars), model.PatternBottom); ok {
		t.Error("score 1.0 must not pass the default threshold")
	}
}

func TestDetectCausal_BottomThreeFactors(t *testing.T) {
	// Declining series so the candidate closes below MA10, with a bullish
	// candle and volume expansion: exactly the 3.0 threshold.
	rows := [][4]float64{
		{20.1, 19.7, 20.0, 100},
		{19.6, 19.2, 19.5, 100},
		{19.1, 18.7, 19.0, 100},
		{18.6, 18.2, 18.5, 100},
		{18.1, 17.7, 18.0, 100},
		{17.6, 17.2, 17.5, 100},
		{17.1, 16.7, 17.0, 100},
		{16.6, 16.2, 16.5, 100},
		{16.1, 15.7, 16.0, 100},
		{15.6, 15.0, 15.5, 100},
		{15.0, 14.8, 15.2, 200}, // candidate: bullish, volume up, fractal low
		{15.3, 15.0, 15.4, 150},
	}
	bars := mkBars(rows)

	ev, ok := New(DefaultThreshold).DetectCausal(bars, compute(bars), model.PatternBottom)
	if !ok {
		t.Fatal("expected confirmed bottom fractal")
	}
	if ev.Score != 3.0 {
		t.Errorf("expected score 3.0, got %.1f", ev.Score)
	}
	want := []string{"阳线", "放量", "下降趋势"}
	if len(ev.Reasons) != len(want) {
		t.Fatalf("expected reasons %v, got %v", want, ev.Reasons)
	}
	for i := range want {
		if ev.Reasons[i] != want[i] {
			t.Errorf("reason %d: expected %s, got %s", i, want[i], ev.Reasons[i])
		}
	}
	if !ev.Date.Equal(bars[len(bars)-2].Date) {
		t.Errorf("event date should be the candidate bar, got %v", ev.Date)
	}
}

func TestDetectCausal_TopThreeFactors(t *testing.T) {
	rows := [][4]float64{
		{15.1, 14.9, 15.2, 100},
		{15.6, 15.4, 15.7, 100},
		{16.1, 15.9, 16.2, 100},
		{16.6, 16.4, 16.7, 100},
		{17.1, 16.9, 17.2, 100},
		{17.6, 17.4, 17.7, 100},
		{18.1, 17.9, 18.2, 100},
		{18.6, 18.4, 18.7, 100},
		{19.1, 18.9, 19.2, 100},
		{19.6, 19.4, 19.7, 100},
		{20.4, 19.9, 20.1, 200}, // candidate: bearish, volume up, above MA10
		{19.8, 19.5, 19.9, 150},
	}
	bars := mkBars(rows)

	ev, ok := New(DefaultThreshold).DetectCausal(bars, compute(bars), model.PatternTop)
	if !ok {
		t.Fatal("expected confirmed top fractal")
	}
	if ev.Kind != model.PatternTop {
		t.Errorf("expected TOP kind, got %s", ev.Kind)
	}
	want := []string{"阴线", "放量", "上升趋势"}
	if len(ev.Reasons) != len(want) {
		t.Fatalf("expected reasons %v, got %v", want, ev.Reasons)
	}
}

func TestDetectCausal_NoFractalShape(t *testing.T) {
	// Monotonic lows: no bottom fractal regardless of score.
	bars := mkBars([][4]float64{
		{10.0, 9.0, 10.0, 100},
		{10.0, 9.5, 10.2, 500},
		{10.2, 9.8, 10.4, 100},
	})
	if _, ok := New(0.5).DetectCausal(bars, compute(bars), model.PatternBottom); ok {
		t.Error("expected no detection without the 3-bar shape")
	}
}

func TestDetectCausal_TooFewBars(t *testing.T) {
	bars := mkBars([][4]float64{
		{10.0, 9.0, 10.0, 100},
		{10.0, 9.5, 10.2, 500},
	})
	if _, ok := New(1.0).DetectCausal(bars, compute(bars), model.PatternBottom); ok {
		t.Error("expected no detection with fewer than 3 bars")
	}
}

func TestDetectCausal_IgnoresEarlierFractals(t *testing.T) {
	// A strong fractal in the middle of the window must not surface; only
	// index len-2 is a candidate.
	rows := [][4]float64{
		{10.0, 9.8, 10.0, 100},
		{9.7, 9.0, 9.8, 500}, // would-be fractal, not the candidate
		{9.9, 9.7, 10.0, 100},
		{10.0, 9.9, 10.1, 100},
		{10.1, 10.0, 10.2, 100},
	}
	bars := mkBars(rows)
	if _, ok := New(0.5).DetectCausal(bars, compute(bars), model.PatternBottom); ok {
		t.Error("expected no detection when the candidate index is not a fractal")
	}
}

func TestDetectAll_FindsInteriorFractals(t *testing.T) {
	rows := [][4]float64{
		{10.0, 9.8, 10.0, 100},
		{9.7, 9.0, 9.8, 500},
		{9.9, 9.7, 10.0, 100},
		{10.0, 9.9, 10.1, 100},
		{9.8, 9.3, 9.9, 600},
		{10.0, 9.8, 10.1, 100},
	}
	bars := mkBars(rows)
	events := New(0.5).DetectAll(bars, compute(bars), model.PatternBottom)
	if len(events) != 2 {
		t.Fatalf("expected 2 bottom fractals, got %d", len(events))
	}
	if !events[0].Date.Equal(bars[1].Date) || !events[1].Date.Equal(bars[4].Date) {
		t.Errorf("unexpected fractal dates: %v, %v", events[0].Date, events[1].Date)
	}
}

func TestDetectCausal_RepeatedEvaluationIsStable(t *testing.T) {
	bars := mkBars([][4]float64{
		{10.0, 9.8, 10.0, 100},
		{10.0, 9.0, 9.5, 150},
		{9.8, 9.6, 9.8, 120},
	})
	d := New(1.0)
	ind := compute(bars)

	first, ok := d.DetectCausal(bars, ind, model.PatternBottom)
	if !ok {
		t.Fatal("expected confirmation on the first evaluation")
	}
	second, ok := d.DetectCausal(bars, ind, model.PatternBottom)
	if !ok {
		t.Fatal("second evaluation of the same window lost the event")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated evaluation diverged:\nfirst: %+v\nsecond: %+v", first, second)
	}
}

func TestDetectAll_LaterBarsDoNotAffectEarlierEvents(t *testing.T) {
	rows := [][4]float64{
		{10.0, 9.8, 10.0, 100},
		{9.7, 9.0, 9.8, 500},
		{9.9, 9.7, 10.0, 100},
		{10.0, 9.9, 10.1, 100},
		{9.8, 9.3, 9.9, 600},
		{10.0, 9.8, 10.1, 100},
	}
	bars := mkBars(rows)
	events := New(0.5).DetectAll(bars, compute(bars), model.PatternBottom)
	if len(events) == 0 {
		t.Fatal("expected a fractal on the base series")
	}

	// Rewrite everything after the first fractal's confirming bar into a
	// crash; the event already emitted for that fractal must not change.
	altRows := append([][4]float64{}, rows[:3]...)
	altRows = append(altRows,
		[4]float64{9.0, 8.0, 8.5, 900},
		[4]float64{8.4, 7.5, 8.0, 900},
		[4]float64{8.1, 7.8, 8.3, 900},
	)
	altered := mkBars(altRows)
	again := New(0.5).DetectAll(altered, compute(altered), model.PatternBottom)
	if len(again) == 0 {
		t.Fatal("expected the first fractal to survive the rewrite")
	}
	if !reflect.DeepEqual(events[0], again[0]) {
		t.Errorf("event changed when later bars did:\nbase:    %+v\naltered: %+v", events[0], again[0])
	}
}

func TestNew_NonPositiveThresholdFallsBack(t *testing.T) {
	if d := New(0); d.Threshold != DefaultThreshold {
		t.Errorf("expected default threshold, got %.1f", d.Threshold)
	}
	if d := New(-1); d.Threshold != DefaultThreshold {
		t.Errorf("expected default threshold, got %.1f", d.Threshold)
	}
}
