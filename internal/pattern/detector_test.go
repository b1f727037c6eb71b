package pattern

import (
	"math"
	"testing"
	"time"

	"RankPulse/internal/domain/models"
)

func flatBars(n int, price float64) []models.Bar {
	bars := make([]models.Bar, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    1000,
		}
	}
	return bars
}

func findKind(ps []models.Pattern, kind models.PatternKind) (models.Pattern, bool) {
	for _, p := range ps {
		if p.Kind == kind {
			return p, true
		}
	}
	return models.Pattern{}, false
}

func TestDetectGapUp(t *testing.T) {
	d := NewDetector(Config{})
	bars := flatBars(3, 4800)
	// Open gaps 8.33% above the previous close.
	bars[2].Open = 5200
	bars[2].High = 5250
	bars[2].Close = 5210

	ps := d.Detect("005930", bars, models.MetricSet{Timestamp: bars[2].Timestamp})
	p, ok := findKind(ps, models.PatternGapUp)
	if !ok {
		t.Fatalf("expected a gap_up pattern, got %v", ps)
	}
	if p.Direction != models.Bullish {
		t.Fatalf("gap up must be bullish")
	}
	if math.Abs(p.GapRate-8.333333333333334) > 1e-6 {
		t.Fatalf("unexpected gap rate %v", p.GapRate)
	}
	if p.Code != "005930" {
		t.Fatalf("pattern must carry the instrument code")
	}
}

func TestDetectGapBelowThresholdIgnored(t *testing.T) {
	d := NewDetector(Config{GapThreshold: 3.0})
	bars := flatBars(3, 10000)
	bars[2].Open = 10200 // 2%, below threshold

	ps := d.Detect("005930", bars, models.MetricSet{})
	if _, ok := findKind(ps, models.PatternGapUp); ok {
		t.Fatalf("insignificant gap must not fire")
	}
}

func TestDetectBreakout(t *testing.T) {
	d := NewDetector(Config{BreakoutWindow: 5})
	bars := flatBars(7, 100)
	// Latest close clears the 5-bar rolling high of 100.
	bars[6].Close = 103
	bars[6].High = 104

	ps := d.Detect("000660", bars, models.MetricSet{})
	p, ok := findKind(ps, models.PatternBreakout)
	if !ok {
		t.Fatalf("expected breakout, got %v", ps)
	}
	if p.Level != 100 {
		t.Fatalf("breakout level must exclude the latest bar, got %v", p.Level)
	}
	if p.Confidence < 50 || p.Confidence > 100 {
		t.Fatalf("confidence out of range: %v", p.Confidence)
	}
}

func TestDetectBreakdown(t *testing.T) {
	d := NewDetector(Config{BreakoutWindow: 5})
	bars := flatBars(7, 100)
	bars[6].Close = 96
	bars[6].Low = 95

	ps := d.Detect("000660", bars, models.MetricSet{})
	p, ok := findKind(ps, models.PatternBreakdown)
	if !ok {
		t.Fatalf("expected breakdown, got %v", ps)
	}
	if p.Direction != models.Bearish {
		t.Fatalf("breakdown must be bearish")
	}
}

func TestDetectStreakMinimum(t *testing.T) {
	d := NewDetector(Config{StreakMin: 3})

	ps := d.Detect("005930", flatBars(5, 100), models.MetricSet{UpStreak: 2})
	if _, ok := findKind(ps, models.PatternStreak); ok {
		t.Fatalf("streak below minimum must not fire")
	}

	ps = d.Detect("005930", flatBars(5, 100), models.MetricSet{DownStreak: 4})
	p, ok := findKind(ps, models.PatternStreak)
	if !ok || p.Direction != models.Bearish {
		t.Fatalf("expected bearish streak, got %v", ps)
	}
}

func TestDetectShortHistoryIsQuiet(t *testing.T) {
	d := NewDetector(Config{})
	ps := d.Detect("005930", flatBars(1, 100), models.MetricSet{})
	if len(ps) != 0 {
		t.Fatalf("one bar must yield no patterns, got %v", ps)
	}
}

func TestDetectVReversal(t *testing.T) {
	d := NewDetector(Config{ReversalMove: 5.0, TriangleWindow: 10})
	closes := []float64{110, 105, 100, 95, 100, 105, 110}
	bars := flatBars(len(closes), 100)
	for i, c := range closes {
		bars[i].Open = c
		bars[i].High = c + 1
		bars[i].Low = c - 1
		bars[i].Close = c
	}

	ps := d.Detect("005930", bars, models.MetricSet{})
	p, ok := findKind(ps, models.PatternVReversal)
	if !ok {
		t.Fatalf("expected v_reversal, got %v", ps)
	}
	if p.Level != 95 {
		t.Fatalf("reversal level must be the window low, got %v", p.Level)
	}
}

func TestFindPivots(t *testing.T) {
	data := []float64{1, 2, 5, 2, 1, 2, 6, 2, 1}
	highs := FindPivotHighs(data, 2, 2)
	if len(highs) != 2 || highs[0].Price != 5 || highs[1].Price != 6 {
		t.Fatalf("unexpected pivot highs: %v", highs)
	}

	lows := FindPivotLows([]float64{5, 3, 1, 3, 5, 3, 2, 3, 5}, 2, 2)
	if len(lows) != 2 || lows[0].Price != 1 || lows[1].Price != 2 {
		t.Fatalf("unexpected pivot lows: %v", lows)
	}
}
