package pattern

import (
	"math"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/indicator"
)

// Config holds detector windows and thresholds. The confidence constants are
// tunable; confidence stays within [0,100] and is monotonic in how cleanly
// the structural criteria are met.
type Config struct {
	BreakoutWindow    int     // trailing bars for rolling extreme (default 20)
	BreakoutTolerance float64 // percent below the level that still triggers (default 2.0)
	GapThreshold      float64 // percent gap considered significant (default 3.0)
	TriangleWindow    int     // trailing bars for trend fits (default 30)
	PivotSpan         int     // bars each side of a pivot (default 2)
	PeakTolerance     float64 // percent price distance for equal peaks (default 2.0)
	StreakMin         int     // minimum consecutive moves to report (default 3)
	ReversalMove      float64 // percent leg size for a V-reversal (default 5.0)
}

func (c Config) withDefaults() Config {
	if c.BreakoutWindow <= 0 {
		c.BreakoutWindow = 20
	}
	if c.BreakoutTolerance <= 0 {
		c.BreakoutTolerance = 2.0
	}
	if c.GapThreshold <= 0 {
		c.GapThreshold = 3.0
	}
	if c.TriangleWindow <= 0 {
		c.TriangleWindow = 30
	}
	if c.PivotSpan <= 0 {
		c.PivotSpan = 2
	}
	if c.PeakTolerance <= 0 {
		c.PeakTolerance = 2.0
	}
	if c.StreakMin <= 0 {
		c.StreakMin = 3
	}
	if c.ReversalMove <= 0 {
		c.ReversalMove = 5.0
	}
	return c
}

// Detector runs every structural detector over a history series. Detectors
// are side-effect-free and independent: the absence of one pattern never
// suppresses another.
type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg.withDefaults()}
}

// GapThreshold exposes the configured significance threshold.
func (d *Detector) GapThreshold() float64 { return d.cfg.GapThreshold }

// Detect returns zero or more patterns for the instrument, at most one per kind.
func (d *Detector) Detect(code string, bars []models.Bar, m models.MetricSet) []models.Pattern {
	var out []models.Pattern
	appendIf := func(p *models.Pattern) {
		if p != nil {
			p.Code = code
			p.Timestamp = m.Timestamp
			out = append(out, *p)
		}
	}

	appendIf(d.breakout(bars))
	appendIf(d.breakdown(bars))
	appendIf(d.gap(bars))
	appendIf(d.streak(m))
	appendIf(d.triangle(bars))
	appendIf(d.doubleTop(bars))
	appendIf(d.doubleBottom(bars))
	appendIf(d.vReversal(bars))
	return out
}

// breakout fires when the latest close is within tolerance below, or above,
// the rolling max high of the trailing window.
func (d *Detector) breakout(bars []models.Bar) *models.Pattern {
	n := len(bars)
	if n < d.cfg.BreakoutWindow+1 {
		return nil
	}
	level := bars[n-1-d.cfg.BreakoutWindow].High
	for _, b := range bars[n-d.cfg.BreakoutWindow : n-1] {
		if b.High > level {
			level = b.High
		}
	}
	if level <= 0 {
		return nil
	}
	close := bars[n-1].Close
	exceed := (close - level) / level * 100
	if exceed < -d.cfg.BreakoutTolerance {
		return nil
	}
	return &models.Pattern{
		Kind:       models.PatternBreakout,
		Direction:  models.Bullish,
		Confidence: clamp(50 + exceed*25),
		Level:      level,
		Target:     level * 1.05,
		Stop:       level * 0.97,
	}
}

func (d *Detector) breakdown(bars []models.Bar) *models.Pattern {
	n := len(bars)
	if n < d.cfg.BreakoutWindow+1 {
		return nil
	}
	level := bars[n-1-d.cfg.BreakoutWindow].Low
	for _, b := range bars[n-d.cfg.BreakoutWindow : n-1] {
		if b.Low < level {
			level = b.Low
		}
	}
	if level <= 0 {
		return nil
	}
	close := bars[n-1].Close
	exceed := (level - close) / level * 100
	if exceed < -d.cfg.BreakoutTolerance {
		return nil
	}
	return &models.Pattern{
		Kind:       models.PatternBreakdown,
		Direction:  models.Bearish,
		Confidence: clamp(50 + exceed*25),
		Level:      level,
		Target:     level * 0.95,
		Stop:       level * 1.03,
	}
}

// gap compares the current bar's open to the previous bar's close and fires
// only on significant gaps.
func (d *Detector) gap(bars []models.Bar) *models.Pattern {
	n := len(bars)
	if n < 2 {
		return nil
	}
	prevClose := bars[n-2].Close
	if prevClose == 0 {
		return nil
	}
	rate := (bars[n-1].Open - prevClose) / prevClose * 100
	if math.Abs(rate) < d.cfg.GapThreshold {
		return nil
	}
	kind, dir := models.PatternGapUp, models.Bullish
	if rate < 0 {
		kind, dir = models.PatternGapDown, models.Bearish
	}
	return &models.Pattern{
		Kind:       kind,
		Direction:  dir,
		Confidence: clamp(math.Abs(rate) / d.cfg.GapThreshold * 50),
		GapRate:    rate,
	}
}

func (d *Detector) streak(m models.MetricSet) *models.Pattern {
	length, dir := m.UpStreak, models.Bullish
	if m.DownStreak > length {
		length, dir = m.DownStreak, models.Bearish
	}
	if length < d.cfg.StreakMin {
		return nil
	}
	return &models.Pattern{
		Kind:       models.PatternStreak,
		Direction:  dir,
		Confidence: clamp(float64(length) / float64(d.cfg.StreakMin) * 50),
	}
}

// triangle fits lines to the trailing highs and lows; convergence requires a
// falling high trend and a rising low trend with the highs flattening slower.
func (d *Detector) triangle(bars []models.Bar) *models.Pattern {
	n := len(bars)
	w := d.cfg.TriangleWindow
	if n < w {
		return nil
	}
	highs := make([]float64, w)
	lows := make([]float64, w)
	for i, b := range bars[n-w:] {
		highs[i] = b.High
		lows[i] = b.Low
	}
	hSlope := indicator.Slope(highs)
	lSlope := indicator.Slope(lows)
	if hSlope >= 0 || lSlope <= 0 || math.Abs(hSlope) >= math.Abs(lSlope) {
		return nil
	}

	// Line values at the latest bar.
	hNow := highs[0] + hSlope*float64(w-1)
	lNow := lows[0] + lSlope*float64(w-1)
	if hNow <= lNow {
		return nil
	}
	span0 := highs[0] - lows[0]
	if span0 <= 0 {
		return nil
	}
	tightness := 1 - (hNow-lNow)/span0 // 0..1, higher the closer to the apex

	close := bars[n-1].Close
	mid := (hNow + lNow) / 2
	dir := models.Neutral
	if close > mid {
		dir = models.Bullish
	} else if close < mid {
		dir = models.Bearish
	}
	return &models.Pattern{
		Kind:       models.PatternTriangle,
		Direction:  dir,
		Confidence: clamp(tightness * 100),
		Level:      mid,
	}
}

func (d *Detector) doubleTop(bars []models.Bar) *models.Pattern {
	n := len(bars)
	if n < d.cfg.PivotSpan*2+3 {
		return nil
	}
	highs := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
	}
	peaks := FindPivotHighs(highs, d.cfg.PivotSpan, d.cfg.PivotSpan)
	if len(peaks) < 2 {
		return nil
	}
	a, b := peaks[len(peaks)-2], peaks[len(peaks)-1]
	if a.Price <= 0 {
		return nil
	}
	diff := math.Abs(b.Price-a.Price) / a.Price * 100
	if diff > d.cfg.PeakTolerance {
		return nil
	}
	// Trough between the peaks defines the neckline.
	neck := bars[a.Index].Low
	for i := a.Index; i <= b.Index; i++ {
		if bars[i].Low < neck {
			neck = bars[i].Low
		}
	}
	return &models.Pattern{
		Kind:      models.PatternDoubleTop,
		Direction: models.Bearish,
		// Cleaner when the two peaks are nearer in price.
		Confidence: clamp(100 - diff/d.cfg.PeakTolerance*50),
		Level:      neck,
		Target:     neck - (a.Price - neck),
	}
}

func (d *Detector) doubleBottom(bars []models.Bar) *models.Pattern {
	n := len(bars)
	if n < d.cfg.PivotSpan*2+3 {
		return nil
	}
	lows := make([]float64, n)
	for i, b := range bars {
		lows[i] = b.Low
	}
	troughs := FindPivotLows(lows, d.cfg.PivotSpan, d.cfg.PivotSpan)
	if len(troughs) < 2 {
		return nil
	}
	a, b := troughs[len(troughs)-2], troughs[len(troughs)-1]
	if a.Price <= 0 {
		return nil
	}
	diff := math.Abs(b.Price-a.Price) / a.Price * 100
	if diff > d.cfg.PeakTolerance {
		return nil
	}
	neck := bars[a.Index].High
	for i := a.Index; i <= b.Index; i++ {
		if bars[i].High > neck {
			neck = bars[i].High
		}
	}
	return &models.Pattern{
		Kind:       models.PatternDoubleBottom,
		Direction:  models.Bullish,
		Confidence: clamp(100 - diff/d.cfg.PeakTolerance*50),
		Level:      neck,
		Target:     neck + (neck - a.Price),
	}
}

// vReversal looks for a decline of at least ReversalMove percent into the
// window minimum followed by a recovery of the same size.
func (d *Detector) vReversal(bars []models.Bar) *models.Pattern {
	n := len(bars)
	if n < 5 {
		return nil
	}
	start := 0
	if n > d.cfg.TriangleWindow {
		start = n - d.cfg.TriangleWindow
	}
	window := bars[start:]

	lowIdx := 0
	for i, b := range window {
		if b.Close < window[lowIdx].Close {
			lowIdx = i
		}
	}
	if lowIdx == 0 || lowIdx == len(window)-1 {
		return nil
	}
	low := window[lowIdx].Close
	if low <= 0 {
		return nil
	}
	drop := (window[0].Close - low) / low * 100
	rise := (window[len(window)-1].Close - low) / low * 100
	if drop < d.cfg.ReversalMove || rise < d.cfg.ReversalMove {
		return nil
	}
	return &models.Pattern{
		Kind:       models.PatternVReversal,
		Direction:  models.Bullish,
		Confidence: clamp(math.Min(drop, rise) / d.cfg.ReversalMove * 50),
		Level:      low,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
