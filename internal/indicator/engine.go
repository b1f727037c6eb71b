package indicator

import (
	"RankPulse/internal/domain/models"
)

// Config tunes indicator windows. Zero values fall back to defaults.
type Config struct {
	VolatilityPeriod int     // log-return window for annualized volatility
	BarsPerYear      float64 // annualization factor (daily bars: 252)
}

func (c Config) withDefaults() Config {
	if c.VolatilityPeriod <= 0 {
		c.VolatilityPeriod = 20
	}
	if c.BarsPerYear <= 0 {
		c.BarsPerYear = 252
	}
	return c
}

// Engine derives a MetricSet from a history series and the latest quote.
// Compute is a pure function: the same inputs always produce the same output.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Compute builds the per-cycle metric set. Metrics whose window exceeds the
// available history are marked unavailable rather than computed short.
func (e *Engine) Compute(q models.Quote, bars []models.Bar) models.MetricSet {
	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	m := models.MetricSet{
		Code:         q.Code,
		Timestamp:    q.Timestamp,
		Price:        q.Price,
		PrevClose:    q.PrevClose,
		Change:       q.Price - q.PrevClose,
		ChangeRate:   ChangeRate(q.Price, q.PrevClose),
		Volume:       q.Volume,
		TradingValue: q.TradingValue(),
	}

	if v, ok := SMA(closes, 5); ok {
		m.SMA5 = models.MetricOf(v)
	}
	if v, ok := SMA(closes, 20); ok {
		m.SMA20 = models.MetricOf(v)
	}
	if v, ok := SMA(closes, 60); ok {
		m.SMA60 = models.MetricOf(v)
	}
	if v, ok := WMA(closes, 20); ok {
		m.WMA20 = models.MetricOf(v)
	}
	if v, ok := RSI(closes, 14); ok {
		m.RSI14 = models.MetricOf(v)
	}
	if v, ok := ATR(highs, lows, closes, 14); ok {
		m.ATR14 = models.MetricOf(v)
	}
	if v, ok := AnnualizedVolatility(LogReturns(closes), e.cfg.VolatilityPeriod, e.cfg.BarsPerYear); ok {
		m.Volatility = models.MetricOf(v)
	}
	if q.Low > 0 {
		m.IntradayVolatility = (q.High - q.Low) / q.Low * 100
	}
	if v, ok := RateOfChange(closes, 5); ok {
		m.ROC5 = models.MetricOf(v)
	}
	if v, ok := RateOfChange(closes, 20); ok {
		m.ROC20 = models.MetricOf(v)
	}

	m.UpStreak, m.DownStreak = Streaks(closes)

	if len(bars) > 0 {
		hi, lo := highs[0], lows[0]
		for i := 1; i < len(bars); i++ {
			if highs[i] > hi {
				hi = highs[i]
			}
			if lows[i] < lo {
				lo = lows[i]
			}
		}
		m.High52W = models.MetricOf(hi)
		m.Low52W = models.MetricOf(lo)
		if hi > lo {
			m.PositionInRange = models.MetricOf((q.Price - lo) / (hi - lo) * 100)
		}
	}

	return m
}
