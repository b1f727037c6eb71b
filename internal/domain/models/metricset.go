package models

import "time"

// Metric is a scalar that may be unavailable when history is too short.
// A metric is never silently computed on a short window; Valid is false instead.
type Metric struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// MetricOf wraps a computed value.
func MetricOf(v float64) Metric { return Metric{Value: v, Valid: true} }

// MetricSet is the per-instrument, per-cycle snapshot of derived metrics.
// It is recomputed fully each cycle from the instrument's history series and
// never partially mutated.
type MetricSet struct {
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`

	Price      float64 `json:"price"`
	PrevClose  float64 `json:"prev_close"`
	Change     float64 `json:"change"`
	ChangeRate float64 `json:"change_rate"` // (price-prevClose)/prevClose*100

	Volume       float64 `json:"volume"`
	TradingValue float64 `json:"trading_value"`

	// Moving averages; unavailable until the window is filled.
	SMA5  Metric `json:"sma5"`
	SMA20 Metric `json:"sma20"`
	SMA60 Metric `json:"sma60"`
	WMA20 Metric `json:"wma20"`

	RSI14 Metric `json:"rsi14"`
	ATR14 Metric `json:"atr14"`

	// Volatility is the annualized standard deviation of log returns.
	// IntradayVolatility is the (high-low)/low range variant.
	Volatility         Metric  `json:"volatility"`
	IntradayVolatility float64 `json:"intraday_volatility"`

	// Momentum as multi-period rate of change.
	ROC5  Metric `json:"roc5"`
	ROC20 Metric `json:"roc20"`

	// Consecutive-move state at the latest bar.
	UpStreak   int `json:"up_streak"`
	DownStreak int `json:"down_streak"`

	// Rolling 52-week extremes over the stored window.
	High52W Metric `json:"high_52w"`
	Low52W  Metric `json:"low_52w"`

	// PositionInRange locates the price inside [Low52W, High52W] as 0..100.
	PositionInRange Metric `json:"position_in_range"`
}
