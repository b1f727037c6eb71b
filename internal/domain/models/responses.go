package models

import "time"

// HighLowEntry is one instrument's 52-week range view.
type HighLowEntry struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Market     string  `json:"market"`
	Price      float64 `json:"current_price"`
	ChangeRate float64 `json:"change_rate"`
	High52W    float64 `json:"high_52w"`
	Low52W     float64 `json:"low_52w"`
	// HighBreakthroughRate is (price-high)/high*100; negative means below the high.
	HighBreakthroughRate float64 `json:"high_breakthrough_rate"`
	// LowBreakthroughRate is (price-low)/low*100; positive means above the low.
	LowBreakthroughRate float64 `json:"low_breakthrough_rate"`
	HighLowRange        float64 `json:"high_low_range"`    // (high-low)/low*100
	PositionInRange     float64 `json:"position_in_range"` // 0..100
	IsNewHigh           bool    `json:"is_new_high"`
	IsNewLow            bool    `json:"is_new_low"`
}

// HighLowResult aggregates new 52-week highs and lows for a market.
type HighLowResult struct {
	Market         string         `json:"market"`
	Timestamp      time.Time      `json:"timestamp"`
	NewHighs       []HighLowEntry `json:"new_highs"`
	NewLows        []HighLowEntry `json:"new_lows"`
	TotalHighs     int            `json:"total_highs"`
	TotalLows      int            `json:"total_lows"`
	HighLowRatio   float64        `json:"high_low_ratio"` // highs / max(lows, 1)
	MarketStrength string         `json:"market_strength"`
}

// StrengthBucket maps the high/low ratio onto the reported market strength.
func StrengthBucket(ratio float64) string {
	switch {
	case ratio >= 3.0:
		return "VERY_STRONG"
	case ratio >= 2.0:
		return "STRONG"
	case ratio >= 1.5:
		return "MODERATE"
	case ratio >= 1.0:
		return "WEAK"
	default:
		return "VERY_WEAK"
	}
}

// MarketSummaryResult is the market-overview response.
type MarketSummaryResult struct {
	Market    string        `json:"market"`
	Timestamp time.Time     `json:"timestamp"`
	Summary   MarketSummary `json:"summary"`
	// AdvanceDeclineRatio is serialized as advancing / max(declining, 1) so an
	// all-advancing market stays representable in JSON.
	AdvanceDeclineRatio float64 `json:"advance_decline_ratio"`
	Breadth             string  `json:"market_breadth"`
}

// QuoteResult is the single-instrument view of the latest committed cycle.
type QuoteResult struct {
	Timestamp time.Time `json:"timestamp"`
	Quote     Quote     `json:"quote"`
	Metrics   MetricSet `json:"metrics"`
	Patterns  []Pattern `json:"patterns,omitempty"`
}

// LimitEntry is one instrument at or near the KRX daily price limit.
type LimitEntry struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Market     string  `json:"market"`
	Price      float64 `json:"current_price"`
	PrevClose  float64 `json:"previous_close"`
	ChangeRate float64 `json:"change_rate"`
	LimitRate  float64 `json:"limit_rate"` // |change rate| / band * 100
	LimitType  string  `json:"limit_type"` // UPPER or LOWER
	AtLimit    bool    `json:"at_limit"`
}

// LimitResult aggregates limit-price instruments and the implied sentiment.
type LimitResult struct {
	Market     string       `json:"market"`
	Timestamp  time.Time    `json:"timestamp"`
	Items      []LimitEntry `json:"limit_stocks"`
	UpperCount int          `json:"upper_count"`
	LowerCount int          `json:"lower_count"`
	Sentiment  string       `json:"sentiment"`
}

// SentimentBucket maps upper/lower limit counts onto market sentiment.
func SentimentBucket(upper, lower int) string {
	switch {
	case upper > 0 && lower == 0:
		return "VERY_BULLISH"
	case upper > lower*2:
		return "BULLISH"
	case lower > 0 && upper == 0:
		return "VERY_BEARISH"
	case lower > upper*2:
		return "BEARISH"
	default:
		return "NEUTRAL"
	}
}

// StreakEntry is one instrument on a consecutive up or down run.
type StreakEntry struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Market     string  `json:"market"`
	Price      float64 `json:"current_price"`
	ChangeRate float64 `json:"change_rate"`
	Direction  string  `json:"direction"` // UP or DOWN
	Days       int     `json:"consecutive_days"`
}

// StreakResult lists instruments with streaks of at least the requested length.
type StreakResult struct {
	Market    string        `json:"market"`
	Timestamp time.Time     `json:"timestamp"`
	MinDays   int           `json:"min_days"`
	Items     []StreakEntry `json:"streak_stocks"`
	UpCount   int           `json:"up_count"`
	DownCount int           `json:"down_count"`
}

// GapEntry is one instrument that opened away from its previous close.
type GapEntry struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Market      string  `json:"market"`
	PrevClose   float64 `json:"previous_close"`
	Open        float64 `json:"open"`
	Price       float64 `json:"current_price"`
	GapRate     float64 `json:"gap_rate"`
	Direction   string  `json:"direction"` // UP or DOWN
	Significant bool    `json:"significant"`
}

// GapResult lists gap instruments for a market.
type GapResult struct {
	Market    string     `json:"market"`
	Timestamp time.Time  `json:"timestamp"`
	Items     []GapEntry `json:"gap_stocks"`
	UpCount   int        `json:"up_count"`
	DownCount int        `json:"down_count"`
}

// AlertView is an emitted alert decorated with follow-up performance
// computed from the latest committed cycle.
type AlertView struct {
	Alert
	AgeSecs          int     `json:"age_seconds"`
	PriceNow         float64 `json:"current_price"`
	ChangeSinceAlert float64 `json:"change_since_alert"`
}

// AlertsResult is the recent-alerts response.
type AlertsResult struct {
	Timestamp time.Time   `json:"timestamp"`
	Total     int         `json:"total"`
	Alerts    []AlertView `json:"alerts"`
}
