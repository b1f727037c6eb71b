package models

import (
	"math"
	"time"
)

// RankingMetric selects the sort dimension of a ranking query.
type RankingMetric string

const (
	MetricTopGainers   RankingMetric = "TOP_GAINERS"
	MetricTopLosers    RankingMetric = "TOP_LOSERS"
	MetricMostVolatile RankingMetric = "MOST_VOLATILE"
	MetricVolume       RankingMetric = "VOLUME"
	MetricTradingValue RankingMetric = "TRADING_VALUE"
	MetricMomentum     RankingMetric = "MOMENTUM"
)

// RankingQuery is an immutable value object; its canonical form is the cache key.
type RankingQuery struct {
	Metric    RankingMetric
	Market    string // "ALL", "KOSPI", "KOSDAQ"
	Count     int
	MinPrice  float64 // 0 means no filter
	MinVolume float64 // 0 means no filter
}

// RankingItem is one row of a ranking result.
type RankingItem struct {
	Rank         int     `json:"rank"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Market       string  `json:"market"`
	Price        float64 `json:"current_price"`
	PrevClose    float64 `json:"previous_close"`
	Change       float64 `json:"change"`
	ChangeRate   float64 `json:"change_rate"`
	Volume       float64 `json:"volume"`
	TradingValue float64 `json:"trading_value"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Open         float64 `json:"open"`
	Volatility   float64 `json:"volatility"`
}

// MarketSummary aggregates the full (unfiltered) universe of the requested
// market; it is never affected by count or min-price/min-volume truncation.
type MarketSummary struct {
	TotalStocks       int     `json:"total_stocks"`
	Advancing         int     `json:"advancing"`
	Declining         int     `json:"declining"`
	Unchanged         int     `json:"unchanged"`
	AverageChangeRate float64 `json:"average_change_rate"`
	MedianChangeRate  float64 `json:"median_change_rate"`
}

// AdvanceDeclineRatio returns advancing/declining. A market with nothing
// declining is unbounded breadth, so it reports +Inf and buckets as
// VERY_POSITIVE.
func (s MarketSummary) AdvanceDeclineRatio() float64 {
	if s.Declining == 0 {
		return math.Inf(1)
	}
	return float64(s.Advancing) / float64(s.Declining)
}

// Breadth buckets the advance/decline ratio the way the product reports it.
func (s MarketSummary) Breadth() string {
	r := s.AdvanceDeclineRatio()
	switch {
	case r > 2.0:
		return "VERY_POSITIVE"
	case r > 1.5:
		return "POSITIVE"
	case r > 1.0:
		return "SLIGHTLY_POSITIVE"
	case r > 0.5:
		return "SLIGHTLY_NEGATIVE"
	default:
		return "NEGATIVE"
	}
}

// RankingResult ties a sorted, truncated item list to its query and the
// full-universe summary.
type RankingResult struct {
	Metric    RankingMetric `json:"ranking_type"`
	Market    string        `json:"market"`
	Timestamp time.Time     `json:"timestamp"`
	Items     []RankingItem `json:"ranking"`
	Summary   MarketSummary `json:"summary"`
	Breadth   string        `json:"market_breadth"`
}
