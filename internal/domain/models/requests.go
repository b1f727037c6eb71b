package models

// Requests for the ranking/alert HTTP endpoints. Defined in domain for
// consistency and reuse; bound from query parameters, defaulted, validated.

type PriceRankingRequest struct {
	RankingType string  `query:"ranking_type" json:"ranking_type" default:"TOP_GAINERS" validate:"oneof=TOP_GAINERS TOP_LOSERS MOST_VOLATILE"`
	Market      string  `query:"market" json:"market" default:"ALL" validate:"oneof=ALL KOSPI KOSDAQ"`
	Count       int     `query:"count" json:"count" default:"20" validate:"gte=1,lte=100"`
	MinPrice    float64 `query:"min_price" json:"min_price" validate:"gte=0"`
	MinVolume   float64 `query:"min_volume" json:"min_volume" validate:"gte=0"`
}

type VolatilityRankingRequest struct {
	Market    string  `query:"market" json:"market" default:"ALL" validate:"oneof=ALL KOSPI KOSDAQ"`
	Count     int     `query:"count" json:"count" default:"20" validate:"gte=1,lte=100"`
	MinPrice  float64 `query:"min_price" json:"min_price" validate:"gte=0"`
	MinVolume float64 `query:"min_volume" json:"min_volume" validate:"gte=0"`
}

type HighLowRequest struct {
	Type   string `query:"type" json:"type" default:"HIGH" validate:"oneof=HIGH LOW BOTH"`
	Market string `query:"market" json:"market" default:"ALL" validate:"oneof=ALL KOSPI KOSDAQ"`
	Count  int    `query:"count" json:"count" default:"20" validate:"gte=1,lte=100"`
	// BreakthroughOnly keeps only instruments within striking distance of the level.
	BreakthroughOnly bool `query:"breakthrough_only" json:"breakthrough_only"`
}

type LimitStocksRequest struct {
	LimitType string `query:"limit_type" json:"limit_type" default:"BOTH" validate:"oneof=UPPER LOWER BOTH"`
	Market    string `query:"market" json:"market" default:"ALL" validate:"oneof=ALL KOSPI KOSDAQ"`
	Count     int    `query:"count" json:"count" default:"20" validate:"gte=1,lte=100"`
}

type StreakRequest struct {
	Direction string `query:"direction" json:"direction" default:"UP" validate:"oneof=UP DOWN"`
	MinDays   int    `query:"min_days" json:"min_days" default:"3" validate:"gte=1,lte=30"`
	Market    string `query:"market" json:"market" default:"ALL" validate:"oneof=ALL KOSPI KOSDAQ"`
	Count     int    `query:"count" json:"count" default:"20" validate:"gte=1,lte=100"`
}

type GapRequest struct {
	Direction string `query:"direction" json:"direction" default:"BOTH" validate:"oneof=UP DOWN BOTH"`
	Market    string `query:"market" json:"market" default:"ALL" validate:"oneof=ALL KOSPI KOSDAQ"`
	Count     int    `query:"count" json:"count" default:"20" validate:"gte=1,lte=100"`
	// SignificantOnly drops gaps below the configured significance threshold.
	SignificantOnly bool `query:"significant_only" json:"significant_only" default:"true"`
}

type MarketSummaryRequest struct {
	Market string `query:"market" json:"market" default:"ALL" validate:"oneof=ALL KOSPI KOSDAQ"`
}

type AlertsRequest struct {
	Market      string `query:"market" json:"market" default:"ALL" validate:"oneof=ALL KOSPI KOSDAQ"`
	Kind        string `query:"kind" json:"kind"`
	MinPriority string `query:"min_priority" json:"min_priority" default:"LOW" validate:"oneof=LOW MEDIUM HIGH VERY_HIGH"`
	Count       int    `query:"count" json:"count" default:"50" validate:"gte=1,lte=200"`
}
