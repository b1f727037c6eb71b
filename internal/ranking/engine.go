package ranking

import (
	"sort"
	"time"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/domain/repository"
)

// Engine ranks a committed cycle snapshot. It holds no state between calls;
// every invocation works on the immutable states it is handed.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Rank filters, orders and truncates the universe for one query. The summary
// always covers the full (market-filtered, unfiltered otherwise) universe, so
// count and min-price/min-volume never skew the aggregate view.
func (e *Engine) Rank(q models.RankingQuery, states []models.InstrumentState, at time.Time) models.RankingResult {
	market := repository.NormalizeMarket(q.Market)

	universe := make([]models.InstrumentState, 0, len(states))
	for _, s := range states {
		if market.Matches(s.Quote.Market) {
			universe = append(universe, s)
		}
	}

	summary := Summarize(universe)

	filtered := make([]models.InstrumentState, 0, len(universe))
	for _, s := range universe {
		if q.MinPrice > 0 && s.Quote.Price < q.MinPrice {
			continue
		}
		if q.MinVolume > 0 && s.Quote.Volume < q.MinVolume {
			continue
		}
		filtered = append(filtered, s)
	}

	sortByMetric(filtered, q.Metric)

	count := q.Count
	if count <= 0 {
		count = 20
	}
	if count > len(filtered) {
		count = len(filtered)
	}

	items := make([]models.RankingItem, count)
	for i := 0; i < count; i++ {
		items[i] = toItem(i+1, filtered[i])
	}

	return models.RankingResult{
		Metric:    q.Metric,
		Market:    string(market),
		Timestamp: at,
		Items:     items,
		Summary:   summary,
		Breadth:   summary.Breadth(),
	}
}

// sortByMetric orders descending on the metric value (ascending change rate
// for TOP_LOSERS) with the instrument code as a stable tie-break, so equal
// values always rank in the same order across cycles.
func sortByMetric(states []models.InstrumentState, metric models.RankingMetric) {
	key := func(s models.InstrumentState) float64 {
		switch metric {
		case models.MetricTopGainers, models.MetricTopLosers:
			return s.Metrics.ChangeRate
		case models.MetricMostVolatile:
			if s.Metrics.Volatility.Valid {
				return s.Metrics.Volatility.Value
			}
			return s.Metrics.IntradayVolatility
		case models.MetricVolume:
			return s.Quote.Volume
		case models.MetricTradingValue:
			return s.Metrics.TradingValue
		case models.MetricMomentum:
			if s.Metrics.ROC20.Valid {
				return s.Metrics.ROC20.Value
			}
			return s.Metrics.ChangeRate
		default:
			return s.Metrics.ChangeRate
		}
	}
	asc := metric == models.MetricTopLosers

	sort.Slice(states, func(i, j int) bool {
		a, b := key(states[i]), key(states[j])
		if a != b {
			if asc {
				return a < b
			}
			return a > b
		}
		return states[i].Quote.Code < states[j].Quote.Code
	})
}

// Summarize aggregates advance/decline stats over the given universe.
// An empty universe yields a zeroed summary, not an error.
func Summarize(universe []models.InstrumentState) models.MarketSummary {
	var s models.MarketSummary
	s.TotalStocks = len(universe)
	if s.TotalStocks == 0 {
		return s
	}

	rates := make([]float64, 0, len(universe))
	sum := 0.0
	for _, st := range universe {
		rate := st.Metrics.ChangeRate
		rates = append(rates, rate)
		sum += rate
		switch {
		case rate > 0:
			s.Advancing++
		case rate < 0:
			s.Declining++
		default:
			s.Unchanged++
		}
	}
	s.AverageChangeRate = sum / float64(len(rates))

	sort.Float64s(rates)
	mid := len(rates) / 2
	if len(rates)%2 == 1 {
		s.MedianChangeRate = rates[mid]
	} else {
		s.MedianChangeRate = (rates[mid-1] + rates[mid]) / 2
	}
	return s
}

func toItem(rank int, s models.InstrumentState) models.RankingItem {
	vol := s.Metrics.IntradayVolatility
	if s.Metrics.Volatility.Valid {
		vol = s.Metrics.Volatility.Value
	}
	return models.RankingItem{
		Rank:         rank,
		Code:         s.Quote.Code,
		Name:         s.Quote.Name,
		Market:       s.Quote.Market,
		Price:        s.Quote.Price,
		PrevClose:    s.Quote.PrevClose,
		Change:       s.Metrics.Change,
		ChangeRate:   s.Metrics.ChangeRate,
		Volume:       s.Quote.Volume,
		TradingValue: s.Metrics.TradingValue,
		High:         s.Quote.High,
		Low:          s.Quote.Low,
		Open:         s.Quote.Open,
		Volatility:   vol,
	}
}
