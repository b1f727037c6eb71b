package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"RankPulse/internal/alert"
	"RankPulse/internal/domain/models"
	drepo "RankPulse/internal/domain/repository"
	"RankPulse/internal/pattern"
	"RankPulse/internal/ranking"
	"RankPulse/pkg/cache"
	"RankPulse/pkg/util"
)

// ErrNoCycle is returned before the first cycle has committed.
var ErrNoCycle = errors.New("no cycle committed yet")

// ErrUnknownCode is returned for a code outside the scanned universe.
var ErrUnknownCode = errors.New("unknown instrument code")

// TTLConfig carries the per-data-kind cache TTLs.
type TTLConfig struct {
	Ranking time.Duration
	HighLow time.Duration
	Limit   time.Duration
	Summary time.Duration
	Quote   time.Duration
}

func (t TTLConfig) withDefaults() TTLConfig {
	if t.Ranking <= 0 {
		t.Ranking = 60 * time.Second
	}
	if t.HighLow <= 0 {
		t.HighLow = 300 * time.Second
	}
	if t.Limit <= 0 {
		t.Limit = 30 * time.Second
	}
	if t.Summary <= 0 {
		t.Summary = 120 * time.Second
	}
	if t.Quote <= 0 {
		t.Quote = 10 * time.Second
	}
	return t
}

// QueryService serves the seven read operations from the latest committed
// cycle, fronted by the cache. Each cached form's key is canonical: equal
// queries share one entry, and every key carries the cycle-invalidation
// prefix so a commit drops the whole set at once.
type QueryService struct {
	coord    *Coordinator
	ranker   *ranking.Engine
	alerts   *alert.Engine
	detector *pattern.Detector
	cache    cache.Service
	metrics  drepo.Metrics
	ttl      TTLConfig

	// near-limit margin in change-rate points under the 30% band
	nearLimitMargin float64
}

func NewQueryService(
	coord *Coordinator,
	ranker *ranking.Engine,
	alerts *alert.Engine,
	detector *pattern.Detector,
	cacheSvc cache.Service,
	metrics drepo.Metrics,
	ttl TTLConfig,
) *QueryService {
	return &QueryService{
		coord:           coord,
		ranker:          ranker,
		alerts:          alerts,
		detector:        detector,
		cache:           cacheSvc,
		metrics:         metrics,
		ttl:             ttl.withDefaults(),
		nearLimitMargin: 0.5,
	}
}

func (s *QueryService) snapshot() (*models.CycleResult, error) {
	cur := s.coord.Current()
	if cur == nil {
		return nil, ErrNoCycle
	}
	return cur, nil
}

// sortedStates returns the committed states in code order so derived lists
// are reproducible across identical cycles.
func sortedStates(cur *models.CycleResult, market drepo.Market) []models.InstrumentState {
	out := make([]models.InstrumentState, 0, len(cur.States))
	for _, st := range cur.States {
		if market.Matches(st.Quote.Market) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quote.Code < out[j].Quote.Code })
	return out
}

// cached resolves one query form through the cache: a hit deserializes the
// stored entry, a miss computes, stores for the market-aware TTL and returns
// the fresh value. A cache store failure degrades to uncached operation.
func (s *QueryService) cached(ctx context.Context, kind, key string, ttl time.Duration, dest interface{}, compute func() (interface{}, error)) error {
	if err := s.cache.Get(ctx, key, dest); err == nil {
		s.metrics.RecordCacheHit(kind)
		return nil
	}
	s.metrics.RecordCacheMiss(kind)

	v, err := compute()
	if err != nil {
		return err
	}
	_ = s.cache.Set(ctx, key, v, util.MarketAwareTTL(ttl, time.Now()))

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

// PriceRanking serves GET /api/rankings/price-change.
func (s *QueryService) PriceRanking(ctx context.Context, req models.PriceRankingRequest) (models.RankingResult, error) {
	cur, err := s.snapshot()
	if err != nil {
		return models.RankingResult{}, err
	}

	q := models.RankingQuery{
		Metric:    models.RankingMetric(req.RankingType),
		Market:    req.Market,
		Count:     req.Count,
		MinPrice:  req.MinPrice,
		MinVolume: req.MinVolume,
	}
	key := cache.KeyWithFilters(queryKeyPrefix+":ranking", map[string]interface{}{
		"min_price":  req.MinPrice,
		"min_volume": req.MinVolume,
	}, req.RankingType, req.Market, req.Count)

	var out models.RankingResult
	err = s.cached(ctx, "ranking", key, s.ttl.Ranking, &out, func() (interface{}, error) {
		states := sortedStates(cur, drepo.MarketAll)
		return s.ranker.Rank(q, states, cur.CommittedAt), nil
	})
	return out, err
}

// VolatilityRanking serves GET /api/rankings/volatility.
func (s *QueryService) VolatilityRanking(ctx context.Context, req models.VolatilityRankingRequest) (models.RankingResult, error) {
	return s.PriceRanking(ctx, models.PriceRankingRequest{
		RankingType: string(models.MetricMostVolatile),
		Market:      req.Market,
		Count:       req.Count,
		MinPrice:    req.MinPrice,
		MinVolume:   req.MinVolume,
	})
}

// HighLow serves GET /api/highlow.
func (s *QueryService) HighLow(ctx context.Context, req models.HighLowRequest) (models.HighLowResult, error) {
	cur, err := s.snapshot()
	if err != nil {
		return models.HighLowResult{}, err
	}

	key := cache.Key(queryKeyPrefix+":highlow", req.Type, req.Market, req.Count, req.BreakthroughOnly)
	var out models.HighLowResult
	err = s.cached(ctx, "high_low", key, s.ttl.HighLow, &out, func() (interface{}, error) {
		return s.buildHighLow(cur, req), nil
	})
	return out, err
}

func (s *QueryService) buildHighLow(cur *models.CycleResult, req models.HighLowRequest) models.HighLowResult {
	market := drepo.NormalizeMarket(req.Market)
	res := models.HighLowResult{Market: string(market), Timestamp: cur.CommittedAt}

	for _, st := range sortedStates(cur, market) {
		m := st.Metrics
		if !m.High52W.Valid || !m.Low52W.Valid {
			continue
		}
		hi, lo := m.High52W.Value, m.Low52W.Value
		entry := models.HighLowEntry{
			Code:       st.Quote.Code,
			Name:       st.Quote.Name,
			Market:     st.Quote.Market,
			Price:      st.Quote.Price,
			ChangeRate: m.ChangeRate,
			High52W:    hi,
			Low52W:     lo,
			IsNewHigh:  st.Quote.Price >= hi,
			IsNewLow:   st.Quote.Price <= lo,
		}
		if hi > 0 {
			entry.HighBreakthroughRate = (st.Quote.Price - hi) / hi * 100
		}
		if lo > 0 {
			entry.LowBreakthroughRate = (st.Quote.Price - lo) / lo * 100
			entry.HighLowRange = (hi - lo) / lo * 100
		}
		if m.PositionInRange.Valid {
			entry.PositionInRange = m.PositionInRange.Value
		}

		// Within 2% of the level counts as a breakthrough candidate.
		nearHigh := hi > 0 && st.Quote.Price >= hi*0.98
		nearLow := lo > 0 && st.Quote.Price <= lo*1.02
		if req.BreakthroughOnly && !nearHigh && !nearLow {
			continue
		}

		switch {
		case entry.IsNewHigh || (req.BreakthroughOnly && nearHigh):
			if req.Type != "LOW" {
				res.NewHighs = append(res.NewHighs, entry)
			}
		case entry.IsNewLow || (req.BreakthroughOnly && nearLow):
			if req.Type != "HIGH" {
				res.NewLows = append(res.NewLows, entry)
			}
		}
	}

	// Aggregates cover the full result set; count truncation only shortens
	// the returned lists.
	res.TotalHighs = len(res.NewHighs)
	res.TotalLows = len(res.NewLows)
	res.HighLowRatio = float64(res.TotalHighs) / math.Max(float64(res.TotalLows), 1)
	res.MarketStrength = models.StrengthBucket(res.HighLowRatio)

	if req.Count > 0 {
		if len(res.NewHighs) > req.Count {
			res.NewHighs = res.NewHighs[:req.Count]
		}
		if len(res.NewLows) > req.Count {
			res.NewLows = res.NewLows[:req.Count]
		}
	}
	return res
}

// Limits serves GET /api/limits.
func (s *QueryService) Limits(ctx context.Context, req models.LimitStocksRequest) (models.LimitResult, error) {
	cur, err := s.snapshot()
	if err != nil {
		return models.LimitResult{}, err
	}

	key := cache.Key(queryKeyPrefix+":limit", req.LimitType, req.Market, req.Count)
	var out models.LimitResult
	err = s.cached(ctx, "limit", key, s.ttl.Limit, &out, func() (interface{}, error) {
		return s.buildLimits(cur, req), nil
	})
	return out, err
}

const limitBand = 30.0

func (s *QueryService) buildLimits(cur *models.CycleResult, req models.LimitStocksRequest) models.LimitResult {
	market := drepo.NormalizeMarket(req.Market)
	res := models.LimitResult{Market: string(market), Timestamp: cur.CommittedAt}
	nearBand := limitBand - s.nearLimitMargin

	for _, st := range sortedStates(cur, market) {
		rate := st.Metrics.ChangeRate
		if math.Abs(rate) < nearBand {
			continue
		}
		entry := models.LimitEntry{
			Code:       st.Quote.Code,
			Name:       st.Quote.Name,
			Market:     st.Quote.Market,
			Price:      st.Quote.Price,
			PrevClose:  st.Quote.PrevClose,
			ChangeRate: rate,
			LimitRate:  math.Abs(rate) / limitBand * 100,
			AtLimit:    math.Abs(rate) >= limitBand,
		}
		if rate > 0 {
			entry.LimitType = "UPPER"
			res.UpperCount++
		} else {
			entry.LimitType = "LOWER"
			res.LowerCount++
		}
		if req.LimitType != "BOTH" && entry.LimitType != req.LimitType {
			continue
		}
		res.Items = append(res.Items, entry)
	}

	if req.Count > 0 && len(res.Items) > req.Count {
		res.Items = res.Items[:req.Count]
	}
	res.Sentiment = models.SentimentBucket(res.UpperCount, res.LowerCount)
	return res
}

// Streaks serves GET /api/streaks.
func (s *QueryService) Streaks(ctx context.Context, req models.StreakRequest) (models.StreakResult, error) {
	cur, err := s.snapshot()
	if err != nil {
		return models.StreakResult{}, err
	}

	key := cache.Key(queryKeyPrefix+":streak", req.Direction, req.MinDays, req.Market, req.Count)
	var out models.StreakResult
	err = s.cached(ctx, "streak", key, s.ttl.Ranking, &out, func() (interface{}, error) {
		return buildStreaks(cur, req), nil
	})
	return out, err
}

func buildStreaks(cur *models.CycleResult, req models.StreakRequest) models.StreakResult {
	market := drepo.NormalizeMarket(req.Market)
	minDays := req.MinDays
	if minDays <= 0 {
		minDays = 3
	}
	res := models.StreakResult{Market: string(market), Timestamp: cur.CommittedAt, MinDays: minDays}

	for _, st := range sortedStates(cur, market) {
		m := st.Metrics
		var entry models.StreakEntry
		switch {
		case req.Direction == "UP" && m.UpStreak >= minDays:
			entry = models.StreakEntry{Direction: "UP", Days: m.UpStreak}
			res.UpCount++
		case req.Direction == "DOWN" && m.DownStreak >= minDays:
			entry = models.StreakEntry{Direction: "DOWN", Days: m.DownStreak}
			res.DownCount++
		default:
			continue
		}
		entry.Code = st.Quote.Code
		entry.Name = st.Quote.Name
		entry.Market = st.Quote.Market
		entry.Price = st.Quote.Price
		entry.ChangeRate = m.ChangeRate
		res.Items = append(res.Items, entry)
	}

	// Longest streaks first, code tie-break.
	sort.Slice(res.Items, func(i, j int) bool {
		if res.Items[i].Days != res.Items[j].Days {
			return res.Items[i].Days > res.Items[j].Days
		}
		return res.Items[i].Code < res.Items[j].Code
	})
	if req.Count > 0 && len(res.Items) > req.Count {
		res.Items = res.Items[:req.Count]
	}
	return res
}

// Gaps serves GET /api/gaps.
func (s *QueryService) Gaps(ctx context.Context, req models.GapRequest) (models.GapResult, error) {
	cur, err := s.snapshot()
	if err != nil {
		return models.GapResult{}, err
	}

	key := cache.Key(queryKeyPrefix+":gap", req.Direction, req.Market, req.Count, req.SignificantOnly)
	var out models.GapResult
	err = s.cached(ctx, "gap", key, s.ttl.Ranking, &out, func() (interface{}, error) {
		return s.buildGaps(cur, req), nil
	})
	return out, err
}

func (s *QueryService) buildGaps(cur *models.CycleResult, req models.GapRequest) models.GapResult {
	market := drepo.NormalizeMarket(req.Market)
	threshold := s.detector.GapThreshold()
	res := models.GapResult{Market: string(market), Timestamp: cur.CommittedAt}

	for _, st := range sortedStates(cur, market) {
		if st.Quote.PrevClose == 0 {
			continue
		}
		rate := (st.Quote.Open - st.Quote.PrevClose) / st.Quote.PrevClose * 100
		if rate == 0 {
			continue
		}
		significant := math.Abs(rate) >= threshold
		if req.SignificantOnly && !significant {
			continue
		}
		dir := "UP"
		if rate < 0 {
			dir = "DOWN"
		}
		if req.Direction != "BOTH" && dir != req.Direction {
			continue
		}
		res.Items = append(res.Items, models.GapEntry{
			Code:        st.Quote.Code,
			Name:        st.Quote.Name,
			Market:      st.Quote.Market,
			PrevClose:   st.Quote.PrevClose,
			Open:        st.Quote.Open,
			Price:       st.Quote.Price,
			GapRate:     rate,
			Direction:   dir,
			Significant: significant,
		})
		if dir == "UP" {
			res.UpCount++
		} else {
			res.DownCount++
		}
	}

	// Widest gaps first, code tie-break.
	sort.Slice(res.Items, func(i, j int) bool {
		a, b := math.Abs(res.Items[i].GapRate), math.Abs(res.Items[j].GapRate)
		if a != b {
			return a > b
		}
		return res.Items[i].Code < res.Items[j].Code
	})
	if req.Count > 0 && len(res.Items) > req.Count {
		res.Items = res.Items[:req.Count]
	}
	return res
}

// Summary serves GET /api/summary: the full-universe advance/decline overview
// of one market.
func (s *QueryService) Summary(ctx context.Context, req models.MarketSummaryRequest) (models.MarketSummaryResult, error) {
	cur, err := s.snapshot()
	if err != nil {
		return models.MarketSummaryResult{}, err
	}

	key := cache.Key(queryKeyPrefix+":summary", req.Market)
	var out models.MarketSummaryResult
	err = s.cached(ctx, "summary", key, s.ttl.Summary, &out, func() (interface{}, error) {
		market := drepo.NormalizeMarket(req.Market)
		sum := ranking.Summarize(sortedStates(cur, market))
		return models.MarketSummaryResult{
			Market:              string(market),
			Timestamp:           cur.CommittedAt,
			Summary:             sum,
			AdvanceDeclineRatio: float64(sum.Advancing) / math.Max(float64(sum.Declining), 1),
			Breadth:             sum.Breadth(),
		}, nil
	})
	return out, err
}

// Quote serves GET /api/quote/:code: one instrument's committed state.
func (s *QueryService) Quote(ctx context.Context, code string) (models.QuoteResult, error) {
	cur, err := s.snapshot()
	if err != nil {
		return models.QuoteResult{}, err
	}

	key := cache.Key(queryKeyPrefix+":quote", code)
	var out models.QuoteResult
	err = s.cached(ctx, "quote", key, s.ttl.Quote, &out, func() (interface{}, error) {
		st, ok := cur.State(code)
		if !ok {
			return nil, ErrUnknownCode
		}
		return models.QuoteResult{
			Timestamp: cur.CommittedAt,
			Quote:     st.Quote,
			Metrics:   st.Metrics,
			Patterns:  st.Patterns,
		}, nil
	})
	return out, err
}

// Alerts serves GET /api/alerts. Responses are built fresh each call; the
// alert list mutates between cycles, so caching would only serve stale data.
func (s *QueryService) Alerts(ctx context.Context, req models.AlertsRequest) (models.AlertsResult, error) {
	cur, err := s.snapshot()
	if err != nil {
		return models.AlertsResult{}, err
	}

	market := drepo.NormalizeMarket(req.Market)
	minPrio := models.ParsePriority(req.MinPriority)
	now := time.Now()

	res := models.AlertsResult{Timestamp: now}
	for _, a := range s.alerts.Recent(0) {
		if !market.Matches(a.Market) {
			continue
		}
		if req.Kind != "" && string(a.Kind) != req.Kind {
			continue
		}
		if a.PriorityLevel() < minPrio {
			continue
		}

		view := models.AlertView{Alert: a, AgeSecs: a.AgeSeconds(now)}
		if st, ok := cur.State(a.Code); ok {
			view.PriceNow = st.Quote.Price
			if a.TriggerPrice > 0 {
				view.ChangeSinceAlert = (st.Quote.Price - a.TriggerPrice) / a.TriggerPrice * 100
			}
		}
		res.Alerts = append(res.Alerts, view)
		if req.Count > 0 && len(res.Alerts) >= req.Count {
			break
		}
	}
	res.Total = len(res.Alerts)
	return res, nil
}
