package usecase

import (
	"context"
	"testing"
	"time"

	"RankPulse/internal/alert"
	"RankPulse/internal/domain/models"
	"RankPulse/internal/history"
	"RankPulse/internal/indicator"
	"RankPulse/internal/pattern"
	"RankPulse/internal/ranking"
	"RankPulse/pkg/cache"
)

type countingMetrics struct {
	nopMetrics
	hits   int
	misses int
}

func (m *countingMetrics) RecordCacheHit(string)  { m.hits++ }
func (m *countingMetrics) RecordCacheMiss(string) { m.misses++ }

func newTestQueryService(t *testing.T, source *fakeSource) (*QueryService, *Coordinator, *countingMetrics) {
	t.Helper()
	log := testLogger(t)
	cacheSvc := cache.NewMemoryCache()
	t.Cleanup(func() { cacheSvc.Close() })

	alerts := alert.NewEngine(alert.Config{
		Rules: []models.AlertRule{
			{Kind: models.RuleSurge, Threshold: 5, Priority: models.PriorityHigh},
			{Kind: models.RuleLimitUp, Threshold: 0.5, Priority: models.PriorityVeryHigh},
		},
	}, log)
	detector := pattern.NewDetector(pattern.Config{})
	m := &countingMetrics{}

	coord := NewCoordinator(CoordinatorConfig{Codes: []string{"x"}, Cadence: time.Minute},
		source, history.NewStore(10),
		indicator.NewEngine(indicator.Config{}), detector, alerts,
		alert.NopSink{}, cacheSvc, m, log)

	qs := NewQueryService(coord, ranking.NewEngine(), alerts, detector, cacheSvc, m, TTLConfig{})
	return qs, coord, m
}

func TestQueriesBeforeFirstCycle(t *testing.T) {
	qs, _, _ := newTestQueryService(t, &fakeSource{})
	ctx := context.Background()

	if _, err := qs.PriceRanking(ctx, models.PriceRankingRequest{RankingType: "TOP_GAINERS", Market: "ALL"}); err != ErrNoCycle {
		t.Fatalf("expected ErrNoCycle, got %v", err)
	}
	if _, err := qs.Alerts(ctx, models.AlertsRequest{Market: "ALL"}); err != ErrNoCycle {
		t.Fatalf("expected ErrNoCycle, got %v", err)
	}
}

func TestPriceRankingCachesSecondCall(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		quote("005930", "KOSPI", 110, 100),
		quote("000660", "KOSDAQ", 90, 100),
	}}
	qs, coord, m := newTestQueryService(t, source)
	ctx := context.Background()
	coord.cycle(ctx)

	req := models.PriceRankingRequest{RankingType: "TOP_GAINERS", Market: "ALL", Count: 20}
	first, err := qs.PriceRanking(ctx, req)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if len(first.Items) != 2 || first.Items[0].Code != "005930" {
		t.Fatalf("unexpected ranking %+v", first.Items)
	}
	if m.misses != 1 || m.hits != 0 {
		t.Fatalf("first call must miss: hits=%d misses=%d", m.hits, m.misses)
	}

	second, err := qs.PriceRanking(ctx, req)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if m.hits != 1 {
		t.Fatalf("second identical call must hit the cache")
	}
	if len(second.Items) != len(first.Items) || second.Items[0].Code != first.Items[0].Code {
		t.Fatalf("cached result diverges")
	}
}

func TestVolatilityRankingDelegates(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		{Code: "1", Name: "a", Market: "KOSPI", Price: 100, PrevClose: 100, High: 120, Low: 100, Volume: 10},
		{Code: "2", Name: "b", Market: "KOSPI", Price: 100, PrevClose: 100, High: 101, Low: 100, Volume: 10},
	}}
	qs, coord, _ := newTestQueryService(t, source)
	ctx := context.Background()
	coord.cycle(ctx)

	res, err := qs.VolatilityRanking(ctx, models.VolatilityRankingRequest{Market: "ALL", Count: 10})
	if err != nil {
		t.Fatalf("volatility ranking: %v", err)
	}
	if res.Metric != models.MetricMostVolatile {
		t.Fatalf("unexpected metric %s", res.Metric)
	}
	if res.Items[0].Code != "1" {
		t.Fatalf("widest intraday range must rank first: %+v", res.Items)
	}
}

func TestLimitsDetectsBandProximity(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		quote("1", "KOSPI", 1298, 1000), // +29.8%
		quote("2", "KOSPI", 702, 1000),  // -29.8%
		quote("3", "KOSPI", 1100, 1000), // +10%
	}}
	qs, coord, _ := newTestQueryService(t, source)
	ctx := context.Background()
	coord.cycle(ctx)

	res, err := qs.Limits(ctx, models.LimitStocksRequest{LimitType: "BOTH", Market: "ALL"})
	if err != nil {
		t.Fatalf("limits: %v", err)
	}
	if res.UpperCount != 1 || res.LowerCount != 1 {
		t.Fatalf("unexpected counts %+v", res)
	}
	if len(res.Items) != 2 {
		t.Fatalf("mid-range stock must not appear: %+v", res.Items)
	}
	if res.Sentiment == "" {
		t.Fatalf("sentiment must be bucketed")
	}
}

func TestStreaksOrdersLongestFirst(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		quote("1", "KOSPI", 100, 100),
		quote("2", "KOSPI", 100, 100),
	}}
	qs, coord, _ := newTestQueryService(t, source)
	ctx := context.Background()

	// Build diverging up-streak history across cycles.
	prices := map[string][]float64{
		"1": {100, 101, 102, 103, 104},
		"2": {100, 101, 102, 103, 102},
	}
	for i := 0; i < 5; i++ {
		source.quotes[0].Price = prices["1"][i]
		source.quotes[1].Price = prices["2"][i]
		coord.cycle(ctx)
		time.Sleep(time.Millisecond)
	}

	res, err := qs.Streaks(ctx, models.StreakRequest{Direction: "UP", MinDays: 3, Market: "ALL"})
	if err != nil {
		t.Fatalf("streaks: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Code != "1" {
		t.Fatalf("only the 4-day streak qualifies: %+v", res.Items)
	}
	if res.Items[0].Days != 4 {
		t.Fatalf("unexpected streak length %d", res.Items[0].Days)
	}
}

func TestGapsSignificantOnly(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		{Code: "1", Name: "a", Market: "KOSPI", Price: 1050, Open: 1050, High: 1060, Low: 1040, Volume: 10, PrevClose: 1000}, // +5% gap
		{Code: "2", Name: "b", Market: "KOSPI", Price: 1010, Open: 1010, High: 1015, Low: 1005, Volume: 10, PrevClose: 1000}, // +1% gap
	}}
	qs, coord, _ := newTestQueryService(t, source)
	ctx := context.Background()
	coord.cycle(ctx)

	res, err := qs.Gaps(ctx, models.GapRequest{Direction: "BOTH", Market: "ALL", SignificantOnly: true})
	if err != nil {
		t.Fatalf("gaps: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Code != "1" {
		t.Fatalf("sub-threshold gap must be dropped: %+v", res.Items)
	}
	if !res.Items[0].Significant || res.Items[0].Direction != "UP" {
		t.Fatalf("unexpected gap entry %+v", res.Items[0])
	}
}

func TestAlertsFiltersAndEnriches(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		quote("1", "KOSPI", 1298, 1000), // limit up + surge
		quote("2", "KOSDAQ", 1060, 1000),
	}}
	qs, coord, _ := newTestQueryService(t, source)
	ctx := context.Background()
	coord.cycle(ctx)

	all, err := qs.Alerts(ctx, models.AlertsRequest{Market: "ALL"})
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if all.Total != 3 {
		t.Fatalf("expected 3 alerts, got %d: %+v", all.Total, all.Alerts)
	}

	high, err := qs.Alerts(ctx, models.AlertsRequest{Market: "ALL", MinPriority: "VERY_HIGH"})
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if high.Total != 1 || high.Alerts[0].Kind != models.RuleLimitUp {
		t.Fatalf("priority filter wrong: %+v", high.Alerts)
	}

	kosdaq, err := qs.Alerts(ctx, models.AlertsRequest{Market: "KOSDAQ"})
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if kosdaq.Total != 1 || kosdaq.Alerts[0].Code != "2" {
		t.Fatalf("market filter wrong: %+v", kosdaq.Alerts)
	}
	if kosdaq.Alerts[0].PriceNow != 1060 {
		t.Fatalf("alert view must carry the current price: %+v", kosdaq.Alerts[0])
	}
}

func TestHighLowTotalsSurviveTruncation(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		quote("1", "KOSPI", 100, 100),
		quote("2", "KOSPI", 100, 100),
		quote("3", "KOSPI", 100, 100),
	}}
	qs, coord, _ := newTestQueryService(t, source)
	ctx := context.Background()

	// Second cycle closes every instrument above the first cycle's high.
	coord.cycle(ctx)
	time.Sleep(time.Millisecond)
	for i := range source.quotes {
		source.quotes[i].Price = 120
		source.quotes[i].High = 120
	}
	coord.cycle(ctx)

	res, err := qs.HighLow(ctx, models.HighLowRequest{Type: "HIGH", Market: "ALL", Count: 1})
	if err != nil {
		t.Fatalf("highlow: %v", err)
	}
	if len(res.NewHighs) != 1 {
		t.Fatalf("count must truncate the list: %+v", res.NewHighs)
	}
	if res.TotalHighs != 3 {
		t.Fatalf("aggregates must cover the full set, got %d", res.TotalHighs)
	}
	if res.HighLowRatio != 3 || res.MarketStrength != "VERY_STRONG" {
		t.Fatalf("unexpected aggregates ratio=%v strength=%s", res.HighLowRatio, res.MarketStrength)
	}
	entry := res.NewHighs[0]
	if entry.HighBreakthroughRate != 0 {
		t.Fatalf("price at the high must report 0 breakthrough, got %v", entry.HighBreakthroughRate)
	}
	if entry.LowBreakthroughRate != 20 {
		t.Fatalf("expected +20%% above the 52w low, got %v", entry.LowBreakthroughRate)
	}
}

func TestSummaryOverview(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		quote("1", "KOSPI", 110, 100),
		quote("2", "KOSPI", 106, 100),
	}}
	qs, coord, m := newTestQueryService(t, source)
	ctx := context.Background()
	coord.cycle(ctx)

	res, err := qs.Summary(ctx, models.MarketSummaryRequest{Market: "ALL"})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if res.Summary.TotalStocks != 2 || res.Summary.Advancing != 2 || res.Summary.Declining != 0 {
		t.Fatalf("unexpected summary %+v", res.Summary)
	}
	if res.Breadth != "VERY_POSITIVE" {
		t.Fatalf("all-advancing market must read VERY_POSITIVE, got %s", res.Breadth)
	}
	// Serialized ratio stays finite with zero decliners.
	if res.AdvanceDeclineRatio != 2 {
		t.Fatalf("unexpected serialized ratio %v", res.AdvanceDeclineRatio)
	}

	if _, err := qs.Summary(ctx, models.MarketSummaryRequest{Market: "ALL"}); err != nil {
		t.Fatalf("second summary: %v", err)
	}
	if m.hits != 1 {
		t.Fatalf("second identical call must hit the cache")
	}
}

func TestQuoteByCode(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		quote("005930", "KOSPI", 106, 100),
	}}
	qs, coord, _ := newTestQueryService(t, source)
	ctx := context.Background()
	coord.cycle(ctx)

	res, err := qs.Quote(ctx, "005930")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if res.Quote.Price != 106 || res.Metrics.ChangeRate != 6 {
		t.Fatalf("unexpected quote view %+v", res)
	}

	if _, err := qs.Quote(ctx, "999999"); err != ErrUnknownCode {
		t.Fatalf("expected ErrUnknownCode, got %v", err)
	}
}

func TestHighLowBreakthrough(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		quote("1", "KOSPI", 100, 100),
	}}
	qs, coord, _ := newTestQueryService(t, source)
	ctx := context.Background()

	// Two cycles: the second closes above the first cycle's high.
	coord.cycle(ctx)
	time.Sleep(time.Millisecond)
	source.quotes[0].Price = 120
	source.quotes[0].High = 120
	coord.cycle(ctx)

	res, err := qs.HighLow(ctx, models.HighLowRequest{Type: "HIGH", Market: "ALL"})
	if err != nil {
		t.Fatalf("highlow: %v", err)
	}
	if len(res.NewHighs) != 1 || !res.NewHighs[0].IsNewHigh {
		t.Fatalf("expected a new high: %+v", res)
	}
	if res.TotalHighs != 1 || res.HighLowRatio != 1 {
		t.Fatalf("unexpected aggregates %+v", res)
	}
}
