package ranking

import (
	"fmt"
	"testing"
	"time"

	"RankPulse/internal/domain/models"
)

func state(code, market string, changeRate, price, volume float64) models.InstrumentState {
	return models.InstrumentState{
		Quote: models.Quote{
			Code:   code,
			Name:   "n" + code,
			Market: market,
			Price:  price,
			Volume: volume,
		},
		Metrics: models.MetricSet{
			Code:       code,
			ChangeRate: changeRate,
			Volume:     volume,
		},
	}
}

func TestRankTopGainersOrdersDescending(t *testing.T) {
	e := NewEngine()
	states := []models.InstrumentState{
		state("000001", "KOSPI", 2.0, 1000, 100),
		state("000002", "KOSPI", 8.0, 1000, 100),
		state("000003", "KOSPI", -3.0, 1000, 100),
	}

	res := e.Rank(models.RankingQuery{Metric: models.MetricTopGainers, Market: "ALL"}, states, time.Now())
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(res.Items))
	}
	if res.Items[0].Code != "000002" || res.Items[2].Code != "000003" {
		t.Fatalf("wrong order: %v", res.Items)
	}
	if res.Items[0].Rank != 1 || res.Items[2].Rank != 3 {
		t.Fatalf("ranks not assigned")
	}
}

func TestRankTopLosersAscending(t *testing.T) {
	e := NewEngine()
	states := []models.InstrumentState{
		state("000001", "KOSPI", 2.0, 1000, 100),
		state("000002", "KOSPI", -8.0, 1000, 100),
	}
	res := e.Rank(models.RankingQuery{Metric: models.MetricTopLosers, Market: "ALL"}, states, time.Now())
	if res.Items[0].Code != "000002" {
		t.Fatalf("biggest loser must rank first: %v", res.Items)
	}
}

func TestRankTieBreaksOnCode(t *testing.T) {
	e := NewEngine()
	states := []models.InstrumentState{
		state("000009", "KOSPI", 5.0, 1000, 100),
		state("000001", "KOSPI", 5.0, 1000, 100),
	}
	res := e.Rank(models.RankingQuery{Metric: models.MetricTopGainers, Market: "ALL"}, states, time.Now())
	if res.Items[0].Code != "000001" {
		t.Fatalf("equal values must order by code: %v", res.Items)
	}
}

func TestRankMarketFilterAndSummaryScope(t *testing.T) {
	e := NewEngine()
	states := []models.InstrumentState{
		state("000001", "KOSPI", 5.0, 1000, 100),
		state("000002", "KOSDAQ", -5.0, 1000, 100),
	}
	res := e.Rank(models.RankingQuery{Metric: models.MetricTopGainers, Market: "KOSPI"}, states, time.Now())
	if len(res.Items) != 1 || res.Items[0].Code != "000001" {
		t.Fatalf("market filter leaked: %v", res.Items)
	}
	if res.Summary.TotalStocks != 1 {
		t.Fatalf("summary must only cover the filtered market")
	}
}

func TestRankMinFiltersDoNotSkewSummary(t *testing.T) {
	e := NewEngine()
	states := []models.InstrumentState{
		state("000001", "KOSPI", 5.0, 500, 100),
		state("000002", "KOSPI", 3.0, 5000, 100),
	}
	res := e.Rank(models.RankingQuery{
		Metric:   models.MetricTopGainers,
		Market:   "ALL",
		MinPrice: 1000,
	}, states, time.Now())

	if len(res.Items) != 1 || res.Items[0].Code != "000002" {
		t.Fatalf("min price filter not applied: %v", res.Items)
	}
	if res.Summary.TotalStocks != 2 || res.Summary.Advancing != 2 {
		t.Fatalf("summary must cover the unfiltered universe: %+v", res.Summary)
	}
}

func TestRankCountTruncates(t *testing.T) {
	e := NewEngine()
	var states []models.InstrumentState
	for i := 0; i < 30; i++ {
		states = append(states, state(fmt.Sprintf("%06d", i), "KOSPI", float64(i), 1000, 100))
	}
	res := e.Rank(models.RankingQuery{Metric: models.MetricTopGainers, Market: "ALL", Count: 5}, states, time.Now())
	if len(res.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(res.Items))
	}
}

func TestRankEmptyUniverse(t *testing.T) {
	e := NewEngine()
	res := e.Rank(models.RankingQuery{Metric: models.MetricTopGainers, Market: "ALL"}, nil, time.Now())
	if len(res.Items) != 0 {
		t.Fatalf("expected no items")
	}
	if res.Summary.TotalStocks != 0 {
		t.Fatalf("expected empty summary")
	}
}

func TestSummarizeMedian(t *testing.T) {
	states := []models.InstrumentState{
		state("1", "KOSPI", 1.0, 100, 1),
		state("2", "KOSPI", 3.0, 100, 1),
		state("3", "KOSPI", 10.0, 100, 1),
		state("4", "KOSPI", -2.0, 100, 1),
	}
	s := Summarize(states)
	if s.Advancing != 3 || s.Declining != 1 || s.Unchanged != 0 {
		t.Fatalf("advance/decline wrong: %+v", s)
	}
	if s.MedianChangeRate != 2.0 {
		t.Fatalf("even-count median must average middle two, got %v", s.MedianChangeRate)
	}
	if s.AverageChangeRate != 3.0 {
		t.Fatalf("unexpected mean %v", s.AverageChangeRate)
	}
}
