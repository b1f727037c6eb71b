package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"RankPulse/internal/alert"
	"RankPulse/internal/domain/models"
	"RankPulse/internal/history"
	"RankPulse/internal/indicator"
	"RankPulse/internal/pattern"
	"RankPulse/internal/service/kis"
	"RankPulse/pkg/cache"
	"RankPulse/pkg/logger"
)

type fakeSource struct {
	quotes []models.Quote
	err    error
	calls  int
}

func (f *fakeSource) Fetch(ctx context.Context, codes []string) ([]models.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Quote, len(f.quotes))
	copy(out, f.quotes)
	for i := range out {
		out[i].Timestamp = time.Now()
	}
	return out, nil
}

func (f *fakeSource) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, float64, int) {}
func (nopMetrics) RecordAlert(string, string)       {}
func (nopMetrics) RecordCacheHit(string)            {}
func (nopMetrics) RecordCacheMiss(string)           {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func quote(code, market string, price, prevClose float64) models.Quote {
	return models.Quote{
		Code:      code,
		Name:      "n" + code,
		Market:    market,
		Price:     price,
		Open:      prevClose,
		High:      price,
		Low:       prevClose,
		Volume:    10000,
		PrevClose: prevClose,
	}
}

func newTestCoordinator(t *testing.T, source *fakeSource) (*Coordinator, cache.Service) {
	t.Helper()
	log := testLogger(t)
	cacheSvc := cache.NewMemoryCache()
	t.Cleanup(func() { cacheSvc.Close() })

	alerts := alert.NewEngine(alert.Config{
		Rules: []models.AlertRule{{Kind: models.RuleSurge, Threshold: 5, Priority: models.PriorityHigh}},
	}, log)

	coord := NewCoordinator(CoordinatorConfig{
		Codes:   []string{"005930", "000660"},
		Cadence: time.Minute,
	},
		source,
		history.NewStore(10),
		indicator.NewEngine(indicator.Config{}),
		pattern.NewDetector(pattern.Config{}),
		alerts,
		alert.NopSink{},
		cacheSvc,
		nopMetrics{},
		log,
	)
	return coord, cacheSvc
}

func TestCycleCommitsSnapshot(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{
		quote("005930", "KOSPI", 106, 100),
		quote("000660", "KOSDAQ", 95, 100),
	}}
	coord, _ := newTestCoordinator(t, source)

	if coord.Current() != nil {
		t.Fatalf("no cycle must be visible before the first commit")
	}

	coord.cycle(context.Background())

	cur := coord.Current()
	if cur == nil {
		t.Fatalf("cycle did not commit")
	}
	if cur.Sequence != 1 {
		t.Fatalf("unexpected sequence %d", cur.Sequence)
	}
	if len(cur.States) != 2 {
		t.Fatalf("expected 2 instrument states, got %d", len(cur.States))
	}

	st, ok := cur.State("005930")
	if !ok {
		t.Fatalf("missing state for 005930")
	}
	if st.Metrics.ChangeRate != 6.0 {
		t.Fatalf("unexpected change rate %v", st.Metrics.ChangeRate)
	}
	if len(cur.Alerts) != 1 || cur.Alerts[0].Code != "005930" {
		t.Fatalf("surge alert missing: %+v", cur.Alerts)
	}
}

func TestCycleInvalidatesQueryKeys(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{quote("005930", "KOSPI", 100, 100)}}
	coord, cacheSvc := newTestCoordinator(t, source)
	ctx := context.Background()

	cacheSvc.Set(ctx, "q:ranking:stale", "old", time.Minute)
	cacheSvc.Set(ctx, "unrelated", "keep", time.Minute)

	coord.cycle(ctx)

	var got string
	if err := cacheSvc.Get(ctx, "q:ranking:stale", &got); err != cache.ErrCacheMiss {
		t.Fatalf("commit must drop query keys, got %v", err)
	}
	if err := cacheSvc.Get(ctx, "unrelated", &got); err != nil {
		t.Fatalf("commit must not touch unrelated keys: %v", err)
	}
}

func TestCycleMissedKeepsPreviousSnapshot(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{quote("005930", "KOSPI", 100, 100)}}
	coord, _ := newTestCoordinator(t, source)
	ctx := context.Background()

	coord.cycle(ctx)
	first := coord.Current()
	if first == nil {
		t.Fatalf("first cycle must commit")
	}

	source.err = &kis.AuthError{Msg: "expired"}
	coord.cycle(ctx)

	if coord.Current() != first {
		t.Fatalf("a missed cycle must leave the previous snapshot in place")
	}
}

func TestFetchRetriesOnTransient(t *testing.T) {
	source := &fakeSource{err: &kis.TransientError{Op: "fetch", Err: fmt.Errorf("status 500")}}
	coord, _ := newTestCoordinator(t, source)
	coord.cfg.FetchRetries = 3
	coord.cfg.FetchBackoff = time.Millisecond

	if _, err := coord.fetchWithRetry(context.Background()); err == nil {
		t.Fatalf("expected failure")
	}
	if source.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", source.calls)
	}
}

func TestFetchAbortsOnAuth(t *testing.T) {
	source := &fakeSource{err: &kis.AuthError{Msg: "bad key"}}
	coord, _ := newTestCoordinator(t, source)
	coord.cfg.FetchBackoff = time.Millisecond

	if _, err := coord.fetchWithRetry(context.Background()); err == nil {
		t.Fatalf("expected failure")
	}
	if source.calls != 1 {
		t.Fatalf("auth failure must not retry, got %d attempts", source.calls)
	}
}

func TestHistoryAccumulatesAcrossCycles(t *testing.T) {
	source := &fakeSource{quotes: []models.Quote{quote("005930", "KOSPI", 100, 100)}}
	coord, _ := newTestCoordinator(t, source)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		source.quotes[0].Price = 100 + float64(i)
		coord.cycle(ctx)
		time.Sleep(time.Millisecond)
	}

	if n := coord.store.Len("005930"); n != 3 {
		t.Fatalf("expected 3 bars of history, got %d", n)
	}
	if coord.Current().Sequence != 3 {
		t.Fatalf("sequence must advance per commit")
	}
}
