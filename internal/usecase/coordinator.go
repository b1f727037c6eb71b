package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"RankPulse/internal/alert"
	"RankPulse/internal/domain/models"
	drepo "RankPulse/internal/domain/repository"
	"RankPulse/internal/history"
	"RankPulse/internal/indicator"
	"RankPulse/internal/pattern"
	"RankPulse/internal/service/kis"
	"RankPulse/pkg/cache"
	"RankPulse/pkg/logger"
)

// queryKeyPrefix marks every cache key derived from a cycle snapshot; commit
// invalidates them all with one pattern delete.
const queryKeyPrefix = "q"

// CoordinatorConfig tunes the polling loop.
type CoordinatorConfig struct {
	Codes          []string
	Cadence        time.Duration
	FetchRetries   int
	FetchBackoff   time.Duration
	MaxConcurrency int
	HistoryWindow  int
}

func (c CoordinatorConfig) withDefaults() CoordinatorConfig {
	if c.Cadence <= 0 {
		c.Cadence = 30 * time.Second
	}
	if c.FetchRetries <= 0 {
		c.FetchRetries = 3
	}
	if c.FetchBackoff <= 0 {
		c.FetchBackoff = 500 * time.Millisecond
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 8
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 260
	}
	return c
}

// Coordinator drives the polling cycle: fetch snapshots, append history,
// fan out per-instrument computation, rank and alert, then atomically publish
// the result. It is the only writer of the history store.
type Coordinator struct {
	cfg        CoordinatorConfig
	source     drepo.SnapshotSource
	store      *history.Store
	indicators *indicator.Engine
	patterns   *pattern.Detector
	alerts     *alert.Engine
	sink       drepo.AlertSink
	cache      cache.Service
	metrics    drepo.Metrics
	log        *logger.Logger

	seq     int64
	current atomic.Pointer[models.CycleResult]
}

func NewCoordinator(
	cfg CoordinatorConfig,
	source drepo.SnapshotSource,
	store *history.Store,
	indicators *indicator.Engine,
	patterns *pattern.Detector,
	alerts *alert.Engine,
	sink drepo.AlertSink,
	cacheSvc cache.Service,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		cfg:        cfg.withDefaults(),
		source:     source,
		store:      store,
		indicators: indicators,
		patterns:   patterns,
		alerts:     alerts,
		sink:       sink,
		cache:      cacheSvc,
		metrics:    metrics,
		log:        log,
	}
}

// Current returns the latest committed cycle result, or nil before the first
// commit. The returned value is immutable.
func (c *Coordinator) Current() *models.CycleResult {
	return c.current.Load()
}

// Run executes one cycle immediately, then one per cadence tick until the
// context ends. A cycle that overruns its deadline is abandoned and the next
// tick starts fresh.
func (c *Coordinator) Run(ctx context.Context) {
	c.cycle(ctx)

	ticker := time.NewTicker(c.cfg.Cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cycle(ctx)
		}
	}
}

func (c *Coordinator) cycle(ctx context.Context) {
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, 2*c.cfg.Cadence)
	defer cancel()

	result, err := c.runCycle(cctx, start)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		c.metrics.RecordCycle("missed", elapsed, 0)
		c.metrics.RecordError("cycle")
		c.log.Error("cycle missed", logger.Error(err), logger.Int64("seq", c.seq))
		return
	}

	c.current.Store(result)
	if err := c.cache.DeleteByPattern(ctx, queryKeyPrefix+":"); err != nil {
		c.log.Warn("cycle cache invalidation failed", logger.Error(err))
	}
	c.metrics.RecordCycle("ok", elapsed, len(result.States))
	c.log.Info("cycle committed",
		logger.Int64("seq", result.Sequence),
		logger.Int("instruments", len(result.States)),
		logger.Int("alerts", len(result.Alerts)),
		logger.Duration("took", time.Since(start)))
}

func (c *Coordinator) runCycle(ctx context.Context, start time.Time) (*models.CycleResult, error) {
	quotes, err := c.fetchWithRetry(ctx)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("snapshot source returned no quotes")
	}

	for i := range quotes {
		c.store.Append(quotes[i].Code, quotes[i].Bar())
		c.metrics.RecordLastPrice(quotes[i].Code, quotes[i].Price)
	}

	states := c.computeStates(ctx, quotes)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cycle deadline: %w", err)
	}

	now := time.Now()
	emitted := c.alerts.Evaluate(states, now)
	for _, a := range emitted {
		c.metrics.RecordAlert(string(a.Kind), a.Priority)
	}
	if len(emitted) > 0 {
		if err := c.sink.PublishBatch(ctx, emitted); err != nil {
			// Alert delivery is best effort; the cycle still commits.
			c.metrics.RecordError("alert_sink")
			c.log.Error("alert publish failed", logger.Error(err))
		}
	}

	c.seq++
	return &models.CycleResult{
		Sequence:    c.seq,
		StartedAt:   start,
		CommittedAt: now,
		States:      states,
		Alerts:      emitted,
	}, nil
}

func (c *Coordinator) fetchWithRetry(ctx context.Context) ([]models.Quote, error) {
	fetchStart := time.Now()
	defer func() {
		c.metrics.RecordLatency("snapshot_fetch", time.Since(fetchStart).Seconds())
	}()

	var lastErr error
	backoff := c.cfg.FetchBackoff
	for attempt := 0; attempt < c.cfg.FetchRetries; attempt++ {
		quotes, err := c.source.Fetch(ctx, c.cfg.Codes)
		if err == nil {
			return quotes, nil
		}
		lastErr = err
		if kis.IsAuth(err) || !kis.IsTransient(err) {
			return nil, err
		}
		c.log.Warn("snapshot fetch retry",
			logger.Int("attempt", attempt+1), logger.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return nil, lastErr
}

// computeStates runs the indicator engine and pattern detector per instrument
// in parallel, bounded by MaxConcurrency. A failure in one instrument drops
// only that instrument from the cycle. The returned map is complete when this
// function returns; ranking and alerting never observe a partial cycle.
func (c *Coordinator) computeStates(ctx context.Context, quotes []models.Quote) map[string]models.InstrumentState {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		states = make(map[string]models.InstrumentState, len(quotes))
		sem    = make(chan struct{}, c.cfg.MaxConcurrency)
	)

	for _, q := range quotes {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(q models.Quote) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					c.metrics.RecordError("compute")
					c.log.Error("instrument computation panicked",
						logger.String("code", q.Code), logger.Any("panic", r))
				}
			}()

			bars := c.store.Series(q.Code, c.cfg.HistoryWindow)
			ms := c.indicators.Compute(q, bars)
			ps := c.patterns.Detect(q.Code, bars, ms)

			mu.Lock()
			states[q.Code] = models.InstrumentState{Quote: q, Metrics: ms, Patterns: ps}
			mu.Unlock()
		}(q)
	}

	wg.Wait()
	return states
}
