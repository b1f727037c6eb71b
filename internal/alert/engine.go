package alert

import (
	"sort"
	"sync"
	"time"

	"RankPulse/internal/domain/models"
	"RankPulse/pkg/logger"
)

// Config bounds the engine's output.
type Config struct {
	Rules       []models.AlertRule
	DedupWindow time.Duration // default cooling-down window when a rule has none
	MaxPerCode  int           // concurrent alert cap per instrument (default 3)
	RecentCap   int           // bounded recent-alerts ring size (default 100)
}

func (c Config) withDefaults() Config {
	if c.DedupWindow <= 0 {
		c.DedupWindow = 5 * time.Minute
	}
	if c.MaxPerCode <= 0 {
		c.MaxPerCode = 3
	}
	if c.RecentCap <= 0 {
		c.RecentCap = 100
	}
	return c
}

type stateKey struct {
	code string
	kind models.RuleKind
}

// Engine evaluates alert rules once per cycle. Each (instrument, rule kind)
// pair runs a quiet -> triggered -> cooling-down state machine: a trigger
// emits exactly one alert and suppresses that pair until its window elapses.
type Engine struct {
	cfg Config
	log *logger.Logger

	mu        sync.Mutex
	lastFired map[stateKey]time.Time
	recent    []models.Alert // newest last, bounded by RecentCap
}

func NewEngine(cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		cfg:       cfg.withDefaults(),
		log:       log,
		lastFired: make(map[stateKey]time.Time),
	}
}

// Evaluate runs every rule against every instrument state and returns the
// alerts that survive dedup and the per-instrument cap. Instruments are
// visited in code order so repeated cycles over identical input produce
// identical output.
func (e *Engine) Evaluate(states map[string]models.InstrumentState, now time.Time) []models.Alert {
	codes := make([]string, 0, len(states))
	for code := range states {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	e.mu.Lock()
	defer e.mu.Unlock()

	var emitted []models.Alert
	for _, code := range codes {
		s := states[code]
		candidates := e.candidatesLocked(s, now)
		if len(candidates) == 0 {
			continue
		}

		// Cap favors priority; ties break on rule kind so the winner set
		// is deterministic.
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].PriorityLevel() != candidates[j].PriorityLevel() {
				return candidates[i].PriorityLevel() > candidates[j].PriorityLevel()
			}
			return candidates[i].Kind < candidates[j].Kind
		})
		if len(candidates) > e.cfg.MaxPerCode {
			candidates = candidates[:e.cfg.MaxPerCode]
		}

		for _, a := range candidates {
			e.lastFired[stateKey{code: a.Code, kind: a.Kind}] = now
			emitted = append(emitted, a)
		}
	}

	if len(emitted) > 0 {
		e.recent = append(e.recent, emitted...)
		if over := len(e.recent) - e.cfg.RecentCap; over > 0 {
			e.recent = append([]models.Alert(nil), e.recent[over:]...)
		}
		e.log.Debug("alerts emitted", logger.Int("count", len(emitted)))
	}
	return emitted
}

func (e *Engine) candidatesLocked(s models.InstrumentState, now time.Time) []models.Alert {
	inst := models.Instrument{
		Code:   s.Quote.Code,
		Name:   s.Quote.Name,
		Market: s.Quote.Market,
		Sector: s.Quote.Sector,
	}

	var out []models.Alert
	for _, rule := range e.cfg.Rules {
		msg, fired := evaluate(rule, s)
		if !fired {
			continue
		}
		window := rule.Window
		if window <= 0 {
			window = e.cfg.DedupWindow
		}
		key := stateKey{code: s.Quote.Code, kind: rule.Kind}
		if last, ok := e.lastFired[key]; ok && now.Sub(last) < window {
			continue // cooling down
		}
		out = append(out, models.NewAlert(rule.Kind, inst, rule.Priority, s.Quote.Price, s.Metrics.ChangeRate, msg, now))
	}
	return out
}

// Recent returns up to limit most recent alerts, newest first.
func (e *Engine) Recent(limit int) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.recent)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.Alert, limit)
	for i := 0; i < limit; i++ {
		out[i] = e.recent[n-1-i]
	}
	return out
}
