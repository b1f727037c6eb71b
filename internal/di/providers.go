package di

import (
	"context"
	"fmt"
	"time"

	"RankPulse/internal/alert"
	"RankPulse/internal/domain/models"
	"RankPulse/internal/domain/repository"
	"RankPulse/internal/handler/api"
	"RankPulse/internal/history"
	"RankPulse/internal/indicator"
	"RankPulse/internal/pattern"
	"RankPulse/internal/ranking"
	"RankPulse/internal/service/kis"
	"RankPulse/internal/usecase"
	"RankPulse/pkg/cache"
	"RankPulse/pkg/config"
	xhttp "RankPulse/pkg/http"
	pkgkafka "RankPulse/pkg/kafka"
	applogger "RankPulse/pkg/logger"
	"RankPulse/pkg/metrics"
	"RankPulse/pkg/server"
)

// ProvideLogger creates the application logger. With a Kafka producer
// available, aggregated error logs are shipped to a log topic as well.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	log, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, err
	}
	if producer != nil {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      kafkaLogPublisher{producer: producer},
		})
	}
	return log, nil
}

// kafkaLogPublisher adapts the Kafka producer to the log collector's
// Publisher interface.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCacheService builds the configured cache backend.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MaxSize),
			cache.WithHotKeyPromotion(cfg.Cache.HotKeyRatio, cfg.Cache.HotKeyMinAccess),
		), nil
	case "redis":
		return cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
	case "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.MaxSize)), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// ProvideKafkaProducer creates the shared Kafka producer, or nil when no
// broker is configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAlertSink creates the Kafka alert sink, or a no-op sink when no
// broker is configured.
func ProvideAlertSink(cfg *config.Config, producer *pkgkafka.Producer) repository.AlertSink {
	if producer == nil {
		return alert.NopSink{}
	}
	return alert.NewKafkaSink(producer, cfg.Kafka.Topic)
}

// ProvideSnapshotSource creates the KIS REST snapshot source.
func ProvideSnapshotSource(cfg *config.Config, log *applogger.Logger) repository.SnapshotSource {
	return kis.NewClient(kis.Config{
		BaseURL:   cfg.KIS.BaseURL,
		AppKey:    cfg.KIS.AppKey,
		AppSecret: cfg.KIS.AppSecret,
		Timeout:   cfg.KIS.Timeout,
	}, log)
}

// ProvideQuoteCollector wires the optional realtime feed; nil when no
// websocket endpoint is configured.
func ProvideQuoteCollector(cfg *config.Config, m repository.Metrics) *usecase.QuoteCollector {
	if cfg.KIS.WebSocketURL == "" {
		return nil
	}
	stream := kis.NewStream(
		cfg.KIS.WebSocketURL,
		cfg.KIS.AppKey,
		cfg.Scan.Codes,
		cfg.KIS.ReconnectDelay,
		cfg.KIS.PingInterval,
	)
	return usecase.NewQuoteCollector(stream, m)
}

// ProvideHistoryStore creates the rolling bar store.
func ProvideHistoryStore(cfg *config.Config) *history.Store {
	return history.NewStore(cfg.Scan.HistoryBars)
}

// ProvideIndicatorEngine creates the indicator engine.
func ProvideIndicatorEngine() *indicator.Engine {
	return indicator.NewEngine(indicator.Config{})
}

// ProvidePatternDetector creates the pattern detector.
func ProvidePatternDetector() *pattern.Detector {
	return pattern.NewDetector(pattern.Config{})
}

// ProvideRankingEngine creates the ranking engine.
func ProvideRankingEngine() *ranking.Engine {
	return ranking.NewEngine()
}

// ProvideAlertEngine builds the alert engine from configured rules, falling
// back to the standard rule set when none are configured.
func ProvideAlertEngine(cfg *config.Config, log *applogger.Logger) *alert.Engine {
	rules := make([]models.AlertRule, 0, len(cfg.Alerts.Rules))
	for _, r := range cfg.Alerts.Rules {
		rules = append(rules, models.AlertRule{
			Kind:      models.RuleKind(r.Kind),
			Threshold: r.Threshold,
			Window:    r.Window,
			Priority:  models.ParsePriority(r.Priority),
		})
	}
	if len(rules) == 0 {
		rules = defaultRules()
	}
	return alert.NewEngine(alert.Config{
		Rules:       rules,
		DedupWindow: cfg.Alerts.DedupWindow,
		MaxPerCode:  cfg.Alerts.MaxPerCode,
		RecentCap:   cfg.Alerts.RecentCap,
	}, log)
}

func defaultRules() []models.AlertRule {
	return []models.AlertRule{
		{Kind: models.RuleSurge, Threshold: 5, Priority: models.PriorityHigh},
		{Kind: models.RulePlunge, Threshold: 5, Priority: models.PriorityHigh},
		{Kind: models.RuleLimitUp, Threshold: 0.5, Priority: models.PriorityVeryHigh},
		{Kind: models.RuleLimitDown, Threshold: 0.5, Priority: models.PriorityVeryHigh},
		{Kind: models.RuleBreakout52W, Priority: models.PriorityMedium},
		{Kind: models.RuleBreakdown52W, Priority: models.PriorityMedium},
		{Kind: models.RuleStreak, Threshold: 3, Priority: models.PriorityLow},
		{Kind: models.RuleGap, Threshold: 3, Priority: models.PriorityMedium},
		{Kind: models.RuleVolatilitySpike, Threshold: 80, Priority: models.PriorityMedium, Window: 30 * time.Minute},
	}
}

// ProvideCoordinator creates the cycle coordinator.
func ProvideCoordinator(
	cfg *config.Config,
	source repository.SnapshotSource,
	store *history.Store,
	indicators *indicator.Engine,
	patterns *pattern.Detector,
	alerts *alert.Engine,
	sink repository.AlertSink,
	cacheSvc cache.Service,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Coordinator {
	return usecase.NewCoordinator(usecase.CoordinatorConfig{
		Codes:          cfg.Scan.Codes,
		Cadence:        cfg.Scan.Cadence,
		FetchRetries:   cfg.Scan.FetchRetries,
		FetchBackoff:   cfg.Scan.FetchBackoff,
		MaxConcurrency: cfg.Scan.MaxConcurrency,
		HistoryWindow:  cfg.Scan.HistoryBars,
	}, source, store, indicators, patterns, alerts, sink, cacheSvc, m, log)
}

// ProvideQueryService creates the cache-fronted query service.
func ProvideQueryService(
	cfg *config.Config,
	coord *usecase.Coordinator,
	ranker *ranking.Engine,
	alerts *alert.Engine,
	detector *pattern.Detector,
	cacheSvc cache.Service,
	m repository.Metrics,
) *usecase.QueryService {
	return usecase.NewQueryService(coord, ranker, alerts, detector, cacheSvc, m, usecase.TTLConfig{
		Ranking: cfg.Cache.RankingTTL,
		HighLow: cfg.Cache.HighLowTTL,
		Limit:   cfg.Cache.LimitTTL,
		Summary: cfg.Cache.SummaryTTL,
		Quote:   cfg.Cache.QuoteTTL,
	})
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(log *applogger.Logger, queries *usecase.QueryService) xhttp.Handler {
	return api.NewRankingsHandler(log, queries)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	coord *usecase.Coordinator,
	collector *usecase.QuoteCollector,
	handler xhttp.Handler,
	cacheSvc cache.Service,
	sink repository.AlertSink,
) *server.App {
	return server.New(cfg, log, coord, collector, handler, cacheSvc, sink)
}
