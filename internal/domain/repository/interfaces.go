package repository

import (
	"context"

	"RankPulse/internal/domain/models"
)

// SnapshotSource supplies, on demand, current quotes for a universe of codes.
type SnapshotSource interface {
	// Fetch returns quotes for the requested codes. Instruments the source
	// cannot resolve are omitted, not errored.
	Fetch(ctx context.Context, codes []string) ([]models.Quote, error)
	Close() error
}

// QuoteStream is an optional realtime execution feed, consumed between cycles.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// AlertSink receives emitted alerts (e.g. a Kafka topic keyed by code).
type AlertSink interface {
	Publish(ctx context.Context, a models.Alert) error
	PublishBatch(ctx context.Context, alerts []models.Alert) error
	Close() error
}

// Metrics records operational metrics for the pipeline.
type Metrics interface {
	RecordCycle(result string, seconds float64, instruments int)
	RecordAlert(rule, priority string)
	RecordCacheHit(kind string)
	RecordCacheMiss(kind string)
	RecordError(kind string)
	RecordLastPrice(code string, price float64)
	RecordLatency(op string, seconds float64)
}
