//go:build wireinject
// +build wireinject

package di

import (
	"RankPulse/pkg/config"
	"RankPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCacheService,
		ProvideAlertSink,
		ProvideSnapshotSource,
		ProvideQuoteCollector,

		// Engines
		ProvideHistoryStore,
		ProvideIndicatorEngine,
		ProvidePatternDetector,
		ProvideRankingEngine,
		ProvideAlertEngine,

		// Use cases
		ProvideCoordinator,
		ProvideQueryService,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
