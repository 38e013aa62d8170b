//go:build wireinject
// +build wireinject

package di

import (
	"CoinBoard/pkg/config"
	"CoinBoard/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideCacheService,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideMarketSource,
		ProvideCoinStore,
		ProvideSnapshotPublisher,

		// Use cases
		ProvideRefresher,
		ProvideMarketQuery,
		ProvideSearch,
		ProvideSnapshotsHandler,

		// Delivery
		ProvideCryptoHandler,
		ProvideHub,
		ProvideScheduler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
