package repository

import (
	"context"

	"CoinBoard/internal/domain/models"
)

// MarketSource fetches market data from the upstream pricing API.
type MarketSource interface {
	FetchTopMarkets(ctx context.Context, n int) ([]models.CoinMarket, error)
	FetchMarketChart(ctx context.Context, id string, days int) (*models.HistoricData, error)
}

// CoinStore persists coin snapshots and historic series.
type CoinStore interface {
	UpsertMarkets(ctx context.Context, coins []models.CoinMarket) error
	// PruneExcept removes coins no longer in the tracked set.
	PruneExcept(ctx context.Context, ids []string) error
	ListCoinIDs(ctx context.Context) ([]string, error)
	TopMarkets(ctx context.Context, n int) ([]models.CoinMarket, error)
	GetCoin(ctx context.Context, id string) (*models.CoinMarket, error)
	UpsertHistoric(ctx context.Context, data *models.HistoricData) error
	GetHistoric(ctx context.Context, id string) (*models.HistoricData, error)
	HasData(ctx context.Context) (bool, error)
	Health(ctx context.Context) error
	Close() error
}

// SnapshotPublisher emits coin snapshot events to the message bus.
type SnapshotPublisher interface {
	Publish(ctx context.Context, coin *models.CoinMarket) error
	PublishBatch(ctx context.Context, coins []models.CoinMarket) error
	Close() error
}

// Metrics records operational telemetry.
type Metrics interface {
	RecordRefresh(kind string, ok bool)
	RecordSnapshotWritten(backend, coin string)
	RecordError(kind string)
	RecordCacheLookup(kind string, hit bool)
	RecordLastPrice(coin string, price float64)
	RecordLatency(op string, seconds float64)
}
