package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"CoinBoard/internal/domain/models"
	domrepo "CoinBoard/internal/domain/repository"
	"CoinBoard/internal/service/series"
	pkgcache "CoinBoard/pkg/cache"
	applogger "CoinBoard/pkg/logger"
	"CoinBoard/pkg/util"
)

// Cache key scheme shared with the frontend contract.
const (
	cacheKeyTopPrefix      = "cryptoCurrencies_n_"
	cacheKeyIDs            = "cryptoIds"
	cacheKeyHistoricPrefix = "cryptoHistoricData_"
	cacheKeySearchPrefix   = "searchQuery_"
)

const (
	// DefaultTopN is served when the topN query parameter is absent or
	// unparsable.
	DefaultTopN = 10
	// MaxTopN bounds the topN query parameter.
	MaxTopN = 10
	// MaxClosingDays bounds the days window of reduced series.
	MaxClosingDays = 30
)

// ErrCoinNotFound is returned when a coin id has no stored data.
var ErrCoinNotFound = errors.New("coin not found")

// MarketQuery serves read paths over the coin store with a cache in front.
type MarketQuery struct {
	store   domrepo.CoinStore
	cache   pkgcache.Service
	metrics domrepo.Metrics
	ttl     time.Duration
	l       *applogger.Logger
}

func NewMarketQuery(store domrepo.CoinStore, cache pkgcache.Service, metrics domrepo.Metrics, ttl time.Duration, l *applogger.Logger) *MarketQuery {
	return &MarketQuery{store: store, cache: cache, metrics: metrics, ttl: ttl, l: l}
}

// TopCoins returns the top n coins by market cap rank. Callers validate n.
func (q *MarketQuery) TopCoins(ctx context.Context, n int) ([]models.CoinMarket, error) {
	key := cacheKeyTopPrefix + strconv.Itoa(n)

	var cached []models.CoinMarket
	if err := q.cache.Get(ctx, key, &cached); err == nil {
		q.metrics.RecordCacheLookup("top", true)
		return cached, nil
	}
	q.metrics.RecordCacheLookup("top", false)

	coins, err := q.store.TopMarkets(ctx, n)
	if err != nil {
		q.metrics.RecordError("store_top_markets")
		return nil, fmt.Errorf("top coins: %w", err)
	}

	if err := q.cache.Set(ctx, key, coins, q.ttl); err != nil && q.l != nil {
		q.l.Warn("cache set failed", applogger.String("key", key), applogger.Error(err))
	}
	return coins, nil
}

// Historic returns the stored raw market_chart series for one coin.
func (q *MarketQuery) Historic(ctx context.Context, id string) (*models.HistoricData, error) {
	key := cacheKeyHistoricPrefix + id

	var cached models.HistoricData
	if err := q.cache.Get(ctx, key, &cached); err == nil {
		q.metrics.RecordCacheLookup("historic", true)
		return &cached, nil
	}
	q.metrics.RecordCacheLookup("historic", false)

	data, err := q.store.GetHistoric(ctx, id)
	if err != nil {
		q.metrics.RecordError("store_get_historic")
		return nil, fmt.Errorf("historic %s: %w", id, err)
	}
	if data == nil {
		return nil, ErrCoinNotFound
	}

	if err := q.cache.Set(ctx, key, data, q.ttl); err != nil && q.l != nil {
		q.l.Warn("cache set failed", applogger.String("key", key), applogger.Error(err))
	}
	return data, nil
}

// ClosingSeries reduces a coin's raw price and market-cap series to one value
// per UTC day over the trailing days window. days outside [1, MaxClosingDays]
// is clamped.
func (q *MarketQuery) ClosingSeries(ctx context.Context, id string, days int) (*models.ClosingSeries, error) {
	days = util.ClampInt(days, 1, MaxClosingDays)

	data, err := q.Historic(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ClosingSeries{
		ID:         id,
		Prices:     series.ReduceDaily(data.Prices, days),
		MarketCaps: series.ReduceDaily(data.MarketCaps, days),
	}, nil
}

// Coin returns the latest stored snapshot for one coin.
func (q *MarketQuery) Coin(ctx context.Context, id string) (*models.CoinMarket, error) {
	coin, err := q.store.GetCoin(ctx, id)
	if err != nil {
		q.metrics.RecordError("store_get_coin")
		return nil, fmt.Errorf("coin %s: %w", id, err)
	}
	if coin == nil {
		return nil, ErrCoinNotFound
	}
	return coin, nil
}

// KnownIDs returns the tracked coin id vocabulary.
func (q *MarketQuery) KnownIDs(ctx context.Context) ([]string, error) {
	var cached []string
	if err := q.cache.Get(ctx, cacheKeyIDs, &cached); err == nil {
		q.metrics.RecordCacheLookup("ids", true)
		return cached, nil
	}
	q.metrics.RecordCacheLookup("ids", false)

	ids, err := q.store.ListCoinIDs(ctx)
	if err != nil {
		q.metrics.RecordError("store_list_ids")
		return nil, fmt.Errorf("known ids: %w", err)
	}

	if err := q.cache.Set(ctx, cacheKeyIDs, ids, q.ttl); err != nil && q.l != nil {
		q.l.Warn("cache set failed", applogger.String("key", cacheKeyIDs), applogger.Error(err))
	}
	return ids, nil
}
