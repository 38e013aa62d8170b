package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinBoard/internal/domain/models"
	domrepo "CoinBoard/internal/domain/repository"
	"CoinBoard/internal/service/ratelimit"
	pkgcache "CoinBoard/pkg/cache"
	applogger "CoinBoard/pkg/logger"
)

const (
	sourcePaceKey  = "coingecko_market_chart"
	refreshLockKey = "refresh_lock"
	refreshLockTTL = 15 * time.Minute
)

// RefreshNotifier is told when a refresh cycle lands new data.
type RefreshNotifier interface {
	NotifyRefresh(coins []models.CoinMarket)
}

// Refresher pulls the tracked coin set from the upstream source and lands it
// in storage, then invalidates the serving cache. In the kafka backend mode
// snapshots go through the publisher and a consumer persists them; historic
// series always go straight to the store.
type Refresher struct {
	source       domrepo.MarketSource
	store        domrepo.CoinStore
	publisher    domrepo.SnapshotPublisher // nil in direct mode
	cache        pkgcache.Service
	limiter      *ratelimit.Limiter
	metrics      domrepo.Metrics
	notifier     RefreshNotifier           // optional
	onInvalidate func()                    // optional, runs after cache invalidation
	l            *applogger.Logger

	topN          int
	historyDays   int
	fetchInterval time.Duration
}

func NewRefresher(
	source domrepo.MarketSource,
	store domrepo.CoinStore,
	publisher domrepo.SnapshotPublisher,
	cache pkgcache.Service,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	topN, historyDays int,
	fetchInterval time.Duration,
) *Refresher {
	return &Refresher{
		source:        source,
		store:         store,
		publisher:     publisher,
		cache:         cache,
		limiter:       ratelimit.New(),
		metrics:       metrics,
		l:             l,
		topN:          topN,
		historyDays:   historyDays,
		fetchInterval: fetchInterval,
	}
}

// SetNotifier injects the push-notification sink.
func (r *Refresher) SetNotifier(n RefreshNotifier) { r.notifier = n }

// OnCacheInvalidated registers a callback that runs after each cycle's cache
// invalidation, for in-process caches living outside the cache service.
func (r *Refresher) OnCacheInvalidated(fn func()) { r.onInvalidate = fn }

// EnsureInitialData runs one refresh cycle when the store is empty, so a
// fresh deployment serves data before the first scheduled run.
func (r *Refresher) EnsureInitialData(ctx context.Context) error {
	has, err := r.store.HasData(ctx)
	if err != nil {
		return fmt.Errorf("check initial data: %w", err)
	}
	if has {
		return nil
	}
	r.l.Info("store empty, running initial refresh")
	return r.RefreshAll(ctx)
}

// RefreshAll runs one full refresh cycle: top markets, then the historic
// series of every tracked coin, then prune and cache invalidation. A cache
// lock keeps concurrent cycles (cron overlap, multiple instances) from
// hammering the upstream source.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	start := time.Now()

	locked, err := r.cache.TryLock(ctx, refreshLockKey, refreshLockTTL)
	if err != nil {
		r.l.Warn("refresh lock unavailable, continuing without it", applogger.Error(err))
	} else if !locked {
		r.l.Info("refresh already in progress, skipping cycle")
		return nil
	} else {
		defer func() {
			if err := r.cache.Unlock(context.WithoutCancel(ctx), refreshLockKey); err != nil {
				r.l.Warn("refresh unlock failed", applogger.Error(err))
			}
		}()
	}

	coins, err := r.source.FetchTopMarkets(ctx, r.topN)
	if err != nil {
		r.metrics.RecordRefresh("markets", false)
		r.metrics.RecordError("source_markets")
		return fmt.Errorf("fetch top markets: %w", err)
	}
	if len(coins) == 0 {
		r.metrics.RecordRefresh("markets", false)
		return fmt.Errorf("fetch top markets: empty response")
	}

	if err := r.persistSnapshots(ctx, coins); err != nil {
		r.metrics.RecordRefresh("markets", false)
		return err
	}
	r.metrics.RecordRefresh("markets", true)
	for i := range coins {
		r.metrics.RecordLastPrice(coins[i].ID, coins[i].CurrentPrice)
	}

	ids := make([]string, 0, len(coins))
	for i := range coins {
		ids = append(ids, coins[i].ID)
	}
	if err := r.store.PruneExcept(ctx, ids); err != nil {
		// Stale rows are not worth failing the cycle over.
		r.metrics.RecordError("store_prune")
		r.l.Warn("prune failed", applogger.Error(err))
	}

	failed := 0
	for _, id := range ids {
		if err := r.refreshHistoric(ctx, id); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			r.l.Error("historic refresh failed",
				applogger.String("coin", id),
				applogger.Error(err),
			)
		}
	}

	r.invalidateCache(ctx)

	if r.notifier != nil {
		r.notifier.NotifyRefresh(coins)
	}

	r.metrics.RecordLatency("refresh_all", time.Since(start).Seconds())
	r.l.Info("refresh cycle done",
		applogger.Int("coins", len(coins)),
		applogger.Int("historic_failed", failed),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	if failed == len(ids) {
		return fmt.Errorf("refresh: all %d historic fetches failed", failed)
	}
	return nil
}

func (r *Refresher) persistSnapshots(ctx context.Context, coins []models.CoinMarket) error {
	if r.publisher != nil {
		if err := r.publisher.PublishBatch(ctx, coins); err != nil {
			r.metrics.RecordError("publish_snapshots")
			return fmt.Errorf("publish snapshots: %w", err)
		}
		return nil
	}
	if err := r.store.UpsertMarkets(ctx, coins); err != nil {
		r.metrics.RecordError("store_snapshots")
		return fmt.Errorf("store snapshots: %w", err)
	}
	for i := range coins {
		r.metrics.RecordSnapshotWritten("direct", coins[i].ID)
	}
	return nil
}

func (r *Refresher) refreshHistoric(ctx context.Context, id string) error {
	if err := r.pace(ctx); err != nil {
		return err
	}
	data, err := r.source.FetchMarketChart(ctx, id, r.historyDays)
	if err != nil {
		r.metrics.RecordRefresh("historic", false)
		r.metrics.RecordError("source_historic")
		return err
	}
	if err := r.store.UpsertHistoric(ctx, data); err != nil {
		r.metrics.RecordRefresh("historic", false)
		r.metrics.RecordError("store_historic")
		return err
	}
	r.metrics.RecordRefresh("historic", true)
	return nil
}

// pace spaces upstream calls so a refresh cycle stays inside the source's
// public-tier rate limit.
func (r *Refresher) pace(ctx context.Context) error {
	if r.fetchInterval <= 0 {
		return nil
	}
	refill := 1.0 / r.fetchInterval.Seconds()
	for {
		if r.limiter.Allow(sourcePaceKey, 1, refill) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// invalidateCache drops every serving key so the next read repopulates from
// the freshly landed data.
func (r *Refresher) invalidateCache(ctx context.Context) {
	if err := r.cache.Delete(ctx, cacheKeyIDs); err != nil {
		r.l.Warn("cache invalidate failed", applogger.String("key", cacheKeyIDs), applogger.Error(err))
	}
	for _, pattern := range []string{
		pkgcache.BuildPattern(cacheKeyTopPrefix),
		pkgcache.BuildPattern(cacheKeyHistoricPrefix),
		pkgcache.BuildPattern(cacheKeySearchPrefix),
	} {
		if err := r.cache.DeleteByPattern(ctx, pattern); err != nil {
			r.l.Warn("cache invalidate failed", applogger.String("pattern", pattern), applogger.Error(err))
		}
	}
	if r.onInvalidate != nil {
		r.onInvalidate()
	}
}
