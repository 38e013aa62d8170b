package usecase

import (
	"context"
	"testing"
	"time"

	"CoinBoard/internal/domain/models"
	domrepo "CoinBoard/internal/domain/repository"
	pkgcache "CoinBoard/pkg/cache"
)

type fakePublisher struct {
	batches [][]models.CoinMarket
}

func (f *fakePublisher) Publish(_ context.Context, coin *models.CoinMarket) error {
	f.batches = append(f.batches, []models.CoinMarket{*coin})
	return nil
}

func (f *fakePublisher) PublishBatch(_ context.Context, coins []models.CoinMarket) error {
	f.batches = append(f.batches, coins)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeNotifier struct {
	events [][]models.CoinMarket
}

func (f *fakeNotifier) NotifyRefresh(coins []models.CoinMarket) {
	f.events = append(f.events, coins)
}

func newTestSource() *fakeSource {
	return &fakeSource{
		coins: []models.CoinMarket{coin("bitcoin", 1, 50000), coin("ethereum", 2, 3000)},
		charts: map[string]*models.HistoricData{
			"bitcoin":  dailyChart("bitcoin", 30),
			"ethereum": dailyChart("ethereum", 30),
		},
	}
}

func newRefresher(source *fakeSource, store *fakeStore, pub *fakePublisher) (*Refresher, pkgcache.Service) {
	cache := pkgcache.NewMemoryCache()
	var p domrepo.SnapshotPublisher
	if pub != nil {
		p = pub
	}
	r := NewRefresher(source, store, p, cache, nopMetrics{}, testLogger(), 2, 30, 0)
	return r, cache
}

func TestRefreshAllDirectMode(t *testing.T) {
	source := newTestSource()
	store := newFakeStore()
	r, _ := newRefresher(source, store, nil)

	notifier := &fakeNotifier{}
	r.SetNotifier(notifier)

	if err := r.RefreshAll(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if store.upserts != 1 {
		t.Fatalf("expected one snapshot upsert, got %d", store.upserts)
	}
	if len(store.historic) != 2 {
		t.Fatalf("expected 2 historic documents, got %d", len(store.historic))
	}
	if len(store.pruned) != 2 {
		t.Fatalf("expected prune with 2 ids, got %v", store.pruned)
	}
	if len(notifier.events) != 1 || len(notifier.events[0]) != 2 {
		t.Fatalf("expected one notification with 2 coins, got %v", notifier.events)
	}
}

func TestRefreshAllRunsInvalidationHook(t *testing.T) {
	source := newTestSource()
	r, _ := newRefresher(source, newFakeStore(), nil)

	fired := 0
	r.OnCacheInvalidated(func() { fired++ })

	if err := r.RefreshAll(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fired != 1 {
		t.Fatalf("expected invalidation hook to run once, ran %d times", fired)
	}
}

func TestRefreshAllKafkaMode(t *testing.T) {
	source := newTestSource()
	store := newFakeStore()
	pub := &fakePublisher{}
	r, _ := newRefresher(source, store, pub)

	if err := r.RefreshAll(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("expected one published batch of 2, got %v", pub.batches)
	}
	if store.upserts != 0 {
		t.Fatalf("snapshots must not be written directly in kafka mode, got %d upserts", store.upserts)
	}
	if len(store.historic) != 2 {
		t.Fatalf("historic series still go to the store, got %d", len(store.historic))
	}
}

func TestRefreshAllSourceError(t *testing.T) {
	source := newTestSource()
	source.marketsErr = errStore
	r, _ := newRefresher(source, newFakeStore(), nil)

	if err := r.RefreshAll(context.Background()); err == nil {
		t.Fatalf("expected error when source is down")
	}
}

func TestRefreshInvalidatesCache(t *testing.T) {
	source := newTestSource()
	store := newFakeStore()
	r, cache := newRefresher(source, store, nil)

	ctx := context.Background()
	if err := cache.Set(ctx, cacheKeyTopPrefix+"5", []string{"stale"}, time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	if err := r.RefreshAll(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	var out []string
	if err := cache.Get(ctx, cacheKeyTopPrefix+"5", &out); err == nil {
		t.Fatalf("expected stale key to be invalidated, got %v", out)
	}
}

func TestEnsureInitialDataSkipsWhenPopulated(t *testing.T) {
	source := newTestSource()
	store := newFakeStore()
	store.coins = append(store.coins, coin("bitcoin", 1, 50000))
	r, _ := newRefresher(source, store, nil)

	if err := r.EnsureInitialData(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if store.upserts != 0 {
		t.Fatalf("expected no refresh on populated store, got %d upserts", store.upserts)
	}
}

func TestRefreshAllSkipsWhenLockHeld(t *testing.T) {
	source := newTestSource()
	store := newFakeStore()
	r, cache := newRefresher(source, store, nil)

	ctx := context.Background()
	locked, err := cache.TryLock(ctx, refreshLockKey, time.Minute)
	if err != nil || !locked {
		t.Fatalf("seed lock: locked=%v err=%v", locked, err)
	}

	if err := r.RefreshAll(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if store.upserts != 0 {
		t.Fatalf("expected skipped cycle, got %d upserts", store.upserts)
	}

	// Once the lock is released the next cycle runs normally.
	if err := cache.Unlock(ctx, refreshLockKey); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := r.RefreshAll(ctx); err != nil {
		t.Fatalf("refresh after unlock: %v", err)
	}
	if store.upserts != 1 {
		t.Fatalf("expected one upsert after unlock, got %d", store.upserts)
	}
}
