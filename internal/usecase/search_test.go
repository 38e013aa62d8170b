package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pkgcache "CoinBoard/pkg/cache"
)

func newSearch(store *fakeStore) *Search {
	cache := pkgcache.NewMemoryCache()
	markets := NewMarketQuery(store, cache, nopMetrics{}, time.Minute, testLogger())
	return NewSearch(markets, cache, time.Minute, testLogger())
}

func searchStore() *fakeStore {
	store := newFakeStore()
	store.coins = append(store.coins, coin("bitcoin", 1, 50000), coin("ethereum", 2, 3000))
	store.historic["bitcoin"] = dailyChart("bitcoin", 30)
	return store
}

func TestSearchPriceQuery(t *testing.T) {
	s := newSearch(searchStore())

	raw, err := s.Run(context.Background(), "price of bitcoin")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var got struct {
		ID           string  `json:"id"`
		CurrentPrice float64 `json:"current_price"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "bitcoin" || got.CurrentPrice != 50000 {
		t.Fatalf("got %+v", got)
	}
}

func TestSearchTrendQuery(t *testing.T) {
	s := newSearch(searchStore())

	raw, err := s.Run(context.Background(), "7-day trend of bitcoin")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var got struct {
		ID     string `json:"id"`
		Prices []struct {
			Date  string  `json:"date"`
			Value float64 `json:"value"`
		} `json:"prices"`
		MarketCaps []json.RawMessage `json:"market_caps"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "bitcoin" {
		t.Fatalf("got id %q", got.ID)
	}
	if len(got.Prices) != 7 {
		t.Fatalf("expected 7 daily prices, got %d", len(got.Prices))
	}
	if len(got.MarketCaps) != 7 {
		t.Fatalf("expected 7 daily market caps, got %d", len(got.MarketCaps))
	}
}

func TestSearchUnresolvedIsNull(t *testing.T) {
	s := newSearch(searchStore())

	for _, q := range []string{"", "   ", "hello world", "15-day trend of dogecoin", "bitcoin"} {
		raw, err := s.Run(context.Background(), q)
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if string(raw) != "null" {
			t.Fatalf("search %q: expected null, got %s", q, raw)
		}
	}
}

func TestSearchTrendWithoutHistoricIsNull(t *testing.T) {
	store := searchStore()
	delete(store.historic, "bitcoin")
	s := newSearch(store)

	raw, err := s.Run(context.Background(), "day trend of bitcoin")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if string(raw) != "null" {
		t.Fatalf("expected null, got %s", raw)
	}
}

func TestSearchVocabularyInvalidation(t *testing.T) {
	store := searchStore()
	cache := pkgcache.NewMemoryCache()
	markets := NewMarketQuery(store, cache, nopMetrics{}, time.Minute, testLogger())
	s := NewSearch(markets, cache, time.Minute, testLogger())
	ctx := context.Background()

	// Seed the vocabulary before dogecoin is tracked.
	if raw, err := s.Run(ctx, "price of dogecoin"); err != nil || string(raw) != "null" {
		t.Fatalf("expected null before tracking, got %s err %v", raw, err)
	}

	store.coins = append(store.coins, coin("dogecoin", 3, 0.1))

	// Dropping the serving cache alone leaves the in-process vocabulary
	// stale, the new coin still does not resolve.
	clearServing := func() {
		if err := cache.Delete(ctx, "cryptoIds"); err != nil {
			t.Fatalf("clear ids: %v", err)
		}
		if err := cache.DeleteByPattern(ctx, pkgcache.BuildPattern("searchQuery_")); err != nil {
			t.Fatalf("clear search cache: %v", err)
		}
	}
	clearServing()
	if raw, err := s.Run(ctx, "price of dogecoin"); err != nil || string(raw) != "null" {
		t.Fatalf("expected stale vocabulary to miss new coin, got %s err %v", raw, err)
	}

	s.InvalidateVocabulary()
	clearServing()

	raw, err := s.Run(ctx, "price of dogecoin")
	if err != nil {
		t.Fatalf("search after invalidation: %v", err)
	}
	var got struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "dogecoin" {
		t.Fatalf("expected dogecoin to resolve, got %s", raw)
	}
}

func TestSearchResultIsCached(t *testing.T) {
	store := searchStore()
	s := newSearch(store)

	if _, err := s.Run(context.Background(), "day trend of bitcoin"); err != nil {
		t.Fatalf("first search: %v", err)
	}
	calls := store.historicCalls

	if _, err := s.Run(context.Background(), "Day Trend of Bitcoin"); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if store.historicCalls != calls {
		t.Fatalf("expected cached result, store reads went %d -> %d", calls, store.historicCalls)
	}
}
