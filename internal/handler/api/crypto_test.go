package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CoinBoard/internal/domain/models"
	"CoinBoard/internal/usecase"
	pkgcache "CoinBoard/pkg/cache"
	applogger "CoinBoard/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubStore struct {
	coins    []models.CoinMarket
	historic map[string]*models.HistoricData
	err      error
}

func (s *stubStore) UpsertMarkets(context.Context, []models.CoinMarket) error { return s.err }
func (s *stubStore) PruneExcept(context.Context, []string) error              { return s.err }

func (s *stubStore) ListCoinIDs(context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	ids := make([]string, 0, len(s.coins))
	for i := range s.coins {
		ids = append(ids, s.coins[i].ID)
	}
	return ids, nil
}

func (s *stubStore) TopMarkets(_ context.Context, n int) ([]models.CoinMarket, error) {
	if s.err != nil {
		return nil, s.err
	}
	if n > len(s.coins) {
		n = len(s.coins)
	}
	return s.coins[:n], nil
}

func (s *stubStore) GetCoin(_ context.Context, id string) (*models.CoinMarket, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.coins {
		if s.coins[i].ID == id {
			return &s.coins[i], nil
		}
	}
	return nil, nil
}

func (s *stubStore) UpsertHistoric(context.Context, *models.HistoricData) error { return s.err }

func (s *stubStore) GetHistoric(_ context.Context, id string) (*models.HistoricData, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.historic[id], nil
}

func (s *stubStore) HasData(context.Context) (bool, error) { return len(s.coins) > 0, nil }
func (s *stubStore) Health(context.Context) error          { return s.err }
func (s *stubStore) Close() error                          { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordRefresh(string, bool)           {}
func (nopMetrics) RecordSnapshotWritten(string, string) {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordCacheLookup(string, bool)       {}
func (nopMetrics) RecordLastPrice(string, float64)      {}
func (nopMetrics) RecordLatency(string, float64)        {}

func newTestHandler(t *testing.T, store *stubStore) *echo.Echo {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cache := pkgcache.NewMemoryCache()
	markets := usecase.NewMarketQuery(store, cache, nopMetrics{}, time.Minute, l)
	search := usecase.NewSearch(markets, cache, time.Minute, l)

	e := echo.New()
	NewCryptoHandler(l, markets, search, store).RegisterRoutes(e)
	return e
}

func request(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func marketData() *stubStore {
	const dayMS = int64(24 * 60 * 60 * 1000)
	historic := &models.HistoricData{ID: "bitcoin"}
	for d := int64(1); d <= 10; d++ {
		historic.Prices = append(historic.Prices, models.NewRawPoint(d*dayMS, float64(d)))
		historic.MarketCaps = append(historic.MarketCaps, models.NewRawPoint(d*dayMS, float64(d)*1000))
	}
	return &stubStore{
		coins: []models.CoinMarket{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 50000, MarketCapRank: 1},
			{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: 3000, MarketCapRank: 2},
		},
		historic: map[string]*models.HistoricData{"bitcoin": historic},
	}
}

func TestTopCoinsEndpoint(t *testing.T) {
	e := newTestHandler(t, marketData())

	rec := request(e, "/crypto/top?topN=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var coins []models.CoinMarket
	if err := json.Unmarshal(rec.Body.Bytes(), &coins); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(coins) != 2 || coins[0].ID != "bitcoin" {
		t.Fatalf("got %+v", coins)
	}
}

func TestTopCoinsDefault(t *testing.T) {
	e := newTestHandler(t, marketData())

	// Absent, unparsable, and zero all serve the default top 10.
	for _, target := range []string{"/crypto/top", "/crypto/top?topN=abc", "/crypto/top?topN=0"} {
		rec := request(e, target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d body %s", target, rec.Code, rec.Body.String())
		}
		var coins []models.CoinMarket
		if err := json.Unmarshal(rec.Body.Bytes(), &coins); err != nil {
			t.Fatalf("%s: decode: %v", target, err)
		}
		if len(coins) != 2 || coins[0].ID != "bitcoin" {
			t.Fatalf("%s: got %+v", target, coins)
		}
	}
}

func TestTopCoinsValidation(t *testing.T) {
	e := newTestHandler(t, marketData())

	for _, target := range []string{"/crypto/top?topN=11", "/crypto/top?topN=-1"} {
		rec := request(e, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", target, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Top N must be between 1 and 10"}` {
			t.Fatalf("%s: body %s", target, got)
		}
	}
}

func TestTopCoinsStoreFailure(t *testing.T) {
	store := marketData()
	store.err = context.DeadlineExceeded
	e := newTestHandler(t, store)

	rec := request(e, "/crypto/top?topN=2")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Internal server error"}` {
		t.Fatalf("body %s", got)
	}
}

func TestHistoricEndpoint(t *testing.T) {
	e := newTestHandler(t, marketData())

	rec := request(e, "/crypto/historic?id=bitcoin")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var data models.HistoricData
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.ID != "bitcoin" || len(data.Prices) != 10 {
		t.Fatalf("got id %q with %d prices", data.ID, len(data.Prices))
	}

	rec = request(e, "/crypto/historic")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id: status %d", rec.Code)
	}

	rec = request(e, "/crypto/historic?id=unknown")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("unknown coin: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestClosingPricesEndpoint(t *testing.T) {
	e := newTestHandler(t, marketData())

	rec := request(e, "/crypto/closing-prices-market-cap?id=bitcoin&days=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var series models.ClosingSeries
	if err := json.Unmarshal(rec.Body.Bytes(), &series); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(series.Prices) != 5 || len(series.MarketCaps) != 5 {
		t.Fatalf("got %d prices, %d market caps", len(series.Prices), len(series.MarketCaps))
	}

	// Out-of-range or unparsable days is clamped, not rejected.
	for _, target := range []string{
		"/crypto/closing-prices-market-cap?id=bitcoin&days=500",
		"/crypto/closing-prices-market-cap?id=bitcoin&days=abc",
		"/crypto/closing-prices-market-cap?id=bitcoin",
	} {
		rec = request(e, target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", target, rec.Code)
		}
	}

	rec = request(e, "/crypto/closing-prices-market-cap")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing id: status %d", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	e := newTestHandler(t, marketData())

	rec := request(e, "/crypto/search?query=price+of+bitcoin")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var got models.CoinMarket
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "bitcoin" {
		t.Fatalf("got %+v", got)
	}

	rec = request(e, "/crypto/search?query=hello")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("unresolved: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = request(e, "/crypto/search")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("empty query: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestHandler(t, marketData())
	rec := request(e, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	broken := marketData()
	broken.err = context.DeadlineExceeded
	e = newTestHandler(t, broken)
	rec = request(e, "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
}
