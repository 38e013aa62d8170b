package usecase

import (
	"context"
	"errors"
	"fmt"

	"CoinBoard/internal/domain/models"
	applogger "CoinBoard/pkg/logger"
)

func testLogger() *applogger.Logger {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		panic(err)
	}
	return l
}

// fakeStore is an in-memory CoinStore for tests.
type fakeStore struct {
	coins    []models.CoinMarket
	historic map[string]*models.HistoricData
	err      error

	topCalls      int
	upserts       int
	historicCalls int
	pruned        []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{historic: make(map[string]*models.HistoricData)}
}

func (f *fakeStore) UpsertMarkets(_ context.Context, coins []models.CoinMarket) error {
	if f.err != nil {
		return f.err
	}
	f.upserts++
	f.coins = coins
	return nil
}

func (f *fakeStore) PruneExcept(_ context.Context, ids []string) error {
	f.pruned = ids
	return nil
}

func (f *fakeStore) ListCoinIDs(_ context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]string, 0, len(f.coins))
	for i := range f.coins {
		ids = append(ids, f.coins[i].ID)
	}
	return ids, nil
}

func (f *fakeStore) TopMarkets(_ context.Context, n int) ([]models.CoinMarket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.topCalls++
	if n > len(f.coins) {
		n = len(f.coins)
	}
	return f.coins[:n], nil
}

func (f *fakeStore) GetCoin(_ context.Context, id string) (*models.CoinMarket, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.coins {
		if f.coins[i].ID == id {
			return &f.coins[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpsertHistoric(_ context.Context, data *models.HistoricData) error {
	if f.err != nil {
		return f.err
	}
	f.historic[data.ID] = data
	return nil
}

func (f *fakeStore) GetHistoric(_ context.Context, id string) (*models.HistoricData, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.historicCalls++
	return f.historic[id], nil
}

func (f *fakeStore) HasData(_ context.Context) (bool, error) {
	return len(f.coins) > 0, nil
}

func (f *fakeStore) Health(_ context.Context) error { return f.err }
func (f *fakeStore) Close() error                   { return nil }

// fakeSource is a scripted MarketSource.
type fakeSource struct {
	coins      []models.CoinMarket
	charts     map[string]*models.HistoricData
	marketsErr error
	chartErr   error
}

func (f *fakeSource) FetchTopMarkets(_ context.Context, n int) ([]models.CoinMarket, error) {
	if f.marketsErr != nil {
		return nil, f.marketsErr
	}
	if n > len(f.coins) {
		n = len(f.coins)
	}
	return f.coins[:n], nil
}

func (f *fakeSource) FetchMarketChart(_ context.Context, id string, _ int) (*models.HistoricData, error) {
	if f.chartErr != nil {
		return nil, f.chartErr
	}
	chart, ok := f.charts[id]
	if !ok {
		return nil, fmt.Errorf("no chart for %s", id)
	}
	return chart, nil
}

// nopMetrics discards all telemetry.
type nopMetrics struct{}

func (nopMetrics) RecordRefresh(string, bool)           {}
func (nopMetrics) RecordSnapshotWritten(string, string) {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordCacheLookup(string, bool)       {}
func (nopMetrics) RecordLastPrice(string, float64)      {}
func (nopMetrics) RecordLatency(string, float64)        {}

var errStore = errors.New("store down")

func coin(id string, rank int64, price float64) models.CoinMarket {
	return models.CoinMarket{ID: id, Symbol: id[:3], Name: id, CurrentPrice: price, MarketCapRank: rank}
}

func dailyChart(id string, days int) *models.HistoricData {
	const dayMS = int64(24 * 60 * 60 * 1000)
	data := &models.HistoricData{ID: id}
	for d := 1; d <= days; d++ {
		data.Prices = append(data.Prices, models.NewRawPoint(int64(d)*dayMS, float64(d)))
		data.MarketCaps = append(data.MarketCaps, models.NewRawPoint(int64(d)*dayMS, float64(d)*1000))
	}
	return data
}
