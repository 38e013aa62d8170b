package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchTopMarkets(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("per_page")
		gotKey = r.Header.Get("x_cg_pro_api_key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
            {"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":50000,"market_cap_rank":1},
            {"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":3000,"market_cap_rank":2}
        ]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", 5*time.Second)
	coins, err := c.FetchTopMarkets(context.Background(), 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/coins/markets" {
		t.Fatalf("path %q", gotPath)
	}
	if gotQuery != "2" {
		t.Fatalf("per_page %q", gotQuery)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header %q", gotKey)
	}
	if len(coins) != 2 || coins[0].ID != "bitcoin" || coins[0].CurrentPrice != 50000 {
		t.Fatalf("got %+v", coins)
	}
}

func TestFetchMarketChartSkipsMalformedPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart" {
			t.Errorf("path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "prices": [[86400000, 1.5], ["bad", 2], [172800000]],
            "market_caps": [[86400000, 1000]],
            "total_volumes": []
        }`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	chart, err := c.FetchMarketChart(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if chart.ID != "bitcoin" {
		t.Fatalf("id %q", chart.ID)
	}
	if len(chart.Prices) != 3 {
		t.Fatalf("expected 3 decoded slots, got %d", len(chart.Prices))
	}
	if !chart.Prices[0].OK || chart.Prices[0].Value != 1.5 {
		t.Fatalf("first pair %+v", chart.Prices[0])
	}
	if chart.Prices[1].OK || chart.Prices[2].OK {
		t.Fatalf("malformed pairs must be flagged: %+v", chart.Prices[1:])
	}
}

func TestFetchTopMarketsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	if _, err := c.FetchTopMarkets(context.Background(), 10); err == nil {
		t.Fatalf("expected error on 429")
	}
}
