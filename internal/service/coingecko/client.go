// Package coingecko implements a MarketSource backed by the CoinGecko REST API.
package coingecko

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"CoinBoard/internal/domain/models"
	drepo "CoinBoard/internal/domain/repository"
	pkghttp "CoinBoard/pkg/http"
)

const apiKeyHeader = "x_cg_pro_api_key"

// Client talks to the CoinGecko markets and market_chart endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *pkghttp.Client
}

// New creates a new CoinGecko MarketSource. apiKey may be empty for the
// public tier.
func New(baseURL, apiKey string, timeout time.Duration) drepo.MarketSource {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
	}
}

// FetchTopMarkets returns the top n coins by market cap, in USD.
func (c *Client) FetchTopMarkets(ctx context.Context, n int) ([]models.CoinMarket, error) {
	var coins []models.CoinMarket
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     c.baseURL + "/coins/markets",
		Headers: c.headers(),
		QueryParams: map[string][]string{
			"vs_currency": {"usd"},
			"order":       {"market_cap_desc"},
			"per_page":    {strconv.Itoa(n)},
			"page":        {"1"},
			"sparkline":   {"false"},
		},
	}, &coins)
	if err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}
	return coins, nil
}

// FetchMarketChart returns the raw price, market cap and volume series for
// one coin over the trailing days window.
func (c *Client) FetchMarketChart(ctx context.Context, id string, days int) (*models.HistoricData, error) {
	var chart models.HistoricData
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     fmt.Sprintf("%s/coins/%s/market_chart", c.baseURL, id),
		Headers: c.headers(),
		QueryParams: map[string][]string{
			"vs_currency": {"usd"},
			"days":        {strconv.Itoa(days)},
		},
	}, &chart)
	if err != nil {
		return nil, fmt.Errorf("coingecko market_chart %s: %w", id, err)
	}
	chart.ID = id
	return &chart, nil
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		h[apiKeyHeader] = c.apiKey
	}
	return h
}
