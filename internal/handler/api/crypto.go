package api

import (
	"context"
	"errors"
	"net/http"

	"CoinBoard/internal/domain/models"
	"CoinBoard/internal/usecase"
	xhttp "CoinBoard/pkg/http"
	xlogger "CoinBoard/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Fixed error bodies the frontend matches on.
var (
	errTopNRange = map[string]string{"error": "Top N must be between 1 and 10"}
	errMissingID = map[string]string{"error": "Coin id is required"}
	errInternal  = map[string]string{"error": "Internal server error"}
)

// HealthChecker reports storage liveness for the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CryptoHandler serves the dashboard REST surface. Responses are raw JSON
// documents, no envelope, because the frontend consumes them as-is.
type CryptoHandler struct {
	logger  *xlogger.Logger
	markets *usecase.MarketQuery
	search  *usecase.Search
	health  HealthChecker
}

func NewCryptoHandler(logger *xlogger.Logger, markets *usecase.MarketQuery, search *usecase.Search, health HealthChecker) *CryptoHandler {
	return &CryptoHandler{logger: logger, markets: markets, search: search, health: health}
}

func (h *CryptoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/ping", h.Ping)
	e.GET("/healthz", h.Health)

	g := e.Group("/crypto")
	g.GET("/top", h.TopCoins)
	g.GET("/historic", h.Historic)
	g.GET("/closing-prices-market-cap", h.ClosingPrices)
	g.GET("/search", h.Search)
}

func (h *CryptoHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "CoinBoard API")
}

func (h *CryptoHandler) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func (h *CryptoHandler) Health(c echo.Context) error {
	if h.health != nil {
		if err := h.health.Health(c.Request().Context()); err != nil {
			h.logger.Error("health check failed", xlogger.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *CryptoHandler) TopCoins(c echo.Context) error {
	// topN is read leniently: absent, unparsable, or zero serves the
	// default. Only an explicit out-of-range value is rejected.
	n := xhttp.ParseIntDefault(c.QueryParam("topN"), 0)
	if n == 0 {
		n = usecase.DefaultTopN
	}
	if n < 1 || n > usecase.MaxTopN {
		return c.JSON(http.StatusBadRequest, errTopNRange)
	}

	coins, err := h.markets.TopCoins(c.Request().Context(), n)
	if err != nil {
		h.logger.Error("top coins usecase error", xlogger.Error(err))
		return c.JSON(http.StatusInternalServerError, errInternal)
	}
	return c.JSON(http.StatusOK, coins)
}

func (h *CryptoHandler) Historic(c echo.Context) error {
	req := &models.HistoricRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, errMissingID)
	}

	data, err := h.markets.Historic(c.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, usecase.ErrCoinNotFound) {
			return c.JSON(http.StatusOK, nil)
		}
		h.logger.Error("historic usecase error",
			xlogger.String("coin", req.ID),
			xlogger.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, errInternal)
	}
	return c.JSON(http.StatusOK, data)
}

func (h *CryptoHandler) ClosingPrices(c echo.Context) error {
	req := &models.ClosingPricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.JSON(http.StatusBadRequest, errMissingID)
	}
	days := xhttp.ParseIntDefault(c.QueryParam("days"), usecase.MaxClosingDays)

	series, err := h.markets.ClosingSeries(c.Request().Context(), req.ID, days)
	if err != nil {
		if errors.Is(err, usecase.ErrCoinNotFound) {
			return c.JSON(http.StatusOK, nil)
		}
		h.logger.Error("closing prices usecase error",
			xlogger.String("coin", req.ID),
			xlogger.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, errInternal)
	}
	return c.JSON(http.StatusOK, series)
}

func (h *CryptoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		// An empty query is not an error, it just resolves to nothing.
		return c.JSONBlob(http.StatusOK, []byte("null"))
	}

	result, err := h.search.Run(c.Request().Context(), req.Query)
	if err != nil {
		h.logger.Error("search usecase error",
			xlogger.String("query", req.Query),
			xlogger.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, errInternal)
	}
	return c.JSONBlob(http.StatusOK, result)
}
