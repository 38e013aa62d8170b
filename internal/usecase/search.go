package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	svccache "CoinBoard/internal/service/cache"
	"CoinBoard/internal/service/query"
	pkgcache "CoinBoard/pkg/cache"
	applogger "CoinBoard/pkg/logger"
)

const (
	vocabularyKey = "coin_ids"
	vocabularyTTL = 5 * time.Minute
)

// Search resolves free-form keyword queries to coin data. The result is
// already-marshaled JSON: a coin summary object, a reduced trend object, or
// "null" when the query does not resolve.
type Search struct {
	markets *MarketQuery
	cache   pkgcache.Service
	local   svccache.Store
	ttl     time.Duration
	l       *applogger.Logger
}

func NewSearch(markets *MarketQuery, cache pkgcache.Service, ttl time.Duration, l *applogger.Logger) *Search {
	return &Search{
		markets: markets,
		cache:   cache,
		local:   svccache.NewTTLCache(),
		ttl:     ttl,
		l:       l,
	}
}

var jsonNull = json.RawMessage("null")

// Run routes queryText and returns the matching payload as JSON.
// Unresolvable queries are not errors; they yield "null".
func (s *Search) Run(ctx context.Context, queryText string) (json.RawMessage, error) {
	normalized := strings.ToLower(strings.TrimSpace(queryText))
	if normalized == "" {
		return jsonNull, nil
	}

	key := cacheKeySearchPrefix + normalized
	var cached json.RawMessage
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.markets.metrics.RecordCacheLookup("search", true)
		return cached, nil
	}
	s.markets.metrics.RecordCacheLookup("search", false)

	ids, err := s.vocabulary(ctx)
	if err != nil {
		return nil, err
	}

	intent := query.Route(queryText, ids)

	var result any
	switch intent.Kind {
	case query.PricePoint:
		coin, err := s.markets.Coin(ctx, intent.AssetID)
		if err != nil {
			if errors.Is(err, ErrCoinNotFound) {
				return jsonNull, nil
			}
			return nil, err
		}
		result = coin
	case query.Trend:
		trend, err := s.markets.ClosingSeries(ctx, intent.AssetID, intent.Days)
		if err != nil {
			if errors.Is(err, ErrCoinNotFound) {
				return jsonNull, nil
			}
			return nil, err
		}
		result = trend
	default:
		return jsonNull, nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal search result: %w", err)
	}
	if err := s.cache.Set(ctx, key, json.RawMessage(payload), s.ttl); err != nil && s.l != nil {
		s.l.Warn("cache set failed", applogger.String("key", key), applogger.Error(err))
	}
	return payload, nil
}

// InvalidateVocabulary drops the cached id set so the next search resolves
// against the freshly refreshed tracked coins.
func (s *Search) InvalidateVocabulary() {
	s.local.Delete(vocabularyKey)
}

// vocabulary keeps the known id set in a short-lived in-process cache so each
// keystroke-driven search does not round-trip to the store. The refresher
// invalidates it when the tracked set changes.
func (s *Search) vocabulary(ctx context.Context) ([]string, error) {
	if v, ok := s.local.Get(vocabularyKey); ok {
		if ids, ok := v.([]string); ok {
			return ids, nil
		}
	}
	ids, err := s.markets.KnownIDs(ctx)
	if err != nil {
		return nil, err
	}
	s.local.Set(vocabularyKey, ids, vocabularyTTL)
	return ids, nil
}
