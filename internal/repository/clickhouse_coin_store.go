package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CoinBoard/internal/domain/models"
	domrepo "CoinBoard/internal/domain/repository"
	pkgch "CoinBoard/pkg/clickhouse"
	applogger "CoinBoard/pkg/logger"
)

// Schema statements for the coin tables, applied idempotently at startup.
// Snapshots keep one row per coin with the full upstream document; historic
// points are one row per (coin, series, timestamp). ReplacingMergeTree
// collapses re-inserts of the same key on merge, and queries read FINAL.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS coin_snapshots (
            id String,
            symbol String,
            name String,
            current_price Float64,
            market_cap Float64,
            market_cap_rank Int64,
            payload String,
            updated_at DateTime64(3)
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY id`,
		`CREATE TABLE IF NOT EXISTS historic_points (
            id String,
            kind LowCardinality(String),
            ts Int64,
            value Float64,
            updated_at DateTime64(3)
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (id, kind, ts)
        TTL toDateTime(intDiv(ts, 1000)) + INTERVAL 90 DAY`,
	}
}

const (
	kindPrices       = "prices"
	kindMarketCaps   = "market_caps"
	kindTotalVolumes = "total_volumes"
)

// CHCoinStore implements CoinStore backed by ClickHouse.
type CHCoinStore struct {
	db *sql.DB
	ch *pkgch.Client
	l  *applogger.Logger
}

func NewCHCoinStore(ch *pkgch.Client) *CHCoinStore {
	return &CHCoinStore{db: ch.DB(), ch: ch}
}

// SetLogger injects a structured logger.
func (s *CHCoinStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.CoinStore = (*CHCoinStore)(nil)

func (s *CHCoinStore) UpsertMarkets(ctx context.Context, coins []models.CoinMarket) error {
	if len(coins) == 0 {
		return nil
	}
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert markets: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO coin_snapshots
            (id, symbol, name, current_price, market_cap, market_cap_rank, payload, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert markets: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range coins {
		c := &coins[i]
		payload, err := json.Marshal(c)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal coin %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Symbol, c.Name, c.CurrentPrice, c.MarketCap, c.MarketCapRank,
			string(payload), now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert coin %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert markets: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse upsert_markets ok",
			applogger.Int("coins", len(coins)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHCoinStore) PruneExcept(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	for _, table := range []string{"coin_snapshots", "historic_points"} {
		q := fmt.Sprintf("ALTER TABLE %s DELETE WHERE id NOT IN (%s)", table, placeholders)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("prune %s: %w", table, err)
		}
	}
	return nil
}

func (s *CHCoinStore) ListCoinIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id FROM coin_snapshots FINAL ORDER BY market_cap_rank ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("list coin ids: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 16)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan coin id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *CHCoinStore) TopMarkets(ctx context.Context, n int) ([]models.CoinMarket, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
        SELECT payload FROM coin_snapshots FINAL
        ORDER BY market_cap_rank ASC
        LIMIT ?
    `, n)
	if err != nil {
		s.logQueryError("top_markets", err)
		return nil, fmt.Errorf("top markets: %w", err)
	}
	defer rows.Close()

	out := make([]models.CoinMarket, 0, n)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var c models.CoinMarket
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse top_markets ok",
			applogger.Int("limit", n),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCoinStore) GetCoin(ctx context.Context, id string) (*models.CoinMarket, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
        SELECT payload FROM coin_snapshots FINAL WHERE id = ? LIMIT 1
    `, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logQueryError("get_coin", err)
		return nil, fmt.Errorf("get coin %s: %w", id, err)
	}
	var c models.CoinMarket
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &c, nil
}

func (s *CHCoinStore) UpsertHistoric(ctx context.Context, data *models.HistoricData) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert historic: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO historic_points (id, kind, ts, value, updated_at)
        VALUES (?, ?, ?, ?, ?)
    `)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert historic: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	total := 0
	series := []struct {
		kind   string
		points []models.RawPoint
	}{
		{kindPrices, data.Prices},
		{kindMarketCaps, data.MarketCaps},
		{kindTotalVolumes, data.TotalVolumes},
	}
	for _, grp := range series {
		for _, p := range grp.points {
			if !p.OK {
				continue
			}
			if _, err := stmt.ExecContext(ctx, data.ID, grp.kind, p.TimestampMS, p.Value, now); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert point %s/%s: %w", data.ID, grp.kind, err)
			}
			total++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert historic: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse upsert_historic ok",
			applogger.String("coin", data.ID),
			applogger.Int("points", total),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHCoinStore) GetHistoric(ctx context.Context, id string) (*models.HistoricData, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT kind, ts, value FROM historic_points FINAL
        WHERE id = ?
        ORDER BY kind ASC, ts ASC
    `, id)
	if err != nil {
		s.logQueryError("get_historic", err)
		return nil, fmt.Errorf("get historic %s: %w", id, err)
	}
	defer rows.Close()

	data := &models.HistoricData{ID: id}
	found := false
	for rows.Next() {
		var (
			kind  string
			ts    int64
			value float64
		)
		if err := rows.Scan(&kind, &ts, &value); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		found = true
		p := models.NewRawPoint(ts, value)
		switch kind {
		case kindPrices:
			data.Prices = append(data.Prices, p)
		case kindMarketCaps:
			data.MarketCaps = append(data.MarketCaps, p)
		case kindTotalVolumes:
			data.TotalVolumes = append(data.TotalVolumes, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if !found {
		return nil, nil
	}
	return data, nil
}

func (s *CHCoinStore) HasData(ctx context.Context) (bool, error) {
	var count uint64
	if err := s.db.QueryRowContext(ctx, `SELECT count() FROM coin_snapshots`).Scan(&count); err != nil {
		return false, fmt.Errorf("count snapshots: %w", err)
	}
	return count > 0, nil
}

func (s *CHCoinStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHCoinStore) Close() error {
	return s.ch.Close()
}

func (s *CHCoinStore) logQueryError(op string, err error) {
	if s.l != nil {
		s.l.Error("clickhouse query error",
			applogger.String("op", op),
			applogger.Error(err),
		)
	}
}
