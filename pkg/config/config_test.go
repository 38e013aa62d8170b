package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
clickhouse:
  host: localhost
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Fatalf("port %d", cfg.Server.Port)
	}
	if cfg.CoinGecko.TopN != 10 || cfg.CoinGecko.HistoryDays != 30 {
		t.Fatalf("coingecko defaults %d/%d", cfg.CoinGecko.TopN, cfg.CoinGecko.HistoryDays)
	}
	if cfg.Cache.TTL != 3*time.Hour {
		t.Fatalf("ttl %v", cfg.Cache.TTL)
	}
	if cfg.Refresh.CronSpec != "0 */2 * * *" {
		t.Fatalf("cron %q", cfg.Refresh.CronSpec)
	}
	if cfg.Backend.Type != "direct" {
		t.Fatalf("backend %q", cfg.Backend.Type)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing environment", "clickhouse:\n  host: localhost\n"},
		{"missing clickhouse host", "environment: test\n"},
		{"topN out of range", minimalYAML + "coingecko:\n  top_n: 11\n"},
		{"history days out of range", minimalYAML + "coingecko:\n  history_days: 31\n"},
		{"bad backend", minimalYAML + "backend:\n  type: carrier-pigeon\n"},
		{"kafka backend without brokers", minimalYAML + "backend:\n  type: kafka\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("COINGECKO_API_KEY", "secret")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CACHE_TTL", "600")
	t.Setenv("BACKEND", "direct")
	t.Setenv("PORT", "8081")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CoinGecko.APIKey != "secret" {
		t.Fatalf("api key %q", cfg.CoinGecko.APIKey)
	}
	if cfg.Cache.Host != "redis.internal" || cfg.Cache.Port != 6380 {
		t.Fatalf("redis %s:%d", cfg.Cache.Host, cfg.Cache.Port)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Fatalf("ttl %v", cfg.Cache.TTL)
	}
	if cfg.Server.Port != 8081 {
		t.Fatalf("port %d", cfg.Server.Port)
	}
}

func TestLoadWithEnvBadPortIgnored(t *testing.T) {
	t.Setenv("REDIS_PORT", "not-a-port")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Cache.Port != 0 {
		t.Fatalf("expected unparsable port to keep yaml value, got %d", cfg.Cache.Port)
	}
}
