package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"CoinBoard/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type string `yaml:"type"` // "direct" writes to ClickHouse, "kafka" routes through the snapshot topic
	} `yaml:"backend"`
	CoinGecko struct {
		BaseURL        string        `yaml:"base_url"`
		APIKey         string        `yaml:"api_key"`
		TopN           int           `yaml:"top_n"`
		HistoryDays    int           `yaml:"history_days"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		FetchInterval  time.Duration `yaml:"fetch_interval"` // min spacing between market-chart calls
	} `yaml:"coingecko"`
	Refresh struct {
		CronSpec   string `yaml:"cron_spec"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"refresh"`
	Cache struct {
		Enabled  bool          `yaml:"enabled"`
		Host     string        `yaml:"host"`
		Port     int           `yaml:"port"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
		Prefix   string        `yaml:"prefix"`
	} `yaml:"cache"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		c.CoinGecko.BaseURL = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.Cache.Port = util.ParseIntDefault(v, c.Cache.Port)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Password = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if secs := util.ParseIntDefault(v, 0); secs > 0 {
			c.Cache.TTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.CoinGecko.BaseURL == "" {
		c.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.CoinGecko.TopN == 0 {
		c.CoinGecko.TopN = 10
	}
	if c.CoinGecko.HistoryDays == 0 {
		c.CoinGecko.HistoryDays = 30
	}
	if c.CoinGecko.RequestTimeout == 0 {
		c.CoinGecko.RequestTimeout = 30 * time.Second
	}
	if c.CoinGecko.FetchInterval == 0 {
		c.CoinGecko.FetchInterval = 3 * time.Second
	}
	if c.Refresh.CronSpec == "" {
		c.Refresh.CronSpec = "0 */2 * * *" // every 2 hours
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 3 * time.Hour
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "coinboard"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Backend.Type == "" {
		c.Backend.Type = "direct"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type != "direct" && c.Backend.Type != "kafka" {
		return fmt.Errorf("backend.type must be 'direct' or 'kafka', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when backend.type is 'kafka'")
	}
	if c.CoinGecko.TopN < 1 || c.CoinGecko.TopN > 10 {
		return fmt.Errorf("coingecko.top_n must be within [1, 10], got %d", c.CoinGecko.TopN)
	}
	if c.CoinGecko.HistoryDays < 1 || c.CoinGecko.HistoryDays > 30 {
		return fmt.Errorf("coingecko.history_days must be within [1, 30], got %d", c.CoinGecko.HistoryDays)
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	return nil
}
