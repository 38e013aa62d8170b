package di

import (
	"context"
	"fmt"
	"time"

	domrepo "CoinBoard/internal/domain/repository"
	"CoinBoard/internal/handler/api"
	"CoinBoard/internal/handler/ws"
	internalrepo "CoinBoard/internal/repository"
	"CoinBoard/internal/service/coingecko"
	"CoinBoard/internal/service/logdrain"
	"CoinBoard/internal/service/scheduler"
	"CoinBoard/internal/usecase"
	pkgcache "CoinBoard/pkg/cache"
	pkgch "CoinBoard/pkg/clickhouse"
	"CoinBoard/pkg/config"
	pkgkafka "CoinBoard/pkg/kafka"
	applogger "CoinBoard/pkg/logger"
	"CoinBoard/pkg/metrics"
	pkgqueue "CoinBoard/pkg/queue"
	"CoinBoard/pkg/server"

	segkafka "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and applies the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRedisCache creates the Redis cache client, nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	redis, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Cache.Host),
		pkgcache.WithRedisPort(cfg.Cache.Port),
		pkgcache.WithRedisPassword(cfg.Cache.Password),
		pkgcache.WithRedisDB(cfg.Cache.DB),
		pkgcache.WithRedisPrefix(cfg.Cache.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return redis, nil
}

// ProvideCacheService creates the serving cache. With Redis available the
// memory layer sits in front of it; otherwise memory only.
func ProvideCacheService(redis *pkgcache.RedisCache) pkgcache.Service {
	if redis == nil {
		return pkgcache.NewMemoryCache()
	}
	return pkgcache.NewLayeredCache(redis)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideMarketSource creates the CoinGecko client.
func ProvideMarketSource(cfg *config.Config) domrepo.MarketSource {
	return coingecko.New(cfg.CoinGecko.BaseURL, cfg.CoinGecko.APIKey, cfg.CoinGecko.RequestTimeout)
}

// ProvideCoinStore creates the ClickHouse-backed coin store.
func ProvideCoinStore(chClient *pkgch.Client, l *applogger.Logger) domrepo.CoinStore {
	store := internalrepo.NewCHCoinStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideKafkaProducer creates a Kafka producer, only in kafka backend mode.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSnapshotPublisher wraps the producer; nil in direct mode so the
// refresher writes straight to the store.
func ProvideSnapshotPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.SnapshotPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the snapshots consumer, only in kafka mode.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideSnapshotsHandler registers the handler for the snapshots topic.
func ProvideSnapshotsHandler(store domrepo.CoinStore, m domrepo.Metrics, cfg *config.Config) *usecase.KafkaSnapshotsHandler {
	return usecase.NewKafkaSnapshotsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideRefresher creates the refresh use case.
func ProvideRefresher(
	source domrepo.MarketSource,
	store domrepo.CoinStore,
	publisher domrepo.SnapshotPublisher,
	cache pkgcache.Service,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Refresher {
	return usecase.NewRefresher(
		source, store, publisher, cache, m, l,
		cfg.CoinGecko.TopN,
		cfg.CoinGecko.HistoryDays,
		cfg.CoinGecko.FetchInterval,
	)
}

// ProvideMarketQuery creates the read-path use case.
func ProvideMarketQuery(store domrepo.CoinStore, cache pkgcache.Service, m domrepo.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.MarketQuery {
	return usecase.NewMarketQuery(store, cache, m, cfg.Cache.TTL, l)
}

// ProvideSearch creates the keyword search use case.
func ProvideSearch(markets *usecase.MarketQuery, cache pkgcache.Service, l *applogger.Logger, cfg *config.Config) *usecase.Search {
	return usecase.NewSearch(markets, cache, cfg.Cache.TTL, l)
}

// ProvideHub creates the WebSocket push hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideCryptoHandler creates the REST handler.
func ProvideCryptoHandler(l *applogger.Logger, markets *usecase.MarketQuery, search *usecase.Search, store domrepo.CoinStore) *api.CryptoHandler {
	return api.NewCryptoHandler(l, markets, search, store)
}

// ProvideScheduler creates the cron-driven refresh scheduler.
func ProvideScheduler(refresher *usecase.Refresher, l *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(refresher, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.CryptoHandler,
	hub *ws.Hub,
	refresher *usecase.Refresher,
	search *usecase.Search,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSnapshotsHandler,
	chClient *pkgch.Client,
	redis *pkgcache.RedisCache,
	metrics domrepo.Metrics,
) *server.App {
	if consumer != nil {
		traceHook := pkgkafka.HookFuncs{
			Before: func(ctx context.Context, topic string, km segkafka.Message, data []byte) (context.Context, segkafka.Message, []byte, error) {
				ctx = pkgkafka.WithStartTime(ctx, time.Now())
				ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
				return ctx, km, data, nil
			},
			After: func(ctx context.Context, topic string, km segkafka.Message, data []byte, err error) {
				if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
					metrics.RecordLatency("kafka_handle", time.Since(start).Seconds())
				}
			},
			Err: func(ctx context.Context, topic string, km segkafka.Message, data []byte, err error) {
				metrics.RecordError("kafka_consumer")
				traceID, _ := ctx.Value(pkgkafka.CtxTraceID).(string)
				l.Error("kafka message failed",
					applogger.String("topic", topic),
					applogger.String("trace_id", traceID),
					applogger.Error(err),
				)
			},
		}
		consumer.WithConsumerHook(pkgkafka.NewHookChain(traceHook))
	}
	refresher.SetNotifier(hub)
	refresher.OnCacheInvalidated(search.InvalidateVocabulary)

	// Aggregate error logs into a Redis list when Redis is around, and
	// drain them back out as error metrics.
	var logQueue *pkgqueue.RedisQueue
	if redis != nil {
		prefix := pkgqueue.WithKeyPrefix(cfg.Cache.Prefix + ":queue")
		sink := pkgqueue.NewRedisPublisher(l, redis.Client(), prefix)
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          logdrain.Topic,
			Publisher:      sink,
		})
		logQueue = pkgqueue.NewRedisConsumer(l,
			&pkgqueue.QueueConfig{Workers: 1, QueueSize: 64, RetryLimit: 3, RetryDelay: 5 * time.Second},
			redis.Client(),
			[]pkgqueue.Job{logdrain.New(metrics, l)},
			prefix,
		)
	}
	return server.New(cfg, l, handler, hub, refresher, sched, consumer, kh, chClient, logQueue)
}
