package usecase

import (
	"context"
	"encoding/json"

	"CoinBoard/internal/domain/models"
	domrepo "CoinBoard/internal/domain/repository"
	pkgkafka "CoinBoard/pkg/kafka"
)

// KafkaSnapshotsHandler consumes coin snapshot messages and writes them to
// storage. Runs only in the kafka backend mode.
type KafkaSnapshotsHandler struct {
	topic   string
	store   domrepo.CoinStore
	metrics domrepo.Metrics
}

func NewKafkaSnapshotsHandler(topic string, store domrepo.CoinStore, metrics domrepo.Metrics) *KafkaSnapshotsHandler {
	return &KafkaSnapshotsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaSnapshotsHandler) Topic() string { return h.topic }

func (h *KafkaSnapshotsHandler) Handle(ctx context.Context, b []byte) error {
	var coin models.CoinMarket
	if err := json.Unmarshal(b, &coin); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if err := h.store.UpsertMarkets(ctx, []models.CoinMarket{coin}); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordSnapshotWritten("kafka", coin.ID)
	h.metrics.RecordLastPrice(coin.ID, coin.CurrentPrice)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSnapshotsHandler)(nil)
