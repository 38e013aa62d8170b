package repository

import (
	"context"
	"fmt"

	"CoinBoard/internal/domain/models"
	domrepo "CoinBoard/internal/domain/repository"
	pkgkafka "CoinBoard/pkg/kafka"
)

// KafkaSnapshotPublisher implements SnapshotPublisher over a Kafka producer.
// Messages are keyed by coin id so one coin's snapshots stay ordered within
// a partition.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

var _ domrepo.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)

func (p *KafkaSnapshotPublisher) Publish(ctx context.Context, coin *models.CoinMarket) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(coin.ID), coin); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", coin.ID, err)
	}
	return nil
}

func (p *KafkaSnapshotPublisher) PublishBatch(ctx context.Context, coins []models.CoinMarket) error {
	if len(coins) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(coins))
	for i := range coins {
		msgs = append(msgs, pkgkafka.Message{Key: []byte(coins[i].ID), Value: &coins[i]})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish snapshot batch: %w", err)
	}
	return nil
}

func (p *KafkaSnapshotPublisher) Close() error {
	return p.producer.Close()
}
