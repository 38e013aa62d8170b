package usecase

import (
	"context"
	"encoding/json"
	"testing"
)

func TestSnapshotsHandlerPersists(t *testing.T) {
	store := newFakeStore()
	h := NewKafkaSnapshotsHandler("coin-snapshots", store, nopMetrics{})

	if h.Topic() != "coin-snapshots" {
		t.Fatalf("topic %q", h.Topic())
	}

	c := coin("bitcoin", 1, 50000)
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.upserts != 1 {
		t.Fatalf("expected one upsert, got %d", store.upserts)
	}
}

func TestSnapshotsHandlerRejectsMalformed(t *testing.T) {
	store := newFakeStore()
	h := NewKafkaSnapshotsHandler("coin-snapshots", store, nopMetrics{})

	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if store.upserts != 0 {
		t.Fatalf("expected no upsert, got %d", store.upserts)
	}
}
