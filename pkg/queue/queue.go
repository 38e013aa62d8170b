package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueueConfig contains the configuration for the queue.
type QueueConfig struct {
	Workers    int           // number of workers
	QueueSize  int           // size of the queue
	RetryLimit int           // number of maximum retries
	RetryDelay time.Duration // time delay between retries
}

// Message is the unit that travels through the queue.
type Message struct {
	ID        string
	Type      string
	Payload   interface{}
	Attempts  int
	Timestamp time.Time
}

// ParsePayload converts a payload back into T. A payload that went through
// Redis arrives as generic JSON shapes (map or slice), one handed over
// in-process arrives typed, both are accepted.
func ParsePayload[T any](payload interface{}) (*T, error) {
	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		var result T
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	case map[string]interface{}, []interface{}:
		return reparse[T](p)
	default:
		return nil, fmt.Errorf("invalid payload type: %T", payload)
	}
}

// reparse round-trips a decoded JSON value through the encoder to land it
// into the concrete type.
func reparse[T any](v interface{}) (*T, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &result, nil
}
