// Package logdrain consumes aggregated error log batches from the Redis
// queue and surfaces them as error metrics.
package logdrain

import (
	"context"

	domrepo "CoinBoard/internal/domain/repository"
	applogger "CoinBoard/pkg/logger"
	pkgqueue "CoinBoard/pkg/queue"
)

// Topic is the queue message type carrying aggregated log batches.
const Topic = "error_logs"

// Job drains aggregated log entries published by the log collector.
type Job struct {
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func New(metrics domrepo.Metrics, l *applogger.Logger) *Job {
	return &Job{metrics: metrics, l: l}
}

func (j *Job) Name() string { return "error-log-drain" }

func (j *Job) Type() string { return Topic }

// Handle counts each aggregated error entry against the error metric and
// reports the batch size.
func (j *Job) Handle(ctx context.Context, payload interface{}) error {
	entries, err := pkgqueue.ParsePayload[[]applogger.AggregatedLogEntry](payload)
	if err != nil {
		return err
	}

	errors := 0
	for _, e := range *entries {
		if e.Level != "error" {
			continue
		}
		errors += e.Count
		j.metrics.RecordError("logs")
	}
	if errors > 0 {
		j.l.Warn("drained aggregated error logs",
			applogger.Int("entries", len(*entries)),
			applogger.Int("errors", errors),
		)
	}
	return nil
}

var _ pkgqueue.Job = (*Job)(nil)
