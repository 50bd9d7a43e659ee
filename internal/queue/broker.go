// Package queue carries pipeline job messages between the API process and
// the worker. The durable transport is asynq on Redis; when Redis is
// unreachable at startup an in-memory broker (non-durable, at-most-once) is
// substituted behind the same interface so the system stays runnable without
// external infrastructure.
package queue

import (
	"context"

	"patent-ip-platform/internal/config"
	"patent-ip-platform/internal/logger"
	"patent-ip-platform/models"
)

// Message is the wire schema of one pipeline job.
type Message struct {
	ID       string         `json:"id"`
	Type     models.JobType `json:"type"`
	FilingID string         `json:"filing_id"`
}

// Handler processes one delivered message. A non-nil error marks the
// delivery failed; there is no automatic redelivery on either transport.
type Handler func(ctx context.Context, msg Message) error

// Broker is the publish/consume contract shared by the durable and the
// in-memory transports.
type Broker interface {
	Publish(ctx context.Context, msg Message) error
	// Consume blocks, delivering messages to handler until ctx is done.
	Consume(ctx context.Context, handler Handler) error
	Close() error
}

// Connect probes Redis and returns the durable asynq broker when it is
// reachable, otherwise the in-memory fallback.
func Connect(cfg *config.Config) Broker {
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("redis unreachable, using in-memory queue (non-durable, at-most-once)",
			"addr", cfg.RedisURL, "error", err)
		return NewMemoryBroker(256)
	}
	rdb.Close()

	logger.Info("connected to redis queue", "addr", cfg.RedisURL, "queue", cfg.QueueName)
	return NewAsynqBroker(cfg)
}
