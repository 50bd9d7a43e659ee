package queue

import (
	"context"
	"fmt"

	"patent-ip-platform/internal/logger"
)

// MemoryBroker is the dev-mode fallback transport: a buffered channel,
// non-durable, at-most-once. Messages published while the buffer is full
// are dropped with a warning.
type MemoryBroker struct {
	messages chan Message
}

func NewMemoryBroker(buffer int) *MemoryBroker {
	return &MemoryBroker{
		messages: make(chan Message, buffer),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, msg Message) error {
	if _, err := taskTypeFor(msg.Type); err != nil {
		return err
	}
	select {
	case b.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		logger.Warn("in-memory queue full, dropping message", "job_id", msg.ID, "type", msg.Type)
		return fmt.Errorf("in-memory queue full")
	}
}

func (b *MemoryBroker) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case msg := <-b.messages:
			if err := handler(ctx, msg); err != nil {
				logger.Error("in-memory job failed", "job_id", msg.ID, "type", msg.Type, "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *MemoryBroker) Close() error {
	return nil
}
