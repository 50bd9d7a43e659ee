package queue

import (
	"context"
	"testing"
	"time"

	"patent-ip-platform/models"
)

func TestMemoryBrokerDelivers(t *testing.T) {
	broker := NewMemoryBroker(4)

	msg := Message{ID: "job-1", Type: models.JobIngest, FilingID: "filing-1"}
	if err := broker.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan Message, 1)

	go broker.Consume(ctx, func(ctx context.Context, m Message) error {
		received <- m
		cancel()
		return nil
	})

	select {
	case got := <-received:
		if got != msg {
			t.Errorf("got %+v, want %+v", got, msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestMemoryBrokerRejectsUnknownJobType(t *testing.T) {
	broker := NewMemoryBroker(4)

	err := broker.Publish(context.Background(), Message{ID: "x", Type: "BOGUS", FilingID: "y"})
	if err == nil {
		t.Fatal("expected error for unknown job type")
	}
}

func TestMemoryBrokerFullDrops(t *testing.T) {
	broker := NewMemoryBroker(1)

	msg := Message{ID: "a", Type: models.JobIngest, FilingID: "f"}
	if err := broker.Publish(context.Background(), msg); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	if err := broker.Publish(context.Background(), msg); err == nil {
		t.Fatal("expected error when buffer is full")
	}
}
