package notify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EventKind classifies a settlement event.
type EventKind string

const (
	KindPaymentCompleted EventKind = "payment.completed"
	KindPaymentFailed    EventKind = "payment.failed"
)

func (k EventKind) String() string { return string(k) }

func (k EventKind) IsValid() bool {
	switch k {
	case KindPaymentCompleted, KindPaymentFailed:
		return true
	}
	return false
}

const (
	// EventQueue is the work queue carrying settlement events.
	EventQueue = "settlement.events"
)

// DLQName returns the dead-letter queue for a work queue, e.g.
// dlq.settlement.events.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// Event is the broker payload emitted after a payment attempt settles.
type Event struct {
	ID          string    `json:"id"`
	Kind        EventKind `json:"kind"`
	UserID      string    `json:"userId"`
	OrderID     string    `json:"orderId"`
	AttemptID   string    `json:"attemptId"`
	Provider    string    `json:"provider"`
	AmountCents int64     `json:"amountCents"`
	Message     string    `json:"message,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("event id is required")
	}
	if !e.Kind.IsValid() {
		return fmt.Errorf("invalid event kind %q", e.Kind)
	}
	if strings.TrimSpace(e.OrderID) == "" {
		return fmt.Errorf("orderId is required")
	}
	if strings.TrimSpace(e.AttemptID) == "" {
		return fmt.Errorf("attemptId is required")
	}
	return nil
}

// Publisher publishes settlement events to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, event Event) error
	Close() error
}

// EventHandler handles a consumed settlement event.
type EventHandler func(ctx context.Context, event Event) error

// Consumer consumes settlement events from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler EventHandler) error
	Close() error
}
