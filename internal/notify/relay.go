package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Sink is the delivery target for consumed settlement events.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// Relay drains the settlement event queue into a sink. Transient
// delivery failures are redelivered by the broker; permanent ones are
// logged and dropped so a dead endpoint cannot wedge the queue.
type Relay struct {
	consumer Consumer
	sink     Sink
	logger   *zap.Logger
}

func NewRelay(consumer Consumer, sink Sink, logger *zap.Logger) (*Relay, error) {
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Relay{
		consumer: consumer,
		sink:     sink,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	return r.consumer.Consume(ctx, EventQueue, r.handle)
}

func (r *Relay) handle(ctx context.Context, event Event) error {
	err := r.sink.Deliver(ctx, event)
	if err == nil {
		r.logger.Info("settlement event delivered",
			zap.String("eventId", event.ID),
			zap.String("kind", event.Kind.String()),
			zap.String("orderId", event.OrderID),
		)
		return nil
	}

	if IsTransientDelivery(err) {
		r.logger.Warn("settlement event delivery failed, will retry",
			zap.Error(err),
			zap.String("eventId", event.ID),
		)
		return err
	}

	r.logger.Error("settlement event delivery failed permanently, dropping",
		zap.Error(err),
		zap.String("eventId", event.ID),
		zap.String("orderId", event.OrderID),
	)
	return nil
}
