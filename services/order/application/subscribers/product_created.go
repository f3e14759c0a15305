// Package subscribers connects the order service to pull-based event bus
// transports. Push transports deliver through the HTTP route instead.
package subscribers

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/orderflow/pkg/events"
	"github.com/ghuser/orderflow/pkg/logger"
	appsvcs "github.com/ghuser/orderflow/services/order/application/services"
	orderevents "github.com/ghuser/orderflow/services/order/domain/events"
)

// Subscriber is the part of *events.EventBus used here.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error)
}

// Register subscribes the order service to product.created. It reports
// false, nil when the bus pushes deliveries over HTTP.
func Register(ctx context.Context, bus Subscriber, svcs *appsvcs.Services, log logger.Logger) (bool, error) {
	errCh, err := bus.Subscribe(ctx, orderevents.TopicProductCreated, HandleProductCreated(svcs))
	if errors.Is(err, events.ErrPushDelivery) {
		log.Info("event bus delivers by HTTP push; no pull subscription started",
			"topic", orderevents.TopicProductCreated)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Drain subscriber errors in background so the channel never blocks.
	go func() {
		for err := range errCh {
			log.ErrorContext(ctx, "subscriber error",
				"topic", orderevents.TopicProductCreated,
				"error", err,
			)
		}
	}()

	log.Info("event subscribers registered", "topics", []string{orderevents.TopicProductCreated})
	return true, nil
}

// HandleProductCreated adapts OrderService.OnProductCreated to a bus handler.
// Dropped bodies return nil and are Acked; delivery failures are retried and
// then Nacked by the bus.
func HandleProductCreated(svcs *appsvcs.Services) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		_, err := svcs.Order.OnProductCreated(ctx, msg.Payload)
		return err
	}
}
