// Package events provides the pub/sub EventBus both services talk through,
// built on Watermill publishers and subscribers.
//
// The transport is chosen by EVENT_BUS_DRIVER:
//   - memory:   Watermill GoChannel, single process only (tests, devstack).
//   - postgres: Watermill SQL transport; instances sharing a service name form
//     one consumer group, so each message is handled by exactly one of them.
//   - kafka:    kafka-go writer and consumer-group readers.
//   - dapr:     publish through a Dapr sidecar; deliveries are pushed to the
//     service over HTTP, so Subscribe returns ErrPushDelivery.
//
// Delivery is at-least-once. A handler error is retried with exponential
// backoff; once retries are exhausted the message is Nacked and the transport
// redelivers it. Handlers see duplicates and must decide how to treat them.
//
// OTel trace context is injected into message metadata on Publish and
// restored in Subscribe.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/orderflow/pkg/config"
	"github.com/ghuser/orderflow/pkg/envelope"
	"github.com/ghuser/orderflow/pkg/logger"
)

const (
	maxRetries      = 3
	retryBaseDelay  = time.Second
	shutdownTimeout = 30 * time.Second

	// Metadata keys set on every message published through PublishEvent.
	MetadataPubSubName  = "pubsubname"
	MetadataContentType = "content_type"
)

// ErrPushDelivery is returned by Subscribe when the transport delivers
// messages by calling the service's HTTP subscription route instead.
var ErrPushDelivery = errors.New("events: transport delivers by HTTP push")

// transport is the driver-specific half of an EventBus.
type transport struct {
	publisher  message.Publisher
	subscriber message.Subscriber // nil for push-only transports
	ping       func(context.Context) error
	release    func() error // releases resources shared by publisher and subscriber
}

// EventBus publishes and consumes messages over the configured transport.
type EventBus struct {
	transport
	driver     string
	source     string
	pubSubName string
	retryDelay time.Duration
	log        logger.Logger
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewEventBus builds the EventBus selected by cfg.EventBusDriver.
func NewEventBus(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	wlog := &slogAdapter{log: log}

	var (
		t   transport
		err error
	)
	switch cfg.EventBusDriver {
	case config.DriverMemory, "":
		t = newMemoryTransport(wlog)
	case config.DriverPostgres:
		t, err = newPostgresTransport(cfg, wlog)
	case config.DriverKafka:
		t, err = newKafkaTransport(cfg, log)
	case config.DriverDapr:
		t = newDaprTransport(cfg)
	default:
		err = fmt.Errorf("events: unknown driver %q", cfg.EventBusDriver)
	}
	if err != nil {
		return nil, err
	}

	driver := cfg.EventBusDriver
	if driver == "" {
		driver = config.DriverMemory
	}
	return newBus(t, driver, cfg.ServiceName, cfg.PubSubName, log), nil
}

// NewInMemoryEventBus returns an EventBus backed by a Watermill GoChannel.
// Messages never leave the process.
func NewInMemoryEventBus(source, pubSubName string, log logger.Logger) *EventBus {
	return newBus(newMemoryTransport(&slogAdapter{log: log}), config.DriverMemory, source, pubSubName, log)
}

func newBus(t transport, driver, source, pubSubName string, log logger.Logger) *EventBus {
	return &EventBus{
		transport:  t,
		driver:     driver,
		source:     source,
		pubSubName: pubSubName,
		retryDelay: retryBaseDelay,
		log:        log,
	}
}

func newMemoryTransport(wlog watermill.LoggerAdapter) transport {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wlog)
	return transport{
		publisher:  ch,
		subscriber: ch,
		ping:       func(context.Context) error { return nil },
	}
}

// Driver returns the name of the transport in use.
func (q *EventBus) Driver() string {
	return q.driver
}

// PubSubName returns the logical bus name stamped on published envelopes.
func (q *EventBus) PubSubName() string {
	return q.pubSubName
}

// Publish sends one or more messages to the given topic.
// OTel trace context from ctx is injected into each message's metadata so
// the receiving subscriber can restore the trace and continue the span tree.
func (q *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, msg := range msgs {
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
		msg.SetContext(ctx)
	}
	if err := q.publisher.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// PublishEvent wraps event in a CloudEvents envelope (event under "data")
// and publishes it to topic.
func (q *EventBus) PublishEvent(ctx context.Context, topic string, event any) error {
	payload, err := envelope.Wrap(envelope.Meta{
		Source:     q.source,
		Type:       topic,
		Topic:      topic,
		PubSubName: q.pubSubName,
	}, event)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataPubSubName, q.pubSubName)
	msg.Metadata.Set(MetadataContentType, envelope.ContentType)
	return q.Publish(ctx, topic, msg)
}

// Subscribe registers handler to process messages from topic asynchronously.
// The handler receives a context with the publisher's OTel trace restored from
// message metadata.
//
// Ack/Nack is managed by the bus:
//   - handler returns nil   → Ack (message consumed)
//   - handler returns error → retried up to 3× with exponential backoff
//   - all retries exhausted → Nack (transport redelivers) + error forwarded
//     to the returned channel
//
// The returned error channel is buffered (capacity 100). Callers must drain it.
// All in-flight handlers complete before Close() returns.
func (q *EventBus) Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error) {
	if q.subscriber == nil {
		return nil, ErrPushDelivery
	}
	ch, err := q.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, 100)
	propagator := otel.GetTextMapPropagator()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)

		for msg := range ch {
			carrier := propagation.MapCarrier{}
			for k, v := range msg.Metadata {
				carrier[k] = v
			}
			msgCtx := propagator.Extract(ctx, carrier)

			if err := retryWithBackoff(msgCtx, msg, handler, maxRetries, q.retryDelay, q.log); err != nil {
				msg.Nack()
				select {
				case errCh <- err:
				default:
					q.log.ErrorContext(msgCtx, "events: error channel full, dropping error",
						"error", err, "topic", topic)
				}
			} else {
				msg.Ack()
			}
		}
	}()

	return errCh, nil
}

// retryWithBackoff calls handler up to maxRetries times with exponential backoff.
// Returns nil on first success; returns the last error after all retries exhaust.
func retryWithBackoff(
	ctx context.Context,
	msg *message.Message,
	handler func(context.Context, *message.Message) error,
	maxRetries int,
	baseDelay time.Duration,
	log logger.Logger,
) error {
	delay := baseDelay
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt < maxRetries {
			log.WarnContext(ctx, "events: handler failed, retrying",
				"message_uuid", msg.UUID,
				"attempt", attempt,
				"max_retries", maxRetries,
				"next_delay", delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return fmt.Errorf("events: handler failed after %d retries: %w", maxRetries, err)
}

// Ping checks that the transport is reachable.
func (q *EventBus) Ping(ctx context.Context) error {
	if q.ping == nil {
		return nil
	}
	if err := q.ping(ctx); err != nil {
		return fmt.Errorf("events: ping %s: %w", q.driver, err)
	}
	return nil
}

// Close gracefully shuts down the EventBus.
// Shutdown order: stop subscriber → wait for in-flight handlers (30 s max) →
// close publisher → release shared transport resources. Safe to call twice.
func (q *EventBus) Close() error {
	var err error
	q.closeOnce.Do(func() { err = q.shutdown() })
	return err
}

func (q *EventBus) shutdown() error {
	if q.subscriber != nil {
		if err := q.subscriber.Close(); err != nil {
			return fmt.Errorf("events: close subscriber: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	select {
	case <-done:
	case <-ctx.Done():
		q.log.Error("events: timed out waiting for in-flight handlers to complete")
	}

	if err := q.publisher.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	if q.release != nil {
		return q.release()
	}
	return nil
}

// slogAdapter bridges logger.Logger to watermill.LoggerAdapter.
type slogAdapter struct{ log logger.Logger }

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}
func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{log: a.log.With(fieldsToArgs(fields)...)}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
