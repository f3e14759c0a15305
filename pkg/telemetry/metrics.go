package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Publish outcomes recorded on orderflow.events.published.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Order sources recorded on orderflow.orders.created.
const (
	SourceDirect = "direct"
	SourceEvent  = "event"
)

// Pipeline holds the counters that trace a product through to its order.
// A nil *Pipeline records nothing.
type Pipeline struct {
	productsCreated metric.Int64Counter
	eventsPublished metric.Int64Counter
	eventsReceived  metric.Int64Counter
	ordersCreated   metric.Int64Counter
}

// NewPipeline registers the pipeline counters on the global MeterProvider.
func NewPipeline() (*Pipeline, error) {
	return NewPipelineWithMeter(otel.Meter(instrumentationName))
}

// NewPipelineWithMeter registers the pipeline counters on m.
func NewPipelineWithMeter(m metric.Meter) (*Pipeline, error) {
	var (
		p   Pipeline
		err error
	)
	if p.productsCreated, err = m.Int64Counter("orderflow.products.created",
		metric.WithDescription("Products accepted by the product registry")); err != nil {
		return nil, fmt.Errorf("products counter: %w", err)
	}
	if p.eventsPublished, err = m.Int64Counter("orderflow.events.published",
		metric.WithDescription("product.created publish attempts by outcome")); err != nil {
		return nil, fmt.Errorf("published counter: %w", err)
	}
	if p.eventsReceived, err = m.Int64Counter("orderflow.events.received",
		metric.WithDescription("product.created deliveries by envelope shape")); err != nil {
		return nil, fmt.Errorf("received counter: %w", err)
	}
	if p.ordersCreated, err = m.Int64Counter("orderflow.orders.created",
		metric.WithDescription("Orders created by source")); err != nil {
		return nil, fmt.Errorf("orders counter: %w", err)
	}
	return &p, nil
}

func (p *Pipeline) ProductCreated(ctx context.Context) {
	if p == nil {
		return
	}
	p.productsCreated.Add(ctx, 1)
}

func (p *Pipeline) EventPublished(ctx context.Context, outcome string) {
	if p == nil {
		return
	}
	p.eventsPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (p *Pipeline) EventReceived(ctx context.Context, shape string) {
	if p == nil {
		return
	}
	p.eventsReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("shape", shape)))
}

func (p *Pipeline) OrderCreated(ctx context.Context, source string) {
	if p == nil {
		return
	}
	p.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
