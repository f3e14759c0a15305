package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/orderflow/pkg/logger"
	"github.com/ghuser/orderflow/pkg/telemetry"
	"github.com/ghuser/orderflow/services/product/domain/events"
	"github.com/ghuser/orderflow/services/product/domain/models"
	"github.com/ghuser/orderflow/services/product/domain/repositories"
)

const defaultPublishTimeout = 5 * time.Second

// EventPublisher publishes a domain event on a topic. *events.EventBus
// satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event any) error
}

// ProductService creates products and announces them on the event bus.
//
// Publication is fire-and-forget: Create returns once the product is stored,
// and the product.created event is sent from a tracked goroutine. A failed
// publish is logged, counted and reported but never undoes the product, so
// the registry and the order service can diverge until the event is
// replayed by hand.
type ProductService struct {
	repo           repositories.ProductRepository
	publisher      EventPublisher
	log            logger.Logger
	metrics        *telemetry.Pipeline
	publishTimeout time.Duration
	inflight       sync.WaitGroup
}

// NewProductService returns a ProductService. metrics may be nil.
func NewProductService(
	repo repositories.ProductRepository,
	publisher EventPublisher,
	log logger.Logger,
	metrics *telemetry.Pipeline,
	publishTimeout time.Duration,
) *ProductService {
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}
	return &ProductService{
		repo:           repo,
		publisher:      publisher,
		log:            log,
		metrics:        metrics,
		publishTimeout: publishTimeout,
	}
}

// Create stores a new product and schedules its product.created event.
// The name is not checked beyond being present in the request.
func (s *ProductService) Create(ctx context.Context, name string, price models.Price) (*models.Product, error) {
	product := models.NewProduct(name, price)
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	s.metrics.ProductCreated(ctx)
	s.log.InfoContext(ctx, "product created", "product_id", product.ID, "name", product.Name)

	s.publishAsync(ctx, product)
	return product, nil
}

// List returns every product in creation order.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Wait blocks until every scheduled publish has finished or ctx is done.
func (s *ProductService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for pending publishes: %w", ctx.Err())
	}
}

func (s *ProductService) publishAsync(ctx context.Context, product *models.Product) {
	evt := events.NewProductCreatedEvent(product)
	// The request context ends with the response; keep its values (trace,
	// request id) but not its cancellation.
	detached := context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(detached, s.publishTimeout)
		defer cancel()
		ctx, span := telemetry.Tracer().Start(ctx, "publish "+events.TopicProductCreated,
			trace.WithSpanKind(trace.SpanKindProducer),
			trace.WithAttributes(attribute.String("product.id", evt.ID.String())),
		)
		defer span.End()

		if err := s.publish(ctx, evt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
			s.metrics.EventPublished(ctx, telemetry.OutcomeFailed)
			s.log.ErrorContext(ctx, "failed to publish product.created",
				"product_id", evt.ID,
				"topic", events.TopicProductCreated,
				"error", err,
			)
			telemetry.CaptureError(ctx, err, "topic", events.TopicProductCreated)
			return
		}
		s.metrics.EventPublished(ctx, telemetry.OutcomeOK)
		s.log.InfoContext(ctx, "published product.created", "product_id", evt.ID)
	}()
}

func (s *ProductService) publish(ctx context.Context, evt events.ProductCreatedEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("publish panicked: %v", r)
		}
	}()
	return s.publisher.PublishEvent(ctx, events.TopicProductCreated, evt)
}
