package services

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/ghuser/orderflow/pkg/envelope"
	"github.com/ghuser/orderflow/pkg/logger"
	"github.com/ghuser/orderflow/pkg/telemetry"
	pkgvalidator "github.com/ghuser/orderflow/pkg/validator"
	orderdomain "github.com/ghuser/orderflow/services/order/domain"
	"github.com/ghuser/orderflow/services/order/domain/events"
	"github.com/ghuser/orderflow/services/order/domain/models"
	"github.com/ghuser/orderflow/services/order/domain/repositories"
)

// Delivery reports what OnProductCreated did with one inbound body.
// Order is nil when the body was dropped.
type Delivery struct {
	Shape envelope.Shape
	Order *models.Order
}

// Dropped reports whether the body was acknowledged without creating an order.
func (d Delivery) Dropped() bool {
	return d.Order == nil
}

// OrderService creates orders directly and from product.created deliveries.
//
// Deliveries are not deduplicated. The transport is at-least-once, so a
// redelivered event produces another order for the same product.
type OrderService struct {
	repo    repositories.OrderRepository
	log     logger.Logger
	metrics *telemetry.Pipeline
}

// NewOrderService returns an OrderService. metrics may be nil.
func NewOrderService(repo repositories.OrderRepository, log logger.Logger, metrics *telemetry.Pipeline) *OrderService {
	return &OrderService{repo: repo, log: log, metrics: metrics}
}

// Create stores an order for productID. The product is not looked up.
func (s *OrderService) Create(ctx context.Context, productID uuid.UUID) (*models.Order, error) {
	order := models.NewOrder(productID)
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	s.metrics.OrderCreated(ctx, telemetry.SourceDirect)
	s.log.InfoContext(ctx, "order created", "order_id", order.ID, "product_id", productID)
	return order, nil
}

// List returns every order in creation order.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// OnProductCreated turns one delivered product.created body into an order.
//
// A body that yields no usable event is logged and dropped with a nil error,
// so the transport acknowledges it and never redelivers. Only failures of
// this service (storage errors, panics) return an error, which wraps
// ErrDeliveryFailed and asks the transport to try again.
func (s *OrderService) OnProductCreated(ctx context.Context, raw []byte) (d Delivery, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "panic handling product.created",
				"error", r,
				"stack", string(debug.Stack()),
			)
			d, err = Delivery{}, fmt.Errorf("%w: panic: %v", orderdomain.ErrDeliveryFailed, r)
		}
	}()

	s.log.DebugContext(ctx, "received product.created", "payload", string(raw))

	evt, shape, err := envelope.Decode(raw, validateEvent)
	s.metrics.EventReceived(ctx, shape.String())
	if err != nil {
		s.log.WarnContext(ctx, "dropping undecodable product.created", "error", err, "bytes", len(raw))
		return Delivery{Shape: envelope.Malformed}, nil
	}

	order := models.NewOrder(evt.ID)
	if err := s.repo.Save(ctx, order); err != nil {
		return Delivery{Shape: shape}, fmt.Errorf("%w: save order: %w", orderdomain.ErrDeliveryFailed, err)
	}
	s.metrics.OrderCreated(ctx, telemetry.SourceEvent)
	s.log.InfoContext(ctx, "order created from product.created",
		"order_id", order.ID,
		"product_id", evt.ID,
		"shape", shape.String(),
	)
	return Delivery{Shape: shape, Order: order}, nil
}

func validateEvent(e *events.ProductCreatedEvent) error {
	return pkgvalidator.Validate(e)
}
