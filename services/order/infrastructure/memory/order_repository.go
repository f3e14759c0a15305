package memory

import (
	"context"

	"github.com/ghuser/orderflow/pkg/memstore"
	"github.com/ghuser/orderflow/services/order/domain/models"
)

// OrderRepository implements repositories.OrderRepository over an
// append-only in-memory log shared by HTTP handlers and the event consumer.
type OrderRepository struct {
	log *memstore.Log[models.Order]
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{log: memstore.NewLog[models.Order]()}
}

func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.log.Append(*order)
	return nil
}

func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.log.Snapshot(), nil
}
