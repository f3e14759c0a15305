package repositories

import (
	"context"

	"github.com/ghuser/orderflow/services/order/domain/models"
)

// OrderRepository is the persistence interface for the Order aggregate.
type OrderRepository interface {
	Save(ctx context.Context, order *models.Order) error
	// List returns every order in insertion order, never nil.
	List(ctx context.Context) ([]models.Order, error)
}
