package repositories

import (
	"context"

	"github.com/ghuser/orderflow/services/product/domain/models"
)

// ProductRepository is the persistence interface for the Product aggregate.
// The domain layer owns this interface; infrastructure implements it.
type ProductRepository interface {
	Save(ctx context.Context, product *models.Product) error

	// List returns every stored product in insertion order. The result is a
	// copy and never nil.
	List(ctx context.Context) ([]models.Product, error)
}
