// Package memory holds the process-lifetime product store.
package memory

import (
	"context"

	"github.com/ghuser/orderflow/pkg/memstore"
	"github.com/ghuser/orderflow/services/product/domain/models"
)

// ProductRepository implements repositories.ProductRepository over an
// append-only in-memory log. Contents are lost on restart.
type ProductRepository struct {
	log *memstore.Log[models.Product]
}

// NewProductRepository returns an empty ProductRepository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{log: memstore.NewLog[models.Product]()}
}

func (r *ProductRepository) Save(ctx context.Context, product *models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.log.Append(*product)
	return nil
}

func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.log.Snapshot(), nil
}
