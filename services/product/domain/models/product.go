package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the aggregate owned by the product registry. It is never
// modified after creation.
type Product struct {
	ID        uuid.UUID
	Name      string
	Price     Price
	CreatedAt time.Time
}

// NewProduct returns a Product with a fresh ID and the current UTC time.
// The name and price are stored as given.
func NewProduct(name string, price Price) *Product {
	return &Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     price,
		CreatedAt: time.Now().UTC(),
	}
}
