package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is a request to fulfil a product. ProductID is not checked against
// the product registry; it may name a product this service never heard of.
type Order struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	CreatedAt time.Time
}

// NewOrder returns an Order for productID with a fresh ID. CreatedAt is the
// time this service created the order, not when the product was made.
func NewOrder(productID uuid.UUID) *Order {
	return &Order{
		ID:        uuid.New(),
		ProductID: productID,
		CreatedAt: time.Now().UTC(),
	}
}
