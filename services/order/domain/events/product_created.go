// Package events holds this service's view of the events it consumes.
// These types are owned here and decoded leniently: only the fields the
// order service relies on are required.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopicProductCreated is the topic the product registry publishes on.
const TopicProductCreated = "product.created"

// ProductCreatedEvent is the consumer view of product.created.
type ProductCreatedEvent struct {
	ID        uuid.UUID       `json:"id"        validate:"required"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}
