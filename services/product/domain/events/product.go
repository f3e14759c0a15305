package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/orderflow/services/product/domain/models"
)

// TopicProductCreated is the topic published when a Product is created.
const TopicProductCreated = "product.created"

// ProductCreatedEvent is the wire contract published after a Product is
// stored. It mirrors Product today but is a separate type so the stored
// model can change without changing what consumers receive.
type ProductCreatedEvent struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Price     models.Price `json:"price"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewProductCreatedEvent builds the event for p.
func NewProductCreatedEvent(p *models.Product) ProductCreatedEvent {
	return ProductCreatedEvent{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
	}
}
