package services

import (
	"github.com/ghuser/orderflow/pkg/app"
	"github.com/ghuser/orderflow/services/product/infrastructure/memory"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Product *ProductService
}

// New wires all product application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	repo := memory.NewProductRepository()
	return &Services{
		Product: NewProductService(repo, a.EventBus, a.Logger, a.Metrics, a.Config.PublishTimeout),
	}
}
