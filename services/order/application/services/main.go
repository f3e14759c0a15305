package services

import (
	"github.com/ghuser/orderflow/pkg/app"
	"github.com/ghuser/orderflow/services/order/infrastructure/memory"
)

// Services is the application-layer service container for this bounded context.
type Services struct {
	Order *OrderService
}

// New wires all order application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	return &Services{
		Order: NewOrderService(memory.NewOrderRepository(), a.Logger, a.Metrics),
	}
}
