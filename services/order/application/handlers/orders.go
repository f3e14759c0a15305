package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/orderflow/pkg/errhttp"
	"github.com/ghuser/orderflow/pkg/httpx"
	pkgvalidator "github.com/ghuser/orderflow/pkg/validator"
	appsvcs "github.com/ghuser/orderflow/services/order/application/services"
	"github.com/ghuser/orderflow/services/order/domain/models"
)

// CreateOrderRequest is the request body for POST /orders. Any well-formed
// uuid is accepted, the nil uuid included; only a missing productId is rejected.
type CreateOrderRequest struct {
	ProductID *uuid.UUID `json:"productId" validate:"required" swaggertype:"string" example:"123e4567-e89b-12d3-a456-426614174000"`
} // @name CreateOrderRequest

// OrderResponse is a single order as returned by the API.
type OrderResponse struct {
	ID        uuid.UUID `json:"id"        example:"550e8400-e29b-41d4-a716-446655440000"`
	ProductID uuid.UUID `json:"productId" example:"123e4567-e89b-12d3-a456-426614174000"`
	CreatedAt time.Time `json:"createdAt" example:"2024-01-15T10:30:00Z"`
} // @name OrderResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid JSON"`
} // @name ErrorResponse

func toResponse(o *models.Order) OrderResponse {
	return OrderResponse{ID: o.ID, ProductID: o.ProductID, CreatedAt: o.CreatedAt}
}

// PostOrderHandler handles POST /orders requests.
type PostOrderHandler struct {
	svc *appsvcs.Services
}

func NewPostOrderHandler(svc *appsvcs.Services) *PostOrderHandler {
	return &PostOrderHandler{svc: svc}
}

// Execute creates an order for any product id, known or not.
//
//	@Summary		Create order
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateOrderRequest	true	"Order creation request"
//	@Success		201		{object}	OrderResponse
//	@Header			201		{string}	Location	"/orders/{id}"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/orders [post]
func (h *PostOrderHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateOrderRequest](w, r)
	if !ok {
		return
	}

	order, err := h.svc.Order.Create(r.Context(), *req.ProductID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.Created(w, "/orders", order.ID.String(), toResponse(order))
}

// ListOrdersHandler handles GET /orders requests.
type ListOrdersHandler struct {
	svc *appsvcs.Services
}

func NewListOrdersHandler(svc *appsvcs.Services) *ListOrdersHandler {
	return &ListOrdersHandler{svc: svc}
}

// Execute lists every order in creation order.
//
//	@Summary		List orders
//	@Tags			orders
//	@Produce		json
//	@Success		200	{array}		OrderResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/orders [get]
func (h *ListOrdersHandler) Execute(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Order.List(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.List(w, orders, toResponse)
}
