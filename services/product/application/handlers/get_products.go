package handlers

import (
	"net/http"

	"github.com/ghuser/orderflow/pkg/errhttp"
	"github.com/ghuser/orderflow/pkg/httpx"
	appsvcs "github.com/ghuser/orderflow/services/product/application/services"
)

// ListProductsHandler handles GET /products requests.
type ListProductsHandler struct {
	svc *appsvcs.Services
}

// NewListProductsHandler returns a ListProductsHandler backed by the given services.
func NewListProductsHandler(svc *appsvcs.Services) *ListProductsHandler {
	return &ListProductsHandler{svc: svc}
}

// Execute lists every product in creation order.
//
//	@Summary		List products
//	@Tags			products
//	@Produce		json
//	@Success		200	{array}		ProductResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/products [get]
func (h *ListProductsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Product.List(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.List(w, products, toResponse)
}
