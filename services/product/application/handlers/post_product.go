package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/orderflow/pkg/errhttp"
	"github.com/ghuser/orderflow/pkg/httpx"
	pkgvalidator "github.com/ghuser/orderflow/pkg/validator"
	appsvcs "github.com/ghuser/orderflow/services/product/application/services"
	"github.com/ghuser/orderflow/services/product/domain/models"
)

// CreateProductRequest is the request body for POST /products.
type CreateProductRequest struct {
	Name  string        `json:"name"  validate:"required"  example:"Widget"`
	Price *models.Price `json:"price" validate:"required"  example:"9.99" swaggertype:"number"`
} // @name CreateProductRequest

// ProductResponse is a single product as returned by the API.
type ProductResponse struct {
	ID        uuid.UUID    `json:"id"        example:"123e4567-e89b-12d3-a456-426614174000"`
	Name      string       `json:"name"      example:"Widget"`
	Price     models.Price `json:"price"     example:"9.99" swaggertype:"number"`
	CreatedAt time.Time    `json:"createdAt" example:"2024-01-15T10:30:00Z"`
} // @name ProductResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid JSON"`
} // @name ErrorResponse

func toResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
	}
}

// PostProductHandler handles POST /products requests.
type PostProductHandler struct {
	svc *appsvcs.Services
}

// NewPostProductHandler returns a PostProductHandler backed by the given services.
func NewPostProductHandler(svc *appsvcs.Services) *PostProductHandler {
	return &PostProductHandler{svc: svc}
}

// Execute creates a product and schedules its product.created event.
//
//	@Summary		Create product
//	@Description	Stores a product and publishes product.created. The response does not wait for the event.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateProductRequest	true	"Product creation request"
//	@Success		201		{object}	ProductResponse
//	@Header			201		{string}	Location	"/products/{id}"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/products [post]
func (h *PostProductHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateProductRequest](w, r)
	if !ok {
		return
	}

	product, err := h.svc.Product.Create(r.Context(), req.Name, *req.Price)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.Created(w, "/products", product.ID.String(), toResponse(product))
}
