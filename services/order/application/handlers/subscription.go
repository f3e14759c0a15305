package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/ghuser/orderflow/pkg/httpx"
	"github.com/ghuser/orderflow/pkg/logger"
	appsvcs "github.com/ghuser/orderflow/services/order/application/services"
	"github.com/ghuser/orderflow/services/order/domain/events"
)

// ProductCreatedRoute is where a push transport delivers product.created.
const ProductCreatedRoute = "/product-created"

// Delivery statuses understood by the Dapr sidecar.
const (
	StatusSuccess = "SUCCESS"
	StatusRetry   = "RETRY"
)

// Subscription declares one topic the service wants pushed to it.
type Subscription struct {
	PubSubName string `json:"pubsubname" example:"messagebus"`
	Topic      string `json:"topic"      example:"product.created"`
	Route      string `json:"route"      example:"/product-created"`
} // @name Subscription

// DeliveryResponse acknowledges a pushed event.
type DeliveryResponse struct {
	Status string `json:"status" example:"SUCCESS"`
} // @name DeliveryResponse

// SubscribeHandler handles GET /dapr/subscribe.
type SubscribeHandler struct {
	pubSubName string
}

func NewSubscribeHandler(pubSubName string) *SubscribeHandler {
	return &SubscribeHandler{pubSubName: pubSubName}
}

// Execute lists the service's topic subscriptions.
//
//	@Summary		Programmatic subscriptions
//	@Tags			events
//	@Produce		json
//	@Success		200	{array}	Subscription
//	@Router			/dapr/subscribe [get]
func (h *SubscribeHandler) Execute(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, []Subscription{{
		PubSubName: h.pubSubName,
		Topic:      events.TopicProductCreated,
		Route:      ProductCreatedRoute,
	}})
}

// ProductCreatedHandler handles POST /product-created pushes.
type ProductCreatedHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

func NewProductCreatedHandler(svc *appsvcs.Services, log logger.Logger) *ProductCreatedHandler {
	return &ProductCreatedHandler{svc: svc, log: log}
}

// Execute consumes one product.created delivery. Bodies that carry no
// usable event are acknowledged with 200 so they are not redelivered.
//
//	@Summary		Receive product.created
//	@Description	Accepts a CloudEvents envelope (event under "data") or a bare event. Undecodable bodies are dropped with 200.
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	DeliveryResponse
//	@Failure		413	{object}	ErrorResponse
//	@Failure		500	{object}	DeliveryResponse
//	@Router			/product-created [post]
func (h *ProductCreatedHandler) Execute(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.log.ErrorContext(r.Context(), "failed to read product.created body", "error", err)
		httpx.JSON(w, http.StatusInternalServerError, DeliveryResponse{Status: StatusRetry})
		return
	}

	if _, err := h.svc.Order.OnProductCreated(r.Context(), raw); err != nil {
		h.log.ErrorContext(r.Context(), "product.created delivery failed", "error", err)
		httpx.JSON(w, http.StatusInternalServerError, DeliveryResponse{Status: StatusRetry})
		return
	}
	httpx.JSON(w, http.StatusOK, DeliveryResponse{Status: StatusSuccess})
}
