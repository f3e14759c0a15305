package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	orderdocs "github.com/ghuser/orderflow/docs/order"
	"github.com/ghuser/orderflow/pkg/app"
	"github.com/ghuser/orderflow/pkg/config"
	"github.com/ghuser/orderflow/pkg/httpx"
	"github.com/ghuser/orderflow/pkg/logger"
	"github.com/ghuser/orderflow/pkg/telemetry"
	"github.com/ghuser/orderflow/services/order/application/handlers"
	appsvcs "github.com/ghuser/orderflow/services/order/application/services"
)

// NewRouter returns the order service's full HTTP handler: the standard
// middleware stack, /health, /metrics, /swagger, the order routes and the
// push-delivery routes.
func NewRouter(a *app.Application, svcs *appsvcs.Services, metrics http.Handler) *chi.Mux {
	cfg := httpx.ServerConfig{
		IsDevelopment:      a.Config.Environment == config.EnvDevelopment,
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
	}
	if a.Config.EventBusDriver == config.DriverDapr {
		// every push arrives from the sidecar's address
		cfg.RateLimit = -1
	}

	r := httpx.NewRouter(
		cfg,
		logger.Middleware(a.Logger),
		logger.Recovery(a.Logger),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(a.Config.ServiceName),
	)
	httpx.MountOps(r, httpx.HealthChecks{"event_bus": a.EventBus}, metrics, orderdocs.SwaggerInfo.InstanceName())
	OrderRoutes(r, svcs)
	SubscriptionRoutes(r, svcs, a.Config.PubSubName, a.Logger)
	return r
}

// OrderRoutes registers order endpoints on the provided chi router.
func OrderRoutes(r chi.Router, svcs *appsvcs.Services) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handlers.NewPostOrderHandler(svcs).Execute)
		r.Get("/", handlers.NewListOrdersHandler(svcs).Execute)
	})
}

// SubscriptionRoutes registers the push-delivery endpoints used when the
// event bus delivers over HTTP.
func SubscriptionRoutes(r chi.Router, svcs *appsvcs.Services, pubSubName string, log logger.Logger) {
	r.Get("/dapr/subscribe", handlers.NewSubscribeHandler(pubSubName).Execute)
	r.Post(handlers.ProductCreatedRoute, handlers.NewProductCreatedHandler(svcs, log).Execute)
}
