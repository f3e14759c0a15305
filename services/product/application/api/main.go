package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	productdocs "github.com/ghuser/orderflow/docs/product"
	"github.com/ghuser/orderflow/pkg/app"
	"github.com/ghuser/orderflow/pkg/config"
	"github.com/ghuser/orderflow/pkg/httpx"
	"github.com/ghuser/orderflow/pkg/logger"
	"github.com/ghuser/orderflow/pkg/telemetry"
	"github.com/ghuser/orderflow/services/product/application/handlers"
	appsvcs "github.com/ghuser/orderflow/services/product/application/services"
)

// NewRouter returns the product service's full HTTP handler: the standard
// middleware stack, /health, /metrics, /swagger and the product routes.
func NewRouter(a *app.Application, svcs *appsvcs.Services, metrics http.Handler) *chi.Mux {
	r := httpx.NewRouter(
		httpx.ServerConfig{
			IsDevelopment:      a.Config.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
		},
		logger.Middleware(a.Logger),
		logger.Recovery(a.Logger),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(a.Config.ServiceName),
	)
	httpx.MountOps(r, httpx.HealthChecks{"event_bus": a.EventBus}, metrics, productdocs.SwaggerInfo.InstanceName())
	ProductRoutes(r, svcs)
	return r
}

// ProductRoutes registers product endpoints on the provided chi router.
func ProductRoutes(r chi.Router, svcs *appsvcs.Services) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", handlers.NewPostProductHandler(svcs).Execute)
		r.Get("/", handlers.NewListProductsHandler(svcs).Execute)
	})
}
