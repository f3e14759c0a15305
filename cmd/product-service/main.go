package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghuser/orderflow/pkg/app"
	"github.com/ghuser/orderflow/pkg/config"
	"github.com/ghuser/orderflow/pkg/events"
	"github.com/ghuser/orderflow/pkg/httpx"
	"github.com/ghuser/orderflow/pkg/logger"
	"github.com/ghuser/orderflow/pkg/telemetry"
	productApi "github.com/ghuser/orderflow/services/product/application/api"
	productSvcs "github.com/ghuser/orderflow/services/product/application/services"
)

// @title			Product Service API
// @version		1.0
// @description	Product registry. Every created product is announced on product.created.
// @license.name	MIT
// @license.url	https://opensource.org/licenses/MIT
// @host			localhost:5001
// @BasePath		/
// @schemes		http https
func main() {
	cfg, err := config.Load(config.Defaults{ServiceName: "product-service", HTTPAddr: ":5001"})
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	if cfg.ProcessLocalBus() {
		log.Warn("EVENT_BUS_DRIVER=memory keeps events inside this process; product.created will not reach the other service. "+
			"Set EVENT_BUS_DRIVER to postgres, kafka or dapr, or run both services with cmd/devstack",
			"driver", cfg.EventBusDriver)
	}

	// Telemetry: OTel tracing + metrics
	ctx := context.Background()
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pipeline, err := telemetry.NewPipeline()
	if err != nil {
		log.Error("failed to register pipeline metrics", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
	}

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck
	log.Info("event bus ready", "driver", eventBus.Driver(), "pubsub", eventBus.PubSubName())

	appConfig := &app.Application{
		Config:   cfg,
		Logger:   log,
		EventBus: eventBus,
		Metrics:  pipeline,
	}
	svcs := productSvcs.New(appConfig)

	srv := httpx.NewServer(cfg.HTTPAddr, productApi.NewRouter(appConfig, svcs, metricsHandler))

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
	// Let scheduled product.created publishes finish before the bus closes.
	if err := svcs.Product.Wait(shutdownCtx); err != nil {
		log.Error("pending publishes abandoned", "error", err)
	}
	log.Info("server stopped")
}
