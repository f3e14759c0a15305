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
	orderApi "github.com/ghuser/orderflow/services/order/application/api"
	orderSvcs "github.com/ghuser/orderflow/services/order/application/services"
	"github.com/ghuser/orderflow/services/order/application/subscribers"
)

// @title			Order Service API
// @version		1.0
// @description	Order materializer. Creates an order for every product.created delivery.
// @license.name	MIT
// @license.url	https://opensource.org/licenses/MIT
// @host			localhost:5002
// @BasePath		/
// @schemes		http https
func main() {
	cfg, err := config.Load(config.Defaults{ServiceName: "order-service", HTTPAddr: ":5002"})
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pipeline, err := telemetry.NewPipeline()
	if err != nil {
		log.Error("failed to register pipeline metrics", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	appConfig := &app.Application{
		Config:   cfg,
		Logger:   log,
		EventBus: eventBus,
		Metrics:  pipeline,
	}
	svcs := orderSvcs.New(appConfig)

	pulled, err := subscribers.Register(ctx, eventBus, svcs, log)
	if err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	log.Info("event bus ready", "driver", eventBus.Driver(), "pull_subscription", pulled)

	srv := httpx.NewServer(cfg.HTTPAddr, orderApi.NewRouter(appConfig, svcs, metricsHandler))

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("server stopped")
}
