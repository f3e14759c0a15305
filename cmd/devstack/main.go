// Command devstack runs the product and order services in one process,
// joined by an in-memory event bus. It needs no broker, database or sidecar.
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

	"golang.org/x/sync/errgroup"

	"github.com/ghuser/orderflow/pkg/app"
	"github.com/ghuser/orderflow/pkg/config"
	"github.com/ghuser/orderflow/pkg/events"
	"github.com/ghuser/orderflow/pkg/httpx"
	"github.com/ghuser/orderflow/pkg/logger"
	"github.com/ghuser/orderflow/pkg/telemetry"
	orderApi "github.com/ghuser/orderflow/services/order/application/api"
	orderSvcs "github.com/ghuser/orderflow/services/order/application/services"
	"github.com/ghuser/orderflow/services/order/application/subscribers"
	productApi "github.com/ghuser/orderflow/services/product/application/api"
	productSvcs "github.com/ghuser/orderflow/services/product/application/services"
)

const (
	productAddr = ":5001"
	orderAddr   = ":5002"
)

// stack is both services wired to a single bus.
type stack struct {
	bus      *events.EventBus
	products *productSvcs.Services
	orders   *orderSvcs.Services
	// Handlers for the two HTTP surfaces.
	productHandler http.Handler
	orderHandler   http.Handler
}

// newStack wires both services to one in-memory bus and registers the
// order service's product.created subscription.
func newStack(ctx context.Context, cfg *config.Config, log logger.Logger, pipeline *telemetry.Pipeline, metrics http.Handler) (*stack, error) {
	productCfg := *cfg
	productCfg.ServiceName = "product-service"
	productCfg.EventBusDriver = config.DriverMemory
	orderCfg := productCfg
	orderCfg.ServiceName = "order-service"

	bus := events.NewInMemoryEventBus(productCfg.ServiceName, cfg.PubSubName, log)

	productApp := &app.Application{
		Config:   &productCfg,
		Logger:   log.With("service", productCfg.ServiceName),
		EventBus: bus,
		Metrics:  pipeline,
	}
	orderApp := &app.Application{
		Config:   &orderCfg,
		Logger:   log.With("service", orderCfg.ServiceName),
		EventBus: bus,
		Metrics:  pipeline,
	}

	s := &stack{
		bus:      bus,
		products: productSvcs.New(productApp),
		orders:   orderSvcs.New(orderApp),
	}
	if _, err := subscribers.Register(ctx, bus, s.orders, orderApp.Logger); err != nil {
		_ = bus.Close()
		return nil, err
	}
	s.productHandler = productApi.NewRouter(productApp, s.products, metrics)
	s.orderHandler = orderApi.NewRouter(orderApp, s.orders, metrics)
	return s, nil
}

// Close waits for pending publishes and then closes the bus.
func (s *stack) Close(ctx context.Context) error {
	err := s.products.Product.Wait(ctx)
	return errors.Join(err, s.bus.Close())
}

func main() {
	cfg, err := config.Load(config.Defaults{ServiceName: "devstack"})
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	pipeline, err := telemetry.NewPipeline()
	if err != nil {
		log.Error("failed to register pipeline metrics", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	s, err := newStack(ctx, cfg, log, pipeline, metricsHandler)
	if err != nil {
		log.Error("failed to start stack", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	servers := []*http.Server{
		httpx.NewServer(productAddr, s.productHandler),
		httpx.NewServer(orderAddr, s.orderHandler),
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.Info("server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		errs = append(errs, s.Close(shutdownCtx))
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		log.Error("devstack stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("devstack stopped")
}
