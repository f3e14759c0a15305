// Command watch polls both read endpoints and logs how far products have
// turned into orders. With SEED_PRODUCT_NAME set it first creates a product.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/ghuser/orderflow/pkg/config"
	"github.com/ghuser/orderflow/pkg/logger"
	"github.com/ghuser/orderflow/pkg/readclient"
)

func main() {
	cfg, err := config.Load(config.Defaults{ServiceName: "watch"})
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := readclient.New(cfg.ProductsURL, cfg.OrdersURL, nil)

	if cfg.SeedProductName != "" {
		if err := seed(ctx, client, cfg, log); err != nil {
			log.Error("failed to seed product", "error", err)
			os.Exit(1) //nolint:gocritic
		}
	}

	log.Info("watching", "products_url", cfg.ProductsURL, "orders_url", cfg.OrdersURL, "interval", cfg.PollInterval)
	err = client.Poll(ctx, cfg.PollInterval, func(snap readclient.Snapshot, err error) {
		report(ctx, log, snap, err)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("watch stopped", "error", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, client *readclient.Client, cfg *config.Config, log logger.Logger) error {
	price, err := decimal.NewFromString(cfg.SeedProductPrice)
	if err != nil {
		return err
	}
	p, err := client.CreateProduct(ctx, cfg.SeedProductName, price)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "seeded product", "id", p.ID, "name", p.Name, "price", p.Price.String())
	return nil
}

func report(ctx context.Context, log logger.Logger, snap readclient.Snapshot, err error) {
	if err != nil {
		if ctx.Err() == nil {
			log.WarnContext(ctx, "poll failed", "error", err)
		}
		return
	}
	v := readclient.Reconcile(snap)
	args := []any{
		"products", v.Products,
		"orders", v.Orders,
		"pending", len(v.Pending),
		"duplicated", len(v.Duplicated),
		"orphans", len(v.Orphans),
	}
	if v.Settled() {
		log.InfoContext(ctx, "settled", args...)
		return
	}
	log.InfoContext(ctx, "in flight", args...)
	for _, p := range v.Pending {
		log.DebugContext(ctx, "awaiting order", "product_id", p.ID, "name", p.Name)
	}
	for id, n := range v.Duplicated {
		log.DebugContext(ctx, "duplicate orders", "product_id", id, "count", n)
	}
}
