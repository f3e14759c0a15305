// Package readclient polls the product and order read endpoints and
// reconciles the two collections. It is the programmatic counterpart of the
// dashboard a person would watch while products turn into orders.
package readclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 10 * time.Second

// Product is a product as listed by GET /products.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Order is an order as listed by GET /orders.
type Order struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is one concurrent read of both collections.
type Snapshot struct {
	Products []Product
	Orders   []Order
	TakenAt  time.Time
}

// StatusError is returned when an endpoint answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.URL, e.Status, e.Body)
}

// Client reads from the two services.
type Client struct {
	http        *http.Client
	productsURL string
	ordersURL   string
}

// New returns a Client for the given base URLs. A nil hc gets a default
// client with OTel transport instrumentation.
func New(productsURL, ordersURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		http:        hc,
		productsURL: strings.TrimRight(productsURL, "/"),
		ordersURL:   strings.TrimRight(ordersURL, "/"),
	}
}

// Products lists every product.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.getJSON(ctx, c.productsURL+"/products", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Orders lists every order.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.getJSON(ctx, c.ordersURL+"/orders", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProduct posts a new product and returns it as stored.
func (c *Client) CreateProduct(ctx context.Context, name string, price decimal.Decimal) (*Product, error) {
	body, err := json.Marshal(struct {
		Name  string          `json:"name"`
		Price json.RawMessage `json:"price"`
	}{Name: name, Price: json.RawMessage(price.String())})
	if err != nil {
		return nil, fmt.Errorf("encode product: %w", err)
	}

	url := c.productsURL + "/products"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out Product
	if err := c.do(req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fetch reads both collections concurrently. Either failure fails the fetch.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := c.Products(gctx)
		snap.Products = products
		return err
	})
	g.Go(func() error {
		orders, err := c.Orders(gctx)
		snap.Orders = orders
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.TakenAt = time.Now().UTC()
	return snap, nil
}

// Poll calls Fetch immediately and then every interval until ctx is done,
// handing each result to fn. Fetch errors are passed to fn, not returned.
func (c *Client) Poll(ctx context.Context, interval time.Duration, fn func(Snapshot, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		fn(c.Fetch(ctx))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, http.StatusOK, v)
}

func (c *Client) do(req *http.Request, want int, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{URL: req.URL.String(), Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL, err)
	}
	return nil
}
