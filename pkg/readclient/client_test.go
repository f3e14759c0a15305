package readclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/orderflow/pkg/readclient"
)

func jsonServer(t *testing.T, path string, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_ReadsBothCollections(t *testing.T) {
	productID := uuid.New()
	products := jsonServer(t, "/products", http.StatusOK, []map[string]any{
		{"id": productID, "name": "Widget", "price": 9.99, "createdAt": "2024-01-15T10:30:00Z"},
	})
	orders := jsonServer(t, "/orders", http.StatusOK, []map[string]any{
		{"id": uuid.New(), "productId": productID, "createdAt": "2024-01-15T10:30:01Z"},
	})

	snap, err := readclient.New(products.URL+"/", orders.URL, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Products, 1)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "Widget", snap.Products[0].Name)
	assert.True(t, snap.Products[0].Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, productID, snap.Orders[0].ProductID)
	assert.False(t, snap.TakenAt.IsZero())
}

func TestFetch_EitherFailureFails(t *testing.T) {
	products := jsonServer(t, "/products", http.StatusOK, []any{})
	orders := jsonServer(t, "/orders", http.StatusInternalServerError, map[string]string{"error": "boom"})

	_, err := readclient.New(products.URL, orders.URL, nil).Fetch(context.Background())
	require.Error(t, err)

	var se *readclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Status)
}

func TestCreateProduct(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/products" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": uuid.New(), "name": got["name"], "price": got["price"], "createdAt": time.Now().UTC(),
		})
	}))
	defer srv.Close()

	p, err := readclient.New(srv.URL, srv.URL, nil).CreateProduct(context.Background(), "Widget", decimal.RequireFromString("9.99"))
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 9.99, got["price"], "price must be sent as a JSON number")
}

func TestCreateProduct_Rejected(t *testing.T) {
	srv := jsonServer(t, "/products", http.StatusUnprocessableEntity, map[string]string{"error": "Validation failed"})
	_, err := readclient.New(srv.URL, srv.URL, nil).CreateProduct(context.Background(), "", decimal.Zero)
	var se *readclient.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Status)
}

func TestPoll_StopsOnCancel(t *testing.T) {
	products := jsonServer(t, "/products", http.StatusOK, []any{})
	orders := jsonServer(t, "/orders", http.StatusOK, []any{})
	c := readclient.New(products.URL, orders.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- c.Poll(ctx, 5*time.Millisecond, func(_ readclient.Snapshot, err error) {
			if err == nil && calls.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not stop")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}
