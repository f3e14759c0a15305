package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/orderflow/pkg/envelope"
	"github.com/ghuser/orderflow/pkg/logger"
	"github.com/ghuser/orderflow/services/order/application/services"
	orderdomain "github.com/ghuser/orderflow/services/order/domain"
	"github.com/ghuser/orderflow/services/order/domain/models"
	"github.com/ghuser/orderflow/services/order/infrastructure/memory"
)

type failingRepo struct {
	err   error
	panic bool
}

func (r failingRepo) Save(context.Context, *models.Order) error {
	if r.panic {
		panic("disk on fire")
	}
	return r.err
}

func (r failingRepo) List(context.Context) ([]models.Order, error) {
	return nil, r.err
}

func newService() *services.OrderService {
	return services.NewOrderService(memory.NewOrderRepository(), logger.Discard(), nil)
}

func nested(id uuid.UUID) []byte {
	return []byte(`{"specversion":"1.0","type":"com.dapr.event.sent","topic":"product.created","pubsubname":"messagebus","data":{"id":"` +
		id.String() + `","name":"Widget","price":9.99,"createdAt":"2024-01-15T10:30:00Z"}}`)
}

func flat(id uuid.UUID) []byte {
	return []byte(`{"id":"` + id.String() + `","name":"Widget","price":9.99}`)
}

func TestOnProductCreated_Shapes(t *testing.T) {
	productID := uuid.New()
	tests := []struct {
		name      string
		raw       []byte
		wantShape envelope.Shape
		wantOrder bool
	}{
		{"nested envelope", nested(productID), envelope.Nested, true},
		{"flat event", flat(productID), envelope.Flat, true},
		{"pascal case fields", []byte(`{"Id":"` + productID.String() + `","Name":"Widget"}`), envelope.Flat, true},
		{"empty object", []byte(`{}`), envelope.Malformed, false},
		{"empty data", []byte(`{"data":{}}`), envelope.Malformed, false},
		{"null data", []byte(`{"data":null}`), envelope.Malformed, false},
		{"nil id", []byte(`{"id":"00000000-0000-0000-0000-000000000000"}`), envelope.Malformed, false},
		{"array", []byte(`[1,2,3]`), envelope.Malformed, false},
		{"string", []byte(`"product.created"`), envelope.Malformed, false},
		{"not json", []byte(`hello`), envelope.Malformed, false},
		{"empty body", nil, envelope.Malformed, false},
		{"bad price", []byte(`{"id":"` + productID.String() + `","price":"cheap"}`), envelope.Malformed, false},
		{"data without id beside root id", []byte(`{"id":"` + productID.String() + `","data":{"name":"Widget"}}`), envelope.Malformed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService()
			d, err := svc.OnProductCreated(context.Background(), tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantShape, d.Shape)
			assert.Equal(t, !tt.wantOrder, d.Dropped())

			orders, err := svc.List(context.Background())
			require.NoError(t, err)
			if !tt.wantOrder {
				assert.Empty(t, orders)
				return
			}
			require.Len(t, orders, 1)
			assert.Equal(t, productID, orders[0].ProductID)
			assert.Equal(t, d.Order.ID, orders[0].ID)
		})
	}
}

// The order timestamp is when the order service learned about the product.
func TestOnProductCreated_OrderTimeIsConsumptionTime(t *testing.T) {
	d, err := newService().OnProductCreated(context.Background(), nested(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, d.Order)
	assert.True(t, d.Order.CreatedAt.Year() > 2024)
	assert.NotEqual(t, uuid.Nil, d.Order.ID)
}

func TestOnProductCreated_DuplicatesAreNotCollapsed(t *testing.T) {
	svc := newService()
	productID := uuid.New()
	raw := nested(productID)

	const deliveries = 3
	for i := 0; i < deliveries; i++ {
		_, err := svc.OnProductCreated(context.Background(), raw)
		require.NoError(t, err)
	}

	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, deliveries)

	ids := map[uuid.UUID]struct{}{}
	for _, o := range orders {
		assert.Equal(t, productID, o.ProductID)
		ids[o.ID] = struct{}{}
	}
	assert.Len(t, ids, deliveries)
}

func TestOnProductCreated_StoreFailureIsRetryable(t *testing.T) {
	svc := services.NewOrderService(failingRepo{err: errors.New("store unavailable")}, logger.Discard(), nil)

	_, err := svc.OnProductCreated(context.Background(), nested(uuid.New()))
	require.Error(t, err)
	assert.ErrorIs(t, err, orderdomain.ErrDeliveryFailed)
}

func TestOnProductCreated_PanicIsRetryable(t *testing.T) {
	svc := services.NewOrderService(failingRepo{panic: true}, logger.Discard(), nil)

	d, err := svc.OnProductCreated(context.Background(), nested(uuid.New()))
	require.Error(t, err)
	assert.ErrorIs(t, err, orderdomain.ErrDeliveryFailed)
	assert.Nil(t, d.Order)
}

// Malformed bodies are dropped before the store is touched, so a broken
// store does not turn them into retries.
func TestOnProductCreated_MalformedSkipsStore(t *testing.T) {
	svc := services.NewOrderService(failingRepo{panic: true}, logger.Discard(), nil)

	d, err := svc.OnProductCreated(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, d.Dropped())
}

func TestCreate_ArbitraryProductID(t *testing.T) {
	svc := newService()
	productID := uuid.New()

	order, err := svc.Create(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, productID, order.ProductID)

	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestCreate_StoreFailure(t *testing.T) {
	svc := services.NewOrderService(failingRepo{err: errors.New("store unavailable")}, logger.Discard(), nil)
	_, err := svc.Create(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, orderdomain.ErrDeliveryFailed)
}

func TestOnProductCreated_ConcurrentWithReads(t *testing.T) {
	svc := newService()
	const n = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.OnProductCreated(context.Background(), flat(uuid.New()))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			orders, err := svc.List(context.Background())
			assert.NoError(t, err)
			for _, o := range orders {
				assert.NotEqual(t, uuid.Nil, o.ID)
				assert.NotEqual(t, uuid.Nil, o.ProductID)
				assert.False(t, o.CreatedAt.IsZero())
			}
		}()
	}
	wg.Wait()

	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, n)
}
