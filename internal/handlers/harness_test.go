package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/repositories/memory"
	"github.com/huertohogar/storefront/internal/services"
)

const (
	testSession      = "4a0f6f5e-3c1d-4a43-9b8e-2f6b1d7c9a10"
	otherTestSession = "9c2d7e41-58b0-4f6a-8d3e-0b1a2c3d4e5f"
	testMaxBody      = 64 * 1024
)

type harness struct {
	router    http.Handler
	catalog   services.ProductCatalog
	customers services.CustomerService
	orders    services.OrderService
	feed      *services.NotificationCenter
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	registry := memory.NewRegistry()
	feed := services.NewNotificationCenter(services.NotificationCenterDeps{Clock: clock})

	discount := int64(4000)
	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: registry.Products(),
		Seed: func() ([]services.Product, error) {
			return []services.Product{
				{ID: "P1", Name: "Lechuga", Price: 1000, Category: "verduras", Unit: "unidad", Stock: 5},
				{ID: "P2", Name: "Miel", Price: 4500, DiscountPrice: &discount, Category: "organicos", Unit: "frasco", Stock: 2},
			}, nil
		},
		Notifier: feed,
		Clock:    clock,
	})
	require.NoError(t, err)
	require.NoError(t, catalog.LoadInitialState(context.Background()))

	sessions, err := services.NewCartSessions(services.CartSessionsDeps{
		Catalog:  catalog,
		Store:    registry.Carts(),
		Notifier: feed,
		Clock:    clock,
	})
	require.NoError(t, err)

	customers, err := services.NewCustomerService(services.CustomerServiceDeps{
		Customers: registry.Customers(),
		Notifier:  feed,
		Clock:     clock,
	})
	require.NoError(t, err)

	orders, err := services.NewOrderService(services.OrderServiceDeps{Orders: registry.Orders(), Clock: clock})
	require.NoError(t, err)

	checkout, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:     sessions,
		Customers: registry.Customers(),
		Orders:    registry.Orders(),
		Notifier:  feed,
		Clock:     clock,
	})
	require.NoError(t, err)

	router := NewRouter(
		WithSessionMiddlewares(SessionMiddleware(defaultSessionHeader, defaultCustomerHeader)),
		WithProductRoutes(NewProductHandlers(catalog, customers, testMaxBody).Routes),
		WithCartRoutes(NewCartHandlers(sessions, catalog, testMaxBody).Routes),
		WithCheckoutRoutes(NewCheckoutHandlers(checkout, testMaxBody).Routes),
		WithNotificationRoutes(NewNotificationHandlers(feed).Routes),
		WithOrderRoutes(NewOrderHandlers(orders).Routes),
		WithCustomerRoutes(NewCustomerHandlers(customers, testMaxBody).Routes),
		WithAdminRoutes(NewAdminHandlers(orders, catalog, customers, testMaxBody).Routes),
	)

	return &harness{
		router:    router,
		catalog:   catalog,
		customers: customers,
		orders:    orders,
		feed:      feed,
	}
}

type call struct {
	method   string
	path     string
	body     any
	session  string
	customer string
}

func (h *harness) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.session != "" {
		req.Header.Set(defaultSessionHeader, c.session)
	}
	if c.customer != "" {
		req.Header.Set(defaultCustomerHeader, c.customer)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func (h *harness) stock(t *testing.T, productID string) int {
	t.Helper()
	product, ok := h.catalog.FindByID(context.Background(), productID)
	require.True(t, ok, "product %s missing", productID)
	return product.Stock
}

func (h *harness) registerCustomer(t *testing.T) domain.Customer {
	t.Helper()
	customer, err := h.customers.Register(context.Background(), services.RegisterCustomerCommand{
		RUT:     "12345678-5",
		Name:    "Ana",
		Email:   "ana@gmail.com",
		Address: &domain.Address{Street: "Los Aromos 12", City: "Talca", Region: "Maule"},
	})
	require.NoError(t, err)
	return customer
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "body: %s", rr.Body.String())
	return out
}
