package memory

import (
	"context"

	"github.com/huertohogar/storefront/internal/repositories"
)

// Registry bundles the in-memory stores for local development and tests.
type Registry struct {
	products  *ProductStore
	carts     *CartStore
	orders    *OrderStore
	customers *CustomerStore
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs empty in-memory stores.
func NewRegistry() *Registry {
	return &Registry{
		products:  NewProductStore(),
		carts:     NewCartStore(),
		orders:    NewOrderStore(),
		customers: NewCustomerStore(),
	}
}

// Close implements repositories.Registry.
func (r *Registry) Close(context.Context) error { return nil }

// Products returns the product store.
func (r *Registry) Products() repositories.ProductStore { return r.products }

// Carts returns the cart snapshot store.
func (r *Registry) Carts() repositories.CartSnapshotStore { return r.carts }

// Orders returns the order store.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Customers returns the customer store.
func (r *Registry) Customers() repositories.CustomerRepository { return r.customers }
