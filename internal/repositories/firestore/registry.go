package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/huertohogar/storefront/internal/platform/firestore"
	"github.com/huertohogar/storefront/internal/repositories"
)

// Registry wires Firestore-backed stores sharing one provider.
type Registry struct {
	provider  *pfirestore.Provider
	products  *ProductStore
	carts     *CartStore
	orders    *OrderRepository
	customers *CustomerRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry builds every Firestore store on top of provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry requires provider")
	}
	products, err := NewProductStore(provider)
	if err != nil {
		return nil, err
	}
	carts, err := NewCartStore(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	customers, err := NewCustomerRepository(provider)
	if err != nil {
		return nil, err
	}
	return &Registry{provider: provider, products: products, carts: carts, orders: orders, customers: customers}, nil
}

// Close releases the Firestore client.
func (r *Registry) Close(context.Context) error { return r.provider.Close() }

// Products returns the product store.
func (r *Registry) Products() repositories.ProductStore { return r.products }

// Carts returns the cart snapshot store.
func (r *Registry) Carts() repositories.CartSnapshotStore { return r.carts }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Customers returns the customer repository.
func (r *Registry) Customers() repositories.CustomerRepository { return r.customers }
