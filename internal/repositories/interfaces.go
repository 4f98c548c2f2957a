package repositories

import (
	"context"
	"time"

	"github.com/huertohogar/storefront/internal/domain"
)

// Registry exposes typed store accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductStore
	Carts() CartSnapshotStore
	Orders() OrderRepository
	Customers() CustomerRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductStore persists the product list owned by the catalog service, which is its only writer.
type ProductStore interface {
	// List returns every product in catalog order.
	List(ctx context.Context) ([]domain.Product, error)
	// Save upserts the given products atomically. Products that already exist keep their stored
	// stock and reviews; those only change through AdjustStock and AppendReview.
	Save(ctx context.Context, products ...domain.Product) error
	// AdjustStock applies delta to one product's stock and returns the resulting stock. A
	// decrement larger than the stored stock is refused with ok=false and nothing is written.
	AdjustStock(ctx context.Context, productID string, delta int) (stock int, ok bool, err error)
	// AppendReview adds review to the stored reviews of productID.
	AppendReview(ctx context.Context, productID string, review domain.Review) error
}

// CartSnapshotStore persists one cart snapshot per session.
type CartSnapshotStore interface {
	// Load returns a RepositoryError with IsNotFound when the session has no snapshot.
	Load(ctx context.Context, sessionID string) (domain.CartSnapshot, error)
	Save(ctx context.Context, snapshot domain.CartSnapshot) error
	Delete(ctx context.Context, sessionID string) error
}

// OrderRepository is the order store receiving checkout handoffs.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// ListByCustomer returns the customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error)
}

// CustomerRepository stores customer profiles, points and saved addresses.
type CustomerRepository interface {
	// Insert returns a conflict RepositoryError when the ID, RUT or email is taken.
	Insert(ctx context.Context, customer domain.Customer) error
	FindByID(ctx context.Context, customerID string) (domain.Customer, error)
	Update(ctx context.Context, customer domain.Customer) error
}
