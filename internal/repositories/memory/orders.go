package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/repositories"
)

// OrderStore keeps orders keyed by ID.
type OrderStore struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

// NewOrderStore constructs an empty order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]domain.Order)}
}

// Insert implements repositories.OrderRepository.
func (s *OrderStore) Insert(_ context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ID]; exists {
		return repositories.NewConflictError("orders.insert", "order already exists")
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

// FindByID implements repositories.OrderRepository.
func (s *OrderStore) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, repositories.NewNotFoundError("orders.find", "order not found")
	}
	return cloneOrder(order), nil
}

// ListByCustomer implements repositories.OrderRepository.
func (s *OrderStore) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	return s.list(func(o domain.Order) bool { return o.CustomerID == customerID }), nil
}

// ListAll implements repositories.OrderRepository.
func (s *OrderStore) ListAll(_ context.Context) ([]domain.Order, error) {
	return s.list(func(domain.Order) bool { return true }), nil
}

// UpdateStatus implements repositories.OrderRepository.
func (s *OrderStore) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, repositories.NewNotFoundError("orders.update_status", "order not found")
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	s.orders[orderID] = order
	return cloneOrder(order), nil
}

func (s *OrderStore) list(keep func(domain.Order) bool) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, order := range s.orders {
		if keep(order) {
			out = append(out, cloneOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].PlacedAt.After(out[j].PlacedAt)
	})
	return out
}

func cloneOrder(order domain.Order) domain.Order {
	order.Lines = append([]domain.CartLine(nil), order.Lines...)
	return order
}
