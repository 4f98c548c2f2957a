package memory

import (
	"context"
	"sync"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/repositories"
)

// ProductStore keeps products in insertion order.
type ProductStore struct {
	mu    sync.Mutex
	order []string
	byID  map[string]domain.Product
}

// NewProductStore constructs an empty product store.
func NewProductStore() *ProductStore {
	return &ProductStore{byID: make(map[string]domain.Product)}
}

// List implements repositories.ProductStore.
func (s *ProductStore) List(_ context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

// Save implements repositories.ProductStore.
func (s *ProductStore) Save(_ context.Context, products ...domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, product := range products {
		stored := product.Clone()
		if existing, ok := s.byID[product.ID]; ok {
			stored.Stock = existing.Stock
			stored.Reviews = existing.Clone().Reviews
		} else {
			s.order = append(s.order, product.ID)
		}
		s.byID[product.ID] = stored
	}
	return nil
}

// AdjustStock implements repositories.ProductStore.
func (s *ProductStore) AdjustStock(_ context.Context, productID string, delta int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.byID[productID]
	if !ok {
		return 0, false, repositories.NewNotFoundError("products.adjustStock", "product "+productID+" not found")
	}
	if product.Stock+delta < 0 {
		return product.Stock, false, nil
	}
	product.Stock += delta
	s.byID[productID] = product
	return product.Stock, true, nil
}

// AppendReview implements repositories.ProductStore.
func (s *ProductStore) AppendReview(_ context.Context, productID string, review domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.byID[productID]
	if !ok {
		return repositories.NewNotFoundError("products.appendReview", "product "+productID+" not found")
	}
	product.Reviews = append(append([]domain.Review(nil), product.Reviews...), review)
	s.byID[productID] = product
	return nil
}

var _ repositories.ProductStore = (*ProductStore)(nil)
