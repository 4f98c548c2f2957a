package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/repositories"
)

// CustomerStore keeps customer profiles keyed by ID.
type CustomerStore struct {
	mu        sync.Mutex
	customers map[string]domain.Customer
}

// NewCustomerStore constructs an empty customer store.
func NewCustomerStore() *CustomerStore {
	return &CustomerStore{customers: make(map[string]domain.Customer)}
}

// Insert implements repositories.CustomerRepository.
func (s *CustomerStore) Insert(_ context.Context, customer domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.customers[customer.ID]; exists {
		return repositories.NewConflictError("customers.insert", "customer already exists")
	}
	for _, existing := range s.customers {
		if existing.RUT == customer.RUT || strings.EqualFold(existing.Email, customer.Email) {
			return repositories.NewConflictError("customers.insert", "rut or email already registered")
		}
	}
	s.customers[customer.ID] = cloneCustomer(customer)
	return nil
}

// FindByID implements repositories.CustomerRepository.
func (s *CustomerStore) FindByID(_ context.Context, customerID string) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer, ok := s.customers[customerID]
	if !ok {
		return domain.Customer{}, repositories.NewNotFoundError("customers.find", "customer not found")
	}
	return cloneCustomer(customer), nil
}

// Update implements repositories.CustomerRepository.
func (s *CustomerStore) Update(_ context.Context, customer domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[customer.ID]; !ok {
		return repositories.NewNotFoundError("customers.update", "customer not found")
	}
	s.customers[customer.ID] = cloneCustomer(customer)
	return nil
}

func cloneCustomer(customer domain.Customer) domain.Customer {
	customer.Addresses = append([]domain.Address(nil), customer.Addresses...)
	return customer
}
