package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/huertohogar/storefront/internal/domain"
	pfirestore "github.com/huertohogar/storefront/internal/platform/firestore"
	"github.com/huertohogar/storefront/internal/repositories"
)

const customerCollection = "customers"

// CustomerRepository persists customer profiles.
type CustomerRepository struct {
	provider *pfirestore.Provider
	docs     *pfirestore.Collection[customerDocument]
}

// NewCustomerRepository constructs a Firestore-backed customer repository.
func NewCustomerRepository(provider *pfirestore.Provider) (*CustomerRepository, error) {
	if provider == nil {
		return nil, errors.New("customer repository requires firestore provider")
	}
	return &CustomerRepository{
		provider: provider,
		docs:     pfirestore.NewCollection[customerDocument](provider, customerCollection),
	}, nil
}

// Insert implements repositories.CustomerRepository. RUT and email uniqueness is checked inside the transaction.
func (r *CustomerRepository) Insert(ctx context.Context, customer domain.Customer) error {
	coll, err := r.docs.Ref(ctx)
	if err != nil {
		return err
	}
	doc := newCustomerDocument(customer)
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, clash := range []firestore.Query{
			coll.Where("rut", "==", doc.RUT).Limit(1),
			coll.Where("emailKey", "==", doc.EmailKey).Limit(1),
		} {
			found, err := tx.Documents(clash).GetAll()
			if err != nil {
				return err
			}
			if len(found) > 0 {
				return status.Error(codes.AlreadyExists, "rut or email already registered")
			}
		}
		return tx.Create(coll.Doc(customer.ID), doc)
	})
}

// FindByID implements repositories.CustomerRepository.
func (r *CustomerRepository) FindByID(ctx context.Context, customerID string) (domain.Customer, error) {
	doc, err := r.docs.Get(ctx, customerID)
	if err != nil {
		return domain.Customer{}, err
	}
	return doc.toDomain(customerID), nil
}

// Update implements repositories.CustomerRepository.
func (r *CustomerRepository) Update(ctx context.Context, customer domain.Customer) error {
	ref, err := r.docs.Doc(ctx, customer.ID)
	if err != nil {
		return err
	}
	doc := newCustomerDocument(customer)
	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "name", Value: doc.Name},
		{Path: "lastName", Value: doc.LastName},
		{Path: "points", Value: doc.Points},
		{Path: "addresses", Value: doc.Addresses},
		{Path: "isAdmin", Value: doc.IsAdmin},
	})
	return pfirestore.WrapError("customers.update", err)
}

type customerDocument struct {
	RUT       string           `firestore:"rut"`
	Name      string           `firestore:"name"`
	LastName  string           `firestore:"lastName,omitempty"`
	Email     string           `firestore:"email"`
	EmailKey  string           `firestore:"emailKey"`
	Points    int64            `firestore:"points"`
	Addresses []domain.Address `firestore:"addresses"`
	IsAdmin   bool             `firestore:"isAdmin"`
	CreatedAt time.Time        `firestore:"createdAt"`
}

func newCustomerDocument(c domain.Customer) customerDocument {
	return customerDocument{
		RUT:       c.RUT,
		Name:      c.Name,
		LastName:  c.LastName,
		Email:     c.Email,
		EmailKey:  strings.ToLower(strings.TrimSpace(c.Email)),
		Points:    c.Points,
		Addresses: append([]domain.Address{}, c.Addresses...),
		IsAdmin:   c.IsAdmin,
		CreatedAt: c.CreatedAt.UTC(),
	}
}

func (d customerDocument) toDomain(id string) domain.Customer {
	return domain.Customer{
		ID:        id,
		RUT:       d.RUT,
		Name:      d.Name,
		LastName:  d.LastName,
		Email:     d.Email,
		Points:    d.Points,
		Addresses: d.Addresses,
		IsAdmin:   d.IsAdmin,
		CreatedAt: d.CreatedAt,
	}
}

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)
