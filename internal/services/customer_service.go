package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/repositories"
)

var (
	// ErrCustomerInvalidInput indicates a registration field failed validation.
	ErrCustomerInvalidInput = errors.New("customer: invalid input")
	// ErrCustomerConflict indicates the RUT or email is already registered.
	ErrCustomerConflict = errors.New("customer: already registered")
	// ErrCustomerNotFound indicates the customer does not exist.
	ErrCustomerNotFound = errors.New("customer: not found")
)

const (
	defaultAdminRUT   = "1-9"
	defaultAdminEmail = "admin@huertohogar.cl"
)

// CustomerServiceDeps bundles the collaborators required to construct a customer service.
type CustomerServiceDeps struct {
	Customers   repositories.CustomerRepository
	Notifier    Notifier
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type customerService struct {
	repo     repositories.CustomerRepository
	notifier Notifier
	clock    func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewCustomerService wires dependencies into a CustomerService.
func NewCustomerService(deps CustomerServiceDeps) (CustomerService, error) {
	if deps.Customers == nil {
		return nil, errors.New("customer service: customer repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &customerService{
		repo:     deps.Customers,
		notifier: deps.Notifier,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *customerService) Register(ctx context.Context, cmd RegisterCustomerCommand) (Customer, error) {
	rut := strings.TrimSpace(cmd.RUT)
	if !domain.ValidRUT(rut) {
		s.notify(ctx, "El RUT ingresado no es válido.", domain.SeverityError)
		return Customer{}, fmt.Errorf("%w: rut", ErrCustomerInvalidInput)
	}
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if !domain.AllowedEmail(email) {
		s.notify(ctx, "El correo debe ser de los dominios @duoc.cl, @profesor.duoc.cl o @gmail.com.", domain.SeverityError)
		return Customer{}, fmt.Errorf("%w: email", ErrCustomerInvalidInput)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Customer{}, fmt.Errorf("%w: name", ErrCustomerInvalidInput)
	}

	customer := Customer{
		ID:        s.newID(),
		RUT:       domain.FormatRUT(rut),
		Name:      name,
		LastName:  strings.TrimSpace(cmd.LastName),
		Email:     email,
		Addresses: []Address{},
		CreatedAt: s.clock(),
	}
	if cmd.Address != nil {
		address := Address{
			Street: strings.TrimSpace(cmd.Address.Street),
			City:   strings.TrimSpace(cmd.Address.City),
			Region: strings.TrimSpace(cmd.Address.Region),
		}
		if address.Street == "" || address.City == "" || address.Region == "" {
			s.notify(ctx, "Debes seleccionar tu región y comuna.", domain.SeverityError)
			return Customer{}, fmt.Errorf("%w: address", ErrCustomerInvalidInput)
		}
		customer.Addresses = append(customer.Addresses, address)
	}

	if err := s.repo.Insert(ctx, customer); err != nil {
		if repositories.IsConflict(err) {
			return Customer{}, fmt.Errorf("%w: %v", ErrCustomerConflict, err)
		}
		return Customer{}, fmt.Errorf("customer: insert: %w", err)
	}
	s.logger(ctx, "customer.registered", map[string]any{"customerId": customer.ID})
	s.notify(ctx, "¡Registro exitoso! Ahora puedes iniciar sesión.", domain.SeveritySuccess)
	return customer, nil
}

func (s *customerService) Get(ctx context.Context, customerID string) (Customer, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return Customer{}, fmt.Errorf("%w: customer id is required", ErrCustomerInvalidInput)
	}
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, fmt.Errorf("customer: find: %w", err)
	}
	return customer, nil
}

// EnsureAdmin guarantees that the administrator account exists and carries the admin flag.
func (s *customerService) EnsureAdmin(ctx context.Context, account AdminAccount) (Customer, error) {
	id := strings.TrimSpace(account.CustomerID)
	if id == "" {
		return Customer{}, fmt.Errorf("%w: admin customer id is required", ErrCustomerInvalidInput)
	}
	existing, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		if existing.IsAdmin {
			return existing, nil
		}
		existing.IsAdmin = true
		if err := s.repo.Update(ctx, existing); err != nil {
			return Customer{}, fmt.Errorf("customer: promote admin: %w", err)
		}
		s.logger(ctx, "customer.admin.promoted", map[string]any{"customerId": id})
		return existing, nil
	case !repositories.IsNotFound(err):
		return Customer{}, fmt.Errorf("customer: find admin: %w", err)
	}

	admin := Customer{
		ID:        id,
		RUT:       domain.FormatRUT(defaultAdminRUT),
		Name:      "Admin",
		Email:     strings.ToLower(strings.TrimSpace(account.Email)),
		Addresses: []Address{},
		IsAdmin:   true,
		CreatedAt: s.clock(),
	}
	if admin.Email == "" {
		admin.Email = defaultAdminEmail
	}
	if err := s.repo.Insert(ctx, admin); err != nil {
		if repositories.IsConflict(err) {
			return Customer{}, fmt.Errorf("%w: %v", ErrCustomerConflict, err)
		}
		return Customer{}, fmt.Errorf("customer: insert admin: %w", err)
	}
	s.logger(ctx, "customer.admin.created", map[string]any{"customerId": id})
	return admin, nil
}

func (s *customerService) notify(ctx context.Context, message string, severity Severity) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, message, severity)
	}
}
