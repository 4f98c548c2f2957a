package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/platform/requestctx"
	"github.com/huertohogar/storefront/internal/repositories"
)

var (
	// ErrCheckoutInvalidInput indicates the command is missing identifiers.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutCustomerNotFound indicates the customer profile does not exist.
	ErrCheckoutCustomerNotFound = errors.New("checkout: customer not found")
	// ErrCheckoutEmptyCart indicates there is nothing to purchase.
	ErrCheckoutEmptyCart = errors.New("checkout: cart is empty")
	// ErrCheckoutFailed indicates the order could not be stored. Cart, stock and points are untouched.
	ErrCheckoutFailed = errors.New("checkout: order could not be placed")
)

// CheckoutServiceDeps bundles the collaborators required to construct a checkout service.
type CheckoutServiceDeps struct {
	Carts         CartSessions
	Customers     repositories.CustomerRepository
	Orders        repositories.OrderRepository
	Notifier      Notifier
	Events        OrderEventPublisher
	PointsDivisor int64
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	carts     CartSessions
	customers repositories.CustomerRepository
	orders    repositories.OrderRepository
	notifier  Notifier
	events    OrderEventPublisher
	divisor   int64
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewCheckoutService wires dependencies into a CheckoutService.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errors.New("checkout service: cart sessions are required")
	}
	if deps.Customers == nil {
		return nil, errors.New("checkout service: customer repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order repository is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("checkout service: notifier is required")
	}
	divisor := deps.PointsDivisor
	if divisor <= 0 {
		divisor = DefaultPointsDivisor
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &checkoutService{
		carts:     deps.Carts,
		customers: deps.Customers,
		orders:    deps.Orders,
		notifier:  deps.Notifier,
		events:    deps.Events,
		divisor:   divisor,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *checkoutService) Quote(ctx context.Context, cmd QuoteCommand) (CheckoutQuote, error) {
	customer, cart, err := s.load(ctx, cmd.SessionID, cmd.CustomerID)
	if err != nil {
		return CheckoutQuote{}, err
	}
	defer s.carts.Release(ctx, cmd.SessionID)
	return s.quote(cart.Total(), customer.Points, cmd.UsePoints), nil
}

func (s *checkoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (order Order, err error) {
	ctx, span := startSpan(ctx, "checkout.Checkout",
		attribute.String("customer.id", cmd.CustomerID),
		attribute.Bool("use_points", cmd.UsePoints))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(cmd.SessionID) != "" {
		ctx = requestctx.WithSessionID(ctx, strings.TrimSpace(cmd.SessionID))
	}

	customer, cart, err := s.load(ctx, cmd.SessionID, cmd.CustomerID)
	if err != nil {
		if errors.Is(err, ErrCheckoutCustomerNotFound) {
			s.notifier.Notify(ctx, "Error: No se encontró usuario.", domain.SeverityError)
		}
		return Order{}, err
	}
	defer s.carts.Release(ctx, cmd.SessionID)

	// Adds and quantity changes on this session wait until the order is stored, so the order holds
	// exactly the reserved lines.
	_, err = cart.Settle(ctx, func(ctx context.Context, lines []CartLine) error {
		if len(lines) == 0 {
			s.notifier.Notify(ctx, "Tu carrito está vacío.", domain.SeverityError)
			return ErrCheckoutEmptyCart
		}

		delivery, err := ValidateDelivery(cmd.Delivery, customer)
		if err != nil {
			s.notifier.Notify(ctx, deliveryErrorMessage(err), domain.SeverityError)
			return err
		}

		quote := s.quote(linesTotal(lines), customer.Points, cmd.UsePoints)
		now := s.clock()
		placed := Order{
			ID:            s.newID(),
			CustomerID:    customer.ID,
			CustomerEmail: customer.Email,
			Lines:         lines,
			OriginalTotal: quote.OriginalTotal,
			PointsUsed:    quote.PointsUsed,
			FinalTotal:    quote.FinalTotal,
			PointsEarned:  quote.PointsEarned,
			Delivery:      delivery,
			Status:        domain.OrderStatusPreparing,
			PlacedAt:      now,
			UpdatedAt:     now,
		}
		if err := s.orders.Insert(ctx, placed); err != nil {
			s.logger(ctx, "checkout.order.insert_failed", map[string]any{"orderId": placed.ID, "customerId": customer.ID, "error": err})
			s.notifier.Notify(ctx, "Error al procesar el pedido.", domain.SeverityError)
			return fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
		}
		s.updateCustomer(ctx, customer, placed, cmd.SaveAddress)
		order = placed
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.publish(ctx, order)

	s.logger(ctx, "checkout.completed", map[string]any{
		"orderId":      order.ID,
		"customerId":   order.CustomerID,
		"finalTotal":   order.FinalTotal,
		"pointsUsed":   order.PointsUsed,
		"pointsEarned": order.PointsEarned,
	})
	s.notifier.Notify(ctx, "¡Compra realizada con éxito!", domain.SeveritySuccess)
	return order, nil
}

func (s *checkoutService) load(ctx context.Context, sessionID, customerID string) (Customer, CartEngine, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" || strings.TrimSpace(sessionID) == "" {
		return Customer{}, nil, fmt.Errorf("%w: session and customer are required", ErrCheckoutInvalidInput)
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return Customer{}, nil, ErrCheckoutCustomerNotFound
		}
		return Customer{}, nil, fmt.Errorf("checkout: load customer: %w", err)
	}
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return Customer{}, nil, fmt.Errorf("checkout: load cart: %w", err)
	}
	return customer, cart, nil
}

func (s *checkoutService) quote(total, points int64, usePoints bool) CheckoutQuote {
	var used int64
	if usePoints {
		used = points
	}
	final := ComputeFinalTotal(total, points, usePoints)
	return CheckoutQuote{
		OriginalTotal:   total,
		PointsAvailable: points,
		PointsUsed:      used,
		FinalTotal:      final,
		PointsEarned:    pointsEarned(final, s.divisor),
	}
}

// updateCustomer applies the points balance and saves a new address. The order is already committed, so failures are only logged.
func (s *checkoutService) updateCustomer(ctx context.Context, customer Customer, order Order, saveAddress bool) {
	customer.Points = ApplyPointsBalance(customer.Points, order.PointsUsed, order.PointsEarned)
	if home, ok := order.Delivery.(domain.HomeDelivery); ok && saveAddress {
		address := home.Address()
		known := false
		for _, existing := range customer.Addresses {
			if existing.SameLocation(address) {
				known = true
				break
			}
		}
		if !known {
			customer.Addresses = append(append([]Address(nil), customer.Addresses...), address)
		}
	}
	if err := s.customers.Update(ctx, customer); err != nil {
		s.logger(ctx, "checkout.customer.update_failed", map[string]any{"orderId": order.ID, "customerId": customer.ID, "error": err})
	}
}

func (s *checkoutService) publish(ctx context.Context, order Order) {
	if s.events == nil {
		return
	}
	event := OrderPlacedEvent{
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		CustomerEmail:  order.CustomerEmail,
		Lines:          order.Lines,
		FinalTotal:     order.FinalTotal,
		PointsUsed:     order.PointsUsed,
		PointsEarned:   order.PointsEarned,
		DeliveryMethod: string(order.Delivery.DeliveryMethod()),
		Destination:    order.Delivery.Describe(),
		PlacedAt:       order.PlacedAt.Format(time.RFC3339),
	}
	if _, err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger(ctx, "checkout.order.publish_failed", map[string]any{"orderId": order.ID, "error": err})
	}
}
