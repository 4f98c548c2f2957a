package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/repositories"
)

var (
	// ErrOrderNotFound indicates the order does not exist.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidStatus indicates an unknown lifecycle status.
	ErrOrderInvalidStatus = errors.New("order: invalid status")
	// ErrOrderInvalidInput indicates missing identifiers.
	ErrOrderInvalidInput = errors.New("order: invalid input")
)

// OrderServiceDeps bundles the collaborators required to construct an order service.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	repo   repositories.OrderRepository
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into an OrderService.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderService{
		repo: deps.Orders,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *orderService) Get(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", ErrOrderInvalidInput)
	}
	orders, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

func (s *orderService) ListAll(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	status := domain.OrderStatus(strings.ToLower(strings.TrimSpace(cmd.Status)))
	if !status.Valid() {
		return Order{}, fmt.Errorf("%w: %q", ErrOrderInvalidStatus, cmd.Status)
	}
	order, err := s.repo.UpdateStatus(ctx, orderID, status, s.clock())
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	s.logger(ctx, "order.status.updated", map[string]any{"orderId": orderID, "status": string(status)})
	return order, nil
}

func (s *orderService) SalesReport(ctx context.Context) (SalesReport, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return SalesReport{}, s.mapRepositoryError(err)
	}
	report := SalesReport{OrderCount: len(orders), ByStatus: make(map[domain.OrderStatus]int)}
	for _, order := range orders {
		report.TotalSales += order.FinalTotal
		report.ByStatus[order.Status]++
	}
	return report, nil
}

func (s *orderService) mapRepositoryError(err error) error {
	if repositories.IsNotFound(err) {
		return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
	}
	return fmt.Errorf("order: %w", err)
}
