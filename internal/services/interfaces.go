package services

import (
	"context"

	"github.com/huertohogar/storefront/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product        = domain.Product
	Review         = domain.Review
	CartLine       = domain.CartLine
	CartSnapshot   = domain.CartSnapshot
	Order          = domain.Order
	OrderStatus    = domain.OrderStatus
	Customer       = domain.Customer
	Address        = domain.Address
	Notification   = domain.Notification
	Severity       = domain.Severity
	StockChange    = domain.StockChange
	DeliveryDetail = domain.DeliveryDetail
)

// Notifier accepts transient user-facing messages. Messages are scoped to the session carried by ctx.
type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// NotificationFeed exposes the pending notifications of the session carried by ctx.
type NotificationFeed interface {
	Notifier
	Active(ctx context.Context) []Notification
	Dismiss(ctx context.Context, notificationID string) bool
}

// StockObserver receives every stock mutation made by the catalog.
type StockObserver func(ctx context.Context, change StockChange)

// StockEventPublisher forwards stock changes to downstream consumers.
type StockEventPublisher interface {
	PublishStockChange(ctx context.Context, change StockChange) (string, error)
}

// OrderEventPublisher forwards placed orders to downstream consumers.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) (string, error)
}

// ProductCatalog owns product records and is the only writer of stock.
type ProductCatalog interface {
	LoadInitialState(ctx context.Context) error
	FindByID(ctx context.Context, productID string) (Product, bool)
	ListAll(ctx context.Context) []Product
	// ReserveStock decrements stock only when the full quantity is available.
	ReserveStock(ctx context.Context, productID string, qty int) (bool, error)
	// ReleaseStock increments stock unconditionally. Unknown products are ignored.
	ReleaseStock(ctx context.Context, productID string, qty int) error
	Subscribe(observer StockObserver) (unsubscribe func())
	AddReview(ctx context.Context, cmd AddReviewCommand) (Product, error)
	UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (Product, error)
	// InventoryReport lists products running low, lowest stock first.
	InventoryReport(ctx context.Context) InventoryReport
}

// CartEngine owns the lines of one session cart and keeps them consistent with reserved stock.
type CartEngine interface {
	LoadInitialState(ctx context.Context) error
	// CheckAvailability is advisory; reservation remains authoritative.
	CheckAvailability(ctx context.Context, product Product, desired int) bool
	AddToCart(ctx context.Context, product Product, qty int) error
	ChangeQuantity(ctx context.Context, productID string, delta int) error
	SetQuantity(ctx context.Context, product Product, desired int) error
	ClearCart(ctx context.Context) error
	// Settle passes the current lines to commit while every other change to the cart waits. When
	// commit succeeds the cart is emptied without returning stock and the consumed lines are
	// returned; when it fails the cart is untouched and its error is returned. commit must not call
	// back into the engine.
	Settle(ctx context.Context, commit func(ctx context.Context, lines []CartLine) error) ([]CartLine, error)

	Lines() []CartLine
	ItemCount() int
	Total() int64
	Quantity(productID string) int
}

// CartSessions hands out one cart engine per session id.
type CartSessions interface {
	Get(ctx context.Context, sessionID string) (CartEngine, error)
	// Release ends a Get. Idle engines with an empty cart are evicted.
	Release(ctx context.Context, sessionID string)
	// Drop clears the session cart, returning its stock, and forgets the engine.
	Drop(ctx context.Context, sessionID string) error
}

// CheckoutService turns a session cart into an order.
type CheckoutService interface {
	Quote(ctx context.Context, cmd QuoteCommand) (CheckoutQuote, error)
	Checkout(ctx context.Context, cmd CheckoutCommand) (Order, error)
}

// OrderService exposes order reads and admin status changes.
type OrderService interface {
	Get(ctx context.Context, orderID string) (Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error)
	SalesReport(ctx context.Context) (SalesReport, error)
}

// SalesReport summarises every stored order.
type SalesReport struct {
	TotalSales int64
	OrderCount int
	ByStatus   map[domain.OrderStatus]int
}

// InventoryReport summarises catalog stock. LowStock holds products at or below their critical
// threshold or under LowStockFloor units.
type InventoryReport struct {
	TotalStock int
	LowStock   []Product
}

// CustomerService registers and reads customer profiles.
type CustomerService interface {
	Register(ctx context.Context, cmd RegisterCustomerCommand) (Customer, error)
	Get(ctx context.Context, customerID string) (Customer, error)
	EnsureAdmin(ctx context.Context, account AdminAccount) (Customer, error)
}

// AddReviewCommand appends a customer review to a product.
type AddReviewCommand struct {
	ProductID string
	Author    string
	Rating    int
	Text      string
}

// UpdateProductCommand edits pricing fields. Stock is owned by reservations and cannot be edited here.
type UpdateProductCommand struct {
	ProductID     string
	Price         *int64
	DiscountPrice *int64
	ClearDiscount bool
	CriticalStock *int
}

// DeliveryRequest carries the raw delivery choice submitted at checkout.
type DeliveryRequest struct {
	Method            string
	Branch            string
	Street            string
	City              string
	Region            string
	SavedAddressIndex *int
}

// QuoteCommand asks for the totals a checkout would produce.
type QuoteCommand struct {
	SessionID  string
	CustomerID string
	UsePoints  bool
}

// CheckoutQuote summarises totals and loyalty points for a cart.
type CheckoutQuote struct {
	OriginalTotal   int64 `json:"originalTotal"`
	PointsAvailable int64 `json:"pointsAvailable"`
	PointsUsed      int64 `json:"pointsUsed"`
	FinalTotal      int64 `json:"finalTotal"`
	PointsEarned    int64 `json:"pointsEarned"`
}

// CheckoutCommand places an order for the session cart.
type CheckoutCommand struct {
	SessionID   string
	CustomerID  string
	UsePoints   bool
	Delivery    DeliveryRequest
	SaveAddress bool
}

// OrderPlacedEvent is published after an order is committed.
type OrderPlacedEvent struct {
	OrderID        string     `json:"orderId"`
	CustomerID     string     `json:"customerId"`
	CustomerEmail  string     `json:"customerEmail,omitempty"`
	Lines          []CartLine `json:"lines"`
	FinalTotal     int64      `json:"finalTotal"`
	PointsUsed     int64      `json:"pointsUsed"`
	PointsEarned   int64      `json:"pointsEarned"`
	DeliveryMethod string     `json:"deliveryMethod"`
	Destination    string     `json:"destination"`
	PlacedAt       string     `json:"placedAt"`
}

// UpdateOrderStatusCommand moves an order to a new lifecycle status.
type UpdateOrderStatusCommand struct {
	OrderID string
	Status  string
}

// RegisterCustomerCommand creates a customer profile.
type RegisterCustomerCommand struct {
	RUT      string
	Name     string
	LastName string
	Email    string
	Address  *Address
}

// AdminAccount identifies the bootstrap administrator.
type AdminAccount struct {
	CustomerID string
	Email      string
}
