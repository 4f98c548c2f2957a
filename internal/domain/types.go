package domain

import (
	"time"
)

// Product is a catalog entry with mutable stock. Stock is never negative.
type Product struct {
	ID            string   `json:"id" yaml:"id" firestore:"id"`
	Name          string   `json:"name" yaml:"name" firestore:"name"`
	Price         int64    `json:"price" yaml:"price" firestore:"price"`
	DiscountPrice *int64   `json:"discountPrice,omitempty" yaml:"discountPrice,omitempty" firestore:"discountPrice,omitempty"`
	Category      string   `json:"category" yaml:"category" firestore:"category"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty" firestore:"description,omitempty"`
	Origin        string   `json:"origin,omitempty" yaml:"origin,omitempty" firestore:"origin,omitempty"`
	Unit          string   `json:"unit" yaml:"unit" firestore:"unit"`
	Label         string   `json:"label,omitempty" yaml:"label,omitempty" firestore:"label,omitempty"`
	Stock         int      `json:"stock" yaml:"stock" firestore:"stock"`
	CriticalStock *int     `json:"criticalStock,omitempty" yaml:"criticalStock,omitempty" firestore:"criticalStock,omitempty"`
	Reviews       []Review `json:"reviews" yaml:"reviews" firestore:"reviews"`
}

// UnitPrice resolves the price charged for one unit right now: the discounted price when set, else the base price.
func (p Product) UnitPrice() int64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// BelowCritical reports whether stock has fallen to or below the critical threshold.
func (p Product) BelowCritical() bool {
	return p.CriticalStock != nil && p.Stock <= *p.CriticalStock
}

// Clone returns a deep copy so callers never alias repository-owned slices.
func (p Product) Clone() Product {
	out := p
	if p.DiscountPrice != nil {
		v := *p.DiscountPrice
		out.DiscountPrice = &v
	}
	if p.CriticalStock != nil {
		v := *p.CriticalStock
		out.CriticalStock = &v
	}
	out.Reviews = append([]Review(nil), p.Reviews...)
	return out
}

// Review is a customer rating attached to a product.
type Review struct {
	Author    string    `json:"author" yaml:"author" firestore:"author"`
	Rating    int       `json:"rating" yaml:"rating" firestore:"rating"`
	Text      string    `json:"text" yaml:"text" firestore:"text"`
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty" firestore:"createdAt,omitempty"`
}

// CartLine is one product's reserved quantity inside a cart. Name, unit and price
// are captured when the line is written and are not kept in sync with the catalog.
type CartLine struct {
	ProductID string `json:"id" firestore:"id"`
	Name      string `json:"name" firestore:"name"`
	Price     int64  `json:"price" firestore:"price"`
	Quantity  int    `json:"quantity" firestore:"quantity"`
	Unit      string `json:"unit" firestore:"unit"`
}

// Subtotal returns price × quantity.
func (l CartLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// CartSnapshot is the durable representation of a session cart.
type CartSnapshot struct {
	SessionID string     `json:"sessionId" firestore:"sessionId"`
	Lines     []CartLine `json:"lines" firestore:"lines"`
	UpdatedAt time.Time  `json:"updatedAt" firestore:"updatedAt"`
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPreparing is assigned when the order is placed.
	OrderStatusPreparing OrderStatus = "preparing"
	// OrderStatusShipped indicates the order left the warehouse.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusInTransit indicates the carrier is delivering the order.
	OrderStatusInTransit OrderStatus = "in_transit"
	// OrderStatusDelivered indicates the customer received the order.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order will not be fulfilled.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPreparing, OrderStatusShipped, OrderStatusInTransit, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is an immutable purchase record. Status is the only field changed after creation.
type Order struct {
	ID            string
	CustomerID    string
	CustomerEmail string
	Lines         []CartLine
	OriginalTotal int64
	PointsUsed    int64
	FinalTotal    int64
	PointsEarned  int64
	Delivery      DeliveryDetail
	Status        OrderStatus
	PlacedAt      time.Time
	UpdatedAt     time.Time
}

// Address is a delivery address saved on a customer profile.
type Address struct {
	Street string `json:"street" firestore:"street"`
	City   string `json:"city" firestore:"city"`
	Region string `json:"region" firestore:"region"`
}

// SameLocation reports whether two addresses share street and city, ignoring case and surrounding space.
func (a Address) SameLocation(other Address) bool {
	return equalFold(a.Street, other.Street) && equalFold(a.City, other.City)
}

// Customer is the profile supplied by the identity provider.
type Customer struct {
	ID        string    `json:"id" firestore:"id"`
	RUT       string    `json:"rut" firestore:"rut"`
	Name      string    `json:"name" firestore:"name"`
	LastName  string    `json:"lastName,omitempty" firestore:"lastName,omitempty"`
	Email     string    `json:"email" firestore:"email"`
	Points    int64     `json:"points" firestore:"points"`
	Addresses []Address `json:"addresses" firestore:"addresses"`
	IsAdmin   bool      `json:"isAdmin" firestore:"isAdmin"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notification is a transient user-facing message.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StockChange describes a single stock mutation made by the catalog.
type StockChange struct {
	ProductID  string    `json:"productId"`
	Delta      int       `json:"delta"`
	Stock      int       `json:"stock"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}
