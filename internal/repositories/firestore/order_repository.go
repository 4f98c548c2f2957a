package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/huertohogar/storefront/internal/domain"
	pfirestore "github.com/huertohogar/storefront/internal/platform/firestore"
	"github.com/huertohogar/storefront/internal/repositories"
)

const orderCollection = "orders"

// OrderRepository persists orders in the orders collection.
type OrderRepository struct {
	provider *pfirestore.Provider
	docs     *pfirestore.Collection[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		docs:     pfirestore.NewCollection[orderDocument](provider, orderCollection),
	}, nil
}

// Insert implements repositories.OrderRepository. Existing IDs surface as conflicts.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	ref, err := r.docs.Doc(ctx, order.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, newOrderDocument(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// FindByID implements repositories.OrderRepository.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.docs.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.toDomain(orderID)
}

// ListByCustomer implements repositories.OrderRepository.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("customerId", "==", customerID).OrderBy("placedAt", firestore.Desc)
	})
}

// ListAll implements repositories.OrderRepository.
func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("placedAt", firestore.Desc)
	})
}

// UpdateStatus implements repositories.OrderRepository.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, orderStatus domain.OrderStatus, updatedAt time.Time) (domain.Order, error) {
	ref, err := r.docs.Doc(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	var updated orderDocument
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		doc, err := pfirestore.Decode[orderDocument](snap)
		if err != nil {
			return err
		}
		doc.Status = string(orderStatus)
		doc.UpdatedAt = updatedAt.UTC()
		updated = doc
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: doc.Status},
			{Path: "updatedAt", Value: doc.UpdatedAt},
		})
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated.toDomain(orderID)
}

func (r *OrderRepository) query(ctx context.Context, build pfirestore.QueryBuilder) ([]domain.Order, error) {
	docs, err := r.docs.Query(ctx, build)
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.Data.toDomain(doc.ID)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

type orderDocument struct {
	CustomerID    string             `firestore:"customerId"`
	CustomerEmail string             `firestore:"customerEmail,omitempty"`
	Lines         []cartLineDocument `firestore:"lines"`
	OriginalTotal int64              `firestore:"originalTotal"`
	PointsUsed    int64              `firestore:"pointsUsed"`
	FinalTotal    int64              `firestore:"finalTotal"`
	PointsEarned  int64              `firestore:"pointsEarned"`
	Delivery      deliveryDocument   `firestore:"delivery"`
	Status        string             `firestore:"status"`
	PlacedAt      time.Time          `firestore:"placedAt"`
	UpdatedAt     time.Time          `firestore:"updatedAt"`
}

type deliveryDocument struct {
	Method string `firestore:"method"`
	Branch string `firestore:"branch,omitempty"`
	Street string `firestore:"street,omitempty"`
	City   string `firestore:"city,omitempty"`
	Region string `firestore:"region,omitempty"`
}

func newOrderDocument(order domain.Order) orderDocument {
	lines := make([]cartLineDocument, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, cartLineDocument(line))
	}
	var delivery deliveryDocument
	switch d := order.Delivery.(type) {
	case domain.BranchPickup:
		delivery = deliveryDocument{Method: string(d.DeliveryMethod()), Branch: d.Branch}
	case domain.HomeDelivery:
		delivery = deliveryDocument{Method: string(d.DeliveryMethod()), Street: d.Street, City: d.City, Region: d.Region}
	}
	return orderDocument{
		CustomerID:    order.CustomerID,
		CustomerEmail: order.CustomerEmail,
		Lines:         lines,
		OriginalTotal: order.OriginalTotal,
		PointsUsed:    order.PointsUsed,
		FinalTotal:    order.FinalTotal,
		PointsEarned:  order.PointsEarned,
		Delivery:      delivery,
		Status:        string(order.Status),
		PlacedAt:      order.PlacedAt.UTC(),
		UpdatedAt:     order.UpdatedAt.UTC(),
	}
}

func (d orderDocument) toDomain(id string) (domain.Order, error) {
	var delivery domain.DeliveryDetail
	switch domain.DeliveryMethod(d.Delivery.Method) {
	case domain.DeliveryBranchPickup:
		delivery = domain.BranchPickup{Branch: d.Delivery.Branch}
	case domain.DeliveryHomeDelivery:
		delivery = domain.HomeDelivery{Street: d.Delivery.Street, City: d.Delivery.City, Region: d.Delivery.Region}
	default:
		return domain.Order{}, pfirestore.WrapError("orders.decode",
			status.Error(codes.DataLoss, fmt.Sprintf("order %s has unknown delivery method %q", id, d.Delivery.Method)))
	}
	lines := make([]domain.CartLine, 0, len(d.Lines))
	for _, line := range d.Lines {
		lines = append(lines, domain.CartLine(line))
	}
	return domain.Order{
		ID:            id,
		CustomerID:    d.CustomerID,
		CustomerEmail: d.CustomerEmail,
		Lines:         lines,
		OriginalTotal: d.OriginalTotal,
		PointsUsed:    d.PointsUsed,
		FinalTotal:    d.FinalTotal,
		PointsEarned:  d.PointsEarned,
		Delivery:      delivery,
		Status:        domain.OrderStatus(d.Status),
		PlacedAt:      d.PlacedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
