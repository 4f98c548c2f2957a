package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/huertohogar/storefront/internal/domain"
	pfirestore "github.com/huertohogar/storefront/internal/platform/firestore"
	"github.com/huertohogar/storefront/internal/repositories"
)

const productCollection = "products"

// ProductStore persists the catalog in the products collection. Catalog order is kept in a position field.
type ProductStore struct {
	provider *pfirestore.Provider
	docs     *pfirestore.Collection[productDocument]
}

// NewProductStore constructs a Firestore-backed product store.
func NewProductStore(provider *pfirestore.Provider) (*ProductStore, error) {
	if provider == nil {
		return nil, errors.New("product store requires firestore provider")
	}
	return &ProductStore{
		provider: provider,
		docs:     pfirestore.NewCollection[productDocument](provider, productCollection),
	}, nil
}

// List implements repositories.ProductStore.
func (s *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	docs, err := s.docs.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("position", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.Data.toDomain(doc.ID))
	}
	return products, nil
}

// Save implements repositories.ProductStore. New products are appended after the current last
// position; existing documents keep their stored stock and reviews.
func (s *ProductStore) Save(ctx context.Context, products ...domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	coll, err := s.docs.Ref(ctx)
	if err != nil {
		return err
	}
	return s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		refs := make([]*firestore.DocumentRef, len(products))
		for i, product := range products {
			refs[i] = coll.Doc(product.ID)
		}
		snapshots, err := tx.GetAll(refs)
		if err != nil {
			return err
		}

		next := -1
		for i, product := range products {
			position := 0
			if snapshots[i].Exists() {
				existing, err := pfirestore.Decode[productDocument](snapshots[i])
				if err != nil {
					return err
				}
				position = existing.Position
				product.Stock = existing.Stock
				product.Reviews = existing.Reviews
			} else {
				if next < 0 {
					if next, err = nextPosition(ctx, coll); err != nil {
						return err
					}
				}
				position = next
				next++
			}
			if err := tx.Set(refs[i], newProductDocument(product, position)); err != nil {
				return err
			}
		}
		return nil
	})
}

// AdjustStock implements repositories.ProductStore. The stock check and the write happen in one
// transaction on the product document.
func (s *ProductStore) AdjustStock(ctx context.Context, productID string, delta int) (int, bool, error) {
	productID = strings.TrimSpace(productID)
	ref, err := s.docs.Doc(ctx, productID)
	if err != nil {
		return 0, false, err
	}

	var stock int
	var applied bool
	err = s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		applied = false
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewNotFoundError("products.adjustStock", fmt.Sprintf("product %s not found", productID))
			}
			return err
		}
		doc, err := pfirestore.Decode[productDocument](snap)
		if err != nil {
			return fmt.Errorf("decode product %s: %w", productID, err)
		}
		stock = doc.Stock
		if doc.Stock+delta < 0 {
			return nil
		}
		stock = doc.Stock + delta
		applied = true
		return tx.Update(ref, []firestore.Update{{Path: "stock", Value: stock}})
	})
	if err != nil {
		return 0, false, pfirestore.WrapError("products.adjustStock", err)
	}
	return stock, applied, nil
}

// AppendReview implements repositories.ProductStore.
func (s *ProductStore) AppendReview(ctx context.Context, productID string, review domain.Review) error {
	productID = strings.TrimSpace(productID)
	ref, err := s.docs.Doc(ctx, productID)
	if err != nil {
		return err
	}
	err = s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewNotFoundError("products.appendReview", fmt.Sprintf("product %s not found", productID))
			}
			return err
		}
		doc, err := pfirestore.Decode[productDocument](snap)
		if err != nil {
			return fmt.Errorf("decode product %s: %w", productID, err)
		}
		reviews := append(append([]domain.Review{}, doc.Reviews...), review)
		return tx.Update(ref, []firestore.Update{{Path: "reviews", Value: reviews}})
	})
	return pfirestore.WrapError("products.appendReview", err)
}

func nextPosition(ctx context.Context, coll *firestore.CollectionRef) (int, error) {
	docs, err := coll.OrderBy("position", firestore.Desc).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return 0, pfirestore.WrapError("products.position", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	last, err := pfirestore.Decode[productDocument](docs[0])
	if err != nil {
		return 0, err
	}
	return last.Position + 1, nil
}

type productDocument struct {
	Name          string          `firestore:"name"`
	Price         int64           `firestore:"price"`
	DiscountPrice *int64          `firestore:"discountPrice,omitempty"`
	Category      string          `firestore:"category"`
	Description   string          `firestore:"description,omitempty"`
	Origin        string          `firestore:"origin,omitempty"`
	Unit          string          `firestore:"unit"`
	Label         string          `firestore:"label,omitempty"`
	Stock         int             `firestore:"stock"`
	CriticalStock *int            `firestore:"criticalStock,omitempty"`
	Reviews       []domain.Review `firestore:"reviews"`
	Position      int             `firestore:"position"`
}

func newProductDocument(p domain.Product, position int) productDocument {
	return productDocument{
		Name:          p.Name,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Category:      p.Category,
		Description:   p.Description,
		Origin:        p.Origin,
		Unit:          p.Unit,
		Label:         p.Label,
		Stock:         p.Stock,
		CriticalStock: p.CriticalStock,
		Reviews:       append([]domain.Review{}, p.Reviews...),
		Position:      position,
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:            id,
		Name:          d.Name,
		Price:         d.Price,
		DiscountPrice: d.DiscountPrice,
		Category:      d.Category,
		Description:   d.Description,
		Origin:        d.Origin,
		Unit:          d.Unit,
		Label:         d.Label,
		Stock:         d.Stock,
		CriticalStock: d.CriticalStock,
		Reviews:       d.Reviews,
	}
}

var _ repositories.ProductStore = (*ProductStore)(nil)
