package firestore

import (
	"context"
	"errors"
	"time"

	"github.com/huertohogar/storefront/internal/domain"
	pfirestore "github.com/huertohogar/storefront/internal/platform/firestore"
	"github.com/huertohogar/storefront/internal/repositories"
)

const cartCollection = "carts"

// CartStore persists cart snapshots keyed by session ID.
type CartStore struct {
	docs *pfirestore.Collection[cartDocument]
}

// NewCartStore constructs a Firestore-backed cart snapshot store.
func NewCartStore(provider *pfirestore.Provider) (*CartStore, error) {
	if provider == nil {
		return nil, errors.New("cart store requires firestore provider")
	}
	return &CartStore{docs: pfirestore.NewCollection[cartDocument](provider, cartCollection)}, nil
}

// Load implements repositories.CartSnapshotStore.
func (s *CartStore) Load(ctx context.Context, sessionID string) (domain.CartSnapshot, error) {
	doc, err := s.docs.Get(ctx, sessionID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	lines := make([]domain.CartLine, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, domain.CartLine(line))
	}
	return domain.CartSnapshot{SessionID: sessionID, Lines: lines, UpdatedAt: doc.UpdatedAt}, nil
}

// Save implements repositories.CartSnapshotStore.
func (s *CartStore) Save(ctx context.Context, snapshot domain.CartSnapshot) error {
	lines := make([]cartLineDocument, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		lines = append(lines, cartLineDocument(line))
	}
	return s.docs.Set(ctx, snapshot.SessionID, cartDocument{Lines: lines, UpdatedAt: snapshot.UpdatedAt.UTC()})
}

// Delete implements repositories.CartSnapshotStore.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	return s.docs.Delete(ctx, sessionID)
}

type cartDocument struct {
	Lines     []cartLineDocument `firestore:"lines"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

type cartLineDocument struct {
	ProductID string `firestore:"id"`
	Name      string `firestore:"name"`
	Price     int64  `firestore:"price"`
	Quantity  int    `firestore:"quantity"`
	Unit      string `firestore:"unit"`
}

var _ repositories.CartSnapshotStore = (*CartStore)(nil)
