package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/platform/requestctx"
	"github.com/huertohogar/storefront/internal/repositories/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordedNotification struct {
	session  string
	message  string
	severity Severity
}

type captureNotifier struct {
	mu    sync.Mutex
	items []recordedNotification
}

func (n *captureNotifier) Notify(ctx context.Context, message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, recordedNotification{session: requestctx.SessionID(ctx), message: message, severity: severity})
}

func (n *captureNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.items))
	for _, item := range n.items {
		out = append(out, item.message)
	}
	return out
}

func (n *captureNotifier) last() recordedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return recordedNotification{}
	}
	return n.items[len(n.items)-1]
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.items)
}

// flakyCartStore wraps the in-memory snapshot store and fails saves on demand.
type flakyCartStore struct {
	*memory.CartStore
	failSave   bool
	failDelete bool
	saves      int
}

func (s *flakyCartStore) Delete(ctx context.Context, sessionID string) error {
	if s.failDelete {
		return errors.New("snapshot store unavailable")
	}
	return s.CartStore.Delete(ctx, sessionID)
}

func (s *flakyCartStore) Save(ctx context.Context, snapshot domain.CartSnapshot) error {
	if s.failSave {
		return errors.New("snapshot store unavailable")
	}
	s.saves++
	return s.CartStore.Save(ctx, snapshot)
}

// flakyProductStore wraps the in-memory product store and fails writes on demand.
type flakyProductStore struct {
	*memory.ProductStore
	failWrites bool
}

var errProductStoreDown = errors.New("product store unavailable")

func (s *flakyProductStore) Save(ctx context.Context, products ...domain.Product) error {
	if s.failWrites {
		return errProductStoreDown
	}
	return s.ProductStore.Save(ctx, products...)
}

func (s *flakyProductStore) AdjustStock(ctx context.Context, productID string, delta int) (int, bool, error) {
	if s.failWrites {
		return 0, false, errProductStoreDown
	}
	return s.ProductStore.AdjustStock(ctx, productID, delta)
}

func (s *flakyProductStore) AppendReview(ctx context.Context, productID string, review domain.Review) error {
	if s.failWrites {
		return errProductStoreDown
	}
	return s.ProductStore.AppendReview(ctx, productID, review)
}

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }

func testProduct(id string, price int64, stock int) Product {
	return Product{
		ID:       id,
		Name:     "Producto " + id,
		Price:    price,
		Stock:    stock,
		Unit:     "kg",
		Category: "Frutas",
		Reviews:  []Review{},
	}
}

func newTestCatalog(t *testing.T, store *flakyProductStore, products ...Product) ProductCatalog {
	t.Helper()
	if store == nil {
		store = &flakyProductStore{ProductStore: memory.NewProductStore()}
	}
	if len(products) > 0 {
		if err := store.ProductStore.Save(context.Background(), products...); err != nil {
			t.Fatalf("seed products: %v", err)
		}
	}
	catalog, err := NewCatalogService(CatalogServiceDeps{Products: store})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	if err := catalog.LoadInitialState(context.Background()); err != nil {
		t.Fatalf("LoadInitialState: %v", err)
	}
	return catalog
}

type cartFixture struct {
	catalog  ProductCatalog
	store    *flakyCartStore
	notifier *captureNotifier
	engine   CartEngine
}

func newCartFixture(t *testing.T, products ...Product) *cartFixture {
	t.Helper()
	catalog := newTestCatalog(t, nil, products...)
	store := &flakyCartStore{CartStore: memory.NewCartStore()}
	notifier := &captureNotifier{}
	engine, err := NewCartEngine(CartEngineDeps{
		SessionID: "session-1",
		Catalog:   catalog,
		Store:     store,
		Notifier:  notifier,
	})
	if err != nil {
		t.Fatalf("NewCartEngine: %v", err)
	}
	if err := engine.LoadInitialState(context.Background()); err != nil {
		t.Fatalf("LoadInitialState: %v", err)
	}
	return &cartFixture{catalog: catalog, store: store, notifier: notifier, engine: engine}
}

func (f *cartFixture) stock(t *testing.T, productID string) int {
	t.Helper()
	product, ok := f.catalog.FindByID(context.Background(), productID)
	if !ok {
		t.Fatalf("product %s not found", productID)
	}
	return product.Stock
}

func (f *cartFixture) product(t *testing.T, productID string) Product {
	t.Helper()
	product, ok := f.catalog.FindByID(context.Background(), productID)
	if !ok {
		t.Fatalf("product %s not found", productID)
	}
	return product
}
