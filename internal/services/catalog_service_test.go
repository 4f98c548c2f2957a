package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/repositories/memory"
)

type captureStockEvents struct {
	changes []StockChange
	err     error
}

func (c *captureStockEvents) PublishStockChange(_ context.Context, change StockChange) (string, error) {
	c.changes = append(c.changes, change)
	return "msg", c.err
}

func TestCatalogReserveStockIsAllOrNothing(t *testing.T) {
	catalog := newTestCatalog(t, nil, testProduct("P", 1000, 5))
	ctx := context.Background()

	ok, err := catalog.ReserveStock(ctx, "P", 6)
	if err != nil || ok {
		t.Fatalf("expected refusal, got ok=%v err=%v", ok, err)
	}
	if p, _ := catalog.FindByID(ctx, "P"); p.Stock != 5 {
		t.Fatalf("stock must be unchanged, got %d", p.Stock)
	}

	ok, err = catalog.ReserveStock(ctx, "P", 5)
	if err != nil || !ok {
		t.Fatalf("expected reservation, got ok=%v err=%v", ok, err)
	}
	if p, _ := catalog.FindByID(ctx, "P"); p.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", p.Stock)
	}

	if ok, _ := catalog.ReserveStock(ctx, "P", 1); ok {
		t.Fatal("reservation must fail at zero stock")
	}
	if ok, _ := catalog.ReserveStock(ctx, "P", 0); ok {
		t.Fatal("zero quantity must be refused")
	}
	if ok, err := catalog.ReserveStock(ctx, "missing", 1); ok || err != nil {
		t.Fatalf("unknown product must be a silent refusal, got ok=%v err=%v", ok, err)
	}
}

func TestCatalogReleaseStock(t *testing.T) {
	catalog := newTestCatalog(t, nil, testProduct("P", 1000, 5))
	ctx := context.Background()

	if err := catalog.ReleaseStock(ctx, "P", 3); err != nil {
		t.Fatalf("ReleaseStock: %v", err)
	}
	if p, _ := catalog.FindByID(ctx, "P"); p.Stock != 8 {
		t.Fatalf("expected stock 8, got %d", p.Stock)
	}
	if err := catalog.ReleaseStock(ctx, "missing", 3); err != nil {
		t.Fatalf("unknown product must be ignored, got %v", err)
	}
}

func TestCatalogPersistsAndBroadcastsStockChanges(t *testing.T) {
	store := &flakyProductStore{ProductStore: memory.NewProductStore()}
	if err := store.ProductStore.Save(context.Background(), testProduct("P", 1000, 5)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	events := &captureStockEvents{err: errors.New("broker down")}
	catalog, err := NewCatalogService(CatalogServiceDeps{Products: store, Events: events})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	ctx := context.Background()
	if err := catalog.LoadInitialState(ctx); err != nil {
		t.Fatalf("LoadInitialState: %v", err)
	}

	var observed []StockChange
	unsubscribe := catalog.Subscribe(func(_ context.Context, change StockChange) {
		observed = append(observed, change)
	})

	if ok, err := catalog.ReserveStock(ctx, "P", 2); !ok || err != nil {
		t.Fatalf("ReserveStock: ok=%v err=%v", ok, err)
	}
	if err := catalog.ReleaseStock(ctx, "P", 1); err != nil {
		t.Fatalf("ReleaseStock: %v", err)
	}

	stored, _ := store.List(ctx)
	if stored[0].Stock != 4 {
		t.Fatalf("expected persisted stock 4, got %d", stored[0].Stock)
	}
	if len(observed) != 2 || observed[0].Delta != -2 || observed[0].Stock != 3 || observed[1].Delta != 1 {
		t.Fatalf("unexpected observed changes %+v", observed)
	}
	if len(events.changes) != 2 {
		t.Fatalf("publisher errors must not block later events, got %d", len(events.changes))
	}

	unsubscribe()
	if ok, _ := catalog.ReserveStock(ctx, "P", 1); !ok {
		t.Fatal("expected reservation")
	}
	if len(observed) != 2 {
		t.Fatal("unsubscribed observer must not be called")
	}
}

func TestCatalogRollsBackWhenStoreFails(t *testing.T) {
	store := &flakyProductStore{ProductStore: memory.NewProductStore()}
	catalog := newTestCatalog(t, store, testProduct("P", 1000, 5))
	ctx := context.Background()

	store.failWrites = true
	ok, err := catalog.ReserveStock(ctx, "P", 2)
	if ok || !errors.Is(err, ErrCatalogPersistence) {
		t.Fatalf("expected persistence error, got ok=%v err=%v", ok, err)
	}
	if err := catalog.ReleaseStock(ctx, "P", 2); !errors.Is(err, ErrCatalogPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if p, _ := catalog.FindByID(ctx, "P"); p.Stock != 5 {
		t.Fatalf("expected in-memory stock rolled back to 5, got %d", p.Stock)
	}
}

func TestCatalogSeedsEmptyStore(t *testing.T) {
	store := memory.NewProductStore()
	catalog, err := NewCatalogService(CatalogServiceDeps{
		Products: store,
		Seed: func() ([]Product, error) {
			return []Product{testProduct("A", 100, 1), testProduct("B", 200, 2)}, nil
		},
	})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	if err := catalog.LoadInitialState(context.Background()); err != nil {
		t.Fatalf("LoadInitialState: %v", err)
	}
	all := catalog.ListAll(context.Background())
	if len(all) != 2 || all[0].ID != "A" || all[1].ID != "B" {
		t.Fatalf("unexpected catalog %+v", all)
	}
	stored, _ := store.List(context.Background())
	if len(stored) != 2 {
		t.Fatalf("expected seed persisted, got %d", len(stored))
	}
}

func TestCatalogOperationsRequireLoad(t *testing.T) {
	catalog, err := NewCatalogService(CatalogServiceDeps{Products: memory.NewProductStore()})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	if _, err := catalog.ReserveStock(context.Background(), "P", 1); !errors.Is(err, ErrCatalogNotLoaded) {
		t.Fatalf("expected ErrCatalogNotLoaded, got %v", err)
	}
}

func TestCatalogAddReview(t *testing.T) {
	notifier := &captureNotifier{}
	store := memory.NewProductStore()
	_ = store.Save(context.Background(), testProduct("P", 1000, 5))
	catalog, err := NewCatalogService(CatalogServiceDeps{Products: store, Notifier: notifier})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	ctx := context.Background()
	if err := catalog.LoadInitialState(ctx); err != nil {
		t.Fatalf("LoadInitialState: %v", err)
	}

	if _, err := catalog.AddReview(ctx, AddReviewCommand{ProductID: "P", Author: "Ana", Rating: 6, Text: "ok"}); !errors.Is(err, ErrCatalogInvalidReview) {
		t.Fatalf("expected invalid review for rating, got %v", err)
	}
	if msg := notifier.last().message; msg != "La calificación debe ser entre 1 y 5." {
		t.Fatalf("unexpected notification %q", msg)
	}
	if _, err := catalog.AddReview(ctx, AddReviewCommand{ProductID: "P", Author: "Ana", Rating: 4, Text: "<script></script>  "}); !errors.Is(err, ErrCatalogInvalidReview) {
		t.Fatalf("expected invalid review for empty text, got %v", err)
	}
	if _, err := catalog.AddReview(ctx, AddReviewCommand{ProductID: "nope", Author: "Ana", Rating: 4, Text: "Bueno"}); !errors.Is(err, ErrCatalogProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	product, err := catalog.AddReview(ctx, AddReviewCommand{ProductID: "P", Author: "Ana", Rating: 5, Text: "<b>Muy</b> frescas"})
	if err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	if len(product.Reviews) != 1 || product.Reviews[0].Text != "Muy frescas" {
		t.Fatalf("expected sanitized review, got %+v", product.Reviews)
	}
	if notifier.last().severity != domain.SeveritySuccess {
		t.Fatal("expected success notification")
	}
}

func TestCatalogUpdateProductPricing(t *testing.T) {
	catalog := newTestCatalog(t, nil, testProduct("P", 1000, 5))
	ctx := context.Background()

	updated, err := catalog.UpdateProduct(ctx, UpdateProductCommand{ProductID: "P", Price: int64Ptr(1200), DiscountPrice: int64Ptr(900)})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.UnitPrice() != 900 || updated.Stock != 5 {
		t.Fatalf("unexpected product %+v", updated)
	}
	if _, err := catalog.UpdateProduct(ctx, UpdateProductCommand{ProductID: "P", DiscountPrice: int64Ptr(1500)}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid discount, got %v", err)
	}
	cleared, err := catalog.UpdateProduct(ctx, UpdateProductCommand{ProductID: "P", ClearDiscount: true, CriticalStock: intPtr(2)})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if cleared.DiscountPrice != nil || cleared.UnitPrice() != 1200 || cleared.CriticalStock == nil {
		t.Fatalf("unexpected product %+v", cleared)
	}
}

func TestCatalogSharedStoreKeepsStockAuthoritative(t *testing.T) {
	ctx := context.Background()
	store := &flakyProductStore{ProductStore: memory.NewProductStore()}
	first := newTestCatalog(t, store, testProduct("P", 1000, 5))
	second := newTestCatalog(t, store)

	if ok, err := first.ReserveStock(ctx, "P", 4); !ok || err != nil {
		t.Fatalf("ReserveStock: ok=%v err=%v", ok, err)
	}
	if _, err := second.AddReview(ctx, AddReviewCommand{ProductID: "P", Author: "Ana", Rating: 5, Text: "Rica"}); err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	if _, err := second.UpdateProduct(ctx, UpdateProductCommand{ProductID: "P", Price: int64Ptr(1100)}); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	stored, _ := store.List(ctx)
	if stored[0].Stock != 1 || len(stored[0].Reviews) != 1 || stored[0].Price != 1100 {
		t.Fatalf("stale catalog clobbered the stored product: %+v", stored[0])
	}

	if ok, err := second.ReserveStock(ctx, "P", 2); ok || err != nil {
		t.Fatalf("expected refusal from the store, got ok=%v err=%v", ok, err)
	}
	if p, _ := second.FindByID(ctx, "P"); p.Stock != 1 {
		t.Fatalf("expected cached stock refreshed to 1, got %d", p.Stock)
	}
}

func TestCatalogInventoryReportListsLowStockAscending(t *testing.T) {
	critical := 20
	watched := testProduct("W", 1000, 15)
	watched.CriticalStock = &critical
	catalog := newTestCatalog(t, nil,
		testProduct("PLENTY", 1000, 50),
		testProduct("LOW", 1000, 9),
		testProduct("EDGE", 1000, 10),
		watched,
		testProduct("OUT", 1000, 0),
	)

	report := catalog.InventoryReport(context.Background())
	if report.TotalStock != 84 {
		t.Fatalf("expected total stock 84, got %d", report.TotalStock)
	}
	var ids []string
	for _, product := range report.LowStock {
		ids = append(ids, product.ID)
	}
	if strings.Join(ids, ",") != "OUT,LOW,W" {
		t.Fatalf("unexpected low stock order %v", ids)
	}
}
