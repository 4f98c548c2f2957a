package services

import (
	"context"
	"errors"
	"testing"

	"github.com/huertohogar/storefront/internal/repositories/memory"
)

func TestCartSessionsReuseEnginePerSession(t *testing.T) {
	catalog := newTestCatalog(t, nil, testProduct("P", 1000, 10))
	sessions, err := NewCartSessions(CartSessionsDeps{Catalog: catalog, Store: memory.NewCartStore(), Notifier: &captureNotifier{}})
	if err != nil {
		t.Fatalf("NewCartSessions: %v", err)
	}
	ctx := context.Background()

	first, err := sessions.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	again, _ := sessions.Get(ctx, "s1")
	other, _ := sessions.Get(ctx, "s2")
	if first != again {
		t.Fatal("expected the same engine for the same session")
	}
	if first == other {
		t.Fatal("expected distinct engines per session")
	}
	if _, err := sessions.Get(ctx, ""); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput, got %v", err)
	}
}

func TestCartSessionsDropReleasesStock(t *testing.T) {
	catalog := newTestCatalog(t, nil, testProduct("P", 1000, 10))
	store := memory.NewCartStore()
	sessions, err := NewCartSessions(CartSessionsDeps{Catalog: catalog, Store: store, Notifier: &captureNotifier{}})
	if err != nil {
		t.Fatalf("NewCartSessions: %v", err)
	}
	ctx := context.Background()

	cart, _ := sessions.Get(ctx, "s1")
	product, _ := catalog.FindByID(ctx, "P")
	if err := cart.AddToCart(ctx, product, 4); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := sessions.Drop(ctx, "s1"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if p, _ := catalog.FindByID(ctx, "P"); p.Stock != 10 {
		t.Fatalf("expected stock returned on drop, got %d", p.Stock)
	}
	fresh, _ := sessions.Get(ctx, "s1")
	if fresh == cart || len(fresh.Lines()) != 0 {
		t.Fatal("expected a fresh empty engine after drop")
	}
}

func TestCartSessionsReleaseEvictsIdleEmptyEngines(t *testing.T) {
	catalog := newTestCatalog(t, nil, testProduct("P", 1000, 10))
	store := memory.NewCartStore()
	deps := CartSessionsDeps{Catalog: catalog, Store: store, Notifier: &captureNotifier{}}
	svc, err := NewCartSessions(deps)
	if err != nil {
		t.Fatalf("NewCartSessions: %v", err)
	}
	sessions := svc.(*cartSessions)
	ctx := context.Background()

	for _, id := range []string{"anon-1", "anon-2", "anon-3"} {
		if _, err := sessions.Get(ctx, id); err != nil {
			t.Fatalf("Get %s: %v", id, err)
		}
		sessions.Release(ctx, id)
	}
	if n := sessions.open(); n != 0 {
		t.Fatalf("expected empty sessions evicted, %d still open", n)
	}

	held, _ := sessions.Get(ctx, "s1")
	again, _ := sessions.Get(ctx, "s1")
	product, _ := catalog.FindByID(ctx, "P")
	if err := held.AddToCart(ctx, product, 2); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	sessions.Release(ctx, "s1")
	sessions.Release(ctx, "s1")
	if sessions.open() != 1 {
		t.Fatal("a session with lines must stay open")
	}

	if err := again.ChangeQuantity(ctx, "P", -1); err != nil {
		t.Fatalf("ChangeQuantity: %v", err)
	}
	first, _ := sessions.Get(ctx, "s1")
	second, _ := sessions.Get(ctx, "s1")
	if err := first.ChangeQuantity(ctx, "P", -1); err != nil {
		t.Fatalf("ChangeQuantity: %v", err)
	}
	sessions.Release(ctx, "s1")
	if sessions.open() != 1 {
		t.Fatal("an engine still held by a caller must not be evicted")
	}
	sessions.Release(ctx, "s1")
	if sessions.open() != 0 {
		t.Fatal("expected the emptied session to be evicted after its last release")
	}
	if second != first {
		t.Fatal("holders of one session must share the engine")
	}

	reopened, _ := sessions.Get(ctx, "s1")
	if len(reopened.Lines()) != 0 {
		t.Fatalf("expected the persisted empty cart, got %+v", reopened.Lines())
	}
	if p, _ := catalog.FindByID(ctx, "P"); p.Stock != 10 {
		t.Fatalf("expected stock 10, got %d", p.Stock)
	}
}
