package services

import (
	"context"
	"testing"
	"time"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/platform/requestctx"
)

func TestNotificationCenterExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	center := NewNotificationCenter(NotificationCenterDeps{Clock: clock.Now})
	ctx := requestctx.WithSessionID(context.Background(), "s1")

	center.Notify(ctx, "primero", domain.SeverityInfo)
	clock.Advance(2 * time.Second)
	center.Notify(ctx, "segundo", domain.SeveritySuccess)

	active := center.Active(ctx)
	if len(active) != 2 || active[0].Message != "primero" || active[1].Message != "segundo" {
		t.Fatalf("expected both notifications in insertion order, got %+v", active)
	}
	if !active[0].ExpiresAt.Equal(active[0].CreatedAt.Add(3 * time.Second)) {
		t.Fatalf("expected 3s lifetime, got %s", active[0].ExpiresAt.Sub(active[0].CreatedAt))
	}

	clock.Advance(time.Second)
	active = center.Active(ctx)
	if len(active) != 1 || active[0].Message != "segundo" {
		t.Fatalf("expected only second notification, got %+v", active)
	}

	clock.Advance(2 * time.Second)
	if active = center.Active(ctx); len(active) != 0 {
		t.Fatalf("expected none, got %+v", active)
	}
}

func TestNotificationCenterScopesBySession(t *testing.T) {
	center := NewNotificationCenter(NotificationCenterDeps{Clock: newFakeClock().Now})
	a := requestctx.WithSessionID(context.Background(), "a")
	b := requestctx.WithSessionID(context.Background(), "b")

	center.Notify(a, "hola a", domain.SeverityInfo)
	if got := center.Active(b); len(got) != 0 {
		t.Fatalf("session b must not see session a notifications: %+v", got)
	}
	if got := center.Active(a); len(got) != 1 {
		t.Fatalf("expected one notification for a, got %d", len(got))
	}
}

func TestNotificationCenterDismiss(t *testing.T) {
	ids := []string{"n1", "n2"}
	center := NewNotificationCenter(NotificationCenterDeps{
		Clock: newFakeClock().Now,
		IDGenerator: func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		},
	})
	ctx := requestctx.WithSessionID(context.Background(), "s1")
	center.Notify(ctx, "uno", domain.SeverityInfo)
	center.Notify(ctx, "dos", domain.SeverityError)

	if !center.Dismiss(ctx, "n1") {
		t.Fatal("expected n1 dismissed")
	}
	if center.Dismiss(ctx, "n1") {
		t.Fatal("dismissing twice must report false")
	}
	active := center.Active(ctx)
	if len(active) != 1 || active[0].ID != "n2" || active[0].Severity != domain.SeverityError {
		t.Fatalf("unexpected active notifications %+v", active)
	}
}
