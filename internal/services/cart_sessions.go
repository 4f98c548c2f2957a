package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/huertohogar/storefront/internal/repositories"
)

// CartSessionsDeps bundles the collaborators shared by every session cart.
type CartSessionsDeps struct {
	Catalog  ProductCatalog
	Store    repositories.CartSnapshotStore
	Notifier Notifier
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type cartSessions struct {
	deps CartSessionsDeps

	mu      sync.Mutex
	engines map[string]*sessionEntry
}

// sessionEntry counts the callers between Get and Release. Only unheld engines are evicted.
type sessionEntry struct {
	engine  CartEngine
	holders int
}

// NewCartSessions constructs the per-session engine registry.
func NewCartSessions(deps CartSessionsDeps) (CartSessions, error) {
	if deps.Catalog == nil {
		return nil, errors.New("cart sessions: catalog is required")
	}
	if deps.Store == nil {
		return nil, errors.New("cart sessions: snapshot store is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("cart sessions: notifier is required")
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	return &cartSessions{
		deps:    deps,
		engines: make(map[string]*sessionEntry),
	}, nil
}

// Get returns the engine for sessionID, restoring its snapshot on first use. Every Get must be
// paired with a Release.
func (s *cartSessions) Get(ctx context.Context, sessionID string) (CartEngine, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.engines[sessionID]; ok {
		entry.holders++
		return entry.engine, nil
	}

	engine, err := NewCartEngine(CartEngineDeps{
		SessionID: sessionID,
		Catalog:   s.deps.Catalog,
		Store:     s.deps.Store,
		Notifier:  s.deps.Notifier,
		Clock:     s.deps.Clock,
		Logger:    s.deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	if err := engine.LoadInitialState(ctx); err != nil {
		return nil, fmt.Errorf("cart sessions: load %s: %w", sessionID, err)
	}
	s.engines[sessionID] = &sessionEntry{engine: engine, holders: 1}
	s.deps.Logger(ctx, "cart.session.opened", map[string]any{"sessionId": sessionID, "lines": len(engine.Lines())})
	return engine, nil
}

// Release ends a Get. An engine with an empty cart and no remaining holders is forgotten; its
// session starts from the persisted snapshot on the next Get.
func (s *cartSessions) Release(ctx context.Context, sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.engines[sessionID]
	if !ok {
		return
	}
	if entry.holders > 0 {
		entry.holders--
	}
	if entry.holders == 0 && entry.engine.ItemCount() == 0 {
		delete(s.engines, sessionID)
		s.deps.Logger(ctx, "cart.session.evicted", map[string]any{"sessionId": sessionID})
	}
}

// Drop clears the session cart so its reservations go back to stock, then forgets the engine.
func (s *cartSessions) Drop(ctx context.Context, sessionID string) error {
	engine, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	clearErr := engine.ClearCart(ctx)

	s.mu.Lock()
	delete(s.engines, strings.TrimSpace(sessionID))
	s.mu.Unlock()

	if clearErr != nil {
		return fmt.Errorf("cart sessions: drop %s: %w", sessionID, clearErr)
	}
	s.deps.Logger(ctx, "cart.session.dropped", map[string]any{"sessionId": sessionID})
	return nil
}

func (s *cartSessions) open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.engines)
}
