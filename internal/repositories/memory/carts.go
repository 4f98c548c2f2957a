package memory

import (
	"context"
	"sync"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/repositories"
)

// CartStore keeps one snapshot per session.
type CartStore struct {
	mu        sync.Mutex
	snapshots map[string]domain.CartSnapshot
}

// NewCartStore constructs an empty cart store.
func NewCartStore() *CartStore {
	return &CartStore{snapshots: make(map[string]domain.CartSnapshot)}
}

// Load implements repositories.CartSnapshotStore.
func (s *CartStore) Load(_ context.Context, sessionID string) (domain.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.snapshots[sessionID]
	if !ok {
		return domain.CartSnapshot{}, repositories.NewNotFoundError("carts.load", "cart snapshot not found")
	}
	snapshot.Lines = append([]domain.CartLine(nil), snapshot.Lines...)
	return snapshot, nil
}

// Save implements repositories.CartSnapshotStore.
func (s *CartStore) Save(_ context.Context, snapshot domain.CartSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot.Lines = append([]domain.CartLine(nil), snapshot.Lines...)
	s.snapshots[snapshot.SessionID] = snapshot
	return nil
}

// Delete implements repositories.CartSnapshotStore.
func (s *CartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, sessionID)
	return nil
}
