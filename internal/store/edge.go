package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
)

// EdgeStore is append-only: edges are never mutated or removed.
type EdgeStore struct {
	mu    sync.RWMutex
	edges []domain.Edge
	ids   map[string]struct{}
}

func NewEdgeStore() *EdgeStore {
	return &EdgeStore{ids: make(map[string]struct{})}
}

func (s *EdgeStore) Create(ctx context.Context, e domain.Edge) error {
	if e.ID == "" {
		return fmt.Errorf("edge id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[e.ID]; ok {
		return fmt.Errorf("edge %q: %w", e.ID, ErrAlreadyExists)
	}
	s.ids[e.ID] = struct{}{}
	s.edges = append(s.edges, e)
	return nil
}

func (s *EdgeStore) GetAll(ctx context.Context) ([]domain.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Edge, len(s.edges))
	copy(out, s.edges)
	return out, nil
}

// GetFrom returns the edges whose source is nodeID.
func (s *EdgeStore) GetFrom(ctx context.Context, nodeID string) ([]domain.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Edge
	for _, e := range s.edges {
		if e.From == nodeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EdgeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}
