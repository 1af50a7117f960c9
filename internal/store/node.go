package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
)

// NodeStore is the in-memory owner of all node records. A single RWMutex
// guards the map; records are stored and returned by value so no caller can
// observe a record while it is being rewritten.
type NodeStore struct {
	mu    sync.RWMutex
	nodes map[string]domain.Node
	order []string
}

func NewNodeStore() *NodeStore {
	return &NodeStore{nodes: make(map[string]domain.Node)}
}

// GetAll returns every node in insertion order.
func (s *NodeStore) GetAll(ctx context.Context) ([]domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out, nil
}

func (s *NodeStore) Get(ctx context.Context, id string) (*domain.Node, error) {
	s.mu.RLock()
	n, ok := s.nodes[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	return &n, nil
}

func (s *NodeStore) Apply(ctx context.Context, id string, mutate func(domain.Node) domain.Node) (*domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}

	updated := mutate(old)
	updated.ID = old.ID
	updated = updated.Normalize()
	s.nodes[id] = updated
	return &updated, nil
}

func (s *NodeStore) Create(ctx context.Context, n domain.Node) error {
	if n.ID == "" {
		return fmt.Errorf("node id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[n.ID]; ok {
		return fmt.Errorf("node %q: %w", n.ID, ErrAlreadyExists)
	}
	s.nodes[n.ID] = n.Normalize()
	s.order = append(s.order, n.ID)
	return nil
}

// Touch records one access of the node at the given time.
func (s *NodeStore) Touch(ctx context.Context, id string, at time.Time) (*domain.Node, error) {
	return s.Apply(ctx, id, func(n domain.Node) domain.Node {
		return n.Touched(at)
	})
}

func (s *NodeStore) TouchByName(ctx context.Context, name string, at time.Time) (*domain.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		n := s.nodes[id]
		if !strings.EqualFold(n.Name, name) {
			continue
		}
		n = n.Touched(at).Normalize()
		s.nodes[id] = n
		return &n, nil
	}
	return nil, fmt.Errorf("node named %q: %w", name, ErrNotFound)
}

func (s *NodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}
