package service

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/Harshitk-cp/strainfeed/internal/store"
	"go.uber.org/zap"
)

// EntityFilter narrows an entity listing. Zero values mean "no filter".
type EntityFilter struct {
	MinAmplitude *float64
	Category     string
}

// ListOptions controls whether a listing counts as an access of every node
// it returns.
type ListOptions struct {
	Access bool
}

// QueryService provides read projections over the node and edge stores.
type QueryService struct {
	nodes      domain.NodeStore
	edges      domain.EdgeStore
	logger     *zap.Logger
	thresholds domain.StatsThresholds
	now        func() time.Time
}

func NewQueryService(nodes domain.NodeStore, edges domain.EdgeStore, logger *zap.Logger) *QueryService {
	return &QueryService{
		nodes:      nodes,
		edges:      edges,
		logger:     logger,
		thresholds: domain.DefaultStatsThresholds(),
		now:        time.Now,
	}
}

func (s *QueryService) SetThresholds(t domain.StatsThresholds) {
	s.thresholds = t
}

func (s *QueryService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *QueryService) Nodes(ctx context.Context, opts ListOptions) ([]domain.Node, error) {
	all, err := s.nodes.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.maybeAccess(ctx, all, opts), nil
}

func (s *QueryService) Agents(ctx context.Context, opts ListOptions) ([]domain.Node, error) {
	all, err := s.nodes.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	agents := make([]domain.Node, 0)
	for _, n := range all {
		if n.Kind == domain.NodeKindAgent {
			agents = append(agents, n)
		}
	}
	return s.maybeAccess(ctx, agents, opts), nil
}

func (s *QueryService) Entities(ctx context.Context, filter EntityFilter, opts ListOptions) ([]domain.Node, error) {
	all, err := s.nodes.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	entities := make([]domain.Node, 0)
	for _, n := range all {
		if n.Kind != domain.NodeKindEntity {
			continue
		}
		if filter.MinAmplitude != nil && n.Amplitude <= *filter.MinAmplitude {
			continue
		}
		if filter.Category != "" && n.Category != filter.Category {
			continue
		}
		entities = append(entities, n)
	}
	return s.maybeAccess(ctx, entities, opts), nil
}

// Node returns one node and records the read as an access.
func (s *QueryService) Node(ctx context.Context, id string) (*domain.Node, error) {
	n, err := s.nodes.Touch(ctx, id, s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNodeNotFound
		}
		return nil, err
	}
	return n, nil
}

// Edges lists all edges, or only those leaving from when it is non-empty.
func (s *QueryService) Edges(ctx context.Context, from string) ([]domain.Edge, error) {
	var (
		edges []domain.Edge
		err   error
	)
	if from != "" {
		edges, err = s.edges.GetFrom(ctx, from)
	} else {
		edges, err = s.edges.GetAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	if edges == nil {
		edges = []domain.Edge{}
	}
	return edges, nil
}

func (s *QueryService) Stats(ctx context.Context) (*domain.GraphStats, error) {
	all, err := s.nodes.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.GraphStats{
		TotalEdges: s.edges.Len(),
		ComputedAt: s.now(),
	}
	for _, n := range all {
		if n.Kind == domain.NodeKindAgent {
			stats.TotalAgents++
			continue
		}
		stats.TotalEntities++
		if n.Amplitude > s.thresholds.HighStrain {
			stats.HighStrainEntities++
		}
		if n.Resistance < s.thresholds.LowResistance {
			stats.LowResistanceEntities++
		}
		if n.Frequency > s.thresholds.HighFrequency {
			stats.HighFrequencyEntities++
		}
		if n.Mass > s.thresholds.HighMass {
			stats.HighMassEntities++
		}
	}
	return stats, nil
}

func (s *QueryService) GraphData(ctx context.Context) (*domain.GraphData, error) {
	nodes, err := s.nodes.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := s.Edges(ctx, "")
	if err != nil {
		return nil, err
	}
	return &domain.GraphData{Nodes: nodes, Links: edges}, nil
}

// maybeAccess records an access for every listed node and returns the
// post-access records. Nodes that vanished in between keep their listed
// value.
func (s *QueryService) maybeAccess(ctx context.Context, nodes []domain.Node, opts ListOptions) []domain.Node {
	if !opts.Access {
		return nodes
	}

	at := s.now()
	for i, n := range nodes {
		touched, err := s.nodes.Touch(ctx, n.ID, at)
		if err != nil {
			s.logger.Warn("failed to record node access", zap.String("node_id", n.ID), zap.Error(err))
			continue
		}
		nodes[i] = *touched
	}
	return nodes
}
