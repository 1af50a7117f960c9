package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSeedSource reads the initial graph from the graph_nodes and
// graph_edges tables. It is read once at startup; the engine never writes
// back.
type PostgresSeedSource struct {
	db *pgxpool.Pool
}

func NewPostgresSeedSource(db *pgxpool.Pool) *PostgresSeedSource {
	return &PostgresSeedSource{db: db}
}

func (s *PostgresSeedSource) Load(ctx context.Context) (*domain.Seed, error) {
	nodes, err := s.loadNodes(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := s.loadEdges(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Seed{Nodes: nodes, Edges: edges}, nil
}

func (s *PostgresSeedSource) loadNodes(ctx context.Context) ([]domain.Node, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, kind, category, COALESCE(description, ''),
		        amplitude, frequency, mass, access_count,
		        COALESCE(last_accessed, now()), COALESCE(created_at, now())
		 FROM graph_nodes
		 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query graph_nodes: %w", err)
	}

	nodes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Node, error) {
		var n domain.Node
		var kind string
		var lastAccessed, createdAt time.Time
		err := row.Scan(&n.ID, &n.Name, &kind, &n.Category, &n.Description,
			&n.Amplitude, &n.Frequency, &n.Mass, &n.AccessCount,
			&lastAccessed, &createdAt)
		if err != nil {
			return n, err
		}
		// Normalize maps unknown kinds to entity and a zero access_count to 1.
		n.Kind = domain.NodeKind(kind)
		n.LastAccessed = lastAccessed
		n.CreatedAt = createdAt
		if n.Mass <= 0 {
			n.Mass = domain.DefaultMass
		}
		if n.Frequency == 0 {
			n.Frequency = domain.DefaultFrequency
		}
		return n.Normalize(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan graph_nodes: %w", err)
	}
	return nodes, nil
}

func (s *PostgresSeedSource) loadEdges(ctx context.Context) ([]domain.Edge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, from_id, to_id, edge_type, weight FROM graph_edges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query graph_edges: %w", err)
	}

	edges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Edge, error) {
		var e domain.Edge
		err := row.Scan(&e.ID, &e.From, &e.To, &e.Type, &e.Weight)
		return normalizeEdge(e), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan graph_edges: %w", err)
	}
	return edges, nil
}
