package domain

import (
	"context"
	"time"
)

// NodeStore owns the authoritative node state. Every method is atomic with
// respect to every other.
type NodeStore interface {
	GetAll(ctx context.Context) ([]Node, error)
	Get(ctx context.Context, id string) (*Node, error)
	// Apply computes the new record from the current one and installs it as
	// a single step.
	Apply(ctx context.Context, id string, mutate func(Node) Node) (*Node, error)
	Create(ctx context.Context, n Node) error
	Touch(ctx context.Context, id string, at time.Time) (*Node, error)
	// TouchByName records an access of the first node, in insertion order,
	// whose name matches case-insensitively.
	TouchByName(ctx context.Context, name string, at time.Time) (*Node, error)
	Len() int
}

type EdgeStore interface {
	Create(ctx context.Context, e Edge) error
	GetAll(ctx context.Context) ([]Edge, error)
	GetFrom(ctx context.Context, nodeID string) ([]Edge, error)
	Len() int
}

// Publisher receives batches of changed nodes.
type Publisher interface {
	Publish(b Batch)
}

// SeedSource yields the initial graph at startup.
type SeedSource interface {
	Load(ctx context.Context) (*Seed, error)
}

type Seed struct {
	Nodes []Node
	Edges []Edge
}
