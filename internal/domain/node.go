package domain

import "time"

type NodeKind string

const (
	NodeKindAgent  NodeKind = "agent"
	NodeKindEntity NodeKind = "entity"
)

func ValidNodeKind(k string) bool {
	switch NodeKind(k) {
	case NodeKindAgent, NodeKindEntity:
		return true
	}
	return false
}

const (
	DefaultCategory  = "concept_type"
	DefaultFrequency = 440 // A4
	DefaultMass      = 1.0
)

// Node is one vertex of the strain graph. Every field is populated from the
// moment the node is created; readers never need to check for missing values.
type Node struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Kind         NodeKind  `json:"kind" yaml:"kind"`
	Category     string    `json:"category" yaml:"category"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty"`
	Amplitude    float64   `json:"amplitude" yaml:"amplitude"`
	Resistance   float64   `json:"resistance" yaml:"resistance"`
	Frequency    int       `json:"frequency" yaml:"frequency"`
	Mass         float64   `json:"mass" yaml:"mass"`
	AccessCount  int       `json:"access_count" yaml:"access_count"`
	LastAccessed time.Time `json:"last_accessed" yaml:"last_accessed"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// NewNode returns a fully initialized entity node. The creation itself counts
// as the first access.
func NewNode(id, name string, now time.Time) Node {
	if name == "" {
		name = id
	}
	return Node{
		ID:           id,
		Name:         name,
		Kind:         NodeKindEntity,
		Category:     DefaultCategory,
		Frequency:    DefaultFrequency,
		Mass:         DefaultMass,
		AccessCount:  1,
		LastAccessed: now,
		CreatedAt:    now,
	}
}

// Normalize enforces the record invariants: amplitude is never negative,
// resistance mirrors amplitude, the kind is one we know and the creation
// access is always counted.
//
// Resistance is currently the sum of a single self-contribution. Summing
// strain from connected nodes would make it a function of graph structure,
// but that is not what the dashboard has ever shown.
func (n Node) Normalize() Node {
	if n.Amplitude < 0 {
		n.Amplitude = 0
	}
	n.Resistance = n.Amplitude
	if !ValidNodeKind(string(n.Kind)) {
		n.Kind = NodeKindEntity
	}
	if n.AccessCount < 1 {
		n.AccessCount = 1
	}
	if n.Category == "" {
		n.Category = DefaultCategory
	}
	if n.Name == "" {
		n.Name = n.ID
	}
	return n
}

// Touched returns a copy of n with one more access recorded at t.
func (n Node) Touched(t time.Time) Node {
	n.AccessCount++
	n.LastAccessed = t
	return n
}
