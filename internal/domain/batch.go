package domain

import (
	"slices"
	"time"
)

type BatchKind string

const (
	BatchUpdate    BatchKind = "update"
	BatchHeartbeat BatchKind = "heartbeat"
)

// Batch is one message on the live feed.
type Batch struct {
	Kind         BatchKind `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	ChangedNodes []Node    `json:"changed_nodes,omitempty"`
}

func NewUpdateBatch(at time.Time, changed []Node) Batch {
	return Batch{Kind: BatchUpdate, Timestamp: at, ChangedNodes: changed}
}

func NewHeartbeat(at time.Time) Batch {
	return Batch{Kind: BatchHeartbeat, Timestamp: at}
}

// Clone returns a copy that shares no memory with b.
func (b Batch) Clone() Batch {
	b.ChangedNodes = slices.Clone(b.ChangedNodes)
	return b
}

type EngineState string

const (
	EngineIdle    EngineState = "idle"
	EngineTicking EngineState = "ticking"
)
