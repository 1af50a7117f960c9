package domain

import "time"

const DefaultEdgeType = "related_to"

// Edge is an immutable directed link between two nodes.
type Edge struct {
	ID     string  `json:"id" yaml:"id"`
	From   string  `json:"from" yaml:"from"`
	To     string  `json:"to" yaml:"to"`
	Type   string  `json:"type" yaml:"type"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// StatsThresholds controls the cut-offs used by GraphStats.
type StatsThresholds struct {
	HighStrain    float64
	LowResistance float64
	HighFrequency int
	HighMass      float64
}

func DefaultStatsThresholds() StatsThresholds {
	return StatsThresholds{
		HighStrain:    0.8,
		LowResistance: 0.5,
		HighFrequency: 500,
		HighMass:      10.0,
	}
}

type GraphStats struct {
	TotalAgents           int       `json:"total_agents"`
	TotalEntities         int       `json:"total_entities"`
	TotalEdges            int       `json:"total_relationships"`
	HighStrainEntities    int       `json:"high_strain_entities"`
	LowResistanceEntities int       `json:"low_resistance_entities"`
	HighFrequencyEntities int       `json:"high_frequency_entities"`
	HighMassEntities      int       `json:"high_mass_entities"`
	ComputedAt            time.Time `json:"computed_at"`
}

// GraphData is the full node/link projection consumed by the graph canvas.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Links []Edge `json:"links"`
}
