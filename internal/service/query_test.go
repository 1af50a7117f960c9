package service

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/Harshitk-cp/strainfeed/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGraph(t *testing.T) (*store.NodeStore, *store.EdgeStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	nodes := store.NewNodeStore()
	edges := store.NewEdgeStore()

	add := func(id string, kind domain.NodeKind, category string, amplitude float64, freq int, mass float64) {
		n := domain.NewNode(id, id, now)
		n.Kind = kind
		n.Category = category
		n.Amplitude = amplitude
		n.Frequency = freq
		n.Mass = mass
		require.NoError(t, nodes.Create(ctx, n))
	}
	add("engineer", domain.NodeKindAgent, "engineering", 0.9, 440, 1)
	add("algebra", domain.NodeKindEntity, "concept_type", 0.85, 349, 12)
	add("plato", domain.NodeKindEntity, "person", 0.3, 520, 1)
	add("euler", domain.NodeKindEntity, "person", 0.6, 261, 3)

	require.NoError(t, edges.Create(ctx, domain.Edge{ID: "e1", From: "engineer", To: "algebra", Type: "has_authority", Weight: 0.75}))
	require.NoError(t, edges.Create(ctx, domain.Edge{ID: "e2", From: "plato", To: "euler", Type: "supports", Weight: 0.4}))
	return nodes, edges
}

func ids(nodes []domain.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestQueryService_Agents(t *testing.T) {
	nodes, edges := newTestGraph(t)
	s := NewQueryService(nodes, edges, zap.NewNop())

	agents, err := s.Agents(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"engineer"}, ids(agents))
}

func TestQueryService_Entities(t *testing.T) {
	nodes, edges := newTestGraph(t)
	s := NewQueryService(nodes, edges, zap.NewNop())
	ctx := context.Background()

	threshold := 0.5
	exact := 0.6

	tests := []struct {
		name   string
		filter EntityFilter
		want   []string
	}{
		{"no filter", EntityFilter{}, []string{"algebra", "plato", "euler"}},
		{"amplitude threshold", EntityFilter{MinAmplitude: &threshold}, []string{"algebra", "euler"}},
		{"threshold is strict", EntityFilter{MinAmplitude: &exact}, []string{"algebra"}},
		{"category", EntityFilter{Category: "person"}, []string{"plato", "euler"}},
		{"both", EntityFilter{MinAmplitude: &threshold, Category: "person"}, []string{"euler"}},
		{"no match", EntityFilter{Category: "place"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Entities(ctx, tt.filter, ListOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestQueryService_PlainListingDoesNotCountAsAccess(t *testing.T) {
	nodes, edges := newTestGraph(t)
	s := NewQueryService(nodes, edges, zap.NewNop())
	ctx := context.Background()

	_, err := s.Nodes(ctx, ListOptions{})
	require.NoError(t, err)

	n, err := nodes.Get(ctx, "algebra")
	require.NoError(t, err)
	assert.Equal(t, 1, n.AccessCount)
}

func TestQueryService_AccessListing(t *testing.T) {
	nodes, edges := newTestGraph(t)
	s := NewQueryService(nodes, edges, zap.NewNop())
	readAt := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	s.SetClock(fixedClock(readAt))
	ctx := context.Background()

	got, err := s.Entities(ctx, EntityFilter{Category: "person"}, ListOptions{Access: true})
	require.NoError(t, err)
	for _, n := range got {
		assert.Equal(t, 2, n.AccessCount)
		assert.True(t, n.LastAccessed.Equal(readAt))
	}

	untouched, err := nodes.Get(ctx, "algebra")
	require.NoError(t, err)
	assert.Equal(t, 1, untouched.AccessCount)
}

func TestQueryService_Node(t *testing.T) {
	nodes, edges := newTestGraph(t)
	s := NewQueryService(nodes, edges, zap.NewNop())
	ctx := context.Background()

	n, err := s.Node(ctx, "plato")
	require.NoError(t, err)
	assert.Equal(t, 2, n.AccessCount)

	n, err = s.Node(ctx, "plato")
	require.NoError(t, err)
	assert.Equal(t, 3, n.AccessCount)

	_, err = s.Node(ctx, "missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestQueryService_Edges(t *testing.T) {
	nodes, edges := newTestGraph(t)
	s := NewQueryService(nodes, edges, zap.NewNop())
	ctx := context.Background()

	all, err := s.Edges(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	from, err := s.Edges(ctx, "plato")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "e2", from[0].ID)

	none, err := s.Edges(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestQueryService_Stats(t *testing.T) {
	nodes, edges := newTestGraph(t)
	s := NewQueryService(nodes, edges, zap.NewNop())

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAgents)
	assert.Equal(t, 3, stats.TotalEntities)
	assert.Equal(t, 2, stats.TotalEdges)
	assert.Equal(t, 1, stats.HighStrainEntities)
	assert.Equal(t, 1, stats.LowResistanceEntities)
	assert.Equal(t, 1, stats.HighFrequencyEntities)
	assert.Equal(t, 1, stats.HighMassEntities)

	s.SetThresholds(domain.StatsThresholds{HighStrain: 0.1, LowResistance: 1, HighFrequency: 0, HighMass: 0})
	stats, err = s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.HighStrainEntities)
	assert.Equal(t, 3, stats.LowResistanceEntities)
	assert.Equal(t, 3, stats.HighFrequencyEntities)
	assert.Equal(t, 3, stats.HighMassEntities)
}

func TestQueryService_GraphData(t *testing.T) {
	nodes, edges := newTestGraph(t)
	s := NewQueryService(nodes, edges, zap.NewNop())

	data, err := s.GraphData(context.Background())
	require.NoError(t, err)
	assert.Len(t, data.Nodes, 4)
	assert.Len(t, data.Links, 2)
}
