package service

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/Harshitk-cp/strainfeed/internal/metrics"
	"github.com/Harshitk-cp/strainfeed/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"the cat sat", []string{"cat", "sat"}},
		{"The Cat, the CAT!", []string{"cat"}},
		{"  of and by  ", nil},
		{"gödel's theorem (1931)", []string{"gödel's", "theorem", "1931"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tokenize(tt.in), tt.in)
	}
}

func TestIngestService_CreatesNodes(t *testing.T) {
	ctx := context.Background()
	nodes := store.NewNodeStore()
	pub := &recordingPublisher{}
	m := metrics.NewCollector("test")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s := NewIngestService(nodes, pub, zap.NewNop())
	s.SetClock(fixedClock(now))
	s.SetMetrics(m)

	result, err := s.Ingest(ctx, "the cat sat")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "sat"}, ids(result.Created))
	assert.Empty(t, result.Touched)
	assert.Equal(t, 2, nodes.Len())

	for _, id := range []string{"cat", "sat"} {
		n, err := nodes.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, n.AccessCount)
		assert.Equal(t, id, n.Name)
		assert.Equal(t, domain.NodeKindEntity, n.Kind)
		assert.Equal(t, domain.DefaultCategory, n.Category)
		assert.Equal(t, "Word: "+id, n.Description)
		assert.Equal(t, domain.DefaultMass, n.Mass)
		assert.True(t, n.LastAccessed.Equal(now))
	}

	_, err = nodes.Get(ctx, "the")
	assert.ErrorIs(t, err, store.ErrNotFound)

	batches := pub.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, domain.BatchUpdate, batches[0].Kind)
	assert.Equal(t, []string{"cat", "sat"}, ids(batches[0].ChangedNodes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodesCreated))
}

func TestIngestService_TouchesExisting(t *testing.T) {
	ctx := context.Background()
	nodes := store.NewNodeStore()
	pub := &recordingPublisher{}
	s := NewIngestService(nodes, pub, zap.NewNop())

	_, err := s.Ingest(ctx, "the cat sat")
	require.NoError(t, err)

	result, err := s.Ingest(ctx, "a cat on a mat")
	require.NoError(t, err)
	assert.Equal(t, []string{"mat"}, ids(result.Created))
	assert.Equal(t, []string{"cat"}, ids(result.Touched))

	cat, err := nodes.Get(ctx, "cat")
	require.NoError(t, err)
	assert.Equal(t, 2, cat.AccessCount)

	batches := pub.Batches()
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"mat", "cat"}, ids(batches[1].ChangedNodes))
}

func TestIngestService_MatchesExistingNodeByName(t *testing.T) {
	ctx := context.Background()
	nodes := store.NewNodeStore()
	require.NoError(t, nodes.Create(ctx, domain.NewNode("concept_cat", "Cat", time.Now())))

	s := NewIngestService(nodes, nil, zap.NewNop())
	result, err := s.Ingest(ctx, "cat")
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	assert.Equal(t, []string{"concept_cat"}, ids(result.Touched))
	assert.Equal(t, 1, nodes.Len())

	seeded, err := nodes.Get(ctx, "concept_cat")
	require.NoError(t, err)
	assert.Equal(t, 2, seeded.AccessCount)
}

func TestIngestService_EmptyInput(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewIngestService(store.NewNodeStore(), pub, zap.NewNop())

	_, err := s.Ingest(context.Background(), "the and of")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, pub.Batches())
}

// A node created by ingestion and read back before any tick carries the
// creation access plus one for the read, with every attribute present.
func TestIngestService_RoundTripThroughQuery(t *testing.T) {
	ctx := context.Background()
	nodes := store.NewNodeStore()
	ingest := NewIngestService(nodes, nil, zap.NewNop())
	queries := NewQueryService(nodes, store.NewEdgeStore(), zap.NewNop())

	_, err := ingest.Ingest(ctx, "entropy")
	require.NoError(t, err)

	plain, err := queries.Entities(ctx, EntityFilter{}, ListOptions{})
	require.NoError(t, err)
	require.Len(t, plain, 1)
	assert.Equal(t, 1, plain[0].AccessCount)

	read, err := queries.Entities(ctx, EntityFilter{}, ListOptions{Access: true})
	require.NoError(t, err)
	require.Len(t, read, 1)

	n := read[0]
	assert.Equal(t, 2, n.AccessCount)
	assert.Equal(t, 0.0, n.Amplitude)
	assert.Equal(t, n.Amplitude, n.Resistance)
	assert.Equal(t, domain.DefaultMass, n.Mass)
	assert.False(t, n.LastAccessed.IsZero())
}
