package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewNodeStore()
	now := time.Now()

	require.NoError(t, s.Create(ctx, domain.NewNode("cat", "", now)))

	n, err := s.Get(ctx, "cat")
	require.NoError(t, err)
	assert.Equal(t, "cat", n.Name)
	assert.Equal(t, domain.NodeKindEntity, n.Kind)
	assert.Equal(t, 1, n.AccessCount)
	assert.Equal(t, domain.DefaultMass, n.Mass)
	assert.Equal(t, domain.DefaultFrequency, n.Frequency)
	assert.True(t, n.LastAccessed.Equal(now))
}

func TestNodeStore_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewNodeStore()

	require.NoError(t, s.Create(ctx, domain.NewNode("n0", "", time.Now())))
	err := s.Create(ctx, domain.NewNode("n0", "", time.Now()))
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 1, s.Len())
}

func TestNodeStore_CreateRequiresID(t *testing.T) {
	s := NewNodeStore()
	assert.Error(t, s.Create(context.Background(), domain.Node{}))
}

func TestNodeStore_GetNotFound(t *testing.T) {
	_, err := NewNodeStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNodeStore_ApplyNotFound(t *testing.T) {
	_, err := NewNodeStore().Apply(context.Background(), "missing", func(n domain.Node) domain.Node { return n })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNodeStore_ApplyEnforcesInvariants(t *testing.T) {
	ctx := context.Background()
	s := NewNodeStore()
	require.NoError(t, s.Create(ctx, domain.NewNode("n0", "", time.Now())))

	updated, err := s.Apply(ctx, "n0", func(n domain.Node) domain.Node {
		n.ID = "renamed"
		n.Amplitude = -3
		n.Resistance = 42
		return n
	})
	require.NoError(t, err)
	assert.Equal(t, "n0", updated.ID)
	assert.Equal(t, 0.0, updated.Amplitude)
	assert.Equal(t, 0.0, updated.Resistance)

	_, err = s.Get(ctx, "renamed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNodeStore_Touch(t *testing.T) {
	ctx := context.Background()
	s := NewNodeStore()
	created := time.Now().Add(-time.Minute)
	require.NoError(t, s.Create(ctx, domain.NewNode("n0", "", created)))

	at := time.Now()
	n, err := s.Touch(ctx, "n0", at)
	require.NoError(t, err)
	assert.Equal(t, 2, n.AccessCount)
	assert.True(t, n.LastAccessed.Equal(at))
}

func TestNodeStore_TouchByName(t *testing.T) {
	ctx := context.Background()
	s := NewNodeStore()
	require.NoError(t, s.Create(ctx, domain.NewNode("first", "Euler", time.Now())))
	require.NoError(t, s.Create(ctx, domain.NewNode("second", "euler", time.Now())))

	at := time.Now().Add(time.Second)
	n, err := s.TouchByName(ctx, "EULER", at)
	require.NoError(t, err)
	assert.Equal(t, "first", n.ID)
	assert.Equal(t, 2, n.AccessCount)
	assert.True(t, n.LastAccessed.Equal(at))

	second, err := s.Get(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, 1, second.AccessCount)

	_, err = s.TouchByName(ctx, "gauss", at)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNodeStore_GetAllKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewNodeStore()
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Create(ctx, domain.NewNode(fmt.Sprintf("n%d", i), "", time.Now())))
	}

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 10)
	for i, n := range all {
		assert.Equal(t, fmt.Sprintf("n%d", i), n.ID)
	}
}

func TestNodeStore_ReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewNodeStore()
	require.NoError(t, s.Create(ctx, domain.NewNode("n0", "", time.Now())))

	n, err := s.Get(ctx, "n0")
	require.NoError(t, err)
	n.Amplitude = 99

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	all[0].Mass = 99

	fresh, err := s.Get(ctx, "n0")
	require.NoError(t, err)
	assert.Equal(t, 0.0, fresh.Amplitude)
	assert.Equal(t, domain.DefaultMass, fresh.Mass)
}

// One writer rewrites every field of every node in a single Apply; readers
// must never see a record where the fields disagree.
func TestNodeStore_ConcurrentApplyIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewNodeStore()
	for i := 0; i < 20; i++ {
		n := domain.NewNode(fmt.Sprintf("n%d", i), "", time.Now())
		n.Mass = 0
		require.NoError(t, s.Create(ctx, n))
	}

	stop := make(chan struct{})
	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		for round := 1; ; round++ {
			select {
			case <-stop:
				return
			default:
			}
			for i := 0; i < 20; i++ {
				_, _ = s.Apply(ctx, fmt.Sprintf("n%d", i), func(n domain.Node) domain.Node {
					n.Amplitude = float64(round)
					n.Mass = float64(round)
					n.AccessCount = round
					return n
				})
			}
		}
	}()

	var readers sync.WaitGroup
	for r := 0; r < 8; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for j := 0; j < 500; j++ {
				all, err := s.GetAll(ctx)
				if !assert.NoError(t, err) {
					return
				}
				for _, n := range all {
					assert.Equal(t, n.Amplitude, n.Resistance)
					assert.Equal(t, n.Amplitude, n.Mass)
				}
			}
		}()
	}

	readers.Wait()
	close(stop)
	writer.Wait()
}

func TestEdgeStore(t *testing.T) {
	ctx := context.Background()
	s := NewEdgeStore()

	require.NoError(t, s.Create(ctx, domain.Edge{ID: "e1", From: "a", To: "b", Type: "supports", Weight: 0.5}))
	require.NoError(t, s.Create(ctx, domain.Edge{ID: "e2", From: "b", To: "c", Type: "supports", Weight: 0.7}))
	assert.ErrorIs(t, s.Create(ctx, domain.Edge{ID: "e1"}), ErrAlreadyExists)
	assert.Error(t, s.Create(ctx, domain.Edge{}))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	from, err := s.GetFrom(ctx, "a")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "e1", from[0].ID)
	assert.Equal(t, 2, s.Len())
}
