package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolGenerationInvalidatesStaleIDs(t *testing.T) {
	p := NewPool()

	a := p.Create()
	require.True(t, p.Alive(a))

	p.Destroy(a)
	require.False(t, p.Alive(a), "destroyed id must not resolve")

	// The slot is recycled with a bumped generation.
	b := p.Create()
	require.Equal(t, a.Index(), b.Index())
	require.NotEqual(t, a.Generation(), b.Generation())
	require.True(t, p.Alive(b))
	require.False(t, p.Alive(a), "stale id must stay dead after slot reuse")
}

func TestPoolNeverAllocatesZeroID(t *testing.T) {
	p := NewPool()

	// Zero is the "no entity" sentinel carried in mob records and events;
	// the very first allocation after boot must already be distinct from it.
	a := p.Create()
	require.False(t, a.IsZero())
	require.False(t, p.Alive(0), "the sentinel id never resolves")

	// Recycling the first slot keeps the id nonzero too.
	p.Destroy(a)
	b := p.Create()
	require.Equal(t, a.Index(), b.Index())
	require.False(t, b.IsZero())
}

func TestPoolDestroyIsIdempotent(t *testing.T) {
	p := NewPool()
	a := p.Create()

	p.Destroy(a)
	p.Destroy(a) // second destroy on a stale id is a no-op

	b := p.Create()
	require.True(t, p.Alive(b))

	c := p.Create()
	require.True(t, p.Alive(c))
	require.NotEqual(t, b, c)
}

func TestWorldDeferredDestroy(t *testing.T) {
	w := NewWorld()

	type health struct{ hp int }
	store := NewStore[health]()
	w.Registry().Register(store)

	id := w.CreateEntity()
	store.Set(id, &health{hp: 10})

	w.MarkForDestruction(id)
	require.True(t, w.Alive(id), "entity stays alive until the flush")
	require.True(t, store.Has(id))

	w.FlushDestroyQueue()
	require.False(t, w.Alive(id))
	require.False(t, store.Has(id), "components are scrubbed on flush")
}

func TestEach2IntersectsStores(t *testing.T) {
	type pos struct{ x float64 }
	type tag struct{ name string }

	w := NewWorld()
	positions := NewStore[pos]()
	tags := NewStore[tag]()

	both := w.CreateEntity()
	only := w.CreateEntity()
	positions.Set(both, &pos{x: 1})
	positions.Set(only, &pos{x: 2})
	tags.Set(both, &tag{name: "goblin"})

	var visited []EntityID
	Each2(positions, tags, func(id EntityID, _ *pos, _ *tag) {
		visited = append(visited, id)
	})

	require.Equal(t, []EntityID{both}, visited)
}
