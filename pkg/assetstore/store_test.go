package assetstore

import (
	"testing"

	"github.com/ironloom/assets/pkg/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mesh struct {
	Vertices int
}

func (m mesh) CloneAsset() mesh { return mesh{Vertices: m.Vertices} }

func TestAllocateReservesWithoutLoading(t *testing.T) {
	s := New[mesh]()
	h := s.Allocate()
	assert.False(t, s.IsLoaded(h))
}

func TestUpdateAssetOccupiesSlotAtVersionOne(t *testing.T) {
	s := New[mesh]()
	h := s.Allocate()
	s.UpdateAsset(h, mesh{Vertices: 4})

	require.True(t, s.IsLoaded(h))
	got, ok := s.Get(h)
	require.True(t, ok)
	assert.Equal(t, 4, got.Vertices)

	version, ok := s.GetVersion(h)
	require.True(t, ok)
	assert.Equal(t, uint32(1), version)
}

func TestUpdateAssetBumpsVersionAndQueuesOldForDrop(t *testing.T) {
	s := New[mesh]()
	h := s.Allocate()
	s.UpdateAsset(h, mesh{Vertices: 4})
	s.UpdateAsset(h, mesh{Vertices: 8})

	version, ok := s.GetVersion(h)
	require.True(t, ok)
	assert.Equal(t, uint32(2), version)

	var dropped []mesh
	s.ProcessDeferredDrops(func(m mesh) { dropped = append(dropped, m) })
	require.Len(t, dropped, 1)
	assert.Equal(t, 4, dropped[0].Vertices)
}

func TestFreeReturnsHandleToFreeListAndQueuesDrop(t *testing.T) {
	s := New[mesh]()
	h := s.Allocate()
	s.UpdateAsset(h, mesh{Vertices: 4})
	s.Free(h)

	assert.False(t, s.IsLoaded(h))

	reused := s.Allocate()
	assert.Equal(t, h, reused, "freed handle should be reused before minting a new one")

	var dropped []mesh
	s.ProcessDeferredDrops(func(m mesh) { dropped = append(dropped, m) })
	require.Len(t, dropped, 1)
}

func TestMutateInPlace(t *testing.T) {
	s := New[mesh]()
	h := s.Allocate()
	s.UpdateAsset(h, mesh{Vertices: 4})

	ok := s.Mutate(h, func(m *mesh) { m.Vertices = 99 })
	require.True(t, ok)

	got, _ := s.Get(h)
	assert.Equal(t, 99, got.Vertices)
}

func TestMutateOnMissingHandleReturnsFalse(t *testing.T) {
	s := New[mesh]()
	ok := s.Mutate(handle.LoadHandle(999), func(m *mesh) {})
	assert.False(t, ok)
}

func TestCloneAssetProducesIndependentHandle(t *testing.T) {
	s := New[mesh]()
	h := s.Allocate()
	s.UpdateAsset(h, mesh{Vertices: 4})

	cloned, ok := CloneAsset[mesh](s, h)
	require.True(t, ok)
	assert.NotEqual(t, h, cloned)

	s.Mutate(h, func(m *mesh) { m.Vertices = 100 })
	got, _ := s.Get(cloned)
	assert.Equal(t, 4, got.Vertices, "clone must not alias the original")
}

func TestLenReflectsOccupiedSlotsOnly(t *testing.T) {
	s := New[mesh]()
	h1 := s.Allocate()
	assert.Equal(t, 0, s.Len())

	s.UpdateAsset(h1, mesh{Vertices: 1})
	assert.Equal(t, 1, s.Len())

	s.Free(h1)
	assert.Equal(t, 0, s.Len())
}
