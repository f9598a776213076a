package handle

import (
	"sync"
	"testing"

	"github.com/ironloom/assets/pkg/assetid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu  sync.Mutex
	ops []RefOp
}

func (r *recordingSink) SendRefOp(op RefOp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingSink) count(kind RefOpKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func TestStrongCloneIncrementsAndEmits(t *testing.T) {
	sink := &recordingSink{}
	id := assetid.NewAssetID()
	s1 := NewStrong[int](1, id, sink)
	require.True(t, s1.IsUnique())

	s2 := s1.Clone()
	assert.False(t, s1.IsUnique())
	assert.False(t, s2.IsUnique())
	// One Increase from NewStrong, one from Clone.
	assert.Equal(t, 2, sink.count(Increase))
	assert.Equal(t, s1.Handle(), s2.Handle())
}

func TestStrongDropEmitsDecreaseAndNeverPanics(t *testing.T) {
	sink := &recordingSink{}
	id := assetid.NewAssetID()
	s1 := NewStrong[int](1, id, sink)
	s2 := s1.Clone()

	assert.NotPanics(t, s1.Drop)
	assert.NotPanics(t, s2.Drop)
	assert.Equal(t, 2, sink.count(Decrease))
}

func TestWeakUpgradeFailsAfterAllStrongHandlesDrop(t *testing.T) {
	sink := &recordingSink{}
	id := assetid.NewAssetID()
	s1 := NewStrong[int](1, id, sink)
	w := s1.Downgrade()

	require.False(t, w.IsDead())
	s1.Drop()
	assert.True(t, w.IsDead())

	_, ok := w.Upgrade()
	assert.False(t, ok)
}

func TestWeakUpgradeSucceedsWhileAnyStrongHandleLives(t *testing.T) {
	sink := &recordingSink{}
	id := assetid.NewAssetID()
	s1 := NewStrong[int](1, id, sink)
	s2 := s1.Clone()
	w := s1.Downgrade()

	s1.Drop()
	upgraded, ok := w.Upgrade()
	require.True(t, ok)
	assert.Equal(t, s1.Handle(), upgraded.Handle())

	upgraded.Drop()
	s2.Drop()
}

func TestNewStrongWithCounterSharesLivenessAcrossTypeParameters(t *testing.T) {
	sink := &recordingSink{}
	id := assetid.NewAssetID()
	generic := NewStrong[any](1, id, sink)

	typed := NewStrongWithCounter[string](generic.Handle(), id, generic.c, sink)
	assert.False(t, generic.IsUnique())
	assert.False(t, typed.IsUnique())

	typed.Drop()
	assert.True(t, generic.IsUnique())
	generic.Drop()
}

func TestHandleClonesAreConcurrencySafe(t *testing.T) {
	sink := &recordingSink{}
	id := assetid.NewAssetID()
	s1 := NewStrong[int](1, id, sink)

	var wg sync.WaitGroup
	clones := make([]Strong[int], 50)
	for i := range clones {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clones[i] = s1.Clone()
		}(i)
	}
	wg.Wait()

	for _, c := range clones {
		c.Drop()
	}
	s1.Drop()
	assert.Equal(t, 51, sink.count(Decrease))
}
