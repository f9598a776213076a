// Package handle implements the shared-ownership handle model (spec §4.1):
// LoadHandle, the dense index a Storage uses internally, and Strong/Weak,
// the reference-counted handles a caller actually holds. Clone, Drop and a
// successful Upgrade each emit a RefOp onto a RefSink; the Load Tracker is
// the only consumer of that sink and only applies ops from inside its
// single-threaded Process tick (spec §4.5/§4.6), so RefSink implementations
// must never block.
package handle

import (
	"sync/atomic"

	"github.com/ironloom/assets/pkg/assetid"
)

// LoadHandle is the dense, reusable index a Storage keys its slot map by.
// It carries no type information: the same numeric value means different
// things in different per-type Storages.
type LoadHandle uint32

// RefOpKind distinguishes the two operations a handle can emit.
type RefOpKind uint8

const (
	// Increase is emitted when a new Strong handle for an asset comes
	// into existence (initial load, Clone, or a successful Upgrade).
	Increase RefOpKind = iota
	// Decrease is emitted when a Strong handle is dropped.
	Decrease
)

func (k RefOpKind) String() string {
	if k == Increase {
		return "increase"
	}
	return "decrease"
}

// RefOp is one unit of ref-count traffic, identified by the AssetID it
// concerns rather than by LoadHandle, since a generic load() may be issued
// before any storage slot exists for the asset.
type RefOp struct {
	Kind    RefOpKind
	AssetID assetid.AssetID
}

// RefSink receives ref-count operations from handle Clone/Drop/Upgrade.
// Implementations must not block and must not panic; the Load Tracker
// satisfies this with a mutex-guarded append-only buffer drained once per
// tick.
type RefSink interface {
	SendRefOp(op RefOp)
}

// Counter is the shared, atomically-updated strong-handle count backing
// every Strong/Weak alias of one asset. It is allocated once, the first
// time an asset is loaded, and held by pointer from then on so liveness
// checks (IsUnique, Weak.IsDead) never need to consult the tracker.
//
// Counter is exported so a Load Tracker can keep one per AssetID across
// independent load() calls: the generic (type-erased) handle returned by
// an untyped load and any later load_typed[A] for the same asset share
// the same Counter and the same LoadHandle, so Clone/Drop/Upgrade agree
// on liveness no matter which Go type parameter a caller used to observe
// the handle.
type Counter struct {
	strong atomic.Int64
}

// NewCounter allocates a fresh Counter seeded at zero. The Load Tracker
// calls this once per AssetID, the moment load() is first requested for
// it, then immediately wraps it in a Strong handle (which seeds it to 1).
func NewCounter() *Counter {
	return &Counter{}
}

// Strong is a reference-counted, type-tagged handle to an asset that may
// or may not yet be loaded. Copying a Strong by value does NOT clone it:
// callers must call Clone explicitly, mirroring the explicit clone/drop
// contract in spec §4.1 rather than Go's implicit value-copy semantics.
type Strong[A any] struct {
	h    LoadHandle
	id   assetid.AssetID
	c    *Counter
	sink RefSink
}

// NewStrong creates the first Strong handle for an asset, allocating a
// fresh Counter seeded at 1 and emitting Increase. It is for standalone
// use; the Load Tracker does not call it (see NewStrongWithCounter).
func NewStrong[A any](h LoadHandle, assetID assetid.AssetID, sink RefSink) Strong[A] {
	c := NewCounter()
	c.strong.Store(1)
	if sink != nil {
		sink.SendRefOp(RefOp{Kind: Increase, AssetID: assetID})
	}
	return Strong[A]{h: h, id: assetID, c: c, sink: sink}
}

// NewStrongWithCounter creates a Strong handle sharing an existing
// Counter, incrementing it. The Load Tracker uses this for every load()
// call for a given AssetID, the first one included, on a Counter it
// allocated with NewCounter (including a typed
// load_typed[A] observing an asset whose first load was untyped), so
// every alias of one asset — regardless of the Go type parameter used to
// observe it — agrees on liveness.
func NewStrongWithCounter[A any](h LoadHandle, assetID assetid.AssetID, c *Counter, sink RefSink) Strong[A] {
	c.strong.Add(1)
	if sink != nil {
		sink.SendRefOp(RefOp{Kind: Increase, AssetID: assetID})
	}
	return Strong[A]{h: h, id: assetID, c: c, sink: sink}
}

// Handle returns the LoadHandle this strong handle aliases.
func (s Strong[A]) Handle() LoadHandle { return s.h }

// AssetID returns the identity of the asset this handle refers to.
func (s Strong[A]) AssetID() assetid.AssetID { return s.id }

// Clone increments the shared strong count and emits Increase on the
// sink, returning a new Strong aliasing the same asset.
func (s Strong[A]) Clone() Strong[A] {
	s.c.strong.Add(1)
	if s.sink != nil {
		s.sink.SendRefOp(RefOp{Kind: Increase, AssetID: s.id})
	}
	return Strong[A]{h: s.h, id: s.id, c: s.c, sink: s.sink}
}

// Drop releases this handle. It always emits exactly one Decrease,
// balancing the one Increase that created it (via NewStrong, Clone, or
// Upgrade); the tracker, not the local counter, decides when the asset
// itself becomes eligible for eviction (spec §4.6, grace period).
func (s Strong[A]) Drop() {
	s.c.strong.Add(-1)
	if s.sink != nil {
		s.sink.SendRefOp(RefOp{Kind: Decrease, AssetID: s.id})
	}
}

// Downgrade produces a non-owning Weak handle observing the same asset.
func (s Strong[A]) Downgrade() Weak[A] {
	return Weak[A]{h: s.h, id: s.id, c: s.c, sink: s.sink}
}

// IsUnique reports whether this is the only live Strong handle for the
// asset, i.e. whether dropping it would bring the strong count to zero.
func (s Strong[A]) IsUnique() bool {
	return s.c.strong.Load() == 1
}

// Weak is a non-owning observer of a Strong handle's lineage. It can be
// upgraded back into a Strong handle as long as at least one Strong
// handle is still alive.
type Weak[A any] struct {
	h    LoadHandle
	id   assetid.AssetID
	c    *Counter
	sink RefSink
}

// Handle returns the LoadHandle this weak handle observes.
func (w Weak[A]) Handle() LoadHandle { return w.h }

// IsDead reports whether no Strong handle for this asset currently
// exists. It is a point-in-time check: the answer can change the instant
// after it is read if another goroutine concurrently clones or drops a
// sibling handle.
func (w Weak[A]) IsDead() bool {
	return w.c.strong.Load() <= 0
}

// Upgrade attempts to produce a new Strong handle, succeeding iff at
// least one Strong handle for the asset currently exists. On success it
// emits Increase, same as Clone.
func (w Weak[A]) Upgrade() (Strong[A], bool) {
	for {
		cur := w.c.strong.Load()
		if cur <= 0 {
			return Strong[A]{}, false
		}
		if w.c.strong.CompareAndSwap(cur, cur+1) {
			if w.sink != nil {
				w.sink.SendRefOp(RefOp{Kind: Increase, AssetID: w.id})
			}
			return Strong[A]{h: w.h, id: w.id, c: w.c, sink: w.sink}, true
		}
	}
}
