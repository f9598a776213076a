// Package assetstore implements the per-type Asset Storage (spec §4.2): a
// version-tracked map from LoadHandle to live asset, with deferred
// destruction so that dropping a superseded or freed asset never happens
// while the storage's lock is held.
//
// A Storage[A] has no knowledge of the Load Tracker; it is a passive data
// structure driven by the Processing Queue and by read-side queries,
// mirroring amethyst_assets::AssetStorage<A> (see
// _examples/original_source/amethyst_assets/src/storage.rs) but keyed by a
// plain slot map instead of a bitset + dense vector.
package assetstore

import (
	"sync"

	"github.com/ironloom/assets/pkg/handle"
)

// Slot is what a Storage keeps per occupied LoadHandle.
type Slot[A any] struct {
	Version uint32
	Asset   A
}

// Storage is a concurrent-read, single-writer container mapping
// LoadHandle to Slot[A]. Reads (Get, IsLoaded, GetVersion,
// GetAssetWithVersion) may run from any goroutine; writes (UpdateAsset,
// Mutate, Free) are expected to run from the single tick thread, same as the
// rest of this module's tick-driven subsystems.
type Storage[A any] struct {
	mu    sync.RWMutex
	slots map[handle.LoadHandle]Slot[A]
	free  []handle.LoadHandle
	next  uint32

	dropMu sync.Mutex
	toDrop []A
}

// New constructs an empty Storage.
func New[A any]() *Storage[A] {
	return &Storage[A]{slots: make(map[handle.LoadHandle]Slot[A])}
}

// Allocate reserves a free slot and returns its handle. It does not
// install an asset value: IsLoaded returns false for the new handle until
// UpdateAsset is called on it. Prefer the slot-map's free list over
// minting a new index so that released handles are eventually reused
// (spec P5).
func (s *Storage[A]) Allocate() handle.LoadHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocateLocked()
}

func (s *Storage[A]) allocateLocked() handle.LoadHandle {
	if n := len(s.free); n > 0 {
		h := s.free[n-1]
		s.free = s.free[:n-1]
		return h
	}
	s.next++
	return handle.LoadHandle(s.next)
}

// UpdateAsset installs asset at handle, replacing whatever was previously
// there. If the slot was already occupied the previous asset is moved to
// the deferred-drop queue and the version is bumped; otherwise the
// version starts at 1.
func (s *Storage[A]) UpdateAsset(h handle.LoadHandle, asset A) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, occupied := s.slots[h]
	version := uint32(1)
	if occupied {
		version = old.Version + 1
		s.dropMu.Lock()
		s.toDrop = append(s.toDrop, old.Asset)
		s.dropMu.Unlock()
	}
	s.slots[h] = Slot[A]{Version: version, Asset: asset}
}

// IsLoaded reports whether handle currently names an occupied slot.
func (s *Storage[A]) IsLoaded(h handle.LoadHandle) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.slots[h]
	return ok
}

// Get returns the asset at handle, if any.
func (s *Storage[A]) Get(h handle.LoadHandle) (A, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[h]
	return slot.Asset, ok
}

// GetVersion returns the current version of the slot at handle.
func (s *Storage[A]) GetVersion(h handle.LoadHandle) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[h]
	return slot.Version, ok
}

// GetAssetWithVersion returns both the asset and its version in one
// lookup, for consumers that must detect hot-reload without subscribing
// to notifications.
func (s *Storage[A]) GetAssetWithVersion(h handle.LoadHandle) (asset A, version uint32, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[h]
	return slot.Asset, slot.Version, ok
}

// Mutate runs fn with exclusive access to the asset at handle, if
// present. It takes the place of a get_mut that returns a raw pointer:
// Go's memory model makes handing out an unguarded *A across goroutines
// unsafe, so mutation happens under the same lock as UpdateAsset.
func (s *Storage[A]) Mutate(h handle.LoadHandle, fn func(asset *A)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[h]
	if !ok {
		return false
	}
	fn(&slot.Asset)
	s.slots[h] = slot
	return true
}

// Free removes handle's slot (if any), moving its asset to the
// deferred-drop queue and returning the handle to the free list (I5).
func (s *Storage[A]) Free(h handle.LoadHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[h]
	if !ok {
		return
	}
	delete(s.slots, h)
	s.free = append(s.free, h)
	s.dropMu.Lock()
	s.toDrop = append(s.toDrop, slot.Asset)
	s.dropMu.Unlock()
}

// ProcessDeferredDrops drains the to-drop queue, invoking fn once per
// removed asset. Call once per tick, outside of any storage lock, so fn
// (which may release GPU or native resources) never runs while readers
// are blocked.
func (s *Storage[A]) ProcessDeferredDrops(fn func(A)) {
	s.dropMu.Lock()
	drained := s.toDrop
	s.toDrop = nil
	s.dropMu.Unlock()

	for _, asset := range drained {
		fn(asset)
	}
}

// Len reports the number of occupied slots. Intended for metrics/tests.
func (s *Storage[A]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Cloner is implemented by assets that support CloneAsset.
type Cloner[A any] interface {
	CloneAsset() A
}

// CloneAsset allocates a new handle and deep-copies the asset at h into
// it via A's CloneAsset method, returning the new handle. This is
// distinct from cloning a Strong handle (which aliases the same asset):
// CloneAsset produces an independent copy with its own lifetime,
// mirroring amethyst_assets::AssetStorage::clone_asset.
func CloneAsset[A Cloner[A]](s *Storage[A], h handle.LoadHandle) (handle.LoadHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[h]
	if !ok {
		return 0, false
	}
	newHandle := s.allocateLocked()
	s.slots[newHandle] = Slot[A]{Version: 1, Asset: slot.Asset.CloneAsset()}
	return newHandle, true
}
