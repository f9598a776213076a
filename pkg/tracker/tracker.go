// Package tracker implements the Load Tracker (C5) and the Tick/Process
// step (C6): reference counting per AssetID, the LoadState machine, the
// ref-op channel, and the one-call-per-frame sequence that drains it,
// polls the import source, allocates storage, and sweeps evicted assets.
//
// Handle clone/drop/upgrade run on any goroutine and only ever touch a
// Tracker through SendRefOp (implementing handle.RefSink) or through the
// identity map's own mutex; every other piece of Tracker state is owned
// exclusively by whichever goroutine calls Process, once per tick — the
// same "cooperative single-threaded tracker" trade a ticker-driven
// reconciliation loop makes elsewhere in this codebase.
package tracker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ironloom/assets/internal/assetlog"
	"github.com/ironloom/assets/internal/assetmetrics"
	"github.com/ironloom/assets/pkg/assetid"
	"github.com/ironloom/assets/pkg/assetregistry"
	"github.com/ironloom/assets/pkg/asseterr"
	"github.com/ironloom/assets/pkg/handle"
	"github.com/ironloom/assets/pkg/importsource"
	"github.com/ironloom/assets/pkg/resources"
)

// Config configures a Tracker. The zero value is usable: a grace period
// of zero is treated as one tick, matching spec.md's fixed "one full
// tick must pass" rule.
type Config struct {
	// GracePeriodTicks is how many full Process ticks a zero refcount
	// must survive before its slot is freed. Zero defaults to 1.
	GracePeriodTicks int
}

func (c Config) gracePeriodTicks() int {
	if c.GracePeriodTicks <= 0 {
		return 1
	}
	return c.GracePeriodTicks
}

// identity is the concurrency-safe half of an asset's bookkeeping: the
// shared refcount Counter and the LoadHandle minted for it. Load and
// LoadTyped read and write this under identityMu from any goroutine.
type identity struct {
	counter *handle.Counter
	h       handle.LoadHandle
}

// trackerState is the tick-owned half of an asset's bookkeeping. Only
// Process (and the Load/LoadTyped fast path that seeds refCount via
// ref-ops, applied during Process) may touch it.
type trackerState struct {
	state               LoadState
	dataTypeID          assetid.TypeID
	refCount            int64
	graceTicksRemaining int
	err                 error
}

// handleAllocator is a process-wide, free-list-backed source of
// LoadHandle values shared across every asset type a Tracker tracks.
// Centralizing it here (rather than minting per-type, as Asset Storage
// does for direct/standalone use) is what lets load() hand back a
// LoadHandle before the asset's type is known.
type handleAllocator struct {
	mu   sync.Mutex
	free []handle.LoadHandle
	next uint32
}

func (a *handleAllocator) allocate() handle.LoadHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		return h
	}
	a.next++
	return handle.LoadHandle(a.next)
}

func (a *handleAllocator) release(h handle.LoadHandle) {
	a.mu.Lock()
	a.free = append(a.free, h)
	a.mu.Unlock()
}

// Tracker is the Load Tracker. Construct one per independent engine
// instance (it is not a package-level global, unlike the Type Registry)
// so tests can run several in isolation.
type Tracker struct {
	source importsource.Source
	grace  int

	identityMu    sync.Mutex
	identities    map[assetid.AssetID]*identity
	handleToAsset map[handle.LoadHandle]assetid.AssetID
	allocator     handleAllocator

	refOpsMu sync.Mutex
	refOps   []handle.RefOp

	// processMu is held for the duration of Process, guarding
	// trackerState, so that Process calls from two goroutines at once
	// run one after the other instead of racing.
	processMu sync.Mutex
	states    map[assetid.AssetID]*trackerState
}

// New constructs a Tracker that pulls bytes from source.
func New(source importsource.Source, cfg Config) *Tracker {
	return &Tracker{
		source:        source,
		grace:         cfg.gracePeriodTicks(),
		identities:    make(map[assetid.AssetID]*identity),
		handleToAsset: make(map[handle.LoadHandle]assetid.AssetID),
		states:        make(map[assetid.AssetID]*trackerState),
	}
}

// SendRefOp implements handle.RefSink. It must never block: Clone/Drop/
// Upgrade call it synchronously from arbitrary goroutines.
func (t *Tracker) SendRefOp(op handle.RefOp) {
	t.refOpsMu.Lock()
	t.refOps = append(t.refOps, op)
	t.refOpsMu.Unlock()
}

func (t *Tracker) identityFor(id assetid.AssetID) *identity {
	t.identityMu.Lock()
	defer t.identityMu.Unlock()
	ident, ok := t.identities[id]
	if !ok {
		ident = &identity{counter: handle.NewCounter(), h: t.allocator.allocate()}
		t.identities[id] = ident
		t.handleToAsset[ident.h] = id
	}
	return ident
}

// Load returns a type-erased strong handle for id, requesting an import
// if this is the first live reference. If id is already tracked, the
// returned handle aliases the existing asset and its ref count is
// incremented instead.
func (t *Tracker) Load(id assetid.AssetID) handle.Strong[any] {
	ident := t.identityFor(id)
	return handle.NewStrongWithCounter[any](ident.h, id, ident.counter, t)
}

// LoadTyped is Load, additionally checking that expectedAssetTypeID
// matches the asset-type id already resolved for id (if any has been
// resolved yet — an id never before imported has nothing to check
// against and proceeds optimistically). On mismatch it logs a warning
// and returns ok=false without any ref-count or storage effect.
//
// This is a free function, not a method, because Go methods cannot
// introduce their own type parameters.
func LoadTyped[A any](t *Tracker, id assetid.AssetID, expectedAssetTypeID assetid.TypeID) (handle.Strong[A], bool) {
	t.processMu.Lock()
	st, tracked := t.states[id]
	var resolvedDataType assetid.TypeID
	if tracked {
		resolvedDataType = st.dataTypeID
	}
	t.processMu.Unlock()

	if tracked && !resolvedDataType.IsNil() {
		if actual, ok := assetregistry.AssetTypeIDFor(resolvedDataType); ok && actual != expectedAssetTypeID {
			assetlog.WithAssetID(id).Warn().
				Str("expected_asset_type_id", expectedAssetTypeID.String()).
				Str("actual_asset_type_id", actual.String()).
				Msg("load_typed: asset type mismatch")
			return handle.Strong[A]{}, false
		}
	}

	ident := t.identityFor(id)
	return handle.NewStrongWithCounter[A](ident.h, id, ident.counter, t), true
}

// GetLoadStatus returns id's current LoadState. Untracked ids report
// NotRequested.
func (t *Tracker) GetLoadStatus(id assetid.AssetID) LoadState {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	st, ok := t.states[id]
	if !ok {
		return NotRequested
	}
	return st.state
}

// LoadError returns the recorded error for id, if its state is Error.
func (t *Tracker) LoadError(id assetid.AssetID) error {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	st, ok := t.states[id]
	if !ok {
		return nil
	}
	return st.err
}

func (t *Tracker) stateFor(id assetid.AssetID) *trackerState {
	st, ok := t.states[id]
	if !ok {
		st = &trackerState{}
		t.states[id] = st
	}
	return st
}

// ReportProcessed is how a per-type Processor (pkg/tick) tells the
// Tracker that the Processing Queue entry for h reached a terminal
// outcome: err == nil means the asset was committed into storage. Any
// other value is either a transform failure, recorded as KindProcess, or
// a decode failure the queue is passing back, which handleImported has
// already recorded as KindImport and which is left as recorded.
func (t *Tracker) ReportProcessed(h handle.LoadHandle, err error) {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	t.identityMu.Lock()
	id, ok := t.handleToAsset[h]
	t.identityMu.Unlock()
	if !ok {
		return
	}

	st := t.stateFor(id)
	if err != nil {
		var prev *asseterr.Error
		if st.state == Error && errors.As(st.err, &prev) && prev.Kind == asseterr.KindImport && errors.Is(prev.Cause, err) {
			return
		}
		st.state = Error
		st.err = asseterr.New(asseterr.KindProcess, id, err)
		assetlog.WithAssetID(id).Warn().Err(err).Msg("processing failed")
		return
	}

	if st.state == Loaded {
		assetmetrics.HotReloadsTotal.Inc()
	}
	if st.refCount <= 0 {
		assetlog.WithAssetID(id).Warn().Msg("update_asset completed for an asset with zero references")
	}
	st.state = Loaded
	st.err = nil
}

// Process runs one tick: drains the ref-op channel, polls the import
// source, routes completed imports into the correct Processing Queue via
// the Type Registry, and sweeps assets whose refcount has been zero for
// a full grace period.
func (t *Tracker) Process(r *resources.Resources) {
	timer := assetmetrics.NewTimer()
	defer timer.ObserveDuration(assetmetrics.ProcessTickDuration)

	t.processMu.Lock()
	defer t.processMu.Unlock()

	t.drainRefOps()
	t.pollImportSource(r)
	t.sweepEvictions(r)
	t.updateGauges(r)
}

func (t *Tracker) drainRefOps() {
	t.refOpsMu.Lock()
	ops := t.refOps
	t.refOps = nil
	t.refOpsMu.Unlock()

	for _, op := range ops {
		st := t.stateFor(op.AssetID)
		switch op.Kind {
		case handle.Increase:
			st.refCount++
			st.graceTicksRemaining = 0
			assetmetrics.RefOpsTotal.WithLabelValues("increase").Inc()
			if st.refCount == 1 && (st.state == NotRequested || st.state == Error || st.state == DoesNotExist) {
				st.state = Loading
				t.source.Request(op.AssetID)
			}
		case handle.Decrease:
			st.refCount--
			assetmetrics.RefOpsTotal.WithLabelValues("decrease").Inc()
		}
	}
}

func (t *Tracker) pollImportSource(r *resources.Resources) {
	result := t.source.Poll()

	for _, imported := range result.Imported {
		t.handleImported(r, imported)
	}
	for _, id := range result.NotFound {
		st := t.stateFor(id)
		st.state = DoesNotExist
	}
}

func (t *Tracker) handleImported(r *resources.Resources, imported importsource.ImportedBytes) {
	st := t.stateFor(imported.AssetID)
	st.dataTypeID = imported.DataTypeID

	t.identityMu.Lock()
	ident, ok := t.identities[imported.AssetID]
	t.identityMu.Unlock()
	if !ok {
		assetlog.WithAssetID(imported.AssetID).Warn().Msg("import delivered for an asset with no live handle")
		return
	}

	registered := assetregistry.WithStorageFor(imported.DataTypeID, r, func(ts assetregistry.AssetTypeStorage) {
		if err := ts.UpdateAsset(ident.h, imported.Bytes); err != nil {
			st.state = Error
			st.err = asseterr.New(asseterr.KindImport, imported.AssetID, err)
			assetlog.WithAssetID(imported.AssetID).Warn().Err(err).Msg("decode failed")
		}
	})
	if !registered {
		st.state = Error
		st.err = asseterr.New(asseterr.KindProcess, imported.AssetID,
			fmt.Errorf("no type registered for data type %s", imported.DataTypeID))
		assetlog.WithTypeID(imported.DataTypeID).Error().Msg("import delivered an unregistered data type")
	}
}

func (t *Tracker) sweepEvictions(r *resources.Resources) {
	for id, st := range t.states {
		if st.refCount > 0 {
			st.graceTicksRemaining = 0
			continue
		}
		if st.state == NotRequested {
			continue
		}
		if st.graceTicksRemaining == 0 {
			st.graceTicksRemaining = t.grace
			continue
		}
		st.graceTicksRemaining--
		if st.graceTicksRemaining > 0 {
			continue
		}

		t.evict(r, id, st)
	}
}

func (t *Tracker) evict(r *resources.Resources, id assetid.AssetID, st *trackerState) {
	t.identityMu.Lock()
	ident, ok := t.identities[id]
	if ok {
		delete(t.identities, id)
		delete(t.handleToAsset, ident.h)
	}
	t.identityMu.Unlock()

	if ok {
		if !st.dataTypeID.IsNil() {
			assetregistry.WithStorageFor(st.dataTypeID, r, func(ts assetregistry.AssetTypeStorage) {
				ts.Forget(ident.h)
				ts.Free(ident.h)
			})
		}
		t.allocator.release(ident.h)
	}

	st.state = NotRequested
	st.graceTicksRemaining = 0
	st.err = nil
	assetmetrics.EvictionsTotal.Inc()
}

func (t *Tracker) updateGauges(r *resources.Resources) {
	var loading, loaded, errored float64
	for _, st := range t.states {
		switch st.state {
		case Loading:
			loading++
		case Loaded:
			loaded++
		case Error, DoesNotExist:
			errored++
		}
	}
	assetmetrics.AssetsLoading.Set(loading)
	assetmetrics.AssetsLoaded.Set(loaded)
	assetmetrics.AssetsErrored.Set(errored)

	for label, depth := range assetregistry.QueueDepths(r) {
		assetmetrics.QueueDepth.WithLabelValues(label).Set(float64(depth))
	}
}
