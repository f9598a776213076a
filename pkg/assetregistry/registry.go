// Package assetregistry implements the Type Registry (spec §4.4): a
// process-wide, read-after-init catalog mapping data-type and asset-type
// ids to closures that construct a type's Asset Storage and Processing
// Queue and that expose a type-erased AssetTypeStorage view of them.
//
// The Load Tracker is monomorphic — it knows nothing about mesh, audio,
// or texture Go types — so dispatch into the right Storage[A]/
// ProcessingQueue[D,A] pair happens through these closures, captured at
// Register time, instead of through runtime type switches.
package assetregistry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ironloom/assets/pkg/assetid"
	"github.com/ironloom/assets/pkg/assetstore"
	"github.com/ironloom/assets/pkg/handle"
	"github.com/ironloom/assets/pkg/queue"
	"github.com/ironloom/assets/pkg/resources"
	"gopkg.in/yaml.v3"
)

// AssetTypeStorage is the type-erased capability the Load Tracker drives:
// it can allocate a slot, feed it raw bytes, query occupancy, and free
// it, all without knowing the concrete data or asset Go types.
type AssetTypeStorage interface {
	Allocate() handle.LoadHandle
	// UpdateAsset decodes bytes into the type's intermediate data and
	// enqueues it on the type's Processing Queue. It does not install
	// the final asset directly: that happens when a Processor later
	// drains the queue.
	UpdateAsset(h handle.LoadHandle, bytes []byte) error
	IsLoaded(h handle.LoadHandle) bool
	Free(h handle.LoadHandle)
	// Forget drops any queue entry still pending for h. Called
	// alongside Free when a handle is evicted, so a still-loading
	// entry never outlives the slot it was headed for (I4).
	Forget(h handle.LoadHandle)
	// QueueLen reports how many entries are currently waiting on the
	// type's Processing Queue, for the tracker's per-tick gauges.
	QueueLen() int
}

// Decoder turns raw imported bytes into a type's intermediate data.
type Decoder[D any] func([]byte) (D, error)

type typeStorage[D, A any] struct {
	storage *assetstore.Storage[A]
	queue   *queue.ProcessingQueue[D, A]
	decode  Decoder[D]
}

func (t *typeStorage[D, A]) Allocate() handle.LoadHandle { return t.storage.Allocate() }

func (t *typeStorage[D, A]) UpdateAsset(h handle.LoadHandle, bytes []byte) error {
	data, err := t.decode(bytes)
	if err != nil {
		t.queue.EnqueueError(h, err)
		return err
	}
	t.queue.Enqueue(h, data)
	return nil
}

func (t *typeStorage[D, A]) IsLoaded(h handle.LoadHandle) bool { return t.storage.IsLoaded(h) }
func (t *typeStorage[D, A]) Free(h handle.LoadHandle)          { t.storage.Free(h) }
func (t *typeStorage[D, A]) Forget(h handle.LoadHandle)        { t.queue.Forget(h) }
func (t *typeStorage[D, A]) QueueLen() int                     { return t.queue.Len() }

// TypeDescriptor is the record published by a call to Register: the pair
// of type ids an asset type is known by, plus the closures that create
// its storage and expose its type-erased view. DebugName is an optional
// human string (supplemented from amethyst_assets' Processed::Asset.name)
// used as the QueueDepths label and included in DumpYAML; it is not
// added to log lines. Absent by default.
type TypeDescriptor struct {
	DataTypeID   assetid.TypeID
	AssetTypeID  assetid.TypeID
	DebugName    string
	CreateStorage func(r *resources.Resources)
	WithStorage   func(r *resources.Resources) (AssetTypeStorage, bool)
}

var (
	mu          sync.RWMutex
	byDataType  = map[assetid.TypeID]TypeDescriptor{}
	byAssetType = map[assetid.TypeID]TypeDescriptor{}
)

// Register publishes a TypeDescriptor for asset type A, whose
// intermediate data type is D, keyed by the given data-type and
// asset-type ids. Call at program initialization (e.g. from an init()
// func in the package that defines A); registration has no ordering
// requirement with other Register calls.
func Register[D, A any](dataTypeID, assetTypeID assetid.TypeID, decode Decoder[D], debugName string) {
	desc := TypeDescriptor{
		DataTypeID:  dataTypeID,
		AssetTypeID: assetTypeID,
		DebugName:   debugName,
		CreateStorage: func(r *resources.Resources) {
			resources.FetchOrInsert(r, func() *assetstore.Storage[A] { return assetstore.New[A]() })
			resources.FetchOrInsert(r, func() *queue.ProcessingQueue[D, A] { return queue.New[D, A]() })
		},
		WithStorage: func(r *resources.Resources) (AssetTypeStorage, bool) {
			storage, ok := resources.TryFetch[assetstore.Storage[A]](r)
			if !ok {
				return nil, false
			}
			q, ok := resources.TryFetch[queue.ProcessingQueue[D, A]](r)
			if !ok {
				return nil, false
			}
			return &typeStorage[D, A]{storage: storage, queue: q, decode: decode}, true
		},
	}

	mu.Lock()
	defer mu.Unlock()
	byDataType[dataTypeID] = desc
	byAssetType[assetTypeID] = desc
}

// Reset clears all registrations. Exists for test isolation, since
// Register publishes to process-wide state.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	byDataType = map[assetid.TypeID]TypeDescriptor{}
	byAssetType = map[assetid.TypeID]TypeDescriptor{}
}

// InitStorage creates, inside r, the Asset Storage and Processing Queue
// for every currently registered type that does not already have one.
// Idempotent: safe to call once at startup and again after further
// registrations.
func InitStorage(r *resources.Resources) {
	mu.RLock()
	descs := make([]TypeDescriptor, 0, len(byDataType))
	for _, d := range byDataType {
		descs = append(descs, d)
	}
	mu.RUnlock()

	for _, d := range descs {
		d.CreateStorage(r)
	}
}

// WithStorageFor looks up the descriptor registered for dataTypeID and,
// if found and its storage has been initialized in r, invokes fn with a
// type-erased AssetTypeStorage view. Returns false if either lookup
// fails.
func WithStorageFor(dataTypeID assetid.TypeID, r *resources.Resources, fn func(AssetTypeStorage)) bool {
	mu.RLock()
	desc, ok := byDataType[dataTypeID]
	mu.RUnlock()
	if !ok {
		return false
	}
	ts, ok := desc.WithStorage(r)
	if !ok {
		return false
	}
	fn(ts)
	return true
}

// QueueDepths reports the current Processing Queue length of every
// registered type whose storage has been initialized in r, keyed by the
// type's debug name (falling back to its data-type id when no debug name
// was given at Register time). The Load Tracker uses this once per tick
// to publish assetmetrics.QueueDepth.
func QueueDepths(r *resources.Resources) map[string]int {
	mu.RLock()
	descs := make([]TypeDescriptor, 0, len(byDataType))
	for _, d := range byDataType {
		descs = append(descs, d)
	}
	mu.RUnlock()

	depths := make(map[string]int, len(descs))
	for _, d := range descs {
		ts, ok := d.WithStorage(r)
		if !ok {
			continue
		}
		label := d.DebugName
		if label == "" {
			label = d.DataTypeID.String()
		}
		depths[label] = ts.QueueLen()
	}
	return depths
}

// AssetTypeIDFor returns the asset-type id registered against dataTypeID,
// used by the Load Tracker to validate load_typed's compile-time
// expectation once a data type has been resolved.
func AssetTypeIDFor(dataTypeID assetid.TypeID) (assetid.TypeID, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := byDataType[dataTypeID]
	if !ok {
		return assetid.TypeID{}, false
	}
	return d.AssetTypeID, true
}

// diagnosticRow is the YAML-serializable projection of a TypeDescriptor.
type diagnosticRow struct {
	DataTypeID  string `yaml:"data_type_id"`
	AssetTypeID string `yaml:"asset_type_id"`
	DebugName   string `yaml:"debug_name,omitempty"`
}

// DumpYAML renders every registered (data_type_id, asset_type_id) pair
// as YAML, for operators to print at startup and confirm what a running
// process actually has registered.
func DumpYAML() ([]byte, error) {
	mu.RLock()
	rows := make([]diagnosticRow, 0, len(byDataType))
	for _, d := range byDataType {
		rows = append(rows, diagnosticRow{
			DataTypeID:  d.DataTypeID.String(),
			AssetTypeID: d.AssetTypeID.String(),
			DebugName:   d.DebugName,
		})
	}
	mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].DataTypeID < rows[j].DataTypeID })

	out, err := yaml.Marshal(map[string]any{"registered_types": rows})
	if err != nil {
		return nil, fmt.Errorf("assetregistry: marshal diagnostic dump: %w", err)
	}
	return out, nil
}
