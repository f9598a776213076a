package importsource

import (
	"sync"

	"github.com/ironloom/assets/pkg/assetid"
)

// MemorySource is an in-memory test double for Source: a fixture wires
// up bytes or not-found markers ahead of time via Seed/SeedNotFound, then
// Request simply marks an asset as "fetch requested", and the fixture
// calls Deliver (or relies on Seed having pre-populated the delivery) to
// make Poll return it. It exists for the package's own tests and for
// the demo in cmd/assetdemo; it is not meant to model real latency.
type MemorySource struct {
	mu        sync.Mutex
	seeded    map[assetid.AssetID]ImportedBytes
	notFound  map[assetid.AssetID]bool
	requested map[assetid.AssetID]bool
	ready     []ImportedBytes
	readyNF   []assetid.AssetID
}

// NewMemorySource constructs an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		seeded:    make(map[assetid.AssetID]ImportedBytes),
		notFound:  make(map[assetid.AssetID]bool),
		requested: make(map[assetid.AssetID]bool),
	}
}

// Seed pre-loads bytes for id, so that once Request(id) is called the
// next Poll reports it as imported.
func (m *MemorySource) Seed(id assetid.AssetID, dataTypeID assetid.TypeID, bytes []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeded[id] = ImportedBytes{AssetID: id, DataTypeID: dataTypeID, Bytes: bytes}
}

// SeedNotFound marks id so that once requested, the next Poll reports it
// as not found rather than delivering bytes.
func (m *MemorySource) SeedNotFound(id assetid.AssetID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notFound[id] = true
}

// Request implements Source. It records the request and, if bytes or a
// not-found marker have already been seeded, makes them available to the
// next Poll call.
func (m *MemorySource) Request(id assetid.AssetID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested[id] = true

	if bytes, ok := m.seeded[id]; ok {
		m.ready = append(m.ready, bytes)
		delete(m.seeded, id)
		return
	}
	if m.notFound[id] {
		m.readyNF = append(m.readyNF, id)
		delete(m.notFound, id)
	}
}

// Deliver makes bytes available immediately, regardless of whether
// Request was ever called for id, to simulate a reply arriving for an
// already-requested asset or a hot-reload push.
func (m *MemorySource) Deliver(id assetid.AssetID, dataTypeID assetid.TypeID, bytes []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = append(m.ready, ImportedBytes{AssetID: id, DataTypeID: dataTypeID, Bytes: bytes})
}

// Poll implements Source.
func (m *MemorySource) Poll() PollResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := PollResult{Imported: m.ready, NotFound: m.readyNF}
	m.ready = nil
	m.readyNF = nil
	return result
}

// WasRequested reports whether Request(id) has ever been called, for
// test assertions.
func (m *MemorySource) WasRequested(id assetid.AssetID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requested[id]
}
