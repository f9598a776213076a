// Package queue implements the Processing Queue (spec §4.3): the hand-off
// point between asynchronous import/deserialization and the
// single-threaded tick that installs finished assets into a Storage.
//
// The queue keeps exactly two lists at any instant: the "current" list
// being drained by Process, and the "next" list catching anything
// enqueued (by producers, or re-queued by a still-loading entry) while
// Process runs. Swapping the two on every call, rather than draining a
// single growing slice in place, bounds the amount of work one Process
// call can do and guarantees an entry can never starve a sibling: every
// entry in the current snapshot is visited exactly once per call.
package queue

import (
	"sync"

	"github.com/ironloom/assets/pkg/assetstore"
	"github.com/ironloom/assets/pkg/handle"
)

// Entry pairs a reserved storage handle with the intermediate data that
// must still be transformed into an asset, or with the error that
// prevented that data from ever arriving (deserialization failure
// upstream of the queue).
type Entry[D any] struct {
	Handle handle.LoadHandle
	Data   D
	Err    error
}

// ProcessingState is the result of attempting to convert intermediate
// data D into asset A during one Process call: either the asset is
// ready (Loaded), or the transform needs another tick with updated
// intermediate data (Loading).
type ProcessingState[D, A any] struct {
	loading bool
	data    D
	asset   A
}

// LoadingState reports the entry is not ready yet; data replaces the
// entry's intermediate data for the next Process call.
func LoadingState[D, A any](data D) ProcessingState[D, A] {
	return ProcessingState[D, A]{loading: true, data: data}
}

// LoadedState reports the entry produced a finished asset to commit.
func LoadedState[D, A any](asset A) ProcessingState[D, A] {
	return ProcessingState[D, A]{asset: asset}
}

// ProcessFunc attempts to advance intermediate data D towards asset A.
type ProcessFunc[D, A any] func(D) (ProcessingState[D, A], error)

// ResultFunc is invoked once per entry that reaches a terminal outcome
// this tick: either a successful commit (err == nil) or a failure. A
// still-loading entry does not invoke ResultFunc; it is silently
// requeued.
type ResultFunc func(h handle.LoadHandle, err error)

// ProcessingQueue is a multi-producer, single-consumer queue from
// intermediate data D to stored asset A.
type ProcessingQueue[D, A any] struct {
	mu      sync.Mutex
	pending []Entry[D]
}

// New constructs an empty ProcessingQueue.
func New[D, A any]() *ProcessingQueue[D, A] {
	return &ProcessingQueue[D, A]{}
}

// Enqueue adds data ready to be attempted on the queue's next Process
// call. Safe to call from any goroutine.
func (q *ProcessingQueue[D, A]) Enqueue(h handle.LoadHandle, data D) {
	q.mu.Lock()
	q.pending = append(q.pending, Entry[D]{Handle: h, Data: data})
	q.mu.Unlock()
}

// EnqueueError adds a handle whose intermediate data failed to arrive
// (e.g. a deserialization error from the import path). Process reports
// it via onResult without invoking fn or touching storage.
func (q *ProcessingQueue[D, A]) EnqueueError(h handle.LoadHandle, err error) {
	q.mu.Lock()
	q.pending = append(q.pending, Entry[D]{Handle: h, Err: err})
	q.mu.Unlock()
}

// Len reports how many entries are currently waiting to be processed.
func (q *ProcessingQueue[D, A]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Forget drops any pending entry for h without reporting a result. Used
// when h's storage slot is freed out from under a still-loading entry
// (I4): without this, a stale Entry for a freed handle could survive to
// clobber whatever new asset later reuses that handle.
func (q *ProcessingQueue[D, A]) Forget(h handle.LoadHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.pending[:0]
	for _, e := range q.pending {
		if e.Handle != h {
			kept = append(kept, e)
		}
	}
	q.pending = kept
}

// Process swaps out the current pending list, then runs fn over each
// entry in it. An entry already carrying an error is reported and
// dropped. Otherwise fn decides the outcome: LoadedState commits the
// asset into storage and reports success; LoadingState requeues the
// entry with updated data for the next Process call, reporting nothing.
// It returns the number of entries visited this call.
func (q *ProcessingQueue[D, A]) Process(storage *assetstore.Storage[A], fn ProcessFunc[D, A], onResult ResultFunc) int {
	q.mu.Lock()
	current := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, entry := range current {
		if entry.Err != nil {
			if onResult != nil {
				onResult(entry.Handle, entry.Err)
			}
			continue
		}

		state, err := fn(entry.Data)
		if err != nil {
			if onResult != nil {
				onResult(entry.Handle, err)
			}
			continue
		}
		if state.loading {
			q.Enqueue(entry.Handle, state.data)
			continue
		}
		storage.UpdateAsset(entry.Handle, state.asset)
		if onResult != nil {
			onResult(entry.Handle, nil)
		}
	}
	return len(current)
}
