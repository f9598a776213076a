// Package tick supplies the per-type Processor the Tick/Process step
// (spec §4.6 step 3) promises will run once its Processing Queue has
// been populated. amethyst_assets models this as a ticked System
// (Processor<A>, see
// _examples/original_source/amethyst_assets/src/processor.go's sibling
// storage.rs Processor) pulling one AssetStorage::process call per
// frame; here it is a plain value a host calls once per tick, after
// Tracker.Process and before the next Tracker.Process.
package tick

import (
	"github.com/ironloom/assets/pkg/assetstore"
	"github.com/ironloom/assets/pkg/handle"
	"github.com/ironloom/assets/pkg/queue"
	"github.com/ironloom/assets/pkg/tracker"
)

// Runnable is satisfied by Processor[D, A] for any D, A; RunProcessors
// takes a slice of these so a host can drive a heterogeneous set of
// per-type processors without the Tracker itself needing to know any of
// their concrete types.
type Runnable interface {
	Run() int
}

// Processor wires one data type's Processing Queue to its Asset Storage,
// reporting every outcome back to a Tracker so LoadState stays in sync.
type Processor[D, A any] struct {
	Storage *assetstore.Storage[A]
	Queue   *queue.ProcessingQueue[D, A]
	Tracker *tracker.Tracker
	// Transform attempts to advance D towards A; see queue.ProcessFunc.
	Transform queue.ProcessFunc[D, A]
}

// Run drains the queue once, installing successes into Storage and
// reporting every terminal outcome to Tracker. It returns the number of
// entries visited.
func (p Processor[D, A]) Run() int {
	return p.Queue.Process(p.Storage, p.Transform, func(h handle.LoadHandle, err error) {
		if p.Tracker != nil {
			p.Tracker.ReportProcessed(h, err)
		}
	})
}

// RunProcessors runs every processor once, in order, returning the total
// number of entries processed across all of them. Order has no
// correctness implication: each processor owns a disjoint queue/storage
// pair.
func RunProcessors(processors ...Runnable) int {
	total := 0
	for _, p := range processors {
		total += p.Run()
	}
	return total
}
