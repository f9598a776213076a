// Command assetdemo wires the Type Registry, Asset Storage, Processing
// Queue, Load Tracker, and Tick/Process step together end to end against a
// MemorySource, so the library's contract can be watched tick by tick
// instead of only read from _test.go files. It registers one asset type
// ("text": raw bytes decoded into a string, upper-cased on commit) and
// drives it through a load, a hot reload, and a ref-count eviction.
package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/ironloom/assets/internal/assetlog"
	"github.com/ironloom/assets/pkg/assetid"
	"github.com/ironloom/assets/pkg/assetregistry"
	"github.com/ironloom/assets/pkg/assetstore"
	"github.com/ironloom/assets/pkg/importsource"
	"github.com/ironloom/assets/pkg/queue"
	"github.com/ironloom/assets/pkg/resources"
	"github.com/ironloom/assets/pkg/tick"
	"github.com/ironloom/assets/pkg/tracker"
)

// rawText is the intermediate data type: exactly the decoded bytes.
type rawText struct{ body string }

// textAsset is the processed asset type a game or tool would actually hold
// a handle to.
type textAsset struct{ body string }

func decodeText(b []byte) (rawText, error) {
	if len(b) == 0 {
		return rawText{}, fmt.Errorf("text asset: empty payload")
	}
	return rawText{body: string(b)}, nil
}

var (
	textDataType  = assetid.NewTypeID()
	textAssetType = assetid.NewTypeID()
)

func main() {
	ticks := flag.Int("ticks", 6, "number of Process ticks to run")
	jsonLogs := flag.Bool("json-logs", false, "emit logs as JSON instead of console format")
	flag.Parse()

	assetlog.Init(assetlog.Config{Level: assetlog.InfoLevel, JSONOutput: *jsonLogs})
	log := assetlog.WithComponent("assetdemo")

	assetregistry.Register[rawText, textAsset](textDataType, textAssetType, decodeText, "text")

	r := resources.New()
	assetregistry.InitStorage(r)

	source := importsource.NewMemorySource()
	trk := tracker.New(source, tracker.Config{GracePeriodTicks: 1})

	storage := resources.Fetch[assetstore.Storage[textAsset]](r)
	q := resources.Fetch[queue.ProcessingQueue[rawText, textAsset]](r)

	processor := tick.Processor[rawText, textAsset]{
		Storage: storage,
		Queue:   q,
		Tracker: trk,
		Transform: func(d rawText) (queue.ProcessingState[rawText, textAsset], error) {
			return queue.LoadedState[rawText, textAsset](textAsset{body: strings.ToUpper(d.body)}), nil
		},
	}

	id := assetid.NewAssetID()
	source.Seed(id, textDataType, []byte("hello from the asset runtime"))

	log.Info().Stringer("asset_id", id).Msg("loading asset")
	strong := trk.Load(id)

	for i := 0; i < *ticks; i++ {
		trk.Process(r)
		visited := tick.RunProcessors(processor)
		storage.ProcessDeferredDrops(func(dropped textAsset) {
			log.Info().Str("dropped_body", dropped.body).Msg("deferred drop ran")
		})

		status := trk.GetLoadStatus(id)
		log.Info().
			Int("tick", i).
			Int("entries_processed", visited).
			Str("status", status.String()).
			Msg("tick complete")

		switch i {
		case 1:
			// Hot reload: push new bytes for the same id.
			log.Info().Msg("delivering hot reload")
			source.Deliver(id, textDataType, []byte("hello again, reloaded"))
		case 3:
			if asset, ok := storage.Get(strong.Handle()); ok {
				log.Info().Str("body", asset.body).Msg("current asset contents")
			}
			log.Info().Msg("dropping last strong handle")
			strong.Drop()
		}

		time.Sleep(10 * time.Millisecond)
	}

	log.Info().Str("final_status", trk.GetLoadStatus(id).String()).Msg("demo finished")

	if dump, err := assetregistry.DumpYAML(); err == nil {
		fmt.Println("registered types:")
		fmt.Println(string(dump))
	}
}
