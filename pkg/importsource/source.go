// Package importsource defines the Import Source collaborator (spec §6):
// the external service — network or filesystem — that supplies the raw
// bytes a Load Tracker asks for. The core only consumes this interface;
// concrete decoders and the network/filesystem client that implements it
// are explicitly out of scope (spec §1).
package importsource

import "github.com/ironloom/assets/pkg/assetid"

// ImportedBytes is one completed import: the raw bytes for an asset,
// tagged with the registered data-type id a Type Registry lookup needs
// to route them to the right Processing Queue.
type ImportedBytes struct {
	AssetID    assetid.AssetID
	DataTypeID assetid.TypeID
	Bytes      []byte
}

// PollResult is everything a Source has to report since the last Poll
// call: completed imports, and ids the source has determined do not
// exist (report_unknown in spec §6, folded into the pull model instead
// of a separate push-style callback).
type PollResult struct {
	Imported []ImportedBytes
	NotFound []assetid.AssetID
}

// Source is the interface the Load Tracker drives. Implementations must
// not block inside Poll: if fetching is slow, queue the work elsewhere
// and let Poll return whatever has completed so far.
type Source interface {
	// Request begins fetching bytes for asset_id. Called at most once
	// per 0->1 ref-count transition; a Source that is already fetching
	// id may treat a repeat Request as a no-op.
	Request(id assetid.AssetID)
	// Poll returns everything completed since the last Poll call.
	Poll() PollResult
}
