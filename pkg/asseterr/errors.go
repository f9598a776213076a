// Package asseterr defines the error kinds the asset runtime must
// distinguish (spec §7): NotFound, ImportError, ProcessError, and
// TypeMismatch. Callers match them with errors.Is / errors.As the same
// way the rest of this module wraps errors with fmt.Errorf("...: %w").
package asseterr

import (
	"errors"
	"fmt"

	"github.com/ironloom/assets/pkg/assetid"
)

// Kind classifies why a load failed.
type Kind string

const (
	// KindNotFound means the import source reported no such asset.
	KindNotFound Kind = "not_found"
	// KindImport means bytes were delivered but failed to deserialize
	// into the intermediate data type.
	KindImport Kind = "import_error"
	// KindProcess means the intermediate->asset transform failed.
	KindProcess Kind = "process_error"
	// KindTypeMismatch means a typed query asked for a type incompatible
	// with the asset's registered type id.
	KindTypeMismatch Kind = "type_mismatch"
)

// Sentinel errors for errors.Is comparisons against the Kind alone,
// independent of which asset triggered it.
var (
	ErrNotFound     = errors.New("asset: not found")
	ErrImportFailed = errors.New("asset: import failed")
	ErrProcessFailed = errors.New("asset: process failed")
	ErrTypeMismatch = errors.New("asset: type mismatch")
)

func sentinelFor(k Kind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindImport:
		return ErrImportFailed
	case KindProcess:
		return ErrProcessFailed
	case KindTypeMismatch:
		return ErrTypeMismatch
	default:
		return errors.New("asset: unknown error")
	}
}

// Error is a wrapped, asset-scoped error carrying enough context for logs
// and for errors.As callers to branch on Kind.
type Error struct {
	Kind    Kind
	AssetID assetid.AssetID
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("asset %s: %s: %v", e.AssetID, e.Kind, e.Cause)
	}
	return fmt.Sprintf("asset %s: %s", e.AssetID, e.Kind)
}

func (e *Error) Unwrap() error {
	return sentinelFor(e.Kind)
}

// New constructs an *Error for the given asset and kind, wrapping cause
// (which may be nil).
func New(kind Kind, id assetid.AssetID, cause error) *Error {
	return &Error{Kind: kind, AssetID: id, Cause: cause}
}
