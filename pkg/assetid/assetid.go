// Package assetid defines the two 16-byte identifier namespaces used by
// the asset runtime: AssetID, the content-addressed identity of an asset
// assigned at import time, and TypeID, the identity of a data type or
// asset type published by a type registration. Both are opaque: callers
// may compare, hash, and print them, but must not interpret their bytes.
package assetid

import (
	"github.com/google/uuid"
)

// AssetID uniquely identifies an asset across the whole engine. It is
// content-addressed by the import pipeline, not assigned by this module.
type AssetID uuid.UUID

// TypeID identifies either a data type (the deserialized intermediate) or
// an asset type (the processed, in-memory asset). The two are distinct
// namespaces even though both use this type: a TypeRegistry entry keeps
// them in separate maps (see pkg/assetregistry).
type TypeID uuid.UUID

// NilAsset and NilType are the zero values of the two identifier
// namespaces.
var (
	NilAsset = AssetID{}
	NilType  = TypeID{}
)

// NewAssetID mints a fresh random AssetID. Production import pipelines
// derive AssetIDs from content hashes instead; this exists for tests and
// for synthesizing ids in a demo import source.
func NewAssetID() AssetID {
	return AssetID(uuid.New())
}

// NewTypeID mints a fresh random TypeID. Real asset types should instead
// pick a fixed TypeID (e.g. via uuid.NewSHA1 on the Go type's name) so it
// is stable across builds.
func NewTypeID() TypeID {
	return TypeID(uuid.New())
}

// ParseAssetID parses the canonical string form of an AssetID.
func ParseAssetID(s string) (AssetID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AssetID{}, err
	}
	return AssetID(id), nil
}

// ParseTypeID parses the canonical string form of a TypeID.
func ParseTypeID(s string) (TypeID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TypeID{}, err
	}
	return TypeID(id), nil
}

func (a AssetID) String() string { return uuid.UUID(a).String() }
func (t TypeID) String() string  { return uuid.UUID(t).String() }

// IsNil reports whether the id is the zero value.
func (a AssetID) IsNil() bool { return a == NilAsset }
func (t TypeID) IsNil() bool  { return t == NilType }

func (a AssetID) MarshalText() ([]byte, error) { return uuid.UUID(a).MarshalText() }
func (a *AssetID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*a = AssetID(u)
	return nil
}

func (t TypeID) MarshalText() ([]byte, error) { return uuid.UUID(t).MarshalText() }
func (t *TypeID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*t = TypeID(u)
	return nil
}
