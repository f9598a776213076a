package assetid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssetIDsAreDistinctAndNonNil(t *testing.T) {
	a := NewAssetID()
	b := NewAssetID()
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsNil())
}

func TestNilAssetIDIsNil(t *testing.T) {
	assert.True(t, NilAsset.IsNil())
	assert.True(t, NilType.IsNil())
}

func TestAssetIDRoundTripsThroughString(t *testing.T) {
	id := NewAssetID()
	parsed, err := ParseAssetID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestTypeIDRoundTripsThroughString(t *testing.T) {
	id := NewTypeID()
	parsed, err := ParseTypeID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseAssetIDRejectsGarbage(t *testing.T) {
	_, err := ParseAssetID("not-a-uuid")
	assert.Error(t, err)
}

func TestAssetIDMarshalTextRoundTrip(t *testing.T) {
	id := NewAssetID()
	b, err := id.MarshalText()
	require.NoError(t, err)

	var decoded AssetID
	require.NoError(t, decoded.UnmarshalText(b))
	assert.Equal(t, id, decoded)
}
