package asseterr

import (
	"errors"
	"testing"

	"github.com/ironloom/assets/pkg/assetid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesSentinelByKind(t *testing.T) {
	id := assetid.NewAssetID()
	err := New(KindImport, id, errors.New("bad varint"))

	assert.True(t, errors.Is(err, ErrImportFailed))
	assert.False(t, errors.Is(err, ErrProcessFailed))
}

func TestErrorAsExposesKindAndCause(t *testing.T) {
	id := assetid.NewAssetID()
	cause := errors.New("decode failed")
	err := New(KindProcess, id, cause)

	var assetErr *Error
	require.True(t, errors.As(err, &assetErr))
	assert.Equal(t, KindProcess, assetErr.Kind)
	assert.Equal(t, id, assetErr.AssetID)
	assert.ErrorIs(t, assetErr, ErrProcessFailed)
}

func TestErrorWithoutCauseStillFormats(t *testing.T) {
	err := New(KindNotFound, assetid.NewAssetID(), nil)
	assert.Contains(t, err.Error(), string(KindNotFound))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEachKindHasADistinctSentinel(t *testing.T) {
	kinds := []Kind{KindNotFound, KindImport, KindProcess, KindTypeMismatch}
	seen := map[error]bool{}
	for _, k := range kinds {
		err := New(k, assetid.AssetID{}, nil)
		sentinel := err.Unwrap()
		assert.False(t, seen[sentinel], "sentinel for %s collides with another kind", k)
		seen[sentinel] = true
	}
}
