package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{ n int }

func TestInsertAndFetch(t *testing.T) {
	r := New()
	Insert(r, &widget{n: 1})

	got, ok := TryFetch[widget](r)
	require.True(t, ok)
	assert.Equal(t, 1, got.n)
}

func TestFetchMissingReturnsFalse(t *testing.T) {
	r := New()
	_, ok := TryFetch[widget](r)
	assert.False(t, ok)
}

func TestFetchPanicsWhenMissing(t *testing.T) {
	r := New()
	assert.Panics(t, func() { Fetch[widget](r) })
}

func TestFetchOrInsertIsIdempotent(t *testing.T) {
	r := New()
	calls := 0
	create := func() *widget {
		calls++
		return &widget{n: 7}
	}

	first := FetchOrInsert(r, create)
	second := FetchOrInsert(r, create)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestFetchReturnsSamePointerAfterMutation(t *testing.T) {
	r := New()
	Insert(r, &widget{n: 1})

	got := Fetch[widget](r)
	got.n = 42

	again := Fetch[widget](r)
	assert.Equal(t, 42, again.n)
}
