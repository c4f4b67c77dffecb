package dethash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashStableAcrossCalls(t *testing.T) {
	a := Hash(map[string]any{"a": 1, "b": []any{1, 2, 3}})
	b := Hash(map[string]any{"b": []any{1, 2, 3}, "a": 1})
	assert.Equal(t, a, b, "map key order must not affect the hash")
}

func TestHashDistinguishesOrder(t *testing.T) {
	a := Hash([]any{1, 2})
	b := Hash([]any{2, 1})
	assert.NotEqual(t, a, b)
}

func TestHashSetIgnoresOrder(t *testing.T) {
	a := Hash(Set[int]{1, 2, 3})
	b := Hash(Set[int]{3, 2, 1})
	assert.Equal(t, a, b)
}

func TestHashLength(t *testing.T) {
	h := Hash("hello")
	require.Len(t, h, 64)
}

func TestHashPrimitives(t *testing.T) {
	assert.NotEqual(t, Hash(1), Hash("1"))
	assert.NotEqual(t, Hash(true), Hash(1))
	assert.Equal(t, Hash(nil), Hash(nil))
}

type customThing struct{ n int }

func (c customThing) DetHashObject() any { return c.n }

func TestCustomDetHash(t *testing.T) {
	// The hook's return value drives the hash...
	assert.NotEqual(t, Hash(customThing{n: 5}), Hash(customThing{n: 6}))
	// ...under its own "custom:" tag, so it never collides with the bare value.
	assert.NotEqual(t, Hash(5), Hash(customThing{n: 5}))
}

type plainStruct struct {
	A int
	B string
	unexported int //nolint:unused
}

func TestStructuralFallback(t *testing.T) {
	a := plainStruct{A: 1, B: "x"}
	b := plainStruct{A: 1, B: "x"}
	c := plainStruct{A: 2, B: "x"}
	assert.Equal(t, Hash(a), Hash(b))
	assert.NotEqual(t, Hash(a), Hash(c))
}
