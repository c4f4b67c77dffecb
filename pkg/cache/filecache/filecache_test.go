package filecache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvonlabs/stepforge/pkg/cache/filecache"
	"github.com/arvonlabs/stepforge/pkg/format"
	"github.com/arvonlabs/stepforge/pkg/format/gobformat"
	"github.com/arvonlabs/stepforge/pkg/format/jsonformat"
)

// formattedEntry is a minimal cache.Entry/cache.Formatted fixture so these
// tests can exercise a backend without constructing a real step.Instance.
type formattedEntry struct {
	id string
	f  format.Format
}

func (e formattedEntry) UniqueID() string      { return e.id }
func (e formattedEntry) Format() format.Format { return e.f }

func TestWriteContainsRead(t *testing.T) {
	c, err := filecache.New(t.TempDir())
	require.NoError(t, err)

	e := formattedEntry{id: "step-1", f: jsonformat.Format{}}
	assert.False(t, c.Contains(e))

	require.NoError(t, c.Write(e, map[string]any{"sum": float64(5)}))
	assert.True(t, c.Contains(e))

	v, err := c.Read(e)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sum": float64(5)}, v)
}

// TestGobFormatRoundTrip guards against a format silently failing to read
// back what it wrote: gobformat's Read/Write must round-trip the same
// composite values jsonformat/yamlformat do, including through a real file
// on disk rather than just the in-memory Format() calls gobformat_test.go
// exercises directly.
func TestGobFormatRoundTrip(t *testing.T) {
	c, err := filecache.New(t.TempDir())
	require.NoError(t, err)

	e := formattedEntry{id: "step-gob", f: gobformat.Format{}}
	want := map[string]any{
		"name":  "join",
		"count": 3,
		"items": []any{"a", "b", "c"},
	}

	require.NoError(t, c.Write(e, want))
	require.True(t, c.Contains(e))

	got, err := c.Read(e)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStepDirGrantsPersistentDirectory(t *testing.T) {
	c, err := filecache.New(t.TempDir())
	require.NoError(t, err)

	e := formattedEntry{id: "step-dir", f: jsonformat.Format{}}
	dir, ok := c.StepDir(e)
	require.True(t, ok)
	assert.Contains(t, dir, "step-dir")
}
