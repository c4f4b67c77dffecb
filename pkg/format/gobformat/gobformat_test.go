package gobformat_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvonlabs/stepforge/pkg/format/gobformat"
)

func TestWriteReadRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		value any
	}{
		{"int", 42},
		{"string", "hello"},
		{"bool", true},
		{"float", 3.5},
		{"slice", []any{1, "two", 3.0}},
		{"map", map[string]any{"x": 1, "y": []any{"a", "b"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := gobformat.Format{}

			require.NoError(t, f.Write(&buf, tc.value))

			var out any
			require.NoError(t, f.Read(&buf, &out))
			assert.Equal(t, tc.value, out)
		})
	}
}

func TestReadRejectsNonAnyTarget(t *testing.T) {
	var buf bytes.Buffer
	f := gobformat.Format{}
	require.NoError(t, f.Write(&buf, 7))

	var wrongTarget int
	err := f.Read(&buf, &wrongTarget)
	assert.Error(t, err)
}

func TestVersionAndIdentity(t *testing.T) {
	f := gobformat.Format{}
	assert.Equal(t, gobformat.Version, f.Version())

	pkgPath, typeName := f.Identity()
	assert.Equal(t, "github.com/arvonlabs/stepforge/pkg/format/gobformat", pkgPath)
	assert.Equal(t, "Format", typeName)
}
