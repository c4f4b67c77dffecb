package step_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvonlabs/stepforge/pkg/cache/memcache"
	"github.com/arvonlabs/stepforge/pkg/step"
)

func TestDeferredMaterializeResolvesStepArgs(t *testing.T) {
	c := memcache.New()
	add := newAdd(t, 2, 3)

	d := &step.Deferred{
		Name: "makeLabel",
		Args: []any{add},
		Construct: func(args []any, kwargs step.Kwargs) (any, error) {
			return args[0].(int) * 10, nil
		},
	}

	v, err := d.Materialize(c)
	require.NoError(t, err)
	assert.Equal(t, 50, v)
}

func TestDeferredDetHashObjectIsTriple(t *testing.T) {
	d := &step.Deferred{
		Name:   "makeLabel",
		Args:   []any{1, 2},
		Kwargs: step.Kwargs{"k": "v"},
		Construct: func(args []any, kwargs step.Kwargs) (any, error) {
			return nil, nil
		},
	}
	obj := d.DetHashObject()
	require.NotNil(t, obj)
}
