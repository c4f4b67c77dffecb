package step_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvonlabs/stepforge/pkg/cache/memcache"
	"github.com/arvonlabs/stepforge/pkg/step"
)

// TestSubstitutionPreservesContainerKind is universal invariant 8, exercised
// indirectly through a step whose kwargs are substituted during Result.
func TestSubstitutionPreservesContainerKind(t *testing.T) {
	c := memcache.New()
	a := newAdd(t, 1, 1)

	s, err := step.New(echoRunner{}, step.Kwargs{
		"seq": []any{a, "leaf", 3},
		"map": step.Kwargs{"sum": a},
	})
	require.NoError(t, err)

	result, err := s.Result(c)
	require.NoError(t, err)

	got := result.(echoResult)
	seq, ok := got.seq.([]any)
	require.True(t, ok, "sequence kwargs must substitute into a []any")
	assert.Equal(t, 2, seq[0])
	assert.Equal(t, "leaf", seq[1])
	assert.Equal(t, 3, seq[2])

	m, ok := got.mapping.(step.Kwargs)
	require.True(t, ok, "mapping kwargs must substitute into the same mapping kind")
	assert.Equal(t, 2, m["sum"])
}

type echoResult struct {
	seq     any
	mapping any
}

type echoRunner struct{}

func (echoRunner) Descriptor() step.Descriptor { return step.Descriptor{Deterministic: true} }

func (echoRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	return echoResult{seq: kwargs["seq"], mapping: kwargs["map"]}, nil
}
