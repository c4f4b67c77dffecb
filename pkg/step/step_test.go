package step_test

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvonlabs/stepforge/pkg/cache/memcache"
	"github.com/arvonlabs/stepforge/pkg/step"
)

// addRunner is the S1/S4 "Add" step: deterministic, cacheable, no VERSION.
type addRunner struct {
	version string
}

func (r addRunner) Descriptor() step.Descriptor {
	return step.Descriptor{Deterministic: true, Version: r.version}
}

func (addRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	a := kwargs["a"].(int)
	b := kwargs["b"].(int)
	return a + b, nil
}

func newAdd(t *testing.T, a, b int, opts ...step.Option) *step.Instance[addRunner] {
	t.Helper()
	inst, err := step.New(addRunner{}, step.Kwargs{"a": a, "b": b}, opts...)
	require.NoError(t, err)
	return inst
}

// TestIdentityStability is scenario S1.
func TestIdentityStability(t *testing.T) {
	a1 := newAdd(t, 1, 2)
	a2 := newAdd(t, 1, 2)
	assert.Equal(t, a1.UniqueID(), a2.UniqueID())

	a3 := newAdd(t, 2, 1)
	assert.NotEqual(t, a1.UniqueID(), a3.UniqueID())
}

// TestVersionInvalidates is scenario S2.
func TestVersionInvalidates(t *testing.T) {
	v1, err := step.New(addRunner{version: "v1"}, step.Kwargs{"a": 1, "b": 2})
	require.NoError(t, err)
	v2, err := step.New(addRunner{version: "v2"}, step.Kwargs{"a": 1, "b": 2})
	require.NoError(t, err)

	assert.NotEqual(t, v1.UniqueID(), v2.UniqueID())

	pattern := regexp.MustCompile(`^addRunner-v[12]-[A-Za-z0-9]{32}$`)
	assert.Regexp(t, pattern, v1.UniqueID())
	assert.Regexp(t, pattern, v2.UniqueID())
}

func TestBadVersionRejected(t *testing.T) {
	_, err := step.New(addRunner{version: "bad version!"}, step.Kwargs{"a": 1, "b": 2})
	assert.Error(t, err)
}

// counterRunner is the S3 "Counter" step: a module-visible counter bumped by Run.
type counterRunner struct {
	counter *int
}

func (counterRunner) Descriptor() step.Descriptor {
	return step.Descriptor{Deterministic: true}
}

func (r counterRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	*r.counter++
	return *r.counter, nil
}

// TestCacheMemoization is scenario S3.
func TestCacheMemoization(t *testing.T) {
	counter := 0
	c := memcache.New()
	s, err := step.New(counterRunner{counter: &counter}, step.Kwargs{})
	require.NoError(t, err)

	v1, err := s.Result(c)
	require.NoError(t, err)
	v2, err := s.Result(c)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, counter)
}

// mulRunner is the S4 "Mul" step.
type mulRunner struct{}

func (mulRunner) Descriptor() step.Descriptor { return step.Descriptor{Deterministic: true} }

func (mulRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	x := kwargs["x"].(int)
	y := kwargs["y"].(int)
	return x * y, nil
}

// TestDependencySubstitution is scenario S4.
func TestDependencySubstitution(t *testing.T) {
	c := memcache.New()
	add := newAdd(t, 2, 3)
	mul, err := step.New(mulRunner{}, step.Kwargs{"x": add, "y": 4})
	require.NoError(t, err)

	result, err := mul.Result(c)
	require.NoError(t, err)
	assert.Equal(t, 20, result)

	assert.True(t, c.Contains(add))
	assert.True(t, c.Contains(mul))
}

// ndRunner is the S6 non-deterministic step.
type ndRunner struct {
	cacheable step.Cacheable
}

func (r ndRunner) Descriptor() step.Descriptor {
	return step.Descriptor{Deterministic: false, Cacheable: r.cacheable}
}

func (ndRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	return rc.Rand.Int(), nil
}

// TestNonDeterministicForbidsCachingByDefault is scenario S6.
func TestNonDeterministicForbidsCachingByDefault(t *testing.T) {
	nd, err := step.New(ndRunner{}, step.Kwargs{})
	require.NoError(t, err)
	assert.False(t, nd.CacheResults())

	_, err = step.New(ndRunner{cacheable: step.CacheableFalse}, step.Kwargs{}, step.WithCacheResults(true))
	assert.Error(t, err)
}

// TestTwoFreshNonDeterministicInstancesDiffer is universal invariant 2.
func TestTwoFreshNonDeterministicInstancesDiffer(t *testing.T) {
	a, err := step.New(ndRunner{}, step.Kwargs{})
	require.NoError(t, err)
	b, err := step.New(ndRunner{}, step.Kwargs{})
	require.NoError(t, err)
	assert.NotEqual(t, a.UniqueID(), b.UniqueID())
}

// lazyRunner is the S7 lazy-sequence step.
type lazyRunner struct{}

func (lazyRunner) Descriptor() step.Descriptor { return step.Descriptor{Deterministic: true} }

func (lazyRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	return func(yield func(any) bool) {
		for _, v := range []int{1, 2, 3} {
			if !yield(v) {
				return
			}
		}
	}, nil
}

// TestLazyResultIsReplayable is scenario S7.
func TestLazyResultIsReplayable(t *testing.T) {
	c := memcache.New()
	s, err := step.New(lazyRunner{}, step.Kwargs{})
	require.NoError(t, err)

	first, err := s.Result(c)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, first)

	second, err := s.Result(c)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, second)
}

// workDirRunner records whether its work dir existed during Run and whether
// the same runner instance is entered re-entrantly.
type workDirRunner struct {
	existedDuringRun *bool
}

func (workDirRunner) Descriptor() step.Descriptor { return step.Descriptor{Deterministic: true} }

func (r workDirRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	info, err := os.Stat(rc.WorkDir())
	*r.existedDuringRun = err == nil && info.IsDir()
	return "ok", nil
}

// TestWorkDirExistsDuringRunAndCleanedUpWithoutPersistentCache is universal
// invariant 6 for the non-persistent-cache case.
func TestWorkDirExistsDuringRunAndCleanedUpWithoutPersistentCache(t *testing.T) {
	existed := false
	c := memcache.New()
	s, err := step.New(workDirRunner{existedDuringRun: &existed}, step.Kwargs{})
	require.NoError(t, err)

	_, err = s.Result(c)
	require.NoError(t, err)
	assert.True(t, existed)
}


func TestReservedKwargsNameRejected(t *testing.T) {
	_, err := step.New(addRunner{}, step.Kwargs{"step_name": "x", "a": 1, "b": 2})
	require.Error(t, err)
}

func TestConfigAccessorErrorsWhenUnset(t *testing.T) {
	s := newAdd(t, 1, 2)
	_, err := s.Config()
	assert.Error(t, err)
}

func TestConfigAccessorReturnsAttachedConfig(t *testing.T) {
	cfg := map[string]any{"source": "yaml"}
	s, err := step.New(addRunner{}, step.Kwargs{"a": 1, "b": 2}, step.WithConfig(cfg))
	require.NoError(t, err)
	got, err := s.Config()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestNameDefaultsToUniqueID(t *testing.T) {
	s := newAdd(t, 1, 2)
	assert.Equal(t, s.UniqueID(), s.Name())

	named, err := step.New(addRunner{}, step.Kwargs{"a": 1, "b": 2}, step.WithName("first-add"))
	require.NoError(t, err)
	assert.Equal(t, "first-add", named.Name())
}

func TestResultErrorsOnNilCache(t *testing.T) {
	s := newAdd(t, 1, 2)
	_, err := s.Result(nil)
	require.Error(t, err)
}

func TestEnsureResultErrorsWhenNotCacheable(t *testing.T) {
	nd, err := step.New(ndRunner{}, step.Kwargs{})
	require.NoError(t, err)
	err = nd.EnsureResult(memcache.New())
	assert.Error(t, err)
}

func TestCacheabilityResolutionTable(t *testing.T) {
	cases := []struct {
		name            string
		deterministic   bool
		cacheable       step.Cacheable
		explicitSet     bool
		explicit        bool
		wantCache       bool
		wantErr         bool
	}{
		{"explicit true, cacheable false -> fail", true, step.CacheableFalse, true, true, false, true},
		{"explicit true, deterministic false -> true warn", false, step.CacheableUnset, true, true, true, false},
		{"explicit true, deterministic true -> true", true, step.CacheableUnset, true, true, true, false},
		{"explicit false -> false", true, step.CacheableTrue, true, false, false, false},
		{"unset, det false, cacheable unset -> false", false, step.CacheableUnset, false, false, false, false},
		{"unset, det true, cacheable unset -> true", true, step.CacheableUnset, false, false, true, false},
		{"unset, det false, cacheable true -> true warn", false, step.CacheableTrue, false, false, true, false},
		{"unset, det true, cacheable false -> false", true, step.CacheableFalse, false, false, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var opts []step.Option
			if tc.explicitSet {
				opts = append(opts, step.WithCacheResults(tc.explicit))
			}
			desc := step.Descriptor{Deterministic: tc.deterministic, Cacheable: tc.cacheable}
			inst, err := step.New(detRunner{desc: desc}, step.Kwargs{}, opts...)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantCache, inst.CacheResults())
		})
	}
}

// detRunner is a table-driven test fixture whose Descriptor is supplied by
// the caller, letting TestCacheabilityResolutionTable exercise every cell
// of the resolution table without one Runner type per cell.
type detRunner struct {
	desc step.Descriptor
}

func (r detRunner) Descriptor() step.Descriptor { return r.desc }
func (detRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	return nil, nil
}

func TestUniqueIDIsStepEquality(t *testing.T) {
	a := newAdd(t, 1, 2)
	b := newAdd(t, 1, 2)
	c := newAdd(t, 9, 9)
	assert.Equal(t, a.UniqueID() == b.UniqueID(), true)
	assert.Equal(t, a.UniqueID() == c.UniqueID(), false)
}

func TestDetHashObjectDelegatesToUniqueID(t *testing.T) {
	a := newAdd(t, 1, 2)
	assert.Equal(t, a.UniqueID(), a.DetHashObject())
}

func TestTypeNameStripsPackageAndPointer(t *testing.T) {
	s := newAdd(t, 1, 2)
	assert.Regexp(t, `^addRunner-[0-9a-f]{32}$`, s.UniqueID())
}
