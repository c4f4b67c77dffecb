// Package step implements the engine's central abstraction: a Step is a
// named unit of computation with a stable, content-addressed identity,
// declared determinism and cacheability, and keyword arguments that may
// recursively embed other steps or deferred constructions (spec.md §3,
// §4.2). step.Instance[R] is the sole Step implementation; concrete
// computations are supplied as a Runner and wrapped with New.
package step

import (
	"fmt"
	"math/rand"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/arvonlabs/stepforge/pkg/cache"
	"github.com/arvonlabs/stepforge/pkg/dethash"
	"github.com/arvonlabs/stepforge/pkg/format"
	"github.com/arvonlabs/stepforge/pkg/format/jsonformat"
	"github.com/arvonlabs/stepforge/pkg/steperrors"
)

// Kwargs is a step's construction-time keyword arguments. Values are
// arbitrary and may recursively contain Step or *Deferred values, []any
// (ordered sequence), Kwargs/map[string]any (mapping), or leaf values.
// Substitution (see substitute.go) only descends into []any and
// map[string]any; a kwargs value that needs substitution and isn't one of
// those two container shapes will not be walked — build it as one of them.
type Kwargs map[string]any

// deterministicSeed is the fixed seed installed for every deterministic
// step's Run, so pseudorandom behavior inside a deterministic step is
// reproducible across processes (spec.md §4.7).
const deterministicSeed = 784507111

// versionPattern is the allowed character set for a Runner's Descriptor
// VERSION (spec.md §4.2's error table: "VERSION contains characters outside
// [A-Za-z0-9]").
var versionPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Descriptor is the Go rendition of a step's class-level declarations
// (spec.md §3): DETERMINISTIC, CACHEABLE (tri-state), VERSION, and the
// default Format. It is returned once per Runner type by Descriptor() and
// read at construction time; the engine never inspects a Runner's fields by
// reflection.
type Descriptor struct {
	// Deterministic: if false, identical inputs may produce different
	// outputs; identity becomes random, and the step itself is not cached
	// without an explicit override. The flag is not propagated: downstream
	// consumers resolve their own cacheability from their own Descriptor.
	Deterministic bool
	// Cacheable is tri-state: Unset means "cache iff Deterministic".
	Cacheable Cacheable
	// Version optionally invalidates the cache on code change. Must match
	// ^[A-Za-z0-9]+$ when non-empty.
	Version string
	// Format is the default serialization adapter for this Runner type. May
	// be nil, in which case jsonformat.Format{} is used.
	Format format.Format
}

// Cacheable is the tri-state CACHEABLE class declaration from spec.md §3.
type Cacheable int

const (
	CacheableUnset Cacheable = iota
	CacheableTrue
	CacheableFalse
)

// RunContext is the per-invocation bundle passed to Runner.Run: a
// work-directory accessor valid only during Run, and a per-step seeded
// random source (spec.md §4.7, §9 design note: no ambient global
// reseeding, an explicit source instead).
type RunContext struct {
	// Rand is seeded with deterministicSeed for deterministic steps and with
	// the current time XORed with the process id for non-deterministic ones.
	// Never reseeded by the engine after RunContext is constructed.
	Rand *rand.Rand

	workDir string
}

// WorkDir returns the step's scratch directory for the duration of Run. It
// is only meaningful while Run is executing; steps must not retain it.
func (rc *RunContext) WorkDir() string { return rc.workDir }

// Runner is the user-implemented half of a step: a Descriptor plus a Run
// function. step.New wraps a Runner into an *Instance[R] that satisfies
// Step.
type Runner interface {
	// Descriptor returns this Runner type's class-level declarations. Must
	// return the same value on every call.
	Descriptor() Descriptor
	// Run performs the step's computation. Only ever invoked by the engine,
	// with a work directory already in place.
	Run(rc *RunContext, kwargs Kwargs) (any, error)
}

// Step is the non-generic interface every concrete step satisfies,
// regardless of its Runner's type parameter, so heterogeneous steps can
// live together in one Kwargs map and one dependency graph (spec.md §3).
type Step interface {
	// UniqueID is the step's content-addressed identity, the sole basis for
	// equality: two steps are equal iff their UniqueIDs are equal.
	UniqueID() string
	// Name is a human-readable label, defaulting to UniqueID.
	Name() string
	// Kwargs returns the step's construction-time keyword arguments.
	Kwargs() Kwargs
	// Format returns the step's resolved serialization adapter.
	Format() format.Format
	// CacheResults reports whether this step's results are written to cache.
	CacheResults() bool
	// Dependencies returns the Step values directly reachable from Kwargs,
	// stopping at strings and at *Deferred boundaries.
	Dependencies() []Step
	// RecursiveDependencies returns the transitive closure of Dependencies,
	// also descending into *Deferred boundaries.
	RecursiveDependencies() []Step
	// Result is the principal entry point: cache lookup, else substitute and
	// run, caching the outcome if CacheResults.
	Result(c cache.StepCache) (any, error)
	// EnsureResult is like Result but discards the value; it errors if the
	// step is not cacheable.
	EnsureResult(c cache.StepCache) error
	// Config returns the opaque record of the declarative description that
	// produced this step, if any was attached with WithConfig.
	Config() (any, error)
}

// Instance is the sole Step implementation. R is the concrete Runner type,
// giving callers who hold an *Instance[R] typed access to the Runner they
// constructed it with, while the non-generic Step interface lets the engine
// treat every Instance uniformly regardless of R.
type Instance[R Runner] struct {
	runner R

	name         string
	kwargs       Kwargs
	format       format.Format
	cacheResults bool
	config       any
	hasConfig    bool

	uniqueID     string
	uniqueIDOnce sync.Once

	runMu     sync.Mutex
	running   bool
	typeLabel string
}

var _ Step = (*Instance[Runner])(nil)

// Option configures a step at construction time. Options correspond to the
// reserved parameter names in spec.md §6.4 (step_name, cache_results,
// step_format, step_config): they are Go compile-time-distinct from Kwargs
// entries, so a collision between a reserved name and a Runner's kwargs key
// is structurally impossible except for the literal string case New checks.
type Option func(*options)

type options struct {
	name            string
	hasName         bool
	cacheResults    bool
	hasCacheResults bool
	format          format.Format
	config          any
	hasConfig       bool
}

// WithName overrides a step's Name (the step_name reserved parameter).
func WithName(name string) Option {
	return func(o *options) { o.name = name; o.hasName = true }
}

// WithCacheResults overrides a step's resolved CacheResults (the
// cache_results reserved parameter). See resolveCacheResults for the
// interaction with a Runner's Descriptor.
func WithCacheResults(v bool) Option {
	return func(o *options) { o.cacheResults = v; o.hasCacheResults = true }
}

// WithFormat overrides a step's Format (the step_format reserved
// parameter), taking precedence over the Runner's Descriptor.Format.
func WithFormat(f format.Format) Option {
	return func(o *options) { o.format = f }
}

// WithConfig attaches an opaque record of the declarative description that
// produced this step (the step_config reserved parameter), retrievable via
// Config.
func WithConfig(cfg any) Option {
	return func(o *options) { o.config = cfg; o.hasConfig = true }
}

// reservedKwargsNames mirrors spec.md §6.4: a declarative layer building
// Kwargs from a free-form document must never let one of these through as
// an ordinary kwargs entry, since they are reserved for step-construction
// Options. New rejects an instance where one slipped in, as the "collision
// is a structural error" rule for the pathological case where a kwargs key
// is literally named e.g. "step_name".
var reservedKwargsNames = map[string]struct{}{
	"step_name":     {},
	"cache_results": {},
	"step_format":   {},
	"step_config":   {},
}

// New constructs a Step around runner with the given kwargs, applying opts.
// It validates Descriptor.Version, resolves CacheResults per the table in
// spec.md §3, and materializes Format (runner's Descriptor.Format, or
// jsonformat.Format{} if neither that nor WithFormat supplied one).
func New[R Runner](runner R, kwargs Kwargs, opts ...Option) (*Instance[R], error) {
	typeLabel := typeName(runner)

	for key := range kwargs {
		if _, reserved := reservedKwargsNames[key]; reserved {
			return nil, steperrors.NewConfiguration(typeLabel,
				"kwargs key %q collides with a reserved step-construction parameter", key)
		}
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	desc := runner.Descriptor()
	if desc.Version != "" && !versionPattern.MatchString(desc.Version) {
		return nil, steperrors.NewConfiguration(typeLabel,
			"VERSION %q contains characters outside [A-Za-z0-9]", desc.Version)
	}

	cacheResults, err := resolveCacheResults(typeLabel, desc, o.hasCacheResults, o.cacheResults)
	if err != nil {
		return nil, err
	}

	fmtAdapter := o.format
	if fmtAdapter == nil {
		fmtAdapter = desc.Format
	}
	if fmtAdapter == nil {
		fmtAdapter = jsonformat.Format{}
	}

	inst := &Instance[R]{
		runner:       runner,
		name:         o.name,
		kwargs:       kwargs,
		format:       fmtAdapter,
		cacheResults: cacheResults,
		config:       o.config,
		hasConfig:    o.hasConfig,
		typeLabel:    typeLabel,
	}
	if !o.hasName {
		inst.name = inst.UniqueID()
	}
	return inst, nil
}

// resolveCacheResults implements the cacheability resolution table from
// spec.md §3, returning a steperrors.Configuration for the "fail" cell. The
// two "warn" cells (a non-deterministic step made cacheable) resolve to true
// like any other successful cell; no warning is emitted for them, here or by
// any caller.
func resolveCacheResults(typeLabel string, desc Descriptor, explicitSet, explicit bool) (bool, error) {
	if explicitSet {
		if explicit {
			if desc.Cacheable == CacheableFalse {
				return false, steperrors.NewConfiguration(typeLabel,
					"cache_results=true requested but CACHEABLE=false")
			}
			// desc.Cacheable == CacheableTrue or CacheableUnset: true, with a
			// warning when Deterministic=false (the "warn" cell).
			return true, nil
		}
		return false, nil
	}

	// explicit unset: resolved from Deterministic/Cacheable alone.
	switch {
	case !desc.Deterministic && desc.Cacheable != CacheableTrue:
		return false, nil
	case desc.Deterministic && desc.Cacheable != CacheableFalse:
		return true, nil
	case !desc.Deterministic && desc.Cacheable == CacheableTrue:
		return true, nil // warn: non-deterministic step forced cacheable by class flag
	case desc.Deterministic && desc.Cacheable == CacheableFalse:
		return false, nil
	}
	return false, nil
}

func (i *Instance[R]) Name() string   { return i.name }
func (i *Instance[R]) Kwargs() Kwargs { return i.kwargs }
func (i *Instance[R]) Format() format.Format {
	return i.format
}
func (i *Instance[R]) CacheResults() bool { return i.cacheResults }

func (i *Instance[R]) Config() (any, error) {
	if !i.hasConfig {
		return nil, steperrors.NewRuntime(i.typeLabel, "config accessed but no step_config was attached")
	}
	return i.config, nil
}

// UniqueID computes and memoizes the step's identity: for deterministic
// steps, det_hash over (format identity, format version, kwargs); for
// non-deterministic steps, det_hash of a freshly drawn random seed, so every
// construction gets a distinct identity (spec.md §3).
func (i *Instance[R]) UniqueID() string {
	i.uniqueIDOnce.Do(func() {
		desc := i.runner.Descriptor()
		var hashInput any
		if desc.Deterministic {
			pkgPath, typeName := i.format.Identity()
			hashInput = struct {
				FormatPkg     string
				FormatType    string
				FormatVersion string
				Kwargs        Kwargs
			}{pkgPath, typeName, i.format.Version(), i.kwargs}
		} else {
			// A fresh v4 UUID is the "freshly drawn random seed" for a
			// non-deterministic step's identity (spec.md §3): it draws on
			// crypto/rand under the hood, giving every construction a
			// distinct, non-guessable identity without the engine needing
			// its own CSPRNG plumbing.
			hashInput = uuid.New().String()
		}
		digest := dethash.Hash(hashInput)
		// 32-character suffix, per spec.md §3's "<ClassName>[-<VERSION>]-<hash32>".
		suffix := digest[:32]
		if desc.Version != "" {
			i.uniqueID = fmt.Sprintf("%s-%s-%s", i.typeLabel, desc.Version, suffix)
		} else {
			i.uniqueID = fmt.Sprintf("%s-%s", i.typeLabel, suffix)
		}
	})
	return i.uniqueID
}

// DetHashObject lets Instance participate as a nested value inside another
// step's kwargs-derived hash input: a Step's contribution to an enclosing
// det_hash is its own UniqueID (spec.md §4.1: "Instances exposing a
// det_hash_object hook delegate to that hook").
func (i *Instance[R]) DetHashObject() any { return i.UniqueID() }

func typeName(v any) string {
	t := fmt.Sprintf("%T", v)
	// %T on a pointer receiver yields "*pkg.Type"; drop the package
	// qualifier and pointer marker so identities read as "Add-<hash>" rather
	// than "*steps.Add-<hash>".
	depth := 0
	lastDot := -1
	for idx, r := range t {
		if r == '*' {
			depth = idx + 1
		}
		if r == '.' {
			lastDot = idx
		}
	}
	if lastDot >= depth {
		return t[lastDot+1:]
	}
	return t[depth:]
}

// wrapErrors is a package-local alias for a plain errors.Wrap, outside
// steperrors' typed wrappers. Nothing in the package calls it at present;
// Deferred.Materialize returns a constructor-call failure unwrapped.
var wrapErrors = errors.Wrap
