package step

import (
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/arvonlabs/stepforge/pkg/cache"
	"github.com/arvonlabs/stepforge/pkg/steperrors"
)

// Result is the principal user entry point (spec.md §4.2): on a cache hit,
// return the cached value; otherwise substitute dependencies, run inside a
// work directory, and — if CacheResults — write the result to cache before
// returning, reading it back so the caller always sees a replayable value
// rather than a possibly-exhausted lazy sequence.
func (i *Instance[R]) Result(c cache.StepCache) (any, error) {
	if c == nil {
		return nil, steperrors.NewRuntime(i.typeLabel, "Result called with a nil cache.StepCache")
	}

	if c.Contains(i) {
		v, err := c.Read(i)
		if err != nil {
			return nil, err
		}
		return v, nil
	}

	resolvedKwargs, err := i.substituteKwargs(c)
	if err != nil {
		return nil, err
	}

	result, err := i.runWithWorkDir(c, resolvedKwargs)
	if err != nil {
		return nil, err
	}

	if !i.cacheResults {
		return result, nil
	}

	if err := c.Write(i, result); err != nil {
		return nil, err
	}
	return c.Read(i)
}

// EnsureResult is like Result but discards the value; it errors if the step
// is not cacheable, since "ensure" a non-cached result is meaningless
// (spec.md §4.2).
func (i *Instance[R]) EnsureResult(c cache.StepCache) error {
	if !i.cacheResults {
		return steperrors.NewRuntime(i.typeLabel, "EnsureResult called on a step that is not cacheable")
	}
	_, err := i.Result(c)
	return err
}

func (i *Instance[R]) substituteKwargs(c cache.StepCache) (Kwargs, error) {
	resolved := make(Kwargs, len(i.kwargs))
	for k, v := range i.kwargs {
		sv, err := substitute(v, c)
		if err != nil {
			return nil, err
		}
		resolved[k] = sv
	}
	return resolved, nil
}

// runWithWorkDir rejects re-entrancy, establishes the work directory per
// spec.md §4.6 (persistent step_dir/work when the cache grants one,
// otherwise a temporary directory removed on every return path), seeds the
// RunContext's random source per spec.md §4.7, and invokes the Runner.
func (i *Instance[R]) runWithWorkDir(c cache.StepCache, resolvedKwargs Kwargs) (any, error) {
	i.runMu.Lock()
	if i.running {
		i.runMu.Unlock()
		return nil, steperrors.NewRuntime(i.typeLabel, "re-entrant Run on the same step instance")
	}
	i.running = true
	i.runMu.Unlock()

	defer func() {
		i.runMu.Lock()
		i.running = false
		i.runMu.Unlock()
	}()

	dir, cleanup, err := i.acquireWorkDir(c)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	rc := &RunContext{Rand: i.seededRand(), workDir: dir}
	return i.runner.Run(rc, resolvedKwargs)
}

// acquireWorkDir returns the directory to use for this run and a cleanup
// func to defer. The persistent case retains the directory; the temporary
// case removes it unconditionally on return, success or failure.
func (i *Instance[R]) acquireWorkDir(c cache.StepCache) (string, func(), error) {
	if pc, ok := c.(cache.PersistentCache); ok {
		if dir, ok := pc.StepDir(i); ok {
			workDir := filepath.Join(dir, "work")
			if err := os.MkdirAll(workDir, 0o755); err != nil {
				return "", nil, steperrors.WrapCache("mkdir", i.typeLabel, err)
			}
			return workDir, func() {}, nil
		}
	}

	tmp, err := os.MkdirTemp("", i.UniqueID()+"-")
	if err != nil {
		return "", nil, steperrors.WrapCache("mkdir", i.typeLabel, err)
	}
	return tmp, func() { os.RemoveAll(tmp) }, nil
}

// seededRand returns the deterministic seed for deterministic steps, or a
// fresh source seeded from the current time XORed with the process id for
// non-deterministic ones (spec.md §4.7,
// §9: explicit per-step source, no ambient global reseeding).
func (i *Instance[R]) seededRand() *rand.Rand {
	if i.runner.Descriptor().Deterministic {
		return rand.New(rand.NewSource(deterministicSeed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(os.Getpid())))
}
