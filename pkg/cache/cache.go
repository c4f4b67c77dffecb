// Package cache declares the StepCache contract the engine consumes
// (spec.md §6.1). The core never implements this contract itself — it is
// satisfied by pkg/cache/memcache, pkg/cache/filecache, and
// pkg/cache/pgcache, all in this repo, or by any third-party backend a
// caller supplies.
package cache

import (
	"iter"

	"github.com/arvonlabs/stepforge/pkg/format"
)

// Entry is the narrow view of a Step a cache backend needs. It exists so
// this package never imports pkg/step: pkg/step imports pkg/cache (for the
// StepCache parameter to Result/EnsureResult), so the dependency can only
// run one way.
type Entry interface {
	// UniqueID is the step's content-addressed identity; the cache key.
	UniqueID() string
}

// Formatted is implemented by cache Entries that carry a serialization
// format. Only backends that actually serialize onto a byte-oriented medium
// (filecache, pgcache) need it; memcache ignores it entirely and works with
// any cache.Entry.
type Formatted interface {
	Entry
	Format() format.Format
}

// StepCache is the persistence interface the engine uses: given a step,
// answer membership, read, and write. write followed by contains must
// return true, and read must return a value equal in content to what was
// written — for lazy sequences, equal when iterated (spec.md §6.1).
type StepCache interface {
	Contains(s Entry) bool
	Read(s Entry) (any, error)
	Write(s Entry, value any) error
}

// PersistentCache is a StepCache that also grants steps a durable working
// directory. A cache that does not implement this interface (or returns
// false from StepDir) causes the engine to use a temporary, deleted-on-exit
// work directory instead (spec.md §4.6).
type PersistentCache interface {
	StepCache
	// StepDir returns the directory under which "work/" may live for s, and
	// whether such a directory is available at all.
	StepDir(s Entry) (dir string, ok bool)
}

// DrainLazy fully materializes a lazily-produced sequence into a []any, the
// Go rendition of "write must fully consume lazy sequences" (spec.md §6.1).
// A lazy sequence is either an iter.Seq[any] or an unnamed
// func(func(any) bool) of the same shape. Values that are not a lazy
// sequence are returned unchanged.
func DrainLazy(value any) any {
	var seq iter.Seq[any]
	switch v := value.(type) {
	case iter.Seq[any]:
		seq = v
	case func(yield func(any) bool):
		seq = v
	default:
		return value
	}
	var out []any
	seq(func(v any) bool {
		out = append(out, v)
		return true
	})
	return out
}
