// Package memcache is an in-memory cache.StepCache, the conventional
// "process-wide default" cache (spec.md §9's Design Notes: "offer a thin
// helper that constructs a conventional default but never a hidden
// global"). It is grounded in the teacher codebase's generic sync.Map-backed
// cache (pkg/cache/generic_cache.go): this is the same store-by-key pattern,
// scaled down to the single Contains/Read/Write shape the engine needs.
package memcache

import (
	"sync"

	"github.com/arvonlabs/stepforge/pkg/cache"
	"github.com/arvonlabs/stepforge/pkg/steperrors"
)

// Cache is a thread-safe, non-persistent cache.StepCache. It does not
// implement cache.PersistentCache: steps run against a Cache always get a
// temporary, deleted-on-exit work directory.
type Cache struct {
	store sync.Map // unique_id -> any
}

var _ cache.StepCache = (*Cache)(nil)

// New returns an empty Cache.
func New() *Cache {
	return &Cache{}
}

func (c *Cache) Contains(s cache.Entry) bool {
	_, ok := c.store.Load(s.UniqueID())
	return ok
}

func (c *Cache) Read(s cache.Entry) (any, error) {
	v, ok := c.store.Load(s.UniqueID())
	if !ok {
		return nil, steperrors.WrapCache("read", s.UniqueID(), errNotFound(s.UniqueID()))
	}
	return v, nil
}

func (c *Cache) Write(s cache.Entry, value any) error {
	c.store.Store(s.UniqueID(), cache.DrainLazy(value))
	return nil
}

type notFoundError string

func (e notFoundError) Error() string { return "no cache entry for step " + string(e) }

func errNotFound(id string) error { return notFoundError(id) }
