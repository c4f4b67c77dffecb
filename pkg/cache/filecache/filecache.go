// Package filecache is a filesystem-persistent cache.PersistentCache. It is
// the backend that grants a step a durable step_dir surviving restarts
// (spec.md §4.6), grounded in the teacher codebase's convention of one
// directory per artifact under a cluster-wide artifacts root
// (runtime.GetComponentArtifactsDir and friends), scaled down to one
// directory per step's unique_id.
package filecache

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/arvonlabs/stepforge/pkg/cache"
	"github.com/arvonlabs/stepforge/pkg/steperrors"
)

const resultFileName = "result.bin"

// Cache stores each step's serialized result under root/<unique_id>/result.bin
// and grants a persistent root/<unique_id>/work directory.
type Cache struct {
	root string
}

var (
	_ cache.StepCache       = (*Cache)(nil)
	_ cache.PersistentCache = (*Cache)(nil)
)

// New creates a filecache rooted at dir, creating dir if absent.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "filecache: creating root %s", dir)
	}
	return &Cache{root: dir}, nil
}

func (c *Cache) stepDir(id string) string {
	return filepath.Join(c.root, id)
}

func (c *Cache) resultPath(id string) string {
	return filepath.Join(c.stepDir(id), resultFileName)
}

func (c *Cache) Contains(s cache.Entry) bool {
	_, err := os.Stat(c.resultPath(s.UniqueID()))
	return err == nil
}

func (c *Cache) Read(s cache.Entry) (any, error) {
	formatted, ok := s.(cache.Formatted)
	if !ok {
		return nil, steperrors.WrapCache("read", s.UniqueID(),
			errors.New("filecache requires a cache.Formatted entry"))
	}
	f, err := os.Open(c.resultPath(s.UniqueID()))
	if err != nil {
		return nil, steperrors.WrapCache("read", s.UniqueID(), err)
	}
	defer f.Close()

	var value any
	if err := formatted.Format().Read(f, &value); err != nil {
		return nil, steperrors.WrapCache("read", s.UniqueID(), err)
	}
	return value, nil
}

// Write serializes value with the entry's format and renames it into place
// atomically, so a crash mid-write never leaves a half-written result
// looking valid to a later Contains/Read (spec.md §7: "no partial state in
// cache").
func (c *Cache) Write(s cache.Entry, value any) error {
	formatted, ok := s.(cache.Formatted)
	if !ok {
		return steperrors.WrapCache("write", s.UniqueID(),
			errors.New("filecache requires a cache.Formatted entry"))
	}
	value = cache.DrainLazy(value)

	dir := c.stepDir(s.UniqueID())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return steperrors.WrapCache("write", s.UniqueID(), err)
	}

	tmp, err := os.CreateTemp(dir, resultFileName+".tmp-*")
	if err != nil {
		return steperrors.WrapCache("write", s.UniqueID(), err)
	}
	tmpPath := tmp.Name()
	if err := formatted.Format().Write(tmp, value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return steperrors.WrapCache("write", s.UniqueID(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return steperrors.WrapCache("write", s.UniqueID(), err)
	}
	if err := os.Rename(tmpPath, c.resultPath(s.UniqueID())); err != nil {
		os.Remove(tmpPath)
		return steperrors.WrapCache("write", s.UniqueID(), err)
	}
	return nil
}

func (c *Cache) StepDir(s cache.Entry) (string, bool) {
	return c.stepDir(s.UniqueID()), true
}
