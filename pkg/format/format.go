// Package format declares the serialization contract the core consumes.
// The core itself never reads or writes a result through a Format; only a
// PersistentCache implementation (see pkg/cache) does. Only Version and
// Identity ever enter a Step's unique_id (spec.md §6.2) — Write/Read never
// do, so changing a codec's internals without bumping VERSION does not
// silently change cache keys.
package format

import "io"

// Format is a serialization adapter. VERSION is recommended to include a
// schema or encoding revision, since it (along with the format's package
// path and type name) participates in every cacheable step's identity.
type Format interface {
	// Version returns the format's stable version string.
	Version() string

	// Identity returns the format implementation's package path and type
	// name, the two values det_hash folds into a step's identity.
	Identity() (pkgPath, typeName string)

	// Write serializes value to w.
	Write(w io.Writer, value any) error

	// Read deserializes from r into the value pointed to by target.
	Read(r io.Reader, target any) error
}
