// Package gobformat is a format.Format backed by encoding/gob, useful for
// results whose concrete Go type should round-trip exactly (gob, unlike
// JSON/YAML, preserves types like maps with non-string keys).
package gobformat

import (
	"encoding/gob"
	"fmt"
	"io"
	"reflect"

	"github.com/arvonlabs/stepforge/pkg/format"
)

// Format serializes step results with encoding/gob.
type Format struct{}

var _ format.Format = Format{}

const Version = "1"

func (Format) Version() string { return Version }

func (f Format) Identity() (string, string) {
	t := reflect.TypeOf(f)
	return t.PkgPath(), t.Name()
}

// envelope is the concrete type Write actually hands to gob.Encoder. Value's
// declared field type is interface{}; it is that declared type, not value's
// own dynamic type, that makes gob write a type descriptor for the concrete
// value on the wire. Encoding a bare `any` at the top level (as a direct
// gob.Encode(value) call does) skips this: Encode unwraps its interface{}
// parameter to the dynamic type before walking it, so the stream never
// records which concrete type was sent, and a later Decode into a
// *interface{} target has nothing to decode into.
type envelope struct {
	Value any
}

func init() {
	// encoding/gob has no builtin exemption for interface-typed fields, even
	// for these: every concrete type that may flow through Value above must
	// be registered before round-tripping through it. A Runner returning an
	// application-defined struct type must gob.Register it itself before
	// its result is cached with this format.
	gob.Register(0)
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register(false)
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

func (Format) Write(w io.Writer, value any) error {
	return gob.NewEncoder(w).Encode(envelope{Value: value})
}

// Read decodes into target, which must be a *any: the envelope's own Value
// field is what carries the type descriptor gob needs, so Read always
// decodes into its own envelope first and then assigns out, rather than
// accepting an arbitrary caller-typed target the way jsonformat/yamlformat
// do.
func (Format) Read(r io.Reader, target any) error {
	ptr, ok := target.(*any)
	if !ok {
		return fmt.Errorf("gobformat: Read target must be *any, got %T", target)
	}
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return err
	}
	*ptr = env.Value
	return nil
}
