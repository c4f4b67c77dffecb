// Package yamlformat is a format.Format backed by gopkg.in/yaml.v3, the
// same serialization library the teacher codebase uses for its declarative
// cluster configuration.
package yamlformat

import (
	"io"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/arvonlabs/stepforge/pkg/format"
)

// Format serializes step results as YAML documents. Useful for results a
// human might want to read straight out of a cache's step_dir.
type Format struct{}

var _ format.Format = Format{}

const Version = "1"

func (Format) Version() string { return Version }

func (f Format) Identity() (string, string) {
	t := reflect.TypeOf(f)
	return t.PkgPath(), t.Name()
}

func (Format) Write(w io.Writer, value any) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(value)
}

func (Format) Read(r io.Reader, target any) error {
	return yaml.NewDecoder(r).Decode(target)
}
