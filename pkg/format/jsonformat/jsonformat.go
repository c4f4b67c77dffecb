// Package jsonformat is the default format.Format: plain encoding/json.
package jsonformat

import (
	"encoding/json"
	"io"
	"reflect"

	"github.com/arvonlabs/stepforge/pkg/format"
)

// Format serializes step results as JSON.
type Format struct{}

var _ format.Format = Format{}

// Version is bumped whenever the wire shape this adapter produces changes.
const Version = "1"

func (Format) Version() string { return Version }

func (f Format) Identity() (string, string) {
	t := reflect.TypeOf(f)
	return t.PkgPath(), t.Name()
}

func (Format) Write(w io.Writer, value any) error {
	return json.NewEncoder(w).Encode(value)
}

func (Format) Read(r io.Reader, target any) error {
	return json.NewDecoder(r).Decode(target)
}
