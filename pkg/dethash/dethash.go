// Package dethash computes a stable structural hash over arbitrary Go
// values. It is the core's identity primitive: a Step's unique_id is a
// det_hash over its format identity, format version, and kwargs.
//
// The hash is a 64-character lowercase hex SHA-256 digest. It never
// consults pointer identity, map iteration order, or anything time- or
// rand-derived, so two processes hashing equal values always agree.
package dethash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
)

// CustomDetHash lets a type override how it contributes to a det_hash
// computation. Step and Deferred both implement this: Step contributes its
// own unique_id, Deferred contributes its (constructor, args, kwargs) triple.
type CustomDetHash interface {
	DetHashObject() any
}

// Set is the "unordered collection" container dethash knows how to hash.
// Go has no built-in set type, so callers that want set semantics (hashed as
// an unordered collection rather than an ordered sequence) wrap their slice
// in a Set before handing it to Hash.
type Set[T any] []T

// Hash returns the stable hex digest of value.
func Hash(value any) string {
	h := sha256.New()
	writeValue(h, value)
	return hex.EncodeToString(h.Sum(nil))
}

// writeValue feeds a structural, order-independent-where-appropriate
// encoding of value into h. Every branch writes a short literal tag first so
// that, e.g., an empty sequence and an empty set never collide.
func writeValue(h interface{ Write([]byte) (int, error) }, value any) {
	if value == nil {
		fmt.Fprint(h, "nil:")
		return
	}

	if custom, ok := value.(CustomDetHash); ok {
		fmt.Fprint(h, "custom:")
		writeValue(h, custom.DetHashObject())
		return
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		fmt.Fprintf(h, "bool:%v", rv.Bool())
		return
	case reflect.String:
		fmt.Fprintf(h, "str:%d:%s", rv.Len(), rv.String())
		return
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fmt.Fprintf(h, "int:%d", rv.Int())
		return
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		fmt.Fprintf(h, "uint:%d", rv.Uint())
		return
	case reflect.Float32, reflect.Float64:
		fmt.Fprintf(h, "float:%v", rv.Float())
		return
	}

	if isSet(value) {
		writeSet(h, rv)
		return
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		fmt.Fprintf(h, "seq:%d:", rv.Len())
		for i := 0; i < rv.Len(); i++ {
			writeValue(h, rv.Index(i).Interface())
		}
		return
	case reflect.Map:
		writeMap(h, rv)
		return
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			fmt.Fprint(h, "nil:")
			return
		}
		writeValue(h, rv.Elem().Interface())
		return
	}

	// Structural fallback: package-qualified type name plus exported fields,
	// in declaration order (declaration order is stable across runs, unlike
	// map order, so no sorting is needed here).
	t := rv.Type()
	fmt.Fprintf(h, "struct:%s.%s:%d:", t.PkgPath(), t.Name(), rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fmt.Fprintf(h, "%s=", f.Name)
		writeValue(h, rv.Field(i).Interface())
	}
}

func isSet(value any) bool {
	t := reflect.TypeOf(value)
	if t == nil || t.Kind() != reflect.Slice {
		return false
	}
	name := t.Name()
	return t.PkgPath() == "github.com/arvonlabs/stepforge/pkg/dethash" &&
		len(name) >= 3 && name[:3] == "Set"
}

func writeSet(h interface{ Write([]byte) (int, error) }, rv reflect.Value) {
	hashes := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		hashes[i] = Hash(rv.Index(i).Interface())
	}
	sort.Strings(hashes)
	fmt.Fprintf(h, "set:%d:", len(hashes))
	for _, hh := range hashes {
		fmt.Fprint(h, hh)
	}
}

func writeMap(h interface{ Write([]byte) (int, error) }, rv reflect.Value) {
	type pair struct{ keyHash, valHash string }
	keys := rv.MapKeys()
	pairs := make([]pair, len(keys))
	for i, k := range keys {
		pairs[i] = pair{
			keyHash: Hash(k.Interface()),
			valHash: Hash(rv.MapIndex(k).Interface()),
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].keyHash < pairs[j].keyHash })
	fmt.Fprintf(h, "map:%d:", len(pairs))
	for _, p := range pairs {
		fmt.Fprint(h, p.keyHash, ":", p.valHash, ";")
	}
}
