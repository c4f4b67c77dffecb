// Package steps is a small worked example library exercising the engine:
// an arithmetic Add/Mul pair matching spec.md §8's S1/S4 scenarios, a Join
// step over strings, and a Sample step illustrating a non-deterministic
// Runner. Used by the CLI's demo graph and by the engine's own tests.
package steps

import (
	"fmt"
	"strings"

	"github.com/arvonlabs/stepforge/pkg/step"
)

// AddRunner computes A+B. Deterministic and cacheable by default.
type AddRunner struct {
	Version string
}

func (r AddRunner) Descriptor() step.Descriptor {
	return step.Descriptor{Deterministic: true, Version: r.Version}
}

func (AddRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	a, err := intArg(kwargs, "a")
	if err != nil {
		return nil, err
	}
	b, err := intArg(kwargs, "b")
	if err != nil {
		return nil, err
	}
	return a + b, nil
}

// Add constructs an AddRunner step. Passing another Step as a or b is the
// common case for exercising dependency substitution.
func Add(a, b any, opts ...step.Option) (*step.Instance[AddRunner], error) {
	return step.New(AddRunner{}, step.Kwargs{"a": a, "b": b}, opts...)
}

// MulRunner computes X*Y.
type MulRunner struct{}

func (MulRunner) Descriptor() step.Descriptor { return step.Descriptor{Deterministic: true} }

func (MulRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	x, err := intArg(kwargs, "x")
	if err != nil {
		return nil, err
	}
	y, err := intArg(kwargs, "y")
	if err != nil {
		return nil, err
	}
	return x * y, nil
}

// Mul constructs a MulRunner step.
func Mul(x, y any, opts ...step.Option) (*step.Instance[MulRunner], error) {
	return step.New(MulRunner{}, step.Kwargs{"x": x, "y": y}, opts...)
}

// JoinRunner concatenates Parts with Sep.
type JoinRunner struct{}

func (JoinRunner) Descriptor() step.Descriptor { return step.Descriptor{Deterministic: true} }

func (JoinRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	parts, _ := kwargs["parts"].([]any)
	sep, _ := kwargs["sep"].(string)
	strs := make([]string, len(parts))
	for i, p := range parts {
		s, ok := p.(string)
		if !ok {
			return nil, stepValueError("JoinRunner", "parts", p)
		}
		strs[i] = s
	}
	return strings.Join(strs, sep), nil
}

// Join constructs a JoinRunner step. parts may contain Step values whose
// results resolve to strings.
func Join(parts []any, sep string, opts ...step.Option) (*step.Instance[JoinRunner], error) {
	return step.New(JoinRunner{}, step.Kwargs{"parts": parts, "sep": sep}, opts...)
}

// SampleRunner draws a pseudorandom integer in [0, Max). It is
// non-deterministic: its Descriptor reports Deterministic=false, so by
// default it is never cacheable (spec.md §8 scenario S6).
type SampleRunner struct {
	Cacheable step.Cacheable
}

func (r SampleRunner) Descriptor() step.Descriptor {
	return step.Descriptor{Deterministic: false, Cacheable: r.Cacheable}
}

func (SampleRunner) Run(rc *step.RunContext, kwargs step.Kwargs) (any, error) {
	max, err := intArg(kwargs, "max")
	if err != nil {
		return nil, err
	}
	return rc.Rand.Intn(max), nil
}

// Sample constructs a SampleRunner step drawing from [0, max).
func Sample(max int, opts ...step.Option) (*step.Instance[SampleRunner], error) {
	return step.New(SampleRunner{}, step.Kwargs{"max": max}, opts...)
}

func intArg(kwargs step.Kwargs, name string) (int, error) {
	v, ok := kwargs[name]
	if !ok {
		return 0, stepValueError("", name, nil)
	}
	i, ok := v.(int)
	if !ok {
		// A JSON round-trip through the cache reads integers back as float64.
		if f, isFloat := v.(float64); isFloat && float64(int(f)) == f {
			return int(f), nil
		}
		return 0, stepValueError("", name, v)
	}
	return i, nil
}

func stepValueError(runner, field string, got any) error {
	return &valueError{runner: runner, field: field, got: got}
}

type valueError struct {
	runner string
	field  string
	got    any
}

func (e *valueError) Error() string {
	return fmt.Sprintf("steps: %s: kwarg %q has unexpected value %#v", e.runner, e.field, e.got)
}
