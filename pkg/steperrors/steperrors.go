// Package steperrors defines the error taxonomy the engine raises: a step
// can be misdeclared (Configuration), the engine's own invariants can be
// violated (Runtime), or a cache backend's I/O can fail (Cache). Errors
// raised by a step's own Run are propagated verbatim and never wrapped here,
// so callers can still errors.As/errors.Is against their own sentinels.
package steperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Configuration signals a misdeclared step: a bad VERSION, a cacheability
// conflict, a reserved-name collision, or a malformed step_config.
type Configuration struct {
	Step string
	msg  string
	err  error
}

func (e *Configuration) Error() string {
	if e.Step == "" {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.Step, e.msg)
}

func (e *Configuration) Unwrap() error { return e.err }

// NewConfiguration builds a Configuration error, attaching a stack via
// github.com/pkg/errors so it prints with context when logged.
func NewConfiguration(step, format string, args ...any) error {
	return errors.WithStack(&Configuration{Step: step, msg: fmt.Sprintf(format, args...)})
}

// WrapConfiguration wraps an underlying cause as a Configuration error.
func WrapConfiguration(step string, cause error, format string, args ...any) error {
	return errors.WithStack(&Configuration{Step: step, msg: fmt.Sprintf(format, args...), err: cause})
}

// Runtime signals an engine invariant violated at runtime: re-entrant run,
// config accessed when unset, a nil cache, or EnsureResult on a step that is
// not cacheable. Access to RunContext.WorkDir outside Run is not detected.
type Runtime struct {
	Step string
	msg  string
}

func (e *Runtime) Error() string {
	if e.Step == "" {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.Step, e.msg)
}

// NewRuntime builds a Runtime error.
func NewRuntime(step, format string, args ...any) error {
	return errors.WithStack(&Runtime{Step: step, msg: fmt.Sprintf(format, args...)})
}

// Cache signals a read/write failure in a cache backend. The core never
// retries; it propagates this to the step's caller.
type Cache struct {
	Op   string
	Step string
	err  error
}

func (e *Cache) Error() string {
	return fmt.Sprintf("cache %s failed for step %s: %v", e.Op, e.Step, e.err)
}

func (e *Cache) Unwrap() error { return e.err }

// WrapCache builds a Cache error around an underlying backend failure.
func WrapCache(op, step string, cause error) error {
	return errors.WithStack(&Cache{Op: op, Step: step, err: cause})
}
