package step

import (
	"github.com/arvonlabs/stepforge/pkg/cache"
)

// Constructor is a late-bound call stored inside a Deferred. It receives
// already-substituted args/kwargs (steps resolved to results, nested
// Deferred values materialized) and returns the constructed value.
type Constructor func(args []any, kwargs Kwargs) (any, error)

// Deferred wraps a constructor call whose arguments may themselves contain
// Step or nested *Deferred values. It lets a step's input be "construct
// this once these upstream steps have run" without the wrapping step
// special-casing the pattern (spec.md §4.3).
type Deferred struct {
	// Name is the constructor's qualified name, used in det_hash_object and
	// in error messages; it plays no role in materialization itself.
	Name   string
	Args   []any
	Kwargs Kwargs

	Construct Constructor
}

// Materialize recursively resolves Args and Kwargs via the same
// substitution rules as a step's own kwargs (substitute.go), then invokes
// Construct.
func (d *Deferred) Materialize(c cache.StepCache) (any, error) {
	resolvedArgs := make([]any, len(d.Args))
	for idx, a := range d.Args {
		sv, err := substitute(a, c)
		if err != nil {
			return nil, err
		}
		resolvedArgs[idx] = sv
	}

	resolvedKwargs := make(Kwargs, len(d.Kwargs))
	for k, v := range d.Kwargs {
		sv, err := substitute(v, c)
		if err != nil {
			return nil, err
		}
		resolvedKwargs[k] = sv
	}

	return d.Construct(resolvedArgs, resolvedKwargs)
}

// detHashTriple is the (constructor identity, args, kwargs) 3-tuple
// DetHashObject contributes to an enclosing step's unique_id (spec.md
// §4.3). It is an unexported struct purely so dethash's structural fallback
// has stable, declaration-ordered fields to hash.
type detHashTriple struct {
	Name   string
	Args   []any
	Kwargs Kwargs
}

// DetHashObject returns (Name, Args, Kwargs) for hashing, matching spec.md
// §4.3's "its identity for hashing purposes is (constructor qualified name,
// args, kwargs)".
func (d *Deferred) DetHashObject() any {
	return detHashTriple{Name: d.Name, Args: d.Args, Kwargs: d.Kwargs}
}
