package step

import "github.com/arvonlabs/stepforge/pkg/cache"

// substitute is the pure recursive function from spec.md §4.4: a Step
// becomes its Result, a *Deferred becomes its materialized value, []any and
// Kwargs/map[string]any are walked element/value-wise into a new container
// of the same kind, and anything else is returned unchanged. It never
// mutates its input.
func substitute(value any, c cache.StepCache) (any, error) {
	switch v := value.(type) {
	case Step:
		return v.Result(c)
	case *Deferred:
		return v.Materialize(c)
	case []any:
		out := make([]any, len(v))
		for idx, elem := range v {
			sv, err := substitute(elem, c)
			if err != nil {
				return nil, err
			}
			out[idx] = sv
		}
		return out, nil
	case Kwargs:
		out := make(Kwargs, len(v))
		for k, elem := range v {
			sv, err := substitute(elem, c)
			if err != nil {
				return nil, err
			}
			out[k] = sv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			sv, err := substitute(elem, c)
			if err != nil {
				return nil, err
			}
			out[k] = sv
		}
		return out, nil
	default:
		return value, nil
	}
}
