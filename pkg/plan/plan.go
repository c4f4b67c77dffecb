// Package plan implements the dry-run planner (spec.md §4.5): given one or
// more root steps, produce a topologically ordered list of every step in
// their dependency closure annotated with whether it would be read from
// cache, without executing anything.
package plan

import (
	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"

	"github.com/arvonlabs/stepforge/pkg/cache"
	"github.com/arvonlabs/stepforge/pkg/step"
	"github.com/arvonlabs/stepforge/pkg/steperrors"
)

// Entry pairs a step with whether the plan considers it a cache hit at the
// time the plan was built.
type Entry struct {
	Step     step.Step
	CacheHit bool
}

// Plan runs the exact stack algorithm from spec.md §4.5: seed a stack with
// the reversed roots, pop, push back unseen direct dependencies ahead of
// the popped step when any remain, otherwise emit. Before running it, Plan
// builds a defensive acyclic check over the full transitive closure — steps
// cannot cycle by construction, since a step's kwargs can only reference
// already-fully-constructed Step values, but the check catches a malformed
// graph the same way the teacher's ExecutionGraph.Validate catches one that
// "shouldn't" have cycles either.
func Plan(roots []step.Step, c cache.StepCache) ([]Entry, error) {
	if err := checkAcyclic(roots); err != nil {
		return nil, err
	}

	type frame struct {
		s step.Step
	}

	seen := make(map[string]struct{})
	cached := make(map[string]struct{})
	var out []Entry

	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{s: roots[i]})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := top.s.UniqueID()
		if _, ok := seen[id]; ok {
			continue
		}

		var unseenDeps []step.Step
		for _, dep := range top.s.Dependencies() {
			if _, ok := seen[dep.UniqueID()]; !ok {
				unseenDeps = append(unseenDeps, dep)
			}
		}

		if len(unseenDeps) == 0 {
			isCached := c.Contains(top.s)
			if _, already := cached[id]; already {
				isCached = true
			}
			seen[id] = struct{}{}
			if isCached {
				cached[id] = struct{}{}
			}
			out = append(out, Entry{Step: top.s, CacheHit: isCached})
			continue
		}

		stack = append(stack, top)
		for i := len(unseenDeps) - 1; i >= 0; i-- {
			stack = append(stack, frame{s: unseenDeps[i]})
		}
	}

	return out, nil
}

// checkAcyclic builds a lvlath/core.Graph over the transitive closure of
// roots and runs dfs.TopologicalSort purely to surface a cycle as a
// configuration error; the stack algorithm above does not itself detect
// cycles (an unexpectedly-cyclic graph would push the same step back onto
// the stack forever).
func checkAcyclic(roots []step.Step) error {
	g := core.NewGraph(core.WithDirected(true))

	visited := make(map[string]step.Step)
	var walk func(s step.Step) error
	walk = func(s step.Step) error {
		id := s.UniqueID()
		if _, ok := visited[id]; ok {
			return nil
		}
		visited[id] = s
		if err := g.AddVertex(id); err != nil {
			return steperrors.WrapConfiguration(id, err, err.Error())
		}
		for _, dep := range s.Dependencies() {
			if err := walk(dep); err != nil {
				return err
			}
			if _, err := g.AddEdge(dep.UniqueID(), id, 0); err != nil {
				return steperrors.WrapConfiguration(id, err, err.Error())
			}
		}
		return nil
	}

	for _, r := range roots {
		if err := walk(r); err != nil {
			return err
		}
	}

	if _, err := dfs.TopologicalSort(g); err != nil {
		return steperrors.NewConfiguration("", "dependency graph contains a cycle: %v", err)
	}
	return nil
}
