// Package stepconfig is the declarative YAML-driven construction layer
// described in spec.md §6.3: it hands the engine fully-constructed
// step.Step values whose kwargs have already been resolved, except for
// nested step/deferred references, which are intentional. This package is
// a consumer of pkg/step; pkg/step never imports it.
package stepconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/arvonlabs/stepforge/pkg/step"
	"github.com/arvonlabs/stepforge/pkg/steperrors"
)

// Factory builds a step.Step from a definition's resolved params and
// construction options. Registered factories never see the reserved
// parameter names in spec.md §6.4 — Build rejects a params map that uses
// one of them before calling the factory.
type Factory func(params map[string]any, opts ...step.Option) (step.Step, error)

// Registry maps a document's "type" field to the Factory that builds it.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name, overwriting any prior registration —
// callers assembling a Registry from multiple packages are expected to
// namespace their type strings to avoid accidental collisions.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// document is the YAML shape Build parses: an ordered list of named step
// definitions, each optionally depending on an earlier one via a
// {"$step": "<id>"} reference anywhere inside its params.
type document struct {
	Steps []stepDef `yaml:"steps"`
}

type stepDef struct {
	ID     string         `yaml:"id"`
	Type   string         `yaml:"type"`
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

var reservedParamNames = map[string]struct{}{
	"step_name":     {},
	"cache_results": {},
	"step_format":   {},
	"step_config":   {},
}

// Build parses doc and constructs every listed step in order, resolving
// {"$step": "<id>"} references against steps already built earlier in the
// same document. It returns the last step in the document — the
// document's terminal/root step — with step_config (step.WithConfig)
// attached to every constructed step, carrying that step's own raw
// definition for introspection.
func Build(doc []byte, registry *Registry) (step.Step, error) {
	var parsed document
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return nil, steperrors.WrapConfiguration("", err, "parsing step config document")
	}
	if len(parsed.Steps) == 0 {
		return nil, steperrors.NewConfiguration("", "step config document declares no steps")
	}

	built := make(map[string]step.Step, len(parsed.Steps))
	var last step.Step

	for _, def := range parsed.Steps {
		if def.ID == "" {
			return nil, steperrors.NewConfiguration("", "step config entry missing id")
		}
		if _, dup := built[def.ID]; dup {
			return nil, steperrors.NewConfiguration(def.ID, "duplicate step id %q in document", def.ID)
		}

		factory, ok := registry.factories[def.Type]
		if !ok {
			return nil, steperrors.NewConfiguration(def.ID, "no factory registered for type %q", def.Type)
		}

		resolvedParams := make(map[string]any, len(def.Params))
		for k, v := range def.Params {
			if _, reserved := reservedParamNames[k]; reserved {
				return nil, steperrors.NewConfiguration(def.ID,
					"params key %q collides with a reserved step-construction parameter", k)
			}
			rv, err := resolveRefs(v, built)
			if err != nil {
				return nil, steperrors.WrapConfiguration(def.ID, err, "resolving params")
			}
			resolvedParams[k] = rv
		}

		opts := []step.Option{step.WithConfig(def)}
		if def.Name != "" {
			opts = append(opts, step.WithName(def.Name))
		}

		s, err := factory(resolvedParams, opts...)
		if err != nil {
			return nil, steperrors.WrapConfiguration(def.ID, err, "constructing step")
		}

		built[def.ID] = s
		last = s
	}

	return last, nil
}

// resolveRefs walks v looking for {"$step": "<id>"} maps (YAML decodes a
// mapping node into map[string]any) and sequences/mappings containing them,
// replacing each with the already-built step.Step for that id. Anything
// else is returned unchanged — further substitution (nested Step/Deferred
// results) happens later, inside the engine itself, per spec.md §6.3's
// "except for nested Step/DeferredConstruction values, which are
// intentional".
func resolveRefs(v any, built map[string]step.Step) (any, error) {
	switch vv := v.(type) {
	case map[string]any:
		if len(vv) == 1 {
			if id, ok := vv["$step"]; ok {
				idStr, ok := id.(string)
				if !ok {
					return nil, fmt.Errorf("$step reference must be a string id, got %#v", id)
				}
				s, ok := built[idStr]
				if !ok {
					return nil, fmt.Errorf("$step reference to unknown or not-yet-built id %q", idStr)
				}
				return s, nil
			}
		}
		out := make(map[string]any, len(vv))
		for k, elem := range vv {
			rv, err := resolveRefs(elem, built)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(vv))
		for i, elem := range vv {
			rv, err := resolveRefs(elem, built)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}
