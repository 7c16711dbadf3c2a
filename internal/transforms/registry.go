package transforms

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// Registry holds every known transformer by name. It is populated once at
// pipeline construction and read-only afterwards.
type Registry struct {
	byName map[string]Transformer
}

// NewRegistry returns a registry holding ts.
func NewRegistry(ts ...Transformer) (*Registry, error) {
	r := &Registry{byName: make(map[string]Transformer, len(ts))}
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a transformer. Names must be unique.
func (r *Registry) Register(t Transformer) error {
	if t == nil || t.Name() == "" {
		return errors.ValidationError("transformer must have a name").Build()
	}
	if !IsValidStage(t.Stage()) {
		return errors.ValidationError(fmt.Sprintf("transform %q has invalid stage %q", t.Name(), t.Stage())).Build()
	}
	if _, exists := r.byName[t.Name()]; exists {
		return errors.ValidationError(fmt.Sprintf("duplicate transformer name: %q", t.Name())).Build()
	}
	r.byName[t.Name()] = t
	return nil
}

// Get returns the transformer registered under name.
func (r *Registry) Get(name string) (Transformer, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns a sorted list of all registered transform names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves the enabled transforms into their execution order. A nil
// enabled list selects every registered transform.
func (r *Registry) Build(enabled []string) ([]Transformer, error) {
	selected, err := r.selectEnabled(enabled)
	if err != nil {
		return nil, err
	}
	result := &ValidationResult{Valid: true}
	r.checkSelection(selected, result)
	if !result.Valid {
		return nil, errors.ValidationError(result.Errors[0]).
			WithContext("errors", result.Errors).Build()
	}
	pipeline, err := BuildPipeline(selected)
	if err != nil {
		return nil, errors.ValidationError(err.Error()).WithCause(err).Build()
	}
	return pipeline, nil
}

func (r *Registry) selectEnabled(enabled []string) ([]Transformer, error) {
	if enabled == nil {
		enabled = r.Names()
	}
	seen := make(map[string]bool, len(enabled))
	selected := make([]Transformer, 0, len(enabled))
	for _, name := range enabled {
		if seen[name] {
			continue
		}
		seen[name] = true
		t, ok := r.byName[name]
		if !ok {
			return nil, errors.ValidationError(fmt.Sprintf("unknown transform %q", name)).
				WithContext("known", r.Names()).Build()
		}
		selected = append(selected, t)
	}
	return selected, nil
}

// checkSelection reports missing prerequisites, constraints naming
// unregistered transforms and directives claimed by more than one transform.
func (r *Registry) checkSelection(selected []Transformer, result *ValidationResult) {
	enabled := make(map[string]bool, len(selected))
	for _, t := range selected {
		enabled[t.Name()] = true
	}
	resolvers := map[string]string{}

	for _, t := range selected {
		name := t.Name()
		deps := t.Dependencies()
		for _, req := range deps.Requires {
			switch {
			case r.byName[req] == nil:
				result.AddError("transform %q requires unknown transform %q", name, req)
			case !enabled[req]:
				result.AddError("transform %q requires %q which is not enabled", name, req)
			}
		}
		for _, dep := range deps.MustRunAfter {
			if r.byName[dep] == nil {
				result.AddError("transform %q depends on missing transform %q (MustRunAfter)", name, dep)
			} else if !enabled[dep] {
				result.AddWarning("transform %q orders after %q which is not enabled", name, dep)
			}
		}
		for _, after := range deps.MustRunBefore {
			if r.byName[after] == nil {
				result.AddError("transform %q requires missing transform %q to run after it (MustRunBefore)", name, after)
			} else if !enabled[after] {
				result.AddWarning("transform %q orders before %q which is not enabled", name, after)
			}
		}
		for _, directive := range deps.ResolvesDirectives {
			if other, taken := resolvers[directive]; taken {
				result.AddError("directive %q is resolved by both %q and %q", directive, other, name)
				continue
			}
			resolvers[directive] = name
		}
	}
}
