package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory constructs a Model for a concrete model name. The name passed is
// the full requested name, not the registered pattern, so a factory bound to
// "claude-*" can configure the exact variant it was asked for.
type Factory func(name string) (Model, error)

// Registry maps model names to factories so a model can be rebuilt from its
// name alone. Workers that receive a dispatch payload use this to turn the
// payload's model name back into a live provider client.
//
// Patterns: a name registered with a trailing "*" matches any name with that
// prefix ("claude-*" matches "claude-sonnet-4"). Exact registrations win over
// patterns; among patterns the longest prefix wins. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]Factory
	patterns map[string]Factory // prefix (without "*") -> factory
}

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return &Registry{
		exact:    map[string]Factory{},
		patterns: map[string]Factory{},
	}
}

// Register binds a name or trailing-* pattern to a factory. The last
// registration for a given name/pattern wins.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prefix, ok := strings.CutSuffix(name, "*"); ok {
		r.patterns[prefix] = factory
		return
	}
	r.exact[name] = factory
}

// RegisterModel binds a name to an already-built model instance.
func (r *Registry) RegisterModel(name string, m Model) {
	r.Register(name, func(string) (Model, error) { return m, nil })
}

// New constructs a Model for the given name, or errors when no registration
// covers it.
func (r *Registry) New(name string) (Model, error) {
	r.mu.RLock()
	factory, ok := r.exact[name]
	if !ok {
		// longest-prefix pattern match
		best := -1
		for prefix, f := range r.patterns {
			if strings.HasPrefix(name, prefix) && len(prefix) > best {
				best = len(prefix)
				factory = f
				ok = true
			}
		}
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no model registered for name %q", name)
	}
	return factory(name)
}

// Names returns all registered exact names and patterns, sorted, mainly for
// diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.exact)+len(r.patterns))
	for name := range r.exact {
		out = append(out, name)
	}
	for prefix := range r.patterns {
		out = append(out, prefix+"*")
	}
	sort.Strings(out)
	return out
}
