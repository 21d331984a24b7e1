package component

import (
	"fmt"
	"log/slog"

	"github.com/plexusml/plexus/internal/schema"
)

// Registry holds the component providers available to one engine
// instance, keyed by component type.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Registering the same type twice is a
// programmer error and panics.
func (r *Registry) Register(p Provider) {
	if _, exists := r.providers[p.Type()]; exists {
		panic(fmt.Sprintf("component provider '%s' already registered", p.Type()))
	}
	slog.Debug("Registering component provider.", "type", p.Type(), "version", p.Version())
	r.providers[p.Type()] = p
}

// Lookup returns the provider for a component type.
func (r *Registry) Lookup(componentType string) (Provider, bool) {
	p, ok := r.providers[componentType]
	return p, ok
}

// Validate checks that every node in the schema is bound to a registered
// component type, so the run cannot hit an unknown component mid-graph.
func (r *Registry) Validate(v *schema.Validated) error {
	for _, n := range v.Schema.Nodes {
		if _, ok := r.providers[n.Uses]; !ok {
			return fmt.Errorf("node '%s' uses unregistered component type '%s'", n.Name, n.Uses)
		}
	}
	return nil
}
