package agent

import (
	"fmt"
	"sync"

	"github.com/BaSui01/hiveflow/types"
)

// Registry maps stable agent names to definitions. Forward targets are
// resolved here at routing time rather than through direct references,
// which keeps cyclic graphs free of construction-order problems.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]*Definition)}
}

// Register adds a definition under its name. Registering the same name
// twice is an error; definitions are static.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return types.NewError(types.ErrInvalidAgent, "cannot register nil definition")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[def.Name()]; exists {
		return types.NewError(types.ErrInvalidAgent,
			fmt.Sprintf("agent %q already registered", def.Name()))
	}
	r.agents[def.Name()] = def
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *Registry) MustRegister(defs ...*Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Resolve returns the definition registered under name.
func (r *Registry) Resolve(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.agents[name]
	if !ok {
		return nil, types.NewError(types.ErrAgentNotFound,
			fmt.Sprintf("agent %q is not registered", name))
	}
	return def, nil
}

// Names returns the registered agent names; order is unspecified.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for n := range r.agents {
		names = append(names, n)
	}
	return names
}
