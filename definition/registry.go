package definition

import (
	"sort"
	"sync"

	"github.com/kbukum/eradiate-pp/pipeline"
)

// Component is a registered node implementation.
type Component struct {
	Func      pipeline.Func
	PreFuncs  []pipeline.PreFunc
	PostFuncs []pipeline.PostFunc
	// Description is used when the node spec has none.
	Description string
}

// Registry maps component keys to implementations. It is safe for
// concurrent use.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Component
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[string]Component)}
}

// Register adds or replaces a component.
func (r *Registry) Register(key string, c Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[key] = c
}

// RegisterFunc registers a component made of fn alone.
func (r *Registry) RegisterFunc(key string, fn pipeline.Func) {
	r.Register(key, Component{Func: fn})
}

// Get retrieves a component by key.
func (r *Registry) Get(key string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[key]
	return c, ok
}

// List returns the sorted keys of all registered components.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.components))
	for key := range r.components {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
