package collector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/insight/internal/core"
)

// Registry holds the price providers the binary was built with, by name.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]Collector
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Collector)}
}

// Register adds c, replacing any collector with the same name.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	r.byKey[c.Name()] = c
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byKey[name]
	return c, ok
}

// Lookup is Get with a CONFIG_INVALID error naming the known providers.
func (r *Registry) Lookup(name string) (Collector, error) {
	if c, ok := r.Get(name); ok {
		return c, nil
	}
	return nil, core.WrapError(core.ErrConfigInvalid,
		fmt.Errorf("unknown collector %q (have %v)", name, r.Names()))
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byKey))
	for name := range r.byKey {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
