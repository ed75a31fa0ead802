package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps plugin names to senders. It is populated once during
// startup and read-only afterwards, but guarded anyway since registration
// order is not enforced by the type system.
type Registry struct {
	mu      sync.RWMutex
	senders map[string]Sender
}

func NewRegistry() *Registry {
	return &Registry{
		senders: make(map[string]Sender),
	}
}

// Register adds a sender under its own name. Duplicate registration is a
// programming error.
func (r *Registry) Register(s Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if name == "" {
		return fmt.Errorf("plugin name must not be empty")
	}
	if _, ok := r.senders[name]; ok {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.senders[name] = s
	return nil
}

// Get returns the sender for name, or false when no such plugin exists.
func (r *Registry) Get(name string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.senders[name]
	return s, ok
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.senders))
	for name := range r.senders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
