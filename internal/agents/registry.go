package agents

import "sync"

// Registry stores agents by role for quick lookup.
type Registry struct {
	agents map[Role]Agent
	mu     sync.RWMutex
}

// NewRegistry constructs an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[Role]Agent)}
}

// Register adds or replaces an agent entry.
func (r *Registry) Register(role Role, ag Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[role] = ag
}

// Get retrieves an agent by role.
func (r *Registry) Get(role Role) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ag, ok := r.agents[role]
	return ag, ok
}

// List returns registered roles.
func (r *Registry) List() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]Role, 0, len(r.agents))
	for role := range r.agents {
		res = append(res, role)
	}

	return res
}
