package prompt

import (
	"fmt"
	"sync"
)

// Registry holds loaded prompt templates keyed by ID.
type Registry struct {
	prompts map[string]*Template
	mu      sync.RWMutex
}

var globalRegistry *Registry
var once sync.Once

// Get returns the global registry singleton, seeded with the compiled-in
// defaults.
func Get() *Registry {
	once.Do(func() {
		globalRegistry = &Registry{prompts: make(map[string]*Template)}
		for _, t := range defaults() {
			globalRegistry.prompts[t.ID] = t
		}
	})
	return globalRegistry
}

// Register adds or replaces a prompt template.
func (r *Registry) Register(t *Template) error {
	if t.ID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts[t.ID] = t
	return nil
}

// GetPrompt retrieves a prompt by ID.
func (r *Registry) GetPrompt(id string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.prompts[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("prompt not found: %s", id)
}

// Count reports how many prompts are registered.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts)
}

// ForStatement returns the advisor prompt for a statement type, e.g.
// "advisor.pnl" or "advisor.cashflow".
func ForStatement(statementType string) (*Template, error) {
	return Get().GetPrompt("advisor." + statementType)
}
