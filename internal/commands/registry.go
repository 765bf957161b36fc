package commands

import (
	"fmt"
	"sync"

	"rtmbot/internal/grammar"
)

// Registry maps command names and chat aliases to commands.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]Command
	order []Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Command)}
}

// Register adds c under its name and every alias. A key already taken by
// another command is an error and leaves the registry unchanged.
func (r *Registry) Register(c Command) error {
	keys := append([]string{c.Name()}, c.Aliases()...)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		if prev, taken := r.byKey[k]; taken {
			return fmt.Errorf("%q is already bound to %s", k, prev.Name())
		}
	}
	for _, k := range keys {
		r.byKey[k] = c
	}
	r.order = append(r.order, c)
	return nil
}

// Find returns the command bound to a name or alias.
func (r *Registry) Find(key string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byKey[key]
	return c, ok
}

// Lookup returns the command handling a parsed message. No-op messages
// have no command.
func (r *Registry) Lookup(c grammar.Command) (Command, bool) {
	key := KeyOf(c)
	if key == "" {
		return nil, false
	}
	return r.Find(key)
}

// All returns the registered commands in registration order.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Command(nil), r.order...)
}

// DefaultRegistry holds the commands registered by this package.
var DefaultRegistry = NewRegistry()

// Register adds c to DefaultRegistry and panics on a conflict.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
