package bus

import (
	"sync"

	pkgerrors "careerflow/pkg/errors"
)

// InFlight tracks which keys have a pending command
type InFlight struct {
	mu      sync.Mutex
	pending map[string]string
}

// NewInFlight creates an empty guard
func NewInFlight() *InFlight {
	return &InFlight{pending: make(map[string]string)}
}

// Acquire claims every key for owner, or none of them when one is taken
func (g *InFlight) Acquire(owner string, keys ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, k := range keys {
		if holder, busy := g.pending[k]; busy {
			return pkgerrors.ErrOperationInFlight.Clone().
				WithDetail("key", k).
				WithDetail("pending_command", holder)
		}
	}
	for _, k := range keys {
		g.pending[k] = owner
	}
	return nil
}

// Release frees the keys
func (g *InFlight) Release(keys ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range keys {
		delete(g.pending, k)
	}
}

// Busy reports whether key has a pending command
func (g *InFlight) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[key]
	return ok
}
