package market

import (
	"fmt"
	"sync"
)

// Registry holds the session's instruments. Lookup is by symbol; iteration
// preserves registration order so tick processing is deterministic.
type Registry struct {
	mu    sync.RWMutex
	order []string
	bySym map[string]*Instrument
}

// NewRegistry creates an empty instrument registry.
func NewRegistry() *Registry {
	return &Registry{bySym: make(map[string]*Instrument)}
}

// Register adds an instrument. Duplicate symbols are an error.
func (r *Registry) Register(in *Instrument) error {
	if in == nil {
		return fmt.Errorf("cannot register nil instrument")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySym[in.Symbol()]; exists {
		return fmt.Errorf("instrument %s already registered", in.Symbol())
	}
	r.bySym[in.Symbol()] = in
	r.order = append(r.order, in.Symbol())
	return nil
}

// Get retrieves an instrument by symbol.
func (r *Registry) Get(symbol string) (*Instrument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in, exists := r.bySym[symbol]
	if !exists {
		return nil, fmt.Errorf("instrument %s not found", symbol)
	}
	return in, nil
}

// List returns the instruments in registration order.
func (r *Registry) List() []*Instrument {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Instrument, 0, len(r.order))
	for _, sym := range r.order {
		out = append(out, r.bySym[sym])
	}
	return out
}

// Exists checks whether a symbol is registered.
func (r *Registry) Exists(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.bySym[symbol]
	return exists
}

// Count returns the number of registered instruments.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
