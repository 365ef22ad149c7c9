package decoder

import (
	"fmt"
	"slices"
	"sync"

	"github.com/zMarques/albion-network/internal/core"
)

// ErrNotFound is returned by New for unregistered names.
var ErrNotFound = core.ErrDecoderNotFound

// Factory creates a fresh Decoder with empty state.
type Factory func() Decoder

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var decoders = &registry{factories: make(map[string]Factory)}

// Register makes a decoder available by name. It panics if name is empty,
// factory is nil, or name is already registered.
func Register(name string, factory Factory) {
	if name == "" || factory == nil {
		panic("decoder: Register called with empty name or nil factory")
	}
	decoders.mu.Lock()
	defer decoders.mu.Unlock()
	if _, dup := decoders.factories[name]; dup {
		panic(fmt.Sprintf("decoder: Register called twice for %q", name))
	}
	decoders.factories[name] = factory
}

// New creates a decoder registered under name.
func New(name string) (Decoder, error) {
	decoders.mu.RLock()
	factory, ok := decoders.factories[name]
	decoders.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return factory(), nil
}

// Names returns the registered decoder names in sorted order.
func Names() []string {
	decoders.mu.RLock()
	defer decoders.mu.RUnlock()
	names := make([]string, 0, len(decoders.factories))
	for name := range decoders.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func unregister(name string) {
	decoders.mu.Lock()
	defer decoders.mu.Unlock()
	delete(decoders.factories, name)
}
