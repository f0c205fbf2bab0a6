package engine

import (
	"fmt"
	"slices"
	"sync"

	"github.com/nupi-ai/wakebench/internal/engine/profile"
)

// AutoName selects the first native engine compiled into the binary.
const AutoName = "auto"

// autoOrder is the preference used when resolving AutoName.
var autoOrder = []string{"porcupine", "silero"}

// Options are handed to a Factory when a statically linked engine is
// resolved.
type Options struct {
	Profiles *profile.Set
}

// Factory builds a statically linked engine.
type Factory func(opts Options) (Engine, error)

type registration struct {
	factory Factory
	native  bool
}

var (
	registryMu sync.RWMutex
	registry   = map[string]registration{}
)

// Register makes a statically linked engine available under name. Native
// engines are candidates for AutoName. Register panics on duplicate names.
func Register(name string, native bool, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f == nil {
		panic("engine: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("engine: Register called twice for " + name)
	}
	registry[name] = registration{factory: f, native: native}
}

// Names returns the registered engine names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NativeAvailable reports whether any native engine is compiled in.
func NativeAvailable() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, r := range registry {
		if r.native {
			return true
		}
	}
	return false
}

// Resolve maps name to a registered factory. AutoName picks the preferred
// native engine, falling back to "stub". The resolved name is returned so
// callers can log what actually runs.
func Resolve(name string) (string, Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if name == AutoName || name == "" {
		for _, candidate := range autoOrder {
			if r, ok := registry[candidate]; ok && r.native {
				return candidate, r.factory, nil
			}
		}
		name = "stub"
	}

	r, ok := registry[name]
	if !ok {
		known := make([]string, 0, len(registry))
		for n := range registry {
			known = append(known, n)
		}
		slices.Sort(known)
		return "", nil, &Error{
			Kind:   KindUnavailable,
			Engine: name,
			Op:     "resolve",
			Err:    fmt.Errorf("not compiled in (available: %v)", known),
		}
	}
	return name, r.factory, nil
}
