package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a helper selectors can call, for example to format a slice
// value or compare it against an external table. It receives the selector's
// arguments as evaluated by the engine.
type Function func(args ...any) (any, error)

// FunctionRegistry holds the helpers exposed to selectors. expr sees each
// helper under its own name and through `call(name, args...)`; CEL and JS see
// them through `call`. Lookups ignore case.
type FunctionRegistry struct {
	mu      sync.RWMutex
	helpers map[string]Function
}

// NewFunctionRegistry returns a registry with no selector helpers.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{helpers: make(map[string]Function)}
}

// Register adds a selector helper. A helper name can be registered once.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("store: selector helper %q has no implementation", name)
	}
	key := helperKey(name)
	if key == "" {
		return fmt.Errorf("store: selector helper needs a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.helpers == nil {
		r.helpers = make(map[string]Function)
	}
	if _, taken := r.helpers[key]; taken {
		return fmt.Errorf("store: selector helper %q is already registered", name)
	}
	r.helpers[key] = fn
	return nil
}

// Clone snapshots the registry for an engine, so helpers registered later
// do not leak into selectors compiled against the earlier set.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{helpers: make(map[string]Function, len(r.helpers))}
	for key, fn := range r.helpers {
		out.helpers[key] = fn
	}
	return out
}

// Call runs a selector helper by name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("store: selector helper %q called without a registry", name)
	}
	r.mu.RLock()
	fn, ok := r.helpers[helperKey(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown selector helper %q", name)
	}
	return fn(args...)
}

// Names lists the helper names in lookup form, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.helpers))
	for key := range r.helpers {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

func helperKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// WithFunctionRegistry exposes the registry's helpers to the default
// selector engine. It has no effect on an engine set with WithEvaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *storeConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction adds one helper to the default selector engine.
// Registration errors are dropped; register through a FunctionRegistry to
// see them.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *storeConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
