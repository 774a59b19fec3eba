package store

import (
	"context"
	"fmt"
	"reflect"
)

// Scope makes a value resolvable by code running under a context derived
// from Provide. Each Scope instance owns a private context key, so two scopes
// of the same type never see each other's values.
type Scope[T any] struct {
	name string
	key  *scopeKey
}

type scopeKey struct {
	name string
}

// ScopeOption configures a Scope on creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	name string
}

// WithScopeName sets the name reported by missing-provider errors.
func WithScopeName(name string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.name = name
	}
}

// NewScope creates an injection scope for values of type T.
func NewScope[T any](opts ...ScopeOption) *Scope[T] {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.name == "" {
		cfg.name = fmt.Sprintf("Scope[%s]", reflect.TypeFor[T]())
	}
	return &Scope[T]{
		name: cfg.name,
		key:  &scopeKey{name: cfg.name},
	}
}

// Name returns the scope name.
func (s *Scope[T]) Name() string {
	return s.name
}

// Provide returns a context in which Use resolves to value. Providing again
// on a derived context shadows the outer value for that branch only.
func (s *Scope[T]) Provide(ctx context.Context, value T) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, s.key, scopedValue[T]{value: value})
}

// Run evaluates fn with value provided.
func (s *Scope[T]) Run(ctx context.Context, value T, fn func(context.Context) error) error {
	return fn(s.Provide(ctx, value))
}

// Use resolves the innermost provided value. Outside any provider it returns
// a *ScopeError wrapping ErrMissingScope.
func (s *Scope[T]) Use(ctx context.Context) (T, error) {
	var zero T
	if ctx != nil {
		if provided, ok := ctx.Value(s.key).(scopedValue[T]); ok {
			return provided.value, nil
		}
	}
	return zero, &ScopeError{Scope: s.name}
}

// MustUse is Use that panics outside a provider. Reaching it without a
// provider is a wiring bug, not a runtime condition to recover from.
func (s *Scope[T]) MustUse(ctx context.Context) T {
	value, err := s.Use(ctx)
	if err != nil {
		panic(err)
	}
	return value
}

// scopedValue distinguishes a provided zero value from no provider at all.
type scopedValue[T any] struct {
	value T
}
