package store

import (
	"context"
	"errors"
	"testing"
)

func TestScopeUseWithoutProvider(t *testing.T) {
	scope := NewScope[string](WithScopeName("ThemeProvider"))
	_, err := scope.Use(context.Background())
	if !errors.Is(err, ErrMissingScope) {
		t.Fatalf("expected missing scope error, got %v", err)
	}
	if err.Error() != "store: ThemeProvider: Use must be used within a Provider" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if _, err := scope.Use(nil); !errors.Is(err, ErrMissingScope) {
		t.Fatalf("expected missing scope error for nil context, got %v", err)
	}
}

func TestScopeDefaultName(t *testing.T) {
	scope := NewScope[int]()
	if scope.Name() != "Scope[int]" {
		t.Fatalf("unexpected default name %q", scope.Name())
	}
}

func TestScopeProvideAndShadow(t *testing.T) {
	scope := NewScope[string]()
	outer := scope.Provide(context.Background(), "outer")
	inner := scope.Provide(outer, "inner")

	if got := scope.MustUse(outer); got != "outer" {
		t.Fatalf("expected outer, got %q", got)
	}
	if got := scope.MustUse(inner); got != "inner" {
		t.Fatalf("expected inner, got %q", got)
	}
	if got := scope.MustUse(outer); got != "outer" {
		t.Fatalf("expected outer after shadowing, got %q", got)
	}
}

func TestScopeZeroValueIsProvided(t *testing.T) {
	scope := NewScope[int]()
	ctx := scope.Provide(context.Background(), 0)
	value, err := scope.Use(ctx)
	if err != nil || value != 0 {
		t.Fatalf("expected provided zero value, got %d err=%v", value, err)
	}
}

func TestScopesOfSameTypeAreDistinct(t *testing.T) {
	first := NewScope[string]()
	second := NewScope[string]()
	ctx := first.Provide(context.Background(), "first")

	if _, err := second.Use(ctx); !errors.Is(err, ErrMissingScope) {
		t.Fatalf("expected second scope unresolved, got %v", err)
	}
}

func TestScopeRun(t *testing.T) {
	scope := NewScope[string]()
	var seen string
	err := scope.Run(context.Background(), "value", func(ctx context.Context) error {
		seen = scope.MustUse(ctx)
		return nil
	})
	if err != nil || seen != "value" {
		t.Fatalf("expected value inside Run, got %q err=%v", seen, err)
	}
}

func TestScopeMustUsePanics(t *testing.T) {
	scope := NewScope[string]()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrMissingScope) {
			t.Fatalf("expected missing scope panic, got %v", r)
		}
	}()
	scope.MustUse(context.Background())
}

func TestStoreScopeHelpers(t *testing.T) {
	if _, err := UseStore(context.Background()); !errors.Is(err, ErrMissingScope) {
		t.Fatalf("expected missing store, got %v", err)
	}

	st := MustNew(map[string]Definition{"counter": counterSlice("counter")}, quietOptions()...)
	ctx := ProvideStore(context.Background(), st)

	resolved, err := UseStore(ctx)
	if err != nil || resolved != st {
		t.Fatalf("expected provided store, got %v err=%v", resolved, err)
	}

	counter, err := UseSlice[counterState](ctx, "counter")
	if err != nil {
		t.Fatalf("use slice: %v", err)
	}
	if err := counter.Dispatch("inc", 3); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := MustLookup[counterState](st, "counter").Get().Count; got != 3 {
		t.Fatalf("expected shared state, got %d", got)
	}

	if _, err := UseSlice[todoState](ctx, "counter"); !errors.Is(err, ErrSliceType) {
		t.Fatalf("expected slice type error, got %v", err)
	}
}
