package store

import "context"

// StoreScope is the default scope used to hand a *Store to request handlers,
// workers or any other code running under a context.
var StoreScope = NewScope[*Store](WithScopeName("StoreProvider"))

// ProvideStore provides st through StoreScope.
func ProvideStore(ctx context.Context, st *Store) context.Context {
	return StoreScope.Provide(ctx, st)
}

// UseStore resolves the store provided through StoreScope.
func UseStore(ctx context.Context) (*Store, error) {
	return StoreScope.Use(ctx)
}

// UseSlice resolves the typed handle for key from the store provided through
// StoreScope.
func UseSlice[S any](ctx context.Context, key string) (*Handle[S], error) {
	st, err := UseStore(ctx)
	if err != nil {
		return nil, err
	}
	return Lookup[S](st, key)
}
