package store

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/goliatone/go-store/pkg/cell"
)

// Action is a wrapped operation. It validates the arguments, commits the
// operation against the slice state exactly once and returns the operation's
// error unchanged. Panics raised by the operation propagate to the caller.
type Action func(args ...any) error

// Store is the composed set of slices keyed by the caller-chosen keys.
type Store struct {
	entries map[string]*Entry
	cfg     storeConfig
}

// Entry is one composed slice: its live state cell and wrapped actions.
type Entry struct {
	key       string
	name      string
	cell      any
	stateType reflect.Type
	snapshot  func() any
	actions   map[string]Action
	ops       map[string]ActionDescriptor
}

// New composes slices into a Store. An empty set only logs a warning. When
// two or more definitions share a name New fails with a *DuplicateSliceError
// naming every duplicate, before any state cell is created.
func New(slices map[string]Definition, opts ...Option) (*Store, error) {
	cfg := applyOptions(opts)

	if len(slices) == 0 {
		cfg.logger.Warn("store: at least one slice must be provided")
	}

	if err := validateNames(slices); err != nil {
		return nil, err
	}

	t := newTracer(cfg)
	st := &Store{
		entries: make(map[string]*Entry, len(slices)),
		cfg:     cfg,
	}
	for key, def := range slices {
		st.entries[key] = def.bind(key, t)
	}
	return st, nil
}

// MustNew is New that panics on configuration errors.
func MustNew(slices map[string]Definition, opts ...Option) *Store {
	st, err := New(slices, opts...)
	if err != nil {
		panic(err)
	}
	return st
}

func validateNames(slices map[string]Definition) error {
	counts := make(map[string]int, len(slices))
	for key, def := range slices {
		if isNilDefinition(def) {
			return fmt.Errorf("%w: key %q has no definition", ErrSliceNameRequired, key)
		}
		name := def.SliceName()
		if name == "" {
			return fmt.Errorf("%w: key %q", ErrSliceNameRequired, key)
		}
		counts[name]++
	}

	var duplicates []string
	for name, count := range counts {
		if count > 1 {
			duplicates = append(duplicates, name)
		}
	}
	if len(duplicates) == 0 {
		return nil
	}
	sort.Strings(duplicates)
	return &DuplicateSliceError{Names: duplicates}
}

// isNilDefinition also catches typed nils such as (*Slice[S])(nil).
func isNilDefinition(def Definition) bool {
	if def == nil {
		return true
	}
	rv := reflect.ValueOf(def)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// Len returns the number of composed slices.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Keys returns the slice keys sorted alphabetically.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Slice returns the entry stored under key.
func (s *Store) Slice(key string) (*Entry, bool) {
	if s == nil {
		return nil, false
	}
	entry, ok := s.entries[key]
	return entry, ok
}

// Dispatch invokes the named action of the slice stored under key.
func (s *Store) Dispatch(key, action string, args ...any) error {
	entry, ok := s.Slice(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlice, key)
	}
	fn, ok := entry.Action(action)
	if !ok {
		return fmt.Errorf("%w: %q on slice %q", ErrUnknownAction, action, key)
	}
	return fn(args...)
}

// Key returns the key the slice was composed under.
func (e *Entry) Key() string {
	return e.key
}

// Name returns the slice name.
func (e *Entry) Name() string {
	return e.name
}

// State returns a deep copy of the slice's current state.
func (e *Entry) State() any {
	return e.snapshot()
}

// Action returns the wrapped action registered under name.
func (e *Entry) Action(name string) (Action, bool) {
	fn, ok := e.actions[name]
	return fn, ok
}

// Actions returns a copy of the wrapped action map.
func (e *Entry) Actions() map[string]Action {
	out := make(map[string]Action, len(e.actions))
	for name, fn := range e.actions {
		out[name] = fn
	}
	return out
}

// Handle is the typed view of a composed slice.
type Handle[S any] struct {
	entry *Entry
	cell  *cell.Cell[S]
}

// Lookup returns the typed handle for the slice stored under key.
func Lookup[S any](st *Store, key string) (*Handle[S], error) {
	entry, ok := st.Slice(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlice, key)
	}
	c, ok := entry.cell.(*cell.Cell[S])
	if !ok {
		return nil, fmt.Errorf("%w: slice %q holds %s, not %s", ErrSliceType, key, entry.stateType, reflect.TypeFor[S]())
	}
	return &Handle[S]{entry: entry, cell: c}, nil
}

// MustLookup is Lookup that panics on error.
func MustLookup[S any](st *Store, key string) *Handle[S] {
	handle, err := Lookup[S](st, key)
	if err != nil {
		panic(err)
	}
	return handle
}

// State returns the live state cell. The pointer is stable for the lifetime
// of the store.
func (h *Handle[S]) State() *cell.Cell[S] {
	return h.cell
}

// Get returns a deep copy of the current state.
func (h *Handle[S]) Get() S {
	return h.cell.Get()
}

// Name returns the slice name.
func (h *Handle[S]) Name() string {
	return h.entry.name
}

// Action returns the wrapped action registered under name.
func (h *Handle[S]) Action(name string) (Action, bool) {
	return h.entry.Action(name)
}

// Actions returns a copy of the wrapped action map.
func (h *Handle[S]) Actions() map[string]Action {
	return h.entry.Actions()
}

// Dispatch invokes the named action.
func (h *Handle[S]) Dispatch(action string, args ...any) error {
	fn, ok := h.entry.Action(action)
	if !ok {
		return fmt.Errorf("%w: %q on slice %q", ErrUnknownAction, action, h.entry.key)
	}
	return fn(args...)
}

// Subscribe registers fn for state changes of this slice.
func (h *Handle[S]) Subscribe(fn cell.Listener[S]) (unsubscribe func()) {
	return h.cell.Subscribe(fn)
}

func wrapAction[S any](t *tracer, entry *Entry, c *cell.Cell[S], name string, op Operation[S]) Action {
	return func(args ...any) error {
		if index, reason := op.checkArgs(args); reason != "" {
			return &ArgumentError{Slice: entry.name, Action: name, Index: index, Reason: reason}
		}

		if !t.enabled() {
			return c.Commit(func(draft *S) error {
				return op.invoke(draft, args)
			})
		}

		inv := t.start(entry.key, entry.name, name, args, entry.snapshot)
		defer func() {
			if r := recover(); r != nil {
				inv.Panic = r
				t.end(inv, entry.snapshot, fmt.Errorf("%w: %v", ErrActionPanicked, r))
				panic(r)
			}
		}()

		err := c.Commit(func(draft *S) error {
			return op.invoke(draft, args)
		})
		t.end(inv, entry.snapshot, err)
		return err
	}
}
