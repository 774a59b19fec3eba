package store

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-store/internal/hydrate"
	"github.com/goliatone/go-store/pkg/cell"
)

// Slice bundles a named piece of state with the operations allowed to mutate
// it. Name identifies the slice in errors and traces and must be unique
// within a store; the key used when composing may differ.
type Slice[S any] struct {
	Name    string
	State   S
	Actions map[string]Operation[S]
}

// Definition is the type-erased view of a Slice consumed by New.
type Definition interface {
	SliceName() string
	bind(key string, t *tracer) *Entry
}

// DefineSlice returns s unchanged. It exists so the compiler pins S for the
// operations declared alongside the initial state.
func DefineSlice[S any](s Slice[S]) Slice[S] {
	return s
}

// DefineSliceFromPayload decodes the initial state from a generic payload,
// such as a parsed config file or fixture, and defines the slice with it.
func DefineSliceFromPayload[S any](name string, payload map[string]any, actions map[string]Operation[S], opts ...hydrate.DecoderOption[S]) (Slice[S], error) {
	decoder := hydrate.NewDecoder(opts...)
	state, err := decoder.Decode(hydrate.Context{Slice: name}, payload)
	if err != nil {
		return Slice[S]{}, fmt.Errorf("store: define slice %q: %w", name, err)
	}
	return DefineSlice(Slice[S]{Name: name, State: state, Actions: actions}), nil
}

// SliceName implements Definition.
func (s Slice[S]) SliceName() string {
	return s.Name
}

func (s Slice[S]) bind(key string, t *tracer) *Entry {
	c := cell.New(s.State)
	entry := &Entry{
		key:       key,
		name:      s.Name,
		cell:      c,
		stateType: reflect.TypeFor[S](),
		snapshot:  func() any { return c.Get() },
		actions:   make(map[string]Action, len(s.Actions)),
		ops:       make(map[string]ActionDescriptor, len(s.Actions)),
	}
	for name, op := range s.Actions {
		entry.actions[name] = wrapAction(t, entry, c, name, op)
		entry.ops[name] = ActionDescriptor{Name: name, Arity: op.Arity(), Params: describeParams(op.Params())}
	}
	return entry
}

func describeParams(params []reflect.Type) []string {
	if len(params) == 0 {
		return nil
	}
	out := make([]string, len(params))
	for i, param := range params {
		out[i] = param.String()
	}
	return out
}
