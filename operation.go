package store

import (
	"fmt"
	"reflect"
)

// Operation is a named mutation declared by a slice. The draft parameter is
// supplied by the store; callers only pass the remaining arguments, so the
// external arity is the declared arity minus one.
//
// Build operations with Op0..Op3, OpErr0..OpErr2 or OpFunc. The zero
// Operation takes no arguments and mutates nothing.
type Operation[S any] struct {
	arity  int
	params []reflect.Type
	apply  func(draft *S, args []any) error
}

// Arity reports how many arguments callers pass. A negative arity accepts any
// number of arguments.
func (o Operation[S]) Arity() int {
	return o.arity
}

// Params returns the declared argument types, or nil for untyped operations.
func (o Operation[S]) Params() []reflect.Type {
	if len(o.params) == 0 {
		return nil
	}
	return append([]reflect.Type(nil), o.params...)
}

func (o Operation[S]) invoke(draft *S, args []any) error {
	if o.apply == nil {
		return nil
	}
	return o.apply(draft, args)
}

// checkArgs returns the offending index (-1 for a count mismatch) and reason,
// or an empty reason when args satisfy the declared parameters.
func (o Operation[S]) checkArgs(args []any) (int, string) {
	if o.arity >= 0 && len(args) != o.arity {
		return -1, fmt.Sprintf("expected %d arguments, got %d", o.arity, len(args))
	}
	for i, param := range o.params {
		if !assignable(args[i], param) {
			return i, fmt.Sprintf("expected %s, got %s", param, typeName(args[i]))
		}
	}
	return 0, ""
}

// Op0 declares an operation that takes no arguments.
func Op0[S any](fn func(draft *S)) Operation[S] {
	return Operation[S]{
		apply: func(draft *S, _ []any) error {
			fn(draft)
			return nil
		},
	}
}

// Op1 declares an operation that takes one argument.
func Op1[S, A any](fn func(draft *S, a A)) Operation[S] {
	return Operation[S]{
		arity:  1,
		params: []reflect.Type{reflect.TypeFor[A]()},
		apply: func(draft *S, args []any) error {
			fn(draft, argAs[A](args, 0))
			return nil
		},
	}
}

// Op2 declares an operation that takes two arguments.
func Op2[S, A, B any](fn func(draft *S, a A, b B)) Operation[S] {
	return Operation[S]{
		arity:  2,
		params: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()},
		apply: func(draft *S, args []any) error {
			fn(draft, argAs[A](args, 0), argAs[B](args, 1))
			return nil
		},
	}
}

// Op3 declares an operation that takes three arguments.
func Op3[S, A, B, C any](fn func(draft *S, a A, b B, c C)) Operation[S] {
	return Operation[S]{
		arity:  3,
		params: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()},
		apply: func(draft *S, args []any) error {
			fn(draft, argAs[A](args, 0), argAs[B](args, 1), argAs[C](args, 2))
			return nil
		},
	}
}

// OpErr0 declares a fallible operation that takes no arguments. A returned
// error aborts the commit and is handed back to the caller unchanged.
func OpErr0[S any](fn func(draft *S) error) Operation[S] {
	return Operation[S]{
		apply: func(draft *S, _ []any) error {
			return fn(draft)
		},
	}
}

// OpErr1 declares a fallible operation that takes one argument.
func OpErr1[S, A any](fn func(draft *S, a A) error) Operation[S] {
	return Operation[S]{
		arity:  1,
		params: []reflect.Type{reflect.TypeFor[A]()},
		apply: func(draft *S, args []any) error {
			return fn(draft, argAs[A](args, 0))
		},
	}
}

// OpErr2 declares a fallible operation that takes two arguments.
func OpErr2[S, A, B any](fn func(draft *S, a A, b B) error) Operation[S] {
	return Operation[S]{
		arity:  2,
		params: []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()},
		apply: func(draft *S, args []any) error {
			return fn(draft, argAs[A](args, 0), argAs[B](args, 1))
		},
	}
}

// OpFunc declares an untyped operation receiving the raw argument list. Only
// the argument count is checked; pass a negative arity to accept any count.
func OpFunc[S any](arity int, fn func(draft *S, args []any) error) Operation[S] {
	return Operation[S]{
		arity: arity,
		apply: func(draft *S, args []any) error {
			return fn(draft, args)
		},
	}
}

func argAs[A any](args []any, i int) A {
	if value, ok := args[i].(A); ok {
		return value
	}
	var zero A
	if args[i] == nil {
		return zero
	}
	target := reflect.TypeFor[A]()
	rv := reflect.ValueOf(args[i])
	if !rv.Type().AssignableTo(target) {
		return zero
	}
	out := reflect.New(target).Elem()
	out.Set(rv)
	return out.Interface().(A)
}

func assignable(arg any, param reflect.Type) bool {
	if arg == nil {
		switch param.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		default:
			return false
		}
	}
	return reflect.TypeOf(arg).AssignableTo(param)
}
