package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateSliceName indicates two or more slice definitions share a name.
	ErrDuplicateSliceName = errors.New("store: duplicate slice names")
	// ErrSliceNameRequired indicates a slice definition without a name.
	ErrSliceNameRequired = errors.New("store: slice name must be provided")
	// ErrMissingScope indicates a scope lookup outside any provider.
	ErrMissingScope = errors.New("store: must be used within a Provider")
	// ErrUnknownSlice indicates a lookup for a slice key the store does not hold.
	ErrUnknownSlice = errors.New("store: unknown slice")
	// ErrUnknownAction indicates a dispatch to an action the slice does not define.
	ErrUnknownAction = errors.New("store: unknown action")
	// ErrSliceType indicates a typed lookup whose state type does not match.
	ErrSliceType = errors.New("store: slice state type mismatch")
	// ErrArgument indicates an action was called with the wrong arguments.
	ErrArgument = errors.New("store: invalid action arguments")
	// ErrActionPanicked marks a traced invocation whose operation panicked.
	// The panic itself still reaches the caller.
	ErrActionPanicked = errors.New("store: action panicked")
	// ErrNoEvaluator indicates no selector engine could be resolved.
	ErrNoEvaluator = errors.New("store: evaluator not configured")
)

// DuplicateSliceError lists every slice name that appeared more than once.
type DuplicateSliceError struct {
	Names []string
}

func (e *DuplicateSliceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("store: duplicate slice names found: %s", strings.Join(e.Names, ", "))
}

func (e *DuplicateSliceError) Unwrap() error {
	return ErrDuplicateSliceName
}

// ArgumentError describes an action invoked with arguments that do not match
// the operation's declared parameters.
type ArgumentError struct {
	Slice  string
	Action string
	// Index is the offending argument position, or -1 for a count mismatch.
	Index  int
	Reason string
}

func (e *ArgumentError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Index < 0 {
		return fmt.Sprintf("store: [%s] %s: %s", e.Slice, e.Action, e.Reason)
	}
	return fmt.Sprintf("store: [%s] %s: argument %d: %s", e.Slice, e.Action, e.Index, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrArgument
}

// ScopeError reports a Use call that found no provided value.
type ScopeError struct {
	Scope string
}

func (e *ScopeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("store: %s: Use must be used within a Provider", e.Scope)
}

func (e *ScopeError) Unwrap() error {
	return ErrMissingScope
}

// SelectError captures selector metadata alongside the originating error.
type SelectError struct {
	Engine string
	Expr   string
	Slice  string
	Err    error
}

func (e *SelectError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("store: %s selector %s slice=%s: %v", e.Engine, describeExpression(e.Expr), e.Slice, e.Err)
}

func (e *SelectError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapSelectError(engine, expr, slice string, err error) error {
	if err == nil {
		return nil
	}

	var selectErr *SelectError
	if errors.As(err, &selectErr) {
		if selectErr.Engine == "" {
			selectErr.Engine = engine
		}
		if selectErr.Expr == "" {
			selectErr.Expr = expr
		}
		if selectErr.Slice == "" {
			selectErr.Slice = slice
		}
		return selectErr
	}

	return &SelectError{
		Engine: engine,
		Expr:   expr,
		Slice:  slice,
		Err:    err,
	}
}
