package store

import (
	"fmt"
	"time"

	"github.com/goliatone/go-store/internal/hydrate"
)

// Select evaluates expr against the current state of the slice stored under
// key. The state is exposed as a map keyed by its JSON field names, so
// `items` and `filter` are top-level identifiers for a state struct with
// those json tags. Selectors never mutate state.
func (s *Store) Select(key, expr string) (any, error) {
	return s.SelectWith(key, SelectContext{}, expr)
}

// SelectWith evaluates expr with explicit arguments and metadata. A nil
// ctx.State is filled from the slice snapshot.
func (s *Store) SelectWith(key string, ctx SelectContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("store: expression must not be empty")
	}
	entry, ok := s.Slice(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlice, key)
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	if ctx.Slice == "" {
		ctx.Slice = entry.name
	}
	if ctx.State == nil {
		state, err := hydrate.Encode(entry.State())
		if err != nil {
			return nil, wrapSelectError(evaluatorEngineName(evaluator), expr, ctx.sliceLabel(), err)
		}
		ctx.State = state
	}
	ctx = ctx.withDefaults()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapSelectError(engine, expr, ctx.sliceLabel(), evalErr)
	s.cfg.evaluatorLogger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Slice:    ctx.sliceLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

// SelectAs evaluates expr and asserts the result type.
func SelectAs[T any](st *Store, key, expr string) (T, error) {
	var zero T
	value, err := st.Select(key, expr)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("store: selector %q returned %T, not %T", expr, value, zero)
	}
	return typed, nil
}

func (s *Store) resolveEvaluator() (Evaluator, error) {
	if s.cfg.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return s.cfg.evaluator, nil
}

func defaultEvaluator(cfg storeConfig) Evaluator {
	var exprOpts []ExprEvaluatorOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	return NewExprEvaluator(exprOpts...)
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if isJSEvaluator(e) {
			return "js"
		}
		return "custom"
	}
}
