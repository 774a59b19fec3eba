package store

import "time"

// SelectContext carries inputs for a selector evaluation. State is filled
// from the slice snapshot when nil.
type SelectContext struct {
	State    map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Slice    string
}

func (ctx SelectContext) withDefaultNow() SelectContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx SelectContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx SelectContext) withDefaultMaps() SelectContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	if ctx.State == nil {
		ctx.State = map[string]any{}
	}
	return ctx
}

func (ctx SelectContext) withDefaults() SelectContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx SelectContext) sliceLabel() string {
	if ctx.Slice != "" {
		return ctx.Slice
	}
	return "unknown"
}

// Evaluator runs selector expressions against a slice snapshot.
type Evaluator interface {
	Evaluate(ctx SelectContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledSelector, error)
}

// CompiledSelector is a reusable selector program.
type CompiledSelector interface {
	Evaluate(ctx SelectContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}
