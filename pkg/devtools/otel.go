package devtools

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	store "github.com/goliatone/go-store"
)

// InstrumentationName names the tracer used when none is supplied.
const InstrumentationName = "github.com/goliatone/go-store"

// TraceObserver opens a span when an action starts and ends it when the
// action returns or panics. Spans are keyed by invocation id; an end without a
// matching start is ignored.
func TraceObserver(tracer trace.Tracer) store.Observer {
	if tracer == nil {
		tracer = otel.Tracer(InstrumentationName)
	}
	return &traceObserver{
		tracer: tracer,
		spans:  make(map[string]trace.Span),
	}
}

type traceObserver struct {
	tracer trace.Tracer
	mu     sync.Mutex
	spans  map[string]trace.Span
}

func (o *traceObserver) OnActionStart(inv store.Invocation) {
	_, span := o.tracer.Start(context.Background(), spanName(inv),
		trace.WithTimestamp(inv.StartedAt),
		trace.WithAttributes(
			attribute.String("store.invocation_id", inv.ID),
			attribute.String("store.key", inv.Key),
			attribute.String("store.slice", inv.Slice),
			attribute.String("store.action", inv.Action),
			attribute.Int("store.args", len(inv.Args)),
		),
	)
	o.mu.Lock()
	o.spans[inv.ID] = span
	o.mu.Unlock()
}

func (o *traceObserver) OnActionEnd(inv store.Invocation) {
	o.mu.Lock()
	span, ok := o.spans[inv.ID]
	delete(o.spans, inv.ID)
	o.mu.Unlock()
	if !ok {
		return
	}
	if inv.Panic != nil {
		span.SetAttributes(attribute.String("store.panic", fmt.Sprintf("%v", inv.Panic)))
	}
	if inv.Err != nil {
		span.RecordError(inv.Err)
		span.SetStatus(codes.Error, inv.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(inv.StartedAt.Add(inv.Duration)))
}

// pending reports spans started but not yet ended.
func (o *traceObserver) pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.spans)
}

func spanName(inv store.Invocation) string {
	return "store.action " + inv.Slice + "/" + inv.Action
}
