package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-store/pkg/cell"
	"github.com/google/uuid"
)

// Invocation records one traced action call. It is built per call when
// devtools is enabled and handed to observers; the store keeps no copy.
type Invocation struct {
	ID        string
	Key       string
	Slice     string
	Action    string
	Args      []any
	Before    any
	After     any
	Err       error
	// Panic holds the value the operation panicked with. Err then wraps
	// ErrActionPanicked and the panic continues to the caller after the end
	// notification.
	Panic     any
	StartedAt time.Time
	Duration  time.Duration
}

// Label returns the "[slice] action" label used for trace groups.
func (inv Invocation) Label() string {
	return fmt.Sprintf("[%s] %s", inv.Slice, inv.Action)
}

// ToJSON serialises the invocation for logging or transport helpers. Values
// that cannot be encoded are replaced with their %v rendering.
func (inv Invocation) ToJSON() ([]byte, error) {
	payload := map[string]any{
		"id":         inv.ID,
		"key":        inv.Key,
		"slice":      inv.Slice,
		"action":     inv.Action,
		"args":       jsonSafe(inv.Args),
		"before":     jsonSafe(inv.Before),
		"after":      jsonSafe(inv.After),
		"started_at": inv.StartedAt,
		"duration":   inv.Duration.String(),
	}
	if inv.Err != nil {
		payload["error"] = inv.Err.Error()
	}
	if inv.Panic != nil {
		payload["panic"] = fmt.Sprintf("%v", inv.Panic)
	}
	return json.Marshal(payload)
}

func jsonSafe(value any) any {
	if value == nil {
		return nil
	}
	if _, err := json.Marshal(value); err != nil {
		return fmt.Sprintf("%v", value)
	}
	return value
}

// Observer receives before/after notifications for traced action calls.
// Observers must not mutate the invocation's snapshots; they are private
// copies but shared between observers of the same call.
type Observer interface {
	OnActionStart(Invocation)
	OnActionEnd(Invocation)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Start func(Invocation)
	End   func(Invocation)
}

// OnActionStart implements Observer.
func (o ObserverFuncs) OnActionStart(inv Invocation) {
	if o.Start != nil {
		o.Start(inv)
	}
}

// OnActionEnd implements Observer.
func (o ObserverFuncs) OnActionEnd(inv Invocation) {
	if o.End != nil {
		o.End(inv)
	}
}

// Observers fans notifications out in order.
type Observers []Observer

// OnActionStart implements Observer.
func (o Observers) OnActionStart(inv Invocation) {
	for _, observer := range o {
		if observer != nil {
			observer.OnActionStart(inv)
		}
	}
}

// OnActionEnd implements Observer.
func (o Observers) OnActionEnd(inv Invocation) {
	for _, observer := range o {
		if observer != nil {
			observer.OnActionEnd(inv)
		}
	}
}

// LogObserver writes a before/payload/after trace for every call through
// logger. It is the default observer when devtools is enabled without any
// explicit observer.
func LogObserver(logger Logger) Observer {
	if logger == nil {
		logger = NewZapLogger(nil)
	}
	return ObserverFuncs{
		Start: func(inv Invocation) {
			logger.Info(inv.Label(),
				"phase", "start",
				"id", inv.ID,
				"before", inv.Before,
				"payload", inv.Args,
			)
		},
		End: func(inv Invocation) {
			fields := []any{
				"phase", "end",
				"id", inv.ID,
				"after", inv.After,
				"duration", inv.Duration,
			}
			if inv.Err != nil {
				fields = append(fields, "error", inv.Err)
			}
			if inv.Panic != nil {
				logger.Error(inv.Label(), fields...)
				return
			}
			logger.Info(inv.Label(), fields...)
		},
	}
}

type tracer struct {
	on       bool
	observer Observer
	logger   Logger
	now      func() time.Time
}

func newTracer(cfg storeConfig) *tracer {
	t := &tracer{
		on:     cfg.devtools,
		logger: cfg.logger,
		now:    cfg.clock,
	}
	if !t.on {
		return t
	}
	observers := append(Observers(nil), cfg.observers...)
	if hooks := cfg.activityHooks; len(hooks) > 0 {
		observers = append(observers, newActivityObserver(hooks, cfg.activityConfig, cfg.logger))
	}
	if len(observers) == 0 {
		observers = Observers{LogObserver(cfg.logger)}
	}
	t.observer = observers
	return t
}

func (t *tracer) enabled() bool {
	return t != nil && t.on
}

func (t *tracer) start(key, slice, action string, args []any, snapshot func() any) *Invocation {
	inv := &Invocation{
		ID:        uuid.NewString(),
		Key:       key,
		Slice:     slice,
		Action:    action,
		Before:    t.capture("before", snapshot),
		StartedAt: t.now(),
	}
	if copied, ok := t.capture("args", func() any { return cell.Clone(args) }).([]any); ok {
		inv.Args = copied
	}
	t.notify(inv.Label(), func() { t.observer.OnActionStart(*inv) })
	return inv
}

func (t *tracer) end(inv *Invocation, snapshot func() any, err error) {
	inv.After = t.capture("after", snapshot)
	inv.Err = err
	inv.Duration = t.now().Sub(inv.StartedAt)
	t.notify(inv.Label(), func() { t.observer.OnActionEnd(*inv) })
}

// capture takes a best-effort snapshot; a panicking snapshot yields nil.
func (t *tracer) capture(what string, snapshot func() any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Debug("store: trace snapshot failed", "snapshot", what, "panic", r)
			out = nil
		}
	}()
	return snapshot()
}

func (t *tracer) notify(label string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("store: observer panicked", "action", label, "panic", r)
		}
	}()
	fn()
}
