package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingObserver struct {
	mu     sync.Mutex
	starts []Invocation
	ends   []Invocation
}

func (r *recordingObserver) OnActionStart(inv Invocation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, inv)
}

func (r *recordingObserver) OnActionEnd(inv Invocation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends = append(r.ends, inv)
}

func fixedClock(times ...time.Time) func() time.Time {
	var mu sync.Mutex
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := times[i%len(times)]
		i++
		return t
	}
}

func TestDevtoolsEmitsOneStartEndPair(t *testing.T) {
	rec := &recordingObserver{}
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := MustNew(map[string]Definition{"counter": counterSlice("counter")}, quietOptions(
		WithDevtools(true),
		WithObserver(rec),
		WithClock(fixedClock(start, start.Add(3*time.Millisecond))),
	)...)

	if err := st.Dispatch("counter", "inc", 5); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(rec.starts) != 1 || len(rec.ends) != 1 {
		t.Fatalf("expected one start and one end, got %d/%d", len(rec.starts), len(rec.ends))
	}
	begin, end := rec.starts[0], rec.ends[0]
	if begin.ID == "" || begin.ID != end.ID {
		t.Fatalf("expected matching invocation ids, got %q and %q", begin.ID, end.ID)
	}
	if begin.Label() != "[counter] inc" {
		t.Fatalf("unexpected label %q", begin.Label())
	}
	if diff := cmp.Diff(counterState{Count: 0}, begin.Before); diff != "" {
		t.Fatalf("before mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{5}, begin.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if begin.After != nil {
		t.Fatalf("expected no after snapshot on start, got %v", begin.After)
	}
	if diff := cmp.Diff(counterState{Count: 5}, end.After); diff != "" {
		t.Fatalf("after mismatch (-want +got):\n%s", diff)
	}
	if end.Duration != 3*time.Millisecond {
		t.Fatalf("expected 3ms duration, got %s", end.Duration)
	}
}

func TestDevtoolsBeforeAfterOnNoop(t *testing.T) {
	rec := &recordingObserver{}
	st := MustNew(map[string]Definition{"counter": counterSlice("counter")}, quietOptions(
		WithDevtools(true),
		WithObserver(rec),
	)...)

	if err := st.Dispatch("counter", "noop"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if diff := cmp.Diff(rec.starts[0].Before, rec.ends[0].After); diff != "" {
		t.Fatalf("expected equal snapshots (-before +after):\n%s", diff)
	}
}

func TestDevtoolsEndCarriesOperationError(t *testing.T) {
	rec := &recordingObserver{}
	st := MustNew(map[string]Definition{"counter": counterSlice("counter")}, quietOptions(
		WithDevtools(true),
		WithObserver(rec),
	)...)

	if err := st.Dispatch("counter", "add", -2); !errors.Is(err, errNegative) {
		t.Fatalf("expected errNegative, got %v", err)
	}
	if len(rec.ends) != 1 || !errors.Is(rec.ends[0].Err, errNegative) {
		t.Fatalf("expected end with error, got %+v", rec.ends)
	}
}

func TestDevtoolsSkipsArgumentErrors(t *testing.T) {
	rec := &recordingObserver{}
	st := MustNew(map[string]Definition{"counter": counterSlice("counter")}, quietOptions(
		WithDevtools(true),
		WithObserver(rec),
	)...)

	if err := st.Dispatch("counter", "inc"); !errors.Is(err, ErrArgument) {
		t.Fatalf("expected argument error, got %v", err)
	}
	if len(rec.starts) != 0 || len(rec.ends) != 0 {
		t.Fatalf("expected no trace for rejected call")
	}
}

func TestDevtoolsDisabledCallsNoObserver(t *testing.T) {
	rec := &recordingObserver{}
	st := MustNew(map[string]Definition{"counter": counterSlice("counter")}, quietOptions(
		WithObserver(rec),
	)...)

	if err := st.Dispatch("counter", "inc", 1); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(rec.starts) != 0 || len(rec.ends) != 0 {
		t.Fatalf("expected observer untouched, got %d/%d", len(rec.starts), len(rec.ends))
	}
}

func TestDevtoolsObserverPanicIsRecovered(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	st := MustNew(map[string]Definition{"counter": counterSlice("counter")},
		WithLogger(NewZapLogger(zap.New(core))),
		WithDevtools(true),
		WithObserver(ObserverFuncs{Start: func(Invocation) { panic("observer") }}),
	)

	if err := st.Dispatch("counter", "inc", 2); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := MustLookup[counterState](st, "counter").Get().Count; got != 2 {
		t.Fatalf("expected commit despite observer panic, got %d", got)
	}
	if logs.FilterMessage("store: observer panicked").Len() != 1 {
		t.Fatalf("expected panic to be logged, got %v", logs.All())
	}
}

func TestDevtoolsDefaultsToLogObserver(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	st := MustNew(map[string]Definition{"counter": counterSlice("counter")},
		WithLogger(NewZapLogger(zap.New(core))),
		WithDevtools(true),
	)

	if err := st.Dispatch("counter", "inc", 7); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	entries := logs.FilterMessage("[counter] inc").All()
	if len(entries) != 2 {
		t.Fatalf("expected start and end log lines, got %d", len(entries))
	}
	start := entries[0].ContextMap()
	end := entries[1].ContextMap()
	if start["phase"] != "start" || end["phase"] != "end" {
		t.Fatalf("unexpected phases %v / %v", start["phase"], end["phase"])
	}
	if start["id"] != end["id"] {
		t.Fatalf("expected shared invocation id")
	}
}

func TestObserversFanOutInOrder(t *testing.T) {
	var order []string
	obs := Observers{
		ObserverFuncs{Start: func(Invocation) { order = append(order, "a") }},
		nil,
		ObserverFuncs{Start: func(Invocation) { order = append(order, "b") }},
	}
	obs.OnActionStart(Invocation{})
	obs.OnActionEnd(Invocation{})
	if diff := cmp.Diff([]string{"a", "b"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestInvocationToJSON(t *testing.T) {
	inv := Invocation{
		ID:       "id-1",
		Key:      "counter",
		Slice:    "counter",
		Action:   "inc",
		Args:     []any{1, func() {}},
		Before:   counterState{Count: 1},
		After:    counterState{Count: 2},
		Err:      errors.New("failed"),
		Duration: time.Second,
	}
	raw, err := inv.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["error"] != "failed" || decoded["duration"] != "1s" {
		t.Fatalf("unexpected payload %v", decoded)
	}
	if diff := cmp.Diff(map[string]any{"count": float64(2)}, decoded["after"]); diff != "" {
		t.Fatalf("after mismatch (-want +got):\n%s", diff)
	}
	if _, ok := decoded["args"].(string); !ok {
		t.Fatalf("expected unencodable args rendered as string, got %T", decoded["args"])
	}
}

func panickingCounter() Slice[counterState] {
	return DefineSlice(Slice[counterState]{
		Name: "counter",
		Actions: map[string]Operation[counterState]{
			"boom": Op0(func(draft *counterState) {
				draft.Count = 42
				panic("boom")
			}),
		},
	})
}

func TestDevtoolsEndFiresWhenOperationPanics(t *testing.T) {
	rec := &recordingObserver{}
	st := MustNew(map[string]Definition{"counter": panickingCounter()}, quietOptions(
		WithDevtools(true),
		WithObserver(rec),
	)...)

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Fatalf("expected panic to reach the caller, got %v", r)
			}
		}()
		_ = st.Dispatch("counter", "boom")
	}()

	if len(rec.starts) != 1 || len(rec.ends) != 1 {
		t.Fatalf("expected one start and one end, got %d/%d", len(rec.starts), len(rec.ends))
	}
	end := rec.ends[0]
	if end.Panic != "boom" || !errors.Is(end.Err, ErrActionPanicked) {
		t.Fatalf("expected panic recorded, got panic=%v err=%v", end.Panic, end.Err)
	}
	if diff := cmp.Diff(counterState{}, end.After); diff != "" {
		t.Fatalf("expected draft discarded in after snapshot (-want +got):\n%s", diff)
	}
}

func TestDefaultLoggerWritesToConsole(t *testing.T) {
	var buf bytes.Buffer
	previous := consoleLogger
	consoleLogger = func() *zap.Logger { return newConsoleLogger(zapcore.AddSync(&buf)) }
	t.Cleanup(func() { consoleLogger = previous })

	st := MustNew(map[string]Definition{"counter": counterSlice("counter")}, WithDevtools(true))
	if err := st.Dispatch("counter", "inc", 5); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	MustNew(map[string]Definition{})

	out := buf.String()
	for _, want := range []string{"[counter] inc", `"phase": "start"`, `"phase": "end"`, "store: at least one slice must be provided"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected console output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestDefaultLoggerPrefersReplacedGlobals(t *testing.T) {
	var buf bytes.Buffer
	previous := consoleLogger
	consoleLogger = func() *zap.Logger { return newConsoleLogger(zapcore.AddSync(&buf)) }
	t.Cleanup(func() { consoleLogger = previous })

	core, logs := observer.New(zapcore.WarnLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	defer undo()

	MustNew(map[string]Definition{})

	if logs.FilterMessage("store: at least one slice must be provided").Len() != 1 {
		t.Fatalf("expected warning on the global logger, got %v", logs.All())
	}
	if buf.Len() != 0 {
		t.Fatalf("expected console fallback unused, got %q", buf.String())
	}
}
