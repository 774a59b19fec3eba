package cell

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type counter struct {
	N      int
	Labels map[string]string
}

func TestNewCopiesInitialValue(t *testing.T) {
	initial := counter{Labels: map[string]string{"env": "prod"}}
	c := New(initial)

	initial.Labels["env"] = "qa"
	if got := c.Get().Labels["env"]; got != "prod" {
		t.Fatalf("expected cell detached from initial value, got %q", got)
	}
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	c := New(counter{Labels: map[string]string{"env": "prod"}})

	snapshot := c.Get()
	snapshot.Labels["env"] = "qa"
	snapshot.N = 99

	if got := c.Get(); got.N != 0 || got.Labels["env"] != "prod" {
		t.Fatalf("expected cell untouched by reader mutation, got %+v", got)
	}
}

func TestCommitAppliesDraftAndNotifies(t *testing.T) {
	c := New(counter{})

	var changes []Change[counter]
	stop := c.Subscribe(func(change Change[counter]) {
		changes = append(changes, change)
	})
	defer stop()

	err := c.Commit(func(draft *counter) error {
		draft.N += 5
		return nil
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if got := c.Get().N; got != 5 {
		t.Fatalf("expected N=5, got %d", got)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if diff := cmp.Diff([]string{"N"}, changes[0].Paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	if changes[0].Before.N != 0 || changes[0].After.N != 5 {
		t.Fatalf("unexpected before/after: %+v", changes[0])
	}
	if changes[0].Version != 1 || c.Version() != 1 {
		t.Fatalf("expected version 1, got change=%d cell=%d", changes[0].Version, c.Version())
	}
}

func TestCommitNoopDoesNotNotify(t *testing.T) {
	c := New(counter{N: 3})
	notified := false
	c.Subscribe(func(Change[counter]) { notified = true })

	if err := c.Commit(func(*counter) error { return nil }); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if notified {
		t.Fatalf("expected no notification for a no-op commit")
	}
	if c.Version() != 0 {
		t.Fatalf("expected version to stay 0, got %d", c.Version())
	}
	if got := c.Get(); got.N != 3 {
		t.Fatalf("expected value unchanged, got %+v", got)
	}
}

func TestCommitErrorDiscardsDraft(t *testing.T) {
	c := New(counter{N: 1})
	boom := errors.New("boom")

	err := c.Commit(func(draft *counter) error {
		draft.N = 100
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := c.Get().N; got != 1 {
		t.Fatalf("expected draft discarded, got N=%d", got)
	}
}

func TestCommitPanicDiscardsDraft(t *testing.T) {
	c := New(counter{N: 1})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = c.Commit(func(draft *counter) error {
			draft.N = 100
			panic("explode")
		})
	}()

	if got := c.Get().N; got != 1 {
		t.Fatalf("expected draft discarded, got N=%d", got)
	}
}

func TestCommitNilMutator(t *testing.T) {
	c := New(counter{})
	if err := c.Commit(nil); !errors.Is(err, ErrNilMutator) {
		t.Fatalf("expected ErrNilMutator, got %v", err)
	}
}

func TestCommitReentrantDoesNotDeadlock(t *testing.T) {
	outer := New(counter{})
	inner := New(counter{})

	err := outer.Commit(func(draft *counter) error {
		draft.N = 1
		return inner.Commit(func(d *counter) error {
			d.N = 2
			return nil
		})
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if outer.Get().N != 1 || inner.Get().N != 2 {
		t.Fatalf("unexpected values outer=%d inner=%d", outer.Get().N, inner.Get().N)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	c := New(counter{})
	calls := 0
	stop := c.Subscribe(func(Change[counter]) { calls++ })

	_ = c.Commit(func(d *counter) error { d.N++; return nil })
	stop()
	stop()
	_ = c.Commit(func(d *counter) error { d.N++; return nil })

	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
}

type bag struct {
	Label string
	items map[string]int
}

func TestCommitErrorDiscardsUnexportedMutations(t *testing.T) {
	c := New(bag{items: map[string]int{"a": 1}})
	boom := errors.New("boom")

	err := c.Commit(func(draft *bag) error {
		draft.items["b"] = 2
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := c.Get().items; len(got) != 1 {
		t.Fatalf("expected failed commit discarded, got %v", got)
	}
}

func TestGetDetachesUnexportedFields(t *testing.T) {
	c := New(bag{items: map[string]int{"a": 1}})

	snapshot := c.Get()
	snapshot.items["b"] = 99

	if got := c.Get().items; len(got) != 1 {
		t.Fatalf("expected live state untouched, got %v", got)
	}
}

func TestCommitReportsUnexportedChanges(t *testing.T) {
	c := New(bag{items: map[string]int{}})

	var paths []string
	c.Subscribe(func(change Change[bag]) { paths = change.Paths })
	if err := c.Commit(func(draft *bag) error {
		draft.items["a"] = 1
		return nil
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if diff := cmp.Diff([]string{`items["a"]`}, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}
