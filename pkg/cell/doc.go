// Package cell provides the reactive value container backing each store
// slice.
//
// A Cell holds one value and exposes two operations: Get, which returns an
// independent deep copy, and Commit, which applies a mutator to a private
// draft and atomically installs the result. Listeners registered with
// Subscribe are told exactly which paths changed:
//
//	counter := cell.New(Counter{N: 0})
//	stop := counter.Subscribe(func(change cell.Change[Counter]) {
//		fmt.Println(change.Paths) // [N]
//	})
//	defer stop()
//	_ = counter.Commit(func(draft *Counter) error {
//		draft.N += 5
//		return nil
//	})
//
// Paths are computed with go-cmp, so types with an Equal method are compared
// as a single leaf.
package cell
