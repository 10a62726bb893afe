// Package atom implements the reactive store core: identity-bearing
// state cells (atoms), per-store value caches with subscriptions,
// coalesced change notification, generation-tagged asynchronous
// recomputation, and tag-based bulk invalidation.
//
// An atom is created once, usually at package scope, and carries only
// its computation rule. Current values live in a Store: the same atom
// can be live in any number of stores at once with independent cached
// values. The process-wide Default store is shared state for
// cross-component coordination; explicitly constructed stores isolate a
// subtree or a test.
//
//	var count = atom.Value(0)
//
//	release := atom.Subscribe(atom.Default(), count, func(n int) {
//	    fmt.Println("count is now", n)
//	}, atom.Immediate())
//	defer release()
//
//	atom.Set(atom.Default(), count, 1)
//
// Asynchronous atoms surface their output as a result.Result and never
// block Get; see package result and the Async constructor.
package atom
