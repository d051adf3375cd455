// Package suite implements the Suite Store: the owner of all editable
// workspace state (suites of blocks, the active suite, rubric items and
// attached source files) and the only place that state is mutated.
//
// Every mutation is serialised behind a single mutex and either succeeds
// completely or leaves the state untouched, so the tree invariants of
// package block hold after any sequence of calls:
//   - no dangling ParentID
//   - no cycles
//   - unique ids within a suite
//
// Successful mutations emit one Edit event to each registered Listener after
// the lock is released. The store never snapshots itself; deciding when an
// edit becomes an undo step is the history package's job.
//
// Type compatibility (which block may go under which parent) is not checked
// here. Callers such as the dragdrop engine enforce it.
package suite
