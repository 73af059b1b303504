// Package engine is the UI dispatch loop views run on.
//
// ARCHITECTURE:
//
// Single-Consumer Task Loop:
// Every DOM mutation, listener callback and view lifecycle step happens on
// one goroutine, the one calling Run, RunUntil or RunPending. Work produced
// elsewhere (a lazily resolved view type arriving from a provider goroutine)
// is handed over with Post and runs in FIFO order on the next turn of the
// loop. This gives the cooperative, non-preemptive model the browser offers:
//   - no locks around views or the document
//   - a task never observes another task half done
//   - continuations run in the order they were posted
//
// Ordering:
// Clock hands out strictly increasing sequence numbers. Views are stamped
// with one at construction and journal entries with one per record, so
// creation order and trace order never depend on wall-clock time.
//
// Identity:
// IDGenerator produces view ids. SequentialIDs ("view1", "view2", ...) is
// the default; UUIDv7Generator gives time-sortable ids that stay unique
// across processes; FixedGenerator replays a known list in tests.
package engine
