// Package engine keeps a consumer's view of the wallet collections in
// step with the backing store.
//
// ARCHITECTURE:
//
// Lanes:
// Passes run on sequential execution contexts called lanes. Transactions
// and addresses share the wallet lane; messages run on their own lane.
// A lane runs one job at a time in submission order, so:
// - Two passes for the same kind never read the collection concurrently
// - A range pass requested during a full pass runs after it
// - Batches for one kind leave in the order their passes finished
//
// Pass Flow:
// 1. The backing store (or the config Provider) posts a change notification
// 2. Synchronizer routes it: full reset -> RefreshGate -> full pass,
//    row range -> range pass
// 3. The pass runs on the kind's lane via Producer (shared scan routine)
// 4. Non-empty batches are stamped (ID, Seq) and posted to the Dispatcher
// 5. The Dispatcher delivers them to the Sink on the consumer's goroutine
//
// The RefreshGate never queues. A full pass requested while another is in
// flight, or while the store is bulk loading, is dropped; the store
// announces a full reset when the bulk load ends.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every dispatched batch is stamped with a monotonic seq from Clock.Next().
// Wall-clock time is never used for ordering.
//
// Log and Continue:
// Pass failures are logged with kind, row and code. The records formatted
// before the failure are still dispatched. Nothing is surfaced to the sink.
package engine
