// Package store provides the SQLite-backed reference wallet store.
//
// The store holds three collections (transactions, addresses, messages).
// Each is exposed as a Collection that answers row-indexed field lookups
// in the collection's sort order and posts change notifications after
// every mutation:
//   - Insert of a new row: RowsInserted for its index
//   - Update that keeps the row in place: RangeChanged for its index
//   - Update that moves the row, any delete: FullReset
//
// # Sort Orders
//
//   - transactions: unconfirmed first, then time descending, then txid
//   - addresses: label, then address
//   - messages: received time descending, then key
//
// Ties always break on the primary key (COLLATE BINARY), so row indexes
// are deterministic for a given database state.
//
// # Bulk Loading
//
// While SetBulkLoading(true) is in effect no notifications are posted.
// Ending the bulk load posts FullReset for every collection.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
