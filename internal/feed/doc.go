// Package feed provides the data model shared by every shadowfeed package.
//
// This package contains type definitions and their encodings only. All other
// internal packages import feed; feed imports nothing internal.
//
// Key design constraints:
//   - Record identity is a stable key (txid, address, message key), never a row index
//   - Values are primitives only: string, int64, bool
//   - A Batch is immutable once dispatched
//   - VisibilitySet values are immutable; configuration swaps whole sets
package feed
