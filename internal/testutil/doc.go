// Package testutil provides in-memory collaborators for synchronizer tests:
// a backing collection with failure and blocking injection, a recording
// sink and row builders for each record kind.
package testutil
