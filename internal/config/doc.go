// Package config loads shadowfeed configuration and serves it at runtime.
//
// Configuration files may be YAML (.yaml, .yml) or CUE (.cue). Both are
// unified with the embedded CUE schema, which rejects unknown fields and
// fills in defaults, before being decoded into a Config.
//
// At runtime a Provider holds the active visibility sets and row cap. Sets
// are swapped atomically as whole values; subscribers are told about every
// set that actually changed. A Watcher reloads the file on edit.
package config
