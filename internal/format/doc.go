// Package format turns rows of a backing collection into display-ready records.
//
// Each record kind has one Formatter. Formatters are pure: they read fields
// through a RowReader and hold no state, so the full-scan and the incremental
// paths share exactly the same projection and filter label.
package format
