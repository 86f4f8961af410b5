package harness

import "github.com/roach88/shadowfeed/internal/feed"

// BatchEvent is one delivered batch in a scenario trace.
type BatchEvent struct {
	// Step is the index of the scenario step that caused the batch.
	Step int `json:"step"`

	// Kind is the record kind, e.g. "transaction".
	Kind string `json:"kind"`

	// ID and Seq are as stamped by the synchronizer. Batches produced by one
	// step on different lanes may be stamped in either order, so golden
	// snapshots leave both out.
	ID  string `json:"id"`
	Seq int64  `json:"seq"`

	Reset   bool                   `json:"reset"`
	Records []feed.FormattedRecord `json:"records"`
}

// Keys returns the identity key of every record.
func (e BatchEvent) Keys() []string {
	keys := make([]string, len(e.Records))
	for i, r := range e.Records {
		keys[i] = r.Key()
	}
	return keys
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Trace contains every delivered batch. Within a step, batches are
	// grouped by kind; per kind they keep delivery order.
	Trace []BatchEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Skipped counts requests the synchronizer dropped (gate rejection,
	// bulk loading).
	Skipped int64 `json:"skipped"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []BatchEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddBatch appends a delivered batch to the trace.
func (r *Result) AddBatch(step int, b feed.Batch) {
	r.Trace = append(r.Trace, BatchEvent{
		Step:    step,
		Kind:    b.Kind.String(),
		ID:      b.ID,
		Seq:     b.Seq,
		Reset:   b.Reset,
		Records: b.Records,
	})
}
