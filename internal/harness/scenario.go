package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/store"
)

// Scenario defines a synchronizer test scenario: an initial store, a
// visibility configuration, a sequence of steps and assertions on the
// resulting batch trace.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MaxRows caps full scans. Zero means the default.
	MaxRows int `yaml:"max_rows,omitempty"`

	// Visible lists the visible type labels per kind. Omitted kinds are
	// fully visible.
	Visible map[string][]string `yaml:"visible,omitempty"`

	// Store is seeded before any step runs. Seeding posts no batches.
	Store store.Fixture `yaml:"store"`

	// Steps run in order. Each waits for the synchronizer to go idle.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and store state.
	// Supported types: batch_count, batch_keys, batch_reset, record_field,
	// final_state
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action. Exactly one field is set.
type Step struct {
	// Full requests a full pass of the named kind.
	Full string `yaml:"full,omitempty"`

	// Range requests a range pass.
	Range *RangeStep `yaml:"range,omitempty"`

	// Insert writes records to the store; the store's notifications are
	// routed to the synchronizer.
	Insert *store.Fixture `yaml:"insert,omitempty"`

	// Visible replaces the visibility set of a kind.
	Visible *VisibleStep `yaml:"visible,omitempty"`

	// Bulk starts (true) or ends (false) a store bulk load.
	Bulk *bool `yaml:"bulk,omitempty"`
}

// RangeStep requests rows [Start, End] of Kind.
type RangeStep struct {
	Kind  string `yaml:"kind"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

// VisibleStep replaces the visibility set of Kind.
type VisibleStep struct {
	Kind   string   `yaml:"kind"`
	Labels []string `yaml:"labels"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "batch_count": number of batches, optionally of one kind
	// - "batch_keys": record keys of one batch, in order
	// - "batch_reset": reset flag of one batch
	// - "record_field": one field of one record of one batch
	// - "final_state": query a store table and verify expected values
	Type string `yaml:"type"`

	// Kind filters batch_count.
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of batches (batch_count).
	Count int `yaml:"count,omitempty"`

	// Batch is the trace index (batch_keys, batch_reset, record_field).
	Batch int `yaml:"batch,omitempty"`

	// Keys are the expected record keys (batch_keys).
	Keys []string `yaml:"keys,omitempty"`

	// Reset is the expected reset flag (batch_reset).
	Reset *bool `yaml:"reset,omitempty"`

	// Record is the record index within the batch (record_field).
	Record int `yaml:"record,omitempty"`

	// Field is the record key to check (record_field).
	Field string `yaml:"field,omitempty"`

	// Value is the expected field value (record_field).
	Value any `yaml:"value,omitempty"`

	// Table is the store table name (final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (final_state).
	// All fields must match exactly.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertBatchCount  = "batch_count"
	AssertBatchKeys   = "batch_keys"
	AssertBatchReset  = "batch_reset"
	AssertRecordField = "record_field"
	AssertFinalState  = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.MaxRows < 0 {
		return fmt.Errorf("max_rows must be non-negative")
	}
	for kind := range s.Visible {
		if _, err := feed.ParseKind(kind); err != nil {
			return fmt.Errorf("visible: %w", err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps must contain at least one step")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	set := 0
	if step.Full != "" {
		set++
		if _, err := feed.ParseKind(step.Full); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	if step.Range != nil {
		set++
		if _, err := feed.ParseKind(step.Range.Kind); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	if step.Insert != nil {
		set++
	}
	if step.Visible != nil {
		set++
		if _, err := feed.ParseKind(step.Visible.Kind); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	if step.Bulk != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of full, range, insert, visible, bulk is required", index)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertBatchCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for batch_count", index)
		}
		if a.Kind != "" {
			if _, err := feed.ParseKind(a.Kind); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertBatchKeys:
		if a.Keys == nil {
			return fmt.Errorf("assertions[%d]: keys is required for batch_keys", index)
		}
	case AssertBatchReset:
		if a.Reset == nil {
			return fmt.Errorf("assertions[%d]: reset is required for batch_reset", index)
		}
	case AssertRecordField:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for record_field", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for record_field", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
