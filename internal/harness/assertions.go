package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []BatchEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step %d %s reset=%t %v\n", i, event.Step, event.Kind, event.Reset, event.Keys())
		}
	}

	return buf.String()
}

// assertBatchCount checks the number of batches, optionally of one kind.
func assertBatchCount(trace []BatchEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if assertion.Kind == "" || kindMatches(event.Kind, assertion.Kind) {
			count++
		}
	}

	if count != assertion.Count {
		what := "batches"
		if assertion.Kind != "" {
			what = assertion.Kind + " batches"
		}
		return &AssertionError{
			Type:     AssertBatchCount,
			Expected: fmt.Sprintf("%d %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
			Trace:    trace,
		}
	}
	return nil
}

// assertBatchKeys checks the record keys of one batch, in order.
func assertBatchKeys(trace []BatchEvent, assertion Assertion) error {
	event, err := batchAt(trace, assertion)
	if err != nil {
		return err
	}

	keys := event.Keys()
	if !slicesEqual(keys, assertion.Keys) {
		return &AssertionError{
			Type:     AssertBatchKeys,
			Expected: fmt.Sprintf("batch %d keys %v", assertion.Batch, assertion.Keys),
			Actual:   fmt.Sprintf("batch %d keys %v", assertion.Batch, keys),
			Trace:    trace,
		}
	}
	return nil
}

// assertBatchReset checks the reset flag of one batch.
func assertBatchReset(trace []BatchEvent, assertion Assertion) error {
	event, err := batchAt(trace, assertion)
	if err != nil {
		return err
	}

	if event.Reset != *assertion.Reset {
		return &AssertionError{
			Type:     AssertBatchReset,
			Expected: fmt.Sprintf("batch %d reset=%t", assertion.Batch, *assertion.Reset),
			Actual:   fmt.Sprintf("batch %d reset=%t", assertion.Batch, event.Reset),
			Trace:    trace,
		}
	}
	return nil
}

// assertRecordField checks one field of one record.
func assertRecordField(trace []BatchEvent, assertion Assertion) error {
	event, err := batchAt(trace, assertion)
	if err != nil {
		return err
	}

	if assertion.Record < 0 || assertion.Record >= len(event.Records) {
		return &AssertionError{
			Type:     AssertRecordField,
			Expected: fmt.Sprintf("record %d in batch %d", assertion.Record, assertion.Batch),
			Actual:   fmt.Sprintf("batch has %d records", len(event.Records)),
			Trace:    trace,
		}
	}

	actual, ok := event.Records[assertion.Record].Get(assertion.Field)
	if !ok {
		return &AssertionError{
			Type:     AssertRecordField,
			Expected: fmt.Sprintf("field %q to exist", assertion.Field),
			Actual:   fmt.Sprintf("record keys: %v", event.Records[assertion.Record].Keys()),
			Trace:    trace,
		}
	}

	expected, err := feed.ToValue(assertion.Value)
	if err != nil {
		return fmt.Errorf("record_field %q: %w", assertion.Field, err)
	}
	if expected != actual {
		return &AssertionError{
			Type:     AssertRecordField,
			Expected: fmt.Sprintf("field %q = %v (type %T)", assertion.Field, expected, expected),
			Actual:   fmt.Sprintf("field %q = %v (type %T)", assertion.Field, actual, actual),
			Trace:    trace,
		}
	}
	return nil
}

func batchAt(trace []BatchEvent, assertion Assertion) (BatchEvent, error) {
	if assertion.Batch < 0 || assertion.Batch >= len(trace) {
		return BatchEvent{}, &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("batch %d", assertion.Batch),
			Actual:   fmt.Sprintf("trace has %d batches", len(trace)),
			Trace:    trace,
		}
	}
	return trace[assertion.Batch], nil
}

func kindMatches(eventKind, want string) bool {
	k, err := feed.ParseKind(want)
	if err != nil {
		return false
	}
	return k.String() == eventKind
}

// assertFinalState checks if a store table contains expected values.
// Queries the table with parameterized SQL and validates expected values
// using subset semantics.
//
// Security: Table and column names are validated against a whitelist pattern
// to prevent SQL injection via identifier interpolation.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if assertion.Table == "" {
		return fmt.Errorf("final_state assertion requires table name")
	}

	// Identifiers can't be parameterized
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.DB().QueryContext(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	// An ambiguous assertion is a scenario bug.
	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]any, len(columns))
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}

		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// buildWhereClause constructs parameterized WHERE clause from assertion.Where.
// Returns SQL fragment, arguments slice, and error. Keys are sorted for determinism.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML-decoded or feed value to a SQL argument.
func toSQLValue(v any) any {
	switch val := v.(type) {
	case feed.String:
		return string(val)
	case feed.Int:
		return int64(val)
	case feed.Bool:
		return bool(val)
	case string, int, int64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// stateValuesEqual compares expected and actual values from store tables.
// SQLite returns integers as int64, booleans as 0/1 and text either as
// string or []byte depending on the column affinity.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case feed.String:
		return stateValuesEqual(string(exp), actual)
	case feed.Int:
		return stateValuesEqual(int64(exp), actual)
	case feed.Bool:
		return stateValuesEqual(bool(exp), actual)
	case string:
		actualStr, ok := actual.(string)
		return ok && exp == actualStr
	case int:
		return stateValuesEqual(int64(exp), actual)
	case int64:
		switch a := actual.(type) {
		case int64:
			return exp == a
		case int:
			return exp == int64(a)
		}
		return false
	case bool:
		switch a := actual.(type) {
		case bool:
			return exp == a
		case int64:
			return exp == (a != 0)
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertBatchCount:
			err = assertBatchCount(result.Trace, assertion)
		case AssertBatchKeys:
			err = assertBatchKeys(result.Trace, assertion)
		case AssertBatchReset:
			err = assertBatchReset(result.Trace, assertion)
		case AssertRecordField:
			err = assertRecordField(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
