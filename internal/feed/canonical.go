package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MarshalRecord encodes a record as compact JSON with fields in record order.
//
// Strings are NFC normalized and HTML characters are not escaped, so the
// display layer receives exactly the text the formatter produced.
func MarshalRecord(r FormattedRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeRecord(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalBatch encodes a batch as a JSON object:
//
//	{"id":"...","kind":"transaction","seq":1,"reset":true,"records":[...]}
func MarshalBatch(b Batch) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	if err := writeString(&buf, b.ID); err != nil {
		return nil, err
	}
	buf.WriteString(`,"kind":`)
	if err := writeString(&buf, b.Kind.String()); err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, `,"seq":%d,"reset":%t,"records":[`, b.Seq, b.Reset)
	for i, r := range b.Records {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeRecord(&buf, r); err != nil {
			return nil, fmt.Errorf("record[%d]: %w", i, err)
		}
	}
	buf.WriteString(`]}`)
	return buf.Bytes(), nil
}

// MarshalCanonical encodes maps, slices and primitives with sorted object keys.
// Used for golden snapshots where field order must not depend on map iteration.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case Value:
		return writeValue(buf, val)
	case string:
		return writeString(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case bool:
		fmt.Fprintf(buf, "%t", val)
	case FormattedRecord:
		return writeRecord(buf, val)
	case []string:
		buf.WriteByte('[')
		for i, s := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, s); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeRecord(buf *bytes.Buffer, r FormattedRecord) error {
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, f.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, f.Value); err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case String:
		return writeString(buf, string(val))
	case Int:
		fmt.Fprintf(buf, "%d", int64(val))
	case Bool:
		fmt.Fprintf(buf, "%t", bool(val))
	case nil:
		return fmt.Errorf("null is forbidden")
	default:
		return fmt.Errorf("unsupported value type: %T", v)
	}
	return nil
}

// writeString writes s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder adds a trailing newline
	buf.WriteString(strings.TrimSuffix(tmp.String(), "\n"))
	return nil
}
