package feed

import "fmt"

// Value is a sealed interface over the primitives a formatted record may carry.
// Only String, Int, and Bool implement it.
type Value interface {
	feedValue()
}

// String is a string field value.
type String string

func (String) feedValue() {}

// Int is an integer field value. Always int64.
type Int int64

func (Int) feedValue() {}

// Bool is a boolean field value.
type Bool bool

func (Bool) feedValue() {}

// AsString returns v as a Go string, formatting non-string values.
// A nil value yields the empty string.
func AsString(v Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case String:
		return string(val)
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case Bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AsInt returns v as an int64. Strings and nil yield 0; true yields 1.
func AsInt(v Value) int64 {
	switch val := v.(type) {
	case Int:
		return int64(val)
	case Bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// AsBool returns v as a bool. Non-zero integers and "true" are true.
func AsBool(v Value) bool {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Int:
		return val != 0
	case String:
		return val == "true"
	default:
		return false
	}
}

// ToValue converts a Go primitive into a Value.
// Floats are rejected: amounts travel as integer base units.
func ToValue(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are not allowed in records: %v", val)
	case nil:
		return nil, fmt.Errorf("null is not allowed in records")
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}
