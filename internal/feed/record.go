package feed

// Field is one key/value pair of a formatted record.
type Field struct {
	Key   string
	Value Value
}

// F is a shorthand for Field construction.
func F(key string, value Value) Field {
	return Field{Key: key, Value: value}
}

// FormattedRecord is the display-ready projection of one backing record.
//
// Field order is fixed per kind by the formatter that produced it. The first
// field is always the identity key.
type FormattedRecord []Field

// Get returns the value stored under key.
func (r FormattedRecord) Get(key string) (Value, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Key returns the identity value of the record (its first field).
func (r FormattedRecord) Key() string {
	if len(r) == 0 {
		return ""
	}
	return AsString(r[0].Value)
}

// Keys returns the field names in order.
func (r FormattedRecord) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Map returns the record as an unordered map of Go primitives.
func (r FormattedRecord) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, f := range r {
		switch v := f.Value.(type) {
		case String:
			m[f.Key] = string(v)
		case Int:
			m[f.Key] = int64(v)
		case Bool:
			m[f.Key] = bool(v)
		}
	}
	return m
}
