package feed

// Batch is one dispatched unit of formatted records.
//
// Reset=true means the consumer replaces every record it knows for Kind.
// Reset=false means records are merged by identity key.
type Batch struct {
	ID      string
	Kind    Kind
	Seq     int64
	Reset   bool
	Records []FormattedRecord
}

// Empty reports whether the batch carries no records.
func (b Batch) Empty() bool {
	return len(b.Records) == 0
}

// Len returns the number of records.
func (b Batch) Len() int {
	return len(b.Records)
}

// Keys returns the identity keys of the records in batch order.
func (b Batch) Keys() []string {
	keys := make([]string, len(b.Records))
	for i, r := range b.Records {
		keys[i] = r.Key()
	}
	return keys
}
