package feed

import "fmt"

// ChangeType distinguishes backing store notifications.
type ChangeType int

const (
	// ChangeFullReset means the whole collection must be re-read.
	ChangeFullReset ChangeType = iota + 1
	// ChangeRangeChanged means rows [Start, End] changed in place.
	ChangeRangeChanged
	// ChangeRowsInserted means rows [Start, End] were inserted.
	ChangeRowsInserted
)

func (t ChangeType) String() string {
	switch t {
	case ChangeFullReset:
		return "full_reset"
	case ChangeRangeChanged:
		return "range_changed"
	case ChangeRowsInserted:
		return "rows_inserted"
	default:
		return fmt.Sprintf("change(%d)", int(t))
	}
}

// Change is a backing store notification. Start and End are inclusive row
// indexes and are ignored for ChangeFullReset.
type Change struct {
	Kind  Kind
	Type  ChangeType
	Start int
	End   int
}

// FullReset builds a reset notification for kind.
func FullReset(kind Kind) Change {
	return Change{Kind: kind, Type: ChangeFullReset}
}

// RangeChanged builds a row-range change notification.
func RangeChanged(kind Kind, start, end int) Change {
	return Change{Kind: kind, Type: ChangeRangeChanged, Start: start, End: end}
}

// RowsInserted builds a row insertion notification.
func RowsInserted(kind Kind, start, end int) Change {
	return Change{Kind: kind, Type: ChangeRowsInserted, Start: start, End: end}
}

// VisibilityChange announces that the visible set for Kind was replaced.
type VisibilityChange struct {
	Kind Kind
	Set  VisibilitySet
}
