package feed

import "fmt"

// Kind identifies one of the record collections synchronized independently.
type Kind int

const (
	// KindTransaction is the wallet transaction collection.
	KindTransaction Kind = iota + 1
	// KindAddress is the address book collection.
	KindAddress
	// KindMessage is the secure message collection.
	KindMessage
)

// AllKinds returns every kind in a stable order.
func AllKinds() []Kind {
	return []Kind{KindTransaction, KindAddress, KindMessage}
}

// String returns the lowercase label used in config files and logs.
func (k Kind) String() string {
	switch k {
	case KindTransaction:
		return "transaction"
	case KindAddress:
		return "address"
	case KindMessage:
		return "message"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k >= KindTransaction && k <= KindMessage
}

// ParseKind converts a label produced by Kind.String back into a Kind.
// Plural forms ("transactions") are accepted for CLI convenience.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "transaction", "transactions", "tx":
		return KindTransaction, nil
	case "address", "addresses":
		return KindAddress, nil
	case "message", "messages":
		return KindMessage, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}
