package format

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// TxType enumerates wallet transaction record types.
type TxType int

const (
	TxTypeOther TxType = iota
	TxTypeGenerated
	TxTypeSendToAddress
	TxTypeSendToOther
	TxTypeRecvWithAddress
	TxTypeRecvFromOther
	TxTypeSendToSelf
	TxTypeRecvShadow
	TxTypeSendShadow
)

var txTypeLabels = []string{
	TxTypeOther:           "Other",
	TxTypeGenerated:       "Generated",
	TxTypeSendToAddress:   "Sent to",
	TxTypeSendToOther:     "Sent to",
	TxTypeRecvWithAddress: "Received with",
	TxTypeRecvFromOther:   "Received from",
	TxTypeSendToSelf:      "Payment to yourself",
	TxTypeRecvShadow:      "Received shadow",
	TxTypeSendShadow:      "Sent shadow",
}

// TypeShort returns the short code the display layer keys icons and styles on.
func TypeShort(t TxType) string {
	switch t {
	case TxTypeGenerated:
		return "staked"
	case TxTypeSendToAddress, TxTypeSendToOther, TxTypeSendShadow:
		return "output"
	case TxTypeRecvWithAddress, TxTypeRecvFromOther, TxTypeRecvShadow:
		return "input"
	case TxTypeSendToSelf:
		return "inout"
	default:
		return "other"
	}
}

// TypeLabel returns the long label for t, or "" when t is out of range.
func TypeLabel(t TxType) string {
	if t < 0 || int(t) >= len(txTypeLabels) {
		return ""
	}
	return txTypeLabels[t]
}

// TransactionTypeLabels returns every distinct long label, in type order.
// It is the default list of visible transaction types offered to the user.
func TransactionTypeLabels() []string {
	var labels []string
	seen := make(map[string]bool, len(txTypeLabels))
	for _, l := range txTypeLabels {
		if seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}
	return labels
}

var txTypeNames = []string{
	TxTypeOther:           "other",
	TxTypeGenerated:       "generated",
	TxTypeSendToAddress:   "send_to_address",
	TxTypeSendToOther:     "send_to_other",
	TxTypeRecvWithAddress: "recv_with_address",
	TxTypeRecvFromOther:   "recv_from_other",
	TxTypeSendToSelf:      "send_to_self",
	TxTypeRecvShadow:      "recv_shadow",
	TxTypeSendShadow:      "send_shadow",
}

// String returns the snake_case name of t.
func (t TxType) String() string {
	if t < 0 || int(t) >= len(txTypeNames) {
		return fmt.Sprintf("tx_type(%d)", int(t))
	}
	return txTypeNames[t]
}

// ParseTxType accepts a snake_case name or a decimal type number.
func ParseTxType(s string) (TxType, error) {
	for i, name := range txTypeNames {
		if name == s {
			return TxType(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(txTypeNames) {
		return TxType(n), nil
	}
	return TxTypeOther, fmt.Errorf("unknown transaction type %q", s)
}

// UnmarshalYAML accepts either form ParseTxType does.
func (t *TxType) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: transaction type must be a scalar", node.Line)
	}
	parsed, err := ParseTxType(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*t = parsed
	return nil
}

// MarshalYAML emits the snake_case name.
func (t TxType) MarshalYAML() (any, error) {
	return t.String(), nil
}
