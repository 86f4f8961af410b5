package store

import (
	"errors"

	"github.com/roach88/shadowfeed/internal/format"
)

// ErrNotFound is returned by lookups for a key the store does not hold.
var ErrNotFound = errors.New("not found")

// Address types.
const (
	AddressSend    = "S"
	AddressReceive = "R"
)

// Message types.
const (
	MessageReceived = "Received"
	MessageSent     = "Sent"
)

// Transaction is a wallet transaction record.
type Transaction struct {
	TxID          string        `json:"txid" yaml:"txid"`
	Type          format.TxType `json:"type" yaml:"type"`
	Confirmations int64         `json:"confirmations" yaml:"confirmations"`
	Time          int64         `json:"time" yaml:"time"`
	Address       string        `json:"address" yaml:"address"`
	Narration     string        `json:"narration,omitempty" yaml:"narration,omitempty"`
	Amount        int64         `json:"amount" yaml:"amount"`
}

// Address is an address book entry.
type Address struct {
	Address string `json:"address" yaml:"address"`
	Type    string `json:"type" yaml:"type"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	PubKey  string `json:"pubkey,omitempty" yaml:"pubkey,omitempty"`
}

// Message is an encrypted-messaging record, stored decrypted.
type Message struct {
	Key         string `json:"key" yaml:"key"`
	Type        string `json:"type" yaml:"type"`
	SentAt      int64  `json:"sent_at" yaml:"sent_at"`
	ReceivedAt  int64  `json:"received_at" yaml:"received_at"`
	ToAddress   string `json:"to_address" yaml:"to_address"`
	FromAddress string `json:"from_address" yaml:"from_address"`
	Body        string `json:"body" yaml:"body"`
	Read        bool   `json:"read" yaml:"read"`
}

// labelAddress is the counterparty address whose label names the message.
func (m Message) labelAddress() string {
	if m.Type == MessageSent {
		return m.ToAddress
	}
	return m.FromAddress
}

// TransactionDetails is a transaction joined with its address book entry.
type TransactionDetails struct {
	Transaction
	Label         string `json:"label"`
	AmountDisplay string `json:"amount_display"`
	Status        string `json:"status"`
}
