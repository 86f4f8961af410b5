package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/shadowfeed/internal/format"
)

// LabelForAddress returns the address book label, or "" when the address
// is unknown or unlabelled.
func (s *Store) LabelForAddress(ctx context.Context, address string) (string, error) {
	var label string
	err := s.db.QueryRowContext(ctx,
		`SELECT label FROM addresses WHERE address = ?`, address).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("label for %s: %w", address, err)
	}
	return label, nil
}

// PubKeyForAddress returns the public key recorded for address.
func (s *Store) PubKeyForAddress(ctx context.Context, address string) (string, error) {
	var pubkey string
	err := s.db.QueryRowContext(ctx,
		`SELECT pubkey FROM addresses WHERE address = ?`, address).Scan(&pubkey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("pubkey for %s: %w", address, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("pubkey for %s: %w", address, err)
	}
	return pubkey, nil
}

// TransactionDetails returns a transaction with its label and display strings.
func (s *Store) TransactionDetails(ctx context.Context, txid string) (TransactionDetails, error) {
	var d TransactionDetails
	var txType int64
	err := s.db.QueryRowContext(ctx, `
		SELECT t.txid, t.tx_type, t.confirmations, t.tx_time, t.address, t.narration, t.amount,
		       COALESCE(a.label, '')
		FROM transactions t
		LEFT JOIN addresses a ON a.address = t.address
		WHERE t.txid = ?
	`, txid).Scan(&d.TxID, &txType, &d.Confirmations, &d.Time, &d.Address, &d.Narration, &d.Amount, &d.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return TransactionDetails{}, fmt.Errorf("transaction %s: %w", txid, ErrNotFound)
	}
	if err != nil {
		return TransactionDetails{}, fmt.Errorf("transaction %s: %w", txid, err)
	}

	d.Type = format.TxType(txType)
	d.AmountDisplay = FormatAmount(d.Amount)
	d.Status = StatusText(d.Confirmations)
	return d, nil
}

// LookupMessage returns the message stored under key.
func (s *Store) LookupMessage(ctx context.Context, key string) (Message, error) {
	var m Message
	err := s.db.QueryRowContext(ctx, `
		SELECT msg_key, msg_type, sent_at, received_at, to_address, from_address, body, read
		FROM messages
		WHERE msg_key = ?
	`, key).Scan(&m.Key, &m.Type, &m.SentAt, &m.ReceivedAt, &m.ToAddress, &m.FromAddress, &m.Body, &m.Read)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, fmt.Errorf("message %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Message{}, fmt.Errorf("message %s: %w", key, err)
	}
	return m, nil
}
