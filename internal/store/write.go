package store

import (
	"context"
	"fmt"

	"github.com/roach88/shadowfeed/internal/feed"
)

// PutTransaction inserts or replaces a transaction by txid.
func (s *Store) PutTransaction(ctx context.Context, tx Transaction) error {
	if tx.TxID == "" {
		return fmt.Errorf("put transaction: empty txid")
	}
	return s.upsert(ctx, feed.KindTransaction, tx.TxID, `
		INSERT INTO transactions (txid, tx_type, confirmations, tx_time, address, narration, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(txid) DO UPDATE SET
			tx_type = excluded.tx_type,
			confirmations = excluded.confirmations,
			tx_time = excluded.tx_time,
			address = excluded.address,
			narration = excluded.narration,
			amount = excluded.amount
	`, tx.TxID, int64(tx.Type), tx.Confirmations, tx.Time, tx.Address, tx.Narration, tx.Amount)
}

// PutAddress inserts or replaces an address book entry. Transactions and
// messages showing the address are re-announced when its label changes.
func (s *Store) PutAddress(ctx context.Context, a Address) error {
	if a.Address == "" {
		return fmt.Errorf("put address: empty address")
	}
	if a.Type != AddressSend && a.Type != AddressReceive {
		return fmt.Errorf("put address %s: invalid type %q", a.Address, a.Type)
	}

	old, err := s.LabelForAddress(ctx, a.Address)
	if err != nil {
		return fmt.Errorf("put address: %w", err)
	}

	err = s.upsert(ctx, feed.KindAddress, a.Address, `
		INSERT INTO addresses (address, addr_type, label, pubkey)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			addr_type = excluded.addr_type,
			label = excluded.label,
			pubkey = excluded.pubkey
	`, a.Address, a.Type, a.Label, a.PubKey)
	if err != nil {
		return err
	}

	if old != a.Label {
		return s.relabel(ctx, a.Address)
	}
	return nil
}

// SetAddressLabel changes the label of an existing address.
func (s *Store) SetAddressLabel(ctx context.Context, address, label string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE addresses SET label = ? WHERE address = ?`, label, address)
	if err != nil {
		return fmt.Errorf("set label: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set label %s: %w", address, ErrNotFound)
	}

	// The address may move in the label order.
	s.notify(feed.FullReset(feed.KindAddress))
	return s.relabel(ctx, address)
}

// PutMessage inserts or replaces a message by key.
func (s *Store) PutMessage(ctx context.Context, m Message) error {
	if m.Key == "" {
		return fmt.Errorf("put message: empty key")
	}
	return s.upsert(ctx, feed.KindMessage, m.Key, `
		INSERT INTO messages (msg_key, msg_type, sent_at, received_at, to_address, from_address, body, read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(msg_key) DO UPDATE SET
			msg_type = excluded.msg_type,
			sent_at = excluded.sent_at,
			received_at = excluded.received_at,
			to_address = excluded.to_address,
			from_address = excluded.from_address,
			body = excluded.body,
			read = excluded.read
	`, m.Key, m.Type, m.SentAt, m.ReceivedAt, m.ToAddress, m.FromAddress, m.Body, m.Read)
}

// MarkMessageRead sets the read flag of a message.
func (s *Store) MarkMessageRead(ctx context.Context, key string, read bool) error {
	idx, err := s.collections[feed.KindMessage].IndexOf(ctx, key)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if idx < 0 {
		return fmt.Errorf("mark read %s: %w", key, ErrNotFound)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE messages SET read = ? WHERE msg_key = ?`, read, key); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	s.notify(feed.RangeChanged(feed.KindMessage, idx, idx))
	return nil
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, txid string) error {
	return s.delete(ctx, feed.KindTransaction, txid)
}

// DeleteAddress removes an address book entry.
func (s *Store) DeleteAddress(ctx context.Context, address string) error {
	if err := s.delete(ctx, feed.KindAddress, address); err != nil {
		return err
	}
	return s.relabel(ctx, address)
}

// DeleteMessage removes a message.
func (s *Store) DeleteMessage(ctx context.Context, key string) error {
	return s.delete(ctx, feed.KindMessage, key)
}

// upsert runs query and announces where the row ended up: a new row is an
// insertion, a row that kept its index changed in place, a row that moved
// invalidates the whole order.
func (s *Store) upsert(ctx context.Context, kind feed.Kind, key, query string, args ...any) error {
	coll := s.collections[kind]

	before, err := coll.IndexOf(ctx, key)
	if err != nil {
		return fmt.Errorf("put %s: %w", kind, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s: %w", kind, err)
	}

	after, err := coll.IndexOf(ctx, key)
	if err != nil {
		return fmt.Errorf("put %s: %w", kind, err)
	}

	switch {
	case before < 0:
		s.notify(feed.RowsInserted(kind, after, after))
	case before == after:
		s.notify(feed.RangeChanged(kind, after, after))
	default:
		s.notify(feed.FullReset(kind))
	}
	return nil
}

func (s *Store) delete(ctx context.Context, kind feed.Kind, key string) error {
	coll := s.collections[kind]

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM "+coll.spec.table+" WHERE "+coll.spec.key+" = ?", key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s %s: %w", kind, key, ErrNotFound)
	}

	s.notify(feed.FullReset(kind))
	return nil
}

// relabel re-announces the transactions and messages that display address.
func (s *Store) relabel(ctx context.Context, address string) error {
	var txRefs, msgRefs int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE address = ?`, address).Scan(&txRefs)
	if err != nil {
		return fmt.Errorf("relabel: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE to_address = ? OR from_address = ?`, address, address).Scan(&msgRefs)
	if err != nil {
		return fmt.Errorf("relabel: %w", err)
	}

	if txRefs > 0 {
		s.notify(feed.FullReset(feed.KindTransaction))
	}
	if msgRefs > 0 {
		s.notify(feed.FullReset(feed.KindMessage))
	}
	return nil
}
