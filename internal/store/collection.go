package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/format"
)

// rowValues is one row projected onto the formatter field ids.
type rowValues map[format.FieldID]feed.Value

// tableSpec describes how a collection is stored and ordered.
type tableSpec struct {
	table string
	key   string
	order string
	load  func(ctx context.Context, db *sql.DB, offset int) (rowValues, error)
}

// Sort orders are constants so the load functions can use them without
// creating an initialization cycle through the table specs.
const (
	transactionOrder = "(confirmations > 0) ASC, tx_time DESC, txid COLLATE BINARY ASC"
	addressOrder     = "label COLLATE BINARY ASC, address COLLATE BINARY ASC"
	messageOrder     = "received_at DESC, msg_key COLLATE BINARY ASC"
)

var transactionTable = tableSpec{
	table: "transactions",
	key:   "txid",
	order: transactionOrder,
	load:  loadTransactionRow,
}

var addressTable = tableSpec{
	table: "addresses",
	key:   "address",
	order: addressOrder,
	load:  loadAddressRow,
}

var messageTable = tableSpec{
	table: "messages",
	key:   "msg_key",
	order: messageOrder,
	load:  loadMessageRow,
}

// Collection is one kind's view of the store in sort order. It satisfies
// the synchronizer's Source contract.
//
// The formatter reads a row field by field, so the last loaded row is
// cached until the next mutation of this collection.
type Collection struct {
	store *Store
	kind  feed.Kind
	spec  tableSpec
	hub   *feed.Hub[feed.Change]

	mu        sync.Mutex
	gen       uint64
	cachedGen uint64
	cachedRow int
	cached    rowValues
}

func newCollection(s *Store, kind feed.Kind, spec tableSpec) *Collection {
	return &Collection{
		store:     s,
		kind:      kind,
		spec:      spec,
		hub:       feed.NewHub[feed.Change](),
		cachedRow: -1,
	}
}

// Kind returns the record kind held by the collection.
func (c *Collection) Kind() feed.Kind {
	return c.kind
}

// RowCount returns the number of rows.
func (c *Collection) RowCount(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.spec.table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.spec.table, err)
	}
	return n, nil
}

// IsBulkLoading reports whether the store is bulk loading.
func (c *Collection) IsBulkLoading() bool {
	return c.store.IsBulkLoading()
}

// Subscribe registers for change notifications on this collection.
func (c *Collection) Subscribe() (<-chan feed.Change, func()) {
	return c.hub.Subscribe()
}

// FieldAt returns field of the row at index row in sort order.
func (c *Collection) FieldAt(ctx context.Context, row int, field format.FieldID) (feed.Value, error) {
	values, err := c.rowAt(ctx, row)
	if err != nil {
		return nil, err
	}
	v, ok := values[field]
	if !ok {
		return nil, fmt.Errorf("%s has no field %s", c.kind, field)
	}
	return v, nil
}

// Keys returns every identity key in sort order.
func (c *Collection) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.store.db.QueryContext(ctx,
		"SELECT "+c.spec.key+" FROM "+c.spec.table+" ORDER BY "+c.spec.order)
	if err != nil {
		return nil, fmt.Errorf("query %s keys: %w", c.spec.table, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan %s key: %w", c.spec.table, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s keys: %w", c.spec.table, err)
	}
	return keys, nil
}

// IndexOf returns the row index of key, or -1.
func (c *Collection) IndexOf(ctx context.Context, key string) (int, error) {
	keys, err := c.Keys(ctx)
	if err != nil {
		return -1, err
	}
	for i, k := range keys {
		if k == key {
			return i, nil
		}
	}
	return -1, nil
}

func (c *Collection) rowAt(ctx context.Context, row int) (rowValues, error) {
	if row < 0 {
		return nil, fmt.Errorf("%s row %d out of range", c.kind, row)
	}

	c.mu.Lock()
	if c.cached != nil && c.cachedRow == row && c.cachedGen == c.gen {
		values := c.cached
		c.mu.Unlock()
		return values, nil
	}
	gen := c.gen
	c.mu.Unlock()

	values, err := c.spec.load(ctx, c.store.db, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s row %d out of range", c.kind, row)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s row %d: %w", c.kind, row, err)
	}

	c.mu.Lock()
	if c.gen == gen {
		c.cached = values
		c.cachedRow = row
		c.cachedGen = gen
	}
	c.mu.Unlock()

	return values, nil
}

// invalidate drops the row cache after a mutation.
func (c *Collection) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cached = nil
	c.cachedRow = -1
}

func loadTransactionRow(ctx context.Context, db *sql.DB, offset int) (rowValues, error) {
	var tx Transaction
	var txType int64
	var label string
	err := db.QueryRowContext(ctx, `
		SELECT t.txid, t.tx_type, t.confirmations, t.tx_time, t.address, t.narration, t.amount,
		       COALESCE(a.label, '')
		FROM transactions t
		LEFT JOIN addresses a ON a.address = t.address
		ORDER BY `+transactionOrder+`
		LIMIT 1 OFFSET ?
	`, offset).Scan(&tx.TxID, &txType, &tx.Confirmations, &tx.Time, &tx.Address, &tx.Narration, &tx.Amount, &label)
	if err != nil {
		return nil, err
	}
	tx.Type = format.TxType(txType)
	return transactionValues(tx, label), nil
}

func transactionValues(tx Transaction, label string) rowValues {
	return rowValues{
		format.TxID:             feed.String(tx.TxID),
		format.TxToolTip:        feed.String(StatusText(tx.Confirmations)),
		format.TxConfirmations:  feed.Int(tx.Confirmations),
		format.TxStatusIcon:     feed.String(statusIcon(tx.Confirmations)),
		format.TxDate:           feed.Int(tx.Time),
		format.TxDateDisplay:    feed.String(FormatDate(tx.Time)),
		format.TxTypeField:      feed.Int(int64(tx.Type)),
		format.TxTypeLabel:      feed.String(format.TypeLabel(tx.Type)),
		format.TxAddressColor:   feed.String(addressColor(label)),
		format.TxAddress:        feed.String(tx.Address),
		format.TxAddressLabel:   feed.String(label),
		format.TxAddressDisplay: feed.String(addressDisplay(label, tx.Address)),
		format.TxNarration:      feed.String(tx.Narration),
		format.TxAmountColor:    feed.String(amountColor(tx.Amount, tx.Confirmations)),
		format.TxAmount:         feed.Int(tx.Amount),
		format.TxAmountDisplay:  feed.String(FormatAmount(tx.Amount)),
	}
}

func loadAddressRow(ctx context.Context, db *sql.DB, offset int) (rowValues, error) {
	var a Address
	err := db.QueryRowContext(ctx, `
		SELECT address, addr_type, label, pubkey
		FROM addresses
		ORDER BY `+addressOrder+`
		LIMIT 1 OFFSET ?
	`, offset).Scan(&a.Address, &a.Type, &a.Label, &a.PubKey)
	if err != nil {
		return nil, err
	}
	return rowValues{
		format.AddrAddress:      feed.String(a.Address),
		format.AddrType:         feed.String(a.Type),
		format.AddrLabelValue:   feed.String(a.Label),
		format.AddrLabelDisplay: feed.String(labelDisplay(a.Label)),
		format.AddrPubKey:       feed.String(a.PubKey),
	}, nil
}

func loadMessageRow(ctx context.Context, db *sql.DB, offset int) (rowValues, error) {
	var m Message
	var label string
	err := db.QueryRowContext(ctx, `
		SELECT m.msg_key, m.msg_type, m.sent_at, m.received_at, m.to_address, m.from_address,
		       m.body, m.read, COALESCE(a.label, '')
		FROM messages m
		LEFT JOIN addresses a ON a.address =
			CASE WHEN m.msg_type = 'Sent' THEN m.to_address ELSE m.from_address END
		ORDER BY `+messageOrder+`
		LIMIT 1 OFFSET ?
	`, offset).Scan(&m.Key, &m.Type, &m.SentAt, &m.ReceivedAt, &m.ToAddress, &m.FromAddress,
		&m.Body, &m.Read, &label)
	if err != nil {
		return nil, err
	}
	return messageValues(m, label), nil
}

func messageValues(m Message, label string) rowValues {
	display := label
	if display == "" {
		display = m.labelAddress()
	}
	return rowValues{
		format.MsgKey:          feed.String(m.Key),
		format.MsgType:         feed.String(m.Type),
		format.MsgSentAt:       feed.Int(m.SentAt),
		format.MsgReceivedAt:   feed.Int(m.ReceivedAt),
		format.MsgLabelValue:   feed.String(label),
		format.MsgLabelDisplay: feed.String(display),
		format.MsgToAddress:    feed.String(m.ToAddress),
		format.MsgFromAddress:  feed.String(m.FromAddress),
		format.MsgRead:         feed.Bool(m.Read),
		format.MsgBody:         feed.String(m.Body),
	}
}
