package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/format"
)

// recorder collects changes through Store.Observe.
type recorder struct {
	mu      sync.Mutex
	changes []feed.Change
}

func observe(t *testing.T, s *Store) *recorder {
	t.Helper()
	r := &recorder{}
	cancel := s.Observe(func(c feed.Change) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.changes = append(r.changes, c)
	})
	t.Cleanup(cancel)
	return r
}

func (r *recorder) take() []feed.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.changes
	r.changes = nil
	return out
}

func TestPutTransaction_Notifications(t *testing.T) {
	s := createTestStore(t)
	seedOrdering(t, s)
	ctx := context.Background()
	r := observe(t, s)

	// New row lands between the unconfirmed row and c.
	d := Transaction{TxID: "d", Type: format.TxTypeRecvFromOther, Confirmations: 3, Time: 300, Amount: 1}
	require.NoError(t, s.PutTransaction(ctx, d))
	assert.Equal(t, []feed.Change{feed.RowsInserted(feed.KindTransaction, 1, 1)}, r.take())

	// Changed in place.
	d.Narration = "tip"
	require.NoError(t, s.PutTransaction(ctx, d))
	assert.Equal(t, []feed.Change{feed.RangeChanged(feed.KindTransaction, 1, 1)}, r.take())

	// Moved.
	d.Time = 1
	require.NoError(t, s.PutTransaction(ctx, d))
	assert.Equal(t, []feed.Change{feed.FullReset(feed.KindTransaction)}, r.take())

	require.NoError(t, s.DeleteTransaction(ctx, "d"))
	assert.Equal(t, []feed.Change{feed.FullReset(feed.KindTransaction)}, r.take())

	err := s.DeleteTransaction(ctx, "d")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, r.take())

	assert.Error(t, s.PutTransaction(ctx, Transaction{}))
}

func TestPutAddress_RelabelsReferences(t *testing.T) {
	s := createTestStore(t)
	seedOrdering(t, s)
	ctx := context.Background()
	r := observe(t, s)

	// Szed labels transaction a and message m-old.
	require.NoError(t, s.PutAddress(ctx, Address{Address: "Szed", Type: AddressReceive, Label: "zed"}))
	assert.Equal(t, []feed.Change{feed.RangeChanged(feed.KindAddress, 2, 2)}, r.take(), "unchanged label touches nothing else")

	require.NoError(t, s.SetAddressLabel(ctx, "Szed", "a-zed"))
	assert.Equal(t, []feed.Change{
		feed.FullReset(feed.KindAddress),
		feed.FullReset(feed.KindTransaction),
		feed.FullReset(feed.KindMessage),
	}, r.take())

	label, err := s.LabelForAddress(ctx, "Szed")
	require.NoError(t, err)
	assert.Equal(t, "a-zed", label)

	assert.ErrorIs(t, s.SetAddressLabel(ctx, "Snope", "x"), ErrNotFound)
	assert.Error(t, s.PutAddress(ctx, Address{Address: "Sq", Type: "Q"}))
}

func TestMessages_ReadAndDelete(t *testing.T) {
	s := createTestStore(t)
	seedOrdering(t, s)
	ctx := context.Background()
	r := observe(t, s)

	require.NoError(t, s.MarkMessageRead(ctx, "m-old", true))
	assert.Equal(t, []feed.Change{feed.RangeChanged(feed.KindMessage, 1, 1)}, r.take())

	m, err := s.LookupMessage(ctx, "m-old")
	require.NoError(t, err)
	assert.True(t, m.Read)
	assert.Equal(t, "first", m.Body)

	assert.ErrorIs(t, s.MarkMessageRead(ctx, "missing", true), ErrNotFound)

	require.NoError(t, s.DeleteMessage(ctx, "m-old"))
	assert.Equal(t, []feed.Change{feed.FullReset(feed.KindMessage)}, r.take())

	_, err = s.LookupMessage(ctx, "m-old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAddress(t *testing.T) {
	s := createTestStore(t)
	seedOrdering(t, s)
	ctx := context.Background()
	r := observe(t, s)

	require.NoError(t, s.DeleteAddress(ctx, "Sabc"))
	assert.Equal(t, []feed.Change{
		feed.FullReset(feed.KindAddress),
		feed.FullReset(feed.KindTransaction),
		feed.FullReset(feed.KindMessage),
	}, r.take())
}

func TestBulkLoading_SuppressesUntilEnd(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	r := observe(t, s)

	changes, cancel := s.Collection(feed.KindTransaction).Subscribe()
	defer cancel()

	s.SetBulkLoading(true)
	assert.True(t, s.IsBulkLoading())
	assert.True(t, s.Collection(feed.KindTransaction).IsBulkLoading())

	require.NoError(t, s.PutTransaction(ctx, Transaction{TxID: "x", Time: 1, Amount: 1}))
	require.NoError(t, s.PutTransaction(ctx, Transaction{TxID: "y", Time: 2, Amount: 1}))
	assert.Empty(t, r.take())

	s.SetBulkLoading(false)
	assert.Equal(t, []feed.Change{
		feed.FullReset(feed.KindTransaction),
		feed.FullReset(feed.KindAddress),
		feed.FullReset(feed.KindMessage),
	}, r.take())

	select {
	case c := <-changes:
		assert.Equal(t, feed.FullReset(feed.KindTransaction), c)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not see the end-of-bulk reset")
	}
}

func TestLookups(t *testing.T) {
	s := createTestStore(t)
	seedOrdering(t, s)
	ctx := context.Background()

	d, err := s.TransactionDetails(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "alpha", d.Label)
	assert.Equal(t, "-2.50000000", d.AmountDisplay)
	assert.Equal(t, "Unconfirmed", d.Status)
	assert.Equal(t, format.TxTypeSendToAddress, d.Type)

	_, err = s.TransactionDetails(ctx, "zz")
	assert.ErrorIs(t, err, ErrNotFound)

	pk, err := s.PubKeyForAddress(ctx, "Sabc")
	require.NoError(t, err)
	assert.Equal(t, "02aa", pk)

	_, err = s.PubKeyForAddress(ctx, "Snope")
	assert.ErrorIs(t, err, ErrNotFound)

	label, err := s.LabelForAddress(ctx, "Snope")
	require.NoError(t, err)
	assert.Empty(t, label)
}

func TestParseFixture(t *testing.T) {
	fx, err := ParseFixture([]byte(`
transactions:
  - txid: a1
    type: recv_with_address
    confirmations: 12
    time: 1700000000
    address: SaBc
    amount: 150000000
addresses:
  - address: SaBc
    type: R
    label: savings
messages:
  - key: m1
    type: Received
    body: hello
`))
	require.NoError(t, err)
	assert.Equal(t, 3, fx.Len())
	assert.Equal(t, format.TxTypeRecvWithAddress, fx.Transactions[0].Type)
	assert.Equal(t, "savings", fx.Addresses[0].Label)

	_, err = ParseFixture([]byte("transactionz: []\n"))
	assert.Error(t, err, "unknown fields are rejected")
}
