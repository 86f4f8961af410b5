package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/format"
)

func seedOrdering(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	fx := Fixture{
		Addresses: []Address{
			{Address: "Szed", Type: AddressReceive, Label: "zed"},
			{Address: "Sabc", Type: AddressSend, Label: "alpha", PubKey: "02aa"},
			{Address: "Sbare", Type: AddressReceive},
		},
		Transactions: []Transaction{
			{TxID: "a", Type: format.TxTypeRecvWithAddress, Confirmations: 5, Time: 100, Address: "Szed", Amount: 100},
			{TxID: "b", Type: format.TxTypeSendToAddress, Confirmations: 0, Time: 50, Address: "Sabc", Amount: -250000000},
			{TxID: "c", Type: format.TxTypeGenerated, Confirmations: 5, Time: 200, Amount: 300},
		},
		Messages: []Message{
			{Key: "m-old", Type: MessageReceived, SentAt: 10, ReceivedAt: 11, FromAddress: "Szed", ToAddress: "Sbare", Body: "first"},
			{Key: "m-new", Type: MessageSent, SentAt: 20, ReceivedAt: 21, FromAddress: "Sbare", ToAddress: "Sabc", Body: "second"},
		},
	}
	require.NoError(t, s.Seed(ctx, fx))
}

func TestCollection_SortOrder(t *testing.T) {
	s := createTestStore(t)
	seedOrdering(t, s)
	ctx := context.Background()

	keys, err := s.Collection(feed.KindTransaction).Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, keys, "unconfirmed first, then newest")

	keys, err = s.Collection(feed.KindAddress).Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sbare", "Sabc", "Szed"}, keys, "by label then address")

	keys, err = s.Collection(feed.KindMessage).Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m-new", "m-old"}, keys, "newest received first")

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[feed.Kind]int{feed.KindTransaction: 3, feed.KindAddress: 3, feed.KindMessage: 2}, counts)
}

func TestCollection_TransactionFields(t *testing.T) {
	s := createTestStore(t)
	seedOrdering(t, s)
	ctx := context.Background()
	coll := s.Collection(feed.KindTransaction)

	rec, err := format.MustFor(feed.KindTransaction).Format(ctx, coll, 0)
	require.NoError(t, err)

	want := map[string]feed.Value{
		"id":   feed.String("b"),
		"tt":   feed.String("Unconfirmed"),
		"c":    feed.Int(0),
		"s":    feed.String("tx_unconfirmed"),
		"d":    feed.Int(50),
		"d_s":  feed.String("1970-01-01 00:00"),
		"t":    feed.String("output"),
		"t_l":  feed.String("Sent to"),
		"ad_c": feed.String("normal"),
		"ad":   feed.String("Sabc"),
		"ad_l": feed.String("alpha"),
		"ad_d": feed.String("alpha (Sabc)"),
		"n":    feed.String(""),
		"am_c": feed.String("unconfirmed"),
		"am":   feed.Int(-250000000),
		"am_d": feed.String("-2.50000000"),
	}
	assert.Equal(t, want, rec.Map())

	// Row 1 is the generated transaction with no address.
	v, err := coll.FieldAt(ctx, 1, format.TxAddressDisplay)
	require.NoError(t, err)
	assert.Equal(t, feed.String("(n/a)"), v)
}

func TestCollection_AddressAndMessageFields(t *testing.T) {
	s := createTestStore(t)
	seedOrdering(t, s)
	ctx := context.Background()

	addr, err := format.MustFor(feed.KindAddress).Format(ctx, s.Collection(feed.KindAddress), 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]feed.Value{
		"address":     feed.String("Sbare"),
		"type":        feed.String("R"),
		"label_value": feed.String(""),
		"label":       feed.String("(no label)"),
		"pubkey":      feed.String(""),
	}, addr.Map())

	msg, err := format.MustFor(feed.KindMessage).Format(ctx, s.Collection(feed.KindMessage), 1)
	require.NoError(t, err)
	got := msg.Map()
	assert.Equal(t, feed.String("m-old"), got["id"])
	assert.Equal(t, feed.String("zed"), got["label_value"], "received messages are labelled by sender")
	assert.Equal(t, feed.Bool(false), got["read"])

	sent, err := format.MustFor(feed.KindMessage).Format(ctx, s.Collection(feed.KindMessage), 0)
	require.NoError(t, err)
	assert.Equal(t, feed.String("alpha"), sent.Map()["label_value"], "sent messages are labelled by recipient")
}

func TestCollection_OutOfRange(t *testing.T) {
	s := createTestStore(t)
	coll := s.Collection(feed.KindAddress)

	_, err := coll.FieldAt(context.Background(), 0, format.AddrAddress)
	assert.ErrorContains(t, err, "out of range")

	_, err = coll.FieldAt(context.Background(), -1, format.AddrAddress)
	assert.Error(t, err)
}

func TestCollection_CacheInvalidatedByMutation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutAddress(ctx, Address{Address: "Sa", Type: AddressReceive, Label: "one"}))

	coll := s.Collection(feed.KindAddress)
	v, err := coll.FieldAt(ctx, 0, format.AddrLabelValue)
	require.NoError(t, err)
	assert.Equal(t, feed.String("one"), v)

	require.NoError(t, s.SetAddressLabel(ctx, "Sa", "two"))

	v, err = coll.FieldAt(ctx, 0, format.AddrLabelValue)
	require.NoError(t, err)
	assert.Equal(t, feed.String("two"), v)
}

func TestCollection_UnknownField(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutAddress(ctx, Address{Address: "Sa", Type: AddressReceive}))

	_, err := s.Collection(feed.KindAddress).FieldAt(ctx, 0, format.TxAmount)
	assert.Error(t, err)
}
