package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/format"
)

func TestMemorySource_FieldAt(t *testing.T) {
	src := NewMemorySource(feed.KindTransaction, TransactionRows(2)...)
	ctx := context.Background()

	n, err := src.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, err := src.FieldAt(ctx, 1, format.TxID)
	require.NoError(t, err)
	assert.Equal(t, feed.String("tx-1"), v)
	assert.Equal(t, []int{1}, src.RowsRead())

	_, err = src.FieldAt(ctx, 5, format.TxID)
	assert.Error(t, err)
}

func TestMemorySource_FailAt(t *testing.T) {
	src := NewMemorySource(feed.KindAddress, AddressRow("Sa", "receive", ""))
	boom := errors.New("disk gone")
	src.FailAt(0, boom)

	_, err := src.FieldAt(context.Background(), 0, format.AddrAddress)
	assert.ErrorIs(t, err, boom)

	src.FailAt(-1, nil)
	_, err = src.FieldAt(context.Background(), 0, format.AddrAddress)
	assert.NoError(t, err)
}

func TestMemorySource_MutationsNotify(t *testing.T) {
	src := NewMemorySource(feed.KindMessage)
	defer src.Close()

	changes, cancel := src.Subscribe()
	defer cancel()

	src.Append(MessageRow("m1", "inbox", "hi"), MessageRow("m2", "inbox", "yo"))
	src.Update(0, MessageRow("m1", "inbox", "edited"))
	src.Replace()

	want := []feed.Change{
		feed.RowsInserted(feed.KindMessage, 0, 1),
		feed.RangeChanged(feed.KindMessage, 0, 0),
		feed.FullReset(feed.KindMessage),
	}
	for _, w := range want {
		select {
		case got := <-changes:
			assert.Equal(t, w, got)
		case <-time.After(time.Second):
			t.Fatal("missing notification")
		}
	}
}

func TestMemorySource_Hold(t *testing.T) {
	src := NewMemorySource(feed.KindTransaction, TransactionRows(1)...)
	started, release := src.Hold()

	done := make(chan struct{})
	go func() {
		_, _ = src.FieldAt(context.Background(), 0, format.TxID)
		close(done)
	}()

	<-started
	select {
	case <-done:
		t.Fatal("read should be held")
	default:
	}

	release()
	<-done
}

func TestRecordingSink_WaitFor(t *testing.T) {
	sink := NewRecordingSink()

	go sink.OnBatch(feed.KindAddress, feed.Batch{Kind: feed.KindAddress})

	assert.True(t, sink.WaitFor(1, time.Second))
	assert.Equal(t, []feed.Kind{feed.KindAddress}, sink.Kinds())
	assert.False(t, sink.WaitFor(2, 10*time.Millisecond))
}
