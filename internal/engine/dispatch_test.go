package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/testutil"
)

func batchOf(kind feed.Kind, id string, keys ...string) feed.Batch {
	b := feed.Batch{ID: id, Kind: kind}
	for _, k := range keys {
		b.Records = append(b.Records, feed.FormattedRecord{feed.F("id", feed.String(k))})
	}
	return b
}

func TestDispatcher_SuppressesEmpty(t *testing.T) {
	sink := testutil.NewRecordingSink()
	d := NewDispatcher(sink, discardLogger())

	assert.False(t, d.Dispatch(feed.Batch{Kind: feed.KindTransaction, Reset: true}))
	assert.Equal(t, 0, d.Drain())
	assert.Equal(t, 0, sink.Len())
}

func TestDispatcher_DrainInOrder(t *testing.T) {
	sink := testutil.NewRecordingSink()
	d := NewDispatcher(sink, discardLogger())

	require.True(t, d.Dispatch(batchOf(feed.KindTransaction, "b1", "a")))
	require.True(t, d.Dispatch(batchOf(feed.KindMessage, "b2", "m")))
	require.True(t, d.Dispatch(batchOf(feed.KindTransaction, "b3", "b")))
	assert.Equal(t, 3, d.Pending())

	assert.Equal(t, 3, d.Drain())
	assert.Equal(t, 0, d.Pending())

	var ids []string
	for _, b := range sink.Batches() {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"b1", "b2", "b3"}, ids)
	assert.Equal(t, []feed.Kind{feed.KindTransaction, feed.KindMessage, feed.KindTransaction}, sink.Kinds())
}

func TestDispatcher_RunDeliversExactlyOnce(t *testing.T) {
	sink := testutil.NewRecordingSink()
	d := NewDispatcher(sink, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	const producers, per = 4, 25
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				d.Dispatch(batchOf(feed.KindAddress, "", "x"))
			}
		}(p)
	}
	wg.Wait()

	require.True(t, sink.WaitFor(producers*per, time.Second))

	d.Close()
	assert.NoError(t, <-done)
	assert.Equal(t, producers*per, sink.Len())
	assert.False(t, d.Dispatch(batchOf(feed.KindAddress, "late", "x")), "closed dispatcher rejects batches")
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	d := NewDispatcher(testutil.NewRecordingSink(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSinkFunc(t *testing.T) {
	var got feed.Kind
	SinkFunc(func(k feed.Kind, _ feed.Batch) { got = k }).OnBatch(feed.KindMessage, feed.Batch{})
	assert.Equal(t, feed.KindMessage, got)
}
