package engine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadowfeed/internal/feed"
)

func TestRefreshGate_AtMostOneInFlight(t *testing.T) {
	g := NewRefreshGate(nil)

	require.True(t, g.TryAcquire(feed.KindTransaction))
	assert.True(t, g.InFlight(feed.KindTransaction))
	assert.False(t, g.TryAcquire(feed.KindTransaction), "second acquire should be rejected")

	// Other kinds are independent
	assert.True(t, g.TryAcquire(feed.KindAddress))

	g.Release(feed.KindTransaction)
	assert.False(t, g.InFlight(feed.KindTransaction))
	assert.True(t, g.TryAcquire(feed.KindTransaction))
}

func TestRefreshGate_ConcurrentAcquire(t *testing.T) {
	g := NewRefreshGate(nil)

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire(feed.KindMessage) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
}

func TestRefreshGate_RejectReasons(t *testing.T) {
	bulk := map[feed.Kind]bool{feed.KindAddress: true}
	g := NewRefreshGate(func(k feed.Kind) bool { return bulk[k] })

	err := g.acquire(feed.KindAddress)
	require.Error(t, err)
	assert.True(t, IsTransientSkip(err))
	assert.False(t, g.InFlight(feed.KindAddress), "bulk loading must not mark the kind in flight")

	require.NoError(t, g.acquire(feed.KindTransaction))
	err = g.acquire(feed.KindTransaction)
	var se *SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeGateRejected, se.Code)

	err = g.acquire(feed.Kind(42))
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeUnknownKind, se.Code)
	assert.False(t, IsTransientSkip(err))
}

func TestRefreshGate_ReleaseIdleIsNoop(t *testing.T) {
	g := NewRefreshGate(nil)
	g.Release(feed.KindTransaction)
	g.Release(feed.Kind(42))
	assert.True(t, g.TryAcquire(feed.KindTransaction))
}

func TestRefreshGate_LockScanSerializes(t *testing.T) {
	g := NewRefreshGate(nil)

	unlock := g.LockScan(feed.KindTransaction)

	acquired := make(chan struct{})
	go func() {
		u := g.LockScan(feed.KindTransaction)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second scan lock should wait")
	default:
	}

	unlock()
	<-acquired
}

func TestSyncError_Message(t *testing.T) {
	err := newScanError(feed.KindAddress, 3, assert.AnError)
	assert.Contains(t, err.Error(), "SCAN_FAILED")
	assert.Contains(t, err.Error(), "row=3")
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, IsScanError(err))

	assert.NotContains(t, newGateRejected(feed.KindAddress).Error(), "row=")
}
