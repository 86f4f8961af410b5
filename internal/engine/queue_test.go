package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFO_EnqueueDequeue(t *testing.T) {
	q := newFIFO[string]()

	ok := q.Enqueue("a")
	require.True(t, ok, "enqueue should succeed")

	got, ok := q.TryDequeue()
	require.True(t, ok, "dequeue should succeed")
	assert.Equal(t, "a", got)
}

func TestFIFO_Order(t *testing.T) {
	q := newFIFO[int]()

	for i := 1; i <= 3; i++ {
		q.Enqueue(i)
	}

	for want := 1; want <= 3; want++ {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestFIFO_TryDequeue_Empty(t *testing.T) {
	q := newFIFO[int]()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestFIFO_Wait_SignalsOnEnqueue(t *testing.T) {
	q := newFIFO[int]()

	done := make(chan int)
	go func() {
		<-q.Wait()
		v, _ := q.TryDequeue()
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	q.Enqueue(7)

	select {
	case v := <-done:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("waiter was not signalled")
	}
}

func TestFIFO_Close(t *testing.T) {
	q := newFIFO[int]()
	q.Enqueue(1)
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(2), "enqueue after close should fail")

	v, ok := q.TryDequeue()
	require.True(t, ok, "items queued before close stay available")
	assert.Equal(t, 1, v)

	select {
	case <-q.Wait():
	default:
		t.Fatal("Wait should fire immediately once closed")
	}

	q.Close()
}

func TestFIFO_ConcurrentEnqueue(t *testing.T) {
	q := newFIFO[int]()
	const workers, per = 8, 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				q.Enqueue(i)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*per, q.Len())
}

func TestFIFO_PerProducerOrderPreserved(t *testing.T) {
	type item struct{ producer, n int }
	q := newFIFO[item]()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				q.Enqueue(item{p, n})
			}
		}(p)
	}
	wg.Wait()

	last := map[int]int{0: -1, 1: -1, 2: -1, 3: -1}
	for {
		it, ok := q.TryDequeue()
		if !ok {
			break
		}
		assert.Greater(t, it.n, last[it.producer])
		last[it.producer] = it.n
	}
}

func TestLane_RunsJobsInOrder(t *testing.T) {
	l := newLane("test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.submit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	l.close()

	l.run(ctx)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, 0, l.pending())
	assert.False(t, l.submit(func() {}), "closed lane rejects jobs")
}

func TestLane_JobsNeverOverlap(t *testing.T) {
	l := newLane("test")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		l.run(ctx)
		close(done)
	}()

	var active, peak int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		l.submit(func() {
			defer wg.Done()
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	wg.Wait()
	cancel()
	<-done

	assert.Equal(t, int32(1), peak)
}
