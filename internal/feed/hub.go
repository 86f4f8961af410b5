package feed

import "sync"

// Hub fans notifications out to subscribers.
//
// Publish never blocks and never drops: every subscriber owns an unbounded
// FIFO drained by its own goroutine into the subscriber's channel. A slow
// subscriber delays only itself.
//
// Thread-safety: all methods are safe for concurrent use.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[int]*hubSub[T]
	nextID int
	closed bool
}

type hubSub[T any] struct {
	mu      sync.Mutex
	pending []T
	signal  chan struct{} // buffered, size 1
	out     chan T
	done    chan struct{}
	once    sync.Once
}

// NewHub creates a hub with no subscribers.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[int]*hubSub[T])}
}

// Subscribe registers a subscriber. The channel is closed after cancel is
// called or the hub is closed. cancel is idempotent.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	s := &hubSub[T]{
		signal: make(chan struct{}, 1),
		out:    make(chan T),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(s.out)
		return s.out, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = s
	h.mu.Unlock()

	go s.pump()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		s.stop()
	}
	return s.out, cancel
}

// Publish delivers v to every current subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs {
		s.push(v)
	}
}

// Len returns the number of active subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close cancels every subscription. Later subscriptions receive a closed channel.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[int]*hubSub[T])
	h.closed = true
	h.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}

func (s *hubSub[T]) push(v T) {
	s.mu.Lock()
	s.pending = append(s.pending, v)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *hubSub[T]) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *hubSub[T]) pump() {
	defer close(s.out)

	var zero T
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			select {
			case <-s.signal:
				continue
			case <-s.done:
				return
			}
		}
		v := s.pending[0]
		s.pending[0] = zero
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.out <- v:
		case <-s.done:
			return
		}
	}
}
