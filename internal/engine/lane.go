package engine

import (
	"context"
	"sync/atomic"
)

// Lane names. Transactions and addresses share the wallet lane; message
// scans run on their own lane so a large inbox never delays the wallet view.
const (
	laneWallet   = "wallet"
	laneMessages = "messages"
)

// lane is a sequential execution context. Jobs submitted to one lane run
// one at a time in submission order on the lane's goroutine.
type lane struct {
	name    string
	jobs    *fifo[func()]
	running atomic.Bool
	busy    atomic.Bool
}

func newLane(name string) *lane {
	return &lane{
		name: name,
		jobs: newFIFO[func()](),
	}
}

// submit queues job. Returns false if the lane is closed.
func (l *lane) submit(job func()) bool {
	return l.jobs.Enqueue(job)
}

// run executes jobs until ctx is cancelled or the lane is closed and
// drained. A job in progress always runs to completion.
func (l *lane) run(ctx context.Context) {
	l.running.Store(true)
	defer l.running.Store(false)

	for {
		// busy is raised before dequeue so idle never sees an empty
		// queue while a job is between dequeue and execution.
		l.busy.Store(true)
		if job, ok := l.jobs.TryDequeue(); ok {
			job()
			l.busy.Store(false)
			continue
		}
		l.busy.Store(false)

		select {
		case <-ctx.Done():
			return
		case <-l.jobs.Wait():
			if l.jobs.Closed() && l.jobs.Len() == 0 {
				return
			}
		}
	}
}

// close stops accepting jobs.
func (l *lane) close() {
	l.jobs.Close()
}

// idle reports whether no job is queued or executing.
func (l *lane) idle() bool {
	return !l.busy.Load() && l.jobs.Len() == 0
}

// pending returns the number of queued jobs.
func (l *lane) pending() int {
	return l.jobs.Len()
}
