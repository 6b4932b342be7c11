// File: gatesim/queue.go
// Author: momentics <momentics@gmail.com>
//
// Per-object submission queue. Bounded FIFO: a full queue rejects the
// submission synchronously instead of blocking the submitter. After
// close the driver drains what was already accepted, so an accepted
// descriptor is always completed.

package gatesim

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/idos-aio/aio"
	"github.com/momentics/idos-aio/api"
)

type pendingOp struct {
	op   *aio.Op
	t    *task
	slot api.Handle
}

type workqueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	q      *queue.Queue
	depth  int
	closed bool
}

func newWorkqueue(depth int) *workqueue {
	wq := &workqueue{q: queue.New(), depth: depth}
	wq.cond = sync.NewCond(&wq.mu)
	return wq
}

// push accepts p unless the queue is full or closed.
func (wq *workqueue) push(p pendingOp) bool {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	if wq.closed || wq.q.Length() >= wq.depth {
		return false
	}
	wq.q.Add(p)
	wq.cond.Signal()
	return true
}

// pop blocks for the next accepted op. It keeps returning queued ops
// after close until the queue is drained, then reports done.
func (wq *workqueue) pop() (pendingOp, bool) {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	for wq.q.Length() == 0 && !wq.closed {
		wq.cond.Wait()
	}
	if wq.q.Length() == 0 {
		return pendingOp{}, false
	}
	return wq.q.Remove().(pendingOp), true
}

func (wq *workqueue) close() {
	wq.mu.Lock()
	wq.closed = true
	wq.cond.Broadcast()
	wq.mu.Unlock()
}
