// File: wakeset/wakeset.go
// Author: momentics <momentics@gmail.com>
//
// Wake-set multiplexing: one blocking call across many completion words,
// so a single task can drive many in-flight operations without a thread
// per operation. A Set is owned by the task that created it; no other
// task may touch it, but membership edits are safe concurrently with a
// Block by the owner.

package wakeset

import (
	"sync"
	"time"

	"github.com/momentics/idos-aio/aio"
	"github.com/momentics/idos-aio/api"
	"github.com/momentics/idos-aio/gate"
)

// Set groups futex addresses for a multiplexed wait and remembers which
// descriptor each address belongs to.
type Set struct {
	g      api.Gate
	handle api.Handle

	mu  sync.Mutex
	ops map[api.Word]*aio.Op
}

// Create allocates a kernel wake set owned by the calling task.
func Create(g api.Gate) (*Set, error) {
	h, err := gate.CreateWakeSet(g)
	if err != nil {
		return nil, err
	}
	return &Set{g: g, handle: h, ops: make(map[api.Word]*aio.Op)}, nil
}

// Handle exposes the kernel handle of the set.
func (s *Set) Handle() api.Handle {
	return s.handle
}

// Add registers an in-flight descriptor's signal word with the set.
func (s *Set) Add(op *aio.Op) error {
	addr := op.SignalAddr()
	if err := gate.WakeSetAdd(s.g, s.handle, addr); err != nil {
		return err
	}
	s.mu.Lock()
	s.ops[addr] = op
	s.mu.Unlock()
	return nil
}

// Remove drops a descriptor from the set. Completed descriptors must be
// removed before their memory is reused, or a stale address would keep
// reporting ready.
func (s *Set) Remove(op *aio.Op) error {
	addr := op.SignalAddr()
	s.mu.Lock()
	delete(s.ops, addr)
	s.mu.Unlock()
	return gate.WakeSetRemove(s.g, s.handle, addr)
}

// Block waits until any member address is woken or already non-zero and
// returns that address. A finite timeout yields api.ErrOperationTimeout
// after no less than the requested interval.
func (s *Set) Block(timeout time.Duration) (api.Word, error) {
	status, addr := gate.BlockWakeSet(s.g, s.handle, timeout)
	if status == api.TimedOut {
		return 0, api.ErrOperationTimeout
	}
	return addr, nil
}

// Next is Block resolved to the member descriptor. Descriptors the set
// was never told about come back as nil with the caller left to match
// the address itself.
func (s *Set) Next(timeout time.Duration) (*aio.Op, error) {
	addr, err := s.Block(timeout)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	op := s.ops[addr]
	s.mu.Unlock()
	return op, nil
}

// Len reports current membership, for debug probes.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}
