// File: gatesim/wakeset.go
// Author: momentics <momentics@gmail.com>
//
// Kernel-side wake sets. A set owns a signal word of its own; waking any
// member address records the address as ready, bumps the set signal, and
// performs a futex wake on it. Blocking is the usual snapshot/wait loop
// on the set signal, so a member wake between the readiness scan and the
// wait cannot be lost.

package gatesim

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/momentics/idos-aio/api"
	"github.com/momentics/idos-aio/gate"
)

type wakeSet struct {
	k      *Kernel
	signal atomic.Uint32

	mu      sync.Mutex
	members map[api.Word]struct{}
	ready   []api.Word
}

func sysCreateWakeSet(k *Kernel, t *task, _, _, _ api.Word) (api.Word, api.Word) {
	s := &wakeSet{k: k, members: make(map[api.Word]struct{})}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.stopped {
		return api.InvalidHandleWord, 0
	}
	slot := t.allocSlot()
	t.sets[slot] = s
	return api.Word(slot), 0
}

func sysWakeSetAdd(k *Kernel, t *task, a0, a1, _ api.Word) (api.Word, api.Word) {
	k.mu.Lock()
	s, ok := t.sets[api.Handle(a0)]
	if !ok || a1 == 0 {
		k.mu.Unlock()
		return api.InvalidHandleWord, 0
	}
	k.watch[a1] = append(k.watch[a1], s)
	k.mu.Unlock()

	s.mu.Lock()
	s.members[a1] = struct{}{}
	s.mu.Unlock()
	return 0, 0
}

func sysWakeSetRemove(k *Kernel, t *task, a0, a1, _ api.Word) (api.Word, api.Word) {
	k.mu.Lock()
	s, ok := t.sets[api.Handle(a0)]
	if !ok {
		k.mu.Unlock()
		return api.InvalidHandleWord, 0
	}
	watchers := k.watch[a1]
	for i, cand := range watchers {
		if cand == s {
			k.watch[a1] = append(watchers[:i], watchers[i+1:]...)
			break
		}
	}
	if len(k.watch[a1]) == 0 {
		delete(k.watch, a1)
	}
	k.mu.Unlock()

	s.mu.Lock()
	delete(s.members, a1)
	kept := s.ready[:0]
	for _, addr := range s.ready {
		if addr != a1 {
			kept = append(kept, addr)
		}
	}
	s.ready = kept
	s.mu.Unlock()
	return 0, 0
}

func sysBlockWakeSet(k *Kernel, t *task, a0, a1, _ api.Word) (api.Word, api.Word) {
	k.mu.Lock()
	s, ok := t.sets[api.Handle(a0)]
	k.mu.Unlock()
	if !ok {
		return api.Word(api.Mismatch), 0
	}
	k.metrics.Inc("wakeset_blocks")
	st, addr := s.block(gate.DurationFromWord(a1))
	if st == api.TimedOut {
		k.metrics.Inc("wait_timeouts")
	}
	return api.Word(st), addr
}

// detachSetLocked empties a set and removes its watch registrations, so
// a dead task's sets stop receiving notifies. Caller holds k.mu.
func (k *Kernel) detachSetLocked(s *wakeSet) {
	s.mu.Lock()
	members := make([]api.Word, 0, len(s.members))
	for addr := range s.members {
		members = append(members, addr)
	}
	s.members = make(map[api.Word]struct{})
	s.ready = nil
	s.mu.Unlock()

	for _, addr := range members {
		watchers := k.watch[addr]
		for i, cand := range watchers {
			if cand == s {
				k.watch[addr] = append(watchers[:i], watchers[i+1:]...)
				break
			}
		}
		if len(k.watch[addr]) == 0 {
			delete(k.watch, addr)
		}
	}
}

// notifyWatchers runs on every futex wake, kernel- or caller-initiated,
// and forwards the wake to each set watching the address.
func (k *Kernel) notifyWatchers(addr api.Word) {
	k.mu.Lock()
	watchers := make([]*wakeSet, len(k.watch[addr]))
	copy(watchers, k.watch[addr])
	k.mu.Unlock()
	for _, s := range watchers {
		s.notify(addr)
	}
}

func (s *wakeSet) notify(addr api.Word) {
	s.mu.Lock()
	if _, ok := s.members[addr]; !ok {
		s.mu.Unlock()
		return
	}
	s.ready = append(s.ready, addr)
	s.mu.Unlock()
	s.signal.Add(1)
	s.k.futex.Wake(&s.signal, 1)
}

// block returns the address of a ready member, or TimedOut. A member
// whose word is already non-zero at block time returns immediately
// without consuming anything; readiness is level-triggered until the
// caller removes the member.
func (s *wakeSet) block(timeout time.Duration) (api.WaitStatus, api.Word) {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		s.mu.Lock()
		if len(s.ready) > 0 {
			addr := s.ready[0]
			s.ready = s.ready[1:]
			s.mu.Unlock()
			return api.Woken, addr
		}
		for addr := range s.members {
			word := (*atomic.Uint32)(unsafe.Pointer(addr))
			if word.Load() != 0 {
				s.mu.Unlock()
				return api.Woken, addr
			}
		}
		seq := s.signal.Load()
		s.mu.Unlock()

		wait := api.NoTimeout
		if timeout >= 0 {
			wait = time.Until(deadline)
			if wait <= 0 {
				return api.TimedOut, 0
			}
		}
		if st := s.k.futex.Wait(&s.signal, seq, wait); st == api.TimedOut {
			return api.TimedOut, 0
		}
	}
}
