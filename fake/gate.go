// File: fake/gate.go
// Author: momentics <momentics@gmail.com>
//
// A recording api.Gate for tests: every invocation is captured, and
// results can be scripted per syscall number. With no script the gate
// answers zero, which reads as success for most calls.

package fake

import (
	"sync"

	"github.com/momentics/idos-aio/api"
)

// Call is one recorded gate invocation.
type Call struct {
	Num, A0, A1, A2 api.Word
}

// Gate implements api.Gate for testing.
type Gate struct {
	mu      sync.Mutex
	calls   []Call
	scripts map[api.Word][]api.Word
	second  map[api.Word][]api.Word
}

// NewGate creates an empty recording gate.
func NewGate() *Gate {
	return &Gate{
		scripts: make(map[api.Word][]api.Word),
		second:  make(map[api.Word][]api.Word),
	}
}

// Script queues results for a syscall number, consumed in FIFO order;
// once drained the gate goes back to answering zero.
func (g *Gate) Script(num api.Word, results ...api.Word) {
	g.mu.Lock()
	g.scripts[num] = append(g.scripts[num], results...)
	g.mu.Unlock()
}

// Script2 queues second result words for dual-result syscalls.
func (g *Gate) Script2(num api.Word, results ...api.Word) {
	g.mu.Lock()
	g.second[num] = append(g.second[num], results...)
	g.mu.Unlock()
}

// Invoke implements api.Gate.
func (g *Gate) Invoke(num, a0, a1, a2 api.Word) api.Word {
	r0, _ := g.Invoke2(num, a0, a1, a2)
	return r0
}

// Invoke2 implements api.Gate.
func (g *Gate) Invoke2(num, a0, a1, a2 api.Word) (api.Word, api.Word) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, Call{Num: num, A0: a0, A1: a1, A2: a2})
	return g.popLocked(g.scripts, num), g.popLocked(g.second, num)
}

// Count reports how many times a syscall number was invoked.
func (g *Gate) Count(num api.Word) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.Num == num {
			n++
		}
	}
	return n
}

// Calls returns a copy of the recorded invocations.
func (g *Gate) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Call, len(g.calls))
	copy(out, g.calls)
	return out
}

// Last returns the most recent invocation.
func (g *Gate) Last() (Call, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return Call{}, false
	}
	return g.calls[len(g.calls)-1], true
}

func (g *Gate) popLocked(m map[api.Word][]api.Word, num api.Word) api.Word {
	q := m[num]
	if len(q) == 0 {
		return 0
	}
	m[num] = q[1:]
	return q[0]
}

var _ api.Gate = (*Gate)(nil)
