// File: gatesim/pipe.go
// Author: momentics <momentics@gmail.com>
//
// Pipe provider: a byte stream between two ends. Reads pend on the read
// end's driver goroutine until data arrives or the writer goes away,
// which is what makes pipes the natural demo of asynchronous completion.

package gatesim

import (
	"sync"

	"github.com/momentics/idos-aio/aio"
	"github.com/momentics/idos-aio/api"
)

type pipeShared struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []byte
	rdClosed bool
	wrClosed bool
}

type pipeEnd struct {
	s        *pipeShared
	writeEnd bool
}

// newPipe returns the read and write providers over one shared stream.
func newPipe() (rd, wr provider) {
	s := &pipeShared{}
	s.cond = sync.NewCond(&s.mu)
	return &pipeEnd{s: s}, &pipeEnd{s: s, writeEnd: true}
}

func (p *pipeEnd) kind() uint32 { return api.KindPipe }

func (p *pipeEnd) accepts(opCode uint32) bool {
	switch opCode {
	case api.OpStat:
		return true
	case api.OpRead:
		return !p.writeEnd
	case api.OpWrite:
		return p.writeEnd
	}
	return false
}

func (p *pipeEnd) perform(op *aio.Op) uint32 {
	switch op.OpCode {
	case api.OpRead:
		return p.read(wordSlice(op.Args[0], op.Args[1]))
	case api.OpWrite:
		return p.write(wordSlice(op.Args[0], op.Args[1]))
	case api.OpStat:
		p.s.mu.Lock()
		size := uint32(len(p.s.buf))
		p.s.mu.Unlock()
		return putStat(op, api.StatInfo{Size: size, Kind: api.KindPipe})
	default:
		return api.EncodeError(api.IOErrUnsupportedOp)
	}
}

// read pends until data or writer close; a drained closed pipe reads as
// zero bytes.
func (p *pipeEnd) read(buf []byte) uint32 {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.buf) == 0 && !s.wrClosed && !s.rdClosed {
		s.cond.Wait()
	}
	n := copy(buf, s.buf)
	s.buf = s.buf[n:]
	return uint32(n)
}

func (p *pipeEnd) write(buf []byte) uint32 {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rdClosed {
		return api.EncodeError(api.IOErrClosedIO)
	}
	if s.wrClosed {
		return api.EncodeError(api.IOErrHandleInvalid)
	}
	s.buf = append(s.buf, buf...)
	s.cond.Broadcast()
	return uint32(len(buf))
}

func (p *pipeEnd) shutdown() {
	s := p.s
	s.mu.Lock()
	if p.writeEnd {
		s.wrClosed = true
	} else {
		s.rdClosed = true
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}
