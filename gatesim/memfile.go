// File: gatesim/memfile.go
// Author: momentics <momentics@gmail.com>
//
// Memory-backed file provider. A fresh handle from SysCreateFileHandle
// is unbound until an OpOpen descriptor names a path; reads and writes
// then address the same backing store through every duplicate of the
// handle.

package gatesim

import (
	"sync"

	"github.com/momentics/idos-aio/aio"
	"github.com/momentics/idos-aio/api"
)

type memFile struct {
	mu   sync.Mutex
	name string
	data []byte
	open bool
}

func newMemFile() *memFile {
	return &memFile{}
}

func (f *memFile) kind() uint32 { return api.KindFile }

func (f *memFile) accepts(opCode uint32) bool {
	switch opCode {
	case api.OpOpen, api.OpRead, api.OpWrite, api.OpStat:
		return true
	}
	return false
}

func (f *memFile) perform(op *aio.Op) uint32 {
	switch op.OpCode {
	case api.OpOpen:
		return f.bind(wordSlice(op.Args[0], op.Args[1]))
	case api.OpRead:
		return f.read(wordSlice(op.Args[0], op.Args[1]), uint32(op.Args[2]))
	case api.OpWrite:
		return f.write(wordSlice(op.Args[0], op.Args[1]), uint32(op.Args[2]))
	case api.OpStat:
		f.mu.Lock()
		size := uint32(len(f.data))
		f.mu.Unlock()
		return putStat(op, api.StatInfo{Size: size, Kind: api.KindFile})
	default:
		return api.EncodeError(api.IOErrUnsupportedOp)
	}
}

func (f *memFile) bind(path []byte) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		return api.EncodeError(api.IOErrAlreadyOpen)
	}
	if len(path) == 0 {
		return api.EncodeError(api.IOErrInvalidArgument)
	}
	f.name = string(path)
	f.open = true
	return 0
}

func (f *memFile) read(buf []byte, offset uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return api.EncodeError(api.IOErrHandleInvalid)
	}
	if int(offset) >= len(f.data) {
		return 0
	}
	return uint32(copy(buf, f.data[offset:]))
}

func (f *memFile) write(buf []byte, offset uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return api.EncodeError(api.IOErrHandleInvalid)
	}
	end := int(offset) + len(buf)
	if end > len(f.data) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[offset:], buf)
	return uint32(len(buf))
}

func (f *memFile) shutdown() {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
}
