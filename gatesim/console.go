// File: gatesim/console.go
// Author: momentics <momentics@gmail.com>
//
// The console provider: an output buffer, an injected input stream, and
// the termios-style ioctls for graphics mode and palette. The graphics
// ioctl is the canonical "record passed by reference through a control
// call": the completer fills the framebuffer field before signaling.

package gatesim

import (
	"sync"
	"unsafe"

	"github.com/momentics/idos-aio/aio"
	"github.com/momentics/idos-aio/api"
)

// defaultPalette is the classic 16-color VGA table, 0x00RRGGBB.
var defaultPalette = api.Palette{
	0x000000, 0x0000aa, 0x00aa00, 0x00aaaa,
	0xaa0000, 0xaa00aa, 0xaa5500, 0xaaaaaa,
	0x555555, 0x5555ff, 0x55ff55, 0x55ffff,
	0xff5555, 0xff55ff, 0xffff55, 0xffffff,
}

// Console is the shared console object, preopened in every task.
type Console struct {
	mu     sync.Mutex
	cond   *sync.Cond
	out    []byte
	in     []byte
	text   bool
	mode   api.GraphicsMode
	pal    api.Palette
	fb     []byte
	closed bool
}

// NewConsole starts in text mode with the VGA palette.
func NewConsole() *Console {
	c := &Console{text: true, pal: defaultPalette}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Console) kind() uint32 { return api.KindConsole }

func (c *Console) accepts(opCode uint32) bool {
	switch opCode {
	case api.OpRead, api.OpWrite, api.OpIoctl, api.OpStat:
		return true
	}
	return false
}

func (c *Console) perform(op *aio.Op) uint32 {
	switch op.OpCode {
	case api.OpWrite:
		return c.write(wordSlice(op.Args[0], op.Args[1]))
	case api.OpRead:
		return c.read(wordSlice(op.Args[0], op.Args[1]))
	case api.OpIoctl:
		return c.ioctl(uint32(op.Args[0]), op.Args[1], op.Args[2])
	case api.OpStat:
		c.mu.Lock()
		size := uint32(len(c.out))
		c.mu.Unlock()
		return putStat(op, api.StatInfo{Size: size, Kind: api.KindConsole})
	default:
		return api.EncodeError(api.IOErrUnsupportedOp)
	}
}

func (c *Console) write(buf []byte) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return api.EncodeError(api.IOErrClosedIO)
	}
	c.out = append(c.out, buf...)
	return uint32(len(buf))
}

// read blocks on the driver goroutine until input is injected or the
// console shuts down.
func (c *Console) read(buf []byte) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.in) == 0 && !c.closed {
		c.cond.Wait()
	}
	n := copy(buf, c.in)
	c.in = c.in[n:]
	return uint32(n)
}

func (c *Console) ioctl(cmd uint32, recAddr, recSize api.Word) uint32 {
	switch cmd {
	case api.IoctlSetGraphics:
		if recAddr == 0 || recSize < api.Word(unsafe.Sizeof(api.GraphicsMode{})) {
			return api.EncodeError(api.IOErrInvalidArgument)
		}
		gm := (*api.GraphicsMode)(unsafe.Pointer(recAddr))
		if gm.Width == 0 || gm.Height == 0 {
			return api.EncodeError(api.IOErrInvalidArgument)
		}
		c.mu.Lock()
		bpp := gm.BPPFlags & 0xff
		if bpp == 0 {
			bpp = 8
		}
		bytesPP := int(bpp+7) / 8
		c.fb = make([]byte, int(gm.Width)*int(gm.Height)*bytesPP)
		c.mode = *gm
		c.text = false
		// out-parameter: written before the completion signal
		gm.Framebuffer = api.Word(unsafe.Pointer(&c.fb[0]))
		c.mode.Framebuffer = gm.Framebuffer
		c.mu.Unlock()
		return 0
	case api.IoctlSetText:
		c.mu.Lock()
		c.text = true
		c.mode = api.GraphicsMode{}
		c.fb = nil
		c.mu.Unlock()
		return 0
	case api.IoctlGetPalette:
		if recAddr == 0 || recSize < api.Word(unsafe.Sizeof(api.Palette{})) {
			return api.EncodeError(api.IOErrInvalidArgument)
		}
		c.mu.Lock()
		*(*api.Palette)(unsafe.Pointer(recAddr)) = c.pal
		c.mu.Unlock()
		return 0
	case api.IoctlSetPalette:
		if recAddr == 0 || recSize < api.Word(unsafe.Sizeof(api.Palette{})) {
			return api.EncodeError(api.IOErrInvalidArgument)
		}
		c.mu.Lock()
		c.pal = *(*api.Palette)(unsafe.Pointer(recAddr))
		c.mu.Unlock()
		return 0
	default:
		return api.EncodeError(api.IOErrUnsupportedCommand)
	}
}

func (c *Console) shutdown() {
	c.mu.Lock()
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Output returns everything written so far.
func (c *Console) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.out)
}

// InjectInput appends input bytes and wakes pending reads.
func (c *Console) InjectInput(b []byte) {
	c.mu.Lock()
	c.in = append(c.in, b...)
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Mode reports the current graphics mode; ok is false in text mode.
func (c *Console) Mode() (api.GraphicsMode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, !c.text
}

// Framebuffer exposes the mapped framebuffer, nil in text mode.
func (c *Console) Framebuffer() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fb
}
