// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared type declarations and the numeric ABI of the IDOS-NX syscall gate.

package api

import "time"

// Word is one gate argument or result word. The IDOS-NX target is 32-bit,
// where a Word and a uint32 coincide; on 64-bit hosts driving a simulated
// gate a Word must still be able to carry a pointer.
type Word = uintptr

// Handle is an opaque capability naming a kernel-side object (file, pipe,
// queue, IRQ source, device). A handle value is only meaningful inside the
// task that currently owns it.
type Handle uint32

// TaskID identifies a task to handle-transfer calls.
type TaskID uint32

// Syscall numbers, loaded into EAX before the trap.
const (
	SysExit      Word = 0x00
	SysYield     Word = 0x01
	SysSleep     Word = 0x02
	SysGetTask   Word = 0x03
	SysGetParent Word = 0x04

	SysSubmitIO    Word = 0x10
	SysSendMessage Word = 0x11

	SysFutexWait     Word = 0x13
	SysFutexWake     Word = 0x14
	SysCreateWakeSet Word = 0x15
	SysBlockWakeSet  Word = 0x16
	SysWakeSetAdd    Word = 0x17
	SysWakeSetRemove Word = 0x18

	SysCreateTask       Word = 0x20
	SysOpenMsgQueue     Word = 0x21
	SysOpenIRQ          Word = 0x22
	SysCreateFileHandle Word = 0x23
	SysCreatePipe       Word = 0x24

	SysTransferHandle Word = 0x2a
	SysDupHandle      Word = 0x2b

	SysMapMemory Word = 0x30
	SysMapFile   Word = 0x31
)

// Async I/O operation codes, carried in a descriptor's OpCode field.
const (
	OpOpen  uint32 = 1
	OpRead  uint32 = 2
	OpWrite uint32 = 3
	OpClose uint32 = 4
	OpShare uint32 = 5

	OpStat  uint32 = 0x10
	OpIoctl uint32 = 0x11
)

// Console ioctl commands (arg0 of an OpIoctl descriptor).
const (
	IoctlSetGraphics uint32 = 0x6001
	IoctlSetText     uint32 = 0x6002
	IoctlGetPalette  uint32 = 0x6003
	IoctlSetPalette  uint32 = 0x6004
)

// Gate result sentinels. The gate package folds these into errors so that
// no call site repeats the raw comparisons.
const (
	// SubmitFail is returned by SysSubmitIO when a submission is rejected:
	// unknown handle, saturated queue, or unsupported op code.
	SubmitFail uint32 = 0x8000_0000

	// InvalidHandleWord is returned by handle calls on failure. On the
	// 32-bit target it reads as 0xffffffff.
	InvalidHandleWord Word = ^Word(0)

	// CompletionErrorBit flags an IOError code in a descriptor return
	// value; the low 31 bits carry the code.
	CompletionErrorBit uint32 = 0x8000_0000
)

// NoTimeout makes a blocking call wait indefinitely.
const NoTimeout time.Duration = -1

// TimeoutForever is the wire encoding of "no timeout": a millisecond
// count of all ones.
const TimeoutForever Word = 0xffff_ffff

// ObjectKind values reported by StatInfo.
const (
	KindUnknown uint32 = iota
	KindFile
	KindConsole
	KindPipe
	KindQueue
	KindIRQ
)

// StatInfo is the record filled by an OpStat control call. The caller
// passes its address and size through the descriptor args.
type StatInfo struct {
	Size uint32
	Kind uint32
}

// GraphicsMode is the record exchanged with a console IoctlSetGraphics
// call. Framebuffer is an out-parameter: the completer writes the address
// of the mapped framebuffer before signaling completion.
type GraphicsMode struct {
	Width       uint16
	Height      uint16
	BPPFlags    uint32
	Framebuffer Word
}

// Palette is the 16-entry console color table moved by the palette
// ioctls, one packed 0x00RRGGBB word per entry.
type Palette [16]uint32
