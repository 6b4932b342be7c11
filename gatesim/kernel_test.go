// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// kernel_test.go — Submission validation, completion ordering, and the
// handle capability semantics of the simulated kernel.
package gatesim_test

import (
	"bytes"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/momentics/idos-aio/aio"
	"github.com/momentics/idos-aio/api"
	"github.com/momentics/idos-aio/fake"
	"github.com/momentics/idos-aio/futex"
	"github.com/momentics/idos-aio/gate"
	"github.com/momentics/idos-aio/gatesim"
)

func newKernel(t *testing.T, opt gatesim.Options) *gatesim.Kernel {
	t.Helper()
	k := gatesim.NewKernel(opt)
	t.Cleanup(k.Stop)
	return k
}

// TestConsole_EndToEndWrite submits op_code=3 with [bufptr,len,offset]
// against the console; the driver completes with the length and the
// synchronous wrapper returns it.
func TestConsole_EndToEndWrite(t *testing.T) {
	k := newKernel(t, gatesim.Options{})
	g := k.NewTask()

	msg := []byte("hello, gate\n")
	n, err := aio.WriteSync(g, gatesim.ConsoleHandle, msg, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(len(msg)), n)
	require.Equal(t, string(msg), k.Console().Output())
}

func TestSubmit_InvalidHandleRejected(t *testing.T) {
	k := newKernel(t, gatesim.Options{})
	g := k.NewTask()

	_, err := aio.WriteSync(g, api.Handle(999), []byte("x"), 0)
	require.ErrorIs(t, err, api.ErrSubmitRejected)
}

func TestSubmit_UnsupportedOpRejected(t *testing.T) {
	k := newKernel(t, gatesim.Options{})
	g := k.NewTask()

	// The console cannot be opened; rejection is synchronous.
	_, err := aio.OpenSync(g, gatesim.ConsoleHandle, "/dev/console")
	require.ErrorIs(t, err, api.ErrSubmitRejected)
}

// TestSubmit_SaturatedQueueRejected fills a depth-1 queue while the
// driver is parked in a pending read, then expects rejection.
func TestSubmit_SaturatedQueueRejected(t *testing.T) {
	k := newKernel(t, gatesim.Options{QueueDepth: 1})
	g := k.NewTask()

	// Park the console driver: a read with no input pends inside perform.
	readBuf := make([]byte, 8)
	readOp := aio.NewOp(api.OpRead, bufPtr(readBuf), api.Word(len(readBuf)), 0)
	require.NoError(t, aio.Submit(g, gatesim.ConsoleHandle, readOp))

	// One write occupies the single queue slot...
	p1 := []byte("a")
	w1 := aio.NewOp(api.OpWrite, bufPtr(p1), 1, 0)
	waitUntil(t, func() bool {
		return aio.Submit(g, gatesim.ConsoleHandle, w1) == nil
	})

	// ...so the next submission must be rejected, synchronously.
	p2 := []byte("b")
	w2 := aio.NewOp(api.OpWrite, bufPtr(p2), 1, 0)
	require.ErrorIs(t, aio.Submit(g, gatesim.ConsoleHandle, w2), api.ErrSubmitRejected)

	k.Console().InjectInput([]byte("ok"))
	_, err := aio.Await(g, readOp)
	require.NoError(t, err)
	_, err = aio.Await(g, w1)
	require.NoError(t, err)
}

// TestDup_SameObjectIndependentLifecycle: writes through one duplicate
// are visible through the other, and closing one leaves the other
// valid.
func TestDup_SameObjectIndependentLifecycle(t *testing.T) {
	k := newKernel(t, gatesim.Options{})
	g := k.NewTask()

	h1, err := gate.CreateFileHandle(g)
	require.NoError(t, err)
	_, err = aio.OpenSync(g, h1, "scratch.dat")
	require.NoError(t, err)

	h2, err := gate.DupHandle(g, h1)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)

	payload := []byte("through h1")
	_, err = aio.WriteSync(g, h1, payload, 0)
	require.NoError(t, err)

	got := make([]byte, len(payload))
	n, err := aio.ReadSync(g, h2, got, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(len(payload)), n)
	require.True(t, bytes.Equal(payload, got))

	require.NoError(t, aio.CloseSync(g, h1))

	// h1 is gone, h2 still addresses the object.
	_, err = aio.ReadSync(g, h1, got, 0)
	require.ErrorIs(t, err, api.ErrSubmitRejected)
	n, err = aio.ReadSync(g, h2, got, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(len(payload)), n)
}

// TestTransfer_AtomicFlip: after Transfer returns, the handle is
// invalid in the source exactly when it is valid in the target.
func TestTransfer_AtomicFlip(t *testing.T) {
	k := newKernel(t, gatesim.Options{})
	src := k.NewTask()
	dst := k.NewTask()

	h, err := gate.CreateFileHandle(src)
	require.NoError(t, err)
	_, err = aio.OpenSync(src, h, "moved.dat")
	require.NoError(t, err)
	_, err = aio.WriteSync(src, h, []byte("cargo"), 0)
	require.NoError(t, err)

	moved, err := gate.TransferHandle(src, h, dst.TaskID())
	require.NoError(t, err)

	// Source side is dead...
	_, err = aio.ReadSync(src, h, make([]byte, 5), 0)
	require.ErrorIs(t, err, api.ErrSubmitRejected)
	// ...and the target side is live with the same object.
	got := make([]byte, 5)
	n, err := aio.ReadSync(dst, moved, got, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(5), n)
	require.Equal(t, "cargo", string(got))
}

// TestShare_GrantsWithoutRevoking: share keeps the source handle while
// granting the target task its own.
func TestShare_GrantsWithoutRevoking(t *testing.T) {
	k := newKernel(t, gatesim.Options{})
	src := k.NewTask()
	dst := k.NewTask()

	h, err := gate.CreateFileHandle(src)
	require.NoError(t, err)
	_, err = aio.OpenSync(src, h, "shared.dat")
	require.NoError(t, err)
	_, err = aio.WriteSync(src, h, []byte("both"), 0)
	require.NoError(t, err)

	granted, err := aio.ShareSync(src, h, dst.TaskID())
	require.NoError(t, err)

	for _, probe := range []struct {
		g api.Gate
		h api.Handle
	}{{src, h}, {dst, granted}} {
		got := make([]byte, 4)
		n, err := aio.ReadSync(probe.g, probe.h, got, 0)
		require.NoError(t, err)
		require.Equal(t, uint32(4), n)
		require.Equal(t, "both", string(got))
	}
}

// TestPipe_AsyncCompletion: a pipe read pends until the writer side
// delivers; the descriptor is not completed in between.
func TestPipe_AsyncCompletion(t *testing.T) {
	k := newKernel(t, gatesim.Options{})
	g := k.NewTask()

	rd, wr, err := gate.CreatePipe(g)
	require.NoError(t, err)

	buf := make([]byte, 16)
	op := aio.NewOp(api.OpRead, bufPtr(buf), api.Word(len(buf)), 0)
	require.NoError(t, aio.Submit(g, rd, op))

	time.Sleep(20 * time.Millisecond)
	require.False(t, op.Completed(), "read completed with nothing to read")

	_, err = aio.WriteSync(g, wr, []byte("ping"), 0)
	require.NoError(t, err)

	n, err := aio.Await(g, op)
	require.NoError(t, err)
	require.Equal(t, uint32(4), n)
	require.Equal(t, "ping", string(buf[:n]))
}

// TestPipe_WriteAfterReaderClosed reports the closed-io completion
// error, not a submission failure.
func TestPipe_WriteAfterReaderClosed(t *testing.T) {
	k := newKernel(t, gatesim.Options{})
	g := k.NewTask()

	rd, wr, err := gate.CreatePipe(g)
	require.NoError(t, err)
	require.NoError(t, aio.CloseSync(g, rd))

	_, err = aio.WriteSync(g, wr, []byte("void"), 0)
	require.ErrorIs(t, err, api.IOErrClosedIO)
}

func TestStat_ReportsKind(t *testing.T) {
	k := newKernel(t, gatesim.Options{})
	g := k.NewTask()

	info, err := aio.StatSync(g, gatesim.ConsoleHandle)
	require.NoError(t, err)
	require.Equal(t, api.KindConsole, info.Kind)

	h, err := gate.CreateFileHandle(g)
	require.NoError(t, err)
	_, err = aio.OpenSync(g, h, "a")
	require.NoError(t, err)
	_, err = aio.WriteSync(g, h, []byte("12345"), 0)
	require.NoError(t, err)
	info, err = aio.StatSync(g, h)
	require.NoError(t, err)
	require.Equal(t, api.KindFile, info.Kind)
	require.Equal(t, uint32(5), info.Size)
}

// TestMetrics_CountSubmissions checks the counters the kernel feeds.
func TestMetrics_CountSubmissions(t *testing.T) {
	k := newKernel(t, gatesim.Options{})
	g := k.NewTask()

	_, err := aio.WriteSync(g, gatesim.ConsoleHandle, []byte("m"), 0)
	require.NoError(t, err)

	m := k.Metrics()
	require.GreaterOrEqual(t, m.Counter("ops_submitted"), uint64(1))
	waitUntil(t, func() bool {
		return m.Counter("ops_completed") >= 1
	})
}

// TestFutexTraffic_RejectionNeverBlocks runs the kernel over a counting
// futex: a rejected submission must produce zero waits, while a real
// round trip produces at least one wake from the completer.
func TestFutexTraffic_RejectionNeverBlocks(t *testing.T) {
	cf := fake.NewCountingFutex(futex.NewTable())
	k := newKernel(t, gatesim.Options{Futex: cf})
	g := k.NewTask()

	_, err := aio.WriteSync(g, api.Handle(999), []byte("x"), 0)
	require.ErrorIs(t, err, api.ErrSubmitRejected)
	require.Zero(t, cf.Waits())

	_, err = aio.WriteSync(g, gatesim.ConsoleHandle, []byte("y"), 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, cf.Wakes(), int64(1))
}

func bufPtr(b []byte) api.Word {
	return api.Word(unsafe.Pointer(&b[0]))
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition never held")
		}
		time.Sleep(time.Millisecond)
	}
}
