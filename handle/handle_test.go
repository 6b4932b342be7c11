// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package handle_test

import (
	"testing"

	"github.com/momentics/idos-aio/aio"
	"github.com/momentics/idos-aio/api"
	"github.com/momentics/idos-aio/gate"
	"github.com/momentics/idos-aio/gatesim"
	"github.com/momentics/idos-aio/handle"
)

// openFile creates and binds a memory file, returning its capability.
func openFile(t *testing.T, g *gatesim.TaskGate, path string) handle.Ref {
	t.Helper()
	h, err := gate.CreateFileHandle(g)
	if err != nil {
		t.Fatalf("create file handle: %v", err)
	}
	if _, err := aio.OpenSync(g, h, path); err != nil {
		t.Fatalf("open %q: %v", path, err)
	}
	return handle.New(g, h)
}

func TestRef_DupSurvivesOriginalClose(t *testing.T) {
	k := gatesim.NewKernel(gatesim.Options{})
	defer k.Stop()
	g := k.NewTask()

	f := openFile(t, g, "scratch.bin")
	if _, err := aio.WriteSync(g, f.Handle(), []byte("payload"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}

	dup, err := f.Dup()
	if err != nil {
		t.Fatalf("dup: %v", err)
	}
	if dup.Handle() == f.Handle() {
		t.Fatal("dup returned the same handle value")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close original: %v", err)
	}

	buf := make([]byte, 16)
	n, err := aio.ReadSync(g, dup.Handle(), buf, 0)
	if err != nil {
		t.Fatalf("read via duplicate: %v", err)
	}
	if string(buf[:n]) != "payload" {
		t.Fatalf("read %q via duplicate", buf[:n])
	}
	if err := dup.Close(); err != nil {
		t.Fatalf("close duplicate: %v", err)
	}
}

func TestRef_TransferFlipsOwnership(t *testing.T) {
	k := gatesim.NewKernel(gatesim.Options{})
	defer k.Stop()
	src := k.NewTask()
	dst := k.NewTask()

	f := openFile(t, src, "moved.bin")
	if _, err := aio.WriteSync(src, f.Handle(), []byte("moved"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}

	old := f.Handle()
	remote, err := f.Transfer(gate.TaskID(dst))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	// The source slot is gone the moment the transfer returns.
	op := aio.NewOp(api.OpStat, 0, 0, 0)
	if err := aio.Submit(src, old, op); err != api.ErrSubmitRejected {
		t.Fatalf("submit on transferred handle: %v", err)
	}

	buf := make([]byte, 16)
	n, err := aio.ReadSync(dst, remote, buf, 0)
	if err != nil {
		t.Fatalf("read in target task: %v", err)
	}
	if string(buf[:n]) != "moved" {
		t.Fatalf("target read %q", buf[:n])
	}
}

func TestRef_ShareKeepsSourceHandle(t *testing.T) {
	k := gatesim.NewKernel(gatesim.Options{})
	defer k.Stop()
	src := k.NewTask()
	dst := k.NewTask()

	f := openFile(t, src, "shared.bin")
	remote, err := f.Share(gate.TaskID(dst))
	if err != nil {
		t.Fatalf("share: %v", err)
	}

	if _, err := aio.WriteSync(src, f.Handle(), []byte("both"), 0); err != nil {
		t.Fatalf("source write after share: %v", err)
	}
	buf := make([]byte, 8)
	n, err := aio.ReadSync(dst, remote, buf, 0)
	if err != nil {
		t.Fatalf("target read: %v", err)
	}
	if string(buf[:n]) != "both" {
		t.Fatalf("target read %q", buf[:n])
	}
}

func TestRef_DupInvalidHandleFails(t *testing.T) {
	k := gatesim.NewKernel(gatesim.Options{})
	defer k.Stop()
	g := k.NewTask()

	bogus := handle.New(g, api.Handle(999))
	if _, err := bogus.Dup(); err != api.ErrInvalidHandle {
		t.Fatalf("dup of bogus handle: %v", err)
	}
}
