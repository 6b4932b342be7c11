// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// exit_test.go — Task teardown must leave no kernel bookkeeping behind.
package gatesim

import (
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/momentics/idos-aio/api"
)

func TestExit_DetachesWakeSets(t *testing.T) {
	k := NewKernel(Options{})
	defer k.Stop()
	g := k.NewTask()

	set := g.Invoke(api.SysCreateWakeSet, 0, 0, 0)
	if set == api.InvalidHandleWord {
		t.Fatal("wake set creation failed")
	}
	var word atomic.Uint32
	addr := api.Word(unsafe.Pointer(&word))
	if r := g.Invoke(api.SysWakeSetAdd, set, addr, 0); r != 0 {
		t.Fatalf("wake set add = %#x", r)
	}

	k.mu.Lock()
	watching := len(k.watch[addr])
	k.mu.Unlock()
	if watching != 1 {
		t.Fatalf("watchers before exit = %d", watching)
	}

	g.Invoke(api.SysExit, 0, 0, 0)

	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.watch) != 0 {
		t.Fatalf("watch entries after exit = %d", len(k.watch))
	}
	if len(g.t.sets) != 0 {
		t.Fatalf("sets after exit = %d", len(g.t.sets))
	}
	if _, alive := k.tasks[g.t.id]; alive {
		t.Fatal("task survived its exit")
	}
}
