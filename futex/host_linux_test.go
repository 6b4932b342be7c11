//go:build linux
// +build linux

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// host_linux_test.go — The host futex backend against the live kernel.
package futex

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/idos-aio/api"
)

func TestHost_WaitWake(t *testing.T) {
	h, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	var word atomic.Uint32
	done := make(chan api.WaitStatus, 1)
	go func() {
		done <- h.Wait(&word, 0, 5*time.Second)
	}()

	// No portable way to observe a kernel waiter; give it a moment to
	// park, then flip and wake until delivered.
	time.Sleep(20 * time.Millisecond)
	word.Store(1)
	for h.Wake(&word, 1) == 0 {
		select {
		case st := <-done:
			if st != api.Woken && st != api.Mismatch {
				t.Fatalf("status = %v", st)
			}
			return
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if st := <-done; st != api.Woken {
		t.Fatalf("status = %v, expected woken", st)
	}
}

func TestHost_Mismatch(t *testing.T) {
	h, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	var word atomic.Uint32
	word.Store(9)
	if st := h.Wait(&word, 0, api.NoTimeout); st != api.Mismatch {
		t.Fatalf("status = %v, expected mismatch", st)
	}
}

func TestHost_Timeout(t *testing.T) {
	h, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	var word atomic.Uint32
	start := time.Now()
	if st := h.Wait(&word, 0, 30*time.Millisecond); st != api.TimedOut {
		t.Fatalf("status = %v, expected timeout", st)
	}
	elapsed := time.Since(start)
	if elapsed < 30*time.Millisecond {
		t.Fatalf("timed out after %v", elapsed)
	}
	// Signal interruptions must consume the deadline, not restart it.
	if elapsed > 2*time.Second {
		t.Fatalf("finite wait blocked for %v", elapsed)
	}
}
