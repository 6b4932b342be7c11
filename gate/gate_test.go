// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// gate_test.go — Wrapper marshaling and sentinel decoding against the
// recording gate.
package gate_test

import (
	"testing"
	"time"

	"github.com/momentics/idos-aio/api"
	"github.com/momentics/idos-aio/fake"
	"github.com/momentics/idos-aio/gate"
)

// TestSubmitIO_SentinelBecomesError asserts the 0x80000000 sentinel is
// decoded exactly once, at the wrapper.
func TestSubmitIO_SentinelBecomesError(t *testing.T) {
	g := fake.NewGate()
	if err := gate.SubmitIO(g, 3, 0x1000); err != nil {
		t.Fatalf("accepted submission errored: %v", err)
	}
	g.Script(api.SysSubmitIO, api.Word(api.SubmitFail))
	if err := gate.SubmitIO(g, 3, 0x1000); err != api.ErrSubmitRejected {
		t.Fatalf("err = %v, expected ErrSubmitRejected", err)
	}
}

// TestWrappers_UnusedArgsAreZero checks the fixed contract that unused
// trap arguments are passed as zero, never left indeterminate.
func TestWrappers_UnusedArgsAreZero(t *testing.T) {
	g := fake.NewGate()
	gate.SubmitIO(g, 5, 0xbeef)
	c, ok := g.Last()
	if !ok {
		t.Fatal("no call recorded")
	}
	if c.Num != api.SysSubmitIO || c.A0 != 5 || c.A1 != 0xbeef || c.A2 != 0 {
		t.Fatalf("marshaled call = %+v", c)
	}

	gate.FutexWake(g, 0x2000, 1)
	c, _ = g.Last()
	if c.Num != api.SysFutexWake || c.A2 != 0 {
		t.Fatalf("marshaled call = %+v", c)
	}
}

func TestDupHandle_Sentinel(t *testing.T) {
	g := fake.NewGate()
	g.Script(api.SysDupHandle, 9, api.InvalidHandleWord)

	h, err := gate.DupHandle(g, 4)
	if err != nil || h != 9 {
		t.Fatalf("dup = (%v, %v)", h, err)
	}
	if _, err := gate.DupHandle(g, 4); err != api.ErrInvalidHandle {
		t.Fatalf("err = %v, expected ErrInvalidHandle", err)
	}
}

func TestTimeoutWord_Encodings(t *testing.T) {
	if w := gate.TimeoutWord(api.NoTimeout); w != api.TimeoutForever {
		t.Fatalf("infinite = %#x", w)
	}
	if w := gate.TimeoutWord(0); w != 0 {
		t.Fatalf("zero = %#x", w)
	}
	// Sub-millisecond waits round up so they stay finite but non-zero.
	if w := gate.TimeoutWord(100 * time.Microsecond); w != 1 {
		t.Fatalf("100us = %#x, expected 1", w)
	}
	if d := gate.DurationFromWord(api.TimeoutForever); d != api.NoTimeout {
		t.Fatalf("decode forever = %v", d)
	}
	if d := gate.DurationFromWord(250); d != 250*time.Millisecond {
		t.Fatalf("decode 250 = %v", d)
	}
}

func TestCreatePipe_TwoResults(t *testing.T) {
	g := fake.NewGate()
	g.Script(api.SysCreatePipe, 7)
	g.Script2(api.SysCreatePipe, 8)
	rd, wr, err := gate.CreatePipe(g)
	if err != nil || rd != 7 || wr != 8 {
		t.Fatalf("pipe = (%v, %v, %v)", rd, wr, err)
	}
}
