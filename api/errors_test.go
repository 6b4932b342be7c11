// File: api/errors_test.go
// Author: momentics <momentics@gmail.com>

package api

import (
	"errors"
	"testing"
)

func TestDecodeReturn_DataWordPassesThrough(t *testing.T) {
	v, err := DecodeReturn(42)
	if err != nil || v != 42 {
		t.Fatalf("DecodeReturn(42) = (%d, %v)", v, err)
	}
	// The largest representable data word keeps the high bit clear.
	v, err = DecodeReturn(0x7fffffff)
	if err != nil || v != 0x7fffffff {
		t.Fatalf("DecodeReturn(0x7fffffff) = (%d, %v)", v, err)
	}
}

func TestDecodeReturn_ErrorRoundTrip(t *testing.T) {
	for _, code := range []IOError{
		IOErrFileSystem, IOErrNotFound, IOErrHandleInvalid,
		IOErrUnsupportedOp, IOErrClosedIO, IOErrInvalidArgument,
	} {
		_, err := DecodeReturn(EncodeError(code))
		if !errors.Is(err, code) {
			t.Fatalf("code %d decoded to %v", uint32(code), err)
		}
	}
}

func TestDecodeReturn_ZeroIsSuccess(t *testing.T) {
	if _, err := DecodeReturn(0); err != nil {
		t.Fatalf("zero return decoded to %v", err)
	}
}

func TestIOError_Messages(t *testing.T) {
	if IOErrNotFound.Error() != "not found" {
		t.Fatalf("message = %q", IOErrNotFound.Error())
	}
	if IOError(900).Error() != "io error 900" {
		t.Fatalf("unknown code message = %q", IOError(900).Error())
	}
}

func TestWaitStatus_Strings(t *testing.T) {
	cases := map[WaitStatus]string{
		Woken:    "woken",
		Mismatch: "mismatch",
		TimedOut: "timeout",
	}
	for st, want := range cases {
		if st.String() != want {
			t.Fatalf("%d.String() = %q", uint32(st), st.String())
		}
	}
}
