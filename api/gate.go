// File: api/gate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Gate is the syscall trampoline: it marshals a syscall number and up to
// three word arguments into the trap-gate calling convention and returns
// the result word. It is pure transport; callers interpret results per
// syscall semantics and no error surfaces at this layer.
//
// A Gate call must be treated as a full memory barrier: the kernel may
// read or write any memory named by the argument words.
type Gate interface {
	// Invoke performs one syscall. Unused arguments must be passed as
	// zero, never left indeterminate.
	Invoke(num, a0, a1, a2 Word) Word

	// Invoke2 performs one syscall that yields two result words, such as
	// pipe creation (two handles) or a wake-set block (status plus the
	// ready address).
	Invoke2(num, a0, a1, a2 Word) (Word, Word)
}
