// Package platform exposes architecture-specific access to a traced
// child's saved registers: the syscall number, its return value, and
// whether an open-like call should be allowed through.
package platform

import (
	"fmt"
	"runtime"
	"syscall"
)

// Arch reads syscall state out of a stopped, traced child's register file.
// Construction must fail explicitly on unsupported architectures rather
// than silently guessing a layout.
type Arch interface {
	// SyscallNumber returns the syscall number from the ORIG_RAX-equivalent
	// slot of a syscall-entry or syscall-exit stop.
	SyscallNumber(regs *syscall.PtraceRegs) uint64

	// SyscallReturn returns the syscall return value, valid only at a
	// syscall-exit stop.
	SyscallReturn(regs *syscall.PtraceRegs) int64

	// AllowOpenLike reports whether a restricted open-family syscall may
	// proceed: true iff the relevant flags argument requests a pure
	// read-only open. socket and creat are never allowed through here;
	// callers should reject those unconditionally before calling this.
	AllowOpenLike(num uint64, regs *syscall.PtraceRegs) bool

	// Restricted is the set of syscall numbers that must be inspected and
	// may be forbidden outright.
	Restricted() map[uint64]bool

	// Memory is the set of syscall numbers that mutate the address space
	// and are sampled for RSS/VM accounting at their exit stop.
	Memory() map[uint64]bool
}

// New returns the Arch implementation for the running GOARCH.
func New() (Arch, error) {
	switch runtime.GOARCH {
	case "amd64":
		return x86_64{}, nil
	default:
		return nil, fmt.Errorf("platform: unsupported architecture %q", runtime.GOARCH)
	}
}
