package platform

import "syscall"

// x86-64 syscall numbers for the two class sets this supervisor inspects.
// Hand-pinned rather than taken from the syscall package's SYS_* constants:
// only nine numbers are needed here, and they carry the values of those
// constants on linux/amd64.
const (
	sysOpen   uint64 = 2
	sysOpenat uint64 = 257
	sysSocket uint64 = 41
	sysCreat  uint64 = 85

	sysMmap           uint64 = 9
	sysMunmap         uint64 = 11
	sysBrk            uint64 = 12
	sysMremap         uint64 = 25
	sysRemapFilePages uint64 = 216
)

// openFlag mirrors the O_* bits the flags argument is checked against.
// These match the standard library's syscall package values on Linux but
// are restated here so the restricted-syscall policy is self-contained.
const (
	oWRONLY = 0x0001
	oRDWR   = 0x0002
	oCREAT  = 0x0040
)

type x86_64 struct{}

func (x86_64) SyscallNumber(regs *syscall.PtraceRegs) uint64 {
	return regs.Orig_rax
}

func (x86_64) SyscallReturn(regs *syscall.PtraceRegs) int64 {
	return int64(regs.Rax)
}

func (x86_64) AllowOpenLike(num uint64, regs *syscall.PtraceRegs) bool {
	var flags uint64
	switch num {
	case sysOpen:
		flags = regs.Rsi
	case sysOpenat:
		flags = regs.Rdx
	default:
		// socket and creat carry no flags argument worth inspecting;
		// the event loop rejects them unconditionally before reaching here.
		return false
	}
	return flags&(oWRONLY|oRDWR|oCREAT) == 0
}

func (x86_64) Restricted() map[uint64]bool {
	return map[uint64]bool{
		sysOpen:   true,
		sysOpenat: true,
		sysSocket: true,
		sysCreat:  true,
	}
}

func (x86_64) Memory() map[uint64]bool {
	return map[uint64]bool{
		sysMmap:           true,
		sysMunmap:         true,
		sysBrk:            true,
		sysMremap:         true,
		sysRemapFilePages: true,
	}
}
