// Package sigfd converts delivery of a blocked signal into a poll-able
// file descriptor, so a single-threaded event loop can treat child-status
// changes uniformly with pipes.
package sigfd

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// FD is a scoped guard around a signalfd: acquiring it blocks the signal
// and locks the calling goroutine to its OS thread (ptrace and signal
// masks are both thread-affine); Close restores the prior mask, unblocks
// the thread, and closes the descriptor.
type FD struct {
	fd    int
	prior unix.Sigset_t
}

// New blocks sig on the current OS thread and returns a non-blocking
// signalfd that becomes readable whenever sig is pending.
func New(sig unix.Signal) (*FD, error) {
	runtime.LockOSThread()

	var set unix.Sigset_t
	addSignal(&set, sig)

	var prior unix.Sigset_t
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, &prior); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}

	fd, err := unix.Signalfd(-1, &set, unix.SFD_NONBLOCK|unix.SFD_CLOEXEC)
	if err != nil {
		unix.PthreadSigmask(unix.SIG_SETMASK, &prior, nil)
		runtime.UnlockOSThread()
		return nil, err
	}

	return &FD{fd: fd, prior: prior}, nil
}

// Fd returns the underlying file descriptor for registration with a poller.
func (f *FD) Fd() int {
	return f.fd
}

// Drain consumes exactly one pending signalfd_siginfo record. The record
// contents are not needed by the caller: the event loop learns everything
// it needs from the subsequent non-blocking wait4.
func (f *FD) Drain() error {
	var buf [128]byte // sizeof(struct signalfd_siginfo) is 128 on Linux
	_, err := unix.Read(f.fd, buf[:])
	return err
}

// Close closes the signalfd, restores the prior signal mask, and unlocks
// the OS thread acquired in New.
func (f *FD) Close() error {
	err := unix.Close(f.fd)
	unix.PthreadSigmask(unix.SIG_SETMASK, &f.prior, nil)
	runtime.UnlockOSThread()
	return err
}

// addSignal sets the bit for sig in set. unix.Sigset_t on linux/amd64 is a
// fixed array of words; signal numbers are 1-based.
func addSignal(set *unix.Sigset_t, sig unix.Signal) {
	n := uint(sig) - 1
	set.Val[n/64] |= 1 << (n % 64)
}
