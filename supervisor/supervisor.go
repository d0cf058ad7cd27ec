// Package supervisor runs a single command under ptrace, enforcing the
// syscall and memory-growth policy from SPEC_FULL.md section 4.3 and
// producing a verdict the way gulag's PTracedProcess does.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"

	judgeerrors "judgecore/errors"
	"judgecore/limits"
	"judgecore/linux"
	"judgecore/logging"
	"judgecore/platform"
	"judgecore/sigfd"
	"judgecore/verdict"
)

// Options configures a single traced run.
type Options struct {
	Args []string
	Dir  string
	Env  []string

	// Stdin is the child's standard input. Defaults to /dev/null.
	Stdin *os.File

	// CompareStdout, when set, is compared byte-for-byte against the
	// child's stdout instead of capturing it; a mismatch sets WA. Its
	// read position advances as bytes are consumed.
	CompareStdout *os.File

	// CaptureStderr requests the child's stderr be captured rather than
	// discarded to /dev/null.
	CaptureStderr bool

	TimeLimit *float64
	RSSLimit  *int64
	VMLimit   *int64
}

// Supervisor spawns and traces processes for one machine architecture.
type Supervisor struct {
	arch platform.Arch
}

// New builds a Supervisor for the running GOARCH.
func New() (*Supervisor, error) {
	arch, err := platform.New()
	if err != nil {
		return nil, judgeerrors.Wrap(err, judgeerrors.ErrUnsupportedArch, "supervisor.New")
	}
	return &Supervisor{arch: arch}, nil
}

// Process is a spawned, trace-stopped child ready for Run.
type Process struct {
	cmd        *exec.Cmd
	arch       platform.Arch
	restricted map[uint64]bool
	memory     map[uint64]bool
	pid        int
	sfd        *sigfd.FD
	cgroup     *limits.Cgroup

	timeLimit *float64
	rssLimit  *int64
	vmLimit   *int64

	compareStdout *os.File
	stdoutPipe    *os.File
	stderrPipe    *os.File

	verdict  verdict.Cell
	exitCode int
	cpuTime  *float64
	maxRSS   int64
	maxVM    int64

	stdoutBuf []byte
	stderrBuf []byte
}

// Spawn forks+execs opts.Args under ptrace, waits for the initial
// stopped-at-exec trap, and applies the resource-limit preset before
// returning — see the Go startup note in SPEC_FULL.md section 4.3. The
// returned Process has not yet been resumed; call Run to drive it to
// completion.
func (s *Supervisor) Spawn(opts Options) (*Process, error) {
	if len(opts.Args) == 0 {
		return nil, judgeerrors.ErrNoProcessArgs
	}

	cmd := exec.Command(opts.Args[0], opts.Args[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true, Setpgid: true}

	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	} else {
		devnull, err := os.Open(os.DevNull)
		if err != nil {
			return nil, err
		}
		defer devnull.Close()
		cmd.Stdin = devnull
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = stdoutW

	var stderrR, stderrW *os.File
	if opts.CaptureStderr {
		stderrR, stderrW, err = os.Pipe()
		if err != nil {
			stdoutR.Close()
			stdoutW.Close()
			return nil, err
		}
		cmd.Stderr = stderrW
	} else {
		devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			stdoutR.Close()
			stdoutW.Close()
			return nil, err
		}
		defer devnull.Close()
		cmd.Stderr = devnull
	}

	// The capability bounding set is inherited across fork, so dropping it
	// on the calling OS thread right before Start's fork is equivalent to
	// the pre-exec capability drop a traditional fork/exec caller would do
	// in the child; os/exec gives no hook to run code after fork but before
	// exec. Locking the goroutine to its thread for the duration ensures
	// the thread that forks is the one just stripped. Best-effort: hosts
	// without CAP_SETPCAP can't drop their bounding set, and the ptrace
	// syscall policy is the actual enforcement, not this.
	runtime.LockOSThread()
	dropErr := linux.DropAll()
	startErr := cmd.Start()
	runtime.UnlockOSThread()
	if startErr != nil {
		stdoutR.Close()
		stdoutW.Close()
		if stderrR != nil {
			stderrR.Close()
			stderrW.Close()
		}
		return nil, judgeerrors.Wrap(startErr, judgeerrors.ErrInternal, "supervisor.Spawn")
	}
	stdoutW.Close()
	if stderrW != nil {
		stderrW.Close()
	}

	pid := cmd.Process.Pid

	if dropErr != nil {
		logDropFailure(pid, dropErr)
	}

	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil); err != nil {
		return nil, fmt.Errorf("supervisor: initial wait4: %w", err)
	}
	if !ws.Stopped() {
		return nil, judgeerrors.ErrTraceStopUnexpected
	}
	if ws.StopSignal() != unix.SIGTRAP {
		unix.Kill(pid, unix.SIGKILL)
		unix.Wait4(pid, nil, 0, nil)
		return nil, judgeerrors.ErrTraceStopUnexpected
	}

	l := limits.Limits{TimeSeconds: opts.TimeLimit, RSSPages: opts.RSSLimit}
	if err := limits.Apply(pid, l); err != nil {
		unix.Kill(pid, unix.SIGKILL)
		unix.Wait4(pid, nil, 0, nil)
		return nil, fmt.Errorf("supervisor: apply limits: %w", err)
	}

	// Best-effort cgroup v2 backstop alongside the rlimit preset; a host
	// without cgroup v2 delegated to this process (common unprivileged)
	// just runs without it, relying on the rlimits and ptrace policy alone.
	var cg *limits.Cgroup
	cgroupName := fmt.Sprintf("judgecore-%d", pid)
	if err := limits.EnsureParentControllers(cgroupName); err == nil {
		if created, err := limits.NewCgroup(cgroupName); err == nil {
			if err := created.ApplyBackstop(opts.RSSLimit); err == nil && created.AddProcess(pid) == nil {
				cg = created
			} else {
				created.Destroy()
			}
		}
	}

	sfd, err := sigfd.New(unix.SIGCHLD)
	if err != nil {
		unix.Kill(pid, unix.SIGKILL)
		unix.Wait4(pid, nil, 0, nil)
		if cg != nil {
			cg.Destroy()
		}
		return nil, err
	}

	return &Process{
		cmd:           cmd,
		arch:          s.arch,
		restricted:    s.arch.Restricted(),
		memory:        s.arch.Memory(),
		pid:           pid,
		sfd:           sfd,
		cgroup:        cg,
		timeLimit:     opts.TimeLimit,
		rssLimit:      opts.RSSLimit,
		vmLimit:       opts.VMLimit,
		compareStdout: opts.CompareStdout,
		stdoutPipe:    stdoutR,
		stderrPipe:    stderrR,
	}, nil
}

// Run resumes the traced child and drives it to completion, returning its
// verdict and captured output. ctx cancellation kills the child and
// returns ctx.Err(); Run always reaps the child before returning.
func (p *Process) Run(ctx context.Context) (*Result, error) {
	defer p.sfd.Close()
	defer p.stdoutPipe.Close()
	if p.stderrPipe != nil {
		defer p.stderrPipe.Close()
	}
	if p.cgroup != nil {
		defer p.cgroup.Destroy()
	}

	watched := []watchedFD{{fd: p.sfd.Fd(), kind: fdSignal}}
	if p.compareStdout != nil {
		watched = append(watched, watchedFD{fd: int(p.stdoutPipe.Fd()), kind: fdStdoutCompare})
	} else {
		watched = append(watched, watchedFD{fd: int(p.stdoutPipe.Fd()), kind: fdStdoutCapture})
	}
	if p.stderrPipe != nil {
		watched = append(watched, watchedFD{fd: int(p.stderrPipe.Fd()), kind: fdStderrCapture})
	}

	if err := syscall.PtraceSyscall(p.pid, 0); err != nil {
		p.kill()
		p.drain(watched)
		return nil, fmt.Errorf("supervisor: initial continue: %w", err)
	}

	timeoutMs := -1
	if p.timeLimit != nil {
		timeoutMs = int((*p.timeLimit + 1.0) * 1000)
	}

	for len(watched) > 0 {
		select {
		case <-ctx.Done():
			p.kill()
			p.drain(watched)
			return nil, ctx.Err()
		default:
		}

		pollfds := make([]unix.PollFd, len(watched))
		for i, w := range watched {
			pollfds[i] = unix.PollFd{Fd: int32(w.fd), Events: unix.POLLIN | unix.POLLPRI | unix.POLLHUP}
		}

		n, err := unix.Poll(pollfds, timeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			p.kill()
			p.drain(watched)
			return nil, fmt.Errorf("supervisor: poll: %w", err)
		}
		if n == 0 {
			p.verdict.Set(verdict.TL)
			p.kill()
			continue
		}

		remaining := watched[:0]
		for i, pfd := range pollfds {
			w := watched[i]
			if pfd.Revents == 0 {
				remaining = append(remaining, w)
				continue
			}
			done, err := p.dispatch(w)
			if err != nil {
				p.kill()
				p.drain(watched)
				return nil, fmt.Errorf("supervisor: event dispatch: %w", err)
			}
			if !done {
				remaining = append(remaining, w)
			}
		}
		watched = remaining
	}

	p.finalize()
	return p.result(), nil
}

// drain waits for the child to exit after a kill on one of Run's early
// returns (cancellation or an error), without running the full dispatch
// loop, so Run never returns with the child unreaped.
func (p *Process) drain(watched []watchedFD) {
	unix.Wait4(p.pid, nil, 0, nil)
}

func (p *Process) dispatch(w watchedFD) (done bool, err error) {
	switch w.kind {
	case fdSignal:
		if err := p.sfd.Drain(); err != nil && err != unix.EAGAIN {
			return false, err
		}
		return p.handleSigchld(), nil
	case fdStdoutCapture:
		return handleCapture(w.fd, &p.stdoutBuf)
	case fdStdoutCompare:
		done, kill, err := handleCompare(w.fd, p.compareStdout, &p.verdict)
		if kill {
			p.kill()
		}
		return done, err
	case fdStderrCapture:
		return handleCapture(w.fd, &p.stderrBuf)
	}
	return true, nil
}

// handleSigchld processes one signalfd-delivered SIGCHLD. It returns true
// only once the child has actually exited — a decision to kill the child
// (RE/RF/ML) keeps the signal descriptor registered so the subsequent exit
// notification still gets reaped.
func (p *Process) handleSigchld() bool {
	var ws unix.WaitStatus
	var ru unix.Rusage
	if _, err := unix.Wait4(p.pid, &ws, unix.WUNTRACED, &ru); err != nil {
		return true
	}

	if !ws.Stopped() {
		p.exitCode = ws.ExitStatus()
		cpu := float64(ru.Utime.Sec) + float64(ru.Utime.Usec)/1e6 +
			float64(ru.Stime.Sec) + float64(ru.Stime.Usec)/1e6
		p.cpuTime = &cpu
		return true
	}

	if ws.StopSignal() != unix.SIGTRAP {
		p.verdict.Set(verdict.RE)
		p.kill()
		return false
	}

	var regs syscall.PtraceRegs
	if err := syscall.PtraceGetRegs(p.pid, &regs); err != nil {
		p.verdict.Set(verdict.RE)
		p.kill()
		return false
	}

	num := p.arch.SyscallNumber(&regs)

	switch {
	case p.restricted[num]:
		if !p.arch.AllowOpenLike(num, &regs) {
			p.verdict.Set(verdict.RF)
			p.kill()
			return false
		}
	case p.memory[num]:
		// The kernel sets rax to -ENOSYS on syscall-entry-stop; any other
		// value marks the matching exit-stop, the only point a return
		// value — and therefore a post-syscall memory size — exists.
		if ret := p.arch.SyscallReturn(&regs); ret != -int64(unix.ENOSYS) {
			if vm, rss, err := readStatm(p.pid); err == nil {
				if vm > p.maxVM {
					p.maxVM = vm
				}
				if rss > p.maxRSS {
					p.maxRSS = rss
				}
				if p.vmLimit != nil && p.maxVM > *p.vmLimit {
					p.verdict.Set(verdict.ML)
					p.kill()
					return false
				}
			}
		}
	}

	syscall.PtraceSyscall(p.pid, 0)
	return false
}

func (p *Process) kill() {
	unix.Kill(p.pid, unix.SIGKILL)
}

// logDropFailure reports which capabilities the calling thread's permitted
// set still holds after a failed DropAll. DropAll only fails for want of CAP_SETPCAP, common on
// unprivileged hosts, where the ptrace syscall policy is the enforcement
// that actually matters; this is diagnostic, not fatal.
func logDropFailure(pid int, dropErr error) {
	log := logging.WithPID(logging.Default(), pid)
	if _, permitted, _, err := linux.GetCapabilities(); err == nil {
		log.Debug("capability bounding set not fully dropped", "error", dropErr, "held", remainingCapNames(permitted))
		return
	}
	log.Debug("capability bounding set not fully dropped", "error", dropErr)
}

func remainingCapNames(mask uint64) []string {
	var names []string
	for i := 0; i < 64; i++ {
		if mask&(1<<uint(i)) != 0 {
			names = append(names, linux.CapabilityToName(i))
		}
	}
	return names
}

func (p *Process) finalize() {
	// The cputime/TL and RE-to-ML upgrades only ever apply to the verdict
	// this call itself just assigned (AC or fresh RE). A verdict already
	// made sticky earlier in the run (WA, RF, SE, ...) must never be
	// clobbered here, matching communicate()'s single nested if-block.
	if _, ok := p.verdict.Get(); !ok {
		if p.exitCode == 0 {
			p.verdict.Set(verdict.AC)
		} else {
			p.verdict.Set(verdict.RE)
		}

		if p.timeLimit != nil && p.cpuTime != nil && *p.cpuTime > *p.timeLimit {
			p.verdict.Upgrade(verdict.TL)
		}

		if v, _ := p.verdict.Get(); v == verdict.RE && p.rssLimit != nil && p.maxRSS > *p.rssLimit {
			p.verdict.Upgrade(verdict.ML)
		}
	}

	v, _ := p.verdict.Get()
	logging.WithVerdict(logging.WithPID(logging.Default(), p.pid), string(v)).Debug("run finalized", "exit_code", p.exitCode)
}

func (p *Process) result() *Result {
	v, _ := p.verdict.Get()
	return &Result{
		Verdict:  v,
		ExitCode: p.exitCode,
		CPUTime:  p.cpuTime,
		MaxRSS:   p.maxRSS,
		MaxVM:    p.maxVM,
		Stdout:   p.stdoutBuf,
		Stderr:   p.stderrBuf,
	}
}
