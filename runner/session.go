// Package runner stages a single submission into its own sandbox
// directory, compiles it under a broad label, and runs or debugs it under
// a narrower one, per the two-phase label model in SPEC_FULL.md section
// 4.4 and the Runner class it is grounded on.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	judgeerrors "judgecore/errors"
	"judgecore/label"
	"judgecore/supervisor"
)

// sandboxPrefix names every sandbox directory this package creates,
// mirroring gulag's Runner.TEMPDIR_PREFIX convention of prefixing
// generated tempdirs with the owning package's name.
const sandboxPrefix = ".judgecore-"

// Limits is the (time, rss, vm) ceiling triple applied to a Run or Debug.
type Limits struct {
	TimeSeconds *float64
	RSSPages    *int64
	VMPages     *int64
}

// Session owns one sandbox directory for the lifetime of a single
// submission: the staged source, any extra files, and the compiled
// artifact all live under it until Destroy.
type Session struct {
	dir      string
	filename string
	srcPath  string

	base         label.Context
	compileLevel string
	runLevel     string

	sup *supervisor.Supervisor
}

func validateFilename(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return judgeerrors.ErrInvalidFilename
	}
	return nil
}

// NewSession creates a fresh sandbox directory labeled at compileLevel and
// returns a Session bound to it. base supplies the user/role portion of
// every label this session creates; compileLevel and runLevel are the two
// MLS levels staged files and the running program are labeled with.
func NewSession(sup *supervisor.Supervisor, base label.Context, compileLevel, runLevel, srcPath, filename string) (*Session, error) {
	if filename == "" {
		filename = filepath.Base(srcPath)
	}
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	var dir string
	err := label.SetFSCreateLabel(label.FileContext(base, compileLevel), func() error {
		d, err := os.MkdirTemp("", sandboxPrefix)
		if err != nil {
			return err
		}
		dir = d
		return nil
	})
	if err != nil {
		return nil, judgeerrors.WrapWithDetail(err, judgeerrors.ErrSandbox, "runner.NewSession", "create sandbox directory")
	}

	return &Session{
		dir:          dir,
		filename:     filename,
		srcPath:      srcPath,
		base:         base,
		compileLevel: compileLevel,
		runLevel:     runLevel,
		sup:          sup,
	}, nil
}

// Dir returns the sandbox directory path.
func (s *Session) Dir() string { return s.dir }

// Filename returns the submission's staged filename.
func (s *Session) Filename() string { return s.filename }

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func (s *Session) copySource(level string) error {
	dst := filepath.Join(s.dir, s.filename)
	return label.SetFSCreateLabel(label.FileContext(s.base, level), func() error {
		return copyFile(s.srcPath, dst)
	})
}

// Stage copies an extra file into the sandbox directory at the run level,
// mirroring Runner.copy.
func (s *Session) Stage(srcPath string) error {
	dst := filepath.Join(s.dir, filepath.Base(srcPath))
	err := label.SetFSCreateLabel(label.FileContext(s.base, s.runLevel), func() error {
		return copyFile(srcPath, dst)
	})
	if err != nil {
		return judgeerrors.WrapWithDetail(err, judgeerrors.ErrSandbox, "runner.Stage", srcPath)
	}
	return nil
}

// Open opens a file under the run-level fscreate context, narrowing its
// label on the way out if it was opened read-only and its current label
// is broader than the run context, mirroring Runner.open's check_category
// guard.
func (s *Session) Open(path string, flag int, perm os.FileMode) (*os.File, error) {
	ctx := label.FileContext(s.base, s.runLevel)

	var f *os.File
	err := label.SetFSCreateLabel(ctx, func() error {
		var err error
		f, err = os.OpenFile(path, flag, perm)
		return err
	})
	if err != nil {
		return nil, err
	}

	readOnly := flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) == 0
	if path != os.DevNull && readOnly {
		_ = label.RelabelIfNarrower(path, ctx)
	}

	return f, nil
}

// Compile stages the source at compile level and, for families that need
// one, invokes compiler with args against it, capturing combined
// stdout+stderr. On success the sandbox directory and, for families that
// produce a named artifact, that artifact are relabeled to the run level —
// mirroring CompilerMixin._compile's relabel-on-EX_OK behavior.
func (s *Session) Compile(compiler string, args []string, fam Family) (exitCode int, output []byte, err error) {
	if !fam.NeedsCompile() {
		if err := s.copySource(s.runLevel); err != nil {
			return -1, nil, err
		}
		if err := label.SetFileLabel(s.dir, label.FileContext(s.base, s.runLevel)); err != nil {
			return -1, nil, err
		}
		return 0, nil, nil
	}

	if err := s.copySource(s.compileLevel); err != nil {
		return -1, nil, err
	}

	compilerPath, err := Which(compiler, os.Getenv("PATH"))
	if err != nil {
		return -1, nil, judgeerrors.Wrap(err, judgeerrors.ErrCompilerNotFound, "runner.Compile")
	}

	cmd := exec.Command(compilerPath, append(args, s.filename)...)
	cmd.Dir = s.dir
	cmd.Env = []string{"TMPDIR=" + s.dir, "PATH=" + os.Getenv("PATH")}

	devnull, err := os.Open(os.DevNull)
	if err != nil {
		return -1, nil, err
	}
	defer devnull.Close()
	cmd.Stdin = devnull

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := label.SetExecLabel(label.RunContext(s.base, s.compileLevel), func() error {
		return label.SetFSCreateLabel(label.FileContext(s.base, s.compileLevel), cmd.Run)
	})

	code := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			return -1, out.Bytes(), runErr
		}
	}

	if code != 0 {
		return code, out.Bytes(), nil
	}

	if err := label.SetFileLabel(s.dir, label.FileContext(s.base, s.runLevel)); err != nil {
		return code, out.Bytes(), err
	}

	target := filepath.Join(s.dir, fam.TargetFilename(s.filename))
	if err := label.SetFileLabel(target, label.FileContext(s.base, s.runLevel)); err != nil {
		return code, out.Bytes(), err
	}

	return code, out.Bytes(), nil
}

// Run spawns fam's runnable artifact under the run label, comparing its
// stdout against compareStdout when set instead of capturing it.
func (s *Session) Run(ctx context.Context, fam Family, stdin, compareStdout *os.File, l Limits) (*supervisor.Result, error) {
	return s.spawn(ctx, fam.RunArgs(s.filename), stdin, compareStdout, false, l)
}

// Debug spawns fam's runnable artifact under the run label, capturing both
// stdout and stderr for inspection rather than comparing or discarding
// them.
func (s *Session) Debug(ctx context.Context, fam Family, stdin *os.File, l Limits) (*supervisor.Result, error) {
	return s.spawn(ctx, fam.RunArgs(s.filename), stdin, nil, true, l)
}

func (s *Session) spawn(ctx context.Context, args []string, stdin, compareStdout *os.File, captureStderr bool, l Limits) (*supervisor.Result, error) {
	var result *supervisor.Result
	err := label.SetExecLabel(label.RunContext(s.base, s.runLevel), func() error {
		p, err := s.sup.Spawn(supervisor.Options{
			Args:          args,
			Dir:           s.dir,
			Stdin:         stdin,
			CompareStdout: compareStdout,
			CaptureStderr: captureStderr,
			TimeLimit:     l.TimeSeconds,
			RSSLimit:      l.RSSPages,
			VMLimit:       l.VMPages,
		})
		if err != nil {
			return err
		}
		result, err = p.Run(ctx)
		return err
	})
	return result, err
}

// Destroy removes the sandbox directory and everything staged into it.
func (s *Session) Destroy() error {
	return os.RemoveAll(s.dir)
}
