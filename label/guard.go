package label

import (
	"strings"

	"github.com/opencontainers/selinux/go-selinux"
)

// FSCreateGuard holds a prior fscreate context. No function in this package
// sets or reads it: the set-then-clear bracketing of the fscreate context
// around a single file operation (mkdir, create, copy), mirroring gulag's
// setfscreatecon(...)/setfscreatecon(None) pairing, is done by
// SetFSCreateLabel below.
type FSCreateGuard struct {
	prior string
}

// SetFSCreateLabel brackets fn with SetFSCreateLabel(ctx)/SetFSCreateLabel("").
func SetFSCreateLabel(ctx Context, fn func() error) error {
	if err := selinux.SetFSCreateLabel(ctx.String()); err != nil {
		return err
	}
	defer selinux.SetFSCreateLabel("") //nolint:errcheck
	return fn()
}

// SetExecLabel brackets fn with SetExecLabel(ctx)/SetExecLabel(""), the
// label a subsequently exec'd process inherits.
func SetExecLabel(ctx Context, fn func() error) error {
	if err := selinux.SetExecLabel(ctx.String()); err != nil {
		return err
	}
	defer selinux.SetExecLabel("") //nolint:errcheck
	return fn()
}

// FileLabel returns the SELinux label of path.
func FileLabel(path string) (string, error) {
	return selinux.FileLabel(path)
}

// SetFileLabel sets the SELinux label of path to ctx.
func SetFileLabel(path string, ctx Context) error {
	return selinux.SetFileLabel(path, ctx.String())
}

// RelabelIfNarrower relabels path to ctx only when ctx's level is actually
// narrower than the file's current label — gulag's check_category guard in
// Runner.open, which avoids widening a file's label by relabeling it to a
// context with a superset of its current categories.
func RelabelIfNarrower(path string, ctx Context) error {
	current, err := selinux.FileLabel(path)
	if err != nil {
		return err
	}
	currentLevel := ""
	if fields := strings.SplitN(current, ":", 4); len(fields) == 4 {
		currentLevel = fields[3]
	}
	if !Narrower(ctx.Level, currentLevel) {
		return nil
	}
	return selinux.SetFileLabel(path, ctx.String())
}
