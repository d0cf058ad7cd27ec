// Package label wraps github.com/opencontainers/selinux/go-selinux to build
// and apply the MAC label contexts a sandbox session runs under: a broader
// label while compiling and staging files, a narrower one while the
// submitted program actually runs, per the two-phase model in SPEC_FULL.md
// section 4.4.
package label

import (
	"fmt"
	"strings"

	"github.com/opencontainers/selinux/go-selinux"
)

// Context is an SELinux user:role:type:level context, split into fields so
// RunContext and FileContext can substitute a type and level against a shared
// user/role pulled from the process's own current context.
type Context struct {
	User, Role, Type, Level string
}

// String renders the context in "user:role:type:level" form.
func (c Context) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", c.User, c.Role, c.Type, c.Level)
}

// WithType returns a copy of c with its type replaced.
func (c Context) WithType(t string) Context {
	c.Type = t
	return c
}

// WithLevel returns a copy of c with its level replaced.
func (c Context) WithLevel(level string) Context {
	c.Level = level
	return c
}

const (
	// RunType and FileType are the process and file types a sandboxed
	// submission runs under.
	RunType  = "sandbox_t"
	FileType = "sandbox_file_t"
)

// Enabled reports whether SELinux is enabled on this host. It does not
// check whether SELinux is enforcing.
func Enabled() bool {
	return selinux.GetEnabled()
}

// CurrentBase reads the running process's own context and returns it with
// User and Role populated from it, Type and Level left blank for the
// caller to fill in via WithType/WithLevel.
func CurrentBase() (Context, error) {
	current, err := selinux.CurrentLabel()
	if err != nil {
		return Context{}, fmt.Errorf("read current label: %w", err)
	}
	fields := strings.SplitN(current, ":", 4)
	if len(fields) < 2 {
		return Context{}, fmt.Errorf("unexpected label format %q", current)
	}
	return Context{User: fields[0], Role: fields[1]}, nil
}

// RunContext builds the process-exec-label for the given level, using
// RunType.
func RunContext(base Context, level string) Context {
	return base.WithType(RunType).WithLevel(level)
}

// FileContext builds the file-create-label for the given level, using
// FileType and the object_r role gulag's filecon always uses for files.
func FileContext(base Context, level string) Context {
	c := base.WithType(FileType).WithLevel(level)
	c.Role = "object_r"
	return c
}
