package limits

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// cgroupRoot is the standard cgroup v2 unified mountpoint, matching the
// teacher's linux.Cgroup convention.
const cgroupRoot = "/sys/fs/cgroup"

// Cgroup is an optional, best-effort kernel-enforced backstop around a
// single traced process: a leaf cgroup v2 group bounding memory and
// process count. It is defense-in-depth alongside the ptrace-based
// accounting the supervisor already performs, not a replacement for it —
// the verdict is always decided by the supervisor's own bookkeeping.
type Cgroup struct {
	path string
}

// NewCgroup creates a cgroup v2 leaf at <cgroupRoot>/<name>.
func NewCgroup(name string) (*Cgroup, error) {
	path := filepath.Join(cgroupRoot, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create cgroup directory: %w", err)
	}
	return &Cgroup{path: path}, nil
}

// Path returns the filesystem path of the cgroup.
func (c *Cgroup) Path() string {
	return c.path
}

// AddProcess adds a process to this cgroup.
func (c *Cgroup) AddProcess(pid int) error {
	return os.WriteFile(filepath.Join(c.path, "cgroup.procs"), []byte(strconv.Itoa(pid)), 0644)
}

// ApplyBackstop writes memory.max (from rssPages, converted to bytes) and
// pids.max=1 (a traced submission never gets to fork, per the RLIMIT_NPROC
// preset in Apply, so one process is the only legitimate occupant).
func (c *Cgroup) ApplyBackstop(rssPages *int64) error {
	if err := os.WriteFile(filepath.Join(c.path, "pids.max"), []byte("1"), 0644); err != nil {
		return fmt.Errorf("set pids.max: %w", err)
	}

	if rssPages != nil {
		bytes := *rssPages * pageSize
		if err := os.WriteFile(filepath.Join(c.path, "memory.max"), []byte(strconv.FormatInt(bytes, 10)), 0644); err != nil {
			return fmt.Errorf("set memory.max: %w", err)
		}
	}

	return nil
}

// Destroy removes the cgroup. The cgroup must be empty (its process must
// already have exited and been reaped).
func (c *Cgroup) Destroy() error {
	return os.Remove(c.path)
}

// EnsureParentControllers enables the memory and pids controllers on every
// ancestor of name, mirroring the teacher's EnsureParentControllers.
func EnsureParentControllers(name string) error {
	current := cgroupRoot
	for _, part := range strings.Split(strings.Trim(name, "/"), "/") {
		controlFile := filepath.Join(current, "cgroup.subtree_control")
		_ = os.WriteFile(controlFile, []byte("+memory +pids"), 0644) // best effort
		current = filepath.Join(current, part)
	}
	return nil
}
