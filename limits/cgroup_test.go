package limits

import (
	"os"
	"path/filepath"
	"testing"
)

func requireCgroup(t *testing.T) {
	t.Helper()
	if os.Getuid() != 0 {
		t.Skip("skipping cgroup test: requires root")
	}
	if _, err := os.Stat(cgroupRoot); os.IsNotExist(err) {
		t.Skip("skipping cgroup test: cgroup not mounted")
	}
}

func TestCgroup_CreateApplyDestroy(t *testing.T) {
	requireCgroup(t)

	name := "judgecore-test/backstop-test"
	cg, err := NewCgroup(name)
	if err != nil {
		t.Fatalf("NewCgroup() error: %v", err)
	}
	defer cg.Destroy()

	if cg.Path() != filepath.Join(cgroupRoot, name) {
		t.Errorf("Path() = %q, want %q", cg.Path(), filepath.Join(cgroupRoot, name))
	}

	rss := int64(16384)
	if err := cg.ApplyBackstop(&rss); err != nil {
		t.Fatalf("ApplyBackstop() error: %v", err)
	}
}
