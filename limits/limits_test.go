package limits

import (
	"os/exec"
	"testing"
)

func TestApply_OnLiveProcess(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start fixture process: %v", err)
	}
	defer func() {
		cmd.Process.Kill()
		cmd.Wait()
	}()

	timeLimit := 2.0
	rssLimit := int64(1024)

	l := Limits{TimeSeconds: &timeLimit, RSSPages: &rssLimit}
	if err := Apply(cmd.Process.Pid, l); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
}

func TestApply_NoLimitsStillDropsForkLimit(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start fixture process: %v", err)
	}
	defer func() {
		cmd.Process.Kill()
		cmd.Wait()
	}()

	if err := Apply(cmd.Process.Pid, Limits{}); err != nil {
		t.Fatalf("Apply() with no optional limits should still succeed: %v", err)
	}
}
