package supervisor

import (
	"context"
	"strings"
	"testing"
	"time"

	"judgecore/verdict"
)

func TestSupervisor_RunToCompletion(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	p, err := s.Spawn(Options{Args: []string{"/bin/true"}})
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if res.Verdict != verdict.AC {
		t.Errorf("Verdict = %v, want AC", res.Verdict)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestSupervisor_NonZeroExitIsRE(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	p, err := s.Spawn(Options{Args: []string{"/bin/false"}})
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if res.Verdict != verdict.RE {
		t.Errorf("Verdict = %v, want RE", res.Verdict)
	}
}

func TestSupervisor_WallClockTimeoutIsTL(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	limit := 1.0
	p, err := s.Spawn(Options{Args: []string{"/bin/sleep", "5"}, TimeLimit: &limit})
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if res.Verdict != verdict.TL {
		t.Errorf("Verdict = %v, want TL", res.Verdict)
	}
}

func TestFinalize_DoesNotClobberStickyVerdictWithTL(t *testing.T) {
	timeLimit := 1.0
	cpuTime := 2.0 // exceeds timeLimit

	p := &Process{timeLimit: &timeLimit, cpuTime: &cpuTime}
	p.verdict.Set(verdict.WA) // already decided before finalize runs

	p.finalize()

	if v, _ := p.verdict.Get(); v != verdict.WA {
		t.Errorf("finalize() verdict = %v, want WA (sticky verdict must not be upgraded to TL)", v)
	}
}

func TestFinalize_DoesNotClobberStickyVerdictWithML(t *testing.T) {
	rssLimit := int64(1024)

	p := &Process{rssLimit: &rssLimit, maxRSS: 4096}
	p.verdict.Set(verdict.RF) // already decided before finalize runs

	p.finalize()

	if v, _ := p.verdict.Get(); v != verdict.RF {
		t.Errorf("finalize() verdict = %v, want RF (sticky verdict must not be upgraded to ML)", v)
	}
}

func TestFinalize_UpgradesFreshRE(t *testing.T) {
	timeLimit := 1.0
	cpuTime := 2.0

	p := &Process{timeLimit: &timeLimit, cpuTime: &cpuTime, exitCode: 1}

	p.finalize()

	if v, _ := p.verdict.Get(); v != verdict.TL {
		t.Errorf("finalize() verdict = %v, want TL (fresh RE should still upgrade)", v)
	}
}

func TestSupervisor_CapturesStdout(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	p, err := s.Spawn(Options{Args: []string{"/bin/echo", "hello"}})
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := strings.TrimSpace(string(res.Stdout)); got != "hello" {
		t.Errorf("Stdout = %q, want %q", got, "hello")
	}
}
