package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"judgecore/label"
	"judgecore/supervisor"
	"judgecore/verdict"
)

func testBase(t *testing.T) label.Context {
	t.Helper()
	return label.Context{User: "system_u", Role: "system_r"}
}

func writeSource(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write fixture source: %v", err)
	}
	return path
}

func TestSession_ScriptCompileStagesSource(t *testing.T) {
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "echoargs.sh", "#!/bin/sh\necho hi\n")
	if err := os.Chmod(src, 0755); err != nil {
		t.Fatalf("chmod fixture: %v", err)
	}

	sup, err := supervisor.New()
	if err != nil {
		t.Fatalf("supervisor.New() error: %v", err)
	}

	sess, err := NewSession(sup, testBase(t), "s0:c0.c1023", "s0:c0,c1", src, "")
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer sess.Destroy()

	fam := Script{}
	code, _, err := sess.Compile("", nil, fam)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if code != 0 {
		t.Fatalf("Compile() exit code = %d, want 0", code)
	}

	if _, err := os.Stat(filepath.Join(sess.Dir(), "echoargs.sh")); err != nil {
		t.Fatalf("staged source missing: %v", err)
	}
}

func TestSession_BinaryCompileAndRun(t *testing.T) {
	if _, err := Which("cc", os.Getenv("PATH")); err != nil {
		t.Skip("no C compiler on PATH")
	}

	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "main.c", `
#include <stdio.h>
int main(void) { printf("hello\n"); return 0; }
`)

	sup, err := supervisor.New()
	if err != nil {
		t.Fatalf("supervisor.New() error: %v", err)
	}

	sess, err := NewSession(sup, testBase(t), "s0:c0.c1023", "s0:c0,c1", src, "")
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer sess.Destroy()

	fam := Binary{ExecutablePath: "a.out"}
	code, output, err := sess.Compile("cc", nil, fam)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if code != 0 {
		t.Fatalf("Compile() exit code = %d, output: %s", code, output)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	devnull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("open /dev/null: %v", err)
	}
	defer devnull.Close()

	res, err := sess.Run(ctx, fam, devnull, nil, Limits{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Verdict != verdict.AC {
		t.Errorf("Verdict = %v, want AC", res.Verdict)
	}
	if got := bytes.TrimSpace(res.Stdout); string(got) != "hello" {
		t.Errorf("Stdout = %q, want hello", got)
	}
}
