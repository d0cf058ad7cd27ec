package runner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWhich_FindsExecutable(t *testing.T) {
	dir := t.TempDir()
	exePath := filepath.Join(dir, "fakecc")
	if err := os.WriteFile(exePath, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	got, err := Which("fakecc", dir)
	if err != nil {
		t.Fatalf("Which() error: %v", err)
	}
	if got != exePath {
		t.Errorf("Which() = %q, want %q", got, exePath)
	}
}

func TestWhich_SkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notexec"), []byte("data"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := Which("notexec", dir); err == nil {
		t.Error("Which() should fail for non-executable file")
	}
}

func TestWhich_NotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := Which("doesnotexist", dir); err == nil {
		t.Error("Which() should fail when not found")
	}
}
