package label

import "testing"

func TestContext_String(t *testing.T) {
	c := Context{User: "system_u", Role: "system_r", Type: "sandbox_t", Level: "s0:c0,c1"}
	want := "system_u:system_r:sandbox_t:s0:c0,c1"
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestContext_WithTypeAndLevel(t *testing.T) {
	base := Context{User: "u", Role: "r", Type: "t0", Level: "s0"}

	typed := base.WithType("sandbox_t")
	if typed.Type != "sandbox_t" || base.Type != "t0" {
		t.Errorf("WithType should not mutate receiver: base=%+v typed=%+v", base, typed)
	}

	leveled := base.WithLevel("s0:c0")
	if leveled.Level != "s0:c0" || base.Level != "s0" {
		t.Errorf("WithLevel should not mutate receiver: base=%+v leveled=%+v", base, leveled)
	}
}

func TestRunAndFileContext(t *testing.T) {
	base := Context{User: "system_u", Role: "system_r"}

	run := RunContext(base, "s0:c0,c1")
	if run.Type != RunType || run.Level != "s0:c0,c1" || run.Role != "system_r" {
		t.Errorf("RunContext() = %+v", run)
	}

	file := FileContext(base, "s0:c0,c1")
	if file.Type != FileType || file.Role != "object_r" {
		t.Errorf("FileContext() = %+v", file)
	}
}
