package verdict

import "testing"

func TestCell_SetFirstWins(t *testing.T) {
	var c Cell

	if !c.Set(WA) {
		t.Fatalf("first Set should succeed")
	}
	if c.Set(AC) {
		t.Fatalf("second Set should not override a sticky verdict")
	}

	got, ok := c.Get()
	if !ok || got != WA {
		t.Fatalf("Get() = (%v, %v), want (WA, true)", got, ok)
	}
}

func TestCell_GetUnset(t *testing.T) {
	var c Cell

	if _, ok := c.Get(); ok {
		t.Fatalf("Get() on an unset cell should report ok=false")
	}
}

func TestCell_Upgrade(t *testing.T) {
	var c Cell
	c.Set(RE)
	c.Upgrade(TL)

	got, ok := c.Get()
	if !ok || got != TL {
		t.Fatalf("Get() after Upgrade = (%v, %v), want (TL, true)", got, ok)
	}
}
