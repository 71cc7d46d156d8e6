package testfixtures

import "testing"

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("company")

	first := gen.Next()
	second := gen.Next()

	if first != "company-1" || second != "company-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
	if gen.Issued() != 2 {
		t.Fatalf("expected 2 issued identifiers, got %d", gen.Issued())
	}
}

func TestIDGeneratorScriptedIDsComeFirst(t *testing.T) {
	gen := NewScriptedIDGenerator("dup", "dup")

	got := []string{gen.Next(), gen.Next(), gen.Next()}
	want := []string{"dup", "dup", "id-1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("identifier %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	gen.SetCounter(0)
	if next := gen.Next(); next != "id-1" {
		t.Fatalf("expected id-1 after reset, got %q", next)
	}
}
