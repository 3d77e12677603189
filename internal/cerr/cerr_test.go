package cerr

import (
	"strings"
	"testing"
)

func TestInternalErrorFormatsWithoutPosition(t *testing.T) {
	err := Internal("preprint", "unexpected bare affectable")
	got := err.Error()
	if !strings.Contains(got, "preprint") || !strings.Contains(got, "unexpected bare affectable") {
		t.Fatalf("Internal error formatting missing pass/message: %q", got)
	}
}

func TestNewErrorFormatsWithSourceExcerpt(t *testing.T) {
	src := "line one\nline two\nline three"
	err := New(TypeMismatch, Position{Line: 2, Column: 6}, "leak.arblang", "expected real").WithSource(src)
	got := err.Format(false)
	if !strings.Contains(got, "leak.arblang:2:6") {
		t.Fatalf("expected file:line:col in formatted error, got %q", got)
	}
	if !strings.Contains(got, "line two") {
		t.Fatalf("expected source excerpt in formatted error, got %q", got)
	}
}

func TestNewErrorWithoutFileOmitsFileName(t *testing.T) {
	err := New(InvalidUnit, Position{Line: 1, Column: 1}, "", "bad unit")
	got := err.Format(false)
	if strings.Contains(got, ":0:0") {
		t.Fatalf("unexpected zero position rendered: %q", got)
	}
	if !strings.Contains(got, "bad unit at 1:1") {
		t.Fatalf("expected position right after \"at\" with no file name, got %q", got)
	}
}

func TestPositionStringFormatsLineColumn(t *testing.T) {
	if got := (Position{Line: 3, Column: 9}).String(); got != "3:9" {
		t.Fatalf("Position.String() = %q, want 3:9", got)
	}
}
