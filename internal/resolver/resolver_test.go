package resolver

import (
	"strings"
	"testing"

	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/lexer"
	"github.com/arblang/arblangc/internal/parser"
	"github.com/arblang/arblangc/internal/types"
)

func mustResolve(t *testing.T, src string) *ir.Mechanism {
	t.Helper()
	p := parser.New(lexer.New(src))
	m := p.ParseMechanism()
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	out, err := New("leak.arblang", src).ResolveMechanism(m)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	return out
}

func TestResolveMechanismAssignsUnitQuantityToParameter(t *testing.T) {
	src := `mechanism density leak {
		parameter gbar: [S/cm2] = 0.0003;
		state m: real;
		initial m = 0;
		evolve m' = -m;
	}`
	out := mustResolve(t, src)
	if out.Kind != ir.Density || out.Name != "leak" {
		t.Fatalf("got kind=%v name=%q, want density/leak", out.Kind, out.Name)
	}
	if len(out.Parameters) != 1 {
		t.Fatalf("expected one resolved parameter, got %#v", out.Parameters)
	}
	gbar := out.Parameters[0]
	q, ok := gbar.Ty.(types.Quantity)
	if !ok || q.IsReal() {
		t.Fatalf("expected gbar to resolve to a non-dimensionless quantity, got %v", gbar.Ty)
	}
}

func TestResolveRejectsEvolveOfUndeclaredState(t *testing.T) {
	src := `mechanism density leak {
		evolve ghost' = -1;
	}`
	p := parser.New(lexer.New(src))
	m := p.ParseMechanism()
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	_, err := New("leak.arblang", src).ResolveMechanism(m)
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected an undefined-state error mentioning \"ghost\", got %v", err)
	}
}

func TestResolveRejectsMismatchedEffectType(t *testing.T) {
	src := `mechanism density leak {
		effect current_density = 1;
	}`
	p := parser.New(lexer.New(src))
	m := p.ParseMechanism()
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	_, err := New("leak.arblang", src).ResolveMechanism(m)
	if err == nil {
		t.Fatal("expected a type-mismatch error for a dimensionless current_density effect")
	}
}

func TestResolveInvalidUnitSuggestsASimilarSymbol(t *testing.T) {
	src := `mechanism density leak {
		parameter gbar: [Sxyz] = 1;
	}`
	p := parser.New(lexer.New(src))
	m := p.ParseMechanism()
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	_, err := New("leak.arblang", src).ResolveMechanism(m)
	if err == nil || !strings.Contains(err.Error(), "invalid unit") {
		t.Fatalf("expected an invalid-unit error, got %v", err)
	}
	if !strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("expected the invalid-unit error to suggest a similar symbol, got %v", err)
	}
}
