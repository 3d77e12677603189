package parser

import (
	"testing"

	"github.com/arblang/arblangc/internal/ast"
	"github.com/arblang/arblangc/internal/lexer"
)

func parseMechanism(t *testing.T, src string) *ast.Mechanism {
	t.Helper()
	p := New(lexer.New(src))
	m := p.ParseMechanism()
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	return m
}

func TestParseMechanismHeaderAndParameter(t *testing.T) {
	src := `mechanism density leak {
		parameter gbar: [S/cm2] = 0.0003;
		state m: real;
		initial m = 0;
		evolve m' = -m;
		effect current_density_pair = { i = gbar * m; g = gbar; };
	}`
	m := parseMechanism(t, src)

	if m.Kind != "density" || m.Name != "leak" {
		t.Fatalf("got kind=%q name=%q, want density/leak", m.Kind, m.Name)
	}
	if len(m.Parameters) != 1 || m.Parameters[0].Name != "gbar" {
		t.Fatalf("expected one parameter gbar, got %#v", m.Parameters)
	}
	if len(m.States) != 1 || m.States[0].Name != "m" {
		t.Fatalf("expected one state m, got %#v", m.States)
	}
	if len(m.Initializations) != 1 {
		t.Fatalf("expected one initial, got %#v", m.Initializations)
	}
	if len(m.Evolutions) != 1 || m.Evolutions[0].Name != "m" {
		t.Fatalf("expected one evolve for m, got %#v", m.Evolutions)
	}
	if len(m.Effects) != 1 {
		t.Fatalf("expected one effect, got %#v", m.Effects)
	}
}

func TestParseMechanismReportsErrorOnMissingBrace(t *testing.T) {
	src := `mechanism density leak
		parameter gbar: [S/cm2] = 0.0003;
	}`
	p := New(lexer.New(src))
	p.ParseMechanism()
	if len(p.Errors()) == 0 {
		t.Fatal("expected a parse error for the missing opening brace")
	}
}

func TestParseNumericLiteralWithUnitSuffix(t *testing.T) {
	src := `mechanism density leak {
		parameter gbar: [S/cm2] = 0.0003[S/cm2];
	}`
	m := parseMechanism(t, src)
	if len(m.Parameters) != 1 {
		t.Fatalf("expected one parameter, got %#v", m.Parameters)
	}
	if _, ok := m.Parameters[0].Value.(*ast.FloatLit); !ok {
		t.Fatalf("expected a float literal value, got %T", m.Parameters[0].Value)
	}
}

func TestParseObjectLiteralUsesAssignNotColon(t *testing.T) {
	src := `mechanism density leak {
		effect current_density_pair = { i = 1; g = 2; };
	}`
	m := parseMechanism(t, src)
	if len(m.Effects) != 1 {
		t.Fatalf("expected one effect, got %#v", m.Effects)
	}
	obj, ok := m.Effects[0].Value.(*ast.Object)
	if !ok {
		t.Fatalf("expected an object literal effect value, got %T", m.Effects[0].Value)
	}
	if len(obj.Fields) != 2 {
		t.Fatalf("expected two object fields, got %#v", obj.Fields)
	}
}
