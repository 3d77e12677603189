package ast

import (
	"testing"

	"github.com/arblang/arblangc/internal/lexer"
)

func TestNodePositionsRoundTrip(t *testing.T) {
	pos := lexer.Position{Line: 3, Column: 7, Offset: 42}

	nodes := []Node{
		&Ident{Name: "gbar", P: pos},
		&IntLit{Value: 1, P: pos},
		&FloatLit{Value: 1.5, P: pos},
		&BoolLit{Value: true, P: pos},
		&Binary{Op: "+", P: pos},
		&Unary{Op: "-", P: pos},
		&Call{Func: "exp", P: pos},
		&Object{P: pos},
		&Let{Name: "x", P: pos},
		&With{P: pos},
		&Conditional{P: pos},
		&TypeExpr{Kind: TypeUnit, P: pos},
		&Mechanism{Kind: "density", Name: "leak", P: pos},
	}

	for _, n := range nodes {
		if n.Pos() != pos {
			t.Errorf("%T.Pos() = %+v, want %+v", n, n.Pos(), pos)
		}
	}
}

func TestMechanismFieldsHoldDeclarations(t *testing.T) {
	pos := lexer.Position{Line: 1, Column: 1}
	m := &Mechanism{
		Kind: "density",
		Name: "leak",
		Parameters: []*Parameter{
			{Name: "gbar", Value: &FloatLit{Value: 0.0003, P: pos}, P: pos},
		},
		States: []*State{{Name: "m", Type: TypeExpr{Kind: TypeUnit}, P: pos}},
		P:      pos,
	}
	if len(m.Parameters) != 1 || m.Parameters[0].Name != "gbar" {
		t.Fatalf("expected one parameter named gbar, got %#v", m.Parameters)
	}
	if len(m.States) != 1 || m.States[0].Name != "m" {
		t.Fatalf("expected one state named m, got %#v", m.States)
	}
}
