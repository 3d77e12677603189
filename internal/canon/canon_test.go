package canon

import (
	"testing"

	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/types"
)

func TestCanonicalizeBinaryIntroducesLetBindings(t *testing.T) {
	// gbar * m + 1, fully nested, should become a chain of lets whose
	// body is a single Argument leaf.
	gbar := &ir.Argument{Name: "gbar", Ty: types.Real()}
	m := &ir.Argument{Name: "m", Ty: types.Real()}
	one := &ir.Int{Value: 1, Ty: types.Real()}
	expr := &ir.Binary{
		Op:  ir.OpAdd,
		Lhs: &ir.Binary{Op: ir.OpMul, Lhs: gbar, Rhs: m, Ty: types.Real()},
		Rhs: one,
		Ty:  types.Real(),
	}

	c := New()
	out := c.CanonicalizeExpr(expr)

	outer, ok := out.(*ir.Let)
	if !ok {
		t.Fatalf("expected top-level Let, got %T", out)
	}
	if _, ok := outer.Body.(*ir.Let); !ok {
		if _, ok := outer.Body.(*ir.Argument); !ok {
			t.Fatalf("expected chained let or argument body, got %T", outer.Body)
		}
	}

	// The innermost body of the whole chain must be a leaf reference,
	// never a compound node — that is the ANF invariant this pass exists
	// to establish.
	body := innermostBody(outer)
	if _, ok := body.(*ir.Argument); !ok {
		t.Fatalf("innermost body = %T, want *ir.Argument", body)
	}
}

func TestCanonicalizeReservesDistinctNamesPerDeclaration(t *testing.T) {
	mech := &ir.Mechanism{
		Name: "leak",
		Kind: ir.Density,
		Parameters: []*ir.Parameter{
			{Name: "gbar", Value: &ir.Binary{Op: ir.OpMul, Lhs: &ir.Argument{Name: "a", Ty: types.Real()}, Rhs: &ir.Argument{Name: "b", Ty: types.Real()}, Ty: types.Real()}, Ty: types.Real()},
		},
		Evolutions: []*ir.Evolve{
			{Identifier: &ir.State{Name: "m", Ty: types.Real()}, Value: &ir.Binary{Op: ir.OpMul, Lhs: &ir.Argument{Name: "a", Ty: types.Real()}, Rhs: &ir.Argument{Name: "b", Ty: types.Real()}, Ty: types.Real()}, Ty: types.Real()},
		},
	}

	c := New()
	out := c.Canonicalize(mech)

	if len(out.Parameters) != 1 || len(out.Evolutions) != 1 {
		t.Fatalf("expected one parameter and one evolution, got %d/%d", len(out.Parameters), len(out.Evolutions))
	}
	// Both declarations reuse the same fresh-name counter scope ("t0_")
	// since reserved-name sets are per-declaration, not shared.
	pLet, ok := out.Parameters[0].Value.(*ir.Let)
	if !ok {
		t.Fatalf("expected parameter value canonicalized to a Let, got %T", out.Parameters[0].Value)
	}
	eLet, ok := out.Evolutions[0].Value.(*ir.Let)
	if !ok {
		t.Fatalf("expected evolution value canonicalized to a Let, got %T", out.Evolutions[0].Value)
	}
	if v, ok := pLet.Identifier.(*ir.Argument); !ok || v.Name != "t0_" {
		t.Fatalf("expected parameter's first fresh name t0_, got %#v", pLet.Identifier)
	}
	if v, ok := eLet.Identifier.(*ir.Argument); !ok || v.Name != "t0_" {
		t.Fatalf("expected evolution's first fresh name t0_, got %#v", eLet.Identifier)
	}
}
