package inline

import (
	"strings"
	"testing"

	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/types"
)

func TestInlineSubstitutesCallArgumentsIntoBody(t *testing.T) {
	// function square(x) = x * x; evolve m' = square(m);
	xArg := &ir.Argument{Name: "x", Ty: types.Real()}
	square := &ir.Function{
		Name: "square",
		Args: []*ir.Argument{xArg},
		Body: &ir.Binary{Op: ir.OpMul, Lhs: &ir.Argument{Name: "x", Ty: types.Real()}, Rhs: &ir.Argument{Name: "x", Ty: types.Real()}, Ty: types.Real()},
		Ty:   types.Real(),
	}
	mArg := &ir.Argument{Name: "m", Ty: types.Real()}
	mech := &ir.Mechanism{
		Name:      "leak",
		Kind:      ir.Density,
		Functions: []*ir.Function{square},
		States:    []*ir.State{{Name: "m", Ty: types.Real()}},
		Evolutions: []*ir.Evolve{
			{Identifier: &ir.State{Name: "m", Ty: types.Real()}, Value: &ir.Call{FuncName: "square", Args: []ir.Expr{mArg}, Ty: types.Real()}, Ty: types.Real()},
		},
	}

	in := New()
	out, err := in.Inline(mech)
	if err != nil {
		t.Fatalf("Inline returned error: %v", err)
	}
	if len(out.Functions) != 0 {
		t.Fatalf("expected the function table to be dropped after inlining, got %d entries", len(out.Functions))
	}
	bin, ok := out.Evolutions[0].Value.(*ir.Binary)
	if !ok {
		t.Fatalf("expected the call site replaced by the callee's body, got %T", out.Evolutions[0].Value)
	}
	lhs, lok := bin.Lhs.(*ir.Argument)
	rhs, rok := bin.Rhs.(*ir.Argument)
	if !lok || !rok || lhs.Name != "m" || rhs.Name != "m" {
		t.Fatalf("expected both operands substituted with m, got %#v / %#v", bin.Lhs, bin.Rhs)
	}
}

func TestInlineRejectsCallToUndefinedFunction(t *testing.T) {
	mech := &ir.Mechanism{
		Name: "leak",
		Kind: ir.Density,
		Evolutions: []*ir.Evolve{
			{Identifier: &ir.State{Name: "m", Ty: types.Real()}, Value: &ir.Call{FuncName: "missing", Ty: types.Real()}, Ty: types.Real()},
		},
	}
	in := New()
	_, err := in.Inline(mech)
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected an undefined-function error mentioning \"missing\", got %v", err)
	}
}

func TestInlineRejectsArityMismatch(t *testing.T) {
	square := &ir.Function{
		Name: "square",
		Args: []*ir.Argument{{Name: "x", Ty: types.Real()}},
		Body: &ir.Argument{Name: "x", Ty: types.Real()},
		Ty:   types.Real(),
	}
	mech := &ir.Mechanism{
		Name:      "leak",
		Kind:      ir.Density,
		Functions: []*ir.Function{square},
		Evolutions: []*ir.Evolve{
			{Identifier: &ir.State{Name: "m", Ty: types.Real()}, Value: &ir.Call{FuncName: "square", Args: []ir.Expr{}, Ty: types.Real()}, Ty: types.Real()},
		},
	}
	in := New()
	_, err := in.Inline(mech)
	if err == nil {
		t.Fatal("expected an arity-mismatch error")
	}
}
