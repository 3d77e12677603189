package optimize

import (
	"testing"

	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/types"
)

func TestOptimizeExprFoldsConstantArithmetic(t *testing.T) {
	// (2 + 3) * 1 should fold all the way down to the literal 5.
	expr := &ir.Binary{
		Op:  ir.OpMul,
		Lhs: &ir.Binary{Op: ir.OpAdd, Lhs: &ir.Int{Value: 2}, Rhs: &ir.Int{Value: 3}},
		Rhs: &ir.Int{Value: 1},
	}
	out := OptimizeExpr(expr)
	n, ok := out.(*ir.Int)
	if !ok || n.Value != 5 {
		t.Fatalf("OptimizeExpr((2+3)*1) = %#v, want Int(5)", out)
	}
}

func TestOptimizeExprEliminatesDeadLet(t *testing.T) {
	// let unused = 1 + 2 in 7 should drop the dead let entirely.
	dead := &ir.Argument{Name: "unused", Ty: types.Real()}
	expr := &ir.Let{
		Identifier: dead,
		Value:      &ir.Binary{Op: ir.OpAdd, Lhs: &ir.Int{Value: 1}, Rhs: &ir.Int{Value: 2}},
		Body:       &ir.Int{Value: 7},
	}
	out := OptimizeExpr(expr)
	n, ok := out.(*ir.Int)
	if !ok || n.Value != 7 {
		t.Fatalf("OptimizeExpr(dead let) = %#v, want Int(7)", out)
	}
}

func TestOptimizeExprCollapsesDuplicateSubexpressions(t *testing.T) {
	// let x = a*b in let y = a*b in x + y; after CSE+copyprop, y's
	// value becomes a reference to x and the whole thing folds to x+x.
	a := &ir.Argument{Name: "a", Ty: types.Real()}
	b := &ir.Argument{Name: "b", Ty: types.Real()}
	xVar := &ir.Variable{Name: "x", Ty: types.Real()}
	yVar := &ir.Variable{Name: "y", Ty: types.Real()}
	inner := &ir.Let{
		Identifier: yVar,
		Value:      &ir.Binary{Op: ir.OpMul, Lhs: a, Rhs: b, Ty: types.Real()},
		Body:       &ir.Binary{Op: ir.OpAdd, Lhs: &ir.Variable{Name: "x"}, Rhs: &ir.Variable{Name: "y"}, Ty: types.Real()},
		Ty:         types.Real(),
	}
	expr := &ir.Let{
		Identifier: xVar,
		Value:      &ir.Binary{Op: ir.OpMul, Lhs: a, Rhs: b, Ty: types.Real()},
		Body:       inner,
		Ty:         types.Real(),
	}

	out := OptimizeExpr(expr)
	// After CSE replaces y's value with a reference to x, copy-propagate
	// should substitute y -> x everywhere, dead-code-eliminate the now
	// unused y binding, and leave a single let whose body reads x twice.
	outerLet, ok := out.(*ir.Let)
	if !ok {
		t.Fatalf("expected a surviving Let for x, got %#v", out)
	}
	bin, ok := outerLet.Body.(*ir.Binary)
	if !ok {
		t.Fatalf("expected x+x body, got %T", outerLet.Body)
	}
	lhs, lok := bin.Lhs.(*ir.Variable)
	rhs, rok := bin.Rhs.(*ir.Variable)
	if !lok || !rok || lhs.Name != "x" || rhs.Name != "x" {
		t.Fatalf("expected both operands to resolve to x, got %#v / %#v", bin.Lhs, bin.Rhs)
	}
}

func TestOptimizeMechanismDropsUnusedParameter(t *testing.T) {
	mech := &ir.Mechanism{
		Name: "leak",
		Kind: ir.Density,
		Parameters: []*ir.Parameter{
			{Name: "unused", Value: &ir.Int{Value: 1}, Ty: types.Real()},
		},
		States: []*ir.State{{Name: "m", Ty: types.Real()}},
		Evolutions: []*ir.Evolve{
			{Identifier: &ir.State{Name: "m", Ty: types.Real()}, Value: &ir.Unary{Op: ir.OpNeg, Arg: &ir.Argument{Name: "m", Ty: types.Real()}, Ty: types.Real()}, Ty: types.Real()},
		},
	}

	o := New()
	out := o.Optimize(mech)
	if len(out.Parameters) != 0 {
		t.Fatalf("expected the unused parameter to be eliminated, got %#v", out.Parameters)
	}
}

func TestOptimizeFoldsSelfMinusSelfToZero(t *testing.T) {
	m := &ir.Argument{Name: "m", Ty: types.Real()}
	expr := &ir.Binary{Op: ir.OpSub, Lhs: m, Rhs: m, Ty: types.Real()}
	out := OptimizeExpr(expr)
	n, ok := out.(*ir.Int)
	if !ok || n.Value != 0 {
		t.Fatalf("OptimizeExpr(m - m) = %#v, want Int(0)", out)
	}
}

func TestWithPassDisablesDeadCodeElimination(t *testing.T) {
	dead := &ir.Argument{Name: "unused", Ty: types.Real()}
	expr := &ir.Let{
		Identifier: dead,
		Value:      &ir.Int{Value: 1},
		Body:       &ir.Int{Value: 7},
	}
	out := OptimizeExpr(expr, WithPass(PassDeadCodeElimine, false))
	if _, ok := out.(*ir.Let); !ok {
		t.Fatalf("expected the dead let to survive with DCE disabled, got %#v", out)
	}
}
