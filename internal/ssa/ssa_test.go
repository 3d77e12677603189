package ssa

import (
	"testing"

	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/types"
)

func TestRenameGivesDuplicateLetNamesDistinctIdentities(t *testing.T) {
	// let t0_ = a in let t0_ = b in t0_ + t0_  (a name reused across two
	// lets, as canon's per-declaration counters can produce once merged
	// into one shared reserved set by Rename).
	a := &ir.Argument{Name: "a", Ty: types.Real()}
	b := &ir.Argument{Name: "b", Ty: types.Real()}
	innerVar := &ir.Variable{Name: "t0_", Value: b, Ty: types.Real()}
	inner := &ir.Let{
		Identifier: innerVar,
		Value:      b,
		Body: &ir.Binary{
			Op:  ir.OpAdd,
			Lhs: &ir.Variable{Name: "t0_"},
			Rhs: &ir.Variable{Name: "t0_"},
			Ty:  types.Real(),
		},
		Ty: types.Real(),
	}
	outerVar := &ir.Variable{Name: "t0_", Value: a, Ty: types.Real()}
	outer := &ir.Let{Identifier: outerVar, Value: a, Body: inner, Ty: types.Real()}

	mech := &ir.Mechanism{
		Name: "leak",
		Kind: ir.Density,
		Evolutions: []*ir.Evolve{
			{Identifier: &ir.State{Name: "m", Ty: types.Real()}, Value: outer, Ty: types.Real()},
		},
	}

	rn := New()
	out := rn.Rename(mech)

	renamedOuter, ok := out.Evolutions[0].Value.(*ir.Let)
	if !ok {
		t.Fatalf("expected renamed evolution value to be a Let, got %T", out.Evolutions[0].Value)
	}
	renamedInner, ok := renamedOuter.Body.(*ir.Let)
	if !ok {
		t.Fatalf("expected nested Let body, got %T", renamedOuter.Body)
	}

	outerName := renamedOuter.Identifier.(*ir.Variable).Name
	innerName := renamedInner.Identifier.(*ir.Variable).Name
	if outerName == innerName {
		t.Fatalf("expected distinct SSA names for shadowed t0_ bindings, got %q twice", outerName)
	}
}

func TestRenameRewritesBothOperandsOfABinary(t *testing.T) {
	// let x = a in x + x  must rename BOTH occurrences of x in the
	// binary body, not just the left-hand one.
	aArg := &ir.Argument{Name: "a", Ty: types.Real()}
	xVar := &ir.Variable{Name: "x", Value: aArg, Ty: types.Real()}
	body := &ir.Binary{
		Op:  ir.OpAdd,
		Lhs: &ir.Variable{Name: "x"},
		Rhs: &ir.Variable{Name: "x"},
		Ty:  types.Real(),
	}
	letExpr := &ir.Let{Identifier: xVar, Value: aArg, Body: body, Ty: types.Real()}

	mech := &ir.Mechanism{
		Name: "leak",
		Kind: ir.Density,
		Evolutions: []*ir.Evolve{
			{Identifier: &ir.State{Name: "m", Ty: types.Real()}, Value: letExpr, Ty: types.Real()},
		},
	}

	rn := New()
	out := rn.Rename(mech)

	renamed, ok := out.Evolutions[0].Value.(*ir.Let)
	if !ok {
		t.Fatalf("expected a Let, got %T", out.Evolutions[0].Value)
	}
	bin, ok := renamed.Body.(*ir.Binary)
	if !ok {
		t.Fatalf("expected a Binary body, got %T", renamed.Body)
	}
	lhs, ok := bin.Lhs.(*ir.Variable)
	if !ok {
		t.Fatalf("expected lhs to resolve to the renamed Variable, got %T", bin.Lhs)
	}
	rhs, ok := bin.Rhs.(*ir.Variable)
	if !ok {
		t.Fatalf("expected rhs to resolve to the renamed Variable too, got %T", bin.Rhs)
	}
	if lhs.Name != rhs.Name {
		t.Fatalf("both operands should resolve to the same SSA variable, got %q and %q", lhs.Name, rhs.Name)
	}
}
