package solve

import (
	"testing"

	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/lexer"
	"github.com/arblang/arblangc/internal/types"
)

var zeroPos = lexer.Position{Line: 1, Column: 1}

func argument(name string, ty types.Type) *ir.Argument {
	return &ir.Argument{Name: name, Ty: ty, P: zeroPos}
}

func floatLit(v float64) *ir.Float {
	return &ir.Float{Value: v, Ty: types.Real(), P: zeroPos}
}

func intLit(v int64) *ir.Int {
	return &ir.Int{Value: v, Ty: types.Real(), P: zeroPos}
}

func TestSymDiffLeaves(t *testing.T) {
	tests := []struct {
		name  string
		e     ir.Expr
		state string
		want  int64
	}{
		{"matching argument differentiates to 1", argument("m", types.Real()), "m", 1},
		{"other argument differentiates to 0", argument("h", types.Real()), "m", 0},
		{"float literal differentiates to 0", floatLit(3), "m", 0},
		{"int literal differentiates to 0", intLit(3), "m", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := symDiff(tc.e, tc.state, "", false)
			if err != nil {
				t.Fatalf("symDiff: %v", err)
			}
			i, ok := got.(*ir.Int)
			if !ok {
				t.Fatalf("want *ir.Int, got %T", got)
			}
			if i.Value != tc.want {
				t.Errorf("want %d, got %d", tc.want, i.Value)
			}
		})
	}
}

func TestSymDiffExp(t *testing.T) {
	// d/dm exp(m) = 1 * exp(m)
	m := argument("m", types.Real())
	e := &ir.Unary{Op: ir.OpExp, Arg: m, Ty: types.Real(), P: zeroPos}
	got, err := symDiff(e, "m", "", false)
	if err != nil {
		t.Fatalf("symDiff: %v", err)
	}
	bin, ok := got.(*ir.Binary)
	if !ok || bin.Op != ir.OpMul {
		t.Fatalf("want a Mul node, got %#v", got)
	}
	if _, ok := bin.Rhs.(*ir.Unary); !ok {
		t.Errorf("rhs should be the original exp(m), got %#v", bin.Rhs)
	}
}

func TestSymDiffNonDifferentiable(t *testing.T) {
	m := argument("m", types.Real())
	e := &ir.Unary{Op: ir.OpAbs, Arg: m, Ty: types.Real(), P: zeroPos}
	if _, err := symDiff(e, "m", "", false); err == nil {
		t.Fatal("expected an error differentiating abs()")
	}
}

func TestSymDiffFieldAccess(t *testing.T) {
	// state.a differentiated w.r.t. (state, "a") is 1; w.r.t. (state, "b") is 0.
	recTy := types.Record{Fields: []types.Field{{Name: "a", Type: types.Real()}, {Name: "b", Type: types.Real()}}}
	access := &ir.Binary{Op: ir.OpDot, Lhs: argument("s", recTy), Rhs: argument("a", types.Real()), Ty: types.Real(), P: zeroPos}

	got, err := symDiff(access, "s", "a", true)
	if err != nil {
		t.Fatalf("symDiff: %v", err)
	}
	if i, ok := got.(*ir.Int); !ok || i.Value != 1 {
		t.Fatalf("want 1, got %#v", got)
	}

	got, err = symDiff(access, "s", "b", true)
	if err != nil {
		t.Fatalf("symDiff: %v", err)
	}
	if i, ok := got.(*ir.Int); !ok || i.Value != 0 {
		t.Fatalf("want 0, got %#v", got)
	}
}

func TestFlattenLetsInlinesChain(t *testing.T) {
	// let t0_ = m + 1; t0_ * t0_
	m := argument("m", types.Real())
	sum := &ir.Binary{Op: ir.OpAdd, Lhs: m, Rhs: intLit(1), Ty: types.Real(), P: zeroPos}
	ident := argument("t0_", types.Real())
	body := &ir.Binary{Op: ir.OpMul, Lhs: ident, Rhs: ident, Ty: types.Real(), P: zeroPos}
	let := &ir.Let{Identifier: ident, Value: sum, Body: body, Ty: types.Real(), P: zeroPos}

	got := flattenLets(let)
	bin, ok := got.(*ir.Binary)
	if !ok || bin.Op != ir.OpMul {
		t.Fatalf("want a Mul node, got %#v", got)
	}
	if _, ok := bin.Lhs.(*ir.Binary); !ok {
		t.Errorf("lhs should have been inlined to (m + 1), got %#v", bin.Lhs)
	}
}

func TestSolveEvolveLinearDecay(t *testing.T) {
	// evolve m' = -m / tau   (a = -1/tau, constant w.r.t. m; reduces to
	// exponential decay once tau folds to a literal).
	real := types.Real()
	m := argument("m", real)
	tau := argument("tau", real)
	neg := &ir.Unary{Op: ir.OpNeg, Arg: m, Ty: real, P: zeroPos}
	rhs := &ir.Binary{Op: ir.OpDiv, Lhs: neg, Rhs: tau, Ty: real.PerTime(), P: zeroPos}

	ev := &ir.Evolve{Identifier: argument("m", real), Value: rhs, Ty: real.PerTime(), P: zeroPos}
	states := map[string]bool{"m": true}

	solved, err := solveEvolve(ev, states, "dt")
	if err != nil {
		t.Fatalf("solveEvolve: %v", err)
	}
	if solved.Ty == nil {
		t.Fatal("solved evolve missing a type")
	}
	if solved.Value == nil {
		t.Fatal("solved evolve missing a value")
	}
}

func TestSolveEvolveRejectsNonDiagonal(t *testing.T) {
	// evolve m' = m * n: the rate of m reads another state n, which
	// makes the system non-diagonal.
	real := types.Real()
	m, n := argument("m", real), argument("n", real)
	rhs := &ir.Binary{Op: ir.OpMul, Lhs: m, Rhs: n, Ty: real.PerTime(), P: zeroPos}
	ev := &ir.Evolve{Identifier: argument("m", real), Value: rhs, Ty: real.PerTime(), P: zeroPos}
	states := map[string]bool{"m": true, "n": true}

	if _, err := solveEvolve(ev, states, "dt"); err == nil {
		t.Fatal("expected an UnsupportedODE error for a non-diagonal system")
	}
}

func TestSplitCurrentBuildsIGPair(t *testing.T) {
	v := argument("v", types.Voltage)
	g0 := argument("gbar", types.Real())
	i := &ir.Binary{Op: ir.OpMul, Lhs: g0, Rhs: v, Ty: types.Current_, P: zeroPos}
	eff := &ir.Effect{Effect: ir.AffCurrentDensity, Value: i, Ty: types.Current_, P: zeroPos}

	rewritten, err := splitCurrent(eff, "v")
	if err != nil {
		t.Fatalf("splitCurrent: %v", err)
	}
	if rewritten.Effect != ir.AffCurrentDensityPair {
		t.Errorf("want AffCurrentDensityPair, got %v", rewritten.Effect)
	}
	obj := findObject(rewritten.Value)
	if obj == nil {
		t.Fatalf("want an (i, g) object reachable from %#v", rewritten.Value)
	}
	if len(obj.Fields) != 2 {
		t.Fatalf("want 2 fields, got %d", len(obj.Fields))
	}
}

// findObject walks a canonicalized let chain looking for the Object
// literal ANF binds to a fresh name, since canonicalization always
// leaves a bare name as the outermost body.
func findObject(e ir.Expr) *ir.Object {
	switch n := e.(type) {
	case *ir.Object:
		return n
	case *ir.Let:
		if o := findObject(n.Value); o != nil {
			return o
		}
		return findObject(n.Body)
	default:
		return nil
	}
}
