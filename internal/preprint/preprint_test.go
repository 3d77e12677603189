package preprint

import (
	"testing"

	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/lexer"
	"github.com/arblang/arblangc/internal/types"
)

var zeroPos = lexer.Position{Line: 1, Column: 1}

func arg(name string, ty types.Type) *ir.Argument { return &ir.Argument{Name: name, Ty: ty, P: zeroPos} }

func simpleDensityMechanism() *ir.Mechanism {
	real := types.Real()
	gbar := &ir.Parameter{Name: "gbar", Value: &ir.Float{Value: 1, Ty: real, P: zeroPos}, Ty: real, P: zeroPos}
	m := arg("m", real)
	state := &ir.State{Name: "m", Ty: real, P: zeroPos}
	init := &ir.Initial{Identifier: m, Value: &ir.Float{Value: 0, Ty: real, P: zeroPos}, Ty: real, P: zeroPos}
	ev := &ir.Evolve{Identifier: m, Value: &ir.Binary{Op: ir.OpMul, Lhs: arg("gbar", real), Rhs: m, Ty: real, P: zeroPos}, Ty: real, P: zeroPos}
	pair := &ir.Object{
		Fields: []*ir.Variable{
			{Name: "i", Value: &ir.Float{Value: 0, Ty: types.Current_, P: zeroPos}, Ty: types.Current_, P: zeroPos},
			{Name: "g", Value: &ir.Float{Value: 0, Ty: types.Real(), P: zeroPos}, Ty: types.Real(), P: zeroPos},
		},
		Ty: types.Record{Fields: []types.Field{{Name: "i", Type: types.Current_}, {Name: "g", Type: types.Real()}}},
		P:  zeroPos,
	}
	eff := &ir.Effect{Effect: ir.AffCurrentDensityPair, Value: pair, Ty: pair.Ty, P: zeroPos}
	return &ir.Mechanism{
		Name: "leak", Kind: ir.Density, P: zeroPos,
		Parameters:      []*ir.Parameter{gbar},
		States:          []*ir.State{state},
		Initializations: []*ir.Initial{init},
		Evolutions:      []*ir.Evolve{ev},
		Effects:         []*ir.Effect{eff},
		Exports:         []*ir.Export{{Identifier: arg("gbar", real), Ty: real, P: zeroPos}},
	}
}

func TestCheckMechanismAcceptsWellFormed(t *testing.T) {
	if err := CheckMechanism(simpleDensityMechanism()); err != nil {
		t.Fatalf("CheckMechanism: %v", err)
	}
}

func TestCheckMechanismRejectsUnsupportedKind(t *testing.T) {
	m := simpleDensityMechanism()
	m.Kind = ir.Junction
	if err := CheckMechanism(m); err == nil {
		t.Fatal("expected an error for an unsupported mechanism kind")
	}
}

func TestCheckMechanismRejectsBareCurrentAffectable(t *testing.T) {
	m := simpleDensityMechanism()
	m.Effects[0].Effect = ir.AffCurrentDensity
	if err := CheckMechanism(m); err == nil {
		t.Fatal("expected an internal error: bare current_density should not reach preprint")
	}
}

func TestCheckMechanismRejectsOnEventsOnDensity(t *testing.T) {
	m := simpleDensityMechanism()
	real := types.Real()
	m.OnEvents = []*ir.OnEvent{{Arg: arg("w", real), Identifier: arg("m", real), Value: arg("m", real), Ty: real, P: zeroPos}}
	if err := CheckMechanism(m); err == nil {
		t.Fatal("expected an error: on_events is unsupported for density mechanisms")
	}
}

func TestBuildStateFieldMapMangles(t *testing.T) {
	recTy := types.Record{Fields: []types.Field{{Name: "m", Type: types.Real()}, {Name: "h", Type: types.Real()}}}
	states := []*ir.State{{Name: "s", Ty: recTy, P: zeroPos}}
	sfm := BuildStateFieldMap(states)
	if sfm["s"]["m"] != "_s_m" || sfm["s"]["h"] != "_s_h" {
		t.Fatalf("unexpected mangled names: %#v", sfm)
	}
}

func TestFlattenRewritesFieldAccess(t *testing.T) {
	recTy := types.Record{Fields: []types.Field{{Name: "m", Type: types.Real()}}}
	sfm := StateFieldMap{"s": {"m": "_s_m"}}
	access := &ir.Binary{Op: ir.OpDot, Lhs: arg("s", recTy), Rhs: arg("m", types.Real()), Ty: types.Real(), P: zeroPos}

	got, err := Flatten(access, sfm)
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	a, ok := got.(*ir.Argument)
	if !ok || a.Name != "_s_m" {
		t.Fatalf("want bare argument _s_m, got %#v", got)
	}
}

func TestBuildPopulatesPointerMapAndProcedures(t *testing.T) {
	pm, err := Build(simpleDensityMechanism())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(pm.PointerMap["m"]) == 0 {
		t.Error("expected a pointer map entry for state m")
	}
	if len(pm.PointerMap["gbar"]) == 0 {
		t.Error("expected a pointer map entry for parameter gbar")
	}
	if len(pm.Procedures.Initializations) != 1 {
		t.Errorf("want 1 initialization, got %d", len(pm.Procedures.Initializations))
	}
	if len(pm.Procedures.Evolutions) != 1 {
		t.Errorf("want 1 evolution, got %d", len(pm.Procedures.Evolutions))
	}
	if len(pm.Procedures.Effects) != 1 {
		t.Errorf("want 1 effect, got %d", len(pm.Procedures.Effects))
	}
}

func TestReadArgumentsCollectsLeaves(t *testing.T) {
	real := types.Real()
	e := &ir.Binary{Op: ir.OpAdd, Lhs: arg("a", real), Rhs: arg("b", real), Ty: real, P: zeroPos}
	var got []string
	ReadArguments(e, &got)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("want [a b], got %v", got)
	}
}
