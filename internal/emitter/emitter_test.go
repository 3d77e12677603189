package emitter

import (
	"fmt"
	"testing"

	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/lexer"
	"github.com/arblang/arblangc/internal/preprint"
	"github.com/arblang/arblangc/internal/types"
	"github.com/gkampitakis/go-snaps/snaps"
)

var zeroPos = lexer.Position{Line: 1, Column: 1}

func arg(name string, ty types.Type) *ir.Argument { return &ir.Argument{Name: name, Ty: ty, P: zeroPos} }

func leakMechanism() *preprint.Mechanism {
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
	mech := &ir.Mechanism{
		Name: "leak", Kind: ir.Density, P: zeroPos,
		Parameters:      []*ir.Parameter{gbar},
		States:          []*ir.State{state},
		Initializations: []*ir.Initial{init},
		Evolutions:      []*ir.Evolve{ev},
		Effects:         []*ir.Effect{eff},
	}
	pm, err := preprint.Build(mech)
	if err != nil {
		panic(err)
	}
	return pm
}

func TestEmitProducesDeterministicFingerprint(t *testing.T) {
	pm := leakMechanism()
	a, err := Emit(pm, "testns")
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	b, err := Emit(pm, "testns")
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if a.Header != b.Header || a.Body != b.Body {
		t.Fatal("Emit is not deterministic across identical inputs")
	}
}

func TestEmitHeaderSnapshot(t *testing.T) {
	pm := leakMechanism()
	result, err := Emit(pm, "testns")
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	snaps.MatchSnapshot(t, "leak_header", result.Header)
}

func TestEmitBodyDeclaresAllKernels(t *testing.T) {
	pm := leakMechanism()
	result, err := Emit(pm, "testns")
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	for _, kernel := range []string{"init", "advance_state", "compute_currents", "apply_events", "write_ions", "post_event"} {
		needle := fmt.Sprintf("void %s(arb_mechanism_ppack* pp_)", kernel)
		if !contains(result.Body, needle) {
			t.Errorf("expected body to declare kernel %s", kernel)
		}
	}
}

func TestDescriptorJSONIncludesStateAndParameter(t *testing.T) {
	pm := leakMechanism()
	doc, err := DescriptorJSON(pm)
	if err != nil {
		t.Fatalf("DescriptorJSON: %v", err)
	}
	for _, needle := range []string{`"name":"leak"`, `"kind":"density"`, `"gbar"`} {
		if !contains(doc, needle) {
			t.Errorf("descriptor JSON missing %q: %s", needle, doc)
		}
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
