// Package preprint lowers a solved mechanism (optimize+inline+solve
// already applied) into the flattened, pointer-mapped shape the emitter
// needs to generate PPACK-ABI procedure bodies: check.go sanity-checks
// the mechanism is printable at all, flatten.go mangles record-typed
// state/parameter fields into bare names, and pack.go builds the
// pointer map and read/write maps the emitter walks.
//
// Grounded on pre_printer/check_mechanism.cpp, pre_printer/simplify.cpp,
// pre_printer/get_read_arguments.cpp, and pre_printer/printable_mechanism.cpp.
package preprint

import (
	"fmt"

	"github.com/arblang/arblangc/internal/cerr"
	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/types"
)

// CheckMechanism verifies m is in the shape the pre-printer and emitter
// expect: a supported mechanism kind, no leftover functions/constants,
// no nested records, exports that only ever name a literal-valued
// parameter, and bindables/affectables this backend actually supports.
// Ported from check_mechanism.cpp's check().
func CheckMechanism(m *ir.Mechanism) error {
	if m.Kind != ir.Density && m.Kind != ir.Point {
		return cerr.New(cerr.UnsupportedMechanismKind, cerr.Position{Line: m.P.Line, Column: m.P.Column}, "",
			fmt.Sprintf("unsupported mechanism kind %q for mechanism %s, still a work in progress", m.Kind, m.Name))
	}
	if m.Kind != ir.Point && len(m.OnEvents) > 0 {
		return cerr.New(cerr.UnsupportedMechanismKind, cerr.Position{Line: m.P.Line, Column: m.P.Column}, "",
			fmt.Sprintf("unsupported API call on_events for mechanism kind %q (mechanism %s)", m.Kind, m.Name))
	}
	if len(m.Functions) > 0 {
		return cerr.Internal("preprint", "expected zero functions after inlining")
	}
	if len(m.Constants) > 0 {
		return cerr.Internal("preprint", "expected zero constants after constant propagation")
	}

	for _, s := range m.States {
		if err := checkNoNestedRecord(s.Ty, "states"); err != nil {
			return err
		}
	}

	constParams := map[string]bool{}
	assignedParams := map[string]bool{}
	for _, p := range m.Parameters {
		if err := checkNoNestedRecord(p.Ty, "parameters"); err != nil {
			return err
		}
		if isLiteral(p.Value) {
			constParams[p.Name] = true
		} else {
			assignedParams[p.Name] = true
		}
	}

	for _, x := range m.Exports {
		a, ok := x.Identifier.(*ir.Argument)
		if !ok {
			return cerr.Internal("preprint", "expected a resolved argument as the identifier of an export")
		}
		if assignedParams[a.Name] {
			return cerr.New(cerr.UnsupportedAffectable, cerr.Position{Line: x.P.Line, Column: x.P.Column}, "",
				fmt.Sprintf("cannot export %s because its value is based on another parameter", a.Name))
		}
		if !constParams[a.Name] {
			return cerr.Internal("preprint", fmt.Sprintf("cannot export parameter %s: not found or exported twice", a.Name))
		}
		delete(constParams, a.Name)
	}
	for name := range constParams {
		return cerr.Internal("preprint", fmt.Sprintf("expected parameter %s to have been constant-propagated if not exported", name))
	}

	for _, b := range m.Bindings {
		if m.Kind != ir.Concentration && (b.Bind == ir.MolarFlux || b.Bind == ir.CurrentDensity) {
			return cerr.New(cerr.UnsupportedBindable, cerr.Position{Line: b.P.Line, Column: b.P.Column}, "",
				fmt.Sprintf("unsupported bindable %q for mechanism kind %q", b.Bind, m.Kind))
		}
		if b.Bind == ir.MolarFlux || b.Bind == ir.NernstPotential {
			return cerr.New(cerr.UnsupportedBindable, cerr.Position{Line: b.P.Line, Column: b.P.Column}, "",
				fmt.Sprintf("unsupported bindable %q, still a work in progress", b.Bind))
		}
	}

	for _, eff := range m.Effects {
		if err := checkEffect(m.Kind, eff); err != nil {
			return err
		}
	}

	for _, init := range m.Initializations {
		if _, ok := init.Identifier.(*ir.Argument); !ok {
			return cerr.Internal("preprint", "expected identifier of an initial to be a resolved argument")
		}
	}
	for _, oe := range m.OnEvents {
		if oe.Arg == nil {
			return cerr.Internal("preprint", "expected argument of an on_event to be a resolved argument")
		}
		if _, ok := oe.Identifier.(*ir.Argument); !ok {
			return cerr.Internal("preprint", "expected identifier of an on_event to be a resolved argument")
		}
	}
	for _, ev := range m.Evolutions {
		if _, ok := ev.Identifier.(*ir.Argument); !ok {
			return cerr.Internal("preprint", "expected identifier of an evolve to be a resolved argument")
		}
	}

	return nil
}

func checkNoNestedRecord(t types.Type, where string) error {
	rec, ok := t.(types.Record)
	if !ok {
		return nil
	}
	for _, f := range rec.Fields {
		if _, nested := f.Type.(types.Record); nested {
			return cerr.New(cerr.UnsupportedMechanismKind, cerr.Position{}, "",
				fmt.Sprintf("unsupported nested records for %s, still a work in progress", where))
		}
	}
	return nil
}

func isLiteral(e ir.Expr) bool {
	switch e.(type) {
	case *ir.Int, *ir.Float:
		return true
	default:
		return false
	}
}

// checkEffect mirrors check_mechanism.cpp's switch over affectable. Only
// current_density_pair/current_pair reach this stage, since internal/solve
// rewrites every bare current effect into a pair before preprint runs;
// the remaining affectables are explicitly unsupported, matching the
// original's "still a work in progress" TODOs.
func checkEffect(kind ir.MechanismKind, eff *ir.Effect) error {
	pos := cerr.Position{Line: eff.P.Line, Column: eff.P.Column}
	switch eff.Effect {
	case ir.AffMolarFlux:
		if kind != ir.Density {
			return cerr.New(cerr.UnsupportedAffectable, pos, "", fmt.Sprintf("unsupported effect %q for mechanism kind %q", eff.Effect, kind))
		}
		return cerr.New(cerr.UnsupportedAffectable, pos, "", "unsupported effect molar_flux, still a work in progress")
	case ir.AffMolarFlowRate:
		if kind != ir.Point {
			return cerr.New(cerr.UnsupportedAffectable, pos, "", fmt.Sprintf("unsupported effect %q for mechanism kind %q", eff.Effect, kind))
		}
		return cerr.New(cerr.UnsupportedAffectable, pos, "", "unsupported effect molar_flow_rate, still a work in progress")
	case ir.AffInternalConcentrationRate, ir.AffExternalConcentrationRate:
		if kind != ir.Concentration {
			return cerr.New(cerr.UnsupportedAffectable, pos, "", fmt.Sprintf("unsupported effect %q for mechanism kind %q", eff.Effect, kind))
		}
		return cerr.New(cerr.UnsupportedAffectable, pos, "", fmt.Sprintf("unsupported effect %q, still a work in progress", eff.Effect))
	case ir.AffCurrentDensity, ir.AffCurrent:
		return cerr.Internal("preprint", "unexpected bare current/current_density affectable at this stage, expected a pair")
	case ir.AffCurrentDensityPair, ir.AffCurrentPair:
		if _, ok := eff.Ty.(types.Record); !ok {
			return cerr.Internal("preprint", fmt.Sprintf("expected affectable %q to have resolved to a record type", eff.Effect))
		}
	}
	return nil
}
