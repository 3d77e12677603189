// Package solve turns a fully resolved, canonicalized, inlined, and
// optimized mechanism into one whose evolve declarations carry direct
// per-timestep state updates instead of time derivatives, and whose
// current-producing effects carry an (i, g) current/conductance pair
// instead of a bare current value — the two simulator-facing rewrites
// spec.md section 4.11 describes as "solving" a mechanism (grounded in
// solve.cpp/solve_ode.cpp/symbolic_diff.cpp).
package solve

import (
	"github.com/arblang/arblangc/internal/canon"
	"github.com/arblang/arblangc/internal/cerr"
	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/optimize"
	"github.com/arblang/arblangc/internal/types"
)

// Solve rewrites every evolve and current-producing effect in m. It
// expects m to already have no constants or user functions left — both
// are supposed to have been eliminated by the earlier fold and inline
// passes, and their survival here is a bug in an earlier pass, not a
// condition this pass can recover from.
func Solve(m *ir.Mechanism) (*ir.Mechanism, error) {
	if len(m.Constants) > 0 || len(m.Functions) > 0 {
		return nil, cerr.Internal("solve", "constants and functions must be eliminated before solving")
	}

	out := &ir.Mechanism{
		Name: m.Name, Kind: m.Kind, P: m.P,
		RecordAliases:   m.RecordAliases,
		Parameters:      m.Parameters,
		States:          m.States,
		Initializations: m.Initializations,
		OnEvents:        m.OnEvents, // not rewritten here: see DESIGN.md
		Exports:         m.Exports,
	}

	states := make(map[string]bool, len(m.States))
	for _, s := range m.States {
		states[s.Name] = true
	}

	vSym := ""
	for _, b := range m.Bindings {
		out.Bindings = append(out.Bindings, b)
		if vSym == "" && b.Bind == ir.MembranePotential {
			vSym = b.Name
		}
	}
	out.Bindings = append(out.Bindings, &ir.Bind{Name: "dt", Bind: ir.Dt, Ty: timeQuantity(), P: m.P})

	for _, ev := range m.Evolutions {
		solved, err := solveEvolve(ev, states, "dt")
		if err != nil {
			return nil, err
		}
		out.Evolutions = append(out.Evolutions, solved)
	}

	for _, eff := range m.Effects {
		if eff.Effect == ir.AffCurrentDensity || eff.Effect == ir.AffCurrent {
			rewritten, err := splitCurrent(eff, vSym)
			if err != nil {
				return nil, err
			}
			out.Effects = append(out.Effects, rewritten)
			continue
		}
		out.Effects = append(out.Effects, eff)
	}

	return out, nil
}

// splitCurrent rewrites a current-producing effect's value into a
// two-field {i, g} (or {i_<ion>, g_<ion>}) object, where i is the
// original current expression and g is its derivative with respect to
// membrane potential, divided by one volt for dimensional correction —
// ported from get_ig_pair in solve.cpp.
func splitCurrent(eff *ir.Effect, vSym string) (*ir.Effect, error) {
	outerLet, isLet := asLet(eff.Value)
	var iExpr ir.Expr
	if isLet {
		iExpr = innermostBody(outerLet)
	} else {
		iExpr = eff.Value
	}

	// Differentiate against the fully inlined expression so a let bound
	// to a shared subexpression higher up the chain (kept around by CSE)
	// still participates in the derivative, rather than being treated as
	// an opaque constant the way a literal reading of the source's
	// sym_diff would.
	gExpr, err := symDiff(flattenLets(eff.Value), vSym, "", false)
	if err != nil {
		return nil, err
	}

	voltage := &ir.Int{Value: 1, Ty: types.Voltage, P: eff.P}
	gTy := gExpr.Type()
	if q, ok := gTy.(types.Quantity); ok {
		gTy = q.Div(types.Voltage)
	}
	gExpr = &ir.Binary{Op: ir.OpDiv, Lhs: gExpr, Rhs: voltage, Ty: gTy, P: eff.P}

	iName, gName := "i", "g"
	if eff.Ion != "" {
		iName, gName = "i_"+eff.Ion, "g_"+eff.Ion
	}
	fields := []*ir.Variable{
		{Name: iName, Value: iExpr, Ty: iExpr.Type(), P: eff.P},
		{Name: gName, Value: gExpr, Ty: gExpr.Type(), P: eff.P},
	}
	pair := &ir.Object{
		Fields: fields,
		Ty:     types.Record{Fields: []types.Field{{Name: iName, Type: iExpr.Type()}, {Name: gName, Type: gExpr.Type()}}},
		P:      eff.P,
	}

	var result ir.Expr = pair
	if isLet {
		setInnermostBody(outerLet, pair)
		result = outerLet
	}

	result = canon.NewWithPrefix("i").CanonicalizeExpr(result)
	result = optimize.OptimizeExpr(result)

	newKind := ir.AffCurrentDensityPair
	if eff.Effect == ir.AffCurrent {
		newKind = ir.AffCurrentPair
	}
	return &ir.Effect{Effect: newKind, Ion: eff.Ion, Value: result, Ty: result.Type(), P: eff.P}, nil
}

// asLet reports whether e is a *ir.Let, the same small duplicated
// helper every other middle-end pass carries for this.
func asLet(e ir.Expr) (*ir.Let, bool) {
	l, ok := e.(*ir.Let)
	return l, ok
}

func innermostBody(l *ir.Let) ir.Expr {
	cur := l
	for {
		next, ok := asLet(cur.Body)
		if !ok {
			return cur.Body
		}
		cur = next
	}
}

func setInnermostBody(l *ir.Let, newBody ir.Expr) {
	t := newBody.Type()
	cur := l
	cur.Ty = t
	for {
		next, ok := asLet(cur.Body)
		if !ok {
			break
		}
		next.Ty = t
		cur = next
	}
	cur.Body = newBody
}
