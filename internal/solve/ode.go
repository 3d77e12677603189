package solve

import (
	"github.com/arblang/arblangc/internal/canon"
	"github.com/arblang/arblangc/internal/cerr"
	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/lexer"
	"github.com/arblang/arblangc/internal/optimize"
	"github.com/arblang/arblangc/internal/types"
)

// timeQuantity is the dimensional type of the synthetic dt binding: time
// to the first power, nothing else.
func timeQuantity() types.Type {
	q := types.Real()
	q.Exponents[types.Time] = 1
	return q
}

// solveEvolve rewrites a single evolve declaration's derivative value
// into the direct exponential-Euler state update, following the linear
// decomposition f(s) = a*s + b: s_{t+dt} = s*exp(a*dt) + (b/a)*(exp(a*dt)-1),
// falling back to forward Euler s + b*dt when a is identically zero.
// states is the set of every state name in the mechanism, used to
// reject systems whose right-hand side couples to another state — this
// solver only handles a diagonal Jacobian (spec.md section 4.11).
func solveEvolve(ev *ir.Evolve, states map[string]bool, dtName string) (*ir.Evolve, error) {
	ident, ok := ev.Identifier.(*ir.Argument)
	if !ok {
		return nil, cerr.Internal("solve", "evolve identifier must resolve to a state argument")
	}
	stateName := ident.Name
	stateType := ident.Ty

	flat := flattenLets(ev.Value)

	dt := &ir.Argument{Name: dtName, Ty: timeQuantity(), P: ev.P}

	if rec, ok := flat.(*ir.Object); ok {
		fields := make([]*ir.Variable, len(rec.Fields))
		for i, f := range rec.Fields {
			fieldTy, ok := stateType.(types.Record)
			if !ok {
				return nil, cerr.Internal("solve", "record evolve value for a non-record state")
			}
			ft, ok := fieldTy.FieldType(f.Name)
			if !ok {
				return nil, cerr.Internal("solve", "evolve field "+f.Name+" has no matching state field")
			}
			stateRef := &ir.Binary{Op: ir.OpDot, Lhs: &ir.Argument{Name: stateName, Ty: stateType, P: f.P},
				Rhs: &ir.Argument{Name: f.Name, Ty: ft, P: f.P}, Ty: ft, P: f.P}
			updated, err := solveLinearODE(f.Value, stateName, f.Name, true, stateRef, ft, dt, states)
			if err != nil {
				return nil, err
			}
			fields[i] = &ir.Variable{Name: f.Name, Value: updated, Ty: ft, P: f.P}
		}
		var newVal ir.Expr = &ir.Object{RecordName: rec.RecordName, Fields: fields, Ty: stateType, P: ev.P}
		newVal = canon.New().CanonicalizeExpr(newVal)
		newVal = optimize.OptimizeExpr(newVal)
		return &ir.Evolve{Identifier: ev.Identifier, Value: newVal, Ty: stateType, P: ev.P}, nil
	}

	stateRef := &ir.Argument{Name: stateName, Ty: stateType, P: ev.P}
	updated, err := solveLinearODE(flat, stateName, "", false, stateRef, stateType, dt, states)
	if err != nil {
		return nil, err
	}
	updated = canon.New().CanonicalizeExpr(updated)
	updated = optimize.OptimizeExpr(updated)
	return &ir.Evolve{Identifier: ev.Identifier, Value: updated, Ty: stateType, P: ev.P}, nil
}

// solveLinearODE builds s*exp(a*dt) + (b/a)*(exp(a*dt)-1) for one scalar
// derivative expression rhs = f(s), where stateRef is either the bare
// state argument or its state.field access, and target/hasField select
// which component of a record state is being differentiated.
func solveLinearODE(rhs ir.Expr, stateName, target string, hasField bool, stateRef ir.Expr, ty types.Type, dt *ir.Argument, states map[string]bool) (ir.Expr, error) {
	if err := checkDiagonal(rhs, states, stateName); err != nil {
		return nil, err
	}

	zero := zeroValue(ty, rhs.Pos())
	b := optimize.OptimizeExpr(substitute(rhs, stateName, target, hasField, zero))

	a, err := symDiff(rhs, stateName, target, hasField)
	if err != nil {
		return nil, err
	}
	a = canon.NewWithPrefix("d").CanonicalizeExpr(a)
	a = optimize.OptimizeExpr(a)

	if isZeroLiteral(a) {
		// f doesn't depend on the state at all: plain forward Euler.
		return &ir.Binary{Op: ir.OpAdd, Lhs: stateRef, Rhs: &ir.Binary{Op: ir.OpMul, Lhs: b, Rhs: dt, Ty: ty, P: rhs.Pos()}, Ty: ty, P: rhs.Pos()}, nil
	}

	aDt := &ir.Binary{Op: ir.OpMul, Lhs: a, Rhs: dt, Ty: ty, P: rhs.Pos()}
	expAdt := &ir.Unary{Op: ir.OpExp, Arg: aDt, Ty: ty, P: rhs.Pos()}
	term1 := &ir.Binary{Op: ir.OpMul, Lhs: stateRef, Rhs: expAdt, Ty: ty, P: rhs.Pos()}
	ratio := &ir.Binary{Op: ir.OpDiv, Lhs: b, Rhs: a, Ty: ty, P: rhs.Pos()}
	one := &ir.Int{Value: 1, Ty: ty, P: rhs.Pos()}
	term2 := &ir.Binary{Op: ir.OpMul, Lhs: ratio, Rhs: &ir.Binary{Op: ir.OpSub, Lhs: expAdt, Rhs: one, Ty: ty, P: rhs.Pos()}, Ty: ty, P: rhs.Pos()}
	return &ir.Binary{Op: ir.OpAdd, Lhs: term1, Rhs: term2, Ty: ty, P: rhs.Pos()}, nil
}

// checkDiagonal rejects a derivative expression that references a state
// other than own — this solver handles only systems whose Jacobian is
// diagonal.
func checkDiagonal(e ir.Expr, states map[string]bool, own string) error {
	var other string
	var walk func(ir.Expr)
	walk = func(e ir.Expr) {
		if other != "" || e == nil {
			return
		}
		switch n := e.(type) {
		case *ir.Argument:
			if n.Name != own && states[n.Name] {
				other = n.Name
			}
		case *ir.Variable:
			walk(n.Value)
		case *ir.Unary:
			walk(n.Arg)
		case *ir.Binary:
			walk(n.Lhs)
			if n.Op != ir.OpDot {
				walk(n.Rhs)
			}
		case *ir.Object:
			for _, f := range n.Fields {
				walk(f.Value)
			}
		case *ir.Conditional:
			walk(n.Condition)
			walk(n.ValueTrue)
			walk(n.ValueFalse)
		case *ir.Let:
			walk(n.Value)
			walk(n.Body)
		case *ir.Call:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}
	walk(e)
	if other != "" {
		return cerr.New(cerr.UnsupportedODE, cerr.Position{Line: e.Pos().Line, Column: e.Pos().Column}, "",
			"evolve for "+own+" depends on state "+other+": only diagonal systems can be solved in closed form")
	}
	return nil
}

// zeroValue builds the zero of ty: a literal 0 for a quantity, or an
// object of per-field zero literals for a record.
func zeroValue(ty types.Type, p lexer.Position) ir.Expr {
	if rec, ok := ty.(types.Record); ok {
		fields := make([]*ir.Variable, len(rec.Fields))
		for i, f := range rec.Fields {
			fields[i] = &ir.Variable{Name: f.Name, Value: zeroValue(f.Type, p), Ty: f.Type, P: p}
		}
		return &ir.Object{Fields: fields, Ty: ty, P: p}
	}
	return &ir.Int{Value: 0, Ty: ty, P: p}
}

// isZeroLiteral reports whether e folded down to the literal zero.
func isZeroLiteral(e ir.Expr) bool {
	switch n := e.(type) {
	case *ir.Int:
		return n.Value == 0
	case *ir.Float:
		return n.Value == 0
	default:
		return false
	}
}
