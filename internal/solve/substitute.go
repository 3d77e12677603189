package solve

import "github.com/arblang/arblangc/internal/ir"

// letName reports the bound name of a let/object-field identifier,
// whichever concrete shape the resolver gave it — the same small
// duplicated helper every other middle-end pass carries for this.
func letName(id ir.Expr) string {
	switch v := id.(type) {
	case *ir.Variable:
		return v.Name
	case *ir.Argument:
		return v.Name
	default:
		return ""
	}
}

// flattenLets inlines every let binding in e into its body, producing a
// single closed-form expression with no remaining lets. The source's
// sym_diff throws on reaching a resolved_let, which only works if the
// expression handed to it has none left; here that is made an explicit
// precondition the solver establishes itself, rather than an assumption
// that happens to hold for the common case and fails on a let kept
// alive by CSE.
func flattenLets(e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.Let:
		val := flattenLets(n.Value)
		body := substituteExpr(n.Body, letName(n.Identifier), val)
		return flattenLets(body)
	case *ir.Unary:
		return &ir.Unary{Op: n.Op, Arg: flattenLets(n.Arg), Ty: n.Ty, P: n.P}
	case *ir.Binary:
		rhs := n.Rhs
		if n.Op != ir.OpDot {
			rhs = flattenLets(n.Rhs)
		}
		return &ir.Binary{Op: n.Op, Lhs: flattenLets(n.Lhs), Rhs: rhs, Ty: n.Ty, P: n.P}
	case *ir.Object:
		fields := make([]*ir.Variable, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = &ir.Variable{Name: f.Name, Value: flattenLets(f.Value), Ty: f.Ty, P: f.P}
		}
		return &ir.Object{RecordName: n.RecordName, Fields: fields, Ty: n.Ty, P: n.P}
	case *ir.Conditional:
		return &ir.Conditional{Condition: flattenLets(n.Condition), ValueTrue: flattenLets(n.ValueTrue), ValueFalse: flattenLets(n.ValueFalse), Ty: n.Ty, P: n.P}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = flattenLets(a)
		}
		return &ir.Call{FuncName: n.FuncName, Args: args, Ty: n.Ty, P: n.P}
	default:
		return e
	}
}

// substituteExpr replaces every bare reference to name with with
// throughout e.
func substituteExpr(e ir.Expr, name string, with ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.Argument:
		if n.Name == name {
			return with
		}
		return n
	case *ir.Variable:
		if n.Name == name {
			return with
		}
		return &ir.Variable{Name: n.Name, Value: substituteExpr(n.Value, name, with), Ty: n.Ty, P: n.P}
	case *ir.Unary:
		return &ir.Unary{Op: n.Op, Arg: substituteExpr(n.Arg, name, with), Ty: n.Ty, P: n.P}
	case *ir.Binary:
		rhs := n.Rhs
		if n.Op != ir.OpDot {
			rhs = substituteExpr(n.Rhs, name, with)
		}
		return &ir.Binary{Op: n.Op, Lhs: substituteExpr(n.Lhs, name, with), Rhs: rhs, Ty: n.Ty, P: n.P}
	case *ir.Object:
		fields := make([]*ir.Variable, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = &ir.Variable{Name: f.Name, Value: substituteExpr(f.Value, name, with), Ty: f.Ty, P: f.P}
		}
		return &ir.Object{RecordName: n.RecordName, Fields: fields, Ty: n.Ty, P: n.P}
	case *ir.Conditional:
		return &ir.Conditional{Condition: substituteExpr(n.Condition, name, with), ValueTrue: substituteExpr(n.ValueTrue, name, with), ValueFalse: substituteExpr(n.ValueFalse, name, with), Ty: n.Ty, P: n.P}
	case *ir.Let:
		if letName(n.Identifier) == name {
			return &ir.Let{Identifier: n.Identifier, Value: substituteExpr(n.Value, name, with), Body: n.Body, Ty: n.Ty, P: n.P}
		}
		return &ir.Let{Identifier: n.Identifier, Value: substituteExpr(n.Value, name, with), Body: substituteExpr(n.Body, name, with), Ty: n.Ty, P: n.P}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = substituteExpr(a, name, with)
		}
		return &ir.Call{FuncName: n.FuncName, Args: args, Ty: n.Ty, P: n.P}
	default:
		return e
	}
}

// substitute replaces the state reference — the bare state argument for
// a scalar state, or its state.field access when hasField selects a
// record field — with the given value throughout rhs.
func substitute(rhs ir.Expr, stateName, field string, hasField bool, with ir.Expr) ir.Expr {
	if !hasField {
		return substituteExpr(rhs, stateName, with)
	}
	return substituteFieldAccess(rhs, stateName, field, with)
}

func substituteFieldAccess(e ir.Expr, stateName, field string, with ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.Binary:
		if n.Op == ir.OpDot {
			if lhs, ok := n.Lhs.(*ir.Argument); ok {
				if rhs, ok := n.Rhs.(*ir.Argument); ok && lhs.Name == stateName && rhs.Name == field {
					return with
				}
			}
			return n
		}
		return &ir.Binary{Op: n.Op, Lhs: substituteFieldAccess(n.Lhs, stateName, field, with), Rhs: substituteFieldAccess(n.Rhs, stateName, field, with), Ty: n.Ty, P: n.P}
	case *ir.Unary:
		return &ir.Unary{Op: n.Op, Arg: substituteFieldAccess(n.Arg, stateName, field, with), Ty: n.Ty, P: n.P}
	case *ir.Variable:
		return &ir.Variable{Name: n.Name, Value: substituteFieldAccess(n.Value, stateName, field, with), Ty: n.Ty, P: n.P}
	case *ir.Object:
		fields := make([]*ir.Variable, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = &ir.Variable{Name: f.Name, Value: substituteFieldAccess(f.Value, stateName, field, with), Ty: f.Ty, P: f.P}
		}
		return &ir.Object{RecordName: n.RecordName, Fields: fields, Ty: n.Ty, P: n.P}
	case *ir.Conditional:
		return &ir.Conditional{Condition: substituteFieldAccess(n.Condition, stateName, field, with), ValueTrue: substituteFieldAccess(n.ValueTrue, stateName, field, with), ValueFalse: substituteFieldAccess(n.ValueFalse, stateName, field, with), Ty: n.Ty, P: n.P}
	default:
		return e
	}
}
