package solve

import (
	"github.com/arblang/arblangc/internal/cerr"
	"github.com/arblang/arblangc/internal/ir"
)

// symDiff computes the symbolic derivative of e with respect to state,
// ported from symbolic_diff.cpp. field names the record field being
// differentiated when state is a record (state.field inside e is the
// only reference that differentiates to 1); pass hasField=false and an
// empty field for a plain quantity state.
//
// e must already be let-free (see flattenLets): the source throws an
// internal-compiler-error on a resolved_let reaching this point, and a
// let surviving here would silently differentiate to 0 for any bound
// name it shadows, so this implementation requires the caller to have
// flattened the expression first rather than reproducing that failure
// mode.
func symDiff(e ir.Expr, state, field string, hasField bool) (ir.Expr, error) {
	switch n := e.(type) {
	case *ir.Argument:
		if !hasField && n.Name == state {
			return &ir.Int{Value: 1, Ty: n.Ty, P: n.P}, nil
		}
		return &ir.Int{Value: 0, Ty: n.Ty, P: n.P}, nil
	case *ir.Variable:
		return symDiff(n.Value, state, field, hasField)
	case *ir.Float:
		return &ir.Int{Value: 0, Ty: n.Ty, P: n.P}, nil
	case *ir.Int:
		return &ir.Int{Value: 0, Ty: n.Ty, P: n.P}, nil
	case *ir.Unary:
		return symDiffUnary(n, state, field, hasField)
	case *ir.Binary:
		if n.Op == ir.OpDot {
			return symDiffFieldAccess(n, state, field, hasField)
		}
		return symDiffBinary(n, state, field, hasField)
	default:
		return nil, cerr.Internal("solve", "unexpected node kind during symbolic differentiation")
	}
}

func symDiffUnary(n *ir.Unary, state, field string, hasField bool) (ir.Expr, error) {
	argDiff, err := symDiff(n.Arg, state, field, hasField)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ir.OpExp:
		return &ir.Binary{Op: ir.OpMul, Lhs: argDiff, Rhs: &ir.Unary{Op: ir.OpExp, Arg: n.Arg, Ty: n.Ty, P: n.P}, Ty: n.Ty, P: n.P}, nil
	case ir.OpLog:
		return &ir.Binary{Op: ir.OpDiv, Lhs: argDiff, Rhs: n.Arg, Ty: n.Ty, P: n.P}, nil
	case ir.OpCos:
		neg := &ir.Unary{Op: ir.OpNeg, Arg: argDiff, Ty: n.Ty, P: n.P}
		sinArg := &ir.Unary{Op: ir.OpSin, Arg: n.Arg, Ty: n.Ty, P: n.P}
		return &ir.Binary{Op: ir.OpMul, Lhs: neg, Rhs: sinArg, Ty: n.Ty, P: n.P}, nil
	case ir.OpSin:
		cosArg := &ir.Unary{Op: ir.OpCos, Arg: n.Arg, Ty: n.Ty, P: n.P}
		return &ir.Binary{Op: ir.OpMul, Lhs: argDiff, Rhs: cosArg, Ty: n.Ty, P: n.P}, nil
	case ir.OpNeg:
		return &ir.Unary{Op: ir.OpNeg, Arg: argDiff, Ty: n.Ty, P: n.P}, nil
	default:
		return nil, cerr.New(cerr.NonDifferentiable, cerr.Position{Line: n.P.Line, Column: n.P.Column}, "",
			"operator "+string(n.Op)+" cannot be differentiated")
	}
}

func symDiffBinary(n *ir.Binary, state, field string, hasField bool) (ir.Expr, error) {
	switch n.Op {
	case ir.OpAdd, ir.OpSub:
		lhsDiff, err := symDiff(n.Lhs, state, field, hasField)
		if err != nil {
			return nil, err
		}
		rhsDiff, err := symDiff(n.Rhs, state, field, hasField)
		if err != nil {
			return nil, err
		}
		return &ir.Binary{Op: n.Op, Lhs: lhsDiff, Rhs: rhsDiff, Ty: n.Ty, P: n.P}, nil
	case ir.OpMul:
		lhsDiff, err := symDiff(n.Lhs, state, field, hasField)
		if err != nil {
			return nil, err
		}
		rhsDiff, err := symDiff(n.Rhs, state, field, hasField)
		if err != nil {
			return nil, err
		}
		uPrimeV := &ir.Binary{Op: ir.OpMul, Lhs: lhsDiff, Rhs: n.Rhs, Ty: n.Ty, P: n.P}
		vPrimeU := &ir.Binary{Op: ir.OpMul, Lhs: n.Lhs, Rhs: rhsDiff, Ty: n.Ty, P: n.P}
		return &ir.Binary{Op: ir.OpAdd, Lhs: uPrimeV, Rhs: vPrimeU, Ty: n.Ty, P: n.P}, nil
	case ir.OpDiv:
		lhsDiff, err := symDiff(n.Lhs, state, field, hasField)
		if err != nil {
			return nil, err
		}
		rhsDiff, err := symDiff(n.Rhs, state, field, hasField)
		if err != nil {
			return nil, err
		}
		uPrimeV := &ir.Binary{Op: ir.OpMul, Lhs: lhsDiff, Rhs: n.Rhs, Ty: n.Ty, P: n.P}
		vPrimeU := &ir.Binary{Op: ir.OpMul, Lhs: n.Lhs, Rhs: rhsDiff, Ty: n.Ty, P: n.P}
		numerator := &ir.Binary{Op: ir.OpSub, Lhs: uPrimeV, Rhs: vPrimeU, Ty: n.Ty, P: n.P}
		denominator := &ir.Binary{Op: ir.OpMul, Lhs: n.Rhs, Rhs: n.Rhs, Ty: n.Ty, P: n.P}
		return &ir.Binary{Op: ir.OpDiv, Lhs: numerator, Rhs: denominator, Ty: n.Ty, P: n.P}, nil
	default:
		return nil, cerr.New(cerr.NonDifferentiable, cerr.Position{Line: n.P.Line, Column: n.P.Column}, "",
			"operator "+string(n.Op)+" cannot be differentiated")
	}
}

// symDiffFieldAccess differentiates state.field (a Binary{OpDot} node).
// It only recognizes the shape the resolver itself produces: the object
// side of the dot is the bare state argument.
func symDiffFieldAccess(n *ir.Binary, state, field string, hasField bool) (ir.Expr, error) {
	if !hasField {
		return &ir.Int{Value: 0, Ty: n.Ty, P: n.P}, nil
	}
	arg, ok := n.Lhs.(*ir.Argument)
	if !ok {
		return nil, cerr.Internal("solve", "expected a bare state argument to the left of a field access during symbolic differentiation")
	}
	accessedField := ""
	if a, ok := n.Rhs.(*ir.Argument); ok {
		accessedField = a.Name
	}
	if arg.Name == state && accessedField == field {
		return &ir.Int{Value: 1, Ty: n.Ty, P: n.P}, nil
	}
	return &ir.Int{Value: 0, Ty: n.Ty, P: n.P}, nil
}
