// Package emitter renders a pre-printed mechanism into the PPACK-ABI
// C++ header/body pair spec.md section 6 describes: a header declaring
// the `<namespace>_<mechname>` factory and ABI descriptor, and a body
// defining init/advance_state/compute_currents/apply_events/write_ions/
// post_event plus the multicore interface factory. Grounded on the
// PPACK pointer-array conventions `internal/preprint` already
// establishes; the concrete kernel bodies below are this port's own
// rendering, since the retrieved sources stop at the pre-printer and
// never reach C++ text emission.
package emitter

import (
	"fmt"
	"strings"

	"github.com/arblang/arblangc/internal/ir"
)

// renderExpr renders e as a C++ expression. Let-chains become a run of
// declarations the caller is expected to have already split out via
// flattenStatements; renderExpr itself only ever sees the terminal
// expression of a let-chain or one of its (non-let) subexpressions.
func renderExpr(e ir.Expr) string {
	switch n := e.(type) {
	case *ir.Float:
		return formatFloat(n.Value)
	case *ir.Int:
		return fmt.Sprintf("%d", n.Value)
	case *ir.Argument:
		return n.Name
	case *ir.Variable:
		return n.Name
	case *ir.Unary:
		return renderUnary(n)
	case *ir.Binary:
		return renderBinary(n)
	case *ir.Conditional:
		return fmt.Sprintf("(%s ? %s : %s)", renderExpr(n.Condition), renderExpr(n.ValueTrue), renderExpr(n.ValueFalse))
	case *ir.Object:
		return renderObjectLiteral(n)
	case *ir.Let:
		// A nested let reachable outside flattenStatements (e.g. inside a
		// conditional branch); render as an immediately-invoked C++ lambda.
		return fmt.Sprintf("([&]{ %s return %s; }())", flattenStatements(n), renderExpr(terminal(n)))
	default:
		return "/* unsupported expression */"
	}
}

func formatFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func renderUnary(n *ir.Unary) string {
	switch n.Op {
	case ir.OpNeg:
		return fmt.Sprintf("(-%s)", renderExpr(n.Arg))
	case ir.OpLnot:
		return fmt.Sprintf("(!%s)", renderExpr(n.Arg))
	case ir.OpExp:
		return fmt.Sprintf("std::exp(%s)", renderExpr(n.Arg))
	case ir.OpLog:
		return fmt.Sprintf("std::log(%s)", renderExpr(n.Arg))
	case ir.OpCos:
		return fmt.Sprintf("std::cos(%s)", renderExpr(n.Arg))
	case ir.OpSin:
		return fmt.Sprintf("std::sin(%s)", renderExpr(n.Arg))
	case ir.OpAbs:
		return fmt.Sprintf("std::abs(%s)", renderExpr(n.Arg))
	case ir.OpExprelr:
		return fmt.Sprintf("exprelr(%s)", renderExpr(n.Arg))
	default:
		return fmt.Sprintf("/* unsupported unary %s */(%s)", n.Op, renderExpr(n.Arg))
	}
}

var binaryOperator = map[ir.BinaryOp]string{
	ir.OpAdd: "+", ir.OpSub: "-", ir.OpMul: "*", ir.OpDiv: "/",
	ir.OpLt: "<", ir.OpLe: "<=", ir.OpGt: ">", ir.OpGe: ">=",
	ir.OpEq: "==", ir.OpNe: "!=", ir.OpLand: "&&", ir.OpLor: "||",
}

func renderBinary(n *ir.Binary) string {
	switch n.Op {
	case ir.OpDot:
		return renderExpr(n.Lhs) + "." + renderExpr(n.Rhs)
	case ir.OpPow:
		return fmt.Sprintf("std::pow(%s, %s)", renderExpr(n.Lhs), renderExpr(n.Rhs))
	case ir.OpMin:
		return fmt.Sprintf("std::min(%s, %s)", renderExpr(n.Lhs), renderExpr(n.Rhs))
	case ir.OpMax:
		return fmt.Sprintf("std::max(%s, %s)", renderExpr(n.Lhs), renderExpr(n.Rhs))
	}
	if op, ok := binaryOperator[n.Op]; ok {
		return fmt.Sprintf("(%s %s %s)", renderExpr(n.Lhs), op, renderExpr(n.Rhs))
	}
	return fmt.Sprintf("/* unsupported binary %s */", n.Op)
}

func renderObjectLiteral(n *ir.Object) string {
	parts := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		parts[i] = fmt.Sprintf(".%s = %s", f.Name, renderExpr(f.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// terminal returns the non-let expression at the end of e's let-chain
// (or e itself if e isn't a let).
func terminal(e ir.Expr) ir.Expr {
	for {
		l, ok := e.(*ir.Let)
		if !ok {
			return e
		}
		e = l.Body
	}
}

// flattenStatements renders every let binding in e's chain as a
// sequence of C++ local declarations, one `auto name = value;` line per
// binding, in source order.
func flattenStatements(e ir.Expr) string {
	var sb strings.Builder
	for {
		l, ok := e.(*ir.Let)
		if !ok {
			break
		}
		fmt.Fprintf(&sb, "auto %s = %s;\n", letIdentifierName(l.Identifier), renderExpr(l.Value))
		e = l.Body
	}
	return sb.String()
}

func letIdentifierName(id ir.Expr) string {
	switch v := id.(type) {
	case *ir.Variable:
		return v.Name
	case *ir.Argument:
		return v.Name
	default:
		return "_"
	}
}
