package optimize

import (
	"fmt"
	"strings"

	"github.com/arblang/arblangc/internal/ir"
)

// eliminateCommonSubexpressions replaces a let-binding's value with a
// reference to an earlier let-bound variable whose value is
// structurally identical, ported from cse.cpp. Like the original, this
// pass only looks at the value carried by each let in a chain; a
// follow-up copy-propagate pass turns the introduced variable-to-
// variable let into a direct substitution.
func eliminateCommonSubexpressions(m *ir.Mechanism) (*ir.Mechanism, bool) {
	out := &ir.Mechanism{
		Name: m.Name, Kind: m.Kind, P: m.P,
		RecordAliases: m.RecordAliases,
		States:        m.States,
		Bindings:      m.Bindings,
		Exports:       m.Exports,
	}
	changed := false

	for _, c := range m.Constants {
		exprMap := map[string]ir.Expr{}
		val, ch := cse(c.Value, exprMap)
		out.Constants = append(out.Constants, &ir.Constant{Name: c.Name, Value: val, Ty: c.Ty, P: c.P})
		changed = changed || ch
	}
	for _, p := range m.Parameters {
		exprMap := map[string]ir.Expr{}
		val, ch := cse(p.Value, exprMap)
		out.Parameters = append(out.Parameters, &ir.Parameter{Name: p.Name, Value: val, Ty: p.Ty, P: p.P})
		changed = changed || ch
	}
	for _, f := range m.Functions {
		exprMap := map[string]ir.Expr{}
		val, ch := cse(f.Body, exprMap)
		out.Functions = append(out.Functions, &ir.Function{Name: f.Name, Args: f.Args, Body: val, Ty: f.Ty, P: f.P})
		changed = changed || ch
	}
	for _, ini := range m.Initializations {
		exprMap := map[string]ir.Expr{}
		val, ch := cse(ini.Value, exprMap)
		out.Initializations = append(out.Initializations, &ir.Initial{Identifier: ini.Identifier, Value: val, Ty: ini.Ty, P: ini.P})
		changed = changed || ch
	}
	for _, oe := range m.OnEvents {
		exprMap := map[string]ir.Expr{}
		val, ch := cse(oe.Value, exprMap)
		out.OnEvents = append(out.OnEvents, &ir.OnEvent{Arg: oe.Arg, Identifier: oe.Identifier, Value: val, Ty: oe.Ty, P: oe.P})
		changed = changed || ch
	}
	for _, ev := range m.Evolutions {
		exprMap := map[string]ir.Expr{}
		val, ch := cse(ev.Value, exprMap)
		out.Evolutions = append(out.Evolutions, &ir.Evolve{Identifier: ev.Identifier, Value: val, Ty: ev.Ty, P: ev.P})
		changed = changed || ch
	}
	for _, eff := range m.Effects {
		exprMap := map[string]ir.Expr{}
		val, ch := cse(eff.Value, exprMap)
		out.Effects = append(out.Effects, &ir.Effect{Effect: eff.Effect, Ion: eff.Ion, Value: val, Ty: eff.Ty, P: eff.P})
		changed = changed || ch
	}
	return out, changed
}

// cse walks a let chain, recording each binding's structural key the
// first time it is seen. A repeat key rewrites that binding's value to
// a reference to the variable recorded for the earlier occurrence.
// Non-let nodes are left untouched, matching the original's pass-
// through cases for everything but resolved_let.
func cse(e ir.Expr, exprMap map[string]ir.Expr) (ir.Expr, bool) {
	l, ok := e.(*ir.Let)
	if !ok {
		return e, false
	}
	key := exprKey(l.Value)
	val := l.Value
	changed := false
	if prior, seen := exprMap[key]; seen {
		val = prior
		changed = true
	} else {
		exprMap[key] = l.Identifier
	}
	body, bch := cse(l.Body, exprMap)
	return &ir.Let{Identifier: l.Identifier, Value: val, Body: body, Ty: l.Ty, P: l.P}, changed || bch
}

// exprKey renders e's structure (operator/name/literal value and
// recursive operand keys) as a string, standing in for the source's
// structural hash over resolved_expr. Position is deliberately
// excluded so two occurrences of the same computation key identically.
func exprKey(e ir.Expr) string {
	var b strings.Builder
	writeExprKey(&b, e)
	return b.String()
}

func writeExprKey(b *strings.Builder, e ir.Expr) {
	switch n := e.(type) {
	case *ir.Argument:
		fmt.Fprintf(b, "arg(%s)", n.Name)
	case *ir.Variable:
		fmt.Fprintf(b, "var(%s)", n.Name)
	case *ir.Float:
		fmt.Fprintf(b, "f(%v)", n.Value)
	case *ir.Int:
		fmt.Fprintf(b, "i(%d)", n.Value)
	case *ir.Unary:
		fmt.Fprintf(b, "u(%s,", n.Op)
		writeExprKey(b, n.Arg)
		b.WriteByte(')')
	case *ir.Binary:
		fmt.Fprintf(b, "b(%s,", n.Op)
		writeExprKey(b, n.Lhs)
		b.WriteByte(',')
		writeExprKey(b, n.Rhs)
		b.WriteByte(')')
	case *ir.Call:
		fmt.Fprintf(b, "call(%s", n.FuncName)
		for _, a := range n.Args {
			b.WriteByte(',')
			writeExprKey(b, a)
		}
		b.WriteByte(')')
	case *ir.Object:
		fmt.Fprintf(b, "obj(%s", n.RecordName)
		for _, f := range n.Fields {
			fmt.Fprintf(b, ",%s=", f.Name)
			writeExprKey(b, f.Value)
		}
		b.WriteByte(')')
	case *ir.Let:
		b.WriteString("let(")
		writeExprKey(b, n.Value)
		b.WriteByte(';')
		writeExprKey(b, n.Body)
		b.WriteByte(')')
	case *ir.Conditional:
		b.WriteString("cond(")
		writeExprKey(b, n.Condition)
		b.WriteByte(',')
		writeExprKey(b, n.ValueTrue)
		b.WriteByte(',')
		writeExprKey(b, n.ValueFalse)
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "?(%T)", e)
	}
}
