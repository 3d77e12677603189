package optimize

import "github.com/arblang/arblangc/internal/ir"

// propagateCopies replaces uses of a let-bound name whose value is
// itself a bare identifier or a record literal with that value
// directly, ported from copy_propagate.cpp. Constants carry their copy
// map across the whole mechanism the way the original's outer
// local_copy_map does; every other declaration starts from empty.
func propagateCopies(m *ir.Mechanism) (*ir.Mechanism, bool) {
	out := &ir.Mechanism{
		Name: m.Name, Kind: m.Kind, P: m.P,
		RecordAliases: m.RecordAliases,
		States:        m.States,
		Bindings:      m.Bindings,
	}
	changed := false

	copyMap := map[string]ir.Expr{}
	for _, c := range m.Constants {
		val, ch := copyProp(c.Value, copyMap)
		out.Constants = append(out.Constants, &ir.Constant{Name: c.Name, Value: val, Ty: c.Ty, P: c.P})
		changed = changed || ch
	}
	for _, p := range m.Parameters {
		cm := map[string]ir.Expr{}
		val, ch := copyProp(p.Value, cm)
		out.Parameters = append(out.Parameters, &ir.Parameter{Name: p.Name, Value: val, Ty: p.Ty, P: p.P})
		changed = changed || ch
	}
	for _, f := range m.Functions {
		cm := map[string]ir.Expr{}
		val, ch := copyProp(f.Body, cm)
		out.Functions = append(out.Functions, &ir.Function{Name: f.Name, Args: f.Args, Body: val, Ty: f.Ty, P: f.P})
		changed = changed || ch
	}
	for _, ini := range m.Initializations {
		cm := map[string]ir.Expr{}
		val, ch := copyProp(ini.Value, cm)
		out.Initializations = append(out.Initializations, &ir.Initial{Identifier: ini.Identifier, Value: val, Ty: ini.Ty, P: ini.P})
		changed = changed || ch
	}
	for _, oe := range m.OnEvents {
		cm := map[string]ir.Expr{}
		val, ch := copyProp(oe.Value, cm)
		out.OnEvents = append(out.OnEvents, &ir.OnEvent{Arg: oe.Arg, Identifier: oe.Identifier, Value: val, Ty: oe.Ty, P: oe.P})
		changed = changed || ch
	}
	for _, ev := range m.Evolutions {
		cm := map[string]ir.Expr{}
		val, ch := copyProp(ev.Value, cm)
		out.Evolutions = append(out.Evolutions, &ir.Evolve{Identifier: ev.Identifier, Value: val, Ty: ev.Ty, P: ev.P})
		changed = changed || ch
	}
	for _, eff := range m.Effects {
		cm := map[string]ir.Expr{}
		val, ch := copyProp(eff.Value, cm)
		out.Effects = append(out.Effects, &ir.Effect{Effect: eff.Effect, Ion: eff.Ion, Value: val, Ty: eff.Ty, P: eff.P})
		changed = changed || ch
	}
	for _, exp := range m.Exports {
		cm := map[string]ir.Expr{}
		val, ch := copyProp(exp.Identifier, cm)
		out.Exports = append(out.Exports, &ir.Export{Identifier: val, Ty: exp.Ty, P: exp.P})
		changed = changed || ch
	}
	return out, changed
}

func isIdentifier(e ir.Expr) bool {
	switch e.(type) {
	case *ir.Argument, *ir.Variable:
		return true
	default:
		return false
	}
}

func isObjectLiteral(e ir.Expr) bool {
	_, ok := e.(*ir.Object)
	return ok
}

func copyProp(e ir.Expr, copyMap map[string]ir.Expr) (ir.Expr, bool) {
	switch n := e.(type) {
	case *ir.Argument:
		if v, ok := copyMap[n.Name]; ok {
			return v, true
		}
		return n, false
	case *ir.Variable:
		if v, ok := copyMap[n.Name]; ok {
			return v, true
		}
		return n, false
	case *ir.Float, *ir.Int:
		return e, false
	case *ir.Unary:
		arg, ch := copyProp(n.Arg, copyMap)
		return &ir.Unary{Op: n.Op, Arg: arg, Ty: n.Ty, P: n.P}, ch
	case *ir.Binary:
		lhs, lch := copyProp(n.Lhs, copyMap)
		rhs := n.Rhs
		rch := false
		if n.Op != ir.OpDot {
			rhs, rch = copyProp(n.Rhs, copyMap)
		}
		return &ir.Binary{Op: n.Op, Lhs: lhs, Rhs: rhs, Ty: n.Ty, P: n.P}, lch || rch
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		changed := false
		for i, a := range n.Args {
			v, ch := copyProp(a, copyMap)
			args[i] = v
			changed = changed || ch
		}
		return &ir.Call{FuncName: n.FuncName, Args: args, Ty: n.Ty, P: n.P}, changed
	case *ir.Object:
		fields := make([]*ir.Variable, len(n.Fields))
		changed := false
		for i, f := range n.Fields {
			v, ch := copyProp(f.Value, copyMap)
			fields[i] = &ir.Variable{Name: f.Name, Value: v, Ty: f.Ty, P: f.P}
			changed = changed || ch
		}
		return &ir.Object{RecordName: n.RecordName, Fields: fields, Ty: n.Ty, P: n.P}, changed
	case *ir.Let:
		if isIdentifier(n.Value) || isObjectLiteral(n.Value) {
			copyMap[letName(n.Identifier)] = n.Value
		}
		val, vch := copyProp(n.Value, copyMap)
		body, bch := copyProp(n.Body, copyMap)
		return &ir.Let{Identifier: n.Identifier, Value: val, Body: body, Ty: n.Ty, P: n.P}, vch || bch
	case *ir.Conditional:
		cond, cch := copyProp(n.Condition, copyMap)
		tval, tch := copyProp(n.ValueTrue, copyMap)
		fval, fch := copyProp(n.ValueFalse, copyMap)
		return &ir.Conditional{Condition: cond, ValueTrue: tval, ValueFalse: fval, Ty: n.Ty, P: n.P}, cch || tch || fch
	default:
		return e, false
	}
}
