package optimize

import (
	"math"

	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/types"
)

// foldConstants evaluates every subexpression it can reduce to a
// literal, and propagates named constants/unexported parameters that
// turned out to be literals into their use sites, exactly the
// constants_map/rewrites/local_constant_map bookkeeping the teacher
// keeps per declaration.
func foldConstants(m *ir.Mechanism) (*ir.Mechanism, bool) {
	constantsMap := map[string]ir.Expr{}
	exported := map[string]bool{}
	for _, e := range m.Exports {
		if a, ok := e.Identifier.(*ir.Argument); ok {
			exported[a.Name] = true
		}
	}

	out := &ir.Mechanism{
		Name: m.Name, Kind: m.Kind, P: m.P,
		RecordAliases: m.RecordAliases,
		States:        m.States,
		Bindings:      m.Bindings,
		Exports:       m.Exports,
	}
	changed := false

	for _, c := range m.Constants {
		local := cloneExprMap(constantsMap)
		rewrites := map[string]ir.Expr{}
		val, ch := fold(c.Value, local, rewrites)
		if _, ok := asNumber(val); ok {
			constantsMap[c.Name] = val
		} else {
			out.Constants = append(out.Constants, &ir.Constant{Name: c.Name, Value: val, Ty: c.Ty, P: c.P})
		}
		changed = changed || ch
	}
	for _, p := range m.Parameters {
		local := cloneExprMap(constantsMap)
		rewrites := map[string]ir.Expr{}
		val, ch := fold(p.Value, local, rewrites)
		if _, ok := asNumber(val); ok && !exported[p.Name] {
			constantsMap[p.Name] = val
		} else {
			out.Parameters = append(out.Parameters, &ir.Parameter{Name: p.Name, Value: val, Ty: p.Ty, P: p.P})
		}
		changed = changed || ch
	}
	for _, f := range m.Functions {
		local := cloneExprMap(constantsMap)
		val, ch := fold(f.Body, local, map[string]ir.Expr{})
		out.Functions = append(out.Functions, &ir.Function{Name: f.Name, Args: f.Args, Body: val, Ty: f.Ty, P: f.P})
		changed = changed || ch
	}
	for _, ini := range m.Initializations {
		local := cloneExprMap(constantsMap)
		val, ch := fold(ini.Value, local, map[string]ir.Expr{})
		out.Initializations = append(out.Initializations, &ir.Initial{Identifier: ini.Identifier, Value: val, Ty: ini.Ty, P: ini.P})
		changed = changed || ch
	}
	for _, oe := range m.OnEvents {
		local := cloneExprMap(constantsMap)
		val, ch := fold(oe.Value, local, map[string]ir.Expr{})
		out.OnEvents = append(out.OnEvents, &ir.OnEvent{Arg: oe.Arg, Identifier: oe.Identifier, Value: val, Ty: oe.Ty, P: oe.P})
		changed = changed || ch
	}
	for _, ev := range m.Evolutions {
		local := cloneExprMap(constantsMap)
		val, ch := fold(ev.Value, local, map[string]ir.Expr{})
		out.Evolutions = append(out.Evolutions, &ir.Evolve{Identifier: ev.Identifier, Value: val, Ty: ev.Ty, P: ev.P})
		changed = changed || ch
	}
	for _, eff := range m.Effects {
		local := cloneExprMap(constantsMap)
		val, ch := fold(eff.Value, local, map[string]ir.Expr{})
		out.Effects = append(out.Effects, &ir.Effect{Effect: eff.Effect, Ion: eff.Ion, Value: val, Ty: eff.Ty, P: eff.P})
		changed = changed || ch
	}
	return out, changed
}

func cloneExprMap(m map[string]ir.Expr) map[string]ir.Expr {
	c := make(map[string]ir.Expr, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// fold folds e against the constant map (names known to be literal
// constants at this point) and the rewrite map (let-bound names seen
// earlier in this declaration, substituted by resolved_variable in the
// original).
func fold(e ir.Expr, constants, rewrites map[string]ir.Expr) (ir.Expr, bool) {
	switch n := e.(type) {
	case *ir.Argument:
		if v, ok := constants[n.Name]; ok {
			return v, true
		}
		return n, false
	case *ir.Variable:
		if v, ok := constants[n.Name]; ok {
			return v, true
		}
		if v, ok := rewrites[n.Name]; ok {
			return v, false
		}
		return n, false
	case *ir.Float, *ir.Int:
		return e, false
	case *ir.Unary:
		return foldUnary(n, constants, rewrites)
	case *ir.Binary:
		return foldBinary(n, constants, rewrites)
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		changed := false
		for i, a := range n.Args {
			v, ch := fold(a, constants, rewrites)
			args[i] = v
			changed = changed || ch
		}
		return &ir.Call{FuncName: n.FuncName, Args: args, Ty: n.Ty, P: n.P}, changed
	case *ir.Object:
		fields := make([]*ir.Variable, len(n.Fields))
		changed := false
		for i, f := range n.Fields {
			v, ch := fold(f.Value, constants, rewrites)
			fields[i] = &ir.Variable{Name: f.Name, Value: v, Ty: f.Ty, P: f.P}
			changed = changed || ch
		}
		return &ir.Object{RecordName: n.RecordName, Fields: fields, Ty: n.Ty, P: n.P}, changed
	case *ir.Let:
		name := letName(n.Identifier)
		if v, ok := asNumber(n.Value); ok {
			constants[name] = n.Value
			_ = v
		}
		val, changed := fold(n.Value, constants, rewrites)
		varCst := &ir.Variable{Name: name, Value: val, Ty: val.Type(), P: val.Pos()}
		rewrites[name] = varCst
		body, bch := fold(n.Body, constants, rewrites)
		return &ir.Let{Identifier: varCst, Value: val, Body: body, Ty: n.Ty, P: n.P}, changed || bch
	case *ir.Conditional:
		cond, cch := fold(n.Condition, constants, rewrites)
		tval, tch := fold(n.ValueTrue, constants, rewrites)
		fval, fch := fold(n.ValueFalse, constants, rewrites)
		if v, ok := asNumber(cond); ok {
			if v != 0 {
				return tval, true
			}
			return fval, true
		}
		return &ir.Conditional{Condition: cond, ValueTrue: tval, ValueFalse: fval, Ty: n.Ty, P: n.P}, cch || tch || fch
	default:
		return e, false
	}
}

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

func foldUnary(n *ir.Unary, constants, rewrites map[string]ir.Expr) (ir.Expr, bool) {
	arg, changed := fold(n.Arg, constants, rewrites)
	if v, ok := asNumber(arg); ok {
		out, ok := evalUnary(n.Op, v)
		if ok {
			return numberExpr(out, n), true
		}
	}
	return &ir.Unary{Op: n.Op, Arg: arg, Ty: n.Ty, P: n.P}, changed
}

func evalUnary(op ir.UnaryOp, v float64) (float64, bool) {
	switch op {
	case ir.OpExp:
		return math.Exp(v), true
	case ir.OpLog:
		return math.Log(v), true
	case ir.OpCos:
		return math.Cos(v), true
	case ir.OpSin:
		return math.Sin(v), true
	case ir.OpAbs:
		return math.Abs(v), true
	case ir.OpExprelr:
		return v / (math.Log(v) - 1), true
	case ir.OpLnot:
		if v != 0 {
			return 0, true
		}
		return 1, true
	case ir.OpNeg:
		return -v, true
	default:
		return 0, false
	}
}

// foldBinary ports constant_fold.cpp's full rule set: fold when both
// sides are known, and otherwise apply the same zero/one/self-equal
// algebraic simplifications the teacher's table names, including the
// x/c rewrite into x*(1/c) (keeping the same quantity type rule).
func foldBinary(n *ir.Binary, constants, rewrites map[string]ir.Expr) (ir.Expr, bool) {
	if n.Op == ir.OpDot {
		return foldFieldAccess(n, constants, rewrites)
	}

	lhs, lch := fold(n.Lhs, constants, rewrites)
	rhs, rch := fold(n.Rhs, constants, rewrites)
	lv, lok := asNumber(lhs)
	rv, rok := asNumber(rhs)

	if lok && rok {
		if out, ok := evalBinary(n.Op, lv, rv); ok {
			return numberExpr(out, n), true
		}
	} else if lok {
		if e, ok := foldLeftKnown(n, lv, rhs); ok {
			return e, true
		}
	} else if rok {
		if e, ok := foldRightKnown(n, rv, lhs); ok {
			return e, true
		}
		if n.Op == ir.OpDiv && rv != 0 {
			var invTy types.Type = rhs.Type()
			if q, ok := invTy.(types.Quantity); ok {
				invTy = types.Real().Div(q)
			}
			inv := &ir.Float{Value: 1 / rv, Ty: invTy, P: rhs.Pos()}
			return &ir.Binary{Op: ir.OpMul, Lhs: lhs, Rhs: inv, Ty: n.Ty, P: n.P}, true
		}
	} else if exprEqual(lhs, rhs) {
		switch n.Op {
		case ir.OpSub:
			return &ir.Int{Value: 0, Ty: n.Ty, P: n.P}, true
		case ir.OpDiv:
			return &ir.Int{Value: 1, Ty: n.Ty, P: n.P}, true
		case ir.OpLt, ir.OpNe:
			return &ir.Int{Value: 0, Ty: n.Ty, P: n.P}, true
		case ir.OpLe, ir.OpGe, ir.OpEq:
			return &ir.Int{Value: 1, Ty: n.Ty, P: n.P}, true
		case ir.OpGt:
			return &ir.Int{Value: 0, Ty: n.Ty, P: n.P}, true
		case ir.OpMin, ir.OpMax:
			return lhs, true
		}
	}
	return &ir.Binary{Op: n.Op, Lhs: lhs, Rhs: rhs, Ty: n.Ty, P: n.P}, lch || rch
}

func foldLeftKnown(n *ir.Binary, lhs float64, rhs ir.Expr) (ir.Expr, bool) {
	switch {
	case lhs == 0:
		switch n.Op {
		case ir.OpAdd:
			return rhs, true
		case ir.OpSub:
			return &ir.Unary{Op: ir.OpNeg, Arg: rhs, Ty: n.Ty, P: n.P}, true
		case ir.OpMul, ir.OpDiv, ir.OpLand, ir.OpPow:
			return &ir.Int{Value: 0, Ty: n.Ty, P: n.P}, true
		case ir.OpLor:
			return rhs, true
		}
	case lhs == 1:
		switch n.Op {
		case ir.OpLand:
			return rhs, true
		case ir.OpLor, ir.OpPow:
			return &ir.Int{Value: 1, Ty: n.Ty, P: n.P}, true
		}
	}
	return nil, false
}

func foldRightKnown(n *ir.Binary, rhs float64, lhs ir.Expr) (ir.Expr, bool) {
	switch {
	case rhs == 0:
		switch n.Op {
		case ir.OpAdd, ir.OpSub:
			return lhs, true
		case ir.OpMul, ir.OpLand:
			return &ir.Int{Value: 0, Ty: n.Ty, P: n.P}, true
		case ir.OpLor:
			return lhs, true
		case ir.OpPow:
			return &ir.Int{Value: 1, Ty: n.Ty, P: n.P}, true
		}
	case rhs == 1:
		switch n.Op {
		case ir.OpLand:
			return lhs, true
		case ir.OpLor:
			return &ir.Int{Value: 1, Ty: n.Ty, P: n.P}, true
		case ir.OpPow:
			return lhs, true
		}
	}
	// Division by any other non-zero literal is rewritten into a
	// multiplication by foldBinary itself.
	return nil, false
}

func foldFieldAccess(n *ir.Binary, constants, rewrites map[string]ir.Expr) (ir.Expr, bool) {
	obj, changed := fold(n.Lhs, constants, rewrites)
	fieldName := ""
	if a, ok := n.Rhs.(*ir.Argument); ok {
		fieldName = a.Name
	}
	if o, ok := obj.(*ir.Object); ok {
		for _, f := range o.Fields {
			if f.Name == fieldName {
				return f.Value, true
			}
		}
	}
	return &ir.Binary{Op: ir.OpDot, Lhs: obj, Rhs: n.Rhs, Ty: n.Ty, P: n.P}, changed
}

func evalBinary(op ir.BinaryOp, lhs, rhs float64) (float64, bool) {
	switch op {
	case ir.OpAdd:
		return lhs + rhs, true
	case ir.OpSub:
		return lhs - rhs, true
	case ir.OpMul:
		return lhs * rhs, true
	case ir.OpDiv:
		return lhs / rhs, true
	case ir.OpPow:
		return math.Pow(lhs, rhs), true
	case ir.OpLt:
		return boolFloat(lhs < rhs), true
	case ir.OpLe:
		return boolFloat(lhs <= rhs), true
	case ir.OpGt:
		return boolFloat(lhs > rhs), true
	case ir.OpGe:
		return boolFloat(lhs >= rhs), true
	case ir.OpEq:
		return boolFloat(lhs == rhs), true
	case ir.OpNe:
		return boolFloat(lhs != rhs), true
	case ir.OpLand:
		return boolFloat(lhs != 0 && rhs != 0), true
	case ir.OpLor:
		return boolFloat(lhs != 0 || rhs != 0), true
	case ir.OpMin:
		if lhs < rhs {
			return lhs, true
		}
		return rhs, true
	case ir.OpMax:
		if lhs > rhs {
			return lhs, true
		}
		return rhs, true
	default:
		return 0, false
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// exprEqual reports whether two already-folded expressions are
// structurally identical, the substitute for the original's operator==
// over r_expr used by the self-compared-with-self simplifications.
func exprEqual(a, b ir.Expr) bool {
	return exprKey(a) == exprKey(b)
}
