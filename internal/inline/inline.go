// Package inline replaces every user-function call with a copy of
// that function's body, so later passes never need to resolve a call
// site back to a function definition (spec.md section 4.5). Recursion
// is rejected: a function being inlined is removed from the set
// available to its own body, the same guard the teacher's function
// table uses.
package inline

import (
	"fmt"

	"github.com/arblang/arblangc/internal/cerr"
	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/lexer"
)

const freshPrefix = "f"

func errf(pos lexer.Position, kind cerr.Kind, format string, args ...any) *cerr.Error {
	return cerr.New(kind, cerr.Position{Line: pos.Line, Column: pos.Column}, "", fmt.Sprintf(format, args...))
}

type reserved map[string]bool
type rewrites map[string]ir.Expr
type funcTable map[string]*ir.Function

func uniqueLocalName(r reserved, prefix string) string {
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s%d_", prefix, i)
		if !r[name] {
			r[name] = true
			return name
		}
	}
}

// Inliner rewrites calls into their callees' bodies.
type Inliner struct{}

// New creates an Inliner.
func New() *Inliner { return &Inliner{} }

// Inline rewrites every call in m, dropping the function-definition
// list from the output since nothing after this pass can reference a
// function by name anymore.
func (in *Inliner) Inline(m *ir.Mechanism) (*ir.Mechanism, error) {
	globals := reserved{}
	for _, c := range m.Constants {
		globals[c.Name] = true
	}
	for _, p := range m.Parameters {
		globals[p.Name] = true
	}
	for _, b := range m.Bindings {
		globals[b.Name] = true
	}
	for _, s := range m.States {
		globals[s.Name] = true
	}

	avail := funcTable{}
	for _, f := range m.Functions {
		avail[f.Name] = f
	}

	out := &ir.Mechanism{
		Name: m.Name, Kind: m.Kind, P: m.P,
		RecordAliases: m.RecordAliases,
		States:        m.States,
		Bindings:      m.Bindings,
	}

	cloneReserved := func() reserved {
		c := make(reserved, len(globals))
		for k := range globals {
			c[k] = true
		}
		return c
	}

	var err error
	mustExpr := func(e ir.Expr, r reserved, rw rewrites, avail funcTable) ir.Expr {
		if err != nil {
			return e
		}
		v, e2 := in.expr(e, r, rw, avail)
		if e2 != nil {
			err = e2
		}
		return v
	}

	for _, c := range m.Constants {
		val := mustExpr(c.Value, cloneReserved(), rewrites{}, avail)
		out.Constants = append(out.Constants, &ir.Constant{Name: c.Name, Value: val, Ty: c.Ty, P: c.P})
	}
	for _, p := range m.Parameters {
		val := mustExpr(p.Value, cloneReserved(), rewrites{}, avail)
		out.Parameters = append(out.Parameters, &ir.Parameter{Name: p.Name, Value: val, Ty: p.Ty, P: p.P})
	}
	for _, ini := range m.Initializations {
		val := mustExpr(ini.Value, cloneReserved(), rewrites{}, avail)
		out.Initializations = append(out.Initializations, &ir.Initial{Identifier: ini.Identifier, Value: val, Ty: ini.Ty, P: ini.P})
	}
	for _, oe := range m.OnEvents {
		val := mustExpr(oe.Value, cloneReserved(), rewrites{}, avail)
		out.OnEvents = append(out.OnEvents, &ir.OnEvent{Arg: oe.Arg, Identifier: oe.Identifier, Value: val, Ty: oe.Ty, P: oe.P})
	}
	for _, ev := range m.Evolutions {
		val := mustExpr(ev.Value, cloneReserved(), rewrites{}, avail)
		out.Evolutions = append(out.Evolutions, &ir.Evolve{Identifier: ev.Identifier, Value: val, Ty: ev.Ty, P: ev.P})
	}
	for _, eff := range m.Effects {
		val := mustExpr(eff.Value, cloneReserved(), rewrites{}, avail)
		out.Effects = append(out.Effects, &ir.Effect{Effect: eff.Effect, Ion: eff.Ion, Value: val, Ty: eff.Ty, P: eff.P})
	}
	for _, exp := range m.Exports {
		out.Exports = append(out.Exports, exp)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (in *Inliner) expr(e ir.Expr, r reserved, rw rewrites, avail funcTable) (ir.Expr, error) {
	switch n := e.(type) {
	case *ir.Argument:
		if v, ok := rw[n.Name]; ok {
			return v, nil
		}
		return n, nil
	case *ir.Variable:
		if v, ok := rw[n.Name]; ok {
			return v, nil
		}
		return n, nil
	case *ir.Float, *ir.Int:
		return e, nil
	case *ir.Unary:
		arg, err := in.expr(n.Arg, r, rw, avail)
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Op: n.Op, Arg: arg, Ty: n.Ty, P: n.P}, nil
	case *ir.Binary:
		lhs, err := in.expr(n.Lhs, r, rw, avail)
		if err != nil {
			return nil, err
		}
		rhs := n.Rhs
		if n.Op != ir.OpDot {
			rhs, err = in.expr(n.Rhs, r, rw, avail)
			if err != nil {
				return nil, err
			}
		}
		return &ir.Binary{Op: n.Op, Lhs: lhs, Rhs: rhs, Ty: n.Ty, P: n.P}, nil
	case *ir.Object:
		fields := make([]*ir.Variable, len(n.Fields))
		for i, f := range n.Fields {
			v, err := in.expr(f.Value, r, rw, avail)
			if err != nil {
				return nil, err
			}
			fields[i] = &ir.Variable{Name: f.Name, Value: v, Ty: f.Ty, P: f.P}
		}
		return &ir.Object{RecordName: n.RecordName, Fields: fields, Ty: n.Ty, P: n.P}, nil
	case *ir.Let:
		return in.let(n, r, rw, avail)
	case *ir.Conditional:
		cond, err := in.expr(n.Condition, r, rw, avail)
		if err != nil {
			return nil, err
		}
		tval, err := in.expr(n.ValueTrue, r, rw, avail)
		if err != nil {
			return nil, err
		}
		fval, err := in.expr(n.ValueFalse, r, rw, avail)
		if err != nil {
			return nil, err
		}
		return &ir.Conditional{Condition: cond, ValueTrue: tval, ValueFalse: fval, Ty: n.Ty, P: n.P}, nil
	case *ir.Call:
		return in.call(n, r, rw, avail)
	default:
		return e, nil
	}
}

func (in *Inliner) let(n *ir.Let, r reserved, rw rewrites, avail funcTable) (ir.Expr, error) {
	val, err := in.expr(n.Value, r, rw, avail)
	if err != nil {
		return nil, err
	}

	name := letName(n.Identifier)
	if r[name] {
		name = uniqueLocalName(r, freshPrefix)
	} else {
		r[name] = true
	}
	ident := &ir.Variable{Name: name, Value: val, Ty: val.Type(), P: val.Pos()}
	rw[name] = ident

	body, err := in.expr(n.Body, r, rw, avail)
	if err != nil {
		return nil, err
	}
	outer := &ir.Let{Identifier: ident, Value: val, Body: body, Ty: n.Ty, P: n.P}

	if valLet, ok := val.(*ir.Let); ok {
		outer.Value = innermostBody(valLet)
		setInnermostBody(valLet, outer)
		return valLet, nil
	}
	return outer, nil
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

// call inlines a single call site: every call argument is rewritten
// first, then the callee's parameters are bound to those rewritten
// argument expressions, the callee is removed from the available-
// function table to forbid recursion, and the callee's (now inlined)
// body becomes the result.
func (in *Inliner) call(n *ir.Call, r reserved, rw rewrites, avail funcTable) (ir.Expr, error) {
	args := make([]ir.Expr, len(n.Args))
	for i, a := range n.Args {
		v, err := in.expr(a, r, rw, avail)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	fn, ok := avail[n.FuncName]
	if !ok {
		return nil, errf(n.P, cerr.UndefinedFunction, "cannot find function %q called here", n.FuncName)
	}
	if len(fn.Args) != len(args) {
		return nil, errf(n.P, cerr.ArityMismatch, "function %q expects %d arguments, got %d", n.FuncName, len(fn.Args), len(args))
	}

	fRewrites := rewrites{}
	for i, a := range fn.Args {
		fRewrites[a.Name] = args[i]
	}

	fAvail := make(funcTable, len(avail))
	for k, v := range avail {
		fAvail[k] = v
	}
	delete(fAvail, n.FuncName)

	body, err := in.expr(fn.Body, r, fRewrites, fAvail)
	if err != nil {
		return nil, err
	}
	return body, nil
}
