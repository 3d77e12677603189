// Package canon rewrites resolved IR into A-normal form: every
// non-trivial subexpression is bound to a fresh let-variable before
// use, so every compound node's operands are leaves or names
// (spec.md section 4.2).
package canon

import (
	"fmt"

	"github.com/arblang/arblangc/internal/ir"
)

// Canonicalizer rewrites a resolved mechanism into A-normal form.
type Canonicalizer struct {
	prefix string
}

// New creates a Canonicalizer using the default "t" fresh-name prefix.
func New() *Canonicalizer { return &Canonicalizer{prefix: "t"} }

// NewWithPrefix creates a Canonicalizer whose fresh let-bound names use
// prefix instead of "t", for re-canonicalizing a single expression under
// a prefix that can't collide with names already in scope — the same
// role the source's canonicalize(e, "i")/canonicalize(e, "d") overloads
// play when the solver re-canonicalizes a derivative or an effect split.
func NewWithPrefix(prefix string) *Canonicalizer { return &Canonicalizer{prefix: prefix} }

// CanonicalizeExpr rewrites a single expression into A-normal form with
// its own fresh reserved-name set, for callers that need to re-run
// canonicalization outside of a whole-mechanism pass.
func (c *Canonicalizer) CanonicalizeExpr(e ir.Expr) ir.Expr {
	return c.expr(e, reservedNames{})
}

// reservedNames is the per-declaration set of fresh names already
// handed out, reset before each top-level declaration exactly like the
// per-declaration std::unordered_set<std::string> reserved in the
// teacher implementation.
type reservedNames map[string]bool

func uniqueLocalName(reserved reservedNames, prefix string) string {
	if prefix == "" {
		prefix = "t"
	}
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s%d_", prefix, i)
		if !reserved[name] {
			reserved[name] = true
			return name
		}
	}
}

// Canonicalize rewrites every declaration of m into A-normal form, a
// fresh reserved-name set per declaration.
func (c *Canonicalizer) Canonicalize(m *ir.Mechanism) *ir.Mechanism {
	out := &ir.Mechanism{
		Name: m.Name, Kind: m.Kind, P: m.P,
		RecordAliases: m.RecordAliases,
		States:        m.States,
	}
	for _, v := range m.Constants {
		reserved := reservedNames{}
		out.Constants = append(out.Constants, &ir.Constant{Name: v.Name, Value: c.expr(v.Value, reserved), Ty: v.Ty, P: v.P})
	}
	for _, v := range m.Parameters {
		reserved := reservedNames{}
		out.Parameters = append(out.Parameters, &ir.Parameter{Name: v.Name, Value: c.expr(v.Value, reserved), Ty: v.Ty, P: v.P})
	}
	out.Bindings = m.Bindings
	for _, v := range m.Functions {
		reserved := reservedNames{}
		out.Functions = append(out.Functions, &ir.Function{Name: v.Name, Args: v.Args, Body: c.expr(v.Body, reserved), Ty: v.Ty, P: v.P})
	}
	for _, v := range m.Initializations {
		reserved := reservedNames{}
		out.Initializations = append(out.Initializations, &ir.Initial{Identifier: v.Identifier, Value: c.expr(v.Value, reserved), Ty: v.Ty, P: v.P})
	}
	for _, v := range m.OnEvents {
		reserved := reservedNames{}
		out.OnEvents = append(out.OnEvents, &ir.OnEvent{Arg: v.Arg, Identifier: v.Identifier, Value: c.expr(v.Value, reserved), Ty: v.Ty, P: v.P})
	}
	for _, v := range m.Evolutions {
		reserved := reservedNames{}
		out.Evolutions = append(out.Evolutions, &ir.Evolve{Identifier: v.Identifier, Value: c.expr(v.Value, reserved), Ty: v.Ty, P: v.P})
	}
	for _, v := range m.Effects {
		reserved := reservedNames{}
		out.Effects = append(out.Effects, &ir.Effect{Effect: v.Effect, Ion: v.Ion, Value: c.expr(v.Value, reserved), Ty: v.Ty, P: v.P})
	}
	out.Exports = m.Exports
	return out
}

// asLet reports whether e is a *ir.Let, for the same role the
// original's get_let/get_if played.
func asLet(e ir.Expr) (*ir.Let, bool) {
	l, ok := e.(*ir.Let)
	return l, ok
}

// innermostBody walks to the deepest nested let's body.
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

// setInnermostBody rewrites the deepest nested let's body to newBody,
// updating every let's type along the chain to newBody's type.
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

// expr canonicalizes a single expression into A-normal form.
func (c *Canonicalizer) expr(e ir.Expr, reserved reservedNames) ir.Expr {
	switch n := e.(type) {
	case *ir.Argument, *ir.Float, *ir.Int:
		return n
	case *ir.Unary:
		argCanon := c.expr(n.Arg, reserved)
		var outer *ir.Let
		if l, ok := asLet(argCanon); ok {
			outer = l
			argCanon = innermostBody(l)
		}
		unaryCanon := &ir.Unary{Op: n.Op, Arg: argCanon, Ty: n.Ty, P: n.P}
		tmp := &ir.Argument{Name: uniqueLocalName(reserved, c.prefix), Ty: n.Ty, P: n.P}
		wrapper := &ir.Let{Identifier: tmp, Value: unaryCanon, Body: tmp, Ty: n.Ty, P: n.P}
		if outer == nil {
			return wrapper
		}
		setInnermostBody(outer, wrapper)
		return outer
	case *ir.Binary:
		return c.binary(n, reserved)
	case *ir.Call:
		return c.call(n, reserved)
	case *ir.Object:
		return c.object(n, reserved)
	case *ir.Let:
		valCanon := c.expr(n.Value, reserved)
		bodyCanon := c.expr(n.Body, reserved)
		outer := &ir.Let{Identifier: n.Identifier, Value: valCanon, Body: bodyCanon, Ty: n.Ty, P: n.P}
		if l, ok := asLet(valCanon); ok {
			outer.Value = innermostBody(l)
			setInnermostBody(l, outer)
			return l
		}
		return outer
	case *ir.Conditional:
		return c.conditional(n, reserved)
	default:
		return e
	}
}

func (c *Canonicalizer) binary(n *ir.Binary, reserved reservedNames) ir.Expr {
	lhsCanon := c.expr(n.Lhs, reserved)
	rhsCanon := c.expr(n.Rhs, reserved)

	var outer *ir.Let
	if l, ok := asLet(lhsCanon); ok {
		outer = l
		lhsCanon = innermostBody(l)
	}
	if l, ok := asLet(rhsCanon); ok {
		if outer == nil {
			outer = l
		} else {
			setInnermostBody(outer, rhsCanon)
		}
		rhsCanon = innermostBody(l)
	}

	binCanon := &ir.Binary{Op: n.Op, Lhs: lhsCanon, Rhs: rhsCanon, Ty: n.Ty, P: n.P}
	tmp := &ir.Argument{Name: uniqueLocalName(reserved, c.prefix), Ty: n.Ty, P: n.P}
	wrapper := &ir.Let{Identifier: tmp, Value: binCanon, Body: tmp, Ty: n.Ty, P: n.P}
	if outer == nil {
		return wrapper
	}
	setInnermostBody(outer, wrapper)
	return outer
}

func (c *Canonicalizer) call(n *ir.Call, reserved reservedNames) ir.Expr {
	var outer *ir.Let
	args := make([]ir.Expr, len(n.Args))
	for i, a := range n.Args {
		argCanon := c.expr(a, reserved)
		if l, ok := asLet(argCanon); ok {
			args[i] = innermostBody(l)
			if outer == nil {
				outer = l
			} else {
				setInnermostBody(outer, argCanon)
			}
		} else {
			args[i] = argCanon
		}
	}
	callCanon := &ir.Call{FuncName: n.FuncName, Args: args, Ty: n.Ty, P: n.P}
	tmp := &ir.Variable{Name: uniqueLocalName(reserved, c.prefix), Value: callCanon, Ty: n.Ty, P: n.P}
	wrapper := &ir.Let{Identifier: tmp, Value: callCanon, Body: tmp, Ty: n.Ty, P: n.P}
	if outer == nil {
		return wrapper
	}
	setInnermostBody(outer, wrapper)
	return outer
}

func (c *Canonicalizer) object(n *ir.Object, reserved reservedNames) ir.Expr {
	var outer *ir.Let
	values := make([]*ir.Variable, len(n.Fields))
	for i, f := range n.Fields {
		valCanon := c.expr(f.Value, reserved)
		if l, ok := asLet(valCanon); ok {
			values[i] = &ir.Variable{Name: f.Name, Value: innermostBody(l), Ty: f.Ty, P: f.P}
			if outer == nil {
				outer = l
			} else {
				setInnermostBody(outer, valCanon)
			}
		} else {
			values[i] = &ir.Variable{Name: f.Name, Value: valCanon, Ty: f.Ty, P: f.P}
		}
	}
	objCanon := &ir.Object{RecordName: n.RecordName, Fields: values, Ty: n.Ty, P: n.P}
	tmp := &ir.Argument{Name: uniqueLocalName(reserved, c.prefix), Ty: n.Ty, P: n.P}
	wrapper := &ir.Let{Identifier: tmp, Value: objCanon, Body: tmp, Ty: n.Ty, P: n.P}
	if outer == nil {
		return wrapper
	}
	setInnermostBody(outer, wrapper)
	return outer
}

func (c *Canonicalizer) conditional(n *ir.Conditional, reserved reservedNames) ir.Expr {
	condCanon := c.expr(n.Condition, reserved)
	trueCanon := c.expr(n.ValueTrue, reserved)
	falseCanon := c.expr(n.ValueFalse, reserved)

	var outer *ir.Let
	if l, ok := asLet(condCanon); ok {
		outer = l
		condCanon = innermostBody(l)
	}
	if l, ok := asLet(trueCanon); ok {
		if outer == nil {
			outer = l
		} else {
			setInnermostBody(outer, trueCanon)
		}
		trueCanon = innermostBody(l)
	}
	if l, ok := asLet(falseCanon); ok {
		if outer == nil {
			outer = l
		} else {
			setInnermostBody(outer, falseCanon)
		}
		falseCanon = innermostBody(l)
	}

	ifCanon := &ir.Conditional{Condition: condCanon, ValueTrue: trueCanon, ValueFalse: falseCanon, Ty: n.Ty, P: n.P}
	tmp := &ir.Argument{Name: uniqueLocalName(reserved, c.prefix), Ty: n.Ty, P: n.P}
	wrapper := &ir.Let{Identifier: tmp, Value: ifCanon, Body: tmp, Ty: n.Ty, P: n.P}
	if outer == nil {
		return wrapper
	}
	setInnermostBody(outer, wrapper)
	return outer
}
