// Package ssa renames let-bound variables so that no two bindings in
// the same declaration share a name, a prerequisite for the optimizer
// passes (spec.md section 4.3).
package ssa

import (
	"fmt"

	"github.com/arblang/arblangc/internal/ir"
)

// Renamer rewrites a canonicalized mechanism into single-assignment form.
type Renamer struct{}

// New creates a Renamer.
func New() *Renamer { return &Renamer{} }

const freshPrefix = "r"

type nameSet map[string]bool

func uniqueLocalName(reserved nameSet, prefix string) string {
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s%d_", prefix, i)
		if !reserved[name] {
			reserved[name] = true
			return name
		}
	}
}

// rewrites maps an original let-bound name to the fresh *ir.Variable
// that replaced it, scoped to the declaration currently being renamed.
type rewrites map[string]*ir.Variable

// Rename renames every declaration of m into single-assignment form.
// Declarations that share one simulator-visible entry point (parameters
// with initializations, on_events, evolutions, effects, exports) share
// one reserved-name set so a name introduced in one cannot collide with
// a name introduced in another, exactly like the teacher's grouping of
// passes that live behind the same generated API call.
func (rn *Renamer) Rename(m *ir.Mechanism) *ir.Mechanism {
	globals := nameSet{}
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

	out := &ir.Mechanism{
		Name: m.Name, Kind: m.Kind, P: m.P,
		RecordAliases: m.RecordAliases,
		States:        m.States,
		Bindings:      m.Bindings,
		Exports:       m.Exports,
	}

	cloneGlobals := func() nameSet {
		c := make(nameSet, len(globals))
		for k := range globals {
			c[k] = true
		}
		return c
	}

	for _, c := range m.Constants {
		reserved := cloneGlobals()
		out.Constants = append(out.Constants, &ir.Constant{Name: c.Name, Value: rn.expr(c.Value, reserved, rewrites{}), Ty: c.Ty, P: c.P})
	}
	for _, f := range m.Functions {
		reserved := cloneGlobals()
		out.Functions = append(out.Functions, &ir.Function{Name: f.Name, Args: f.Args, Body: rn.expr(f.Body, reserved, rewrites{}), Ty: f.Ty, P: f.P})
	}

	// Parameters and initializations share one API call's reserved set.
	reserved := cloneGlobals()
	for _, p := range m.Parameters {
		out.Parameters = append(out.Parameters, &ir.Parameter{Name: p.Name, Value: rn.expr(p.Value, reserved, rewrites{}), Ty: p.Ty, P: p.P})
	}
	for _, ini := range m.Initializations {
		out.Initializations = append(out.Initializations, &ir.Initial{Identifier: ini.Identifier, Value: rn.expr(ini.Value, reserved, rewrites{}), Ty: ini.Ty, P: ini.P})
	}

	reserved = cloneGlobals()
	for _, oe := range m.OnEvents {
		out.OnEvents = append(out.OnEvents, &ir.OnEvent{Arg: oe.Arg, Identifier: oe.Identifier, Value: rn.expr(oe.Value, reserved, rewrites{}), Ty: oe.Ty, P: oe.P})
	}

	reserved = cloneGlobals()
	for _, ev := range m.Evolutions {
		out.Evolutions = append(out.Evolutions, &ir.Evolve{Identifier: ev.Identifier, Value: rn.expr(ev.Value, reserved, rewrites{}), Ty: ev.Ty, P: ev.P})
	}

	reserved = cloneGlobals()
	for _, eff := range m.Effects {
		out.Effects = append(out.Effects, &ir.Effect{Effect: eff.Effect, Ion: eff.Ion, Value: rn.expr(eff.Value, reserved, rewrites{}), Ty: eff.Ty, P: eff.P})
	}

	return out
}

// expr renames the let-bound variables within e, tracking the active
// reserved-name set and the rewrite map from original to fresh names.
func (rn *Renamer) expr(e ir.Expr, reserved nameSet, rw rewrites) ir.Expr {
	switch n := e.(type) {
	case *ir.Argument:
		return n
	case *ir.Float, *ir.Int:
		return e
	case *ir.Variable:
		if v, ok := rw[n.Name]; ok {
			return v
		}
		return n
	case *ir.Unary:
		return &ir.Unary{Op: n.Op, Arg: rn.expr(n.Arg, reserved, rw), Ty: n.Ty, P: n.P}
	case *ir.Binary:
		return &ir.Binary{Op: n.Op, Lhs: rn.expr(n.Lhs, reserved, rw), Rhs: rn.expr(n.Rhs, reserved, rw), Ty: n.Ty, P: n.P}
	case *ir.Call:
		args := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = rn.expr(a, reserved, rw)
		}
		return &ir.Call{FuncName: n.FuncName, Args: args, Ty: n.Ty, P: n.P}
	case *ir.Object:
		fields := make([]*ir.Variable, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = &ir.Variable{Name: f.Name, Value: rn.expr(f.Value, reserved, rw), Ty: f.Ty, P: f.P}
		}
		return &ir.Object{RecordName: n.RecordName, Fields: fields, Ty: n.Ty, P: n.P}
	case *ir.Let:
		v, ok := n.Identifier.(*ir.Variable)
		if !ok {
			return &ir.Let{Identifier: n.Identifier, Value: rn.expr(n.Value, reserved, rw), Body: rn.expr(n.Body, reserved, rw), Ty: n.Ty, P: n.P}
		}
		valSSA := rn.expr(n.Value, reserved, rw)
		name := v.Name
		if reserved[name] {
			name = uniqueLocalName(reserved, freshPrefix)
		} else {
			reserved[name] = true
		}
		varSSA := &ir.Variable{Name: name, Value: valSSA, Ty: valSSA.Type(), P: v.P}
		rw[v.Name] = varSSA
		bodySSA := rn.expr(n.Body, reserved, rw)
		return &ir.Let{Identifier: varSSA, Value: valSSA, Body: bodySSA, Ty: n.Ty, P: n.P}
	case *ir.Conditional:
		return &ir.Conditional{
			Condition:  rn.expr(n.Condition, reserved, rw),
			ValueTrue:  rn.expr(n.ValueTrue, reserved, rw),
			ValueFalse: rn.expr(n.ValueFalse, reserved, rw),
			Ty:         n.Ty, P: n.P,
		}
	default:
		return e
	}
}
