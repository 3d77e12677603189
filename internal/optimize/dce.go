package optimize

import "github.com/arblang/arblangc/internal/ir"

// eliminateDeadCode drops let-bindings whose variable is never read,
// ported from eliminate_dead_code.cpp. A top-level constant/parameter/
// binding/state whose whole declaration goes unread by every
// initialization, on_event, evolution, effect, and function body is dropped
// entirely, mirroring the original's dead_param bookkeeping.
func eliminateDeadCode(m *ir.Mechanism) (*ir.Mechanism, bool) {
	deadParam := map[string]bool{}
	for _, c := range m.Constants {
		deadParam[c.Name] = true
	}
	for _, p := range m.Parameters {
		deadParam[p.Name] = true
	}
	for _, b := range m.Bindings {
		deadParam[b.Name] = true
	}
	for _, s := range m.States {
		deadParam[s.Name] = true
	}
	for _, f := range m.Functions {
		findUsed(f.Body, deadParam)
	}
	for _, ini := range m.Initializations {
		findUsed(ini.Value, deadParam)
	}
	for _, oe := range m.OnEvents {
		findUsed(oe.Value, deadParam)
	}
	for _, ev := range m.Evolutions {
		findUsed(ev.Value, deadParam)
	}
	for _, eff := range m.Effects {
		findUsed(eff.Value, deadParam)
	}

	out := &ir.Mechanism{Name: m.Name, Kind: m.Kind, P: m.P, RecordAliases: m.RecordAliases}
	changed := false

	for _, c := range m.Constants {
		if deadParam[c.Name] {
			changed = true
			continue
		}
		dead := map[string]bool{}
		findUsed(c.Value, dead)
		val := c.Value
		if len(dead) > 0 {
			val = removeDead(c.Value, dead)
			changed = true
		}
		out.Constants = append(out.Constants, &ir.Constant{Name: c.Name, Value: val, Ty: c.Ty, P: c.P})
	}
	for _, p := range m.Parameters {
		if deadParam[p.Name] {
			changed = true
			continue
		}
		dead := map[string]bool{}
		findUsed(p.Value, dead)
		val := p.Value
		if len(dead) > 0 {
			val = removeDead(p.Value, dead)
			changed = true
		}
		out.Parameters = append(out.Parameters, &ir.Parameter{Name: p.Name, Value: val, Ty: p.Ty, P: p.P})
	}
	for _, b := range m.Bindings {
		if deadParam[b.Name] {
			changed = true
			continue
		}
		out.Bindings = append(out.Bindings, b)
	}
	for _, s := range m.States {
		if deadParam[s.Name] {
			changed = true
			continue
		}
		out.States = append(out.States, s)
	}
	for _, f := range m.Functions {
		dead := map[string]bool{}
		findUsed(f.Body, dead)
		body := f.Body
		if len(dead) > 0 {
			body = removeDead(f.Body, dead)
			changed = true
		}
		out.Functions = append(out.Functions, &ir.Function{Name: f.Name, Args: f.Args, Body: body, Ty: f.Ty, P: f.P})
	}
	for _, ini := range m.Initializations {
		dead := map[string]bool{}
		findUsed(ini.Value, dead)
		val := ini.Value
		if len(dead) > 0 {
			val = removeDead(ini.Value, dead)
			changed = true
		}
		out.Initializations = append(out.Initializations, &ir.Initial{Identifier: ini.Identifier, Value: val, Ty: ini.Ty, P: ini.P})
	}
	for _, oe := range m.OnEvents {
		dead := map[string]bool{}
		findUsed(oe.Value, dead)
		val := oe.Value
		if len(dead) > 0 {
			val = removeDead(oe.Value, dead)
			changed = true
		}
		out.OnEvents = append(out.OnEvents, &ir.OnEvent{Arg: oe.Arg, Identifier: oe.Identifier, Value: val, Ty: oe.Ty, P: oe.P})
	}
	for _, ev := range m.Evolutions {
		dead := map[string]bool{}
		findUsed(ev.Value, dead)
		val := ev.Value
		if len(dead) > 0 {
			val = removeDead(ev.Value, dead)
			changed = true
		}
		out.Evolutions = append(out.Evolutions, &ir.Evolve{Identifier: ev.Identifier, Value: val, Ty: ev.Ty, P: ev.P})
	}
	for _, eff := range m.Effects {
		dead := map[string]bool{}
		findUsed(eff.Value, dead)
		val := eff.Value
		if len(dead) > 0 {
			val = removeDead(eff.Value, dead)
			changed = true
		}
		out.Effects = append(out.Effects, &ir.Effect{Effect: eff.Effect, Ion: eff.Ion, Value: val, Ty: eff.Ty, P: eff.P})
	}
	for _, exp := range m.Exports {
		out.Exports = append(out.Exports, exp)
	}
	return out, changed
}

// findUsed walks e, seeding candidates with every let-bound name and
// then erasing any name actually read by an Argument/Variable
// reference, so whatever remains at the end was never used.
func findUsed(e ir.Expr, candidates map[string]bool) {
	switch n := e.(type) {
	case *ir.Argument:
		delete(candidates, n.Name)
	case *ir.Variable:
		delete(candidates, n.Name)
	case *ir.Float, *ir.Int:
	case *ir.Unary:
		findUsed(n.Arg, candidates)
	case *ir.Binary:
		findUsed(n.Lhs, candidates)
		if n.Op != ir.OpDot {
			findUsed(n.Rhs, candidates)
		}
	case *ir.Call:
		for _, a := range n.Args {
			findUsed(a, candidates)
		}
	case *ir.Object:
		for _, f := range n.Fields {
			findUsed(f.Value, candidates)
		}
	case *ir.Let:
		candidates[letName(n.Identifier)] = true
		findUsed(n.Value, candidates)
		findUsed(n.Body, candidates)
	case *ir.Conditional:
		findUsed(n.Condition, candidates)
		findUsed(n.ValueTrue, candidates)
		findUsed(n.ValueFalse, candidates)
	}
}

// removeDead drops any let whose bound name is in dead, splicing its
// body up in its place. Everything else passes through unchanged,
// matching the original's pass-through cases for every node but
// resolved_let.
func removeDead(e ir.Expr, dead map[string]bool) ir.Expr {
	l, ok := e.(*ir.Let)
	if !ok {
		return e
	}
	if dead[letName(l.Identifier)] {
		return removeDead(l.Body, dead)
	}
	return &ir.Let{Identifier: l.Identifier, Value: l.Value, Body: removeDead(l.Body, dead), Ty: l.Ty, P: l.P}
}
