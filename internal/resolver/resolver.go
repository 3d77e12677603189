// Package resolver turns a parsed mechanism into fully type-checked
// resolved IR: every name is bound to exactly one declaration, every
// unit expression has become a normalized quantity type, and every
// node carries its checked types.Type (spec.md section 4.1).
package resolver

import (
	"fmt"

	"github.com/arblang/arblangc/internal/ast"
	"github.com/arblang/arblangc/internal/cerr"
	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/lexer"
	"github.com/arblang/arblangc/internal/types"
	"github.com/arblang/arblangc/internal/units"
)

// Resolver holds the file name and source text used to attach source
// spans to the errors it reports.
type Resolver struct {
	file string
	src  string
}

// New creates a Resolver for error-reporting purposes only; all of its
// state lives in the scope maps threaded explicitly through Resolve.
func New(file, src string) *Resolver {
	return &Resolver{file: file, src: src}
}

func (r *Resolver) errf(pos lexer.Position, kind cerr.Kind, format string, args ...any) *cerr.Error {
	return cerr.New(kind, cerr.Position{Line: pos.Line, Column: pos.Column}, r.file, fmt.Sprintf(format, args...)).WithSource(r.src)
}

// ResolveMechanism resolves a complete parsed mechanism, in the fixed
// order: record aliases, then constants, parameters, bindings, states,
// then functions, then the API hooks (initial/evolve/effect/export).
func (r *Resolver) ResolveMechanism(m *ast.Mechanism) (*ir.Mechanism, error) {
	scope := ir.NewInScopeMap()
	out := &ir.Mechanism{Name: m.Name, Kind: ir.MechanismKind(m.Kind), P: m.P}

	for _, ra := range m.RecordAliases {
		rt, err := r.resolveTypeExprList(ra.Fields, scope.Aliases)
		if err != nil {
			return nil, err
		}
		if _, dup := scope.Aliases[ra.Name]; dup {
			return nil, r.errf(ra.P, cerr.DuplicateDefinition, "record alias %q already defined", ra.Name)
		}
		scope.Aliases[ra.Name] = rt
		out.RecordAliases = append(out.RecordAliases, &ir.RecordAlias{Name: ra.Name, Ty: rt, P: ra.P})
		if dt, ok := types.Derivative(rt); ok {
			if _, taken := scope.Aliases[ra.Name+"'"]; !taken {
				scope.Aliases[ra.Name+"'"] = dt
			}
		}
	}

	for _, c := range m.Constants {
		val, err := r.resolveExpr(c.Value, scope, false, false)
		if err != nil {
			return nil, err
		}
		ct := val.Type()
		if c.Type != nil {
			want, err := r.resolveTypeExpr(*c.Type, scope.Aliases)
			if err != nil {
				return nil, err
			}
			if !want.Equal(ct) {
				return nil, r.errf(c.P, cerr.TypeMismatch, "type mismatch between %s and %s", want, ct)
			}
		}
		if err := checkDup(r, c.Name, c.P, scope); err != nil {
			return nil, err
		}
		rc := &ir.Constant{Name: c.Name, Value: val, Ty: ct, P: c.P}
		out.Constants = append(out.Constants, rc)
		scope.Consts[c.Name] = rc
	}

	for _, p := range m.Parameters {
		val, err := r.resolveExpr(p.Value, scope, false, false)
		if err != nil {
			return nil, err
		}
		pt := val.Type()
		if p.Type != nil {
			want, err := r.resolveTypeExpr(*p.Type, scope.Aliases)
			if err != nil {
				return nil, err
			}
			if !want.Equal(pt) {
				return nil, r.errf(p.P, cerr.TypeMismatch, "type mismatch between %s and %s", want, pt)
			}
		}
		if err := checkDup(r, p.Name, p.P, scope); err != nil {
			return nil, err
		}
		rp := &ir.Parameter{Name: p.Name, Value: val, Ty: pt, P: p.P}
		out.Parameters = append(out.Parameters, rp)
		scope.Params[p.Name] = rp
	}

	for _, b := range m.Bindings {
		bt, bindable, err := resolveBindableType(r, b)
		if err != nil {
			return nil, err
		}
		if b.Type != nil {
			want, err := r.resolveTypeExpr(*b.Type, scope.Aliases)
			if err != nil {
				return nil, err
			}
			if !want.Equal(bt) {
				return nil, r.errf(b.P, cerr.TypeMismatch, "type mismatch between %s and %s", want, bt)
			}
		}
		if err := checkDup(r, b.Name, b.P, scope); err != nil {
			return nil, err
		}
		rb := &ir.Bind{Name: b.Name, Bind: bindable, Ion: b.Ion, Ty: bt, P: b.P}
		out.Bindings = append(out.Bindings, rb)
		scope.Binds[b.Name] = rb
	}

	for _, s := range m.States {
		st, err := r.resolveTypeExpr(s.Type, scope.Aliases)
		if err != nil {
			return nil, err
		}
		if err := checkDup(r, s.Name, s.P, scope); err != nil {
			return nil, err
		}
		rs := &ir.State{Name: s.Name, Ty: st, P: s.P}
		out.States = append(out.States, rs)
		scope.States[s.Name] = rs
	}

	for _, f := range m.Functions {
		if _, dup := scope.Funcs[f.Name]; dup {
			return nil, r.errf(f.P, cerr.DuplicateDefinition, "function %q already defined", f.Name)
		}
		local := scope.Clone()
		var args []*ir.Argument
		for _, a := range f.Args {
			at, err := r.resolveTypeExpr(a.Type, scope.Aliases)
			if err != nil {
				return nil, err
			}
			fa := &ir.Argument{Name: a.Name, Ty: at, P: f.P}
			args = append(args, fa)
			local.Locals[a.Name] = fa
		}
		body, err := r.resolveExpr(f.Body, local, false, false)
		if err != nil {
			return nil, err
		}
		ft := body.Type()
		if f.RetType != nil {
			want, err := r.resolveTypeExpr(*f.RetType, scope.Aliases)
			if err != nil {
				return nil, err
			}
			if !want.Equal(ft) {
				return nil, r.errf(f.P, cerr.TypeMismatch, "type mismatch between %s and %s", want, ft)
			}
		}
		rf := &ir.Function{Name: f.Name, Args: args, Body: body, Ty: ft, P: f.P}
		out.Functions = append(out.Functions, rf)
		scope.Funcs[f.Name] = rf
	}

	for _, ini := range m.Initializations {
		st, ok := scope.States[ini.Name]
		if !ok {
			return nil, r.errf(ini.P, cerr.UndefinedIdentifier, "variable %q initialized is not a state variable", ini.Name)
		}
		val, err := r.resolveExpr(ini.Value, scope, false, false)
		if err != nil {
			return nil, err
		}
		if !st.Ty.Equal(val.Type()) {
			return nil, r.errf(ini.P, cerr.TypeMismatch, "type mismatch between %s and %s", st.Ty, val.Type())
		}
		out.Initializations = append(out.Initializations, &ir.Initial{Identifier: &ir.Argument{Name: st.Name, Ty: st.Ty, P: ini.P}, Value: val, Ty: val.Type(), P: ini.P})
	}

	for _, oe := range m.OnEvents {
		if out.Kind != ir.Point {
			return nil, r.errf(oe.P, cerr.UnsupportedMechanismKind, "on_event is only supported in point mechanisms")
		}
		st, ok := scope.States[oe.Name]
		if !ok {
			return nil, r.errf(oe.P, cerr.UndefinedIdentifier, "variable %q updated on event is not a state variable", oe.Name)
		}
		argType, err := r.resolveTypeExpr(oe.Arg.Type, scope.Aliases)
		if err != nil {
			return nil, err
		}
		local := scope.Clone()
		arg := &ir.Argument{Name: oe.Arg.Name, Ty: argType, P: oe.P}
		local.Locals[oe.Arg.Name] = arg
		val, err := r.resolveExpr(oe.Value, local, false, false)
		if err != nil {
			return nil, err
		}
		if !st.Ty.Equal(val.Type()) {
			return nil, r.errf(oe.P, cerr.TypeMismatch, "type mismatch between %s and %s", st.Ty, val.Type())
		}
		out.OnEvents = append(out.OnEvents, &ir.OnEvent{Arg: arg, Identifier: &ir.Argument{Name: st.Name, Ty: st.Ty, P: oe.P}, Value: val, Ty: val.Type(), P: oe.P})
	}

	for _, ev := range m.Evolutions {
		name := ev.Name
		st, ok := scope.States[name]
		if !ok {
			return nil, r.errf(ev.P, cerr.UndefinedIdentifier, "variable %q evolved is not a state variable", name)
		}
		val, err := r.resolveExpr(ev.Value, scope, false, false)
		if err != nil {
			return nil, err
		}
		want, ok := types.Derivative(st.Ty)
		if !ok {
			return nil, r.errf(ev.P, cerr.InvalidDerivative, "state %q has no derivative type", name)
		}
		if !want.Equal(val.Type()) {
			return nil, r.errf(ev.P, cerr.TypeMismatch, "type mismatch between %s and %s", want, val.Type())
		}
		out.Evolutions = append(out.Evolutions, &ir.Evolve{Identifier: &ir.Argument{Name: st.Name, Ty: st.Ty, P: ev.P}, Value: val, Ty: val.Type(), P: ev.P})
	}

	for _, eff := range m.Effects {
		affectable, ft, err := resolveAffectableType(r, eff)
		if err != nil {
			return nil, err
		}
		val, err := r.resolveExpr(eff.Value, scope, false, false)
		if err != nil {
			return nil, err
		}
		if !ft.Equal(val.Type()) {
			return nil, r.errf(eff.P, cerr.TypeMismatch, "type mismatch between %s and %s in effect expression", ft, val.Type())
		}
		out.Effects = append(out.Effects, &ir.Effect{Effect: affectable, Ion: eff.Ion, Value: val, Ty: val.Type(), P: eff.P})
	}

	for _, exp := range m.Exports {
		p, ok := scope.Params[exp.Name]
		if !ok {
			return nil, r.errf(exp.P, cerr.UndefinedIdentifier, "variable %q exported is not a parameter", exp.Name)
		}
		out.Exports = append(out.Exports, &ir.Export{Identifier: &ir.Argument{Name: p.Name, Ty: p.Ty, P: exp.P}, Ty: p.Ty, P: exp.P})
	}

	return out, nil
}

func checkDup(r *Resolver, name string, pos lexer.Position, scope *ir.InScopeMap) error {
	if p, ok := scope.Params[name]; ok {
		return r.errf(pos, cerr.DuplicateDefinition, "duplicate definition, also found at %d:%d", p.P.Line, p.P.Column)
	}
	if c, ok := scope.Consts[name]; ok {
		return r.errf(pos, cerr.DuplicateDefinition, "duplicate constant name, also found at %d:%d", c.P.Line, c.P.Column)
	}
	if b, ok := scope.Binds[name]; ok {
		return r.errf(pos, cerr.DuplicateDefinition, "duplicate binding name, also found at %d:%d", b.P.Line, b.P.Column)
	}
	if s, ok := scope.States[name]; ok {
		return r.errf(pos, cerr.DuplicateDefinition, "duplicate state name, also found at %d:%d", s.P.Line, s.P.Column)
	}
	return nil
}

func (r *Resolver) resolveTypeExprList(fields []ast.RecordField, aliases map[string]types.Type) (types.Record, error) {
	var out types.Record
	for _, f := range fields {
		ft, err := r.resolveTypeExpr(f.Type, aliases)
		if err != nil {
			return types.Record{}, err
		}
		out.Fields = append(out.Fields, types.Field{Name: f.Name, Type: ft})
	}
	return out, nil
}

// resolveTypeExpr turns a parsed type annotation into a checked types.Type.
func (r *Resolver) resolveTypeExpr(t ast.TypeExpr, aliases map[string]types.Type) (types.Type, error) {
	switch t.Kind {
	case ast.TypeBool:
		return types.Boolean{}, nil
	case ast.TypeNamed:
		alias, ok := aliases[t.Text]
		if !ok {
			return nil, r.errf(t.P, cerr.UndefinedIdentifier, "undefined record %q", t.Text)
		}
		return alias, nil
	case ast.TypeUnit:
		if t.Text == "" {
			return types.Real(), nil
		}
		parsed, err := units.Parse(t.Text)
		if err != nil {
			if suggestion := suggestUnit(t.Text); suggestion != "" {
				return nil, r.errf(t.P, cerr.InvalidUnit, "invalid unit %q: %s (did you mean a symbol matching %q?)", t.Text, err, suggestion)
			}
			return nil, r.errf(t.P, cerr.InvalidUnit, "invalid unit %q: %s", t.Text, err)
		}
		return parsed.Quantity, nil
	default:
		return nil, cerr.Internal("resolver", "unhandled type expression kind")
	}
}

var bindableType = map[string]types.Quantity{
	"membrane_potential":     types.Voltage,
	"temperature":            types.KelvinTemperature,
	"current_density":        types.CurrentDensity,
	"molar_flux":             types.MolarFlux,
	"charge":                 types.Charge,
	"internal_concentration": types.Concentration,
	"external_concentration": types.Concentration,
	"nernst_potential":       types.Voltage,
}

func resolveBindableType(r *Resolver, b *ast.Bind) (types.Type, ir.Bindable, error) {
	qt, ok := bindableType[b.Bindable]
	if !ok {
		return nil, "", r.errf(b.P, cerr.UnsupportedBindable, "unsupported bindable %q", b.Bindable)
	}
	return qt, ir.Bindable(b.Bindable), nil
}

var affectableType = map[string]types.Quantity{
	"molar_flux":                  types.MolarFlux,
	"molar_flow_rate":             types.MolarFlowRate,
	"current_density":             types.CurrentDensity,
	"current":                     types.Current_,
	"internal_concentration_rate": types.ConcentrationRate,
	"external_concentration_rate": types.ConcentrationRate,
}

func resolveAffectableType(r *Resolver, e *ast.Effect) (ir.Affectable, types.Type, error) {
	qt, ok := affectableType[e.Affectable]
	if !ok {
		return "", nil, r.errf(e.P, cerr.UnsupportedAffectable, "unsupported affectable %q", e.Affectable)
	}
	return ir.Affectable(e.Affectable), qt, nil
}

// resolveExpr resolves a parsed expression to a resolved IR node given
// the current scope. allowRecord/allowBool gate nothing by themselves;
// they exist purely so call sites read naturally (reserved for future
// context-sensitive checks the way the original threads extra flags
// through its recursive resolve calls).
func (r *Resolver) resolveExpr(e ast.Expr, scope *ir.InScopeMap, allowRecord, allowBool bool) (ir.Expr, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return r.resolveIdent(n, scope)
	case *ast.IntLit:
		qt, err := r.unitType(n.Unit, n.P, scope.Aliases)
		if err != nil {
			return nil, err
		}
		return &ir.Int{Value: n.Value, Ty: qt, P: n.P}, nil
	case *ast.FloatLit:
		qt, err := r.unitType(n.Unit, n.P, scope.Aliases)
		if err != nil {
			return nil, err
		}
		return &ir.Float{Value: n.Value, Ty: qt, P: n.P}, nil
	case *ast.BoolLit:
		return &ir.Int{Value: boolToInt(n.Value), Ty: types.Boolean{}, P: n.P}, nil
	case *ast.Unary:
		return r.resolveUnary(n, scope)
	case *ast.Binary:
		return r.resolveBinary(n, scope)
	case *ast.Call:
		return r.resolveCall(n, scope)
	case *ast.Object:
		return r.resolveObject(n, scope)
	case *ast.Let:
		return r.resolveLet(n, scope)
	case *ast.With:
		return r.resolveWith(n, scope)
	case *ast.Conditional:
		return r.resolveConditional(n, scope)
	default:
		return nil, cerr.Internal("resolver", fmt.Sprintf("unhandled parsed expression node %T", e))
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (r *Resolver) unitType(unit string, pos lexer.Position, aliases map[string]types.Type) (types.Type, error) {
	if unit == "" {
		return types.Real(), nil
	}
	parsed, err := units.Parse(unit)
	if err != nil {
		if suggestion := suggestUnit(unit); suggestion != "" {
			return nil, r.errf(pos, cerr.InvalidUnit, "invalid unit %q: %s (did you mean a symbol matching %q?)", unit, err, suggestion)
		}
		return nil, r.errf(pos, cerr.InvalidUnit, "invalid unit %q: %s", unit, err)
	}
	return parsed.Quantity, nil
}

// unitRegistry backs unitType's error-path unit suggestions.
var unitRegistry = units.NewRegistry()

// suggestUnit returns a glob pattern built from unit's first character
// that names at least one recognized base symbol, or "" if none match;
// used only to make an invalid-unit error more actionable.
func suggestUnit(unit string) string {
	if unit == "" {
		return ""
	}
	pattern := string(unit[0]) + "*"
	if len(unitRegistry.Lookup(pattern)) > 0 {
		return pattern
	}
	return ""
}

// resolveIdent looks up a bare name and returns a reference to it. A
// local (function argument, record field, let-bound name) is already an
// *ir.Argument and is returned as-is. A reference to a top-level
// parameter, constant, bind, or state is rendered as a fresh
// *ir.Argument naming it, the same bare-name-reference shape the source
// gives every resolved_argument regardless of what declares the name —
// the declaration itself keeps the full resolved_parameter/
// resolved_constant/resolved_bind/resolved_state node, but a use site
// never carries that node's value along with it.
func (r *Resolver) resolveIdent(n *ast.Ident, scope *ir.InScopeMap) (ir.Expr, error) {
	if v, ok := scope.Locals[n.Name]; ok {
		return v, nil
	}
	if v, ok := scope.Params[n.Name]; ok {
		return &ir.Argument{Name: v.Name, Ty: v.Ty, P: n.P}, nil
	}
	if v, ok := scope.Consts[n.Name]; ok {
		return &ir.Argument{Name: v.Name, Ty: v.Ty, P: n.P}, nil
	}
	if v, ok := scope.Binds[n.Name]; ok {
		return &ir.Argument{Name: v.Name, Ty: v.Ty, P: n.P}, nil
	}
	if v, ok := scope.States[n.Name]; ok {
		return &ir.Argument{Name: v.Name, Ty: v.Ty, P: n.P}, nil
	}
	return nil, r.errf(n.P, cerr.UndefinedIdentifier, "undefined identifier %q", n.Name)
}

var mathOpOf = map[string]ir.UnaryOp{
	"exp": ir.OpExp, "log": ir.OpLog, "cos": ir.OpCos, "sin": ir.OpSin,
	"abs": ir.OpAbs, "exprelr": ir.OpExprelr, "lnot": ir.OpLnot, "neg": ir.OpNeg,
}

func (r *Resolver) resolveUnary(n *ast.Unary, scope *ir.InScopeMap) (ir.Expr, error) {
	val, err := r.resolveExpr(n.Arg, scope, false, false)
	if err != nil {
		return nil, err
	}
	op, ok := mathOpOf[n.Op]
	if !ok {
		return nil, cerr.Internal("resolver", "unhandled unary operator "+n.Op)
	}
	t := val.Type()
	switch op {
	case ir.OpExp, ir.OpLog, ir.OpCos, ir.OpSin, ir.OpExprelr, ir.OpAbs:
		q, ok := t.(types.Quantity)
		if !ok || !q.IsReal() {
			return nil, r.errf(n.P, cerr.TypeMismatch, "cannot apply %s to non-real type", n.Op)
		}
	case ir.OpLnot:
		if _, ok := t.(types.Boolean); !ok {
			return nil, r.errf(n.P, cerr.TypeMismatch, "cannot apply %s to non-boolean type", n.Op)
		}
	case ir.OpNeg:
		if _, ok := t.(types.Record); ok {
			return nil, r.errf(n.P, cerr.TypeMismatch, "cannot apply %s to record type", n.Op)
		}
	}
	return &ir.Unary{Op: op, Arg: val, Ty: t, P: n.P}, nil
}

var binOpOf = map[string]ir.BinaryOp{
	"+": ir.OpAdd, "-": ir.OpSub, "*": ir.OpMul, "/": ir.OpDiv, "^": ir.OpPow,
	"<": ir.OpLt, "<=": ir.OpLe, ">": ir.OpGt, ">=": ir.OpGe, "==": ir.OpEq, "!=": ir.OpNe,
	"and": ir.OpLand, "or": ir.OpLor, "min": ir.OpMin, "max": ir.OpMax,
}

func (r *Resolver) resolveBinary(n *ast.Binary, scope *ir.InScopeMap) (ir.Expr, error) {
	lhs, err := r.resolveExpr(n.Lhs, scope, true, false)
	if err != nil {
		return nil, err
	}
	if n.Op == "." {
		rec, ok := lhs.Type().(types.Record)
		if !ok {
			return nil, r.errf(n.P, cerr.NotARecord, "lhs of field access does not have a record type")
		}
		rhsIdent, ok := n.Rhs.(*ast.Ident)
		if !ok {
			return nil, r.errf(n.P, cerr.UnknownField, "incompatible argument to dot operator")
		}
		ft, ok := rec.FieldType(rhsIdent.Name)
		if !ok {
			return nil, r.errf(n.P, cerr.UnknownField, "field %q does not match any record field", rhsIdent.Name)
		}
		return &ir.Binary{Op: ir.OpDot, Lhs: lhs, Rhs: &ir.Argument{Name: rhsIdent.Name, Ty: ft, P: rhsIdent.P}, Ty: ft, P: n.P}, nil
	}

	rhs, err := r.resolveExpr(n.Rhs, scope, false, false)
	if err != nil {
		return nil, err
	}
	lt, rt := lhs.Type(), rhs.Type()
	if _, ok := lt.(types.Record); ok {
		return nil, r.errf(n.P, cerr.TypeMismatch, "cannot apply op %s to record type", n.Op)
	}
	if _, ok := rt.(types.Record); ok {
		return nil, r.errf(n.P, cerr.TypeMismatch, "cannot apply op %s to record type", n.Op)
	}
	_, lBool := lt.(types.Boolean)
	_, rBool := rt.(types.Boolean)
	if lBool != rBool {
		return nil, r.errf(n.P, cerr.TypeMismatch, "incompatible argument types to op %s", n.Op)
	}

	op, ok := binOpOf[n.Op]
	if !ok {
		return nil, cerr.Internal("resolver", "unhandled binary operator "+n.Op)
	}
	lq, lIsQ := lt.(types.Quantity)
	rq, rIsQ := rt.(types.Quantity)

	switch op {
	case ir.OpMin, ir.OpMax, ir.OpAdd, ir.OpSub:
		if lIsQ && rIsQ && lq.Equal(rq) {
			return &ir.Binary{Op: op, Lhs: lhs, Rhs: rhs, Ty: lt, P: n.P}, nil
		}
		return nil, r.errf(n.P, cerr.TypeMismatch, "incompatible argument types to op %s", n.Op)
	case ir.OpMul:
		if lIsQ && rIsQ {
			return &ir.Binary{Op: op, Lhs: lhs, Rhs: rhs, Ty: lq.Mul(rq), P: n.P}, nil
		}
		return nil, r.errf(n.P, cerr.TypeMismatch, "incompatible argument types to op %s", n.Op)
	case ir.OpDiv:
		if lIsQ && rIsQ {
			return &ir.Binary{Op: op, Lhs: lhs, Rhs: rhs, Ty: lq.Div(rq), P: n.P}, nil
		}
		return nil, r.errf(n.P, cerr.TypeMismatch, "incompatible argument types to op %s", n.Op)
	case ir.OpPow:
		if !rIsQ || !rq.IsReal() {
			return nil, r.errf(n.P, cerr.TypeMismatch, "incompatible rhs argument type to op %s", n.Op)
		}
		if !lIsQ {
			return nil, r.errf(n.P, cerr.TypeMismatch, "incompatible lhs argument type to op %s", n.Op)
		}
		if lq.IsReal() {
			return &ir.Binary{Op: op, Lhs: lhs, Rhs: rhs, Ty: types.Real(), P: n.P}, nil
		}
		rhsInt, ok := rhs.(*ir.Int)
		if !ok {
			return nil, r.errf(n.P, cerr.TypeMismatch, "incompatible argument types to op %s: exponent must be an integer literal", n.Op)
		}
		return &ir.Binary{Op: op, Lhs: lhs, Rhs: rhs, Ty: lq.Pow(int(rhsInt.Value)), P: n.P}, nil
	case ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe, ir.OpEq, ir.OpNe:
		if lIsQ && rIsQ && lq.Equal(rq) {
			return &ir.Binary{Op: op, Lhs: lhs, Rhs: rhs, Ty: types.Boolean{}, P: n.P}, nil
		}
		return nil, r.errf(n.P, cerr.TypeMismatch, "incompatible argument types to op %s", n.Op)
	case ir.OpLand, ir.OpLor:
		if lIsQ && rIsQ && !lq.Equal(rq) {
			return nil, r.errf(n.P, cerr.TypeMismatch, "incompatible argument types to op %s", n.Op)
		}
		return &ir.Binary{Op: op, Lhs: lhs, Rhs: rhs, Ty: types.Boolean{}, P: n.P}, nil
	default:
		return nil, cerr.Internal("resolver", "unhandled operator "+n.Op)
	}
}

func (r *Resolver) resolveCall(n *ast.Call, scope *ir.InScopeMap) (ir.Expr, error) {
	fn, ok := scope.Funcs[n.Func]
	if !ok {
		return nil, r.errf(n.P, cerr.UndefinedFunction, "function %q is not defined", n.Func)
	}
	if len(fn.Args) != len(n.Args) {
		return nil, r.errf(n.P, cerr.ArityMismatch, "argument count mismatch calling function %q", n.Func)
	}
	args := make([]ir.Expr, len(n.Args))
	for i, a := range n.Args {
		av, err := r.resolveExpr(a, scope, false, false)
		if err != nil {
			return nil, err
		}
		if !fn.Args[i].Ty.Equal(av.Type()) {
			return nil, r.errf(n.P, cerr.TypeMismatch, "type mismatch of argument %d of call to %q", i, n.Func)
		}
		args[i] = av
	}
	return &ir.Call{FuncName: n.Func, Args: args, Ty: fn.Ty, P: n.P}, nil
}

func (r *Resolver) resolveObject(n *ast.Object, scope *ir.InScopeMap) (ir.Expr, error) {
	obj := &ir.Object{RecordName: n.RecordName, P: n.P}
	var rt types.Record
	for _, f := range n.Fields {
		val, err := r.resolveExpr(f.Value, scope, false, false)
		if err != nil {
			return nil, err
		}
		if f.Type != nil {
			want, err := r.resolveTypeExpr(*f.Type, scope.Aliases)
			if err != nil {
				return nil, err
			}
			if !want.Equal(val.Type()) {
				return nil, r.errf(f.P, cerr.TypeMismatch, "type mismatch between %s and %s", want, val.Type())
			}
		}
		obj.Fields = append(obj.Fields, &ir.Variable{Name: f.Name, Value: val, Ty: val.Type(), P: f.P})
		rt.Fields = append(rt.Fields, types.Field{Name: f.Name, Type: val.Type()})
	}
	obj.Ty = rt
	if n.RecordName != "" {
		alias, ok := scope.Aliases[n.RecordName]
		if !ok {
			return nil, r.errf(n.P, cerr.UndefinedIdentifier, "record %q is not defined", n.RecordName)
		}
		if !alias.Equal(rt) {
			return nil, r.errf(n.P, cerr.TypeMismatch, "type mismatch between %s and %s constructing object %q", alias, rt, n.RecordName)
		}
	}
	return obj, nil
}

func (r *Resolver) resolveLet(n *ast.Let, scope *ir.InScopeMap) (ir.Expr, error) {
	if err := checkDup(r, n.Name, n.P, scope); err != nil {
		return nil, err
	}
	val, err := r.resolveExpr(n.Value, scope, false, false)
	if err != nil {
		return nil, err
	}
	if n.Type != nil {
		want, err := r.resolveTypeExpr(*n.Type, scope.Aliases)
		if err != nil {
			return nil, err
		}
		if !want.Equal(val.Type()) {
			return nil, r.errf(n.P, cerr.TypeMismatch, "type mismatch between %s and %s", want, val.Type())
		}
	}
	v := &ir.Variable{Name: n.Name, Value: val, Ty: val.Type(), P: n.P}
	inner := scope.Clone()
	inner.Locals[n.Name] = v

	body, err := r.resolveExpr(n.Body, inner, false, false)
	if err != nil {
		return nil, err
	}
	return &ir.Let{Identifier: v, Value: val, Body: body, Ty: body.Type(), P: n.P}, nil
}

// resolveWith desugars "with value { body }" into nested field-access
// let-bindings, one per field of value's record type, before resolving.
func (r *Resolver) resolveWith(n *ast.With, scope *ir.InScopeMap) (ir.Expr, error) {
	val, err := r.resolveExpr(n.Value, scope, true, false)
	if err != nil {
		return nil, err
	}
	rec, ok := val.Type().(types.Record)
	if !ok {
		return nil, r.errf(n.P, cerr.NotARecord, "with value is not a record type")
	}
	if len(rec.Fields) == 0 {
		return r.resolveExpr(n.Body, scope, false, false)
	}
	return r.resolveWithChain(val, rec.Fields, 0, scope, n)
}

// resolveWithChain builds the i'th link of the let-chain desugaring one
// record field at a time, resolving the with-body once every field has
// been bound.
func (r *Resolver) resolveWithChain(recVal ir.Expr, fields []types.Field, i int, scope *ir.InScopeMap, n *ast.With) (ir.Expr, error) {
	if i >= len(fields) {
		return r.resolveExpr(n.Body, scope, false, false)
	}
	field := fields[i]
	fieldVal := &ir.Binary{Op: ir.OpDot, Lhs: recVal, Rhs: &ir.Argument{Name: field.Name, Ty: field.Type, P: n.P}, Ty: field.Type, P: n.P}
	v := &ir.Variable{Name: field.Name, Value: fieldVal, Ty: field.Type, P: n.P}
	inner := scope.Clone()
	inner.Locals[field.Name] = v

	body, err := r.resolveWithChain(recVal, fields, i+1, inner, n)
	if err != nil {
		return nil, err
	}
	return &ir.Let{Identifier: v, Value: fieldVal, Body: body, Ty: body.Type(), P: n.P}, nil
}

func (r *Resolver) resolveConditional(n *ast.Conditional, scope *ir.InScopeMap) (ir.Expr, error) {
	cond, err := r.resolveExpr(n.Cond, scope, false, false)
	if err != nil {
		return nil, err
	}
	tv, err := r.resolveExpr(n.True, scope, false, false)
	if err != nil {
		return nil, err
	}
	fv, err := r.resolveExpr(n.False, scope, false, false)
	if err != nil {
		return nil, err
	}
	if !tv.Type().Equal(fv.Type()) {
		return nil, r.errf(n.P, cerr.TypeMismatch, "type mismatch %s and %s between conditional branches", tv.Type(), fv.Type())
	}
	return &ir.Conditional{Condition: cond, ValueTrue: tv, ValueFalse: fv, Ty: tv.Type(), P: n.P}, nil
}
