package preprint

import (
	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/types"
)

// StateFieldMap maps a record-typed state's name and field name to the
// single mangled name that stands in for "state.field" once the record
// structure is gone: state s: {m: real; h: real;} produces
// StateFieldMap{"s": {"m": "_s_m", "h": "_s_h"}}. Ported from
// printable_mechanism::gen_state_field_map.
type StateFieldMap map[string]map[string]string

// BuildStateFieldMap generates the mangled-name table for every
// record-typed state in states. Scalar states need no entry.
func BuildStateFieldMap(states []*ir.State) StateFieldMap {
	decoder := StateFieldMap{}
	for _, s := range states {
		rec, ok := s.Ty.(types.Record)
		if !ok {
			continue
		}
		fields := make(map[string]string, len(rec.Fields))
		for _, f := range rec.Fields {
			fields[f.Name] = "_" + s.Name + "_" + f.Name
		}
		decoder[s.Name] = fields
	}
	return decoder
}

// Flatten rewrites every state.field access in e into a bare reference
// to its mangled name, and otherwise walks e unchanged. It is an error
// for a field-access object to be anything but a bare argument naming a
// record-typed state, matching simplify.cpp's resolved_field_access
// case (every other simplify.cpp case is a structural passthrough we
// fold into this single recursive walk instead of one function per
// node kind).
func Flatten(e ir.Expr, sfm StateFieldMap) (ir.Expr, error) {
	switch n := e.(type) {
	case *ir.Float, *ir.Int:
		return e, nil
	case *ir.Argument:
		return n, nil
	case *ir.Variable:
		val, err := Flatten(n.Value, sfm)
		if err != nil {
			return nil, err
		}
		return &ir.Variable{Name: n.Name, Value: val, Ty: n.Ty, P: n.P}, nil
	case *ir.Unary:
		arg, err := Flatten(n.Arg, sfm)
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Op: n.Op, Arg: arg, Ty: n.Ty, P: n.P}, nil
	case *ir.Binary:
		if n.Op == ir.OpDot {
			return flattenFieldAccess(n, sfm)
		}
		lhs, err := Flatten(n.Lhs, sfm)
		if err != nil {
			return nil, err
		}
		rhs, err := Flatten(n.Rhs, sfm)
		if err != nil {
			return nil, err
		}
		return &ir.Binary{Op: n.Op, Lhs: lhs, Rhs: rhs, Ty: n.Ty, P: n.P}, nil
	case *ir.Object:
		fields := make([]*ir.Variable, len(n.Fields))
		for i, f := range n.Fields {
			val, err := Flatten(f.Value, sfm)
			if err != nil {
				return nil, err
			}
			fields[i] = &ir.Variable{Name: f.Name, Value: val, Ty: f.Ty, P: f.P}
		}
		return &ir.Object{RecordName: n.RecordName, Fields: fields, Ty: n.Ty, P: n.P}, nil
	case *ir.Let:
		val, err := Flatten(n.Value, sfm)
		if err != nil {
			return nil, err
		}
		body, err := Flatten(n.Body, sfm)
		if err != nil {
			return nil, err
		}
		return &ir.Let{Identifier: n.Identifier, Value: val, Body: body, Ty: n.Ty, P: n.P}, nil
	case *ir.Conditional:
		cond, err := Flatten(n.Condition, sfm)
		if err != nil {
			return nil, err
		}
		vt, err := Flatten(n.ValueTrue, sfm)
		if err != nil {
			return nil, err
		}
		vf, err := Flatten(n.ValueFalse, sfm)
		if err != nil {
			return nil, err
		}
		return &ir.Conditional{Condition: cond, ValueTrue: vt, ValueFalse: vf, Ty: n.Ty, P: n.P}, nil
	default:
		return e, nil
	}
}

func flattenFieldAccess(n *ir.Binary, sfm StateFieldMap) (ir.Expr, error) {
	obj, ok := n.Lhs.(*ir.Argument)
	if !ok {
		return nil, internalErr("object of a field access must be a resolved argument")
	}
	field, ok := n.Rhs.(*ir.Argument)
	if !ok {
		return nil, internalErr("field of a field access must be a resolved argument")
	}
	fields, ok := sfm[obj.Name]
	if !ok {
		return nil, internalErr("field access object expected to be a state variable")
	}
	mangled, ok := fields[field.Name]
	if !ok {
		return nil, internalErr("field access expected to name a field of its state variable")
	}
	return &ir.Argument{Name: mangled, Ty: n.Ty, P: n.P}, nil
}
