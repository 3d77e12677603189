package preprint

import (
	"math"

	"github.com/arblang/arblangc/internal/canon"
	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/optimize"
	"github.com/arblang/arblangc/internal/types"
)

// prefix renders the PPACK pointer-array access expression a mangled
// name reads or writes through. The original's own prefix() builder
// lives in an emission-side header not present in the retrieved
// sources; this is a direct, emitter-facing convention rather than a
// literal port.
func prefix(name string) string { return "pp_->" + name + "[i_]" }

// BindSource is one entry of FieldPack.BindSources: a binding's mangled
// name paired with the simulator bindable it reads and, if ion-specific,
// which ion.
type BindSource struct {
	Name string
	Bind ir.Bindable
	Ion  string
}

// ParamSource is one entry of FieldPack.ParamSources: a parameter's
// default literal value (NaN if the parameter is not a plain literal)
// and its rendered quantity type.
type ParamSource struct {
	Name  string
	Value float64
	Type  string
}

// EffectSource is one entry of FieldPack.EffectSources: the mangled
// output name paired with the affectable and ion it ultimately writes.
type EffectSource struct {
	Name   string
	Effect ir.Affectable
	Ion    string
}

// FieldPack lists, per source kind, the mangled names the emitter must
// declare a PPACK pointer field for.
type FieldPack struct {
	StateSources  []string
	BindSources   []BindSource
	ParamSources  []ParamSource
	EffectSources []EffectSource
}

// IonField summarizes one ion's field requirements: whether its valence
// is read, and whether the mechanism writes its internal/external
// concentration.
type IonField struct {
	Ion                   string
	ReadValence           bool
	WriteIntConcentration bool
	WriteExtConcentration bool
}

// ProcedurePack holds the flattened, re-optimized declarations the
// emitter turns into procedure bodies.
type ProcedurePack struct {
	AssignedParameters []*ir.Parameter
	Effects            []*ir.Effect
	Initializations    []*ir.Initial
	Evolutions         []*ir.Evolve
}

// WriteMap records, for one procedure, which PPACK pointer expression
// each emitted local variable is ultimately written back through.
type WriteMap struct {
	StateMap     map[string]string
	ParameterMap map[string]string
	EffectMap    map[string]string
}

func newWriteMap() WriteMap {
	return WriteMap{StateMap: map[string]string{}, ParameterMap: map[string]string{}, EffectMap: map[string]string{}}
}

// ReadMap records, for one procedure, which PPACK pointer expression
// supplies each parameter/binding/state name the procedure reads.
type ReadMap struct {
	ParameterMap map[string]string
	BindingMap   map[string]string
	StateMap     map[string]string
}

func newReadMap() ReadMap {
	return ReadMap{ParameterMap: map[string]string{}, BindingMap: map[string]string{}, StateMap: map[string]string{}}
}

// Mechanism is the pre-printer's output: a checked, flattened,
// pointer-mapped mechanism ready for textual emission. Ported from
// printable_mechanism's constructor.
type Mechanism struct {
	Kind ir.MechanismKind
	Name string

	StateFields StateFieldMap
	PointerMap  map[string][]string
	FieldPack   FieldPack
	IonFields   []IonField

	Procedures ProcedurePack

	InitWriteMap   WriteMap
	EvolveWriteMap WriteMap
	EffectWriteMap WriteMap

	InitReadMap   ReadMap
	EvolveReadMap ReadMap
	EffectReadMap ReadMap
}

// Build runs CheckMechanism and, if it passes, lowers m into a
// Mechanism ready for emission.
func Build(m *ir.Mechanism) (*Mechanism, error) {
	if err := CheckMechanism(m); err != nil {
		return nil, err
	}

	sfm := BuildStateFieldMap(m.States)
	pm := &Mechanism{Kind: m.Kind, Name: m.Name, StateFields: sfm, PointerMap: map[string][]string{}}

	paramSet := map[string]bool{}
	stateSet := map[string]bool{}
	bindSet := map[string]bool{}
	effectSet := map[string]bool{}

	for _, s := range m.States {
		rec, isRecord := s.Ty.(types.Record)
		if !isRecord {
			pm.insertPointer(s.Name)
			pm.FieldPack.StateSources = append(pm.FieldPack.StateSources, s.Name)
			stateSet[s.Name] = true
			continue
		}
		for _, f := range rec.Fields {
			mangled := sfm[s.Name][f.Name]
			pm.insertPointer(mangled)
			pm.FieldPack.StateSources = append(pm.FieldPack.StateSources, mangled)
			stateSet[mangled] = true
		}
	}

	ionIdx := map[string]int{}
	for _, b := range m.Bindings {
		bindName := b.Name
		if b.Ion != "" {
			bindName += "_" + b.Ion
		}
		pm.insertPointer(bindName)
		pm.FieldPack.BindSources = append(pm.FieldPack.BindSources, BindSource{Name: bindName, Bind: b.Bind, Ion: b.Ion})
		bindSet[bindName] = true

		if b.Ion == "" {
			continue
		}
		readsCharge := b.Bind == ir.Charge
		writesIConc := b.Bind == ir.InternalConcentration
		writesEConc := b.Bind == ir.ExternalConcentration
		if idx, ok := ionIdx[b.Ion]; ok {
			if readsCharge {
				pm.IonFields[idx].ReadValence = true
			}
			if writesIConc {
				pm.IonFields[idx].WriteIntConcentration = true
			}
			if writesEConc {
				pm.IonFields[idx].WriteExtConcentration = true
			}
		} else {
			ionIdx[b.Ion] = len(pm.IonFields)
			pm.IonFields = append(pm.IonFields, IonField{Ion: b.Ion, ReadValence: readsCharge,
				WriteIntConcentration: writesIConc, WriteExtConcentration: writesEConc})
		}
	}

	for _, p := range m.Parameters {
		pm.insertPointer(p.Name)
		val := math.NaN()
		switch v := p.Value.(type) {
		case *ir.Int:
			val = float64(v.Value)
		case *ir.Float:
			val = v.Value
		}
		pm.FieldPack.ParamSources = append(pm.FieldPack.ParamSources, ParamSource{Name: p.Name, Value: val, Type: p.Ty.String()})
		paramSet[p.Name] = true
	}

	for _, eff := range m.Effects {
		iEffect, gEffect := ir.AffCurrent, ir.Affectable("conductance")
		if eff.Effect == ir.AffCurrentDensityPair {
			iEffect, gEffect = ir.AffCurrentDensity, ir.Affectable("conductivity")
		}
		iName, gName := "i", "g"
		if !effectSet[iName] {
			pm.insertPointer(iName)
			pm.FieldPack.EffectSources = append(pm.FieldPack.EffectSources, EffectSource{Name: iName, Effect: iEffect, Ion: eff.Ion})
			effectSet[iName] = true
		}
		if !effectSet[gName] {
			pm.insertPointer(gName)
			pm.FieldPack.EffectSources = append(pm.FieldPack.EffectSources, EffectSource{Name: gName, Effect: gEffect, Ion: eff.Ion})
			effectSet[gName] = true
		}
		if eff.Ion == "" {
			continue
		}
		ionI, ionG := iName+"_"+eff.Ion, gName+"_"+eff.Ion
		if !effectSet[ionI] {
			// The per-ion current's source points at both its own mangled
			// name and the overall current, by design (matches the
			// original's comment in printable_mechanism.cpp).
			pm.PointerMap[ionI] = append(pm.PointerMap[ionI], prefix(ionI), prefix(iName))
			pm.FieldPack.EffectSources = append(pm.FieldPack.EffectSources, EffectSource{Name: ionI, Effect: iEffect, Ion: eff.Ion})
			effectSet[ionI] = true
		}
		if !effectSet[ionG] {
			pm.PointerMap[ionG] = append(pm.PointerMap[ionG], prefix(gName))
			effectSet[ionG] = true
		}
	}

	for _, p := range m.Parameters {
		if isLiteral(p.Value) {
			continue
		}
		val, err := Flatten(p.Value, sfm)
		if err != nil {
			return nil, err
		}
		val = optimize.OptimizeExpr(canon.New().CanonicalizeExpr(val))
		pm.Procedures.AssignedParameters = append(pm.Procedures.AssignedParameters, &ir.Parameter{Name: p.Name, Value: val, Ty: val.Type(), P: p.P})
	}
	for _, eff := range m.Effects {
		val, err := Flatten(eff.Value, sfm)
		if err != nil {
			return nil, err
		}
		val = optimize.OptimizeExpr(canon.New().CanonicalizeExpr(val))
		pm.Procedures.Effects = append(pm.Procedures.Effects, &ir.Effect{Effect: eff.Effect, Ion: eff.Ion, Value: val, Ty: val.Type(), P: eff.P})
	}
	for _, ini := range m.Initializations {
		val, err := Flatten(ini.Value, sfm)
		if err != nil {
			return nil, err
		}
		val = optimize.OptimizeExpr(canon.New().CanonicalizeExpr(val))
		pm.Procedures.Initializations = append(pm.Procedures.Initializations, &ir.Initial{Identifier: ini.Identifier, Value: val, Ty: val.Type(), P: ini.P})
	}
	for _, ev := range m.Evolutions {
		val, err := Flatten(ev.Value, sfm)
		if err != nil {
			return nil, err
		}
		val = optimize.OptimizeExpr(canon.New().CanonicalizeExpr(val))
		pm.Procedures.Evolutions = append(pm.Procedures.Evolutions, &ir.Evolve{Identifier: ev.Identifier, Value: val, Ty: val.Type(), P: ev.P})
	}

	if err := pm.fillWriteMaps(sfm); err != nil {
		return nil, err
	}
	pm.fillReadMaps(paramSet, stateSet, bindSet)

	return pm, nil
}

func (pm *Mechanism) insertPointer(name string) {
	pm.PointerMap[name] = append(pm.PointerMap[name], prefix(name))
}

// resultVars returns the *ir.Variable fields of the terminal object (or
// the single terminal variable) a flattened, re-canonicalized procedure
// body evaluates to — the generalization of
// printable_mechanism.cpp's get_result + get_resolved_variables helper
// pair.
func resultVars(e ir.Expr) []*ir.Variable {
	cur := e
	for {
		l, ok := cur.(*ir.Let)
		if !ok {
			break
		}
		cur = l.Body
	}
	switch n := cur.(type) {
	case *ir.Object:
		var vars []*ir.Variable
		for _, f := range n.Fields {
			vars = append(vars, f)
		}
		return vars
	case *ir.Variable:
		return []*ir.Variable{n}
	default:
		return nil
	}
}

func (pm *Mechanism) writeVar(vname string, results []*ir.Variable, ty types.Type, dst map[string]string, isState bool) error {
	if rec, ok := ty.(types.Record); ok {
		if len(results) != len(rec.Fields) {
			return internalErr("expected one result per record field when writing " + vname)
		}
		for _, v := range results {
			fieldVar, ok := v.Value.(*ir.Variable)
			if !ok {
				return internalErr("expected a resolved variable as a record field's result")
			}
			var mangled string
			if isState {
				fields, ok := pm.StateFields[vname]
				if !ok {
					return internalErr("cannot find state " + vname + " being initialized")
				}
				mangled, ok = fields[v.Name]
				if !ok {
					return internalErr("cannot find field " + v.Name + " of state " + vname)
				}
			} else {
				mangled = v.Name
			}
			for _, source := range pm.PointerMap[mangled] {
				dst[source] = fieldVar.Name
			}
		}
		return nil
	}
	if len(results) != 1 {
		return internalErr("expected exactly one result when writing " + vname)
	}
	for _, source := range pm.PointerMap[vname] {
		dst[source] = results[0].Name
	}
	return nil
}

func (pm *Mechanism) fillWriteMaps(sfm StateFieldMap) error {
	pm.InitWriteMap, pm.EvolveWriteMap, pm.EffectWriteMap = newWriteMap(), newWriteMap(), newWriteMap()

	for _, init := range pm.Procedures.Initializations {
		a, ok := init.Identifier.(*ir.Argument)
		if !ok {
			return internalErr("expected initial identifier to be a resolved argument")
		}
		if err := pm.writeVar(a.Name, resultVars(init.Value), init.Ty, pm.InitWriteMap.StateMap, true); err != nil {
			return err
		}
	}
	for _, ev := range pm.Procedures.Evolutions {
		a, ok := ev.Identifier.(*ir.Argument)
		if !ok {
			return internalErr("expected evolve identifier to be a resolved argument")
		}
		if err := pm.writeVar(a.Name, resultVars(ev.Value), ev.Ty, pm.EvolveWriteMap.StateMap, true); err != nil {
			return err
		}
	}
	for _, eff := range pm.Procedures.Effects {
		if err := pm.writeVar(string(eff.Effect), resultVars(eff.Value), eff.Ty, pm.EffectWriteMap.EffectMap, false); err != nil {
			return err
		}
	}
	for _, p := range pm.Procedures.AssignedParameters {
		if err := pm.writeVar(p.Name, resultVars(p.Value), p.Ty, pm.InitWriteMap.ParameterMap, false); err != nil {
			return err
		}
	}
	return nil
}

func (pm *Mechanism) fillReadMaps(paramSet, stateSet, bindSet map[string]bool) {
	pm.InitReadMap, pm.EvolveReadMap, pm.EffectReadMap = newReadMap(), newReadMap(), newReadMap()

	addReads := func(e ir.Expr, dst *ReadMap, allowState bool) {
		var args []string
		ReadArguments(e, &args)
		for _, a := range args {
			sources := pm.PointerMap[a]
			if len(sources) == 0 {
				continue
			}
			source := sources[0]
			switch {
			case paramSet[a]:
				dst.ParameterMap[source] = a
			case bindSet[a]:
				dst.BindingMap[source] = a
			case allowState && stateSet[a]:
				dst.StateMap[source] = a
			}
		}
	}

	for _, p := range pm.Procedures.AssignedParameters {
		addReads(p.Value, &pm.InitReadMap, false)
	}
	for _, init := range pm.Procedures.Initializations {
		addReads(init.Value, &pm.InitReadMap, false)
	}
	for _, ev := range pm.Procedures.Evolutions {
		addReads(ev.Value, &pm.EvolveReadMap, true)
	}
	for _, eff := range pm.Procedures.Effects {
		addReads(eff.Value, &pm.EffectReadMap, true)
	}
}
