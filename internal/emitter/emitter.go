package emitter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/preprint"
	"github.com/tidwall/sjson"
)

// Result is the pair of generated translation units for one mechanism.
type Result struct {
	Header string
	Body   string
}

// Emit renders pm into the header/body pair described by spec.md
// section 6: a header declaring the `<namespace>_<name>` factory and
// ABI descriptor, and a body defining the six PPACK kernels plus the
// multicore interface factory.
func Emit(pm *preprint.Mechanism, namespace string) (Result, error) {
	fp := fingerprint(pm)
	return Result{
		Header: renderHeader(pm, namespace, fp),
		Body:   renderBody(pm, namespace, fp),
	}, nil
}

func fingerprint(pm *preprint.Mechanism) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s", pm.Kind, pm.Name)
	names := make([]string, 0, len(pm.PointerMap))
	for name := range pm.PointerMap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(h, "|%s", n)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func renderHeader(pm *preprint.Mechanism, namespace, fp string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// Generated by arblangc. Do not edit.\n#pragma once\n\n")
	fmt.Fprintf(&sb, "#include <arbor/mechanism_abi.h>\n\n")
	fmt.Fprintf(&sb, "namespace %s {\n\n", namespace)
	fmt.Fprintf(&sb, "arb_mechanism_type %s_%s();\n\n", namespace, pm.Name)
	fmt.Fprintf(&sb, "} // namespace %s\n", namespace)
	_ = fp
	return sb.String()
}

func renderBody(pm *preprint.Mechanism, namespace, fp string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// Generated by arblangc. Do not edit.\n")
	fmt.Fprintf(&sb, "#include <cmath>\n#include \"%s_%s.hpp\"\n\n", namespace, pm.Name)
	fmt.Fprintf(&sb, "namespace %s {\nnamespace %s_kernels {\n\n", namespace, pm.Name)

	renderProcedure(&sb, "init", pm.Procedures.Initializations, pm.InitWriteMap, pm.InitReadMap)
	renderEvolveProcedure(&sb, pm.Procedures.Evolutions, pm.EvolveWriteMap, pm.EvolveReadMap)
	renderEffectProcedure(&sb, pm.Procedures.Effects, pm.EffectWriteMap, pm.EffectReadMap)
	renderStub(&sb, "apply_events")
	renderStub(&sb, "write_ions")
	renderStub(&sb, "post_event")

	fmt.Fprintf(&sb, "} // namespace %s_kernels\n\n", pm.Name)
	fmt.Fprintf(&sb, "arb_mechanism_type %s_%s() {\n", namespace, pm.Name)
	fmt.Fprintf(&sb, "    arb_mechanism_type result = {};\n")
	fmt.Fprintf(&sb, "    result.abi_version = ARB_MECH_ABI_VERSION;\n")
	fmt.Fprintf(&sb, "    result.fingerprint = %q;\n", fp)
	fmt.Fprintf(&sb, "    result.name = %q;\n", pm.Name)
	fmt.Fprintf(&sb, "    result.kind = %s;\n", mechanismKindExpr(pm.Kind))
	fmt.Fprintf(&sb, "    return result;\n")
	fmt.Fprintf(&sb, "}\n\n")
	fmt.Fprintf(&sb, "arb_mechanism_interface* make_%s_%s_interface_multicore() {\n", namespace, pm.Name)
	fmt.Fprintf(&sb, "    static arb_mechanism_interface result;\n")
	fmt.Fprintf(&sb, "    result.partition_width = 1;\n")
	fmt.Fprintf(&sb, "    result.backend = arb_backend_kind_cpu;\n")
	fmt.Fprintf(&sb, "    result.alignment = 1;\n")
	fmt.Fprintf(&sb, "    result.init_mechanism = %s_kernels::init;\n", pm.Name)
	fmt.Fprintf(&sb, "    result.compute_currents = %s_kernels::compute_currents;\n", pm.Name)
	fmt.Fprintf(&sb, "    result.advance_state = %s_kernels::advance_state;\n", pm.Name)
	fmt.Fprintf(&sb, "    result.apply_events = %s_kernels::apply_events;\n", pm.Name)
	fmt.Fprintf(&sb, "    result.write_ions = %s_kernels::write_ions;\n", pm.Name)
	fmt.Fprintf(&sb, "    result.post_event = %s_kernels::post_event;\n", pm.Name)
	fmt.Fprintf(&sb, "    return &result;\n")
	fmt.Fprintf(&sb, "}\n\n")
	fmt.Fprintf(&sb, "} // namespace %s\n", namespace)
	return sb.String()
}

func mechanismKindExpr(k ir.MechanismKind) string {
	switch k {
	case ir.Density:
		return "arb_mechanism_kind_density"
	case ir.Point:
		return "arb_mechanism_kind_point"
	case ir.Concentration:
		return "arb_mechanism_kind_reversal_potential"
	default:
		return "arb_mechanism_kind_undefined"
	}
}

func renderProcedure(sb *strings.Builder, name string, decls []*ir.Initial, wm preprint.WriteMap, rm preprint.ReadMap) {
	fmt.Fprintf(sb, "void %s(arb_mechanism_ppack* pp_) {\n", name)
	fmt.Fprintf(sb, "    for (arb_size_type i_ = 0; i_ < pp_->width; ++i_) {\n")
	for src, local := range rm.ParameterMap {
		fmt.Fprintf(sb, "        auto %s = %s;\n", local, src)
	}
	for src, local := range rm.BindingMap {
		fmt.Fprintf(sb, "        auto %s = %s;\n", local, src)
	}
	for _, d := range decls {
		sb.WriteString(indentLines(flattenStatements(d.Value), "        "))
		a, _ := d.Identifier.(*ir.Argument)
		result := terminal(d.Value)
		writeResult(sb, a, result, wm.StateMap)
	}
	fmt.Fprintf(sb, "    }\n}\n\n")
}

func renderEvolveProcedure(sb *strings.Builder, decls []*ir.Evolve, wm preprint.WriteMap, rm preprint.ReadMap) {
	fmt.Fprintf(sb, "void advance_state(arb_mechanism_ppack* pp_) {\n")
	fmt.Fprintf(sb, "    for (arb_size_type i_ = 0; i_ < pp_->width; ++i_) {\n")
	for src, local := range rm.ParameterMap {
		fmt.Fprintf(sb, "        auto %s = %s;\n", local, src)
	}
	for src, local := range rm.BindingMap {
		fmt.Fprintf(sb, "        auto %s = %s;\n", local, src)
	}
	for src, local := range rm.StateMap {
		fmt.Fprintf(sb, "        auto %s = %s;\n", local, src)
	}
	for _, d := range decls {
		sb.WriteString(indentLines(flattenStatements(d.Value), "        "))
		a, _ := d.Identifier.(*ir.Argument)
		result := terminal(d.Value)
		writeResult(sb, a, result, wm.StateMap)
	}
	fmt.Fprintf(sb, "    }\n}\n\n")
}

func renderEffectProcedure(sb *strings.Builder, decls []*ir.Effect, wm preprint.WriteMap, rm preprint.ReadMap) {
	fmt.Fprintf(sb, "void compute_currents(arb_mechanism_ppack* pp_) {\n")
	fmt.Fprintf(sb, "    for (arb_size_type i_ = 0; i_ < pp_->width; ++i_) {\n")
	for src, local := range rm.ParameterMap {
		fmt.Fprintf(sb, "        auto %s = %s;\n", local, src)
	}
	for src, local := range rm.BindingMap {
		fmt.Fprintf(sb, "        auto %s = %s;\n", local, src)
	}
	for src, local := range rm.StateMap {
		fmt.Fprintf(sb, "        auto %s = %s;\n", local, src)
	}
	for _, d := range decls {
		sb.WriteString(indentLines(flattenStatements(d.Value), "        "))
		result := terminal(d.Value)
		writeResult(sb, nil, result, wm.EffectMap)
	}
	fmt.Fprintf(sb, "    }\n}\n\n")
}

// writeResult emits the PPACK pointer writes for one declaration's
// terminal object/variable, per the write map built by internal/preprint.
func writeResult(sb *strings.Builder, _ *ir.Argument, result ir.Expr, wm map[string]string) {
	switch n := result.(type) {
	case *ir.Object:
		for _, f := range n.Fields {
			if src, ok := findWriteSource(wm, f.Name); ok {
				fmt.Fprintf(sb, "        %s = %s;\n", src, f.Name)
			}
		}
	case *ir.Variable:
		if src, ok := findWriteSource(wm, n.Name); ok {
			fmt.Fprintf(sb, "        %s = %s;\n", src, n.Name)
		}
	}
}

// findWriteSource looks up the PPACK pointer expression that was
// recorded as writing local, given the write map is keyed by pointer
// expression -> local variable name.
func findWriteSource(wm map[string]string, local string) (string, bool) {
	for src, v := range wm {
		if v == local {
			return src, true
		}
	}
	return "", false
}

func renderStub(sb *strings.Builder, name string) {
	fmt.Fprintf(sb, "void %s(arb_mechanism_ppack* pp_) {\n    // not yet generated by this mechanism's source.\n}\n\n", name)
}

func indentLines(s, indent string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n") + "\n"
}

// DescriptorJSON serializes pm's resolved state/parameter/ion tables as
// the JSON document `arblangc compile --dump-descriptor` prints,
// built incrementally with sjson the way a streaming table dump would
// be, rather than marshaling one big struct.
func DescriptorJSON(pm *preprint.Mechanism) (string, error) {
	doc := "{}"
	var err error
	if doc, err = sjson.Set(doc, "name", pm.Name); err != nil {
		return "", err
	}
	if doc, err = sjson.Set(doc, "kind", string(pm.Kind)); err != nil {
		return "", err
	}
	for i, s := range pm.FieldPack.StateSources {
		if doc, err = sjson.Set(doc, fmt.Sprintf("states.%d", i), s); err != nil {
			return "", err
		}
	}
	for i, p := range pm.FieldPack.ParamSources {
		base := fmt.Sprintf("parameters.%d", i)
		if doc, err = sjson.Set(doc, base+".name", p.Name); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".type", p.Type); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".default", p.Value); err != nil {
			return "", err
		}
	}
	for i, ion := range pm.IonFields {
		base := fmt.Sprintf("ions.%d", i)
		if doc, err = sjson.Set(doc, base+".ion", ion.Ion); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".read_valence", ion.ReadValence); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".write_int_concentration", ion.WriteIntConcentration); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".write_ext_concentration", ion.WriteExtConcentration); err != nil {
			return "", err
		}
	}
	return doc, nil
}
