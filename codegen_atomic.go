package cnext

import "fmt"

// genAtomicRMW lowers ATOMIC_RMW: a compound-assignment write to a
// variable or chain marked `atomic`. Targets whose TargetProfile
// advertises exclusive-load/store support (cortex-m3 and up) get an
// LDREX/STREX retry loop; targets without it (cortex-m0, generic) fall
// back to a PRIMASK-guarded critical section, chosen by
// TargetProfile.HasExclusiveLD per §3/§4.4's Open Question decision.
func (g *CodeGenerator) genAtomicRMW(o *outputWriter, n *AssignStmt, ca *ClassifiedAssign) error {
	if g.opt.Target.HasExclusiveLD {
		return g.genAtomicRMWExclusive(o, n, ca)
	}
	return g.genAtomicRMWCriticalSection(o, n, ca)
}

func exclusivePointerCType(width int) (suffix, ctype string) {
	switch width {
	case 8:
		return "B", "uint8_t"
	case 16:
		return "H", "uint16_t"
	default:
		return "W", "uint32_t"
	}
}

func (g *CodeGenerator) genAtomicRMWExclusive(o *outputWriter, n *AssignStmt, ca *ClassifiedAssign) error {
	width := clampType(ca).BitWidth()
	if width == 0 {
		width = 32
	}
	sfx, ctype := exclusivePointerCType(width)

	o.writeil("{")
	o.indent()
	o.writeilf("%s __cnext_tmp;", ctype)
	o.writeil("do {")
	o.indent()
	o.writei(fmt.Sprintf("__cnext_tmp = __LDREX%s((%s *)&", sfx, ctype))
	if err := g.genLValue(o, n.Target); err != nil {
		return err
	}
	o.writel(");")
	o.writei("__cnext_tmp = __cnext_tmp " + n.Op.CBinOp() + " (" + ctype + ")(")
	if err := g.genExpr(o, n.Value); err != nil {
		return err
	}
	o.writel(");")
	o.unindent()
	o.writei(fmt.Sprintf("} while (__STREX%s(__cnext_tmp, (%s *)&", sfx, ctype))
	if err := g.genLValue(o, n.Target); err != nil {
		return err
	}
	o.writel("));")
	o.unindent()
	o.writeil("}")
	return nil
}

func (g *CodeGenerator) genAtomicRMWCriticalSection(o *outputWriter, n *AssignStmt, ca *ClassifiedAssign) error {
	o.writeil("{")
	o.indent()
	o.writeil("uint32_t __cnext_primask = __get_PRIMASK();")
	o.writeil("__disable_irq();")
	o.writei("")
	if err := g.genLValue(o, n.Target); err != nil {
		return err
	}
	o.write(" = (")
	if err := g.genLValue(o, n.Target); err != nil {
		return err
	}
	o.write(" " + n.Op.CBinOp() + " ")
	if err := g.genExpr(o, n.Value); err != nil {
		return err
	}
	o.write(")")
	o.writel(";")
	o.writeil("__set_PRIMASK(__cnext_primask);")
	o.unindent()
	o.writeil("}")
	return nil
}

// clampType resolves the type a clamp-lowered assignment's bounds are
// drawn from: the chain's resolved type for a member-chain target, or
// the declared variable's type for a bare identifier.
func clampType(ca *ClassifiedAssign) Type {
	if ca.Chain != nil {
		return ca.Chain.Type
	}
	if ca.Decl != nil {
		return ca.Decl.Type
	}
	return Type{}
}

// clampBounds returns the stdint.h limit macros for k's range, or
// ok=false for a non-integer kind (the classifier never produces
// AssignOverflowClamp for one, but genClampAssign falls back to a
// plain assignment defensively).
func clampBounds(k Kind) (lo, hi string, ok bool) {
	switch k {
	case KindU8:
		return "0", "UINT8_MAX", true
	case KindI8:
		return "INT8_MIN", "INT8_MAX", true
	case KindU16:
		return "0", "UINT16_MAX", true
	case KindI16:
		return "INT16_MIN", "INT16_MAX", true
	case KindU32:
		return "0", "UINT32_MAX", true
	case KindI32:
		return "INT32_MIN", "INT32_MAX", true
	case KindU64:
		return "0", "UINT64_MAX", true
	case KindI64:
		return "INT64_MIN", "INT64_MAX", true
	default:
		return "", "", false
	}
}

// genClampAssign lowers OVERFLOW_CLAMP: the raw arithmetic result is
// computed in a scratch variable of the target's own width, then
// clamped into range before being stored back. This catches a result
// that overflows past the type's limit but wraps through the
// operand's own width first; it doesn't re-derive the result in a
// wider intermediate, so a pattern that wraps clean around zero before
// the comparison (e.g. unsigned `0 -<- 1`) clamps to the wrapped value
// rather than to 0.
func (g *CodeGenerator) genClampAssign(o *outputWriter, n *AssignStmt, ca *ClassifiedAssign) error {
	t := clampType(ca)
	lo, hi, ok := clampBounds(t.Kind)
	if !ok {
		return g.genPlainAssign(o, n)
	}
	ctype := formatCType(t, g.opt.Cpp)

	o.writeil("{")
	o.indent()
	o.writei(fmt.Sprintf("%s __cnext_raw = (%s)(", ctype, ctype))
	if err := g.genLValue(o, n.Target); err != nil {
		return err
	}
	o.write(" " + n.Op.CBinOp() + " ")
	if err := g.genExpr(o, n.Value); err != nil {
		return err
	}
	o.writel(");")
	o.writeilf("if (__cnext_raw > %s) { __cnext_raw = %s; }", hi, hi)
	o.writeilf("if (__cnext_raw < %s) { __cnext_raw = %s; }", lo, lo)
	o.writei("")
	if err := g.genLValue(o, n.Target); err != nil {
		return err
	}
	o.writel(" = __cnext_raw;")
	o.unindent()
	o.writeil("}")
	return nil
}
