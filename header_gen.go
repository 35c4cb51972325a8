package cnext

import (
	"embed"
	"fmt"
	"strings"
	"unicode"
)

// cnextFmtRuntime is the cnext_fmt helper body, embedded the same way
// the teacher embeds its VM runtime (c/vm.c in genc.go) rather than
// built up line by line with writel calls.
//
//go:embed runtime/cnext_fmt.c.tmpl
var cnextFmtRuntime embed.FS

// HeaderGenerator produces the companion header for one translation
// unit (§4.9): typedefs for every nominal type, prototypes for every
// public function, extern declarations for every public global, and
// the cnext_fmt runtime helper codegen_format.go's template-string
// lowering calls. Grounded on the teacher's cEvalHeaderEmitter
// (genc.go) — same include-guard/typedef/prototype shape, generalized
// from "one opaque parser type" to "every declaration kind §2 names".
type HeaderGenerator struct {
	opt  CodeGenOptions
	syms *CodeGenSymbols
}

func NewHeaderGenerator(opt CodeGenOptions, syms *CodeGenSymbols) *HeaderGenerator {
	return &HeaderGenerator{opt: opt, syms: syms}
}

func (h *HeaderGenerator) Generate(file *FileNode) (string, error) {
	o := newOutputWriter("    ")
	o.writel(GeneratedMarker(h.opt.SourcePath))
	guard := includeGuardName(h.opt.SourcePath)
	o.writelf("#ifndef %s", guard)
	o.writelf("#define %s", guard)
	o.writel("")
	o.writel(`#include <stdint.h>`)
	o.writel(`#include <stdbool.h>`)
	o.writel("")
	h.writeRuntimeHelpers(o)

	for _, d := range file.Decls {
		if err := h.genDecl(o, d); err != nil {
			return "", err
		}
	}
	o.writelf("#endif /* %s */", guard)
	return o.String(), nil
}

// writeRuntimeHelpers emits cnext_fmt nested in its own include guard,
// so a .c file that includes several generated headers only gets one
// definition no matter how many of them carry this block.
func (h *HeaderGenerator) writeRuntimeHelpers(o *outputWriter) {
	data, err := cnextFmtRuntime.ReadFile("runtime/cnext_fmt.c.tmpl")
	if err != nil {
		panic(err.Error())
	}
	o.writel("#ifndef CNEXT_RUNTIME_H")
	o.writel("#define CNEXT_RUNTIME_H")
	o.writel(string(data))
	o.writel("#endif /* CNEXT_RUNTIME_H */")
	o.writel("")
}

func (h *HeaderGenerator) genDecl(o *outputWriter, d AstNode) error {
	switch n := d.(type) {
	case *StructDeclNode:
		return h.genStruct(o, n)
	case *EnumDeclNode:
		return h.genEnum(o, n)
	case *BitmapDeclNode:
		return h.genBitmap(o, n)
	case *RegisterDeclNode:
		return h.genRegister(o, n)
	case *CallbackDeclNode:
		return h.genCallback(o, n)
	case *ScopeDeclNode:
		return h.genScopePrototypes(o, n)
	case *FuncDeclNode:
		if n.Visibility != VisibilityPublic {
			return nil
		}
		h.genFuncPrototype(o, n.Name, n)
		return nil
	case *VarDeclNode:
		if n.Visibility != VisibilityPublic {
			return nil
		}
		h.genExternVar(o, n)
		return nil
	default:
		return fmt.Errorf("header_gen: unsupported top-level declaration %T", d)
	}
}

func (h *HeaderGenerator) genStruct(o *outputWriter, n *StructDeclNode) error {
	o.writelf("typedef struct {")
	o.indent()
	for _, f := range n.Fields {
		o.writei(formatCType(f.Type, h.opt.Cpp))
		o.write(" ")
		o.write(f.Name)
		o.write(formatArrayDims(f.Type))
		o.writel(";")
	}
	o.unindent()
	o.writelf("} %s;", n.Name)
	o.writel("")
	return nil
}

func (h *HeaderGenerator) genEnum(o *outputWriter, n *EnumDeclNode) error {
	o.writel("typedef enum {")
	o.indent()
	for i, m := range n.Members {
		comma := ","
		if i == len(n.Members)-1 {
			comma = ""
		}
		o.writeilf("%s = %d%s", m.Name, m.Value, comma)
	}
	o.unindent()
	o.writelf("} %s;", n.Name)
	o.writel("")
	return nil
}

// genBitmap emits the bitmap's backing integer typedef plus a
// NAME_FIELD_SHIFT/MASK macro pair per field, the way a CMSIS-style
// register header exposes bitfields — the generated source's bit
// read/write lowering doesn't consume these macros itself (it inlines
// the shift/mask directly, §4.6), but they document the layout for
// code outside the generated .c that still needs to touch the bitmap.
func (h *HeaderGenerator) genBitmap(o *outputWriter, n *BitmapDeclNode) error {
	o.writelf("typedef %s %s;", CType(n.Backing), n.Name)
	upper := strings.ToUpper(n.Name)
	for _, f := range n.Fields {
		mask := (uint64(1) << uint(f.Width)) - 1
		o.writelf("#define %s_%s_SHIFT %d", upper, strings.ToUpper(f.Name), f.Offset)
		o.writelf("#define %s_%s_MASK 0x%XU", upper, strings.ToUpper(f.Name), mask)
	}
	o.writel("")
	return nil
}

func (h *HeaderGenerator) genRegister(o *outputWriter, n *RegisterDeclNode) error {
	o.writelf("typedef struct {")
	o.indent()
	for _, m := range n.Members {
		ct := m.CType
		if m.BitmapType != "" {
			ct = m.BitmapType
		}
		o.writeilf("volatile %s %s;", ct, m.Name)
	}
	o.unindent()
	o.writelf("} %s;", n.Name)
	if lit, ok := n.BaseAddress.(*IntLiteralNode); ok {
		o.writelf("#define %s_BASE ((%s *)%s)", strings.ToUpper(n.Name), n.Name, formatIntLiteral(lit))
	}
	o.writel("")
	return nil
}

func (h *HeaderGenerator) genCallback(o *outputWriter, n *CallbackDeclNode) error {
	o.writelf("typedef %s (*%s)%s;", formatCType(n.ReturnType, h.opt.Cpp), n.Name, formatParamList(n.Params, h.opt.Cpp))
	o.writel("")
	return nil
}

func (h *HeaderGenerator) genScopePrototypes(o *outputWriter, n *ScopeDeclNode) error {
	for _, m := range n.Members {
		switch d := m.Decl.(type) {
		case *FuncDeclNode:
			if m.Visibility != VisibilityPublic {
				continue
			}
			h.genFuncPrototype(o, n.Name+"_"+d.Name, d)
		case *VarDeclNode:
			if m.Visibility != VisibilityPublic {
				continue
			}
			h.genExternVar(o, scopedVarDecl(d, n.Name))
		}
	}
	return nil
}

func (h *HeaderGenerator) genFuncPrototype(o *outputWriter, emittedName string, n *FuncDeclNode) {
	o.writelf("%s;", formatPrototype(emittedName, n.Params, n.ReturnType, h.opt.Cpp))
}

func (h *HeaderGenerator) genExternVar(o *outputWriter, n *VarDeclNode) {
	o.writei("extern ")
	o.write(formatCType(n.Type, h.opt.Cpp))
	o.write(" ")
	o.write(n.Name)
	o.write(formatArrayDims(n.Type))
	o.writel(";")
}

// includeGuardName derives a C include-guard macro from a source path,
// the way the teacher derives one from ParserName (genc.go) — here
// from the .cnx file's base name instead of a user-supplied identifier.
func includeGuardName(sourcePath string) string {
	base := trimExt(sourcePath)
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if base == "" {
		base = "CNEXT"
	}
	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune('_')
		}
	}
	b.WriteString("_H")
	return b.String()
}
