package cnext

import "fmt"

// CodeGenOptions mirrors the teacher's GenCOptions (genc.go) shape:
// a small struct of emission knobs threaded through every emitter.
type CodeGenOptions struct {
	Cpp          bool
	Target       TargetProfile
	SourcePath   string // originating .cnx path, stamped into the generated marker
	CacheStrlen  bool
	SynthDefault bool
}

// CodeGenerator lowers one parsed FileNode into a C/C++ source file
// and its companion header, the way GenCEvalWithHeader (genc.go)
// produces a .c/.h pair for one grammar — generalized from "one parser
// struct" to "every declaration kind §2 names".
type CodeGenerator struct {
	opt  CodeGenOptions
	syms *CodeGenSymbols
	sink *DiagnosticSink
	clsf *AssignmentClassifier

	src *outputWriter
	strlen *strlenCache

	// currentScope is the enclosing scope name while generating a scope
	// member function's body, so a `this.member`/`global.member` chain
	// (whose base carries no identifier of its own) still resolves to
	// the right ScopeName_member C symbol.
	currentScope string

	// locals is the current function's parameter/local-variable type
	// table, populated from FuncDeclNode.Params at function entry and
	// grown as VarDeclStmts are generated. Consulted by the member-chain
	// analyzer and the assignment classifier so a chain or assignment
	// target based on a parameter or local resolves instead of falling
	// into the opaque-value fallback; nil outside a function body.
	locals map[string]Type
}

func NewCodeGenerator(opt CodeGenOptions, syms *CodeGenSymbols, sink *DiagnosticSink) *CodeGenerator {
	return &CodeGenerator{
		opt:  opt,
		syms: syms,
		sink: sink,
		clsf: NewAssignmentClassifier(syms),
	}
}

// Generate produces the source text for file; GenerateHeader (in
// header_gen.go) produces the companion header. The orchestrator calls
// both once per file, respecting the dependency-ordered barrier so
// every nominal type a file references has already been collected.
func (g *CodeGenerator) Generate(file *FileNode) (string, error) {
	g.src = newOutputWriter("    ")
	g.writeGeneratedMarker(g.src)
	g.writeIncludesForSource(file)

	for _, d := range file.Decls {
		if err := g.genTopLevelDecl(d); err != nil {
			return "", err
		}
	}
	return g.src.String(), nil
}

func (g *CodeGenerator) writeGeneratedMarker(o *outputWriter) {
	o.writel(GeneratedMarker(g.opt.SourcePath))
	o.writel("")
}

func (g *CodeGenerator) writeIncludesForSource(file *FileNode) {
	g.src.writel(`#include <stdint.h>`)
	g.src.writel(`#include <stdbool.h>`)
	g.src.writel(`#include <string.h>`)
	if g.opt.Target.HasExclusiveLD {
		g.src.writel(`#include <cmsis_gcc.h>`)
	}
	for _, inc := range file.Includes {
		if inc.IsSystem {
			g.src.writelf("#include <%s>", inc.Path)
		} else {
			g.src.writelf("#include \"%s\"", headerNameFor(inc.Path))
		}
	}
	g.src.writel("")
}

func (o *outputWriter) writelf(format string, args ...any) { o.writel(fmt.Sprintf(format, args...)) }

// headerNameFor maps a .cnx/.cnext include path to the header path the
// orchestrator will have generated for it (§6).
func headerNameFor(path string) string {
	return trimExt(path) + ".h"
}

func trimExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}

func (g *CodeGenerator) genTopLevelDecl(d AstNode) error {
	switch n := d.(type) {
	case *StructDeclNode:
		return nil // type definition only lives in the header, §4.9
	case *EnumDeclNode:
		return nil
	case *BitmapDeclNode:
		return nil
	case *CallbackDeclNode:
		return nil
	case *RegisterDeclNode:
		return g.genRegisterDefinition(n)
	case *ScopeDeclNode:
		return g.genScopeDecl(n)
	case *FuncDeclNode:
		return g.genFuncDecl(n, "")
	case *VarDeclNode:
		return g.genGlobalVarDecl(n)
	default:
		return fmt.Errorf("codegen: unsupported top-level declaration %T", d)
	}
}

func (g *CodeGenerator) genScopeDecl(n *ScopeDeclNode) error {
	for _, m := range n.Members {
		switch d := m.Decl.(type) {
		case *FuncDeclNode:
			if err := g.genFuncDecl(d, n.Name); err != nil {
				return err
			}
		case *VarDeclNode:
			if err := g.genGlobalVarDecl(scopedVarDecl(d, n.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// scopedVarDecl renames a scope member so its C symbol is qualified
// (Scope_name), without mutating the original AST node (the header
// generator still needs the unqualified name for §4.9's member list).
func scopedVarDecl(n *VarDeclNode, scopeName string) *VarDeclNode {
	cp := *n
	cp.Name = scopeName + "_" + n.Name
	return &cp
}

func (g *CodeGenerator) genGlobalVarDecl(n *VarDeclNode) error {
	g.src.writei(formatVarDeclPrefix(n))
	g.src.write(formatCType(n.Type, g.opt.Cpp))
	g.src.write(" ")
	g.src.write(n.Name)
	g.src.write(formatArrayDims(n.Type))
	if n.Init != nil {
		g.src.write(" = ")
		if err := g.genExpr(g.src, n.Init); err != nil {
			return err
		}
	}
	g.src.writel(";")
	return nil
}

func (g *CodeGenerator) genRegisterDefinition(n *RegisterDeclNode) error {
	// Registers are memory-mapped overlays: the struct layout lives in
	// the header (§4.9), together with a NAME_BASE #define when the base
	// address is an integer literal. Nothing is emitted into the source,
	// so a register whose base address is any other expression gets no
	// base-address macro at all.
	if n.BaseAddress == nil {
		return nil
	}
	return nil
}

func (g *CodeGenerator) genFuncDecl(n *FuncDeclNode, scopeName string) error {
	if n.Body == nil {
		return nil // prototype only, emitted to the header
	}
	name := n.Name
	if scopeName != "" {
		name = scopeName + "_" + n.Name
	}
	g.currentScope = scopeName
	defer func() { g.currentScope = "" }()

	g.locals = make(map[string]Type, len(n.Params))
	for _, p := range n.Params {
		g.locals[p.Name] = p.Type
	}
	defer func() { g.locals = nil }()

	g.src.writei(formatCType(n.ReturnType, g.opt.Cpp))
	g.src.write(" ")
	g.src.write(name)
	g.src.write(formatParamList(n.Params, g.opt.Cpp))
	g.src.writel(" {")
	g.src.indent()

	cacher := newStrlenCache(g.opt.CacheStrlen)
	g.strlen = cacher

	for _, s := range n.Body {
		cacher.hoistForStmts(g.src, []AstNode{s})
		if err := g.genStmt(g.src, s); err != nil {
			return err
		}
		cacher.varFor = map[string]string{}
	}
	g.strlen = nil
	g.src.unindent()
	g.src.writel("}")
	g.src.writel("")
	return nil
}
