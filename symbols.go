package cnext

import "fmt"

// StructSymbol, EnumSymbol, BitmapSymbol, RegisterSymbol, CallbackSymbol
// and ScopeSymbol are the resolved nominal-type entries the rest of
// the pipeline (classifier, member-chain analyzer, code generator)
// looks declarations up by name in, instead of re-walking the AST.
type StructSymbol struct {
	Decl   *StructDeclNode
	FileID FileID
}

type EnumSymbol struct {
	Decl       *EnumDeclNode
	FileID     FileID
	ValueOf    map[string]int64
	MemberSet  map[string]bool
}

type BitmapSymbol struct {
	Decl   *BitmapDeclNode
	FileID FileID
}

type RegisterSymbol struct {
	Decl   *RegisterDeclNode
	FileID FileID
}

type CallbackSymbol struct {
	Decl   *CallbackDeclNode
	FileID FileID
}

type FuncSymbol struct {
	Decl       *FuncDeclNode
	FileID     FileID
	ScopeName  string // "" for free functions
}

type ScopeSymbol struct {
	Decl   *ScopeDeclNode
	FileID FileID
}

// CodeGenSymbols is the flattened, name-indexed symbol table the
// symbol collector produces by walking every parsed FileNode in
// dependency order (§4.2). It is the single source of truth the code
// generator and header generator consult to resolve a bare name to
// its declaration.
type CodeGenSymbols struct {
	Structs   map[string]*StructSymbol
	Enums     map[string]*EnumSymbol
	Bitmaps   map[string]*BitmapSymbol
	Registers map[string]*RegisterSymbol
	Callbacks map[string]*CallbackSymbol
	Scopes    map[string]*ScopeSymbol
	Funcs     map[string]*FuncSymbol
	Globals   map[string]*VarDeclNode

	// ExternalTypes holds nominal-type names the header parser found
	// in a native (non-.cnx) included header (header_parser.go). They
	// resolve for type-checking purposes but carry no field/member
	// detail the code generator can use — only .cnx declarations do.
	ExternalTypes map[string]bool

	// pendingMemberRefs records struct/register member types that
	// named a nominal type not yet seen when visited, mirroring the
	// teacher compiler's openAddrs backpatch list (grammar_compiler.go);
	// ResolvePending re-checks each entry once every file has been
	// collected and reports unknown-type for whatever never resolved.
	pendingMemberRefs []pendingRef
}

type pendingRef struct {
	typeName string
	loc      SourceLocation
}

func NewCodeGenSymbols() *CodeGenSymbols {
	return &CodeGenSymbols{
		Structs:   map[string]*StructSymbol{},
		Enums:     map[string]*EnumSymbol{},
		Bitmaps:   map[string]*BitmapSymbol{},
		Registers: map[string]*RegisterSymbol{},
		Callbacks: map[string]*CallbackSymbol{},
		Scopes:    map[string]*ScopeSymbol{},
		Funcs:     map[string]*FuncSymbol{},
		Globals:   map[string]*VarDeclNode{},
		ExternalTypes: map[string]bool{},
	}
}

// MergeNativeSymbols registers the abstract records a HeaderParser
// extracted from one included native header. Struct/enum/class/typedef
// names become resolvable nominal types; functions and variables are
// recorded for completeness but aren't consulted by the classifier or
// member-chain analyzer, which only reason about .cnx-declared symbols.
func (s *CodeGenSymbols) MergeNativeSymbols(symbols []NativeSymbol) {
	for _, sym := range symbols {
		switch sym.Kind {
		case NativeStruct, NativeEnum, NativeTypedef, NativeClass, NativeOpaque:
			s.ExternalTypes[sym.Name] = true
		}
	}
}

// SymbolCollector walks dependency-ordered files and populates a
// CodeGenSymbols table, then resolves cross-file nominal-type
// references in a second pass (the §4.2 "collect all declarations
// first, then resolve forward references" contract).
type SymbolCollector struct {
	syms *CodeGenSymbols
	sink *DiagnosticSink
	li   map[FileID]*LineIndex
}

func NewSymbolCollector(sink *DiagnosticSink, li map[FileID]*LineIndex) *SymbolCollector {
	return &SymbolCollector{syms: NewCodeGenSymbols(), sink: sink, li: li}
}

// CollectFile registers every top-level declaration in file into the
// symbol table. Scope member funcs and variables are registered only
// under their scope-qualified `Scope.member` key, not under their bare
// name.
func (sc *SymbolCollector) CollectFile(fileID FileID, file *FileNode) error {
	for _, d := range file.Decls {
		if err := sc.collectDecl(fileID, d, ""); err != nil {
			return err
		}
	}
	return nil
}

func (sc *SymbolCollector) collectDecl(fileID FileID, d AstNode, scopeName string) error {
	switch n := d.(type) {
	case *StructDeclNode:
		sc.syms.Structs[n.Name] = &StructSymbol{Decl: n, FileID: fileID}
		for _, f := range n.Fields {
			sc.notePendingType(fileID, f.Type, n.rg)
		}
	case *EnumDeclNode:
		vals := map[string]int64{}
		seen := map[int64]string{}
		set := map[string]bool{}
		for _, m := range n.Members {
			set[m.Name] = true
			vals[m.Name] = m.Value
			if prior, ok := seen[m.Value]; ok {
				loc := sc.locFor(fileID, n.rg)
				sc.sink.ReportError(fmt.Sprintf("file#%d", fileID), NewCompileError(ErrDuplicateEnumValue, loc,
					"enum %s: members %s and %s share value %d", n.Name, prior, m.Name, m.Value))
			}
			seen[m.Value] = m.Name
		}
		sc.syms.Enums[n.Name] = &EnumSymbol{Decl: n, FileID: fileID, ValueOf: vals, MemberSet: set}
	case *BitmapDeclNode:
		sc.syms.Bitmaps[n.Name] = &BitmapSymbol{Decl: n, FileID: fileID}
		sc.checkBitmapOverlap(fileID, n)
	case *RegisterDeclNode:
		sc.syms.Registers[n.Name] = &RegisterSymbol{Decl: n, FileID: fileID}
		for _, m := range n.Members {
			if m.BitmapType != "" {
				sc.notePendingType(fileID, Type{Kind: KindBitmap, Name: m.BitmapType}, n.rg)
			}
		}
	case *CallbackDeclNode:
		sc.syms.Callbacks[n.Name] = &CallbackSymbol{Decl: n, FileID: fileID}
	case *ScopeDeclNode:
		sc.syms.Scopes[n.Name] = &ScopeSymbol{Decl: n, FileID: fileID}
		for _, m := range n.Members {
			if err := sc.collectDecl(fileID, m.Decl, n.Name); err != nil {
				return err
			}
		}
	case *FuncDeclNode:
		key := n.Name
		if scopeName != "" {
			key = scopeName + "." + n.Name
		}
		sc.syms.Funcs[key] = &FuncSymbol{Decl: n, FileID: fileID, ScopeName: scopeName}
		for _, p := range n.Params {
			sc.notePendingType(fileID, p.Type, n.rg)
		}
	case *VarDeclNode:
		key := n.Name
		if scopeName != "" {
			key = scopeName + "." + n.Name
		}
		sc.syms.Globals[key] = n
		sc.notePendingType(fileID, n.Type, n.rg)
	}
	return nil
}

func (sc *SymbolCollector) notePendingType(fileID FileID, t Type, rg Range) {
	if t.Kind == KindArray && t.Elem != nil {
		sc.notePendingType(fileID, *t.Elem, rg)
		return
	}
	if t.Name == "" {
		return
	}
	sc.syms.pendingMemberRefs = append(sc.syms.pendingMemberRefs, pendingRef{
		typeName: t.Name,
		loc:      sc.locFor(fileID, rg),
	})
}

func (sc *SymbolCollector) locFor(fileID FileID, rg Range) SourceLocation {
	if li, ok := sc.li[fileID]; ok {
		return SourceLocation{FileID: fileID, Span: li.Span(rg)}
	}
	return SourceLocation{FileID: fileID}
}

// checkBitmapOverlap enforces the §3 bitmap invariant that no two
// fields claim the same bit.
func (sc *SymbolCollector) checkBitmapOverlap(fileID FileID, n *BitmapDeclNode) {
	claimed := map[int]string{}
	for _, f := range n.Fields {
		for bit := f.Offset; bit < f.Offset+f.Width; bit++ {
			if owner, ok := claimed[bit]; ok {
				loc := sc.locFor(fileID, n.rg)
				sc.sink.ReportError(fmt.Sprintf("file#%d", fileID), NewCompileError(ErrBitmapOverlap, loc,
					"bitmap %s: field %s overlaps field %s at bit %d", n.Name, f.Name, owner, bit))
				continue
			}
			claimed[bit] = f.Name
		}
	}
}

// ResolvePending re-checks every nominal type reference noted during
// collection now that all files have been visited, reporting
// unknown-type for any name that never resolved to a struct, enum,
// bitmap, callback, scope or register declaration, or to a type merged
// in from a native header.
func (sc *SymbolCollector) ResolvePending() {
	for _, ref := range sc.syms.pendingMemberRefs {
		if sc.resolves(ref.typeName) {
			continue
		}
		err := NewCompileError(ErrUnknownType, ref.loc, "unknown type `%s`", ref.typeName)
		if hint, ok := NearestMatch(ref.typeName, sc.knownTypeNames()); ok {
			err = err.WithHint(fmt.Sprintf("did you mean `%s`?", hint))
		}
		sc.sink.ReportError("", err)
	}
}

// knownTypeNames lists every nominal type name the collector has seen
// so far, for NearestMatch's "did you mean" suggestion.
func (sc *SymbolCollector) knownTypeNames() []string {
	var names []string
	names = append(names, candidateNames(sc.syms.Structs)...)
	names = append(names, candidateNames(sc.syms.Enums)...)
	names = append(names, candidateNames(sc.syms.Bitmaps)...)
	names = append(names, candidateNames(sc.syms.Callbacks)...)
	names = append(names, candidateNames(sc.syms.Scopes)...)
	names = append(names, candidateNames(sc.syms.Registers)...)
	return names
}

func (sc *SymbolCollector) resolves(name string) bool {
	if _, ok := sc.syms.Structs[name]; ok {
		return true
	}
	if _, ok := sc.syms.Enums[name]; ok {
		return true
	}
	if _, ok := sc.syms.Bitmaps[name]; ok {
		return true
	}
	if _, ok := sc.syms.Callbacks[name]; ok {
		return true
	}
	if _, ok := sc.syms.Scopes[name]; ok {
		return true
	}
	if _, ok := sc.syms.Registers[name]; ok {
		return true
	}
	if sc.syms.ExternalTypes[name] {
		return true
	}
	return false
}

// Symbols returns the collected table. Call after ResolvePending.
func (sc *SymbolCollector) Symbols() *CodeGenSymbols { return sc.syms }
