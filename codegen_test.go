package cnext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCodeGenerator(syms *CodeGenSymbols, opt CodeGenOptions) *CodeGenerator {
	g := NewCodeGenerator(opt, syms, nil)
	g.src = newOutputWriter("    ")
	return g
}

func lengthRead(name string) *PostfixExprNode {
	return chainOf(NewIdentifierNode(name, Range{}), MemberOp{Name: "length"})
}

func TestGenArraySliceAssignEmitsMemcpy(t *testing.T) {
	syms := &CodeGenSymbols{
		Globals: map[string]*VarDeclNode{
			"buffer": NewVarDeclNode("buffer", Type{Kind: KindArray, Elem: &Type{Kind: KindU8}, Dims: []int{16}}, nil, Range{}),
		},
	}
	g := newTestCodeGenerator(syms, CodeGenOptions{})
	o := newOutputWriter("    ")

	target := chainOf(NewIdentifierNode("buffer", Range{}), SubscriptOp{Exprs: []AstNode{
		NewIntLiteralNode(0, KindUnknown, 10, Range{}),
		NewIntLiteralNode(4, KindUnknown, 10, Range{}),
	}})
	stmt := NewAssignStmt(target, AssignSet, NewIdentifierNode("source", Range{}), Range{})

	require.NoError(t, g.genAssignStmt(o, stmt))
	require.Contains(t, o.String(), "memcpy(&buffer[0], source, 4);")
}

func TestGenArraySliceAssignRejectsCompoundOperator(t *testing.T) {
	syms := &CodeGenSymbols{
		Globals: map[string]*VarDeclNode{
			"buffer": NewVarDeclNode("buffer", Type{Kind: KindArray, Elem: &Type{Kind: KindU8}, Dims: []int{16}}, nil, Range{}),
		},
	}
	g := newTestCodeGenerator(syms, CodeGenOptions{})
	o := newOutputWriter("    ")

	target := chainOf(NewIdentifierNode("buffer", Range{}), SubscriptOp{Exprs: []AstNode{
		NewIntLiteralNode(0, KindUnknown, 10, Range{}),
		NewIntLiteralNode(4, KindUnknown, 10, Range{}),
	}})
	stmt := NewAssignStmt(target, AssignAdd, NewIdentifierNode("source", Range{}), Range{})

	require.Error(t, g.genAssignStmt(o, stmt))
}

func TestGenStringCopyAssignBoundedEmitsStrncpyAndTerminator(t *testing.T) {
	syms := &CodeGenSymbols{
		Globals: map[string]*VarDeclNode{
			"name": NewVarDeclNode("name", Type{Kind: KindString, StringCapacity: 16}, nil, Range{}),
		},
	}
	g := newTestCodeGenerator(syms, CodeGenOptions{})
	o := newOutputWriter("    ")

	stmt := NewAssignStmt(NewIdentifierNode("name", Range{}), AssignSet, NewIdentifierNode("src", Range{}), Range{})
	require.NoError(t, g.genAssignStmt(o, stmt))

	out := o.String()
	require.Contains(t, out, "strncpy(name, src, 16);")
	require.Contains(t, out, "name[16] = '\\0';")
}

func TestGenStringCopyAssignUnboundedFallsBackToPointerAssign(t *testing.T) {
	syms := &CodeGenSymbols{
		Globals: map[string]*VarDeclNode{
			"name": NewVarDeclNode("name", Type{Kind: KindString}, nil, Range{}),
		},
	}
	g := newTestCodeGenerator(syms, CodeGenOptions{})
	o := newOutputWriter("    ")

	stmt := NewAssignStmt(NewIdentifierNode("name", Range{}), AssignSet, NewIdentifierNode("src", Range{}), Range{})
	require.NoError(t, g.genAssignStmt(o, stmt))

	out := o.String()
	require.Equal(t, "name = src;\n", out)
	require.NotContains(t, out, "strncpy")
}

func TestGenFuncDeclResolvesMemberChainThroughParameter(t *testing.T) {
	syms := &CodeGenSymbols{
		Structs: map[string]*StructSymbol{
			"Point": {Decl: NewStructDeclNode("Point", []StructField{
				{Name: "x", Type: Type{Kind: KindI32}},
			}, Range{})},
		},
		Globals: map[string]*VarDeclNode{},
	}
	g := newTestCodeGenerator(syms, CodeGenOptions{})

	fn := NewFuncDeclNode("touch", []Param{{Name: "p", Type: Type{Kind: KindStruct, Name: "Point", IsParameter: true}}}, Type{Kind: KindVoid},
		[]AstNode{
			NewAssignStmt(chainOf(NewIdentifierNode("p", Range{}), MemberOp{Name: "x"}), AssignSet, NewIntLiteralNode(1, KindUnknown, 10, Range{}), Range{}),
		}, Range{})

	require.NoError(t, g.genFuncDecl(fn, ""))
	require.Contains(t, g.src.String(), "p.x = 1;")
}

func TestGenFuncDeclHoistsLengthReadRepeatedAcrossIfConditionAndThenBranch(t *testing.T) {
	syms := &CodeGenSymbols{Globals: map[string]*VarDeclNode{}}
	g := newTestCodeGenerator(syms, CodeGenOptions{CacheStrlen: true})

	ifStmt := NewIfStmt(
		lengthRead("s"),
		NewBlockStmt([]AstNode{NewExprStmt(lengthRead("s"), Range{})}, Range{}),
		nil,
		Range{},
	)
	fn := NewFuncDeclNode("check", []Param{{Name: "s", Type: Type{Kind: KindString, IsParameter: true}}}, Type{Kind: KindVoid},
		[]AstNode{ifStmt}, Range{})

	require.NoError(t, g.genFuncDecl(fn, ""))
	out := g.src.String()
	require.Contains(t, out, "size_t __len_s_0 = strlen(s);")
	require.Equal(t, 1, countOccurrences(out, "strlen(s)"))
	require.GreaterOrEqual(t, countOccurrences(out, "__len_s_0"), 3) // decl + cond read + then-branch read
}

func TestGenFuncDeclDoesNotHoistLengthReadSeenOnlyOnce(t *testing.T) {
	syms := &CodeGenSymbols{Globals: map[string]*VarDeclNode{}}
	g := newTestCodeGenerator(syms, CodeGenOptions{CacheStrlen: true})

	whileStmt := NewWhileStmt(lengthRead("s"), NewBlockStmt(nil, Range{}), Range{})
	fn := NewFuncDeclNode("check", []Param{{Name: "s", Type: Type{Kind: KindString, IsParameter: true}}}, Type{Kind: KindVoid},
		[]AstNode{whileStmt}, Range{})

	require.NoError(t, g.genFuncDecl(fn, ""))
	out := g.src.String()
	require.NotContains(t, out, "size_t __len_s")
	require.Contains(t, out, "strlen(s)")
}

// TestGenBitAccessReadWriteAgreement is the §8 round-trip property: a
// write to a register bit range and a read of the same chain must
// compute identical mask/shift expressions.
func TestGenBitAccessReadWriteAgreement(t *testing.T) {
	syms := &CodeGenSymbols{
		Registers: map[string]*RegisterSymbol{
			"REG": {Decl: NewRegisterDeclNode("REG", nil, []RegisterMember{{Name: "ctrl", CType: "uint32_t"}}, Range{})},
		},
		Globals: map[string]*VarDeclNode{},
	}
	g := newTestCodeGenerator(syms, CodeGenOptions{})

	target := func() *PostfixExprNode {
		return chainOf(NewIdentifierNode("REG", Range{}), MemberOp{Name: "ctrl"}, SubscriptOp{Exprs: []AstNode{
			NewIntLiteralNode(4, KindUnknown, 10, Range{}),
			NewIntLiteralNode(7, KindUnknown, 10, Range{}),
		}})
	}

	wo := newOutputWriter("    ")
	writeStmt := NewAssignStmt(target(), AssignSet, NewIntLiteralNode(3, KindUnknown, 10, Range{}), Range{})
	require.NoError(t, g.genAssignStmt(wo, writeStmt))
	writeOut := wo.String()
	require.Contains(t, writeOut, "0xFU << 4")

	ro := newOutputWriter("    ")
	require.NoError(t, g.genExpr(ro, target()))
	readOut := ro.String()
	require.Contains(t, readOut, "0xFU)")
	require.Contains(t, readOut, ">> 4")
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
			i += len(substr) - 1
		}
	}
	return count
}
