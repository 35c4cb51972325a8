package cnext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyAtomicGlobalCompoundAssign(t *testing.T) {
	decl := NewVarDeclNode("counter", Type{Kind: KindU32}, nil, Range{})
	decl.IsAtomic = true
	syms := &CodeGenSymbols{Globals: map[string]*VarDeclNode{"counter": decl}}
	clsf := NewAssignmentClassifier(syms)

	stmt := NewAssignStmt(NewIdentifierNode("counter", Range{}), AssignAdd, NewIntLiteralNode(1, KindUnknown, 10, Range{}), Range{})
	ca, err := clsf.Classify(stmt, nil)
	require.NoError(t, err)
	require.Equal(t, AssignAtomicRMW, ca.Kind)
}

func TestClassifyOverflowClampGlobalCompoundAssign(t *testing.T) {
	decl := NewVarDeclNode("level", Type{Kind: KindU8}, nil, Range{})
	decl.ClampOverflow = true
	syms := &CodeGenSymbols{Globals: map[string]*VarDeclNode{"level": decl}}
	clsf := NewAssignmentClassifier(syms)

	stmt := NewAssignStmt(NewIdentifierNode("level", Range{}), AssignAdd, NewIntLiteralNode(1, KindUnknown, 10, Range{}), Range{})
	ca, err := clsf.Classify(stmt, nil)
	require.NoError(t, err)
	require.Equal(t, AssignOverflowClamp, ca.Kind)
}

func TestClassifyPlainGlobalScalarAssign(t *testing.T) {
	decl := NewVarDeclNode("total", Type{Kind: KindI32}, nil, Range{})
	syms := &CodeGenSymbols{Globals: map[string]*VarDeclNode{"total": decl}}
	clsf := NewAssignmentClassifier(syms)

	stmt := NewAssignStmt(NewIdentifierNode("total", Range{}), AssignSet, NewIntLiteralNode(1, KindUnknown, 10, Range{}), Range{})
	ca, err := clsf.Classify(stmt, nil)
	require.NoError(t, err)
	require.Equal(t, AssignSimpleScalar, ca.Kind)
}

func TestClassifyBoundedStringGlobalReassignIsStringCopy(t *testing.T) {
	decl := NewVarDeclNode("name", Type{Kind: KindString, StringCapacity: 16}, nil, Range{})
	syms := &CodeGenSymbols{Globals: map[string]*VarDeclNode{"name": decl}}
	clsf := NewAssignmentClassifier(syms)

	stmt := NewAssignStmt(NewIdentifierNode("name", Range{}), AssignSet, NewIdentifierNode("other", Range{}), Range{})
	ca, err := clsf.Classify(stmt, nil)
	require.NoError(t, err)
	require.Equal(t, AssignStringCopy, ca.Kind)
	require.Equal(t, 16, ca.Type.StringCapacity)
}

// TestClassifyLocalStringParameterReassignIsStringCopy guards against the
// regression this was written for: a bare identifier whose only type
// information comes from the enclosing function's locals/parameter
// table (no matching global) must still classify as STRING_COPY
// instead of silently falling back to SIMPLE.
func TestClassifyLocalStringParameterReassignIsStringCopy(t *testing.T) {
	syms := &CodeGenSymbols{Globals: map[string]*VarDeclNode{}}
	clsf := NewAssignmentClassifier(syms)
	locals := map[string]Type{"label": {Kind: KindString, StringCapacity: 8}}

	stmt := NewAssignStmt(NewIdentifierNode("label", Range{}), AssignSet, NewIdentifierNode("other", Range{}), Range{})
	ca, err := clsf.Classify(stmt, locals)
	require.NoError(t, err)
	require.Equal(t, AssignStringCopy, ca.Kind)
	require.Equal(t, 8, ca.Type.StringCapacity)
}

func TestClassifyLocalNonStringParameterReassignIsSimple(t *testing.T) {
	syms := &CodeGenSymbols{Globals: map[string]*VarDeclNode{}}
	clsf := NewAssignmentClassifier(syms)
	locals := map[string]Type{"count": {Kind: KindI32}}

	stmt := NewAssignStmt(NewIdentifierNode("count", Range{}), AssignSet, NewIntLiteralNode(1, KindUnknown, 10, Range{}), Range{})
	ca, err := clsf.Classify(stmt, locals)
	require.NoError(t, err)
	require.Equal(t, AssignSimpleScalar, ca.Kind)
}

func TestClassifyMemberChainThroughLocalParameterIsStructField(t *testing.T) {
	syms := &CodeGenSymbols{
		Structs: map[string]*StructSymbol{
			"Point": {Decl: NewStructDeclNode("Point", []StructField{
				{Name: "x", Type: Type{Kind: KindI32}},
			}, Range{})},
		},
		Globals: map[string]*VarDeclNode{},
	}
	clsf := NewAssignmentClassifier(syms)
	locals := map[string]Type{"p": {Kind: KindStruct, Name: "Point"}}

	target := chainOf(NewIdentifierNode("p", Range{}), MemberOp{Name: "x"})
	stmt := NewAssignStmt(target, AssignSet, NewIntLiteralNode(1, KindUnknown, 10, Range{}), Range{})
	ca, err := clsf.Classify(stmt, locals)
	require.NoError(t, err)
	require.Equal(t, AssignStructFieldSimple, ca.Kind)
}

func TestClassifyStructStringFieldAssignIsStringCopy(t *testing.T) {
	syms := &CodeGenSymbols{
		Structs: map[string]*StructSymbol{
			"Device": {Decl: NewStructDeclNode("Device", []StructField{
				{Name: "label", Type: Type{Kind: KindString, StringCapacity: 12}},
			}, Range{})},
		},
		Globals: map[string]*VarDeclNode{
			"dev": NewVarDeclNode("dev", Type{Kind: KindStruct, Name: "Device"}, nil, Range{}),
		},
	}
	clsf := NewAssignmentClassifier(syms)

	target := chainOf(NewIdentifierNode("dev", Range{}), MemberOp{Name: "label"})
	stmt := NewAssignStmt(target, AssignSet, NewIdentifierNode("src", Range{}), Range{})
	ca, err := clsf.Classify(stmt, nil)
	require.NoError(t, err)
	require.Equal(t, AssignStringCopy, ca.Kind)
	require.Equal(t, 12, ca.Type.StringCapacity)
}

func TestClassifyArraySliceWrite(t *testing.T) {
	syms := &CodeGenSymbols{
		Globals: map[string]*VarDeclNode{
			"buffer": NewVarDeclNode("buffer", Type{Kind: KindArray, Elem: &Type{Kind: KindU8}, Dims: []int{16}}, nil, Range{}),
		},
	}
	clsf := NewAssignmentClassifier(syms)

	target := chainOf(NewIdentifierNode("buffer", Range{}), SubscriptOp{Exprs: []AstNode{
		NewIntLiteralNode(0, KindUnknown, 10, Range{}),
		NewIntLiteralNode(4, KindUnknown, 10, Range{}),
	}})
	stmt := NewAssignStmt(target, AssignSet, NewIdentifierNode("src", Range{}), Range{})
	ca, err := clsf.Classify(stmt, nil)
	require.NoError(t, err)
	require.Equal(t, AssignArraySliceWrite, ca.Kind)
}

func TestClassifyRegisterBitSingleWrite(t *testing.T) {
	syms := &CodeGenSymbols{
		Registers: map[string]*RegisterSymbol{
			"REG": {Decl: NewRegisterDeclNode("REG", nil, []RegisterMember{{Name: "ctrl", CType: "uint32_t"}}, Range{})},
		},
		Globals: map[string]*VarDeclNode{},
	}
	clsf := NewAssignmentClassifier(syms)

	target := chainOf(NewIdentifierNode("REG", Range{}), MemberOp{Name: "ctrl"}, SubscriptOp{Exprs: []AstNode{
		NewIntLiteralNode(3, KindUnknown, 10, Range{}),
	}})
	stmt := NewAssignStmt(target, AssignSet, NewIntLiteralNode(1, KindUnknown, 10, Range{}), Range{})
	ca, err := clsf.Classify(stmt, nil)
	require.NoError(t, err)
	require.Equal(t, AssignRegisterBitSingle, ca.Kind)
}
