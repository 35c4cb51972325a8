package cnext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func chainOf(base AstNode, ops ...PostfixOp) *PostfixExprNode {
	return NewPostfixExprNode(base, ops, Range{})
}

func TestMemberChainResolvesLocalParameterOverGlobal(t *testing.T) {
	syms := &CodeGenSymbols{
		Structs: map[string]*StructSymbol{
			"Point": {Decl: NewStructDeclNode("Point", []StructField{
				{Name: "x", Type: Type{Kind: KindI32}},
			}, Range{})},
		},
		Globals: map[string]*VarDeclNode{
			// A same-named global of a different type: the local
			// parameter must shadow this, not the other way around.
			"p": NewVarDeclNode("p", Type{Kind: KindU8}, nil, Range{}),
		},
	}
	an := NewMemberChainAnalyzer(syms)
	locals := map[string]Type{"p": {Kind: KindStruct, Name: "Point"}}

	chain, err := an.Analyze(chainOf(NewIdentifierNode("p", Range{}), MemberOp{Name: "x"}), locals)
	require.NoError(t, err)
	require.Equal(t, ChainBaseIdentifier, chain.BaseKind)
	require.Len(t, chain.Steps, 1)
	require.Equal(t, StepStructField, chain.Steps[0].Kind)
	require.Equal(t, KindI32, chain.Type.Kind)
}

func TestMemberChainFallsBackToGlobalWhenNoLocalShadows(t *testing.T) {
	syms := &CodeGenSymbols{
		Structs: map[string]*StructSymbol{
			"Point": {Decl: NewStructDeclNode("Point", []StructField{
				{Name: "x", Type: Type{Kind: KindI32}},
			}, Range{})},
		},
		Globals: map[string]*VarDeclNode{
			"origin": NewVarDeclNode("origin", Type{Kind: KindStruct, Name: "Point"}, nil, Range{}),
		},
	}
	an := NewMemberChainAnalyzer(syms)

	chain, err := an.Analyze(chainOf(NewIdentifierNode("origin", Range{}), MemberOp{Name: "x"}), nil)
	require.NoError(t, err)
	require.Equal(t, StepStructField, chain.Steps[0].Kind)
}

func TestMemberChainUnresolvedIdentifierFallsBackToOpaqueValue(t *testing.T) {
	syms := &CodeGenSymbols{Globals: map[string]*VarDeclNode{}}
	an := NewMemberChainAnalyzer(syms)

	chain, err := an.Analyze(chainOf(NewIdentifierNode("mystery", Range{}), CallOp{}), nil)
	require.NoError(t, err)
	require.Equal(t, KindUnknown, chain.Type.Kind)
}

func TestMemberChainRegisterBitSingleSetsRegisterAccess(t *testing.T) {
	syms := &CodeGenSymbols{
		Registers: map[string]*RegisterSymbol{
			"REG": {Decl: NewRegisterDeclNode("REG", nil, []RegisterMember{
				{Name: "ctrl", CType: "uint32_t"},
			}, Range{})},
		},
	}
	an := NewMemberChainAnalyzer(syms)

	chain, err := an.Analyze(chainOf(
		NewIdentifierNode("REG", Range{}),
		MemberOp{Name: "ctrl"},
		SubscriptOp{Exprs: []AstNode{NewIntLiteralNode(3, KindUnknown, 10, Range{})}},
	), nil)
	require.NoError(t, err)
	require.True(t, chain.IsRegisterAccess)
	require.Equal(t, []ChainStepKind{StepRegisterMember, StepBitSingle}, []ChainStepKind{chain.Steps[0].Kind, chain.Steps[1].Kind})
}

func TestMemberChainArraySliceTwoIndices(t *testing.T) {
	syms := &CodeGenSymbols{
		Globals: map[string]*VarDeclNode{
			"buffer": NewVarDeclNode("buffer", Type{
				Kind: KindArray,
				Elem: &Type{Kind: KindU8},
				Dims: []int{16},
			}, nil, Range{}),
		},
	}
	an := NewMemberChainAnalyzer(syms)

	chain, err := an.Analyze(chainOf(
		NewIdentifierNode("buffer", Range{}),
		SubscriptOp{Exprs: []AstNode{
			NewIntLiteralNode(0, KindUnknown, 10, Range{}),
			NewIntLiteralNode(4, KindUnknown, 10, Range{}),
		}},
	), nil)
	require.NoError(t, err)
	require.Equal(t, StepArraySlice, chain.Steps[0].Kind)
	require.Len(t, chain.Steps[0].Exprs, 2)
}
