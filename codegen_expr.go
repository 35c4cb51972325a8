package cnext

import (
	"fmt"
	"strconv"
)

// genExpr writes the C/C++ rendering of an expression node to o. Bit
// single/range reads go through the same ChainAnalysis the assignment
// classifier uses for writes, so a read and a write of `reg.flags[3]`
// always agree on the mask/shift (§8's read/write agreement property).
func (g *CodeGenerator) genExpr(o *outputWriter, expr AstNode) error {
	switch n := expr.(type) {
	case *BinaryExprNode:
		return g.genBinaryExpr(o, n)
	case *TernaryExprNode:
		o.write("(")
		if err := g.genExpr(o, n.Cond); err != nil {
			return err
		}
		o.write(" ? ")
		if err := g.genExpr(o, n.Then); err != nil {
			return err
		}
		o.write(" : ")
		if err := g.genExpr(o, n.Else); err != nil {
			return err
		}
		o.write(")")
		return nil
	case *UnaryExprNode:
		o.write(n.Op.String())
		return g.genExpr(o, n.Expr)
	case *PostfixExprNode:
		return g.genPostfixRead(o, n)
	case *IdentifierNode:
		o.write(n.Value)
		return nil
	case *ThisNode:
		o.write("this")
		return nil
	case *GlobalNode:
		o.write("") // bare `global` only ever appears as a PostfixExprNode base
		return nil
	case *IntLiteralNode:
		o.write(formatIntLiteral(n))
		return nil
	case *FloatLiteralNode:
		o.write(strconv.FormatFloat(n.Value, 'g', -1, 64))
		if n.Suffix == KindF32 {
			o.write("f")
		}
		return nil
	case *BoolLiteralNode:
		if n.Value {
			o.write("true")
		} else {
			o.write("false")
		}
		return nil
	case *CharLiteralNode:
		o.write(formatCharLiteral(n.Value))
		return nil
	case *StringLiteralNode:
		return g.genStringLiteral(o, n)
	case *CallExprNode:
		return g.genCallExpr(o, n)
	default:
		return fmt.Errorf("codegen: unsupported expression node %T", expr)
	}
}

func (g *CodeGenerator) genBinaryExpr(o *outputWriter, n *BinaryExprNode) error {
	o.write("(")
	if err := g.genExpr(o, n.Left); err != nil {
		return err
	}
	o.write(" ")
	o.write(n.Op.String())
	o.write(" ")
	if err := g.genExpr(o, n.Right); err != nil {
		return err
	}
	o.write(")")
	return nil
}

func (g *CodeGenerator) genCallExpr(o *outputWriter, n *CallExprNode) error {
	if err := g.genExpr(o, n.Callee); err != nil {
		return err
	}
	o.write("(")
	for i, a := range n.Args {
		if i > 0 {
			o.write(", ")
		}
		if err := g.genExpr(o, a); err != nil {
			return err
		}
	}
	o.write(")")
	return nil
}

// genPostfixRead renders a member-access/subscript chain for read
// position. Plain member/array-index steps render as straightforward
// `.`/`[]` chains; bit-single and bit-range steps render as a
// shift-and-mask expression derived from the resolved chain, mirroring
// the write-side lowering in codegen_stmt.go so a round trip through
// bit N reads back exactly what was written there (§8).
func (g *CodeGenerator) genPostfixRead(o *outputWriter, n *PostfixExprNode) error {
	analyzed := n
	if k := len(n.Ops); k > 0 {
		if m, ok := n.Ops[k-1].(MemberOp); ok && m.Name == "length" {
			// genLengthRead lowers the trailing `.length` itself; only the
			// chain before it goes through the analyzer.
			analyzed = NewPostfixExprNode(n.Base, n.Ops[:k-1], n.rg)
		}
	}
	chain, err := NewMemberChainAnalyzer(g.syms).Analyze(analyzed, g.locals)
	if err != nil {
		return err
	}
	if handled, err := g.genLengthRead(o, n, chain); handled {
		return err
	}
	for i, step := range chain.Steps {
		if step.Kind == StepBitSingle || step.Kind == StepBitRange {
			return g.genBitReadExpr(o, n, chain, i)
		}
	}
	return g.genPlainPostfix(o, n)
}

// genPlainPostfix renders a chain with no bit-access steps as literal
// `.`/`[...]`/`(...)` C syntax, re-resolving the chain so a leading
// scope-cross step (this.x / global.x / Scope.x) flattens to C's
// prefixed ScopeName_x symbol rather than a literal (and invalid)
// dotted access.
func (g *CodeGenerator) genPlainPostfix(o *outputWriter, n *PostfixExprNode) error {
	chain, err := NewMemberChainAnalyzer(g.syms).Analyze(n, g.locals)
	if err != nil {
		return err
	}
	return g.genChainPrefix(o, n, chain, len(n.Ops))
}

// genLengthRead lowers §4.8's `*.length` read: a trailing `.length`
// member access has no C struct/array equivalent, so it's handled here
// instead of falling into genChainPrefix's literal `.`-member
// rendering (which would emit invalid C like `s.length` for an array).
// handled is false for every other chain shape. The simple case — a
// bare identifier immediately followed by `.length`, nothing else in
// the chain — prefers a cached strlen temporary (codegen_strlen.go) if
// the enclosing statement hoisted one; every other case (a `.length`
// reached through a longer chain, or with no cache hoisted) falls back
// to calling strlen() directly on the rendered prefix.
func (g *CodeGenerator) genLengthRead(o *outputWriter, n *PostfixExprNode, chain *ChainAnalysis) (handled bool, err error) {
	if len(n.Ops) == 0 {
		return false, nil
	}
	last, ok := n.Ops[len(n.Ops)-1].(MemberOp)
	if !ok || last.Name != "length" {
		return false, nil
	}
	if len(n.Ops) == 1 {
		if id, ok := n.Base.(*IdentifierNode); ok {
			if v, ok := g.strlen.lookup(id.Value); ok {
				o.write(v)
				return true, nil
			}
		}
	}
	o.write("strlen(")
	if err := g.genChainPrefix(o, n, chain, len(n.Ops)-1); err != nil {
		return true, err
	}
	o.write(")")
	return true, nil
}

// genBitReadExpr renders `(container >> lo) & mask` for a single-bit
// or bit-range read, where `container` is everything in the chain up
// to (but not including) the bit-access subscript.
func (g *CodeGenerator) genBitReadExpr(o *outputWriter, n *PostfixExprNode, chain *ChainAnalysis, stepIdx int) error {
	bitStep := chain.Steps[stepIdx]
	lo, hi, err := bitRangeBounds(bitStep)
	if err != nil {
		return err
	}
	width := hi - lo + 1
	mask := (uint64(1) << uint(width)) - 1

	o.write("((")
	if err := g.genContainerPrefix(o, n, chain, stepIdx); err != nil {
		return err
	}
	o.write(fmt.Sprintf(" >> %d) & 0x%XU)", lo, mask))
	return nil
}

// genContainerPrefix re-emits the base plus every op strictly before
// the bit-access step, i.e. the integer container the bits live in.
func (g *CodeGenerator) genContainerPrefix(o *outputWriter, n *PostfixExprNode, chain *ChainAnalysis, stepIdx int) error {
	return g.genChainPrefix(o, n, chain, stepIdx)
}

// genChainPrefix renders n.Base plus n.Ops[:limit], using chain.Steps
// (already computed 1:1 with n.Ops by the Member-Chain Analyzer) to
// tell a scope-crossing first step apart from an ordinary field/array
// access. A scope-crossing step emits its flattened ScopeName_member
// identifier instead of the base text plus a literal `.member`.
func (g *CodeGenerator) genChainPrefix(o *outputWriter, n *PostfixExprNode, chain *ChainAnalysis, limit int) error {
	start := 0
	if limit > 0 && chain.Steps[0].Kind == StepScopeCross {
		o.write(g.scopeCrossCName(chain, chain.Steps[0].Name))
		start = 1
	} else if err := g.genExpr(o, n.Base); err != nil {
		return err
	}
	for i := start; i < limit; i++ {
		switch v := n.Ops[i].(type) {
		case MemberOp:
			o.write(".")
			o.write(v.Name)
		case SubscriptOp:
			for _, e := range v.Exprs {
				o.write("[")
				if err := g.genExpr(o, e); err != nil {
					return err
				}
				o.write("]")
			}
		case CallOp:
			o.write("(")
			for j, a := range v.Args {
				if j > 0 {
					o.write(", ")
				}
				if err := g.genExpr(o, a); err != nil {
					return err
				}
			}
			o.write(")")
		}
	}
	return nil
}

// scopeCrossCName flattens a scope-crossing chain step to its emitted
// C identifier: ScopeName_member for an identifier-qualified or
// this/global-qualified scope member, bare member for a top-level
// (unscoped) global.
func (g *CodeGenerator) scopeCrossCName(chain *ChainAnalysis, member string) string {
	scope := chain.BaseName
	if chain.BaseKind != ChainBaseIdentifier {
		scope = g.currentScope
	}
	if scope == "" {
		return member
	}
	return scope + "_" + member
}

func bitRangeBounds(step ChainStep) (lo, hi int, err error) {
	ints := make([]int64, 0, len(step.Exprs))
	for _, e := range step.Exprs {
		lit, ok := e.(*IntLiteralNode)
		if !ok {
			return 0, 0, fmt.Errorf("bit index/range must be a constant integer")
		}
		ints = append(ints, lit.Value)
	}
	switch len(ints) {
	case 1:
		return int(ints[0]), int(ints[0]), nil
	case 2:
		if ints[0] <= ints[1] {
			return int(ints[0]), int(ints[1]), nil
		}
		return int(ints[1]), int(ints[0]), nil
	default:
		return 0, 0, fmt.Errorf("bit subscript takes one or two indices, got %d", len(ints))
	}
}

func formatIntLiteral(n *IntLiteralNode) string {
	switch n.Base {
	case 16:
		return fmt.Sprintf("0x%X", n.Value)
	case 2:
		return fmt.Sprintf("%d /* 0b literal */", n.Value)
	default:
		return strconv.FormatInt(n.Value, 10)
	}
}

func formatCharLiteral(r rune) string {
	switch r {
	case '\n':
		return "'\\n'"
	case '\t':
		return "'\\t'"
	case '\r':
		return "'\\r'"
	case '\\':
		return "'\\\\'"
	case '\'':
		return "'\\''"
	default:
		return "'" + string(r) + "'"
	}
}

// genStringLiteral renders a plain string literal directly; a
// template string with ${...} interpolation parts lowers to a
// cnext_fmt(...) call (genTemplateConcat), whose runtime helper
// formats into a static 256-byte buffer with vsnprintf, since C has
// no native string concatenation operator (§4.3).
func (g *CodeGenerator) genStringLiteral(o *outputWriter, n *StringLiteralNode) error {
	if len(n.Parts) == 1 && n.Parts[0].Expr == nil {
		o.write(strconv.Quote(n.Parts[0].Literal))
		return nil
	}
	return g.genTemplateConcat(o, n)
}
