package cnext

// AssignKind tags the lowering strategy an AssignStmt's target/op pair
// needs (§4.4). The constants are not listed in the order the
// classifier checks them; AssignmentClassifier documents that order. Each
// kind is handled by exactly one codegen_*.go emitter so adding a new
// target shape never means touching the existing ones.
type AssignKind int

const (
	AssignAtomicRMW AssignKind = iota
	AssignBitmapFieldSingleBit
	AssignBitmapFieldMultiBit
	AssignStructMemberBitmapField
	AssignRegisterBitSingle
	AssignRegisterBitRange
	AssignRegisterMemberSimple
	AssignOverflowClamp
	AssignStringCopy
	AssignArraySliceWrite
	AssignArrayElementWrite
	AssignStructMemberChain
	AssignStructFieldSimple
	AssignSimpleScalar
)

var assignKindNames = map[AssignKind]string{
	AssignAtomicRMW:                "ATOMIC_RMW",
	AssignBitmapFieldSingleBit:     "BITMAP_FIELD_SINGLE_BIT",
	AssignBitmapFieldMultiBit:      "BITMAP_FIELD_MULTI_BIT",
	AssignStructMemberBitmapField:  "STRUCT_MEMBER_BITMAP_FIELD",
	AssignRegisterBitSingle:        "REGISTER_BIT_SINGLE",
	AssignRegisterBitRange:         "REGISTER_BIT_RANGE",
	AssignRegisterMemberSimple:     "REGISTER_MEMBER_SIMPLE",
	AssignOverflowClamp:            "OVERFLOW_CLAMP",
	AssignStringCopy:               "STRING_COPY",
	AssignArraySliceWrite:          "ARRAY_SLICE_WRITE",
	AssignArrayElementWrite:        "ARRAY_ELEMENT_WRITE",
	AssignStructMemberChain:        "MEMBER_CHAIN",
	AssignStructFieldSimple:        "STRUCT_FIELD_SIMPLE",
	AssignSimpleScalar:             "SIMPLE",
}

func (k AssignKind) String() string { return assignKindNames[k] }

// ClassifiedAssign is the classifier's verdict for one AssignStmt: the
// lowering kind plus the resolved chain analysis the chosen emitter
// needs (bit offsets, register/bitmap names, declared var flags).
type ClassifiedAssign struct {
	Kind  AssignKind
	Chain *ChainAnalysis // nil when Target is a bare identifier
	Decl  *VarDeclNode   // the declared variable the target resolves to, if known
	Type  Type           // target's resolved static type (e.g. StringCapacity for STRING_COPY)
}

// AssignmentClassifier runs the §4.4 priority cascade: it resolves the
// target's member chain (if any) and the declared variable's
// atomic/clamp flags, then walks an ordered list of predicates,
// returning the first match. Order matters because a target can
// satisfy more than one predicate at once (e.g. an atomic register
// bit-range write). For a member chain: atomic first, then a string
// target reached through a scope-cross, struct-field or array-index
// step, then the bit/bitmap/register/slice/array kinds chosen by the
// last step; clamp applies to a chain only when its last step is a
// struct field. For a bare identifier: atomic, then clamp, then string
// copy, then the SIMPLE fallback.
type AssignmentClassifier struct {
	syms     *CodeGenSymbols
	analyzer *MemberChainAnalyzer
}

func NewAssignmentClassifier(syms *CodeGenSymbols) *AssignmentClassifier {
	return &AssignmentClassifier{syms: syms, analyzer: NewMemberChainAnalyzer(syms)}
}

// Classify resolves stmt.Target (a bare identifier or a member chain)
// and returns the lowering kind the code generator should use. locals
// is the enclosing function's parameter/local-variable type table (nil
// outside a function body), threaded through to the member-chain
// analyzer so a chain based on a parameter or local resolves instead of
// falling into the opaque-value fallback.
func (c *AssignmentClassifier) Classify(stmt *AssignStmt, locals map[string]Type) (*ClassifiedAssign, error) {
	switch target := stmt.Target.(type) {
	case *IdentifierNode:
		if decl := c.declFor(target.Value); decl != nil {
			return &ClassifiedAssign{Kind: c.classifyScalar(decl, stmt.Op), Decl: decl, Type: decl.Type}, nil
		}
		// Not a global: check the enclosing function's locals/
		// parameters, which carry a Type but no VarDeclNode (so only
		// the type-driven STRING_SIMPLE check applies, not the
		// atomic/clamp flags a global declaration can carry).
		if t, ok := locals[target.Value]; ok {
			if t.Kind == KindString {
				return &ClassifiedAssign{Kind: AssignStringCopy, Type: t}, nil
			}
			return &ClassifiedAssign{Kind: AssignSimpleScalar, Type: t}, nil
		}
		return &ClassifiedAssign{Kind: AssignSimpleScalar}, nil
	case *PostfixExprNode:
		chain, err := c.analyzer.Analyze(target, locals)
		if err != nil {
			return nil, err
		}
		return &ClassifiedAssign{Kind: c.classifyChain(chain, stmt.Op), Chain: chain, Type: chain.Type}, nil
	default:
		return &ClassifiedAssign{Kind: AssignSimpleScalar}, nil
	}
}

func (c *AssignmentClassifier) declFor(name string) *VarDeclNode {
	if v, ok := c.syms.Globals[name]; ok {
		return v
	}
	return nil
}

func (c *AssignmentClassifier) classifyScalar(decl *VarDeclNode, op AssignOp) AssignKind {
	if decl == nil {
		return AssignSimpleScalar
	}
	if decl.IsAtomic && op.IsCompound() {
		return AssignAtomicRMW
	}
	if decl.ClampOverflow && op.IsCompound() {
		return AssignOverflowClamp
	}
	if decl.Type.Kind == KindString {
		return AssignStringCopy
	}
	return AssignSimpleScalar
}

// classifyChain runs the priority cascade over a resolved member
// chain's trailing step, which is what the assignment actually writes
// through.
func (c *AssignmentClassifier) classifyChain(chain *ChainAnalysis, op AssignOp) AssignKind {
	if len(chain.Steps) == 0 {
		return AssignSimpleScalar
	}
	last := chain.Steps[len(chain.Steps)-1]

	// Priority 1: atomic overrides every other concern, since the RMW
	// lowering has to wrap whatever the target shape is.
	if c.chainIsAtomic(chain) && op.IsCompound() {
		return AssignAtomicRMW
	}

	// Priority 6: a bounded/unbounded string target (STRING_THIS_MEMBER,
	// STRING_GLOBAL, STRUCT_FIELD, STRUCT_ARRAY_ELEMENT) needs the
	// strncpy-plus-NUL lowering instead of a plain `=`, but only for the
	// step shapes a string can actually occupy — never a bit-access
	// step, which only ever addresses an integer container.
	if chain.Type.Kind == KindString {
		switch last.Kind {
		case StepScopeCross, StepStructField, StepArrayIndex:
			return AssignStringCopy
		}
	}

	switch last.Kind {
	case StepBitSingle:
		if c.crossesStructBeforeBitmap(chain) {
			return AssignStructMemberBitmapField
		}
		if c.chainIsRegisterBacked(chain) {
			return AssignRegisterBitSingle
		}
		return AssignBitmapFieldSingleBit
	case StepBitRange:
		if c.chainIsRegisterBacked(chain) {
			return AssignRegisterBitRange
		}
		return AssignBitmapFieldMultiBit
	case StepBitmapField:
		if c.crossesStructBeforeBitmap(chain) {
			return AssignStructMemberBitmapField
		}
		return AssignBitmapFieldSingleBit
	case StepRegisterMember:
		return AssignRegisterMemberSimple
	case StepArraySlice:
		return AssignArraySliceWrite
	case StepArrayIndex:
		return AssignArrayElementWrite
	case StepStructField:
		if c.declOf(chain) != nil && c.declOf(chain).ClampOverflow && op.IsCompound() {
			return AssignOverflowClamp
		}
		if len(chain.Steps) > 1 {
			return AssignStructMemberChain
		}
		return AssignStructFieldSimple
	case StepScopeCross:
		return AssignStructMemberChain
	default:
		return AssignSimpleScalar
	}
}

func (c *AssignmentClassifier) chainIsAtomic(chain *ChainAnalysis) bool {
	if chain.BaseName == "" {
		return false
	}
	if v, ok := c.syms.Globals[chain.BaseName]; ok {
		return v.IsAtomic
	}
	return false
}

func (c *AssignmentClassifier) declOf(chain *ChainAnalysis) *VarDeclNode {
	if v, ok := c.syms.Globals[chain.BaseName]; ok {
		return v
	}
	return nil
}

func (c *AssignmentClassifier) chainIsRegisterBacked(chain *ChainAnalysis) bool {
	return chain.IsRegisterAccess
}

// crossesStructBeforeBitmap reports whether the chain reaches a
// bitmap field through an intervening struct field (struct.field.bit),
// which needs the STRUCT_MEMBER_BITMAP_FIELD lowering so the struct
// member's address is taken before the bitmap mask/shift is applied.
func (c *AssignmentClassifier) crossesStructBeforeBitmap(chain *ChainAnalysis) bool {
	sawStruct := false
	for _, s := range chain.Steps {
		if s.Kind == StepStructField {
			sawStruct = true
		}
		if (s.Kind == StepBitmapField || s.Kind == StepBitSingle) && sawStruct {
			return true
		}
	}
	return false
}
