package cnext

import "fmt"

// formatCType renders a C-Next Type as the C/C++ type name it maps to
// (§8 "type-suffix mapping" property: every uN/iN/fN declaration maps
// here unconditionally regardless of position). Nominal types
// (struct/enum/bitmap/callback/scope) rely on header_gen.go always
// typedef'ing the bare name, so the same string works in both C and
// C++ translation units.
func formatCType(t Type, cpp bool) string {
	switch t.Kind {
	case KindString:
		if t.StringCapacity > 0 {
			return "char" // capacity folded into the array-dims suffix
		}
		if t.IsParameter {
			return "const char *"
		}
		return "char *"
	case KindArray:
		if t.Elem != nil {
			return formatCType(*t.Elem, cpp)
		}
		return "void"
	case KindStruct, KindBitmap, KindEnum, KindCallback, KindRegister, KindScope:
		return t.Name
	default:
		if c := CType(t.Kind); c != "" {
			return c
		}
		return "void"
	}
}

// formatArrayDims renders the trailing `[N][M]` (or `[cap+1]` for a
// bounded string) a declaration needs, empty for non-array/non-string
// types. Parameters never get array-dim suffixes: formatParam renders
// an array or bounded-string parameter with an empty `[]`, and
// formatCType's IsParameter branch renders an unbounded string
// parameter as `const char *`.
func formatArrayDims(t Type) string {
	if t.IsParameter {
		return ""
	}
	if t.Kind == KindString && t.StringCapacity > 0 {
		return fmt.Sprintf("[%d]", t.StringCapacity+1)
	}
	if t.Kind != KindArray {
		return ""
	}
	var out string
	for i, d := range t.Dims {
		if d >= 0 {
			out += fmt.Sprintf("[%d]", d)
		} else {
			out += fmt.Sprintf("[%s]", t.DimIdents[i])
		}
	}
	return out
}

// formatVarDeclPrefix renders the const/volatile storage-qualifier
// prefix for a variable declaration; atomic and clamp-overflow are
// lowering strategies (§4.4), not C storage qualifiers, so they never
// appear here.
func formatVarDeclPrefix(n *VarDeclNode) string {
	prefix := ""
	if n.IsConst {
		prefix += "const "
	}
	if n.IsVolatile {
		prefix += "volatile "
	}
	return prefix
}

// formatParamList renders a function/callback's parameter list,
// `(void)` for a no-argument C function so the prototype stays
// unambiguous under strict C (§4.9).
func formatParamList(params []Param, cpp bool) string {
	if len(params) == 0 {
		if cpp {
			return "()"
		}
		return "(void)"
	}
	out := "("
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += formatParam(p, cpp)
	}
	out += ")"
	return out
}

func formatParam(p Param, cpp bool) string {
	ct := formatCType(p.Type, cpp)
	if p.Type.IsArray() && p.Type.Elem != nil {
		return fmt.Sprintf("%s %s[]", formatCType(*p.Type.Elem, cpp), p.Name)
	}
	if p.Type.Kind == KindString && p.Type.StringCapacity > 0 {
		return fmt.Sprintf("%s %s[]", ct, p.Name)
	}
	return fmt.Sprintf("%s %s", ct, p.Name)
}

// formatPrototype renders a full function prototype line (used by
// the header generator's prototype list; the source generator does
// not emit forward declarations).
func formatPrototype(name string, params []Param, ret Type, cpp bool) string {
	return fmt.Sprintf("%s %s%s", formatCType(ret, cpp), name, formatParamList(params, cpp))
}

// genTemplateConcat lowers a backtick template string's literal/${expr}
// parts into a call to the cnext_fmt runtime helper (header_gen.go's
// emitted runtime snippet), since C has no string concatenation
// operator. Each interpolated part picks a printf conversion from a
// best-effort guess at the expression's node kind; a full type checker
// would resolve this exactly, but the §2 Non-goals explicitly scope
// out static type checking beyond what codegen itself needs.
func (g *CodeGenerator) genTemplateConcat(o *outputWriter, n *StringLiteralNode) error {
	format := ""
	var exprs []AstNode
	for _, part := range n.Parts {
		if part.Expr == nil {
			format += escapeFormatLiteral(part.Literal)
			continue
		}
		format += conversionFor(part.Expr)
		exprs = append(exprs, part.Expr)
	}
	o.write(fmt.Sprintf("cnext_fmt(%s", strconvQuote(format)))
	for _, e := range exprs {
		o.write(", ")
		if err := g.genExpr(o, e); err != nil {
			return err
		}
	}
	o.write(")")
	return nil
}

func strconvQuote(s string) string { return `"` + s + `"` }

func escapeFormatLiteral(s string) string {
	out := ""
	for _, r := range s {
		switch r {
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		case '%':
			out += "%%"
		case '\n':
			out += `\n`
		default:
			out += string(r)
		}
	}
	return out
}

// conversionFor guesses a printf conversion specifier for an
// interpolated expression based on its literal/identifier shape.
func conversionFor(e AstNode) string {
	switch n := e.(type) {
	case *FloatLiteralNode:
		return "%f"
	case *CharLiteralNode:
		return "%c"
	case *StringLiteralNode:
		return "%s"
	case *BoolLiteralNode:
		return "%d"
	case *UnaryExprNode:
		return conversionFor(n.Expr)
	default:
		return "%d"
	}
}
