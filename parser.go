package cnext

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser builds an AST from a token stream using recursive descent,
// the same top-down structure as the teacher's ParseGrammar/ParseImport
// methods (grammar_parser.go), adapted from PEG backtracking over
// runes to straightforward LL(1)/LL(2) lookahead over a pre-lexed
// token buffer, since C-Next's grammar doesn't need PEG's ordered
// choice or memoization.
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser { return &Parser{tokens: tokens} }

// ParseSource tokenizes and parses a complete .cnx/.cnext source
// string in one call.
func ParseSource(src string) (*FileNode, error) {
	toks, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(toks).ParseFile()
}

func (p *Parser) cur() Token  { return p.tokens[p.pos] }
func (p *Parser) at(k TokenKind) bool { return p.cur().Kind == k }
func (p *Parser) atAny(ks ...TokenKind) bool {
	for _, k := range ks {
		if p.at(k) {
			return true
		}
	}
	return false
}

func (p *Parser) peekN(n int) Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k TokenKind) (Token, error) {
	if !p.at(k) {
		return Token{}, fmt.Errorf("offset %d: expected %s, got %s %q", p.cur().Rg.Start, tokenKindNames[k], tokenKindNames[p.cur().Kind], p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) rangeFrom(start Token) Range {
	return Range{Start: start.Rg.Start, End: p.tokens[max(0, p.pos-1)].Rg.End}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ---- top level ----

func (p *Parser) ParseFile() (*FileNode, error) {
	start := p.cur()
	var includes []*IncludeNode
	var decls []AstNode
	for !p.at(TokEOF) {
		if p.at(TokHash) {
			inc, err := p.parseInclude()
			if err != nil {
				return nil, err
			}
			includes = append(includes, inc)
			continue
		}
		d, err := p.parseTopLevelDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return NewFileNode(includes, decls, p.rangeFrom(start)), nil
}

func (p *Parser) parseInclude() (*IncludeNode, error) {
	start := p.cur()
	if _, err := p.expect(TokHash); err != nil {
		return nil, err
	}
	kw, err := p.expect(TokIdent)
	if err != nil || kw.Text != "include" {
		return nil, fmt.Errorf("offset %d: expected `include` after `#`", start.Rg.Start)
	}
	isSystem := false
	var path string
	switch {
	case p.at(TokLt):
		p.advance()
		var sb strings.Builder
		for !p.at(TokGt) && !p.at(TokEOF) {
			sb.WriteString(p.advance().Text)
		}
		if _, err := p.expect(TokGt); err != nil {
			return nil, err
		}
		isSystem = true
		path = sb.String()
	case p.at(TokString):
		path = p.advance().Text
	default:
		return nil, fmt.Errorf("offset %d: expected `<path>` or \"path\" after #include", p.cur().Rg.Start)
	}
	return NewIncludeNode(path, isSystem, p.rangeFrom(start)), nil
}

func (p *Parser) parseVisibility() Visibility {
	if p.at(TokPublic) {
		p.advance()
		return VisibilityPublic
	}
	if p.at(TokPrivate) {
		p.advance()
		return VisibilityPrivate
	}
	return VisibilityPublic
}

func (p *Parser) parseTopLevelDecl() (AstNode, error) {
	switch {
	case p.at(TokStruct):
		return p.parseStructDecl()
	case p.at(TokEnum):
		return p.parseEnumDecl()
	case p.at(TokBitmap):
		return p.parseBitmapDecl()
	case p.at(TokRegister):
		return p.parseRegisterDecl()
	case p.at(TokCallback):
		return p.parseCallbackDecl()
	case p.at(TokScope):
		return p.parseScopeDecl()
	case p.at(TokPublic) || p.at(TokPrivate):
		vis := p.parseVisibility()
		return p.parseFuncOrVarDecl(vis)
	default:
		return p.parseFuncOrVarDecl(VisibilityPublic)
	}
}

// ---- types ----

func (p *Parser) parseType() (Type, error) {
	if p.at(TokIdent) && p.cur().Text == "string" {
		p.advance()
		cap := 0
		if p.at(TokLt) {
			p.advance()
			n, err := p.expect(TokInt)
			if err != nil {
				return Type{}, err
			}
			cap64, _ := strconv.ParseInt(n.Text, 0, 64)
			cap = int(cap64)
			if _, err := p.expect(TokGt); err != nil {
				return Type{}, err
			}
		}
		return p.parseArraySuffix(Type{Kind: KindString, StringCapacity: cap})
	}
	if p.at(TokIdent) {
		if k, ok := PrimitiveKindBySuffix(p.cur().Text); ok {
			p.advance()
			return p.parseArraySuffix(Type{Kind: k})
		}
		// Nominal type: struct/enum/bitmap/callback/scope name. Exact
		// kind is refined later by the symbol collector (§4.2); the
		// parser only records the name.
		name := p.advance().Text
		return p.parseArraySuffix(Type{Kind: KindStruct, Name: name})
	}
	return Type{}, fmt.Errorf("offset %d: expected type, got %s", p.cur().Rg.Start, tokenKindNames[p.cur().Kind])
}

func (p *Parser) parseArraySuffix(elem Type) (Type, error) {
	if !p.at(TokLBracket) {
		return elem, nil
	}
	var dims []int
	var dimIdents []string
	for p.at(TokLBracket) {
		p.advance()
		switch {
		case p.at(TokInt):
			n, _ := strconv.ParseInt(p.advance().Text, 0, 64)
			dims = append(dims, int(n))
			dimIdents = append(dimIdents, "")
		case p.at(TokIdent):
			dims = append(dims, -1)
			dimIdents = append(dimIdents, p.advance().Text)
		default:
			return Type{}, fmt.Errorf("offset %d: expected array dimension", p.cur().Rg.Start)
		}
		if _, err := p.expect(TokRBracket); err != nil {
			return Type{}, err
		}
	}
	e := elem
	return Type{Kind: KindArray, Elem: &e, Dims: dims, DimIdents: dimIdents}, nil
}

// ---- struct / enum / bitmap / register / callback / scope ----

func (p *Parser) parseStructDecl() (*StructDeclNode, error) {
	start := p.cur()
	p.advance()
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var fields []StructField
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fname, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokSemi); err != nil {
			return nil, err
		}
		fields = append(fields, StructField{Name: fname.Text, Type: t, IsArray: t.Kind == KindArray, Dims: t.Dims})
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return NewStructDeclNode(name.Text, fields, p.rangeFrom(start)), nil
}

func (p *Parser) parseEnumDecl() (*EnumDeclNode, error) {
	start := p.cur()
	p.advance()
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var members []EnumMember
	next := int64(0)
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		mname, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		val := next
		if p.at(TokColon) {
			p.advance()
			tok, err := p.expect(TokInt)
			if err != nil {
				return nil, err
			}
			val, _ = strconv.ParseInt(tok.Text, 0, 64)
		}
		members = append(members, EnumMember{Name: mname.Text, Value: val})
		next = val + 1
		if p.at(TokComma) {
			p.advance()
		}
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return NewEnumDeclNode(name.Text, members, p.rangeFrom(start)), nil
}

func (p *Parser) parseBitmapDecl() (*BitmapDeclNode, error) {
	start := p.cur()
	p.advance()
	backing, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var fields []BitmapField
	nextOffset := 0
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		fname, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		offset := nextOffset
		if p.at(TokIdent) && p.cur().Text == "at" {
			p.advance()
			tok, err := p.expect(TokInt)
			if err != nil {
				return nil, err
			}
			o64, _ := strconv.ParseInt(tok.Text, 0, 64)
			offset = int(o64)
		}
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		wtok, err := p.expect(TokInt)
		if err != nil {
			return nil, err
		}
		width64, _ := strconv.ParseInt(wtok.Text, 0, 64)
		fields = append(fields, BitmapField{Name: fname.Text, Offset: offset, Width: int(width64)})
		nextOffset = offset + int(width64)
		if p.at(TokSemi) {
			p.advance()
		}
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return NewBitmapDeclNode(name.Text, backing.Kind, fields, p.rangeFrom(start)), nil
}

func (p *Parser) parseRegisterDecl() (*RegisterDeclNode, error) {
	start := p.cur()
	p.advance()
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	var base AstNode
	if p.at(TokIdent) && p.cur().Text == "at" {
		p.advance()
		base, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var members []RegisterMember
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		vis := p.parseVisibility()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		mname, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		bitmapType := ""
		if p.at(TokColon) {
			p.advance()
			bt, err := p.expect(TokIdent)
			if err != nil {
				return nil, err
			}
			bitmapType = bt.Text
		}
		var offsetExpr AstNode
		if p.at(TokIdent) && p.cur().Text == "at" {
			p.advance()
			offsetExpr, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(TokSemi); err != nil {
			return nil, err
		}
		members = append(members, RegisterMember{
			Name: mname.Text, OffsetExpr: offsetExpr, CType: CType(t.Kind),
			BitmapType: bitmapType, Visibility: vis,
		})
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return NewRegisterDeclNode(name.Text, base, members, p.rangeFrom(start)), nil
}

func (p *Parser) parseCallbackDecl() (*CallbackDeclNode, error) {
	start := p.cur()
	p.advance()
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	return NewCallbackDeclNode(name.Text, params, ret, p.rangeFrom(start)), nil
}

func (p *Parser) parseScopeDecl() (*ScopeDeclNode, error) {
	start := p.cur()
	p.advance()
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	vis := VisibilityPublic
	var members []ScopeMember
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		if (p.at(TokPublic) || p.at(TokPrivate)) && p.peekN(1).Kind == TokColon {
			vis = p.parseVisibility()
			p.advance() // ':'
			continue
		}
		d, err := p.parseTopLevelDecl()
		if err != nil {
			return nil, err
		}
		members = append(members, ScopeMember{Decl: d, Visibility: vis})
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return NewScopeDeclNode(name.Text, members, p.rangeFrom(start)), nil
}

func (p *Parser) parseParamList() ([]Param, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var params []Param
	for !p.at(TokRParen) && !p.at(TokEOF) {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		t.IsParameter = true
		params = append(params, Param{Name: name.Text, Type: t})
		if p.at(TokComma) {
			p.advance()
		}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	return params, nil
}

// parseFuncOrVarDecl disambiguates `Type name(...)` (function) from
// `Type name [<- init];` (variable) after the type and name are known,
// since both begin the same way.
func (p *Parser) parseFuncOrVarDecl(vis Visibility) (AstNode, error) {
	start := p.cur()
	isConst := false
	isVolatile := false
	isAtomic := false
	for {
		switch {
		case p.at(TokConst):
			isConst = true
			p.advance()
		case p.at(TokVolatile):
			isVolatile = true
			p.advance()
		case p.at(TokAtomic):
			isAtomic = true
			p.advance()
		default:
			goto afterModifiers
		}
	}
afterModifiers:
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if p.at(TokLParen) {
		params, err := p.parseParamList()
		if err != nil {
			return nil, err
		}
		if p.at(TokSemi) {
			p.advance()
			fn := NewFuncDeclNode(name.Text, params, t, nil, p.rangeFrom(start))
			fn.Visibility = vis
			return fn, nil
		}
		body, err := p.parseBlockStmts()
		if err != nil {
			return nil, err
		}
		fn := NewFuncDeclNode(name.Text, params, t, body, p.rangeFrom(start))
		fn.Visibility = vis
		return fn, nil
	}
	var init AstNode
	clamp := false
	if p.at(TokClamp) {
		clamp = true
		p.advance()
	}
	if p.at(TokArrowAssign) {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	v := NewVarDeclNode(name.Text, t, init, p.rangeFrom(start))
	v.Visibility = vis
	v.IsConst = isConst
	v.IsVolatile = isVolatile
	v.IsAtomic = isAtomic
	v.ClampOverflow = clamp
	return v, nil
}

// ---- statements ----

func (p *Parser) parseBlockStmts() ([]AstNode, error) {
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var stmts []AstNode
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseBlock() (*BlockStmt, error) {
	start := p.cur()
	stmts, err := p.parseBlockStmts()
	if err != nil {
		return nil, err
	}
	return NewBlockStmt(stmts, p.rangeFrom(start)), nil
}

func (p *Parser) isTypeStart() bool {
	if !p.at(TokIdent) {
		return false
	}
	if _, ok := PrimitiveKindBySuffix(p.cur().Text); ok {
		return true
	}
	if p.cur().Text == "string" {
		return true
	}
	// `Ident Ident` is a local declaration of a nominal (struct/enum/
	// bitmap) type; anything else starting with an identifier is an
	// expression statement or assignment.
	return p.peekN(1).Kind == TokIdent
}

func (p *Parser) parseStmt() (AstNode, error) {
	switch {
	case p.at(TokIf):
		return p.parseIfStmt()
	case p.at(TokWhile):
		return p.parseWhileStmt()
	case p.at(TokDo):
		return p.parseDoWhileStmt()
	case p.at(TokFor):
		return p.parseForStmt()
	case p.at(TokSwitch):
		return p.parseSwitchStmt()
	case p.at(TokReturn):
		return p.parseReturnStmt()
	case p.at(TokBreak):
		start := p.cur()
		p.advance()
		if _, err := p.expect(TokSemi); err != nil {
			return nil, err
		}
		return NewBreakStmt(p.rangeFrom(start)), nil
	case p.at(TokCritical):
		return p.parseCriticalStmt()
	case p.at(TokConst), p.at(TokVolatile), p.at(TokAtomic):
		return p.parseLocalVarDecl()
	case p.isTypeStart():
		return p.parseLocalVarDecl()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseLocalVarDecl() (AstNode, error) {
	d, err := p.parseFuncOrVarDecl(VisibilityPublic)
	if err != nil {
		return nil, err
	}
	vd, ok := d.(*VarDeclNode)
	if !ok {
		return nil, fmt.Errorf("offset %d: expected variable declaration in statement position", p.cur().Rg.Start)
	}
	return VarDeclStmt{vd}, nil
}

func (p *Parser) parseIfStmt() (AstNode, error) {
	start := p.cur()
	p.advance()
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if ContainsCall(cond) {
		return nil, &CompileError{Code: ErrCallInCondition, Message: "if condition must not contain a function call"}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var els AstNode
	if p.at(TokElse) {
		p.advance()
		if p.at(TokIf) {
			els, err = p.parseIfStmt()
		} else {
			els, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
	}
	return NewIfStmt(cond, then, els, p.rangeFrom(start)), nil
}

func (p *Parser) parseWhileStmt() (AstNode, error) {
	start := p.cur()
	p.advance()
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if ContainsCall(cond) {
		return nil, &CompileError{Code: ErrCallInCondition, Message: "while condition must not contain a function call"}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return NewWhileStmt(cond, body, p.rangeFrom(start)), nil
}

func (p *Parser) parseDoWhileStmt() (AstNode, error) {
	start := p.cur()
	p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokWhile); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if ContainsCall(cond) {
		return nil, &CompileError{Code: ErrCallInCondition, Message: "do-while condition must not contain a function call"}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	return NewDoWhileStmt(body, cond, p.rangeFrom(start)), nil
}

func (p *Parser) parseForStmt() (AstNode, error) {
	start := p.cur()
	p.advance()
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var init AstNode
	var err error
	if !p.at(TokSemi) {
		if p.isTypeStart() {
			init, err = p.parseFuncOrVarDecl(VisibilityPublic)
		} else {
			init, err = p.parseExprOrAssignStmtNoSemi()
		}
		if err != nil {
			return nil, err
		}
	}
	if _, isVar := init.(*VarDeclNode); !isVar {
		if _, err := p.expect(TokSemi); err != nil {
			return nil, err
		}
	}
	var cond AstNode
	if !p.at(TokSemi) {
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
		if ContainsCall(cond) {
			return nil, &CompileError{Code: ErrCallInCondition, Message: "for condition must not contain a function call"}
		}
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	var update AstNode
	if !p.at(TokRParen) {
		update, err = p.parseExprOrAssignStmtNoSemi()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return NewForStmt(init, cond, update, body, p.rangeFrom(start)), nil
}

func (p *Parser) parseSwitchStmt() (AstNode, error) {
	start := p.cur()
	p.advance()
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	subject, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var cases []SwitchCase
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		var labels []AstNode
		isDefault := false
		for {
			if p.at(TokDefault) {
				p.advance()
				isDefault = true
			} else if p.at(TokCase) {
				p.advance()
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				labels = append(labels, e)
			} else {
				break
			}
			if _, err := p.expect(TokColon); err != nil {
				return nil, err
			}
			if p.at(TokCase) || p.at(TokDefault) {
				continue
			}
			break
		}
		var body []AstNode
		for !p.at(TokCase) && !p.at(TokDefault) && !p.at(TokRBrace) && !p.at(TokEOF) {
			s, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			body = append(body, s)
		}
		cases = append(cases, SwitchCase{Labels: labels, Body: body, IsDefault: isDefault})
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return NewSwitchStmt(subject, cases, p.rangeFrom(start)), nil
}

func (p *Parser) parseReturnStmt() (AstNode, error) {
	start := p.cur()
	p.advance()
	var expr AstNode
	if !p.at(TokSemi) {
		var err error
		expr, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	return NewReturnStmt(expr, p.rangeFrom(start)), nil
}

func (p *Parser) parseCriticalStmt() (AstNode, error) {
	start := p.cur()
	p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	for _, s := range body.Stmts {
		switch s.(type) {
		case *ReturnStmt, *BreakStmt:
			return nil, &CompileError{Code: ErrCriticalExit, Message: "critical section must not contain return or break"}
		}
	}
	return NewCriticalStmt(body, p.rangeFrom(start)), nil
}

var assignOpByToken = map[TokenKind]AssignOp{
	TokArrowAssign: AssignSet, TokPlusAssign: AssignAdd, TokMinusAssign: AssignSub,
	TokStarAssign: AssignMul, TokSlashAssign: AssignDiv, TokPercentAssign: AssignMod,
	TokAmpAssign: AssignAnd, TokPipeAssign: AssignOr, TokCaretAssign: AssignXor,
	TokShlAssign: AssignShl, TokShrAssign: AssignShr,
}

func (p *Parser) parseExprOrAssignStmt() (AstNode, error) {
	s, err := p.parseExprOrAssignStmtNoSemi()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Parser) parseExprOrAssignStmtNoSemi() (AstNode, error) {
	start := p.cur()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if op, ok := assignOpByToken[p.cur().Kind]; ok {
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return NewAssignStmt(expr, op, value, p.rangeFrom(start)), nil
	}
	return NewExprStmt(expr, p.rangeFrom(start)), nil
}

// ---- expressions (precedence climbing) ----

func (p *Parser) parseExpr() (AstNode, error) { return p.parseTernary() }

func (p *Parser) parseTernary() (AstNode, error) {
	start := p.cur()
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.at(TokQuestion) {
		p.advance()
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return NewTernaryExprNode(cond, then, els, p.rangeFrom(start)), nil
	}
	return cond, nil
}

func (p *Parser) binaryLevel(next func() (AstNode, error), ops map[TokenKind]BinOp) (AstNode, error) {
	start := p.cur()
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.cur().Kind]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = NewBinaryExprNode(op, left, right, p.rangeFrom(start))
	}
}

func (p *Parser) parseLogicalOr() (AstNode, error) {
	return p.binaryLevel(p.parseLogicalAnd, map[TokenKind]BinOp{TokOrOr: OpOr})
}
func (p *Parser) parseLogicalAnd() (AstNode, error) {
	return p.binaryLevel(p.parseEquality, map[TokenKind]BinOp{TokAndAnd: OpAnd})
}
func (p *Parser) parseEquality() (AstNode, error) {
	return p.binaryLevel(p.parseRelational, map[TokenKind]BinOp{TokEq: OpEq, TokNeq: OpNeq})
}
func (p *Parser) parseRelational() (AstNode, error) {
	return p.binaryLevel(p.parseBitOr, map[TokenKind]BinOp{TokLt: OpLt, TokLte: OpLte, TokGt: OpGt, TokGte: OpGte})
}
func (p *Parser) parseBitOr() (AstNode, error) {
	return p.binaryLevel(p.parseBitXor, map[TokenKind]BinOp{TokPipe: OpBitOr})
}
func (p *Parser) parseBitXor() (AstNode, error) {
	return p.binaryLevel(p.parseBitAnd, map[TokenKind]BinOp{TokCaret: OpBitXor})
}
func (p *Parser) parseBitAnd() (AstNode, error) {
	return p.binaryLevel(p.parseShift, map[TokenKind]BinOp{TokAmp: OpBitAnd})
}
func (p *Parser) parseShift() (AstNode, error) {
	return p.binaryLevel(p.parseAdditive, map[TokenKind]BinOp{TokShl: OpShl, TokShr: OpShr})
}
func (p *Parser) parseAdditive() (AstNode, error) {
	return p.binaryLevel(p.parseMultiplicative, map[TokenKind]BinOp{TokPlus: OpAdd, TokMinus: OpSub})
}
func (p *Parser) parseMultiplicative() (AstNode, error) {
	return p.binaryLevel(p.parseUnary, map[TokenKind]BinOp{TokStar: OpMul, TokSlash: OpDiv, TokPercent: OpMod})
}

func (p *Parser) parseUnary() (AstNode, error) {
	start := p.cur()
	switch {
	case p.at(TokMinus):
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewUnaryExprNode(UnaryNeg, e, p.rangeFrom(start)), nil
	case p.at(TokBang):
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewUnaryExprNode(UnaryNot, e, p.rangeFrom(start)), nil
	case p.at(TokTilde):
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewUnaryExprNode(UnaryBitNot, e, p.rangeFrom(start)), nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (AstNode, error) {
	start := p.cur()
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	var ops []PostfixOp
	for {
		switch {
		case p.at(TokDot):
			p.advance()
			name, err := p.expect(TokIdent)
			if err != nil {
				return nil, err
			}
			ops = append(ops, MemberOp{Name: name.Text})
		case p.at(TokLBracket):
			p.advance()
			var exprs []AstNode
			for {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				exprs = append(exprs, e)
				if p.at(TokComma) {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expect(TokRBracket); err != nil {
				return nil, err
			}
			ops = append(ops, SubscriptOp{Exprs: exprs})
		case p.at(TokLParen):
			p.advance()
			var args []AstNode
			for !p.at(TokRParen) {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.at(TokComma) {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expect(TokRParen); err != nil {
				return nil, err
			}
			ops = append(ops, CallOp{Args: args})
		default:
			if len(ops) == 0 {
				return base, nil
			}
			return NewPostfixExprNode(base, ops, p.rangeFrom(start)), nil
		}
	}
}

func (p *Parser) parsePrimary() (AstNode, error) {
	start := p.cur()
	switch {
	case p.at(TokInt):
		return p.parseIntLiteral()
	case p.at(TokFloat):
		return p.parseFloatLiteral()
	case p.at(TokTrue):
		p.advance()
		return NewBoolLiteralNode(true, p.rangeFrom(start)), nil
	case p.at(TokFalse):
		p.advance()
		return NewBoolLiteralNode(false, p.rangeFrom(start)), nil
	case p.at(TokChar):
		t := p.advance()
		r := []rune(t.Text)[0]
		return NewCharLiteralNode(r, p.rangeFrom(start)), nil
	case p.at(TokString):
		t := p.advance()
		return NewStringLiteralNode([]StringPart{{Literal: t.Text}}, p.rangeFrom(start)), nil
	case p.at(TokTemplate):
		t := p.advance()
		parts, err := parseTemplateParts(t.Text)
		if err != nil {
			return nil, err
		}
		return NewStringLiteralNode(parts, p.rangeFrom(start)), nil
	case p.at(TokThis):
		p.advance()
		return NewThisNode(p.rangeFrom(start)), nil
	case p.at(TokGlobal):
		p.advance()
		return NewGlobalNode(p.rangeFrom(start)), nil
	case p.at(TokIdent):
		name := p.advance()
		node := NewIdentifierNode(name.Text, p.rangeFrom(start))
		if p.at(TokLParen) {
			p.advance()
			var args []AstNode
			for !p.at(TokRParen) {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.at(TokComma) {
					p.advance()
					continue
				}
				break
			}
			if _, err := p.expect(TokRParen); err != nil {
				return nil, err
			}
			return NewCallExprNode(node, args, p.rangeFrom(start)), nil
		}
		return node, nil
	case p.at(TokLParen):
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("offset %d: unexpected token %s in expression", p.cur().Rg.Start, tokenKindNames[p.cur().Kind])
	}
}

func (p *Parser) parseIntLiteral() (AstNode, error) {
	start := p.cur()
	tok := p.advance()
	base := 10
	text := tok.Text
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		base = 16
		text = text[2:]
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		base = 2
		text = text[2:]
	}
	val, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return nil, fmt.Errorf("offset %d: invalid integer literal %q: %w", tok.Rg.Start, tok.Text, err)
	}
	suffix := KindUnknown
	if p.at(TokIdent) && p.cur().Rg.Start == tok.Rg.End {
		if k, ok := PrimitiveKindBySuffix(p.cur().Text); ok {
			suffix = k
			p.advance()
		}
	}
	return NewIntLiteralNode(val, suffix, base, p.rangeFrom(start)), nil
}

func (p *Parser) parseFloatLiteral() (AstNode, error) {
	start := p.cur()
	tok := p.advance()
	val, err := strconv.ParseFloat(tok.Text, 64)
	if err != nil {
		return nil, fmt.Errorf("offset %d: invalid float literal %q: %w", tok.Rg.Start, tok.Text, err)
	}
	suffix := KindUnknown
	if p.at(TokIdent) && p.cur().Rg.Start == tok.Rg.End {
		if k, ok := PrimitiveKindBySuffix(p.cur().Text); ok && (k == KindF32 || k == KindF64) {
			suffix = k
			p.advance()
		}
	}
	return NewFloatLiteralNode(val, suffix, p.rangeFrom(start)), nil
}

// parseTemplateParts splits a backtick template's raw text into
// literal/interpolated StringPart segments, recursively lexing and
// parsing each `${...}` span as its own expression.
func parseTemplateParts(raw string) ([]StringPart, error) {
	var parts []StringPart
	var lit strings.Builder
	runes := []rune(raw)
	i := 0
	for i < len(runes) {
		if runes[i] == '$' && i+1 < len(runes) && runes[i+1] == '{' {
			if lit.Len() > 0 {
				parts = append(parts, StringPart{Literal: lit.String()})
				lit.Reset()
			}
			depth := 1
			j := i + 2
			for j < len(runes) && depth > 0 {
				if runes[j] == '{' {
					depth++
				} else if runes[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			if depth != 0 {
				return nil, fmt.Errorf("unterminated ${...} in template string")
			}
			inner := string(runes[i+2 : j])
			expr, err := ParseExprSource(inner)
			if err != nil {
				return nil, err
			}
			parts = append(parts, StringPart{Expr: expr})
			i = j + 1
			continue
		}
		lit.WriteRune(runes[i])
		i++
	}
	if lit.Len() > 0 {
		parts = append(parts, StringPart{Literal: lit.String()})
	}
	return parts, nil
}

// ParseExprSource parses a standalone expression, used for the nested
// ${...} spans of template strings.
func ParseExprSource(src string) (AstNode, error) {
	toks, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(toks).parseExpr()
}
