package cnext

import (
	"strings"
)

// NativeSymbolKind classifies one top-level declaration the header
// parser found in a native C/C++ header (§4.3 item 3: "reads native
// headers and emits an abstract symbol record").
type NativeSymbolKind int

const (
	NativeStruct NativeSymbolKind = iota
	NativeEnum
	NativeTypedef
	NativeFunc
	NativeVar
	NativeClass
	NativeNamespace
	NativeOpaque
)

// NativeSymbol is one abstract record the header parser extracted.
// Unlike the .cnx symbol table, a NativeSymbol carries no field/param
// detail — code generated against it only ever needs to know the name
// exists and roughly what kind of thing it is, since the type itself
// isn't one the generator owns or can re-emit.
type NativeSymbol struct {
	Kind NativeSymbolKind
	Name string
}

// HeaderParser is a small, permissive C/C++ tokenizer: it tracks brace
// depth and semicolon boundaries well enough to carve a header into
// top-level declarations and classify each one, without building a
// full C grammar. Grounded on GrammarParser's cursor-based character
// scanning and ParseSpacing/ParseComment whitespace handling
// (grammar_parser.go) — same style of hand-rolled recursive-descent
// scanning, turned loose on a language this compiler never needs to
// fully understand.
type HeaderParser struct {
	src string
	pos int
}

func NewHeaderParser(src string) *HeaderParser {
	return &HeaderParser{src: src}
}

// ParseNativeHeader extracts the top-level declarations from content.
// Headers carrying the cnext:generated marker are skipped entirely
// (§6: "avoid re-importing just-generated symbols") and report no
// symbols.
func ParseNativeHeader(content []byte) []NativeSymbol {
	if IsGeneratedHeader(content).IsGenerated {
		return nil
	}
	return NewHeaderParser(string(content)).Parse()
}

func (p *HeaderParser) Parse() []NativeSymbol {
	var out []NativeSymbol
	for {
		p.skipSpace()
		if p.atEnd() {
			break
		}
		stmt, ns, ok := p.nextTopLevelStatement()
		if !ok {
			break
		}
		if sym, ok := classifyStatement(stmt); ok {
			out = append(out, sym)
		}
		out = append(out, ns...)
	}
	return out
}

// nextTopLevelStatement consumes either a brace-delimited declaration
// (struct/enum/class/namespace body, including its trailing `;` and
// any tag name after the closing brace) or a plain `;`-terminated
// statement (typedef, prototype, extern variable, #directive).
// namespace bodies are parsed recursively so their members still
// surface as top-level-ish symbols.
func (p *HeaderParser) nextTopLevelStatement() (string, []NativeSymbol, bool) {
	if !p.atEnd() && p.src[p.pos] == '#' {
		start := p.pos
		for !p.atEnd() && p.src[p.pos] != '\n' {
			p.pos++
		}
		return p.src[start:p.pos], nil, true
	}

	start := p.pos
	var nested []NativeSymbol
	depth := 0
	isNamespace := strings.HasPrefix(strings.TrimSpace(p.src[p.pos:]), "namespace")

	for !p.atEnd() {
		c := p.src[p.pos]
		switch {
		case c == '"' || c == '\'':
			p.skipStringLiteral(c)
			continue
		case strings.HasPrefix(p.src[p.pos:], "//"):
			p.skipLineComment()
			continue
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			p.skipBlockComment()
			continue
		case c == '{':
			if isNamespace && depth == 0 {
				bodyStart := p.pos + 1
				bodyEnd := p.matchBrace(p.pos)
				body := p.src[bodyStart:bodyEnd]
				nested = NewHeaderParser(body).Parse()
				p.pos = bodyEnd + 1
				isNamespace = false
				continue
			}
			depth++
			p.pos++
			continue
		case c == '}':
			depth--
			p.pos++
			if depth == 0 {
				// consume an optional trailing tag name + `;` (struct/typedef)
				p.skipSpace()
				for !p.atEnd() && p.src[p.pos] != ';' {
					p.pos++
				}
				if !p.atEnd() {
					p.pos++
				}
				return strings.TrimSpace(p.src[start:p.pos]), nested, true
			}
			continue
		case c == ';' && depth == 0:
			p.pos++
			return strings.TrimSpace(p.src[start:p.pos]), nested, true
		default:
			p.pos++
		}
	}
	if p.pos > start {
		return strings.TrimSpace(p.src[start:p.pos]), nested, true
	}
	return "", nested, false
}

func (p *HeaderParser) matchBrace(openAt int) int {
	depth := 0
	i := openAt
	for i < len(p.src) {
		switch p.src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return len(p.src)
}

func (p *HeaderParser) skipSpace() {
	for !p.atEnd() {
		c := p.src[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case strings.HasPrefix(p.src[p.pos:], "//"):
			p.skipLineComment()
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			p.skipBlockComment()
		default:
			return
		}
	}
}

func (p *HeaderParser) skipLineComment() {
	for !p.atEnd() && p.src[p.pos] != '\n' {
		p.pos++
	}
}

func (p *HeaderParser) skipBlockComment() {
	p.pos += 2
	for !p.atEnd() && !strings.HasPrefix(p.src[p.pos:], "*/") {
		p.pos++
	}
	if !p.atEnd() {
		p.pos += 2
	}
}

func (p *HeaderParser) skipStringLiteral(quote byte) {
	p.pos++
	for !p.atEnd() && p.src[p.pos] != quote {
		if p.src[p.pos] == '\\' {
			p.pos++
		}
		p.pos++
	}
	if !p.atEnd() {
		p.pos++
	}
}

func (p *HeaderParser) atEnd() bool { return p.pos >= len(p.src) }

// classifyStatement pattern-matches one already-extracted top-level
// statement against the declaration shapes §4.3 names. Anything it
// can't place is dropped rather than guessed at — a permissive parser
// under-reports, it doesn't fabricate.
func classifyStatement(stmt string) (NativeSymbol, bool) {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" || strings.HasPrefix(stmt, "#") {
		return NativeSymbol{}, false
	}

	fields := tokenize(stmt)
	if len(fields) == 0 {
		return NativeSymbol{}, false
	}

	switch fields[0] {
	case "typedef":
		return classifyTypedef(fields)
	case "struct":
		return classifyTagged(fields, NativeStruct)
	case "enum":
		return classifyTagged(fields, NativeEnum)
	case "class":
		return classifyTagged(fields, NativeClass)
	case "namespace":
		if len(fields) >= 2 {
			return NativeSymbol{Kind: NativeNamespace, Name: fields[1]}, true
		}
		return NativeSymbol{}, false
	}

	if braceIdx := strings.IndexByte(stmt, '('); braceIdx > 0 {
		return classifyFunc(stmt, braceIdx)
	}
	return classifyVar(fields)
}

// classifyTypedef handles `typedef struct {...} Name;`, `typedef enum
// {...} Name;`, and a plain `typedef Type Name;` alias — in every
// form the declared name is the last identifier before the `;`.
func classifyTypedef(fields []string) (NativeSymbol, bool) {
	name := lastIdentifier(fields)
	if name == "" {
		return NativeSymbol{}, false
	}
	kind := NativeTypedef
	for _, f := range fields {
		if f == "struct" {
			kind = NativeStruct
			break
		}
		if f == "enum" {
			kind = NativeEnum
			break
		}
	}
	return NativeSymbol{Kind: kind, Name: name}, true
}

// classifyTagged handles `struct Name { ... };`, `struct Name;`
// (forward declaration -> NativeOpaque), and `struct Name Name;`
// (typedef'd-elsewhere pattern, takes the first name).
func classifyTagged(fields []string, kind NativeSymbolKind) (NativeSymbol, bool) {
	if len(fields) < 2 || !isIdentifier(fields[1]) {
		return NativeSymbol{}, false
	}
	name := fields[1]
	hasBody := strings.ContainsRune(strings.Join(fields, " "), '{')
	if !hasBody {
		return NativeSymbol{Kind: NativeOpaque, Name: name}, true
	}
	return NativeSymbol{Kind: kind, Name: name}, true
}

// classifyFunc takes everything before the first `(` as the return
// type plus name; the name is the last identifier in that span.
func classifyFunc(stmt string, parenIdx int) (NativeSymbol, bool) {
	head := tokenize(stmt[:parenIdx])
	name := lastIdentifier(head)
	if name == "" {
		return NativeSymbol{}, false
	}
	return NativeSymbol{Kind: NativeFunc, Name: name}, true
}

// classifyVar handles `extern Type name;` and `Type name;` /
// `Type name[N];` module-scope variable declarations.
func classifyVar(fields []string) (NativeSymbol, bool) {
	name := lastIdentifier(fields)
	if name == "" || len(fields) < 2 {
		return NativeSymbol{}, false
	}
	return NativeSymbol{Kind: NativeVar, Name: name}, true
}

// lastIdentifier returns the last bare-identifier-looking token,
// stripping a trailing array-subscript/pointer decoration.
func lastIdentifier(fields []string) string {
	for i := len(fields) - 1; i >= 0; i-- {
		name := strings.TrimRight(fields[i], "[]0123456789*&;")
		if isIdentifier(name) && !isCKeyword(name) {
			return name
		}
	}
	return ""
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func isCKeyword(s string) bool {
	switch s {
	case "const", "volatile", "static", "extern", "struct", "enum", "class",
		"unsigned", "signed", "void", "int", "char", "long", "short", "float",
		"double", "bool", "inline", "typedef":
		return true
	}
	return false
}

// tokenize splits on whitespace and C punctuation, keeping identifiers
// and punctuation as separate tokens.
func tokenize(s string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		case r == '(' || r == ')' || r == '{' || r == '}' || r == ',' || r == ';':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
