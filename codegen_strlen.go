package cnext

import "fmt"

// strlenCache implements §4.8's string-length caching: when a
// function body reads `someString.length` more than once within a
// loop's condition, or within an if's condition plus its then-branch,
// the generator hoists a single
// `size_t __len_someString_N = strlen(someString);` above that
// statement and rewrites every matching `.length` read inside it to the
// cached variable, so a string whose contents don't change inside the
// loop isn't re-scanned by strlen() on every iteration. The mapping is
// cleared once the statement has been generated.
type strlenCache struct {
	enabled bool
	varFor  map[string]string
	counter int
}

func newStrlenCache(enabled bool) *strlenCache {
	return &strlenCache{enabled: enabled, varFor: map[string]string{}}
}

// hoistForStmts scans the given top-level statements for
// while/for/do-while loops whose condition (or ifs whose condition
// plus then-branch) reads `.length` off a bare identifier, emitting
// the hoisted cache declarations to o. genFuncDecl calls it with one
// statement at a time, immediately before generating that statement.
func (c *strlenCache) hoistForStmts(o *outputWriter, stmts []AstNode) {
	if !c.enabled {
		return
	}
	for _, s := range stmts {
		c.hoistForStmt(o, s)
	}
}

func (c *strlenCache) hoistForStmt(o *outputWriter, s AstNode) {
	switch n := s.(type) {
	case *WhileStmt:
		c.hoist(o, n.Cond)
	case *DoWhileStmt:
		c.hoist(o, n.Cond)
	case *ForStmt:
		c.hoist(o, n.Cond)
	case *IfStmt:
		// An if's then-branch runs at most once, same as its condition,
		// so a `.length` read repeated across cond+then amortizes the
		// same way a loop-condition repeat does.
		c.hoist(o, n.Cond, n.Then)
	}
}

// hoist finds every `ident.length` read across sources and emits a
// cache declaration for any identifier read at least twice — a single
// read doesn't amortize the strlen() call it would otherwise save
// (§4.8's threshold), so it's left as a direct strlen() call at its
// use site instead.
func (c *strlenCache) hoist(o *outputWriter, sources ...AstNode) {
	counts := map[string]int{}
	var order []string
	for _, src := range sources {
		for _, name := range lengthReadsIn(src) {
			if counts[name] == 0 {
				order = append(order, name)
			}
			counts[name]++
		}
	}
	for _, name := range order {
		if counts[name] < 2 {
			continue
		}
		if _, ok := c.varFor[name]; ok {
			continue
		}
		varName := fmt.Sprintf("__len_%s_%d", name, c.counter)
		c.counter++
		c.varFor[name] = varName
		o.writeilf("size_t %s = strlen(%s);", varName, name)
	}
}

// lengthReadsIn collects the base identifier name of every
// `ident.length` postfix read reachable from expr.
func lengthReadsIn(expr AstNode) []string {
	var out []string
	_ = Walk(expr, func(node AstNode) error {
		p, ok := node.(*PostfixExprNode)
		if !ok || len(p.Ops) != 1 {
			return nil
		}
		m, ok := p.Ops[0].(MemberOp)
		if !ok || m.Name != "length" {
			return nil
		}
		id, ok := p.Base.(*IdentifierNode)
		if !ok {
			return nil
		}
		out = append(out, id.Value)
		return nil
	})
	return out
}

// lookup reports the cache variable for `ident.length`, if hoisted.
func (c *strlenCache) lookup(identName string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.varFor[identName]
	return v, ok
}
