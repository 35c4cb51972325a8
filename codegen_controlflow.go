package cnext

import "fmt"

// genIfStmt renders an if/else-if/else chain. Each `else if` is
// rendered on the closing brace's line, C-style, via genElseTail's
// recursion over IfStmt.Else.
func (g *CodeGenerator) genIfStmt(o *outputWriter, n *IfStmt) error {
	o.writei("if (")
	if err := g.genExpr(o, n.Cond); err != nil {
		return err
	}
	o.writel(") {")
	o.indent()
	if err := g.genBlock(o, n.Then); err != nil {
		return err
	}
	o.unindent()
	return g.genElseTail(o, n.Else)
}

func (g *CodeGenerator) genElseTail(o *outputWriter, els AstNode) error {
	switch e := els.(type) {
	case nil:
		o.writeil("}")
		return nil
	case *IfStmt:
		o.writei("} else if (")
		if err := g.genExpr(o, e.Cond); err != nil {
			return err
		}
		o.writel(") {")
		o.indent()
		if err := g.genBlock(o, e.Then); err != nil {
			return err
		}
		o.unindent()
		return g.genElseTail(o, e.Else)
	case *BlockStmt:
		o.writeil("} else {")
		o.indent()
		if err := g.genBlock(o, e); err != nil {
			return err
		}
		o.unindent()
		o.writeil("}")
		return nil
	default:
		return fmt.Errorf("codegen: unsupported else clause %T", els)
	}
}

// genWhileStmt and genDoWhileStmt don't re-check ContainsCall — the
// parser already rejected a call in the condition at parse time
// (§4.7's condition-purity invariant, E0702), so by codegen time the
// condition is guaranteed free of side effects.
func (g *CodeGenerator) genWhileStmt(o *outputWriter, n *WhileStmt) error {
	o.writei("while (")
	if err := g.genExpr(o, n.Cond); err != nil {
		return err
	}
	o.writel(") {")
	o.indent()
	if err := g.genBlock(o, n.Body); err != nil {
		return err
	}
	o.unindent()
	o.writeil("}")
	return nil
}

func (g *CodeGenerator) genDoWhileStmt(o *outputWriter, n *DoWhileStmt) error {
	o.writeil("do {")
	o.indent()
	if err := g.genBlock(o, n.Body); err != nil {
		return err
	}
	o.unindent()
	o.writei("} while (")
	if err := g.genExpr(o, n.Cond); err != nil {
		return err
	}
	o.writel(");")
	return nil
}

func (g *CodeGenerator) genForStmt(o *outputWriter, n *ForStmt) error {
	o.writei("for (")
	if n.Init != nil {
		s, err := g.renderInline(n.Init)
		if err != nil {
			return err
		}
		o.write(s)
	}
	o.write("; ")
	if n.Cond != nil {
		if err := g.genExpr(o, n.Cond); err != nil {
			return err
		}
	}
	o.write("; ")
	if n.Update != nil {
		s, err := g.renderInline(n.Update)
		if err != nil {
			return err
		}
		o.write(s)
	}
	o.writel(") {")
	o.indent()
	if err := g.genBlock(o, n.Body); err != nil {
		return err
	}
	o.unindent()
	o.writeil("}")
	return nil
}

// genSwitchStmt renders a switch, synthesizing an empty `default:
// break;` when the source has none and CodeGenOptions.SynthDefault is
// set, so every generated switch is total (§4.7, §8's switch-totality
// property). A case body that doesn't already end in return/break gets
// one appended, since C-Next case groups don't fall through.
func (g *CodeGenerator) genSwitchStmt(o *outputWriter, n *SwitchStmt) error {
	o.writei("switch (")
	if err := g.genExpr(o, n.Subject); err != nil {
		return err
	}
	o.writel(") {")
	for _, c := range n.Cases {
		if c.IsDefault {
			o.writeil("default:")
		} else {
			for _, lbl := range c.Labels {
				o.writei("case ")
				if err := g.genExpr(o, lbl); err != nil {
					return err
				}
				o.writel(":")
			}
		}
		o.indent()
		for _, s := range c.Body {
			if err := g.genStmt(o, s); err != nil {
				return err
			}
		}
		if !endsWithControlFlow(c.Body) {
			o.writeil("break;")
		}
		o.unindent()
	}
	if !n.HasDefault && g.opt.SynthDefault {
		o.writeil("default:")
		o.indent()
		o.writeil("break;")
		o.unindent()
	}
	o.writeil("}")
	return nil
}

func endsWithControlFlow(stmts []AstNode) bool {
	if len(stmts) == 0 {
		return false
	}
	switch stmts[len(stmts)-1].(type) {
	case *ReturnStmt, *BreakStmt:
		return true
	default:
		return false
	}
}

func (g *CodeGenerator) genReturnStmt(o *outputWriter, n *ReturnStmt) error {
	o.writei("return")
	if n.Expr != nil {
		o.write(" ")
		if err := g.genExpr(o, n.Expr); err != nil {
			return err
		}
	}
	o.writel(";")
	return nil
}

// genCriticalStmt lowers `critical { ... }` to a PRIMASK-guarded
// section using CMSIS intrinsics (§4.7): save the current interrupt
// mask, disable interrupts, run the body, restore the mask. The parser
// already rejected any return/break inside the block (critical-block-exit), so the
// body can never skip the restore.
func (g *CodeGenerator) genCriticalStmt(o *outputWriter, n *CriticalStmt) error {
	o.writeil("{")
	o.indent()
	o.writeil("uint32_t __cnext_primask = __get_PRIMASK();")
	o.writeil("__disable_irq();")
	if err := g.genBlock(o, n.Body); err != nil {
		return err
	}
	o.writeil("__set_PRIMASK(__cnext_primask);")
	o.unindent()
	o.writeil("}")
	return nil
}
