package cnext

// AstNodeVisitor is implemented by passes that walk the whole AST
// (the symbol collector and the string/length-counting walker use it
// directly; the code generator's statement/expression dispatchers use
// plain type switches instead, since they need to thread extra
// lowering state that a fixed visitor interface can't carry).
type AstNodeVisitor interface {
	VisitFileNode(*FileNode) error
	VisitIncludeNode(*IncludeNode) error

	VisitVarDeclNode(*VarDeclNode) error
	VisitFuncDeclNode(*FuncDeclNode) error
	VisitStructDeclNode(*StructDeclNode) error
	VisitEnumDeclNode(*EnumDeclNode) error
	VisitBitmapDeclNode(*BitmapDeclNode) error
	VisitRegisterDeclNode(*RegisterDeclNode) error
	VisitCallbackDeclNode(*CallbackDeclNode) error
	VisitScopeDeclNode(*ScopeDeclNode) error

	VisitVarDeclStmt(VarDeclStmt) error
	VisitAssignStmt(*AssignStmt) error
	VisitExprStmt(*ExprStmt) error
	VisitBlockStmt(*BlockStmt) error
	VisitIfStmt(*IfStmt) error
	VisitWhileStmt(*WhileStmt) error
	VisitDoWhileStmt(*DoWhileStmt) error
	VisitForStmt(*ForStmt) error
	VisitSwitchStmt(*SwitchStmt) error
	VisitReturnStmt(*ReturnStmt) error
	VisitBreakStmt(*BreakStmt) error
	VisitCriticalStmt(*CriticalStmt) error

	VisitBinaryExprNode(*BinaryExprNode) error
	VisitTernaryExprNode(*TernaryExprNode) error
	VisitUnaryExprNode(*UnaryExprNode) error
	VisitPostfixExprNode(*PostfixExprNode) error
	VisitIdentifierNode(*IdentifierNode) error
	VisitThisNode(*ThisNode) error
	VisitGlobalNode(*GlobalNode) error
	VisitIntLiteralNode(*IntLiteralNode) error
	VisitFloatLiteralNode(*FloatLiteralNode) error
	VisitBoolLiteralNode(*BoolLiteralNode) error
	VisitCharLiteralNode(*CharLiteralNode) error
	VisitStringLiteralNode(*StringLiteralNode) error
	VisitCallExprNode(*CallExprNode) error
}

// BaseVisitor implements AstNodeVisitor with no-ops, so passes that
// only care about a handful of node kinds can embed it and override
// just those methods (the teacher's visitor pattern, generalized).
type BaseVisitor struct{}

func (BaseVisitor) VisitFileNode(*FileNode) error       { return nil }
func (BaseVisitor) VisitIncludeNode(*IncludeNode) error { return nil }

func (BaseVisitor) VisitVarDeclNode(*VarDeclNode) error           { return nil }
func (BaseVisitor) VisitFuncDeclNode(*FuncDeclNode) error         { return nil }
func (BaseVisitor) VisitStructDeclNode(*StructDeclNode) error     { return nil }
func (BaseVisitor) VisitEnumDeclNode(*EnumDeclNode) error         { return nil }
func (BaseVisitor) VisitBitmapDeclNode(*BitmapDeclNode) error     { return nil }
func (BaseVisitor) VisitRegisterDeclNode(*RegisterDeclNode) error { return nil }
func (BaseVisitor) VisitCallbackDeclNode(*CallbackDeclNode) error { return nil }
func (BaseVisitor) VisitScopeDeclNode(*ScopeDeclNode) error       { return nil }

func (BaseVisitor) VisitVarDeclStmt(VarDeclStmt) error     { return nil }
func (BaseVisitor) VisitAssignStmt(*AssignStmt) error      { return nil }
func (BaseVisitor) VisitExprStmt(*ExprStmt) error          { return nil }
func (BaseVisitor) VisitBlockStmt(*BlockStmt) error        { return nil }
func (BaseVisitor) VisitIfStmt(*IfStmt) error               { return nil }
func (BaseVisitor) VisitWhileStmt(*WhileStmt) error        { return nil }
func (BaseVisitor) VisitDoWhileStmt(*DoWhileStmt) error    { return nil }
func (BaseVisitor) VisitForStmt(*ForStmt) error             { return nil }
func (BaseVisitor) VisitSwitchStmt(*SwitchStmt) error      { return nil }
func (BaseVisitor) VisitReturnStmt(*ReturnStmt) error      { return nil }
func (BaseVisitor) VisitBreakStmt(*BreakStmt) error        { return nil }
func (BaseVisitor) VisitCriticalStmt(*CriticalStmt) error  { return nil }

func (BaseVisitor) VisitBinaryExprNode(*BinaryExprNode) error   { return nil }
func (BaseVisitor) VisitTernaryExprNode(*TernaryExprNode) error { return nil }
func (BaseVisitor) VisitUnaryExprNode(*UnaryExprNode) error     { return nil }
func (BaseVisitor) VisitPostfixExprNode(*PostfixExprNode) error { return nil }
func (BaseVisitor) VisitIdentifierNode(*IdentifierNode) error   { return nil }
func (BaseVisitor) VisitThisNode(*ThisNode) error               { return nil }
func (BaseVisitor) VisitGlobalNode(*GlobalNode) error           { return nil }
func (BaseVisitor) VisitIntLiteralNode(*IntLiteralNode) error   { return nil }
func (BaseVisitor) VisitFloatLiteralNode(*FloatLiteralNode) error { return nil }
func (BaseVisitor) VisitBoolLiteralNode(*BoolLiteralNode) error   { return nil }
func (BaseVisitor) VisitCharLiteralNode(*CharLiteralNode) error   { return nil }
func (BaseVisitor) VisitStringLiteralNode(*StringLiteralNode) error { return nil }
func (BaseVisitor) VisitCallExprNode(*CallExprNode) error         { return nil }

// Walk visits node and all of its children, depth-first, calling
// visit for every node including node itself. It's the traversal
// backbone used by the symbol collector and the strlen-cache counter.
func Walk(node AstNode, visit func(AstNode) error) error {
	if node == nil {
		return nil
	}
	if err := visit(node); err != nil {
		return err
	}
	switch n := node.(type) {
	case *FileNode:
		for _, d := range n.Decls {
			if err := Walk(d, visit); err != nil {
				return err
			}
		}
	case *FuncDeclNode:
		for _, s := range n.Body {
			if err := Walk(s, visit); err != nil {
				return err
			}
		}
	case *ScopeDeclNode:
		for _, m := range n.Members {
			if err := Walk(m.Decl, visit); err != nil {
				return err
			}
		}
	case *VarDeclNode:
		if n.Init != nil {
			return Walk(n.Init, visit)
		}
	case VarDeclStmt:
		if n.Init != nil {
			return Walk(n.Init, visit)
		}
	case *BlockStmt:
		for _, s := range n.Stmts {
			if err := Walk(s, visit); err != nil {
				return err
			}
		}
	case *AssignStmt:
		if err := Walk(n.Target, visit); err != nil {
			return err
		}
		return Walk(n.Value, visit)
	case *ExprStmt:
		return Walk(n.Expr, visit)
	case *IfStmt:
		if err := Walk(n.Cond, visit); err != nil {
			return err
		}
		if err := Walk(n.Then, visit); err != nil {
			return err
		}
		if n.Else != nil {
			return Walk(n.Else, visit)
		}
	case *WhileStmt:
		if err := Walk(n.Cond, visit); err != nil {
			return err
		}
		return Walk(n.Body, visit)
	case *DoWhileStmt:
		if err := Walk(n.Body, visit); err != nil {
			return err
		}
		return Walk(n.Cond, visit)
	case *ForStmt:
		if n.Init != nil {
			if err := Walk(n.Init, visit); err != nil {
				return err
			}
		}
		if n.Cond != nil {
			if err := Walk(n.Cond, visit); err != nil {
				return err
			}
		}
		if n.Update != nil {
			if err := Walk(n.Update, visit); err != nil {
				return err
			}
		}
		return Walk(n.Body, visit)
	case *SwitchStmt:
		if err := Walk(n.Subject, visit); err != nil {
			return err
		}
		for _, c := range n.Cases {
			for _, l := range c.Labels {
				if err := Walk(l, visit); err != nil {
					return err
				}
			}
			for _, s := range c.Body {
				if err := Walk(s, visit); err != nil {
					return err
				}
			}
		}
	case *ReturnStmt:
		if n.Expr != nil {
			return Walk(n.Expr, visit)
		}
	case *CriticalStmt:
		return Walk(n.Body, visit)
	case *BinaryExprNode:
		if err := Walk(n.Left, visit); err != nil {
			return err
		}
		return Walk(n.Right, visit)
	case *TernaryExprNode:
		if err := Walk(n.Cond, visit); err != nil {
			return err
		}
		if err := Walk(n.Then, visit); err != nil {
			return err
		}
		return Walk(n.Else, visit)
	case *UnaryExprNode:
		return Walk(n.Expr, visit)
	case *PostfixExprNode:
		if err := Walk(n.Base, visit); err != nil {
			return err
		}
		for _, op := range n.Ops {
			switch o := op.(type) {
			case SubscriptOp:
				for _, e := range o.Exprs {
					if err := Walk(e, visit); err != nil {
						return err
					}
				}
			case CallOp:
				for _, a := range o.Args {
					if err := Walk(a, visit); err != nil {
						return err
					}
				}
			}
		}
	case *StringLiteralNode:
		for _, p := range n.Parts {
			if p.Expr != nil {
				if err := Walk(p.Expr, visit); err != nil {
					return err
				}
			}
		}
	case *CallExprNode:
		if err := Walk(n.Callee, visit); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := Walk(a, visit); err != nil {
				return err
			}
		}
	}
	return nil
}
