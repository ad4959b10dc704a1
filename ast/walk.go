package ast

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// each node. If f returns false, the children of that node are skipped.
// FuncLit bodies are visited.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Unary:
		Inspect(n.X, f)
	case *Binary:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *Call:
		Inspect(n.Fun, f)
		inspectExprs(n.Args, f)
	case *Index:
		Inspect(n.X, f)
		Inspect(n.Index, f)
	case *FuncLit:
		InspectList(n.Body, f)
	case *Yield:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *ExprStmt:
		Inspect(n.X, f)
	case *Assign:
		inspectExprs(n.LHS, f)
		inspectExprs(n.RHS, f)
	case *If:
		Inspect(n.Cond, f)
		InspectList(n.Then, f)
		InspectList(n.Else, f)
	case *While:
		Inspect(n.Cond, f)
		InspectList(n.Body, f)
	case *For:
		Inspect(n.Iter, f)
		InspectList(n.Body, f)
	case *Return:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *Throw:
		Inspect(n.Value, f)
	case *Try:
		InspectList(n.Body, f)
		InspectList(n.Catch, f)
		InspectList(n.Finally, f)
	}
}

// InspectList calls Inspect for every statement in list.
func InspectList(list []Stmt, f func(Node) bool) {
	for _, s := range list {
		Inspect(s, f)
	}
}

func inspectExprs(list []Expr, f func(Node) bool) {
	for _, e := range list {
		Inspect(e, f)
	}
}

// ContainsYield reports whether n contains a suspension point outside of any
// nested FuncLit.
func ContainsYield(n Node) bool {
	found := false
	Inspect(n, func(n Node) bool {
		if found {
			return false
		}
		switch n.(type) {
		case *Yield:
			found = true
			return false
		case *FuncLit:
			return false
		}
		return true
	})
	return found
}

// ListContainsYield is ContainsYield over a statement list.
func ListContainsYield(list []Stmt) bool {
	for _, s := range list {
		if ContainsYield(s) {
			return true
		}
	}
	return false
}

// CloneStmts returns a deep copy of list.
func CloneStmts(list []Stmt) []Stmt {
	if list == nil {
		return nil
	}
	out := make([]Stmt, len(list))
	for i, s := range list {
		out[i] = CloneStmt(s)
	}
	return out
}

// CloneStmt returns a deep copy of s.
func CloneStmt(s Stmt) Stmt {
	switch s := s.(type) {
	case *ExprStmt:
		return &ExprStmt{X: CloneExpr(s.X)}
	case *Assign:
		return &Assign{LHS: cloneExprs(s.LHS), RHS: cloneExprs(s.RHS), Line: s.Line}
	case *If:
		return &If{Cond: CloneExpr(s.Cond), Then: CloneStmts(s.Then), Else: CloneStmts(s.Else)}
	case *While:
		return &While{Cond: CloneExpr(s.Cond), Body: CloneStmts(s.Body)}
	case *For:
		return &For{Var: s.Var, Iter: CloneExpr(s.Iter), Body: CloneStmts(s.Body), Line: s.Line}
	case *Break:
		return &Break{}
	case *Continue:
		return &Continue{}
	case *Return:
		return &Return{Value: CloneExpr(s.Value)}
	case *Throw:
		return &Throw{Value: CloneExpr(s.Value)}
	case *Try:
		return &Try{
			Body:     CloneStmts(s.Body),
			CatchVar: s.CatchVar,
			Catch:    CloneStmts(s.Catch),
			HasCatch: s.HasCatch,
			Finally:  CloneStmts(s.Finally),
			Line:     s.Line,
		}
	case *Label:
		return &Label{Name: s.Name}
	case *Goto:
		return &Goto{Label: s.Label}
	}
	return s
}

// CloneExpr returns a deep copy of e.
func CloneExpr(e Expr) Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *Ident:
		return &Ident{Name: e.Name}
	case *Lit:
		return &Lit{Value: e.Value}
	case *Unary:
		return &Unary{Op: e.Op, X: CloneExpr(e.X)}
	case *Binary:
		return &Binary{Op: e.Op, X: CloneExpr(e.X), Y: CloneExpr(e.Y)}
	case *Call:
		return &Call{Fun: CloneExpr(e.Fun), Args: cloneExprs(e.Args)}
	case *Index:
		return &Index{X: CloneExpr(e.X), Index: CloneExpr(e.Index)}
	case *FuncLit:
		return &FuncLit{Params: append([]string(nil), e.Params...), Body: CloneStmts(e.Body)}
	case *Yield:
		return &Yield{Value: CloneExpr(e.Value), Line: e.Line}
	case *ResumeArg:
		return &ResumeArg{}
	case *State:
		return &State{}
	}
	return e
}

func cloneExprs(list []Expr) []Expr {
	if list == nil {
		return nil
	}
	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = CloneExpr(e)
	}
	return out
}
