package lower

import (
	"github.com/wippyai/resumable/ast"
)

// rewriteResumeArgs separates what a suspension point produces from what
// the next call supplies back: `t = yield v` becomes `yield v` followed by
// `t = _arg` at the resume point.
func (l *lowering) rewriteResumeArgs(list []ast.Stmt) []ast.Stmt {
	return l.eachSuspension(list, func(s ast.Stmt, y *ast.Yield) []ast.Stmt {
		a, ok := s.(*ast.Assign)
		if !ok {
			return nil
		}
		return []ast.Stmt{&ast.Assign{
			LHS:  a.LHS,
			RHS:  []ast.Expr{&ast.ResumeArg{}},
			Line: a.Line,
		}}
	})
}

// injectExceptions raises an exception-kind resume argument at the point
// where the machine was suspended.
func (l *lowering) injectExceptions(list []ast.Stmt) []ast.Stmt {
	return l.eachSuspension(list, func(ast.Stmt, *ast.Yield) []ast.Stmt {
		return []ast.Stmt{&ast.If{
			Cond: ast.CallFunc(ast.IntrinsicIsError, &ast.ResumeArg{}),
			Then: []ast.Stmt{&ast.Throw{Value: &ast.ResumeArg{}}},
		}}
	})
}

// eachSuspension replaces every suspension statement with a bare `yield v`
// and places the statements returned by resumed in front of whatever
// already runs on resume: at the start of the continuation region if the
// suspension point split one, else directly after the suspension point.
func (l *lowering) eachSuspension(list []ast.Stmt, resumed func(ast.Stmt, *ast.Yield) []ast.Stmt) []ast.Stmt {
	if list == nil {
		return nil
	}
	out := make([]ast.Stmt, 0, len(list))
	for _, s := range list {
		if y, ok := ast.AsYield(s); ok {
			out = append(out, &ast.ExprStmt{X: y})
			after := resumed(s, y)
			if cont, ok := l.continuations[y]; ok {
				cont.Body = append(after, cont.Body...)
			} else {
				out = append(out, after...)
			}
			continue
		}
		switch s := s.(type) {
		case *ast.If:
			s.Then = l.eachSuspension(s.Then, resumed)
			s.Else = l.eachSuspension(s.Else, resumed)
		case *ast.While:
			s.Body = l.eachSuspension(s.Body, resumed)
		case *ast.Try:
			s.Body = l.eachSuspension(s.Body, resumed)
		}
		out = append(out, s)
	}
	return out
}
