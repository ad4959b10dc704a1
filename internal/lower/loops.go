package lower

import (
	"github.com/wippyai/resumable/ast"
)

// normalizeLoops rewrites every for-loop outside closures into explicit
// cursor form, so that a suspension inside the body can resume without the
// loop construct's hidden state:
//
//	_iterK = _iter(ITER)
//	_iterstateK = _start(_iterK)
//	while !_done(_iterK, _iterstateK) {
//		x, _iterstateK = _next(_iterK, _iterstateK)
//		BODY
//	}
//
// Each loop gets its own K, outer loops first.
func (l *lowering) normalizeLoops(list []ast.Stmt) []ast.Stmt {
	if list == nil {
		return nil
	}
	out := make([]ast.Stmt, 0, len(list))
	for _, s := range list {
		switch s := s.(type) {
		case *ast.For:
			out = append(out, l.normalizeFor(s)...)
			continue
		case *ast.If:
			s.Then = l.normalizeLoops(s.Then)
			s.Else = l.normalizeLoops(s.Else)
		case *ast.While:
			s.Body = l.normalizeLoops(s.Body)
		case *ast.Try:
			s.Body = l.normalizeLoops(s.Body)
			s.Catch = l.normalizeLoops(s.Catch)
			s.Finally = l.normalizeLoops(s.Finally)
		}
		out = append(out, s)
	}
	return out
}

func (l *lowering) normalizeFor(s *ast.For) []ast.Stmt {
	k := l.fresh("loop")
	handle := func() ast.Expr { return ast.Name("_iter" + k) }
	state := func() ast.Expr { return ast.Name("_iterstate" + k) }

	advance := &ast.Assign{
		LHS:  []ast.Expr{ast.Name(s.Var), state()},
		RHS:  []ast.Expr{ast.CallFunc(ast.IntrinsicNext, handle(), state())},
		Line: s.Line,
	}
	body := append([]ast.Stmt{advance}, l.normalizeLoops(s.Body)...)

	return []ast.Stmt{
		ast.Set(handle(), ast.CallFunc(ast.IntrinsicIter, s.Iter)),
		ast.Set(state(), ast.CallFunc(ast.IntrinsicStart, handle())),
		&ast.While{
			Cond: &ast.Unary{Op: "!", X: ast.CallFunc(ast.IntrinsicDone, handle(), state())},
			Body: body,
		},
	}
}
