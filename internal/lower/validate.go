package lower

import (
	"strings"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
)

// validator checks the placement of suspension points and rejects names
// that collide with synthesized ones.
type validator struct {
	fn   *ast.Func
	line int
}

func validate(fn *ast.Func) error {
	v := &validator{fn: fn, line: fn.Line}
	for _, tp := range fn.TypeParams {
		if err := v.name(tp.Name); err != nil {
			return err
		}
	}
	for _, p := range fn.Params {
		if err := v.name(p.Name); err != nil {
			return err
		}
		if p.Default != nil {
			if err := v.expr(p.Default, false); err != nil {
				return err
			}
		}
	}
	return v.stmts(fn.Body, false)
}

func (v *validator) fail(kind errors.Kind, line int, detail string, args ...any) error {
	return errors.New(errors.PhaseTransform, kind).
		Func(v.fn.Name).
		Line(line).
		Detail(detail, args...).
		Build()
}

func (v *validator) name(n string) error {
	if strings.HasPrefix(n, "_") {
		return v.fail(errors.KindReservedName, v.line, "identifier %q: names starting with '_' are reserved", n)
	}
	return nil
}

func (v *validator) stmts(list []ast.Stmt, inClosure bool) error {
	for _, s := range list {
		if err := v.stmt(s, inClosure); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) stmt(s ast.Stmt, inClosure bool) error {
	if y, ok := ast.AsYield(s); ok {
		if y.Line > 0 {
			v.line = y.Line
		}
		if inClosure {
			return v.fail(errors.KindYieldInClosure, v.line, "suspension point inside a nested function")
		}
		if a, ok := s.(*ast.Assign); ok {
			for _, lhs := range a.LHS {
				if err := v.target(lhs, inClosure); err != nil {
					return err
				}
			}
		}
		if y.Value != nil {
			return v.expr(y.Value, inClosure)
		}
		return nil
	}

	switch s := s.(type) {
	case *ast.ExprStmt:
		return v.expr(s.X, inClosure)
	case *ast.Assign:
		if s.Line > 0 {
			v.line = s.Line
		}
		for _, lhs := range s.LHS {
			if err := v.target(lhs, inClosure); err != nil {
				return err
			}
		}
		return v.exprs(s.RHS, inClosure)
	case *ast.If:
		if err := v.expr(s.Cond, inClosure); err != nil {
			return err
		}
		if err := v.stmts(s.Then, inClosure); err != nil {
			return err
		}
		return v.stmts(s.Else, inClosure)
	case *ast.While:
		if err := v.expr(s.Cond, inClosure); err != nil {
			return err
		}
		return v.stmts(s.Body, inClosure)
	case *ast.For:
		if s.Line > 0 {
			v.line = s.Line
		}
		if err := v.name(s.Var); err != nil {
			return err
		}
		if err := v.expr(s.Iter, inClosure); err != nil {
			return err
		}
		return v.stmts(s.Body, inClosure)
	case *ast.Return:
		if s.Value == nil {
			return nil
		}
		return v.expr(s.Value, inClosure)
	case *ast.Throw:
		return v.expr(s.Value, inClosure)
	case *ast.Try:
		if s.Line > 0 {
			v.line = s.Line
		}
		if err := v.name(s.CatchVar); err != nil {
			return err
		}
		if err := v.stmts(s.Body, inClosure); err != nil {
			return err
		}
		if err := v.stmts(s.Catch, inClosure); err != nil {
			return err
		}
		return v.stmts(s.Finally, inClosure)
	case *ast.Break, *ast.Continue:
		return nil
	case *ast.Label, *ast.Goto:
		return v.fail(errors.KindInvalidInput, v.line, "label and goto are produced by lowering only")
	}
	return nil
}

func (v *validator) target(e ast.Expr, inClosure bool) error {
	switch e := e.(type) {
	case *ast.Ident:
		return v.name(e.Name)
	case *ast.Index:
		return v.expr(e, inClosure)
	}
	return v.fail(errors.KindInvalidInput, v.line, "cannot assign to %s", ast.FormatExpr(e))
}

func (v *validator) exprs(list []ast.Expr, inClosure bool) error {
	for _, e := range list {
		if err := v.expr(e, inClosure); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) expr(e ast.Expr, inClosure bool) error {
	switch e := e.(type) {
	case *ast.Yield:
		if e.Line > 0 {
			v.line = e.Line
		}
		if inClosure {
			return v.fail(errors.KindYieldInClosure, v.line, "suspension point inside a nested function")
		}
		return v.fail(errors.KindYieldInExpression, v.line,
			"suspension point used as a value; only `yield v` and `x = yield v` statements may suspend")
	case *ast.Ident:
		return v.name(e.Name)
	case *ast.Unary:
		return v.expr(e.X, inClosure)
	case *ast.Binary:
		if err := v.expr(e.X, inClosure); err != nil {
			return err
		}
		return v.expr(e.Y, inClosure)
	case *ast.Call:
		if err := v.expr(e.Fun, inClosure); err != nil {
			return err
		}
		return v.exprs(e.Args, inClosure)
	case *ast.Index:
		if err := v.expr(e.X, inClosure); err != nil {
			return err
		}
		return v.expr(e.Index, inClosure)
	case *ast.FuncLit:
		for _, p := range e.Params {
			if err := v.name(p); err != nil {
				return err
			}
		}
		return v.stmts(e.Body, true)
	case *ast.ResumeArg, *ast.State:
		return v.fail(errors.KindInvalidInput, v.line, "%s is produced by lowering only", ast.FormatExpr(e))
	}
	return nil
}
