package ast

import (
	"strconv"
	"strings"
)

var opNames = map[string]string{
	"&&": "and",
	"||": "or",
	"!":  "not",
}

// OpName returns the s-expression spelling of a Go operator.
func OpName(op string) string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return op
}

// Format renders fn in s-expression notation.
func Format(fn *Func) string {
	p := &printer{}
	p.fn(fn)
	return p.b.String()
}

// FormatStmts renders a statement list, one statement per line.
func FormatStmts(list []Stmt) string {
	p := &printer{}
	for i, s := range list {
		if i > 0 {
			p.b.WriteByte('\n')
		}
		p.stmt(s)
	}
	return p.b.String()
}

// FormatExpr renders a single expression.
func FormatExpr(e Expr) string {
	p := &printer{}
	p.expr(e)
	return p.b.String()
}

type printer struct {
	b      strings.Builder
	indent int
}

func (p *printer) newline() {
	p.b.WriteByte('\n')
	for i := 0; i < p.indent; i++ {
		p.b.WriteString("  ")
	}
}

func (p *printer) fn(fn *Func) {
	p.b.WriteString("(func ")
	p.b.WriteString(fn.Name)
	for _, tp := range fn.TypeParams {
		p.b.WriteString(" (typeparam ")
		p.b.WriteString(tp.Name)
		p.b.WriteByte(' ')
		p.b.WriteString(tp.Constraint.String())
		p.b.WriteByte(')')
	}
	for _, prm := range fn.Params {
		p.b.WriteString(" (param ")
		p.b.WriteString(prm.Name)
		p.b.WriteByte(' ')
		p.b.WriteString(prm.Type.String())
		if prm.Default != nil {
			p.b.WriteByte(' ')
			p.expr(prm.Default)
		}
		p.b.WriteByte(')')
	}
	if fn.Result != nil {
		p.b.WriteString(" (result ")
		p.b.WriteString(fn.Result.String())
		p.b.WriteByte(')')
	}
	p.block(fn.Body)
	p.b.WriteByte(')')
}

func (p *printer) block(list []Stmt) {
	p.indent++
	for _, s := range list {
		p.newline()
		p.stmt(s)
	}
	p.indent--
}

func (p *printer) clause(name string, list []Stmt) {
	p.indent++
	p.newline()
	p.b.WriteByte('(')
	p.b.WriteString(name)
	p.block(list)
	p.b.WriteByte(')')
	p.indent--
}

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *ExprStmt:
		p.expr(s.X)
	case *Assign:
		p.b.WriteString("(set ")
		if len(s.LHS) == 1 {
			p.expr(s.LHS[0])
		} else {
			p.b.WriteByte('(')
			p.exprs(s.LHS)
			p.b.WriteByte(')')
		}
		p.b.WriteByte(' ')
		p.exprs(s.RHS)
		p.b.WriteByte(')')
	case *If:
		p.b.WriteString("(if ")
		p.expr(s.Cond)
		p.clause("then", s.Then)
		if len(s.Else) > 0 {
			p.clause("else", s.Else)
		}
		p.b.WriteByte(')')
	case *While:
		p.b.WriteString("(while ")
		p.expr(s.Cond)
		p.block(s.Body)
		p.b.WriteByte(')')
	case *For:
		p.b.WriteString("(for ")
		p.b.WriteString(s.Var)
		p.b.WriteByte(' ')
		p.expr(s.Iter)
		p.block(s.Body)
		p.b.WriteByte(')')
	case *Break:
		p.b.WriteString("(break)")
	case *Continue:
		p.b.WriteString("(continue)")
	case *Return:
		p.b.WriteString("(return")
		if s.Value != nil {
			p.b.WriteByte(' ')
			p.expr(s.Value)
		}
		p.b.WriteByte(')')
	case *Throw:
		p.b.WriteString("(throw ")
		p.expr(s.Value)
		p.b.WriteByte(')')
	case *Try:
		p.b.WriteString("(try")
		p.block(s.Body)
		if s.HasCatch {
			name := s.CatchVar
			if name == "" {
				name = "_"
			}
			p.clause("catch "+name, s.Catch)
		}
		if len(s.Finally) > 0 {
			p.clause("finally", s.Finally)
		}
		p.b.WriteByte(')')
	case *Label:
		p.b.WriteString("(label ")
		p.b.WriteString(s.Name)
		p.b.WriteByte(')')
	case *Goto:
		p.b.WriteString("(goto ")
		p.b.WriteString(s.Label)
		p.b.WriteByte(')')
	}
}

func (p *printer) exprs(list []Expr) {
	for i, e := range list {
		if i > 0 {
			p.b.WriteByte(' ')
		}
		p.expr(e)
	}
}

func (p *printer) expr(e Expr) {
	switch e := e.(type) {
	case *Ident:
		p.b.WriteString(e.Name)
	case *Lit:
		p.b.WriteString(FormatValue(e.Value))
	case *Unary:
		p.b.WriteByte('(')
		p.b.WriteString(OpName(e.Op))
		p.b.WriteByte(' ')
		p.expr(e.X)
		p.b.WriteByte(')')
	case *Binary:
		p.b.WriteByte('(')
		p.b.WriteString(OpName(e.Op))
		p.b.WriteByte(' ')
		p.expr(e.X)
		p.b.WriteByte(' ')
		p.expr(e.Y)
		p.b.WriteByte(')')
	case *Call:
		p.b.WriteByte('(')
		p.expr(e.Fun)
		if len(e.Args) > 0 {
			p.b.WriteByte(' ')
			p.exprs(e.Args)
		}
		p.b.WriteByte(')')
	case *Index:
		p.b.WriteString("(index ")
		p.expr(e.X)
		p.b.WriteByte(' ')
		p.expr(e.Index)
		p.b.WriteByte(')')
	case *FuncLit:
		p.b.WriteString("(fn (")
		p.b.WriteString(strings.Join(e.Params, " "))
		p.b.WriteByte(')')
		for _, s := range e.Body {
			p.b.WriteByte(' ')
			p.stmt(s)
		}
		p.b.WriteByte(')')
	case *Yield:
		p.b.WriteString("(yield")
		if e.Value != nil {
			p.b.WriteByte(' ')
			p.expr(e.Value)
		}
		p.b.WriteByte(')')
	case *ResumeArg:
		p.b.WriteString("(resumearg)")
	case *State:
		p.b.WriteString("(state)")
	case nil:
		p.b.WriteString("nil")
	}
}

// FormatValue renders a literal value so that package syntax reads it back
// as the same constant.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	}
	return "?"
}
