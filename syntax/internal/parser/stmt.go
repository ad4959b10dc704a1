package parser

import (
	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/syntax/internal/token"
)

// parseStmts reads statements up to, not including, the closing paren.
func (p *Parser) parseStmts() ([]ast.Stmt, error) {
	var list []ast.Stmt
	for !p.atRParen() {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if p.peek() == nil {
		return nil, errors.UnexpectedEOF()
	}
	return list, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	t := p.peek()
	if t.Type != token.LParen {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{X: x}, nil
	}

	kw := p.peekAt(1)
	if kw == nil {
		return nil, errors.UnexpectedEOF()
	}
	if kw.Type != token.Ident {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{X: x}, nil
	}

	start := p.pos
	line := kw.Line
	p.pos += 2

	var (
		s   ast.Stmt
		err error
	)
	switch kw.Value {
	case "set":
		s, err = p.parseSet(line)
	case "if":
		s, err = p.parseIf()
	case "while":
		s, err = p.parseWhile()
	case "for":
		s, err = p.parseFor(line)
	case "break":
		s = &ast.Break{}
	case "continue":
		s = &ast.Continue{}
	case "return":
		r := &ast.Return{}
		if !p.atRParen() {
			r.Value, err = p.parseExpr()
		}
		s = r
	case "throw":
		var v ast.Expr
		v, err = p.parseExpr()
		s = &ast.Throw{Value: v}
	case "try":
		s, err = p.parseTry(line)
	default:
		// expression statement, including (yield ...)
		p.pos = start
		var x ast.Expr
		x, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{X: x}, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Parser) parseSet(line int) (ast.Stmt, error) {
	var lhs []ast.Expr
	if p.atClause("index", "state") || p.peek().Type != token.LParen {
		target, err := p.parseLValue()
		if err != nil {
			return nil, err
		}
		lhs = append(lhs, target)
	} else {
		p.next()
		for !p.atRParen() {
			target, err := p.parseLValue()
			if err != nil {
				return nil, err
			}
			lhs = append(lhs, target)
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		if len(lhs) == 0 {
			return nil, errors.ParseFailed(line, "set needs at least one target")
		}
	}

	var rhs []ast.Expr
	for !p.atRParen() {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		rhs = append(rhs, x)
	}
	if len(rhs) == 0 {
		return nil, errors.ParseFailed(line, "set needs a value")
	}
	if len(rhs) != 1 && len(rhs) != len(lhs) {
		return nil, errors.ParseFailed(line, "set has %d targets and %d values", len(lhs), len(rhs))
	}
	return &ast.Assign{LHS: lhs, RHS: rhs, Line: line}, nil
}

func (p *Parser) parseLValue() (ast.Expr, error) {
	t := p.peek()
	if t == nil {
		return nil, errors.UnexpectedEOF()
	}
	if t.Type == token.Ident {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, ok := x.(*ast.Ident); !ok {
			return nil, errors.ParseFailed(t.Line, "cannot assign to %q", t.Value)
		}
		return x, nil
	}
	if p.atClause("index") {
		return p.parseExpr()
	}
	return nil, errors.ParseFailed(t.Line, "invalid assignment target %q", t.Value)
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	s := &ast.If{Cond: cond}
	if p.atClause("then") {
		p.pos += 2
		if s.Then, err = p.parseStmts(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}
	if p.atClause("else") {
		p.pos += 2
		if s.Else, err = p.parseStmts(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmts()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor(line int) (ast.Stmt, error) {
	v, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmts()
	if err != nil {
		return nil, err
	}
	return &ast.For{Var: v.Value, Iter: iter, Body: body, Line: line}, nil
}

func (p *Parser) parseTry(line int) (ast.Stmt, error) {
	s := &ast.Try{Line: line}
	for !p.atRParen() && !p.atClause("catch", "finally") {
		st, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		s.Body = append(s.Body, st)
	}
	if p.atClause("catch") {
		p.pos += 2
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if name.Value != "_" {
			s.CatchVar = name.Value
		}
		s.HasCatch = true
		if s.Catch, err = p.parseStmts(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}
	if p.atClause("finally") {
		p.pos += 2
		var err error
		if s.Finally, err = p.parseStmts(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}
	if !s.HasCatch && s.Finally == nil {
		return nil, errors.ParseFailed(line, "try needs a catch or finally clause")
	}
	return s, nil
}
