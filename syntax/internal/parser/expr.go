package parser

import (
	"strconv"
	"strings"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/syntax/internal/token"
)

// binaryOps maps s-expression operator spellings to Go operators.
var binaryOps = map[string]string{
	"+":   "+",
	"-":   "-",
	"*":   "*",
	"/":   "/",
	"%":   "%",
	"==":  "==",
	"!=":  "!=",
	"<":   "<",
	"<=":  "<=",
	">":   ">",
	">=":  ">=",
	"and": "&&",
	"or":  "||",
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	t := p.next()
	if t == nil {
		return nil, errors.UnexpectedEOF()
	}

	switch t.Type {
	case token.Number:
		return parseNumber(t)
	case token.String:
		s, err := strconv.Unquote(`"` + t.Value + `"`)
		if err != nil {
			return nil, errors.ParseFailed(t.Line, "invalid string literal %q", t.Value)
		}
		return ast.Const(s), nil
	case token.Ident:
		switch t.Value {
		case "true":
			return ast.Const(true), nil
		case "false":
			return ast.Const(false), nil
		case "nil":
			return ast.Const(nil), nil
		}
		if _, ok := binaryOps[t.Value]; ok {
			return nil, errors.ParseFailed(t.Line, "operator %q outside of a form", t.Value)
		}
		return ast.Name(t.Value), nil
	case token.RParen:
		return nil, errors.ParseFailed(t.Line, "unexpected ')'")
	}

	// t is '('
	head := p.peek()
	if head == nil {
		return nil, errors.UnexpectedEOF()
	}
	if head.Type == token.LParen {
		fun, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return p.finishCall(fun)
	}
	if head.Type != token.Ident {
		return nil, errors.ParseFailed(head.Line, "expected operator or function name, got %q", head.Value)
	}
	p.next()

	if loweringForms[head.Value] {
		return nil, errors.ParseFailed(head.Line, "lowering-only form %q", head.Value)
	}

	switch head.Value {
	case "yield":
		y := &ast.Yield{Line: head.Line}
		if !p.atRParen() {
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			y.Value = v
		}
		return y, p.closeForm()
	case "fn":
		return p.parseFuncLit(head.Line)
	case "index":
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, errors.ParseFailed(head.Line, "index takes 2 operands, got %d", len(args))
		}
		return &ast.Index{X: args[0], Index: args[1]}, nil
	case "not":
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, errors.ParseFailed(head.Line, "not takes 1 operand, got %d", len(args))
		}
		return &ast.Unary{Op: "!", X: args[0]}, nil
	}

	if op, ok := binaryOps[head.Value]; ok {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if op == "-" && len(args) == 1 {
			return &ast.Unary{Op: "-", X: args[0]}, nil
		}
		if len(args) < 2 {
			return nil, errors.ParseFailed(head.Line, "%s takes at least 2 operands, got %d", head.Value, len(args))
		}
		// n-ary forms fold to the left
		x := args[0]
		for _, y := range args[1:] {
			x = &ast.Binary{Op: op, X: x, Y: y}
		}
		return x, nil
	}

	return p.finishCall(ast.Name(head.Value))
}

func (p *Parser) finishCall(fun ast.Expr) (ast.Expr, error) {
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	return &ast.Call{Fun: fun, Args: args}, nil
}

// parseArgs reads expressions up to and including the closing paren.
func (p *Parser) parseArgs() ([]ast.Expr, error) {
	var args []ast.Expr
	for !p.atRParen() {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, x)
	}
	return args, p.closeForm()
}

func (p *Parser) closeForm() error {
	_, err := p.expect(token.RParen)
	return err
}

func (p *Parser) parseFuncLit(line int) (ast.Expr, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	lit := &ast.FuncLit{}
	for !p.atRParen() {
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		lit.Params = append(lit.Params, name.Value)
	}
	if err := p.closeForm(); err != nil {
		return nil, err
	}
	body, err := p.parseStmts()
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.ParseFailed(line, "fn needs a body")
	}
	lit.Body = body
	return lit, p.closeForm()
}

func parseNumber(t *token.Token) (ast.Expr, error) {
	s := strings.ReplaceAll(t.Value, "_", "")
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.ParseFailed(t.Line, "invalid number: %s", t.Value)
		}
		return ast.Const(f), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errors.ParseFailed(t.Line, "invalid number: %s", t.Value)
	}
	return ast.Const(n), nil
}
