package parser

import (
	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/syntax/internal/token"
)

// lowering-only forms that source text may not spell
var loweringForms = map[string]bool{
	"label":     true,
	"goto":      true,
	"state":     true,
	"resumearg": true,
}

type Parser struct {
	typeParams map[string]bool
	tokens     []token.Token
	pos        int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse reads either a sequence of (func ...) forms or a single
// (module (func ...) ...) wrapper.
func (p *Parser) Parse() ([]*ast.Func, error) {
	var funcs []*ast.Func
	for p.peek() != nil {
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		kw, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		switch kw.Value {
		case "func":
			fn, err := p.parseFunc(kw.Line)
			if err != nil {
				return nil, err
			}
			funcs = append(funcs, fn)
		case "module":
			for !p.atRParen() {
				if _, err := p.expect(token.LParen); err != nil {
					return nil, err
				}
				t, err := p.expect(token.Ident)
				if err != nil {
					return nil, err
				}
				if t.Value != "func" {
					return nil, errors.ParseFailed(t.Line, "expected 'func', got %q", t.Value)
				}
				fn, err := p.parseFunc(t.Line)
				if err != nil {
					return nil, err
				}
				funcs = append(funcs, fn)
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		default:
			return nil, errors.ParseFailed(kw.Line, "expected 'func' or 'module', got %q", kw.Value)
		}
	}
	return funcs, nil
}

func (p *Parser) peek() *token.Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(n int) *token.Token {
	if p.pos+n >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos+n]
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, errors.UnexpectedEOF()
	}
	if t.Type != typ {
		return nil, errors.ParseFailed(t.Line, "expected %v, got %q", typ, t.Value)
	}
	return t, nil
}

func (p *Parser) atRParen() bool {
	t := p.peek()
	return t == nil || t.Type == token.RParen
}

// atClause reports whether the next tokens open a (name ...) form.
func (p *Parser) atClause(names ...string) bool {
	t := p.peek()
	if t == nil || t.Type != token.LParen {
		return false
	}
	kw := p.peekAt(1)
	if kw == nil || kw.Type != token.Ident {
		return false
	}
	for _, n := range names {
		if kw.Value == n {
			return true
		}
	}
	return false
}

func (p *Parser) line() int {
	if t := p.peek(); t != nil {
		return t.Line
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1].Line
	}
	return 0
}

func (p *Parser) parseFunc(line int) (*ast.Func, error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	fn := &ast.Func{Name: name.Value, Line: line}
	p.typeParams = make(map[string]bool)

	for p.atClause("typeparam", "param", "result") {
		p.next()
		kw := p.next()
		switch kw.Value {
		case "typeparam":
			tp, err := p.parseTypeParam()
			if err != nil {
				return nil, err
			}
			fn.TypeParams = append(fn.TypeParams, tp)
		case "param":
			prm, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, prm)
		case "result":
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			fn.Result = &typ
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		}
	}

	body, err := p.parseStmts()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *Parser) parseTypeParam() (ast.TypeParam, error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return ast.TypeParam{}, err
	}
	tp := ast.TypeParam{Name: name.Value, Constraint: ast.AnyType}
	if !p.atRParen() {
		c, err := p.parseType()
		if err != nil {
			return ast.TypeParam{}, err
		}
		tp.Constraint = c
	}
	if _, err := p.expect(token.RParen); err != nil {
		return ast.TypeParam{}, err
	}
	p.typeParams[tp.Name] = true
	return tp, nil
}

func (p *Parser) parseParam() (ast.Param, error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return ast.Param{}, err
	}
	prm := ast.Param{Name: name.Value, Type: ast.AnyType}
	if !p.atRParen() {
		typ, err := p.parseType()
		if err != nil {
			return ast.Param{}, err
		}
		prm.Type = typ
	}
	if !p.atRParen() {
		def, err := p.parseExpr()
		if err != nil {
			return ast.Param{}, err
		}
		prm.Default = def
	}
	if _, err := p.expect(token.RParen); err != nil {
		return ast.Param{}, err
	}
	return prm, nil
}

func (p *Parser) parseType() (ast.Type, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return ast.Type{}, err
	}
	if typ, ok := ast.LookupType(t.Value); ok {
		return typ, nil
	}
	if p.typeParams[t.Value] {
		return ast.TypeParamRef(t.Value), nil
	}
	return ast.Type{}, errors.ParseFailed(t.Line, "unknown type: %s", t.Value)
}
