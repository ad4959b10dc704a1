package syntax

import (
	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/syntax/internal/parser"
	"github.com/wippyai/resumable/syntax/internal/token"
)

// Parse reads every function defined in source.
func Parse(source string) ([]*ast.Func, error) {
	tokens := token.Tokenize(source)
	p := parser.New(tokens)
	return p.Parse()
}

// ParseFunc reads source that must define exactly one function.
func ParseFunc(source string) (*ast.Func, error) {
	funcs, err := Parse(source)
	if err != nil {
		return nil, err
	}
	if len(funcs) != 1 {
		return nil, errors.InvalidInput(errors.PhaseParse, "expected exactly one function")
	}
	return funcs[0], nil
}
