package lower

import (
	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
)

// dispatch prepends the branch table that resumes at the pending label:
//
//	if state == 1 { goto _STATE_1 }
//	...
//	if state != 0 { throw _stopped(name) }
//	state = 0xFF
//	if _iserror(_arg) { throw _arg }
//
// A completed machine matches no label and reaches the stopped error. The
// first call falls through, after raising an exception-kind argument.
func (l *lowering) dispatch(body []ast.Stmt, suspensions int) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, suspensions+3+len(body))
	for n := 1; n <= suspensions; n++ {
		out = append(out, &ast.If{
			Cond: &ast.Binary{Op: "==", X: &ast.State{}, Y: ast.Const(int64(n))},
			Then: []ast.Stmt{&ast.Goto{Label: StateLabel(n)}},
		})
	}
	out = append(out,
		&ast.If{
			Cond: &ast.Binary{Op: "!=", X: &ast.State{}, Y: ast.Const(int64(StateCreated))},
			Then: []ast.Stmt{&ast.Throw{Value: ast.CallFunc(ast.IntrinsicStopped, ast.Const(l.fn.Name))}},
		},
		ast.Set(&ast.State{}, ast.Const(int64(StateCompleted))),
		&ast.If{
			Cond: ast.CallFunc(ast.IntrinsicIsError, &ast.ResumeArg{}),
			Then: []ast.Stmt{&ast.Throw{Value: &ast.ResumeArg{}}},
		},
	)
	out = append(out, body...)

	if err := l.checkJumps(out); err != nil {
		return nil, err
	}
	return out, nil
}

// region identifies one part of a protected region.
type region struct {
	try  *ast.Try
	part int
}

const (
	partBody = iota
	partCatch
	partFinally
)

// checkJumps verifies that every goto can reach its label without entering
// a protected region: the regions enclosing a label must also enclose each
// goto that targets it.
func (l *lowering) checkJumps(body []ast.Stmt) error {
	labels := make(map[string][]region)
	type jump struct {
		label   string
		regions []region
	}
	var jumps []jump

	var walk func(list []ast.Stmt, regions []region) error
	walk = func(list []ast.Stmt, regions []region) error {
		for _, s := range list {
			switch s := s.(type) {
			case *ast.Label:
				if _, dup := labels[s.Name]; dup {
					return l.structural(errors.KindInvalidInput, l.fn.Line, "duplicate label %s", s.Name)
				}
				labels[s.Name] = regions
			case *ast.Goto:
				jumps = append(jumps, jump{label: s.Label, regions: regions})
			case *ast.If:
				if err := walk(s.Then, regions); err != nil {
					return err
				}
				if err := walk(s.Else, regions); err != nil {
					return err
				}
			case *ast.While:
				if err := walk(s.Body, regions); err != nil {
					return err
				}
			case *ast.Try:
				inner := func(part int) []region {
					return append(append([]region(nil), regions...), region{try: s, part: part})
				}
				if err := walk(s.Body, inner(partBody)); err != nil {
					return err
				}
				if err := walk(s.Catch, inner(partCatch)); err != nil {
					return err
				}
				if err := walk(s.Finally, inner(partFinally)); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(body, nil); err != nil {
		return err
	}

	for _, j := range jumps {
		target, ok := labels[j.label]
		if !ok {
			return l.structural(errors.KindInvalidInput, l.fn.Line, "goto undefined label %s", j.label)
		}
		if len(target) > len(j.regions) {
			return l.structural(errors.KindLabelInRegion, target[len(target)-1].try.Line,
				"label %s lies inside a protected region its jump does not enclose", j.label)
		}
		for i, r := range target {
			if j.regions[i] != r {
				return l.structural(errors.KindLabelInRegion, r.try.Line,
					"label %s lies inside a protected region its jump does not enclose", j.label)
			}
		}
	}
	return nil
}
