package lower

import (
	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
)

// lowerSuspensions numbers the suspension points in textual order and
// replaces suspension point n with
//
//	state = n
//	return v
//	label _STATE_n
//	state = 0xFF
//
// The completed-state store after the label marks the machine finished if
// the body runs off its end without suspending again.
func (l *lowering) lowerSuspensions(list []ast.Stmt) ([]ast.Stmt, int, error) {
	n := 0
	out, err := l.lowerSuspensionList(list, &n)
	if err != nil {
		return nil, 0, err
	}
	return out, n, nil
}

func (l *lowering) lowerSuspensionList(list []ast.Stmt, n *int) ([]ast.Stmt, error) {
	if list == nil {
		return nil, nil
	}
	out := make([]ast.Stmt, 0, len(list))
	for _, s := range list {
		var err error
		if y, ok := ast.AsYield(s); ok {
			*n++
			if *n > MaxSuspensions {
				return nil, l.structural(errors.KindTooManySuspensions, y.Line,
					"more than %d suspension points", MaxSuspensions)
			}
			out = append(out,
				ast.Set(&ast.State{}, ast.Const(int64(*n))),
				&ast.Return{Value: y.Value},
				&ast.Label{Name: StateLabel(*n)},
				ast.Set(&ast.State{}, ast.Const(int64(StateCompleted))),
			)
			continue
		}
		switch s := s.(type) {
		case *ast.If:
			if s.Then, err = l.lowerSuspensionList(s.Then, n); err != nil {
				return nil, err
			}
			if s.Else, err = l.lowerSuspensionList(s.Else, n); err != nil {
				return nil, err
			}
		case *ast.While:
			if s.Body, err = l.lowerSuspensionList(s.Body, n); err != nil {
				return nil, err
			}
		}
		out = append(out, s)
	}
	return out, nil
}
