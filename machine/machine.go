package machine

import (
	"context"
	stderrors "errors"
	"maps"

	"go.uber.org/zap"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/host"
	"github.com/wippyai/resumable/internal/lower"
)

// Machine is one instance of a program: a state id and one value per slot.
type Machine struct {
	prog     *Program
	typeArgs map[string]ast.Type
	arg      any
	slots    []any
	state    uint8
}

// Program returns the program the machine was created from.
func (m *Machine) Program() *Program { return m.prog }

// State returns the current state id: 0 before the first call, the ordinal
// of the pending suspension point while suspended, 0xFF once completed.
func (m *Machine) State() uint8 { return m.state }

// Done reports whether the machine has completed.
func (m *Machine) Done() bool { return m.state == lower.StateCompleted }

// Slot returns the current value of the named slot.
func (m *Machine) Slot(name string) (any, bool) {
	i := m.prog.set.Index(name)
	if i < 0 {
		return nil, false
	}
	return m.slots[i], true
}

// TypeArgs returns the type arguments the machine was constructed with.
func (m *Machine) TypeArgs() map[string]ast.Type {
	return maps.Clone(m.typeArgs)
}

// Call resumes the machine without a value.
func (m *Machine) Call(ctx context.Context) (any, error) {
	return m.Resume(ctx, nil)
}

// Resume runs the machine until its next suspension point or completion and
// returns the produced value or the final result. arg becomes the value of
// the pending suspension point; an error value is raised there instead.
//
// Resuming a completed machine fails with an *Exception wrapping
// errors.ErrStopped. Any exception that escapes the body leaves the machine
// completed. A run cut short by ctx returns the context error and restores
// the state id, so a later Resume starts again from the same suspension
// point; slot writes made before the interruption are kept.
func (m *Machine) Resume(ctx context.Context, arg any) (any, error) {
	resumesTotal.Inc()
	if _, ok := arg.(error); ok {
		injectedTotal.Inc()
	}

	from := m.state
	m.arg = arg
	v, err := m.executor(ctx).run(m.prog.res.Body)
	m.arg = nil

	if err != nil {
		var exc *Exception
		if interrupted(err) && !stderrors.As(err, &exc) {
			m.state = from
			interruptedTotal.Inc()
			Logger().Debug("machine interrupted",
				zap.String("func", m.prog.desc.Name),
				zap.Uint8("state", from),
				zap.Error(err))
			return nil, err
		}
		m.state = lower.StateCompleted
		if stderrors.Is(err, errors.ErrStopped) {
			stoppedTotal.Inc()
		} else {
			exceptionsTotal.Inc()
		}
		Logger().Debug("machine raised",
			zap.String("func", m.prog.desc.Name),
			zap.Uint8("from", from),
			zap.Error(err))
		return nil, err
	}

	if m.Done() {
		completions.Inc()
		if r := m.prog.desc.Result; r != nil {
			if t := m.resolve(*r); !t.Accepts(v) {
				err := errors.TypeMismatch(errors.PhaseRuntime, "result", t.String(), host.TypeName(v))
				err.Func = m.prog.desc.Name
				return nil, err
			}
		}
	}
	Logger().Debug("machine resumed",
		zap.String("func", m.prog.desc.Name),
		zap.Uint8("from", from),
		zap.Uint8("to", m.state))
	return v, nil
}

// resolve substitutes type arguments into t.
func (m *Machine) resolve(t ast.Type) ast.Type {
	if t.Kind != ast.ParamKind {
		return t
	}
	if a, ok := m.typeArgs[t.Name]; ok {
		return a
	}
	return ast.AnyType
}

// Exception is a value raised in a machine body and not caught by any
// protected region.
type Exception struct {
	Value any
	Func  string
}

func (e *Exception) Error() string {
	msg := host.Format(e.Value)
	if err, ok := e.Value.(error); ok {
		msg = err.Error()
	}
	return "exception in " + e.Func + ": " + msg
}

// Unwrap returns the raised value if it is an error.
func (e *Exception) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
