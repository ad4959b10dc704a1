package machine

import (
	"context"
	stderrors "errors"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/host"
)

// flow is how a statement finished.
type flow uint8

const (
	flowNormal flow = iota
	flowBreak
	flowContinue
	flowReturn
	flowGoto
)

// thrown carries a raised value through the Go call stack. Only thrown
// errors are caught by protected regions; anything else (context
// cancellation) unwinds the whole invocation.
type thrown struct {
	value any
}

func (t *thrown) Error() string {
	if err, ok := t.value.(error); ok {
		return err.Error()
	}
	return host.Format(t.value)
}

func (t *thrown) Unwrap() error {
	err, _ := t.value.(error)
	return err
}

func raise(err error) error {
	var t *thrown
	if stderrors.As(err, &t) {
		return err
	}
	if interrupted(err) {
		return err
	}
	return &thrown{value: err}
}

// interrupted reports whether err ends a run because its context is done.
// Such errors are not exceptions.
func interrupted(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// scope holds handler-local and closure-local bindings. A nil scope is the
// top level of the body, where every local is a slot.
type scope struct {
	parent *scope
	vars   map[string]any
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]any)}
}

func (s *scope) lookup(name string) (any, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// set rebinds an existing name, reporting whether one was found.
func (s *scope) set(name string, v any) bool {
	for ; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return true
		}
	}
	return false
}

// executor runs one invocation of a body: the machine's entry point or a
// closure call.
type executor struct {
	ctx   context.Context
	m     *Machine
	ret   any
	label string // pending jump target
}

func (m *Machine) executor(ctx context.Context) *executor {
	return &executor{ctx: ctx, m: m}
}

func (x *executor) run(body []ast.Stmt) (any, error) {
	f, err := x.block(body, nil)
	if err != nil {
		var t *thrown
		if stderrors.As(err, &t) {
			return nil, &Exception{Value: t.value, Func: x.m.prog.desc.Name}
		}
		return nil, err
	}
	switch f {
	case flowGoto:
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Func(x.m.prog.desc.Name).
			Detail("jump to unknown label %s", x.label).
			Build()
	case flowBreak, flowContinue:
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Func(x.m.prog.desc.Name).
			Detail("break or continue outside of a loop").
			Build()
	}
	return x.ret, nil
}

func (x *executor) seeking() bool { return x.label != "" }

// seek returns where execution continues in list for the pending jump: the
// statement after the label, or the statement enclosing it. -1 means the
// label is not in list.
func (x *executor) seek(list []ast.Stmt) int {
	info := x.m.prog.labels[x.label]
	if info == nil {
		return -1
	}
	for i, s := range list {
		if s == ast.Stmt(info.node) {
			x.label = ""
			return i + 1
		}
		if info.within[s] {
			return i
		}
	}
	return -1
}

// holds reports whether list contains the pending jump target.
func (x *executor) holds(list []ast.Stmt) bool {
	info := x.m.prog.labels[x.label]
	if info == nil {
		return false
	}
	for _, s := range list {
		if s == ast.Stmt(info.node) || info.within[s] {
			return true
		}
	}
	return false
}

func (x *executor) block(list []ast.Stmt, sc *scope) (flow, error) {
	i := 0
	if x.seeking() {
		if i = x.seek(list); i < 0 {
			return flowGoto, nil
		}
	}
	for i < len(list) {
		f, err := x.stmt(list[i], sc)
		if err != nil {
			return flowNormal, err
		}
		switch f {
		case flowNormal:
			i++
		case flowGoto:
			if i = x.seek(list); i < 0 {
				return flowGoto, nil
			}
		default:
			return f, nil
		}
	}
	return flowNormal, nil
}

func (x *executor) stmt(s ast.Stmt, sc *scope) (flow, error) {
	switch s := s.(type) {
	case *ast.ExprStmt:
		_, err := x.eval(s.X, sc)
		return flowNormal, err
	case *ast.Assign:
		return flowNormal, x.assign(s, sc)
	case *ast.If:
		if x.seeking() {
			if x.holds(s.Then) {
				return x.block(s.Then, sc)
			}
			return x.block(s.Else, sc)
		}
		c, err := x.cond(s.Cond, sc)
		if err != nil {
			return flowNormal, err
		}
		if c {
			return x.block(s.Then, sc)
		}
		return x.block(s.Else, sc)
	case *ast.While:
		return x.loop(s, sc)
	case *ast.For:
		return x.forLoop(s, sc)
	case *ast.Break:
		return flowBreak, nil
	case *ast.Continue:
		return flowContinue, nil
	case *ast.Return:
		x.ret = nil
		if s.Value != nil {
			v, err := x.eval(s.Value, sc)
			if err != nil {
				return flowNormal, err
			}
			x.ret = v
		}
		return flowReturn, nil
	case *ast.Throw:
		v, err := x.eval(s.Value, sc)
		if err != nil {
			return flowNormal, err
		}
		return flowNormal, &thrown{value: v}
	case *ast.Try:
		return x.try(s, sc)
	case *ast.Label:
		return flowNormal, nil
	case *ast.Goto:
		x.label = s.Label
		return flowGoto, nil
	}
	return flowNormal, errors.InvalidInput(errors.PhaseRuntime, "unsupported statement")
}

func (x *executor) loop(w *ast.While, sc *scope) (flow, error) {
	for {
		// A jump into the body enters it without testing the condition.
		if !x.seeking() {
			if err := x.ctx.Err(); err != nil {
				return flowNormal, err
			}
			c, err := x.cond(w.Cond, sc)
			if err != nil {
				return flowNormal, err
			}
			if !c {
				return flowNormal, nil
			}
		}
		f, err := x.block(w.Body, sc)
		if err != nil {
			return flowNormal, err
		}
		switch f {
		case flowBreak:
			return flowNormal, nil
		case flowReturn, flowGoto:
			return f, nil
		}
	}
}

// forLoop runs a structured loop. Only closure bodies keep them; the
// lowering pipeline rewrites the ones in a machine body.
func (x *executor) forLoop(s *ast.For, sc *scope) (flow, error) {
	v, err := x.eval(s.Iter, sc)
	if err != nil {
		return flowNormal, err
	}
	it, err := host.Iter(v)
	if err != nil {
		return flowNormal, raise(err)
	}
	for st := it.Start(); !it.Done(st); {
		if err := x.ctx.Err(); err != nil {
			return flowNormal, err
		}
		var elem any
		elem, st = it.Next(st)
		if err := x.storeName(s.Var, elem, sc); err != nil {
			return flowNormal, err
		}
		f, err := x.block(s.Body, sc)
		if err != nil {
			return flowNormal, err
		}
		switch f {
		case flowBreak:
			return flowNormal, nil
		case flowReturn, flowGoto:
			return f, nil
		}
	}
	return flowNormal, nil
}

// try runs a protected region. The finally-part runs however the region is
// left; if it finishes abruptly itself, that outcome replaces the pending
// one.
func (x *executor) try(t *ast.Try, sc *scope) (flow, error) {
	f, err := x.block(t.Body, sc)

	var th *thrown
	if err != nil && t.HasCatch && stderrors.As(err, &th) {
		hs := newScope(sc)
		if t.CatchVar != "" {
			hs.vars[t.CatchVar] = th.value
		}
		f, err = x.block(t.Catch, hs)
	}

	if len(t.Finally) > 0 {
		label, ret := x.label, x.ret
		x.label = ""
		ff, ferr := x.block(t.Finally, sc)
		if ferr != nil || ff != flowNormal {
			return ff, ferr
		}
		x.label, x.ret = label, ret
	}
	return f, err
}

func (x *executor) cond(e ast.Expr, sc *scope) (bool, error) {
	v, err := x.eval(e, sc)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, &thrown{value: errors.TypeMismatch(errors.PhaseRuntime, "condition", "bool", host.TypeName(v))}
	}
	return b, nil
}
