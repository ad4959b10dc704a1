package machine

import (
	"context"
	"strconv"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/host"
)

func (x *executor) eval(e ast.Expr, sc *scope) (any, error) {
	switch e := e.(type) {
	case *ast.Lit:
		return e.Value, nil
	case *ast.Ident:
		return x.lookup(e.Name, sc)
	case *ast.Unary:
		v, err := x.eval(e.X, sc)
		if err != nil {
			return nil, err
		}
		r, err := unary(e.Op, v)
		if err != nil {
			return nil, raise(err)
		}
		return r, nil
	case *ast.Binary:
		if e.Op == "&&" || e.Op == "||" {
			return x.logical(e, sc)
		}
		l, err := x.eval(e.X, sc)
		if err != nil {
			return nil, err
		}
		r, err := x.eval(e.Y, sc)
		if err != nil {
			return nil, err
		}
		v, err := binary(e.Op, l, r)
		if err != nil {
			return nil, raise(err)
		}
		return v, nil
	case *ast.Call:
		return x.call(e, sc)
	case *ast.Index:
		return x.index(e, sc)
	case *ast.FuncLit:
		return &closure{lit: e, env: sc, m: x.m}, nil
	case *ast.ResumeArg:
		return x.m.arg, nil
	case *ast.State:
		return int64(x.m.state), nil
	case *ast.Yield:
		return nil, errors.InvalidInput(errors.PhaseRuntime, "suspension point was not lowered")
	}
	return nil, errors.InvalidInput(errors.PhaseRuntime, "unsupported expression")
}

func (x *executor) logical(e *ast.Binary, sc *scope) (any, error) {
	l, err := x.cond(e.X, sc)
	if err != nil {
		return nil, err
	}
	if (e.Op == "&&") != l {
		return l, nil
	}
	return x.cond(e.Y, sc)
}

// lookup resolves a name: handler and closure locals first, then slots,
// then host functions.
func (x *executor) lookup(name string, sc *scope) (any, error) {
	if v, ok := sc.lookup(name); ok {
		return v, nil
	}
	if i := x.m.prog.set.Index(name); i >= 0 {
		return x.m.slots[i], nil
	}
	if f, ok := x.m.prog.reg.Lookup(name); ok {
		return f, nil
	}
	return nil, &thrown{value: errors.Undefined(name)}
}

func (x *executor) assign(a *ast.Assign, sc *scope) error {
	switch {
	case len(a.LHS) == len(a.RHS):
		vals := make([]any, len(a.RHS))
		for i, r := range a.RHS {
			v, err := x.eval(r, sc)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		for i, l := range a.LHS {
			if err := x.store(l, vals[i], sc); err != nil {
				return err
			}
		}
		return nil
	case len(a.RHS) == 1:
		v, err := x.eval(a.RHS[0], sc)
		if err != nil {
			return err
		}
		var items []any
		switch v := v.(type) {
		case host.Tuple:
			items = v
		case []any:
			items = v
		default:
			return &thrown{value: errors.TypeMismatch(errors.PhaseRuntime, "destructuring", "tuple", host.TypeName(v))}
		}
		if len(items) != len(a.LHS) {
			return &thrown{value: errors.New(errors.PhaseRuntime, errors.KindInvalidOperation).
				Detail("cannot destructure %d values into %d targets", len(items), len(a.LHS)).
				Build()}
		}
		for i, l := range a.LHS {
			if err := x.store(l, items[i], sc); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.InvalidInput(errors.PhaseRuntime, "assignment count mismatch")
}

func (x *executor) store(target ast.Expr, v any, sc *scope) error {
	switch t := target.(type) {
	case *ast.Ident:
		return x.storeName(t.Name, v, sc)
	case *ast.State:
		n, ok := v.(int64)
		if !ok || n < 0 || n > 0xFF {
			return errors.InvalidInput(errors.PhaseRuntime, "state id out of range")
		}
		x.m.state = uint8(n)
		return nil
	case *ast.Index:
		c, err := x.eval(t.X, sc)
		if err != nil {
			return err
		}
		list, ok := c.([]any)
		if !ok {
			return &thrown{value: errors.TypeMismatch(errors.PhaseRuntime, "index assignment", "list", host.TypeName(c))}
		}
		i, err := x.position(t.Index, len(list), sc)
		if err != nil {
			return err
		}
		list[i] = v
		return nil
	}
	return errors.InvalidInput(errors.PhaseRuntime, "cannot assign to "+ast.FormatExpr(target))
}

// storeName writes an existing local binding, else the slot of that name,
// else defines a local in the innermost scope.
func (x *executor) storeName(name string, v any, sc *scope) error {
	if sc.set(name, v) {
		return nil
	}
	if i := x.m.prog.set.Index(name); i >= 0 {
		if t := x.m.slotType(i); !t.Accepts(v) {
			err := errors.TypeMismatch(errors.PhaseRuntime, "slot "+name, t.String(), host.TypeName(v))
			err.Func = x.m.prog.desc.Name
			return &thrown{value: err}
		}
		x.m.slots[i] = v
		return nil
	}
	if sc != nil {
		sc.vars[name] = v
		return nil
	}
	return &thrown{value: errors.Undefined(name)}
}

func (m *Machine) slotType(i int) ast.Type {
	return m.resolve(m.prog.set.Slots[i].Type)
}

func (x *executor) index(e *ast.Index, sc *scope) (any, error) {
	c, err := x.eval(e.X, sc)
	if err != nil {
		return nil, err
	}
	switch c := c.(type) {
	case []any:
		i, err := x.position(e.Index, len(c), sc)
		if err != nil {
			return nil, err
		}
		return c[i], nil
	case host.Tuple:
		i, err := x.position(e.Index, len(c), sc)
		if err != nil {
			return nil, err
		}
		return c[i], nil
	case string:
		r := []rune(c)
		i, err := x.position(e.Index, len(r), sc)
		if err != nil {
			return nil, err
		}
		return string(r[i]), nil
	}
	return nil, &thrown{value: errors.TypeMismatch(errors.PhaseRuntime, "index", "list or string", host.TypeName(c))}
}

// position evaluates a zero-based index and checks it against n.
func (x *executor) position(e ast.Expr, n int, sc *scope) (int, error) {
	v, err := x.eval(e, sc)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int64)
	if !ok {
		return 0, &thrown{value: errors.TypeMismatch(errors.PhaseRuntime, "index", "int", host.TypeName(v))}
	}
	if i < 0 || i >= int64(n) {
		return 0, &thrown{value: errors.New(errors.PhaseRuntime, errors.KindInvalidOperation).
			Detail("index %d out of range [0:%d]", i, n).
			Build()}
	}
	return int(i), nil
}

func (x *executor) call(e *ast.Call, sc *scope) (any, error) {
	fv, err := x.eval(e.Fun, sc)
	if err != nil {
		if id, ok := e.Fun.(*ast.Ident); ok {
			if t, ok := err.(*thrown); ok && isUndefined(t.value) {
				return nil, &thrown{value: errors.UnknownFunction(id.Name)}
			}
		}
		return nil, err
	}
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		if args[i], err = x.eval(a, sc); err != nil {
			return nil, err
		}
	}

	switch f := fv.(type) {
	case *host.Func:
		v, err := f.Call(x.ctx, args)
		if err != nil {
			return nil, raise(err)
		}
		return v, nil
	case *closure:
		return f.Call(x.ctx, args)
	}
	return nil, &thrown{value: errors.TypeMismatch(errors.PhaseRuntime, "call of "+ast.FormatExpr(e.Fun), "func", host.TypeName(fv))}
}

func isUndefined(v any) bool {
	e, ok := v.(*errors.Error)
	return ok && e.Kind == errors.KindUndefined
}

// closure is a function literal bound to the scope it was created in. It
// reads and writes the machine's slots directly.
type closure struct {
	lit *ast.FuncLit
	env *scope
	m   *Machine
}

func (c *closure) CallName() string { return "fn" }

func (c *closure) Call(ctx context.Context, args []any) (any, error) {
	if len(args) != len(c.lit.Params) {
		return nil, &thrown{value: errors.Arity(errors.PhaseRuntime, "fn", strconv.Itoa(len(c.lit.Params)), len(args))}
	}
	sc := newScope(c.env)
	for i, p := range c.lit.Params {
		sc.vars[p] = args[i]
	}
	x := c.m.executor(ctx)
	f, err := x.block(c.lit.Body, sc)
	if err != nil {
		return nil, err
	}
	if f == flowBreak || f == flowContinue {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "break or continue outside of a loop")
	}
	return x.ret, nil
}
