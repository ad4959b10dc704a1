package host

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
)

func (r *Registry) registerBuiltins() {
	r.Register("len", 1, 1, builtinLen)
	r.Register("string", 1, 1, func(_ context.Context, args []any) (any, error) {
		return Format(args[0]), nil
	})
	r.Register("int", 1, 1, builtinInt)
	r.Register("float", 1, 1, builtinFloat)
	r.Register("range", 2, 3, builtinRange)
	r.Register("list", 0, Variadic, func(_ context.Context, args []any) (any, error) {
		return append([]any{}, args...), nil
	})
	r.Register("append", 1, Variadic, builtinAppend)

	r.Register("error", 1, 1, func(_ context.Context, args []any) (any, error) {
		if s, ok := args[0].(string); ok {
			return &Error{Message: s}, nil
		}
		return &Error{Message: Format(args[0])}, nil
	})
	r.Register("iserror", 1, 1, builtinIsError)
	r.Register("message", 1, 1, func(_ context.Context, args []any) (any, error) {
		e, ok := args[0].(error)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseRuntime, "message", "error", TypeName(args[0]))
		}
		return e.Error(), nil
	})
	r.Register("stopped", 1, 1, builtinStopped)

	r.Register("iter", 1, 1, builtinIter)
	r.Register("start", 1, 1, builtinStart)
	r.Register("done", 2, 2, builtinDone)
	r.Register("next", 2, 2, builtinNext)

	// Lowered code calls these under reserved names so that user bindings
	// named like the builtins above cannot redirect them.
	r.Register(ast.IntrinsicIsError, 1, 1, builtinIsError)
	r.Register(ast.IntrinsicStopped, 1, 1, builtinStopped)
	r.Register(ast.IntrinsicIter, 1, 1, builtinIter)
	r.Register(ast.IntrinsicStart, 1, 1, builtinStart)
	r.Register(ast.IntrinsicDone, 2, 2, builtinDone)
	r.Register(ast.IntrinsicNext, 2, 2, builtinNext)

	r.Register("print", 0, Variadic, func(_ context.Context, args []any) (any, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Format(a)
		}
		_, err := fmt.Fprintln(r.out, strings.Join(parts, " "))
		return nil, err
	})
}

func builtinIsError(_ context.Context, args []any) (any, error) {
	_, ok := args[0].(error)
	return ok, nil
}

func builtinStopped(_ context.Context, args []any) (any, error) {
	name, _ := args[0].(string)
	return errors.Stopped(name), nil
}

func builtinIter(_ context.Context, args []any) (any, error) {
	return Iter(args[0])
}

func builtinStart(_ context.Context, args []any) (any, error) {
	it, err := iterable("start", args[0])
	if err != nil {
		return nil, err
	}
	return it.Start(), nil
}

func builtinDone(_ context.Context, args []any) (any, error) {
	it, err := iterable("done", args[0])
	if err != nil {
		return nil, err
	}
	return it.Done(args[1]), nil
}

func builtinNext(_ context.Context, args []any) (any, error) {
	it, err := iterable("next", args[0])
	if err != nil {
		return nil, err
	}
	elem, next := it.Next(args[1])
	return Tuple{elem, next}, nil
}

func iterable(fn string, v any) (Iterable, error) {
	it, ok := v.(Iterable)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseRuntime, fn, "iterator", TypeName(v))
	}
	return it, nil
}

func builtinLen(_ context.Context, args []any) (any, error) {
	switch v := args[0].(type) {
	case []any:
		return int64(len(v)), nil
	case Tuple:
		return int64(len(v)), nil
	case string:
		return int64(utf8.RuneCountInString(v)), nil
	}
	return nil, errors.TypeMismatch(errors.PhaseRuntime, "len", "list or string", TypeName(args[0]))
}

func builtinInt(_ context.Context, args []any) (any, error) {
	switch v := args[0].(type) {
	case int64:
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.InvalidInput(errors.PhaseRuntime, "int: value out of range")
		}
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
				Func("int").
				Detail("cannot convert %q", v).
				Cause(err).
				Build()
		}
		return n, nil
	}
	return nil, errors.TypeMismatch(errors.PhaseRuntime, "int", "number, bool or string", TypeName(args[0]))
}

func builtinFloat(_ context.Context, args []any) (any, error) {
	switch v := args[0].(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
				Func("float").
				Detail("cannot convert %q", v).
				Cause(err).
				Build()
		}
		return f, nil
	}
	return nil, errors.TypeMismatch(errors.PhaseRuntime, "float", "number or string", TypeName(args[0]))
}

func builtinRange(_ context.Context, args []any) (any, error) {
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, ok := a.(int64)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseRuntime, "range", "int", TypeName(a))
		}
		bounds[i] = n
	}
	r := Range{Lo: bounds[0], Hi: bounds[1], Step: 1}
	if len(bounds) == 3 {
		r.Step = bounds[2]
	}
	if r.Step == 0 {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "range: step must not be zero")
	}
	return r, nil
}

func builtinAppend(_ context.Context, args []any) (any, error) {
	l, ok := args[0].([]any)
	if !ok && args[0] != nil {
		return nil, errors.TypeMismatch(errors.PhaseRuntime, "append", "list", TypeName(args[0]))
	}
	out := make([]any, 0, len(l)+len(args)-1)
	out = append(out, l...)
	return append(out, args[1:]...), nil
}
