package host

import (
	"strconv"
	"strings"

	"github.com/wippyai/resumable/errors"
)

// Tuple is a multi-value result, consumed by destructuring assignment.
type Tuple []any

// Error is an exception value created by the error builtin.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Iterable is the iteration protocol behind for-loops: a loop over x runs
// it := iter(x); st := it.Start(); for !it.Done(st) { v, st = it.Next(st) }.
type Iterable interface {
	Start() any
	Done(state any) bool
	Next(state any) (elem any, next any)
}

// Range is an inclusive integer range.
type Range struct {
	Lo, Hi, Step int64
}

func (r Range) Start() any { return r.Lo }

func (r Range) Done(state any) bool {
	i, _ := state.(int64)
	if r.Step < 0 {
		return i < r.Hi
	}
	return i > r.Hi
}

func (r Range) Next(state any) (any, any) {
	i, _ := state.(int64)
	return i, i + r.Step
}

func (r Range) String() string {
	if r.Step == 1 {
		return strconv.FormatInt(r.Lo, 10) + ".." + strconv.FormatInt(r.Hi, 10)
	}
	return strconv.FormatInt(r.Lo, 10) + ":" + strconv.FormatInt(r.Step, 10) + ":" + strconv.FormatInt(r.Hi, 10)
}

// sliceIter walks a snapshot of a list by index.
type sliceIter struct {
	items []any
}

func (s *sliceIter) Start() any { return int64(0) }

func (s *sliceIter) Done(state any) bool {
	i, _ := state.(int64)
	return i >= int64(len(s.items))
}

func (s *sliceIter) Next(state any) (any, any) {
	i, _ := state.(int64)
	return s.items[i], i + 1
}

// Iter returns the iteration handle for v.
func Iter(v any) (Iterable, error) {
	switch v := v.(type) {
	case Iterable:
		return v, nil
	case []any:
		return &sliceIter{items: v}, nil
	case Tuple:
		return &sliceIter{items: v}, nil
	case string:
		items := make([]any, 0, len(v))
		for _, r := range v {
			items = append(items, string(r))
		}
		return &sliceIter{items: items}, nil
	}
	return nil, errors.TypeMismatch(errors.PhaseRuntime, "iter", "iterable", TypeName(v))
}

// TypeName names the dynamic kind of a value for error messages.
func TypeName(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case int64:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case string:
		return "string"
	case []any:
		return "list"
	case Tuple:
		return "tuple"
	case Range:
		return "range"
	case error:
		return "error"
	case Iterable:
		return "iterator"
	case interface{ CallName() string }:
		return "func " + v.CallName()
	}
	return "unknown"
}

// Format renders a value the way print and string show it.
func Format(v any) string {
	var b strings.Builder
	format(&b, v)
	return b.String()
}

func format(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		b.WriteString("nil")
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case string:
		b.WriteString(v)
	case []any:
		formatList(b, "[", "]", v)
	case Tuple:
		formatList(b, "(", ")", v)
	case Range:
		b.WriteString(v.String())
	case error:
		b.WriteString("error(")
		b.WriteString(strconv.Quote(v.Error()))
		b.WriteByte(')')
	case interface{ CallName() string }:
		b.WriteString("<func ")
		b.WriteString(v.CallName())
		b.WriteByte('>')
	default:
		b.WriteString("<")
		b.WriteString(TypeName(v))
		b.WriteString(">")
	}
}

func formatList(b *strings.Builder, lb, rb string, items []any) {
	b.WriteString(lb)
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		if s, ok := it.(string); ok {
			b.WriteString(strconv.Quote(s))
			continue
		}
		format(b, it)
	}
	b.WriteString(rb)
}
