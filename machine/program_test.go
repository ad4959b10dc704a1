package machine

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
)

func TestConstructorDefaults(t *testing.T) {
	p := compile(t, `(func f (param a int 1) (param b int (+ a 1))
		(return (list a b)))`, nil)

	tests := []struct {
		name string
		args []any
		want []any
	}{
		{"all_defaults", nil, ints(1, 2)},
		{"first_given", []any{int64(5)}, ints(5, 6)},
		{"both_given", []any{int64(5), int64(9)}, ints(5, 9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := start(t, p, tt.args...)
			if m.State() != 0 {
				t.Errorf("new machine state = %d", m.State())
			}
			got := drain(t, m)
			if diff := cmp.Diff(tt.want, got[0]); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConstructorErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		args []any
		kind errors.Kind
	}{
		{"too_many", "(func f (param a int) (return a))", []any{int64(1), int64(2)}, errors.KindArity},
		{"missing", "(func f (param a int) (param b int) (return a))", []any{int64(1)}, errors.KindArity},
		{"type", "(func f (param a int) (return a))", []any{"x"}, errors.KindTypeMismatch},
		{"default_fails", "(func f (param a int (/ 1 0)) (return a))", nil, errors.KindInvalidInput},
		{"constraint", "(func f (typeparam T number) (param a T) (return a))", []any{"x"}, errors.KindConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := compile(t, tt.src, nil)
			_, err := p.New(context.Background(), tt.args...)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Kind != tt.kind || e.Phase != errors.PhaseConstruct {
				t.Errorf("got %s/%s, want construct/%s", e.Phase, e.Kind, tt.kind)
			}
		})
	}
}

func TestGenericInference(t *testing.T) {
	p := compile(t, `(func pick (typeparam T number) (typeparam U) (param a T) (param b T)
		(set c (+ a b))
		(yield a)
		(return c))`, nil)

	tests := []struct {
		name string
		args []any
		want ast.Type
	}{
		{"int", []any{int64(1), int64(2)}, ast.IntType},
		{"float", []any{1.5, 2.5}, ast.FloatType},
		{"mixed", []any{int64(1), 2.5}, ast.NumberType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := start(t, p, tt.args...)
			args := m.TypeArgs()
			if args["T"] != tt.want {
				t.Errorf("T = %v, want %v", args["T"], tt.want)
			}
			if args["U"] != ast.AnyType {
				t.Errorf("unbound U = %v", args["U"])
			}
			drain(t, m)
		})
	}
}

func TestResultType(t *testing.T) {
	tests := []struct {
		name string
		src  string
		args []any
		ok   bool
	}{
		{"int_ok", "(func f (result int) (yield 1) (return 2))", nil, true},
		{"int_bad", `(func f (result int) (yield 1) (return "two"))`, nil, false},
		{"none_accepted", "(func f (result int) (yield 1))", nil, true},
		{"param_ok", "(func f (typeparam T) (param a T) (result T) (yield a) (return a))", []any{"s"}, true},
		{"param_bad", "(func f (typeparam T) (param a T) (result T) (yield a) (return 1))", []any{"s"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := start(t, compile(t, tt.src, nil), tt.args...)
			// suspension values are not checked
			resume(t, m, nil)
			_, err := m.Call(context.Background())
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindTypeMismatch}) {
				t.Fatalf("expected type mismatch, got %v", err)
			}
			if !m.Done() {
				t.Error("machine should be completed")
			}
		})
	}
}

func TestDescriptor(t *testing.T) {
	p := compile(t, fibonacciSrc, nil)
	d := p.Descriptor()

	if d.Name != "fibonacci" || d.Suspensions != 1 || d.Result != nil {
		t.Errorf("descriptor = %+v", d)
	}
	if len(d.Params) != 1 || d.Params[0].Name != "n" {
		t.Errorf("params = %+v", d.Params)
	}
	want := []Field{
		{Name: "n", Type: ast.IntType, Param: true},
		{Name: "a", Type: ast.IntType},
		{Name: "b", Type: ast.IntType},
		{Name: "_iter1", Type: ast.AnyType},
		{Name: "_iterstate1", Type: ast.AnyType},
		{Name: "i", Type: ast.IntType},
	}
	if diff := cmp.Diff(want, d.Slots); diff != "" {
		t.Errorf("slots mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordType(t *testing.T) {
	p := compile(t, fibonacciSrc, nil)
	want := "type fibonacci struct {\n" +
		"\tstate       uint8\n" +
		"\tn           int\n" +
		"\ta           int\n" +
		"\tb           int\n" +
		"\t_iter1      any\n" +
		"\t_iterstate1 any\n" +
		"\ti           int\n" +
		"}"
	if diff := cmp.Diff(want, p.Record().String()); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	g := compile(t, `(func pair (typeparam T number) (typeparam U) (param a T) (param b U) (yield a) (return b))`, nil)
	want = "type pair[T number, U any] struct {\n" +
		"\tstate uint8\n" +
		"\ta     T\n" +
		"\tb     U\n" +
		"}"
	if diff := cmp.Diff(want, g.Record().String()); diff != "" {
		t.Errorf("generic record mismatch (-want +got):\n%s", diff)
	}
}
