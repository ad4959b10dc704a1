package ast

import (
	"errors"
	"strings"
	"testing"
)

func TestTypeMerge(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want Type
	}{
		{"unresolved left", Type{}, IntType, IntType},
		{"unresolved right", StringType, Type{}, StringType},
		{"equal", IntType, IntType, IntType},
		{"numeric", IntType, FloatType, NumberType},
		{"ambiguous", IntType, StringType, AnyType},
		{"any wins", AnyType, BoolType, AnyType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Merge(tt.b); got != tt.want {
				t.Errorf("Merge = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTypeAccepts(t *testing.T) {
	tests := []struct {
		typ  Type
		v    any
		want bool
	}{
		{IntType, int64(1), true},
		{IntType, "x", false},
		{IntType, nil, true},
		{FloatType, int64(1), false},
		{NumberType, 1.5, true},
		{NumberType, int64(2), true},
		{NumberType, true, false},
		{StringType, "x", true},
		{ListType, []any{int64(1)}, true},
		{ErrorType, errors.New("boom"), true},
		{AnyType, struct{}{}, true},
		{TypeParamRef("T"), "x", true},
	}
	for _, tt := range tests {
		if got := tt.typ.Accepts(tt.v); got != tt.want {
			t.Errorf("%v.Accepts(%#v) = %v, want %v", tt.typ, tt.v, got, tt.want)
		}
	}
}

func TestLookupType(t *testing.T) {
	for _, name := range []string{"any", "int", "float", "number", "bool", "string", "list", "error", "func"} {
		typ, ok := LookupType(name)
		if !ok {
			t.Errorf("LookupType(%q) failed", name)
			continue
		}
		if typ.String() != name {
			t.Errorf("round trip %q -> %q", name, typ.String())
		}
	}
	if _, ok := LookupType("T"); ok {
		t.Error("type parameter names are not builtin types")
	}
	if _, ok := LookupType("invalid"); ok {
		t.Error("invalid must not be nameable")
	}
}

type namedFunc string

func (f namedFunc) CallName() string { return string(f) }

func TestFuncAndParamKinds(t *testing.T) {
	if got := KindOf(namedFunc("f")); got != FuncKind {
		t.Errorf("KindOf(callable) = %v, want func", got)
	}
	if !FuncType.Accepts(namedFunc("f")) || FuncType.Accepts(int64(1)) {
		t.Error("func type should accept callables only")
	}

	ref := TypeParamRef("T")
	if ref.Kind != ParamKind || ref.String() != "T" || ref.IsResolved() {
		t.Errorf("TypeParamRef(T) = %+v", ref)
	}
	if ParamKind.String() != "param" {
		t.Errorf("ParamKind = %q", ParamKind.String())
	}
	if _, ok := LookupType("param"); ok {
		t.Error("param must not be nameable")
	}
}

func TestSatisfies(t *testing.T) {
	if !NumberType.Satisfies(IntType) || !NumberType.Satisfies(FloatType) {
		t.Error("number should admit int and float")
	}
	if NumberType.Satisfies(StringType) {
		t.Error("number should reject string")
	}
	if !AnyType.Satisfies(ListType) {
		t.Error("any admits everything")
	}
}

func TestContainsYield(t *testing.T) {
	direct := &While{Cond: Const(true), Body: []Stmt{&ExprStmt{X: &Yield{Value: Name("x")}}}}
	if !ContainsYield(direct) {
		t.Error("yield in loop body not found")
	}

	closure := &ExprStmt{X: &FuncLit{Body: []Stmt{&ExprStmt{X: &Yield{}}}}}
	if ContainsYield(closure) {
		t.Error("yield inside FuncLit must be ignored")
	}

	assign := Set(Name("name"), &Yield{Value: Const("Who are you?")})
	if !ListContainsYield([]Stmt{assign}) {
		t.Error("yield on assignment right-hand side not found")
	}
	if y, ok := AsYield(assign); !ok || FormatExpr(y.Value) != `"Who are you?"` {
		t.Errorf("AsYield = %v, %v", y, ok)
	}
}

func TestCloneStmts(t *testing.T) {
	orig := []Stmt{
		&Try{
			Body:     []Stmt{Set(Name("a"), Const(int64(1)))},
			HasCatch: true,
			CatchVar: "e",
			Catch:    []Stmt{&ExprStmt{X: CallFunc("print", Name("e"))}},
		},
	}
	clone := CloneStmts(orig)
	clone[0].(*Try).Body[0].(*Assign).RHS[0] = Const(int64(2))

	if got := FormatStmts(orig); !strings.Contains(got, "(set a 1)") {
		t.Errorf("original mutated through clone:\n%s", got)
	}
	if got := FormatStmts(clone); !strings.Contains(got, "(set a 2)") {
		t.Errorf("clone not updated:\n%s", got)
	}
}

func TestFormat(t *testing.T) {
	result := IntType
	fn := &Func{
		Name:   "fibonacci",
		Params: []Param{{Name: "n", Type: IntType, Default: Const(int64(10))}},
		Result: &result,
		Body: []Stmt{
			Set(Name("a"), Const(int64(0))),
			Set(Name("b"), Const(int64(1))),
			&For{Var: "i", Iter: CallFunc("range", Const(int64(1)), Name("n")), Body: []Stmt{
				&ExprStmt{X: &Yield{Value: Name("a")}},
				&Assign{
					LHS: []Expr{Name("a"), Name("b")},
					RHS: []Expr{Name("b"), &Binary{Op: "+", X: Name("a"), Y: Name("b")}},
				},
			}},
			&If{Cond: &Binary{Op: "&&", X: Const(true), Y: &Unary{Op: "!", X: Const(false)}}, Then: []Stmt{&Return{Value: Name("a")}}},
		},
	}

	got := Format(fn)
	for _, want := range []string{
		"(func fibonacci (param n int 10) (result int)",
		"(set a 0)",
		"(for i (range 1 n)",
		"(yield a)",
		"(set (a b) b (+ a b))",
		"(if (and true (not false))",
		"(then",
		"(return a)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Format output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{nil, "nil"},
		{int64(-3), "-3"},
		{2.0, "2.0"},
		{1.5, "1.5"},
		{"a\"b", `"a\"b"`},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.v); got != tt.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
