package lower

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/internal/slots"
	"github.com/wippyai/resumable/syntax"
)

func parse(t *testing.T, src string) *ast.Func {
	t.Helper()
	fn, err := syntax.ParseFunc(src)
	if err != nil {
		t.Fatalf("ParseFunc failed: %v", err)
	}
	return fn
}

func lines(l ...string) string {
	return strings.Join(l, "\n")
}

// passes lowers src and returns the body printed after each pass.
func passes(t *testing.T, src string) (map[string]string, *Result) {
	t.Helper()
	got := make(map[string]string)
	res, err := Lower(parse(t, src), Config{
		Trace: func(pass string, body []ast.Stmt) {
			got[pass] = ast.FormatStmts(body)
		},
	})
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	return got, res
}

const greetSrc = `(func greet
	(set name (yield "Who are you?"))
	(return (+ "Hello, " name "!")))`

func TestLowerGreet(t *testing.T) {
	got, res := passes(t, greetSrc)

	want := lines(
		`(if (== (state) 1)`,
		`  (then`,
		`    (goto _STATE_1)))`,
		`(if (!= (state) 0)`,
		`  (then`,
		`    (throw (_stopped "greet"))))`,
		`(set (state) 255)`,
		`(if (_iserror (resumearg))`,
		`  (then`,
		`    (throw (resumearg))))`,
		`(set (state) 1)`,
		`(return "Who are you?")`,
		`(label _STATE_1)`,
		`(set (state) 255)`,
		`(if (_iserror (resumearg))`,
		`  (then`,
		`    (throw (resumearg))))`,
		`(set name (resumearg))`,
		`(return (+ (+ "Hello, " name) "!"))`,
	)
	if diff := cmp.Diff(want, got["dispatch"]); diff != "" {
		t.Errorf("lowered body mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, ast.FormatStmts(res.Body)); diff != "" {
		t.Errorf("result body mismatch (-want +got):\n%s", diff)
	}

	if res.Suspensions != 1 {
		t.Errorf("suspensions = %d, want 1", res.Suspensions)
	}
	if !res.Slots.IsResumeTarget("name") {
		t.Error("name should be a resume target")
	}
	if s, _ := res.Slots.Lookup("name"); s.Type != ast.AnyType {
		t.Errorf("name type = %v, want any", s.Type)
	}
}

func TestLowerPassOrder(t *testing.T) {
	var order []string
	_, err := Lower(parse(t, greetSrc), Config{
		Trace: func(pass string, _ []ast.Stmt) { order = append(order, pass) },
	})
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	want := []string{"loops", "regions", "resume", "inject", "suspend", "dispatch"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("pass order mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeLoops(t *testing.T) {
	got, res := passes(t, `(func fibonacci (param n int 10)
		(set a 0)
		(set b 1)
		(for i (range 1 n)
			(yield a)
			(set (a b) b (+ a b))))`)

	want := lines(
		`(set a 0)`,
		`(set b 1)`,
		`(set _iter1 (_iter (range 1 n)))`,
		`(set _iterstate1 (_start _iter1))`,
		`(while (not (_done _iter1 _iterstate1))`,
		`  (set (i _iterstate1) (_next _iter1 _iterstate1))`,
		`  (yield a)`,
		`  (set (a b) b (+ a b)))`,
	)
	if diff := cmp.Diff(want, got["loops"]); diff != "" {
		t.Errorf("normalized loop mismatch (-want +got):\n%s", diff)
	}

	type slot struct{ Name, Type string }
	var gotSlots []slot
	for _, s := range res.Slots.Slots {
		gotSlots = append(gotSlots, slot{s.Name, s.Type.String()})
	}
	wantSlots := []slot{
		{"n", "int"},
		{"a", "int"},
		{"b", "int"},
		{"_iter1", "any"},
		{"_iterstate1", "any"},
		{"i", "int"},
	}
	if diff := cmp.Diff(wantSlots, gotSlots); diff != "" {
		t.Errorf("slots mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeNestedLoops(t *testing.T) {
	got, _ := passes(t, `(func grid
		(for x (range 1 2)
			(for y (range 1 2)
				(yield (list x y)))))`)

	want := lines(
		`(set _iter1 (_iter (range 1 2)))`,
		`(set _iterstate1 (_start _iter1))`,
		`(while (not (_done _iter1 _iterstate1))`,
		`  (set (x _iterstate1) (_next _iter1 _iterstate1))`,
		`  (set _iter2 (_iter (range 1 2)))`,
		`  (set _iterstate2 (_start _iter2))`,
		`  (while (not (_done _iter2 _iterstate2))`,
		`    (set (y _iterstate2) (_next _iter2 _iterstate2))`,
		`    (yield (list x y))))`,
	)
	if diff := cmp.Diff(want, got["loops"]); diff != "" {
		t.Errorf("nested loops mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeRegions(t *testing.T) {
	got, res := passes(t, `(func guarded
		(try
			(print "a")
			(yield 1)
			(print "b")
			(catch e (return "caught"))
			(finally (print "f"))))`)

	want := lines(
		`(set _done1 false)`,
		`(try`,
		`  (print "a")`,
		`  (set _done1 true)`,
		`  (catch e`,
		`    (return "caught")`,
		`    (goto _TRYEND_1))`,
		`  (finally`,
		`    (if (not _done1)`,
		`      (then`,
		`        (print "f")))))`,
		`(yield 1)`,
		`(try`,
		`  (print "b")`,
		`  (catch e`,
		`    (return "caught"))`,
		`  (finally`,
		`    (print "f")))`,
		`(label _TRYEND_1)`,
	)
	if diff := cmp.Diff(want, got["regions"]); diff != "" {
		t.Errorf("split region mismatch (-want +got):\n%s", diff)
	}

	// the exception check runs inside the continuation region
	inject := got["inject"]
	wantCont := lines(
		`(yield 1)`,
		`(try`,
		`  (if (_iserror (resumearg))`,
		`    (then`,
		`      (throw (resumearg))))`,
		`  (print "b")`,
	)
	if !strings.Contains(inject, wantCont) {
		t.Errorf("exception check not in continuation region:\n%s", inject)
	}

	if s, ok := res.Slots.Lookup("_done1"); !ok || s.Type != ast.BoolType {
		t.Errorf("_done1 slot = %+v, %v", s, ok)
	}
	if _, ok := res.Slots.Lookup("e"); ok {
		t.Error("catch variable collected as slot")
	}
}

func TestNormalizeRegionsWithoutFinally(t *testing.T) {
	got, _ := passes(t, `(func f
		(try
			(set x (yield 1))
			(return x)
			(catch e (return (message e)))))`)

	want := lines(
		`(yield 1)`,
		`(try`,
		`  (if (_iserror (resumearg))`,
		`    (then`,
		`      (throw (resumearg))))`,
		`  (set x (resumearg))`,
		`  (return x)`,
		`  (catch e`,
		`    (return (message e))))`,
		`(label _TRYEND_1)`,
	)
	if diff := cmp.Diff(want, got["inject"]); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeRegionsFinallyOnly(t *testing.T) {
	got, _ := passes(t, `(func f
		(try
			(print 1)
			(yield 1)
			(print 2)
			(yield 2)
			(finally (print "f"))))`)

	want := lines(
		`(set _done1 false)`,
		`(try`,
		`  (print 1)`,
		`  (set _done1 true)`,
		`  (finally`,
		`    (if (not _done1)`,
		`      (then`,
		`        (print "f")))))`,
		`(yield 1)`,
		`(set _done1 false)`,
		`(try`,
		`  (print 2)`,
		`  (set _done1 true)`,
		`  (finally`,
		`    (if (not _done1)`,
		`      (then`,
		`        (print "f")))))`,
		`(yield 2)`,
		`(try`,
		`  (finally`,
		`    (print "f")))`,
	)
	if diff := cmp.Diff(want, got["regions"]); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRegionsWithoutSuspensionUntouched(t *testing.T) {
	got, _ := passes(t, `(func f
		(try (print 1) (catch e (print e)) (finally (print 2)))
		(yield 1))`)

	want := lines(
		`(try`,
		`  (print 1)`,
		`  (catch e`,
		`    (print e))`,
		`  (finally`,
		`    (print 2)))`,
		`(yield 1)`,
	)
	if diff := cmp.Diff(want, got["regions"]); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLowerSuspensionsInLoop(t *testing.T) {
	got, res := passes(t, `(func count
		(set i 0)
		(while (< i 3)
			(yield i)
			(set i (+ i 1)))
		(yield "end"))`)

	want := lines(
		`(if (== (state) 1)`,
		`  (then`,
		`    (goto _STATE_1)))`,
		`(if (== (state) 2)`,
		`  (then`,
		`    (goto _STATE_2)))`,
		`(if (!= (state) 0)`,
		`  (then`,
		`    (throw (_stopped "count"))))`,
		`(set (state) 255)`,
		`(if (_iserror (resumearg))`,
		`  (then`,
		`    (throw (resumearg))))`,
		`(set i 0)`,
		`(while (< i 3)`,
		`  (set (state) 1)`,
		`  (return i)`,
		`  (label _STATE_1)`,
		`  (set (state) 255)`,
		`  (if (_iserror (resumearg))`,
		`    (then`,
		`      (throw (resumearg))))`,
		`  (set i (+ i 1)))`,
		`(set (state) 2)`,
		`(return "end")`,
		`(label _STATE_2)`,
		`(set (state) 255)`,
		`(if (_iserror (resumearg))`,
		`  (then`,
		`    (throw (resumearg))))`,
	)
	if diff := cmp.Diff(want, got["dispatch"]); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if res.Suspensions != 2 {
		t.Errorf("suspensions = %d, want 2", res.Suspensions)
	}
}

func TestLowerDoesNotModifyInput(t *testing.T) {
	fn := parse(t, `(func f
		(for i (range 1 3)
			(try (yield i) (print i) (catch e (print e)))))`)
	before := ast.Format(fn)
	res, err := Lower(fn, Config{})
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if after := ast.Format(fn); after != before {
		t.Errorf("input modified:\n%s\n---\n%s", before, after)
	}
	lowered := res.Lowered()
	if lowered.Name != "f" || len(lowered.Body) != len(res.Body) {
		t.Errorf("Lowered() = %s", ast.Format(lowered))
	}
}

func TestLowerWithOracle(t *testing.T) {
	fn := parse(t, `(func f (set x (compute)) (yield x))`)
	res, err := Lower(fn, Config{Oracle: slots.MapOracle{"x": ast.IntType}})
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if s, _ := res.Slots.Lookup("x"); s.Type != ast.IntType {
		t.Errorf("x type = %v, want int", s.Type)
	}
}

func TestLowerNestedRegionWithFinally(t *testing.T) {
	_, res := passes(t, `(func f
		(try
			(try (print 0) (yield 1) (finally (print "inner")))
			(print 2)
			(catch e (print e))))`)
	if res.Suspensions != 1 {
		t.Errorf("suspensions = %d, want 1", res.Suspensions)
	}
}

func TestLowerNestedRegionWithCatch(t *testing.T) {
	got, res := passes(t, `(func f
		(try
			(try (print 0) (yield 1) (print 1) (catch e (print e)))
			(print 2)
			(catch e (print "outer"))))`)

	want := lines(
		`(try`,
		`  (set _skip1 false)`,
		`  (try`,
		`    (print 0)`,
		`    (catch e`,
		`      (print e)`,
		`      (set _skip1 true)))`,
		`  (catch e`,
		`    (print "outer")`,
		`    (goto _TRYEND_1)))`,
		`(if (not _skip1)`,
		`  (then`,
		`    (yield 1)))`,
		`(try`,
		`  (if (not _skip1)`,
		`    (then`,
		`      (try`,
		`        (print 1)`,
		`        (catch e`,
		`          (print e)))))`,
		`  (print 2)`,
		`  (catch e`,
		`    (print "outer")))`,
		`(label _TRYEND_1)`,
	)
	if diff := cmp.Diff(want, got["regions"]); diff != "" {
		t.Errorf("split region mismatch (-want +got):\n%s", diff)
	}

	// the inner catch-part covers the exception check
	wantCont := lines(
		`      (try`,
		`        (if (_iserror (resumearg))`,
		`          (then`,
		`            (throw (resumearg))))`,
		`        (print 1)`,
	)
	if !strings.Contains(got["inject"], wantCont) {
		t.Errorf("exception check not in inner continuation region:\n%s", got["inject"])
	}

	if res.Suspensions != 1 {
		t.Errorf("suspensions = %d, want 1", res.Suspensions)
	}
	if s, ok := res.Slots.Lookup("_skip1"); !ok || s.Type != ast.BoolType {
		t.Errorf("_skip1 slot = %+v, %v", s, ok)
	}
}

func TestLowerErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind errors.Kind
		line int
	}{
		{"yield_in_finally", "(func f (try (print 1)\n(finally (yield 1))))", errors.KindYieldInFinally, 2},
		{"yield_in_catch", "(func f (try (print 1) (catch e (yield 1))))", errors.KindYieldInCatch, 1},
		{"yield_in_if_in_try", "(func f (try\n(if true (then\n(yield 1))) (catch e (print e))))", errors.KindYieldNotTopLevel, 3},
		{"yield_in_loop_in_try", "(func f (try (for i (range 1 2) (yield i)) (catch e)))", errors.KindYieldNotTopLevel, 1},
		{"yield_in_closure", "(func f (set g (fn () (yield 1))))", errors.KindYieldInClosure, 1},
		{"yield_in_closure_expr", "(func f (set g (fn () (print (yield 1)))))", errors.KindYieldInClosure, 1},
		{"yield_as_argument", "(func f (print (yield 1)))", errors.KindYieldInExpression, 1},
		{"yield_in_return", "(func f (return (yield 1)))", errors.KindYieldInExpression, 1},
		{"yield_in_parallel_set", "(func f (set (a b) (yield 1) 2))", errors.KindYieldInExpression, 1},
		{"nested_yield", "(func f (yield (yield 1)))", errors.KindYieldInExpression, 1},
		{"reserved_local", "(func f (set _x 1))", errors.KindReservedName, 1},
		{"reserved_param", "(func f (param _p))", errors.KindReservedName, 1},
		{"reserved_catch", "(func f (try (print 1) (catch _e)))", errors.KindReservedName, 1},
		{"reserved_loop_var", "(func f (for _i (range 1 2) (print 1)))", errors.KindReservedName, 1},
		{"reserved_read", "(func f (print _arg))", errors.KindReservedName, 1},
		{"reserved_closure_param", "(func f (set g (fn (_a) (return 1))))", errors.KindReservedName, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lower(parse(t, tt.src), Config{})
			if err == nil {
				t.Fatal("expected error")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %T", err)
			}
			if e.Kind != tt.kind {
				t.Errorf("kind = %s, want %s (%v)", e.Kind, tt.kind, err)
			}
			if e.Phase != errors.PhaseTransform || !errors.IsStructural(err) {
				t.Errorf("phase = %s", e.Phase)
			}
			if e.Func != "f" {
				t.Errorf("func = %q", e.Func)
			}
			if e.Line != tt.line {
				t.Errorf("line = %d, want %d", e.Line, tt.line)
			}
		})
	}
}

func TestLowerRejectsLoweringNodes(t *testing.T) {
	tests := []struct {
		name string
		body []ast.Stmt
	}{
		{"label", []ast.Stmt{&ast.Label{Name: "x"}}},
		{"goto", []ast.Stmt{&ast.Goto{Label: "x"}}},
		{"state", []ast.Stmt{&ast.ExprStmt{X: &ast.State{}}}},
		{"resumearg", []ast.Stmt{&ast.Return{Value: &ast.ResumeArg{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lower(&ast.Func{Name: "f", Body: tt.body}, Config{})
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseTransform, Kind: errors.KindInvalidInput}) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	if _, err := Lower(nil, Config{}); err == nil {
		t.Error("expected error for nil function")
	}
}

func TestTooManySuspensions(t *testing.T) {
	build := func(n int) *ast.Func {
		fn := &ast.Func{Name: "f"}
		for i := 0; i < n; i++ {
			fn.Body = append(fn.Body, &ast.ExprStmt{X: &ast.Yield{Value: ast.Const(int64(i)), Line: i + 1}})
		}
		return fn
	}

	res, err := Lower(build(MaxSuspensions), Config{})
	if err != nil {
		t.Fatalf("Lower(%d) failed: %v", MaxSuspensions, err)
	}
	if res.Suspensions != MaxSuspensions {
		t.Errorf("suspensions = %d", res.Suspensions)
	}

	_, err = Lower(build(MaxSuspensions+1), Config{})
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindTooManySuspensions {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Line != MaxSuspensions+1 {
		t.Errorf("line = %d", e.Line)
	}
}

func TestLowerMetrics(t *testing.T) {
	before := transformsTotal.Get()
	beforeErr := transformErrors.Get()

	if _, err := Lower(parse(t, greetSrc), Config{}); err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if _, err := Lower(parse(t, "(func f (print (yield 1)))"), Config{}); err == nil {
		t.Fatal("expected error")
	}

	if got := transformsTotal.Get() - before; got != 1 {
		t.Errorf("transforms delta = %d", got)
	}
	if got := transformErrors.Get() - beforeErr; got != 1 {
		t.Errorf("errors delta = %d", got)
	}
}

func TestStateLabel(t *testing.T) {
	if got := StateLabel(12); got != "_STATE_12" {
		t.Errorf("StateLabel(12) = %q", got)
	}
}
