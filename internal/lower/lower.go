package lower

import (
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"go.uber.org/zap"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/internal/slots"
)

// Machine state ids.
const (
	StateCreated   uint8 = 0
	StateCompleted uint8 = 0xFF

	// MaxSuspensions is the number of ordinals between the two sentinels.
	MaxSuspensions = 254
)

// Synthesized names. User identifiers may not start with an underscore.
const (
	stateLabelPrefix = "_STATE_"
	tryEndPrefix     = "_TRYEND_"
	skipPrefix       = "_skip"
)

var (
	transformsTotal  = metrics.NewCounter(`resumable_lower_transforms_total`)
	transformErrors  = metrics.NewCounter(`resumable_lower_errors_total`)
	suspensionsTotal = metrics.NewCounter(`resumable_lower_suspensions_total`)
)

// Config configures the lowering pipeline.
type Config struct {
	// Oracle supplies slot types. When nil, types are inferred from the body.
	Oracle slots.Oracle

	// Trace, if set, receives the body after every pass.
	Trace func(pass string, body []ast.Stmt)
}

// Result is a lowered function.
type Result struct {
	Func        *ast.Func
	Slots       *slots.Set
	Body        []ast.Stmt
	Suspensions int
}

// Lowered returns a copy of the function header carrying the lowered body.
func (r *Result) Lowered() *ast.Func {
	fn := *r.Func
	fn.Body = r.Body
	return &fn
}

// StateLabel names the resume label of suspension point n.
func StateLabel(n int) string {
	return stateLabelPrefix + strconv.Itoa(n)
}

// lowering carries the per-function state of one pipeline run.
type lowering struct {
	fn       *ast.Func
	cfg      Config
	counters map[string]int

	// continuations maps a suspension point inside a split protected region
	// to the region that must run the code following it.
	continuations map[*ast.Yield]*ast.Try

	// nested counts the try-parts enclosing the region being split.
	nested int
}

// Lower runs the whole pipeline over fn. fn is not modified. Any structural
// error aborts the transformation.
func Lower(fn *ast.Func, cfg Config) (*Result, error) {
	if fn == nil {
		return nil, errors.InvalidInput(errors.PhaseTransform, "nil function")
	}
	res, err := lower(fn, cfg)
	if err != nil {
		transformErrors.Inc()
		Logger().Debug("lowering failed", zap.String("func", fn.Name), zap.Error(err))
		return nil, err
	}
	transformsTotal.Inc()
	suspensionsTotal.Add(res.Suspensions)
	Logger().Debug("lowered",
		zap.String("func", fn.Name),
		zap.Int("slots", len(res.Slots.Slots)),
		zap.Int("suspensions", res.Suspensions))
	return res, nil
}

func lower(fn *ast.Func, cfg Config) (*Result, error) {
	if err := validate(fn); err != nil {
		return nil, err
	}

	l := &lowering{
		fn:            fn,
		cfg:           cfg,
		counters:      make(map[string]int),
		continuations: make(map[*ast.Yield]*ast.Try),
	}

	body := ast.CloneStmts(fn.Body)

	body = l.normalizeLoops(body)
	l.trace("loops", body)

	body, err := l.normalizeRegions(body)
	if err != nil {
		return nil, err
	}
	l.trace("regions", body)

	set := slots.Collect(fn, body, l.oracle(body))

	body = l.rewriteResumeArgs(body)
	l.trace("resume", body)

	body = l.injectExceptions(body)
	l.trace("inject", body)

	body, n, err := l.lowerSuspensions(body)
	if err != nil {
		return nil, err
	}
	l.trace("suspend", body)

	body, err = l.dispatch(body, n)
	if err != nil {
		return nil, err
	}
	l.trace("dispatch", body)

	return &Result{Func: fn, Slots: set, Body: body, Suspensions: n}, nil
}

func (l *lowering) oracle(normalized []ast.Stmt) slots.Oracle {
	if l.cfg.Oracle != nil {
		return slots.Chain(l.cfg.Oracle, slots.NewInferOracle(l.fn, normalized))
	}
	// The source body types loop variables; the normalized one types the
	// synthesized cursors and flags.
	return slots.Chain(slots.NewInferOracle(l.fn, l.fn.Body), slots.NewInferOracle(l.fn, normalized))
}

func (l *lowering) trace(pass string, body []ast.Stmt) {
	if l.cfg.Trace != nil {
		l.cfg.Trace(pass, body)
	}
}

// fresh returns a new numbered suffix for prefix.
func (l *lowering) fresh(prefix string) string {
	l.counters[prefix]++
	return strconv.Itoa(l.counters[prefix])
}

func (l *lowering) structural(kind errors.Kind, line int, detail string, args ...any) error {
	return errors.New(errors.PhaseTransform, kind).
		Func(l.fn.Name).
		Line(line).
		Detail(detail, args...).
		Build()
}
