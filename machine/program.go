package machine

import (
	"context"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"go.uber.org/zap"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/host"
	"github.com/wippyai/resumable/internal/lower"
	"github.com/wippyai/resumable/internal/slots"
)

var (
	machinesCreated  = metrics.NewCounter(`resumable_machine_created_total`)
	resumesTotal     = metrics.NewCounter(`resumable_machine_resumes_total`)
	completions      = metrics.NewCounter(`resumable_machine_completions_total`)
	stoppedTotal     = metrics.NewCounter(`resumable_machine_stopped_total`)
	exceptionsTotal  = metrics.NewCounter(`resumable_machine_exceptions_total`)
	injectedTotal    = metrics.NewCounter(`resumable_machine_injected_total`)
	interruptedTotal = metrics.NewCounter(`resumable_machine_interrupted_total`)
)

// Program is an executable lowered function. It is immutable and may be
// shared between goroutines; each machine it creates is independent.
type Program struct {
	res    *lower.Result
	desc   *Descriptor
	set    *slots.Set
	reg    *host.Registry
	labels map[string]*labelInfo
}

// labelInfo locates a jump target: the label itself and every statement
// that encloses it.
type labelInfo struct {
	node   *ast.Label
	within map[ast.Stmt]bool
}

// NewProgram prepares res for execution against reg. A nil registry means
// host.Default().
func NewProgram(res *lower.Result, reg *host.Registry) (*Program, error) {
	if res == nil || res.Func == nil {
		return nil, errors.InvalidInput(errors.PhaseConstruct, "nil lowering result")
	}
	if reg == nil {
		reg = host.Default()
	}
	p := &Program{
		res:    res,
		desc:   newDescriptor(res),
		set:    res.Slots,
		reg:    reg,
		labels: make(map[string]*labelInfo),
	}
	if err := p.indexLabels(res.Body, nil); err != nil {
		return nil, err
	}
	Logger().Debug("program ready",
		zap.String("func", p.desc.Name),
		zap.Int("slots", len(p.desc.Slots)),
		zap.Int("labels", len(p.labels)))
	return p, nil
}

func (p *Program) indexLabels(list []ast.Stmt, outer []ast.Stmt) error {
	for _, s := range list {
		path := append(outer[:len(outer):len(outer)], s)
		switch s := s.(type) {
		case *ast.Label:
			if _, dup := p.labels[s.Name]; dup {
				return errors.New(errors.PhaseConstruct, errors.KindInvalidInput).
					Func(p.desc.Name).
					Detail("duplicate label %s", s.Name).
					Build()
			}
			info := &labelInfo{node: s, within: make(map[ast.Stmt]bool, len(outer))}
			for _, o := range outer {
				info.within[o] = true
			}
			p.labels[s.Name] = info
		case *ast.If:
			if err := p.indexLabels(s.Then, path); err != nil {
				return err
			}
			if err := p.indexLabels(s.Else, path); err != nil {
				return err
			}
		case *ast.While:
			if err := p.indexLabels(s.Body, path); err != nil {
				return err
			}
		case *ast.Try:
			if err := p.indexLabels(s.Body, path); err != nil {
				return err
			}
			if err := p.indexLabels(s.Catch, path); err != nil {
				return err
			}
			if err := p.indexLabels(s.Finally, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// Name returns the function name.
func (p *Program) Name() string { return p.desc.Name }

// Descriptor returns the static description of the machine.
func (p *Program) Descriptor() *Descriptor { return p.desc }

// Record returns the persistent record type of the machine.
func (p *Program) Record() *RecordType { return p.desc.Record() }

// Lowered returns the function carrying the fully rewritten body.
func (p *Program) Lowered() *ast.Func { return p.res.Lowered() }

// Registry returns the host functions the program calls.
func (p *Program) Registry() *host.Registry { return p.reg }

// New constructs a machine in the created state. args bind the declared
// parameters in order; missing trailing arguments take their defaults.
// Type parameters are inferred from the arguments and checked against their
// constraints.
func (p *Program) New(ctx context.Context, args ...any) (*Machine, error) {
	params := p.desc.Params
	if len(args) > len(params) {
		return nil, errors.Arity(errors.PhaseConstruct, p.desc.Name, p.arity(), len(args))
	}

	m := &Machine{
		prog:     p,
		slots:    make([]any, len(p.set.Slots)),
		typeArgs: make(map[string]ast.Type, len(p.desc.TypeParams)),
		state:    lower.StateCreated,
	}

	x := m.executor(ctx)
	sc := newScope(nil)
	for i, prm := range params {
		var v any
		switch {
		case i < len(args):
			v = args[i]
		case prm.Default != nil:
			dv, err := x.eval(prm.Default, sc)
			if err != nil {
				return nil, errors.New(errors.PhaseConstruct, errors.KindInvalidInput).
					Func(p.desc.Name).
					Detail("default of parameter %s", prm.Name).
					Cause(err).
					Build()
			}
			v = dv
		default:
			return nil, errors.Arity(errors.PhaseConstruct, p.desc.Name, p.arity(), len(args))
		}

		if err := m.bindParam(prm, v); err != nil {
			return nil, err
		}
		sc.vars[prm.Name] = v
	}
	if err := m.checkTypeArgs(); err != nil {
		return nil, err
	}

	machinesCreated.Inc()
	return m, nil
}

func (p *Program) arity() string {
	required := 0
	for _, prm := range p.desc.Params {
		if prm.Default == nil {
			required++
		}
	}
	if required == len(p.desc.Params) {
		return strconv.Itoa(required)
	}
	return strconv.Itoa(required) + "-" + strconv.Itoa(len(p.desc.Params))
}

// bindParam stores a parameter value, recording the type argument of a
// type-parameterized parameter.
func (m *Machine) bindParam(prm ast.Param, v any) error {
	name := m.prog.desc.Name
	if prm.Type.Kind == ast.ParamKind {
		if v == nil {
			m.slots[m.prog.set.Index(prm.Name)] = nil
			return nil
		}
		t := ast.Type{Kind: ast.KindOf(v)}
		if old, ok := m.typeArgs[prm.Type.Name]; ok {
			t = old.Merge(t)
		}
		m.typeArgs[prm.Type.Name] = t
	} else if !prm.Type.Accepts(v) {
		err := errors.TypeMismatch(errors.PhaseConstruct, "parameter "+prm.Name, prm.Type.String(), host.TypeName(v))
		err.Func = name
		return err
	}
	m.slots[m.prog.set.Index(prm.Name)] = v
	return nil
}

func (m *Machine) checkTypeArgs() error {
	for _, tp := range m.prog.desc.TypeParams {
		t, ok := m.typeArgs[tp.Name]
		if !ok {
			t = tp.Constraint
			if t.Kind == ast.Invalid {
				t = ast.AnyType
			}
			m.typeArgs[tp.Name] = t
			continue
		}
		if !tp.Constraint.Satisfies(t) {
			return errors.New(errors.PhaseConstruct, errors.KindConstraint).
				Func(m.prog.desc.Name).
				Detail("type argument %s = %s does not satisfy %s", tp.Name, t, tp.Constraint).
				Build()
		}
	}
	return nil
}
