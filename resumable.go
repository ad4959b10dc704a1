package resumable

import (
	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/errors"
	"github.com/wippyai/resumable/host"
	"github.com/wippyai/resumable/internal/lower"
	"github.com/wippyai/resumable/machine"
	"github.com/wippyai/resumable/syntax"
)

// Oracle supplies the type of a persistent slot by name. A name the oracle
// does not know is inferred from the function body.
type Oracle interface {
	SlotType(name string) (ast.Type, bool)
}

// Types is an Oracle backed by a fixed table.
type Types map[string]ast.Type

func (t Types) SlotType(name string) (ast.Type, bool) {
	typ, ok := t[name]
	return typ, ok
}

// Config configures compilation.
type Config struct {
	// Oracle overrides inferred slot types.
	Oracle Oracle

	// Registry resolves host functions. Nil means host.Default().
	Registry *host.Registry

	// Trace, if set, receives the body after every lowering pass.
	Trace func(pass string, body []ast.Stmt)
}

func (c Config) lower() lower.Config {
	cfg := lower.Config{Trace: c.Trace}
	if c.Oracle != nil {
		cfg.Oracle = c.Oracle
	}
	return cfg
}

// Compile lowers fn and returns a Program ready to construct machines.
// fn is not modified.
func Compile(fn *ast.Func, cfg Config) (*machine.Program, error) {
	res, err := lower.Lower(fn, cfg.lower())
	if err != nil {
		return nil, err
	}
	return machine.NewProgram(res, cfg.Registry)
}

// CompileSource parses src and compiles every function it defines, in
// source order. The first error aborts compilation.
func CompileSource(src string, cfg Config) ([]*machine.Program, error) {
	funcs, err := syntax.Parse(src)
	if err != nil {
		return nil, err
	}
	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "source defines no functions")
	}
	progs := make([]*machine.Program, 0, len(funcs))
	for _, fn := range funcs {
		p, err := Compile(fn, cfg)
		if err != nil {
			return nil, err
		}
		progs = append(progs, p)
	}
	return progs, nil
}
