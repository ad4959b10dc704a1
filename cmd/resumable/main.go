package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/VictoriaMetrics/metrics"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/resumable"
	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/host"
	"github.com/wippyai/resumable/internal/lower"
	"github.com/wippyai/resumable/machine"
	"github.com/wippyai/resumable/syntax"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session holds what the global flags set up for a command.
type session struct {
	reg *host.Registry
}

func newApp() *cli.App {
	s := &session{}
	return &cli.App{
		Name:      "resumable",
		Usage:     "Lower and drive resumable functions",
		ArgsUsage: "<source file>",
		Flags:     globalFlags,
		Before:    s.before,
		After:     s.after,
		Commands: []*cli.Command{
			{
				Name:      "lower",
				Usage:     "Print the lowered function and its persistent record type",
				ArgsUsage: "<source file>",
				Flags:     lowerFlags,
				Action:    s.lower,
			},
			{
				Name:      "run",
				Usage:     "Drive a function to completion, printing every produced value",
				ArgsUsage: "<source file>",
				Flags:     runFlags,
				Action:    s.run,
			},
			{
				Name:      "step",
				Usage:     "Step through a function interactively",
				ArgsUsage: "<source file>",
				Flags:     stepFlags,
				Action:    s.step,
			},
		},
	}
}

func (s *session) before(c *cli.Context) error {
	if c.Bool(globalVerbose) {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		host.SetLogger(l)
		lower.SetLogger(l)
		machine.SetLogger(l)
	}

	m := &Manifest{}
	if path := c.String(globalManifest); path != "" {
		var err error
		if m, err = ReadManifest(path); err != nil {
			return err
		}
	}
	reg, err := m.Registry(c.Context, c.App.Writer)
	if err != nil {
		return err
	}
	s.reg = reg
	return nil
}

func (s *session) after(c *cli.Context) error {
	if s.reg != nil {
		if err := s.reg.Close(c.Context); err != nil {
			return fmt.Errorf("close host registry: %w", err)
		}
	}
	if c.Bool(globalMetrics) {
		metrics.WritePrometheus(c.App.ErrWriter, false)
	}
	return nil
}

// function reads the source file named by the first argument and returns
// the function selected by --func.
func (s *session) function(c *cli.Context) (*ast.Func, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected one source file, got %d arguments", c.NArg())
	}
	src, err := os.ReadFile(c.Args().First())
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	funcs, err := syntax.Parse(string(src))
	if err != nil {
		return nil, err
	}

	name := c.String(funcName)
	if name == "" {
		if len(funcs) != 1 {
			return nil, fmt.Errorf("source defines %d functions; choose one with --%s", len(funcs), funcName)
		}
		return funcs[0], nil
	}
	i := slices.IndexFunc(funcs, func(fn *ast.Func) bool { return fn.Name == name })
	if i < 0 {
		return nil, fmt.Errorf("function %q not found", name)
	}
	return funcs[i], nil
}

func (s *session) compile(c *cli.Context, trace func(string, []ast.Stmt)) (*machine.Program, error) {
	fn, err := s.function(c)
	if err != nil {
		return nil, err
	}
	return resumable.Compile(fn, resumable.Config{Registry: s.reg, Trace: trace})
}

func (s *session) lower(c *cli.Context) error {
	w := c.App.Writer
	var trace func(string, []ast.Stmt)
	if c.Bool(lowerPass) {
		trace = func(pass string, body []ast.Stmt) {
			fmt.Fprintf(w, ";; after %s\n%s\n\n", pass, ast.FormatStmts(body))
		}
	}
	p, err := s.compile(c, trace)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, ";; %s: %d suspension points\n", p.Name(), p.Descriptor().Suspensions)
	fmt.Fprintln(w, ast.Format(p.Lowered()))
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Record().String())
	return nil
}

type runStyles struct {
	state, value, result lipgloss.Style
}

func newRunStyles(color bool) runStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return runStyles{state: plain, value: plain, result: plain}
	}
	return runStyles{
		state:  helpStyle,
		value:  valueStyle,
		result: resultStyle,
	}
}

func (s *session) run(c *cli.Context) error {
	p, err := s.compile(c, nil)
	if err != nil {
		return err
	}
	m, err := p.New(c.Context, parseValues(c.StringSlice(runArgs))...)
	if err != nil {
		return err
	}

	w := c.App.Writer
	color := !c.Bool(runNoColor) && w == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
	st := newRunStyles(color)
	sends := parseValues(c.StringSlice(runSend))
	limit := c.Int(runLimit)

	var arg any
	for n := 0; ; n++ {
		if limit > 0 && n >= limit {
			fmt.Fprintf(w, "stopped after %d values\n", n)
			return nil
		}
		v, err := m.Resume(c.Context, arg)
		if err != nil {
			return err
		}
		if m.Done() {
			fmt.Fprintln(w, st.result.Render("=> "+host.Format(v)))
			return nil
		}
		fmt.Fprintf(w, "%s %s\n", st.state.Render(fmt.Sprintf("[%d]", m.State())), st.value.Render(host.Format(v)))
		arg = nil
		if n < len(sends) {
			arg = sends[n]
		}
	}
}

func (s *session) step(c *cli.Context) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("step needs an interactive terminal; use run instead")
	}
	p, err := s.compile(c, nil)
	if err != nil {
		return err
	}
	return runStepper(c.Context, p, parseValues(c.StringSlice(runArgs)))
}
