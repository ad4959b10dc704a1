package host

import (
	"context"
	"io"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/resumable/errors"
)

// Variadic marks a Func without an upper argument bound.
const Variadic = -1

// Impl is the Go implementation of a host function.
type Impl func(ctx context.Context, args []any) (any, error)

// Func is a named host function value.
type Func struct {
	Impl    Impl
	Name    string
	MinArgs int
	MaxArgs int
}

// CallName implements ast.Callable.
func (f *Func) CallName() string { return f.Name }

// Call checks the argument count and invokes the implementation.
func (f *Func) Call(ctx context.Context, args []any) (any, error) {
	if len(args) < f.MinArgs || (f.MaxArgs != Variadic && len(args) > f.MaxArgs) {
		return nil, errors.Arity(errors.PhaseRuntime, f.Name, f.arity(), len(args))
	}
	return f.Impl(ctx, args)
}

func (f *Func) arity() string {
	switch {
	case f.MaxArgs == Variadic:
		return strconv.Itoa(f.MinArgs) + "+"
	case f.MinArgs == f.MaxArgs:
		return strconv.Itoa(f.MinArgs)
	}
	return strconv.Itoa(f.MinArgs) + "-" + strconv.Itoa(f.MaxArgs)
}

// Config holds configuration for registry creation
type Config struct {
	// Output receives print output. Defaults to os.Stdout.
	Output io.Writer

	// MemoryLimitPages caps the memory of loaded wasm modules in 64KB pages.
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

// Registry holds host functions by name.
type Registry struct {
	funcs   map[string]*Func
	out     io.Writer
	cfg     Config
	mu      sync.Mutex
	runtime wazero.Runtime
}

// New creates a registry holding the builtin functions.
func New(cfg Config) *Registry {
	r := &Registry{
		funcs: make(map[string]*Func),
		out:   cfg.Output,
		cfg:   cfg,
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	r.registerBuiltins()
	return r
}

// Register adds or replaces a host function.
func (r *Registry) Register(name string, minArgs, maxArgs int, impl Impl) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = &Func{Name: name, MinArgs: minArgs, MaxArgs: maxArgs, Impl: impl}
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (*Func, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.funcs[name]
	return f, ok
}

// Call invokes the function registered under name.
func (r *Registry) Call(ctx context.Context, name string, args ...any) (any, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, errors.UnknownFunction(name)
	}
	return f.Call(ctx, args)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Close releases the wasm runtime, if any module was loaded.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	rt := r.runtime
	r.runtime = nil
	r.mu.Unlock()
	if rt == nil {
		return nil
	}
	return rt.Close(ctx)
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return New(Config{})
})

// Default returns a shared registry with only the builtins.
func Default() *Registry {
	return defaultRegistry()
}
