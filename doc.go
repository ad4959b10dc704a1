// Package resumable lowers direct-style functions with explicit suspension
// points into restartable state machines.
//
// A function is written as straight-line code that produces values with
// yield. Lowering rewrites it into a single entry point that dispatches on a
// persistent state number, so every call runs until the next suspension
// point and returns. Locals live in a record that survives between calls.
//
// # Architecture Overview
//
//	resumable/           Compile, CompileSource and Cache: the public entry
//	├── ast/             Structured AST and its printer
//	├── syntax/          S-expression front-end producing *ast.Func
//	├── errors/          Structured error types (phase + kind)
//	├── host/            Builtin and wasm-backed host functions
//	├── machine/         Programs, machines and the iterator adapter
//	└── internal/
//	    ├── slots/       Slot collection and type oracles
//	    └── lower/       The lowering passes
//
// # Quick Start
//
//	progs, err := resumable.CompileSource(`
//	    (func fibonacci (param n int 10)
//	        (set a 0)
//	        (set b 1)
//	        (for i (range 1 n)
//	            (yield a)
//	            (set (a b) b (+ a b))))`, resumable.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m, err := progs[0].New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for v := range machine.NewIterator(ctx, m).All() {
//	    fmt.Println(v)
//	}
//
// # Two-way communication
//
// The argument of a resume becomes the value of the yield expression that
// suspended the machine. An error value passed to Resume is raised at the
// suspension point instead, where the function's own try/catch sees it:
//
//	m.Resume(ctx, nil)                      // runs to the first yield
//	m.Resume(ctx, "Ben")                    // (set name (yield ...)) binds "Ben"
//	m.Resume(ctx, &host.Error{Message: "x"}) // thrown at the suspension point
//
// Resuming a completed machine fails with errors.ErrStopped.
//
// # Error Handling
//
// Structural problems found while lowering (a yield inside a finally-part,
// inside a closure, too many suspension points) are reported as
// *errors.Error values with PhaseTransform; nothing is produced for the
// function. Exceptions that escape a machine are returned as
// *machine.Exception.
package resumable
