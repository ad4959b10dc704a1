// Package syntax reads resumable functions from an s-expression text format.
//
// The pipeline in package resumable consumes *ast.Func values; this package
// is a convenience front-end for tests, examples and the command line tool.
//
// Basic usage:
//
//	funcs, err := syntax.Parse(`(func fibonacci (param n int 10)
//		(set a 0 b 1)
//		(for i (range 1 n)
//			(yield a)
//			(set (a b) b (+ a b))))`)
//
// Forms:
//   - Header: (func NAME (typeparam T constraint)* (param name type default?)* (result type)? body...)
//   - Several functions may be wrapped in (module ...)
//   - Statements: set, if/then/else, while, for, break, continue, return, throw,
//     try/catch/finally, and any expression
//   - Suspension points: (yield v) as a statement, or (set x (yield v))
//   - Expressions: literals, names, calls, (index x i), (fn (params) body...),
//     arithmetic, comparison, and/or/not
//   - Comments: line (;;) and block (; ;)
//
// The lowering-only forms label, goto, state and resumearg are printed by
// ast.Format but rejected here.
package syntax
