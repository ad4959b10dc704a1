// Package ast defines the structured syntax tree consumed and produced by
// the resumable lowering pipeline.
//
// A source function is a *Func whose body contains ordinary statements plus
// suspension markers (*Yield). The pipeline rewrites the body in place into
// a flat-ish form that additionally uses the lowering-only nodes *Label,
// *Goto, *State and *ResumeArg. Both forms print with Format using the same
// s-expression notation accepted by package syntax:
//
//	(func fibonacci (param n int)
//	  (set a 0)
//	  (set b 1)
//	  (for i (range 1 n)
//	    (yield a)
//	    (set (a b) b (+ a b))))
package ast
