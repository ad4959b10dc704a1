// Package errors provides structured error types for the resumable library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the function name, the suspension ordinal involved
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTransform, errors.KindYieldInFinally).
//		Func("worker").
//		Suspension(2).
//		Detail("suspension point inside finally-part").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Stopped("fibonacci")
//	err := errors.UnknownFunction("sqrt")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
