package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse     Phase = "parse"     // text front-end
	PhaseTransform Phase = "transform" // lowering pipeline
	PhaseConstruct Phase = "construct" // machine constructor
	PhaseRuntime   Phase = "runtime"   // driving a machine
	PhaseHost      Phase = "host"      // host function registration and calls
)

// Kind categorizes the error
type Kind string

const (
	KindYieldInFinally      Kind = "yield_in_finally"
	KindYieldInCatch        Kind = "yield_in_catch"
	KindYieldNotTopLevel    Kind = "yield_not_top_level"
	KindYieldInClosure      Kind = "yield_in_closure"
	KindYieldInExpression   Kind = "yield_in_expression"
	KindTooManySuspensions  Kind = "too_many_suspensions"
	KindReservedName        Kind = "reserved_name"
	KindLabelInRegion       Kind = "label_in_region"
	KindStopped             Kind = "stopped"
	KindTypeMismatch        Kind = "type_mismatch"
	KindConstraint          Kind = "constraint"
	KindUnknownFunction     Kind = "unknown_function"
	KindUndefined           Kind = "undefined"
	KindArity               Kind = "arity"
	KindInvalidInput        Kind = "invalid_input"
	KindInvalidOperation    Kind = "invalid_operation"
	KindNotFound            Kind = "not_found"
	KindRegistration        Kind = "registration"
	KindUnexpectedEndOfFile Kind = "unexpected_eof"
)

// ErrStopped matches, via errors.Is, the condition raised when a completed
// machine is invoked again.
var ErrStopped = &Error{Phase: PhaseRuntime, Kind: KindStopped}

// Error is the structured error type used throughout the library
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	Func       string
	Detail     string
	Line       int
	Suspension int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Func != "" {
		b.WriteString(" in ")
		b.WriteString(e.Func)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Suspension > 0 {
		fmt.Fprintf(&b, " (suspension %d)", e.Suspension)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Func sets the name of the function being transformed or driven
func (b *Builder) Func(name string) *Builder {
	b.err.Func = name
	return b
}

// Line sets the source line
func (b *Builder) Line(line int) *Builder {
	b.err.Line = line
	return b
}

// Suspension sets the suspension point ordinal
func (b *Builder) Suspension(n int) *Builder {
	b.err.Suspension = n
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Structural creates a transform-time error for a misplaced suspension point
func Structural(kind Kind, fn string, detail string) *Error {
	return &Error{
		Phase:  PhaseTransform,
		Kind:   kind,
		Func:   fn,
		Detail: detail,
	}
}

// Stopped creates the error raised when a completed machine is invoked
func Stopped(fn string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindStopped,
		Func:   fn,
		Detail: "function has already stopped",
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, what string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Detail: fmt.Sprintf("%s: want %s, got %s", what, want, got),
	}
}

// UnknownFunction creates an unknown host function error
func UnknownFunction(name string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindUnknownFunction,
		Detail: fmt.Sprintf("function %q is not defined", name),
		Value:  name,
	}
}

// Undefined creates an error for reading a name that has no binding
func Undefined(name string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindUndefined,
		Detail: fmt.Sprintf("%q is not defined", name),
		Value:  name,
	}
}

// Arity creates an argument count error
func Arity(phase Phase, fn string, want string, got int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArity,
		Func:   fn,
		Detail: fmt.Sprintf("expected %s argument(s), got %d", want, got),
	}
}

// InvalidOperation creates an error for an operator applied to unsupported operands
func InvalidOperation(op string, x, y any) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInvalidOperation,
		Detail: fmt.Sprintf("invalid operation %T %s %T", x, op, y),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Registration creates a host registration error
func Registration(namespace, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s.%s", namespace, name),
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error at the given line
func ParseFailed(line int, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidInput,
		Line:   line,
		Detail: fmt.Sprintf(format, args...),
	}
}

// UnexpectedEOF creates a parsing error for truncated input
func UnexpectedEOF() *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindUnexpectedEndOfFile,
		Detail: "unexpected end of input",
	}
}

// IsStructural reports whether err is a transform-time structural error.
func IsStructural(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Phase == PhaseTransform
}
