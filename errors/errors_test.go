package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:      PhaseTransform,
				Kind:       KindYieldInFinally,
				Func:       "worker",
				Line:       12,
				Suspension: 3,
				Detail:     "suspension point inside finally-part",
			},
			contains: []string{"[transform]", "yield_in_finally", "in worker", "line 12", "suspension 3", "finally-part"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRuntime,
				Kind:  KindStopped,
			},
			contains: []string{"[runtime]", "stopped"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseHost,
				Kind:   KindRegistration,
				Detail: "register math.add",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[host]", "registration", "math.add", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseHost,
		Kind:  KindRegistration,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := Stopped("fib")

	if !errors.Is(err, ErrStopped) {
		t.Error("Stopped should match ErrStopped")
	}
	if errors.Is(err, &Error{Phase: PhaseTransform, Kind: KindStopped}) {
		t.Error("Is should not match different phase")
	}
	if errors.Is(err, &Error{Phase: PhaseRuntime, Kind: KindArity}) {
		t.Error("Is should not match different kind")
	}

	wrapped := fmt.Errorf("drive: %w", err)
	if !errors.Is(wrapped, ErrStopped) {
		t.Error("wrapped stop should match ErrStopped")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseTransform, KindYieldNotTopLevel).
		Func("gen").
		Line(4).
		Suspension(2).
		Value(7).
		Cause(cause).
		Detail("nested in %s", "while").
		Build()

	if err.Phase != PhaseTransform {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseTransform)
	}
	if err.Kind != KindYieldNotTopLevel {
		t.Errorf("Kind = %v, want %v", err.Kind, KindYieldNotTopLevel)
	}
	if err.Func != "gen" || err.Line != 4 || err.Suspension != 2 {
		t.Errorf("unexpected location fields: %+v", err)
	}
	if err.Value != 7 {
		t.Errorf("Value = %v, want 7", err.Value)
	}
	if err.Detail != "nested in while" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}
}

func TestIsStructural(t *testing.T) {
	if !IsStructural(Structural(KindYieldInClosure, "f", "closure")) {
		t.Error("structural error not detected")
	}
	if !IsStructural(fmt.Errorf("compile: %w", Structural(KindYieldInCatch, "f", ""))) {
		t.Error("wrapped structural error not detected")
	}
	if IsStructural(Stopped("f")) {
		t.Error("runtime error reported as structural")
	}
	if IsStructural(errors.New("plain")) {
		t.Error("plain error reported as structural")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"type mismatch", TypeMismatch(PhaseRuntime, "slot a", "int", "string"), PhaseRuntime, KindTypeMismatch},
		{"unknown function", UnknownFunction("sqrt"), PhaseRuntime, KindUnknownFunction},
		{"undefined", Undefined("x"), PhaseRuntime, KindUndefined},
		{"arity", Arity(PhaseConstruct, "fib", "1", 3), PhaseConstruct, KindArity},
		{"invalid operation", InvalidOperation("+", 1, true), PhaseRuntime, KindInvalidOperation},
		{"not found", NotFound(PhaseHost, "export", "add"), PhaseHost, KindNotFound},
		{"parse", ParseFailed(3, "unexpected %q", ")"), PhaseParse, KindInvalidInput},
		{"eof", UnexpectedEOF(), PhaseParse, KindUnexpectedEndOfFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase || tt.err.Kind != tt.kind {
				t.Errorf("got %s/%s, want %s/%s", tt.err.Phase, tt.err.Kind, tt.phase, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}
}
