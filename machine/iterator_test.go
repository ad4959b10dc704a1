package machine

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIteratorProtocol(t *testing.T) {
	p := compile(t, `(func three (yield 1) (yield 2) (yield 3))`, nil)
	it := NewIterator(context.Background(), start(t, p))

	// HasNext is idempotent until Next consumes the element
	if !it.HasNext() || !it.HasNext() {
		t.Fatal("expected an element")
	}
	if got := it.Next(); got != int64(1) {
		t.Errorf("Next() = %v", got)
	}
	// Next without HasNext advances on its own
	if got := it.Next(); got != int64(2) {
		t.Errorf("Next() = %v", got)
	}
	if got := it.Next(); got != int64(3) {
		t.Errorf("Next() = %v", got)
	}
	if it.HasNext() {
		t.Error("expected end of sequence")
	}
	if it.Err() != nil {
		t.Errorf("Err() = %v", it.Err())
	}
}

func TestIteratorResumesWhereLeft(t *testing.T) {
	p := compile(t, fibonacciSrc, nil)
	m := start(t, p)

	first := NewIterator(context.Background(), m)
	var got []any
	for v := range first.All() {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}
	if diff := cmp.Diff(ints(0, 1, 1), got); diff != "" {
		t.Errorf("first pass mismatch (-want +got):\n%s", diff)
	}

	// a second pass over the same machine continues; nothing is reset
	got = nil
	for v := range NewIterator(context.Background(), m).All() {
		got = append(got, v)
	}
	if diff := cmp.Diff(ints(2, 3, 5, 8, 13, 21, 34), got); diff != "" {
		t.Errorf("second pass mismatch (-want +got):\n%s", diff)
	}
}

func TestIteratorError(t *testing.T) {
	p := compile(t, `(func bad (yield 1) (throw (error "broken")) (yield 2))`, nil)
	it := NewIterator(context.Background(), start(t, p))

	var got []any
	for v := range it.All() {
		got = append(got, v)
	}
	if diff := cmp.Diff(ints(1), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	var exc *Exception
	if !stderrors.As(it.Err(), &exc) {
		t.Fatalf("Err() = %v", it.Err())
	}
	if exc.Error() != "exception in bad: broken" {
		t.Errorf("message = %q", exc.Error())
	}
}
