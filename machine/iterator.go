package machine

import (
	"context"
	stderrors "errors"
	"iter"

	"github.com/wippyai/resumable/errors"
)

// Iterator drives a machine as a sequence of the values it produces at its
// suspension points. Completion ends the sequence; the final result is not
// an element and calling past the end never raises the stopped condition.
//
// An Iterator wraps the machine in whatever state it is in. Iterating a
// machine a second time continues where the first pass stopped; nothing is
// reset.
type Iterator struct {
	ctx     context.Context
	m       *Machine
	next    any
	err     error
	pending bool
	done    bool
}

// NewIterator returns an iterator over m.
func NewIterator(ctx context.Context, m *Machine) *Iterator {
	return &Iterator{ctx: ctx, m: m}
}

// HasNext reports whether another element is available, resuming the
// machine if needed.
func (it *Iterator) HasNext() bool {
	if it.pending {
		return true
	}
	if it.done {
		return false
	}
	it.advance()
	return it.pending
}

// Next returns the next element, or nil once the sequence has ended.
func (it *Iterator) Next() any {
	if !it.HasNext() {
		return nil
	}
	it.pending = false
	v := it.next
	it.next = nil
	return v
}

// Err returns the exception that ended the sequence, if any.
func (it *Iterator) Err() error {
	return it.err
}

// All returns the remaining elements as a Go iterator.
func (it *Iterator) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

func (it *Iterator) advance() {
	if it.m.Done() {
		it.done = true
		return
	}
	v, err := it.m.Call(it.ctx)
	switch {
	case err != nil:
		it.done = true
		if !stderrors.Is(err, errors.ErrStopped) {
			it.err = err
		}
	case it.m.Done():
		it.done = true
	default:
		it.next, it.pending = v, true
	}
}
