// Package machine runs lowered functions as resumable state machines.
//
// A Program is built once from the output of the lowering pipeline and is
// safe to share. Program.New binds the declared parameters and returns a
// fresh Machine in the created state. Each Resume runs the rewritten body
// from the top: the dispatcher at its head jumps to the label of the pending
// suspension point, so a call continues exactly where the previous one
// returned.
//
//	m, err := prog.New(ctx, int64(10))
//	for !m.Done() {
//		v, err := m.Call(ctx)
//		...
//	}
//
// Calling a completed machine raises an exception wrapping
// errors.ErrStopped. Iterator adapts a machine to a sequence that ends
// instead.
//
// A Machine holds mutable state without synchronization and must be driven
// by one caller at a time.
package machine
