// Package lower rewrites a function with suspension points into the body of
// a resumable state machine.
//
// Transformation pipeline:
//  1. Validate: suspension points only as statements, never in closures
//  2. Normalize for-loops into explicit iterator cursors
//  3. Split protected regions around top-level suspension points
//  4. Collect slots for every surviving local
//  5. Separate resume-argument bindings from their suspension point
//  6. Insert an exception check after every suspension point
//  7. Lower each suspension point to state store, return and resume label
//  8. Prepend the dispatcher that jumps to the pending resume label
//
// The output is still an ast body, using the lowering-only nodes Label,
// Goto, State and ResumeArg. Package machine executes it.
package lower
