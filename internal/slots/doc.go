// Package slots collects the variables of a resumable function that must
// survive across suspension points.
//
// Every parameter and every local assigned in the body becomes a slot, in
// order of first appearance. Closure bodies and catch variables are not
// collected: they live only while their code runs. A slot that receives a
// resume argument is always typed any, since the caller picks its value.
//
// Slot types come from an Oracle. InferOracle derives them from literal and
// operator kinds; MapOracle serves a fixed mapping. Names the oracle cannot
// resolve are widened to any.
package slots
