// Package reasoning provides an observable trace of component decision
// making. Components emit typed thoughts into an optional engine; listeners
// can stream them in real time and the chain can be exported for debugging.
// The trace is diagnostic only and never consulted for correctness.
package reasoning
