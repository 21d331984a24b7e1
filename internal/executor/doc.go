// Package executor schedules a validated schema: it dispatches nodes whose
// dependencies are satisfied across a worker pool, resolves each node's
// inputs from its producers, decides cache-hit versus recompute through
// the fingerprint engine, invokes components through the graph component
// contract, and publishes produced artifacts atomically into the store.
//
// Each node moves through Pending -> ResolvingInputs -> Fingerprinting ->
// {CacheHit | Computing} -> Publishing -> Done, or to Failed from any
// non-terminal state. A non-tolerant failure cancels the run and leaves
// every downstream node untouched in Pending.
package executor
