// Package schedule implements phase-scoped deferred task execution.
//
// Code running in a restricted context (an attribute hook, a queued
// command) can schedule a one-shot system invocation for a later phase of
// the update cycle. Each phase owns a FIFO queue; Drain atomically takes a
// phase's pending invocations and runs them in enqueue order against the
// full mutable world.
//
// ORDERING GUARANTEES:
//   - FIFO within one phase's queue.
//   - An invocation enqueued during a drain of phase P lands in the fresh
//     queue and waits for P's next drain.
//   - Each invocation executes exactly once; there is no cancellation.
//
// A failed invocation is logged with identifying context and the batch
// continues — one broken task never starves the rest of the drain.
package schedule
