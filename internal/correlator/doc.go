// Package correlator matches asynchronous backend replies to the callers
// waiting for them.
//
// Two tables are provided:
//   - Continuations: one-shot slots, resolved at most once and then removed
//   - Streams: long-lived sinks that receive values until cancelled or failed
//
// Both tables are keyed by command.RequestID and are confined to one owning
// Executor. Every mutation asserts ownership; listener callbacks must post onto
// the executor before calling Resolve, Yield or Finish.
//
// Replies for IDs that are not (or no longer) registered are dropped without
// error. Late, duplicate and unmatched replies are normal.
package correlator
