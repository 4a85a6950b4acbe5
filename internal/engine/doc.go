// Package engine implements the owning executor of the client core.
//
// The backend may call listener methods from any goroutine, but the tables that
// correlate request IDs with waiting callers must only be touched from one
// place. The engine is that place: a single goroutine draining a FIFO of tasks.
//
// ARCHITECTURE:
//
// Single-Writer Task Loop:
// Every command queue call and every correlation table mutation is posted to
// the engine and executed in its Run goroutine. This ensures:
// - No locks around correlation state (there is exactly one writer)
// - Commands reach the backend in the order they were issued
// - Listener callbacks are serialized with the requests they answer
//
// Task Flow:
// 1. A service (or a listener callback) posts a closure with Post()
// 2. Run() dequeues closures one at a time
// 3. The closure issues commands and registers/resolves correlation entries
// 4. Callers that need a synchronous result use Do(), which waits for the task
//
// The engine is designed for correctness and determinism, not throughput.
package engine
