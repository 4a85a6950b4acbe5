package correlator

// Executor is the owning task loop that all table mutations run on.
// *engine.Engine satisfies it.
type Executor interface {
	// Post schedules fn on the owning goroutine. Returns false once stopped.
	Post(fn func()) bool

	// AssertOwned panics (when checking is enabled) if called off the
	// owning goroutine.
	AssertOwned()

	// Done is closed when the executor stops running tasks.
	Done() <-chan struct{}
}
