package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned when work is submitted to an engine whose loop has
// stopped.
var ErrStopped = errors.New("engine stopped")

// Engine is the single-writer task loop that owns every command queue call and
// every correlation table.
//
// Thread-safety model:
//   - Post(), Do(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - AssertOwned(): only meaningful from inside a task
//
// INVARIANTS:
//   - Tasks execute one at a time, in the order they were posted
//   - A task never runs after Run has returned
type Engine struct {
	queue     *taskQueue
	owner     atomic.Uint64 // goroutine running the current task; set only with confinement checks
	done      chan struct{}
	doneOnce  sync.Once
	logger    *slog.Logger

	checkConfinement bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfinementCheck makes AssertOwned panic when it is reached outside a
// task. Intended for tests and debug builds.
func WithConfinementCheck() Option {
	return func(e *Engine) {
		e.checkConfinement = true
	}
}

// WithLogger sets the logger used for lifecycle and task failure messages.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine. Call Run to start processing tasks.
func New(opts ...Option) *Engine {
	e := &Engine{
		queue:  newTaskQueue(),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Post submits a task for execution on the engine goroutine.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Post(fn func()) bool {
	return e.queue.Enqueue(fn)
}

// Do posts fn and blocks until it has run, the context is done, or the engine
// stops.
//
// Do must not be called from inside a task: the loop would wait on itself.
func (e *Engine) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !e.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		// The loop may have run the task right before exiting.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Run starts the task loop.
// Blocks until the context is cancelled or Stop() is called and the queue has
// drained.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// ERROR HANDLING: A panicking task is recovered and logged and the loop keeps
// going; one broken callback must not strand every other pending request.
func (e *Engine) Run(ctx context.Context) error {
	defer e.doneOnce.Do(func() { close(e.done) })

	e.logger.Info("engine starting")

	for {
		task, ok := e.queue.TryDequeue()
		if ok {
			e.runTask(task)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// A stale coalesced signal can fire with nothing queued; only a
			// closed, empty queue ends the loop.
			if e.queue.Drained() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the task queue. Tasks already queued still run; Run returns
// once they have.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Pending returns the number of queued tasks.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// AssertOwned panics if confinement checking is enabled and the caller is not
// the goroutine running the current engine task. Another goroutine calling it
// while a task runs still panics.
func (e *Engine) AssertOwned() {
	if e.checkConfinement && e.owner.Load() != goid() {
		panic("engine: state touched outside the owning task loop")
	}
}

func (e *Engine) runTask(task Task) {
	if e.checkConfinement {
		e.owner.Store(goid())
		defer e.owner.Store(0)
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("engine task failed",
				"error", fmt.Sprint(r),
			)
		}
	}()

	task()
}

// goid parses the current goroutine's ID from its stack header,
// "goroutine 18 [running]:". IDs start at 1, so 0 never matches.
func goid() uint64 {
	var buf [64]byte
	b := bytes.TrimPrefix(buf[:runtime.Stack(buf[:], false)], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}
