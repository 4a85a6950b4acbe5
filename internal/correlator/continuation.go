package correlator

import (
	"context"

	"github.com/roach88/rivecq/internal/command"
)

// Slot is a pending one-shot result. Slots are created with Await (internally)
// or Callback.
type Slot interface {
	complete(value any, err error, mismatch MismatchFunc)
}

type result[T any] struct {
	value T
	err   error
}

// waiter wakes a goroutine blocked in Await.
type waiter[T any] struct {
	ch chan result[T]
}

func newWaiter[T any]() *waiter[T] {
	return &waiter[T]{ch: make(chan result[T], 1)}
}

func (w *waiter[T]) complete(value any, err error, mismatch MismatchFunc) {
	var zero T
	if err != nil {
		w.ch <- result[T]{value: zero, err: err}
		return
	}
	v, ok := value.(T)
	if !ok {
		w.ch <- result[T]{value: zero, err: mismatch(typeName[T](), valueTypeName(value))}
		return
	}
	w.ch <- result[T]{value: v}
}

type callback[T any] struct {
	fn func(T, error)
}

// Callback returns a Slot that invokes fn on the executor when resolved.
func Callback[T any](fn func(T, error)) Slot {
	return &callback[T]{fn: fn}
}

func (c *callback[T]) complete(value any, err error, mismatch MismatchFunc) {
	var zero T
	if err != nil {
		c.fn(zero, err)
		return
	}
	v, ok := value.(T)
	if !ok {
		c.fn(zero, mismatch(typeName[T](), valueTypeName(value)))
		return
	}
	c.fn(v, nil)
}

// Continuations maps request IDs to pending one-shot slots.
//
// Each service owns its own table. Request IDs come from the shared queue, so
// two tables never hold the same ID.
type Continuations struct {
	exec     Executor
	pending  map[command.RequestID]Slot
	mismatch MismatchFunc
}

// NewContinuations creates an empty table owned by exec.
func NewContinuations(exec Executor, opts ...Option) *Continuations {
	cfg := newConfig(opts)
	return &Continuations{
		exec:     exec,
		pending:  make(map[command.RequestID]Slot),
		mismatch: cfg.mismatch,
	}
}

// Register inserts a slot. Must run on the executor, before or in the same task
// as the command that will be answered with id.
func (c *Continuations) Register(id command.RequestID, s Slot) {
	c.exec.AssertOwned()
	c.pending[id] = s
}

// Resolve completes and removes the slot registered under id.
// Returns false (and does nothing) if no slot is registered.
func (c *Continuations) Resolve(id command.RequestID, value any, err error) bool {
	c.exec.AssertOwned()
	s, ok := c.pending[id]
	if !ok {
		return false
	}
	delete(c.pending, id)
	s.complete(value, err, c.mismatch)
	return true
}

// Remove drops the slot registered under id without completing it.
func (c *Continuations) Remove(id command.RequestID) bool {
	c.exec.AssertOwned()
	_, ok := c.pending[id]
	delete(c.pending, id)
	return ok
}

// Pending reports whether a slot is registered under id.
func (c *Continuations) Pending(id command.RequestID) bool {
	c.exec.AssertOwned()
	_, ok := c.pending[id]
	return ok
}

// Len returns the number of pending slots.
func (c *Continuations) Len() int {
	c.exec.AssertOwned()
	return len(c.pending)
}

// Await runs the asynchronous read template: on the executor it takes the next
// request ID, registers a slot and calls issue with the ID; the caller blocks
// until the slot is resolved.
//
// If ctx is done first the slot is removed and a late reply is dropped.
func Await[T any](ctx context.Context, table *Continuations, ids command.IDSource, issue func(id command.RequestID)) (T, error) {
	var zero T
	w := newWaiter[T]()

	// id is only touched from executor tasks.
	var id command.RequestID
	registered := false

	if !table.exec.Post(func() {
		id = ids.NextRequestID()
		table.Register(id, w)
		registered = true
		issue(id)
	}) {
		return zero, ErrStopped
	}

	select {
	case r := <-w.ch:
		return r.value, r.err

	case <-ctx.Done():
		table.exec.Post(func() {
			if registered {
				table.Remove(id)
			}
		})
		select {
		case r := <-w.ch:
			return r.value, r.err
		default:
		}
		return zero, ctx.Err()

	case <-table.exec.Done():
		select {
		case r := <-w.ch:
			return r.value, r.err
		default:
		}
		return zero, ErrStopped
	}
}
