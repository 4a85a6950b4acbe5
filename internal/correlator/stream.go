package correlator

import (
	"context"
	"io"
	"iter"
	"sync"

	"github.com/roach88/rivecq/internal/command"
)

// sink is the executor-side face of a Stream.
type sink interface {
	yield(value any, mismatch MismatchFunc) bool
	finish(err error)
}

// Streams maps request IDs to live subscription sinks.
type Streams struct {
	exec     Executor
	sinks    map[command.RequestID]sink
	mismatch MismatchFunc
	stopped  error
}

// NewStreams creates an empty table owned by exec.
func NewStreams(exec Executor, opts ...Option) *Streams {
	cfg := newConfig(opts)
	return &Streams{
		exec:     exec,
		sinks:    make(map[command.RequestID]sink),
		mismatch: cfg.mismatch,
		stopped:  cfg.stopped,
	}
}

// Yield delivers value to the sink registered under id. The registration is
// kept. A value of the wrong type fails the stream and removes the sink.
// Returns false if no sink is registered.
func (s *Streams) Yield(id command.RequestID, value any) bool {
	s.exec.AssertOwned()
	sk, ok := s.sinks[id]
	if !ok {
		return false
	}
	if !sk.yield(value, s.mismatch) {
		delete(s.sinks, id)
	}
	return true
}

// Finish terminates the sink registered under id and removes it. A nil err ends
// the stream normally.
func (s *Streams) Finish(id command.RequestID, err error) bool {
	s.exec.AssertOwned()
	sk, ok := s.sinks[id]
	if !ok {
		return false
	}
	delete(s.sinks, id)
	sk.finish(err)
	return true
}

// Active reports whether a sink is registered under id.
func (s *Streams) Active(id command.RequestID) bool {
	s.exec.AssertOwned()
	_, ok := s.sinks[id]
	return ok
}

// Len returns the number of live sinks.
func (s *Streams) Len() int {
	s.exec.AssertOwned()
	return len(s.sinks)
}

// Subscribe returns a stream immediately. On the executor it takes the next
// request ID, registers the stream and calls subscribe with the ID.
//
// When the stream terminates, for any reason, unsubscribe is called once on
// the executor with the same ID and the sink is removed. If the executor stops
// first, the stream ends with the table's stopped error.
func Subscribe[T any](table *Streams, ids command.IDSource, subscribe, unsubscribe func(id command.RequestID)) *Stream[T] {
	st := newStream[T]()

	// Executor-only state.
	var (
		id         command.RequestID
		registered bool
	)

	st.onTerminate = func() {
		table.exec.Post(func() {
			if !registered {
				return
			}
			registered = false
			unsubscribe(id)
			delete(table.sinks, id)
		})
	}

	if !table.exec.Post(func() {
		if st.terminated() {
			return
		}
		id = ids.NextRequestID()
		table.sinks[id] = st
		registered = true
		subscribe(id)
	}) {
		st.finish(table.stopped)
		return st
	}

	go func() {
		select {
		case <-table.exec.Done():
			st.finish(table.stopped)
		case <-st.done:
		}
	}()

	return st
}

// Stream is a multi-value subscription. Values are buffered without bound
// until consumed.
//
// A Stream must be closed (or drained to its terminal error) to release the
// backend subscription.
type Stream[T any] struct {
	mu     sync.Mutex
	buf    []T
	err    error
	closed bool
	signal chan struct{} // buffered, size 1
	done   chan struct{} // closed on termination

	once        sync.Once
	onTerminate func()
}

func newStream[T any]() *Stream[T] {
	return &Stream[T]{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (st *Stream[T]) yield(value any, mismatch MismatchFunc) bool {
	v, ok := value.(T)
	if !ok {
		st.finish(mismatch(typeName[T](), valueTypeName(value)))
		return false
	}

	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return false
	}
	st.buf = append(st.buf, v)
	st.mu.Unlock()

	select {
	case st.signal <- struct{}{}:
	default:
	}
	return true
}

func (st *Stream[T]) finish(err error) {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return
	}
	st.closed = true
	st.err = err
	st.mu.Unlock()

	st.terminate()
}

func (st *Stream[T]) terminated() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.closed
}

func (st *Stream[T]) terminate() {
	st.once.Do(func() {
		close(st.done)
		if st.onTerminate != nil {
			st.onTerminate()
		}
	})
}

// Next returns the next value. It blocks until a value arrives, the stream
// terminates or ctx is done. After a normal end or Close it returns io.EOF;
// after a failure it returns the terminal error once buffered values are
// consumed.
func (st *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		st.mu.Lock()
		if len(st.buf) > 0 {
			v := st.buf[0]
			st.buf[0] = zero
			st.buf = st.buf[1:]
			st.mu.Unlock()
			return v, nil
		}
		if st.closed {
			err := st.err
			st.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return zero, err
		}
		st.mu.Unlock()

		select {
		case <-st.signal:
		case <-st.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Values iterates the stream until it ends, ctx is done or the loop breaks.
// The stream is closed when iteration stops. A terminal error is yielded as
// the final pair; a normal end is not.
func (st *Stream[T]) Values(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer st.Close()
		for {
			v, err := st.Next(ctx)
			if err == io.EOF {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Close cancels the subscription. Buffered values are discarded. Safe to call
// more than once and from any goroutine.
func (st *Stream[T]) Close() {
	st.mu.Lock()
	st.buf = nil
	if !st.closed {
		st.closed = true
	}
	st.mu.Unlock()

	st.terminate()
}

// Done is closed once the stream has terminated.
func (st *Stream[T]) Done() <-chan struct{} {
	return st.done
}

// Err returns the terminal error, or nil while running or after a normal end.
func (st *Stream[T]) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}
