package rive

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/correlator"
	"github.com/roach88/rivecq/internal/engine"
)

// Stream is a typed subscription to a property.
type Stream[T any] = correlator.Stream[T]

// deps is what every service needs: the owning loop, the queue and a logger.
type deps struct {
	exec   *engine.Engine
	queue  command.Queue
	logger *slog.Logger
}

func (d deps) continuations() *correlator.Continuations {
	return correlator.NewContinuations(d.exec, correlator.WithMismatch(valueMismatch))
}

func (d deps) streams() *correlator.Streams {
	return correlator.NewStreams(d.exec,
		correlator.WithMismatch(valueMismatch),
		correlator.WithStopped(wrapStopped(correlator.ErrStopped)),
	)
}

// post runs fn on the owning loop. Work posted after shutdown is dropped.
func (d deps) post(fn func()) {
	if !d.exec.Post(fn) {
		d.logger.Debug("task dropped: worker stopped")
	}
}

// do runs fn on the owning loop and waits for it.
func (d deps) do(ctx context.Context, fn func()) error {
	return wrapStopped(d.exec.Do(ctx, fn))
}

// nextID takes a request ID. Executor only.
func (d deps) nextID(name string) command.RequestID {
	id := d.queue.NextRequestID()
	d.logger.Debug("command issued", "command", name, "request_id", uint64(id))
	return id
}

// send issues a fire-and-forget command with a fresh request ID.
func (d deps) send(name string, issue func(id command.RequestID)) {
	d.post(func() {
		issue(d.nextID(name))
	})
}

// resolve completes a continuation from a listener callback.
func (d deps) resolve(table *correlator.Continuations, id command.RequestID, value any, err error) {
	err = errWrapped("backend failed", err)
	d.post(func() {
		if !table.Resolve(id, value, err) {
			d.logger.Debug("reply dropped", "request_id", uint64(id))
		}
	})
}

// claim runs create on the loop and hands its result to the caller. If the
// caller gives up first, release runs on the loop instead, so a handle issued
// for a cancelled call is deleted rather than leaked.
func claim[T any](ctx context.Context, d deps, create func() T, release func(T)) (T, error) {
	var (
		mu        sync.Mutex
		out       T
		created   bool
		abandoned bool
	)
	err := d.do(ctx, func() {
		v := create()
		mu.Lock()
		defer mu.Unlock()
		if abandoned {
			d.logger.Debug("releasing handle of a cancelled call")
			release(v)
			return
		}
		out, created = v, true
	})
	if err == nil {
		return out, nil
	}

	mu.Lock()
	defer mu.Unlock()
	if created {
		return out, nil
	}
	abandoned = true
	var zero T
	return zero, err
}

// await runs the read template on the owning loop and waits for the reply.
func await[T any](ctx context.Context, d deps, table *correlator.Continuations, name string, issue func(id command.RequestID)) (T, error) {
	v, err := correlator.Await[T](ctx, table, idSource{d, name}, issue)
	return v, wrapStopped(err)
}

// idSource adapts nextID to command.IDSource.
type idSource struct {
	d    deps
	name string
}

func (s idSource) NextRequestID() command.RequestID {
	return s.d.nextID(s.name)
}

// lifecycle runs a teardown exactly once, either from Close or from a runtime
// cleanup when the owner is collected first.
type lifecycle struct {
	once    sync.Once
	cleanup runtime.Cleanup
}

// arm registers the collection fallback. teardown must not reference owner.
func arm[T any](owner *T, l *lifecycle, teardown func()) {
	l.cleanup = runtime.AddCleanup(owner, func(fn func()) { fn() }, teardown)
}

// close runs teardown unless it already ran. Returns whether it ran now.
func (l *lifecycle) close(teardown func()) bool {
	ran := false
	l.once.Do(func() {
		l.cleanup.Stop()
		teardown()
		ran = true
	})
	return ran
}
