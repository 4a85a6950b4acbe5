package correlator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/engine"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New(engine.WithConfinementCheck())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-e.Done()
	})
	return e
}

// on runs fn on the engine and waits for it.
func on(t *testing.T, e *engine.Engine, fn func()) {
	t.Helper()
	require.NoError(t, e.Do(context.Background(), fn))
}

// issued collects request IDs passed to issue callbacks.
type issued struct {
	ch chan command.RequestID
}

func newIssued() *issued {
	return &issued{ch: make(chan command.RequestID, 64)}
}

func (i *issued) record(id command.RequestID) {
	i.ch <- id
}

func (i *issued) next(t *testing.T) command.RequestID {
	t.Helper()
	select {
	case id := <-i.ch:
		return id
	case <-timeout():
		t.Fatal("timeout waiting for issued command")
		return 0
	}
}

func (i *issued) none(t *testing.T) {
	t.Helper()
	select {
	case id := <-i.ch:
		t.Fatalf("unexpected command with id %d", id)
	default:
	}
}
