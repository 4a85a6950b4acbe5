// Package testutil wires a client worker to the simulator for tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rivecq/internal/rive"
	"github.com/roach88/rivecq/internal/simulator"
)

// World is a worker talking to a journaled simulator.
type World struct {
	Worker  *rive.Worker
	Backend *simulator.Backend
	Journal *simulator.Journal
}

// NewWorld starts a simulator and a worker. Both are stopped when the test
// ends.
func NewWorld(t *testing.T) *World {
	t.Helper()
	logger := DiscardLogger()
	j := &simulator.Journal{}
	b := simulator.New(
		simulator.WithRecorder(j),
		simulator.WithLogger(logger),
		simulator.WithConfinementCheck(),
	)
	w := rive.NewWorker(b, rive.WithLogger(logger), rive.WithConfinementCheck())
	t.Cleanup(func() { _ = w.Close() })
	return &World{Worker: w, Backend: b, Journal: j}
}

// Open loads a scene from testdata/scenes.
func (w *World) Open(t *testing.T, scene string) *rive.File {
	t.Helper()
	f, err := rive.OpenFile(Context(t), w.Worker, rive.Data(LoadScene(t, scene)))
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

// Sync waits until the simulator has applied every command the worker has
// issued so far.
func (w *World) Sync(t *testing.T) {
	t.Helper()
	ctx := Context(t)
	require.NoError(t, w.Worker.Sync(ctx))
	require.NoError(t, w.Backend.Sync(ctx))
}

// Context returns a context that expires well before the test timeout.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// DiscardLogger drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestdataDir returns the repository's testdata directory.
func TestdataDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "testdata")
}

// ScenePath returns the path of a scene under testdata/scenes.
func ScenePath(name string) string {
	return filepath.Join(TestdataDir(), "scenes", name)
}

// LoadScene reads a scene file.
func LoadScene(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(ScenePath(name))
	require.NoError(t, err)
	return data
}
