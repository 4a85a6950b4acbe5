package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/fileloader"
	"github.com/roach88/rivecq/internal/harness"
	"github.com/roach88/rivecq/internal/rive"
	"github.com/roach88/rivecq/internal/simulator"
	"github.com/roach88/rivecq/internal/store"
)

// env holds what the scene commands share: a logger, a scene loader with an
// optional download cache, and an optional journal.
type env struct {
	resume  string
	logger  *slog.Logger
	loader  *fileloader.Loader
	cache   *fileloader.Cache
	journal *store.Store
}

// newLogger writes to w. --verbose switches the level to Debug; otherwise only
// warnings and errors are shown.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newEnv opens the cache and journal named by the root flags.
func newEnv(opts *RootOptions, logW io.Writer) (*env, error) {
	if opts.Resume != "" && opts.Journal == "" {
		return nil, errResumeNeedsJournal
	}
	e := &env{logger: newLogger(opts, logW), resume: opts.Resume}

	loaderOpts := []fileloader.Option{fileloader.WithLogger(e.logger)}
	if opts.Cache != "" {
		c, err := fileloader.OpenCache(opts.Cache)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		e.cache = c
		loaderOpts = append(loaderOpts, fileloader.WithCache(c))
	}
	e.loader = fileloader.New(loaderOpts...)

	if opts.Journal != "" {
		st, err := store.Open(opts.Journal)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		e.journal = st
	}
	return e, nil
}

// Close releases the cache and journal.
func (e *env) Close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
	if e.journal != nil {
		_ = e.journal.Close()
	}
}

var errResumeNeedsJournal = errors.New("--resume requires --journal")

// session starts a journal session, or returns nil when journaling is off.
// With --resume the named session is reopened instead.
func (e *env) session(ctx context.Context, label string) (*store.Session, error) {
	if e.journal == nil {
		return nil, nil
	}
	if e.resume != "" {
		return e.journal.ResumeSession(ctx, e.resume)
	}
	return e.journal.NewSession(ctx, label)
}

// resumeIDs keeps the simulator's request IDs above those already journaled in
// a resumed session.
func (e *env) resumeIDs(ctx context.Context, sess *store.Session) ([]simulator.Option, error) {
	if e.resume == "" || sess == nil {
		return nil, nil
	}
	last, err := e.journal.LastRequestID(ctx, sess.ID())
	if err != nil {
		return nil, err
	}
	return []simulator.Option{simulator.WithRequestIDsAfter(command.RequestID(last))}, nil
}

// world is a worker connected to a fresh simulator with a scene open.
type world struct {
	worker  *rive.Worker
	backend *simulator.Backend
	file    *rive.File
	session *store.Session
}

// open starts a simulator, journaled when a journal is configured, and loads
// the scene at path.
func (e *env) open(ctx context.Context, path, label string) (*world, error) {
	src, err := harness.SceneSource(e.loader, path)
	if err != nil {
		return nil, err
	}

	sess, err := e.session(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	simOpts := []simulator.Option{simulator.WithLogger(e.logger)}
	if sess != nil {
		simOpts = append(simOpts, simulator.WithRecorder(sess))
	}
	resumed, err := e.resumeIDs(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	simOpts = append(simOpts, resumed...)

	b := simulator.New(simOpts...)
	w := rive.NewWorker(b, rive.WithLogger(e.logger))
	f, err := rive.OpenFile(ctx, w, src)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	return &world{worker: w, backend: b, file: f, session: sess}, nil
}

// sessionID returns the journal session, or "".
func (w *world) sessionID() string {
	if w.session == nil {
		return ""
	}
	return w.session.ID()
}

// Close releases the scene and waits for the simulator to stop, so every
// command is journaled before the process exits.
func (w *world) Close(ctx context.Context) error {
	w.file.Close()
	_ = w.worker.Sync(ctx)
	_ = w.backend.Sync(ctx)
	if err := w.worker.Close(); err != nil {
		return err
	}
	select {
	case <-w.backend.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startError reports an environment that could not be set up.
func startError(f *OutputFormatter, err error) error {
	if errors.Is(err, errResumeNeedsJournal) {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg, "invalid flags", err)
	}
	return f.Fail(ExitCommandError, ErrCodeJournal, "failed to start", err)
}

// sceneError reports a scene that failed to open. A missing file is a command
// error; anything else the scene itself is at fault for.
func sceneError(f *OutputFormatter, err error) error {
	if errors.Is(err, store.ErrSessionNotFound) {
		return f.Fail(ExitFailure, ErrCodeNoSession, "journal session not found", err)
	}
	if rive.HasCode(err, rive.ErrCodeMissingFile) || errors.Is(err, fs.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "scene not found", err)
	}
	return f.Fail(ExitFailure, ErrCodeSceneLoad, "failed to load scene", err)
}
