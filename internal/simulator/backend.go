package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/engine"
	"github.com/roach88/rivecq/internal/store"
)

// Recorder receives journal entries. *store.Session implements it.
type Recorder interface {
	Record(ctx context.Context, e store.Entry) (store.Entry, error)
}

// Backend is the reference backend. It implements command.Queue.
type Backend struct {
	ids     *command.RequestIDs
	handles atomic.Uint64
	exec    *engine.Engine
	logger  *slog.Logger
	rec     Recorder

	// Loop-confined state.
	started       bool
	files         map[command.FileHandle]*file
	artboards     map[command.ArtboardHandle]*artboard
	stateMachines map[command.StateMachineHandle]*stateMachine
	instances     map[command.ViewModelInstanceHandle]*instance
	subs          map[command.RequestID]*subscription
	images        map[command.ImageHandle]*asset[command.ImageListener]
	fonts         map[command.FontHandle]*asset[command.FontListener]
	audios        map[command.AudioHandle]*asset[command.AudioListener]
	globals       map[string]uint64
}

var _ command.Queue = (*Backend)(nil)

// Option configures a Backend.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	rec         Recorder
	confinement bool
	firstID     command.RequestID
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithRecorder journals every command and reply to r.
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		c.rec = r
	}
}

// WithRequestIDsAfter makes the first issued request ID last+1, so a resumed
// journal session keeps request IDs unique.
func WithRequestIDsAfter(last command.RequestID) Option {
	return func(c *config) {
		c.firstID = last
	}
}

// WithConfinementCheck asserts that backend state is only touched from the
// backend loop. Intended for tests.
func WithConfinementCheck() Option {
	return func(c *config) {
		c.confinement = true
	}
}

// New creates a backend and starts its loop. Stop ends the loop.
func New(opts ...Option) *Backend {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	engineOpts := []engine.Option{engine.WithLogger(cfg.logger)}
	if cfg.confinement {
		engineOpts = append(engineOpts, engine.WithConfinementCheck())
	}

	b := &Backend{
		ids:           command.NewRequestIDsAt(cfg.firstID),
		exec:          engine.New(engineOpts...),
		logger:        cfg.logger,
		rec:           cfg.rec,
		files:         make(map[command.FileHandle]*file),
		artboards:     make(map[command.ArtboardHandle]*artboard),
		stateMachines: make(map[command.StateMachineHandle]*stateMachine),
		instances:     make(map[command.ViewModelInstanceHandle]*instance),
		subs:          make(map[command.RequestID]*subscription),
		images:        make(map[command.ImageHandle]*asset[command.ImageListener]),
		fonts:         make(map[command.FontHandle]*asset[command.FontListener]),
		audios:        make(map[command.AudioHandle]*asset[command.AudioListener]),
		globals:       make(map[string]uint64),
	}
	go func() {
		if err := b.exec.Run(context.Background()); err != nil {
			b.logger.Error("backend loop failed", "error", err)
		}
	}()
	return b
}

// NextRequestID implements command.IDSource.
func (b *Backend) NextRequestID() command.RequestID {
	return b.ids.Next()
}

// Start marks the backend started.
func (b *Backend) Start() {
	b.apply(store.Entry{Name: "Start"}, func() {
		b.started = true
		b.logger.Info("backend started")
	})
}

// Stop applies everything queued so far, then ends the loop. Commands issued
// after Stop are dropped.
func (b *Backend) Stop() {
	b.apply(store.Entry{Name: "Stop"}, func() {
		b.started = false
		b.logger.Info("backend stopped", "last_request_id", uint64(b.ids.Current()))
	})
	b.exec.Stop()
}

// Done is closed once the loop has ended.
func (b *Backend) Done() <-chan struct{} {
	return b.exec.Done()
}

// Sync waits until every command issued so far has been applied.
func (b *Backend) Sync(ctx context.Context) error {
	return b.exec.Do(ctx, func() {})
}

// nextHandle allocates a handle. Handles are unique across object kinds.
func (b *Backend) nextHandle() uint64 {
	return b.handles.Add(1)
}

// apply journals a command and runs fn on the loop.
func (b *Backend) apply(e store.Entry, fn func()) {
	e.Kind = store.KindCommand
	if !b.exec.Post(func() {
		b.exec.AssertOwned()
		b.record(e)
		fn()
	}) {
		b.logger.Debug("command dropped: backend stopped", "command", e.Name)
	}
}

// reply journals a reply. Must run on the loop, right before delivery.
func (b *Backend) reply(e store.Entry) {
	e.Kind = store.KindReply
	b.record(e)
}

func (b *Backend) record(e store.Entry) {
	if b.rec == nil {
		return
	}
	if _, err := b.rec.Record(context.Background(), e); err != nil {
		b.logger.Warn("journal write failed", "entry", e.Name, "error", err)
	}
}

// Journal is an in-memory Recorder.
type Journal struct {
	mu      sync.Mutex
	entries []store.Entry
}

// Record appends e, stamped with the next seq.
func (j *Journal) Record(_ context.Context, e store.Entry) (store.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e.Seq = int64(len(j.entries) + 1)
	j.entries = append(j.entries, e)
	return e, nil
}

// Entries returns a copy of everything recorded so far.
func (j *Journal) Entries() []store.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]store.Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// FormatEntry renders an entry on one line, the way traces print it.
func FormatEntry(e store.Entry) string {
	arrow := "->"
	if e.Kind == store.KindReply {
		arrow = "<-"
	}
	s := fmt.Sprintf("%04d %s %s", e.Seq, arrow, e.Name)
	if e.RequestID != 0 {
		s += fmt.Sprintf(" id=%d", e.RequestID)
	}
	if e.Handle != 0 {
		s += fmt.Sprintf(" h=%d", e.Handle)
	}
	if e.Path != "" {
		s += " path=" + e.Path
	}
	if e.Detail != "" {
		s += " " + e.Detail
	}
	return s
}
