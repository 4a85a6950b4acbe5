package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/rivecq/internal/fileloader"
	"github.com/roach88/rivecq/internal/rive"
	"github.com/roach88/rivecq/internal/scene"
	"github.com/roach88/rivecq/internal/simulator"
	"github.com/roach88/rivecq/internal/store"
)

// DefaultCollectTimeout bounds how long a collect step waits for each value.
const DefaultCollectTimeout = 2 * time.Second

// Option configures Run.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	rec     simulator.Recorder
	loader  *fileloader.Loader
	timeout time.Duration
}

// WithLogger sets the logger for the client and the simulator. Default:
// discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithRecorder also journals the run to r, typically a *store.Session.
func WithRecorder(r simulator.Recorder) Option {
	return func(c *config) {
		c.rec = r
	}
}

// WithLoader sets the loader used for YAML scenes.
func WithLoader(l *fileloader.Loader) Option {
	return func(c *config) {
		c.loader = l
	}
}

// WithCollectTimeout overrides DefaultCollectTimeout.
func WithCollectTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Run executes a scenario against a fresh simulator and returns the result.
//
// Step failures are reported in the result. An error is returned only when
// the scenario cannot run at all: the scene does not load or the instance
// cannot be created.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	cfg := config{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: DefaultCollectTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.loader == nil {
		cfg.loader = fileloader.New(fileloader.WithLogger(cfg.logger))
	}

	src, err := SceneSource(cfg.loader, sc.Scene)
	if err != nil {
		return nil, err
	}

	journal := &simulator.Journal{}
	var rec simulator.Recorder = journal
	if cfg.rec != nil {
		rec = tee{journal, cfg.rec}
	}
	backend := simulator.New(simulator.WithLogger(cfg.logger), simulator.WithRecorder(rec))
	worker := rive.NewWorker(backend, rive.WithLogger(cfg.logger))

	r := &runner{
		ctx:     ctx,
		cfg:     cfg,
		worker:  worker,
		backend: backend,
		watches: make(map[string]watcher),
		result:  NewResult(),
	}
	defer r.shutdown()

	if err := r.setup(src, sc.Instance); err != nil {
		return nil, err
	}

	for i, step := range sc.Steps {
		op, path := step.Op()
		if err := r.step(step); err != nil {
			r.result.AddError(fmt.Sprintf("step %d (%s %s): %v", i, op, path, err))
		}
		if err := r.settle(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	if err := r.teardown(); err != nil {
		return nil, err
	}

	r.result.Trace = journal.Entries()
	for _, msg := range EvaluateAssertions(r.result.Trace, sc.Assertions) {
		r.result.AddError(msg)
	}

	cfg.logger.Info("scenario finished",
		"scenario", sc.Name,
		"pass", r.result.Pass,
		"entries", len(r.result.Trace),
	)
	return r.result, nil
}

// SceneSource returns a source for a scene argument. http and https URLs and
// YAML paths go through the loader. CUE scenes are compiled and re-encoded as
// YAML first.
func SceneSource(l *fileloader.Loader, path string) (rive.Source, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return l.Bind(fileloader.URL(path)), nil
	}
	if filepath.Ext(path) != ".cue" {
		return l.Bind(fileloader.LocalFile(path)), nil
	}
	doc, err := scene.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	data, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return rive.Data(data), nil
}

// CreateInstance creates the instance spec selects. When spec names an
// artboard, the artboard is returned too and the caller closes both.
func CreateInstance(ctx context.Context, f *rive.File, spec InstanceSpec) (*rive.ViewModelInstance, *rive.Artboard, error) {
	from := rive.ViewModelNamed(spec.ViewModel)
	var artboard *rive.Artboard
	if spec.Artboard != "" {
		a, err := f.CreateArtboard(ctx, spec.Artboard)
		if err != nil {
			return nil, nil, fmt.Errorf("create artboard: %w", err)
		}
		artboard = a
		from = rive.ArtboardDefault(a)
	}

	var src rive.InstanceSource
	switch {
	case spec.Blank:
		src = rive.Blank(from)
	case spec.Name != "":
		src = rive.Named(spec.Name, from)
	default:
		src = rive.Default(from)
	}
	vmi, err := f.CreateViewModelInstance(ctx, src)
	if err != nil {
		if artboard != nil {
			artboard.Close()
		}
		return nil, nil, fmt.Errorf("create instance: %w", err)
	}
	return vmi, artboard, nil
}

type runner struct {
	ctx     context.Context
	cfg     config
	worker  *rive.Worker
	backend *simulator.Backend

	file     *rive.File
	artboard *rive.Artboard
	vmi      *rive.ViewModelInstance
	items    []*rive.ViewModelInstance
	watches  map[string]watcher
	order    []string
	closed   bool

	result *Result
}

func (r *runner) setup(src rive.Source, spec InstanceSpec) error {
	f, err := rive.OpenFile(r.ctx, r.worker, src)
	if err != nil {
		return fmt.Errorf("open scene: %w", err)
	}
	r.file = f

	vmi, artboard, err := CreateInstance(r.ctx, f, spec)
	if err != nil {
		return err
	}
	r.vmi, r.artboard = vmi, artboard
	return r.settle()
}

func (r *runner) step(s Step) error {
	op, path := s.Op()
	switch op {
	case "set":
		k, err := kindOf(s.Type)
		if err != nil {
			return err
		}
		v, err := k.parse(s.Value)
		if err != nil {
			return err
		}
		k.set(r.vmi, path, v)
		return nil

	case "get":
		k, err := kindOf(s.Type)
		if err != nil {
			return err
		}
		got, err := k.get(r.ctx, r.vmi, path)
		if s.Error != "" {
			return expectCode(err, s.Error)
		}
		if err != nil {
			return err
		}
		want, err := k.parse(s.Expect)
		if err != nil {
			return fmt.Errorf("expect: %w", err)
		}
		if got != want {
			return fmt.Errorf("got %v, want %v", got, want)
		}
		return nil

	case "fire":
		r.vmi.Fire(rive.TriggerProperty{Path: path})
		return nil

	case "watch":
		k, err := kindOf(s.Type)
		if err != nil {
			return err
		}
		name := s.As
		if name == "" {
			name = path
		}
		r.watches[name] = k.watch(r.vmi, path)
		r.order = append(r.order, name)
		return nil

	case "collect":
		return r.collect(s, path)

	case "append":
		item, err := r.newItem(s.Item)
		if err != nil {
			return err
		}
		r.vmi.Append(rive.ListProperty{Path: path}, item)
		return nil

	case "size":
		n, err := r.vmi.Size(r.ctx, rive.ListProperty{Path: path})
		if err != nil {
			return err
		}
		want, ok := s.Expect.(int)
		if !ok {
			return fmt.Errorf("expect: %v is not an integer", s.Expect)
		}
		if n != want {
			return fmt.Errorf("size %d, want %d", n, want)
		}
		return nil
	}
	return fmt.Errorf("unknown operation")
}

// collect reads values from a watch. The watch's kind is not recorded, so
// expected values are compared by their printed form.
func (r *runner) collect(s Step, name string) error {
	w := r.watches[name]
	expect, _ := s.Expect.([]any)
	count := s.Count
	if count == 0 {
		count = len(expect)
	}

	for i := 0; i < count; i++ {
		v, err := r.next(w)
		if err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}
		if i < len(expect) && !sameValue(v, expect[i]) {
			return fmt.Errorf("value %d: got %v, want %v", i, v, expect[i])
		}
	}

	if s.Error != "" {
		_, err := r.next(w)
		return expectCode(err, s.Error)
	}
	return nil
}

func (r *runner) next(w watcher) (any, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.cfg.timeout)
	defer cancel()
	return w.next(ctx)
}

func (r *runner) newItem(spec *Item) (*rive.ViewModelInstance, error) {
	from := rive.ViewModelNamed(spec.ViewModel)
	src := rive.Blank(from)
	if spec.Instance != "" {
		src = rive.Named(spec.Instance, from)
	}
	item, err := r.file.CreateViewModelInstance(r.ctx, src)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	r.items = append(r.items, item)
	return item, writeValues(item, spec.Values)
}

// settle waits for both loops to drain, twice. Replies processed in the first
// round may issue follow-up commands; the second round lands them.
func (r *runner) settle() error {
	for range 2 {
		if err := r.worker.Sync(r.ctx); err != nil {
			return fmt.Errorf("sync client: %w", err)
		}
		if err := r.backend.Sync(r.ctx); err != nil {
			return fmt.Errorf("sync simulator: %w", err)
		}
	}
	return nil
}

// teardown closes everything in a fixed order so traces are stable: watches
// in the order they were opened, list items, the instance, the artboard, the
// file. Then the worker stops the simulator.
func (r *runner) teardown() error {
	for _, name := range r.order {
		r.watches[name].close()
	}
	if err := r.settle(); err != nil {
		return err
	}
	for _, item := range r.items {
		item.Close()
	}
	if r.vmi != nil {
		r.vmi.Close()
	}
	if r.artboard != nil {
		r.artboard.Close()
	}
	if r.file != nil {
		r.file.Close()
	}
	if err := r.settle(); err != nil {
		return err
	}
	r.closed = true
	if err := r.worker.Close(); err != nil {
		return fmt.Errorf("close worker: %w", err)
	}
	select {
	case <-r.backend.Done():
		return nil
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// shutdown stops the worker when Run returns early.
func (r *runner) shutdown() {
	if !r.closed {
		_ = r.worker.Close()
	}
}

// expectCode checks that err carries the named error code.
func expectCode(err error, code string) error {
	if err == nil {
		return fmt.Errorf("no error, want %s", code)
	}
	if code == "EOF" && errors.Is(err, io.EOF) {
		return nil
	}
	if !rive.HasCode(err, rive.ErrorCode(code)) {
		return fmt.Errorf("error %v, want %s", err, code)
	}
	return nil
}

// sameValue compares a collected value with a YAML value. Numbers compare
// numerically, colors through their #AARRGGBB form.
func sameValue(got, want any) bool {
	switch g := got.(type) {
	case float32:
		w, ok := scene.Number(want)
		return ok && g == w
	case rive.Color:
		w, ok := asColor(want)
		return ok && g == w
	case struct{}:
		return want == nil
	}
	return got == want
}

// tee journals to the in-memory journal and a second recorder. The journal's
// seq is authoritative for the result.
type tee struct {
	journal *simulator.Journal
	rec     simulator.Recorder
}

func (t tee) Record(ctx context.Context, e store.Entry) (store.Entry, error) {
	out, err := t.journal.Record(ctx, e)
	if err != nil {
		return out, err
	}
	if _, err := t.rec.Record(ctx, e); err != nil {
		return out, err
	}
	return out, nil
}
