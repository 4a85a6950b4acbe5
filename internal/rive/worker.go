package rive

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/engine"
)

// Worker owns a command queue and the task loop that drives it. All value
// objects created through a Worker share its loop.
type Worker struct {
	d       deps
	service *WorkerService
	cancel  context.CancelFunc

	closeOnce sync.Once

	// Executor-confined: globally registered assets are kept alive here.
	images map[string]*Image
	fonts  map[string]*Font
	audios map[string]*Audio
}

// WorkerOption configures a Worker.
type WorkerOption func(*workerConfig)

type workerConfig struct {
	logger      *slog.Logger
	engineOpts  []engine.Option
	confinement bool
}

// WithLogger sets the logger for the worker and its services.
// Default: slog.Default().
func WithLogger(l *slog.Logger) WorkerOption {
	return func(c *workerConfig) {
		c.logger = l
	}
}

// WithConfinementCheck enables ownership assertions on every correlation table
// mutation. Intended for tests.
func WithConfinementCheck() WorkerOption {
	return func(c *workerConfig) {
		c.confinement = true
	}
}

// NewWorker starts a task loop for queue and starts the queue.
func NewWorker(queue command.Queue, opts ...WorkerOption) *Worker {
	cfg := workerConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	engineOpts := []engine.Option{engine.WithLogger(cfg.logger)}
	if cfg.confinement {
		engineOpts = append(engineOpts, engine.WithConfinementCheck())
	}
	exec := engine.New(engineOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := exec.Run(ctx); err != nil && ctx.Err() == nil {
			cfg.logger.Error("worker loop failed", "error", err)
		}
	}()

	d := deps{exec: exec, queue: queue, logger: cfg.logger}
	w := &Worker{
		d:       d,
		service: newWorkerService(d),
		cancel:  cancel,
		images:  make(map[string]*Image),
		fonts:   make(map[string]*Font),
		audios:  make(map[string]*Audio),
	}
	w.service.start()
	return w
}

// Close stops the queue and waits for queued work to finish. Operations still
// waiting for replies fail with ErrCodeStopped.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		w.service.stop()
		w.d.exec.Stop()
		<-w.d.exec.Done()
		w.cancel()
	})
	return nil
}

// Sync waits until every command posted so far has been handed to the queue.
func (w *Worker) Sync(ctx context.Context) error {
	return w.d.do(ctx, func() {})
}

// DecodeImage decodes image bytes on the backend.
func (w *Worker) DecodeImage(ctx context.Context, data []byte) (*Image, error) {
	svc := newImageService(w.d)
	h, err := svc.Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	return newImage(h, svc), nil
}

// DecodeFont decodes font bytes on the backend.
func (w *Worker) DecodeFont(ctx context.Context, data []byte) (*Font, error) {
	svc := newFontService(w.d)
	h, err := svc.Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	return newFont(h, svc), nil
}

// DecodeAudio decodes audio bytes on the backend.
func (w *Worker) DecodeAudio(ctx context.Context, data []byte) (*Audio, error) {
	svc := newAudioService(w.d)
	h, err := svc.Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	return newAudio(h, svc), nil
}

// AddGlobalImageAsset makes img resolvable by name from any file. The worker
// keeps img alive until it is removed.
func (w *Worker) AddGlobalImageAsset(name string, img *Image) {
	w.service.AddImage(name, img.Handle())
	w.d.post(func() { w.images[name] = img })
}

// RemoveGlobalImageAsset unregisters a global image.
func (w *Worker) RemoveGlobalImageAsset(name string) {
	w.service.RemoveImage(name)
	w.d.post(func() { delete(w.images, name) })
}

// AddGlobalFontAsset makes font resolvable by name from any file.
func (w *Worker) AddGlobalFontAsset(name string, font *Font) {
	w.service.AddFont(name, font.Handle())
	w.d.post(func() { w.fonts[name] = font })
}

// RemoveGlobalFontAsset unregisters a global font.
func (w *Worker) RemoveGlobalFontAsset(name string) {
	w.service.RemoveFont(name)
	w.d.post(func() { delete(w.fonts, name) })
}

// AddGlobalAudioAsset makes audio resolvable by name from any file.
func (w *Worker) AddGlobalAudioAsset(name string, audio *Audio) {
	w.service.AddAudio(name, audio.Handle())
	w.d.post(func() { w.audios[name] = audio })
}

// RemoveGlobalAudioAsset unregisters a global audio clip.
func (w *Worker) RemoveGlobalAudioAsset(name string) {
	w.service.RemoveAudio(name)
	w.d.post(func() { delete(w.audios, name) })
}

// WorkerService issues queue lifecycle and global asset commands.
type WorkerService struct {
	d deps
}

func newWorkerService(d deps) *WorkerService {
	return &WorkerService{d: d}
}

func (s *WorkerService) start() {
	s.d.post(func() {
		s.d.logger.Info("worker starting")
		s.d.queue.Start()
	})
}

func (s *WorkerService) stop() {
	s.d.post(func() {
		s.d.logger.Info("worker stopping")
		s.d.queue.Stop()
	})
}

// AddImage registers a global image asset.
func (s *WorkerService) AddImage(name string, h command.ImageHandle) {
	s.d.send("AddGlobalImageAsset", func(id command.RequestID) {
		s.d.queue.AddGlobalImageAsset(name, h, id)
	})
}

// RemoveImage unregisters a global image asset.
func (s *WorkerService) RemoveImage(name string) {
	s.d.send("RemoveGlobalImageAsset", func(id command.RequestID) {
		s.d.queue.RemoveGlobalImageAsset(name, id)
	})
}

// AddFont registers a global font asset.
func (s *WorkerService) AddFont(name string, h command.FontHandle) {
	s.d.send("AddGlobalFontAsset", func(id command.RequestID) {
		s.d.queue.AddGlobalFontAsset(name, h, id)
	})
}

// RemoveFont unregisters a global font asset.
func (s *WorkerService) RemoveFont(name string) {
	s.d.send("RemoveGlobalFontAsset", func(id command.RequestID) {
		s.d.queue.RemoveGlobalFontAsset(name, id)
	})
}

// AddAudio registers a global audio asset.
func (s *WorkerService) AddAudio(name string, h command.AudioHandle) {
	s.d.send("AddGlobalAudioAsset", func(id command.RequestID) {
		s.d.queue.AddGlobalAudioAsset(name, h, id)
	})
}

// RemoveAudio unregisters a global audio asset.
func (s *WorkerService) RemoveAudio(name string) {
	s.d.send("RemoveGlobalAudioAsset", func(id command.RequestID) {
		s.d.queue.RemoveGlobalAudioAsset(name, id)
	})
}
