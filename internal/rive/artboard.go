package rive

import (
	"context"
	"slices"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/correlator"
)

// DefaultViewModelInfo names the view model and instance an artboard binds by
// default.
type DefaultViewModelInfo struct {
	ViewModel string
	Instance  string
}

// ArtboardService creates and queries artboards. It is the
// command.ArtboardListener for every artboard it creates.
type ArtboardService struct {
	d             deps
	continuations *correlator.Continuations
}

func newArtboardService(d deps) *ArtboardService {
	return &ArtboardService{d: d, continuations: d.continuations()}
}

// Create creates the named artboard, or the default one when name is empty.
func (s *ArtboardService) Create(ctx context.Context, file command.FileHandle, name string) (command.ArtboardHandle, error) {
	return claim(ctx, s.d, func() command.ArtboardHandle {
		if name == "" {
			return s.d.queue.CreateDefaultArtboard(file, s, s.d.nextID("CreateDefaultArtboard"))
		}
		return s.d.queue.CreateArtboardNamed(name, file, s, s.d.nextID("CreateArtboardNamed"))
	}, s.Delete)
}

// StateMachineNames lists the state machines of an artboard.
func (s *ArtboardService) StateMachineNames(ctx context.Context, artboard command.ArtboardHandle) ([]string, error) {
	return await[[]string](ctx, s.d, s.continuations, "RequestStateMachineNames", func(id command.RequestID) {
		s.d.queue.RequestStateMachineNames(artboard, id)
	})
}

// DefaultViewModelInfo asks which view model and instance an artboard binds by
// default.
func (s *ArtboardService) DefaultViewModelInfo(ctx context.Context, artboard command.ArtboardHandle, file command.FileHandle) (DefaultViewModelInfo, error) {
	return await[DefaultViewModelInfo](ctx, s.d, s.continuations, "RequestDefaultViewModelInfo", func(id command.RequestID) {
		s.d.queue.RequestDefaultViewModelInfo(artboard, file, id)
	})
}

// SetSize resizes an artboard.
func (s *ArtboardService) SetSize(artboard command.ArtboardHandle, width, height, scale float32) {
	s.d.send("SetArtboardSize", func(id command.RequestID) {
		s.d.queue.SetArtboardSize(artboard, width, height, scale, id)
	})
}

// ResetSize restores an artboard's authored size.
func (s *ArtboardService) ResetSize(artboard command.ArtboardHandle) {
	s.d.send("ResetArtboardSize", func(id command.RequestID) {
		s.d.queue.ResetArtboardSize(artboard, id)
	})
}

// Delete releases an artboard and, once the backend confirms, its listener.
func (s *ArtboardService) Delete(artboard command.ArtboardHandle) {
	s.d.post(func() {
		id := s.d.nextID("DeleteArtboard")
		s.continuations.Register(id, correlator.Callback(func(deleted command.ArtboardHandle, err error) {
			if err != nil {
				s.d.logger.Debug("artboard delete failed", "artboard", uint64(artboard), "error", err)
				return
			}
			s.d.queue.DeleteArtboardListener(deleted)
		}))
		s.d.queue.DeleteArtboard(artboard, id)
	})
}

func (s *ArtboardService) OnStateMachineNamesListed(_ command.ArtboardHandle, id command.RequestID, names []string) {
	s.d.resolve(s.continuations, id, names, nil)
}

func (s *ArtboardService) OnDefaultViewModelInfoReceived(_ command.ArtboardHandle, id command.RequestID, viewModel, instance string) {
	s.d.resolve(s.continuations, id, DefaultViewModelInfo{ViewModel: viewModel, Instance: instance}, nil)
}

func (s *ArtboardService) OnArtboardError(_ command.ArtboardHandle, id command.RequestID, message string) {
	s.d.resolve(s.continuations, id, nil, errBackend(ErrCodeArtboard, message))
}

func (s *ArtboardService) OnArtboardDeleted(artboard command.ArtboardHandle, id command.RequestID) {
	s.d.resolve(s.continuations, id, artboard, nil)
}

// Artboard is an artboard instantiated from a file.
type Artboard struct {
	handle command.ArtboardHandle
	svc    *ArtboardService
	life   lifecycle
}

func createArtboard(ctx context.Context, d deps, file command.FileHandle, name string) (*Artboard, error) {
	svc := newArtboardService(d)
	h, err := svc.Create(ctx, file, name)
	if err != nil {
		return nil, err
	}
	a := &Artboard{handle: h, svc: svc}
	arm(a, &a.life, func() { svc.Delete(h) })
	return a, nil
}

// Handle returns the backend handle.
func (a *Artboard) Handle() command.ArtboardHandle { return a.handle }

// Equal reports whether both artboards name the same backend object.
func (a *Artboard) Equal(o *Artboard) bool { return o != nil && a.handle == o.handle }

// Close releases the artboard.
func (a *Artboard) Close() {
	a.life.close(func() { a.svc.Delete(a.handle) })
}

// StateMachineNames lists the artboard's state machines.
func (a *Artboard) StateMachineNames(ctx context.Context) ([]string, error) {
	return a.svc.StateMachineNames(ctx, a.handle)
}

// CreateStateMachine creates the named state machine, or the default one when
// name is empty. A name is checked against StateMachineNames first.
func (a *Artboard) CreateStateMachine(ctx context.Context, name string) (*StateMachine, error) {
	if name != "" {
		names, err := a.StateMachineNames(ctx)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(names, name) {
			return nil, errInvalid(ErrCodeInvalidStateMachine, "state machine", name)
		}
	}
	return createStateMachine(ctx, a.svc.d, a.handle, name)
}

// SetSize resizes the artboard.
func (a *Artboard) SetSize(width, height, scale float32) {
	a.svc.SetSize(a.handle, width, height, scale)
}

// ResetSize restores the artboard's authored size.
func (a *Artboard) ResetSize() {
	a.svc.ResetSize(a.handle)
}
