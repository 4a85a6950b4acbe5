package rive

import (
	"context"
	"time"

	"github.com/roach88/rivecq/internal/command"
)

// StateMachineService creates and drives state machines. The backend never
// replies to these commands.
type StateMachineService struct {
	d deps
}

func newStateMachineService(d deps) *StateMachineService {
	return &StateMachineService{d: d}
}

// Create creates the named state machine, or the default one when name is empty.
func (s *StateMachineService) Create(ctx context.Context, artboard command.ArtboardHandle, name string) (command.StateMachineHandle, error) {
	return claim(ctx, s.d, func() command.StateMachineHandle {
		if name == "" {
			return s.d.queue.CreateDefaultStateMachine(artboard, s.d.nextID("CreateDefaultStateMachine"))
		}
		return s.d.queue.CreateStateMachineNamed(name, artboard, s.d.nextID("CreateStateMachineNamed"))
	}, s.Delete)
}

// Advance steps a state machine forward.
func (s *StateMachineService) Advance(sm command.StateMachineHandle, elapsed time.Duration) {
	s.d.send("AdvanceStateMachine", func(id command.RequestID) {
		s.d.queue.AdvanceStateMachine(sm, elapsed, id)
	})
}

// Bind binds a view model instance to a state machine.
func (s *StateMachineService) Bind(sm command.StateMachineHandle, instance command.ViewModelInstanceHandle) {
	s.d.send("BindViewModelInstance", func(id command.RequestID) {
		s.d.queue.BindViewModelInstance(sm, instance, id)
	})
}

// Delete releases a state machine.
func (s *StateMachineService) Delete(sm command.StateMachineHandle) {
	s.d.send("DeleteStateMachine", func(id command.RequestID) {
		s.d.queue.DeleteStateMachine(sm, id)
	})
}

// StateMachine is a state machine instantiated from an artboard.
type StateMachine struct {
	handle command.StateMachineHandle
	svc    *StateMachineService
	life   lifecycle
}

func createStateMachine(ctx context.Context, d deps, artboard command.ArtboardHandle, name string) (*StateMachine, error) {
	svc := newStateMachineService(d)
	h, err := svc.Create(ctx, artboard, name)
	if err != nil {
		return nil, err
	}
	sm := &StateMachine{handle: h, svc: svc}
	arm(sm, &sm.life, func() { svc.Delete(h) })
	return sm, nil
}

// Handle returns the backend handle.
func (sm *StateMachine) Handle() command.StateMachineHandle { return sm.handle }

// Equal reports whether both state machines name the same backend object.
func (sm *StateMachine) Equal(o *StateMachine) bool { return o != nil && sm.handle == o.handle }

// Close releases the state machine.
func (sm *StateMachine) Close() {
	sm.life.close(func() { sm.svc.Delete(sm.handle) })
}

// Advance steps the state machine forward by elapsed.
func (sm *StateMachine) Advance(elapsed time.Duration) {
	sm.svc.Advance(sm.handle, elapsed)
}

// BindViewModelInstance binds vmi's data to the state machine.
func (sm *StateMachine) BindViewModelInstance(vmi *ViewModelInstance) {
	sm.svc.Bind(sm.handle, vmi.handle)
}
