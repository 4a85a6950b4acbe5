package rive

import (
	"context"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/correlator"
)

// ViewModelInstanceService reads, writes and observes the properties of view
// model instances. It is the command.ViewModelInstanceListener for every
// handle it creates or references.
//
// Each nested or list element instance gets its own service, so its tables
// live and die with it.
type ViewModelInstanceService struct {
	d             deps
	continuations *correlator.Continuations
	streams       *correlator.Streams
}

func newViewModelInstanceService(d deps) *ViewModelInstanceService {
	return &ViewModelInstanceService{
		d:             d,
		continuations: d.continuations(),
		streams:       d.streams(),
	}
}

// create runs a synchronous-handle creation command on the loop.
func (s *ViewModelInstanceService) create(ctx context.Context, name string, issue func(id command.RequestID) command.ViewModelInstanceHandle) (command.ViewModelInstanceHandle, error) {
	return claim(ctx, s.d, func() command.ViewModelInstanceHandle {
		return issue(s.d.nextID(name))
	}, s.deleteNow)
}

// Create creates an instance of file according to src.
func (s *ViewModelInstanceService) Create(ctx context.Context, file command.FileHandle, src InstanceSource) (command.ViewModelInstanceHandle, error) {
	q := s.d.queue
	ab := src.from.artboard
	vm := src.from.viewModel

	switch {
	case src.kind == instanceBlank && ab != nil:
		return s.create(ctx, "CreateBlankViewModelInstance", func(id command.RequestID) command.ViewModelInstanceHandle {
			return q.CreateBlankViewModelInstance(ab.handle, file, s, id)
		})
	case src.kind == instanceBlank:
		return s.create(ctx, "CreateBlankViewModelInstanceNamed", func(id command.RequestID) command.ViewModelInstanceHandle {
			return q.CreateBlankViewModelInstanceNamed(vm, file, s, id)
		})
	case src.kind == instanceDefault && ab != nil:
		return s.create(ctx, "CreateDefaultViewModelInstance", func(id command.RequestID) command.ViewModelInstanceHandle {
			return q.CreateDefaultViewModelInstance(ab.handle, file, s, id)
		})
	case src.kind == instanceDefault:
		return s.create(ctx, "CreateDefaultViewModelInstanceNamed", func(id command.RequestID) command.ViewModelInstanceHandle {
			return q.CreateDefaultViewModelInstanceNamed(vm, file, s, id)
		})
	case ab != nil:
		return s.create(ctx, "CreateViewModelInstanceNamedForArtboard", func(id command.RequestID) command.ViewModelInstanceHandle {
			return q.CreateViewModelInstanceNamedForArtboard(src.instance, ab.handle, file, s, id)
		})
	default:
		return s.create(ctx, "CreateViewModelInstanceNamed", func(id command.RequestID) command.ViewModelInstanceHandle {
			return q.CreateViewModelInstanceNamed(src.instance, vm, file, s, id)
		})
	}
}

// Name asks for the instance's name.
func (s *ViewModelInstanceService) Name(ctx context.Context, instance command.ViewModelInstanceHandle) (string, error) {
	return await[string](ctx, s.d, s.continuations, "RequestViewModelInstanceName", func(id command.RequestID) {
		s.d.queue.RequestViewModelInstanceName(instance, id)
	})
}

// requestFor returns the read command for a property kind.
func (s *ViewModelInstanceService) requestFor(kind command.DataType) (string, func(command.ViewModelInstanceHandle, string, command.RequestID), bool) {
	q := s.d.queue
	switch kind {
	case command.DataTypeString:
		return "RequestViewModelInstanceString", q.RequestViewModelInstanceString, true
	case command.DataTypeNumber:
		return "RequestViewModelInstanceNumber", q.RequestViewModelInstanceNumber, true
	case command.DataTypeBoolean:
		return "RequestViewModelInstanceBool", q.RequestViewModelInstanceBool, true
	case command.DataTypeColor:
		return "RequestViewModelInstanceColor", q.RequestViewModelInstanceColor, true
	case command.DataTypeEnum:
		return "RequestViewModelInstanceEnum", q.RequestViewModelInstanceEnum, true
	}
	return "", nil, false
}

// subscribe starts a stream of values for path. The stream's unsubscribe
// reuses the subscribe request ID.
func subscribe[T any](s *ViewModelInstanceService, instance command.ViewModelInstanceHandle, path string, kind command.DataType) *Stream[T] {
	return correlator.Subscribe[T](s.streams, idSource{s.d, "Subscribe"},
		func(id command.RequestID) {
			s.d.queue.Subscribe(instance, path, kind, id)
		},
		func(id command.RequestID) {
			s.d.logger.Debug("command issued", "command", "Unsubscribe", "request_id", uint64(id))
			s.d.queue.Unsubscribe(instance, path, kind, id)
		},
	)
}

// Fire fires a trigger.
func (s *ViewModelInstanceService) Fire(instance command.ViewModelInstanceHandle, path string) {
	s.d.send("FireViewModelTrigger", func(id command.RequestID) {
		s.d.queue.FireViewModelTrigger(instance, path, id)
	})
}

// SetImage assigns a decoded image.
func (s *ViewModelInstanceService) SetImage(instance command.ViewModelInstanceHandle, path string, image command.ImageHandle) {
	s.d.send("SetViewModelInstanceImage", func(id command.RequestID) {
		s.d.queue.SetViewModelInstanceImage(instance, path, image, id)
	})
}

// SetArtboard assigns an artboard.
func (s *ViewModelInstanceService) SetArtboard(instance command.ViewModelInstanceHandle, path string, artboard command.ArtboardHandle) {
	s.d.send("SetViewModelInstanceArtboard", func(id command.RequestID) {
		s.d.queue.SetViewModelInstanceArtboard(instance, path, artboard, id)
	})
}

// SetNested assigns a nested instance.
func (s *ViewModelInstanceService) SetNested(instance command.ViewModelInstanceHandle, path string, value command.ViewModelInstanceHandle) {
	s.d.send("SetViewModelInstanceNestedViewModel", func(id command.RequestID) {
		s.d.queue.SetViewModelInstanceNestedViewModel(instance, path, value, id)
	})
}

// ListSize asks for the length of a list.
func (s *ViewModelInstanceService) ListSize(ctx context.Context, instance command.ViewModelInstanceHandle, path string) (int, error) {
	return await[int](ctx, s.d, s.continuations, "RequestViewModelInstanceListSize", func(id command.RequestID) {
		s.d.queue.RequestViewModelInstanceListSize(instance, path, id)
	})
}

// Append appends value to a list.
func (s *ViewModelInstanceService) Append(instance command.ViewModelInstanceHandle, path string, value command.ViewModelInstanceHandle) {
	s.d.send("AppendViewModelInstanceListViewModel", func(id command.RequestID) {
		s.d.queue.AppendViewModelInstanceListViewModel(instance, path, value, id)
	})
}

// Insert inserts value into a list at index.
func (s *ViewModelInstanceService) Insert(instance command.ViewModelInstanceHandle, path string, value command.ViewModelInstanceHandle, index int32) {
	s.d.send("InsertViewModelInstanceListViewModel", func(id command.RequestID) {
		s.d.queue.InsertViewModelInstanceListViewModel(instance, path, value, index, id)
	})
}

// RemoveAt removes the list element at index.
func (s *ViewModelInstanceService) RemoveAt(instance command.ViewModelInstanceHandle, path string, index int32) {
	s.d.send("RemoveViewModelInstanceListViewModelAtIndex", func(id command.RequestID) {
		s.d.queue.RemoveViewModelInstanceListViewModelAtIndex(instance, path, index, 0, id)
	})
}

// Remove removes value from a list.
func (s *ViewModelInstanceService) Remove(instance command.ViewModelInstanceHandle, path string, value command.ViewModelInstanceHandle) {
	s.d.send("RemoveViewModelInstanceListViewModelByValue", func(id command.RequestID) {
		s.d.queue.RemoveViewModelInstanceListViewModelByValue(instance, path, value, id)
	})
}

// Swap exchanges two list elements.
func (s *ViewModelInstanceService) Swap(instance command.ViewModelInstanceHandle, path string, atIndex, withIndex int32) {
	s.d.send("SwapViewModelInstanceListValues", func(id command.RequestID) {
		s.d.queue.SwapViewModelInstanceListValues(instance, path, atIndex, withIndex, id)
	})
}

// Delete releases an instance, then its listener.
func (s *ViewModelInstanceService) Delete(instance command.ViewModelInstanceHandle) {
	s.d.post(func() { s.deleteNow(instance) })
}

// deleteNow is Delete for callers already on the loop.
func (s *ViewModelInstanceService) deleteNow(instance command.ViewModelInstanceHandle) {
	s.d.queue.DeleteViewModelInstance(instance, s.d.nextID("DeleteViewModelInstance"))
	s.d.queue.DeleteViewModelInstanceListener(instance)
}

// decodeData picks the first present payload field in the order string,
// number, boolean, color.
func decodeData(data command.ViewModelData) (any, bool) {
	switch {
	case data.StringValue != nil:
		return *data.StringValue, true
	case data.NumberValue != nil:
		return *data.NumberValue, true
	case data.BoolValue != nil:
		return *data.BoolValue, true
	case data.ColorValue != nil:
		return ColorFromARGB(*data.ColorValue), true
	}
	return nil, false
}

// OnViewModelDataReceived answers a pending read, or feeds a subscription.
// Trigger payloads always yield an empty struct, whatever else they carry.
func (s *ViewModelInstanceService) OnViewModelDataReceived(_ command.ViewModelInstanceHandle, id command.RequestID, data command.ViewModelData) {
	s.d.post(func() {
		if s.continuations.Pending(id) {
			if v, ok := decodeData(data); ok {
				s.continuations.Resolve(id, v, nil)
			} else {
				s.continuations.Resolve(id, nil, errMissingData())
			}
			return
		}

		if !s.streams.Active(id) {
			s.d.logger.Debug("reply dropped", "request_id", uint64(id))
			return
		}
		if data.Type == command.DataTypeTrigger {
			s.streams.Yield(id, struct{}{})
			return
		}
		if v, ok := decodeData(data); ok {
			s.streams.Yield(id, v)
			return
		}
		s.streams.Finish(id, errMissingData())
	})
}

func (s *ViewModelInstanceService) OnViewModelInstanceNameReceived(_ command.ViewModelInstanceHandle, id command.RequestID, name string) {
	s.d.resolve(s.continuations, id, name, nil)
}

func (s *ViewModelInstanceService) OnViewModelListSizeReceived(_ command.ViewModelInstanceHandle, id command.RequestID, _ string, size int) {
	s.d.resolve(s.continuations, id, size, nil)
}
