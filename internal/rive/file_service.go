package rive

import (
	"context"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/correlator"
)

// FileService loads files and answers file-level queries. It is the
// command.FileListener for every file it loads.
type FileService struct {
	d             deps
	continuations *correlator.Continuations
}

func newFileService(d deps) *FileService {
	return &FileService{d: d, continuations: d.continuations()}
}

// LoadFile sends file bytes to the backend and waits for the handle.
func (s *FileService) LoadFile(ctx context.Context, data []byte) (command.FileHandle, error) {
	return await[command.FileHandle](ctx, s.d, s.continuations, "LoadFile", func(id command.RequestID) {
		s.d.queue.LoadFile(data, s, id)
	})
}

// ArtboardNames lists the artboards of a file.
func (s *FileService) ArtboardNames(ctx context.Context, file command.FileHandle) ([]string, error) {
	return await[[]string](ctx, s.d, s.continuations, "RequestArtboardNames", func(id command.RequestID) {
		s.d.queue.RequestArtboardNames(file, id)
	})
}

// ViewModelNames lists the view models of a file.
func (s *FileService) ViewModelNames(ctx context.Context, file command.FileHandle) ([]string, error) {
	return await[[]string](ctx, s.d, s.continuations, "RequestViewModelNames", func(id command.RequestID) {
		s.d.queue.RequestViewModelNames(file, id)
	})
}

// InstanceNames lists the named instances of a view model.
func (s *FileService) InstanceNames(ctx context.Context, file command.FileHandle, viewModel string) ([]string, error) {
	return await[[]string](ctx, s.d, s.continuations, "RequestViewModelInstanceNames", func(id command.RequestID) {
		s.d.queue.RequestViewModelInstanceNames(file, viewModel, id)
	})
}

// Properties lists the property definitions of a view model. A malformed
// definition fails the whole call.
func (s *FileService) Properties(ctx context.Context, file command.FileHandle, viewModel string) ([]ViewModelProperty, error) {
	return await[[]ViewModelProperty](ctx, s.d, s.continuations, "RequestViewModelPropertyDefinitions", func(id command.RequestID) {
		s.d.queue.RequestViewModelPropertyDefinitions(file, viewModel, id)
	})
}

// Enums lists the enums of a file. A malformed definition fails the whole call.
func (s *FileService) Enums(ctx context.Context, file command.FileHandle) ([]ViewModelEnum, error) {
	return await[[]ViewModelEnum](ctx, s.d, s.continuations, "RequestViewModelEnums", func(id command.RequestID) {
		s.d.queue.RequestViewModelEnums(file, id)
	})
}

// DeleteFile releases a file and, once the backend confirms, its listener.
func (s *FileService) DeleteFile(file command.FileHandle) {
	s.d.post(func() {
		id := s.d.nextID("DeleteFile")
		s.continuations.Register(id, correlator.Callback(func(deleted command.FileHandle, err error) {
			if err != nil {
				s.d.logger.Debug("file delete failed", "file", uint64(file), "error", err)
				return
			}
			s.d.queue.DeleteFileListener(deleted)
		}))
		s.d.queue.DeleteFile(file, id)
	})
}

func (s *FileService) OnFileLoaded(file command.FileHandle, id command.RequestID) {
	s.d.resolve(s.continuations, id, file, nil)
}

func (s *FileService) OnFileDeleted(file command.FileHandle, id command.RequestID) {
	s.d.resolve(s.continuations, id, file, nil)
}

func (s *FileService) OnFileError(_ command.FileHandle, id command.RequestID, message string) {
	s.d.resolve(s.continuations, id, nil, errBackend(ErrCodeInvalidFile, message))
}

func (s *FileService) OnArtboardsListed(_ command.FileHandle, id command.RequestID, names []string) {
	s.d.resolve(s.continuations, id, names, nil)
}

func (s *FileService) OnViewModelsListed(_ command.FileHandle, id command.RequestID, names []string) {
	s.d.resolve(s.continuations, id, names, nil)
}

func (s *FileService) OnViewModelInstanceNamesListed(_ command.FileHandle, id command.RequestID, _ string, names []string) {
	s.d.resolve(s.continuations, id, names, nil)
}

// Definitions are parsed on the calling goroutine; only the result crosses
// onto the loop.
func (s *FileService) OnViewModelPropertiesListed(_ command.FileHandle, id command.RequestID, _ string, properties []map[string]any) {
	props, err := parseAll(properties, ParseViewModelProperty)
	if err != nil {
		s.d.resolve(s.continuations, id, nil, err)
		return
	}
	s.d.resolve(s.continuations, id, props, nil)
}

func (s *FileService) OnViewModelEnumsListed(_ command.FileHandle, id command.RequestID, enums []map[string]any) {
	parsed, err := parseAll(enums, ParseViewModelEnum)
	if err != nil {
		s.d.resolve(s.continuations, id, nil, err)
		return
	}
	s.d.resolve(s.continuations, id, parsed, nil)
}
