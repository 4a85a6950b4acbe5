package rive

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/rivecq/internal/command"
)

// File is a loaded file.
type File struct {
	handle command.FileHandle
	svc    *FileService
	worker *Worker
	life   lifecycle
}

// OpenFile loads src and sends it to the backend.
func OpenFile(ctx context.Context, w *Worker, src Source) (*File, error) {
	data, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load file: %w", errWrapped("source failed", err))
	}

	svc := newFileService(w.d)
	h, err := svc.LoadFile(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("load file: %w", err)
	}
	w.d.logger.Info("file loaded", "file", uint64(h), "bytes", len(data))

	f := &File{handle: h, svc: svc, worker: w}
	arm(f, &f.life, func() { svc.DeleteFile(h) })
	return f, nil
}

// Handle returns the backend handle.
func (f *File) Handle() command.FileHandle { return f.handle }

// Equal reports whether both files name the same backend object.
func (f *File) Equal(o *File) bool { return o != nil && f.handle == o.handle }

// Close releases the file.
func (f *File) Close() {
	f.life.close(func() { f.svc.DeleteFile(f.handle) })
}

// ArtboardNames lists the file's artboards. Every call queries the backend.
func (f *File) ArtboardNames(ctx context.Context) ([]string, error) {
	return f.svc.ArtboardNames(ctx, f.handle)
}

// ViewModelNames lists the file's view models.
func (f *File) ViewModelNames(ctx context.Context) ([]string, error) {
	return f.svc.ViewModelNames(ctx, f.handle)
}

// InstanceNames lists the named instances of a view model.
func (f *File) InstanceNames(ctx context.Context, viewModel string) ([]string, error) {
	return f.svc.InstanceNames(ctx, f.handle, viewModel)
}

// Properties lists the property definitions of a view model.
func (f *File) Properties(ctx context.Context, viewModel string) ([]ViewModelProperty, error) {
	return f.svc.Properties(ctx, f.handle, viewModel)
}

// Enums lists the enums defined in the file.
func (f *File) Enums(ctx context.Context) ([]ViewModelEnum, error) {
	return f.svc.Enums(ctx, f.handle)
}

// CreateArtboard creates the named artboard, or the default artboard when name
// is empty. A name is checked against ArtboardNames before anything is created.
func (f *File) CreateArtboard(ctx context.Context, name string) (*Artboard, error) {
	if name != "" {
		names, err := f.ArtboardNames(ctx)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(names, name) {
			return nil, errInvalid(ErrCodeInvalidArtboard, "artboard", name)
		}
	}
	return createArtboard(ctx, f.worker.d, f.handle, name)
}

// CreateViewModelInstance creates an instance from src.
//
// Only Named(instance, ViewModelNamed(vm)) is validated client-side: the view
// model and then the instance name must exist. Other sources rely on the
// backend.
func (f *File) CreateViewModelInstance(ctx context.Context, src InstanceSource) (*ViewModelInstance, error) {
	if src.kind == instanceNamed && src.from.artboard == nil {
		vms, err := f.ViewModelNames(ctx)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(vms, src.from.viewModel) {
			return nil, errInvalid(ErrCodeInvalidViewModel, "view model", src.from.viewModel)
		}
		instances, err := f.InstanceNames(ctx, src.from.viewModel)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(instances, src.instance) {
			return nil, errInvalid(ErrCodeInvalidViewModelInstance, "view model instance", src.instance)
		}
	}
	return createViewModelInstance(ctx, f.worker.d, f.handle, src)
}

// DefaultViewModelInfo returns the names of the default view model and
// instance bound to an artboard of this file.
func (f *File) DefaultViewModelInfo(ctx context.Context, a *Artboard) (viewModel, instance string, err error) {
	info, err := a.svc.DefaultViewModelInfo(ctx, a.handle, f.handle)
	if err != nil {
		return "", "", err
	}
	return info.ViewModel, info.Instance, nil
}
