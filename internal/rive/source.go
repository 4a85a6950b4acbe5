package rive

import "context"

// Source produces the bytes of a file. The fileloader package provides local,
// remote and in-memory sources.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// Data is a Source over bytes already in memory.
type Data []byte

// Load returns the bytes, or an ErrCodeMissingData error when empty.
func (d Data) Load(context.Context) ([]byte, error) {
	if len(d) == 0 {
		return nil, &Error{Code: ErrCodeMissingData, Message: "file data is empty"}
	}
	return d, nil
}

// ViewModelSource selects the view model an instance is created from.
type ViewModelSource struct {
	artboard  *Artboard
	viewModel string
}

// ArtboardDefault selects the default view model of an artboard.
func ArtboardDefault(a *Artboard) ViewModelSource {
	return ViewModelSource{artboard: a}
}

// ViewModelNamed selects a view model by name.
func ViewModelNamed(name string) ViewModelSource {
	return ViewModelSource{viewModel: name}
}

type instanceKind int

const (
	instanceBlank instanceKind = iota
	instanceDefault
	instanceNamed
)

// InstanceSource selects how a view model instance is created.
type InstanceSource struct {
	kind     instanceKind
	instance string
	from     ViewModelSource
}

// Blank creates an instance with default property values.
func Blank(from ViewModelSource) InstanceSource {
	return InstanceSource{kind: instanceBlank, from: from}
}

// Default creates a copy of the view model's default instance.
func Default(from ViewModelSource) InstanceSource {
	return InstanceSource{kind: instanceDefault, from: from}
}

// Named creates a copy of a named instance.
func Named(instance string, from ViewModelSource) InstanceSource {
	return InstanceSource{kind: instanceNamed, instance: instance, from: from}
}
