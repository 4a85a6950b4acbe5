package rive

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/rivecq/internal/command"
)

// ViewModelInstance is a view model instance: a tree of typed properties.
//
// Nested instances obtained through Instance are cached per root: asking the
// same root for the same absolute path, directly or through intermediate
// nested instances, returns the same *ViewModelInstance. List elements from At
// are never cached.
type ViewModelInstance struct {
	handle command.ViewModelInstanceHandle
	svc    *ViewModelInstanceService
	tree   *instanceTree
	path   string // absolute path from the tree root; empty for the root
	life   lifecycle
}

// instanceTree caches nested instances by absolute path. Executor-confined.
type instanceTree struct {
	nodes map[string]*ViewModelInstance
}

func newViewModelInstance(h command.ViewModelInstanceHandle, svc *ViewModelInstanceService, tree *instanceTree, path string) *ViewModelInstance {
	if tree == nil {
		tree = &instanceTree{nodes: make(map[string]*ViewModelInstance)}
	}
	vmi := &ViewModelInstance{handle: h, svc: svc, tree: tree, path: path}
	arm(vmi, &vmi.life, func() { svc.Delete(h) })
	return vmi
}

func createViewModelInstance(ctx context.Context, d deps, file command.FileHandle, src InstanceSource) (*ViewModelInstance, error) {
	svc := newViewModelInstanceService(d)
	h, err := svc.Create(ctx, file, src)
	if err != nil {
		return nil, err
	}
	return newViewModelInstance(h, svc, nil, ""), nil
}

// Handle returns the backend handle.
func (vmi *ViewModelInstance) Handle() command.ViewModelInstanceHandle { return vmi.handle }

// Equal reports whether both instances name the same backend object.
func (vmi *ViewModelInstance) Equal(o *ViewModelInstance) bool {
	return o != nil && vmi.handle == o.handle
}

// Close releases the instance and every cached nested instance below it.
func (vmi *ViewModelInstance) Close() {
	vmi.life.close(func() {
		vmi.svc.d.post(vmi.release)
	})
}

// release runs on the loop.
func (vmi *ViewModelInstance) release() {
	prefix := vmi.path + "/"
	for p, child := range vmi.tree.nodes {
		if vmi.path != "" && !strings.HasPrefix(p, prefix) {
			continue
		}
		delete(vmi.tree.nodes, p)
		child.life.close(func() { child.svc.deleteNow(child.handle) })
	}
	if vmi.path != "" && vmi.tree.nodes[vmi.path] == vmi {
		delete(vmi.tree.nodes, vmi.path)
	}
	vmi.svc.deleteNow(vmi.handle)
}

// Name asks for the instance's name.
func (vmi *ViewModelInstance) Name(ctx context.Context) (string, error) {
	return vmi.svc.Name(ctx, vmi.handle)
}

// Get reads a property. Replies of another type fail with ErrCodeValueMismatch;
// replies without a value fail with ErrCodeMissingData.
func Get[T any](ctx context.Context, vmi *ViewModelInstance, p Property[T]) (T, error) {
	name, request, ok := vmi.svc.requestFor(p.kind)
	if !ok {
		var zero T
		return zero, &Error{Code: ErrCodeInvalidType, Message: "property kind cannot be read", Value: p.kind.String()}
	}
	return await[T](ctx, vmi.svc.d, vmi.svc.continuations, name, func(id command.RequestID) {
		request(vmi.handle, p.path, id)
	})
}

// Watch subscribes to a property. Each call opens its own subscription; close
// the stream to unsubscribe.
func Watch[T any](vmi *ViewModelInstance, p Property[T]) *Stream[T] {
	return subscribe[T](vmi.svc, vmi.handle, p.path, p.kind)
}

// Set writes a property. Writes are not acknowledged.
func Set[T any](vmi *ViewModelInstance, p Property[T], value T) {
	s := vmi.svc
	h := vmi.handle
	q := s.d.queue

	var (
		name  string
		issue func(id command.RequestID)
	)
	switch v := any(value).(type) {
	case string:
		if p.kind == command.DataTypeEnum {
			name, issue = "SetViewModelInstanceEnum", func(id command.RequestID) { q.SetViewModelInstanceEnum(h, p.path, v, id) }
		} else {
			name, issue = "SetViewModelInstanceString", func(id command.RequestID) { q.SetViewModelInstanceString(h, p.path, v, id) }
		}
	case float32:
		name, issue = "SetViewModelInstanceNumber", func(id command.RequestID) { q.SetViewModelInstanceNumber(h, p.path, v, id) }
	case bool:
		name, issue = "SetViewModelInstanceBool", func(id command.RequestID) { q.SetViewModelInstanceBool(h, p.path, v, id) }
	case Color:
		name, issue = "SetViewModelInstanceColor", func(id command.RequestID) { q.SetViewModelInstanceColor(h, p.path, v.ARGB(), id) }
	default:
		s.d.logger.Debug("write dropped", "path", p.path, "type", fmt.Sprintf("%T", value))
		return
	}
	s.d.send(name, issue)
}

// Fire fires a trigger.
func (vmi *ViewModelInstance) Fire(p TriggerProperty) {
	vmi.svc.Fire(vmi.handle, p.Path)
}

// TriggerStream subscribes to a trigger. Every firing yields an empty struct.
func (vmi *ViewModelInstance) TriggerStream(p TriggerProperty) *Stream[struct{}] {
	return subscribe[struct{}](vmi.svc, vmi.handle, p.Path, command.DataTypeTrigger)
}

// SetImage assigns img to an image property.
func (vmi *ViewModelInstance) SetImage(p ImageProperty, img *Image) {
	vmi.svc.SetImage(vmi.handle, p.Path, img.handle)
}

// SetArtboard assigns an artboard to an artboard property.
func (vmi *ViewModelInstance) SetArtboard(p ArtboardProperty, a *Artboard) {
	vmi.svc.SetArtboard(vmi.handle, p.Path, a.handle)
}

// SetInstance replaces a nested instance.
func (vmi *ViewModelInstance) SetInstance(p InstanceProperty, value *ViewModelInstance) {
	vmi.svc.SetNested(vmi.handle, p.Path, value.handle)
}

// Instance returns the nested instance at p. The result is cached by its
// absolute path from the root and owned by the root: closing the root closes
// it.
func (vmi *ViewModelInstance) Instance(ctx context.Context, p InstanceProperty) (*ViewModelInstance, error) {
	abs := joinPath(vmi.path, p.Path)

	var out *ViewModelInstance
	err := vmi.svc.d.do(ctx, func() {
		if cached, ok := vmi.tree.nodes[abs]; ok {
			out = cached
			return
		}
		child := newViewModelInstanceService(vmi.svc.d)
		h := vmi.svc.d.queue.ReferenceNestedViewModelInstance(vmi.handle, p.Path, child, vmi.svc.d.nextID("ReferenceNestedViewModelInstance"))
		out = newViewModelInstance(h, child, vmi.tree, abs)
		vmi.tree.nodes[abs] = out
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Size asks for the length of a list. Nothing is cached; query again after a
// mutation.
func (vmi *ViewModelInstance) Size(ctx context.Context, p ListProperty) (int, error) {
	return vmi.svc.ListSize(ctx, vmi.handle, p.Path)
}

// At references the list element at index. Every call returns a new object
// that the caller must close.
func (vmi *ViewModelInstance) At(ctx context.Context, p ListProperty, index int32) (*ViewModelInstance, error) {
	return claim(ctx, vmi.svc.d, func() *ViewModelInstance {
		child := newViewModelInstanceService(vmi.svc.d)
		h := vmi.svc.d.queue.ReferenceListViewModelInstance(vmi.handle, p.Path, index, child, vmi.svc.d.nextID("ReferenceListViewModelInstance"))
		return newViewModelInstance(h, child, nil, "")
	}, func(el *ViewModelInstance) {
		el.life.close(el.release)
	})
}

// Append appends value to a list.
func (vmi *ViewModelInstance) Append(p ListProperty, value *ViewModelInstance) {
	vmi.svc.Append(vmi.handle, p.Path, value.handle)
}

// Insert inserts value into a list at index.
func (vmi *ViewModelInstance) Insert(p ListProperty, value *ViewModelInstance, index int32) {
	vmi.svc.Insert(vmi.handle, p.Path, value.handle, index)
}

// RemoveAt removes the list element at index.
func (vmi *ViewModelInstance) RemoveAt(p ListProperty, index int32) {
	vmi.svc.RemoveAt(vmi.handle, p.Path, index)
}

// Remove removes value from a list.
func (vmi *ViewModelInstance) Remove(p ListProperty, value *ViewModelInstance) {
	vmi.svc.Remove(vmi.handle, p.Path, value.handle)
}

// Swap exchanges two list elements.
func (vmi *ViewModelInstance) Swap(p ListProperty, atIndex, withIndex int32) {
	vmi.svc.Swap(vmi.handle, p.Path, atIndex, withIndex)
}

func joinPath(base, rel string) string {
	rel = strings.Trim(rel, "/")
	if base == "" {
		return rel
	}
	return base + "/" + rel
}
